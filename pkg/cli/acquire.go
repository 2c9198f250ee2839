package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/sustainlab/ecopipe/pkg/dataset"
	"github.com/sustainlab/ecopipe/pkg/zenodo"
	"github.com/urfave/cli/v2"
)

// synthRows is the size of the fallback dataset generated when the archive
// record cannot be fetched.
const synthRows = 200

const (
	sourceArchive   = "archive"
	sourceCache     = "cache"
	sourceSynthetic = "synthetic"
)

var acquireCmd = &cli.Command{
	Name:   "acquire",
	Usage:  "Fetch the raw dataset from the archive record (synthesizes a fallback when unreachable)",
	Action: cmdAcquire,
}

// AcquireResult reports where the raw dataset came from.
type AcquireResult struct {
	Source string `json:"source" yaml:"source"`
	Path   string `json:"path" yaml:"path"`
	Rows   int    `json:"rows" yaml:"rows"`
	Record string `json:"record,omitempty" yaml:"record,omitempty"`
}

func cmdAcquire(c *cli.Context) error {
	cfg := getConfig(c)
	res, err := acquireStage(cfg)
	if err != nil {
		return err
	}
	return encode(res)
}

func acquireStage(cfg *appConfig) (*AcquireResult, error) {
	start := time.Now()
	res, err := runAcquire(cfg)
	if err != nil {
		return nil, err
	}

	logRun(cfg, "acquire", start,
		map[string]any{"source": res.Source, "path": res.Path, "record": res.Record},
		map[string]float64{"rows": float64(res.Rows)})
	return res, nil
}

func runAcquire(cfg *appConfig) (*AcquireResult, error) {
	arc := cfg.Pipeline.Archive

	dir := filepath.Join(cfg.Dir, rawDirName)
	if err := ensureDir(dir); err != nil {
		return nil, err
	}

	base := arc.BaseURL
	if base == "" {
		base = zenodo.ProductionBaseURL
	}

	if rec, err := zenodo.FetchRecord(base, arc.RecordID); err == nil {
		slog.Debug("record resolved", "record", arc.RecordID, "title", rec.Metadata.Title, "doi", rec.DOI)
	}

	path, cached, err := zenodo.FetchRecordFile(base, arc.RecordID, arc.RecordFile, dir)
	if err != nil {
		slog.Warn("archive record unreachable, synthesizing fallback dataset",
			"record", arc.RecordID, "file", arc.RecordFile, "error", err)
		return synthesizeRaw(cfg)
	}

	f, err := dataset.ReadCSV(path)
	if err != nil {
		slog.Warn("fetched record file is not a usable dataset, synthesizing fallback",
			"path", path, "error", err)
		return synthesizeRaw(cfg)
	}

	source := sourceArchive
	if cached {
		source = sourceCache
		slog.Info("using cached record file", "path", path)
	} else {
		slog.Info("fetched record file", "record", arc.RecordID, "path", path)
	}

	return &AcquireResult{
		Source: source,
		Path:   path,
		Rows:   f.Len(),
		Record: arc.RecordID,
	}, nil
}

func synthesizeRaw(cfg *appConfig) (*AcquireResult, error) {
	f := dataset.Synthesize(synthRows, cfg.Pipeline.Dataset.Seed)
	path := rawFile(cfg)
	if err := dataset.WriteCSV(path, f); err != nil {
		return nil, fmt.Errorf("writing fallback dataset: %w", err)
	}
	slog.Info("synthesized fallback dataset", "path", path, "rows", f.Len())
	return &AcquireResult{
		Source: sourceSynthetic,
		Path:   path,
		Rows:   f.Len(),
	}, nil
}
