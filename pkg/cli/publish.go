package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/sustainlab/ecopipe/pkg/config"
	"github.com/sustainlab/ecopipe/pkg/release"
	"github.com/sustainlab/ecopipe/pkg/zenodo"
	"github.com/urfave/cli/v2"
)

var (
	requireAllFlag = &cli.BoolFlag{
		Name:  "require-all",
		Usage: "Fail when any configured release artifact is missing",
	}
	collectOnlyFlag = &cli.BoolFlag{
		Name:  "collect-only",
		Usage: "Assemble the payload without talking to the archive",
	}
	doPublishFlag = &cli.BoolFlag{
		Name:  "publish",
		Usage: "Publish the deposition after upload (irreversible on production)",
	}
)

var publishCmd = &cli.Command{
	Name:   "publish",
	Usage:  "Assemble the release payload and upload it as an archive deposition",
	Flags:  []cli.Flag{requireAllFlag, collectOnlyFlag, doPublishFlag},
	Action: cmdPublish,
}

// PublishResult reports the assembled payload and, unless collect-only, the
// created deposition.
type PublishResult struct {
	Payload      *release.Collection `json:"payload" yaml:"payload"`
	Environment  string              `json:"environment,omitempty" yaml:"environment,omitempty"`
	DepositionID int                 `json:"deposition_id,omitempty" yaml:"deposition_id,omitempty"`
	DOI          string              `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL          string              `json:"url,omitempty" yaml:"url,omitempty"`
	Uploaded     []string            `json:"uploaded,omitempty" yaml:"uploaded,omitempty"`
	Published    bool                `json:"published,omitempty" yaml:"published,omitempty"`
}

func cmdPublish(c *cli.Context) error {
	cfg := getConfig(c)
	start := time.Now()

	res, err := runPublish(c, cfg)
	if err != nil {
		return err
	}

	logRun(cfg, "publish", start,
		map[string]any{
			"environment": res.Environment,
			"deposition":  res.DepositionID,
			"published":   res.Published,
		},
		map[string]float64{
			"payload_files":  float64(len(res.Payload.Copied)),
			"uploaded_files": float64(len(res.Uploaded)),
		})
	return encode(res)
}

func runPublish(c *cli.Context, cfg *appConfig) (*PublishResult, error) {
	rel := cfg.Pipeline.Release
	groups := []release.Group{
		{Name: "data", Prefix: processedDirName, Items: rel.Files},
		{Name: "results", Prefix: resultsDirName, Items: rel.Results},
		{Name: "models", Prefix: modelsDirName, Items: rel.Models},
	}

	col, err := release.Collect(cfg.Dir, payloadDir(cfg), groups, c.Bool(requireAllFlag.Name))
	if err != nil {
		return nil, fmt.Errorf("assembling release payload: %w", err)
	}
	slog.Info("release payload assembled",
		"dir", col.Dir, "files", len(col.Copied), "missing", len(col.Missing))

	res := &PublishResult{Payload: col}
	if c.Bool(collectOnlyFlag.Name) {
		return res, nil
	}

	meta, err := config.LoadDepositMeta(workspacePath(cfg, rel.MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("loading deposit metadata: %w", err)
	}

	token, err := getArchiveToken()
	if err != nil {
		return nil, err
	}

	base := cfg.Pipeline.Archive.BaseURL
	if base == "" {
		if base, err = zenodo.BaseURLFor(cfg.Pipeline.Archive.Environment); err != nil {
			return nil, err
		}
	}
	res.Environment = cfg.Pipeline.Archive.Environment

	client, err := zenodo.NewClient(c.Context, base, token)
	if err != nil {
		return nil, err
	}

	dep, err := client.CreateDeposition(c.Context, meta)
	if err != nil {
		return nil, err
	}
	slog.Info("deposition created", "id", dep.ID, "environment", res.Environment)

	names := append(append([]string(nil), col.Copied...), release.ManifestFileName)
	for _, name := range names {
		path := filepath.Join(col.Dir, name)
		if err := client.UploadFile(c.Context, dep, path); err != nil {
			return nil, err
		}
		slog.Info("uploaded", "file", name)
		res.Uploaded = append(res.Uploaded, name)
	}

	res.DepositionID = dep.ID
	res.DOI = dep.DOI
	res.URL = dep.Links.HTML

	if c.Bool(doPublishFlag.Name) {
		pub, err := client.Publish(c.Context, dep)
		if err != nil {
			return nil, err
		}
		res.Published = true
		if pub.DOI != "" {
			res.DOI = pub.DOI
		}
		if pub.Links.HTML != "" {
			res.URL = pub.Links.HTML
		}
		slog.Info("deposition published", "id", dep.ID, "doi", res.DOI)
	}

	return res, nil
}
