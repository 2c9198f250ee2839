package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/sustainlab/ecopipe/pkg/dataset"
	"github.com/urfave/cli/v2"
)

var prepareCmd = &cli.Command{
	Name:   "prepare",
	Usage:  "Validate the raw dataset, drop bad rows and write the train/test/validation split",
	Action: cmdPrepare,
}

// PrepareResult summarizes the cleaning and split outcome.
type PrepareResult struct {
	Rows       int      `json:"rows" yaml:"rows"`
	Dropped    int      `json:"dropped" yaml:"dropped"`
	Train      int      `json:"train" yaml:"train"`
	Test       int      `json:"test" yaml:"test"`
	Validation int      `json:"validation" yaml:"validation"`
	Files      []string `json:"files" yaml:"files"`
}

func cmdPrepare(c *cli.Context) error {
	cfg := getConfig(c)
	res, err := prepareStage(cfg)
	if err != nil {
		return err
	}
	return encode(res)
}

func prepareStage(cfg *appConfig) (*PrepareResult, error) {
	start := time.Now()
	res, err := runPrepare(cfg)
	if err != nil {
		return nil, err
	}

	logRun(cfg, "prepare", start,
		map[string]any{"files": res.Files},
		map[string]float64{
			"rows":       float64(res.Rows),
			"dropped":    float64(res.Dropped),
			"train":      float64(res.Train),
			"test":       float64(res.Test),
			"validation": float64(res.Validation),
		})
	return res, nil
}

func runPrepare(cfg *appConfig) (*PrepareResult, error) {
	ds := cfg.Pipeline.Dataset
	required := append(append([]string(nil), ds.Features...), ds.Target)

	f, err := dataset.ReadCSV(rawFile(cfg), required...)
	if err != nil {
		return nil, fmt.Errorf("reading raw dataset (run acquire first): %w", err)
	}

	clean, dropped := f.DropNonFinite()
	if dropped > 0 {
		slog.Warn("dropped rows with non-finite values", "dropped", dropped, "kept", clean.Len())
	}

	train, test, validation, err := dataset.Split(clean, ds.Seed, ds.TrainFraction, ds.TestFraction)
	if err != nil {
		return nil, fmt.Errorf("splitting dataset: %w", err)
	}

	if err := ensureDir(filepath.Join(cfg.Dir, processedDirName)); err != nil {
		return nil, err
	}

	files := []string{}
	for _, s := range []struct {
		name  string
		frame *dataset.Frame
	}{
		{trainFileName, train},
		{testFileName, test},
		{validationFileName, validation},
	} {
		path := processedFile(cfg, s.name)
		if err := dataset.WriteCSV(path, s.frame); err != nil {
			return nil, fmt.Errorf("writing %s: %w", s.name, err)
		}
		files = append(files, path)
	}

	slog.Info("dataset prepared",
		"rows", clean.Len(), "train", train.Len(), "test", test.Len(), "validation", validation.Len())

	return &PrepareResult{
		Rows:       clean.Len(),
		Dropped:    dropped,
		Train:      train.Len(),
		Test:       test.Len(),
		Validation: validation.Len(),
		Files:      files,
	}, nil
}
