package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sustainlab/ecopipe/pkg/config"
	"github.com/sustainlab/ecopipe/pkg/dataset"
	"github.com/sustainlab/ecopipe/pkg/figure"
	"github.com/sustainlab/ecopipe/pkg/sustain"
	"github.com/sustainlab/ecopipe/pkg/train"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/gonum/stat"
)

const (
	co2FigureName = "co2_proxy_distribution.png"
	mciFigureName = "mci_proxy_distribution.png"
)

var sustainCmd = &cli.Command{
	Name:   "sustain",
	Usage:  "Score the validation split with the sustainability proxies",
	Action: cmdSustain,
}

// SustainResult points at the scored dataset and summarizes the proxy scores.
type SustainResult struct {
	ScoredPath  string             `json:"scored" yaml:"scored"`
	SummaryPath string             `json:"summary" yaml:"summary"`
	Figures     []string           `json:"figures" yaml:"figures"`
	V1Drivers   map[string]string  `json:"v1_drivers" yaml:"v1_drivers"`
	PCAMode     string             `json:"pca_mode" yaml:"pca_mode"`
	Means       map[string]float64 `json:"means" yaml:"means"`
}

// sustainSummary is the JSON sidecar written next to the scored dataset.
type sustainSummary struct {
	Rows      int                       `json:"rows"`
	Means     map[string]float64        `json:"means"`
	V1        *sustain.V1Result         `json:"v1"`
	PCA       *sustain.PCAResult        `json:"pca"`
	Assumed   *sustain.AssumptionResult `json:"assumed"`
	ModelKind string                    `json:"model_kind"`
}

func cmdSustain(c *cli.Context) error {
	cfg := getConfig(c)
	res, err := sustainStage(cfg)
	if err != nil {
		return err
	}
	return encode(res)
}

func sustainStage(cfg *appConfig) (*SustainResult, error) {
	start := time.Now()
	res, err := runSustain(cfg)
	if err != nil {
		return nil, err
	}

	logRun(cfg, "sustain", start,
		map[string]any{"scored": res.ScoredPath, "pca_mode": res.PCAMode},
		res.Means)
	return res, nil
}

func runSustain(cfg *appConfig) (*SustainResult, error) {
	ds := cfg.Pipeline.Dataset
	required := append(append([]string(nil), ds.Features...), ds.Target)

	valF, err := dataset.ReadCSV(processedFile(cfg, validationFileName), required...)
	if err != nil {
		return nil, fmt.Errorf("reading validation split (run prepare first): %w", err)
	}

	model, err := train.Load(modelFile(cfg))
	if err != nil {
		return nil, fmt.Errorf("loading model (run train first): %w", err)
	}

	pred, err := model.Predict(valF)
	if err != nil {
		return nil, fmt.Errorf("predicting validation split: %w", err)
	}

	v1, err := sustain.V1(valF, pred, cfg.Pipeline.Sustainability.Weights)
	if err != nil {
		return nil, fmt.Errorf("v1 proxy: %w", err)
	}

	pca, err := sustain.PCAIndex(valF, pred, nil)
	if err != nil {
		return nil, fmt.Errorf("pca proxy: %w", err)
	}
	if pca.Mode != sustain.PCAModeFull {
		slog.Warn("pca proxy degraded", "mode", pca.Mode, "columns", pca.UsedColumns)
	}

	assumptions, err := config.LoadAssumptions(
		workspacePath(cfg, cfg.Pipeline.Sustainability.AssumptionsFile))
	if err != nil {
		return nil, fmt.Errorf("loading assumptions: %w", err)
	}
	assumed, err := sustain.FromAssumptions(valF, pred, assumptions)
	if err != nil {
		return nil, fmt.Errorf("assumption proxy: %w", err)
	}

	// Scored frame: validation rows plus predictions and every proxy column.
	out := valF.Clone()
	cols := []struct {
		name   string
		values []float64
	}{
		{"y_pred", pred},
		{"energy_proxy", v1.Energy},
		{"co2_proxy", v1.CO2},
		{"mci_proxy", v1.MCI},
		{"energy_pca_proxy", pca.Energy},
		{"co2_pca_proxy", pca.CO2},
		{"mci_pca_proxy", pca.MCI},
		{"energy_assumed", assumed.Energy},
	}
	for _, c := range cols {
		if err := out.AddColumn(c.name, c.values); err != nil {
			return nil, err
		}
	}

	metricNames := make([]string, 0, len(assumed.Metrics))
	for name := range assumed.Metrics {
		metricNames = append(metricNames, name)
	}
	sort.Strings(metricNames)
	for _, name := range metricNames {
		if err := out.AddColumn(name+"_assumed", assumed.Metrics[name]); err != nil {
			return nil, err
		}
	}

	if err := ensureDir(filepath.Join(cfg.Dir, resultsDirName)); err != nil {
		return nil, err
	}
	scoredPath := resultsFile(cfg, scoredFileName)
	if err := dataset.WriteCSV(scoredPath, out); err != nil {
		return nil, fmt.Errorf("writing scored dataset: %w", err)
	}

	means := map[string]float64{
		"y_pred":           stat.Mean(pred, nil),
		"energy_proxy":     stat.Mean(v1.Energy, nil),
		"co2_proxy":        stat.Mean(v1.CO2, nil),
		"mci_proxy":        stat.Mean(v1.MCI, nil),
		"energy_pca_proxy": stat.Mean(pca.Energy, nil),
		"co2_pca_proxy":    stat.Mean(pca.CO2, nil),
		"mci_pca_proxy":    stat.Mean(pca.MCI, nil),
		"energy_assumed":   stat.Mean(assumed.Energy, nil),
	}
	for _, name := range metricNames {
		means[name+"_assumed"] = stat.Mean(assumed.Metrics[name], nil)
	}

	summaryPath := resultsFile(cfg, sustainFileName)
	summary := &sustainSummary{
		Rows:      out.Len(),
		Means:     means,
		V1:        v1,
		PCA:       pca,
		Assumed:   assumed,
		ModelKind: model.Kind,
	}
	b, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling sustainability summary: %w", err)
	}
	if err := os.WriteFile(summaryPath, b, 0600); err != nil {
		return nil, fmt.Errorf("writing sustainability summary: %w", err)
	}

	figures := []string{}
	for _, fig := range []struct {
		name, title string
		values      []float64
	}{
		{co2FigureName, "CO2 proxy distribution", v1.CO2},
		{mciFigureName, "MCI proxy distribution", v1.MCI},
	} {
		path := resultsFile(cfg, fig.name)
		if err := figure.Distribution(path, fig.title, fig.values); err != nil {
			return nil, fmt.Errorf("writing %s: %w", fig.name, err)
		}
		figures = append(figures, path)
	}

	slog.Info("sustainability scores computed",
		"rows", out.Len(), "co2_mean", means["co2_proxy"], "mci_mean", means["mci_proxy"])

	return &SustainResult{
		ScoredPath:  scoredPath,
		SummaryPath: summaryPath,
		Figures:     figures,
		V1Drivers:   v1.Drivers,
		PCAMode:     pca.Mode,
		Means:       means,
	}, nil
}
