package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sustainlab/ecopipe/pkg/dataset"
	"github.com/sustainlab/ecopipe/pkg/figure"
	"github.com/sustainlab/ecopipe/pkg/scenario"
	"github.com/sustainlab/ecopipe/pkg/train"
	"github.com/urfave/cli/v2"
)

const scenarioFigureName = "scenario_co2.png"

var scenarioCmd = &cli.Command{
	Name:   "scenario",
	Usage:  "Perturb each driver by the configured factors and report the score sensitivity",
	Action: cmdScenario,
}

// ScenarioResult points at the sensitivity report artifacts.
type ScenarioResult struct {
	CSVPath    string           `json:"csv" yaml:"csv"`
	JSONPath   string           `json:"json" yaml:"json"`
	FigurePath string           `json:"figure" yaml:"figure"`
	Report     *scenario.Report `json:"report" yaml:"report"`
}

func cmdScenario(c *cli.Context) error {
	cfg := getConfig(c)
	res, err := scenarioStage(cfg)
	if err != nil {
		return err
	}
	return encode(res)
}

func scenarioStage(cfg *appConfig) (*ScenarioResult, error) {
	start := time.Now()
	res, err := runScenario(cfg)
	if err != nil {
		return nil, err
	}

	logRun(cfg, "scenario", start,
		map[string]any{"rows": len(res.Report.Rows), "csv": res.CSVPath},
		map[string]float64{
			"baseline_co2": res.Report.Baseline.MeanCO2,
			"baseline_mci": res.Report.Baseline.MeanMCI,
		})
	return res, nil
}

func runScenario(cfg *appConfig) (*ScenarioResult, error) {
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

	report, err := scenario.Run(valF, model,
		cfg.Pipeline.Sustainability.Weights, cfg.Pipeline.Scenario.Factors)
	if err != nil {
		return nil, fmt.Errorf("scenario analysis: %w", err)
	}

	if err := ensureDir(filepath.Join(cfg.Dir, resultsDirName)); err != nil {
		return nil, err
	}

	csvPath := resultsFile(cfg, scenarioCSVName)
	if err := report.WriteCSV(csvPath); err != nil {
		return nil, fmt.Errorf("writing scenario report: %w", err)
	}

	jsonPath := resultsFile(cfg, scenarioJSONName)
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling scenario report: %w", err)
	}
	if err := os.WriteFile(jsonPath, b, 0600); err != nil {
		return nil, fmt.Errorf("writing scenario report: %w", err)
	}

	figPath := resultsFile(cfg, scenarioFigureName)
	if err := figure.Lines(figPath, "CO2 proxy by driver perturbation", "factor", "mean CO2 proxy",
		scenarioSeries(report)); err != nil {
		return nil, fmt.Errorf("writing scenario figure: %w", err)
	}

	slog.Info("scenario analysis complete",
		"drivers", len(scenarioSeries(report)), "rows", len(report.Rows))

	return &ScenarioResult{
		CSVPath:    csvPath,
		JSONPath:   jsonPath,
		FigurePath: figPath,
		Report:     report,
	}, nil
}

// scenarioSeries groups the report rows into one line per driver. Rows are
// already driver-alphabetical then factor-ascending.
func scenarioSeries(r *scenario.Report) []figure.Series {
	var out []figure.Series
	for _, row := range r.Rows {
		if len(out) == 0 || out[len(out)-1].Name != row.Driver {
			out = append(out, figure.Series{Name: row.Driver})
		}
		s := &out[len(out)-1]
		s.Points = append(s.Points, figure.XY{X: row.Factor, Y: row.MeanCO2})
	}
	return out
}
