package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"
)

var runCmd = &cli.Command{
	Name:   "run",
	Usage:  "Run the full pipeline: acquire, prepare, train, sustain, scenario",
	Action: cmdRunAll,
}

// StageOutcome is one completed stage in a full pipeline run.
type StageOutcome struct {
	Stage    string `json:"stage" yaml:"stage"`
	Duration string `json:"duration" yaml:"duration"`
}

// RunAllResult summarizes a full pipeline run.
type RunAllResult struct {
	Stages   []StageOutcome `json:"stages" yaml:"stages"`
	Duration string         `json:"duration" yaml:"duration"`
}

// cmdRunAll chains the analysis stages, halting on the first failure.
// Publishing stays a separate, explicit step.
func cmdRunAll(c *cli.Context) error {
	cfg := getConfig(c)
	start := time.Now()

	stages := []struct {
		name string
		fn   func(*appConfig) error
	}{
		{"acquire", func(cfg *appConfig) error { _, err := acquireStage(cfg); return err }},
		{"prepare", func(cfg *appConfig) error { _, err := prepareStage(cfg); return err }},
		{"train", func(cfg *appConfig) error { _, err := trainStage(cfg); return err }},
		{"sustain", func(cfg *appConfig) error { _, err := sustainStage(cfg); return err }},
		{"scenario", func(cfg *appConfig) error { _, err := scenarioStage(cfg); return err }},
	}

	res := &RunAllResult{}
	for _, s := range stages {
		slog.Info("stage starting", "stage", s.name)
		stageStart := time.Now()
		if err := s.fn(cfg); err != nil {
			return fmt.Errorf("stage %s: %w", s.name, err)
		}
		d := time.Since(stageStart)
		slog.Info("stage complete", "stage", s.name, "duration", d.Round(time.Millisecond))
		res.Stages = append(res.Stages, StageOutcome{
			Stage:    s.name,
			Duration: d.Round(time.Millisecond).String(),
		})
	}

	res.Duration = time.Since(start).Round(time.Millisecond).String()
	return encode(res)
}
