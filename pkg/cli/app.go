package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sustainlab/ecopipe/pkg/config"
	"github.com/sustainlab/ecopipe/pkg/data"
	"github.com/sustainlab/ecopipe/pkg/logging"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	dirMode      = 0700
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	outputFormat = formatJSON

	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	dirFlag = &cli.StringFlag{
		Name:  "dir",
		Usage: "Path to the pipeline workspace (default: current directory)",
		Value: ".",
	}

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger(false)

	app := newApp()
	if err := app.Run(os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Dir      string
	Pipeline *config.Pipeline
	Debug    bool
	DB       *sql.DB
}

func getConfig(c *cli.Context) *appConfig {
	return c.App.Metadata[appConfigKey].(*appConfig)
}

func newApp() *cli.App {
	return &cli.App{
		Name:                 "ecopipe",
		Version:              fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Compiled:             time.Now(),
		EnableBashCompletion: true,
		HideHelpCommand:      true,
		Usage:                "Sustainability scoring pipeline: acquire, prepare, train, score, publish",
		Metadata:             map[string]interface{}{},
		Flags: []cli.Flag{
			debugFlag,
			dirFlag,
			formatFlag,
		},
		Commands: []*cli.Command{
			authCmd,
			acquireCmd,
			prepareCmd,
			trainCmd,
			sustainCmd,
			scenarioCmd,
			publishCmd,
			runCmd,
			historyCmd,
		},
		Before: func(c *cli.Context) error {
			logging.SetDefaultCLILogger(c.Bool(debugFlag.Name))

			f := c.String(formatFlag.Name)
			if f == formatYAML || f == "yml" {
				outputFormat = formatYAML
			}

			dir := c.String(dirFlag.Name)
			if dir == "" {
				dir = "."
			}

			p, err := config.ReadOrCreate(dir)
			if err != nil {
				return fmt.Errorf("loading pipeline config: %w", err)
			}

			dbPath := filepath.Join(dir, data.DataFileName)
			if err := data.Init(dbPath); err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}

			db, err := data.GetDB(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}

			c.App.Metadata[appConfigKey] = &appConfig{
				Dir:      dir,
				Pipeline: p,
				Debug:    c.Bool(debugFlag.Name),
				DB:       db,
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if cfg, ok := c.App.Metadata[appConfigKey].(*appConfig); ok && cfg.DB != nil {
				cfg.DB.Close()
			}
			return nil
		},
	}
}

func encode(v any) error {
	if outputFormat == formatYAML {
		return yaml.NewEncoder(os.Stdout).Encode(v)
	}
	e := json.NewEncoder(os.Stdout)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

// logRun persists the stage run log and its metrics. Provenance failures are
// reported but never fail the stage itself.
func logRun(cfg *appConfig, stage string, start time.Time, detail map[string]any, metrics map[string]float64) {
	if detail == nil {
		detail = map[string]any{}
	}
	detail["version"] = version

	run := &data.Run{
		Stage:    stage,
		Started:  start.UTC(),
		Duration: time.Since(start),
		Detail:   detail,
	}

	id, err := data.SaveRun(cfg.DB, run)
	if err != nil {
		slog.Error("failed to save run log", "stage", stage, "error", err)
		return
	}
	if err := data.SaveMetrics(cfg.DB, id, stage, metrics); err != nil {
		slog.Error("failed to save run metrics", "stage", stage, "error", err)
	}
}
