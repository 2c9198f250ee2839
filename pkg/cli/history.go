package cli

import (
	"github.com/sustainlab/ecopipe/pkg/data"
	"github.com/urfave/cli/v2"
)

var (
	stageFlag = &cli.StringFlag{
		Name:  "stage",
		Usage: "Filter by stage name (acquire, prepare, train, sustain, scenario, publish)",
	}
	metricFlag = &cli.StringFlag{
		Name:  "metric",
		Usage: "List metric values with this name instead of runs",
	}
	limitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Max number of records to return",
		Value: 20,
	}
)

var historyCmd = &cli.Command{
	Name:   "history",
	Usage:  "List past stage runs and their recorded metrics",
	Flags:  []cli.Flag{stageFlag, metricFlag, limitFlag},
	Action: cmdHistory,
}

// HistoryResult is either the run log or, with --metric, a metric series.
type HistoryResult struct {
	Runs    []*data.Run    `json:"runs,omitempty" yaml:"runs,omitempty"`
	Metrics []*data.Metric `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

func cmdHistory(c *cli.Context) error {
	cfg := getConfig(c)
	stage := c.String(stageFlag.Name)
	limit := c.Int(limitFlag.Name)

	res := &HistoryResult{}
	if name := c.String(metricFlag.Name); name != "" {
		metrics, err := data.ListMetrics(cfg.DB, name, stage, limit)
		if err != nil {
			return err
		}
		res.Metrics = metrics
	} else {
		runs, err := data.ListRuns(cfg.DB, stage, limit)
		if err != nil {
			return err
		}
		res.Runs = runs
	}
	return encode(res)
}
