package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sustainlab/ecopipe/pkg/dataset"
	"github.com/sustainlab/ecopipe/pkg/train"
)

func fittedModel(t *testing.T) (*dataset.Frame, *train.Model) {
	t.Helper()
	f := dataset.Synthesize(150, 42)
	trainF, _, valF, err := dataset.Split(f, 42, 0.7, 0.15)
	require.NoError(t, err)

	res, err := train.GridSearch(trainF, valF, []string{"time_s", "temperature", "rpm"}, "yield",
		[]int{1, 2}, []float64{0, 1})
	require.NoError(t, err)
	return valF, res.Best
}

func TestRun(t *testing.T) {
	valF, m := fittedModel(t)

	report, err := Run(valF, m, nil, []float64{0.9, 1.1})
	require.NoError(t, err)

	// 3 drivers x 2 factors
	require.Len(t, report.Rows, 6)

	// rows ordered driver-alphabetical then factor-ascending
	assert.Equal(t, "stirring", report.Rows[0].Driver)
	assert.Equal(t, 0.9, report.Rows[0].Factor)
	assert.Equal(t, 1.1, report.Rows[1].Factor)
	assert.Equal(t, "temperature", report.Rows[2].Driver)
	assert.Equal(t, "time", report.Rows[4].Driver)

	for _, row := range report.Rows {
		assert.InDelta(t, row.MeanPrediction-report.Baseline.MeanPrediction, row.DeltaPrediction, 1e-12)
		assert.GreaterOrEqual(t, row.MeanMCI, 0.0)
		assert.LessOrEqual(t, row.MeanMCI, 1.0)
	}
}

func TestRunDeterministic(t *testing.T) {
	valF, m := fittedModel(t)

	a, err := Run(valF, m, nil, []float64{0.8, 1.2})
	require.NoError(t, err)
	b, err := Run(valF, m, nil, []float64{0.8, 1.2})
	require.NoError(t, err)

	assert.Equal(t, a.Baseline, b.Baseline)
	assert.Equal(t, a.Rows, b.Rows)
}

func TestRunLeavesInputUntouched(t *testing.T) {
	valF, m := fittedModel(t)
	before, _ := valF.Column("temperature")
	orig := append([]float64(nil), before...)

	_, err := Run(valF, m, nil, []float64{2})
	require.NoError(t, err)

	after, _ := valF.Column("temperature")
	assert.Equal(t, orig, after)
}

func TestRunBadFactors(t *testing.T) {
	valF, m := fittedModel(t)

	_, err := Run(valF, m, nil, nil)
	assert.Error(t, err)

	_, err = Run(valF, m, nil, []float64{0})
	assert.Error(t, err)

	_, err = Run(valF, m, nil, []float64{-0.5})
	assert.Error(t, err)
}

func TestReportWriteCSV(t *testing.T) {
	valF, m := fittedModel(t)

	report, err := Run(valF, m, nil, []float64{0.9, 1.1})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scenario.csv")
	require.NoError(t, report.WriteCSV(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	// header + baseline + 6 rows
	assert.Len(t, lines, 8)
	assert.Contains(t, lines[0], "delta_co2")
	assert.Contains(t, lines[1], "baseline")
}
