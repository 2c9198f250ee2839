package sustain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sustainlab/ecopipe/pkg/config"
	"github.com/sustainlab/ecopipe/pkg/dataset"
	"github.com/sustainlab/ecopipe/pkg/train"
)

func testAssumptions() *config.Assumptions {
	return &config.Assumptions{
		Drivers: map[string][]string{
			"time":        {"time_s", "time"},
			"temperature": {"temperature", "temp"},
			"stirring":    {"stirring", "rpm"},
		},
		Energy: config.Energy{
			Method:    config.EnergyMethodWeightedSum,
			Weights:   map[string]float64{"time": 0.4, "temperature": 0.4, "stirring": 0.2},
			Normalize: config.NormalizeMinMax,
		},
		Metrics: map[string]string{
			"co2": "0.7*energy + 0.3*y_pred_n",
			"mci": "clip(1 - (0.6*energy + 0.4*y_pred_n), 0, 1)",
		},
	}
}

func TestFromAssumptions(t *testing.T) {
	f, pred := processFrame(t)

	res, err := FromAssumptions(f, pred, testAssumptions())
	require.NoError(t, err)

	assert.Equal(t, "time_s", res.ResolvedDrivers["time"])
	assert.Equal(t, "rpm", res.ResolvedDrivers["stirring"])

	assertInUnitRange(t, "energy", res.Energy)
	require.Contains(t, res.Metrics, "co2")
	require.Contains(t, res.Metrics, "mci")
	assertInUnitRange(t, "co2", res.Metrics["co2"])
	assertInUnitRange(t, "mci", res.Metrics["mci"])
}

func TestFromAssumptionsDeterministic(t *testing.T) {
	f, pred := processFrame(t)

	a, err := FromAssumptions(f, pred, testAssumptions())
	require.NoError(t, err)
	b, err := FromAssumptions(f, pred, testAssumptions())
	require.NoError(t, err)

	assert.Equal(t, a.Energy, b.Energy)
	assert.Equal(t, a.Metrics["co2"], b.Metrics["co2"])
	assert.Equal(t, a.Metrics["mci"], b.Metrics["mci"])
}

func TestFromAssumptionsDriverValuesInExpressions(t *testing.T) {
	f := dataset.NewFrame()
	require.NoError(t, f.AddColumn("time_s", []float64{1, 2, 3, 4}))

	a := &config.Assumptions{
		Drivers: map[string][]string{"time": {"time_s"}},
		Energy: config.Energy{
			Weights:   map[string]float64{"time": 1},
			Normalize: config.NormalizeNone,
		},
		Metrics: map[string]string{
			"double_time": "2 * time",
			"root":        "sqrt(abs(time))",
		},
	}

	res, err := FromAssumptions(f, []float64{0, 0, 0, 0}, a)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4, 6, 8}, res.Metrics["double_time"])
	assert.InDelta(t, 2, res.Metrics["root"][3], 1e-12)
	// normalize: none keeps raw weighted sum
	assert.Equal(t, []float64{1, 2, 3, 4}, res.Energy)
}

func TestFromAssumptionsMissingDriverColumn(t *testing.T) {
	f := dataset.NewFrame()
	require.NoError(t, f.AddColumn("time_s", []float64{1, 2}))

	a := testAssumptions()
	_, err := FromAssumptions(f, []float64{1, 2}, a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver")
}

func TestFromAssumptionsInvalidRecord(t *testing.T) {
	f, pred := processFrame(t)

	a := testAssumptions()
	a.Energy.Weights = nil
	_, err := FromAssumptions(f, pred, a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "energy.weights")

	_, err = FromAssumptions(f, pred, nil)
	assert.Error(t, err)
}

func TestFromAssumptionsBadExpression(t *testing.T) {
	f, pred := processFrame(t)

	a := testAssumptions()
	a.Metrics = map[string]string{"bad": "energy +* 2"}
	_, err := FromAssumptions(f, pred, a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics.bad")
}

// Full split-train-score round trip on a small dataset with domain column
// names: the selected model beats a loose RMSE threshold and every proxy
// score lands in [0, 1] on every validation row.
func TestScoringRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 7))
	n := 100
	energy := make([]float64, n)
	material := make([]float64, n)
	output := make([]float64, n)
	for i := 0; i < n; i++ {
		energy[i] = 1 + 9*r.Float64()
		material[i] = 5 + 20*r.Float64()
		output[i] = 3 + 1.5*energy[i] + 0.8*material[i] + r.NormFloat64()*0.5
	}

	f := dataset.NewFrame()
	require.NoError(t, f.AddColumn("energy", energy))
	require.NoError(t, f.AddColumn("material", material))
	require.NoError(t, f.AddColumn("output", output))

	trainF, _, valF, err := dataset.Split(f, 42, 0.7, 0.15)
	require.NoError(t, err)

	search, err := train.GridSearch(trainF, valF,
		[]string{"energy", "material"}, "output", []int{1, 2}, []float64{0, 0.1})
	require.NoError(t, err)
	assert.Less(t, search.Best.ValidationRMSE, 2.0)

	pred, err := search.Best.Predict(valF)
	require.NoError(t, err)

	a := &config.Assumptions{
		Drivers: map[string][]string{
			"energy":   {"energy"},
			"material": {"material"},
		},
		Energy: config.Energy{
			Weights:   map[string]float64{"energy": 0.7, "material": 0.3},
			Normalize: config.NormalizeMinMax,
		},
		Metrics: map[string]string{
			"co2": "clip(0.7*energy + 0.3*y_pred_n, 0, 1)",
			"mci": "clip(1 - (0.6*energy + 0.4*y_pred_n), 0, 1)",
		},
	}
	res, err := FromAssumptions(valF, pred, a)
	require.NoError(t, err)

	assertInUnitRange(t, "energy", res.Energy)
	assertInUnitRange(t, "co2", res.Metrics["co2"])
	assertInUnitRange(t, "mci", res.Metrics["mci"])

	pca, err := PCAIndex(valF, pred, []string{"energy", "material"})
	require.NoError(t, err)
	assert.Equal(t, PCAModeFull, pca.Mode)
	assertInUnitRange(t, "pca_energy", pca.Energy)
	assertInUnitRange(t, "pca_co2", pca.CO2)
	assertInUnitRange(t, "pca_mci", pca.MCI)
}

func TestFromAssumptionsNonNumericExpression(t *testing.T) {
	f, pred := processFrame(t)

	a := testAssumptions()
	a.Metrics = map[string]string{"label": `"green"`}
	_, err := FromAssumptions(f, pred, a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want a number")
}
