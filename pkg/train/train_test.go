package train

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sustainlab/ecopipe/pkg/dataset"
)

func toyFrame(t *testing.T) (train, val *dataset.Frame) {
	t.Helper()
	f := dataset.Synthesize(200, 42)
	train, _, val, err := dataset.Split(f, 42, 0.7, 0.15)
	require.NoError(t, err)
	return train, val
}

func TestRMSE(t *testing.T) {
	v, err := RMSE([]float64{1, 2, 3}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = RMSE([]float64{2, 2}, []float64{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, v, 1e-12)

	_, err = RMSE([]float64{1}, []float64{1, 2})
	assert.Error(t, err)

	_, err = RMSE(nil, nil)
	assert.Error(t, err)
}

func TestRSquared(t *testing.T) {
	v, err := RSquared([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-12)

	_, err = RSquared([]float64{1}, nil)
	assert.Error(t, err)
}

func TestExpandTerms(t *testing.T) {
	f := dataset.NewFrame()
	require.NoError(t, f.AddColumn("x", []float64{2, 3}))

	terms, names, err := expandTerms(f, []string{"x"}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x^2", "x^3"}, names)
	assert.Equal(t, []float64{2, 3}, terms[0])
	assert.Equal(t, []float64{4, 9}, terms[1])
	assert.Equal(t, []float64{8, 27}, terms[2])

	_, _, err = expandTerms(f, []string{"x"}, 0)
	assert.Error(t, err)

	_, _, err = expandTerms(f, []string{"missing"}, 1)
	assert.Error(t, err)
}

func TestFitRecoversLinearRelation(t *testing.T) {
	// y = 3 + 2*x, noise-free: degree 1 with no penalty must recover it
	xs := make([]float64, 50)
	ys := make([]float64, 50)
	for i := range xs {
		xs[i] = float64(i)
		ys[i] = 3 + 2*xs[i]
	}
	f := dataset.NewFrame()
	require.NoError(t, f.AddColumn("x", xs))
	require.NoError(t, f.AddColumn("y", ys))

	m, err := fit(f, []string{"x"}, "y", 1, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0, m.TrainRMSE, 1e-6)
	assert.InDelta(t, 1, m.TrainR2, 1e-9)

	pred, err := m.Predict(f)
	require.NoError(t, err)
	assert.InDelta(t, ys[10], pred[10], 1e-6)
}

func TestGridSearchDeterministic(t *testing.T) {
	train, val := toyFrame(t)
	features := []string{"time_s", "temperature", "rpm"}
	degrees := []int{1, 2}
	alphas := []float64{0, 0.1, 1}

	r1, err := GridSearch(train, val, features, "yield", degrees, alphas)
	require.NoError(t, err)
	r2, err := GridSearch(train, val, features, "yield", degrees, alphas)
	require.NoError(t, err)

	assert.Equal(t, r1.Best.Degree, r2.Best.Degree)
	assert.Equal(t, r1.Best.Alpha, r2.Best.Alpha)
	assert.Equal(t, r1.Best.ValidationRMSE, r2.Best.ValidationRMSE)
	assert.Equal(t, r1.Best.ValidationR2, r2.Best.ValidationR2)
	assert.Len(t, r1.Candidates, len(degrees)*len(alphas))
}

func TestGridSearchBeatsThreshold(t *testing.T) {
	// synthetic yield has a quadratic temperature term and sigma=2 noise;
	// the grid contains degree 2, so validation RMSE should land near sigma
	train, val := toyFrame(t)

	res, err := GridSearch(train, val, []string{"time_s", "temperature", "rpm"}, "yield",
		[]int{1, 2, 3}, []float64{0, 0.1, 1})
	require.NoError(t, err)
	assert.Less(t, res.Best.ValidationRMSE, 15.0)
	assert.Greater(t, res.Best.ValidationR2, 0.8)

	var selected int
	for _, c := range res.Candidates {
		if c.Selected {
			selected++
			assert.Equal(t, res.Best.ValidationRMSE, c.RMSE)
		}
	}
	assert.Equal(t, 1, selected)
}

func TestGridSearchMissingColumns(t *testing.T) {
	train, val := toyFrame(t)

	_, err := GridSearch(train, val, []string{"pressure"}, "yield", []int{1}, []float64{0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pressure")

	_, err = GridSearch(train, val, []string{"time_s"}, "yield", nil, nil)
	assert.Error(t, err)
}

func TestModelSaveLoad(t *testing.T) {
	train, val := toyFrame(t)
	res, err := GridSearch(train, val, []string{"time_s", "temperature", "rpm"}, "yield",
		[]int{1, 2}, []float64{0, 1})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, Save(path, res.Best))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, res.Best.Degree, m.Degree)
	assert.Equal(t, res.Best.Alpha, m.Alpha)
	assert.Equal(t, res.Best.Coefficients, m.Coefficients)

	p1, err := res.Best.Predict(val)
	require.NoError(t, err)
	p2, err := m.Predict(val)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestLoadRejectsUnknownKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, Save(path, &Model{Kind: "mystery"}))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported model kind")
}
