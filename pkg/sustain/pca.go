package sustain

import (
	"fmt"

	"github.com/sustainlab/ecopipe/pkg/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCA index modes. The index degrades gracefully when driver columns are
// scarce; the selected mode is reported so downstream consumers can tell.
const (
	PCAModeFull         = "pca"
	PCAModeSingleColumn = "single_column_fallback"
	PCAModeNoColumns    = "no_columns_fallback"
)

// DefaultPCACandidates are the driver columns considered for the latent
// energy index.
var DefaultPCACandidates = []string{
	"time_s", "time", "t",
	"temperature", "temp", "T",
	"stiring", "stirring", "rpm",
}

// PCAResult holds the PCA-based proxy scores and fit diagnostics. Scores are
// in [0, 1]: the leading principal component is min-max rescaled into an
// index.
type PCAResult struct {
	Energy []float64 `json:"-"`
	CO2    []float64 `json:"-"`
	MCI    []float64 `json:"-"`

	Mode              string    `json:"mode"`
	UsedColumns       []string  `json:"used_columns"`
	ExplainedVariance float64   `json:"explained_variance_ratio,omitempty"`
	Components        []float64 `json:"pca_components,omitempty"`
}

// PCAIndex projects the available driver columns onto their leading
// principal component and rescales it to a latent energy index. With two or
// more usable columns a PCA is fitted; with exactly one, that column is
// min-max rescaled; with none, the index is all zeros.
func PCAIndex(f *dataset.Frame, predictions []float64, candidates []string) (*PCAResult, error) {
	if len(predictions) != f.Len() {
		return nil, fmt.Errorf("have %d predictions for %d rows", len(predictions), f.Len())
	}
	if candidates == nil {
		candidates = DefaultPCACandidates
	}

	var used []string
	for _, c := range candidates {
		if f.Has(c) {
			used = append(used, c)
		}
	}

	n := f.Len()
	res := &PCAResult{
		UsedColumns: used,
	}

	var energy []float64
	switch {
	case len(used) >= 2:
		var err error
		if energy, err = fitPC1(f, used, res); err != nil {
			return nil, err
		}
		res.Mode = PCAModeFull

	case len(used) == 1:
		col, _ := f.Column(used[0])
		energy = MinMax01(col)
		res.Mode = PCAModeSingleColumn

	default:
		energy = make([]float64, n)
		res.Mode = PCAModeNoColumns
	}

	predN := MinMax01(predictions)
	res.Energy = energy
	res.CO2 = make([]float64, n)
	res.MCI = make([]float64, n)
	for i := 0; i < n; i++ {
		res.CO2[i] = 0.7*energy[i] + 0.3*predN[i]
		res.MCI[i] = clip01(1 - (0.6*energy[i] + 0.4*predN[i]))
	}

	return res, nil
}

// fitPC1 standardizes the used columns, fits a PCA and returns the min-max
// rescaled projection onto the first component.
func fitPC1(f *dataset.Frame, used []string, res *PCAResult) ([]float64, error) {
	n := f.Len()
	k := len(used)

	X := mat.NewDense(n, k, nil)
	for j, name := range used {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		mean := stat.Mean(col, nil)
		std := stat.StdDev(col, nil)
		if std == 0 {
			std = 1
		}
		for i := 0; i < n; i++ {
			X.Set(i, j, (col[i]-mean)/std)
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(X, nil); !ok {
		return nil, fmt.Errorf("PCA failed on columns %v (%d rows)", used, n)
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	vars := pc.VarsTo(nil)
	total := floats.Sum(vars)
	if total > 0 {
		res.ExplainedVariance = vars[0] / total
	}

	res.Components = make([]float64, k)
	pc1 := make([]float64, n)
	for j := 0; j < k; j++ {
		res.Components[j] = vecs.At(j, 0)
	}
	for i := 0; i < n; i++ {
		var s float64
		for j := 0; j < k; j++ {
			s += X.At(i, j) * vecs.At(j, 0)
		}
		pc1[i] = s
	}

	return MinMax01(pc1), nil
}
