package train

import (
	"fmt"

	"github.com/sustainlab/ecopipe/pkg/dataset"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// expandTerms builds the per-feature polynomial terms (powers 1..degree, no
// cross terms) as column slices, with their names.
func expandTerms(f *dataset.Frame, features []string, degree int) ([][]float64, []string, error) {
	if degree < 1 {
		return nil, nil, fmt.Errorf("degree must be >= 1, got %d", degree)
	}

	n := f.Len()
	terms := make([][]float64, 0, len(features)*degree)
	names := make([]string, 0, len(features)*degree)

	for _, feat := range features {
		col, err := f.Column(feat)
		if err != nil {
			return nil, nil, err
		}
		for d := 1; d <= degree; d++ {
			vals := make([]float64, n)
			for i, x := range col {
				v := x
				for p := 1; p < d; p++ {
					v *= x
				}
				vals[i] = v
			}
			terms = append(terms, vals)
			if d == 1 {
				names = append(names, feat)
			} else {
				names = append(names, fmt.Sprintf("%s^%d", feat, d))
			}
		}
	}
	return terms, names, nil
}

// fit solves the ridge-regularized least squares problem on standardized
// polynomial terms. The intercept is not penalized.
func fit(f *dataset.Frame, features []string, target string, degree int, alpha float64) (*Model, error) {
	if alpha < 0 {
		return nil, fmt.Errorf("alpha must be >= 0, got %v", alpha)
	}

	y, err := f.Column(target)
	if err != nil {
		return nil, err
	}

	terms, names, err := expandTerms(f, features, degree)
	if err != nil {
		return nil, err
	}

	n := f.Len()
	p := len(terms)
	if n <= p {
		return nil, fmt.Errorf("not enough rows (%d) for %d terms", n, p)
	}

	means := make([]float64, p)
	stds := make([]float64, p)
	for j, t := range terms {
		means[j] = stat.Mean(t, nil)
		stds[j] = stat.StdDev(t, nil)
	}

	// design matrix: intercept column + standardized terms
	X := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1)
		for j := 0; j < p; j++ {
			std := stds[j]
			if std == 0 {
				std = 1
			}
			X.Set(i, j+1, (terms[j][i]-means[j])/std)
		}
	}
	yv := mat.NewVecDense(n, y)

	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	for j := 1; j <= p; j++ {
		xtx.Set(j, j, xtx.At(j, j)+alpha)
	}

	var xty mat.VecDense
	xty.MulVec(X.T(), yv)

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		return nil, fmt.Errorf("solving normal equations (degree=%d alpha=%v): %w", degree, alpha, err)
	}

	coefs := make([]float64, p)
	for j := 0; j < p; j++ {
		coefs[j] = beta.AtVec(j + 1)
	}

	m := &Model{
		Kind:         modelKindPolyRidge,
		Degree:       degree,
		Alpha:        alpha,
		Features:     append([]string(nil), features...),
		Target:       target,
		Terms:        names,
		TermMeans:    means,
		TermStds:     stds,
		Intercept:    beta.AtVec(0),
		Coefficients: coefs,
	}

	pred, err := m.Predict(f)
	if err != nil {
		return nil, err
	}
	if m.TrainRMSE, err = RMSE(pred, y); err != nil {
		return nil, err
	}
	if m.TrainR2, err = RSquared(pred, y); err != nil {
		return nil, err
	}

	return m, nil
}
