package train

import (
	"fmt"
	"log/slog"

	"github.com/sustainlab/ecopipe/pkg/dataset"
)

// CandidateResult records one grid point's validation metrics.
type CandidateResult struct {
	Degree   int     `json:"degree"`
	Alpha    float64 `json:"alpha"`
	RMSE     float64 `json:"rmse"`
	R2       float64 `json:"r2"`
	Selected bool    `json:"selected,omitempty"`
}

// SearchResult is the outcome of an exhaustive grid search.
type SearchResult struct {
	Best       *Model            `json:"best"`
	Candidates []CandidateResult `json:"candidates"`
}

// GridSearch fits every degree/alpha combination on the training frame and
// selects the candidate with the lowest validation RMSE. Candidates are
// enumerated degree-ascending then alpha-ascending, and a candidate replaces
// the incumbent only on strictly lower RMSE, so ties keep the first found.
func GridSearch(trainF, valF *dataset.Frame, features []string, target string, degrees []int, alphas []float64) (*SearchResult, error) {
	if len(degrees) == 0 || len(alphas) == 0 {
		return nil, fmt.Errorf("empty hyperparameter grid")
	}

	required := append(append([]string(nil), features...), target)
	if err := trainF.Require(required...); err != nil {
		return nil, fmt.Errorf("train split: %w", err)
	}
	if err := valF.Require(required...); err != nil {
		return nil, fmt.Errorf("validation split: %w", err)
	}

	yVal, err := valF.Column(target)
	if err != nil {
		return nil, err
	}

	res := &SearchResult{
		Candidates: make([]CandidateResult, 0, len(degrees)*len(alphas)),
	}
	bestIdx := -1

	for _, degree := range degrees {
		for _, alpha := range alphas {
			m, err := fit(trainF, features, target, degree, alpha)
			if err != nil {
				return nil, fmt.Errorf("fitting degree=%d alpha=%v: %w", degree, alpha, err)
			}

			pred, err := m.Predict(valF)
			if err != nil {
				return nil, err
			}
			rmse, err := RMSE(pred, yVal)
			if err != nil {
				return nil, err
			}
			r2, err := RSquared(pred, yVal)
			if err != nil {
				return nil, err
			}

			m.ValidationRMSE = rmse
			m.ValidationR2 = r2

			slog.Debug("grid candidate", "degree", degree, "alpha", alpha, "rmse", rmse, "r2", r2)

			res.Candidates = append(res.Candidates, CandidateResult{
				Degree: degree,
				Alpha:  alpha,
				RMSE:   rmse,
				R2:     r2,
			})

			if res.Best == nil || rmse < res.Best.ValidationRMSE {
				res.Best = m
				bestIdx = len(res.Candidates) - 1
			}
		}
	}

	res.Candidates[bestIdx].Selected = true
	return res, nil
}
