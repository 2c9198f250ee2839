package train

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// RMSE returns the root mean squared error between predictions and observed
// values.
func RMSE(predicted, observed []float64) (float64, error) {
	if len(predicted) != len(observed) {
		return 0, fmt.Errorf("length mismatch: %d predictions, %d observations", len(predicted), len(observed))
	}
	if len(predicted) == 0 {
		return 0, fmt.Errorf("no values to score")
	}
	var sum float64
	for i := range predicted {
		d := predicted[i] - observed[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(predicted))), nil
}

// RSquared returns the coefficient of determination.
func RSquared(predicted, observed []float64) (float64, error) {
	if len(predicted) != len(observed) {
		return 0, fmt.Errorf("length mismatch: %d predictions, %d observations", len(predicted), len(observed))
	}
	if len(predicted) == 0 {
		return 0, fmt.Errorf("no values to score")
	}
	return stat.RSquaredFrom(predicted, observed, nil), nil
}
