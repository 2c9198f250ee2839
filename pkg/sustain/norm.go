package sustain

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const minSpan = 1e-12

// MinMax01 rescales values to [0, 1]. Degenerate inputs (empty, constant or
// non-finite extremes) rescale to all zeros rather than dividing by a
// vanishing span.
func MinMax01(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}

	mn := floats.Min(xs)
	mx := floats.Max(xs)
	if math.IsNaN(mn) || math.IsInf(mn, 0) || math.IsNaN(mx) || math.IsInf(mx, 0) || math.Abs(mx-mn) < minSpan {
		return out
	}

	for i, x := range xs {
		out[i] = (x - mn) / (mx - mn)
	}
	return out
}

func clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
