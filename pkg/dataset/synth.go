package dataset

import (
	"math"
	"math/rand/v2"
)

// Synthesize builds a seeded dummy process dataset used when the archive is
// unreachable. Columns match the default raw schema: time_s, temperature,
// rpm and the yield target. Identical seed and row count yield an identical
// frame.
func Synthesize(rows int, seed uint64) *Frame {
	r := rand.New(rand.NewPCG(seed, seed))

	timeS := make([]float64, rows)
	temp := make([]float64, rows)
	rpm := make([]float64, rows)
	yield := make([]float64, rows)

	for i := 0; i < rows; i++ {
		timeS[i] = 10 + 110*r.Float64()
		temp[i] = 20 + 75*r.Float64()
		rpm[i] = 50 + 350*r.Float64()

		noise := r.NormFloat64() * 2
		yield[i] = 10 +
			0.2*timeS[i] +
			0.5*temp[i] +
			0.002*temp[i]*temp[i] -
			0.01*rpm[i] +
			noise
		yield[i] = math.Max(yield[i], 0)
	}

	f := NewFrame()
	f.AddColumn("time_s", timeS)
	f.AddColumn("temperature", temp)
	f.AddColumn("rpm", rpm)
	f.AddColumn("yield", yield)
	return f
}
