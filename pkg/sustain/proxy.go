package sustain

import (
	"fmt"
	"strings"

	"github.com/sustainlab/ecopipe/pkg/dataset"
)

// Driver column aliases accepted by the v1 proxy. The datasets in the wild
// are not consistent about naming, so each driver resolves against a
// candidate list.
var (
	TimeCandidates        = []string{"time_s", "time", "t", "Time"}
	TemperatureCandidates = []string{"temperature", "temp", "T", "Temperature"}
	StirringCandidates    = []string{"stiring", "Stiring", "stirring", "Stirring", "rpm", "RPM"}
)

// DefaultV1Weights weigh the process drivers in the v1 energy proxy.
var DefaultV1Weights = map[string]float64{
	"time":        0.40,
	"temperature": 0.40,
	"stirring":    0.20,
}

// V1Result holds the v1 proxy scores. Energy and CO2 are in [0, 1] when the
// weights sum to at most 1; MCI is clipped to [0, 1] (higher is better).
type V1Result struct {
	Energy []float64 `json:"-"`
	CO2    []float64 `json:"-"`
	MCI    []float64 `json:"-"`
	// Drivers maps driver name to the resolved column.
	Drivers map[string]string `json:"drivers"`
}

// V1 computes the fixed-weight linear sustainability proxy from the process
// drivers and the model predictions. Pure: same frame, predictions and
// weights produce the same scores. A driver with no resolvable column or a
// missing weight key is an error, not a silent zero.
func V1(f *dataset.Frame, predictions []float64, weights map[string]float64) (*V1Result, error) {
	if len(predictions) != f.Len() {
		return nil, fmt.Errorf("have %d predictions for %d rows", len(predictions), f.Len())
	}
	if weights == nil {
		weights = DefaultV1Weights
	}
	for _, k := range []string{"time", "temperature", "stirring"} {
		if _, ok := weights[k]; !ok {
			return nil, fmt.Errorf("v1 weights missing key %q", k)
		}
	}

	timeCol, err := resolveDriver(f, "time", TimeCandidates)
	if err != nil {
		return nil, err
	}
	tempCol, err := resolveDriver(f, "temperature", TemperatureCandidates)
	if err != nil {
		return nil, err
	}
	stirCol, err := resolveDriver(f, "stirring", StirringCandidates)
	if err != nil {
		return nil, err
	}

	timeVals, _ := f.Column(timeCol)
	tempVals, _ := f.Column(tempCol)
	stirVals, _ := f.Column(stirCol)

	timeN := MinMax01(timeVals)
	tempN := MinMax01(tempVals)
	stirN := MinMax01(stirVals)
	predN := MinMax01(predictions)

	n := f.Len()
	res := &V1Result{
		Energy: make([]float64, n),
		CO2:    make([]float64, n),
		MCI:    make([]float64, n),
		Drivers: map[string]string{
			"time":        timeCol,
			"temperature": tempCol,
			"stirring":    stirCol,
		},
	}

	for i := 0; i < n; i++ {
		e := weights["time"]*timeN[i] + weights["temperature"]*tempN[i] + weights["stirring"]*stirN[i]
		res.Energy[i] = e
		res.CO2[i] = 0.70*e + 0.30*predN[i]
		res.MCI[i] = clip01(1 - (0.60*e + 0.40*predN[i]))
	}

	return res, nil
}

func resolveDriver(f *dataset.Frame, driver string, candidates []string) (string, error) {
	col, ok := f.PickColumn(candidates...)
	if !ok {
		return "", fmt.Errorf("no column for driver %q (tried: %s; have: %s)",
			driver, strings.Join(candidates, ", "), strings.Join(f.Columns(), ", "))
	}
	return col, nil
}
