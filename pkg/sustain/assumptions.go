package sustain

import (
	"fmt"
	"math"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/sustainlab/ecopipe/pkg/config"
	"github.com/sustainlab/ecopipe/pkg/dataset"
)

// AssumptionResult holds the assumption-driven proxy scores. The energy
// driver is in [0, 1] under minmax normalization; expression metrics are the
// record author's contract.
type AssumptionResult struct {
	Energy  []float64            `json:"-"`
	Metrics map[string][]float64 `json:"-"`
	// ResolvedDrivers maps driver name to the resolved column.
	ResolvedDrivers map[string]string `json:"resolved_drivers"`
}

// FromAssumptions computes proxy metrics from an externally supplied
// assumption record: a weighted-sum energy driver plus named metric
// expressions evaluated per row over energy, predictions and the driver
// values. Deterministic for identical input and record. A driver that
// resolves to no column is an error.
func FromAssumptions(f *dataset.Frame, predictions []float64, a *config.Assumptions) (*AssumptionResult, error) {
	if a == nil {
		return nil, fmt.Errorf("assumptions record required")
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assumptions: %w", err)
	}
	if len(predictions) != f.Len() {
		return nil, fmt.Errorf("have %d predictions for %d rows", len(predictions), f.Len())
	}

	resolved := make(map[string]string, len(a.Drivers))
	arrays := make(map[string][]float64, len(a.Drivers))
	for driver, candidates := range a.Drivers {
		col, err := resolveDriver(f, driver, candidates)
		if err != nil {
			return nil, err
		}
		resolved[driver] = col
		arrays[driver], _ = f.Column(col)
	}

	n := f.Len()
	energy := make([]float64, n)
	for driver, w := range a.Energy.Weights {
		vals := arrays[driver]
		for i := 0; i < n; i++ {
			energy[i] += w * vals[i]
		}
	}
	if a.Energy.Normalize == config.NormalizeMinMax {
		energy = MinMax01(energy)
	}

	predN := MinMax01(predictions)

	programs := make(map[string]*vm.Program, len(a.Metrics))
	for name, src := range a.Metrics {
		p, err := expr.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("metrics.%s: compiling %q: %w", name, src, err)
		}
		programs[name] = p
	}

	// stable evaluation order so failures are reported deterministically
	names := make([]string, 0, len(programs))
	for name := range programs {
		names = append(names, name)
	}
	sort.Strings(names)

	res := &AssumptionResult{
		Energy:          energy,
		Metrics:         make(map[string][]float64, len(programs)),
		ResolvedDrivers: resolved,
	}

	env := exprEnv()
	for _, name := range names {
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			env["energy"] = energy[i]
			env["y_pred"] = predictions[i]
			env["y_pred_n"] = predN[i]
			for driver, vals := range arrays {
				env[driver] = vals[i]
			}

			v, err := expr.Run(programs[name], env)
			if err != nil {
				return nil, fmt.Errorf("metrics.%s: row %d: %w", name, i, err)
			}
			fv, err := floatValue(v)
			if err != nil {
				return nil, fmt.Errorf("metrics.%s: row %d: %w", name, i, err)
			}
			out[i] = fv
		}
		res.Metrics[name] = out
	}

	return res, nil
}

// exprEnv exposes the guarded numeric helpers available to metric
// expressions.
func exprEnv() map[string]any {
	return map[string]any{
		"clip": func(x, lo, hi any) (float64, error) {
			xf, err := floatValue(x)
			if err != nil {
				return 0, err
			}
			lof, err := floatValue(lo)
			if err != nil {
				return 0, err
			}
			hif, err := floatValue(hi)
			if err != nil {
				return 0, err
			}
			return math.Min(math.Max(xf, lof), hif), nil
		},
		"min": func(a, b any) (float64, error) {
			af, err := floatValue(a)
			if err != nil {
				return 0, err
			}
			bf, err := floatValue(b)
			if err != nil {
				return 0, err
			}
			return math.Min(af, bf), nil
		},
		"max": func(a, b any) (float64, error) {
			af, err := floatValue(a)
			if err != nil {
				return 0, err
			}
			bf, err := floatValue(b)
			if err != nil {
				return 0, err
			}
			return math.Max(af, bf), nil
		},
		"abs": func(x any) (float64, error) {
			f, err := floatValue(x)
			if err != nil {
				return 0, err
			}
			return math.Abs(f), nil
		},
		"sqrt": func(x any) (float64, error) {
			f, err := floatValue(x)
			if err != nil {
				return 0, err
			}
			return math.Sqrt(f), nil
		},
		"log1p": func(x any) (float64, error) {
			f, err := floatValue(x)
			if err != nil {
				return 0, err
			}
			return math.Log1p(f), nil
		},
		"exp": func(x any) (float64, error) {
			f, err := floatValue(x)
			if err != nil {
				return 0, err
			}
			return math.Exp(f), nil
		},
	}
}

func floatValue(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("expression produced %T, want a number", v)
	}
}
