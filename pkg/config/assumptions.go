package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	// EnergyMethodWeightedSum is the only supported energy aggregation.
	EnergyMethodWeightedSum = "weighted_sum"

	NormalizeMinMax = "minmax"
	NormalizeNone   = "none"
)

// Energy describes how the latent energy driver is aggregated from the
// resolved driver columns.
type Energy struct {
	Method    string             `json:"method"`
	Weights   map[string]float64 `json:"weights"`
	Normalize string             `json:"normalize"`
}

// Assumptions is the externally supplied sustainability assumption record.
// It lets non-engineers adjust scoring without code changes:
//
//	{
//	  "drivers": {
//	    "time": ["time_s", "time"],
//	    "temperature": ["temperature", "temp"],
//	    "stirring": ["stirring", "rpm"]
//	  },
//	  "energy": {
//	    "method": "weighted_sum",
//	    "weights": {"time": 0.4, "temperature": 0.4, "stirring": 0.2},
//	    "normalize": "minmax"
//	  },
//	  "metrics": {
//	    "co2": "0.7*energy + 0.3*y_pred_n",
//	    "mci": "clip(1 - (0.6*energy + 0.4*y_pred_n), 0, 1)"
//	  }
//	}
type Assumptions struct {
	Drivers map[string][]string `json:"drivers"`
	Energy  Energy              `json:"energy"`
	Metrics map[string]string   `json:"metrics"`
}

// LoadAssumptions reads and validates the assumption record. There are no
// silent defaults for weights or metrics: a missing key is an error.
func LoadAssumptions(path string) (*Assumptions, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assumptions file not found: %s: %w", path, err)
	}

	var a Assumptions
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("error unmarshalling assumptions file %s: %w", path, err)
	}

	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid assumptions file %s: %w", path, err)
	}

	return &a, nil
}

// Validate enforces the record contract.
func (a *Assumptions) Validate() error {
	if len(a.Drivers) == 0 {
		return errors.New("drivers section missing or empty")
	}
	for name, candidates := range a.Drivers {
		if len(candidates) == 0 {
			return fmt.Errorf("drivers.%s must list at least one candidate column", name)
		}
	}

	if a.Energy.Method == "" {
		a.Energy.Method = EnergyMethodWeightedSum
	}
	if a.Energy.Method != EnergyMethodWeightedSum {
		return fmt.Errorf("unsupported energy.method: %s (only %q supported)", a.Energy.Method, EnergyMethodWeightedSum)
	}

	if a.Energy.Normalize == "" {
		a.Energy.Normalize = NormalizeMinMax
	}
	switch a.Energy.Normalize {
	case NormalizeMinMax, NormalizeNone:
	default:
		return fmt.Errorf("unsupported energy.normalize: %s", a.Energy.Normalize)
	}

	if len(a.Energy.Weights) == 0 {
		return errors.New("energy.weights missing or empty")
	}
	for k := range a.Energy.Weights {
		if _, ok := a.Drivers[k]; !ok {
			return fmt.Errorf("energy.weights refers to unknown driver %q", k)
		}
	}

	if len(a.Metrics) == 0 {
		return errors.New("metrics section missing or empty")
	}
	for name, expr := range a.Metrics {
		if expr == "" {
			return fmt.Errorf("metrics.%s must be a non-empty expression", name)
		}
	}

	return nil
}
