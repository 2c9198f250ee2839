package train

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sustainlab/ecopipe/pkg/dataset"
)

const modelKindPolyRidge = "poly_ridge"

// Model is a fitted regressor artifact: hyperparameters, coefficients and the
// train/validation metric pair. Immutable once selected; JSON serialized.
type Model struct {
	Kind     string   `json:"kind"`
	Degree   int      `json:"degree"`
	Alpha    float64  `json:"alpha"`
	Features []string `json:"features"`
	Target   string   `json:"target"`

	// Terms are the expanded polynomial term names, aligned with TermMeans,
	// TermStds and Coefficients.
	Terms        []string  `json:"terms"`
	TermMeans    []float64 `json:"term_means"`
	TermStds     []float64 `json:"term_stds"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`

	TrainRMSE      float64 `json:"train_rmse"`
	TrainR2        float64 `json:"train_r2"`
	ValidationRMSE float64 `json:"validation_rmse"`
	ValidationR2   float64 `json:"validation_r2"`
}

// Predict evaluates the model on every row of the frame. All model features
// must be present.
func (m *Model) Predict(f *dataset.Frame) ([]float64, error) {
	if err := f.Require(m.Features...); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	terms, _, err := expandTerms(f, m.Features, m.Degree)
	if err != nil {
		return nil, err
	}
	if len(terms) != len(m.Coefficients) {
		return nil, fmt.Errorf("model has %d coefficients, frame expands to %d terms", len(m.Coefficients), len(terms))
	}

	n := f.Len()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v := m.Intercept
		for j := range terms {
			std := m.TermStds[j]
			if std == 0 {
				std = 1
			}
			v += m.Coefficients[j] * ((terms[j][i] - m.TermMeans[j]) / std)
		}
		out[i] = v
	}
	return out, nil
}

// Save serializes the model artifact.
func Save(path string, m *Model) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling model: %w", err)
	}
	if err := os.WriteFile(path, b, 0600); err != nil {
		return fmt.Errorf("error writing model file %s: %w", path, err)
	}
	return nil
}

// Load reads a serialized model artifact.
func Load(path string) (*Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading model file %s: %w", path, err)
	}
	var m Model
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("error unmarshalling model file %s: %w", path, err)
	}
	if m.Kind != modelKindPolyRidge {
		return nil, fmt.Errorf("unsupported model kind %q in %s", m.Kind, path)
	}
	return &m, nil
}
