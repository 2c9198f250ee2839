package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configFileName = "pipeline.yaml"
	dirMode        = 0700
	fileMode       = 0600
)

// Archive points at the external data archive: the record the raw dataset is
// fetched from, and the deposit environment used for publishing.
type Archive struct {
	// Environment selects the deposit API target: sandbox or production.
	Environment string `yaml:"environment"`
	RecordID    string `yaml:"record"`
	RecordFile  string `yaml:"file"`
	// BaseURL overrides the archive host. Leave empty for the public archive.
	BaseURL string `yaml:"base_url,omitempty"`
}

// Dataset describes the expected raw data schema and the prepare stage split.
type Dataset struct {
	Target        string   `yaml:"target"`
	Features      []string `yaml:"features"`
	Seed          uint64   `yaml:"seed"`
	TrainFraction float64  `yaml:"train_fraction"`
	TestFraction  float64  `yaml:"test_fraction"`
}

// Search configures the hyperparameter grid and the acceptance threshold.
type Search struct {
	Degrees       []int     `yaml:"degrees"`
	Alphas        []float64 `yaml:"alphas"`
	RMSEThreshold float64   `yaml:"rmse_threshold"`
}

// Sustainability configures the proxy calculators.
type Sustainability struct {
	// AssumptionsFile is the externally supplied JSON assumption record.
	AssumptionsFile string `yaml:"assumptions"`
	// Weights are the fixed v1 proxy driver weights.
	Weights map[string]float64 `yaml:"weights"`
}

// Scenario configures the perturbation analysis.
type Scenario struct {
	Factors []float64 `yaml:"factors"`
}

// Release lists the artifacts collected into the upload payload, grouped by
// the directory they are produced into.
type Release struct {
	MetadataFile string   `yaml:"metadata"`
	Files        []string `yaml:"files"`
	Results      []string `yaml:"results"`
	Models       []string `yaml:"models"`
}

// Pipeline is the root configuration, read once at process start and passed
// into each stage.
type Pipeline struct {
	Archive        Archive        `yaml:"archive"`
	Dataset        Dataset        `yaml:"dataset"`
	Search         Search         `yaml:"search"`
	Sustainability Sustainability `yaml:"sustainability"`
	Scenario       Scenario       `yaml:"scenario"`
	Release        Release        `yaml:"release"`
}

func getDefaultPipeline() *Pipeline {
	return &Pipeline{
		Archive: Archive{
			Environment: "sandbox",
			RecordID:    "16256961",
			RecordFile:  "raw_data.csv",
		},
		Dataset: Dataset{
			Target:        "yield",
			Features:      []string{"time_s", "temperature", "rpm"},
			Seed:          42,
			TrainFraction: 0.7,
			TestFraction:  0.15,
		},
		Search: Search{
			Degrees:       []int{1, 2, 3},
			Alphas:        []float64{0, 0.1, 1, 10},
			RMSEThreshold: 15,
		},
		Sustainability: Sustainability{
			AssumptionsFile: filepath.Join("metadata", "assumptions.json"),
			Weights: map[string]float64{
				"time":        0.4,
				"temperature": 0.4,
				"stirring":    0.2,
			},
		},
		Scenario: Scenario{
			Factors: []float64{0.8, 0.9, 1.1, 1.2},
		},
		Release: Release{
			MetadataFile: filepath.Join("metadata", "deposit.json"),
			Files:        []string{"train.csv", "test.csv", "validation.csv"},
			Results:      []string{"scored.csv", "sustainability.json", "scenario.csv"},
			Models:       []string{"model.json"},
		},
	}
}

// Save writes the pipeline config into the workspace directory.
func Save(dirPath string, p *Pipeline) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if p == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configFileName, err)
	}
	return nil
}

// ReadOrCreate reads the pipeline config from the workspace directory,
// creating one with defaults when absent.
func ReadOrCreate(dirPath string) (*Pipeline, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dirPath, dirMode); err != nil {
			return nil, fmt.Errorf("failed to create dir %s: %w", dirPath, err)
		}
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(dirPath, getDefaultPipeline()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening config file %s: %w", path, err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var p Pipeline
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}

	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &p, nil
}

func (p *Pipeline) validate() error {
	if p.Dataset.Target == "" {
		return errors.New("dataset.target is required")
	}
	if len(p.Dataset.Features) == 0 {
		return errors.New("dataset.features is required")
	}
	if p.Dataset.TrainFraction <= 0 || p.Dataset.TestFraction < 0 ||
		p.Dataset.TrainFraction+p.Dataset.TestFraction >= 1 {
		return fmt.Errorf("invalid split fractions: train=%v test=%v (validation must be non-empty)",
			p.Dataset.TrainFraction, p.Dataset.TestFraction)
	}
	if len(p.Search.Degrees) == 0 || len(p.Search.Alphas) == 0 {
		return errors.New("search.degrees and search.alphas are required")
	}
	switch p.Archive.Environment {
	case "sandbox", "production":
	default:
		return fmt.Errorf("archive.environment must be sandbox or production, got %q", p.Archive.Environment)
	}
	return nil
}
