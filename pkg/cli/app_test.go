package cli

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sustainlab/ecopipe/pkg/config"
)

func TestAppCommands(t *testing.T) {
	app := newApp()
	require.NotNil(t, app)

	want := []string{"auth", "acquire", "prepare", "train", "sustain", "scenario", "publish", "run", "history"}
	var got []string
	for _, c := range app.Commands {
		got = append(got, c.Name)
	}
	assert.Equal(t, want, got)
}

func testWorkspace(t *testing.T, archiveBaseURL string) string {
	t.Helper()
	dir := t.TempDir()

	p := &config.Pipeline{
		Archive: config.Archive{
			Environment: "sandbox",
			RecordID:    "12345",
			RecordFile:  "raw_data.csv",
			BaseURL:     archiveBaseURL,
		},
		Dataset: config.Dataset{
			Target:        "yield",
			Features:      []string{"time_s", "temperature", "rpm"},
			Seed:          42,
			TrainFraction: 0.7,
			TestFraction:  0.15,
		},
		Search: config.Search{
			Degrees:       []int{1, 2},
			Alphas:        []float64{0, 0.1},
			RMSEThreshold: 15,
		},
		Sustainability: config.Sustainability{
			AssumptionsFile: filepath.Join("metadata", "assumptions.json"),
			Weights: map[string]float64{
				"time":        0.4,
				"temperature": 0.4,
				"stirring":    0.2,
			},
		},
		Scenario: config.Scenario{
			Factors: []float64{0.9, 1.1},
		},
		Release: config.Release{
			MetadataFile: filepath.Join("metadata", "deposit.json"),
			Files:        []string{"train.csv", "test.csv", "validation.csv"},
			Results:      []string{"scored.csv", "sustainability.json", "scenario.csv"},
			Models:       []string{"model.json"},
		},
	}
	require.NoError(t, config.Save(dir, p))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "metadata"), 0700))
	assumptions := `{
		"drivers": {
			"time": ["time_s"],
			"temperature": ["temperature"],
			"stirring": ["rpm"]
		},
		"energy": {
			"method": "weighted_sum",
			"weights": {"time": 0.4, "temperature": 0.4, "stirring": 0.2},
			"normalize": "minmax"
		},
		"metrics": {
			"co2": "0.7*energy + 0.3*y_pred_n",
			"mci": "clip(1 - (0.6*energy + 0.4*y_pred_n), 0, 1)"
		}
	}`
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "metadata", "assumptions.json"), []byte(assumptions), 0600))

	return dir
}

func TestPipelineEndToEnd(t *testing.T) {
	// Archive that has no records, so acquire falls back to the synthetic
	// dataset and the test stays offline.
	svr := httptest.NewServer(http.NotFoundHandler())
	defer svr.Close()

	dir := testWorkspace(t, svr.URL)

	app := newApp()
	require.NoError(t, app.Run([]string{"ecopipe", "--dir", dir, "run"}))

	for _, p := range []string{
		filepath.Join(dir, rawDirName, "raw_data.csv"),
		filepath.Join(dir, processedDirName, trainFileName),
		filepath.Join(dir, processedDirName, testFileName),
		filepath.Join(dir, processedDirName, validationFileName),
		filepath.Join(dir, modelsDirName, modelFileName),
		filepath.Join(dir, resultsDirName, scoredFileName),
		filepath.Join(dir, resultsDirName, sustainFileName),
		filepath.Join(dir, resultsDirName, scenarioCSVName),
		filepath.Join(dir, resultsDirName, scenarioJSONName),
		filepath.Join(dir, resultsDirName, predictedFigureName),
	} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}

	// Payload assembly without archive credentials.
	app = newApp()
	require.NoError(t, app.Run([]string{"ecopipe", "--dir", dir, "publish", "--collect-only", "--require-all"}))

	_, err := os.Stat(filepath.Join(dir, payloadDirName, "manifest.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, payloadDirName, scoredFileName))
	assert.NoError(t, err)

	// Stage runs were recorded.
	app = newApp()
	require.NoError(t, app.Run([]string{"ecopipe", "--dir", dir, "history", "--stage", "train"}))
}

func TestPrepareWithoutRawData(t *testing.T) {
	dir := testWorkspace(t, "http://127.0.0.1:0")

	app := newApp()
	err := app.Run([]string{"ecopipe", "--dir", dir, "prepare"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run acquire first")
}
