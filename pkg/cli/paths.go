package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace layout. All stage inputs and outputs live under the --dir root.
const (
	rawDirName       = "data/raw"
	processedDirName = "data/processed"
	resultsDirName   = "data/results"
	modelsDirName    = "models"
	payloadDirName   = "release_payload"

	trainFileName      = "train.csv"
	testFileName       = "test.csv"
	validationFileName = "validation.csv"
	modelFileName      = "model.json"
	scoredFileName     = "scored.csv"
	sustainFileName    = "sustainability.json"
	scenarioCSVName    = "scenario.csv"
	scenarioJSONName   = "scenario.json"
)

func rawFile(cfg *appConfig) string {
	return filepath.Join(cfg.Dir, rawDirName, cfg.Pipeline.Archive.RecordFile)
}

func processedFile(cfg *appConfig, name string) string {
	return filepath.Join(cfg.Dir, processedDirName, name)
}

func resultsFile(cfg *appConfig, name string) string {
	return filepath.Join(cfg.Dir, resultsDirName, name)
}

func modelFile(cfg *appConfig) string {
	return filepath.Join(cfg.Dir, modelsDirName, modelFileName)
}

func payloadDir(cfg *appConfig) string {
	return filepath.Join(cfg.Dir, payloadDirName)
}

// workspacePath resolves a config-relative path against the workspace root.
func workspacePath(cfg *appConfig, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.Dir, p)
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, dirMode); err != nil {
		return fmt.Errorf("failed to create dir %s: %w", path, err)
	}
	return nil
}
