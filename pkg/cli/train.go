package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/sustainlab/ecopipe/pkg/dataset"
	"github.com/sustainlab/ecopipe/pkg/figure"
	"github.com/sustainlab/ecopipe/pkg/train"
	"github.com/urfave/cli/v2"
)

const predictedFigureName = "predicted_vs_actual.png"

var trainCmd = &cli.Command{
	Name:   "train",
	Usage:  "Grid-search polynomial ridge models and save the best one",
	Action: cmdTrain,
}

// TrainResult is the selected model and the full candidate grid.
type TrainResult struct {
	Degree         int                     `json:"degree" yaml:"degree"`
	Alpha          float64                 `json:"alpha" yaml:"alpha"`
	TrainRMSE      float64                 `json:"train_rmse" yaml:"train_rmse"`
	TrainR2        float64                 `json:"train_r2" yaml:"train_r2"`
	ValidationRMSE float64                 `json:"validation_rmse" yaml:"validation_rmse"`
	ValidationR2   float64                 `json:"validation_r2" yaml:"validation_r2"`
	Candidates     []train.CandidateResult `json:"candidates" yaml:"candidates"`
	ModelPath      string                  `json:"model" yaml:"model"`
	FigurePath     string                  `json:"figure" yaml:"figure"`
}

func cmdTrain(c *cli.Context) error {
	cfg := getConfig(c)
	res, err := trainStage(cfg)
	if err != nil {
		return err
	}
	return encode(res)
}

func trainStage(cfg *appConfig) (*TrainResult, error) {
	start := time.Now()
	res, err := runTrain(cfg)
	if err != nil {
		return nil, err
	}

	logRun(cfg, "train", start,
		map[string]any{"degree": res.Degree, "alpha": res.Alpha, "model": res.ModelPath},
		map[string]float64{
			"train_rmse":      res.TrainRMSE,
			"validation_rmse": res.ValidationRMSE,
			"validation_r2":   res.ValidationR2,
		})
	return res, nil
}

func runTrain(cfg *appConfig) (*TrainResult, error) {
	ds := cfg.Pipeline.Dataset
	required := append(append([]string(nil), ds.Features...), ds.Target)

	trainF, err := dataset.ReadCSV(processedFile(cfg, trainFileName), required...)
	if err != nil {
		return nil, fmt.Errorf("reading training split (run prepare first): %w", err)
	}
	valF, err := dataset.ReadCSV(processedFile(cfg, validationFileName), required...)
	if err != nil {
		return nil, fmt.Errorf("reading validation split (run prepare first): %w", err)
	}

	search := cfg.Pipeline.Search
	res, err := train.GridSearch(trainF, valF, ds.Features, ds.Target, search.Degrees, search.Alphas)
	if err != nil {
		return nil, fmt.Errorf("grid search: %w", err)
	}

	best := res.Best
	slog.Info("model selected",
		"degree", best.Degree, "alpha", best.Alpha,
		"validation_rmse", best.ValidationRMSE, "validation_r2", best.ValidationR2)

	if search.RMSEThreshold > 0 && best.ValidationRMSE > search.RMSEThreshold {
		slog.Warn("selected model misses the RMSE threshold",
			"validation_rmse", best.ValidationRMSE, "threshold", search.RMSEThreshold)
	}

	if err := ensureDir(filepath.Join(cfg.Dir, modelsDirName)); err != nil {
		return nil, err
	}
	modelPath := modelFile(cfg)
	if err := train.Save(modelPath, best); err != nil {
		return nil, fmt.Errorf("saving model: %w", err)
	}

	pred, err := best.Predict(valF)
	if err != nil {
		return nil, fmt.Errorf("predicting validation split: %w", err)
	}
	observed, err := valF.Column(ds.Target)
	if err != nil {
		return nil, err
	}

	if err := ensureDir(filepath.Join(cfg.Dir, resultsDirName)); err != nil {
		return nil, err
	}
	figPath := resultsFile(cfg, predictedFigureName)
	if err := figure.PredictedVsActual(figPath, observed, pred); err != nil {
		return nil, fmt.Errorf("writing diagnostic figure: %w", err)
	}

	return &TrainResult{
		Degree:         best.Degree,
		Alpha:          best.Alpha,
		TrainRMSE:      best.TrainRMSE,
		TrainR2:        best.TrainR2,
		ValidationRMSE: best.ValidationRMSE,
		ValidationR2:   best.ValidationR2,
		Candidates:     res.Candidates,
		ModelPath:      modelPath,
		FigurePath:     figPath,
	}, nil
}
