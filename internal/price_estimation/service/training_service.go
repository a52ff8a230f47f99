package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/artifact"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/dataset"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/domain"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/estimator"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/regression"
)

// RunRecorder persists completed training runs.
type RunRecorder interface {
	Create(ctx context.Context, run *domain.TrainingRun) error
}

// TrainRequest describes one training job. Zero TestRatio and Trials use the
// estimator defaults.
type TrainRequest struct {
	DatasetPath       string
	ArtifactPath      string
	TestRatio         float64
	Trials            int
	CleanedOutputPath string
}

// TrainResult is the outcome of a training job.
type TrainResult struct {
	Pipeline *estimator.Pipeline
	Run      *domain.TrainingRun
	Dataset  []domain.Record
}

// TrainingService handles the offline workflow: clean, search, fit, save
type TrainingService struct {
	runs      RunRecorder
	cleanOpts dataset.CleanOptions
	logger    *zap.Logger
}

// NewTrainingService creates a new TrainingService. runs may be nil when no
// registry is configured.
func NewTrainingService(runs RunRecorder, cleanOpts dataset.CleanOptions, logger *zap.Logger) *TrainingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainingService{
		runs:      runs,
		cleanOpts: cleanOpts,
		logger:    logger,
	}
}

// Train runs the whole training job and returns the fitted pipeline.
// Failing to record the run is logged and does not fail the job.
func (s *TrainingService) Train(ctx context.Context, req TrainRequest) (*TrainResult, error) {
	if req.TestRatio == 0 {
		req.TestRatio = estimator.DefaultTestRatio
	}
	if req.Trials == 0 {
		req.Trials = estimator.DefaultTrials
	}
	start := time.Now()

	raw, err := dataset.ReadRawFile(req.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	ds := dataset.Clean(raw, s.cleanOpts)
	s.logger.Info("dataset cleaned",
		zap.String("path", req.DatasetPath),
		zap.Int("raw_rows", len(raw)),
		zap.Int("clean_rows", len(ds)),
	)
	if len(ds) == 0 {
		return nil, domain.ErrEmptyDataset
	}

	if req.CleanedOutputPath != "" {
		if err := dataset.WriteCSVFile(req.CleanedOutputPath, ds); err != nil {
			return nil, fmt.Errorf("write cleaned dataset: %w", err)
		}
	}

	seed, score, err := estimator.SearchBestSplitContext(ctx, ds, req.TestRatio, req.Trials)
	if err != nil {
		return nil, fmt.Errorf("search best split: %w", err)
	}
	s.logger.Info("best split found",
		zap.Int64("seed", seed),
		zap.Float64("r2", score),
		zap.Int("trials", req.Trials),
	)

	p, _, err := estimator.Fit(ds, req.TestRatio, seed)
	if err != nil {
		return nil, fmt.Errorf("fit pipeline: %w", err)
	}

	if req.ArtifactPath != "" {
		if err := artifact.Save(req.ArtifactPath, p); err != nil {
			return nil, fmt.Errorf("save artifact: %w", err)
		}
	}

	metrics, err := holdOutMetrics(p, ds)
	if err != nil {
		return nil, err
	}
	metrics["raw_rows"] = len(raw)
	metrics["clean_rows"] = len(ds)
	metrics["duration_ms"] = time.Since(start).Milliseconds()

	run := &domain.TrainingRun{
		ModelVersion: p.Version,
		Seed:         p.Seed,
		Score:        p.Score,
		Trials:       req.Trials,
		TestRatio:    p.TestRatio,
		TrainRows:    p.TrainRows,
		TestRows:     p.TestRows,
		ArtifactPath: req.ArtifactPath,
		Metrics:      metrics,
		CreatedAt:    time.Now().UTC(),
	}
	if s.runs != nil {
		if err := s.runs.Create(ctx, run); err != nil {
			s.logger.Warn("failed to record training run", zap.Error(err))
		}
	}

	s.logger.Info("pipeline trained",
		zap.String("model_version", p.Version),
		zap.Float64("r2", p.Score),
		zap.String("artifact", req.ArtifactPath),
		zap.Duration("took", time.Since(start)),
	)
	return &TrainResult{Pipeline: p, Run: run, Dataset: ds}, nil
}

func holdOutMetrics(p *estimator.Pipeline, ds []domain.Record) (map[string]interface{}, error) {
	_, test, err := estimator.Split(ds, p.TestRatio, p.Seed)
	if err != nil {
		return nil, err
	}
	yTrue := make([]float64, len(test))
	yPred := make([]float64, len(test))
	for i, r := range test {
		v, err := p.PredictRecord(r)
		if err != nil {
			return nil, err
		}
		yTrue[i] = float64(r.Price)
		yPred[i] = v
	}
	return map[string]interface{}{
		"r2":   p.Score,
		"mae":  regression.MAE(yTrue, yPred),
		"rmse": regression.RMSE(yTrue, yPred),
	}, nil
}
