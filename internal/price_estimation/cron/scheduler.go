package cronjob

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/domain"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/estimator"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/service"
)

// Trainer runs a training job.
type Trainer interface {
	Train(ctx context.Context, req service.TrainRequest) (*service.TrainResult, error)
}

// ModelSwapper serves newly trained pipelines.
type ModelSwapper interface {
	Current() (*service.Model, error)
	Swap(p *estimator.Pipeline, ds []domain.Record)
}

// CacheInvalidator drops cached predictions of a retired model.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, version string) (int, error)
}

// Scheduler retrains the pipeline on a cron schedule (seconds field enabled)
// and swaps it into service when training succeeds.
type Scheduler struct {
	cron    *cron.Cron
	trainer Trainer
	models  ModelSwapper
	cache   CacheInvalidator
	req     service.TrainRequest
	logger  *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewScheduler creates a new Scheduler. cache may be nil.
func NewScheduler(trainer Trainer, models ModelSwapper, cache CacheInvalidator, req service.TrainRequest, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		trainer: trainer,
		models:  models,
		cache:   cache,
		req:     req,
		logger:  logger,
	}
}

// Start registers the retrain job under spec and starts the cron runner.
func (s *Scheduler) Start(spec string) error {
	s.mu.Lock()
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(spec, func() { _ = s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid retrain schedule %q: %w", spec, err)
	}

	s.logger.Info("retrain scheduler started", zap.String("schedule", spec))
	s.cron.Start()
	return nil
}

// Stop stops scheduling, cancels a running job and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("retrain scheduler stopped")
}

// RunOnce trains a new pipeline and serves it. On failure the current
// pipeline stays in service.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.logger.Info("retrain started")

	var previous string
	if m, err := s.models.Current(); err == nil {
		previous = m.Pipeline.Version
	}

	res, err := s.trainer.Train(ctx, s.req)
	if err != nil {
		s.logger.Error("retrain failed, keeping current model", zap.Error(err))
		return err
	}
	s.models.Swap(res.Pipeline, res.Dataset)

	if s.cache != nil && previous != "" {
		n, err := s.cache.Invalidate(ctx, previous)
		if err != nil {
			s.logger.Warn("failed to invalidate cached predictions", zap.String("model_version", previous), zap.Error(err))
		} else {
			s.logger.Debug("cached predictions invalidated", zap.String("model_version", previous), zap.Int("keys", n))
		}
	}

	s.logger.Info("retrain completed",
		zap.String("model_version", res.Pipeline.Version),
		zap.Float64("r2", res.Pipeline.Score),
	)
	return nil
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
