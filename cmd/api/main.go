package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/config"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/api/http/middleware"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/bootstrap"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/logging"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/artifact"
	cronjob "github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/cron"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/dataset"
	pehttp "github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/http"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/repository"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/service"
)

const serviceName = "car-price-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	for _, w := range cfg.Warnings {
		logger.Warn("config", zap.String("warning", w))
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Training run registry (optional)
	db, runRepo, err := bootstrap.OpenRegistry(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	var (
		runs     pehttp.RunStore
		recorder service.RunRecorder
	)
	if db != nil {
		defer db.Close()
		runs, recorder = runRepo, runRepo
		logger.Info("training run registry enabled", zap.String("driver", cfg.Database.Driver))
	}

	// Prediction cache (optional)
	redisClient, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	var (
		cache      *repository.PredictionCache
		priceCache service.PriceCache
	)
	if redisClient != nil {
		defer redisClient.Close()
		cache = repository.NewPredictionCache(redisClient, cfg.Redis.CacheTTL)
		priceCache = cache
		logger.Info("prediction cache enabled", zap.Duration("ttl", cfg.Redis.CacheTTL))
	}

	cleanOpts := dataset.DefaultCleanOptions()
	cleanOpts.PriceCeiling = cfg.Training.PriceCeiling
	trainer := service.NewTrainingService(recorder, cleanOpts, logger)
	predictions := service.NewPredictionService(priceCache)
	trainReq := service.TrainRequest{
		DatasetPath:       cfg.Training.DatasetPath,
		ArtifactPath:      cfg.Training.ArtifactPath,
		TestRatio:         cfg.Training.TestRatio,
		Trials:            cfg.Training.Trials,
		CleanedOutputPath: cfg.Training.CleanedPath,
	}

	if err := loadModel(ctx, cfg, trainer, predictions, trainReq, cleanOpts, logger); err != nil {
		logger.Fatal("Failed to load model", zap.Error(err))
	}

	if cfg.Training.RetrainSchedule != "" {
		var invalidator cronjob.CacheInvalidator
		if cache != nil {
			invalidator = cache
		}
		scheduler := cronjob.NewScheduler(trainer, predictions, invalidator, trainReq, logger)
		if err := scheduler.Start(cfg.Training.RetrainSchedule); err != nil {
			logger.Fatal("Failed to start retrain scheduler", zap.Error(err))
		}
		defer scheduler.Stop()
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		go limiter.RunCleanup(ctx, 5*time.Minute)
	}

	router, err := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		Logger:         logger,
		DB:             db,
		Runs:           runs,
		Cache:          cache,
		Predictions:    predictions,
		RateLimiter:    limiter,
		CORSOrigins:    cfg.Server.CORSOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
	})
	if err != nil {
		logger.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("Application stopped.")
}

// loadModel serves the saved artifact when there is one and trains a new
// pipeline otherwise. The catalog always comes from the dataset on disk.
func loadModel(
	ctx context.Context,
	cfg *config.Config,
	trainer *service.TrainingService,
	predictions *service.PredictionService,
	req service.TrainRequest,
	cleanOpts dataset.CleanOptions,
	logger *zap.Logger,
) error {
	p, err := artifact.Load(cfg.Training.ArtifactPath)
	if err == nil {
		ds, err := dataset.LoadClean(cfg.Training.DatasetPath, cleanOpts)
		if err != nil {
			return err
		}
		predictions.Swap(p, ds)
		logger.Info("model loaded",
			zap.String("artifact", cfg.Training.ArtifactPath),
			zap.String("model_version", p.Version),
		)
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	logger.Info("no artifact found, training a new model", zap.String("artifact", cfg.Training.ArtifactPath))
	res, err := trainer.Train(ctx, req)
	if err != nil {
		return err
	}
	predictions.Swap(res.Pipeline, res.Dataset)
	return nil
}
