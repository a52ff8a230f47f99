package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/config"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/repository"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/storage/postgres"
)

// OpenRegistry connects to the training run database and makes sure its
// table exists. It returns nil values when no database is configured.
func OpenRegistry(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, *repository.TrainingRunRepository, error) {
	if !cfg.Enabled() {
		return nil, nil, nil
	}

	db, err := postgres.NewConnection(ctx, &cfg)
	if err != nil {
		return nil, nil, err
	}

	repo := repository.NewTrainingRunRepository(db)
	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(sctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, repo, nil
}

// OpenRedis connects to the prediction cache. It returns nil when no address
// is configured.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
