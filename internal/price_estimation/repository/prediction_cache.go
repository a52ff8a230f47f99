package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/domain"
)

const (
	predictionKeyPrefix = "carprice:pred:" // carprice:pred:{model_version}:{query_hash}
	DefaultCacheTTL     = 24 * time.Hour
)

// PredictionCache stores single-row predictions in Redis
type PredictionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPredictionCache creates a new PredictionCache. A non-positive ttl uses
// DefaultCacheTTL.
func NewPredictionCache(client *redis.Client, ttl time.Duration) *PredictionCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &PredictionCache{client: client, ttl: ttl}
}

// Get returns the cached price for q under the given model version.
// A miss returns ok=false and a nil error.
func (c *PredictionCache) Get(ctx context.Context, version string, q domain.Query) (float64, bool, error) {
	data, err := c.client.Get(ctx, c.key(version, q)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get cached prediction: %w", err)
	}

	price, err := strconv.ParseFloat(data, 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse cached prediction %q: %w", data, err)
	}
	return price, true, nil
}

// Set caches price for q under the given model version
func (c *PredictionCache) Set(ctx context.Context, version string, q domain.Query, price float64) error {
	value := strconv.FormatFloat(price, 'f', -1, 64)
	if err := c.client.Set(ctx, c.key(version, q), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache prediction: %w", err)
	}
	return nil
}

// Invalidate removes every cached prediction of a model version
func (c *PredictionCache) Invalidate(ctx context.Context, version string) (int, error) {
	pattern := predictionKeyPrefix + version + ":*"

	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan cached predictions: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	pipe := c.client.Pipeline()
	for _, k := range keys {
		pipe.Del(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to invalidate cached predictions: %w", err)
	}
	return len(keys), nil
}

// Ping checks the Redis connection
func (c *PredictionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *PredictionCache) key(version string, q domain.Query) string {
	return fmt.Sprintf("%s%s:%s", predictionKeyPrefix, version, QueryHash(q))
}

// QueryHash identifies a query independently of surrounding whitespace and
// thousands separators in its numeric fields.
func QueryHash(q domain.Query) string {
	num := func(s string) string {
		return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	}
	normalized := strings.Join([]string{
		strings.TrimSpace(q.Name),
		strings.TrimSpace(q.Company),
		num(q.Year),
		num(q.KmsDriven),
		strings.TrimSpace(q.FuelType),
	}, "\x1f")

	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
