package service

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/logging"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/catalog"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/domain"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/estimator"
)

// PriceCache caches predictions per model version.
type PriceCache interface {
	Get(ctx context.Context, version string, q domain.Query) (float64, bool, error)
	Set(ctx context.Context, version string, q domain.Query, price float64) error
}

// Model is the pipeline being served together with the catalog of the
// dataset it was trained on.
type Model struct {
	Pipeline *estimator.Pipeline
	Catalog  *catalog.Catalog
}

// PredictionService serves predictions from the current model. The model can
// be replaced at any time; in-flight requests keep the model they started
// with.
type PredictionService struct {
	current atomic.Pointer[Model]
	cache   PriceCache
}

// NewPredictionService creates a new PredictionService. cache may be nil.
func NewPredictionService(cache PriceCache) *PredictionService {
	return &PredictionService{cache: cache}
}

// Swap installs a new model.
func (s *PredictionService) Swap(p *estimator.Pipeline, ds []domain.Record) {
	s.current.Store(&Model{Pipeline: p, Catalog: catalog.Build(ds)})
}

// Current returns the model in service.
func (s *PredictionService) Current() (*Model, error) {
	m := s.current.Load()
	if m == nil {
		return nil, domain.ErrModelNotLoaded
	}
	return m, nil
}

// Predict returns the price estimate for q and the version of the model that
// produced it.
func (s *PredictionService) Predict(ctx context.Context, q domain.Query) (float64, string, error) {
	m, err := s.Current()
	if err != nil {
		return 0, "", err
	}
	version := m.Pipeline.Version
	log := logging.FromContext(ctx)

	if s.cache != nil {
		price, ok, err := s.cache.Get(ctx, version, q)
		if err != nil {
			log.Warn("prediction cache read failed", zap.Error(err))
		} else if ok {
			return price, version, nil
		}
	}

	price, err := m.Pipeline.Predict(q)
	if err != nil {
		return 0, "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, version, q, price); err != nil {
			log.Warn("prediction cache write failed", zap.Error(err))
		}
	}
	return price, version, nil
}
