package bootstrap

import (
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	httpapi "github.com/Walker49x/Car-Price-Prediction-Web-App/internal/api/http"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/api/http/middleware"
	pehttp "github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/http"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/repository"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/service"
)

// RouterDeps holds what the router serves. A nil TrustedProxies trusts no
// proxy, so the client IP is the peer address.
type RouterDeps struct {
	ServiceName    string
	Version        string
	Logger         *zap.Logger
	DB             *sql.DB
	Runs           pehttp.RunStore
	Cache          *repository.PredictionCache
	Predictions    *service.PredictionService
	RateLimiter    *middleware.RateLimiter
	CORSOrigins    []string
	TrustedProxies []string
}

func BuildRouter(dep RouterDeps) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(dep.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(dep.Logger))
	r.Use(middleware.CORS(dep.CORSOrigins))

	var db, cache httpapi.Pinger
	if dep.DB != nil {
		db = dep.DB
	}
	if dep.Cache != nil {
		cache = httpapi.PingerFunc(dep.Cache.Ping)
	}
	modelVersion := func() string {
		m, err := dep.Predictions.Current()
		if err != nil {
			return ""
		}
		return m.Pipeline.Version
	}
	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, db, cache, modelVersion)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")

	var predictMW []gin.HandlerFunc
	if dep.RateLimiter != nil {
		predictMW = append(predictMW, dep.RateLimiter.Middleware())
	}
	pehttp.New(dep.Predictions, dep.Runs).Register(api, predictMW...)

	return r, nil
}
