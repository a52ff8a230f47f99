package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

type HealthResponse struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Service      string    `json:"service"`
	Version      string    `json:"version"`
	ModelVersion string    `json:"model_version,omitempty"`
	DB           string    `json:"db,omitempty"`
	Redis        string    `json:"redis,omitempty"`
}

type HealthHandler struct {
	serviceName  string
	version      string
	db           Pinger
	redis        Pinger
	modelVersion func() string
}

// NewHealthHandler builds the health endpoint. db, redis and modelVersion
// may be nil.
func NewHealthHandler(serviceName, version string, db, redis Pinger, modelVersion func() string) *HealthHandler {
	return &HealthHandler{
		serviceName:  serviceName,
		version:      version,
		db:           db,
		redis:        redis,
		modelVersion: modelVersion,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        ping(c.Request.Context(), h.db),
		Redis:     ping(c.Request.Context(), h.redis),
	}
	if h.modelVersion != nil {
		resp.ModelVersion = h.modelVersion()
	}
	if resp.ModelVersion == "" {
		resp.Status = "degraded"
	}

	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}

func ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if err := p.PingContext(pingCtx); err != nil {
		return "down"
	}
	return "up"
}
