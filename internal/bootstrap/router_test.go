package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/api/http/middleware"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/service"
)

func predictStatuses(t *testing.T, trusted []string, forwarded ...string) []int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router, err := BuildRouter(RouterDeps{
		ServiceName:    "car-price-api",
		Logger:         zap.NewNop(),
		Predictions:    service.NewPredictionService(nil),
		RateLimiter:    middleware.NewRateLimiter(0.0001, 1),
		TrustedProxies: trusted,
	})
	require.NoError(t, err)

	var codes []int
	for _, xff := range forwarded {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", xff)
		req.RemoteAddr = "10.0.0.9:1234"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	return codes
}

func TestBuildRouter_ForwardedForIgnoredByDefault(t *testing.T) {
	codes := predictStatuses(t, nil, "1.1.1.1", "2.2.2.2", "3.3.3.3")

	assert.NotEqual(t, http.StatusTooManyRequests, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}

func TestBuildRouter_TrustedProxyForwardsClientIP(t *testing.T) {
	codes := predictStatuses(t, []string{"10.0.0.0/8"}, "1.1.1.1", "2.2.2.2", "3.3.3.3")

	for _, code := range codes {
		assert.NotEqual(t, http.StatusTooManyRequests, code)
	}
}

func TestBuildRouter_InvalidTrustedProxy(t *testing.T) {
	_, err := BuildRouter(RouterDeps{
		Logger:         zap.NewNop(),
		Predictions:    service.NewPredictionService(nil),
		TrustedProxies: []string{"not-an-address"},
	})
	assert.Error(t, err)
}
