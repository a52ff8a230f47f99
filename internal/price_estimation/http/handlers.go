package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/logging"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/domain"
)

// Predict estimates the price of one car. It accepts a JSON body or the
// fields of the web form.
func (h *Handler) Predict(c *gin.Context) {
	var q domain.Query
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var body predictRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		q = body.query()
	} else {
		q = domain.Query{
			Name:      formValue(c, "car_models", "name"),
			Company:   formValue(c, "company"),
			Year:      formValue(c, "year"),
			KmsDriven: formValue(c, "kilo_driven", "kms_driven"),
			FuelType:  formValue(c, "fuel_type"),
		}
	}

	price, version, err := h.predictions.Predict(c.Request.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidNumber):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrModelNotLoaded):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model not loaded"})
		default:
			logging.FromContext(c.Request.Context()).Error("prediction failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to predict price"})
		}
		return
	}

	c.JSON(http.StatusOK, PredictResponse{Price: price, ModelVersion: version})
}

// Catalog returns the values offered by the prediction form. With ?company=
// the names are narrowed to that company.
func (h *Handler) Catalog(c *gin.Context) {
	m, err := h.predictions.Current()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model not loaded"})
		return
	}

	company := strings.TrimSpace(c.Query("company"))
	if company == "" {
		c.JSON(http.StatusOK, m.Catalog)
		return
	}

	out := *m.Catalog
	out.Names = m.Catalog.NamesFor(company)
	c.JSON(http.StatusOK, out)
}

// ModelInfo describes the model in service
func (h *Handler) ModelInfo(c *gin.Context) {
	m, err := h.predictions.Current()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model not loaded"})
		return
	}

	p := m.Pipeline
	c.JSON(http.StatusOK, ModelInfo{
		Version:   p.Version,
		Seed:      p.Seed,
		Score:     p.Score,
		TestRatio: p.TestRatio,
		TrainRows: p.TrainRows,
		TestRows:  p.TestRows,
		TrainedAt: p.TrainedAt,
		Features:  p.FeatureNames(),
	})
}

// ListRuns lists recorded training runs, newest first
func (h *Handler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "training run registry not configured"})
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	runs, err := h.runs.List(c.Request.Context(), limit)
	if err != nil {
		logging.FromContext(c.Request.Context()).Error("list training runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRun retrieves a training run by ID, or the latest one for "latest"
func (h *Handler) GetRun(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "training run registry not configured"})
		return
	}

	id := c.Param("id")
	var (
		run *domain.TrainingRun
		err error
	)
	if id == "latest" {
		run, err = h.runs.Latest(c.Request.Context())
	} else {
		run, err = h.runs.GetByID(c.Request.Context(), id)
	}
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		logging.FromContext(c.Request.Context()).Error("get training run", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get run"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"run": run})
}

func formValue(c *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v, ok := c.GetPostForm(k); ok {
			return v
		}
	}
	return ""
}
