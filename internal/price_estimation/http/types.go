package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/domain"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/service"
)

// RunStore lists recorded training runs.
type RunStore interface {
	GetByID(ctx context.Context, id string) (*domain.TrainingRun, error)
	Latest(ctx context.Context) (*domain.TrainingRun, error)
	List(ctx context.Context, limit int) ([]*domain.TrainingRun, error)
}

// Handler handles HTTP requests for price predictions
type Handler struct {
	predictions *service.PredictionService
	runs        RunStore
}

// New creates a new Handler. runs may be nil when no registry is configured.
func New(predictions *service.PredictionService, runs RunStore) *Handler {
	return &Handler{
		predictions: predictions,
		runs:        runs,
	}
}

// numberOrString accepts both 2015 and "2015" in JSON bodies.
type numberOrString string

func (n *numberOrString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numberOrString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("expected number or string, got %s", b)
	}
	*n = numberOrString(num.String())
	return nil
}

type predictRequest struct {
	Name      string         `json:"name"`
	Company   string         `json:"company"`
	Year      numberOrString `json:"year"`
	KmsDriven numberOrString `json:"kms_driven"`
	FuelType  string         `json:"fuel_type"`
}

func (r predictRequest) query() domain.Query {
	return domain.Query{
		Name:      r.Name,
		Company:   r.Company,
		Year:      string(r.Year),
		KmsDriven: string(r.KmsDriven),
		FuelType:  r.FuelType,
	}
}

// PredictResponse is the body of a successful prediction.
type PredictResponse struct {
	Price        float64 `json:"price"`
	ModelVersion string  `json:"model_version"`
}

// ModelInfo describes the pipeline in service.
type ModelInfo struct {
	Version   string   `json:"version"`
	Seed      int64    `json:"seed"`
	Score     float64  `json:"score"`
	TestRatio float64  `json:"test_ratio"`
	TrainRows int      `json:"train_rows"`
	TestRows  int      `json:"test_rows"`
	TrainedAt string   `json:"trained_at"`
	Features  []string `json:"features"`
}
