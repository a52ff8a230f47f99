package estimator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/domain"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/encoding"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/regression"
)

// Feature columns, in the order rows are fed to the encoder.
var (
	CategoricalColumns = []string{domain.ColName, domain.ColCompany, domain.ColFuelType}
	NumericColumns     = []string{domain.ColYear, domain.ColKmsDriven}
)

// Pipeline is a fitted encoder plus regression model. It is never modified
// after Fit returns; retraining produces a new Pipeline.
type Pipeline struct {
	Version   string                  `codec:"version"`
	Encoder   *encoding.ColumnEncoder `codec:"encoder"`
	Model     *regression.LinearModel `codec:"model"`
	Seed      int64                   `codec:"seed"`
	TestRatio float64                 `codec:"test_ratio"`
	Score     float64                 `codec:"score"`
	TrainRows int                     `codec:"train_rows"`
	TestRows  int                     `codec:"test_rows"`
	TrainedAt string                  `codec:"trained_at"`
}

func categories(r domain.Record) []string {
	return []string{r.Name, r.Company, r.FuelType}
}

func numerics(r domain.Record) []float64 {
	return []float64{float64(r.Year), float64(r.KmsDriven)}
}

func (p *Pipeline) predict(cats []string, nums []float64) (float64, error) {
	x, err := p.Encoder.Transform(cats, nums)
	if err != nil {
		return 0, err
	}
	return p.Model.Predict(x)
}

// PredictRecord returns the unrounded estimate for a cleaned record.
func (p *Pipeline) PredictRecord(r domain.Record) (float64, error) {
	return p.predict(categories(r), numerics(r))
}

// Predict parses q and returns the estimated price rounded to two decimals.
// Categories that were not seen during fitting do not cause an error.
func (p *Pipeline) Predict(q domain.Query) (float64, error) {
	year, err := parseNumber(domain.ColYear, q.Year)
	if err != nil {
		return 0, err
	}
	kms, err := parseNumber(domain.ColKmsDriven, q.KmsDriven)
	if err != nil {
		return 0, err
	}

	cats := []string{
		strings.TrimSpace(q.Name),
		strings.TrimSpace(q.Company),
		strings.TrimSpace(q.FuelType),
	}
	v, err := p.predict(cats, []float64{year, kms})
	if err != nil {
		return 0, err
	}
	return Round2(v), nil
}

// Evaluate scores the pipeline on records with R².
func (p *Pipeline) Evaluate(records []domain.Record) (float64, error) {
	yTrue := make([]float64, len(records))
	yPred := make([]float64, len(records))
	for i, r := range records {
		v, err := p.PredictRecord(r)
		if err != nil {
			return 0, err
		}
		yTrue[i] = float64(r.Price)
		yPred[i] = v
	}
	return regression.R2(yTrue, yPred), nil
}

// FeatureNames labels the model coefficients.
func (p *Pipeline) FeatureNames() []string {
	return p.Encoder.FeatureNames()
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func parseNumber(field, raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidNumber, field)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", domain.ErrInvalidNumber, field, raw)
	}
	return v, nil
}
