package estimator

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/domain"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/encoding"
	"github.com/Walker49x/Car-Price-Prediction-Web-App/internal/price_estimation/regression"
)

// DefaultTestRatio and DefaultTrials are the values the training job uses
// unless configured otherwise.
const (
	DefaultTestRatio = 0.2
	DefaultTrials    = 1000
)

// pcgStream is the second PCG word. Only the seed varies between trials.
const pcgStream = 0x9e3779b97f4a7c15

// Split shuffles ds deterministically from seed and returns the training and
// held-out subsets. The held-out subset has ceil(testRatio*len(ds)) rows.
// ds is not modified.
func Split(ds []domain.Record, testRatio float64, seed int64) (train, test []domain.Record, err error) {
	if len(ds) == 0 {
		return nil, nil, domain.ErrEmptyDataset
	}
	if !(testRatio > 0 && testRatio < 1) {
		return nil, nil, fmt.Errorf("%w: got %v", domain.ErrInvalidTestRatio, testRatio)
	}

	n := len(ds)
	nTest := int(math.Ceil(testRatio * float64(n)))
	if nTest < 1 || n-nTest < 1 {
		return nil, nil, fmt.Errorf("%w: %d rows with test ratio %v", domain.ErrInsufficientRows, n, testRatio)
	}

	r := rand.New(rand.NewPCG(uint64(seed), pcgStream))
	perm := r.Perm(n)

	test = make([]domain.Record, 0, nTest)
	train = make([]domain.Record, 0, n-nTest)
	for i, idx := range perm {
		if i < nTest {
			test = append(test, ds[idx])
		} else {
			train = append(train, ds[idx])
		}
	}
	return train, test, nil
}

// Fit trains a pipeline on the split selected by seed and returns it with its
// R² on the held-out subset. Category tables are learned from the training
// subset only.
func Fit(ds []domain.Record, testRatio float64, seed int64) (*Pipeline, float64, error) {
	p, err := fit(ds, testRatio, seed)
	if err != nil {
		return nil, 0, err
	}
	p.Version = uuid.NewString()
	p.TrainedAt = time.Now().UTC().Format(time.RFC3339)
	return p, p.Score, nil
}

// fit builds and scores the pipeline for one seed without version metadata.
func fit(ds []domain.Record, testRatio float64, seed int64) (*Pipeline, error) {
	train, test, err := Split(ds, testRatio, seed)
	if err != nil {
		return nil, err
	}

	values := make([][]string, len(CategoricalColumns))
	for j := range values {
		values[j] = make([]string, len(train))
	}
	for i, r := range train {
		for j, v := range categories(r) {
			values[j][i] = v
		}
	}
	enc, err := encoding.FitColumns(CategoricalColumns, values, NumericColumns, encoding.HandleUnknownIgnore)
	if err != nil {
		return nil, err
	}

	X := make([][]float64, len(train))
	y := make([]float64, len(train))
	for i, r := range train {
		if X[i], err = enc.Transform(categories(r), numerics(r)); err != nil {
			return nil, err
		}
		y[i] = float64(r.Price)
	}

	model, err := regression.FitOLS(X, y)
	if err != nil {
		return nil, fmt.Errorf("fit linear model: %w", err)
	}

	p := &Pipeline{
		Encoder:   enc,
		Model:     model,
		Seed:      seed,
		TestRatio: testRatio,
		TrainRows: len(train),
		TestRows:  len(test),
	}
	if p.Score, err = p.Evaluate(test); err != nil {
		return nil, err
	}
	return p, nil
}

// SearchBestSplit fits one pipeline per seed 0..nTrials-1 and returns the seed
// with the highest held-out R². Ties keep the earliest seed.
func SearchBestSplit(ds []domain.Record, testRatio float64, nTrials int) (int64, float64, error) {
	return SearchBestSplitContext(context.Background(), ds, testRatio, nTrials)
}

// SearchBestSplitContext is SearchBestSplit with cancellation checked between
// trials.
func SearchBestSplitContext(ctx context.Context, ds []domain.Record, testRatio float64, nTrials int) (int64, float64, error) {
	if nTrials < 1 {
		return 0, 0, fmt.Errorf("%w: got %d", domain.ErrInvalidTrials, nTrials)
	}

	var (
		bestSeed  int64
		bestScore float64
	)
	for seed := int64(0); seed < int64(nTrials); seed++ {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		p, err := fit(ds, testRatio, seed)
		if err != nil {
			return 0, 0, err
		}
		if seed == 0 || p.Score > bestScore {
			bestSeed, bestScore = seed, p.Score
		}
	}
	return bestSeed, bestScore, nil
}
