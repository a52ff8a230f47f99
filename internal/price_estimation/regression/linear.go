package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoSamples         = errors.New("regression: no samples")
	ErrDimensionMismatch = errors.New("regression: dimension mismatch")
	ErrNotConverged      = errors.New("regression: SVD did not converge")
)

// LinearModel is an ordinary least squares fit with an intercept.
type LinearModel struct {
	Coef      []float64 `codec:"coef"`
	Intercept float64   `codec:"intercept"`
}

// FitOLS fits y ≈ X·coef + intercept by least squares.
//
// X and y are centred first so the intercept does not take part in the
// solve. The centred system is solved through an SVD with the same cut-off
// for small singular values as a standard lstsq, which gives the
// minimum-norm solution when columns are collinear (as they are with one-hot
// blocks).
func FitOLS(X [][]float64, y []float64) (*LinearModel, error) {
	n := len(X)
	if n == 0 {
		return nil, ErrNoSamples
	}
	if len(y) != n {
		return nil, fmt.Errorf("%w: %d rows but %d targets", ErrDimensionMismatch, n, len(y))
	}
	p := len(X[0])
	for i, row := range X {
		if len(row) != p {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrDimensionMismatch, i, len(row), p)
		}
	}

	xMean := make([]float64, p)
	yMean := 0.0
	for i, row := range X {
		for j, v := range row {
			xMean[j] += v
		}
		yMean += y[i]
	}
	for j := range xMean {
		xMean[j] /= float64(n)
	}
	yMean /= float64(n)

	model := &LinearModel{Coef: make([]float64, p), Intercept: yMean}
	if p == 0 {
		return model, nil
	}

	a := mat.NewDense(n, p, nil)
	b := mat.NewVecDense(n, nil)
	for i, row := range X {
		for j, v := range row {
			a.Set(i, j, v-xMean[j])
		}
		b.SetVec(i, y[i]-yMean)
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, ErrNotConverged
	}

	rcond := math.Nextafter(1, 2) - 1
	rcond *= float64(max(n, p))
	rank := svd.Rank(rcond)
	if rank == 0 {
		// Every feature is constant: the best fit is the mean.
		return model, nil
	}

	var x mat.VecDense
	svd.SolveVecTo(&x, b, rank)
	for j := range model.Coef {
		model.Coef[j] = x.AtVec(j)
	}

	for j, m := range xMean {
		model.Intercept -= m * model.Coef[j]
	}
	return model, nil
}

// Predict returns the model output for one feature vector.
func (m *LinearModel) Predict(x []float64) (float64, error) {
	if len(x) != len(m.Coef) {
		return 0, fmt.Errorf("%w: got %d features, model has %d", ErrDimensionMismatch, len(x), len(m.Coef))
	}
	sum := m.Intercept
	for j, v := range x {
		sum += m.Coef[j] * v
	}
	return sum, nil
}
