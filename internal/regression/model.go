// Package regression fits polynomial ridge regression models over
// encoded feature matrices and evaluates them via train/test splits and
// k-fold cross-validation.
package regression

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/yash/delaymodel/internal/metrics"
)

var (
	// ErrNotFitted is returned when predicting with an unfitted model.
	ErrNotFitted = errors.New("regression: model not fitted")

	// ErrDimensionMismatch is returned when a feature row's width does
	// not match the width the model was fitted with.
	ErrDimensionMismatch = errors.New("regression: feature width mismatch")

	// ErrNoData is returned when fitting against an empty matrix.
	ErrNoData = errors.New("regression: no training rows")
)

// Model is a fitted polynomial ridge regression. Coefficients are laid
// out as [intercept, x1..xw, x1^2..xw^2, ...] up to Degree. A model is
// only valid against data produced by the encoder it was trained with.
type Model struct {
	Degree int
	Alpha  float64

	coeffs []float64
	width  int // raw feature width before expansion
}

// Fit trains a polynomial ridge model of the given degree (>= 1) and
// penalty alpha (>= 0) by solving the penalized normal equations. The
// intercept is not penalized. A singular system (typical for an
// unregularized high-degree fit over indicator columns) falls back to
// the minimum-norm solution rather than failing: the resulting fit is
// degenerate and shows up as a pathologically large validation error.
func Fit(x [][]float64, y []float64, degree int, alpha float64) (*Model, error) {
	if degree < 1 {
		return nil, fmt.Errorf("regression: degree %d out of range", degree)
	}
	if alpha < 0 {
		return nil, fmt.Errorf("regression: alpha %g out of range", alpha)
	}
	if len(x) == 0 {
		return nil, ErrNoData
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("regression: %d rows but %d targets", len(x), len(y))
	}

	width := len(x[0])
	n := len(x)
	p := 1 + width*degree

	a := mat.NewDense(n, p, nil)
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("row %d: %w", i, ErrDimensionMismatch)
		}
		a.SetRow(i, expand(row, degree))
	}
	yv := mat.NewVecDense(n, y)

	// Normal equations: (AᵀA + αI)β = Aᵀy, identity zeroed at the
	// intercept position.
	var g mat.Dense
	g.Mul(a.T(), a)
	for j := 1; j < p; j++ {
		g.Set(j, j, g.At(j, j)+alpha)
	}

	var b mat.VecDense
	b.MulVec(a.T(), yv)

	beta := mat.NewVecDense(p, nil)
	if err := beta.SolveVec(&g, &b); err != nil {
		if err := solveMinNorm(beta, &g, &b); err != nil {
			return nil, fmt.Errorf("regression: degenerate system: %w", err)
		}
		metrics.SingularFits.Inc()
	}
	metrics.ModelFits.Inc()

	coeffs := make([]float64, p)
	copy(coeffs, beta.RawVector().Data)

	return &Model{
		Degree: degree,
		Alpha:  alpha,
		coeffs: coeffs,
		width:  width,
	}, nil
}

// solveMinNorm computes the minimum-norm least-squares solution of
// g·β = b via SVD, for systems too ill-conditioned for a direct solve.
func solveMinNorm(dst *mat.VecDense, g mat.Matrix, b mat.Vector) error {
	var svd mat.SVD
	if ok := svd.Factorize(g, mat.SVDThin); !ok {
		return errors.New("svd factorization failed")
	}

	values := svd.Values(nil)
	rank := 0
	if len(values) > 0 {
		tol := values[0] * 1e-12 * float64(len(values))
		for _, v := range values {
			if v > tol {
				rank++
			}
		}
	}
	if rank == 0 {
		return errors.New("zero-rank system")
	}

	svd.SolveVecTo(dst, b, rank)
	return nil
}

// Coefficients returns a copy of the fitted coefficient vector,
// intercept first.
func (m *Model) Coefficients() []float64 {
	out := make([]float64, len(m.coeffs))
	copy(out, m.coeffs)
	return out
}

// Predict scores a single encoded feature row.
func (m *Model) Predict(features []float64) (float64, error) {
	if m.coeffs == nil {
		return 0, ErrNotFitted
	}
	if len(features) != m.width {
		return 0, ErrDimensionMismatch
	}

	expanded := expand(features, m.Degree)
	var sum float64
	for i, c := range m.coeffs {
		sum += c * expanded[i]
	}
	return sum, nil
}

// PredictAll scores every row of an encoded feature matrix.
func (m *Model) PredictAll(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		p, err := m.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// expand maps a raw feature row into polynomial feature space: a
// leading 1 for the intercept, then per-column powers 1..degree.
func expand(row []float64, degree int) []float64 {
	out := make([]float64, 1+len(row)*degree)
	out[0] = 1

	pos := 1
	for d := 1; d <= degree; d++ {
		for _, v := range row {
			pow := v
			for k := 1; k < d; k++ {
				pow *= v
			}
			out[pos] = pow
			pos++
		}
	}
	return out
}
