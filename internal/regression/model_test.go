package regression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

// line builds samples of y = 3 + 2x.
func line(xs ...float64) ([][]float64, []float64) {
	x := make([][]float64, len(xs))
	y := make([]float64, len(xs))
	for i, v := range xs {
		x[i] = []float64{v}
		y[i] = 3 + 2*v
	}
	return x, y
}

// ---------------------------------------------------------------------------
// Fitting
// ---------------------------------------------------------------------------

func TestFitRecoversLine(t *testing.T) {
	x, y := line(0, 1, 2, 3, 4, 5)

	m, err := Fit(x, y, 1, 0)
	require.NoError(t, err)

	coeffs := m.Coefficients()
	require.Len(t, coeffs, 2)
	assert.InDelta(t, 3, coeffs[0], 1e-6)
	assert.InDelta(t, 2, coeffs[1], 1e-6)

	pred, err := m.Predict([]float64{10})
	require.NoError(t, err)
	assert.InDelta(t, 23, pred, 1e-6)
}

func TestFitRecoversQuadratic(t *testing.T) {
	// y = 1 + x^2
	xs := []float64{-2, -1, 0, 1, 2, 3}
	x := make([][]float64, len(xs))
	y := make([]float64, len(xs))
	for i, v := range xs {
		x[i] = []float64{v}
		y[i] = 1 + v*v
	}

	m, err := Fit(x, y, 2, 0)
	require.NoError(t, err)

	coeffs := m.Coefficients()
	require.Len(t, coeffs, 3)
	assert.InDelta(t, 1, coeffs[0], 1e-6)
	assert.InDelta(t, 0, coeffs[1], 1e-6)
	assert.InDelta(t, 1, coeffs[2], 1e-6)
}

func TestRidgeShrinksSlope(t *testing.T) {
	x, y := line(0, 1, 2, 3, 4, 5)

	plain, err := Fit(x, y, 1, 0)
	require.NoError(t, err)
	heavy, err := Fit(x, y, 1, 1000)
	require.NoError(t, err)

	assert.Less(t, heavy.Coefficients()[1], plain.Coefficients()[1],
		"a large penalty pulls the slope toward zero")
	assert.Greater(t, heavy.Coefficients()[1], 0.0)
}

func TestFitDegenerateIndicatorsDoesNotFail(t *testing.T) {
	// Squared 0/1 indicator columns duplicate the originals, so the
	// unregularized degree-2 system is singular. The fit must still
	// return a model instead of an error.
	x := [][]float64{
		{1, 0, 100},
		{0, 1, 200},
		{1, 0, 300},
		{0, 1, 400},
		{1, 0, 500},
	}
	y := []float64{5, 10, 15, 20, 25}

	m, err := Fit(x, y, 2, 0)
	require.NoError(t, err)

	pred, err := m.PredictAll(x)
	require.NoError(t, err)
	assert.Len(t, pred, 5)
}

func TestFitArgumentErrors(t *testing.T) {
	x, y := line(0, 1, 2)

	_, err := Fit(x, y, 0, 0)
	assert.Error(t, err)

	_, err = Fit(x, y, 1, -1)
	assert.Error(t, err)

	_, err = Fit(nil, nil, 1, 0)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Fit(x, y[:2], 1, 0)
	assert.Error(t, err)

	ragged := [][]float64{{1}, {1, 2}}
	_, err = Fit(ragged, []float64{1, 2}, 1, 0)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

// ---------------------------------------------------------------------------
// Predicting
// ---------------------------------------------------------------------------

func TestPredictUnfitted(t *testing.T) {
	var m Model
	_, err := m.Predict([]float64{1})
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestPredictWidthMismatch(t *testing.T) {
	x, y := line(0, 1, 2)
	m, err := Fit(x, y, 1, 0)
	require.NoError(t, err)

	_, err = m.Predict([]float64{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

// ---------------------------------------------------------------------------
// Feature Expansion
// ---------------------------------------------------------------------------

func TestExpand(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3}, expand([]float64{2, 3}, 1))
	assert.Equal(t, []float64{1, 2, 3, 4, 9}, expand([]float64{2, 3}, 2))
	assert.Equal(t, []float64{1, 2, 4, 8}, expand([]float64{2}, 3))
}
