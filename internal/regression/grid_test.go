package regression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadraticData() ([][]float64, []float64) {
	xs := []float64{-3, -2, -1, 0, 1, 2, 3, 4, 5, 6}
	x := make([][]float64, len(xs))
	y := make([]float64, len(xs))
	for i, v := range xs {
		x[i] = []float64{v}
		y[i] = 2 - v + 0.5*v*v
	}
	return x, y
}

func TestGridSearchSelectsQuadratic(t *testing.T) {
	x, y := quadraticData()
	folds, err := KFold(len(x), 5)
	require.NoError(t, err)

	best, results, err := GridSearch(x, y, []int{1, 2}, []float64{0, 0.1}, folds)
	require.NoError(t, err)

	assert.Equal(t, 2, best.Degree, "a line cannot fit a parabola")
	assert.Len(t, results, 4)

	for _, r := range results {
		assert.GreaterOrEqual(t, r.MSE, best.MSE)
	}
}

func TestGridSearchTieBreaksToFirst(t *testing.T) {
	x, y := line(0, 1, 2, 3, 4, 5, 6, 7)
	folds, err := KFold(len(x), 4)
	require.NoError(t, err)

	// The same pair twice: the first occurrence must win the tie.
	best, results, err := GridSearch(x, y, []int{1, 1}, []float64{0.5}, folds)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].MSE, results[1].MSE)
	assert.Equal(t, results[0], best)
}

func TestGridSearchEmptyGrid(t *testing.T) {
	x, y := line(0, 1, 2, 3)
	folds, err := KFold(len(x), 2)
	require.NoError(t, err)

	_, _, err = GridSearch(x, y, nil, []float64{0}, folds)
	assert.Error(t, err)

	_, _, err = GridSearch(x, y, []int{1}, nil, folds)
	assert.Error(t, err)
}
