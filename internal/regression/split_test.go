package regression

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Train/Test Split
// ---------------------------------------------------------------------------

func TestTrainTestSplitPartitions(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s, err := TrainTestSplit(100, 0.25, rng)
	require.NoError(t, err)

	assert.Len(t, s.Test, 25)
	assert.Len(t, s.Train, 75)

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, s.Train...), s.Test...) {
		assert.False(t, seen[i], "index %d appears twice", i)
		seen[i] = true
	}
	assert.Len(t, seen, 100)
}

func TestTrainTestSplitArguments(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := TrainTestSplit(1, 0.25, rng)
	assert.Error(t, err)

	_, err = TrainTestSplit(10, 0, rng)
	assert.Error(t, err)

	_, err = TrainTestSplit(10, 1, rng)
	assert.Error(t, err)
}

func TestTrainTestSplitSeedsDiffer(t *testing.T) {
	a, err := TrainTestSplit(50, 0.2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	b, err := TrainTestSplit(50, 0.2, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	assert.NotEqual(t, a.Test, b.Test, "different seeds pick different test rows")
}

// ---------------------------------------------------------------------------
// K-Fold Partitioning
// ---------------------------------------------------------------------------

func TestKFoldExactPartition(t *testing.T) {
	folds, err := KFold(10, 3)
	require.NoError(t, err)
	require.Len(t, folds, 3)

	var all []int
	for _, fold := range folds {
		assert.NotEmpty(t, fold)
		all = append(all, fold...)
	}
	sort.Ints(all)

	require.Len(t, all, 10)
	for i, v := range all {
		assert.Equal(t, i, v, "every index appears exactly once")
	}
}

func TestKFoldArguments(t *testing.T) {
	_, err := KFold(10, 1)
	assert.Error(t, err)

	_, err = KFold(3, 5)
	assert.Error(t, err)
}

func TestShuffledKFoldDeterministicPerSeed(t *testing.T) {
	a, err := ShuffledKFold(20, 4, 7)
	require.NoError(t, err)
	b, err := ShuffledKFold(20, 4, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed, same partition")

	c, err := ShuffledKFold(20, 4, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestShuffledKFoldCoversAllRows(t *testing.T) {
	folds, err := ShuffledKFold(13, 5, 42)
	require.NoError(t, err)

	var all []int
	for _, fold := range folds {
		all = append(all, fold...)
	}
	sort.Ints(all)

	require.Len(t, all, 13)
	for i, v := range all {
		assert.Equal(t, i, v)
	}
}

// ---------------------------------------------------------------------------
// Cross-Validation
// ---------------------------------------------------------------------------

func TestCrossValidateDeterministicForFixedFolds(t *testing.T) {
	x, y := line(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	folds, err := KFold(len(x), 5)
	require.NoError(t, err)

	first, err := CrossValidate(x, y, 1, 0.1, folds)
	require.NoError(t, err)
	second, err := CrossValidate(x, y, 1, 0.1, folds)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCrossValidateNoiselessLine(t *testing.T) {
	x, y := line(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	folds, err := KFold(len(x), 5)
	require.NoError(t, err)

	mse, err := CrossValidate(x, y, 1, 0, folds)
	require.NoError(t, err)
	assert.InDelta(t, 0, mse, 1e-9, "a noiseless line is fit exactly")
}

func TestCrossValidateNeedsFolds(t *testing.T) {
	x, y := line(0, 1, 2)
	_, err := CrossValidate(x, y, 1, 0, [][]int{{0, 1, 2}})
	assert.Error(t, err)
}
