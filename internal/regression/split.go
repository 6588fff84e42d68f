package regression

import (
	"fmt"
	"math/rand"
)

// ---------------------------------------------------------------------------
// Train/Test Split
// ---------------------------------------------------------------------------

// Split holds the row indexes of one train/test partition.
type Split struct {
	Train []int
	Test  []int
}

// TrainTestSplit shuffles row indexes with the given RNG and reserves
// testFraction of them for testing. The resulting single-split error
// estimate is high-variance: repeated splits with different RNG seeds
// can select different "best" hyperparameters on the same data.
func TrainTestSplit(n int, testFraction float64, rng *rand.Rand) (Split, error) {
	if n < 2 {
		return Split{}, fmt.Errorf("regression: cannot split %d rows", n)
	}
	if testFraction <= 0 || testFraction >= 1 {
		return Split{}, fmt.Errorf("regression: test fraction %g out of range", testFraction)
	}

	idx := rng.Perm(n)
	nTest := int(float64(n) * testFraction)
	if nTest < 1 {
		nTest = 1
	}

	return Split{
		Test:  idx[:nTest],
		Train: idx[nTest:],
	}, nil
}

// ---------------------------------------------------------------------------
// K-Fold Partitioning
// ---------------------------------------------------------------------------

// KFold partitions n row indexes into k contiguous folds. The partition
// is fully deterministic for a given (n, k).
func KFold(n, k int) ([][]int, error) {
	if k < 2 || k > n {
		return nil, fmt.Errorf("regression: %d folds over %d rows", k, n)
	}

	folds := make([][]int, k)
	for i := 0; i < n; i++ {
		f := i * k / n
		folds[f] = append(folds[f], i)
	}
	return folds, nil
}

// ShuffledKFold partitions shuffled row indexes into k folds. The same
// seed always produces the same partition.
func ShuffledKFold(n, k int, seed int64) ([][]int, error) {
	folds, err := KFold(n, k)
	if err != nil {
		return nil, err
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	for _, fold := range folds {
		for i, idx := range fold {
			fold[i] = perm[idx]
		}
	}
	return folds, nil
}

// ---------------------------------------------------------------------------
// Cross-Validation
// ---------------------------------------------------------------------------

// CrossValidate trains on k-1 folds and scores the held-out fold,
// repeated for every fold, and returns the mean test MSE. For a fixed
// fold partition the result is deterministic, which is why it (and not
// the single random split) drives hyperparameter selection.
func CrossValidate(x [][]float64, y []float64, degree int, alpha float64, folds [][]int) (float64, error) {
	if len(folds) < 2 {
		return 0, fmt.Errorf("regression: need at least 2 folds, got %d", len(folds))
	}

	var total float64
	for i, test := range folds {
		var train []int
		for j, fold := range folds {
			if j != i {
				train = append(train, fold...)
			}
		}

		xTrain, yTrain := gather(x, y, train)
		xTest, yTest := gather(x, y, test)

		model, err := Fit(xTrain, yTrain, degree, alpha)
		if err != nil {
			return 0, fmt.Errorf("fold %d: %w", i, err)
		}
		pred, err := model.PredictAll(xTest)
		if err != nil {
			return 0, fmt.Errorf("fold %d: %w", i, err)
		}
		total += MSE(pred, yTest)
	}
	return total / float64(len(folds)), nil
}

// gather selects the rows of x and y at the given indexes.
func gather(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}
