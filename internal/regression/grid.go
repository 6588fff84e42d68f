package regression

import (
	"fmt"
	"math"
)

// GridResult is the cross-validated score of one (degree, alpha) pair.
type GridResult struct {
	Degree int
	Alpha  float64
	MSE    float64
}

// GridSearch evaluates every (degree, alpha) pair by k-fold
// cross-validation over the given fold partition and returns the pair
// with the minimum mean MSE, plus the full grid of results. Ties break
// to the first-encountered minimum (degrees outer, alphas inner).
func GridSearch(x [][]float64, y []float64, degrees []int, alphas []float64, folds [][]int) (GridResult, []GridResult, error) {
	if len(degrees) == 0 || len(alphas) == 0 {
		return GridResult{}, nil, fmt.Errorf("regression: empty hyperparameter grid")
	}

	best := GridResult{MSE: math.Inf(1)}
	results := make([]GridResult, 0, len(degrees)*len(alphas))

	for _, degree := range degrees {
		for _, alpha := range alphas {
			mse, err := CrossValidate(x, y, degree, alpha, folds)
			if err != nil {
				return GridResult{}, nil, fmt.Errorf("degree=%d alpha=%g: %w", degree, alpha, err)
			}

			r := GridResult{Degree: degree, Alpha: alpha, MSE: mse}
			results = append(results, r)
			if r.MSE < best.MSE {
				best = r
			}
		}
	}
	return best, results, nil
}
