package regression

import "math"

// Evaluation summarizes prediction error against ground truth.
type Evaluation struct {
	N   int
	MSE float64

	// TypicalDeviation is √MSE, the simplified "how far off is a
	// typical prediction" figure reported to users.
	TypicalDeviation float64

	// OverThreshold is the fraction of predictions whose absolute
	// error exceeds the reporting threshold.
	OverThreshold float64
}

// MSE returns the mean squared error between predictions and truth.
// Slices must be the same length; an empty input yields 0.
func MSE(pred, truth []float64) float64 {
	if len(pred) == 0 {
		return 0
	}

	var sum float64
	for i, p := range pred {
		d := p - truth[i]
		sum += d * d
	}
	return sum / float64(len(pred))
}

// Evaluate computes the full error summary for a set of predictions.
// thresholdMinutes bounds the "off by more than" report; zero disables
// it.
func Evaluate(pred, truth []float64, thresholdMinutes float64) Evaluation {
	ev := Evaluation{N: len(pred)}
	if len(pred) == 0 {
		return ev
	}

	ev.MSE = MSE(pred, truth)
	ev.TypicalDeviation = math.Sqrt(ev.MSE)

	if thresholdMinutes > 0 {
		over := 0
		for i, p := range pred {
			if math.Abs(p-truth[i]) > thresholdMinutes {
				over++
			}
		}
		ev.OverThreshold = float64(over) / float64(len(pred))
	}
	return ev
}
