// Package features converts categorical airport codes into fixed-width
// one-hot vectors concatenated with numeric time-of-day features.
package features

import (
	"errors"
	"fmt"
	"time"

	"github.com/yash/delaymodel/internal/metrics"
	"github.com/yash/delaymodel/pkg/models"
)

// ErrNotFitted is returned when Transform runs before Fit.
var ErrNotFitted = errors.New("features: encoder not fitted")

// Encoder maps origin-airport codes to indicator-vector indexes. The
// mapping is frozen at Fit time: a model fit against one encoding is
// invalid against data encoded with a different index order, so the
// same fitted encoder must be reused verbatim for inference.
type Encoder struct {
	// WithArrival appends seconds-since-midnight of the scheduled
	// arrival as a second numeric feature.
	WithArrival bool

	index  map[string]int
	codes  []string
	unseen int64
}

// NewEncoder creates an unfitted encoder.
func NewEncoder(withArrival bool) *Encoder {
	return &Encoder{WithArrival: withArrival}
}

// Fit assigns each distinct origin-airport code an index in first-seen
// order. Calling Fit again re-derives the mapping from scratch.
func (e *Encoder) Fit(flights []models.Flight) {
	e.index = make(map[string]int)
	e.codes = e.codes[:0]
	e.unseen = 0

	for _, f := range flights {
		if _, ok := e.index[f.Origin]; !ok {
			e.index[f.Origin] = len(e.codes)
			e.codes = append(e.codes, f.Origin)
		}
	}
}

// Fitted reports whether Fit has run.
func (e *Encoder) Fitted() bool {
	return e.index != nil
}

// Airports returns the number of distinct training-time airport codes.
func (e *Encoder) Airports() int {
	return len(e.codes)
}

// Width returns the encoded vector width: one indicator column per
// training-time airport plus the numeric time features.
func (e *Encoder) Width() int {
	w := len(e.codes) + 1
	if e.WithArrival {
		w++
	}
	return w
}

// Unseen returns how many rows carried an airport code absent from the
// training set and were therefore zero-encoded.
func (e *Encoder) Unseen() int64 {
	return e.unseen
}

// Decode returns the airport code assigned to indicator index i.
func (e *Encoder) Decode(i int) (string, bool) {
	if i < 0 || i >= len(e.codes) {
		return "", false
	}
	return e.codes[i], true
}

// Transform encodes one flight. An origin code unseen at Fit time has
// no indicator column and encodes as an all-zero indicator; this is a
// silent accuracy degradation, counted but not an error.
func (e *Encoder) Transform(f models.Flight) ([]float64, error) {
	if !e.Fitted() {
		return nil, ErrNotFitted
	}

	v := make([]float64, e.Width())
	if idx, ok := e.index[f.Origin]; ok {
		v[idx] = 1
	} else {
		e.unseen++
		metrics.FeaturesUnseen.Inc()
	}

	pos := len(e.codes)
	v[pos] = secondsSinceMidnight(f.ScheduledDeparture)
	if e.WithArrival {
		v[pos+1] = secondsSinceMidnight(f.ScheduledArrival)
	}
	return v, nil
}

// TransformAll encodes a slice of flights into a design matrix and the
// matching departure-delay target vector.
func (e *Encoder) TransformAll(flights []models.Flight) ([][]float64, []float64, error) {
	x := make([][]float64, 0, len(flights))
	y := make([]float64, 0, len(flights))

	for i, f := range flights {
		row, err := e.Transform(f)
		if err != nil {
			return nil, nil, fmt.Errorf("encode row %d: %w", i, err)
		}
		x = append(x, row)
		y = append(y, float64(f.DepartureDelay))
	}
	return x, y, nil
}

func secondsSinceMidnight(t time.Time) float64 {
	return float64(t.Hour()*3600 + t.Minute()*60 + t.Second())
}
