// Package stats computes per-group delay statistics over cleaned
// flights, keyed by airline, origin airport, and time-of-day buckets.
package stats

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/yash/delaymodel/internal/metrics"
	"github.com/yash/delaymodel/pkg/models"
)

// DefaultBucketMinutes is the default time-of-day bucket width.
const DefaultBucketMinutes = 60

// Key identifies an aggregation group. ArrivalBucket is -1 when
// arrival-time bucketing is disabled, and Origin is empty when origin
// grouping is disabled.
type Key struct {
	Airline         string
	Origin          string
	DepartureBucket int
	ArrivalBucket   int
}

// GroupStat holds the delay statistics of one group. Groups only exist
// for keys with at least one member; Count is always >= 1.
type GroupStat struct {
	Key   Key
	Count int
	Mean  float64
	Min   float64
	Max   float64
}

// Options selects the grouping keys and the outlier cap.
type Options struct {
	// BucketMinutes is the time-of-day bucket width. Defaults to
	// DefaultBucketMinutes when zero.
	BucketMinutes int

	// ByOrigin includes the origin airport in the group key.
	ByOrigin bool

	// ByArrival includes the scheduled-arrival time-of-day bucket in
	// the group key.
	ByArrival bool

	// CapMinutes clips each delay to this ceiling before averaging.
	// Zero disables capping.
	CapMinutes float64
}

// Aggregate groups flights and computes count, mean, min, and max of
// departure delay within each group. Output is sorted by key for
// deterministic iteration.
func Aggregate(flights []models.Flight, opts Options) []GroupStat {
	width := opts.BucketMinutes
	if width <= 0 {
		width = DefaultBucketMinutes
	}

	groups := make(map[Key][]float64)
	for _, f := range flights {
		key := Key{
			Airline:         f.Airline,
			DepartureBucket: BucketOf(f.ScheduledDeparture, width),
			ArrivalBucket:   -1,
		}
		if opts.ByOrigin {
			key.Origin = f.Origin
		}
		if opts.ByArrival {
			key.ArrivalBucket = BucketOf(f.ScheduledArrival, width)
		}

		delay := float64(f.DepartureDelay)
		metrics.DelayMinutes.Observe(delay)
		if opts.CapMinutes > 0 && delay > opts.CapMinutes {
			delay = opts.CapMinutes
		}
		groups[key] = append(groups[key], delay)
	}

	out := make([]GroupStat, 0, len(groups))
	for key, samples := range groups {
		out = append(out, GroupStat{
			Key:   key,
			Count: len(samples),
			Mean:  stat.Mean(samples, nil),
			Min:   floats.Min(samples),
			Max:   floats.Max(samples),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Airline != b.Airline {
			return a.Airline < b.Airline
		}
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		if a.DepartureBucket != b.DepartureBucket {
			return a.DepartureBucket < b.DepartureBucket
		}
		return a.ArrivalBucket < b.ArrivalBucket
	})
	return out
}

// BucketOf returns the time-of-day bucket index of t for the given
// bucket width in minutes.
func BucketOf(t time.Time, widthMinutes int) int {
	return (t.Hour()*60 + t.Minute()) / widthMinutes
}
