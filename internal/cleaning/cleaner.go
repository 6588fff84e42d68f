// Package cleaning normalizes raw flight records into cleaned flights
// with combined timestamps, dropping rows with missing required fields.
package cleaning

import (
	"errors"
	"fmt"
	"time"

	"github.com/yash/delaymodel/internal/metrics"
	"github.com/yash/delaymodel/pkg/models"
)

// ErrAlreadyCleaned is returned when Clean is invoked on a dataset that
// has already been cleaned. Timestamp combination must not be applied
// twice.
var ErrAlreadyCleaned = errors.New("cleaning: dataset already cleaned")

// Options restricts which rows survive cleaning.
type Options struct {
	// Month keeps only rows from this calendar month (1-12). Zero keeps all.
	Month int

	// FromDay/ToDay keep only rows within this inclusive day-of-month
	// window. Zero bounds are open.
	FromDay int
	ToDay   int
}

// Dataset carries flight rows through the cleaning stage. Clean may be
// applied exactly once.
type Dataset struct {
	raw     []models.FlightRecord
	flights []models.Flight
	dropped int
	cleaned bool
}

// NewDataset wraps raw records for cleaning.
func NewDataset(raw []models.FlightRecord) *Dataset {
	return &Dataset{raw: raw}
}

// Flights returns the cleaned rows. Empty until Clean has run.
func (d *Dataset) Flights() []models.Flight {
	return d.flights
}

// Dropped returns the number of rows discarded during cleaning.
func (d *Dataset) Dropped() int {
	return d.dropped
}

// Cleaned reports whether Clean has run.
func (d *Dataset) Cleaned() bool {
	return d.cleaned
}

// Clean combines each row's integer date and HHMM schedule fields into
// timestamps and drops rows with any missing required field (schedule
// times, delays) or a cancellation flag. Rows outside the configured
// month/day window are dropped too. A malformed value (HHMM out of
// range, impossible date) aborts the run.
func (d *Dataset) Clean(opts Options) error {
	if d.cleaned {
		return ErrAlreadyCleaned
	}

	d.flights = make([]models.Flight, 0, len(d.raw))
	for i, rec := range d.raw {
		f, ok, err := cleanRecord(rec, opts)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if !ok {
			d.dropped++
			continue
		}
		d.flights = append(d.flights, f)
	}

	d.cleaned = true
	metrics.CleanKeptRows.Add(int64(len(d.flights)))
	metrics.CleanDroppedRows.Add(int64(d.dropped))
	return nil
}

// cleanRecord converts one raw row. ok=false means the row is dropped;
// an error means the input is malformed and the run must abort.
func cleanRecord(rec models.FlightRecord, opts Options) (models.Flight, bool, error) {
	if opts.Month != 0 && rec.Month != opts.Month {
		return models.Flight{}, false, nil
	}
	if opts.FromDay != 0 && rec.Day < opts.FromDay {
		return models.Flight{}, false, nil
	}
	if opts.ToDay != 0 && rec.Day > opts.ToDay {
		return models.Flight{}, false, nil
	}

	// Null in any required field propagates to a dropped row. Cancelled
	// flights have null delays by definition and are dropped with them.
	if rec.Cancelled ||
		rec.ScheduledDeparture == nil || rec.ScheduledArrival == nil ||
		rec.DepartureDelay == nil || rec.ArrivalDelay == nil ||
		rec.Airline == "" || rec.Origin == "" || rec.Destination == "" {
		return models.Flight{}, false, nil
	}

	dep, err := CombineTimestamp(rec.Year, rec.Month, rec.Day, *rec.ScheduledDeparture)
	if err != nil {
		return models.Flight{}, false, err
	}
	arr, err := CombineTimestamp(rec.Year, rec.Month, rec.Day, *rec.ScheduledArrival)
	if err != nil {
		return models.Flight{}, false, err
	}

	return models.Flight{
		Airline:            rec.Airline,
		Origin:             rec.Origin,
		Destination:        rec.Destination,
		ScheduledDeparture: dep,
		ScheduledArrival:   arr,
		DepartureDelay:     *rec.DepartureDelay,
		ArrivalDelay:       *rec.ArrivalDelay,
	}, true, nil
}

// CombineTimestamp builds a timestamp from an integer date and an HHMM
// time. The literal value 2400 means midnight of the following day.
func CombineTimestamp(year, month, day, hhmm int) (time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month %d out of range", month)
	}
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("day %d out of range", day)
	}

	if hhmm == 2400 {
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1), nil
	}

	hour := hhmm / 100
	minute := hhmm % 100
	if hhmm < 0 || hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("time %04d out of range", hhmm)
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), nil
}
