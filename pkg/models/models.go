package models

import "time"

// FlightRecord is a raw row from the flights table before cleaning.
// Dates are the dataset's integer encodings: Year/Month/Day as calendar
// ints and the schedule fields as HHMM (e.g. 5, 1530, 2400). Nullable
// fields are pointers; nil means the source cell was empty.
type FlightRecord struct {
	Year  int
	Month int
	Day   int

	Airline     string
	Origin      string
	Destination string

	ScheduledDeparture *int // HHMM
	ScheduledArrival   *int // HHMM
	DepartureDelay     *int // minutes, signed, positive = late
	ArrivalDelay       *int // minutes, signed, positive = late

	Cancelled bool
}

// Flight is a cleaned flight record with combined timestamps.
// Immutable once produced by the cleaner.
type Flight struct {
	Airline     string
	Origin      string
	Destination string

	ScheduledDeparture time.Time
	ScheduledArrival   time.Time

	DepartureDelay int // minutes, signed
	ArrivalDelay   int // minutes, signed
}

// Airport is a static reference-table entry.
type Airport struct {
	Code      string
	Name      string
	City      string
	State     string
	Latitude  float64
	Longitude float64
}

// Airline is a static reference-table entry.
type Airline struct {
	Code string
	Name string
}
