package cleaning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash/delaymodel/pkg/models"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

func intp(v int) *int { return &v }

func rawRecord(day int) models.FlightRecord {
	return models.FlightRecord{
		Year:               2015,
		Month:              1,
		Day:                day,
		Airline:            "AA",
		Origin:             "JFK",
		Destination:        "LAX",
		ScheduledDeparture: intp(930),
		ScheduledArrival:   intp(1245),
		DepartureDelay:     intp(12),
		ArrivalDelay:       intp(7),
	}
}

// ---------------------------------------------------------------------------
// Timestamp Combination
// ---------------------------------------------------------------------------

func TestCombineTimestamp(t *testing.T) {
	ts, err := CombineTimestamp(2015, 1, 15, 1537)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 1, 15, 15, 37, 0, 0, time.UTC), ts)
}

func TestCombineTimestampLeadingZeros(t *testing.T) {
	// "0005" parses to the integer 5 and still means 00:05.
	ts, err := CombineTimestamp(2015, 1, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 1, 1, 0, 5, 0, 0, time.UTC), ts)
}

func TestCombineTimestamp2400IsNextMidnight(t *testing.T) {
	ts, err := CombineTimestamp(2015, 1, 31, 2400)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 2, 1, 0, 0, 0, 0, time.UTC), ts)
	assert.Equal(t, 0, ts.Hour())
	assert.Equal(t, 0, ts.Minute())
}

func TestCombineTimestampOutOfRange(t *testing.T) {
	cases := []struct {
		name                   string
		year, month, day, hhmm int
	}{
		{"hour 25", 2015, 1, 1, 2500},
		{"minute 75", 2015, 1, 1, 1275},
		{"negative", 2015, 1, 1, -30},
		{"month 13", 2015, 13, 1, 900},
		{"day 0", 2015, 1, 0, 900},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CombineTimestamp(tc.year, tc.month, tc.day, tc.hhmm)
			assert.Error(t, err)
		})
	}
}

// ---------------------------------------------------------------------------
// Cleaning
// ---------------------------------------------------------------------------

func TestCleanCombinesTimestamps(t *testing.T) {
	ds := NewDataset([]models.FlightRecord{rawRecord(15)})
	require.NoError(t, ds.Clean(Options{}))

	flights := ds.Flights()
	require.Len(t, flights, 1)
	assert.Equal(t, time.Date(2015, 1, 15, 9, 30, 0, 0, time.UTC), flights[0].ScheduledDeparture)
	assert.Equal(t, time.Date(2015, 1, 15, 12, 45, 0, 0, time.UTC), flights[0].ScheduledArrival)
	assert.Equal(t, 12, flights[0].DepartureDelay)
	assert.Zero(t, ds.Dropped())
}

func TestCleanDropsMissingFields(t *testing.T) {
	noDelay := rawRecord(2)
	noDelay.DepartureDelay = nil

	noSchedule := rawRecord(3)
	noSchedule.ScheduledArrival = nil

	cancelled := rawRecord(4)
	cancelled.Cancelled = true

	ds := NewDataset([]models.FlightRecord{rawRecord(1), noDelay, noSchedule, cancelled})
	require.NoError(t, ds.Clean(Options{}))

	assert.Len(t, ds.Flights(), 1)
	assert.Equal(t, 3, ds.Dropped())
}

func TestCleanMonthAndDayWindow(t *testing.T) {
	feb := rawRecord(5)
	feb.Month = 2

	ds := NewDataset([]models.FlightRecord{
		rawRecord(1), rawRecord(10), rawRecord(22), rawRecord(23), rawRecord(28), feb,
	})
	require.NoError(t, ds.Clean(Options{Month: 1, FromDay: 1, ToDay: 22}))

	flights := ds.Flights()
	require.Len(t, flights, 3)
	for _, f := range flights {
		assert.Equal(t, time.January, f.ScheduledDeparture.Month())
		assert.LessOrEqual(t, f.ScheduledDeparture.Day(), 22)
	}
}

func TestCleanRejectsSecondPass(t *testing.T) {
	ds := NewDataset([]models.FlightRecord{rawRecord(1)})
	require.NoError(t, ds.Clean(Options{}))
	require.True(t, ds.Cleaned())

	before := ds.Flights()
	err := ds.Clean(Options{})
	assert.ErrorIs(t, err, ErrAlreadyCleaned)
	assert.Equal(t, before, ds.Flights(), "rejected re-clean must not touch the output")
}

func TestCleanMalformedTimeAborts(t *testing.T) {
	bad := rawRecord(1)
	bad.ScheduledDeparture = intp(2460)

	ds := NewDataset([]models.FlightRecord{bad})
	err := ds.Clean(Options{})
	require.Error(t, err)
	assert.False(t, ds.Cleaned())
}
