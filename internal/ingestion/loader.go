// Package ingestion reads the three static tabular inputs (flight
// records, airport reference, airline reference) wholesale at start.
package ingestion

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/yash/delaymodel/internal/metrics"
	"github.com/yash/delaymodel/pkg/models"
)

// Column names of the flights table.
const (
	colYear               = "YEAR"
	colMonth              = "MONTH"
	colDay                = "DAY"
	colAirline            = "AIRLINE"
	colOrigin             = "ORIGIN_AIRPORT"
	colDestination        = "DESTINATION_AIRPORT"
	colScheduledDeparture = "SCHEDULED_DEPARTURE"
	colScheduledArrival   = "SCHEDULED_ARRIVAL"
	colDepartureDelay     = "DEPARTURE_DELAY"
	colArrivalDelay       = "ARRIVAL_DELAY"
	colCancelled          = "CANCELLED"
)

// Column names of the reference tables.
const (
	colIATACode    = "IATA_CODE"
	colAirportName = "AIRPORT"
	colCity        = "CITY"
	colState       = "STATE"
	colLatitude    = "LATITUDE"
	colLongitude   = "LONGITUDE"
	colAirlineName = "AIRLINE"
)

// ---------------------------------------------------------------------------
// Flights
// ---------------------------------------------------------------------------

// LoadFlights reads the flights table from a CSV file.
func LoadFlights(path string) ([]models.FlightRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open flights table: %w", err)
	}
	defer f.Close()

	records, err := ReadFlights(f)
	if err != nil {
		return nil, fmt.Errorf("read flights table %s: %w", path, err)
	}
	return records, nil
}

// ReadFlights parses flight records from CSV data. Nullable fields
// (schedule times, delays) become nil when the source cell is empty;
// a malformed value in any cell aborts the read.
func ReadFlights(r io.Reader) ([]models.FlightRecord, error) {
	df, err := readTable(r, colYear, colMonth, colDay, colAirline, colOrigin,
		colDestination, colScheduledDeparture, colScheduledArrival,
		colDepartureDelay, colArrivalDelay)
	if err != nil {
		return nil, err
	}

	year := df.Col(colYear)
	month := df.Col(colMonth)
	day := df.Col(colDay)
	airline := df.Col(colAirline)
	origin := df.Col(colOrigin)
	dest := df.Col(colDestination)
	schedDep := df.Col(colScheduledDeparture)
	schedArr := df.Col(colScheduledArrival)
	depDelay := df.Col(colDepartureDelay)
	arrDelay := df.Col(colArrivalDelay)

	// CANCELLED is optional; some extracts omit it.
	var cancelled series.Series
	hasCancelled := hasColumn(df, colCancelled)
	if hasCancelled {
		cancelled = df.Col(colCancelled)
	}

	records := make([]models.FlightRecord, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		rec := models.FlightRecord{
			Airline:     strings.TrimSpace(airline.Elem(i).String()),
			Origin:      strings.TrimSpace(origin.Elem(i).String()),
			Destination: strings.TrimSpace(dest.Elem(i).String()),
		}

		var err error
		if rec.Year, err = intCell(year, i); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", i, colYear, err)
		}
		if rec.Month, err = intCell(month, i); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", i, colMonth, err)
		}
		if rec.Day, err = intCell(day, i); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", i, colDay, err)
		}
		if rec.ScheduledDeparture, err = nullableIntCell(schedDep, i); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", i, colScheduledDeparture, err)
		}
		if rec.ScheduledArrival, err = nullableIntCell(schedArr, i); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", i, colScheduledArrival, err)
		}
		if rec.DepartureDelay, err = nullableIntCell(depDelay, i); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", i, colDepartureDelay, err)
		}
		if rec.ArrivalDelay, err = nullableIntCell(arrDelay, i); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", i, colArrivalDelay, err)
		}
		if hasCancelled {
			rec.Cancelled = strings.TrimSpace(cancelled.Elem(i).String()) == "1"
		}

		records = append(records, rec)
	}

	metrics.IngestFlightRows.Add(int64(len(records)))
	return records, nil
}

// ---------------------------------------------------------------------------
// Reference Tables
// ---------------------------------------------------------------------------

// LoadAirports reads the airport reference table from a CSV file.
func LoadAirports(path string) (map[string]models.Airport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open airports table: %w", err)
	}
	defer f.Close()

	airports, err := ReadAirports(f)
	if err != nil {
		return nil, fmt.Errorf("read airports table %s: %w", path, err)
	}
	return airports, nil
}

// ReadAirports parses the airport reference table, keyed by IATA code.
func ReadAirports(r io.Reader) (map[string]models.Airport, error) {
	df, err := readTable(r, colIATACode, colAirportName, colCity, colState,
		colLatitude, colLongitude)
	if err != nil {
		return nil, err
	}

	code := df.Col(colIATACode)
	name := df.Col(colAirportName)
	city := df.Col(colCity)
	state := df.Col(colState)
	lat := df.Col(colLatitude)
	lon := df.Col(colLongitude)

	airports := make(map[string]models.Airport, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		a := models.Airport{
			Code:  strings.TrimSpace(code.Elem(i).String()),
			Name:  name.Elem(i).String(),
			City:  city.Elem(i).String(),
			State: state.Elem(i).String(),
		}
		// Coordinates are occasionally blank in the reference data;
		// keep the row and leave them zero.
		if v, err := nullableFloatCell(lat, i); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", i, colLatitude, err)
		} else if v != nil {
			a.Latitude = *v
		}
		if v, err := nullableFloatCell(lon, i); err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", i, colLongitude, err)
		} else if v != nil {
			a.Longitude = *v
		}

		airports[a.Code] = a
	}

	metrics.IngestAirportRows.Add(int64(len(airports)))
	return airports, nil
}

// LoadAirlines reads the airline reference table from a CSV file.
func LoadAirlines(path string) (map[string]models.Airline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open airlines table: %w", err)
	}
	defer f.Close()

	airlines, err := ReadAirlines(f)
	if err != nil {
		return nil, fmt.Errorf("read airlines table %s: %w", path, err)
	}
	return airlines, nil
}

// ReadAirlines parses the airline reference table, keyed by IATA code.
func ReadAirlines(r io.Reader) (map[string]models.Airline, error) {
	df, err := readTable(r, colIATACode, colAirlineName)
	if err != nil {
		return nil, err
	}

	code := df.Col(colIATACode)
	name := df.Col(colAirlineName)

	airlines := make(map[string]models.Airline, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		a := models.Airline{
			Code: strings.TrimSpace(code.Elem(i).String()),
			Name: name.Elem(i).String(),
		}
		airlines[a.Code] = a
	}

	metrics.IngestAirlineRows.Add(int64(len(airlines)))
	return airlines, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// readTable loads CSV data into a string-typed DataFrame and verifies
// the required columns are present. Keeping every column as a string
// avoids gota's type sniffing stripping leading zeros from HHMM values.
func readTable(r io.Reader, required ...string) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DefaultType(series.String),
		dataframe.DetectTypes(false),
	)
	if df.Error() != nil {
		return df, fmt.Errorf("parse csv: %w", df.Error())
	}

	for _, col := range required {
		if !hasColumn(df, col) {
			return df, fmt.Errorf("missing required column %q", col)
		}
	}
	return df, nil
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func intCell(s series.Series, i int) (int, error) {
	el := s.Elem(i)
	str := strings.TrimSpace(el.String())
	if el.IsNA() || str == "" {
		return 0, fmt.Errorf("required value is empty")
	}
	v, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", str)
	}
	return v, nil
}

func nullableIntCell(s series.Series, i int) (*int, error) {
	el := s.Elem(i)
	str := strings.TrimSpace(el.String())
	if el.IsNA() || str == "" || str == "NA" {
		return nil, nil
	}
	v, err := strconv.Atoi(str)
	if err != nil {
		return nil, fmt.Errorf("not an integer: %q", str)
	}
	return &v, nil
}

func nullableFloatCell(s series.Series, i int) (*float64, error) {
	el := s.Elem(i)
	str := strings.TrimSpace(el.String())
	if el.IsNA() || str == "" || str == "NA" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", str)
	}
	return &v, nil
}
