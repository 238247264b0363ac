// Package datetime provides date utility functions for measurement dates.
package datetime

import (
	"time"

	"github.com/iwvelando/opeb-rollforward/pkg/constants"
)

const (
	// DateLayout is the measurement date format expected in config files and
	// is also the output date format.
	DateLayout = constants.DateLayout
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseMeasurementDate parses a measurement date in YYYY-MM-DD format.
func ParseMeasurementDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}

// DateBeforeDate returns true if firstDate is strictly before secondDate.
func DateBeforeDate(firstDate string, secondDate string) (bool, error) {
	firstDateT, err := time.Parse(DateLayout, firstDate)
	if err != nil {
		return false, err
	}
	secondDateT, err := time.Parse(DateLayout, secondDate)
	if err != nil {
		return false, err
	}
	return firstDateT.Before(secondDateT), nil
}

// MeasurementYear returns the calendar year of a measurement date.
func MeasurementYear(date string) (int, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, err
	}
	return t.Year(), nil
}

// OffsetYears returns the string-formatted date offset by the given number of
// years relative to the given date.
func OffsetYears(date string, years int) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(years, 0, 0).Format(DateLayout), nil
}
