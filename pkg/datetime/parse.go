// Package datetime provides date and time utility functions.
package datetime

import (
	"time"

	"github.com/iwvelando/financing-wizard/pkg/constants"
)

const (
	// DateLayout is the pt-BR calendar date printed on documents.
	DateLayout = constants.DateLayout

	// DateTimeLayout is the pt-BR timestamp shown in listings.
	DateTimeLayout = constants.DateTimeLayout
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

// FormatDate renders t as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatDateTime renders t as dd/mm/yyyy hh:mm.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// OffsetMonths moves t by the given number of months, clamping to the last
// day of the target month instead of overflowing into the next one.
func OffsetMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, months, 0)
	if last := daysIn(target); day > last {
		day = last
	}
	return target.AddDate(0, 0, day-1)
}

// DueDate returns the due date of installment number n (1-based) for a
// contract signed on start.
func DueDate(start time.Time, n int) time.Time {
	return OffsetMonths(start, n)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
