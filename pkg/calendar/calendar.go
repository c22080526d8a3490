// Package calendar holds the date arithmetic used by billing plans. All
// results are in UTC.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

const (
	ISOLayout  = "2006-01-02"
	LongLayout = "January 2, 2006"
)

// ParseDate parses YYYY-MM-DD into UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(ISOLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return t, nil
}

// DateOnly truncates t to UTC midnight of its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays shifts t by n calendar days (n may be negative).
func AddDays(t time.Time, n int) time.Time {
	return t.UTC().AddDate(0, 0, n)
}

// StartOfMonth returns the first instant of t's month in UTC.
func StartOfMonth(t time.Time) time.Time {
	return now.With(t.UTC()).BeginningOfMonth()
}

// FirstOfNextMonth returns 00:00:01 UTC on the first day of the month after t.
func FirstOfNextMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(time.Second)
}

// MonthsBetweenInclusive counts billing months from `from` to `to`: the
// whole-month difference between their months, plus one when to's day of
// month is on or after from's. The result may be zero or negative.
func MonthsBetweenInclusive(from, to time.Time) int {
	f := StartOfMonth(from)
	t := StartOfMonth(to)
	months := (t.Year()-f.Year())*12 + int(t.Month()-f.Month())
	if to.UTC().Day() >= from.UTC().Day() {
		months++
	}
	return months
}

// FormatLong renders "September 5, 2025".
func FormatLong(t time.Time) string {
	return t.UTC().Format(LongLayout)
}

// FormatISO renders "2025-09-05".
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}
