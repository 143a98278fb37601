// Package dates provides calendar-day helpers. Days are carried as
// YYYY-MM-DD strings resolved in the host's local time zone, independent
// of the instant within the day.
package dates

import (
	"fmt"
	"time"
)

// Layout is the canonical calendar-day format.
const Layout = "2006-01-02"

// DayOf returns the local calendar day containing t.
func DayOf(t time.Time) string {
	return t.Local().Format(Layout)
}

// Parse returns local midnight of the given day.
func Parse(day string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, day, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", day, err)
	}
	return t, nil
}

// IsValid reports whether day is a well-formed YYYY-MM-DD date.
func IsValid(day string) bool {
	_, err := Parse(day)
	return err == nil
}

// AddDays returns the day n calendar days after day (n may be negative).
func AddDays(day string, n int) (string, error) {
	t, err := Parse(day)
	if err != nil {
		return "", err
	}
	return DayOf(t.AddDate(0, 0, n)), nil
}

// DaysBetween returns the signed number of whole calendar days from a to b.
// A positive result means b is after a.
func DaysBetween(a, b string) (int, error) {
	ta, err := Parse(a)
	if err != nil {
		return 0, err
	}
	tb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	// Round rather than truncate so DST transitions (23h/25h days) still
	// count as one calendar day.
	return int(tb.Sub(ta).Round(24 * time.Hour).Hours() / 24), nil
}

// EndOfDay returns the first instant after the given local day.
func EndOfDay(day string) (time.Time, error) {
	t, err := Parse(day)
	if err != nil {
		return time.Time{}, err
	}
	return t.AddDate(0, 0, 1), nil
}
