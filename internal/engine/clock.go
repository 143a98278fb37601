package engine

import (
	"time"

	"github.com/julianstephens/stride/internal/dates"
)

// Clock supplies the engine's notion of "now". Injecting it keeps every
// date-dependent rule testable and lets a debug override travel time in
// either direction; the engine never assumes monotonic time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns a Clock backed by the real wall clock.
func SystemClock() Clock {
	return systemClock{}
}

// FixedClock pins Now to a single instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}

// ClockForDay returns a clock pinned to local noon of the given day. Noon
// keeps the pinned instant well inside the day across DST shifts.
func ClockForDay(day string) (Clock, error) {
	t, err := noonOf(day)
	if err != nil {
		return nil, err
	}
	return FixedClock{T: t}, nil
}

func noonOf(day string) (time.Time, error) {
	t, err := dates.Parse(day)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(12 * time.Hour), nil
}
