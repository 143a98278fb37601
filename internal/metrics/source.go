// Package metrics defines the contract with the external metric source
// that feeds automatically-tracked habits, plus the mapping from a habit to
// the metric kind backing it.
package metrics

import (
	"context"
	"errors"
	"strings"

	"github.com/julianstephens/stride/internal/models"
)

// Kind identifies a metric the external source can supply for a calendar
// day.
type Kind string

const (
	KindSteps           Kind = "steps"
	KindExerciseMinutes Kind = "exercise_minutes"
	KindMindfulMinutes  Kind = "mindful_minutes"
	KindWaterLiters     Kind = "water_liters"
)

var (
	// ErrUnavailable means the source cannot be reached at all.
	ErrUnavailable = errors.New("metric source unavailable")
	// ErrUnauthorized means the source refused access to the metric.
	ErrUnauthorized = errors.New("metric source unauthorized")
	// ErrNotFound means the source has no value for the requested day.
	ErrNotFound = errors.New("no metric value for day")
)

// Source supplies a numeric value for a metric kind on a calendar day.
// Implementations may block on I/O; callers bound them with the context.
type Source interface {
	FetchMetric(ctx context.Context, kind Kind, day string) (float64, error)
}

// KindForHabit resolves the metric kind backing a habit. The explicit
// MetricKind field wins; habits persisted before that field existed fall
// back to keyword matching on the habit name (the historical behavior,
// kept so old data keeps syncing).
func KindForHabit(h models.Habit) (Kind, bool) {
	if h.MetricKind != "" {
		return Kind(h.MetricKind), true
	}

	switch h.GoalUnit {
	case models.UnitSteps:
		return KindSteps, true
	case models.UnitMinutes, models.UnitHours:
		name := strings.ToLower(h.Name)
		if strings.Contains(name, "meditat") || strings.Contains(name, "mindful") {
			return KindMindfulMinutes, true
		}
		return KindExerciseMinutes, true
	case models.UnitLiters, models.UnitGlasses:
		return KindWaterLiters, true
	default:
		return "", false
	}
}

// ConvertValue translates a raw source value into the habit's goal unit.
// Sources report minutes and liters; hour and glass goals need scaling.
func ConvertValue(unit models.GoalUnit, kind Kind, value float64) float64 {
	switch {
	case unit == models.UnitHours && (kind == KindExerciseMinutes || kind == KindMindfulMinutes):
		return value / 60
	case unit == models.UnitGlasses && kind == KindWaterLiters:
		// A glass is treated as 250ml.
		return value / 0.25
	default:
		return value
	}
}
