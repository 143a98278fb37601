package storage

import (
	"errors"
	"time"

	"github.com/julianstephens/stride/internal/models"
)

func nowUTC() time.Time {
	return time.Now().UTC()
}

// ErrNotFound is returned when a habit or entry does not exist (or has been
// soft-deleted).
var ErrNotFound = errors.New("not found")

// Settings holds small pieces of engine state that must survive across
// process runs.
type Settings struct {
	// LastSeenDay is the calendar day the engine last reconciled for.
	LastSeenDay string `json:"last_seen_day"`
	// DateOverride pins the engine's current day for debugging. Empty means
	// the real clock is authoritative.
	DateOverride string `json:"date_override,omitempty"`
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (Settings, error)
	SaveSettings(Settings) error

	// Habits
	AddHabit(models.Habit) error
	GetHabit(id string) (models.Habit, error)
	GetAllHabits() ([]models.Habit, error)
	UpdateHabit(models.Habit) error
	DeleteHabit(id string) error

	// Entries
	UpsertEntry(models.HabitEntry) error
	GetEntry(habitID, day string) (models.HabitEntry, error)
	GetEntries(habitID string) ([]models.HabitEntry, error)
	DeleteEntry(habitID, day string) error

	// SaveHabitState persists a habit and its touched entries as one
	// atomic commit; either everything lands durably or nothing does.
	SaveHabitState(models.Habit, []models.HabitEntry) error

	// Utils
	GetConfigPath() string
}
