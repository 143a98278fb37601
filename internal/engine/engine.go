// Package engine owns all mutation of habits and their entries. Every
// public operation reads current state, applies one rule, upserts the
// day's entry, recomputes streak counters from history, and persists the
// result as a single commit. Counters are never hand-incremented.
package engine

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/julianstephens/stride/internal/dates"
	"github.com/julianstephens/stride/internal/metrics"
	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/storage"
	"github.com/julianstephens/stride/internal/streak"
)

const (
	minNameLen = 1
	maxNameLen = 50
)

// Engine serializes all mutation per habit: concurrent reconciliation and
// user actions on the same habit take the same lock, so partial updates
// never interleave. Reads for display go straight to the store.
type Engine struct {
	store storage.Provider
	clock Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store storage.Provider, clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock()
	}
	return &Engine{
		store: store,
		clock: clock,
		locks: make(map[string]*sync.Mutex),
	}
}

// Today returns the engine's current calendar day.
func (g *Engine) Today() string {
	return dates.DayOf(g.clock.Now())
}

// Store exposes the underlying provider for read-only display paths.
func (g *Engine) Store() storage.Provider {
	return g.store
}

func (g *Engine) lockFor(habitID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.locks[habitID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[habitID] = l
	}
	return l
}

// NewHabit describes a habit to create.
type NewHabit struct {
	Name         string
	Type         models.HabitType
	QuitType     models.QuitHabitType
	GoalTarget   float64
	GoalUnit     models.GoalUnit
	TrackingMode models.TrackingMode
	MetricKind   string
}

// validName trims and validates a habit name, enforcing case-insensitive
// uniqueness. selfID excludes the habit being renamed from the check.
func (g *Engine) validName(raw, selfID string) (string, error) {
	name := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
		return "", validationf("habit name must be %d-%d characters", minNameLen, maxNameLen)
	}

	existing, err := g.store.GetAllHabits()
	if err != nil {
		return "", persistErr("list habits", err)
	}
	for _, h := range existing {
		if h.ID != selfID && strings.EqualFold(h.Name, name) {
			return "", validationf("a habit named %q already exists", h.Name)
		}
	}

	return name, nil
}

// CreateHabit validates and persists a new habit.
func (g *Engine) CreateHabit(spec NewHabit) (models.Habit, error) {
	name, err := g.validName(spec.Name, "")
	if err != nil {
		return models.Habit{}, err
	}

	if spec.GoalUnit == "" {
		spec.GoalUnit = models.UnitNone
	}
	switch spec.Type {
	case models.HabitTypeBuild:
		if spec.QuitType != models.QuitTypeNone {
			return models.Habit{}, validationf("quit type only applies to quit habits")
		}
	case models.HabitTypeQuit:
		if spec.QuitType != models.QuitTypeAbstinence && spec.QuitType != models.QuitTypeLimit {
			return models.Habit{}, validationf("quit habits need a quit type (abstinence or limit)")
		}
		if spec.QuitType == models.QuitTypeAbstinence && spec.GoalUnit != models.UnitNone {
			return models.Habit{}, validationf("abstinence habits have no goal unit")
		}
	default:
		return models.Habit{}, validationf("unknown habit type %q", spec.Type)
	}

	if spec.GoalUnit != models.UnitNone && spec.GoalTarget <= 0 {
		return models.Habit{}, validationf("goal target must be positive")
	}
	if spec.TrackingMode == "" {
		spec.TrackingMode = models.TrackingManual
	}

	now := g.clock.Now()
	habit := models.Habit{
		ID:           uuid.NewString(),
		Name:         name,
		Type:         spec.Type,
		QuitType:     spec.QuitType,
		GoalTarget:   spec.GoalTarget,
		GoalUnit:     spec.GoalUnit,
		TrackingMode: spec.TrackingMode,
		MetricKind:   spec.MetricKind,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if habit.TrackingMode == models.TrackingAutomatic {
		if _, ok := metrics.KindForHabit(habit); !ok {
			return models.Habit{}, validationf("no metric source maps to a %s goal; use manual tracking", habit.GoalUnit)
		}
	}

	if err := g.store.AddHabit(habit); err != nil {
		return models.Habit{}, persistErr("add habit", err)
	}

	return habit, nil
}

// RenameHabit changes a habit's name under the same rules as creation.
// Renaming a habit to a cased variant of its own name is allowed.
func (g *Engine) RenameHabit(habitID, newName string) (models.Habit, error) {
	lock := g.lockFor(habitID)
	lock.Lock()
	defer lock.Unlock()

	habit, err := g.store.GetHabit(habitID)
	if err != nil {
		return models.Habit{}, fmt.Errorf("load habit: %w", err)
	}

	name, err := g.validName(newName, habit.ID)
	if err != nil {
		return models.Habit{}, err
	}

	habit.Name = name
	habit.UpdatedAt = g.clock.Now()
	if err := g.store.UpdateHabit(habit); err != nil {
		return models.Habit{}, persistErr("update habit", err)
	}

	return habit, nil
}

// DeleteHabit soft-deletes a habit; its entries stay in place.
func (g *Engine) DeleteHabit(habitID string) error {
	lock := g.lockFor(habitID)
	lock.Lock()
	defer lock.Unlock()

	if err := g.store.DeleteHabit(habitID); err != nil {
		return persistErr("delete habit", err)
	}
	return nil
}

// RecordCompletion marks a build habit done for the given day. Goal-based
// habits may be completed explicitly regardless of recorded progress; the
// entry succeeds via its completion flag. Already-successful days are a
// silent no-op.
func (g *Engine) RecordCompletion(habitID, day string) (models.Habit, error) {
	if !dates.IsValid(day) {
		return models.Habit{}, validationf("invalid day %q", day)
	}

	lock := g.lockFor(habitID)
	lock.Lock()
	defer lock.Unlock()

	habit, entries, err := g.loadState(habitID)
	if err != nil {
		return models.Habit{}, err
	}

	if habit.Type != models.HabitTypeBuild {
		return models.Habit{}, validationf("record completion applies to build habits; use the quit commands")
	}

	if e, ok := entryFor(entries, day); ok && e.IsSuccessful() {
		return habit, nil
	}

	entries, entry := g.upsertDay(&habit, entries, day, func(e *models.HabitEntry) {
		e.IsCompleted = true
	})
	g.markSuccess(&habit, day)

	return g.finalize(habit, entries, entry)
}

// AddProgress adds amount to a goal-based habit's running total for the
// day. Progress may exceed the target; crossing it on a build habit marks
// the day complete.
func (g *Engine) AddProgress(habitID string, amount float64, day string) (models.Habit, error) {
	return g.applyProgress(habitID, day, func(current float64) float64 {
		return current + amount
	})
}

// SetProgress replaces the habit's running total for the day, used when an
// external source reports a day total rather than a delta.
func (g *Engine) SetProgress(habitID string, value float64, day string) (models.Habit, error) {
	return g.applyProgress(habitID, day, func(float64) float64 {
		return value
	})
}

func (g *Engine) applyProgress(habitID, day string, update func(current float64) float64) (models.Habit, error) {
	if !dates.IsValid(day) {
		return models.Habit{}, validationf("invalid day %q", day)
	}

	lock := g.lockFor(habitID)
	lock.Lock()
	defer lock.Unlock()

	habit, entries, err := g.loadState(habitID)
	if err != nil {
		return models.Habit{}, err
	}

	goalBuild := habit.Type == models.HabitTypeBuild && habit.IsGoalBased()
	quitLimit := habit.Type == models.HabitTypeQuit && habit.QuitType == models.QuitTypeLimit
	if !goalBuild && !quitLimit {
		return models.Habit{}, validationf("progress applies to goal-based build habits and quit-limit habits")
	}

	var touched []models.HabitEntry
	today := g.Today()

	if day == today {
		// Live progress that accumulated under a previous day must be
		// archived into that day's entry before the total restarts,
		// never silently dropped.
		if archived, rest := g.archiveStaleProgress(&habit, entries, day); archived != nil {
			entries = rest
			touched = append(touched, *archived)
		}

		habit.CurrentProgress = update(habit.CurrentProgress)
		if habit.CurrentProgress < 0 {
			habit.CurrentProgress = 0
		}
	}

	var entry models.HabitEntry
	entries, entry = g.upsertDay(&habit, entries, day, func(e *models.HabitEntry) {
		if day == today {
			e.Progress = habit.CurrentProgress
		} else {
			// Backdated progress belongs to its own day and must not
			// disturb today's live total.
			e.Progress = update(e.Progress)
			if e.Progress < 0 {
				e.Progress = 0
			}
		}
	})

	if goalBuild && entry.Progress >= entry.Target && !entry.IsCompleted {
		entries, entry = g.upsertDay(&habit, entries, day, func(e *models.HabitEntry) {
			e.IsCompleted = true
		})
		g.markSuccess(&habit, day)
	}
	touched = append(touched, entry)

	return g.finalize(habit, entries, touched...)
}

// RecordQuitSuccess marks a quit habit's day as an explicit success.
// Abstinence habits require zero recorded activity; limit habits require
// the day's total at or under the limit.
func (g *Engine) RecordQuitSuccess(habitID, day string) (models.Habit, error) {
	if !dates.IsValid(day) {
		return models.Habit{}, validationf("invalid day %q", day)
	}

	lock := g.lockFor(habitID)
	lock.Lock()
	defer lock.Unlock()

	habit, entries, err := g.loadState(habitID)
	if err != nil {
		return models.Habit{}, err
	}

	if habit.Type != models.HabitTypeQuit {
		return models.Habit{}, validationf("quit success applies to quit habits")
	}

	existing, hasEntry := entryFor(entries, day)
	if hasEntry && existing.IsCompleted {
		return habit, nil
	}

	progress := existing.Progress
	if day == g.Today() {
		progress = habit.CurrentProgress
	}

	switch habit.QuitType {
	case models.QuitTypeAbstinence:
		if progress != 0 {
			return models.Habit{}, validationf("activity was recorded for %s; record a failure instead", day)
		}
	case models.QuitTypeLimit:
		if progress > habit.GoalTarget {
			return models.Habit{}, validationf("still over limit: %.4g recorded against a limit of %.4g", progress, habit.GoalTarget)
		}
	}

	var entry models.HabitEntry
	entries, entry = g.upsertDay(&habit, entries, day, func(e *models.HabitEntry) {
		e.Progress = progress
		e.IsCompleted = true
	})
	g.markSuccess(&habit, day)

	return g.finalize(habit, entries, entry)
}

// RecordFailure marks a quit habit's day as broken. A day already marked
// successful is never overwritten by a later failure report.
func (g *Engine) RecordFailure(habitID, day string) (models.Habit, error) {
	if !dates.IsValid(day) {
		return models.Habit{}, validationf("invalid day %q", day)
	}

	lock := g.lockFor(habitID)
	lock.Lock()
	defer lock.Unlock()

	habit, entries, err := g.loadState(habitID)
	if err != nil {
		return models.Habit{}, err
	}

	if habit.Type != models.HabitTypeQuit {
		return models.Habit{}, validationf("record failure applies to quit habits")
	}

	if e, ok := entryFor(entries, day); ok && e.IsCompleted {
		return models.Habit{}, validationf("%s is already marked successful and cannot be overwritten by a failure", day)
	}

	today := g.Today()
	var entry models.HabitEntry
	entries, entry = g.upsertDay(&habit, entries, day, func(e *models.HabitEntry) {
		if day == today && habit.CurrentProgress > e.Progress {
			e.Progress = habit.CurrentProgress
		}
		if habit.QuitType == models.QuitTypeLimit && e.Progress <= habit.GoalTarget {
			// Force the total just over the limit so the day reads as a
			// break even when the reported amount was vague.
			e.Progress = habit.GoalTarget + 1
		}
		e.IsCompleted = false
	})

	if day == today {
		habit.IsCompleted = false
		if habit.QuitType == models.QuitTypeLimit && habit.CurrentProgress < entry.Progress {
			habit.CurrentProgress = entry.Progress
		}
	}
	// LastCompletionDate is only ever advanced by successes.

	return g.finalize(habit, entries, entry)
}

// ResetStreak is the explicit user "start over" action: it zeroes the live
// counter and daily state without recomputing from history, and never
// touches the longest streak. The stored streak may disagree with history
// until the next mutation or repair pass; that drift is deliberate.
func (g *Engine) ResetStreak(habitID string) (models.Habit, error) {
	lock := g.lockFor(habitID)
	lock.Lock()
	defer lock.Unlock()

	habit, err := g.store.GetHabit(habitID)
	if err != nil {
		return models.Habit{}, fmt.Errorf("load habit: %w", err)
	}

	habit.Streak = 0
	habit.CurrentProgress = 0
	habit.IsCompleted = false
	habit.LastCompletionDate = ""
	habit.UpdatedAt = g.clock.Now()

	if err := g.store.UpdateHabit(habit); err != nil {
		return models.Habit{}, persistErr("update habit", err)
	}

	return habit, nil
}

// ReconcileForDate resynchronizes a habit's live state after the current
// day changed, in either direction. Unflushed progress is archived to the
// day it belongs to, then live state is rebuilt from the new day's entry so
// backward travel re-shows history instead of fabricating a fresh day.
func (g *Engine) ReconcileForDate(habitID, newDay string) (models.Habit, error) {
	if !dates.IsValid(newDay) {
		return models.Habit{}, validationf("invalid day %q", newDay)
	}

	lock := g.lockFor(habitID)
	lock.Lock()
	defer lock.Unlock()

	habit, entries, err := g.loadState(habitID)
	if err != nil {
		return models.Habit{}, err
	}

	var touched []models.HabitEntry
	if archived, rest := g.archiveStaleProgress(&habit, entries, newDay); archived != nil {
		entries = rest
		touched = append(touched, *archived)
	}

	if e, ok := entryFor(entries, newDay); ok {
		habit.CurrentProgress = e.Progress
		habit.IsCompleted = e.IsSuccessful()
	} else {
		habit.CurrentProgress = 0
		habit.IsCompleted = false
	}

	now, err := noonOf(newDay)
	if err != nil {
		return models.Habit{}, err
	}
	streak.Repair(&habit, entries, now)
	habit.UpdatedAt = g.clock.Now()

	if err := g.store.SaveHabitState(habit, touched); err != nil {
		return models.Habit{}, persistErr("save habit state", err)
	}

	return habit, nil
}

// HabitError pairs a habit with the error its reconciliation or sync
// produced.
type HabitError struct {
	HabitID string
	Name    string
	Err     error
}

// ReconcileAllForDate runs ReconcileForDate over every habit, collecting
// per-habit failures without aborting the pass.
func (g *Engine) ReconcileAllForDate(newDay string) ([]HabitError, error) {
	habits, err := g.store.GetAllHabits()
	if err != nil {
		return nil, persistErr("list habits", err)
	}

	var failed []HabitError
	for _, h := range habits {
		if _, err := g.ReconcileForDate(h.ID, newDay); err != nil {
			failed = append(failed, HabitError{HabitID: h.ID, Name: h.Name, Err: err})
		}
	}
	return failed, nil
}

// EnsureCurrentDay reconciles every habit when the calendar day has
// changed since the last run (midnight passed, or a debug jump), and
// records the day it settled on.
func (g *Engine) EnsureCurrentDay() (string, []HabitError, error) {
	settings, err := g.store.GetSettings()
	if err != nil {
		return "", nil, persistErr("load settings", err)
	}

	today := g.Today()
	if settings.LastSeenDay == today {
		return today, nil, nil
	}

	failed, err := g.ReconcileAllForDate(today)
	if err != nil {
		return today, failed, err
	}

	settings.LastSeenDay = today
	if err := g.store.SaveSettings(settings); err != nil {
		return today, failed, persistErr("save settings", err)
	}

	return today, failed, nil
}

// IncompleteHabits returns the habits whose day is not yet successful as
// of the given calendar day, sorted by name.
func (g *Engine) IncompleteHabits(asOf string) ([]models.Habit, error) {
	habits, err := g.store.GetAllHabits()
	if err != nil {
		return nil, persistErr("list habits", err)
	}

	var incomplete []models.Habit
	for _, h := range habits {
		e, err := g.store.GetEntry(h.ID, asOf)
		if err == nil && e.IsSuccessful() {
			continue
		}
		incomplete = append(incomplete, h)
	}
	return incomplete, nil
}

// --- internal helpers ---

func (g *Engine) loadState(habitID string) (models.Habit, []models.HabitEntry, error) {
	habit, err := g.store.GetHabit(habitID)
	if err != nil {
		return models.Habit{}, nil, fmt.Errorf("load habit: %w", err)
	}
	entries, err := g.store.GetEntries(habitID)
	if err != nil {
		return models.Habit{}, nil, persistErr("load entries", err)
	}
	return habit, entries, nil
}

func entryFor(entries []models.HabitEntry, day string) (models.HabitEntry, bool) {
	for _, e := range entries {
		if e.Day == day {
			return e, true
		}
	}
	return models.HabitEntry{}, false
}

// upsertDay applies mutate to the habit's entry for day, creating it with
// the habit's current goal parameters frozen in if it does not exist yet.
// It returns the updated slice and the resulting entry.
func (g *Engine) upsertDay(habit *models.Habit, entries []models.HabitEntry, day string, mutate func(*models.HabitEntry)) ([]models.HabitEntry, models.HabitEntry) {
	now := g.clock.Now()
	for i := range entries {
		if entries[i].Day == day {
			mutate(&entries[i])
			entries[i].UpdatedAt = now
			return entries, entries[i]
		}
	}

	entry := models.HabitEntry{
		ID:        uuid.NewString(),
		HabitID:   habit.ID,
		Day:       day,
		Target:    habit.GoalTarget,
		Unit:      habit.GoalUnit,
		Type:      habit.Type,
		QuitType:  habit.QuitType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	mutate(&entry)
	return append(entries, entry), entry
}

// markSuccess records a successful day on the habit's live state.
func (g *Engine) markSuccess(habit *models.Habit, day string) {
	if habit.LastCompletionDate == "" || day > habit.LastCompletionDate {
		habit.LastCompletionDate = day
	}
	if day == g.Today() {
		habit.IsCompleted = true
	}
}

// archiveStaleProgress flushes live progress that belongs to an earlier
// day into that day's entry before live state is reused for newDay. The
// progress day is LastCompletionDate when known, otherwise a best-effort
// "yesterday" guess. Returns the archived entry (nil when nothing needed
// archiving) and the updated slice.
func (g *Engine) archiveStaleProgress(habit *models.Habit, entries []models.HabitEntry, newDay string) (*models.HabitEntry, []models.HabitEntry) {
	if habit.CurrentProgress <= 0 || habit.LastCompletionDate == newDay {
		return nil, entries
	}

	// If the new day's own entry already carries this progress the live
	// total belongs to newDay (backward travel); nothing is stale.
	if e, ok := entryFor(entries, newDay); ok && e.Progress == habit.CurrentProgress {
		return nil, entries
	}

	target := habit.LastCompletionDate
	if target == "" {
		guess, err := dates.AddDays(newDay, -1)
		if err != nil {
			return nil, entries
		}
		target = guess
	}
	if target == newDay {
		return nil, entries
	}

	stale := habit.CurrentProgress
	var archived models.HabitEntry
	entries, archived = g.upsertDay(habit, entries, target, func(e *models.HabitEntry) {
		if stale > e.Progress {
			e.Progress = stale
		}
	})

	habit.CurrentProgress = 0
	habit.IsCompleted = false

	return &archived, entries
}

// finalize is the single recompute chokepoint: every mutation path funnels
// through it so stored counters can never drift from history.
func (g *Engine) finalize(habit models.Habit, entries []models.HabitEntry, touched ...models.HabitEntry) (models.Habit, error) {
	streak.Repair(&habit, entries, g.clock.Now())
	habit.UpdatedAt = g.clock.Now()

	if err := g.store.SaveHabitState(habit, touched); err != nil {
		return habit, persistErr("save habit state", err)
	}

	return habit, nil
}
