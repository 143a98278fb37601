package engine

import (
	"fmt"

	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/streak"
)

// RepairReport describes what a repair pass found for one habit.
type RepairReport struct {
	HabitID           string
	Name              string
	DuplicatesRemoved int
	Drift             bool
	OldStreak         int
	NewStreak         int
	OldLongest        int
	NewLongest        int
}

// Changed reports whether the pass had anything to fix.
func (r RepairReport) Changed() bool {
	return r.Drift || r.DuplicatesRemoved > 0
}

// CheckHabit inspects one habit for invariant violations without fixing
// anything. Counter drift is reported through the report alone; duplicate
// day entries additionally surface as an InvariantViolationError, with the
// report still filled in so callers can describe the damage.
func (g *Engine) CheckHabit(habitID string) (RepairReport, error) {
	lock := g.lockFor(habitID)
	lock.Lock()
	defer lock.Unlock()

	habit, entries, err := g.loadState(habitID)
	if err != nil {
		return RepairReport{}, err
	}

	report := RepairReport{
		HabitID:    habit.ID,
		Name:       habit.Name,
		OldStreak:  habit.Streak,
		OldLongest: habit.LongestStreak,
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.Day] {
			report.DuplicatesRemoved++
		}
		seen[e.Day] = true
	}

	now := g.clock.Now()
	report.NewStreak = streak.CurrentStreak(entries, now)
	report.NewLongest = streak.LongestStreak(entries)
	report.Drift = !streak.Validate(habit, entries, now)

	if report.DuplicatesRemoved > 0 {
		return report, &InvariantViolationError{
			HabitID: habit.ID,
			Reason:  fmt.Sprintf("%d duplicate day entries", report.DuplicatesRemoved),
		}
	}

	return report, nil
}

// RepairHabit heals a habit: duplicate-day entries are collapsed to the
// most recently written one, and streak counters are recomputed from the
// surviving history. Run at startup and whenever drift is detected.
func (g *Engine) RepairHabit(habitID string) (RepairReport, error) {
	lock := g.lockFor(habitID)
	lock.Lock()
	defer lock.Unlock()

	habit, entries, err := g.loadState(habitID)
	if err != nil {
		return RepairReport{}, err
	}

	report := RepairReport{
		HabitID:    habit.ID,
		Name:       habit.Name,
		OldStreak:  habit.Streak,
		OldLongest: habit.LongestStreak,
	}

	// Collapse duplicate days to the most recently updated entry.
	byDay := make(map[string]models.HabitEntry, len(entries))
	for _, e := range entries {
		existing, ok := byDay[e.Day]
		if !ok {
			byDay[e.Day] = e
			continue
		}
		report.DuplicatesRemoved++
		keep, drop := existing, e
		if e.UpdatedAt.After(existing.UpdatedAt) {
			keep, drop = e, existing
		}
		byDay[keep.Day] = keep
		if drop.ID != keep.ID {
			if err := g.store.DeleteEntry(drop.HabitID, drop.Day); err != nil {
				return report, persistErr("delete duplicate entry", err)
			}
			// Re-persist the survivor; the keyed delete may have removed
			// both rows.
			if err := g.store.UpsertEntry(keep); err != nil {
				return report, persistErr("restore entry", err)
			}
		}
	}

	survivors := make([]models.HabitEntry, 0, len(byDay))
	for _, e := range byDay {
		survivors = append(survivors, e)
	}

	now := g.clock.Now()
	report.Drift = !streak.Validate(habit, survivors, now)
	streak.Repair(&habit, survivors, now)
	report.NewStreak = habit.Streak
	report.NewLongest = habit.LongestStreak

	if report.Changed() {
		habit.UpdatedAt = now
		if err := g.store.UpdateHabit(habit); err != nil {
			return report, persistErr("update habit", err)
		}
	}

	return report, nil
}

// RepairAll runs RepairHabit over every habit, collecting reports. Used by
// the startup validation pass and the doctor command.
func (g *Engine) RepairAll() ([]RepairReport, error) {
	habits, err := g.store.GetAllHabits()
	if err != nil {
		return nil, persistErr("list habits", err)
	}

	var reports []RepairReport
	for _, h := range habits {
		report, err := g.RepairHabit(h.ID)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}
