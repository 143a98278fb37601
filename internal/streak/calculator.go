// Package streak derives streak counters from a habit's entry history.
// Entries are the source of truth; the stored counters on a habit are a
// display cache that must always match the values computed here.
package streak

import (
	"sort"
	"time"

	"github.com/julianstephens/stride/internal/dates"
	"github.com/julianstephens/stride/internal/models"
)

// maxScanDays bounds the backward walk so a corrupt or enormous history
// cannot stall the caller.
const maxScanDays = 1000

// CurrentStreak returns the count of consecutive successful calendar days
// ending at or adjacent to the day containing now.
//
// The walk starts at today and moves backward. Today without an entry is
// treated as not yet decided (the user still has the rest of the day to
// act) and is skipped without breaking the run; any earlier day without an
// entry is a miss and ends the streak.
func CurrentStreak(entries []models.HabitEntry, now time.Time) int {
	byDay := entriesByDay(entries)
	today := dates.DayOf(now)

	streak := 0
	cursor := now.Local()
	for i := 0; i < maxScanDays; i++ {
		day := dates.DayOf(cursor)
		entry, ok := byDay[day]
		if ok {
			if !entry.IsSuccessful() {
				break
			}
			streak++
		} else {
			if day != today {
				break
			}
			// Today is still undecided; keep walking without counting it.
		}
		cursor = cursor.AddDate(0, 0, -1)
	}

	return streak
}

// LongestStreak returns the longest run of consecutive successful days ever
// recorded, including the current open run.
func LongestStreak(entries []models.HabitEntry) int {
	sorted := make([]models.HabitEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Day < sorted[j].Day })

	longest := 0
	run := 0
	lastSuccess := ""
	for _, entry := range sorted {
		if !entry.IsSuccessful() {
			run = 0
			continue
		}
		if lastSuccess != "" {
			gap, err := dates.DaysBetween(lastSuccess, entry.Day)
			switch {
			case err != nil || gap > 1:
				run = 1
			case gap == 1:
				run++
			default:
				// Duplicate or out-of-order day; already counted.
			}
		} else {
			run = 1
		}
		lastSuccess = entry.Day
		if run > longest {
			longest = run
		}
	}

	return longest
}

// Validate reports whether the habit's stored counters match the values
// freshly derived from its entries.
func Validate(h models.Habit, entries []models.HabitEntry, now time.Time) bool {
	return h.Streak == CurrentStreak(entries, now) && h.LongestStreak == LongestStreak(entries)
}

// Repair overwrites the habit's stored counters with freshly derived
// values. LongestStreak never shrinks: a manual streak reset deliberately
// leaves it at its historical maximum.
func Repair(h *models.Habit, entries []models.HabitEntry, now time.Time) {
	h.Streak = CurrentStreak(entries, now)
	if longest := LongestStreak(entries); longest > h.LongestStreak {
		h.LongestStreak = longest
	}
	if h.LongestStreak < h.Streak {
		h.LongestStreak = h.Streak
	}
}

func entriesByDay(entries []models.HabitEntry) map[string]models.HabitEntry {
	byDay := make(map[string]models.HabitEntry, len(entries))
	for _, e := range entries {
		existing, ok := byDay[e.Day]
		// Two entries for one day should never happen; prefer the most
		// recently updated one so a later repair pass converges.
		if !ok || e.UpdatedAt.After(existing.UpdatedAt) {
			byDay[e.Day] = e
		}
	}
	return byDay
}
