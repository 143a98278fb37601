// Package reminder keeps the daily "still to do" notification in sync with
// habit state without thrashing the notifier: a snapshot of the
// incomplete-habit set and the calendar day is hashed, and delivery only
// happens when that hash changes.
package reminder

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/julianstephens/stride/internal/models"
)

// Notifier delivers a reminder to the user. Delivery failures are
// reported but never block habit tracking.
type Notifier interface {
	Notify(text string) error
}

// snapshot is the debounce key: reminders reschedule only when the set of
// incomplete habit ids or the day changes.
type snapshot struct {
	Day      string
	HabitIDs []string
}

type Scheduler struct {
	notifier Notifier

	mu       sync.Mutex
	lastHash uint64
}

func New(notifier Notifier) *Scheduler {
	return &Scheduler{notifier: notifier}
}

// Refresh recomputes the reminder for the given day and incomplete habit
// set. It reports whether anything was (re)scheduled; an unchanged
// snapshot is skipped entirely.
func (s *Scheduler) Refresh(day string, incomplete []models.Habit) (bool, error) {
	ids := make([]string, 0, len(incomplete))
	for _, h := range incomplete {
		ids = append(ids, h.ID)
	}
	sort.Strings(ids)

	hash, err := hashstructure.Hash(snapshot{Day: day, HabitIDs: ids}, hashstructure.FormatV2, nil)
	if err != nil {
		return false, fmt.Errorf("hash reminder snapshot: %w", err)
	}

	s.mu.Lock()
	unchanged := hash == s.lastHash
	s.mu.Unlock()

	if unchanged {
		return false, nil
	}

	if len(incomplete) == 0 {
		// Every habit is done; nothing to remind about today.
		s.commit(hash)
		return true, nil
	}

	if err := s.notifier.Notify(composeText(incomplete)); err != nil {
		// The hash stays uncommitted so the next pass retries delivery.
		return true, fmt.Errorf("deliver reminder: %w", err)
	}

	s.commit(hash)
	return true, nil
}

func (s *Scheduler) commit(hash uint64) {
	s.mu.Lock()
	s.lastHash = hash
	s.mu.Unlock()
}

func composeText(incomplete []models.Habit) string {
	names := make([]string, 0, len(incomplete))
	for _, h := range incomplete {
		names = append(names, h.Name)
	}
	sort.Strings(names)

	if len(names) == 1 {
		return fmt.Sprintf("1 habit still open today: %s", names[0])
	}
	return fmt.Sprintf("%d habits still open today: %s", len(names), strings.Join(names, ", "))
}
