package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/storage"
)

// duplicateStore overlays an extra same-day entry on reads. Both stores
// enforce one entry per (habit, day) on write, so a corrupt history can
// only be presented to the engine this way; once the repair pass deletes
// the loser the overlay drops out.
type duplicateStore struct {
	storage.Provider
	extra  models.HabitEntry
	healed bool
}

func (d *duplicateStore) GetEntries(habitID string) ([]models.HabitEntry, error) {
	entries, err := d.Provider.GetEntries(habitID)
	if err != nil || d.healed || habitID != d.extra.HabitID {
		return entries, err
	}
	return append(entries, d.extra), nil
}

func (d *duplicateStore) DeleteEntry(habitID, day string) error {
	if habitID == d.extra.HabitID && day == d.extra.Day {
		d.healed = true
	}
	return d.Provider.DeleteEntry(habitID, day)
}

func TestCheckHabit_CleanState(t *testing.T) {
	store := newTestStore(t)
	g := engineOn(t, store, "2025-06-10")
	h := checkOffHabit(t, g)

	if _, err := g.RecordCompletion(h.ID, "2025-06-10"); err != nil {
		t.Fatalf("completion failed: %v", err)
	}

	report, err := g.CheckHabit(h.ID)
	if err != nil {
		t.Fatalf("CheckHabit failed: %v", err)
	}
	if report.Changed() {
		t.Errorf("freshly written state should be clean, got %+v", report)
	}
}

func TestCheckHabit_DetectsDrift(t *testing.T) {
	store := newTestStore(t)
	g := engineOn(t, store, "2025-06-10")
	h := checkOffHabit(t, g)

	if _, err := g.RecordCompletion(h.ID, "2025-06-10"); err != nil {
		t.Fatalf("completion failed: %v", err)
	}

	// Corrupt the stored counter behind the engine's back.
	broken, _ := store.GetHabit(h.ID)
	broken.Streak = 42
	if err := store.UpdateHabit(broken); err != nil {
		t.Fatalf("update habit: %v", err)
	}

	report, err := g.CheckHabit(h.ID)
	if err != nil {
		t.Fatalf("CheckHabit failed: %v", err)
	}
	if !report.Drift {
		t.Fatal("CheckHabit should flag the drifted counter")
	}
	if report.OldStreak != 42 || report.NewStreak != 1 {
		t.Errorf("report streaks = %d→%d, want 42→1", report.OldStreak, report.NewStreak)
	}

	// Check alone must not modify anything.
	cur, _ := store.GetHabit(h.ID)
	if cur.Streak != 42 {
		t.Errorf("CheckHabit mutated the habit: streak = %d", cur.Streak)
	}
}

func TestRepairHabit_FixesDrift(t *testing.T) {
	store := newTestStore(t)
	g := engineOn(t, store, "2025-06-10")
	h := checkOffHabit(t, g)

	if _, err := g.RecordCompletion(h.ID, "2025-06-10"); err != nil {
		t.Fatalf("completion failed: %v", err)
	}
	broken, _ := store.GetHabit(h.ID)
	broken.Streak = 42
	if err := store.UpdateHabit(broken); err != nil {
		t.Fatalf("update habit: %v", err)
	}

	report, err := g.RepairHabit(h.ID)
	if err != nil {
		t.Fatalf("RepairHabit failed: %v", err)
	}
	if !report.Drift || report.NewStreak != 1 {
		t.Errorf("report = %+v, want drift fixed to streak 1", report)
	}

	cur, _ := store.GetHabit(h.ID)
	if cur.Streak != 1 {
		t.Errorf("habit streak after repair = %d, want 1", cur.Streak)
	}
}

func TestRepairHabit_CollapsesDuplicateDays(t *testing.T) {
	store := newTestStore(t)
	g := engineOn(t, store, "2025-06-10")
	h := checkOffHabit(t, g)

	if _, err := g.RecordCompletion(h.ID, "2025-06-10"); err != nil {
		t.Fatalf("completion failed: %v", err)
	}
	existing, err := store.GetEntries(h.ID)
	if err != nil || len(existing) != 1 {
		t.Fatalf("seed entries = %d (%v), want 1", len(existing), err)
	}

	// A second row for the same day, written later and unsuccessful.
	extra := existing[0]
	extra.ID = uuid.NewString()
	extra.IsCompleted = false
	extra.UpdatedAt = existing[0].UpdatedAt.Add(time.Hour)

	dup := &duplicateStore{Provider: store, extra: extra}
	gd := engineOn(t, dup, "2025-06-10")

	report, err := gd.CheckHabit(h.ID)
	if !IsInvariantViolation(err) {
		t.Fatalf("CheckHabit error = %v, want an invariant violation", err)
	}
	if report.DuplicatesRemoved != 1 {
		t.Fatalf("check duplicates = %d, want 1", report.DuplicatesRemoved)
	}

	report, err = gd.RepairHabit(h.ID)
	if err != nil {
		t.Fatalf("RepairHabit failed: %v", err)
	}
	if report.DuplicatesRemoved != 1 {
		t.Errorf("repair duplicates = %d, want 1", report.DuplicatesRemoved)
	}
	if report.NewStreak != 0 {
		t.Errorf("streak after repair = %d, want 0 from the surviving unsuccessful entry", report.NewStreak)
	}

	survivors, err := store.GetEntries(h.ID)
	if err != nil {
		t.Fatalf("GetEntries failed: %v", err)
	}
	if len(survivors) != 1 {
		t.Fatalf("survivor count = %d, want 1", len(survivors))
	}
	if survivors[0].ID != extra.ID || survivors[0].IsCompleted {
		t.Errorf("survivor = %+v, want the most recently updated entry", survivors[0])
	}

	cur, _ := store.GetHabit(h.ID)
	if cur.Streak != 0 {
		t.Errorf("habit streak after repair = %d, want 0", cur.Streak)
	}
}
