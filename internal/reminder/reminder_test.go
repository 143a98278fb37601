package reminder

import (
	"errors"
	"strings"
	"testing"

	"github.com/julianstephens/stride/internal/models"
)

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) Notify(text string) error {
	f.sent = append(f.sent, text)
	return f.err
}

func habits(names ...string) []models.Habit {
	out := make([]models.Habit, 0, len(names))
	for _, n := range names {
		out = append(out, models.Habit{ID: "id-" + n, Name: n})
	}
	return out
}

func TestRefresh_NotifiesOnFirstSnapshot(t *testing.T) {
	n := &fakeNotifier{}
	s := New(n)

	scheduled, err := s.Refresh("2025-06-10", habits("Read", "Walk"))
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if !scheduled {
		t.Fatal("first snapshot should schedule")
	}
	if len(n.sent) != 1 {
		t.Fatalf("notifications sent = %d, want 1", len(n.sent))
	}
	if !strings.Contains(n.sent[0], "2 habits still open today") {
		t.Errorf("unexpected text %q", n.sent[0])
	}
}

func TestRefresh_UnchangedSnapshotIsSkipped(t *testing.T) {
	n := &fakeNotifier{}
	s := New(n)

	if _, err := s.Refresh("2025-06-10", habits("Read", "Walk")); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	// Same day, same set, different slice order: still one notification.
	reordered := habits("Walk", "Read")
	scheduled, err := s.Refresh("2025-06-10", reordered)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if scheduled {
		t.Error("identical snapshot should be skipped")
	}
	if len(n.sent) != 1 {
		t.Errorf("notifications sent = %d, want 1", len(n.sent))
	}
}

func TestRefresh_ReschedulesWhenSetShrinks(t *testing.T) {
	n := &fakeNotifier{}
	s := New(n)

	if _, err := s.Refresh("2025-06-10", habits("Read", "Walk")); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	scheduled, err := s.Refresh("2025-06-10", habits("Walk"))
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if !scheduled {
		t.Fatal("shrunk set should reschedule")
	}
	if len(n.sent) != 2 {
		t.Fatalf("notifications sent = %d, want 2", len(n.sent))
	}
	if !strings.Contains(n.sent[1], "1 habit still open today: Walk") {
		t.Errorf("unexpected text %q", n.sent[1])
	}
}

func TestRefresh_NewDayReschedules(t *testing.T) {
	n := &fakeNotifier{}
	s := New(n)

	if _, err := s.Refresh("2025-06-10", habits("Read")); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	scheduled, err := s.Refresh("2025-06-11", habits("Read"))
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if !scheduled {
		t.Error("same set on a new day should reschedule")
	}
}

func TestRefresh_AllDoneSchedulesNothing(t *testing.T) {
	n := &fakeNotifier{}
	s := New(n)

	if _, err := s.Refresh("2025-06-10", habits("Read")); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	scheduled, err := s.Refresh("2025-06-10", nil)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if !scheduled {
		t.Error("transition to all-done is a snapshot change")
	}
	if len(n.sent) != 1 {
		t.Errorf("all-done should not notify, sent = %d", len(n.sent))
	}
}

func TestRefresh_DeliveryFailureRetriesNextPass(t *testing.T) {
	n := &fakeNotifier{err: errors.New("tray not running")}
	s := New(n)

	scheduled, err := s.Refresh("2025-06-10", habits("Read"))
	if err == nil {
		t.Fatal("delivery failure should surface")
	}
	if !scheduled {
		t.Error("a failed delivery still counts as a schedule attempt")
	}

	// The tray comes back; the same snapshot must be delivered rather
	// than debounced away.
	n.err = nil
	scheduled, err = s.Refresh("2025-06-10", habits("Read"))
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !scheduled {
		t.Fatal("undelivered snapshot should be retried")
	}
	if len(n.sent) != 2 {
		t.Fatalf("notifications sent = %d, want 2 (failed attempt plus retry)", len(n.sent))
	}

	// Once delivered, the snapshot debounces as usual.
	if scheduled, _ := s.Refresh("2025-06-10", habits("Read")); scheduled {
		t.Error("delivered snapshot should be skipped")
	}
}
