package cli

import (
	"path/filepath"
	"testing"

	"github.com/julianstephens/stride/internal/config"
	"github.com/julianstephens/stride/internal/engine"
	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/storage"
)

func newTestContext(t *testing.T, day string) *Context {
	t.Helper()
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "stride.json"))
	if err := store.Init(); err != nil {
		t.Fatalf("init store: %v", err)
	}
	if err := store.Load(); err != nil {
		t.Fatalf("load store: %v", err)
	}

	settings, err := store.GetSettings()
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	settings.DateOverride = day
	settings.LastSeenDay = day
	if err := store.SaveSettings(settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	ctx := &Context{Store: store, Config: config.Default()}
	if err := ctx.Open(); err != nil {
		t.Fatalf("open context: %v", err)
	}
	return ctx
}

func TestOpen_HonorsDateOverride(t *testing.T) {
	ctx := newTestContext(t, "2025-06-10")
	if got := ctx.Engine().Today(); got != "2025-06-10" {
		t.Errorf("Today = %s, want the persisted override", got)
	}
}

func TestResolveDay(t *testing.T) {
	ctx := newTestContext(t, "2025-06-10")

	cases := []struct {
		arg  string
		want string
	}{
		{"", "2025-06-10"},
		{"today", "2025-06-10"},
		{"yesterday", "2025-06-09"},
		{"2025-01-15", "2025-01-15"},
	}
	for _, c := range cases {
		got, err := ctx.resolveDay(c.arg)
		if err != nil {
			t.Fatalf("resolveDay(%q) failed: %v", c.arg, err)
		}
		if got != c.want {
			t.Errorf("resolveDay(%q) = %s, want %s", c.arg, got, c.want)
		}
	}

	for _, bad := range []string{"tomorrow", "06/10/2025", "2025-13-40"} {
		if _, err := ctx.resolveDay(bad); err == nil {
			t.Errorf("resolveDay(%q) should fail", bad)
		}
	}
}

func TestFindHabit_ByIDAndName(t *testing.T) {
	ctx := newTestContext(t, "2025-06-10")
	h, err := ctx.Engine().CreateHabit(engine.NewHabit{Name: "Read", Type: models.HabitTypeBuild})
	if err != nil {
		t.Fatalf("CreateHabit: %v", err)
	}

	byID, err := ctx.findHabit(h.ID)
	if err != nil || byID.ID != h.ID {
		t.Errorf("findHabit by id = %+v, %v", byID, err)
	}
	byName, err := ctx.findHabit("READ")
	if err != nil || byName.ID != h.ID {
		t.Errorf("findHabit by name = %+v, %v", byName, err)
	}
	if _, err := ctx.findHabit("nope"); err == nil {
		t.Error("findHabit should fail for an unknown reference")
	}
}

func TestFormatGoal(t *testing.T) {
	cases := []struct {
		habit models.Habit
		want  string
	}{
		{models.Habit{Type: models.HabitTypeBuild, GoalUnit: models.UnitNone}, "check off daily"},
		{models.Habit{Type: models.HabitTypeBuild, GoalTarget: 8000, GoalUnit: models.UnitSteps}, "8000 steps/day"},
		{models.Habit{Type: models.HabitTypeQuit, QuitType: models.QuitTypeAbstinence}, "abstain"},
		{models.Habit{Type: models.HabitTypeQuit, QuitType: models.QuitTypeLimit, GoalTarget: 2, GoalUnit: models.UnitCount}, "≤ 2 count/day"},
	}
	for _, c := range cases {
		if got := formatGoal(c.habit); got != c.want {
			t.Errorf("formatGoal(%+v) = %q, want %q", c.habit, got, c.want)
		}
	}
}
