package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/stride/internal/config"
	"github.com/julianstephens/stride/internal/dates"
	"github.com/julianstephens/stride/internal/engine"
	"github.com/julianstephens/stride/internal/metrics"
	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/storage"
	"github.com/julianstephens/stride/internal/syncer"
)

type Context struct {
	Store  storage.Provider
	Config *config.Config

	eng *engine.Engine
}

// Open loads storage, builds the engine around the persisted clock (real
// or debug-pinned), and reconciles every habit if the calendar day changed
// since the last run.
func (ctx *Context) Open() error {
	if ctx.eng != nil {
		return nil
	}

	if err := ctx.Store.Load(); err != nil {
		return err
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	clock := engine.SystemClock()
	if settings.DateOverride != "" {
		pinned, err := engine.ClockForDay(settings.DateOverride)
		if err != nil {
			return fmt.Errorf("invalid date override %q: %w", settings.DateOverride, err)
		}
		clock = pinned
	}

	ctx.eng = engine.New(ctx.Store, clock)

	_, failed, err := ctx.eng.EnsureCurrentDay()
	if err != nil {
		return err
	}
	for _, f := range failed {
		fmt.Printf("Warning: failed to reconcile %q: %v\n", f.Name, f.Err)
	}

	return nil
}

// Engine returns the state engine; Open must have succeeded first.
func (ctx *Context) Engine() *engine.Engine {
	return ctx.eng
}

// Syncer builds the metric sync scheduler from the configuration.
func (ctx *Context) Syncer() *syncer.Syncer {
	source := metrics.NewFileSource(ctx.Config.Sync.SourcePath)
	return syncer.New(
		ctx.eng,
		source,
		time.Duration(ctx.Config.Sync.CooldownSec)*time.Second,
		time.Duration(ctx.Config.Sync.TimeoutSec)*time.Second,
	)
}

// resolveDay turns a day argument ("today", "yesterday", or YYYY-MM-DD)
// into a calendar day relative to the engine's clock.
func (ctx *Context) resolveDay(arg string) (string, error) {
	switch arg {
	case "", "today":
		return ctx.eng.Today(), nil
	case "yesterday":
		return dates.AddDays(ctx.eng.Today(), -1)
	default:
		if !dates.IsValid(arg) {
			return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD, 'today', or 'yesterday')", arg)
		}
		return arg, nil
	}
}

// findHabit resolves a habit by id or (case-insensitive) name.
func (ctx *Context) findHabit(ref string) (models.Habit, error) {
	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return models.Habit{}, err
	}

	for _, h := range habits {
		if h.ID == ref || strings.EqualFold(h.Name, ref) {
			return h, nil
		}
	}

	return models.Habit{}, fmt.Errorf("no habit matches %q", ref)
}

func formatGoal(h models.Habit) string {
	switch {
	case h.Type == models.HabitTypeQuit && h.QuitType == models.QuitTypeAbstinence:
		return "abstain"
	case h.Type == models.HabitTypeQuit && h.QuitType == models.QuitTypeLimit:
		return fmt.Sprintf("≤ %.4g %s/day", h.GoalTarget, h.GoalUnit)
	case h.IsGoalBased():
		return fmt.Sprintf("%.4g %s/day", h.GoalTarget, h.GoalUnit)
	default:
		return "check off daily"
	}
}
