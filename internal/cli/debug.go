package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/julianstephens/stride/internal/dates"
	"github.com/julianstephens/stride/internal/engine"
)

type DebugCmd struct {
	SetDate   DebugSetDateCmd   `cmd:"" name:"set-date" help:"Pin the engine's current day to a fixed date."`
	ClearDate DebugClearDateCmd `cmd:"" name:"clear-date" help:"Return the engine to the real clock."`
	DumpHabit DebugDumpHabitCmd `cmd:"" name:"dump-habit" help:"Dump a habit and its entries as JSON."`
}

type DebugSetDateCmd struct {
	Date string `arg:"" help:"Day to pin (YYYY-MM-DD)."`
}

func (cmd *DebugSetDateCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	if !dates.IsValid(cmd.Date) {
		return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", cmd.Date)
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	settings.DateOverride = cmd.Date
	settings.LastSeenDay = cmd.Date
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return err
	}

	// Rebuild the engine on the pinned clock and reconcile everything to
	// the new day, forward or backward.
	clock, err := engine.ClockForDay(cmd.Date)
	if err != nil {
		return err
	}
	pinned := engine.New(ctx.Store, clock)
	failed, err := pinned.ReconcileAllForDate(cmd.Date)
	if err != nil {
		return err
	}
	for _, f := range failed {
		fmt.Fprintf(os.Stderr, "Warning: failed to reconcile %q: %v\n", f.Name, f.Err)
	}

	fmt.Printf("Pinned current day to %s\n", cmd.Date)
	return nil
}

type DebugClearDateCmd struct{}

func (cmd *DebugClearDateCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	if settings.DateOverride == "" {
		fmt.Println("No date override set.")
		return nil
	}
	settings.DateOverride = ""
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return err
	}

	// Back on the real clock, bring every habit up to the actual today.
	real := engine.New(ctx.Store, engine.SystemClock())
	today := real.Today()
	settings.LastSeenDay = today
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return err
	}
	failed, err := real.ReconcileAllForDate(today)
	if err != nil {
		return err
	}
	for _, f := range failed {
		fmt.Fprintf(os.Stderr, "Warning: failed to reconcile %q: %v\n", f.Name, f.Err)
	}

	fmt.Printf("Cleared date override; current day is %s\n", today)
	return nil
}

type DebugDumpHabitCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	habit, err := ctx.findHabit(cmd.Habit)
	if err != nil {
		return err
	}
	entries, err := ctx.Store.GetEntries(habit.ID)
	if err != nil {
		return err
	}

	dump := struct {
		Habit   any `json:"habit"`
		Entries any `json:"entries"`
	}{habit, entries}

	out, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
