package cli

import (
	"context"
	"fmt"

	"github.com/julianstephens/stride/internal/engine"
	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/syncer"
)

type HabitAddCmd struct {
	Name string `arg:"" help:"Habit name (1-50 characters, unique)."`

	Quit       bool    `help:"Track quitting a behavior instead of building one."`
	Limit      float64 `help:"For quit habits: allowed daily amount (omit for full abstinence)."`
	Target     float64 `help:"Daily goal target (e.g. 8000 for steps)."`
	Unit       string  `help:"Goal unit: steps, minutes, hours, liters, glasses, grams, count." default:"none"`
	Auto       bool    `help:"Fill progress automatically from the metric source."`
	MetricKind string  `help:"Metric backing an automatic habit (steps, exercise_minutes, mindful_minutes, water_liters)."`
}

func (cmd *HabitAddCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	spec := engine.NewHabit{
		Name:       cmd.Name,
		Type:       models.HabitTypeBuild,
		GoalTarget: cmd.Target,
		GoalUnit:   models.GoalUnit(cmd.Unit),
		MetricKind: cmd.MetricKind,
	}
	if cmd.Quit {
		spec.Type = models.HabitTypeQuit
		if cmd.Limit > 0 {
			spec.QuitType = models.QuitTypeLimit
			spec.GoalTarget = cmd.Limit
		} else {
			spec.QuitType = models.QuitTypeAbstinence
			spec.GoalUnit = models.UnitNone
		}
	}
	if cmd.Auto {
		spec.TrackingMode = models.TrackingAutomatic
	}

	habit, err := ctx.Engine().CreateHabit(spec)
	if err != nil {
		return err
	}

	fmt.Printf("Added habit %q (%s)\n", habit.Name, formatGoal(habit))

	// A freshly added automatic habit syncs immediately instead of
	// waiting for the next timer tick.
	if habit.TrackingMode == models.TrackingAutomatic {
		results, ran := ctx.Syncer().Sync(context.Background(), syncer.TriggerHabitAdded)
		if ran {
			printSyncResults(results)
		}
	}

	return nil
}

type HabitListCmd struct{}

func (cmd *HabitListCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return err
	}

	if len(habits) == 0 {
		fmt.Println("No habits yet. Add one with 'stride habit add'.")
		return nil
	}

	for _, h := range habits {
		mode := ""
		if h.TrackingMode == models.TrackingAutomatic {
			mode = " [auto]"
		}
		fmt.Printf("%-30s  %-20s  streak %d (best %d)%s\n", h.Name, formatGoal(h), h.Streak, h.LongestStreak, mode)
	}

	return nil
}

type HabitRenameCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Name  string `arg:"" help:"New habit name (1-50 characters, unique)."`
}

func (cmd *HabitRenameCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	habit, err := ctx.findHabit(cmd.Habit)
	if err != nil {
		return err
	}

	old := habit.Name
	habit, err = ctx.Engine().RenameHabit(habit.ID, cmd.Name)
	if err != nil {
		return err
	}

	fmt.Printf("Renamed %q to %q\n", old, habit.Name)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (cmd *HabitDeleteCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	habit, err := ctx.findHabit(cmd.Habit)
	if err != nil {
		return err
	}

	if err := ctx.Engine().DeleteHabit(habit.ID); err != nil {
		return err
	}

	fmt.Printf("Deleted habit %q\n", habit.Name)
	return nil
}

type HabitResetCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (cmd *HabitResetCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	habit, err := ctx.findHabit(cmd.Habit)
	if err != nil {
		return err
	}

	habit, err = ctx.Engine().ResetStreak(habit.ID)
	if err != nil {
		return err
	}

	fmt.Printf("Reset streak for %q (longest streak stays at %d)\n", habit.Name, habit.LongestStreak)
	return nil
}
