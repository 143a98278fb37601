package cli

import (
	"fmt"

	"github.com/julianstephens/stride/internal/models"
)

type DoneCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Date  string `arg:"" optional:"" help:"Day to mark (YYYY-MM-DD, 'today', or 'yesterday')." default:"today"`
}

func (cmd *DoneCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	habit, err := ctx.findHabit(cmd.Habit)
	if err != nil {
		return err
	}
	day, err := ctx.resolveDay(cmd.Date)
	if err != nil {
		return err
	}

	habit, err = ctx.Engine().RecordCompletion(habit.ID, day)
	if err != nil {
		return err
	}

	fmt.Printf("%s done for %s — streak %d\n", habit.Name, day, habit.Streak)
	return nil
}

type ProgressCmd struct {
	Habit  string  `arg:"" help:"Habit name or id."`
	Amount float64 `arg:"" help:"Amount to add to the day's total."`
	Date   string  `arg:"" optional:"" help:"Day to record (YYYY-MM-DD, 'today', or 'yesterday')." default:"today"`
}

func (cmd *ProgressCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	habit, err := ctx.findHabit(cmd.Habit)
	if err != nil {
		return err
	}
	day, err := ctx.resolveDay(cmd.Date)
	if err != nil {
		return err
	}

	habit, err = ctx.Engine().AddProgress(habit.ID, cmd.Amount, day)
	if err != nil {
		return err
	}

	if habit.Type == models.HabitTypeQuit {
		fmt.Printf("%s: %.4g/%.4g %s recorded for %s\n", habit.Name, habit.CurrentProgress, habit.GoalTarget, habit.GoalUnit, day)
		return nil
	}

	status := "in progress"
	if habit.IsCompleted {
		status = fmt.Sprintf("complete — streak %d", habit.Streak)
	}
	fmt.Printf("%s: %.4g/%.4g %s (%s)\n", habit.Name, habit.CurrentProgress, habit.GoalTarget, habit.GoalUnit, status)
	return nil
}

type QuitOkCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Date  string `arg:"" optional:"" help:"Day to mark (YYYY-MM-DD, 'today', or 'yesterday')." default:"today"`
}

func (cmd *QuitOkCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	habit, err := ctx.findHabit(cmd.Habit)
	if err != nil {
		return err
	}
	day, err := ctx.resolveDay(cmd.Date)
	if err != nil {
		return err
	}

	habit, err = ctx.Engine().RecordQuitSuccess(habit.ID, day)
	if err != nil {
		return err
	}

	fmt.Printf("%s held for %s — streak %d\n", habit.Name, day, habit.Streak)
	return nil
}

type QuitFailCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
	Date  string `arg:"" optional:"" help:"Day to mark (YYYY-MM-DD, 'today', or 'yesterday')." default:"today"`
}

func (cmd *QuitFailCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	habit, err := ctx.findHabit(cmd.Habit)
	if err != nil {
		return err
	}
	day, err := ctx.resolveDay(cmd.Date)
	if err != nil {
		return err
	}

	habit, err = ctx.Engine().RecordFailure(habit.ID, day)
	if err != nil {
		return err
	}

	fmt.Printf("%s broken on %s — streak now %d (longest stays %d)\n", habit.Name, day, habit.Streak, habit.LongestStreak)
	return nil
}
