package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/stride/internal/models"
	"github.com/julianstephens/stride/internal/storage"
)

type StatusCmd struct {
	Date string `arg:"" optional:"" help:"Day to show (YYYY-MM-DD, 'today', or 'yesterday')." default:"today"`
}

func (cmd *StatusCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	day, err := ctx.resolveDay(cmd.Date)
	if err != nil {
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

	fmt.Println(headerStyle.Render(fmt.Sprintf("Habits for %s", day)))

	for _, h := range habits {
		entry, err := ctx.Store.GetEntry(h.ID, day)
		haveEntry := err == nil
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		var state string
		switch {
		case haveEntry && entry.IsSuccessful():
			state = doneStyle.Render("✓ done")
		case haveEntry && h.Type == models.HabitTypeQuit && !entry.IsCompleted:
			if h.QuitType == models.QuitTypeLimit && entry.Progress > entry.Target {
				state = failedStyle.Render("✗ over limit")
			} else if h.QuitType == models.QuitTypeAbstinence && entry.Progress > 0 {
				state = failedStyle.Render("✗ broken")
			} else {
				state = pendingStyle.Render("· open")
			}
		case haveEntry && h.IsGoalBased():
			state = pendingStyle.Render(fmt.Sprintf("· %.4g/%.4g %s", entry.Progress, entry.Target, entry.Unit))
		default:
			state = pendingStyle.Render("· open")
		}

		line := fmt.Sprintf("  %-30s %s  %s",
			h.Name,
			state,
			streakStyle.Render(fmt.Sprintf("streak %d", h.Streak)))
		if h.LongestStreak > h.Streak {
			line += dimStyle.Render(fmt.Sprintf(" (best %d)", h.LongestStreak))
		}
		fmt.Println(line)
	}

	incomplete, err := ctx.Engine().IncompleteHabits(day)
	if err != nil {
		return err
	}
	if len(incomplete) > 0 {
		names := make([]string, 0, len(incomplete))
		for _, h := range incomplete {
			names = append(names, h.Name)
		}
		fmt.Println(dimStyle.Render(fmt.Sprintf("Still open: %s", strings.Join(names, ", "))))
	}

	return nil
}
