package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/stride/internal/reminder"
	"github.com/julianstephens/stride/internal/syncer"
)

type WatchCmd struct {
	Interval int `help:"Minutes between sync passes (overrides config)." default:"0"`
}

// Run keeps the engine current in the foreground: it syncs automatic
// habits on a timer, rolls habits over when the calendar day changes,
// and refreshes the incomplete-habits reminder after every pass.
func (cmd *WatchCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	interval := time.Duration(ctx.Config.Sync.IntervalMin) * time.Minute
	if cmd.Interval > 0 {
		interval = time.Duration(cmd.Interval) * time.Minute
	}

	var sched *reminder.Scheduler
	if ctx.Config.Reminders.Enabled {
		sched = reminder.New(reminder.NewTrayNotifier())
	}

	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Watching habits (sync every %s). Ctrl-C to stop.\n", interval)

	ctx.Syncer().Run(runCtx, interval, func(results []syncer.Result) {
		// The day may have rolled over while we slept.
		day, failed, err := ctx.Engine().EnsureCurrentDay()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: day rollover failed: %v\n", err)
			return
		}
		for _, f := range failed {
			fmt.Fprintf(os.Stderr, "Warning: failed to reconcile %q: %v\n", f.Name, f.Err)
		}

		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(os.Stderr, "Warning: sync failed for %q: %v\n", r.Name, r.Err)
			}
		}

		if sched == nil {
			return
		}
		incomplete, err := ctx.Engine().IncompleteHabits(day)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not list incomplete habits: %v\n", err)
			return
		}
		if _, err := sched.Refresh(day, incomplete); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: reminder refresh failed: %v\n", err)
		}
	})

	fmt.Println("Stopped.")
	return nil
}
