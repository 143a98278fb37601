package cli

import (
	"context"
	"fmt"

	"github.com/julianstephens/stride/internal/syncer"
)

type SyncCmd struct {
	Force bool `help:"Sync even if the cooldown window has not elapsed."`
}

func (cmd *SyncCmd) Run(ctx *Context) error {
	if err := ctx.Open(); err != nil {
		return err
	}

	trigger := syncer.TriggerExternal
	if cmd.Force {
		trigger = syncer.TriggerForce
	}

	results, ran := ctx.Syncer().Sync(context.Background(), trigger)
	if !ran {
		fmt.Println("Sync skipped (cooldown active or another sync in flight). Use --force to override.")
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No automatic habits to sync.")
		return nil
	}

	printSyncResults(results)
	return nil
}

func printSyncResults(results []syncer.Result) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("  %s: sync failed: %v\n", r.Name, r.Err)
			continue
		}
		fmt.Printf("  %s: %.4g recorded\n", r.Name, r.Value)
	}
}
