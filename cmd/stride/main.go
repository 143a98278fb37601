package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/stride/internal/cli"
	"github.com/julianstephens/stride/internal/config"
	"github.com/julianstephens/stride/internal/engine"
	"github.com/julianstephens/stride/internal/storage"
)

var CLI struct {
	Version    kong.VersionFlag
	Store      string `help:"Storage file path (.json for a JSON store, anything else for SQLite)." type:"path" default:"~/.config/stride/stride.db"`
	ConfigFile string `help:"Config file path." type:"path" name:"config"`

	Init   cli.InitCmd   `cmd:"" help:"Initialize stride storage."`
	Status cli.StatusCmd `cmd:"" help:"Show habit status for a day." default:"1"`
	Habit  struct {
		Add    cli.HabitAddCmd    `cmd:"" help:"Add a new habit."`
		List   cli.HabitListCmd   `cmd:"" help:"List all habits."`
		Rename cli.HabitRenameCmd `cmd:"" help:"Rename a habit."`
		Delete cli.HabitDeleteCmd `cmd:"" help:"Delete a habit."`
		Reset  cli.HabitResetCmd  `cmd:"" help:"Reset a habit's current streak."`
	} `cmd:"" help:"Manage habits."`
	Done     cli.DoneCmd     `cmd:"" help:"Mark a check-off habit done."`
	Progress cli.ProgressCmd `cmd:"" help:"Add progress toward a habit's daily goal."`
	Quit     struct {
		Ok   cli.QuitOkCmd   `cmd:"" help:"Confirm a quit habit was held for a day."`
		Fail cli.QuitFailCmd `cmd:"" help:"Record a failure for a quit habit."`
	} `cmd:"" help:"Record outcomes for quit habits."`
	Sync   cli.SyncCmd   `cmd:"" help:"Pull progress for automatic habits from the metric source."`
	Watch  cli.WatchCmd  `cmd:"" help:"Run in the foreground, syncing and reminding on a timer."`
	Doctor cli.DoctorCmd `cmd:"" help:"Run health checks on the habit database."`
	Backup struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Create a backup."`
		List    cli.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Debug cli.DebugCmd `cmd:"" help:"Debugging helpers (time travel, state dumps)."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("stride"),
		kong.Description("Habit tracker with derived streaks"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	cfgPath := CLI.ConfigFile
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Determine storage type based on extension
	var store storage.Provider
	if len(CLI.Store) > 5 && CLI.Store[len(CLI.Store)-5:] == ".json" {
		store = storage.NewJSONStore(CLI.Store)
	} else {
		store = storage.NewSQLiteStore(CLI.Store)
	}
	defer store.Close()

	appCtx := &cli.Context{
		Store:  store,
		Config: cfg,
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if engine.IsPersistence(err) {
			fmt.Fprintln(os.Stderr, "The last change may not have been saved; run 'stride status' to confirm.")
		}
		os.Exit(1)
	}
}
