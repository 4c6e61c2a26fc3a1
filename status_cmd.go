package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/cloudsync/internal/config"
	"github.com/tonimelisma/cloudsync/internal/journal"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show task state: last sync times, pending conflicts, recent log events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			path := config.ResolveConfigPath(cc.Env, flagConfigPath, cc.Logger)

			cfg, err := config.LoadOrDefault(path, cc.Logger)
			if err != nil {
				return err
			}

			var selectors []string
			if flagTask != "" {
				selectors = []string{flagTask}
			}

			tasks, err := config.ResolveTasks(cfg, selectors, true)
			if err != nil {
				return err
			}

			if len(tasks) == 0 {
				statusf("No tasks defined.\n")

				return nil
			}

			store, err := journal.Open(journalDBPath(), cc.Logger)
			if err != nil {
				return fmt.Errorf("opening journal: %w", err)
			}
			defer store.Close()

			for _, rt := range tasks {
				if err := printTaskStatus(cmd, store, rt); err != nil {
					return err
				}
			}

			return nil
		},
	}
}

func printTaskStatus(cmd *cobra.Command, store *journal.Store, rt *config.ResolvedTask) error {
	ctx := cmd.Context()

	entries, err := store.ListEntries(ctx, rt.ID)
	if err != nil {
		return err
	}

	conflicts, err := store.ListConflicts(ctx, rt.ID)
	if err != nil {
		return err
	}

	errLogs, err := store.CountLogs(ctx, journal.LogFilter{TaskID: rt.ID, Level: journal.LevelError})
	if err != nil {
		return err
	}

	var lastSync int64

	for _, e := range entries {
		if e.LastSyncTsMs > lastSync {
			lastSync = e.LastSyncTsMs
		}
	}

	fmt.Fprintf(os.Stdout, "task %s (%s)\n", rt.ID, rt.Mode)
	fmt.Fprintf(os.Stdout, "  local:      %s\n", rt.LocalRoot)
	fmt.Fprintf(os.Stdout, "  remote:     %s\n", rt.RemoteRootURI)
	fmt.Fprintf(os.Stdout, "  files:      %d\n", len(entries))
	fmt.Fprintf(os.Stdout, "  conflicts:  %d\n", len(conflicts))
	fmt.Fprintf(os.Stdout, "  errors:     %d\n", errLogs)

	if lastSync > 0 {
		fmt.Fprintf(os.Stdout, "  last sync:  %s\n", humanize.Time(msToTime(lastSync)))
	} else {
		fmt.Fprintf(os.Stdout, "  last sync:  never\n")
	}

	fmt.Fprintln(os.Stdout)

	return nil
}
