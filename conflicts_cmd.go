package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/cloudsync/internal/config"
	"github.com/tonimelisma/cloudsync/internal/journal"
)

func newConflictsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List and resolve materialized sync conflicts",
	}

	cmd.AddCommand(newConflictsListCmd())
	cmd.AddCommand(newConflictsResolveCmd())

	return cmd
}

func newConflictsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List unresolved conflicts, optionally filtered by --task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			store, err := journal.Open(journalDBPath(), cc.Logger)
			if err != nil {
				return fmt.Errorf("opening journal: %w", err)
			}
			defer store.Close()

			conflicts, err := store.ListConflicts(cmd.Context(), flagTask)
			if err != nil {
				return err
			}

			if len(conflicts) == 0 {
				statusf("No conflicts.\n")

				return nil
			}

			headers := []string{"TASK", "CONFLICT COPY", "ORIGINAL", "REASON", "CREATED"}

			rows := make([][]string, 0, len(conflicts))
			for _, c := range conflicts {
				rows = append(rows, []string{
					c.TaskID, c.ConflictRelPath, c.OriginalRelPath, c.Reason,
					formatTime(msToTime(c.CreatedAtMs)),
				})
			}

			printTable(os.Stdout, headers, rows)

			return nil
		},
	}
}

func newConflictsResolveCmd() *cobra.Command {
	var deleteCopy bool

	cmd := &cobra.Command{
		Use:   "resolve <conflict-relpath>",
		Short: "Clear a conflict record, optionally deleting its copy file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			conflictRelPath := args[0]

			if flagTask == "" {
				return fmt.Errorf("--task is required")
			}

			store, err := journal.Open(journalDBPath(), cc.Logger)
			if err != nil {
				return fmt.Errorf("opening journal: %w", err)
			}
			defer store.Close()

			if deleteCopy {
				rt, _, err := config.LoadTask(cc.Env, flagConfigPath, flagTask, cc.Logger)
				if err != nil {
					return err
				}

				abs := filepath.Join(rt.LocalRoot, conflictRelPath)
				if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("deleting conflict copy %s: %w", abs, err)
				}
			}

			if err := store.DeleteConflict(cmd.Context(), flagTask, conflictRelPath); err != nil {
				return err
			}

			statusf("Resolved conflict %q for task %q\n", conflictRelPath, flagTask)

			return nil
		},
	}

	cmd.Flags().BoolVar(&deleteCopy, "delete-copy", false, "also delete the conflict copy file from the local tree")

	return cmd
}
