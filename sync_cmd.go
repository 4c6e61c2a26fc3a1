package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/cloudsync/internal/config"
	"github.com/tonimelisma/cloudsync/internal/journal"
	"github.com/tonimelisma/cloudsync/internal/task"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a sync task's reconciliation loop",
	}

	cmd.AddCommand(newSyncRunCmd())
	cmd.AddCommand(newSyncWatchCmd())

	return cmd
}

func newSyncRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a single reconciliation pass for --task and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			rt, cfg, store, lock, err := openTaskForSync(cc)
			if err != nil {
				return err
			}
			defer store.Close()
			defer lock.Unlock()

			runner, err := buildRunner(rt, store, cfg.Sync.ConflictPattern, cc.Logger)
			if err != nil {
				return err
			}

			report, err := runner.RunPass(cmd.Context())
			if err != nil {
				return err
			}

			statusf("task %q: applied=%d skipped=%d uploaded=%s downloaded=%s\n",
				rt.ID, report.Applied, report.Skipped,
				formatSize(report.Stats.UploadedBytes), formatSize(report.Stats.DownloadedBytes))

			return nil
		},
	}
}

func newSyncWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run --task's reconciliation loop until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			rt, cfg, store, lock, err := openTaskForSync(cc)
			if err != nil {
				return err
			}
			defer store.Close()
			defer lock.Unlock()

			runner, err := buildRunner(rt, store, cfg.Sync.ConflictPattern, cc.Logger)
			if err != nil {
				return err
			}

			runner.SetStatusFunc(func(phase string) {
				cc.Logger.Debug("sync: phase", slog.String("task_id", rt.ID), slog.String("phase", phase))
			})

			statusf("watching task %q (poll_interval=%s)\n", rt.ID, rt.PollInterval)

			return runner.Run(cmd.Context())
		},
	}
}

// openTaskForSync resolves --task, opens the shared journal store, and
// acquires the task's advisory lock so a second process can't run the same
// task concurrently. Callers must Unlock and close store on every path.
func openTaskForSync(cc *CLIContext) (*config.ResolvedTask, *config.Config, *journal.Store, *task.Lock, error) {
	rt, cfg, err := config.LoadTask(cc.Env, flagConfigPath, flagTask, cc.Logger)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	lock := task.NewLock(journalDBPath(), rt.ID)
	if err := lock.TryLock(); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("acquiring task lock: %w", err)
	}

	store, err := journal.Open(journalDBPath(), cc.Logger)
	if err != nil {
		lock.Unlock()

		return nil, nil, nil, nil, fmt.Errorf("opening journal: %w", err)
	}

	return rt, cfg, store, lock, nil
}
