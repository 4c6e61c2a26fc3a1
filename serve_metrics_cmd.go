package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tonimelisma/cloudsync/internal/config"
	"github.com/tonimelisma/cloudsync/internal/journal"
	"github.com/tonimelisma/cloudsync/internal/task"
)

// newServeMetricsCmd runs every non-paused task's reconciliation loop
// concurrently, one worker each, and exposes their combined throughput as
// Prometheus series over HTTP until interrupted.
func newServeMetricsCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Run all non-paused tasks and serve their throughput metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			path := config.ResolveConfigPath(cc.Env, flagConfigPath, cc.Logger)

			cfg, err := config.LoadOrDefault(path, cc.Logger)
			if err != nil {
				return err
			}

			tasks, err := config.ResolveTasks(cfg, nil, false)
			if err != nil {
				return err
			}

			if len(tasks) == 0 {
				return fmt.Errorf("no non-paused tasks defined")
			}

			store, err := journal.Open(journalDBPath(), cc.Logger)
			if err != nil {
				return fmt.Errorf("opening journal: %w", err)
			}
			defer store.Close()

			reg := prometheus.NewRegistry()
			metrics := task.NewMetrics(reg)

			runners, locks, err := buildRunners(tasks, cfg, store, cc.Logger, metrics)
			for _, l := range locks {
				defer l.Unlock()
			}

			if err != nil {
				return err
			}

			srv := &http.Server{Addr: addr, Handler: task.Handler(reg)}

			return runServersAndRunners(cmd.Context(), srv, runners, cc.Logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":9090", "address to serve /metrics on")

	return cmd
}

func buildRunners(tasks []*config.ResolvedTask, cfg *config.Config, store *journal.Store, logger *slog.Logger, metrics *task.Metrics) ([]*task.Runner, []*task.Lock, error) {
	runners := make([]*task.Runner, 0, len(tasks))
	locks := make([]*task.Lock, 0, len(tasks))

	for _, rt := range tasks {
		lock := task.NewLock(journalDBPath(), rt.ID)
		if err := lock.TryLock(); err != nil {
			return runners, locks, fmt.Errorf("acquiring lock for task %q: %w", rt.ID, err)
		}

		locks = append(locks, lock)

		runner, err := buildRunner(rt, store, cfg.Sync.ConflictPattern, logger)
		if err != nil {
			return runners, locks, err
		}

		runner.SetMetrics(metrics)
		runners = append(runners, runner)
	}

	return runners, locks, nil
}

func runServersAndRunners(ctx context.Context, srv *http.Server, runners []*task.Runner, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()

		return srv.Shutdown(context.Background())
	})

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}

		return nil
	})

	for _, r := range runners {
		r := r

		g.Go(func() error {
			return r.Run(gctx)
		})
	}

	logger.Info("serve-metrics: listening", slog.String("addr", srv.Addr), slog.Int("tasks", len(runners)))

	return g.Wait()
}
