// Package task runs one dedicated worker per active sync task: a
// cooperative loop that scans, lists, reconciles, and executes one pass,
// then sleeps until the next poll interval.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tonimelisma/cloudsync/internal/config"
	"github.com/tonimelisma/cloudsync/internal/journal"
	"github.com/tonimelisma/cloudsync/internal/localfs"
	"github.com/tonimelisma/cloudsync/internal/reconcile"
	"github.com/tonimelisma/cloudsync/internal/remote"
	"github.com/tonimelisma/cloudsync/internal/syncexec"
)

// minPollInterval is the floor poll_interval is clamped to regardless of
// configuration, so a misconfigured task cannot hammer the remote service.
const minPollInterval = 5 * time.Second

// maxLogRowsPerTask bounds the logs table per task; PruneLogs runs once per
// pass after the executor phase.
const maxLogRowsPerTask = 5000

// Runner drives one task's poll loop.
type Runner struct {
	task     *config.ResolvedTask
	store    *journal.Store
	scanner  *localfs.Scanner
	lister   *remote.Lister
	executor *syncexec.Executor

	pollInterval time.Duration
	cancelled    atomic.Bool
	logger       *slog.Logger
	metrics      *Metrics
	statusFn     func(string)
}

// New builds a Runner for one task. pollInterval is the already-parsed,
// clamp-eligible poll_interval duration; scanner, lister, and executor are
// pre-wired against the task's local root, remote root, and journal
// partition.
func New(rt *config.ResolvedTask, store *journal.Store, scanner *localfs.Scanner, lister *remote.Lister, executor *syncexec.Executor, pollInterval time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	if pollInterval < minPollInterval {
		pollInterval = minPollInterval
	}

	return &Runner{
		task:         rt,
		store:        store,
		scanner:      scanner,
		lister:       lister,
		executor:     executor,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// SetMetrics installs the Prometheus collector set this runner reports
// through. Passing nil disables metric updates.
func (r *Runner) SetMetrics(m *Metrics) {
	r.metrics = m
}

// SetStatusFunc installs the phase-tag observer (§6 "ListingRemote",
// "Hashing", "Syncing").
func (r *Runner) SetStatusFunc(fn func(string)) {
	r.statusFn = fn
}

// Cancel requests the loop stop before its next pass. An in-flight pass is
// allowed to finish; there is no mid-pass tear-down.
func (r *Runner) Cancel() {
	r.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (r *Runner) Cancelled() bool {
	return r.cancelled.Load()
}

// Run loops until cancelled or ctx is done, running one pass per
// iteration and sleeping pollInterval between passes. An error from
// RunPass (scan, listing, or journal load) ends the loop and is returned.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if r.cancelled.Load() || ctx.Err() != nil {
			return nil
		}

		start := time.Now()

		report, err := r.RunPass(ctx)
		if err != nil {
			r.logger.Error("task: pass failed", slog.String("task_id", r.task.ID), slog.Any("error", err))
			return err
		}

		elapsed := time.Since(start)
		r.publish(report, elapsed)

		if r.cancelled.Load() || ctx.Err() != nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.pollInterval):
		}
	}
}

// RunPass executes one full scan/list/diff/apply cycle and returns the
// executor's report. A fatal action error aborts the pass but is not
// itself a RunPass error: the runner logs it and waits for the next
// interval, per §7's fatal-error policy.
func (r *Runner) RunPass(ctx context.Context) (syncexec.Report, error) {
	r.setStatus("Hashing")

	localFiles, err := r.scanner.Scan(ctx, r.task.LocalRoot)
	if err != nil {
		return syncexec.Report{}, fmt.Errorf("task: scanning local root: %w", err)
	}

	r.setStatus("ListingRemote")

	remoteFiles, err := r.lister.List(ctx, r.task.RemoteRootURI)
	if err != nil {
		return syncexec.Report{}, fmt.Errorf("task: listing remote root: %w", err)
	}

	entries, err := r.store.ListEntries(ctx, r.task.ID)
	if err != nil {
		return syncexec.Report{}, fmt.Errorf("task: loading journal entries: %w", err)
	}

	tombstones, err := r.store.ListTombstones(ctx, r.task.ID)
	if err != nil {
		return syncexec.Report{}, fmt.Errorf("task: loading tombstones: %w", err)
	}

	decisions := reconcile.Reconcile(reconcile.Inputs{
		LocalMap:     indexLocal(localFiles),
		RemoteMap:    indexRemote(remoteFiles),
		EntryMap:     indexEntries(entries),
		TombstoneMap: indexTombstones(tombstones),
	})

	r.setStatus("Syncing")

	report := r.executor.Run(ctx, decisions)

	if err := r.store.PruneLogs(ctx, r.task.ID, maxLogRowsPerTask); err != nil {
		r.logger.Warn("task: pruning logs", slog.String("task_id", r.task.ID), slog.Any("error", err))
	}

	return report, nil
}

func (r *Runner) setStatus(phase string) {
	if r.statusFn != nil {
		r.statusFn(phase)
	}
}

func (r *Runner) publish(report syncexec.Report, elapsed time.Duration) {
	if r.metrics != nil {
		r.metrics.Observe(r.task.ID, report.Stats, elapsed)
	}

	r.logger.Info("task: pass complete",
		slog.String("task_id", r.task.ID),
		slog.Int("applied", report.Applied),
		slog.Int("skipped", report.Skipped),
		slog.Duration("elapsed", elapsed),
		slog.Int64("uploaded_bytes", report.Stats.UploadedBytes),
		slog.Int64("downloaded_bytes", report.Stats.DownloadedBytes),
	)
}

func indexLocal(files []localfs.File) map[string]localfs.File {
	m := make(map[string]localfs.File, len(files))
	for _, f := range files {
		m[f.RelPath] = f
	}

	return m
}

func indexRemote(files []remote.File) map[string]remote.File {
	m := make(map[string]remote.File, len(files))
	for _, f := range files {
		m[f.RelPath] = f
	}

	return m
}

func indexEntries(entries []journal.Entry) map[string]journal.Entry {
	m := make(map[string]journal.Entry, len(entries))
	for _, e := range entries {
		m[e.RelPath] = e
	}

	return m
}

func indexTombstones(tombstones []journal.Tombstone) map[string]journal.Tombstone {
	m := make(map[string]journal.Tombstone, len(tombstones))
	for _, t := range tombstones {
		m[t.RelPath] = t
	}

	return m
}
