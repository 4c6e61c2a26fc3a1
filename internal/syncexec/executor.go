// Package syncexec carries out the actions a reconciler pass decides on:
// uploads, downloads, soft-deletes, local deletes, and conflict
// materialization, against the journal, the local filesystem, and the
// remote transport.
package syncexec

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tonimelisma/cloudsync/internal/config"
	"github.com/tonimelisma/cloudsync/internal/journal"
	"github.com/tonimelisma/cloudsync/internal/reconcile"
	"github.com/tonimelisma/cloudsync/internal/remote"
)

// Stats accumulates one pass's throughput counters. The executor mutates
// its own copy and invokes the observer after every change.
type Stats struct {
	UploadedBytes   int64
	DownloadedBytes int64
	Operations      int64
}

// Observer is notified after every Stats mutation, so a caller (the task
// runner's metrics, a progress bar) can react without polling.
type Observer func(Stats)

// Executor applies reconcile.Decision values against the journal, local
// filesystem, and remote transport for one task.
type Executor struct {
	store           *journal.Store
	client          *remote.Client
	lister          *remote.Lister
	task            *config.ResolvedTask
	deviceID        string
	conflictPattern string
	logger          *slog.Logger

	stats    Stats
	observer Observer
}

// New builds an Executor for one task's dependencies. conflictPattern is
// the global sync.conflict_pattern template (§4.6 conflict materialization
// is not per-task configurable in this release).
func New(store *journal.Store, client *remote.Client, lister *remote.Lister, task *config.ResolvedTask, deviceID, conflictPattern string, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		store:           store,
		client:          client,
		lister:          lister,
		task:            task,
		deviceID:        deviceID,
		conflictPattern: conflictPattern,
		logger:          logger,
	}
}

// SetObserver installs the callback invoked after every Stats change.
// Passing nil disables notification.
func (e *Executor) SetObserver(obs Observer) {
	e.observer = obs
}

// Stats returns a copy of the counters accumulated so far this pass.
func (e *Executor) Stats() Stats {
	return e.stats
}

// Report summarizes one pass's outcome.
type Report struct {
	Stats    Stats
	Applied  int
	Skipped  int
	Aborted  bool
	AbortErr error
}

// Run applies every decision in order, honoring the task's mode: in
// upload-only mode a would-be download is skipped (left for the next
// pass); in download-only mode a would-be upload is skipped. Deletes and
// conflict materialization are never mode-gated since they propagate a
// deletion or a divergence rather than initiate a one-directional
// transfer.
//
// A fatal error aborts the remaining decisions immediately; a skip or
// retryable error is logged and the pass continues.
func (e *Executor) Run(ctx context.Context, decisions []reconcile.Decision) Report {
	var report Report

	e.stats = Stats{}

	for _, d := range decisions {
		if e.modeSkips(d.Action) {
			report.Skipped++
			continue
		}

		err := e.apply(ctx, d)
		if err == nil {
			report.Applied++
			continue
		}

		tier := classifyError(err)

		e.logger.Error("syncexec: action failed", slog.String("relpath", d.RelPath), slog.String("action", string(d.Action)), slog.Any("error", err))
		e.logEvent(ctx, journal.LevelError, string(d.Action), d.RelPath+": "+err.Error())

		if tier == ErrorFatal {
			report.Aborted = true
			report.AbortErr = err
			report.Stats = e.stats

			return report
		}

		report.Skipped++
	}

	report.Stats = e.stats

	return report
}

func (e *Executor) modeSkips(action reconcile.Action) bool {
	switch e.task.Mode {
	case config.ModeUploadOnly:
		return action == reconcile.ActionDownload
	case config.ModeDownloadOnly:
		return action == reconcile.ActionUpload
	default:
		return false
	}
}

func (e *Executor) apply(ctx context.Context, d reconcile.Decision) error {
	if d.ClearTombstone {
		if err := e.store.DeleteTombstone(ctx, e.task.ID, d.RelPath); err != nil {
			return err
		}
	}

	switch d.Action {
	case reconcile.ActionUpload:
		return e.upload(ctx, d)
	case reconcile.ActionDownload:
		return e.download(ctx, d)
	case reconcile.ActionSoftDeleteRemoteAndTombstone:
		return e.softDeleteRemote(ctx, d)
	case reconcile.ActionRemoveLocalAndTombstone:
		return e.removeLocal(ctx, d)
	case reconcile.ActionConflict:
		return e.materializeConflict(ctx, d)
	case reconcile.ActionNoop:
		return nil
	default:
		return errors.New("syncexec: unknown action " + string(d.Action))
	}
}

func (e *Executor) bumpStats(mutate func(*Stats)) {
	mutate(&e.stats)
	e.stats.Operations++

	if e.observer != nil {
		e.observer(e.stats)
	}
}

func (e *Executor) logEvent(ctx context.Context, level journal.LogLevel, event, detail string) {
	_ = e.store.InsertLog(ctx, journal.LogEvent{
		TaskID:      e.task.ID,
		Level:       level,
		Event:       event,
		Detail:      detail,
		CreatedAtMs: time.Now().UnixMilli(),
	})
}
