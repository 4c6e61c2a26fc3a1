package syncexec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tonimelisma/cloudsync/internal/journal"
	"github.com/tonimelisma/cloudsync/internal/reconcile"
)

func (e *Executor) download(ctx context.Context, d reconcile.Decision) error {
	absPath := filepath.Join(e.task.LocalRoot, d.RelPath)

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("syncexec: creating directory for %s: %w", d.RelPath, err)
	}

	data, err := e.client.Download(ctx, d.Remote.URI)
	if err != nil {
		return fmt.Errorf("syncexec: downloading %s: %w", d.RelPath, err)
	}

	if err := os.WriteFile(absPath, data, 0o644); err != nil {
		return fmt.Errorf("syncexec: writing %s: %w", d.RelPath, err)
	}

	mtime := time.UnixMilli(d.Remote.MtimeMs)
	if err := os.Chtimes(absPath, mtime, mtime); err != nil {
		return fmt.Errorf("syncexec: setting mtime for %s: %w", d.RelPath, err)
	}

	if err := e.store.UpsertEntry(ctx, journal.Entry{
		TaskID:            e.task.ID,
		RelPath:           d.RelPath,
		CloudFileID:       d.Remote.FileID,
		CloudURI:          d.Remote.URI,
		LastLocalMtimeMs:  d.Remote.MtimeMs,
		LastLocalHash:     d.Remote.Hash,
		LastRemoteMtimeMs: d.Remote.MtimeMs,
		LastRemoteHash:    d.Remote.Hash,
		LastSyncTsMs:      time.Now().UnixMilli(),
		State:             journal.StateOK,
	}); err != nil {
		return fmt.Errorf("syncexec: upserting entry for %s: %w", d.RelPath, err)
	}

	e.bumpStats(func(s *Stats) { s.DownloadedBytes += int64(len(data)) })
	e.logEvent(ctx, journal.LevelInfo, "download", d.RelPath)

	return nil
}
