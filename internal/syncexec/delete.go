package syncexec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tonimelisma/cloudsync/internal/journal"
	"github.com/tonimelisma/cloudsync/internal/reconcile"
	"github.com/tonimelisma/cloudsync/internal/remote"
)

// softDeleteRemote marks the remote file deleted via its metadata marker
// rather than a hard delete, so the tombstone signal survives for any
// other device still reconciling against this remote root.
func (e *Executor) softDeleteRemote(ctx context.Context, d reconcile.Decision) error {
	uri := remote.BuildURI(e.task.RemoteRootURI, d.RelPath)

	now := time.Now().UnixMilli()

	if err := e.client.PatchMetadata(ctx, []string{uri}, []remote.MetadataPatch{
		remote.StringPatch(remote.MetaDeletedAtMs, fmt.Sprintf("%d", now)),
	}); err != nil {
		return fmt.Errorf("syncexec: soft-deleting %s: %w", d.RelPath, err)
	}

	e.lister.InvalidateCache(e.task.RemoteRootURI)

	if d.InsertTombstone {
		if err := e.store.InsertTombstone(ctx, journal.Tombstone{
			TaskID:      e.task.ID,
			RelPath:     d.RelPath,
			DeletedAtMs: now,
			Origin:      journal.OriginLocal,
		}); err != nil {
			return fmt.Errorf("syncexec: recording tombstone for %s: %w", d.RelPath, err)
		}
	}

	if err := e.store.DeleteEntry(ctx, e.task.ID, d.RelPath); err != nil {
		return fmt.Errorf("syncexec: clearing entry for %s: %w", d.RelPath, err)
	}

	e.logEvent(ctx, journal.LevelInfo, "soft_delete_remote", d.RelPath)

	return nil
}

// removeLocal deletes the local file propagating a remote deletion. A
// missing file is not an error: the local side may have already removed it
// independently, or a prior pass may have been interrupted after the
// filesystem delete but before the journal update.
func (e *Executor) removeLocal(ctx context.Context, d reconcile.Decision) error {
	absPath := filepath.Join(e.task.LocalRoot, d.RelPath)

	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("syncexec: removing %s: %w", d.RelPath, err)
	}

	if d.InsertTombstone {
		var deletedAtMs int64
		if d.Remote != nil {
			deletedAtMs = d.Remote.DeletedAtMs
		}

		if err := e.store.InsertTombstone(ctx, journal.Tombstone{
			TaskID:      e.task.ID,
			RelPath:     d.RelPath,
			CloudFileID: remoteFileID(d),
			DeletedAtMs: deletedAtMs,
			Origin:      journal.OriginRemote,
		}); err != nil {
			return fmt.Errorf("syncexec: recording tombstone for %s: %w", d.RelPath, err)
		}
	}

	if err := e.store.DeleteEntry(ctx, e.task.ID, d.RelPath); err != nil {
		return fmt.Errorf("syncexec: clearing entry for %s: %w", d.RelPath, err)
	}

	e.logEvent(ctx, journal.LevelInfo, "remove_local", d.RelPath)

	return nil
}

func remoteFileID(d reconcile.Decision) string {
	if d.Remote == nil {
		return ""
	}

	return d.Remote.FileID
}
