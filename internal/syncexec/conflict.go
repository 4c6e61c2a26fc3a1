package syncexec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tonimelisma/cloudsync/internal/journal"
	"github.com/tonimelisma/cloudsync/internal/reconcile"
	"github.com/tonimelisma/cloudsync/internal/remote"
)

// materializeConflict copies the local file aside under a conflict name and
// uploads the copy, leaving the original local file, the original remote
// file, and the original path's journal entry untouched: convergence of the
// original path stays pending until a human resolves it via the conflicts
// list.
func (e *Executor) materializeConflict(ctx context.Context, d reconcile.Decision) error {
	now := time.Now()

	conflictRelPath := conflictPath(e.conflictPattern, d.RelPath, e.deviceID, now)
	conflictAbsPath := filepath.Join(e.task.LocalRoot, conflictRelPath)

	data, err := os.ReadFile(d.Local.AbsPath)
	if err != nil {
		return fmt.Errorf("syncexec: reading %s for conflict copy: %w", d.RelPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(conflictAbsPath), 0o755); err != nil {
		return fmt.Errorf("syncexec: creating directory for conflict copy of %s: %w", d.RelPath, err)
	}

	if err := os.WriteFile(conflictAbsPath, data, 0o644); err != nil {
		return fmt.Errorf("syncexec: writing conflict copy of %s: %w", d.RelPath, err)
	}

	conflictURI := remote.BuildURI(e.task.RemoteRootURI, conflictRelPath)

	if err := e.putContent(ctx, conflictURI, conflictRelPath, data); err != nil {
		return err
	}

	nowMs := now.UnixMilli()

	patches := []remote.MetadataPatch{
		remote.StringPatch(remote.MetaDeviceID, e.deviceID),
		remote.StringPatch(remote.MetaMtimeMs, fmt.Sprintf("%d", d.Local.MtimeMs)),
		remote.StringPatch(remote.MetaSha256, d.Local.Hash),
		remote.StringPatch(remote.MetaConflictTs, fmt.Sprintf("%d", nowMs)),
	}

	if d.Remote != nil {
		patches = append(patches, remote.StringPatch(remote.MetaConflictOf, d.Remote.FileID))
	}

	if err := e.client.PatchMetadata(ctx, []string{conflictURI}, patches); err != nil {
		return fmt.Errorf("syncexec: patching metadata for conflict copy of %s: %w", d.RelPath, err)
	}

	e.lister.InvalidateCache(e.task.RemoteRootURI)

	if err := e.store.InsertConflict(ctx, journal.Conflict{
		ID:              uuid.New().String(),
		TaskID:          e.task.ID,
		ConflictRelPath: conflictRelPath,
		OriginalRelPath: d.RelPath,
		Reason:          "both_modified",
		CreatedAtMs:     nowMs,
	}); err != nil {
		return fmt.Errorf("syncexec: recording conflict for %s: %w", d.RelPath, err)
	}

	e.logEvent(ctx, journal.LevelWarn, "conflict", d.RelPath+" -> "+conflictRelPath)

	return nil
}

// conflictPath renders pattern's placeholders ({name}, {ext}, {device},
// {date}) against relpath's stem/extension, deviceID, and the wall-clock
// timestamp now, formatted YYYYMMDD-HHMMSS.
func conflictPath(pattern, relpath, deviceID string, now time.Time) string {
	dir := filepath.Dir(relpath)
	base := filepath.Base(relpath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	name := strings.NewReplacer(
		"{name}", stem,
		"{ext}", ext,
		"{device}", deviceID,
		"{date}", now.Format("20060102-150405"),
	).Replace(pattern)

	if dir == "." {
		return name
	}

	return dir + "/" + name
}
