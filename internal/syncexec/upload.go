package syncexec

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tonimelisma/cloudsync/internal/journal"
	"github.com/tonimelisma/cloudsync/internal/reconcile"
	"github.com/tonimelisma/cloudsync/internal/remote"
)

func (e *Executor) upload(ctx context.Context, d reconcile.Decision) error {
	uri := remote.BuildURI(e.task.RemoteRootURI, d.RelPath)

	data, err := os.ReadFile(d.Local.AbsPath)
	if err != nil {
		return fmt.Errorf("syncexec: reading %s: %w", d.RelPath, err)
	}

	if err := e.putContent(ctx, uri, d.RelPath, data); err != nil {
		return err
	}

	patches := []remote.MetadataPatch{
		remote.StringPatch(remote.MetaDeviceID, e.deviceID),
		remote.StringPatch(remote.MetaMtimeMs, fmt.Sprintf("%d", d.Local.MtimeMs)),
		remote.StringPatch(remote.MetaSha256, d.Local.Hash),
	}

	if d.Entry != nil {
		patches = append(patches, remote.RemovePatch(remote.MetaDeletedAtMs))
	}

	if err := e.client.PatchMetadata(ctx, []string{uri}, patches); err != nil {
		return fmt.Errorf("syncexec: patching metadata for %s: %w", d.RelPath, err)
	}

	e.lister.InvalidateCache(e.task.RemoteRootURI)

	if err := e.store.UpsertEntry(ctx, journal.Entry{
		TaskID:            e.task.ID,
		RelPath:           d.RelPath,
		CloudURI:          uri,
		LastLocalMtimeMs:  d.Local.MtimeMs,
		LastLocalHash:     d.Local.Hash,
		LastRemoteMtimeMs: d.Local.MtimeMs,
		LastRemoteHash:    d.Local.Hash,
		LastSyncTsMs:      time.Now().UnixMilli(),
		State:             journal.StateOK,
	}); err != nil {
		return fmt.Errorf("syncexec: upserting entry for %s: %w", d.RelPath, err)
	}

	e.logEvent(ctx, journal.LevelInfo, "upload", d.RelPath)

	return nil
}

// putContent performs a whole-body PUT, falling back to a chunked,
// resumable session on FileTooLarge. relPath keys the persisted upload
// session so a crash mid-session resumes from the last acknowledged chunk.
func (e *Executor) putContent(ctx context.Context, uri, relPath string, data []byte) error {
	err := e.client.PutContent(ctx, uri, data)
	if err == nil {
		e.bumpStats(func(s *Stats) { s.UploadedBytes += int64(len(data)) })
		return nil
	}

	if !remote.IsFileTooLarge(err) {
		return fmt.Errorf("syncexec: uploading %s: %w", relPath, err)
	}

	return e.uploadWithSession(ctx, uri, relPath, data)
}

func (e *Executor) uploadWithSession(ctx context.Context, uri, relPath string, data []byte) error {
	size := int64(len(data))

	session, startIndex, chunkSize, err := e.resumeOrCreateSession(ctx, uri, relPath, size)
	if err != nil {
		return err
	}

	if chunkSize <= 0 {
		chunkSize = size
	}

	total := chunksFor(size, chunkSize)

	for i := startIndex; i < total; i++ {
		start := int64(i) * chunkSize
		end := start + chunkSize
		if end > size {
			end = size
		}

		if err := e.client.UploadChunk(ctx, session.SessionID, i, data[start:end]); err != nil {
			return fmt.Errorf("syncexec: uploading chunk %d of %s: %w", i, relPath, err)
		}

		e.bumpStats(func(s *Stats) { s.UploadedBytes += end - start })

		if err := e.store.SaveUploadSession(ctx, journal.UploadSession{
			TaskID:         e.task.ID,
			RelPath:        relPath,
			SessionID:      session.SessionID,
			ChunkSize:      chunkSize,
			TotalSize:      size,
			NextChunkIndex: i + 1,
			CreatedAtMs:    time.Now().UnixMilli(),
		}); err != nil {
			return fmt.Errorf("syncexec: saving upload session progress for %s: %w", relPath, err)
		}
	}

	if err := e.store.DeleteUploadSession(ctx, e.task.ID, relPath); err != nil {
		return fmt.Errorf("syncexec: clearing upload session for %s: %w", relPath, err)
	}

	return nil
}

// resumeOrCreateSession returns a prior session's progress if one is
// persisted and still matches this upload's size, otherwise opens a fresh
// one. A size mismatch means the local file changed since the session was
// opened, so the stale session is discarded and a new one started.
func (e *Executor) resumeOrCreateSession(ctx context.Context, uri, relPath string, size int64) (remote.UploadSession, int, int64, error) {
	saved, ok, err := e.store.GetUploadSession(ctx, e.task.ID, relPath)
	if err != nil {
		return remote.UploadSession{}, 0, 0, fmt.Errorf("syncexec: loading upload session for %s: %w", relPath, err)
	}

	if ok && saved.TotalSize == size {
		return remote.UploadSession{SessionID: saved.SessionID, ChunkSize: saved.ChunkSize}, saved.NextChunkIndex, saved.ChunkSize, nil
	}

	session, err := e.client.CreateUploadSession(ctx, uri, size, "", "")
	if err != nil {
		return remote.UploadSession{}, 0, 0, fmt.Errorf("syncexec: creating upload session for %s: %w", relPath, err)
	}

	return session, 0, session.ChunkSize, nil
}

func chunksFor(size, chunkSize int64) int {
	if chunkSize <= 0 {
		chunkSize = size
	}

	if chunkSize <= 0 {
		chunkSize = 1
	}

	n := size / chunkSize
	if size%chunkSize != 0 {
		n++
	}

	return int(n)
}
