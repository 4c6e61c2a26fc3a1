package journal

import (
	"context"
	"database/sql"
	"fmt"
)

const sqlUpsertUploadSession = `INSERT INTO upload_sessions
	(task_id, relpath, session_id, chunk_size, total_size, next_chunk_index, created_at_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(task_id, relpath) DO UPDATE SET
	 session_id = excluded.session_id,
	 chunk_size = excluded.chunk_size,
	 total_size = excluded.total_size,
	 next_chunk_index = excluded.next_chunk_index`

const sqlGetUploadSession = `SELECT task_id, relpath, session_id, chunk_size, total_size, next_chunk_index, created_at_ms
	FROM upload_sessions WHERE task_id = ? AND relpath = ?`

const sqlDeleteUploadSession = `DELETE FROM upload_sessions WHERE task_id = ? AND relpath = ?`

// SaveUploadSession persists a chunked upload's progress, so a crash
// mid-upload can resume from NextChunkIndex instead of restarting.
func (s *Store) SaveUploadSession(ctx context.Context, u UploadSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: beginning save_upload_session transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.ensureTask(ctx, tx, u.TaskID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, sqlUpsertUploadSession,
		u.TaskID, u.RelPath, u.SessionID, u.ChunkSize, u.TotalSize, u.NextChunkIndex, u.CreatedAtMs,
	)
	if err != nil {
		return fmt.Errorf("journal: saving upload session %s/%s: %w", u.TaskID, u.RelPath, err)
	}

	return tx.Commit()
}

// GetUploadSession returns the in-flight upload session for a path, or
// ok=false if none is recorded.
func (s *Store) GetUploadSession(ctx context.Context, taskID, relPath string) (UploadSession, bool, error) {
	var (
		u         UploadSession
		sessionID string
		chunkSize int64
		totalSize int64
		nextChunk int64
		createdAt int64
	)

	row := s.db.QueryRowContext(ctx, sqlGetUploadSession, taskID, relPath)

	err := row.Scan(&u.TaskID, &u.RelPath, &sessionID, &chunkSize, &totalSize, &nextChunk, &createdAt)
	if err == sql.ErrNoRows {
		return UploadSession{}, false, nil
	}
	if err != nil {
		return UploadSession{}, false, fmt.Errorf("journal: getting upload session %s/%s: %w", taskID, relPath, err)
	}

	u.SessionID = sessionID
	u.ChunkSize = chunkSize
	u.TotalSize = totalSize
	u.NextChunkIndex = int(nextChunk)
	u.CreatedAtMs = createdAt

	return u, true, nil
}

// DeleteUploadSession clears a session once its upload completes or is
// abandoned.
func (s *Store) DeleteUploadSession(ctx context.Context, taskID, relPath string) error {
	_, err := s.db.ExecContext(ctx, sqlDeleteUploadSession, taskID, relPath)
	if err != nil {
		return fmt.Errorf("journal: deleting upload session %s/%s: %w", taskID, relPath, err)
	}

	return nil
}
