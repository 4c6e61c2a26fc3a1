package journal

import (
	"context"
	"database/sql"
	"fmt"
)

const sqlInsertTombstone = `INSERT INTO tombstones (task_id, relpath, cloud_file_id, deleted_at_ms, origin)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(task_id, relpath) DO UPDATE SET
	 cloud_file_id = excluded.cloud_file_id,
	 deleted_at_ms = excluded.deleted_at_ms,
	 origin = excluded.origin`

const sqlListTombstones = `SELECT task_id, relpath, cloud_file_id, deleted_at_ms, origin
	FROM tombstones WHERE task_id = ?`

const sqlDeleteTombstone = `DELETE FROM tombstones WHERE task_id = ? AND relpath = ?`

// InsertTombstone inserts or replaces the tombstone for one path (upsert on
// conflict of the (task_id, relpath) key).
func (s *Store) InsertTombstone(ctx context.Context, t Tombstone) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: beginning insert_tombstone transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.ensureTask(ctx, tx, t.TaskID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, sqlInsertTombstone,
		t.TaskID, t.RelPath, nullString(t.CloudFileID), t.DeletedAtMs, string(t.Origin),
	)
	if err != nil {
		return fmt.Errorf("journal: inserting tombstone %s/%s: %w", t.TaskID, t.RelPath, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: committing insert_tombstone transaction: %w", err)
	}

	return nil
}

// DeleteTombstone clears a resurrected tombstone, a no-op if absent.
func (s *Store) DeleteTombstone(ctx context.Context, taskID, relPath string) error {
	_, err := s.db.ExecContext(ctx, sqlDeleteTombstone, taskID, relPath)
	if err != nil {
		return fmt.Errorf("journal: deleting tombstone %s/%s: %w", taskID, relPath, err)
	}

	return nil
}

// ListTombstones returns every tombstone row for a task.
func (s *Store) ListTombstones(ctx context.Context, taskID string) ([]Tombstone, error) {
	rows, err := s.db.QueryContext(ctx, sqlListTombstones, taskID)
	if err != nil {
		return nil, fmt.Errorf("journal: listing tombstones for %s: %w", taskID, err)
	}
	defer rows.Close()

	var tombstones []Tombstone

	for rows.Next() {
		var (
			t           Tombstone
			cloudFileID sql.NullString
			origin      string
		)

		if err := rows.Scan(&t.TaskID, &t.RelPath, &cloudFileID, &t.DeletedAtMs, &origin); err != nil {
			return nil, fmt.Errorf("journal: scanning tombstone row: %w", err)
		}

		t.CloudFileID = cloudFileID.String
		t.Origin = Origin(origin)
		tombstones = append(tombstones, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterating tombstone rows for %s: %w", taskID, err)
	}

	return tombstones, nil
}
