package journal

import (
	"context"
	"fmt"
)

const sqlInsertConflict = `INSERT INTO conflicts
	(id, task_id, conflict_relpath, original_relpath, reason, created_at_ms)
	VALUES (?, ?, ?, ?, ?, ?)`

const sqlDeleteConflict = `DELETE FROM conflicts WHERE task_id = ? AND conflict_relpath = ?`

const sqlListConflictsForTask = `SELECT id, task_id, conflict_relpath, original_relpath, reason, created_at_ms
	FROM conflicts WHERE task_id = ? ORDER BY created_at_ms DESC`

const sqlListAllConflicts = `SELECT id, task_id, conflict_relpath, original_relpath, reason, created_at_ms
	FROM conflicts ORDER BY created_at_ms DESC`

// InsertConflict records a materialized side-by-side conflict copy.
func (s *Store) InsertConflict(ctx context.Context, c Conflict) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: beginning insert_conflict transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.ensureTask(ctx, tx, c.TaskID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, sqlInsertConflict,
		c.ID, c.TaskID, c.ConflictRelPath, c.OriginalRelPath, c.Reason, c.CreatedAtMs,
	)
	if err != nil {
		return fmt.Errorf("journal: inserting conflict %s/%s: %w", c.TaskID, c.ConflictRelPath, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: committing insert_conflict transaction: %w", err)
	}

	return nil
}

// DeleteConflict clears a resolved conflict row.
func (s *Store) DeleteConflict(ctx context.Context, taskID, conflictRelPath string) error {
	_, err := s.db.ExecContext(ctx, sqlDeleteConflict, taskID, conflictRelPath)
	if err != nil {
		return fmt.Errorf("journal: deleting conflict %s/%s: %w", taskID, conflictRelPath, err)
	}

	return nil
}

// ListConflicts returns conflicts ordered by creation time descending. An
// empty taskID lists across all tasks.
func (s *Store) ListConflicts(ctx context.Context, taskID string) ([]Conflict, error) {
	if taskID == "" {
		return s.queryConflicts(ctx, sqlListAllConflicts)
	}

	return s.queryConflicts(ctx, sqlListConflictsForTask, taskID)
}

func (s *Store) queryConflicts(ctx context.Context, query string, args ...any) ([]Conflict, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: listing conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []Conflict

	for rows.Next() {
		var c Conflict

		if err := rows.Scan(&c.ID, &c.TaskID, &c.ConflictRelPath, &c.OriginalRelPath, &c.Reason, &c.CreatedAtMs); err != nil {
			return nil, fmt.Errorf("journal: scanning conflict row: %w", err)
		}

		conflicts = append(conflicts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterating conflict rows: %w", err)
	}

	return conflicts, nil
}
