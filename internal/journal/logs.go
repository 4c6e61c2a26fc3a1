package journal

import (
	"context"
	"fmt"
	"strings"
)

const sqlInsertLog = `INSERT INTO logs (task_id, level, event, detail, created_at_ms)
	VALUES (?, ?, ?, ?, ?)`

// InsertLog appends a log event. Log events are otherwise immutable; they
// are removed only by PruneLogs or as a side effect of DeleteTask.
func (s *Store) InsertLog(ctx context.Context, evt LogEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: beginning insert_log transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.ensureTask(ctx, tx, evt.TaskID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, sqlInsertLog, evt.TaskID, string(evt.Level), evt.Event, evt.Detail, evt.CreatedAtMs)
	if err != nil {
		return fmt.Errorf("journal: inserting log for %s: %w", evt.TaskID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: committing insert_log transaction: %w", err)
	}

	return nil
}

// LogFilter narrows ListLogs/CountLogs; zero values mean "no filter".
type LogFilter struct {
	TaskID string
	Level  LogLevel
	Limit  int
	Offset int
}

// ListLogs returns log rows newest-first, optionally filtered by task and
// level and paginated via Limit/Offset.
func (s *Store) ListLogs(ctx context.Context, f LogFilter) ([]LogEvent, error) {
	where, args := f.whereClause()

	query := "SELECT id, task_id, level, event, detail, created_at_ms FROM logs" +
		where + " ORDER BY created_at_ms DESC, id DESC"

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: listing logs: %w", err)
	}
	defer rows.Close()

	var events []LogEvent

	for rows.Next() {
		var (
			e     LogEvent
			level string
		)

		if err := rows.Scan(&e.ID, &e.TaskID, &level, &e.Event, &e.Detail, &e.CreatedAtMs); err != nil {
			return nil, fmt.Errorf("journal: scanning log row: %w", err)
		}

		e.Level = LogLevel(level)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterating log rows: %w", err)
	}

	return events, nil
}

// CountLogs returns the number of log rows matching the filter's TaskID and
// Level (Limit/Offset are ignored).
func (s *Store) CountLogs(ctx context.Context, f LogFilter) (int, error) {
	where, args := f.whereClause()

	var count int

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM logs"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("journal: counting logs: %w", err)
	}

	return count, nil
}

// PruneLogs deletes all but the newest keep log rows for a task, called
// once per pass after the executor phase to keep the log table bounded.
func (s *Store) PruneLogs(ctx context.Context, taskID string, keep int) error {
	if keep < 0 {
		keep = 0
	}

	const query = `DELETE FROM logs WHERE task_id = ? AND id NOT IN (
		SELECT id FROM logs WHERE task_id = ? ORDER BY created_at_ms DESC, id DESC LIMIT ?
	)`

	if _, err := s.db.ExecContext(ctx, query, taskID, taskID, keep); err != nil {
		return fmt.Errorf("journal: pruning logs for %s: %w", taskID, err)
	}

	return nil
}

func (f LogFilter) whereClause() (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if f.TaskID != "" {
		clauses = append(clauses, "task_id = ?")
		args = append(args, f.TaskID)
	}

	if f.Level != "" {
		clauses = append(clauses, "level = ?")
		args = append(args, string(f.Level))
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}
