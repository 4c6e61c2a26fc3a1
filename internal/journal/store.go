// Package journal implements the durable per-task synchronization journal:
// path entries, tombstones, conflicts and log events, backed by SQLite.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the sole writer to the journal database. Every public method is
// an atomic, independently-transacted operation; concurrent callers across
// tasks are serialized by the single underlying connection.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	nowFunc func() time.Time
}

// Open opens (creating if necessary) the SQLite database at dbPath, applies
// pending migrations, and returns a ready-to-use Store. The database runs in
// WAL mode with synchronous=FULL for crash-safe durability.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"+
			"&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)",
		dbPath,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: opening database %s: %w", dbPath, err)
	}

	// Single-writer discipline: the journal is the only shared mutable
	// resource between task workers.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("journal store initialized", slog.String("db_path", dbPath))

	return &Store{
		db:      db,
		logger:  logger,
		nowFunc: time.Now,
	}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ensureTask registers the task's partition row, a no-op if it already
// exists. It is called implicitly by every per-task write so that the
// foreign-key cascade on DeleteTask is always correct regardless of
// whether the collaborator layer has ever called it explicitly.
func (s *Store) ensureTask(ctx context.Context, tx *sql.Tx, taskID string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO tasks (task_id, created_at) VALUES (?, ?) ON CONFLICT(task_id) DO NOTHING`,
		taskID, s.nowFunc().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("journal: ensuring task partition %s: %w", taskID, err)
	}

	return nil
}

// DeleteTask removes a task and cascades to all of its entries,
// tombstones, conflicts and log events.
func (s *Store) DeleteTask(ctx context.Context, taskID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE task_id = ?`, taskID)
	if err != nil {
		return fmt.Errorf("journal: deleting task %s: %w", taskID, err)
	}

	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}

	return sql.NullString{String: s, Valid: true}
}

func nullInt64(n int64) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: n, Valid: true}
}
