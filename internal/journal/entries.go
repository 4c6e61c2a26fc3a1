package journal

import (
	"context"
	"database/sql"
	"fmt"
)

const sqlUpsertEntry = `INSERT INTO entries
	(task_id, relpath, cloud_file_id, cloud_uri, last_local_mtime_ms, last_local_hash,
	 last_remote_mtime_ms, last_remote_hash, last_sync_ts_ms, state)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(task_id, relpath) DO UPDATE SET
	 cloud_file_id = excluded.cloud_file_id,
	 cloud_uri = excluded.cloud_uri,
	 last_local_mtime_ms = excluded.last_local_mtime_ms,
	 last_local_hash = excluded.last_local_hash,
	 last_remote_mtime_ms = excluded.last_remote_mtime_ms,
	 last_remote_hash = excluded.last_remote_hash,
	 last_sync_ts_ms = excluded.last_sync_ts_ms,
	 state = excluded.state`

const sqlListEntries = `SELECT task_id, relpath, cloud_file_id, cloud_uri, last_local_mtime_ms,
	last_local_hash, last_remote_mtime_ms, last_remote_hash, last_sync_ts_ms, state
	FROM entries WHERE task_id = ?`

const sqlDeleteEntry = `DELETE FROM entries WHERE task_id = ? AND relpath = ?`

// UpsertEntry inserts or replaces the journal row for one path.
func (s *Store) UpsertEntry(ctx context.Context, e Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: beginning upsert_entry transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.ensureTask(ctx, tx, e.TaskID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, sqlUpsertEntry,
		e.TaskID, e.RelPath,
		nullString(e.CloudFileID), nullString(e.CloudURI),
		nullInt64(e.LastLocalMtimeMs), nullString(e.LastLocalHash),
		nullInt64(e.LastRemoteMtimeMs), nullString(e.LastRemoteHash),
		e.LastSyncTsMs, string(e.State),
	)
	if err != nil {
		return fmt.Errorf("journal: upserting entry %s/%s: %w", e.TaskID, e.RelPath, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: committing upsert_entry transaction: %w", err)
	}

	return nil
}

// ListEntries returns every journal row for a task, keyed by nothing in
// particular — callers index the slice by RelPath as needed.
func (s *Store) ListEntries(ctx context.Context, taskID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, sqlListEntries, taskID)
	if err != nil {
		return nil, fmt.Errorf("journal: listing entries for %s: %w", taskID, err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		e, err := scanEntryRow(rows)
		if err != nil {
			return nil, err
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterating entry rows for %s: %w", taskID, err)
	}

	return entries, nil
}

// DeleteEntry removes the journal row for one path, a no-op if absent.
func (s *Store) DeleteEntry(ctx context.Context, taskID, relPath string) error {
	_, err := s.db.ExecContext(ctx, sqlDeleteEntry, taskID, relPath)
	if err != nil {
		return fmt.Errorf("journal: deleting entry %s/%s: %w", taskID, relPath, err)
	}

	return nil
}

func scanEntryRow(rows *sql.Rows) (Entry, error) {
	var (
		e           Entry
		cloudFileID sql.NullString
		cloudURI    sql.NullString
		localMtime  sql.NullInt64
		localHash   sql.NullString
		remoteMtime sql.NullInt64
		remoteHash  sql.NullString
		state       string
	)

	err := rows.Scan(
		&e.TaskID, &e.RelPath, &cloudFileID, &cloudURI,
		&localMtime, &localHash, &remoteMtime, &remoteHash,
		&e.LastSyncTsMs, &state,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: scanning entry row: %w", err)
	}

	e.CloudFileID = cloudFileID.String
	e.CloudURI = cloudURI.String
	e.LastLocalMtimeMs = localMtime.Int64
	e.LastLocalHash = localHash.String
	e.LastRemoteMtimeMs = remoteMtime.Int64
	e.LastRemoteHash = remoteHash.String
	e.State = EntryState(state)

	return e, nil
}
