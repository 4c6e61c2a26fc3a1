package journal

// EntryState is the reconciliation state of a journal entry.
type EntryState string

const (
	StateOK      EntryState = "ok"
	StatePending EntryState = "pending"
)

// Origin identifies which side observed a deletion.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// LogLevel is the severity of a log event.
type LogLevel string

const (
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Entry is the last observed reconciled state of one file, keyed by
// (task_id, relpath).
type Entry struct {
	TaskID            string
	RelPath           string
	CloudFileID       string
	CloudURI          string
	LastLocalMtimeMs  int64
	LastLocalHash     string
	LastRemoteMtimeMs int64
	LastRemoteHash    string
	LastSyncTsMs      int64
	State             EntryState
}

// Tombstone records that a once-known path has been deleted on one side
// and propagation has been acknowledged.
type Tombstone struct {
	TaskID      string
	RelPath     string
	CloudFileID string
	DeletedAtMs int64
	Origin      Origin
}

// Conflict records an unresolved divergence materialized as a side-by-side
// copy.
type Conflict struct {
	ID              string
	TaskID          string
	ConflictRelPath string
	OriginalRelPath string
	Reason          string
	CreatedAtMs     int64
}

// LogEvent is an append-only per-task audit record.
type LogEvent struct {
	ID          int64
	TaskID      string
	Level       LogLevel
	Event       string
	Detail      string
	CreatedAtMs int64
}

// UploadSession persists the progress of a chunked upload so a crash
// mid-upload resumes from the last acknowledged chunk instead of restarting
// from byte 0.
type UploadSession struct {
	TaskID         string
	RelPath        string
	SessionID      string
	ChunkSize      int64
	TotalSize      int64
	NextChunkIndex int
	CreatedAtMs    int64
}
