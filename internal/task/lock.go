package task

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned by Lock when another process already holds
// the task's lock.
var ErrAlreadyRunning = fmt.Errorf("task: another process is already running this task")

// Lock is an advisory, per-task file lock guarding the journal database
// against two runner processes writing the same task concurrently.
type Lock struct {
	flock *flock.Flock
}

// lockPath returns the lock file path for taskID, alongside the journal
// database.
func lockPath(dbPath, taskID string) string {
	return filepath.Join(filepath.Dir(dbPath), taskID+".lock")
}

// NewLock builds a Lock for taskID's journal database.
func NewLock(dbPath, taskID string) *Lock {
	return &Lock{flock: flock.New(lockPath(dbPath, taskID))}
}

// TryLock attempts to acquire the lock without blocking, returning
// ErrAlreadyRunning if another process holds it.
func (l *Lock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.flock.Path()), 0o755); err != nil {
		return fmt.Errorf("task: creating lock directory: %w", err)
	}

	locked, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("task: acquiring lock: %w", err)
	}

	if !locked {
		return ErrAlreadyRunning
	}

	return nil
}

// Unlock releases the lock and removes the lock file, a no-op if this
// process never acquired it.
func (l *Lock) Unlock() error {
	if !l.flock.Locked() {
		return nil
	}

	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("task: releasing lock: %w", err)
	}

	return os.Remove(l.flock.Path())
}
