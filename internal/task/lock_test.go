package task

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock_TryLock_AcquiresAndUnlockRemovesFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	l := NewLock(dbPath, "t1")
	require.NoError(t, l.TryLock())

	assert.FileExists(t, lockPath(dbPath, "t1"))
	require.NoError(t, l.Unlock())
	assert.NoFileExists(t, lockPath(dbPath, "t1"))
}

func TestLock_TryLock_FailsWhenAlreadyHeld(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	first := NewLock(dbPath, "t1")
	require.NoError(t, first.TryLock())
	t.Cleanup(func() { _ = first.Unlock() })

	second := NewLock(dbPath, "t1")
	err := second.TryLock()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyRunning))
}

func TestLock_Unlock_NoopWhenNeverAcquired(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	l := NewLock(dbPath, "t1")
	assert.NoError(t, l.Unlock())
}
