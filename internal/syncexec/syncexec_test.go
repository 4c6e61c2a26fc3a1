package syncexec

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/cloudsync/internal/config"
	"github.com/tonimelisma/cloudsync/internal/journal"
	"github.com/tonimelisma/cloudsync/internal/remote"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *journal.Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "journal.db")

	s, err := journal.Open(dbPath, testLogger())
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, s.Close()) })

	return s
}

// newTestExecutor wires an Executor against a SQLite journal file, a
// local root under t.TempDir(), and an httptest server standing in for the
// remote transport.
func newTestExecutor(t *testing.T, mux *http.ServeMux) (*Executor, string, string) {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	localRoot := t.TempDir()

	task := &config.ResolvedTask{
		ID:            "t1",
		LocalRoot:     localRoot,
		RemoteRootURI: "cloudreve://task/sync",
		Mode:          config.ModeBidirectional,
	}

	client := remote.New(remote.Config{BaseURL: srv.URL}, testLogger())
	lister := remote.NewLister(client, testLogger())
	store := newTestStore(t)

	exec := New(store, client, lister, task, "device-1", "{name} (conflicted copy {device} {date}){ext}", testLogger())

	return exec, localRoot, srv.URL
}
