package task

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/cloudsync/internal/config"
	"github.com/tonimelisma/cloudsync/internal/journal"
	"github.com/tonimelisma/cloudsync/internal/localfs"
	"github.com/tonimelisma/cloudsync/internal/remote"
	"github.com/tonimelisma/cloudsync/internal/syncexec"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner(t *testing.T, mux *http.ServeMux) (*Runner, *config.ResolvedTask) {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	localRoot := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	store, err := journal.Open(dbPath, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rt := &config.ResolvedTask{
		ID:            "t1",
		LocalRoot:     localRoot,
		RemoteRootURI: "cloudreve://task/sync",
		Mode:          config.ModeBidirectional,
	}

	client := remote.New(remote.Config{BaseURL: srv.URL}, testLogger())
	lister := remote.NewLister(client, testLogger())
	filter := localfs.New(config.FilterConfig{}, localRoot, testLogger())
	scanner := localfs.NewScanner(filter, 2, testLogger())
	executor := syncexec.New(store, client, lister, rt, "device-1", "{name} (conflicted copy {device} {date}){ext}", testLogger())

	r := New(rt, store, scanner, lister, executor, time.Second, testLogger())

	return r, rt
}

func TestNew_ClampsPollIntervalToMinimum(t *testing.T) {
	r, _ := newTestRunner(t, http.NewServeMux())
	assert.Equal(t, minPollInterval, r.pollInterval)
}

func TestRunPass_UploadsNewLocalFile(t *testing.T) {
	var uploaded bool

	mux := http.NewServeMux()
	mux.HandleFunc("/file", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 0, "data": map[string]any{"files": []any{}}})
	})
	mux.HandleFunc("/file/content", func(w http.ResponseWriter, r *http.Request) {
		uploaded = true
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 0})
	})
	mux.HandleFunc("/file/metadata", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 0})
	})

	r, rt := newTestRunner(t, mux)

	require.NoError(t, os.WriteFile(filepath.Join(rt.LocalRoot, "a.txt"), []byte("hello"), 0o644))

	report, err := r.RunPass(context.Background())
	require.NoError(t, err)

	assert.True(t, uploaded)
	assert.Equal(t, 1, report.Applied)
}

func TestRunner_Cancel_StopsLoopBeforeNextPass(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/file", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 0, "data": map[string]any{"files": []any{}}})
	})

	r, _ := newTestRunner(t, mux)
	r.Cancel()

	assert.True(t, r.Cancelled())

	err := r.Run(context.Background())
	require.NoError(t, err)
}
