package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/cloudsync/internal/config"
	"github.com/tonimelisma/cloudsync/internal/journal"
	"github.com/tonimelisma/cloudsync/internal/task"
)

func TestBuildRunners_OneLockPerTask(t *testing.T) {
	tmp := isolateDataDirs(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/file", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 0, "data": map[string]any{"files": []any{}}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	localRoot := filepath.Join(tmp, "sync")
	require.NoError(t, os.MkdirAll(localRoot, 0o755))

	rt := &config.ResolvedTask{
		ID:            "task1",
		BaseURL:       srv.URL,
		Token:         "secret-token",
		LocalRoot:     localRoot,
		RemoteRootURI: "cloudreve:///",
		Mode:          config.ModeBidirectional,
		PollInterval:  "5s",
	}

	store, err := journal.Open(journalDBPath(), testCLILogger())
	require.NoError(t, err)
	defer store.Close()

	reg := prometheus.NewRegistry()
	metrics := task.NewMetrics(reg)

	runners, locks, err := buildRunners([]*config.ResolvedTask{rt}, &config.Config{}, store, testCLILogger(), metrics)
	require.NoError(t, err)
	require.Len(t, runners, 1)
	require.Len(t, locks, 1)

	for _, l := range locks {
		l.Unlock()
	}
}

func TestBuildRunners_LockHeldElsewhereFails(t *testing.T) {
	tmp := isolateDataDirs(t)

	localRoot := filepath.Join(tmp, "sync")
	require.NoError(t, os.MkdirAll(localRoot, 0o755))

	rt := &config.ResolvedTask{
		ID:            "task1",
		BaseURL:       "https://example.com",
		Token:         "secret-token",
		LocalRoot:     localRoot,
		RemoteRootURI: "cloudreve:///",
		Mode:          config.ModeBidirectional,
		PollInterval:  "5s",
	}

	held := task.NewLock(journalDBPath(), rt.ID)
	require.NoError(t, held.TryLock())
	defer held.Unlock()

	store, err := journal.Open(journalDBPath(), testCLILogger())
	require.NoError(t, err)
	defer store.Close()

	reg := prometheus.NewRegistry()
	metrics := task.NewMetrics(reg)

	_, locks, err := buildRunners([]*config.ResolvedTask{rt}, &config.Config{}, store, testCLILogger(), metrics)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquiring lock")

	for _, l := range locks {
		l.Unlock()
	}
}

func TestRunServersAndRunners_ShutsDownOnContextCancel(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0"}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := runServersAndRunners(ctx, srv, nil, testCLILogger())
	assert.NoError(t, err)
}
