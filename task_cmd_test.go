package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateDataDirs points XDG_CONFIG_HOME and XDG_DATA_HOME at a fresh temp
// tree so tests never touch a real user's config or journal database.
func isolateDataDirs(t *testing.T) string {
	t.Helper()

	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))

	return tmp
}

func TestTaskAdd_CreatesConfigAndTask(t *testing.T) {
	tmp := isolateDataDirs(t)
	cfgPath := filepath.Join(tmp, "config.toml")
	localRoot := filepath.Join(tmp, "sync")
	require.NoError(t, os.MkdirAll(localRoot, 0o755))

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--config", cfgPath,
		"task", "add", "mytask",
		"--base-url", "https://example.com",
		"--local-root", localRoot,
		"--token", "secret-token",
	})

	err := cmd.Execute()
	require.NoError(t, err)

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[task.mytask]")
	assert.Contains(t, string(data), "secret-token")
}

func TestTaskAdd_MissingRequiredFlags(t *testing.T) {
	isolateDataDirs(t)
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.toml")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "task", "add", "mytask"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--base-url and --local-root are required")
}

func TestTaskList_EmptyConfig(t *testing.T) {
	isolateDataDirs(t)
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "nonexistent.toml")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "task", "list"})

	err := cmd.Execute()
	require.NoError(t, err)
}

func TestTaskList_ShowsAddedTask(t *testing.T) {
	tmp := isolateDataDirs(t)
	cfgPath := filepath.Join(tmp, "config.toml")
	localRoot := filepath.Join(tmp, "sync")
	require.NoError(t, os.MkdirAll(localRoot, 0o755))

	addCmd := newRootCmd()
	addCmd.SetArgs([]string{
		"--config", cfgPath, "task", "add", "mytask",
		"--base-url", "https://example.com",
		"--local-root", localRoot,
		"--token", "secret-token",
	})
	require.NoError(t, addCmd.Execute())

	listCmd := newRootCmd()
	listCmd.SetArgs([]string{"--config", cfgPath, "task", "list"})
	require.NoError(t, listCmd.Execute())
}

func TestTaskRemove_DeletesSectionAndJournalState(t *testing.T) {
	tmp := isolateDataDirs(t)
	cfgPath := filepath.Join(tmp, "config.toml")
	localRoot := filepath.Join(tmp, "sync")
	require.NoError(t, os.MkdirAll(localRoot, 0o755))

	addCmd := newRootCmd()
	addCmd.SetArgs([]string{
		"--config", cfgPath, "task", "add", "mytask",
		"--base-url", "https://example.com",
		"--local-root", localRoot,
		"--token", "secret-token",
	})
	require.NoError(t, addCmd.Execute())

	removeCmd := newRootCmd()
	removeCmd.SetArgs([]string{"--config", cfgPath, "task", "remove", "mytask"})
	require.NoError(t, removeCmd.Execute())

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "[task.mytask]")
}

func TestTaskTest_ConnectivityOK(t *testing.T) {
	tmp := isolateDataDirs(t)
	cfgPath := filepath.Join(tmp, "config.toml")
	localRoot := filepath.Join(tmp, "sync")
	require.NoError(t, os.MkdirAll(localRoot, 0o755))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":0,"data":{"files":[],"next_marker":""}}`))
	}))
	defer server.Close()

	addCmd := newRootCmd()
	addCmd.SetArgs([]string{
		"--config", cfgPath, "task", "add", "mytask",
		"--base-url", server.URL,
		"--local-root", localRoot,
		"--token", "secret-token",
	})
	require.NoError(t, addCmd.Execute())

	testCmd := newRootCmd()
	testCmd.SetArgs([]string{"--config", cfgPath, "task", "test", "mytask"})
	err := testCmd.Execute()
	require.NoError(t, err)
}

func TestTaskTest_ConnectivityFailure(t *testing.T) {
	tmp := isolateDataDirs(t)
	cfgPath := filepath.Join(tmp, "config.toml")
	localRoot := filepath.Join(tmp, "sync")
	require.NoError(t, os.MkdirAll(localRoot, 0o755))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":401,"msg":"unauthorized"}`))
	}))
	defer server.Close()

	addCmd := newRootCmd()
	addCmd.SetArgs([]string{
		"--config", cfgPath, "task", "add", "mytask",
		"--base-url", server.URL,
		"--local-root", localRoot,
		"--token", "bad-token",
	})
	require.NoError(t, addCmd.Execute())

	testCmd := newRootCmd()
	testCmd.SetArgs([]string{"--config", cfgPath, "task", "test", "mytask"})
	err := testCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connectivity probe failed")
}
