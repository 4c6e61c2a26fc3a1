package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tonimelisma/cloudsync/internal/config"
	"github.com/tonimelisma/cloudsync/internal/deviceid"
	"github.com/tonimelisma/cloudsync/internal/journal"
	"github.com/tonimelisma/cloudsync/internal/localfs"
	"github.com/tonimelisma/cloudsync/internal/remote"
	"github.com/tonimelisma/cloudsync/internal/syncexec"
	"github.com/tonimelisma/cloudsync/internal/task"
)

// parseDuration parses a Go duration string, defaulting to 30s if empty.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 30 * time.Second, nil
	}

	return time.ParseDuration(s)
}

// journalDBPath returns the single shared journal database path, keyed
// internally by task_id, creating its parent directory if needed. One
// process-wide database avoids one file handle per task.
func journalDBPath() string {
	dir := config.DefaultDataDir()
	_ = os.MkdirAll(dir, 0o755)

	return filepath.Join(dir, "journal.db")
}

// deviceIDPath returns the path the per-installation device id is
// persisted at.
func deviceIDPath() string {
	return filepath.Join(config.DefaultDataDir(), "device-id")
}

// resolveTaskToken returns rt.Token, reading rt.TokenFile when rt.Token is
// unset. ValidateResolved already guarantees at least one is set.
func resolveTaskToken(rt *config.ResolvedTask) (string, error) {
	if rt.Token != "" {
		return rt.Token, nil
	}

	data, err := os.ReadFile(rt.TokenFile)
	if err != nil {
		return "", fmt.Errorf("reading token_file %s: %w", rt.TokenFile, err)
	}

	return trimToken(data), nil
}

func trimToken(data []byte) string {
	s := string(data)
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}

	return s
}

// buildRunner wires a task.Runner for rt against the shared journal
// database, following the layering every sync-facing command needs:
// journal store -> remote client/lister -> local filter/scanner ->
// executor -> runner. conflictPattern is the global sync.conflict_pattern
// template, not a per-task field on ResolvedTask.
func buildRunner(rt *config.ResolvedTask, store *journal.Store, conflictPattern string, logger *slog.Logger) (*task.Runner, error) {
	token, err := resolveTaskToken(rt)
	if err != nil {
		return nil, err
	}

	deviceID, err := deviceid.Load(deviceIDPath())
	if err != nil {
		return nil, fmt.Errorf("loading device id: %w", err)
	}

	client := remote.New(remote.Config{BaseURL: rt.BaseURL, AccessToken: token}, logger)
	lister := remote.NewLister(client, logger)
	filter := localfs.New(rt.Filter, rt.LocalRoot, logger)
	scanner := localfs.NewScanner(filter, rt.Transfers.CheckWorkers, logger)
	executor := syncexec.New(store, client, lister, rt, deviceID, conflictPattern, logger)

	pollInterval, err := parseDuration(rt.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("parsing poll_interval: %w", err)
	}

	return task.New(rt, store, scanner, lister, executor, pollInterval, logger), nil
}
