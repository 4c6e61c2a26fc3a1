package config

import (
	"fmt"
	"sort"
)

// Valid sync modes.
const (
	ModeBidirectional = "bidirectional"
	ModeUploadOnly    = "upload-only"
	ModeDownloadOnly  = "download-only"
)

// Default remote root when none is specified.
const defaultRemoteRootURI = "cloudreve:///"

// Default task name when --task is omitted and exactly one task exists.
const defaultTaskName = "default"

// ResolveTask merges global defaults with task-specific overrides. If
// taskName is empty, the default task is selected. Section-level override
// semantics are "replace, not merge" — if a task defines [task.photos.filter],
// that entire FilterConfig replaces the global one.
func ResolveTask(cfg *Config, taskName string) (*ResolvedTask, error) {
	name, err := resolveTaskName(cfg, taskName)
	if err != nil {
		return nil, err
	}

	task := cfg.Tasks[name]

	resolved := &ResolvedTask{
		ID:            name,
		BaseURL:       task.BaseURL,
		Token:         task.Token,
		TokenFile:     task.TokenFile,
		LocalRoot:     expandTilde(task.LocalRoot),
		RemoteRootURI: task.RemoteRootURI,
		DeviceID:      task.DeviceID,
		Mode:          task.Mode,
		PollInterval:  task.PollInterval,
		Paused:        task.Paused,
	}

	if resolved.RemoteRootURI == "" {
		resolved.RemoteRootURI = defaultRemoteRootURI
	}

	if resolved.Mode == "" {
		resolved.Mode = cfg.Sync.Mode
	}

	if resolved.PollInterval == "" {
		resolved.PollInterval = cfg.Sync.PollInterval
	}

	resolveTaskSections(resolved, &task, cfg)

	return resolved, nil
}

// ResolveTasks resolves every task defined in the config, applying global
// defaults and per-task overrides. When selectors is non-empty, only tasks
// matching those IDs are included. When includePaused is false, paused
// tasks are excluded. Results are sorted by task ID for deterministic
// ordering.
func ResolveTasks(cfg *Config, selectors []string, includePaused bool) ([]*ResolvedTask, error) {
	if len(cfg.Tasks) == 0 {
		return nil, nil
	}

	ids := selectors
	if len(ids) == 0 {
		for id := range cfg.Tasks {
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)

	var resolved []*ResolvedTask

	for _, id := range ids {
		if _, ok := cfg.Tasks[id]; !ok {
			return nil, fmt.Errorf("task %q not found in config", id)
		}

		rt, err := ResolveTask(cfg, id)
		if err != nil {
			return nil, fmt.Errorf("resolving task %q: %w", id, err)
		}

		if !includePaused && rt.Paused {
			continue
		}

		resolved = append(resolved, rt)
	}

	return resolved, nil
}

// resolveTaskSections fills effective config sections on the resolved task.
func resolveTaskSections(resolved *ResolvedTask, task *Task, cfg *Config) {
	resolved.Filter = resolveSection(task.Filter, cfg.Filter)
	resolved.Transfers = resolveSection(task.Transfers, cfg.Transfers)
	resolved.Safety = resolveSection(task.Safety, cfg.Safety)
	resolved.Network = resolveSection(task.Network, cfg.Network)
}

// resolveSection returns the task override if present, otherwise the global value.
func resolveSection[T any](taskOverride *T, global T) T {
	if taskOverride != nil {
		return *taskOverride
	}

	return global
}

// resolveTaskName determines which task to use.
func resolveTaskName(cfg *Config, taskName string) (string, error) {
	if len(cfg.Tasks) == 0 {
		return "", fmt.Errorf("no tasks defined in config")
	}

	if taskName != "" {
		return lookupExplicitTask(cfg, taskName)
	}

	return lookupDefaultTask(cfg)
}

// lookupExplicitTask validates that the named task exists.
func lookupExplicitTask(cfg *Config, name string) (string, error) {
	if _, ok := cfg.Tasks[name]; !ok {
		return "", fmt.Errorf("task %q not found in config", name)
	}

	return name, nil
}

// lookupDefaultTask finds the default task when no name is given.
func lookupDefaultTask(cfg *Config) (string, error) {
	if _, ok := cfg.Tasks[defaultTaskName]; ok {
		return defaultTaskName, nil
	}

	if len(cfg.Tasks) == 1 {
		for name := range cfg.Tasks {
			return name, nil
		}
	}

	return "", fmt.Errorf(
		"multiple tasks defined but none named %q; use --task to select one",
		defaultTaskName)
}
