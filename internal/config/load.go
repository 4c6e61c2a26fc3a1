package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Task sections ([task.<id>]) decode natively into
// Config.Tasks since the id is just a TOML table key. Unknown keys are
// treated as fatal errors with "did you mean?" suggestions.
func Load(path string, logger *slog.Logger) (*Config, error) {
	logger.Debug("loading config file", "path", path)

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	logger.Debug("config file parsed successfully",
		"path", path,
		"task_count", len(cfg.Tasks),
	)

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values. This supports the zero-config
// first-run experience: users can start without creating a config file.
func LoadOrDefault(path string, logger *slog.Logger) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Debug("config file not found, using defaults", "path", path)

		return DefaultConfig(), nil
	}

	return Load(path, logger)
}

// ResolveConfigPath determines the config file path using the three-layer
// priority: CLI flag > environment variable > platform default. This is the
// single correct implementation of config path resolution — all callers
// (PersistentPreRunE, ResolveTask, task commands) should use it.
func ResolveConfigPath(env EnvOverrides, cliConfigPath string, logger *slog.Logger) string {
	cfgPath := DefaultConfigPath()
	source := "default"

	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
		source = "env"
	}

	if cliConfigPath != "" {
		cfgPath = cliConfigPath
		source = "cli"
	}

	logger.Debug("config path resolved", "path", cfgPath, "source", source)

	return cfgPath
}

// LoadTask is the top-level entry point used by task-scoped commands
// (sync run, status, conflicts): it resolves the config path, loads the
// file (or defaults), selects a task via the four-layer override chain
// (defaults -> file -> env -> CLI), and validates the result.
func LoadTask(env EnvOverrides, cliConfigPath, cliTask string, logger *slog.Logger) (*ResolvedTask, *Config, error) {
	cfgPath := ResolveConfigPath(env, cliConfigPath, logger)

	cfg, err := LoadOrDefault(cfgPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	selector := env.Task
	if cliTask != "" {
		selector = cliTask
	}

	resolved, err := ResolveTask(cfg, selector)
	if err != nil {
		return nil, nil, err
	}

	if env.Token != "" {
		resolved.Token = env.Token
	}

	if err := ValidateResolved(resolved); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}

	return resolved, cfg, nil
}
