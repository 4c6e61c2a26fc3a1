package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// configFilePermissions is the standard permission mode for config files.
const configFilePermissions = 0o644

// configDirPermissions is the standard permission mode for config directories.
const configDirPermissions = 0o755

// configTemplate is the default config file content written on first run.
// A few global settings are present as commented-out defaults under their
// section headers; the other options are not listed. This template is written once
// and never regenerated — user modifications are preserved by subsequent
// text-level edits.
const configTemplate = `# cloudsync configuration

# ── Global settings ──
# Uncomment and modify to override defaults.

# Log verbosity: debug, info, warn, error
# [logging]
# log_level = "info"

# Poll interval for scheduled tasks (when no per-task override is set)
# [sync]
# poll_interval = "30s"

# ── Tasks ──
# Added automatically by 'task add'. Each [task.<id>] section binds one
# local directory tree to one remote namespace root.
`

// taskSection generates the TOML text for a new [task.<id>] section. The
// blank line before the header visually separates task sections from each
// other and from the global settings.
func taskSection(taskID, baseURL, localRoot, remoteRootURI string) string {
	return fmt.Sprintf(
		"\n[task.%s]\nbase_url = %q\nlocal_root = %q\nremote_root_uri = %q\n",
		taskID, baseURL, localRoot, remoteRootURI)
}

// CreateConfigWithTask creates a new config file from the default template
// and appends a task section. Used on first `task add` when no config file
// exists. The write is atomic (temp file + rename) and parent directories
// are created as needed.
func CreateConfigWithTask(path, taskID, baseURL, localRoot, remoteRootURI string) error {
	slog.Info("creating config file with task",
		"path", path,
		"task_id", taskID,
		"local_root", localRoot,
	)

	content := configTemplate + taskSection(taskID, baseURL, localRoot, remoteRootURI)

	return atomicWriteFile(path, []byte(content))
}

// AppendTaskSection appends a new task section at the end of an existing
// config file. Used by subsequent `task add` calls. The write is atomic to
// avoid partial writes on crash.
func AppendTaskSection(path, taskID, baseURL, localRoot, remoteRootURI string) error {
	slog.Info("appending task section to config",
		"path", path,
		"task_id", taskID,
		"local_root", localRoot,
	)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	content := string(data)

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	content += taskSection(taskID, baseURL, localRoot, remoteRootURI)

	return atomicWriteFile(path, []byte(content))
}

// SetTaskKey finds a task section by ID and sets a key-value pair. If the
// key already exists within the section, its line is replaced. If not
// found, the key is inserted on the line after the section header.
//
// Value formatting: booleans ("true"/"false") are written without quotes;
// all other values are written as quoted strings.
func SetTaskKey(path, taskID, key, value string) error {
	slog.Info("setting task key in config",
		"path", path,
		"task_id", taskID,
		"key", key,
		"value", value,
	)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	lines := strings.Split(string(data), "\n")

	headerLine, sectionStart := findSectionHeader(lines, taskID)
	if sectionStart < 0 {
		return fmt.Errorf("task section %q not found in config", taskID)
	}

	formattedValue := formatTOMLValue(value)
	newLine := fmt.Sprintf("%s = %s", key, formattedValue)

	lines = setKeyInSection(lines, headerLine, sectionStart, key, newLine)

	return atomicWriteFile(path, []byte(strings.Join(lines, "\n")))
}

// DeleteTaskKey removes a single key from a task section. Idempotent:
// returns nil if the key does not exist in the section. Used by `task
// resume` to clear the `paused` key.
func DeleteTaskKey(path, taskID, key string) error {
	slog.Info("deleting task key from config",
		"path", path,
		"task_id", taskID,
		"key", key,
	)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	lines := strings.Split(string(data), "\n")

	headerLine, sectionStart := findSectionHeader(lines, taskID)
	if sectionStart < 0 {
		return fmt.Errorf("task section %q not found in config", taskID)
	}

	lines = deleteKeyInSection(lines, headerLine, sectionStart, key)

	return atomicWriteFile(path, []byte(strings.Join(lines, "\n")))
}

// DeleteTaskSection removes a task section (header + all keys) from the
// config file. Also removes blank lines immediately preceding the section
// header for clean formatting. Used by `task remove`.
func DeleteTaskSection(path, taskID string) error {
	slog.Info("deleting task section from config", "path", path, "task_id", taskID)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	lines := strings.Split(string(data), "\n")

	headerLine, sectionStart := findSectionHeader(lines, taskID)
	if sectionStart < 0 {
		return fmt.Errorf("task section %q not found in config", taskID)
	}

	sectionEnd := findSectionEnd(lines, sectionStart)

	blankStart := headerLine
	for blankStart > 0 && strings.TrimSpace(lines[blankStart-1]) == "" {
		blankStart--
	}

	lines = append(lines[:blankStart], lines[sectionEnd:]...)

	return atomicWriteFile(path, []byte(strings.Join(lines, "\n")))
}

// findSectionHeader locates the line index of a task section header.
// Returns the header line index and the section content start (header + 1).
// Returns -1 for both if the section is not found.
func findSectionHeader(lines []string, taskID string) (int, int) {
	header := "[task." + taskID + "]"

	for i, line := range lines {
		if strings.TrimSpace(line) == header {
			return i, i + 1
		}
	}

	return -1, -1
}

// findSectionEnd returns the index of the first line after the section's
// own content. This excludes blank lines and comments that precede the
// next section header (those belong to the next section's preamble, not
// this section's content).
func findSectionEnd(lines []string, sectionStart int) int {
	nextHeader := len(lines)

	for i := sectionStart; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "[") {
			nextHeader = i

			break
		}
	}

	end := nextHeader
	for end > sectionStart {
		trimmed := strings.TrimSpace(lines[end-1])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			end--

			continue
		}

		break
	}

	return end
}

// deleteKeyInSection removes a key line from a section if it exists.
// Returns the original slice unchanged if the key is not found.
func deleteKeyInSection(lines []string, headerLine, sectionStart int, key string) []string {
	sectionEnd := findSectionEnd(lines, sectionStart)
	keyPrefix := key + " "
	keyPrefixEq := key + "="

	for i := headerLine + 1; i < sectionEnd; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, keyPrefix) || strings.HasPrefix(trimmed, keyPrefixEq) {
			return append(lines[:i], lines[i+1:]...)
		}
	}

	return lines
}

// setKeyInSection either replaces an existing key line or inserts a new
// one after the section header.
func setKeyInSection(lines []string, headerLine, sectionStart int, key, newLine string) []string {
	sectionEnd := findSectionEnd(lines, sectionStart)
	keyPrefix := key + " "
	keyPrefixEq := key + "="

	for i := headerLine + 1; i < sectionEnd; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, keyPrefix) || strings.HasPrefix(trimmed, keyPrefixEq) {
			lines[i] = newLine

			return lines
		}
	}

	inserted := make([]string, 0, len(lines)+1)
	inserted = append(inserted, lines[:headerLine+1]...)
	inserted = append(inserted, newLine)
	inserted = append(inserted, lines[headerLine+1:]...)

	return inserted
}

// formatTOMLValue formats a value for TOML output. Booleans are written
// bare (true/false); all other values are quoted strings.
func formatTOMLValue(value string) string {
	if value == "true" || value == "false" {
		return value
	}

	return fmt.Sprintf("%q", value)
}

// atomicWriteFile writes data to a temporary file in the same directory as
// path, then renames it to the target path. This prevents partial writes
// from corrupting the config file on crash. Parent directories are created
// as needed. Files are created with configFilePermissions (0644).
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirPermissions); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tempPath := f.Name()

	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()

		return fmt.Errorf("writing temp file: %w", err)
	}

	// Flush data to disk before rename. Without fsync, a power loss after
	// rename could leave the file empty (rename is metadata-only on POSIX).
	if err := f.Sync(); err != nil {
		f.Close()

		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tempPath, configFilePermissions); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	succeeded = true

	return nil
}
