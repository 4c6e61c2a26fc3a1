package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Validation range constants.
const (
	minTransferWorkers = 1
	maxTransferWorkers = 64
	minCheckWorkers    = 1
	maxCheckWorkers    = 16
	minPercentage      = 1
	maxPercentage      = 100
	minBigDelete       = 1
	minLogRetention    = 1
	chunkAlignBytes    = 327680     // 320 KiB alignment for upload chunks
	minChunkBytes      = 10_485_760 // 10 MiB
	maxChunkBytes      = 62_914_560 // 60 MiB
	minPollInterval    = 5 * time.Second
	minShutdownTimeout = 1 * time.Second
	minConnectTimeout  = 1 * time.Second
	minDataTimeout     = 5 * time.Second
	octalBase          = 8
	minOctalDigits     = 3
	maxOctalDigits     = 4
	maxOctalValue      = 0o777
	schedulePartCount  = 2
	maxScheduleHour    = 23
	maxScheduleMinute  = 59
)

// validModes enumerates accepted task mode values.
var validModes = map[string]bool{
	ModeBidirectional: true,
	ModeUploadOnly:    true,
	ModeDownloadOnly:  true,
}

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateTasks(cfg.Tasks)...)
	errs = append(errs, validateFilter(&cfg.Filter)...)
	errs = append(errs, validateTransfers(&cfg.Transfers)...)
	errs = append(errs, validateSafety(&cfg.Safety)...)
	errs = append(errs, validateSync(&cfg.Sync)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateNetwork(&cfg.Network)...)

	return errors.Join(errs...)
}

// ValidateResolved checks cross-field constraints on a fully resolved task.
// Unlike Validate(), which checks raw config file values, this runs after the
// four-layer override chain (defaults -> file -> env -> CLI) has been applied.
// It catches constraints that only make sense on the final merged result.
func ValidateResolved(rt *ResolvedTask) error {
	var errs []error

	if rt.LocalRoot != "" && !filepath.IsAbs(rt.LocalRoot) {
		errs = append(errs, fmt.Errorf("local_root: must be absolute after expansion, got %q", rt.LocalRoot))
	}

	if rt.BaseURL == "" {
		errs = append(errs, errors.New("base_url: must not be empty"))
	}

	if rt.Token == "" && rt.TokenFile == "" {
		errs = append(errs, errors.New("token: either token or token_file must be set"))
	}

	if !validModes[rt.Mode] {
		errs = append(errs, fmt.Errorf("mode: must be one of %s, %s, %s; got %q",
			ModeBidirectional, ModeUploadOnly, ModeDownloadOnly, rt.Mode))
	}

	if err := validateDuration("poll_interval", rt.PollInterval, minPollInterval); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// validateTasks checks all task-level constraints against the raw config.
func validateTasks(tasks map[string]Task) []error {
	if len(tasks) == 0 {
		return nil
	}

	var errs []error

	localRoots := make(map[string]string, len(tasks))

	for name := range tasks {
		t := tasks[name]
		errs = append(errs, validateSingleTask(name, &t)...)
		errs = append(errs, checkDuplicateLocalRoot(name, &t, localRoots)...)
	}

	return errs
}

func validateSingleTask(name string, t *Task) []error {
	var errs []error

	if t.LocalRoot == "" {
		errs = append(errs, fmt.Errorf("task.%s.local_root: must not be empty", name))
	}

	if t.BaseURL == "" {
		errs = append(errs, fmt.Errorf("task.%s.base_url: must not be empty", name))
	}

	if t.Mode != "" && !validModes[t.Mode] {
		errs = append(errs, fmt.Errorf(
			"task.%s.mode: must be one of %s, %s, %s; got %q",
			name, ModeBidirectional, ModeUploadOnly, ModeDownloadOnly, t.Mode))
	}

	errs = append(errs, validateTaskOverrides(name, t)...)

	return errs
}

func checkDuplicateLocalRoot(name string, t *Task, seen map[string]string) []error {
	if t.LocalRoot == "" {
		return nil
	}

	expanded := expandTilde(t.LocalRoot)

	if other, exists := seen[expanded]; exists {
		return []error{fmt.Errorf(
			"task.%s.local_root: %q conflicts with task.%s (same directory)",
			name, t.LocalRoot, other)}
	}

	seen[expanded] = name

	return nil
}

// validateTaskOverrides validates per-task section overrides.
func validateTaskOverrides(name string, t *Task) []error {
	var errs []error

	if t.Filter != nil {
		errs = append(errs, validateFilter(t.Filter)...)
	}

	if t.Transfers != nil {
		errs = append(errs, validateTransfers(t.Transfers)...)
	}

	if t.Safety != nil {
		errs = append(errs, validateSafety(t.Safety)...)
	}

	if t.Network != nil {
		errs = append(errs, validateNetwork(t.Network)...)
	}

	return errs
}

func validateFilter(f *FilterConfig) []error {
	var errs []error

	if f.MaxFileSize != "" && f.MaxFileSize != "0" {
		if _, err := parseSize(f.MaxFileSize); err != nil {
			errs = append(errs, fmt.Errorf("max_file_size: %w", err))
		}
	}

	for _, p := range f.SyncPaths {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, fmt.Errorf("sync_paths: path %q must start with /", p))
		}
	}

	if f.IgnoreMarker == "" {
		errs = append(errs, errors.New("ignore_marker: must not be empty"))
	}

	return errs
}

func validateTransfers(t *TransfersConfig) []error {
	var errs []error

	if t.TransferWorkers < minTransferWorkers || t.TransferWorkers > maxTransferWorkers {
		errs = append(errs, fmt.Errorf("transfer_workers: must be between %d and %d, got %d",
			minTransferWorkers, maxTransferWorkers, t.TransferWorkers))
	}

	if t.CheckWorkers < minCheckWorkers || t.CheckWorkers > maxCheckWorkers {
		errs = append(errs, fmt.Errorf("check_workers: must be between %d and %d, got %d",
			minCheckWorkers, maxCheckWorkers, t.CheckWorkers))
	}

	errs = append(errs, validateChunkSize(t.ChunkSize)...)
	errs = append(errs, validateTransferOrder(t.TransferOrder)...)
	errs = append(errs, validateBandwidthSchedule(t.BandwidthSchedule)...)

	return errs
}

func validateChunkSize(s string) []error {
	bytes, err := parseSize(s)
	if err != nil {
		return []error{fmt.Errorf("chunk_size: %w", err)}
	}

	if bytes < minChunkBytes || bytes > maxChunkBytes {
		return []error{fmt.Errorf("chunk_size: must be between 10MiB and 60MiB, got %s", s)}
	}

	if bytes%chunkAlignBytes != 0 {
		return []error{fmt.Errorf(
			"chunk_size: must be a multiple of 320 KiB (%d bytes), got %s (%d bytes)",
			chunkAlignBytes, s, bytes)}
	}

	return nil
}

var validTransferOrders = map[string]bool{
	"default":   true,
	"size_asc":  true,
	"size_desc": true,
	"name_asc":  true,
	"name_desc": true,
}

func validateTransferOrder(order string) []error {
	if !validTransferOrders[order] {
		return []error{fmt.Errorf(
			"transfer_order: must be one of default, size_asc, size_desc, name_asc, name_desc; got %q", order)}
	}

	return nil
}

func validateBandwidthSchedule(entries []BandwidthScheduleEntry) []error {
	var errs []error

	prevMinutes := -1

	for i := range entries {
		minutes, err := parseScheduleTime(entries[i].Time)
		if err != nil {
			errs = append(errs, fmt.Errorf("bandwidth_schedule[%d].time: %w", i, err))

			continue
		}

		if prevMinutes >= 0 && minutes <= prevMinutes {
			errs = append(errs, fmt.Errorf("bandwidth_schedule: entries must be sorted by time; %q is not after %q",
				entries[i].Time, entries[max(0, i-1)].Time))
		}

		prevMinutes = minutes
	}

	return errs
}

// parseScheduleTime parses "HH:MM" and returns total minutes since midnight.
func parseScheduleTime(s string) (int, error) {
	parts := strings.SplitN(s, ":", schedulePartCount)
	if len(parts) != schedulePartCount {
		return 0, fmt.Errorf("invalid time format %q: expected HH:MM", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > maxScheduleHour {
		return 0, fmt.Errorf("invalid hour in %q: must be 00-23", s)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > maxScheduleMinute {
		return 0, fmt.Errorf("invalid minute in %q: must be 00-59", s)
	}

	return hour*int(time.Hour/time.Minute) + minute, nil
}

func validateSafety(s *SafetyConfig) []error {
	var errs []error

	if s.BigDeleteThreshold < minBigDelete {
		errs = append(errs, fmt.Errorf("big_delete_threshold: must be >= %d, got %d",
			minBigDelete, s.BigDeleteThreshold))
	}

	if s.BigDeletePercentage < minPercentage || s.BigDeletePercentage > maxPercentage {
		errs = append(errs, fmt.Errorf("big_delete_percentage: must be between %d and %d, got %d",
			minPercentage, maxPercentage, s.BigDeletePercentage))
	}

	if s.BigDeleteMinItems < minBigDelete {
		errs = append(errs, fmt.Errorf("big_delete_min_items: must be >= %d, got %d",
			minBigDelete, s.BigDeleteMinItems))
	}

	errs = append(errs, validateSafetyRemaining(s)...)

	return errs
}

func validateSafetyRemaining(s *SafetyConfig) []error {
	var errs []error

	if s.MinFreeSpace != "" && s.MinFreeSpace != "0" {
		if _, err := parseSize(s.MinFreeSpace); err != nil {
			errs = append(errs, fmt.Errorf("min_free_space: %w", err))
		}
	}

	if s.TombstoneRetentionDays < 0 {
		errs = append(errs, fmt.Errorf("tombstone_retention_days: must be >= 0, got %d", s.TombstoneRetentionDays))
	}

	if s.ConflictRetentionDays < 0 {
		errs = append(errs, fmt.Errorf("conflict_retention_days: must be >= 0, got %d", s.ConflictRetentionDays))
	}

	errs = append(errs, validateOctalPermission("sync_dir_permissions", s.SyncDirPermissions)...)
	errs = append(errs, validateOctalPermission("sync_file_permissions", s.SyncFilePermissions)...)

	return errs
}

func validateOctalPermission(field, value string) []error {
	if value == "" {
		return []error{fmt.Errorf("%s: must not be empty", field)}
	}

	if len(value) < minOctalDigits || len(value) > maxOctalDigits {
		return []error{fmt.Errorf("%s: must be 3 or 4 octal digits, got %q", field, value)}
	}

	n, err := strconv.ParseInt(value, octalBase, 32)
	if err != nil {
		return []error{fmt.Errorf("%s: invalid octal value %q", field, value)}
	}

	if n < 0 || n > maxOctalValue {
		return []error{fmt.Errorf("%s: octal value out of range %q", field, value)}
	}

	return nil
}

func validateSync(s *SyncConfig) []error {
	var errs []error

	errs = append(errs, validateDurationMin("poll_interval", s.PollInterval, minPollInterval)...)

	if s.Mode != "" && !validModes[s.Mode] {
		errs = append(errs, fmt.Errorf("mode: must be one of %s, %s, %s; got %q",
			ModeBidirectional, ModeUploadOnly, ModeDownloadOnly, s.Mode))
	}

	if s.ConflictPattern != "" && !strings.Contains(s.ConflictPattern, "{name}") {
		errs = append(errs, errors.New("conflict_pattern: must contain {name} placeholder"))
	}

	errs = append(errs, validateDurationMin("shutdown_timeout", s.ShutdownTimeout, minShutdownTimeout)...)

	return errs
}

// validateDuration checks that a duration string is valid and meets a minimum.
func validateDuration(field, value string, minimum time.Duration) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, value, err)
	}

	if d < minimum {
		return fmt.Errorf("%s: must be >= %s, got %s", field, minimum, d)
	}

	return nil
}

func validateDurationMin(field, value string, minimum time.Duration) []error {
	if err := validateDuration(field, value, minimum); err != nil {
		return []error{err}
	}

	return nil
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	errs = append(errs, validateLogLevel(l.LogLevel)...)
	errs = append(errs, validateLogFormat(l.LogFormat)...)

	if l.LogRetentionDays < minLogRetention {
		errs = append(errs, fmt.Errorf("log_retention_days: must be >= %d, got %d",
			minLogRetention, l.LogRetentionDays))
	}

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func validateLogLevel(level string) []error {
	if !validLogLevels[level] {
		return []error{fmt.Errorf("log_level: must be one of debug, info, warn, error; got %q", level)}
	}

	return nil
}

var validLogFormats = map[string]bool{
	"auto": true,
	"text": true,
	"json": true,
}

func validateLogFormat(format string) []error {
	if !validLogFormats[format] {
		return []error{fmt.Errorf("log_format: must be one of auto, text, json; got %q", format)}
	}

	return nil
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	errs = append(errs, validateDurationMin("connect_timeout", n.ConnectTimeout, minConnectTimeout)...)
	errs = append(errs, validateDurationMin("data_timeout", n.DataTimeout, minDataTimeout)...)

	return errs
}
