// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for cloudsync.
package config

// Config is the top-level configuration structure. It contains one or more
// sync tasks plus global configuration sections. Per-task section overrides
// completely replace the corresponding global section — individual fields
// are not merged field-by-field.
type Config struct {
	Tasks     map[string]Task `toml:"task"`
	Filter    FilterConfig    `toml:"filter"`
	Transfers TransfersConfig `toml:"transfers"`
	Safety    SafetyConfig    `toml:"safety"`
	Sync      SyncConfig      `toml:"sync"`
	Logging   LoggingConfig   `toml:"logging"`
	Network   NetworkConfig   `toml:"network"`
}

// FilterConfig controls which files and directories are included in a sync.
type FilterConfig struct {
	SkipFiles    []string `toml:"skip_files"`
	SkipDirs     []string `toml:"skip_dirs"`
	SkipDotfiles bool     `toml:"skip_dotfiles"`
	SkipSymlinks bool     `toml:"skip_symlinks"`
	MaxFileSize  string   `toml:"max_file_size"`
	SyncPaths    []string `toml:"sync_paths"`
	IgnoreMarker string   `toml:"ignore_marker"`
}

// TransfersConfig controls parallel workers, chunking, and bandwidth.
type TransfersConfig struct {
	TransferWorkers   int                      `toml:"transfer_workers"`
	CheckWorkers      int                      `toml:"check_workers"`
	ChunkSize         string                   `toml:"chunk_size"`
	BandwidthLimit    string                   `toml:"bandwidth_limit"`
	BandwidthSchedule []BandwidthScheduleEntry `toml:"bandwidth_schedule"`
	TransferOrder     string                   `toml:"transfer_order"`
}

// BandwidthScheduleEntry defines a time-of-day bandwidth limit.
type BandwidthScheduleEntry struct {
	Time  string `toml:"time"`
	Limit string `toml:"limit"`
}

// SafetyConfig controls protective defaults and thresholds.
type SafetyConfig struct {
	BigDeleteThreshold     int    `toml:"big_delete_threshold"`
	BigDeletePercentage    int    `toml:"big_delete_percentage"`
	BigDeleteMinItems      int    `toml:"big_delete_min_items"`
	MinFreeSpace           string `toml:"min_free_space"`
	UseRecycleBin          bool   `toml:"use_recycle_bin"`
	UseLocalTrash          bool   `toml:"use_local_trash"`
	SyncDirPermissions     string `toml:"sync_dir_permissions"`
	SyncFilePermissions    string `toml:"sync_file_permissions"`
	TombstoneRetentionDays int    `toml:"tombstone_retention_days"`
	ConflictRetentionDays  int    `toml:"conflict_retention_days"`
}

// SyncConfig controls reconciler and runner behavior.
type SyncConfig struct {
	PollInterval    string `toml:"poll_interval"`
	Mode            string `toml:"mode"`
	ConflictPattern string `toml:"conflict_pattern"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel         string `toml:"log_level"`
	LogFile          string `toml:"log_file"`
	LogFormat        string `toml:"log_format"`
	LogRetentionDays int    `toml:"log_retention_days"`
}

// NetworkConfig controls HTTP client behavior toward the remote namespace API.
type NetworkConfig struct {
	ConnectTimeout string `toml:"connect_timeout"`
	DataTimeout    string `toml:"data_timeout"`
	UserAgent      string `toml:"user_agent"`
	MetricsAddr    string `toml:"metrics_addr"`
}

// Task represents a single sync task within a TOML config file: a binding
// between one local directory tree and one remote namespace root reached
// through a base_url. Per-task section overrides (e.g. [task.photos.filter])
// completely replace the corresponding global section.
type Task struct {
	BaseURL       string `toml:"base_url"`
	Token         string `toml:"token"`
	TokenFile     string `toml:"token_file"`
	LocalRoot     string `toml:"local_root"`
	RemoteRootURI string `toml:"remote_root_uri"`
	DeviceID      string `toml:"device_id"`
	Mode          string `toml:"mode"`
	PollInterval  string `toml:"poll_interval"`
	Paused        bool   `toml:"paused"`

	// Per-task section overrides (completely replace global sections).
	Filter    *FilterConfig    `toml:"filter,omitempty"`
	Transfers *TransfersConfig `toml:"transfers,omitempty"`
	Safety    *SafetyConfig    `toml:"safety,omitempty"`
	Network   *NetworkConfig   `toml:"network,omitempty"`
}

// ResolvedTask contains task fields plus effective config sections after
// merging global defaults with per-task overrides. This is the final
// product consumed by the journal, scanner, remote client, and runner.
type ResolvedTask struct {
	ID            string
	BaseURL       string
	Token         string
	TokenFile     string
	LocalRoot     string
	RemoteRootURI string
	DeviceID      string
	Mode          string
	PollInterval  string
	Paused        bool

	Filter    FilterConfig
	Transfers TransfersConfig
	Safety    SafetyConfig
	Network   NetworkConfig
}
