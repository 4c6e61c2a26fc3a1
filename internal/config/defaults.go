package config

// Default values for configuration options. These represent the "layer 0"
// of the four-layer override chain and are chosen to be safe, reasonable
// starting points that work for most tasks without any config file.
const (
	defaultIgnoreMarker        = ".syncignore"
	defaultMaxFileSize         = "0"
	defaultTransferWorkers     = 8
	defaultCheckWorkers        = 8
	defaultChunkSize           = "10MiB"
	defaultBandwidthLimit      = "0"
	defaultTransferOrder       = "default"
	defaultBigDeleteThreshold  = 1000
	defaultBigDeletePercentage = 50
	defaultBigDeleteMinItems   = 10
	defaultMinFreeSpace        = "1GB"
	defaultSyncDirPermissions  = "0700"
	defaultSyncFilePermissions = "0600"
	defaultTombstoneRetention  = 30
	defaultConflictRetention   = 90
	defaultPollInterval        = "30s"
	defaultMode                = "bidirectional"
	defaultConflictPattern     = "{name} (conflict-{device}-{date}){ext}"
	defaultShutdownTimeout     = "30s"
	defaultLogLevel            = "info"
	defaultLogFormat           = "auto"
	defaultLogRetentionDays    = 30
	defaultConnectTimeout      = "10s"
	defaultDataTimeout         = "60s"
)

// DefaultConfig returns a Config populated with all default values.
// This is used both as the starting point for TOML decoding (so unset
// fields retain defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Tasks:     make(map[string]Task),
		Filter:    defaultFilterConfig(),
		Transfers: defaultTransfersConfig(),
		Safety:    defaultSafetyConfig(),
		Sync:      defaultSyncConfig(),
		Logging:   defaultLoggingConfig(),
		Network:   defaultNetworkConfig(),
	}
}

func defaultFilterConfig() FilterConfig {
	return FilterConfig{
		SkipDotfiles: false,
		SkipSymlinks: false,
		MaxFileSize:  defaultMaxFileSize,
		IgnoreMarker: defaultIgnoreMarker,
	}
}

func defaultTransfersConfig() TransfersConfig {
	return TransfersConfig{
		TransferWorkers: defaultTransferWorkers,
		CheckWorkers:    defaultCheckWorkers,
		ChunkSize:       defaultChunkSize,
		BandwidthLimit:  defaultBandwidthLimit,
		TransferOrder:   defaultTransferOrder,
	}
}

func defaultSafetyConfig() SafetyConfig {
	return SafetyConfig{
		BigDeleteThreshold:     defaultBigDeleteThreshold,
		BigDeletePercentage:    defaultBigDeletePercentage,
		BigDeleteMinItems:      defaultBigDeleteMinItems,
		MinFreeSpace:           defaultMinFreeSpace,
		UseRecycleBin:          true,
		UseLocalTrash:          true,
		SyncDirPermissions:     defaultSyncDirPermissions,
		SyncFilePermissions:    defaultSyncFilePermissions,
		TombstoneRetentionDays: defaultTombstoneRetention,
		ConflictRetentionDays:  defaultConflictRetention,
	}
}

func defaultSyncConfig() SyncConfig {
	return SyncConfig{
		PollInterval:    defaultPollInterval,
		Mode:            defaultMode,
		ConflictPattern: defaultConflictPattern,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

func defaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogLevel:         defaultLogLevel,
		LogFormat:        defaultLogFormat,
		LogRetentionDays: defaultLogRetentionDays,
	}
}

func defaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		ConnectTimeout: defaultConnectTimeout,
		DataTimeout:    defaultDataTimeout,
	}
}
