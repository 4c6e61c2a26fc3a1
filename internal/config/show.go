package config

import (
	"fmt"
	"io"
	"strings"
)

// RenderEffective writes the resolved configuration as a human-readable
// annotated summary to w. This powers the "config show" command, giving
// users visibility into the effective values after all four override layers
// (defaults -> file -> env -> CLI) have been applied.
func RenderEffective(rt *ResolvedTask, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective configuration for task %q\n\n", rt.ID)

	renderTaskSection(ew, rt)
	renderFilterSection(ew, &rt.Filter)
	renderTransfersSection(ew, &rt.Transfers)
	renderSafetySection(ew, &rt.Safety)
	renderNetworkSection(ew, &rt.Network)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops, so callers can chain
// printf calls without checking each one individually.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func renderTaskSection(ew *errWriter, rt *ResolvedTask) {
	ew.printf("[task]\n")
	ew.printf("  id              = %q\n", rt.ID)
	ew.printf("  base_url        = %q\n", rt.BaseURL)
	ew.printf("  local_root      = %q\n", rt.LocalRoot)
	ew.printf("  remote_root_uri = %q\n", rt.RemoteRootURI)
	ew.printf("  mode            = %q\n", rt.Mode)
	ew.printf("  poll_interval   = %q\n", rt.PollInterval)
	ew.printf("  paused          = %t\n", rt.Paused)

	if rt.DeviceID != "" {
		ew.printf("  device_id       = %q\n", rt.DeviceID)
	}

	ew.printf("\n")
}

func renderFilterSection(ew *errWriter, f *FilterConfig) {
	ew.printf("[filter]\n")
	ew.printf("  skip_dotfiles  = %t\n", f.SkipDotfiles)
	ew.printf("  skip_symlinks  = %t\n", f.SkipSymlinks)
	ew.printf("  max_file_size  = %q\n", f.MaxFileSize)
	ew.printf("  ignore_marker  = %q\n", f.IgnoreMarker)

	if len(f.SkipFiles) > 0 {
		ew.printf("  skip_files     = [%s]\n", joinQuoted(f.SkipFiles))
	}

	if len(f.SkipDirs) > 0 {
		ew.printf("  skip_dirs      = [%s]\n", joinQuoted(f.SkipDirs))
	}

	if len(f.SyncPaths) > 0 {
		ew.printf("  sync_paths     = [%s]\n", joinQuoted(f.SyncPaths))
	}

	ew.printf("\n")
}

func renderTransfersSection(ew *errWriter, t *TransfersConfig) {
	ew.printf("[transfers]\n")
	ew.printf("  transfer_workers = %d\n", t.TransferWorkers)
	ew.printf("  check_workers    = %d\n", t.CheckWorkers)
	ew.printf("  chunk_size       = %q\n", t.ChunkSize)
	ew.printf("  bandwidth_limit  = %q\n", t.BandwidthLimit)
	ew.printf("  transfer_order   = %q\n", t.TransferOrder)
	ew.printf("\n")
}

func renderSafetySection(ew *errWriter, s *SafetyConfig) {
	ew.printf("[safety]\n")
	ew.printf("  big_delete_threshold     = %d\n", s.BigDeleteThreshold)
	ew.printf("  big_delete_percentage    = %d\n", s.BigDeletePercentage)
	ew.printf("  big_delete_min_items     = %d\n", s.BigDeleteMinItems)
	ew.printf("  min_free_space           = %q\n", s.MinFreeSpace)
	ew.printf("  use_recycle_bin          = %t\n", s.UseRecycleBin)
	ew.printf("  use_local_trash          = %t\n", s.UseLocalTrash)
	ew.printf("  sync_dir_permissions     = %q\n", s.SyncDirPermissions)
	ew.printf("  sync_file_permissions    = %q\n", s.SyncFilePermissions)
	ew.printf("  tombstone_retention_days = %d\n", s.TombstoneRetentionDays)
	ew.printf("  conflict_retention_days  = %d\n", s.ConflictRetentionDays)
	ew.printf("\n")
}

func renderNetworkSection(ew *errWriter, n *NetworkConfig) {
	ew.printf("[network]\n")
	ew.printf("  connect_timeout = %q\n", n.ConnectTimeout)
	ew.printf("  data_timeout    = %q\n", n.DataTimeout)

	if n.UserAgent != "" {
		ew.printf("  user_agent      = %q\n", n.UserAgent)
	}
}

// joinQuoted formats a string slice as comma-separated quoted values.
func joinQuoted(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}

	return strings.Join(quoted, ", ")
}
