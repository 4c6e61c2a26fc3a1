package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxLevenshteinDistance = 3

// knownGlobalKeys are the valid leaf keys of the global [filter],
// [transfers], [safety], [sync], [logging], and [network] tables, plus the
// top-level "task" table. The same leaf names are accepted inside per-task
// section overrides.
var knownGlobalKeys = map[string]bool{
	// Filter settings
	"skip_files": true, "skip_dirs": true, "skip_dotfiles": true,
	"skip_symlinks": true, "max_file_size": true, "sync_paths": true, "ignore_marker": true,
	// Transfer settings
	"transfer_workers": true, "check_workers": true,
	"chunk_size": true, "bandwidth_limit": true, "bandwidth_schedule": true, "transfer_order": true,
	// Safety settings
	"big_delete_threshold": true, "big_delete_percentage": true, "big_delete_min_items": true,
	"min_free_space": true, "use_recycle_bin": true, "use_local_trash": true,
	"sync_dir_permissions": true, "sync_file_permissions": true,
	"tombstone_retention_days": true, "conflict_retention_days": true,
	// Sync settings
	"poll_interval": true, "mode": true, "conflict_pattern": true, "shutdown_timeout": true,
	// Logging settings
	"log_level": true, "log_file": true, "log_format": true, "log_retention_days": true,
	// Network settings
	"connect_timeout": true, "data_timeout": true, "user_agent": true, "metrics_addr": true,
	// Task table (array of per-task sections)
	"task": true,
}

// knownGlobalKeysList is the sorted slice form of knownGlobalKeys for
// Levenshtein matching. Sorted for deterministic suggestions when two
// candidates have the same edit distance.
var knownGlobalKeysList = func() []string {
	keys := make([]string, 0, len(knownGlobalKeys))
	for k := range knownGlobalKeys {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}()

// knownTaskKeys are the valid keys inside a [task.<id>] section.
var knownTaskKeys = map[string]bool{
	"base_url": true, "token": true, "token_file": true, "local_root": true,
	"remote_root_uri": true, "device_id": true, "mode": true, "poll_interval": true,
	"paused": true, "filter": true, "transfers": true, "safety": true, "network": true,
}

// knownTaskKeysList is the sorted slice form for Levenshtein matching.
var knownTaskKeysList = func() []string {
	keys := make([]string, 0, len(knownTaskKeys))
	for k := range knownTaskKeys {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}()

// checkUnknownKeys inspects TOML metadata for undecoded keys and returns
// an error with "did you mean?" suggestions for each unknown key.
func checkUnknownKeys(md *toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	var errs []error

	for _, key := range undecoded {
		keyStr := key.String()

		parts := strings.Split(keyStr, ".")

		if len(parts) >= 2 && parts[0] == "task" {
			if err := buildTaskKeyError(parts); err != nil {
				errs = append(errs, err)
			}

			continue
		}

		if err := buildGlobalKeyError(keyStr); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// buildGlobalKeyError creates a descriptive error for an unknown top-level key,
// optionally suggesting the closest known key. Returns nil if the key is a
// valid sub-field of a known key (e.g., bandwidth_schedule entries).
func buildGlobalKeyError(keyStr string) error {
	parts := strings.SplitN(keyStr, ".", 2)
	fieldName := parts[0]

	if len(parts) > 1 {
		// Nested unknown key — e.g., a sub-field of bandwidth_schedule entries.
		// These are valid TOML but undecoded because of array-of-tables structure.
		if knownGlobalKeys[fieldName] {
			return nil // parent is known, sub-field is expected
		}
	}

	suggestion := closestMatch(fieldName, knownGlobalKeysList)
	if suggestion != "" {
		return fmt.Errorf("unknown config key %q — did you mean %q?", fieldName, suggestion)
	}

	return fmt.Errorf("unknown config key %q", fieldName)
}

// buildTaskKeyError validates the leaf key of a "task.<id>.<key...>" path.
// parts is already split on "." with parts[0] == "task". A path of depth 3
// ("task.<id>.<key>") checks against knownTaskKeys. A path of depth 4+
// ("task.<id>.<section>.<key>") checks the leaf against knownGlobalKeys,
// since section overrides (filter/transfers/safety/network) share field
// names with the corresponding global sections.
func buildTaskKeyError(parts []string) error {
	if len(parts) < 3 {
		return nil // "task" or "task.<id>" alone — table itself, not a leaf
	}

	taskID := parts[1]

	if len(parts) == 3 {
		key := parts[2]
		if knownTaskKeys[key] {
			return nil
		}

		suggestion := closestMatch(key, knownTaskKeysList)
		if suggestion != "" {
			return fmt.Errorf("unknown key %q in task [%q] — did you mean %q?", key, taskID, suggestion)
		}

		return fmt.Errorf("unknown key %q in task [%q]", key, taskID)
	}

	section, leaf := parts[2], parts[len(parts)-1]
	if !knownTaskKeys[section] {
		return nil // unknown section already reported via the depth-3 case
	}

	if knownGlobalKeys[leaf] {
		return nil
	}

	suggestion := closestMatch(leaf, knownGlobalKeysList)
	if suggestion != "" {
		return fmt.Errorf("unknown key %q in task [%q].%s — did you mean %q?", leaf, taskID, section, suggestion)
	}

	return fmt.Errorf("unknown key %q in task [%q].%s", leaf, taskID, section)
}

// closestMatch finds the closest known key by Levenshtein distance.
// Returns empty string if no match is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		d := levenshtein(unknown, k)
		if d < bestDist {
			bestDist = d
			best = k
		}
	}

	if bestDist <= maxLevenshteinDistance {
		return best
	}

	return ""
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}

	if b == "" {
		return len(a)
	}

	// Use single-row optimization to avoid allocating a full matrix.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := range len(a) {
		curr[0] = i + 1

		for j := range len(b) {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}

			curr[j+1] = minOf(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// minOf returns the minimum of three integers.
func minOf(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}

	if c < m {
		m = c
	}

	return m
}
