package localfs

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	gosync "sync"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/tonimelisma/cloudsync/internal/config"
)

// Result is the outcome of evaluating one path against the filter cascade.
type Result struct {
	Included bool
	Reason   string
}

// Filter implements the three-layer cascade described for the local scanner:
// sync_paths allowlist, config patterns (skip_files, skip_dirs, skip_dotfiles,
// max_file_size), and ignore-marker files (.syncignore by default).
type Filter struct {
	cfg      config.FilterConfig
	logger   *slog.Logger
	root     string
	maxBytes int64

	ignoreCache map[string]*ignore.GitIgnore
	mu          gosync.RWMutex
}

// New builds a Filter from the given config and local root.
func New(cfg config.FilterConfig, root string, logger *slog.Logger) *Filter {
	return &Filter{
		cfg:         cfg,
		logger:      logger,
		root:        root,
		maxBytes:    parseMaxFileSize(cfg.MaxFileSize),
		ignoreCache: make(map[string]*ignore.GitIgnore),
	}
}

// ShouldSync evaluates whether relpath (using "/" separators, relative to
// root) should be included in a pass.
func (f *Filter) ShouldSync(relpath string, isDir bool, size int64) Result {
	if result := f.checkSyncPaths(relpath, isDir); !result.Included {
		return result
	}

	if result := f.checkConfigPatterns(relpath, isDir, size); !result.Included {
		return result
	}

	return f.checkIgnoreMarker(relpath, isDir)
}

func (f *Filter) checkSyncPaths(relpath string, isDir bool) Result {
	if len(f.cfg.SyncPaths) == 0 {
		return Result{Included: true}
	}

	if f.matchesSyncPaths(relpath, isDir) {
		return Result{Included: true}
	}

	return Result{Included: false, Reason: "not in sync_paths"}
}

func (f *Filter) matchesSyncPaths(relpath string, isDir bool) bool {
	clean := filepath.ToSlash(filepath.Clean(relpath))

	for _, sp := range f.cfg.SyncPaths {
		cleanSP := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(sp)), "/")

		if clean == cleanSP || strings.HasPrefix(clean, cleanSP+"/") {
			return true
		}

		if isDir && strings.HasPrefix(cleanSP, clean+"/") {
			return true
		}
	}

	return false
}

func (f *Filter) checkConfigPatterns(relpath string, isDir bool, size int64) Result {
	name := filepath.Base(relpath)

	if f.cfg.SkipDotfiles && strings.HasPrefix(name, ".") {
		return Result{Included: false, Reason: "dotfile excluded"}
	}

	if isDir {
		if matchesAny(relpath, name, f.cfg.SkipDirs) {
			return Result{Included: false, Reason: "matches skip_dirs pattern"}
		}

		return Result{Included: true}
	}

	if matchesAny(relpath, name, f.cfg.SkipFiles) {
		return Result{Included: false, Reason: "matches skip_files pattern"}
	}

	if f.maxBytes > 0 && size > f.maxBytes {
		return Result{Included: false, Reason: "exceeds max_file_size"}
	}

	return Result{Included: true}
}

func (f *Filter) checkIgnoreMarker(relpath string, isDir bool) Result {
	if f.cfg.IgnoreMarker == "" {
		return Result{Included: true}
	}

	dir := filepath.Dir(relpath)

	gi := f.loadIgnoreFile(dir)
	if gi == nil {
		return Result{Included: true}
	}

	matchPath := filepath.ToSlash(relpath)
	if isDir {
		matchPath += "/"
	}

	if gi.MatchesPath(matchPath) {
		return Result{Included: false, Reason: "excluded by " + f.cfg.IgnoreMarker}
	}

	return Result{Included: true}
}

func (f *Filter) loadIgnoreFile(dir string) *ignore.GitIgnore {
	f.mu.RLock()
	gi, cached := f.ignoreCache[dir]
	f.mu.RUnlock()

	if cached {
		return gi
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if gi, cached = f.ignoreCache[dir]; cached {
		return gi
	}

	path := filepath.Join(f.root, dir, f.cfg.IgnoreMarker)

	parsed, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		f.logger.Debug("no ignore marker file found", slog.String("dir", dir), slog.String("path", path))
		f.ignoreCache[dir] = nil

		return nil
	}

	f.logger.Debug("loaded ignore marker file", slog.String("dir", dir), slog.String("path", path))
	f.ignoreCache[dir] = parsed

	return parsed
}

// matchesAny checks relpath and its basename against doublestar glob
// patterns, case-sensitively (doublestar does not offer a fold option, so
// patterns should match the filesystem's own case sensitivity).
func matchesAny(relpath, name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}

		if ok, _ := doublestar.Match(p, relpath); ok {
			return true
		}
	}

	return false
}

func parseMaxFileSize(s string) int64 {
	n, err := parseSizeBytes(s)
	if err != nil {
		return 0
	}

	return n
}

// parseSizeBytes is a minimal human-size parser local to this package
// (config.parseSize is unexported and owned by the config package).
func parseSizeBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}

	upper := strings.ToUpper(s)

	suffixes := []struct {
		suffix string
		factor int64
	}{
		{"TIB", 1 << 40}, {"GIB", 1 << 30}, {"MIB", 1 << 20}, {"KIB", 1 << 10},
		{"TB", 1_000_000_000_000}, {"GB", 1_000_000_000}, {"MB", 1_000_000}, {"KB", 1_000},
		{"B", 1},
	}

	for _, sf := range suffixes {
		if strings.HasSuffix(upper, sf.suffix) {
			var n float64
			if _, err := fmt.Sscanf(strings.TrimSpace(s[:len(s)-len(sf.suffix)]), "%f", &n); err != nil {
				return 0, fmt.Errorf("invalid size %q: %w", s, err)
			}

			return int64(n * float64(sf.factor)), nil
		}
	}

	var n int64
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	return n, nil
}
