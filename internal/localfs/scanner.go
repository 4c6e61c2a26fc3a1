// Package localfs walks a local directory tree and hashes regular files,
// producing the per-pass local snapshot the reconciler consumes.
package localfs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"
)

// File is a transient, per-pass record of one regular file under a local
// root. It is not persisted; the journal's Entry is the durable analogue.
type File struct {
	RelPath string
	AbsPath string
	Size    int64
	MtimeMs int64
	Hash    string
}

// Scanner walks a local root producing File records. Enumeration is
// sequential (I/O-bound); hashing is fanned out across HashWorkers.
type Scanner struct {
	filter      *Filter
	logger      *slog.Logger
	hashWorkers int
}

// NewScanner returns a Scanner that hashes with the given parallelism
// (clamped to at least 1).
func NewScanner(filter *Filter, hashWorkers int, logger *slog.Logger) *Scanner {
	if hashWorkers < 1 {
		hashWorkers = 1
	}

	return &Scanner{filter: filter, logger: logger, hashWorkers: hashWorkers}
}

// Scan walks root and returns every regular file that passes the filter,
// with its content hash computed. Per-file I/O errors abort the entire
// scan: proceeding with a partial view of the local tree is never safe.
func (s *Scanner) Scan(ctx context.Context, root string) ([]File, error) {
	candidates, err := s.walk(ctx, root)
	if err != nil {
		return nil, err
	}

	if err := s.hashAll(ctx, candidates); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].RelPath < candidates[j].RelPath })

	return candidates, nil
}

// walk recursively enumerates regular files under root, following no
// symlinks out of the tree, and applies the filter cascade. It does not
// follow symlinks that point outside root regardless of SkipSymlinks.
func (s *Scanner) walk(ctx context.Context, root string) ([]File, error) {
	var files []File

	if err := s.walkDir(ctx, root, "", &files); err != nil {
		return nil, err
	}

	return files, nil
}

func (s *Scanner) walkDir(ctx context.Context, root, relDir string, out *[]File) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full := filepath.Join(root, relDir)

	entries, err := os.ReadDir(full)
	if err != nil {
		return fmt.Errorf("localfs: reading directory %s: %w", full, err)
	}

	for _, entry := range entries {
		name := norm.NFC.String(entry.Name())
		childRel := joinRel(relDir, name)

		info, infoErr := s.resolveEntry(root, relDir, entry)
		if infoErr != nil {
			return fmt.Errorf("localfs: stat %s: %w", childRel, infoErr)
		}

		if info == nil {
			continue
		}

		if info.IsDir() {
			result := s.filter.ShouldSync(childRel, true, 0)
			if !result.Included {
				s.logger.Debug("scanner: directory excluded", slog.String("relpath", childRel), slog.String("reason", result.Reason))
				continue
			}

			if err := s.walkDir(ctx, root, childRel, out); err != nil {
				return err
			}

			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}

		result := s.filter.ShouldSync(childRel, false, info.Size())
		if !result.Included {
			s.logger.Debug("scanner: file excluded", slog.String("relpath", childRel), slog.String("reason", result.Reason))
			continue
		}

		*out = append(*out, File{
			RelPath: childRel,
			AbsPath: filepath.Join(root, relDir, entry.Name()),
			Size:    info.Size(),
			MtimeMs: info.ModTime().UnixMilli(),
		})
	}

	return nil
}

// resolveEntry returns nil, nil to signal "skip this entry" (broken or
// excluded symlink). Symlinks pointing outside root are never followed.
func (s *Scanner) resolveEntry(root, relDir string, entry os.DirEntry) (os.FileInfo, error) {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.Info()
	}

	if s.filter.cfg.SkipSymlinks {
		return nil, nil
	}

	linkPath := filepath.Join(root, relDir, entry.Name())

	target, err := filepath.EvalSymlinks(linkPath)
	if err != nil {
		s.logger.Warn("scanner: broken symlink, skipping", slog.String("path", linkPath))
		return nil, nil
	}

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || hasDotDotPrefix(rel) {
		s.logger.Debug("scanner: symlink escapes root, skipping", slog.String("path", linkPath))
		return nil, nil
	}

	return os.Stat(linkPath)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 2 && rel[0] == '.' && rel[1] == '.'
}

// hashAll computes content hashes for every candidate, fanned out across
// hashWorkers.
func (s *Scanner) hashAll(ctx context.Context, files []File) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.hashWorkers)

	for i := range files {
		i := i

		g.Go(func() error {
			hash, err := hashFile(gctx, files[i].AbsPath)
			if err != nil {
				return fmt.Errorf("localfs: hashing %s: %w", files[i].RelPath, err)
			}

			files[i].Hash = hash

			return nil
		})
	}

	return g.Wait()
}

func hashFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func joinRel(parent, child string) string {
	if parent == "" {
		return child
	}

	return parent + "/" + child
}
