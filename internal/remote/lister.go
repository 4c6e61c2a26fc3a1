package remote

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// File is a transient, per-pass record of one remote file under a task's
// remote root, normalized from the service's raw listing records.
type File struct {
	RelPath     string
	URI         string
	FileID      string
	Size        int64
	MtimeMs     int64
	Hash        string
	DeletedAtMs int64 // 0 if not soft-deleted
}

// listCacheTTL bounds how long a cached listing is trusted before a fresh
// fetch is required; short enough that a poll loop's next pass still sees
// changes promptly.
const listCacheTTL = 10 * time.Second

// Lister wraps the transport's list operation, normalizing records into
// File values and caching each root's complete listing to absorb bursts of reconciler
// passes against an unchanged remote root.
type Lister struct {
	client *Client
	logger *slog.Logger
	cache  *lru.LRU[string, []FileRecord]
}

// NewLister builds a Lister over client.
func NewLister(client *Client, logger *slog.Logger) *Lister {
	return &Lister{
		client: client,
		logger: logger,
		cache:  lru.NewLRU[string, []FileRecord](64, nil, listCacheTTL),
	}
}

// List returns every non-directory record under remoteRootURI, normalized
// per the lister's rules: mtime from sync_mtime_ms metadata else
// updated_at else now, hash from sync_sha256, deleted_at_ms from
// sync_deleted_at_ms, relpath derived by stripping remoteRootURI and
// percent-decoding. Directories and records with an empty relpath are
// dropped.
func (l *Lister) List(ctx context.Context, remoteRootURI string) ([]File, error) {
	records, ok := l.cache.Get(remoteRootURI)
	if !ok {
		var err error

		records, err = l.client.ListAll(ctx, remoteRootURI)
		if err != nil {
			return nil, err
		}

		l.cache.Add(remoteRootURI, records)
	}

	files := make([]File, 0, len(records))

	for _, rec := range records {
		if rec.Type == KindDir {
			continue
		}

		relpath, ok := RelPath(remoteRootURI, rec.Path)
		if !ok {
			continue
		}

		files = append(files, File{
			RelPath:     relpath,
			URI:         rec.Path,
			FileID:      rec.ID,
			Size:        rec.Size,
			MtimeMs:     normalizeMtime(rec),
			Hash:        rec.Metadata[MetaSha256],
			DeletedAtMs: normalizeDeletedAt(rec),
		})
	}

	return files, nil
}

// InvalidateCache drops the cached listing for remoteRootURI, forcing the next
// List to fetch fresh. The executor calls this after a write so the next
// reconciler pass observes it immediately rather than waiting out the TTL.
func (l *Lister) InvalidateCache(remoteRootURI string) {
	l.cache.Remove(remoteRootURI)
}

func normalizeMtime(rec FileRecord) int64 {
	if raw, ok := rec.Metadata[MetaMtimeMs]; ok {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return ms
		}
	}

	if rec.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339, rec.UpdatedAt); err == nil {
			return t.UnixMilli()
		}
	}

	return time.Now().UnixMilli()
}

func normalizeDeletedAt(rec FileRecord) int64 {
	raw, ok := rec.Metadata[MetaDeletedAtMs]
	if !ok {
		return 0
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}

	return ms
}
