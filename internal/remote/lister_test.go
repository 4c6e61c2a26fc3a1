package remote

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Config{BaseURL: srv.URL}, testLogger()), srv
}

func TestLister_List_NormalizesAndFiltersDirectories(t *testing.T) {
	root := "cloudreve://task/sync"

	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/file", r.URL.Path)

		resp := listResponse{
			envelope: envelope{Code: 0},
			Data: listData{
				Files: []FileRecord{
					{Type: KindDir, Path: root + "/sub"},
					{
						Type:      KindFile,
						ID:        "f1",
						Path:      root + "/a.txt",
						Size:      5,
						UpdatedAt: "2024-01-01T00:00:00Z",
						Metadata: map[string]string{
							MetaMtimeMs: "123",
							MetaSha256:  "abc",
						},
					},
				},
			},
		}

		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	lister := NewLister(client, testLogger())

	files, err := lister.List(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, files, 1)

	assert.Equal(t, "a.txt", files[0].RelPath)
	assert.Equal(t, int64(123), files[0].MtimeMs)
	assert.Equal(t, "abc", files[0].Hash)
	assert.Equal(t, int64(0), files[0].DeletedAtMs)
}

func TestLister_List_FallsBackToUpdatedAtWhenMetadataMissing(t *testing.T) {
	root := "cloudreve://task/sync"

	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		resp := listResponse{
			envelope: envelope{Code: 0},
			Data: listData{
				Files: []FileRecord{
					{Type: KindFile, Path: root + "/b.txt", UpdatedAt: "2024-06-01T12:00:00Z"},
				},
			},
		}

		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	lister := NewLister(client, testLogger())

	files, err := lister.List(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.NotZero(t, files[0].MtimeMs)
}

func TestLister_List_ReadsDeletedAtMetadata(t *testing.T) {
	root := "cloudreve://task/sync"

	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		resp := listResponse{
			envelope: envelope{Code: 0},
			Data: listData{
				Files: []FileRecord{
					{Type: KindFile, Path: root + "/c.txt", Metadata: map[string]string{MetaDeletedAtMs: "999"}},
				},
			},
		}

		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	lister := NewLister(client, testLogger())

	files, err := lister.List(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, int64(999), files[0].DeletedAtMs)
}

func TestLister_List_CachesUntilInvalidated(t *testing.T) {
	root := "cloudreve://task/sync"

	calls := 0

	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++

		resp := listResponse{envelope: envelope{Code: 0}, Data: listData{}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	lister := NewLister(client, testLogger())

	_, err := lister.List(context.Background(), root)
	require.NoError(t, err)
	_, err = lister.List(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)

	lister.InvalidateCache(root)

	_, err = lister.List(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestList_FollowsNextMarker(t *testing.T) {
	root := "cloudreve://task/sync"

	pages := 0

	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		pages++

		var resp listResponse
		resp.Code = 0

		if r.URL.Query().Get("page") == "0" {
			resp.Data = listData{
				Files:      []FileRecord{{Type: KindFile, Path: root + "/p0.txt"}},
				NextMarker: "1",
			}
		} else {
			resp.Data = listData{Files: []FileRecord{{Type: KindFile, Path: root + "/p1.txt"}}}
		}

		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	records, err := client.ListAll(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, pages)
}

func TestClient_Ping_SurfacesServiceError(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		resp := envelope{Code: codeUnauthorized, Msg: "nope"}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
