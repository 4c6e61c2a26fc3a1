package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutContent_SurfacesFileTooLarge(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/file/content", r.URL.Path)

		require.NoError(t, json.NewEncoder(w).Encode(envelope{Code: codeFileTooLarge, Msg: "too big"}))
	})

	err := client.PutContent(context.Background(), "cloudreve://task/sync/a.bin", []byte("data"))
	require.Error(t, err)
	assert.True(t, IsFileTooLarge(err))
}

func TestPutContent_Success(t *testing.T) {
	var gotBody []byte

	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		require.NoError(t, json.NewEncoder(w).Encode(envelope{Code: 0}))
	})

	err := client.PutContent(context.Background(), "cloudreve://task/sync/a.bin", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(gotBody))
}

func TestCreateUploadSession_FallsBackChunkSizeToWholeLength(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		resp := createUploadSessionResponse{envelope: envelope{Code: 0}, Data: UploadSession{SessionID: "s1"}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	session, err := client.CreateUploadSession(context.Background(), "cloudreve://task/sync/a.bin", 42, "", "")
	require.NoError(t, err)
	assert.Equal(t, "s1", session.SessionID)
	assert.Equal(t, int64(42), session.ChunkSize)
}

func TestUploadChunk_PostsToIndexedPath(t *testing.T) {
	var gotPath string

	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewEncoder(w).Encode(envelope{Code: 0}))
	})

	err := client.UploadChunk(context.Background(), "sess1", 3, []byte("chunk"))
	require.NoError(t, err)
	assert.Equal(t, "/file/upload/sess1/3", gotPath)
}

func TestPatchMetadata_OmitsUnsetValueAndRemoveFields(t *testing.T) {
	var gotBody patchMetadataRequest

	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		require.NoError(t, json.NewEncoder(w).Encode(envelope{Code: 0}))
	})

	err := client.PatchMetadata(context.Background(), []string{"cloudreve://task/sync/a.txt"}, []MetadataPatch{
		StringPatch(MetaSha256, "abc"),
		RemovePatch(MetaDeletedAtMs),
	})
	require.NoError(t, err)

	require.Len(t, gotBody.Patches, 2)
	require.NotNil(t, gotBody.Patches[0].Value)
	assert.Equal(t, "abc", *gotBody.Patches[0].Value)
	assert.False(t, gotBody.Patches[0].Remove)
	assert.Nil(t, gotBody.Patches[1].Value)
	assert.True(t, gotBody.Patches[1].Remove)
}

func TestDelete_SendsSkipSoftDeleteFlag(t *testing.T) {
	var gotBody deleteRequest

	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		require.NoError(t, json.NewEncoder(w).Encode(envelope{Code: 0}))
	})

	err := client.Delete(context.Background(), []string{"cloudreve://task/sync/a.txt"}, true)
	require.NoError(t, err)
	assert.True(t, gotBody.SkipSoftDelete)
	assert.False(t, gotBody.Unlink)
}

func TestDownload_FetchesResolvedURL(t *testing.T) {
	mux := http.NewServeMux()

	var fileServerURL string

	mux.HandleFunc("/file/url", func(w http.ResponseWriter, r *http.Request) {
		resp := createDownloadURLsResponse{
			envelope: envelope{Code: 0},
			Data:     createDownloadURLsData{URLs: []downloadURLRecord{{URL: fileServerURL + "/blob"}}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})
	mux.HandleFunc("/blob", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("file bytes"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	fileServerURL = srv.URL

	client := New(Config{BaseURL: srv.URL}, testLogger())

	data, err := client.Download(context.Background(), "cloudreve://task/sync/a.bin")
	require.NoError(t, err)
	assert.Equal(t, "file bytes", string(data))
}
