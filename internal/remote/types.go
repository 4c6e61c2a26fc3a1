package remote

// envelope is the wrapper every JSON response carries. data is decoded by
// the caller into a concrete type via req's SetSuccessResult, so it is not
// represented here; envelope only carries the fields req needs to detect
// and report a non-zero code.
type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// FileKind distinguishes a directory record from a regular file record in
// a listing.
type FileKind int

const (
	KindFile FileKind = 0
	KindDir  FileKind = 1
)

// FileRecord is one entry in a list response, as returned by the service
// before any normalization.
type FileRecord struct {
	Type      FileKind          `json:"type"`
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Size      int64             `json:"size"`
	UpdatedAt string            `json:"updated_at"`
	Path      string            `json:"path"`
	Metadata  map[string]string `json:"metadata"`
}

type listData struct {
	Files      []FileRecord `json:"files"`
	NextMarker string       `json:"next_marker"`
}

type downloadURLRecord struct {
	URL                    string `json:"url"`
	StreamSaverDisplayName string `json:"stream_saver_display_name,omitempty"`
}

type createDownloadURLsRequest struct {
	URIs     []string `json:"uris"`
	Download bool     `json:"download"`
}

type createDownloadURLsData struct {
	URLs    []downloadURLRecord `json:"urls"`
	Expires string              `json:"expires"`
}

type createUploadSessionRequest struct {
	URI          string `json:"uri"`
	Size         int64  `json:"size"`
	PolicyID     string `json:"policy_id,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
}

// UploadSession describes the chunked-upload session returned by
// create_upload_session.
type UploadSession struct {
	SessionID string `json:"session_id"`
	UploadID  string `json:"upload_id,omitempty"`
	ChunkSize int64  `json:"chunk_size"`
	Expires   string `json:"expires"`
}

// MetadataPatch is one key to set or remove via patch_metadata. Omitted
// Value/Remove fields are not transmitted, matching the service's contract
// that absence and explicit removal are distinct operations.
type MetadataPatch struct {
	Key    string  `json:"key"`
	Value  *string `json:"value,omitempty"`
	Remove bool    `json:"remove,omitempty"`
}

type patchMetadataRequest struct {
	URIs    []string        `json:"uris"`
	Patches []MetadataPatch `json:"patches"`
}

type deleteRequest struct {
	URIs           []string `json:"uris"`
	SkipSoftDelete bool     `json:"skip_soft_delete"`
	Unlink         bool     `json:"unlink"`
}

// Reserved metadata keys the core reads and writes. These exact strings are
// part of the wire contract with the remote service.
const (
	MetaDeviceID    = "customize:sync_device_id"
	MetaMtimeMs     = "customize:sync_mtime_ms"
	MetaSha256      = "customize:sync_sha256"
	MetaDeletedAtMs = "customize:sync_deleted_at_ms"
	MetaConflictOf  = "customize:sync_conflict_of"
	MetaConflictTs  = "customize:sync_conflict_ts"
)
