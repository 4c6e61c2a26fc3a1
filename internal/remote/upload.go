package remote

import (
	"context"
	"fmt"
)

// PutContent performs a whole-body PUT of data to uri. On a FileTooLarge
// service error the caller is expected to fall back to CreateUploadSession
// plus UploadChunk; this method surfaces that error unchanged.
func (c *Client) PutContent(ctx context.Context, uri string, data []byte) error {
	var resp envelope

	_, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("uri", uri).
		SetBody(data).
		SetHeader("Content-Type", "application/octet-stream").
		SetSuccessResult(&resp).
		Put("/file/content")

	return decodeEnvelope(resp, err)
}

type createUploadSessionResponse struct {
	envelope
	Data UploadSession `json:"data"`
}

// CreateUploadSession opens a chunked upload for a file too large for a
// whole-body PUT.
func (c *Client) CreateUploadSession(ctx context.Context, uri string, size int64, lastModified, mimeType string) (UploadSession, error) {
	var resp createUploadSessionResponse

	_, err := c.http.R().
		SetContext(ctx).
		SetBody(createUploadSessionRequest{
			URI:          uri,
			Size:         size,
			LastModified: lastModified,
			MimeType:     mimeType,
		}).
		SetSuccessResult(&resp).
		Put("/file/upload")
	if decodeErr := decodeEnvelope(resp.envelope, err); decodeErr != nil {
		return UploadSession{}, decodeErr
	}

	if resp.Data.ChunkSize <= 0 {
		resp.Data.ChunkSize = size
	}

	if resp.Data.ChunkSize <= 0 {
		resp.Data.ChunkSize = 1
	}

	return resp.Data, nil
}

// UploadChunk uploads one indexed chunk of a session opened with
// CreateUploadSession.
func (c *Client) UploadChunk(ctx context.Context, sessionID string, index int, chunk []byte) error {
	var resp envelope

	_, err := c.http.R().
		SetContext(ctx).
		SetBody(chunk).
		SetHeader("Content-Type", "application/octet-stream").
		SetSuccessResult(&resp).
		Post(fmt.Sprintf("/file/upload/%s/%d", sessionID, index))

	return decodeEnvelope(resp, err)
}
