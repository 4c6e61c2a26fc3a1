package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/imroc/req/v3"
)

type createDownloadURLsResponse struct {
	envelope
	Data createDownloadURLsData `json:"data"`
}

// CreateDownloadURLs resolves one-time URLs for the given URIs.
func (c *Client) CreateDownloadURLs(ctx context.Context, uris []string, download bool) ([]string, error) {
	var resp createDownloadURLsResponse

	_, err := c.http.R().
		SetContext(ctx).
		SetBody(createDownloadURLsRequest{URIs: uris, Download: download}).
		SetSuccessResult(&resp).
		Post("/file/url")
	if decodeErr := decodeEnvelope(resp.envelope, err); decodeErr != nil {
		return nil, decodeErr
	}

	urls := make([]string, len(resp.Data.URLs))
	for i, u := range resp.Data.URLs {
		urls[i] = u.URL
	}

	return urls, nil
}

// Download resolves uri to a download URL and fetches its bytes.
func (c *Client) Download(ctx context.Context, uri string) ([]byte, error) {
	urls, err := c.CreateDownloadURLs(ctx, []string{uri}, true)
	if err != nil {
		return nil, err
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("remote: no download url returned for %s", uri)
	}

	resp, err := c.http.R().SetContext(ctx).Get(urls[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if resp.IsErrorState() {
		return nil, fmt.Errorf("%w: download %s: http %d", ErrTransport, uri, resp.GetStatusCode())
	}

	return resp.Bytes(), nil
}

// DownloadToFile streams uri's bytes directly to destPath, invoking
// progress with cumulative bytes written as the transfer proceeds.
func (c *Client) DownloadToFile(ctx context.Context, uri, destPath string, progress func(written, total int64)) error {
	urls, err := c.CreateDownloadURLs(ctx, []string{uri}, true)
	if err != nil {
		return err
	}

	if len(urls) == 0 {
		return fmt.Errorf("remote: no download url returned for %s", uri)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("remote: preparing download destination: %w", err)
	}

	builder := c.http.R().DisableAutoReadResponse().SetContext(ctx).SetOutputFile(destPath)
	if progress != nil {
		builder = builder.SetDownloadCallbackWithInterval(func(info req.DownloadInfo) {
			progress(info.DownloadedSize, info.Response.ContentLength)
		}, time.Second)
	}

	resp, err := builder.Get(urls[0])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if resp.IsErrorState() {
		return fmt.Errorf("%w: download %s: http %d", ErrTransport, uri, resp.GetStatusCode())
	}

	return nil
}
