package remote

import (
	"context"
	"fmt"
)

type listResponse struct {
	envelope
	Data listData `json:"data"`
}

// List fetches one page of the listing at uri.
func (c *Client) List(ctx context.Context, uri string, page int) ([]FileRecord, string, error) {
	var resp listResponse

	_, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("uri", uri).
		SetQueryParam("page", fmt.Sprintf("%d", page)).
		SetSuccessResult(&resp).
		Get("/file")
	if decodeErr := decodeEnvelope(resp.envelope, err); decodeErr != nil {
		return nil, "", decodeErr
	}

	return resp.Data.Files, resp.Data.NextMarker, nil
}

// ListAll follows next_marker until it is exhausted, returning every
// record across all pages.
func (c *Client) ListAll(ctx context.Context, uri string) ([]FileRecord, error) {
	var all []FileRecord

	page := 0

	for {
		files, next, err := c.List(ctx, uri, page)
		if err != nil {
			return nil, err
		}

		all = append(all, files...)

		if next == "" {
			break
		}

		page++
	}

	return all, nil
}
