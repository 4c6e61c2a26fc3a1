package remote

import "context"

// Delete removes every uri in uris. skipSoftDelete bypasses the service's
// own soft-delete semantics (the core's own tombstone mechanism is layered
// on top via PatchMetadata and does not depend on this flag).
func (c *Client) Delete(ctx context.Context, uris []string, skipSoftDelete bool) error {
	var resp envelope

	_, err := c.http.R().
		SetContext(ctx).
		SetBody(deleteRequest{URIs: uris, SkipSoftDelete: skipSoftDelete, Unlink: false}).
		SetSuccessResult(&resp).
		Delete("/file")

	return decodeEnvelope(resp, err)
}
