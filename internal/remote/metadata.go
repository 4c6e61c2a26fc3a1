package remote

import "context"

// PatchMetadata applies patches to the metadata of every uri in uris. A
// MetadataPatch with Remove set drops the key instead of setting a value.
func (c *Client) PatchMetadata(ctx context.Context, uris []string, patches []MetadataPatch) error {
	var resp envelope

	_, err := c.http.R().
		SetContext(ctx).
		SetBody(patchMetadataRequest{URIs: uris, Patches: patches}).
		SetSuccessResult(&resp).
		Patch("/file/metadata")

	return decodeEnvelope(resp, err)
}

// StringPatch builds a MetadataPatch that sets key to value.
func StringPatch(key, value string) MetadataPatch {
	return MetadataPatch{Key: key, Value: &value}
}

// RemovePatch builds a MetadataPatch that removes key.
func RemovePatch(key string) MetadataPatch {
	return MetadataPatch{Key: key, Remove: true}
}
