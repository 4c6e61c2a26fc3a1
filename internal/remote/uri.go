package remote

import (
	"net/url"
	"strings"
)

// BuildURI implements the core's single URI-build convention: plain
// concatenation, with path segments never percent-re-encoded. root and
// relpath are joined by exactly one slash regardless of existing
// leading/trailing slashes.
func BuildURI(root, relpath string) string {
	return strings.TrimRight(root, "/") + "/" + strings.TrimLeft(relpath, "/")
}

// RelPath strips root's prefix from uri and percent-decodes the remainder,
// the inverse of BuildURI. It returns ok=false if uri is not rooted at
// root, or if the derived relpath is empty (the root itself).
func RelPath(root, uri string) (string, bool) {
	prefix := strings.TrimRight(root, "/") + "/"
	if !strings.HasPrefix(uri, prefix) {
		return "", false
	}

	rest := strings.TrimPrefix(uri, prefix)

	decoded, err := url.PathUnescape(rest)
	if err != nil {
		decoded = rest
	}

	if decoded == "" {
		return "", false
	}

	return decoded, true
}
