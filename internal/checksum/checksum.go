// Package checksum derives the content digests used as note versions.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag formats a digest as a strong HTTP entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// Normalize strips entity-tag quoting and a weak prefix from an If-Match value.
func Normalize(ifMatch string) string {
	v := strings.TrimSpace(ifMatch)
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, `"`)
}

// Matches reports whether expected names the current content. "*" matches
// any existing content.
func Matches(expected string, current []byte) bool {
	expected = Normalize(expected)
	return expected == "*" || expected == Sum(current)
}
