// Package cachekey derives cache keys for route responses.
package cachekey

import (
	"crypto/md5"
	"encoding/hex"
)

const methodSeparator = ":"

// GenerateKey returns the cache key for the given request method and URI,
// with the given key prefix prepended.
// The URI must include the query string exactly as received: query parameter
// order is significant, so `/a?x=1&y=2` and `/a?y=2&x=1` yield different keys.
// This is an accepted limitation, not something to normalize away.
//
// The digest is MD5. The key is not a security boundary, it only needs to be
// collision resistant enough to keep at most one entry per request shape.
// Identical method and URI always produce the identical key, both within a
// process and across processes.
func GenerateKey(method, uri, prefix string) string {
	sum := md5.Sum([]byte(method + methodSeparator + uri))
	return prefix + hex.EncodeToString(sum[:])
}
