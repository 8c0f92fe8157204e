// Package cache holds the Redis response cache and the local SQLite mirror
// of user profiles. Both are optional: when unavailable, callers fall through
// to the primary source.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Key returns a stable cache key for v under prefix. v is JSON-encoded and
// hashed, so structs with the same field values share a key.
func Key(prefix string, v any) string {
	b, _ := json.Marshal(v)
	sum := sha256.Sum256(b)
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// NormalizeText lowercases s and collapses whitespace so cosmetic edits to a
// pasted description still hit the cache.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
