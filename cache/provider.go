// Package cache contains the store adapters for cached route responses.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrBadPattern is returned for malformed key patterns.
var ErrBadPattern = errors.New("cache: invalid key pattern")

// CacheProvider is an interface for a cache store adapter.
// It stores and retrieves []byte values, which represent HTTP responses,
// and keeps track of the remaining time to live of each entry.
// The rest of the system only talks to the store through this interface.
//
// Implementations must be thread-safe and own their underlying connection!
type CacheProvider interface {
	// Get returns the value stored under the given key, if it exists.
	// The boolean reports whether the key was present and unexpired.
	// An expired entry reads as absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores the value under the given key with the given time to live.
	// A later Set under the same key fully replaces the previous value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the entry for the given key.
	// Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys returns all unexpired keys matching the given glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// TTL returns the remaining time to live for the given key.
	// The boolean reports whether the key exists.
	TTL(ctx context.Context, key string) (time.Duration, bool, error)
	// DeletePattern removes all keys matching the given glob pattern and
	// returns the number of keys removed. Zero matches is not an error.
	DeletePattern(ctx context.Context, pattern string) (int, error)
	// Close releases the underlying store connection.
	Close() error
}

// ValidatePattern checks a glob pattern before it is used for scanning or
// invalidation. Patterns support '*' (any run of characters, including none)
// and '?' (exactly one character).
func ValidatePattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return ErrBadPattern
	}
	if strings.ContainsAny(pattern, "\n\r") {
		return ErrBadPattern
	}
	return nil
}

// matchPattern reports whether key matches the glob pattern.
// Plain iterative matcher with backtracking on '*'.
func matchPattern(pattern, key string) bool {
	pi, ki := 0, 0
	star, mark := -1, 0
	for ki < len(key) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == key[ki]):
			pi++
			ki++
		case pi < len(pattern) && pattern[pi] == '*':
			star = pi
			mark = ki
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			ki = mark
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
