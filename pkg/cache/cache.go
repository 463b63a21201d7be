// Package cache provides TTL key/value stores used to memoise similarity
// search responses.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Store interface for cache backends with TTL support
type Store interface {
	// Get returns nil, nil when the key is missing or expired
	Get(key string) ([]byte, error)

	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error

	// Exists reports whether key is present and not expired
	Exists(key string) bool

	// List returns all non-expired keys
	List() []string
}

// Key derives a fixed-length cache key from its parts. Parts are joined with
// a NUL separator before hashing so ("ab","c") and ("a","bc") differ.
//
// Example:
//
//	key := cache.Key("search", "qdrant", query, strconv.Itoa(limit))
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
