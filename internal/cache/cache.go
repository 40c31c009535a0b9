package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores JSON-encodable answers keyed by an opaque string.
type Cache interface {
	// Get decodes the cached value for key into dst.
	// Returns false on a cache miss.
	Get(ctx context.Context, key string, dst any) (bool, error)

	// Set stores value with TTL.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Flush drops every cached answer. Called after new papers are ingested.
	Flush(ctx context.Context) error

	// Close closes the cache connection
	Close() error
}

// Key hashes the given parts into a stable cache key.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
