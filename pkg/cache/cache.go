// Package cache stores raw SPARQL endpoint responses between runs.
//
// Responses are keyed by the endpoint, the dataset and the final query text
// (see [Keyer]), so two queries that differ only in whitespace are distinct
// entries. Four backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry under ~/.cache/gastrodon (default)
//   - [RedisCache]: a shared Redis instance, entries expire natively
//   - [MongoCache]: a MongoDB collection with a TTL index
//   - [NullCache]: caching disabled
//
// [Open] builds the backend named in a [Config].
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry written by this cache.
	Clear(ctx context.Context) error

	// Close releases connections held by the backend.
	Close() error
}
