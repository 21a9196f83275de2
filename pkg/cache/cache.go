// Package cache provides the byte-level caches behind trailmap's pipeline.
//
// Three kinds of entries are cached, each under its own key family produced
// by a [Keyer]:
//
//   - pages: raw step pages fetched from the learning backend ([TTLPage])
//   - layouts: serialized [board.Layout] documents ([TTLLayout])
//   - artifacts: rendered SVG/PNG/PDF/DOT output ([TTLArtifact])
//
// Backends:
//
//   - [FileCache]: one JSON file per key under a directory; the CLI default
//   - [RedisCache]: shared cache for the HTTP server
//   - [MongoCache]: document store with TTL, for deployments already on MongoDB
//   - [NullCache]: disables caching
//
// All backends are safe for concurrent use.
//
// [board.Layout]: github.com/matzehuels/trailmap/pkg/board
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values by key with an optional TTL.
type Cache interface {
	// Get returns the value and true on a hit. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per entry kind.
const (
	TTLPage     = 10 * time.Minute
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)
