// Package cache stores converted geometry and rendered artifacts between
// runs.
//
// # Backends
//
//   - [NullCache]: never stores anything (--no-cache, tests)
//   - [FileCache]: one JSON file per entry under a directory (CLI)
//   - [RedisCache]: a shared Redis instance (HTTP server with several replicas)
//   - [MongoCache]: a MongoDB collection with a TTL index
//
// # Keys
//
// Keys are derived by a [Keyer] from a content hash of the input archive and
// the options that influence the output, so a cached entry is never served
// for a different archive or option set:
//
//	k := cache.NewDefaultKeyer()
//	geomKey := k.GeometryKey(cache.Hash(archive), cache.GeometryKeyOpts{Orientation: "billboard"})
//	geomHash := cache.NewDigest().Text(mesh.Name).Float32s(mesh.Positions).Sum()
//	objKey := k.ArtifactKey(geomHash, cache.ArtifactKeyOpts{Format: "obj"})
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiration.
// Get reports a miss with ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Default TTLs for cached entries.
const (
	GeometryTTL = 7 * 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)
