package cache

import (
	"context"
	"time"
)

// NullCache stores nothing: every geometry and artifact lookup misses, so
// each conversion decodes and builds the archive again. It backs
// backend = "none", the --no-cache flags and tests that must not see
// earlier runs.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache {
	return &NullCache{}
}

// Get reports a miss, or the context error once ctx is done.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, ctx.Err()
}

// Set discards the entry.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return ctx.Err()
}

// Delete has nothing to remove.
func (c *NullCache) Delete(ctx context.Context, key string) error {
	return ctx.Err()
}

// Clear removes nothing and reports zero entries.
func (c *NullCache) Clear(ctx context.Context) (int, error) {
	return 0, ctx.Err()
}

// Close has no resources to release.
func (c *NullCache) Close() error {
	return nil
}

var (
	_ Cache   = (*NullCache)(nil)
	_ Clearer = (*NullCache)(nil)
)
