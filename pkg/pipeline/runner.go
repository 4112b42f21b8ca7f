package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/quillribbon/pkg/cache"
	"github.com/matzehuels/quillribbon/pkg/observability"
	"github.com/matzehuels/quillribbon/pkg/sink"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the default lifetime of cache entries when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete geometry → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, data []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{ArchiveHash: cache.Hash(data)}

	// Stage 1: Geometry
	geomStart := time.Now()
	g, geomHit, err := r.GeometryWithCacheInfo(ctx, data, opts)
	if err != nil {
		return nil, err
	}
	result.Geometry = *g
	result.Timing.GeometryTime = time.Since(geomStart)
	result.CacheInfo.GeometryHit = geomHit

	r.Logger.Info("built geometry",
		"drawings", g.Stats.Drawings,
		"meshes", len(g.Meshes),
		"vertices", g.Stats.Vertices,
		"skipped", len(g.Errors),
		"cached", geomHit,
		"duration", result.Timing.GeometryTime)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Timing.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Timing.RenderTime)

	return result, nil
}

// cachedGeometry is the cache representation of a [Geometry].
type cachedGeometry struct {
	Stats  Stats           `json:"stats"`
	Meshes json.RawMessage `json:"meshes"`
}

// GeometryWithCacheInfo converts an archive with caching and returns cache hit info.
// Documents that fail as a whole are never cached.
func (r *Runner) GeometryWithCacheInfo(ctx context.Context, data []byte, opts Options) (*Geometry, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForGeometry(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.GeometryKey(cache.Hash(data), opts.GeometryKeyOpts())

	if !opts.Refresh {
		if g, ok := r.loadGeometry(ctx, cacheKey); ok {
			return g, true, nil
		}
	}

	g, err := Convert(ctx, data, opts)
	if err != nil {
		return nil, false, err
	}

	entry, err := encodeGeometry(g)
	if err != nil {
		r.Logger.Debug("geometry not cached", "key", cacheKey, "err", err)
		return g, false, nil
	}
	if err := r.Cache.Set(ctx, cacheKey, entry, r.ttl(cache.GeometryTTL)); err != nil {
		r.Logger.Debug("cache write failed", "key", cacheKey, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "geometry", len(entry))
	}
	return g, false, nil
}

func (r *Runner) loadGeometry(ctx context.Context, key string) (*Geometry, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		if err != nil {
			r.Logger.Debug("cache read failed", "key", key, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "geometry")
		return nil, false
	}
	var entry cachedGeometry
	if err := json.Unmarshal(data, &entry); err != nil {
		observability.Cache().OnCacheMiss(ctx, "geometry")
		return nil, false
	}
	meshes, errs, err := sink.ReadJSON(entry.Meshes)
	if err != nil {
		observability.Cache().OnCacheMiss(ctx, "geometry")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "geometry")
	return &Geometry{Meshes: meshes, Errors: errs, Stats: entry.Stats}, true
}

func encodeGeometry(g *Geometry) ([]byte, error) {
	meshes, err := sink.RenderJSON(g.Meshes, sink.WithJSONErrors(g.Errors))
	if err != nil {
		return nil, err
	}
	return json.Marshal(cachedGeometry{Stats: g.Stats, Meshes: meshes})
}

// geometryDigest hashes everything the sinks render from g: mesh identity,
// raw buffer bits and skipped items.
func geometryDigest(g *Geometry) string {
	d := cache.NewDigest().Int(len(g.Meshes))
	for _, m := range g.Meshes {
		d.Text(m.Name).Text(m.Node).Int(m.Drawing).Int(m.Stroke).Text(string(m.Primitive))
		d.Float32s(m.Positions).Float32s(m.Colors).Float32s(m.UVs)
	}
	d.Int(len(g.Errors))
	for _, e := range g.Errors {
		d.Text(e.Error())
	}
	return d.Sum()
}

// Geometry is a convenience wrapper that calls GeometryWithCacheInfo and discards the cache hit info.
func (r *Runner) Geometry(ctx context.Context, data []byte, opts Options) (*Geometry, error) {
	g, _, err := r.GeometryWithCacheInfo(ctx, data, opts)
	return g, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *Geometry, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	geomHash := geometryDigest(g)

	artifacts := make(map[string][]byte)
	allCached := !opts.Refresh
	for _, format := range opts.Formats {
		if !allCached {
			break
		}
		cacheKey := r.Keyer.ArtifactKey(geomHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
			observability.Cache().OnCacheHit(ctx, "artifact")
		} else {
			allCached = false
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	rendered, err := Render(ctx, g, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(geomHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.ArtifactTTL)); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g *Geometry, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, opts)
	return artifacts, err
}

// Inspect summarizes an archive. Summaries are cheap and never cached.
func (r *Runner) Inspect(ctx context.Context, data []byte) (*Summary, error) {
	s, err := Inspect(ctx, data)
	if err != nil {
		return nil, err
	}
	for _, e := range s.Errors() {
		r.Logger.Warn("undecodable drawing", "node", e.Node, "drawing", e.Drawing, "err", e.Err)
	}
	return s, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
