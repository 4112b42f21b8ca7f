// Package pipeline provides the conversion pipeline for Quill documents.
//
// This package implements the complete archive → scene → decode → build →
// render pipeline used by the CLI and the HTTP API. Centralizing it keeps the
// per-drawing error policy and the caching behavior identical across entry
// points.
//
// # Architecture
//
// The pipeline consists of two cached stages:
//
//  1. Geometry: open the archive, parse the scene description, then decode
//     and build every drawing in parallel
//  2. Render: serialize the meshes in the requested formats (JSON, OBJ)
//
// # Error policy
//
// A drawing whose offset is malformed, whose start lies outside the binary
// member, or whose stroke table is corrupt is reported as an
// [errors.ItemError] and skipped; its siblings are still converted. A read
// that runs past the end of the binary member in the middle of a stroke
// table means the member is truncated, and the whole conversion fails with
// the [errors.OutOfBoundsError].
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, archiveBytes, pipeline.Options{
//	    Formats: []string{"obj"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	obj := result.Artifacts["obj"]
//	for _, e := range result.Errors {
//	    log.Warn("skipped", "node", e.Node, "drawing", e.Drawing, "err", e.Err)
//	}
package pipeline

import (
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/quillribbon/pkg/cache"
	"github.com/matzehuels/quillribbon/pkg/errors"
	"github.com/matzehuels/quillribbon/pkg/ribbon"
	"github.com/matzehuels/quillribbon/pkg/sink"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultFormat is the output format used when none is requested.
const DefaultFormat = sink.FormatJSON

// DefaultWorkers returns the default number of drawings converted in parallel.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	sink.FormatJSON: true,
	sink.FormatOBJ:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the conversion pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Geometry options
	Build   ribbon.Options `json:"build"`
	Workers int            `json:"workers,omitempty"`
	Refresh bool           `json:"refresh,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Source  string   `json:"source,omitempty"` // Archive name recorded in JSON output

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Geometry is the output of the geometry stage.
type Geometry struct {
	// Meshes holds the built buffers in depth-first drawing order.
	Meshes []ribbon.Mesh

	// Errors lists the drawings and strokes that were skipped.
	Errors []*errors.ItemError

	// Stats describes the converted document.
	Stats Stats
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Geometry

	// ArchiveHash is the content hash of the input archive.
	ArchiveHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Timing contains stage durations.
	Timing Timing

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains document statistics.
type Stats struct {
	Nodes    int `json:"nodes"`
	Drawings int `json:"drawings"`
	Skipped  int `json:"skipped"` // Drawings that produced an item error
	Strokes  int `json:"strokes"`
	Vertices int `json:"vertices"` // Output vertices across all meshes
}

// Timing contains pipeline stage durations.
type Timing struct {
	GeometryTime time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GeometryHit bool // Whether the meshes came from cache
	RenderHit   bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.ValidateOneOf("format", format, sink.Formats...)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every field and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForGeometry(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateBuild validates build options for archive conversion. Quill
// stroke tables carry no per-vertex orientation, so oriented ribbons are
// rejected here; oriented line lists ignore orientation and are allowed.
// Oriented ribbons remain available to library callers that attach
// orientations with stroke.Stroke.Orient and call the ribbon package directly.
func ValidateBuild(b *ribbon.Options) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.Orientation == ribbon.Oriented && b.Primitive != ribbon.Lines {
		return errors.New(errors.ErrCodeInvalidOption,
			"orientation %q needs per-vertex orientations, which Quill stroke tables do not carry (use %q)",
			ribbon.Oriented, ribbon.Billboard)
	}
	return nil
}

// ValidateForGeometry validates and sets defaults for the geometry stage.
func (o *Options) ValidateForGeometry() error {
	if err := ValidateBuild(&o.Build); err != nil {
		return err
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "workers must not be negative, got %d", o.Workers)
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers()
	}
	o.setLogger()
	return nil
}

// ValidateForRender validates and sets defaults for the render stage.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	o.setLogger()
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// GeometryKeyOpts returns cache key options for the geometry stage.
func (o *Options) GeometryKeyOpts() cache.GeometryKeyOpts {
	return cache.GeometryKeyOpts{
		Orientation: string(o.Build.Orientation),
		Primitive:   string(o.Build.Primitive),
		Grouping:    string(o.Build.Grouping),
		HalfWidth:   o.Build.HalfWidth,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Source: o.Source,
	}
}
