package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/quillribbon/pkg/buildinfo"
	"github.com/matzehuels/quillribbon/pkg/observability"
	"github.com/matzehuels/quillribbon/pkg/sink"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, g *Geometry, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts := make(map[string][]byte, len(opts.Formats))
	var err error
	for _, format := range opts.Formats {
		var data []byte
		data, err = renderFormat(format, g, opts)
		if err != nil {
			err = fmt.Errorf("render %s: %w", format, err)
			break
		}
		artifacts[format] = data
	}

	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

func renderFormat(format string, g *Geometry, opts Options) ([]byte, error) {
	switch format {
	case sink.FormatJSON:
		return sink.RenderJSON(g.Meshes,
			sink.WithJSONSource(opts.Source),
			sink.WithJSONOptions(opts.Build),
			sink.WithJSONErrors(g.Errors),
		)
	case sink.FormatOBJ:
		objOpts := []sink.OBJOption{sink.WithOBJComment("quillribbon " + buildinfo.Version)}
		if opts.Source != "" {
			objOpts = append(objOpts, sink.WithOBJComment("source: "+opts.Source))
		}
		if n := len(g.Errors); n > 0 {
			objOpts = append(objOpts, sink.WithOBJComment(fmt.Sprintf("%d items skipped", n)))
		}
		return sink.RenderOBJ(g.Meshes, objOpts...)
	default:
		return nil, ValidateFormat(format)
	}
}
