package pipeline

import (
	"context"
	stderrors "errors"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/quillribbon/pkg/archive"
	"github.com/matzehuels/quillribbon/pkg/errors"
	"github.com/matzehuels/quillribbon/pkg/observability"
	"github.com/matzehuels/quillribbon/pkg/ribbon"
	"github.com/matzehuels/quillribbon/pkg/scene"
	"github.com/matzehuels/quillribbon/pkg/stroke"
)

// Convert opens a Quill archive and builds the geometry of every drawing,
// without caching.
func Convert(ctx context.Context, data []byte, opts Options) (*Geometry, error) {
	if err := opts.ValidateForGeometry(); err != nil {
		return nil, err
	}

	start := time.Now()
	a, doc, refs, err := open(data)
	observability.Pipeline().OnOpenComplete(ctx, len(data), len(refs), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	for _, name := range a.Skipped {
		opts.Logger.Debug("ignored archive member", "member", name)
	}

	b, err := ribbon.New(opts.Build)
	if err != nil {
		return nil, err
	}

	results := make([]drawingResult, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	bin := a.Binary()
	for i, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := convertDrawing(gctx, bin, b, ref)
			results[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	geom := &Geometry{Stats: Stats{Nodes: countNodes(doc), Drawings: len(refs)}}
	for i, r := range results {
		geom.Meshes = append(geom.Meshes, r.meshes...)
		geom.Errors = append(geom.Errors, r.errs...)
		geom.Stats.Strokes += r.strokes
		if r.skipped {
			geom.Stats.Skipped++
		}
		for _, e := range r.errs {
			opts.Logger.Warn("skipped",
				"node", refs[i].Node,
				"drawing", refs[i].Index,
				"stroke", e.Stroke,
				"err", errors.UserMessage(e.Err))
		}
	}
	for _, m := range geom.Meshes {
		geom.Stats.Vertices += m.VertexCount()
	}
	return geom, nil
}

// open unpacks the archive and lists its drawings.
func open(data []byte) (*archive.Archive, *scene.Document, []scene.DrawingRef, error) {
	a, err := archive.Open(data)
	if err != nil {
		return nil, nil, nil, err
	}
	doc, err := scene.Parse(a.Metadata())
	if err != nil {
		return nil, nil, nil, err
	}
	return a, doc, doc.Drawings(), nil
}

func countNodes(doc *scene.Document) int {
	n := 0
	doc.Walk(func(string, int, *scene.Node) { n++ })
	return n
}

type drawingResult struct {
	meshes  []ribbon.Mesh
	errs    []*errors.ItemError
	strokes int
	skipped bool
}

// convertDrawing decodes and builds one drawing. Drawing-level failures are
// returned in the result; only a truncated binary member is returned as an
// error.
func convertDrawing(ctx context.Context, bin []byte, b *ribbon.Builder, ref scene.DrawingRef) (drawingResult, error) {
	hooks := observability.Pipeline()
	hooks.OnDecodeStart(ctx, ref.Node, ref.Index)

	start := time.Now()
	strokes, err := decodeDrawing(bin, ref)
	hooks.OnDecodeComplete(ctx, ref.Node, ref.Index, len(strokes), time.Since(start), err)
	if err != nil {
		if fatal(err) {
			return drawingResult{}, err
		}
		return drawingResult{
			errs:    []*errors.ItemError{{Node: ref.Node, Drawing: ref.Index, Stroke: -1, Err: err}},
			skipped: true,
		}, nil
	}

	start = time.Now()
	meshes, err := b.Meshes(strokes)
	vertices := 0
	for i := range meshes {
		meshes[i].Node = ref.Node
		meshes[i].Drawing = ref.Index
		meshes[i].Name = meshName(ref, meshes[i].Stroke)
		vertices += meshes[i].VertexCount()
	}
	hooks.OnBuildComplete(ctx, ref.Node, ref.Index, vertices, time.Since(start), err)

	r := drawingResult{meshes: meshes, strokes: len(strokes)}
	for _, e := range errors.Flatten(err) {
		r.errs = append(r.errs, &errors.ItemError{
			Node:    ref.Node,
			Drawing: ref.Index,
			Stroke:  errors.StrokeIndex(e),
			Err:     e,
		})
	}
	return r, nil
}

// decodeDrawing parses the drawing's offset and decodes its stroke table.
// An offset outside the member is reported with the start offset itself.
func decodeDrawing(bin []byte, ref scene.DrawingRef) ([]stroke.Stroke, error) {
	off, err := ref.ParseOffset()
	if err != nil {
		return nil, err
	}
	strokes, err := stroke.NewDecoder(bin).Decode(off)
	if err != nil {
		var oob *errors.OutOfBoundsError
		if stderrors.As(err, &oob) && oob.Offset == int(off) {
			return nil, &startError{oob}
		}
		return nil, err
	}
	return strokes, nil
}

// startError marks an out-of-bounds read of a drawing's stroke count: the
// offset is wrong, not the member.
type startError struct{ *errors.OutOfBoundsError }

func (e *startError) Unwrap() error { return e.OutOfBoundsError }

// fatal reports whether err must abort the whole conversion.
func fatal(err error) bool {
	var se *startError
	if stderrors.As(err, &se) {
		return false
	}
	return errors.Is(err, errors.ErrCodeOutOfBounds) ||
		stderrors.Is(err, context.Canceled) ||
		stderrors.Is(err, context.DeadlineExceeded)
}

func meshName(ref scene.DrawingRef, strokeIdx int) string {
	name := ref.Node + "/" + strconv.Itoa(ref.Index)
	if strokeIdx >= 0 {
		name += "/" + strconv.Itoa(strokeIdx)
	}
	return name
}
