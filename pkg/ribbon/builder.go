package ribbon

import (
	stderrors "errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/quillribbon/pkg/errors"
	"github.com/matzehuels/quillribbon/pkg/stroke"
)

// Builder emits geometry for strokes. It holds no state between calls and
// keeps no reference to returned buffers, so one Builder may be shared by
// concurrent goroutines.
type Builder struct {
	opts    Options
	section CrossSection
}

// New returns a builder for opts after applying defaults. It fails with
// INVALID_OPTION if a field holds an unknown value.
func New(opts Options) (*Builder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Builder{opts: opts, section: crossSection(opts.Orientation)}, nil
}

// WithCrossSection returns a copy of b that uses cs for cross-sections.
func (b *Builder) WithCrossSection(cs CrossSection) *Builder {
	c := *b
	c.section = cs
	return &c
}

// Options returns the builder's effective options.
func (b *Builder) Options() Options { return b.opts }

// Build concatenates the geometry of all strokes into one buffer, in stroke
// order. Strokes that cannot be built are skipped and reported in the
// returned error; the buffer is valid either way.
func (b *Builder) Build(strokes []stroke.Stroke) (Buffer, error) {
	out := Buffer{Primitive: b.opts.Primitive}
	var errs []error
	for i := range strokes {
		buf, err := b.Stroke(&strokes[i])
		if err != nil {
			errs = append(errs, withIndex(err, i))
			continue
		}
		out.Append(buf)
	}
	return out, stderrors.Join(errs...)
}

// Meshes groups strokes according to the builder's [Grouping]. With
// [PerDrawing] the result holds at most one mesh (Stroke -1); with
// [PerStroke] it holds one mesh per built stroke that produced geometry.
func (b *Builder) Meshes(strokes []stroke.Stroke) ([]Mesh, error) {
	if b.opts.Grouping != PerStroke {
		buf, err := b.Build(strokes)
		if buf.Empty() {
			return nil, err
		}
		return []Mesh{{Stroke: -1, Buffer: buf}}, err
	}

	var meshes []Mesh
	var errs []error
	for i := range strokes {
		buf, err := b.Stroke(&strokes[i])
		if err != nil {
			errs = append(errs, withIndex(err, i))
			continue
		}
		if buf.Empty() {
			continue
		}
		meshes = append(meshes, Mesh{Stroke: i, Buffer: buf})
	}
	return meshes, stderrors.Join(errs...)
}

// Stroke builds the geometry of a single stroke. Strokes with fewer than two
// vertices yield an empty buffer and no error.
func (b *Builder) Stroke(s *stroke.Stroke) (Buffer, error) {
	out := Buffer{Primitive: b.opts.Primitive}
	n := len(s.Vertices)
	if n < 2 {
		return out, nil
	}

	if err := checkFinite(s, b.opts.Primitive != Lines); err != nil {
		return out, err
	}

	size := s.Width
	if b.opts.HalfWidth {
		size /= 2
	}

	offsets := make([]mgl32.Vec3, n)
	if b.opts.Primitive != Lines {
		for i := range s.Vertices {
			off, ok := b.section.Offset(&s.Vertices[i], size)
			if !ok {
				return Buffer{Primitive: b.opts.Primitive}, &errors.MissingFieldError{Field: b.section.Requires()}
			}
			if !finite(off[:]...) {
				return Buffer{Primitive: b.opts.Primitive}, &errors.NonFiniteError{Vertex: i, Field: b.section.Requires()}
			}
			offsets[i] = off
		}
	}

	perSegment := 6
	if b.opts.Primitive == Lines {
		perSegment = 2
	}
	verts := (n - 1) * perSegment
	out.Positions = make([]float32, 0, verts*3)
	out.Colors = make([]float32, 0, verts*4)
	out.UVs = make([]float32, 0, verts*2)

	for i := 1; i < n; i++ {
		prev, cur := s.Vertices[i-1].Position, s.Vertices[i].Position
		u0 := float32(i-1) / float32(n)
		u1 := float32(i) / float32(n)

		if b.opts.Primitive == Lines {
			out.vertex(prev, s.Color, u0, 0)
			out.vertex(cur, s.Color, u1, 0)
			continue
		}

		left1 := cur.Sub(offsets[i])
		right1 := cur.Add(offsets[i])
		left0 := prev.Sub(offsets[i-1])
		right0 := prev.Add(offsets[i-1])

		out.vertex(left1, s.Color, u1, 0)
		out.vertex(right1, s.Color, u1, 1)
		out.vertex(left0, s.Color, u0, 0)

		out.vertex(right1, s.Color, u1, 1)
		out.vertex(right0, s.Color, u0, 1)
		out.vertex(left0, s.Color, u0, 0)
	}
	return out, nil
}

// vertex appends one output vertex, negating Z.
func (b *Buffer) vertex(p mgl32.Vec3, c mgl32.Vec4, u, v float32) {
	b.Positions = append(b.Positions, p[0], p[1], -p[2])
	b.Colors = append(b.Colors, c[0], c[1], c[2], c[3])
	b.UVs = append(b.UVs, u, v)
}

// withIndex records the stroke index on a per-stroke error.
func withIndex(err error, i int) error {
	var mf *errors.MissingFieldError
	if stderrors.As(err, &mf) {
		mf.Stroke = i
	}
	var nf *errors.NonFiniteError
	if stderrors.As(err, &nf) {
		nf.Stroke = i
	}
	return err
}

// checkFinite rejects strokes whose positions or representative values
// would put a NaN or an infinity into the buffer. The width only matters
// for ribbons.
func checkFinite(s *stroke.Stroke, width bool) error {
	if width && !finite(s.Width) {
		return &errors.NonFiniteError{Vertex: -1, Field: "width"}
	}
	if !finite(s.Color[:]...) {
		return &errors.NonFiniteError{Vertex: -1, Field: "color"}
	}
	for i := range s.Vertices {
		if p := s.Vertices[i].Position; !finite(p[:]...) {
			return &errors.NonFiniteError{Vertex: i, Field: "position"}
		}
	}
	return nil
}

func finite(fs ...float32) bool {
	for _, f := range fs {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return false
		}
	}
	return true
}
