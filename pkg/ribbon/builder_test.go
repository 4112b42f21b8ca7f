package ribbon

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/quillribbon/internal/quilltest"
	"github.com/matzehuels/quillribbon/pkg/errors"
	"github.com/matzehuels/quillribbon/pkg/stroke"
)

var red = mgl32.Vec4{1, 0, 0, 1}

// line returns a stroke of n vertices along X with constant color and width.
func line(n int, width float32, color mgl32.Vec4) stroke.Stroke {
	s := stroke.Stroke{Vertices: make([]stroke.Vertex, n), Width: width, Color: color}
	for i := range s.Vertices {
		s.Vertices[i] = stroke.Vertex{Position: mgl32.Vec3{float32(i), 0, 0}, Color: color, Width: width}
	}
	return s
}

func mustNew(t *testing.T, opts Options) *Builder {
	t.Helper()
	b, err := New(opts)
	if err != nil {
		t.Fatalf("New(%+v): %v", opts, err)
	}
	return b
}

func TestBuildCounts(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 4, 10} {
		buf, err := mustNew(t, Options{}).Build([]stroke.Stroke{line(n, 1, red)})
		if err != nil {
			t.Fatalf("n=%d: Build: %v", n, err)
		}

		want := 0
		if n >= 2 {
			want = 6 * (n - 1)
		}
		if got := buf.VertexCount(); got != want {
			t.Errorf("n=%d: VertexCount() = %d, want %d", n, got, want)
		}
		if len(buf.Colors) != 4*want {
			t.Errorf("n=%d: len(Colors) = %d, want %d", n, len(buf.Colors), 4*want)
		}
		if len(buf.UVs) != 2*want {
			t.Errorf("n=%d: len(UVs) = %d, want %d", n, len(buf.UVs), 2*want)
		}
		for i := 0; i < want; i++ {
			if buf.Color(i) != red {
				t.Errorf("n=%d: Color(%d) = %v, want %v", n, i, buf.Color(i), red)
				break
			}
		}
	}
}

func TestBuildStraightLine(t *testing.T) {
	var bin quilltest.Binary
	off := bin.Append(quilltest.Line(4, [4]float32{1, 0, 0, 1}, 2))
	strokes, err := stroke.Decode(bin.Bytes(), off)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(strokes) != 1 {
		t.Fatalf("len(strokes) = %d, want 1", len(strokes))
	}

	tests := []struct {
		name      string
		halfWidth bool
		size      float32
	}{
		{"full width", false, 2},
		{"half width", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := mustNew(t, Options{HalfWidth: tt.halfWidth}).Build(strokes)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if buf.VertexCount() != 18 {
				t.Fatalf("VertexCount() = %d, want 18", buf.VertexCount())
			}

			for seg := 0; seg < 3; seg++ {
				x0, x1 := float32(seg), float32(seg+1)
				want := []mgl32.Vec3{
					{x1 - tt.size, 0, 0}, {x1 + tt.size, 0, 0}, {x0 - tt.size, 0, 0},
					{x1 + tt.size, 0, 0}, {x0 + tt.size, 0, 0}, {x0 - tt.size, 0, 0},
				}
				var got []mgl32.Vec3
				for v := 0; v < 6; v++ {
					got = append(got, buf.Position(seg*6+v))
				}
				if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
					t.Errorf("segment %d positions mismatch (-want +got):\n%s", seg, diff)
				}
			}

			lo, hi := buf.Bounds()
			if lo.X() != -tt.size || hi.X() != 3+tt.size {
				t.Errorf("Bounds() x = [%v, %v], want [%v, %v]", lo.X(), hi.X(), -tt.size, 3+tt.size)
			}
			for i := 0; i < buf.VertexCount(); i++ {
				if buf.Color(i) != red {
					t.Fatalf("Color(%d) = %v, want %v", i, buf.Color(i), red)
				}
			}
		})
	}
}

func TestBuildUVs(t *testing.T) {
	buf, err := mustNew(t, Options{}).Build([]stroke.Stroke{line(4, 1, red)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var got []mgl32.Vec2
	for i := 0; i < 6; i++ {
		got = append(got, buf.UV(6+i))
	}
	// Second segment: u0 = 1/4, u1 = 2/4.
	want := []mgl32.Vec2{{0.5, 0}, {0.5, 1}, {0.25, 0}, {0.5, 1}, {0.25, 1}, {0.25, 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("UVs mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildFlipsZ(t *testing.T) {
	s := line(2, 1, red)
	s.Vertices[0].Position = mgl32.Vec3{0, 1, 5}
	s.Vertices[1].Position = mgl32.Vec3{1, 2, -3}

	buf, err := mustNew(t, Options{}).Build([]stroke.Stroke{s})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []float32{3, 3, -5, 3, -5, -5}
	var got []float32
	for i := 0; i < 6; i++ {
		got = append(got, buf.Position(i).Z())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("z mismatch (-want +got):\n%s", diff)
	}
}

func TestOrientedIdentityMatchesBillboard(t *testing.T) {
	s := line(5, 0.5, red)
	billboard, err := mustNew(t, Options{}).Build([]stroke.Stroke{s})
	if err != nil {
		t.Fatalf("billboard Build: %v", err)
	}

	q := make([]mgl32.Quat, len(s.Vertices))
	for i := range q {
		q[i] = mgl32.QuatIdent()
	}
	s.Orient(q)
	oriented, err := mustNew(t, Options{Orientation: Oriented}).Build([]stroke.Stroke{s})
	if err != nil {
		t.Fatalf("oriented Build: %v", err)
	}

	if diff := cmp.Diff(billboard, oriented); diff != "" {
		t.Errorf("identity orientation differs from billboard (-billboard +oriented):\n%s", diff)
	}
}

func TestOrientedRotation(t *testing.T) {
	s := line(2, 1, red)
	s.Orient([]mgl32.Quat{
		mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0}),
		mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 0, 1}),
	})

	buf, err := mustNew(t, Options{Orientation: Oriented}).Build([]stroke.Stroke{s})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Vertex 1 rotates +X onto +Y; vertex 0 rotates +X onto -Z, which the
	// handedness flip turns into +Z.
	want := []mgl32.Vec3{
		{1, -1, 0}, {1, 1, 0}, {0, 0, -1},
		{1, 1, 0}, {0, 0, 1}, {0, 0, -1},
	}
	var got []mgl32.Vec3
	for i := 0; i < 6; i++ {
		got = append(got, buf.Position(i))
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
}

func TestOrientedMissingOrientation(t *testing.T) {
	a := line(3, 1, red)
	a.Orient([]mgl32.Quat{mgl32.QuatIdent(), mgl32.QuatIdent(), mgl32.QuatIdent()})
	missing := line(3, 1, red)
	c := line(2, 1, red)
	c.Orient([]mgl32.Quat{mgl32.QuatIdent(), mgl32.QuatIdent()})

	buf, err := mustNew(t, Options{Orientation: Oriented}).Build([]stroke.Stroke{a, missing, c})
	if err == nil {
		t.Fatal("Build should report the stroke without orientation")
	}

	errs := errors.Flatten(err)
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), err)
	}
	mf, ok := errs[0].(*errors.MissingFieldError)
	if !ok {
		t.Fatalf("error = %T, want *errors.MissingFieldError", errs[0])
	}
	if mf.Stroke != 1 || mf.Field != "orientation" {
		t.Errorf("MissingFieldError = %+v, want stroke 1 field orientation", mf)
	}
	if got, want := buf.VertexCount(), 6*2+6*1; got != want {
		t.Errorf("VertexCount() = %d, want %d (siblings still built)", got, want)
	}
}

func TestBuildNonFinite(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		name   string
		opts   Options
		mutate func(s *stroke.Stroke)
		vertex int
		field  string
	}{
		{"nan position", Options{}, func(s *stroke.Stroke) { s.Vertices[1].Position[1] = nan }, 1, "position"},
		{"inf position in lines", Options{Primitive: Lines}, func(s *stroke.Stroke) { s.Vertices[2].Position[0] = -inf }, 2, "position"},
		{"nan width", Options{}, func(s *stroke.Stroke) { s.Width = nan }, -1, "width"},
		{"inf color", Options{}, func(s *stroke.Stroke) { s.Color[3] = inf }, -1, "color"},
		{"nan orientation", Options{Orientation: Oriented}, func(s *stroke.Stroke) {
			q := []mgl32.Quat{mgl32.QuatIdent(), mgl32.QuatIdent(), {W: nan}}
			s.Orient(q)
		}, 2, "orientation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good := line(3, 1, red)
			bad := line(3, 1, red)
			if tt.opts.Orientation == Oriented {
				good.Orient([]mgl32.Quat{mgl32.QuatIdent(), mgl32.QuatIdent(), mgl32.QuatIdent()})
			}
			tt.mutate(&bad)

			buf, err := mustNew(t, tt.opts).Build([]stroke.Stroke{good, bad})
			errs := errors.Flatten(err)
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), err)
			}
			nf, ok := errs[0].(*errors.NonFiniteError)
			if !ok {
				t.Fatalf("error = %T, want *errors.NonFiniteError", errs[0])
			}
			want := errors.NonFiniteError{Stroke: 1, Vertex: tt.vertex, Field: tt.field}
			if *nf != want {
				t.Errorf("NonFiniteError = %+v, want %+v", *nf, want)
			}

			single, _ := mustNew(t, tt.opts).Stroke(&good)
			if diff := cmp.Diff(single.Positions, buf.Positions); diff != "" {
				t.Errorf("sibling geometry mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLinesIgnoreNonFiniteWidth(t *testing.T) {
	s := line(3, 1, red)
	s.Width = float32(math.NaN())
	buf, err := mustNew(t, Options{Primitive: Lines}).Build([]stroke.Stroke{s})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := buf.VertexCount(); got != 4 {
		t.Errorf("VertexCount() = %d, want 4", got)
	}
}

func TestLines(t *testing.T) {
	buf, err := mustNew(t, Options{Primitive: Lines, Orientation: Oriented}).Build([]stroke.Stroke{line(3, 1, red)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if buf.Primitive != Lines {
		t.Errorf("Primitive = %v, want %v", buf.Primitive, Lines)
	}
	want := Buffer{
		Primitive: Lines,
		Positions: []float32{0, 0, 0, 1, 0, 0, 1, 0, 0, 2, 0, 0},
		Colors:    []float32{1, 0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 1},
		UVs:       []float32{0, 0, 1.0 / 3, 0, 1.0 / 3, 0, 2.0 / 3, 0},
	}
	if diff := cmp.Diff(want, buf, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("line buffer mismatch (-want +got):\n%s", diff)
	}
}

func TestMeshesGrouping(t *testing.T) {
	strokes := []stroke.Stroke{line(3, 1, red), line(1, 1, red), line(2, 0.5, mgl32.Vec4{0, 1, 0, 1})}

	whole, err := mustNew(t, Options{Grouping: PerDrawing}).Meshes(strokes)
	if err != nil {
		t.Fatalf("PerDrawing Meshes: %v", err)
	}
	if len(whole) != 1 || whole[0].Stroke != -1 {
		t.Fatalf("PerDrawing Meshes = %d meshes, want 1 with Stroke -1", len(whole))
	}

	parts, err := mustNew(t, Options{Grouping: PerStroke}).Meshes(strokes)
	if err != nil {
		t.Fatalf("PerStroke Meshes: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("PerStroke Meshes = %d meshes, want 2", len(parts))
	}
	if parts[0].Stroke != 0 || parts[1].Stroke != 2 {
		t.Errorf("PerStroke stroke indices = %d, %d, want 0, 2", parts[0].Stroke, parts[1].Stroke)
	}

	concat := Buffer{Primitive: Triangles}
	for _, m := range parts {
		concat.Append(m.Buffer)
	}
	if diff := cmp.Diff(whole[0].Buffer, concat); diff != "" {
		t.Errorf("grouping altered geometry (-drawing +strokes):\n%s", diff)
	}
}

func TestMeshesEmpty(t *testing.T) {
	meshes, err := mustNew(t, Options{}).Meshes([]stroke.Stroke{line(1, 1, red)})
	if err != nil {
		t.Fatalf("Meshes: %v", err)
	}
	if len(meshes) != 0 {
		t.Errorf("Meshes() = %d meshes, want 0", len(meshes))
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	tests := []Options{
		{Orientation: "sideways"},
		{Primitive: "points"},
		{Grouping: "layer"},
	}
	for _, opts := range tests {
		if _, err := New(opts); !errors.Is(err, errors.ErrCodeInvalidOption) {
			t.Errorf("New(%+v) error = %v, want %s", opts, err, errors.ErrCodeInvalidOption)
		}
	}

	b := mustNew(t, Options{})
	want := Options{Orientation: Billboard, Primitive: Triangles, Grouping: PerDrawing}
	if b.Options() != want {
		t.Errorf("Options() = %+v, want %+v", b.Options(), want)
	}
}

type fixedSection struct{ off mgl32.Vec3 }

func (f fixedSection) Offset(*stroke.Vertex, float32) (mgl32.Vec3, bool) { return f.off, true }
func (fixedSection) Requires() string                                    { return "nothing" }

func TestWithCrossSection(t *testing.T) {
	b := mustNew(t, Options{}).WithCrossSection(fixedSection{mgl32.Vec3{0, 1, 0}})
	buf, err := b.Build([]stroke.Stroke{line(2, 5, red)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := buf.Position(1); got != (mgl32.Vec3{1, 1, 0}) {
		t.Errorf("Position(1) = %v, want [1 1 0]", got)
	}
}
