package pipeline

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/quillribbon/internal/quilltest"
	"github.com/matzehuels/quillribbon/pkg/errors"
	"github.com/matzehuels/quillribbon/pkg/observability"
	"github.com/matzehuels/quillribbon/pkg/ribbon"
)

var red = [4]float32{1, 0, 0, 1}

// document returns an archive with a node "Sky" holding one valid drawing
// per entry in valid (each a single stroke of n vertices), preceded by extra
// raw offsets.
func document(t *testing.T, extra []string, valid ...int) []byte {
	t.Helper()
	var bin quilltest.Binary
	bin.Pad(8)
	offsets := append([]string(nil), extra...)
	for _, n := range valid {
		offsets = append(offsets, quilltest.HexOffset(bin.Append(quilltest.Line(n, red, 1))))
	}
	meta := quilltest.Scene(quilltest.Node{Name: "Sky", Offsets: offsets})
	return quilltest.Archive(t, meta, bin.Bytes())
}

func TestConvert(t *testing.T) {
	data := document(t, nil, 4, 3)

	g, err := Convert(context.Background(), data, Options{})
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if len(g.Errors) != 0 {
		t.Fatalf("Errors = %v, want none", g.Errors)
	}

	var got []string
	for _, m := range g.Meshes {
		got = append(got, m.Name)
	}
	if diff := cmp.Diff([]string{"Sky/0", "Sky/1"}, got); diff != "" {
		t.Errorf("mesh names mismatch (-want +got):\n%s", diff)
	}
	if n := g.Meshes[0].VertexCount(); n != 18 {
		t.Errorf("mesh 0 VertexCount = %d, want 18", n)
	}
	if n := g.Meshes[1].VertexCount(); n != 12 {
		t.Errorf("mesh 1 VertexCount = %d, want 12", n)
	}

	want := Stats{Nodes: 1, Drawings: 2, Strokes: 2, Vertices: 30}
	if diff := cmp.Diff(want, g.Stats); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertMalformedOffsetSkipsDrawing(t *testing.T) {
	data := document(t, []string{"not-hex"}, 4)

	g, err := Convert(context.Background(), data, Options{})
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if len(g.Meshes) != 1 {
		t.Fatalf("Meshes = %d, want exactly 1", len(g.Meshes))
	}
	if g.Meshes[0].Drawing != 1 {
		t.Errorf("mesh Drawing = %d, want 1", g.Meshes[0].Drawing)
	}
	if len(g.Errors) != 1 {
		t.Fatalf("Errors = %v, want 1", g.Errors)
	}
	e := g.Errors[0]
	if e.Node != "Sky" || e.Drawing != 0 || e.Stroke != -1 {
		t.Errorf("ItemError location = %s/%d/%d, want Sky/0/-1", e.Node, e.Drawing, e.Stroke)
	}
	if !errors.Is(e, errors.ErrCodeMalformedOffset) {
		t.Errorf("ItemError code = %v, want %v", errors.GetCode(e), errors.ErrCodeMalformedOffset)
	}
	if g.Stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", g.Stats.Skipped)
	}
}

func TestConvertStartOutOfBoundsSkipsDrawing(t *testing.T) {
	data := document(t, []string{"ffffff"}, 2)

	g, err := Convert(context.Background(), data, Options{})
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if len(g.Meshes) != 1 {
		t.Errorf("Meshes = %d, want 1", len(g.Meshes))
	}
	if len(g.Errors) != 1 || !errors.Is(g.Errors[0], errors.ErrCodeOutOfBounds) {
		t.Fatalf("Errors = %v, want one OUT_OF_BOUNDS", g.Errors)
	}
	var oob *errors.OutOfBoundsError
	if !stderrors.As(g.Errors[0], &oob) || oob.Offset != 0xffffff {
		t.Errorf("OutOfBoundsError = %+v, want offset 0xffffff", oob)
	}
}

func TestConvertTruncatedBinaryFails(t *testing.T) {
	table := quilltest.Table(quilltest.Line(4, red, 1))
	bin := table[:len(table)-10]
	meta := quilltest.Scene(quilltest.Node{Name: "Sky", Offsets: []string{"0"}})
	data := quilltest.Archive(t, meta, bin)

	_, err := Convert(context.Background(), data, Options{})
	if !errors.Is(err, errors.ErrCodeOutOfBounds) {
		t.Fatalf("Convert() error = %v, want %v", err, errors.ErrCodeOutOfBounds)
	}
	var oob *errors.OutOfBoundsError
	if !stderrors.As(err, &oob) {
		t.Fatalf("Convert() error %T is not an OutOfBoundsError", err)
	}
	if oob.Offset != 44 {
		t.Errorf("Offset = %d, want 44", oob.Offset)
	}
}

func TestConvertNegativeCountSkipsDrawing(t *testing.T) {
	bin := []byte{0xff, 0xff, 0xff, 0xff}
	meta := quilltest.Scene(quilltest.Node{Name: "Sky", Offsets: []string{"0"}})
	data := quilltest.Archive(t, meta, bin)

	g, err := Convert(context.Background(), data, Options{})
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if len(g.Errors) != 1 || !errors.Is(g.Errors[0], errors.ErrCodeCorruptData) {
		t.Errorf("Errors = %v, want one CORRUPT_DATA", g.Errors)
	}
}

func TestConvertPerStroke(t *testing.T) {
	var bin quilltest.Binary
	off := bin.Append(quilltest.Line(3, red, 1), quilltest.Line(1, red, 1), quilltest.Line(2, red, 1))
	meta := quilltest.Scene(quilltest.Node{
		Name:     "Group",
		Type:     "Group",
		Children: []quilltest.Node{{Name: "Leaf", Offsets: []string{quilltest.HexOffset(off)}}},
	})
	data := quilltest.Archive(t, meta, bin.Bytes())

	g, err := Convert(context.Background(), data, Options{Build: ribbon.Options{Grouping: ribbon.PerStroke}})
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}

	var got []string
	for _, m := range g.Meshes {
		got = append(got, m.Name)
	}
	// The single-vertex stroke yields no geometry and no mesh.
	if diff := cmp.Diff([]string{"Group/Leaf/0/0", "Group/Leaf/0/2"}, got); diff != "" {
		t.Errorf("mesh names mismatch (-want +got):\n%s", diff)
	}
	if g.Stats.Strokes != 3 {
		t.Errorf("Strokes = %d, want 3", g.Stats.Strokes)
	}
}

func TestConvertOrientedRibbonsRejected(t *testing.T) {
	var bin quilltest.Binary
	off := bin.Append(quilltest.Line(3, red, 1), quilltest.Line(3, red, 1))
	meta := quilltest.Scene(quilltest.Node{Name: "Sky", Offsets: []string{quilltest.HexOffset(off)}})
	data := quilltest.Archive(t, meta, bin.Bytes())

	_, err := Convert(context.Background(), data, Options{Build: ribbon.Options{Orientation: ribbon.Oriented}})
	if !errors.Is(err, errors.ErrCodeInvalidOption) {
		t.Fatalf("Convert() error = %v, want %s", err, errors.ErrCodeInvalidOption)
	}

	g, err := Convert(context.Background(), data, Options{Build: ribbon.Options{Orientation: ribbon.Oriented, Primitive: ribbon.Lines}})
	if err != nil {
		t.Fatalf("Convert(oriented lines) error: %v", err)
	}
	if len(g.Meshes) != 1 || len(g.Errors) != 0 {
		t.Errorf("oriented lines = %d meshes, %v errors; want 1 mesh, no errors", len(g.Meshes), g.Errors)
	}
	if n := g.Meshes[0].VertexCount(); n != 8 {
		t.Errorf("VertexCount = %d, want 8", n)
	}
}

func TestConvertInvalidArchive(t *testing.T) {
	_, err := Convert(context.Background(), []byte("not a zip"), Options{})
	if !errors.Is(err, errors.ErrCodeInvalidArchive) {
		t.Errorf("Convert() error = %v, want %v", err, errors.ErrCodeInvalidArchive)
	}
}

func TestConvertCanceled(t *testing.T) {
	data := document(t, nil, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Convert(ctx, data, Options{}); !stderrors.Is(err, context.Canceled) {
		t.Errorf("Convert() error = %v, want context.Canceled", err)
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	mu      sync.Mutex
	decoded []string
	built   int
}

func (h *countingHooks) OnDecodeComplete(_ context.Context, node string, _ int, _ int, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.decoded = append(h.decoded, node)
}

func (h *countingHooks) OnBuildComplete(context.Context, string, int, int, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.built++
}

func TestConvertEmitsHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	data := document(t, []string{"zz"}, 2, 2)
	if _, err := Convert(context.Background(), data, Options{Workers: 1}); err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if len(hooks.decoded) != 3 {
		t.Errorf("decode events = %d, want 3", len(hooks.decoded))
	}
	if hooks.built != 2 {
		t.Errorf("build events = %d, want 2", hooks.built)
	}
}
