package pipeline

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/quillribbon/internal/quilltest"
	"github.com/matzehuels/quillribbon/pkg/errors"
)

func TestInspect(t *testing.T) {
	var bin quilltest.Binary
	a := bin.Append(quilltest.Line(4, red, 1), quilltest.Line(2, red, 1))
	b := bin.Append(quilltest.Line(5, red, 1))
	meta := quilltest.Scene(
		quilltest.Node{Name: "Sky", Offsets: []string{quilltest.HexOffset(a), "xyz"}},
		quilltest.Node{Name: "Camera", Type: "Camera"},
		quilltest.Node{Name: "Props", Type: "Group", Children: []quilltest.Node{
			{Name: "Tree", Offsets: []string{quilltest.HexOffset(b)}},
		}},
	)
	data := quilltest.Archive(t, meta, bin.Bytes())

	s, err := NewRunner(nil, nil, nil).Inspect(context.Background(), data)
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}

	if diff := cmp.Diff([]string{"Quill.json", "Quill.qbin"}, s.Members); diff != "" {
		t.Errorf("Members mismatch (-want +got):\n%s", diff)
	}
	if s.BinarySize != len(bin.Bytes()) {
		t.Errorf("BinarySize = %d, want %d", s.BinarySize, len(bin.Bytes()))
	}

	wantNodes := []NodeInfo{
		{Path: "Sky", Type: "Paint", Depth: 0, Drawings: 2},
		{Path: "Camera", Type: "Camera", Depth: 0},
		{Path: "Props", Type: "Group", Depth: 0},
		{Path: "Props/Tree", Type: "Paint", Depth: 1, Drawings: 1},
	}
	if diff := cmp.Diff(wantNodes, s.Nodes); diff != "" {
		t.Errorf("Nodes mismatch (-want +got):\n%s", diff)
	}

	wantDrawings := []DrawingInfo{
		{Node: "Sky", Index: 0, Offset: quilltest.HexOffset(a), Strokes: 2, Vertices: 6},
		{Node: "Sky", Index: 1, Offset: "xyz", Error: `invalid data file offset "xyz": strconv.ParseUint: parsing "xyz": invalid syntax`},
		{Node: "Props/Tree", Index: 0, Offset: quilltest.HexOffset(b), Strokes: 1, Vertices: 5},
	}
	if diff := cmp.Diff(wantDrawings, s.Drawings, cmpopts.IgnoreFields(DrawingInfo{}, "Err")); diff != "" {
		t.Errorf("Drawings mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(s.Drawings[1].Err, errors.ErrCodeMalformedOffset) {
		t.Errorf("Drawings[1].Err = %v, want %v", s.Drawings[1].Err, errors.ErrCodeMalformedOffset)
	}

	want := Stats{Nodes: 4, Drawings: 3, Skipped: 1, Strokes: 3}
	if diff := cmp.Diff(want, s.Stats); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}
	if errs := s.Errors(); len(errs) != 1 || errs[0].Drawing != 1 {
		t.Errorf("Errors() = %v, want drawing 1", errs)
	}
}

func TestInspectTruncated(t *testing.T) {
	table := quilltest.Table(quilltest.Line(3, red, 1))
	meta := quilltest.Scene(quilltest.Node{Name: "Sky", Offsets: []string{"0"}})
	data := quilltest.Archive(t, meta, table[:50])

	if _, err := Inspect(context.Background(), data); !errors.Is(err, errors.ErrCodeOutOfBounds) {
		t.Errorf("Inspect() error = %v, want %v", err, errors.ErrCodeOutOfBounds)
	}
}
