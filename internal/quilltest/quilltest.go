// Package quilltest builds synthetic Quill documents for tests.
//
// Header and reserved regions are filled with non-zero marker bytes so that
// tests catch decoders that interpret them instead of skipping them.
package quilltest

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/klauspost/compress/zip"
)

// Marker bytes written into regions a decoder must skip.
const (
	HeaderFill   = 0xAB
	ReservedFill = 0xCD
)

// Vertex is one synthetic stroke sample.
type Vertex struct {
	Pos   [3]float32
	Color [4]float32
	Width float32
}

// Line returns n vertices spaced one unit apart along X with a constant
// color and width.
func Line(n int, color [4]float32, width float32) []Vertex {
	vs := make([]Vertex, n)
	for i := range vs {
		vs[i] = Vertex{Pos: [3]float32{float32(i), 0, 0}, Color: color, Width: width}
	}
	return vs
}

// Binary accumulates stroke tables into one binary member.
type Binary struct {
	buf bytes.Buffer
}

// Pad appends n filler bytes.
func (b *Binary) Pad(n int) {
	b.buf.Write(bytes.Repeat([]byte{0xEE}, n))
}

// Append writes a stroke table and returns its offset.
func (b *Binary) Append(strokes ...[]Vertex) uint32 {
	off := uint32(b.buf.Len())
	b.buf.Write(Table(strokes...))
	return off
}

// Bytes returns the binary member.
func (b *Binary) Bytes() []byte { return b.buf.Bytes() }

// Table encodes a stroke table.
func Table(strokes ...[]Vertex) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	_ = binary.Write(&buf, le, int32(len(strokes)))
	for _, s := range strokes {
		buf.Write(bytes.Repeat([]byte{HeaderFill}, 36))
		_ = binary.Write(&buf, le, int32(len(s)))
		for _, v := range s {
			_ = binary.Write(&buf, le, v.Pos)
			buf.Write(bytes.Repeat([]byte{ReservedFill}, 24))
			_ = binary.Write(&buf, le, v.Color)
			_ = binary.Write(&buf, le, v.Width)
		}
	}
	return buf.Bytes()
}

// Node describes a scene node for [Scene].
type Node struct {
	Name     string
	Type     string
	Offsets  []string
	Children []Node
}

// HexOffset formats an offset the way Quill stores DataFileOffset.
func HexOffset(off uint32) string {
	return fmt.Sprintf("%x", off)
}

// Scene encodes a scene description whose root layer holds nodes.
func Scene(nodes ...Node) []byte {
	doc := map[string]any{
		"Version": 1,
		"Sequence": map[string]any{
			"RootLayer": map[string]any{
				"Name":           "Root",
				"Type":           "Group",
				"Implementation": map[string]any{"Children": sceneNodes(nodes)},
			},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}

func sceneNodes(nodes []Node) []any {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		impl := map[string]any{}
		if n.Offsets != nil {
			drawings := make([]any, len(n.Offsets))
			for i, off := range n.Offsets {
				drawings[i] = map[string]any{"DataFileOffset": off}
			}
			impl["Drawings"] = drawings
		}
		if len(n.Children) > 0 {
			impl["Children"] = sceneNodes(n.Children)
		}
		typ := n.Type
		if typ == "" {
			typ = "Paint"
		}
		out = append(out, map[string]any{"Name": n.Name, "Type": typ, "Implementation": impl})
	}
	return out
}

// Archive zips a scene description and binary member into a Quill document.
func Archive(tb testing.TB, meta, bin []byte) []byte {
	tb.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range []struct {
		name string
		data []byte
	}{
		{"Quill.json", meta},
		{"Quill.qbin", bin},
	} {
		w, err := zw.Create(m.name)
		if err != nil {
			tb.Fatalf("create %s: %v", m.name, err)
		}
		if _, err := w.Write(m.data); err != nil {
			tb.Fatalf("write %s: %v", m.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
