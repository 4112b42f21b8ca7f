package scene

import (
	"encoding/json"
	"strconv"

	"github.com/matzehuels/quillribbon/pkg/errors"
)

// Document is the parsed scene description.
type Document struct {
	Sequence Sequence `json:"Sequence"`
}

// Sequence holds the root layer of the scene.
type Sequence struct {
	RootLayer *Node `json:"RootLayer"`
}

// Node is one scene graph node. Nodes own their children exclusively.
type Node struct {
	Name           string          `json:"Name,omitempty"`
	Type           string          `json:"Type,omitempty"`
	Implementation *Implementation `json:"Implementation,omitempty"`
}

// Implementation carries the node's children and drawings.
type Implementation struct {
	Children []*Node   `json:"Children,omitempty"`
	Drawings []Drawing `json:"Drawings,omitempty"`
}

// Drawing references one stroke table in the binary member.
type Drawing struct {
	// DataFileOffset is the hexadecimal byte offset of the stroke table.
	// Non-string JSON values are kept verbatim so that they fail in
	// ParseOffset instead of failing the whole document.
	DataFileOffset string `json:"DataFileOffset"`
}

// UnmarshalJSON accepts any JSON value for DataFileOffset.
func (d *Drawing) UnmarshalJSON(data []byte) error {
	var raw struct {
		DataFileOffset json.RawMessage `json:"DataFileOffset"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.DataFileOffset) == 0 {
		d.DataFileOffset = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.DataFileOffset, &s); err == nil {
		d.DataFileOffset = s
		return nil
	}
	d.DataFileOffset = string(raw.DataFileOffset)
	return nil
}

// DrawingRef locates a drawing within the document.
type DrawingRef struct {
	Node   string // Scene path of the owning node
	Index  int    // Position in the node's drawing list
	Offset string // Raw hexadecimal offset
}

// ParseOffset returns the parsed byte offset of the drawing.
func (r DrawingRef) ParseOffset() (uint32, error) {
	return ParseOffset(r.Offset)
}

// Parse decodes the scene description. The path
// Sequence.RootLayer.Implementation must exist; an empty child list is valid.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMetadata, err, "parse scene description")
	}
	if doc.Sequence.RootLayer == nil {
		return nil, errors.New(errors.ErrCodeInvalidMetadata, "missing Sequence.RootLayer")
	}
	if doc.Sequence.RootLayer.Implementation == nil {
		return nil, errors.New(errors.ErrCodeInvalidMetadata, "missing Sequence.RootLayer.Implementation")
	}
	return &doc, nil
}

// Children returns the root layer's children.
func (d *Document) Children() []*Node {
	if d.Sequence.RootLayer == nil || d.Sequence.RootLayer.Implementation == nil {
		return nil
	}
	return d.Sequence.RootLayer.Implementation.Children
}

// WalkFunc is called for every node visited by [Document.Walk]. path is the
// slash-separated chain of node labels from the root layer's children down to
// n, and depth is 0 for direct children of the root layer.
type WalkFunc func(path string, depth int, n *Node)

// Walk visits the root layer's descendants depth-first in document order.
// Nil children are skipped.
func (d *Document) Walk(fn WalkFunc) {
	for i, n := range d.Children() {
		walk("", 0, i, n, fn)
	}
}

func walk(parent string, depth, index int, n *Node, fn WalkFunc) {
	if n == nil {
		return
	}
	path := label(n, index)
	if parent != "" {
		path = parent + "/" + path
	}
	fn(path, depth, n)
	for i, c := range n.Children() {
		walk(path, depth+1, i, c, fn)
	}
}

// label names a node by its Name, or by its position when unnamed.
func label(n *Node, index int) string {
	if n.Name != "" {
		return n.Name
	}
	return "#" + strconv.Itoa(index)
}

// Children returns the node's children, or nil.
func (n *Node) Children() []*Node {
	if n.Implementation == nil {
		return nil
	}
	return n.Implementation.Children
}

// Drawings returns the node's drawings, or nil.
func (n *Node) Drawings() []Drawing {
	if n.Implementation == nil {
		return nil
	}
	return n.Implementation.Drawings
}

// Drawings lists every drawing reference in depth-first document order.
// Nodes lacking a drawings list contribute nothing.
func (d *Document) Drawings() []DrawingRef {
	var refs []DrawingRef
	d.Walk(func(path string, _ int, n *Node) {
		for i, dr := range n.Drawings() {
			refs = append(refs, DrawingRef{Node: path, Index: i, Offset: dr.DataFileOffset})
		}
	})
	return refs
}

// ParseOffset parses a hexadecimal DataFileOffset. The string must consist
// of hexadecimal digits only (no sign, no 0x prefix) and fit in 32 bits.
func ParseOffset(s string) (uint32, error) {
	if s == "" {
		return 0, &errors.MalformedOffsetError{Value: s}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, &errors.MalformedOffsetError{Value: s, Cause: err}
	}
	return uint32(v), nil
}
