package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/quillribbon/pkg/errors"
	"github.com/matzehuels/quillribbon/pkg/observability"
	"github.com/matzehuels/quillribbon/pkg/scene"
)

// Summary describes a document without building any geometry.
type Summary struct {
	Members    []string      `json:"members"`
	BinarySize int           `json:"binary_size"`
	Nodes      []NodeInfo    `json:"nodes"`
	Drawings   []DrawingInfo `json:"drawings"`
	Stats      Stats         `json:"stats"`
}

// NodeInfo describes one scene node.
type NodeInfo struct {
	Path     string `json:"path"`
	Type     string `json:"type"`
	Depth    int    `json:"depth"`
	Drawings int    `json:"drawings"`
}

// DrawingInfo describes one drawing's stroke table. Err is set when the
// drawing could not be decoded.
type DrawingInfo struct {
	Node     string `json:"node"`
	Index    int    `json:"index"`
	Offset   string `json:"offset"`
	Strokes  int    `json:"strokes"`
	Vertices int    `json:"vertices"` // Decoded input vertices
	Error    string `json:"error,omitempty"`
	Err      error  `json:"-"`
}

// Inspect decodes every drawing of the archive and reports its size. It
// follows the same error policy as [Convert]: a bad drawing is recorded in
// its DrawingInfo, a truncated binary member fails the call.
func Inspect(ctx context.Context, data []byte) (*Summary, error) {
	start := time.Now()
	a, doc, refs, err := open(data)
	observability.Pipeline().OnOpenComplete(ctx, len(data), len(refs), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	s := &Summary{Members: a.Names(), BinarySize: len(a.Binary())}
	doc.Walk(func(path string, depth int, n *scene.Node) {
		s.Nodes = append(s.Nodes, NodeInfo{
			Path:     path,
			Type:     n.Type,
			Depth:    depth,
			Drawings: len(n.Drawings()),
		})
	})
	s.Stats.Nodes = len(s.Nodes)
	s.Stats.Drawings = len(refs)

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info := DrawingInfo{Node: ref.Node, Index: ref.Index, Offset: ref.Offset}
		strokes, err := decodeDrawing(a.Binary(), ref)
		if err != nil {
			if fatal(err) {
				return nil, err
			}
			info.Err = err
			info.Error = errors.UserMessage(err)
			s.Stats.Skipped++
		}
		info.Strokes = len(strokes)
		for _, st := range strokes {
			info.Vertices += len(st.Vertices)
		}
		s.Stats.Strokes += info.Strokes
		s.Drawings = append(s.Drawings, info)
	}
	return s, nil
}

// Errors returns the drawing-level errors of the summary as item errors.
func (s *Summary) Errors() []*errors.ItemError {
	var out []*errors.ItemError
	for _, d := range s.Drawings {
		if d.Err != nil {
			out = append(out, &errors.ItemError{Node: d.Node, Drawing: d.Index, Stroke: -1, Err: d.Err})
		}
	}
	return out
}
