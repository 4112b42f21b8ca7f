// Package stroke decodes the stroke tables stored in a Quill binary member.
//
// # Layout
//
// All values are little-endian. A stroke table starts at the offset named by
// a drawing's DataFileOffset:
//
//	int32  stroke_count
//	stroke_count times:
//	    [36]byte  header (brush, bounds; not interpreted)
//	    int32     vertex_count
//	    vertex_count times:
//	        float32[3]  position
//	        [24]byte    reserved
//	        float32[4]  color (r, g, b, a)
//	        float32     width
//
// Each vertex therefore occupies [VertexSize] bytes. Reserved regions are
// skipped, never read, so the cursor arithmetic stays exact whatever they
// contain.
//
// # Representative values
//
// Every [Stroke] carries one width and one color sampled from the vertex at
// index len(Vertices)/2. Ribbon geometry uses these for the whole stroke.
package stroke

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Layout sizes in bytes.
const (
	CountSize        = 4
	StrokeHeaderSize = 36
	ReservedSize     = 24
	VertexSize       = 12 + ReservedSize + 16 + 4
)

// Vertex is one decoded stroke sample.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec4
	Width    float32

	// Orientation rotates the ribbon cross-section in oriented mode.
	// The default layout carries no orientation, so the decoder leaves it nil.
	Orientation *mgl32.Quat
}

// Stroke is one continuous polyline.
type Stroke struct {
	Vertices []Vertex

	// Width and Color are sampled from Vertices[len(Vertices)/2].
	// Both are zero for a stroke without vertices.
	Width float32
	Color mgl32.Vec4

	// Start and End delimit the stroke's bytes in the binary member.
	Start, End int
}

// RepresentativeIndex returns the vertex index used for the representative
// width and color of a stroke with n vertices.
func RepresentativeIndex(n int) int {
	return n / 2
}

// sample sets the representative width and color from the vertices.
func (s *Stroke) sample() {
	if len(s.Vertices) == 0 {
		return
	}
	v := s.Vertices[RepresentativeIndex(len(s.Vertices))]
	s.Width = v.Width
	s.Color = v.Color
}

// Positions returns the vertex positions.
func (s *Stroke) Positions() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(s.Vertices))
	for i, v := range s.Vertices {
		out[i] = v.Position
	}
	return out
}

// Orient assigns per-vertex orientations. It panics if len(q) differs from
// the number of vertices.
func (s *Stroke) Orient(q []mgl32.Quat) {
	if len(q) != len(s.Vertices) {
		panic("stroke: orientation count does not match vertex count")
	}
	for i := range s.Vertices {
		s.Vertices[i].Orientation = &q[i]
	}
}
