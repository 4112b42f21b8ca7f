package ribbon

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Buffer is a flat vertex list: 3 position, 4 color and 2 UV floats per
// vertex. Triangle buffers hold 6 vertices per segment, line buffers 2.
type Buffer struct {
	Primitive Primitive
	Positions []float32
	Colors    []float32
	UVs       []float32
}

// VertexCount returns the number of vertices in the buffer.
func (b *Buffer) VertexCount() int { return len(b.Positions) / 3 }

// Empty reports whether the buffer holds no vertices.
func (b *Buffer) Empty() bool { return len(b.Positions) == 0 }

// Append concatenates o onto b.
func (b *Buffer) Append(o Buffer) {
	b.Positions = append(b.Positions, o.Positions...)
	b.Colors = append(b.Colors, o.Colors...)
	b.UVs = append(b.UVs, o.UVs...)
}

// Position returns vertex i's position.
func (b *Buffer) Position(i int) mgl32.Vec3 {
	return mgl32.Vec3{b.Positions[3*i], b.Positions[3*i+1], b.Positions[3*i+2]}
}

// Color returns vertex i's color.
func (b *Buffer) Color(i int) mgl32.Vec4 {
	return mgl32.Vec4{b.Colors[4*i], b.Colors[4*i+1], b.Colors[4*i+2], b.Colors[4*i+3]}
}

// UV returns vertex i's texture coordinate.
func (b *Buffer) UV(i int) mgl32.Vec2 {
	return mgl32.Vec2{b.UVs[2*i], b.UVs[2*i+1]}
}

// Bounds returns the axis-aligned bounding box of the positions.
// An empty buffer yields zero vectors.
func (b *Buffer) Bounds() (lo, hi mgl32.Vec3) {
	if b.Empty() {
		return lo, hi
	}
	inf := float32(math.Inf(1))
	lo = mgl32.Vec3{inf, inf, inf}
	hi = mgl32.Vec3{-inf, -inf, -inf}
	for i := 0; i < b.VertexCount(); i++ {
		p := b.Position(i)
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], p[k])
			hi[k] = max(hi[k], p[k])
		}
	}
	return lo, hi
}

// Mesh is a buffer together with where it came from in the document.
type Mesh struct {
	Name    string
	Node    string
	Drawing int
	Stroke  int // -1 when the mesh holds a whole drawing
	Buffer
}
