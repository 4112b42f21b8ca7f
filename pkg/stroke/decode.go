package stroke

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/quillribbon/pkg/errors"
)

// Decoder walks stroke tables in a binary member. It reads the member in
// place and never modifies it; a Decoder is not safe for concurrent use, but
// any number of Decoders may share the same member.
type Decoder struct {
	data []byte
	pos  int
}

// NewDecoder returns a decoder over the binary member.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Offset returns the current cursor position.
func (d *Decoder) Offset() int { return d.pos }

// Decode reads the stroke table starting at start. A stroke with zero
// vertices is returned with an empty vertex list.
//
// If start+4 or any later read exceeds the member, Decode fails with an
// [errors.OutOfBoundsError]; a negative count fails with CORRUPT_DATA.
// No partial table is returned on error.
func (d *Decoder) Decode(start uint32) ([]Stroke, error) {
	if int64(start) > int64(len(d.data)) {
		return nil, d.outOfBounds(int(start), CountSize)
	}
	d.pos = int(start)

	count, err := d.int32()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, errors.New(errors.ErrCodeCorruptData, "negative stroke count %d at offset %d", count, start)
	}

	var strokes []Stroke
	for k := 0; k < int(count); k++ {
		s, err := d.stroke()
		if err != nil {
			return nil, err
		}
		strokes = append(strokes, s)
	}
	return strokes, nil
}

func (d *Decoder) stroke() (Stroke, error) {
	s := Stroke{Start: d.pos}
	if err := d.skip(StrokeHeaderSize); err != nil {
		return s, err
	}

	at := d.pos
	n, err := d.int32()
	if err != nil {
		return s, err
	}
	if n < 0 {
		return s, errors.New(errors.ErrCodeCorruptData, "negative vertex count %d at offset %d", n, at)
	}
	if need := int64(n) * VertexSize; need > int64(len(d.data)-d.pos) {
		return s, d.outOfBounds(d.pos, int(min(need, math.MaxInt32)))
	}

	s.Vertices = make([]Vertex, n)
	for i := range s.Vertices {
		s.Vertices[i] = d.vertex()
	}
	s.End = d.pos
	s.sample()
	return s, nil
}

// vertex reads one vertex. The caller has checked that VertexSize bytes remain.
func (d *Decoder) vertex() Vertex {
	var v Vertex
	v.Position = mgl32.Vec3{d.float32At(0), d.float32At(4), d.float32At(8)}
	d.pos += 12 + ReservedSize
	v.Color = mgl32.Vec4{d.float32At(0), d.float32At(4), d.float32At(8), d.float32At(12)}
	d.pos += 16
	v.Width = d.float32At(0)
	d.pos += 4
	return v
}

func (d *Decoder) int32() (int32, error) {
	if err := d.check(4); err != nil {
		return 0, err
	}
	v := int32(binary.LittleEndian.Uint32(d.data[d.pos:]))
	d.pos += 4
	return v, nil
}

func (d *Decoder) float32At(off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(d.data[d.pos+off:]))
}

func (d *Decoder) skip(n int) error {
	if err := d.check(n); err != nil {
		return err
	}
	d.pos += n
	return nil
}

func (d *Decoder) check(n int) error {
	if n > len(d.data)-d.pos {
		return d.outOfBounds(d.pos, n)
	}
	return nil
}

func (d *Decoder) outOfBounds(offset, size int) error {
	return &errors.OutOfBoundsError{Offset: offset, Size: size, Length: len(d.data)}
}

// Decode reads the stroke table at start from the binary member.
func Decode(data []byte, start uint32) ([]Stroke, error) {
	return NewDecoder(data).Decode(start)
}
