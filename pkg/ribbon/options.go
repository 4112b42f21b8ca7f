package ribbon

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/matzehuels/quillribbon/pkg/errors"
	"github.com/matzehuels/quillribbon/pkg/stroke"
)

// Orientation selects how ribbon cross-sections are oriented.
type Orientation string

const (
	// Billboard places every cross-section along object-space X.
	Billboard Orientation = "billboard"

	// Oriented rotates every cross-section by its vertex's orientation.
	Oriented Orientation = "oriented"
)

// Primitive selects the emitted primitive.
type Primitive string

const (
	// Triangles emits two triangles per segment.
	Triangles Primitive = "triangles"

	// Lines emits one line per segment.
	Lines Primitive = "lines"
)

// Grouping selects how strokes are batched into buffers.
type Grouping string

const (
	// PerDrawing concatenates all strokes of a drawing into one buffer.
	PerDrawing Grouping = "drawing"

	// PerStroke builds one buffer per stroke.
	PerStroke Grouping = "stroke"
)

// Options configures a [Builder]. The zero value builds billboard triangle
// ribbons of full representative width, one buffer per drawing.
type Options struct {
	Orientation Orientation `json:"orientation,omitempty" toml:"orientation"`
	Primitive   Primitive   `json:"primitive,omitempty" toml:"primitive"`
	Grouping    Grouping    `json:"grouping,omitempty" toml:"grouping"`

	// HalfWidth uses half the representative width as the corner offset,
	// so the ribbon's total width equals the recorded brush width.
	HalfWidth bool `json:"half_width,omitempty" toml:"half_width"`
}

// SetDefaults fills empty fields.
func (o *Options) SetDefaults() {
	if o.Orientation == "" {
		o.Orientation = Billboard
	}
	if o.Primitive == "" {
		o.Primitive = Triangles
	}
	if o.Grouping == "" {
		o.Grouping = PerDrawing
	}
}

// Validate checks every field after applying defaults.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := errors.ValidateOneOf("orientation", string(o.Orientation), string(Billboard), string(Oriented)); err != nil {
		return err
	}
	if err := errors.ValidateOneOf("primitive", string(o.Primitive), string(Triangles), string(Lines)); err != nil {
		return err
	}
	return errors.ValidateOneOf("grouping", string(o.Grouping), string(PerDrawing), string(PerStroke))
}

// CrossSection computes the offset from a vertex to its right corner; the
// left corner is the negated offset.
type CrossSection interface {
	// Offset returns the right-corner offset for v, or false when v lacks
	// the data the strategy needs.
	Offset(v *stroke.Vertex, size float32) (mgl32.Vec3, bool)

	// Requires names the vertex field the strategy depends on.
	Requires() string
}

type billboard struct{}

func (billboard) Offset(_ *stroke.Vertex, size float32) (mgl32.Vec3, bool) {
	return mgl32.Vec3{size, 0, 0}, true
}

func (billboard) Requires() string { return "position" }

type oriented struct{}

func (oriented) Offset(v *stroke.Vertex, size float32) (mgl32.Vec3, bool) {
	if v.Orientation == nil {
		return mgl32.Vec3{}, false
	}
	return v.Orientation.Rotate(mgl32.Vec3{size, 0, 0}), true
}

func (oriented) Requires() string { return "orientation" }

// crossSection returns the strategy for o.
func crossSection(o Orientation) CrossSection {
	if o == Oriented {
		return oriented{}
	}
	return billboard{}
}
