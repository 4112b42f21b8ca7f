package ribbon_test

import (
	"fmt"

	"github.com/matzehuels/quillribbon/internal/quilltest"
	"github.com/matzehuels/quillribbon/pkg/ribbon"
	"github.com/matzehuels/quillribbon/pkg/stroke"
)

func ExampleBuilder_Build() {
	// One red stroke of four vertices along X, width 2
	bin := quilltest.Table(quilltest.Line(4, [4]float32{1, 0, 0, 1}, 2))

	strokes, err := stroke.Decode(bin, 0)
	if err != nil {
		fmt.Println(err)
		return
	}

	b, _ := ribbon.New(ribbon.Options{})
	buf, err := b.Build(strokes)
	if err != nil {
		fmt.Println(err)
		return
	}

	lo, hi := buf.Bounds()
	fmt.Println("Strokes:", len(strokes), "end:", strokes[0].End)
	fmt.Println("Vertices:", buf.VertexCount())
	fmt.Println("Color:", buf.Color(0))
	fmt.Println("X range:", lo.X(), hi.X())
	// Output:
	// Strokes: 1 end: 268
	// Vertices: 18
	// Color: [1 0 0 1]
	// X range: -2 5
}

func ExampleBuilder_Build_halfWidth() {
	bin := quilltest.Table(quilltest.Line(4, [4]float32{1, 0, 0, 1}, 2))
	strokes, _ := stroke.Decode(bin, 0)

	b, _ := ribbon.New(ribbon.Options{HalfWidth: true})
	buf, _ := b.Build(strokes)

	lo, hi := buf.Bounds()
	fmt.Println("X range:", lo.X(), hi.X())
	// Output:
	// X range: -1 4
}
