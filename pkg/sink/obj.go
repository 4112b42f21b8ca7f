package sink

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/quillribbon/pkg/ribbon"
)

// OBJOption configures OBJ rendering via [RenderOBJ].
type OBJOption func(*objRenderer)

type objRenderer struct {
	comments []string
}

// WithOBJComment adds a comment line to the top of the file.
func WithOBJComment(s string) OBJOption {
	return func(r *objRenderer) { r.comments = append(r.comments, s) }
}

// RenderOBJ exports meshes as Wavefront OBJ. Each mesh becomes one object;
// vertex and texture indices are global and 1-based as the format requires.
func RenderOBJ(meshes []ribbon.Mesh, opts ...OBJOption) ([]byte, error) {
	r := objRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	for _, c := range r.comments {
		fmt.Fprintf(&buf, "# %s\n", strings.ReplaceAll(c, "\n", " "))
	}

	base := 1
	for i, m := range meshes {
		fmt.Fprintf(&buf, "o %s\n", objName(m, i))
		n := m.VertexCount()
		for v := 0; v < n; v++ {
			p, c := m.Position(v), m.Color(v)
			fmt.Fprintf(&buf, "v %s %s %s %s %s %s\n",
				ftoa(p[0]), ftoa(p[1]), ftoa(p[2]), ftoa(c[0]), ftoa(c[1]), ftoa(c[2]))
		}
		for v := 0; v < n; v++ {
			uv := m.UV(v)
			fmt.Fprintf(&buf, "vt %s %s\n", ftoa(uv[0]), ftoa(uv[1]))
		}
		if m.Primitive == ribbon.Lines {
			for v := 0; v+1 < n; v += 2 {
				fmt.Fprintf(&buf, "l %d/%d %d/%d\n", base+v, base+v, base+v+1, base+v+1)
			}
		} else {
			for v := 0; v+2 < n; v += 3 {
				a, b, c := base+v, base+v+1, base+v+2
				fmt.Fprintf(&buf, "f %d/%d %d/%d %d/%d\n", a, a, b, b, c, c)
			}
		}
		base += n
	}
	return buf.Bytes(), nil
}

// objName returns an OBJ object name for m without whitespace.
func objName(m ribbon.Mesh, i int) string {
	name := m.Name
	if name == "" {
		name = fmt.Sprintf("mesh_%d", i)
	}
	return strings.Join(strings.Fields(name), "_")
}

func ftoa(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
