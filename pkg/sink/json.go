package sink

import (
	"encoding/json"

	"github.com/matzehuels/quillribbon/pkg/errors"
	"github.com/matzehuels/quillribbon/pkg/ribbon"
)

// JSONVersion is the version written by [RenderJSON] and required by [ReadJSON].
const JSONVersion = 1

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	source  string
	options *ribbon.Options
	errs    []*errors.ItemError
}

// WithJSONSource records the name of the archive the meshes came from.
func WithJSONSource(name string) JSONOption { return func(r *jsonRenderer) { r.source = name } }

// WithJSONOptions records the builder options used to produce the meshes.
func WithJSONOptions(o ribbon.Options) JSONOption {
	return func(r *jsonRenderer) { r.options = &o }
}

// WithJSONErrors includes per-item errors in the output.
func WithJSONErrors(errs []*errors.ItemError) JSONOption {
	return func(r *jsonRenderer) { r.errs = errs }
}

type jsonOutput struct {
	Version int             `json:"version"`
	Source  string          `json:"source,omitempty"`
	Options *ribbon.Options `json:"options,omitempty"`
	Meshes  []jsonMesh      `json:"meshes"`
	Errors  []jsonError     `json:"errors,omitempty"`
}

type jsonMesh struct {
	Name        string           `json:"name"`
	Node        string           `json:"node"`
	Drawing     int              `json:"drawing"`
	Stroke      int              `json:"stroke"`
	Primitive   ribbon.Primitive `json:"primitive"`
	VertexCount int              `json:"vertex_count"`
	Positions   []float32        `json:"positions"`
	Colors      []float32        `json:"colors"`
	UVs         []float32        `json:"uvs"`
}

type jsonError struct {
	Node    string      `json:"node"`
	Drawing int         `json:"drawing"`
	Stroke  int         `json:"stroke"`
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// RenderJSON exports meshes as a pretty-printed JSON document. It does not
// modify its arguments and is safe to call concurrently.
func RenderJSON(meshes []ribbon.Mesh, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Version: JSONVersion,
		Source:  r.source,
		Options: r.options,
		Meshes:  make([]jsonMesh, 0, len(meshes)),
	}
	for _, m := range meshes {
		out.Meshes = append(out.Meshes, jsonMesh{
			Name:        m.Name,
			Node:        m.Node,
			Drawing:     m.Drawing,
			Stroke:      m.Stroke,
			Primitive:   m.Primitive,
			VertexCount: m.VertexCount(),
			Positions:   nonNil(m.Positions),
			Colors:      nonNil(m.Colors),
			UVs:         nonNil(m.UVs),
		})
	}
	for _, e := range r.errs {
		out.Errors = append(out.Errors, jsonError{
			Node:    e.Node,
			Drawing: e.Drawing,
			Stroke:  e.Stroke,
			Code:    errors.GetCode(e.Err),
			Message: errors.UserMessage(e.Err),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode json")
	}
	return data, nil
}

// ReadJSON parses a document written by [RenderJSON]. Restored item errors
// carry the original code and message but not the original error type.
func ReadJSON(data []byte) ([]ribbon.Mesh, []*errors.ItemError, error) {
	var in jsonOutput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
	}
	if in.Version != JSONVersion {
		return nil, nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported json version %d", in.Version)
	}

	meshes := make([]ribbon.Mesh, 0, len(in.Meshes))
	for i, m := range in.Meshes {
		if len(m.Positions) != 3*m.VertexCount || len(m.Colors) != 4*m.VertexCount || len(m.UVs) != 2*m.VertexCount {
			return nil, nil, errors.New(errors.ErrCodeInvalidFormat, "mesh %d: array lengths do not match vertex_count %d", i, m.VertexCount)
		}
		meshes = append(meshes, ribbon.Mesh{
			Name:    m.Name,
			Node:    m.Node,
			Drawing: m.Drawing,
			Stroke:  m.Stroke,
			Buffer: ribbon.Buffer{
				Primitive: m.Primitive,
				Positions: m.Positions,
				Colors:    m.Colors,
				UVs:       m.UVs,
			},
		})
	}

	var errs []*errors.ItemError
	for _, e := range in.Errors {
		code := e.Code
		if code == "" {
			code = errors.ErrCodeInternal
		}
		errs = append(errs, &errors.ItemError{
			Node:    e.Node,
			Drawing: e.Drawing,
			Stroke:  e.Stroke,
			Err:     errors.New(code, "%s", e.Message),
		})
	}
	return meshes, errs, nil
}

func nonNil(s []float32) []float32 {
	if s == nil {
		return []float32{}
	}
	return s
}
