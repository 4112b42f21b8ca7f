// Package ribbon turns decoded strokes into flat, renderable geometry.
//
// A ribbon is a triangulated quad strip that follows a stroke's polyline.
// For every pair of consecutive vertices the builder emits one quad as two
// triangles, six vertices in all, with no index sharing:
//
//	left(i)    right(i)
//	   +---------+
//	   |       / |
//	   |     /   |
//	   |   /     |
//	   +---------+
//	left(i-1)  right(i-1)
//
// The corners sit at ±size along a cross-section axis. In [Billboard] mode
// the axis is object-space X for every vertex; in [Oriented] mode the same
// offsets are rotated by each vertex's orientation quaternion.
//
// Every emitted vertex of a stroke gets the stroke's single representative
// color. U runs along the stroke by vertex index (i/n), V is 0 on the left
// edge and 1 on the right. Z is negated on output to convert handedness.
//
// # Options
//
// [Options] selects the cross-section strategy, the width convention
// (representative width or half of it), the primitive ([Triangles] or a raw
// [Lines] list) and the grouping ([PerDrawing] concatenates all strokes into
// one buffer, [PerStroke] yields one buffer per stroke). Grouping never
// changes the geometry of an individual stroke.
//
// # Errors
//
// Strokes that lack data the strategy needs are skipped. The builder still
// returns every buffer it could build, together with an errors.Join of one
// [errors.MissingFieldError] per skipped stroke.
//
// [errors.MissingFieldError]: github.com/matzehuels/quillribbon/pkg/errors.MissingFieldError
package ribbon
