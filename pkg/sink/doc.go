// Package sink serializes ribbon meshes into output formats.
//
// # Formats
//
//   - JSON: flat float arrays per mesh plus per-item error reports. This is
//     also the cache representation of a converted document, so [ReadJSON]
//     restores exactly what [RenderJSON] wrote.
//   - OBJ: Wavefront OBJ with per-vertex colors (the "v x y z r g b"
//     extension) and texture coordinates. Triangle meshes become faces,
//     line meshes become polylines.
//
// Basic usage:
//
//	data, err := sink.RenderJSON(meshes, sink.WithJSONErrors(itemErrs))
//	obj, err := sink.RenderOBJ(meshes)
package sink
