// Package scene parses the JSON scene description of a Quill document.
//
// Only the parts of the scene graph that locate stroke data are modelled:
//
//	Sequence
//	  RootLayer
//	    Implementation
//	      Children[]            (nodes, possibly nested groups)
//	        Implementation
//	          Children[]
//	          Drawings[]
//	            DataFileOffset  (hexadecimal byte offset into Quill.qbin)
//
// [Parse] requires the path down to the root layer's children. Every other
// field is optional: a node without drawings is walked for its children and
// otherwise ignored.
//
// # Drawings
//
// [Document.Drawings] lists every drawing reference in depth-first document
// order. Offsets stay strings until [ParseOffset] converts them, so a single
// malformed offset never prevents the rest of the document from loading.
//
// # Diagrams
//
// [ToDOT] renders the node tree in Graphviz DOT format and [RenderSVG] turns
// that into an SVG image, which is handy for inspecting unfamiliar documents.
package scene
