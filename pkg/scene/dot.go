package scene

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// DOTOptions configures scene diagrams.
type DOTOptions struct {
	// Detailed adds the node type and drawing offsets to each label.
	Detailed bool
}

// ToDOT converts the node tree to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Nodes that own drawings are filled; nodes without drawings are drawn with
// dashed outlines. The root layer is the single source node.
func ToDOT(d *Document, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Scene {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	const root = "RootLayer"
	fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=lightgrey];\n", root, root)

	var parents []string
	d.Walk(func(path string, depth int, n *Node) {
		parents = append(parents[:depth], path)
		attrs := []string{fmt.Sprintf("label=%q", dotLabel(n, opts.Detailed))}
		if len(n.Drawings()) == 0 {
			attrs = append(attrs, "style=\"rounded,dashed\"")
		} else {
			attrs = append(attrs, "fillcolor=lightblue")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", path, strings.Join(attrs, ", "))

		parent := root
		if depth > 0 {
			parent = parents[depth-1]
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", parent, path)
	})

	buf.WriteString("}\n")
	return buf.String()
}

func dotLabel(n *Node, detailed bool) string {
	name := n.Name
	if name == "" {
		name = "(unnamed)"
	}
	if !detailed {
		return name
	}

	parts := []string{name}
	if n.Type != "" {
		parts = append(parts, "type: "+n.Type)
	}
	for i, dr := range n.Drawings() {
		parts = append(parts, fmt.Sprintf("drawing %d @ %s", i, dr.DataFileOffset))
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
