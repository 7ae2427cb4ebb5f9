// Package nodelink renders flow graphs as node-link diagrams.
//
// # Overview
//
// Systems appear as rounded boxes connected by arrows, one arrow per
// consolidated edge. Graphviz does not choose positions here: [ToDOT] pins
// every node at the coordinates of a [graph.Layout] and the neato engine
// only routes the edges.
//
// # Usage
//
//	dot := nodelink.ToDOT(l, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Coordinates
//
// Layout positions are pixels with the origin at the top left. DOT positions
// are points (1/72 inch) with the origin at the bottom left, so y is flipped
// against the layout height. Pinned positions are written as pos="x,y!" and
// the graph sets inputscale=72 so neato reads them as points.
//
// # Edge Labels
//
// Each edge is labelled with its consolidated label (pattern and data
// forms). With [Options.FlowCounts] set, edges merged from more than one flow
// get a " (N flows)" suffix. The plain-text tooltip travels as the SVG title.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz], which embeds Graphviz as
// WebAssembly, so no system install is required.
package nodelink
