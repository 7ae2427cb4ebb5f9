// Package render turns laid-out flow graphs into visual artifacts.
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage emits Graphviz DOT with every system pinned at
// the position computed by the force layout, then renders SVG or PNG
// in-process through go-graphviz:
//
//	dot := nodelink.ToDOT(layout, nodelink.Options{FlowCounts: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// [nodelink]: github.com/matzehuels/flowmap/pkg/render/nodelink
package render
