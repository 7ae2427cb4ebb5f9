package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowmap/pkg/graph"
)

// Options configures node-link diagram generation.
type Options struct {
	// FlowCounts appends " (N flows)" to labels of edges merged from
	// more than one flow.
	FlowCounts bool

	// Tooltips attaches each edge's plain-text tooltip.
	Tooltips bool
}

// ToDOT converts a layout to Graphviz DOT with every node pinned at its
// layout position. The result is meant for the neato engine, which keeps
// pinned nodes in place and only routes edges.
//
// Nodes missing from l.Positions are emitted unpinned. Edges whose
// endpoints are not among l.Nodes are skipped, as the layout ignores them.
func ToDOT(l graph.Layout, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, fontname=\"Helvetica\", margin=\"0.15,0.05\"];\n")
	buf.WriteString("  edge [fontsize=9, fontname=\"Helvetica\", arrowsize=0.7];\n")
	buf.WriteString("\n")

	known := make(map[string]bool, len(l.Nodes))
	for _, n := range l.Nodes {
		known[n.ID] = true
		attrs := []string{fmt.Sprintf("label=%s", quote(n.DisplayLabel()))}
		if p, ok := l.Positions[n.ID]; ok {
			attrs = append(attrs, fmt.Sprintf("pos=\"%s,%s!\"", num(p.X), num(flipY(p.Y, l.Height))))
		}
		if n.Status != "" {
			attrs = append(attrs, statusAttrs(n.Status)...)
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.ID), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		if !known[e.From] || !known[e.To] {
			continue
		}
		attrs := []string{fmt.Sprintf("label=%s", quote(EdgeLabel(e, opts)))}
		if opts.Tooltips && e.Tooltip != "" {
			attrs = append(attrs, fmt.Sprintf("tooltip=%s", quote(e.Tooltip)))
		}
		if e.Status != "" {
			attrs = append(attrs, statusAttrs(e.Status)...)
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", quote(e.From), quote(e.To), strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// EdgeLabel returns the text drawn on an edge.
func EdgeLabel(e graph.Edge, opts Options) string {
	label := e.Label
	if label == "" {
		label = graph.Unknown
	}
	if opts.FlowCounts && e.FlowCount > 1 {
		label = fmt.Sprintf("%s (%d flows)", label, e.FlowCount)
	}
	return label
}

// statusAttrs marks diff graph elements. Unchanged elements keep the
// default look.
func statusAttrs(status string) []string {
	switch status {
	case graph.StatusAdded:
		return []string{"penwidth=2", "class=\"added\""}
	case graph.StatusRemoved:
		return []string{"style=dashed", "class=\"removed\""}
	case graph.StatusModified:
		return []string{"penwidth=2", "style=bold", "class=\"modified\""}
	}
	return nil
}

// flipY converts a top-left origin y coordinate into Graphviz's
// bottom-left origin.
func flipY(y, height float64) float64 {
	if height <= 0 {
		return -y
	}
	return height - y
}

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// quote produces a DOT double-quoted string. DOT recognises \n in labels
// as a centred line break, so newlines are escaped rather than removed.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

// =============================================================================
// Rendering
// =============================================================================

// RenderSVG renders DOT to SVG using the neato engine with pinned positions.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	data, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(data), nil
}

// RenderPNG renders DOT to PNG using the neato engine with pinned positions.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="(-?[0-9.]+)\s+(-?[0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a
// responsive one that keeps the drawing's aspect ratio.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
