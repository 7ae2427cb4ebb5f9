package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/flowmap/pkg/graph"
)

func sampleLayout() graph.Layout {
	return graph.Layout{
		Engine: graph.EngineForce,
		Width:  400,
		Height: 300,
		Nodes: []graph.Node{
			{ID: "CRM", Label: "CRM"},
			{ID: "ERP", Label: "ERP"},
		},
		Edges: []graph.Edge{{
			From:      "CRM",
			To:        "ERP",
			Label:     "API\nJSON",
			FlowCount: 2,
			Tooltip:   "From: CRM\nTo: ERP",
		}},
		Positions: map[string]graph.Position{
			"CRM": {X: 100, Y: 100},
			"ERP": {X: 300, Y: 200},
		},
	}
}

func TestToDOTPinsPositions(t *testing.T) {
	dot := ToDOT(sampleLayout(), Options{})

	for _, want := range []string{
		`"CRM" [label="CRM", pos="100.00,200.00!"]`,
		`"ERP" [label="ERP", pos="300.00,100.00!"]`,
		`"CRM" -> "ERP" [label="API\nJSON"]`,
		"inputscale=72;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q\n%s", want, dot)
		}
	}
}

func TestToDOTUnpositionedNode(t *testing.T) {
	l := sampleLayout()
	delete(l.Positions, "ERP")

	dot := ToDOT(l, Options{})
	if !strings.Contains(dot, `"ERP" [label="ERP"];`) {
		t.Errorf("node without position should be unpinned:\n%s", dot)
	}
}

func TestToDOTSkipsEdgesToUnknownNodes(t *testing.T) {
	l := sampleLayout()
	l.Edges = append(l.Edges, graph.Edge{From: "CRM", To: "Archive", Label: "File"})

	dot := ToDOT(l, Options{})
	if strings.Contains(dot, "Archive") {
		t.Errorf("edge to an unknown node should be skipped:\n%s", dot)
	}
	if !strings.Contains(dot, `"CRM" -> "ERP"`) {
		t.Errorf("known edge missing:\n%s", dot)
	}
}

func TestToDOTTooltipsAndStatus(t *testing.T) {
	l := sampleLayout()
	l.Nodes[1].Status = graph.StatusAdded
	l.Edges[0].Status = graph.StatusRemoved

	dot := ToDOT(l, Options{Tooltips: true})
	for _, want := range []string{
		`tooltip="From: CRM\nTo: ERP"`,
		`class="added"`,
		`style=dashed`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q", want)
		}
	}
}

func TestEdgeLabel(t *testing.T) {
	tests := []struct {
		name string
		edge graph.Edge
		opts Options
		want string
	}{
		{"plain", graph.Edge{Label: "Batch", FlowCount: 3}, Options{}, "Batch"},
		{"counted", graph.Edge{Label: "Batch", FlowCount: 3}, Options{FlowCounts: true}, "Batch (3 flows)"},
		{"single flow", graph.Edge{Label: "Batch", FlowCount: 1}, Options{FlowCounts: true}, "Batch"},
		{"empty label", graph.Edge{}, Options{}, graph.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EdgeLabel(tt.edge, tt.opts); got != tt.want {
				t.Errorf("EdgeLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", `"plain"`},
		{`say "hi"`, `"say \"hi\""`},
		{"a\nb", `"a\nb"`},
		{`back\slash`, `"back\\slash"`},
		{"crlf\r\n", `"crlf\n"`},
	}

	for _, tt := range tests {
		if got := quote(tt.in); got != tt.want {
			t.Errorf("quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFlipY(t *testing.T) {
	if got := flipY(50, 300); got != 250 {
		t.Errorf("flipY(50, 300) = %v, want 250", got)
	}
	if got := flipY(50, 0); got != -50 {
		t.Errorf("flipY(50, 0) = %v, want -50", got)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="400pt" height="300pt" viewBox="0.00 0.00 400.00 300.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))

	if !strings.Contains(out, `viewBox="0 0 400.00 300.00" width="400" height="300"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if strings.Contains(out, "pt\"") {
		t.Errorf("point units should be dropped: %s", out)
	}

	plain := []byte("<svg></svg>")
	if got := normalizeViewBox(plain); !bytes.Equal(got, plain) {
		t.Errorf("svg without viewBox should be untouched, got %s", got)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sampleLayout(), Options{FlowCounts: true}))
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	s := string(svg)
	if !strings.Contains(s, "<svg") {
		t.Fatalf("RenderSVG() did not produce svg: %.80s", s)
	}
	for _, want := range []string{"CRM", "ERP", "2 flows"} {
		if !strings.Contains(s, want) {
			t.Errorf("svg missing %q", want)
		}
	}
}

func TestRenderSVGInvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "digraph {"); err == nil {
		t.Error("RenderSVG() expected error for malformed DOT")
	}
}
