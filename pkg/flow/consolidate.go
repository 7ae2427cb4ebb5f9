package flow

import (
	"fmt"
	"strings"

	"github.com/matzehuels/flowmap/pkg/graph"
)

// Consolidate builds a graph from raw flows.
//
// Every valid flow registers its two systems as nodes (first occurrence
// wins) and is appended to the edge for its ordered (From, To) pair. Flows
// without both endpoints are skipped. Node and edge order follow first
// appearance in flows. An input with no valid flows yields an empty graph.
func Consolidate(flows []RawFlow) graph.Graph {
	var (
		nodes     []graph.Node
		seenNodes = make(map[string]bool)
		groups    []*group
		byKey     = make(map[string]*group)
	)

	addNode := func(id string) {
		if seenNodes[id] {
			return
		}
		seenNodes[id] = true
		nodes = append(nodes, graph.Node{ID: id, Label: id})
	}

	for _, raw := range flows {
		if !raw.Valid() {
			continue
		}
		f := raw.withDefaults()
		addNode(f.From)
		addNode(f.To)

		key := graph.EdgeKey(f.From, f.To)
		g, ok := byKey[key]
		if !ok {
			g = &group{from: f.From, to: f.To}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.flows = append(g.flows, graph.Flow{
			DataForm:           f.DataForm,
			Frequency:          f.Frequency,
			IntegrationPattern: f.IntegrationPattern,
			Description:        f.Description,
		})
	}

	out := graph.Graph{
		Nodes: nodes,
		Edges: make([]graph.Edge, len(groups)),
	}
	if out.Nodes == nil {
		out.Nodes = []graph.Node{}
	}
	for i, g := range groups {
		out.Edges[i] = g.edge()
	}
	return out
}

// ConsolidateRecords extracts flows from generic records and consolidates them.
func ConsolidateRecords(records []Record) graph.Graph {
	flows, _ := FromRecords(records)
	return Consolidate(flows)
}

// group collects the flows of one ordered pair during a scan.
type group struct {
	from, to string
	flows    []graph.Flow
}

func (g *group) edge() graph.Edge {
	pattern := ConsolidatePattern(g.flows)
	dataForms := distinctKnown(g.flows, func(f graph.Flow) string { return f.DataForm })
	frequencies := distinctKnown(g.flows, func(f graph.Flow) string { return f.Frequency })

	frequency := graph.Unknown
	if len(frequencies) > 0 {
		frequency = strings.Join(frequencies, ", ")
	}

	var descriptions []string
	for _, f := range g.flows {
		if strings.TrimSpace(f.Description) != "" {
			descriptions = append(descriptions, f.Description)
		}
	}

	return graph.Edge{
		From:               g.from,
		To:                 g.to,
		Flows:              g.flows,
		IntegrationPattern: pattern,
		Frequency:          frequency,
		Label:              edgeLabel(pattern, dataForms),
		FlowCount:          len(g.flows),
		DataForms:          dataForms,
		Frequencies:        frequencies,
		Descriptions:       descriptions,
		Tooltip:            tooltip(g.from, g.to, pattern, g.flows),
	}
}

// ConsolidatePattern derives the integration pattern of an edge from its
// flows. Patterns are compared case-insensitively and "Unknown" is ignored.
// More than one distinct pattern gives "Mixed"; exactly one gives that
// pattern in the casing of its first occurrence; none gives "Unknown".
func ConsolidatePattern(flows []graph.Flow) string {
	var (
		first string
		seen  = make(map[string]bool)
	)
	for _, f := range flows {
		p := f.IntegrationPattern
		if p == "" || p == graph.Unknown {
			continue
		}
		lower := strings.ToLower(p)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		if len(seen) == 1 {
			first = p
		}
	}

	switch len(seen) {
	case 0:
		return graph.Unknown
	case 1:
		return first
	default:
		return graph.Mixed
	}
}

// distinctKnown returns the distinct values of attr in first-seen order,
// excluding "Unknown". Comparison is exact.
func distinctKnown(flows []graph.Flow, attr func(graph.Flow) string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range flows {
		v := attr(f)
		if seen[v] {
			continue
		}
		seen[v] = true
		if v != graph.Unknown && v != "" {
			out = append(out, v)
		}
	}
	return out
}

// edgeLabel combines the consolidated pattern with the known data forms.
func edgeLabel(pattern string, dataForms []string) string {
	patternLabel := ""
	if pattern != graph.Unknown {
		patternLabel = pattern
	}
	dataLabel := strings.Join(dataForms, ", ")

	switch {
	case patternLabel != "" && dataLabel != "":
		return patternLabel + "\n" + dataLabel
	case patternLabel != "":
		return patternLabel
	case dataLabel != "":
		return dataLabel
	default:
		return graph.Unknown
	}
}

// tooltip renders the plain-text detail shown when hovering an edge.
func tooltip(from, to, pattern string, flows []graph.Flow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\nTo: %s\n", from, to)
	fmt.Fprintf(&b, "Integration Pattern: %s\n", pattern)

	if len(flows) == 1 {
		f := flows[0]
		fmt.Fprintf(&b, "Data Format: %s\nFrequency: %s", f.DataForm, f.Frequency)
		if f.Description != "" {
			fmt.Fprintf(&b, "\nDescription: %s", f.Description)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "\nConsolidated from %d information flows:\n", len(flows))
	for i, f := range flows {
		fmt.Fprintf(&b, "\n  Flow %d:\n", i+1)
		fmt.Fprintf(&b, "    Integration Pattern: %s\n", f.IntegrationPattern)
		fmt.Fprintf(&b, "    Data Format: %s\n", f.DataForm)
		fmt.Fprintf(&b, "    Frequency: %s", f.Frequency)
		if f.Description != "" {
			fmt.Fprintf(&b, "\n    Description: %s", f.Description)
		}
		if i < len(flows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
