package graph

import (
	"fmt"
	"slices"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Placeholder values used when a field has no usable data.
const (
	// Unknown is the default for any flow attribute that was absent or blank.
	Unknown = "Unknown"

	// Mixed marks an edge whose flows use more than one integration pattern.
	Mixed = "Mixed"
)

// keySeparator joins from and to into an edge identity key. A control
// character cannot appear in spreadsheet-sourced system names.
const keySeparator = "\x00"

// Diff statuses attached to nodes and edges of a comparison graph.
const (
	StatusAdded     = "added"
	StatusRemoved   = "removed"
	StatusModified  = "modified"
	StatusUnchanged = "unchanged"
)

// =============================================================================
// Graph - Consolidated Flow Graph
// =============================================================================

// Graph is the canonical serialization format for consolidated flow graphs.
// Used for CLI files, API payloads, snapshots, and cache entries.
//
// Node and edge order is significant: it is the first-seen order of the
// raw records and every consumer (layout, rendering, diffing) preserves it.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is a system that sends or receives data.
type Node struct {
	ID     string `json:"id" bson:"id"`
	Label  string `json:"label,omitempty" bson:"label,omitempty"`
	Status string `json:"status,omitempty" bson:"status,omitempty"` // set on diff graphs only
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Flow is one raw exchange between two systems after field normalization.
type Flow struct {
	DataForm           string `json:"data_form" bson:"data_form"`
	Frequency          string `json:"frequency" bson:"frequency"`
	IntegrationPattern string `json:"integration_pattern" bson:"integration_pattern"`
	Description        string `json:"description,omitempty" bson:"description,omitempty"`
}

// Edge aggregates every flow for one ordered (From, To) pair.
type Edge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`

	// Flows in input order. Never empty for consolidated edges.
	Flows []Flow `json:"flows" bson:"flows"`

	IntegrationPattern string `json:"integration_pattern" bson:"integration_pattern"`
	Frequency          string `json:"frequency" bson:"frequency"`
	Label              string `json:"label" bson:"label"`
	FlowCount          int    `json:"flow_count" bson:"flow_count"`

	DataForms    []string `json:"data_forms,omitempty" bson:"data_forms,omitempty"`
	Frequencies  []string `json:"frequencies,omitempty" bson:"frequencies,omitempty"`
	Descriptions []string `json:"descriptions,omitempty" bson:"descriptions,omitempty"`
	Tooltip      string   `json:"tooltip,omitempty" bson:"tooltip,omitempty"`

	Status string `json:"status,omitempty" bson:"status,omitempty"` // set on diff graphs only
}

// Key returns the identity key of the edge's ordered pair.
func (e *Edge) Key() string { return EdgeKey(e.From, e.To) }

// EdgeKey builds the identity key for an ordered (from, to) pair.
func EdgeKey(from, to string) string { return from + keySeparator + to }

// =============================================================================
// Graph Accessors
// =============================================================================

// IsEmpty reports whether the graph has no nodes. Consolidating input with
// no valid rows yields an empty graph.
func (g Graph) IsEmpty() bool { return len(g.Nodes) == 0 }

// NodeCount returns the number of nodes.
func (g Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of consolidated edges.
func (g Graph) EdgeCount() int { return len(g.Edges) }

// FlowCount returns the number of raw flows across all edges.
func (g Graph) FlowCount() int {
	total := 0
	for _, e := range g.Edges {
		total += len(e.Flows)
	}
	return total
}

// NodeIDs returns node IDs in graph order.
func (g Graph) NodeIDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Degrees returns, for every node, the number of edges it appears on as
// either endpoint. Nodes without edges map to zero.
func (g Graph) Degrees() map[string]int {
	deg := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		deg[n.ID] = 0
	}
	for _, e := range g.Edges {
		deg[e.From]++
		deg[e.To]++
	}
	return deg
}

// Clone returns a deep copy of the graph.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: slices.Clone(g.Nodes),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, e := range g.Edges {
		e.Flows = slices.Clone(e.Flows)
		e.DataForms = slices.Clone(e.DataForms)
		e.Frequencies = slices.Clone(e.Frequencies)
		e.Descriptions = slices.Clone(e.Descriptions)
		out.Edges[i] = e
	}
	return out
}

// ValidateNodes checks that node IDs are non-empty and unique. Edges are
// not inspected: layout and rendering accept subgraphs whose edges name
// nodes that are absent, and ignore those edges.
func (g Graph) ValidateNodes() error {
	_, err := g.nodeSet()
	return err
}

// Validate checks the full structure of a consolidated graph: non-empty
// unique node IDs, one edge per ordered pair, and edge endpoints that name
// known nodes.
func (g Graph) Validate() error {
	seen, err := g.nodeSet()
	if err != nil {
		return err
	}

	pairs := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		if !seen[e.From] || !seen[e.To] {
			return fmt.Errorf("edge %s→%s references unknown node", e.From, e.To)
		}
		k := e.Key()
		if pairs[k] {
			return fmt.Errorf("duplicate edge %s→%s", e.From, e.To)
		}
		pairs[k] = true
	}
	return nil
}

func (g Graph) nodeSet() (map[string]bool, error) {
	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node with empty id")
		}
		if seen[n.ID] {
			return nil, fmt.Errorf("duplicate node %q", n.ID)
		}
		seen[n.ID] = true
	}
	return seen, nil
}
