package snapshot

import (
	"slices"
	"strings"

	"github.com/matzehuels/flowmap/pkg/graph"
)

// EdgeChange pairs the two states of a modified edge.
type EdgeChange struct {
	Base    graph.Edge `json:"base"`
	Compare graph.Edge `json:"compare"`
}

// Diff lists what changed from a base graph to a compare graph.
// Nodes are matched by ID and edges by ordered (from, to) pair.
type Diff struct {
	AddedNodes    []graph.Node `json:"added_nodes"`
	RemovedNodes  []graph.Node `json:"removed_nodes"`
	AddedEdges    []graph.Edge `json:"added_edges"`
	RemovedEdges  []graph.Edge `json:"removed_edges"`
	ModifiedEdges []EdgeChange `json:"modified_edges"`

	base graph.Graph
}

// DiffStats counts the entries of a Diff.
type DiffStats struct {
	AddedNodes    int `json:"added_nodes"`
	RemovedNodes  int `json:"removed_nodes"`
	AddedEdges    int `json:"added_edges"`
	RemovedEdges  int `json:"removed_edges"`
	ModifiedEdges int `json:"modified_edges"`
}

// Stats returns the entry counts.
func (d Diff) Stats() DiffStats {
	return DiffStats{
		AddedNodes:    len(d.AddedNodes),
		RemovedNodes:  len(d.RemovedNodes),
		AddedEdges:    len(d.AddedEdges),
		RemovedEdges:  len(d.RemovedEdges),
		ModifiedEdges: len(d.ModifiedEdges),
	}
}

// HasChanges reports whether the graphs differ.
func (d Diff) HasChanges() bool {
	return d.Stats() != DiffStats{}
}

// Compute diffs compare against base. Added entries follow compare order;
// removed and modified entries follow base order.
func Compute(base, compare graph.Graph) Diff {
	d := Diff{
		AddedNodes:    []graph.Node{},
		RemovedNodes:  []graph.Node{},
		AddedEdges:    []graph.Edge{},
		RemovedEdges:  []graph.Edge{},
		ModifiedEdges: []EdgeChange{},
		base:          base,
	}

	baseNodes := nodeSet(base)
	compareNodes := nodeSet(compare)
	for _, n := range compare.Nodes {
		if !baseNodes[n.ID] {
			d.AddedNodes = append(d.AddedNodes, n)
		}
	}
	for _, n := range base.Nodes {
		if !compareNodes[n.ID] {
			d.RemovedNodes = append(d.RemovedNodes, n)
		}
	}

	baseEdges := edgeMap(base)
	compareEdges := edgeMap(compare)
	for _, e := range base.Edges {
		c, ok := compareEdges[graph.EdgeKey(e.From, e.To)]
		if !ok {
			d.RemovedEdges = append(d.RemovedEdges, e)
			continue
		}
		if EdgeModified(e, c) {
			d.ModifiedEdges = append(d.ModifiedEdges, EdgeChange{Base: e, Compare: c})
		}
	}
	for _, e := range compare.Edges {
		if _, ok := baseEdges[graph.EdgeKey(e.From, e.To)]; !ok {
			d.AddedEdges = append(d.AddedEdges, e)
		}
	}
	return d
}

// EdgeModified reports whether two states of the same edge differ in label,
// frequency, integration pattern, or their multiset of flows.
func EdgeModified(base, compare graph.Edge) bool {
	if base.Label != compare.Label ||
		base.Frequency != compare.Frequency ||
		base.IntegrationPattern != compare.IntegrationPattern {
		return true
	}
	if len(base.Flows) != len(compare.Flows) {
		return true
	}
	return !slices.Equal(normalizedFlows(base.Flows), normalizedFlows(compare.Flows))
}

func normalizedFlows(flows []graph.Flow) []string {
	out := make([]string, len(flows))
	for i, f := range flows {
		out[i] = strings.Join([]string{f.DataForm, f.Frequency, f.IntegrationPattern, f.Description}, "\x00")
	}
	slices.Sort(out)
	return out
}

// Graph returns the union of both graphs for display. Nodes and edges carry
// a status of added, removed, modified, or unchanged. Modified edges show
// their compare state. Base entries come first, then additions.
func (d Diff) Graph() graph.Graph {
	removedNodes := make(map[string]bool, len(d.RemovedNodes))
	for _, n := range d.RemovedNodes {
		removedNodes[n.ID] = true
	}
	removedEdges := make(map[string]bool, len(d.RemovedEdges))
	for _, e := range d.RemovedEdges {
		removedEdges[graph.EdgeKey(e.From, e.To)] = true
	}
	modified := make(map[string]graph.Edge, len(d.ModifiedEdges))
	for _, m := range d.ModifiedEdges {
		modified[graph.EdgeKey(m.Base.From, m.Base.To)] = m.Compare
	}

	out := graph.Graph{
		Nodes: make([]graph.Node, 0, len(d.base.Nodes)+len(d.AddedNodes)),
		Edges: make([]graph.Edge, 0, len(d.base.Edges)+len(d.AddedEdges)),
	}
	for _, n := range d.base.Nodes {
		n.Status = graph.StatusUnchanged
		if removedNodes[n.ID] {
			n.Status = graph.StatusRemoved
		}
		out.Nodes = append(out.Nodes, n)
	}
	for _, n := range d.AddedNodes {
		n.Status = graph.StatusAdded
		out.Nodes = append(out.Nodes, n)
	}

	for _, e := range d.base.Edges {
		key := graph.EdgeKey(e.From, e.To)
		if c, ok := modified[key]; ok {
			e = c
			e.Status = graph.StatusModified
		} else if removedEdges[key] {
			e.Status = graph.StatusRemoved
		} else {
			e.Status = graph.StatusUnchanged
		}
		out.Edges = append(out.Edges, e)
	}
	for _, e := range d.AddedEdges {
		e.Status = graph.StatusAdded
		out.Edges = append(out.Edges, e)
	}
	return out
}

func nodeSet(g graph.Graph) map[string]bool {
	s := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		s[n.ID] = true
	}
	return s
}

func edgeMap(g graph.Graph) map[string]graph.Edge {
	m := make(map[string]graph.Edge, len(g.Edges))
	for _, e := range g.Edges {
		m[graph.EdgeKey(e.From, e.To)] = e
	}
	return m
}
