package flow

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/flowmap/pkg/graph"
)

var (
	systemPool  = []string{"", "CRM", "ERP", "crm", "HR-Core", "DWH", "Billing"}
	patternPool = []string{"", "Unknown", "API", "api", "Batch", "Web Service", "Queue"}
)

// flowsFrom builds flows from index triples into the fixed pools. Indices
// for empty names exercise the skip path.
func flowsFrom(froms, tos, patterns []int) []RawFlow {
	n := min(len(froms), len(tos), len(patterns))
	flows := make([]RawFlow, n)
	for i := range n {
		flows[i] = RawFlow{
			From:               systemPool[froms[i]],
			To:                 systemPool[tos[i]],
			IntegrationPattern: patternPool[patterns[i]],
		}
	}
	return flows
}

func TestConsolidateInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	systemIdx := gen.SliceOf(gen.IntRange(0, len(systemPool)-1))
	patternIdx := gen.SliceOf(gen.IntRange(0, len(patternPool)-1))

	properties.Property("nodes are exactly the endpoints of valid rows", prop.ForAll(
		func(froms, tos, patterns []int) bool {
			flows := flowsFrom(froms, tos, patterns)
			g := Consolidate(flows)

			want := make(map[string]bool)
			for _, f := range flows {
				if f.Valid() {
					want[f.From] = true
					want[f.To] = true
				}
			}
			if len(want) != g.NodeCount() {
				return false
			}
			for _, n := range g.Nodes {
				if !want[n.ID] {
					return false
				}
			}
			return true
		},
		systemIdx, systemIdx, patternIdx,
	))

	properties.Property("one edge per ordered pair", prop.ForAll(
		func(froms, tos, patterns []int) bool {
			g := Consolidate(flowsFrom(froms, tos, patterns))
			seen := make(map[string]bool)
			for _, e := range g.Edges {
				if seen[e.Key()] {
					return false
				}
				seen[e.Key()] = true
			}
			return g.Validate() == nil
		},
		systemIdx, systemIdx, patternIdx,
	))

	properties.Property("flow counts add up", prop.ForAll(
		func(froms, tos, patterns []int) bool {
			flows := flowsFrom(froms, tos, patterns)
			valid := 0
			for _, f := range flows {
				if f.Valid() {
					valid++
				}
			}
			g := Consolidate(flows)
			for _, e := range g.Edges {
				if e.FlowCount != len(e.Flows) || e.FlowCount == 0 {
					return false
				}
			}
			return g.FlowCount() == valid
		},
		systemIdx, systemIdx, patternIdx,
	))

	properties.Property("Mixed detection ignores row order", prop.ForAll(
		func(patterns []int) bool {
			flows := make([]RawFlow, len(patterns))
			for i, p := range patterns {
				flows[i] = RawFlow{From: "A", To: "B", IntegrationPattern: patternPool[p]}
			}
			reversed := make([]RawFlow, len(flows))
			for i := range flows {
				reversed[len(flows)-1-i] = flows[i]
			}

			a, b := Consolidate(flows), Consolidate(reversed)
			if a.EdgeCount() != b.EdgeCount() {
				return false
			}
			if a.EdgeCount() == 0 {
				return true
			}
			pa, pb := a.Edges[0].IntegrationPattern, b.Edges[0].IntegrationPattern
			if (pa == graph.Mixed) != (pb == graph.Mixed) {
				return false
			}
			return strings.EqualFold(pa, pb)
		},
		patternIdx,
	))

	properties.TestingRun(t)
}
