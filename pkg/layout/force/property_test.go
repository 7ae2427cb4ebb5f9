package force

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/flowmap/pkg/graph"
)

func TestLayoutProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based layout test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("every node is placed inside the margins", prop.ForAll(
		func(n int, pairs []int, w, h float64, seed uint64) bool {
			nodes := makeNodes(n)
			var edges []graph.Edge
			for i := 0; i+1 < len(pairs) && n > 0; i += 2 {
				edges = append(edges, graph.Edge{From: nodes[pairs[i]%n].ID, To: nodes[pairs[i+1]%n].ID})
			}

			pos := Layout(nodes, edges, w, h, WithSeed(seed))
			if len(pos) != n {
				return false
			}
			if n == 1 {
				return pos[nodes[0].ID] == graph.Position{X: w / 2, Y: h / 2}
			}
			for _, p := range pos {
				if p.X < DefaultMargin || p.X > w-DefaultMargin || p.Y < DefaultMargin || p.Y > h-DefaultMargin {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 40),
		gen.SliceOf(gen.IntRange(0, 1000)),
		gen.Float64Range(200, 3000),
		gen.Float64Range(200, 3000),
		gen.UInt64(),
	))

	properties.TestingRun(t)
}
