package pipeline

import (
	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/filter"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/graph"
)

// Consolidate merges records into a graph and applies the filter criteria
// in opts. Rows without a source or target are skipped; an input with no
// valid rows fails with ErrCodeNoValidData. A filter that removes every edge
// is not an error.
func Consolidate(records []flow.Record, opts Options) (graph.Graph, error) {
	g := flow.ConsolidateRecords(records)
	if g.IsEmpty() {
		return graph.Graph{}, errors.New(errors.ErrCodeNoValidData,
			"no valid flows in %d records (each row needs a source and a target system)", len(records))
	}
	if c := opts.Criteria(); !c.IsZero() {
		g = filter.Apply(g, c)
	}
	return g, nil
}
