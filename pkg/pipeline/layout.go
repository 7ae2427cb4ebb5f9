package pipeline

import (
	"context"

	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/graph"
	"github.com/matzehuels/flowmap/pkg/layout/force"
)

// =============================================================================
// Layout Generation
// =============================================================================

// ComputeLayout runs the force-directed engine over g.
//
// When opts.LayoutTimeout or ctx ends the run early, the returned layout
// holds the positions reached so far with Partial set, together with an
// ErrCodeTimeout error.
func ComputeLayout(ctx context.Context, g graph.Graph, opts Options) (graph.Layout, error) {
	if opts.LayoutTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.LayoutTimeout)
		defer cancel()
	}

	res, err := force.Compute(ctx, g.Nodes, g.Edges, opts.Width, opts.Height, opts.ForceOptions()...)
	if err != nil && !errors.Is(err, errors.ErrCodeTimeout) {
		return graph.Layout{}, err
	}

	return graph.Layout{
		Engine:     graph.EngineForce,
		Width:      opts.Width,
		Height:     opts.Height,
		Margin:     opts.Margin,
		Nodes:      g.Nodes,
		Edges:      g.Edges,
		Positions:  res.Positions,
		Seed:       opts.Seed,
		Iterations: res.Iterations,
		Partial:    !res.Completed(),
	}, err
}
