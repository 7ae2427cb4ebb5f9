// Package force computes 2D node positions with a force-directed simulation.
//
// The engine places nodes on a jittered grid, then repeatedly applies
// all-pairs repulsion (inverse square), edge attraction (proportional to
// distance), velocity damping, and hard clamping to the canvas inset by a
// margin. Iteration count and repulsion strength grow with node count so
// larger graphs converge to a comparable spread.
//
// # Usage
//
//	res, err := force.Compute(ctx, g.Nodes, g.Edges, 1200, 800,
//	    force.WithSeed(42),
//	    force.WithWorkers(runtime.NumCPU()),
//	)
//	if err != nil {
//	    return err
//	}
//	p := res.Positions["CRM"]
//
// The only randomness is the initial jitter. With [WithSeed] or [WithRand]
// results are reproducible; without them each run starts from a slightly
// different grid.
//
// # Canvas Bounds
//
// Positions are clamped to [margin, dimension-margin] on both axes. When a
// dimension is smaller than twice the margin that range is empty and the
// axis collapses to its centre, dimension/2.
//
// # Parallelism
//
// Repulsion is O(n²) per iteration and dominates the cost. [WithWorkers]
// splits the pairwise loop across goroutines; per-worker velocity deltas are
// merged after all workers finish, before attraction and integration run.
package force
