package force

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/graph"
)

// Result is the outcome of a layout run.
type Result struct {
	// Positions holds one entry per distinct node ID.
	Positions map[string]graph.Position

	// Iterations is the number of simulation steps that ran.
	Iterations int

	// Planned is the number of steps the run would have taken uncancelled.
	Planned int
}

// Completed reports whether every planned iteration ran.
func (r Result) Completed() bool { return r.Iterations == r.Planned }

// Iterations returns the scaled iteration count for n nodes.
func Iterations(n int) int {
	return min(BaseIterations+n/ScalingDivisor, MaxIterations)
}

// RepulsionStrength returns the scaled repulsion constant for n nodes.
func RepulsionStrength(n int) float64 {
	return BaseRepulsion * math.Max(1, math.Sqrt(float64(n)/ScalingDivisor))
}

// Layout runs Compute without cancellation. Invalid dimensions are treated
// as zero, so it never fails.
func Layout(nodes []graph.Node, edges []graph.Edge, width, height float64, opts ...Option) map[string]graph.Position {
	if errors.ValidateDimensions(width, height) != nil {
		width, height = sanitize(width), sanitize(height)
	}
	res, _ := Compute(context.Background(), nodes, edges, width, height, opts...)
	return res.Positions
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Compute positions nodes on a width × height canvas.
//
// Edges whose endpoints are not among nodes are ignored. Duplicate node IDs
// keep their first occurrence. An empty node set yields an empty map and a
// single node sits exactly at the canvas centre.
//
// ctx is checked once per iteration. If it ends early the positions reached
// so far are returned together with an ErrCodeTimeout error.
func Compute(ctx context.Context, nodes []graph.Node, edges []graph.Edge, width, height float64, opts ...Option) (Result, error) {
	if err := errors.ValidateDimensions(width, height); err != nil {
		return Result{Positions: map[string]graph.Position{}}, err
	}
	cfg := newConfig(opts)

	ids, index := uniqueIDs(nodes)
	n := len(ids)

	switch n {
	case 0:
		return Result{Positions: map[string]graph.Position{}}, nil
	case 1:
		return Result{Positions: map[string]graph.Position{
			ids[0]: {X: width / 2, Y: height / 2},
		}}, nil
	}

	sim := &simulation{
		bodies:    make([]body, n),
		links:     links(edges, index),
		repulsion: RepulsionStrength(n),
		xMin:      cfg.margin,
		xMax:      width - cfg.margin,
		yMin:      cfg.margin,
		yMax:      height - cfg.margin,
		workers:   min(cfg.workers, n),
	}
	sim.xMin, sim.xMax = bounds(sim.xMin, sim.xMax, width)
	sim.yMin, sim.yMax = bounds(sim.yMin, sim.yMax, height)
	sim.place(cfg)

	planned := Iterations(n)
	if cfg.maxIterations > 0 {
		planned = min(planned, cfg.maxIterations)
	}

	ran := 0
	var runErr error
	for ; ran < planned; ran++ {
		if err := ctx.Err(); err != nil {
			runErr = errors.Wrap(errors.ErrCodeTimeout, err, "layout stopped after %d of %d iterations", ran, planned)
			break
		}
		if err := sim.step(); err != nil {
			runErr = errors.Wrap(errors.ErrCodeInternal, err, "layout iteration %d", ran)
			break
		}
	}

	out := make(map[string]graph.Position, n)
	for i, id := range ids {
		out[id] = graph.Position{X: sim.bodies[i].x, Y: sim.bodies[i].y}
	}
	return Result{Positions: out, Iterations: ran, Planned: planned}, runErr
}

// bounds returns the clamp range for one axis. An inverted range collapses
// to the axis centre.
func bounds(lo, hi, dim float64) (float64, float64) {
	if hi < lo {
		c := dim / 2
		return c, c
	}
	return lo, hi
}

func uniqueIDs(nodes []graph.Node) ([]string, map[string]int) {
	ids := make([]string, 0, len(nodes))
	index := make(map[string]int, len(nodes))
	for _, nd := range nodes {
		if _, dup := index[nd.ID]; dup {
			continue
		}
		index[nd.ID] = len(ids)
		ids = append(ids, nd.ID)
	}
	return ids, index
}

// links resolves edges to body indices, dropping unknown endpoints.
func links(edges []graph.Edge, index map[string]int) [][2]int {
	out := make([][2]int, 0, len(edges))
	for _, e := range edges {
		a, okA := index[e.From]
		b, okB := index[e.To]
		if !okA || !okB {
			continue
		}
		out = append(out, [2]int{a, b})
	}
	return out
}

// =============================================================================
// Simulation
// =============================================================================

type body struct {
	x, y   float64
	vx, vy float64
}

type vec struct{ x, y float64 }

type simulation struct {
	bodies    []body
	links     [][2]int
	repulsion float64

	xMin, xMax float64
	yMin, yMax float64

	workers    int
	workerBufs [][]vec
}

// place puts bodies on a jittered grid spanning the clamp rectangle. The
// jitter is clamped too, so a run cancelled before its first step still
// publishes in-bounds positions.
func (s *simulation) place(cfg config) {
	n := len(s.bodies)
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols

	cellW := (s.xMax - s.xMin) / float64(cols)
	cellH := (s.yMax - s.yMin) / float64(rows)

	for i := range s.bodies {
		col, row := i%cols, i/cols
		s.bodies[i] = body{
			x: s.xMin + float64(col)*cellW + cellW/2 + (cfg.rng.Float64()-0.5)*JitterSpan,
			y: s.yMin + float64(row)*cellH + cellH/2 + (cfg.rng.Float64()-0.5)*JitterSpan,
		}
		s.clamp(&s.bodies[i])
	}
}

func (s *simulation) clamp(b *body) {
	b.x = math.Max(s.xMin, math.Min(s.xMax, b.x))
	b.y = math.Max(s.yMin, math.Min(s.yMax, b.y))
}

// step advances the simulation by one iteration.
func (s *simulation) step() error {
	if s.workers > 1 {
		if err := s.repelParallel(); err != nil {
			return err
		}
	} else {
		s.repel()
	}
	s.attract()
	s.integrate()
	return nil
}

// repulsionDelta is the velocity change body i receives from body j;
// body j receives the negation.
func (s *simulation) repulsionDelta(i, j int) vec {
	dx := s.bodies[j].x - s.bodies[i].x
	dy := s.bodies[j].y - s.bodies[i].y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		dist = 1
	}
	f := s.repulsion / (dist * dist)
	return vec{x: -(dx / dist) * f, y: -(dy / dist) * f}
}

func (s *simulation) repel() {
	for i := range s.bodies {
		for j := i + 1; j < len(s.bodies); j++ {
			d := s.repulsionDelta(i, j)
			s.bodies[i].vx += d.x
			s.bodies[i].vy += d.y
			s.bodies[j].vx -= d.x
			s.bodies[j].vy -= d.y
		}
	}
}

// repelParallel assigns rows of the pair triangle round-robin so each
// worker gets a similar number of pairs. Positions are read-only here.
func (s *simulation) repelParallel() error {
	n := len(s.bodies)
	if s.workerBufs == nil {
		s.workerBufs = make([][]vec, s.workers)
		for w := range s.workerBufs {
			s.workerBufs[w] = make([]vec, n)
		}
	}

	var g errgroup.Group
	for w := 0; w < s.workers; w++ {
		buf := s.workerBufs[w]
		g.Go(func() error {
			clear(buf)
			for i := w; i < n; i += s.workers {
				for j := i + 1; j < n; j++ {
					d := s.repulsionDelta(i, j)
					buf[i].x += d.x
					buf[i].y += d.y
					buf[j].x -= d.x
					buf[j].y -= d.y
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, buf := range s.workerBufs {
		for i, d := range buf {
			s.bodies[i].vx += d.x
			s.bodies[i].vy += d.y
		}
	}
	return nil
}

// attract pulls both endpoints of every link toward each other.
func (s *simulation) attract() {
	for _, l := range s.links {
		a, b := &s.bodies[l[0]], &s.bodies[l[1]]
		dx := b.x - a.x
		dy := b.y - a.y
		dist := math.Hypot(dx, dy)
		if dist == 0 {
			dist = 1
		}
		f := dist * Attraction
		fx := (dx / dist) * f
		fy := (dy / dist) * f
		a.vx += fx
		a.vy += fy
		b.vx -= fx
		b.vy -= fy
	}
}

func (s *simulation) integrate() {
	for i := range s.bodies {
		b := &s.bodies[i]
		b.x += b.vx
		b.y += b.vy
		b.vx *= Damping
		b.vy *= Damping
		s.clamp(b)
	}
}
