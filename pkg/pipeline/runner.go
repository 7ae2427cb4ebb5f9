package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/graph"
	"github.com/matzehuels/flowmap/pkg/observability"
)

// Cache entry kinds reported to observability hooks.
const (
	kindGraph    = "graph"
	kindLayout   = "layout"
	kindArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete consolidate → layout → render pipeline with caching.
// A layout cut short by LayoutTimeout is rendered anyway and flagged Partial.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Consolidate
	start := time.Now()
	g, graphHit, err := r.ConsolidateWithCacheInfo(ctx, opts.Records, opts)
	if err != nil {
		return nil, fmt.Errorf("consolidate: %w", err)
	}
	result.Graph = g
	result.Stats.ConsolidateTime = time.Since(start)
	result.Stats.RecordCount = len(opts.Records)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.Stats.FlowCount = g.FlowCount()
	result.CacheInfo.GraphHit = graphHit

	if data, err := graph.MarshalGraph(g); err == nil {
		result.GraphHash = cache.Hash(data)
	}

	r.Logger.Info("consolidated flows",
		"records", len(opts.Records),
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", result.Stats.ConsolidateTime)

	// Stage 2: Layout
	start = time.Now()
	l, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	if err != nil && !errors.Is(err, errors.ErrCodeTimeout) {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(start)
	result.Stats.Iterations = l.Iterations
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"iterations", l.Iterations,
		"partial", l.Partial,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	start = time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ConsolidateWithCacheInfo consolidates and filters records with caching and
// returns cache hit info.
func (r *Runner) ConsolidateWithCacheInfo(ctx context.Context, records []flow.Record, opts Options) (g graph.Graph, hit bool, err error) {
	opts.Records = records
	if err := opts.ValidateForConsolidate(); err != nil {
		return graph.Graph{}, false, err
	}
	r.applyLogger(&opts)

	hooks := observability.Pipeline()
	hooks.OnConsolidateStart(ctx, len(records))
	start := time.Now()
	defer func() {
		hooks.OnConsolidateComplete(ctx, g.NodeCount(), g.EdgeCount(), time.Since(start), err)
	}()

	recordsHash, err := cache.HashJSON(records)
	if err != nil {
		return graph.Graph{}, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "records are not serializable")
	}
	cacheKey := r.Keyer.GraphKey(recordsHash, opts.GraphKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
			if cached, err := graph.UnmarshalGraph(data); err == nil {
				observability.Cache().OnCacheHit(ctx, kindGraph)
				return cached, true, nil
			}
		} else if err != nil {
			r.Logger.Debug("graph cache read failed", "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, kindGraph)
	}

	g, err = Consolidate(records, opts)
	if err != nil {
		return graph.Graph{}, false, err
	}

	if data, err := graph.MarshalGraph(g); err == nil {
		r.store(ctx, kindGraph, cacheKey, data, cache.TTLGraph)
	}

	return g, false, nil
}

// Consolidate is a convenience wrapper that calls ConsolidateWithCacheInfo and discards the cache hit info.
func (r *Runner) Consolidate(ctx context.Context, records []flow.Record, opts Options) (graph.Graph, error) {
	g, _, err := r.ConsolidateWithCacheInfo(ctx, records, opts)
	return g, err
}

// ComputeLayoutWithCacheInfo computes a layout with caching and returns cache hit info.
//
// Partial layouts are returned with their ErrCodeTimeout error and are never
// cached.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, g graph.Graph, opts Options) (l graph.Layout, hit bool, err error) {
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, false, err
	}
	r.applyLogger(&opts)

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, graph.EngineForce, g.NodeCount())
	start := time.Now()
	defer func() {
		hooks.OnLayoutComplete(ctx, graph.EngineForce, l.Iterations, time.Since(start), err)
	}()

	graphData, err := graph.MarshalGraph(g)
	if err != nil {
		return graph.Layout{}, false, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(graphData), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
			if cached, err := graph.UnmarshalLayout(data); err == nil {
				observability.Cache().OnCacheHit(ctx, kindLayout)
				return cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, kindLayout)
	}

	l, err = ComputeLayout(ctx, g, opts)
	if err != nil {
		if errors.Is(err, errors.ErrCodeTimeout) {
			r.Logger.Warn("layout stopped early, using partial positions",
				"iterations", l.Iterations,
				"nodes", g.NodeCount())
			return l, false, err
		}
		return graph.Layout{}, false, err
	}

	if data, err := graph.MarshalLayout(l); err == nil {
		r.store(ctx, kindLayout, cacheKey, data, cache.TTLLayout)
	}

	return l, false, nil
}

// ComputeLayout is a convenience wrapper that calls ComputeLayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, g graph.Graph, opts Options) (graph.Layout, error) {
	l, _, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	return l, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l graph.Layout, opts Options) (artifacts map[string][]byte, hit bool, err error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	layoutData, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache
	artifacts = make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			data, ok, err := r.Cache.Get(ctx, key)
			if err != nil || !ok {
				observability.Cache().OnCacheMiss(ctx, kindArtifact)
				break
			}
			observability.Cache().OnCacheHit(ctx, kindArtifact)
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := Render(ctx, l, opts)
	if err != nil {
		return nil, false, err
	}

	// Partial layouts depend on timing, so their artifacts are not cached.
	if !l.Partial {
		for format, data := range rendered {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			r.store(ctx, kindArtifact, key, data, cache.TTLArtifact)
		}
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// store writes a cache entry. Cache failures never fail the pipeline.
func (r *Runner) store(ctx context.Context, kind, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "kind", kind, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, kind, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
