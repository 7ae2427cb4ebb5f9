package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowmap/pkg/analysis"
	"github.com/matzehuels/flowmap/pkg/buildinfo"
	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/filter"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/graph"
	"github.com/matzehuels/flowmap/pkg/pipeline"
	"github.com/matzehuels/flowmap/pkg/snapshot"
)

// Response headers describing how an artifact was produced.
const (
	headerCache   = "X-Flowmap-Cache"
	headerPartial = "X-Flowmap-Partial"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatJSON: "application/json",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Info:   buildinfo.Get(),
		Uptime: time.Since(s.started).Round(time.Second).String(),
	})
}

// =============================================================================
// Pipeline
// =============================================================================

func (s *Server) handleConsolidate(w http.ResponseWriter, r *http.Request) {
	var req ConsolidateRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	g, hit, err := s.cfg.Runner.ConsolidateWithCacheInfo(r.Context(), req.Records, pipeline.Options{
		Pattern:   req.Pattern,
		Frequency: req.Frequency,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	_, skipped := flow.FromRecords(req.Records)

	writeJSON(w, http.StatusOK, ConsolidateResponse{
		Graph: g,
		Stats: ConsolidateStats{
			Records: len(req.Records),
			Skipped: skipped,
			Nodes:   g.NodeCount(),
			Edges:   g.EdgeCount(),
			Flows:   g.FlowCount(),
		},
		Cached: hit,
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	opts := s.layoutOptions(req.LayoutParams, req.FilterParams)

	g, graphHit, err := s.graphFrom(r.Context(), req.GraphInput, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	l, layoutHit, err := s.cfg.Runner.ComputeLayoutWithCacheInfo(r.Context(), g, opts)
	if err != nil && !errors.Is(err, errors.ErrCodeTimeout) {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LayoutResponse{Layout: l, Cached: graphHit && layoutHit})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	opts := s.layoutOptions(req.LayoutParams, req.FilterParams)
	opts.Formats = []string{req.Format}
	opts.FlowCounts = req.FlowCounts
	opts.Tooltips = req.Tooltips == nil || *req.Tooltips

	var (
		l   graph.Layout
		hit = true
	)
	if req.Layout != nil {
		if err := req.Layout.Graph().ValidateNodes(); err != nil {
			writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid layout: %v", err))
			return
		}
		l = *req.Layout
	} else {
		g, graphHit, err := s.graphFrom(r.Context(), req.GraphInput, opts)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var layoutHit bool
		l, layoutHit, err = s.cfg.Runner.ComputeLayoutWithCacheInfo(r.Context(), g, opts)
		if err != nil && !errors.Is(err, errors.ErrCodeTimeout) {
			writeError(w, r, err)
			return
		}
		hit = graphHit && layoutHit
	}

	artifacts, renderHit, err := s.cfg.Runner.RenderWithCacheInfo(r.Context(), l, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[req.Format])
	w.Header().Set(headerCache, cacheStatus(hit && renderHit))
	if l.Partial {
		w.Header().Set(headerPartial, "true")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[req.Format])
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, _, err := s.graphFrom(r.Context(), req.GraphInput, pipeline.Options{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	filtered := filter.Apply(g, filter.Criteria{Pattern: req.Pattern, Frequency: req.Frequency})
	writeJSON(w, http.StatusOK, FilterResponse{
		Graph:      filtered,
		KeptEdges:  filtered.EdgeCount(),
		TotalEdges: g.EdgeCount(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var req StatsRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, _, err := s.graphFrom(r.Context(), req.GraphInput, pipeline.Options{})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := StatsResponse{
		Network:   analysis.Stats(g),
		Dashboard: analysis.Dashboard(g, req.Top),
	}
	if req.Executive {
		m := analysis.Executive(g)
		resp.Executive = &m
		resp.Recommendations = analysis.Recommendations(g)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	var req DiffRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	base, err := s.diffSide(r.Context(), req.Base, req.BaseVersion)
	if err != nil {
		writeError(w, r, err)
		return
	}
	compare, err := s.diffSide(r.Context(), req.Compare, req.CompareVersion)
	if err != nil {
		writeError(w, r, err)
		return
	}

	d := snapshot.Compute(base, compare)
	writeJSON(w, http.StatusOK, DiffResponse{
		Diff:       d,
		Stats:      d.Stats(),
		HasChanges: d.HasChanges(),
		Graph:      d.Graph(),
	})
}

func (s *Server) diffSide(ctx context.Context, inline *graph.Graph, ref string) (graph.Graph, error) {
	if inline != nil {
		if err := inline.ValidateNodes(); err != nil {
			return graph.Graph{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid graph: %v", err)
		}
		return *inline, nil
	}
	v, err := snapshot.Find(ctx, s.cfg.Store, ref)
	if err != nil {
		return graph.Graph{}, err
	}
	return v.Graph, nil
}

// =============================================================================
// Versions
// =============================================================================

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	list, err := s.cfg.Store.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []snapshot.Summary{}
	}
	writeJSON(w, http.StatusOK, VersionListResponse{Versions: list})
}

func (s *Server) handleSaveVersion(w http.ResponseWriter, r *http.Request) {
	var req SaveVersionRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, _, err := s.graphFrom(r.Context(), req.GraphInput, pipeline.Options{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := snapshot.NewVersion(req.Name, req.Description, g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.cfg.Store.Save(r.Context(), v); err != nil {
		writeError(w, r, err)
		return
	}
	s.cfg.Logger.Info("saved version", "id", v.ID, "name", v.Name, "nodes", v.NodeCount)

	w.Header().Set("Location", "/v1/versions/"+v.ID)
	writeJSON(w, http.StatusCreated, v.Summary())
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	v, err := snapshot.Find(r.Context(), s.cfg.Store, chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDeleteVersion(w http.ResponseWriter, r *http.Request) {
	v, err := snapshot.Find(r.Context(), s.cfg.Store, chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.cfg.Store.Delete(r.Context(), v.ID); err != nil {
		writeError(w, r, err)
		return
	}
	s.cfg.Logger.Info("deleted version", "id", v.ID, "name", v.Name)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

// layoutOptions overlays request parameters on the configured defaults.
func (s *Server) layoutOptions(p LayoutParams, f FilterParams) pipeline.Options {
	opts := s.cfg.Layout
	opts.Records = nil
	opts.Logger = nil
	opts.Pattern, opts.Frequency = f.Pattern, f.Frequency
	if p.Width > 0 {
		opts.Width = p.Width
	}
	if p.Height > 0 {
		opts.Height = p.Height
	}
	if p.Margin != nil {
		opts.Margin = *p.Margin
		opts.Explicit |= pipeline.FieldMargin
	}
	if p.Seed != nil {
		opts.Seed = *p.Seed
		opts.Explicit |= pipeline.FieldSeed
	}
	if p.MaxIterations > 0 {
		opts.MaxIterations = p.MaxIterations
	}
	return opts
}

// graphFrom resolves a GraphInput. Inline graphs have their node IDs
// checked and are then filtered by the options' criteria; edges naming
// unknown nodes pass through and are ignored by the layout. Records go
// through the cached consolidate stage, which filters as well.
func (s *Server) graphFrom(ctx context.Context, in GraphInput, opts pipeline.Options) (graph.Graph, bool, error) {
	switch {
	case in.Graph != nil:
		if err := in.Graph.ValidateNodes(); err != nil {
			return graph.Graph{}, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid graph: %v", err)
		}
		g := *in.Graph
		if c := opts.Criteria(); !c.IsZero() {
			g = filter.Apply(g, c)
		}
		return g, true, nil
	case len(in.Records) > 0:
		return s.cfg.Runner.ConsolidateWithCacheInfo(ctx, in.Records, opts)
	}
	return graph.Graph{}, false, errors.New(errors.ErrCodeInvalidInput, "graph or records is required")
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
