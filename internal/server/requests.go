package server

import (
	"github.com/matzehuels/flowmap/pkg/analysis"
	"github.com/matzehuels/flowmap/pkg/buildinfo"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/graph"
	"github.com/matzehuels/flowmap/pkg/snapshot"
)

// =============================================================================
// Shared inputs
// =============================================================================

// GraphInput carries either a consolidated graph or raw records, which are
// consolidated first. Graph wins when both are set.
type GraphInput struct {
	Graph   *graph.Graph  `json:"graph,omitempty"`
	Records []flow.Record `json:"records,omitempty" validate:"omitempty,max=200000"`
}

// LayoutParams overrides the server's layout defaults. A zero width,
// height or iteration cap keeps the default; margin and seed override
// whenever they are present, 0 included.
type LayoutParams struct {
	Width         float64  `json:"width,omitempty" validate:"gte=0,lte=100000"`
	Height        float64  `json:"height,omitempty" validate:"gte=0,lte=100000"`
	Margin        *float64 `json:"margin,omitempty" validate:"omitempty,gte=0"`
	Seed          *uint64  `json:"seed,omitempty"`
	MaxIterations int      `json:"max_iterations,omitempty" validate:"gte=0,lte=10000"`
}

// FilterParams restricts edges by pattern and frequency category.
type FilterParams struct {
	Pattern   string `json:"pattern,omitempty" validate:"max=100"`
	Frequency string `json:"frequency,omitempty" validate:"max=100"`
}

// =============================================================================
// Consolidate
// =============================================================================

type ConsolidateRequest struct {
	Records []flow.Record `json:"records" validate:"required,min=1,max=200000"`
	FilterParams
}

type ConsolidateResponse struct {
	Graph  graph.Graph      `json:"graph"`
	Stats  ConsolidateStats `json:"stats"`
	Cached bool             `json:"cached"`
}

type ConsolidateStats struct {
	Records int `json:"records"`
	Skipped int `json:"skipped"`
	Nodes   int `json:"nodes"`
	Edges   int `json:"edges"`
	Flows   int `json:"flows"`
}

// =============================================================================
// Layout & Render
// =============================================================================

type LayoutRequest struct {
	GraphInput
	LayoutParams
	FilterParams
}

type LayoutResponse struct {
	Layout graph.Layout `json:"layout"`
	Cached bool         `json:"cached"`
}

type RenderRequest struct {
	GraphInput
	LayoutParams
	FilterParams

	// Layout skips the layout stage when set.
	Layout *graph.Layout `json:"layout,omitempty"`

	Format     string `json:"format" validate:"required,oneof=svg png dot json"`
	FlowCounts bool   `json:"flow_counts,omitempty"`
	Tooltips   *bool  `json:"tooltips,omitempty"`
}

// =============================================================================
// Filter & Stats
// =============================================================================

type FilterRequest struct {
	GraphInput
	Pattern   string `json:"pattern,omitempty" validate:"required_without=Frequency,max=100"`
	Frequency string `json:"frequency,omitempty" validate:"max=100"`
}

type FilterResponse struct {
	Graph      graph.Graph `json:"graph"`
	KeptEdges  int         `json:"kept_edges"`
	TotalEdges int         `json:"total_edges"`
}

type StatsRequest struct {
	GraphInput
	Top       int  `json:"top,omitempty" validate:"gte=0,lte=1000"`
	Executive bool `json:"executive,omitempty"`
}

type StatsResponse struct {
	Network         analysis.NetworkStats      `json:"network"`
	Dashboard       analysis.DashboardMetrics  `json:"dashboard"`
	Executive       *analysis.ExecutiveMetrics `json:"executive,omitempty"`
	Recommendations []analysis.Recommendation  `json:"recommendations,omitempty"`
}

// =============================================================================
// Diff & Versions
// =============================================================================

// DiffRequest names each side either inline or by saved version.
type DiffRequest struct {
	Base           *graph.Graph `json:"base,omitempty"`
	Compare        *graph.Graph `json:"compare,omitempty"`
	BaseVersion    string       `json:"base_version,omitempty" validate:"required_without=Base,max=100"`
	CompareVersion string       `json:"compare_version,omitempty" validate:"required_without=Compare,max=100"`
}

type DiffResponse struct {
	Diff       snapshot.Diff      `json:"diff"`
	Stats      snapshot.DiffStats `json:"stats"`
	HasChanges bool               `json:"has_changes"`
	Graph      graph.Graph        `json:"graph"`
}

type SaveVersionRequest struct {
	GraphInput
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=1000"`
}

type VersionListResponse struct {
	Versions []snapshot.Summary `json:"versions"`
}

// HealthResponse flattens the build information into the top level.
type HealthResponse struct {
	Status string `json:"status"`
	buildinfo.Info
	Uptime string `json:"uptime"`
}
