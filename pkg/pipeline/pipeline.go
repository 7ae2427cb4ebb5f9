// Package pipeline provides the records → graph → layout → artifacts
// pipeline shared by the CLI and the HTTP API.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Consolidate: Merge raw flow records into a graph, then apply filters
//  2. Layout: Position every system with the force-directed engine
//  3. Render: Produce JSON, DOT, SVG, or PNG artifacts
//
// Each stage can be run on its own or through [Runner.Execute]. Every stage
// result is cached under a key derived from its inputs.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Records: records,
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	g, err := runner.Consolidate(ctx, records, opts)
//	l, err := runner.ComputeLayout(ctx, g, opts)
//	artifacts, err := runner.Render(ctx, l, opts)
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/filter"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/graph"
	"github.com/matzehuels/flowmap/pkg/layout/force"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default canvas width in pixels.
	DefaultWidth = 1200.0

	// DefaultHeight is the default canvas height in pixels.
	DefaultHeight = 800.0

	// DefaultMargin is the clamp inset from each canvas edge.
	DefaultMargin = force.DefaultMargin

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultWorkers runs the repulsion loop sequentially.
	DefaultWorkers = 1

	// MaxWorkers bounds the goroutines a single layout may use.
	MaxWorkers = 64

	// DefaultLayoutTimeout bounds a single layout run. Zero disables it.
	DefaultLayoutTimeout = 30 * time.Second
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
}

// FormatNames lists the supported formats in display order.
var FormatNames = []string{FormatSVG, FormatPNG, FormatDOT, FormatJSON}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Consolidate options
	Records   []flow.Record `json:"records,omitempty"`
	Pattern   string        `json:"pattern,omitempty"`   // filter category, "" or "all" for none
	Frequency string        `json:"frequency,omitempty"` // filter category, "" or "all" for none
	Refresh   bool          `json:"refresh,omitempty"`   // bypass cache reads

	// Layout options
	Width         float64 `json:"width,omitempty"`
	Height        float64 `json:"height,omitempty"`
	Margin        float64 `json:"margin,omitempty"`
	Seed          uint64  `json:"seed,omitempty"`
	Workers       int     `json:"workers,omitempty"`
	MaxIterations int     `json:"max_iterations,omitempty"`

	// Render options
	Formats    []string `json:"formats,omitempty"`
	FlowCounts bool     `json:"flow_counts,omitempty"`
	Tooltips   bool     `json:"tooltips,omitempty"`

	// Runtime options (not serialized)
	Logger        *log.Logger   `json:"-"`
	LayoutTimeout time.Duration `json:"-"`
	Explicit      LayoutField   `json:"-"` // fields that keep a zero value

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// LayoutField is a bit set of layout options given explicitly. A field in
// the set is left alone by SetLayoutDefaults, so 0 can be asked for.
type LayoutField uint8

const (
	FieldWidth LayoutField = 1 << iota
	FieldHeight
	FieldMargin
	FieldSeed

	// AllLayoutFields marks every defaulted layout field as given.
	AllLayoutFields = FieldWidth | FieldHeight | FieldMargin | FieldSeed
)

// Has reports whether every field in g is in f.
func (f LayoutField) Has(g LayoutField) bool { return f&g == g }

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the consolidated (and filtered) flow graph.
	Graph graph.Graph

	// GraphHash is the content hash of the graph.
	GraphHash string

	// Layout contains the node positions.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RecordCount     int
	NodeCount       int
	EdgeCount       int
	FlowCount       int
	Iterations      int
	ConsolidateTime time.Duration
	LayoutTime      time.Duration
	RenderTime      time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GraphHit  bool // Whether the graph came from cache
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: %s)", format, strings.Join(FormatNames, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list, trimming blanks and
// dropping duplicates.
func ParseFormats(s string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		f := strings.ToLower(strings.TrimSpace(part))
		if f == "" || seen[f] {
			continue
		}
		if err := ValidateFormat(f); err != nil {
			return nil, err
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForConsolidate(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForConsolidate checks the inputs of the consolidate stage.
func (o *Options) ValidateForConsolidate() error {
	if len(o.Records) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "records are required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetLayoutDefaults sets default values for layout computation. Zero
// fields are defaulted unless they are marked in Explicit.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 && !o.Explicit.Has(FieldWidth) {
		o.Width = DefaultWidth
	}
	if o.Height == 0 && !o.Explicit.Has(FieldHeight) {
		o.Height = DefaultHeight
	}
	if o.Margin == 0 && !o.Explicit.Has(FieldMargin) {
		o.Margin = DefaultMargin
	}
	if o.Seed == 0 && !o.Explicit.Has(FieldSeed) {
		o.Seed = DefaultSeed
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := errors.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	if o.Margin < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "margin must not be negative, got %v", o.Margin)
	}
	if o.Workers < 0 || o.Workers > MaxWorkers {
		return errors.New(errors.ErrCodeInvalidInput, "workers must be between 1 and %d, got %d", MaxWorkers, o.Workers)
	}
	if o.MaxIterations < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max_iterations must not be negative, got %d", o.MaxIterations)
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// Criteria returns the filter criteria carried by the options.
func (o *Options) Criteria() filter.Criteria {
	return filter.Criteria{Pattern: o.Pattern, Frequency: o.Frequency}
}

// ForceOptions translates layout options into force engine options.
func (o *Options) ForceOptions() []force.Option {
	return []force.Option{
		force.WithSeed(o.Seed),
		force.WithMargin(o.Margin),
		force.WithWorkers(o.Workers),
		force.WithMaxIterations(o.MaxIterations),
	}
}

// GraphKeyOpts returns cache key options for consolidation.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		Pattern:   strings.ToLower(o.Pattern),
		Frequency: strings.ToLower(o.Frequency),
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
// Workers is left out: it changes only floating-point summation order.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Width:         o.Width,
		Height:        o.Height,
		Margin:        o.Margin,
		Seed:          o.Seed,
		MaxIterations: o.MaxIterations,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		FlowCounts: o.FlowCounts,
		Tooltips:   o.Tooltips,
	}
}

// String summarises the options for debug logs.
func (o *Options) String() string {
	return fmt.Sprintf("records=%d pattern=%q frequency=%q size=%vx%v seed=%d formats=%v",
		len(o.Records), o.Pattern, o.Frequency, o.Width, o.Height, o.Seed, o.Formats)
}
