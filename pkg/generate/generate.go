// Package generate produces synthetic flow inventories for demos, load
// tests, and acceptance testing.
//
// Records use the canonical spreadsheet headers (see [Columns]), so the
// output feeds straight back into flow consolidation. Output is fully
// determined by [Options.Seed].
package generate

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/flow"
)

// Canonical column headers of generated records.
const (
	ColumnFrom               = "From App Key"
	ColumnTo                 = "To App Key"
	ColumnDataForm           = "Data Form"
	ColumnFrequency          = "Frequency"
	ColumnIntegrationPattern = "Integration Pattern"
	ColumnDescription        = "Description"
)

// Columns lists the headers in export order.
var Columns = []string{ColumnFrom, ColumnTo, ColumnDataForm, ColumnFrequency, ColumnIntegrationPattern, ColumnDescription}

// Vocabularies drawn from when generating records.
var (
	SystemPrefixes = []string{
		"CRM", "ERP", "HR", "Finance", "Sales", "Marketing", "Inventory",
		"Customer", "Payment", "Billing", "Analytics", "Reporting",
		"Order", "Shipping", "Warehouse", "Supply", "Product", "Service",
	}
	SystemSuffixes = []string{
		"System", "Platform", "Portal", "Service", "Hub", "Manager",
		"Engine", "Gateway", "API", "Database", "App", "Suite",
	}
	IntegrationPatterns = []string{
		"Direct DB Connection", "Web Service", "API", "Streaming", "Real-time",
		"File Transfer", "Messaging", "Message Queue", "UI Interaction", "Batch",
	}
	Frequencies = []string{"Daily", "Weekly", "Monthly", "Yearly", "On Demand", "Hourly", "Real-time"}
	DataForms   = []string{"CSV", "XML", "JSON", "PDF", "TXT", "Excel", "Parquet", "Avro", "Binary"}

	descriptionTemplates = []string{
		"Synchronizes {dataForm} data from {from} to {to} using {pattern}",
		"Transfers {dataForm} files {frequency} for reporting purposes",
		"Real-time integration for {dataForm} data exchange",
		"Batch processing of {dataForm} records on a {frequency} schedule",
		"API-based {dataForm} data feed for {to} system",
		"Automated {frequency} data sync via {pattern}",
		"Legacy {pattern} integration migrating to modern API",
		"Critical {frequency} data transfer for business operations",
	}
)

// Default option values.
const (
	DefaultSystems     = 10
	DefaultConnections = 20
	DefaultCoreSystems = 3
	DefaultDataQuality = 90
	DefaultSeed        = uint64(42)
)

// Options controls generation.
type Options struct {
	Systems        int // distinct systems, at least 2
	Connections    int // distinct ordered pairs to emit
	CoreSystems    int // leading systems reported as core applications
	DataQuality    int // percent of records with every attribute filled, 0-100
	NoDescriptions bool
	Seed           uint64
}

// DefaultOptions returns the options used by the CLI when no flags are set.
func DefaultOptions() Options {
	return Options{
		Systems:     DefaultSystems,
		Connections: DefaultConnections,
		CoreSystems: DefaultCoreSystems,
		DataQuality: DefaultDataQuality,
		Seed:        DefaultSeed,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	switch {
	case o.Systems < 2:
		return errors.New(errors.ErrCodeInvalidInput, "system count must be at least 2")
	case o.Connections < 0:
		return errors.New(errors.ErrCodeInvalidInput, "connection count must be >= 0")
	case o.CoreSystems < 0 || o.CoreSystems > o.Systems:
		return errors.New(errors.ErrCodeInvalidInput, "core system count must be between 0 and the system count")
	case o.DataQuality < 0 || o.DataQuality > 100:
		return errors.New(errors.ErrCodeInvalidInput, "data quality must be between 0 and 100")
	}
	return nil
}

// Result holds generated records and the core applications.
type Result struct {
	Records     []flow.Record
	CoreSystems []string
}

// Generate builds a synthetic inventory. Every record has a distinct
// ordered (from, to) pair and no record links a system to itself.
// Generation stops early when no unused pair can be found.
func Generate(opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	g := &generator{rng: rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xdeadbeef))}

	systems := g.systems(opts.Systems)
	if len(systems) < 2 {
		return Result{}, errors.New(errors.ErrCodeInternal, "could not generate two distinct systems")
	}

	res := Result{
		Records:     make([]flow.Record, 0, opts.Connections),
		CoreSystems: systems[:min(opts.CoreSystems, len(systems))],
	}

	used := make(map[[2]string]bool)
	maxAttempts := opts.Connections * 10
	for i := 0; i < opts.Connections; i++ {
		from, to, ok := g.pair(systems, used, maxAttempts)
		if !ok {
			break
		}
		used[[2]string{from, to}] = true
		res.Records = append(res.Records, g.record(from, to, opts))
	}
	return res, nil
}

type generator struct {
	rng *rand.Rand
}

func (g *generator) pick(values []string) string {
	return values[g.rng.IntN(len(values))]
}

func (g *generator) systems(count int) []string {
	var out []string
	seen := make(map[string]bool)
	for attempts := 0; len(out) < count && attempts < count*10; attempts++ {
		name := g.pick(SystemPrefixes) + " " + g.pick(SystemSuffixes)
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func (g *generator) pair(systems []string, used map[[2]string]bool, maxAttempts int) (string, string, bool) {
	for attempts := 0; attempts < maxAttempts; attempts++ {
		from, to := g.pick(systems), g.pick(systems)
		if from != to && !used[[2]string{from, to}] {
			return from, to, true
		}
	}
	return "", "", false
}

// maybe returns a value from values, or with probability 1/2 an empty string
// when full is false.
func (g *generator) maybe(values []string, full bool) string {
	if full || g.rng.Float64() > 0.5 {
		return g.pick(values)
	}
	return ""
}

func (g *generator) record(from, to string, opts Options) flow.Record {
	full := g.rng.Float64()*100 < float64(opts.DataQuality)
	pattern := g.maybe(IntegrationPatterns, full)
	frequency := g.maybe(Frequencies, full)
	dataForm := g.maybe(DataForms, full)

	description := ""
	if !opts.NoDescriptions && full {
		description = g.describe(from, to, pattern, frequency, dataForm)
	}

	return flow.Record{
		ColumnFrom:               from,
		ColumnTo:                 to,
		ColumnDataForm:           dataForm,
		ColumnFrequency:          frequency,
		ColumnIntegrationPattern: pattern,
		ColumnDescription:        description,
	}
}

func (g *generator) describe(from, to, pattern, frequency, dataForm string) string {
	r := strings.NewReplacer(
		"{from}", from,
		"{to}", to,
		"{pattern}", orElse(pattern, "integration"),
		"{frequency}", strings.ToLower(orElse(frequency, "scheduled")),
		"{dataForm}", orElse(dataForm, "data"),
	)
	return r.Replace(g.pick(descriptionTemplates))
}

func orElse(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// String summarizes the options for logs.
func (o Options) String() string {
	return fmt.Sprintf("systems=%d connections=%d core=%d quality=%d%% seed=%d",
		o.Systems, o.Connections, o.CoreSystems, o.DataQuality, o.Seed)
}
