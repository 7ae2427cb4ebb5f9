// Package filter narrows a consolidated graph to the edges whose integration
// pattern and frequency match a named category.
//
// Category names are coarse buckets ("api", "streaming", "daily", ...) that
// map onto the free-text values found in flow inventories. Unrecognised
// names fall back to a case-insensitive substring match.
package filter

import (
	"strings"

	"github.com/matzehuels/flowmap/pkg/graph"
)

// All disables a criterion. The empty string does the same.
const All = "all"

// Pattern categories.
const (
	PatternBatch     = "batch"
	PatternAPI       = "api"
	PatternStreaming = "streaming"
	PatternFile      = "file"
	PatternQueue     = "queue"
	PatternMixed     = "mixed"
	PatternDB        = "db"
	PatternUI        = "ui"
)

// Frequency categories.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
	FrequencyDemand  = "demand"
)

// KnownPatterns lists the named pattern categories.
func KnownPatterns() []string {
	return []string{PatternBatch, PatternAPI, PatternStreaming, PatternFile, PatternQueue, PatternMixed, PatternDB, PatternUI}
}

// KnownFrequencies lists the named frequency categories.
func KnownFrequencies() []string {
	return []string{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly, FrequencyDemand}
}

// Criteria selects edges. Zero-value fields match everything.
type Criteria struct {
	Pattern   string `json:"pattern,omitempty" validate:"omitempty,max=64"`
	Frequency string `json:"frequency,omitempty" validate:"omitempty,max=64"`
}

// IsZero reports whether c constrains nothing.
func (c Criteria) IsZero() bool {
	return isAll(c.Pattern) && isAll(c.Frequency)
}

// Match reports whether e satisfies every set criterion.
func (c Criteria) Match(e graph.Edge) bool {
	if !isAll(c.Pattern) && !MatchesPattern(e.IntegrationPattern, c.Pattern) {
		return false
	}
	if !isAll(c.Frequency) && !MatchesFrequency(e.Frequency, c.Frequency) {
		return false
	}
	return true
}

func isAll(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, All)
}

// Apply returns the subgraph of edges matching c together with the nodes
// they touch. Node and edge order are preserved. Zero criteria return g
// unchanged.
func Apply(g graph.Graph, c Criteria) graph.Graph {
	if c.IsZero() {
		return g
	}

	out := graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	touched := make(map[string]bool)
	for _, e := range g.Edges {
		if !c.Match(e) {
			continue
		}
		out.Edges = append(out.Edges, e)
		touched[e.From] = true
		touched[e.To] = true
	}
	for _, n := range g.Nodes {
		if touched[n.ID] {
			out.Nodes = append(out.Nodes, n)
		}
	}
	return out
}

// MatchesPattern reports whether an edge's integration pattern falls into
// the named category.
func MatchesPattern(pattern, category string) bool {
	if pattern == "" {
		return false
	}
	p := strings.ToLower(pattern)
	category = strings.ToLower(strings.TrimSpace(category))

	switch category {
	case PatternBatch:
		return p == "batch"
	case PatternAPI:
		return containsAny(p, "web", "service", "api", "rest", "soap")
	case PatternStreaming:
		return containsAny(p, "stream", "real-time", "realtime")
	case PatternFile:
		return containsAny(p, "file", "ftp", "sftp")
	case PatternQueue:
		return containsAny(p, "queue", "mq", "messag")
	case PatternMixed:
		return p == "mixed" || p == "hybrid"
	case PatternDB:
		return containsAny(p, "db", "database", "direct")
	case PatternUI:
		return containsAny(p, "ui", "interaction", "user interface")
	default:
		return strings.Contains(p, category)
	}
}

// MatchesFrequency reports whether an edge's frequency falls into the named
// category. Consolidated frequencies ("Daily, Weekly") match when any of
// their parts does.
func MatchesFrequency(frequency, category string) bool {
	if frequency == "" {
		return false
	}
	category = strings.ToLower(strings.TrimSpace(category))
	for _, part := range strings.Split(frequency, ",") {
		if matchFrequencyPart(strings.ToLower(strings.TrimSpace(part)), category) {
			return true
		}
	}
	return false
}

func matchFrequencyPart(f, category string) bool {
	switch category {
	case FrequencyDaily:
		return f == "daily" || f == "day"
	case FrequencyWeekly:
		return f == "weekly" || f == "week"
	case FrequencyMonthly:
		return f == "monthly" || f == "month"
	case FrequencyYearly:
		return f == "yearly" || f == "year" || f == "annual" || f == "annually"
	case FrequencyDemand:
		return containsAny(f, "demand", "ad hoc", "adhoc")
	default:
		return strings.Contains(f, category)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
