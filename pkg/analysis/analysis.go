package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/matzehuels/flowmap/pkg/graph"
)

// Thresholds used by the executive view and recommendations.
const (
	HighConnectionThreshold   = 10
	MediumConnectionThreshold = 5

	HighComplexityThreshold   = 5.0
	MediumComplexityThreshold = 3.0

	HighCriticalityThreshold   = 8
	MediumCriticalityThreshold = 4

	CriticalSystemFactor    = 1.5
	BatchDominanceThreshold = 0.6
	QualityThreshold        = 90.0

	CriticalPathLimit = 10
	DefaultTopN       = 5

	minRiskFactor    = 0.5
	riskHashModulo   = 50
	riskScaleDivisor = 100.0
)

// Level is a coarse High/Medium/Low rating.
type Level string

const (
	LevelHigh   Level = "High"
	LevelMedium Level = "Medium"
	LevelLow    Level = "Low"
)

// =============================================================================
// Stats
// =============================================================================

// NetworkStats holds the headline counts for a graph.
type NetworkStats struct {
	Systems     int `json:"systems"`
	Connections int `json:"connections"`
	Flows       int `json:"flows"`
	Patterns    int `json:"patterns"` // distinct known integration patterns
}

// Stats computes headline counts. Patterns are counted by exact value and
// "unknown" in any casing is ignored.
func Stats(g graph.Graph) NetworkStats {
	patterns := make(map[string]bool)
	for _, e := range g.Edges {
		if e.IntegrationPattern != "" && !strings.EqualFold(e.IntegrationPattern, graph.Unknown) {
			patterns[e.IntegrationPattern] = true
		}
	}
	return NetworkStats{
		Systems:     g.NodeCount(),
		Connections: g.EdgeCount(),
		Flows:       g.FlowCount(),
		Patterns:    len(patterns),
	}
}

// =============================================================================
// Degree helpers
// =============================================================================

// SystemDegree is a system and the number of edge endpoints it occupies.
type SystemDegree struct {
	System      string `json:"system"`
	Connections int    `json:"connections"`
}

// degrees counts connections per system in first-seen edge order.
func degrees(g graph.Graph) []SystemDegree {
	var out []SystemDegree
	index := make(map[string]int)
	bump := func(id string) {
		if i, ok := index[id]; ok {
			out[i].Connections++
			return
		}
		index[id] = len(out)
		out = append(out, SystemDegree{System: id, Connections: 1})
	}
	for _, e := range g.Edges {
		bump(e.From)
		bump(e.To)
	}
	return out
}

// ranked sorts by connections descending; ties keep first-seen order.
func ranked(g graph.Graph) []SystemDegree {
	d := degrees(g)
	sort.SliceStable(d, func(i, j int) bool { return d[i].Connections > d[j].Connections })
	return d
}

// TopConnected returns up to n systems with the most connections.
func TopConnected(g graph.Graph, n int) []SystemDegree {
	d := ranked(g)
	if n >= 0 && len(d) > n {
		d = d[:n]
	}
	if d == nil {
		d = []SystemDegree{}
	}
	return d
}

func maxDegree(d []SystemDegree) int {
	m := 0
	for _, s := range d {
		m = max(m, s.Connections)
	}
	return m
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
