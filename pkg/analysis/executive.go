package analysis

import (
	"fmt"
	"unicode/utf16"

	"github.com/matzehuels/flowmap/pkg/graph"
)

// CriticalSystem is one entry of the critical path ranking.
type CriticalSystem struct {
	System      string `json:"system"`
	Connections int    `json:"connections"`
	Criticality Level  `json:"criticality"`
}

// RiskPoint places a system on the connections/risk plane.
type RiskPoint struct {
	System      string  `json:"system"`
	Label       string  `json:"label"`
	Connections int     `json:"connections"`
	Risk        float64 `json:"risk"`
}

// ExecutiveMetrics summarizes coupling risk for a graph.
type ExecutiveMetrics struct {
	CriticalSystems int     `json:"critical_systems"`
	AvgConnections  float64 `json:"avg_connections"`
	MaxConnections  int     `json:"max_connections"`
	RiskLevel       Level   `json:"risk_level"`
	Complexity      float64 `json:"complexity"` // edges per system
	ComplexityLevel Level   `json:"complexity_level"`

	CriticalPath []CriticalSystem `json:"critical_path"`
	RiskPoints   []RiskPoint      `json:"risk_points"`
}

// Executive computes the executive view of g.
//
// A system is critical when its degree exceeds CriticalSystemFactor times
// the mean degree over all nodes. The risk level follows the highest degree,
// the complexity level the edge-to-node ratio.
func Executive(g graph.Graph) ExecutiveMetrics {
	d := ranked(g)
	m := ExecutiveMetrics{
		MaxConnections: maxDegree(d),
		CriticalPath:   []CriticalSystem{},
		RiskPoints:     []RiskPoint{},
	}

	if n := g.NodeCount(); n > 0 {
		sum := 0
		for _, s := range d {
			sum += s.Connections
		}
		m.AvgConnections = float64(sum) / float64(n)
		m.Complexity = float64(g.EdgeCount()) / float64(n)
	}
	for _, s := range d {
		if float64(s.Connections) > m.AvgConnections*CriticalSystemFactor {
			m.CriticalSystems++
		}
	}

	m.RiskLevel = RiskLevel(m.MaxConnections)
	m.ComplexityLevel = ComplexityLevel(m.Complexity)

	for i, s := range d {
		if i == CriticalPathLimit {
			break
		}
		m.CriticalPath = append(m.CriticalPath, CriticalSystem{
			System:      s.System,
			Connections: s.Connections,
			Criticality: Criticality(s.Connections),
		})
	}

	byID := make(map[string]int, len(d))
	for _, s := range d {
		byID[s.System] = s.Connections
	}
	for _, n := range g.Nodes {
		label := n.DisplayLabel()
		c := byID[n.ID]
		m.RiskPoints = append(m.RiskPoints, RiskPoint{
			System:      n.ID,
			Label:       label,
			Connections: c,
			Risk:        float64(c) * RiskFactor(label),
		})
	}
	return m
}

// RiskLevel rates the highest degree in a graph.
func RiskLevel(maxConnections int) Level {
	switch {
	case maxConnections > HighConnectionThreshold:
		return LevelHigh
	case maxConnections > MediumConnectionThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// ComplexityLevel rates the edge-to-node ratio.
func ComplexityLevel(ratio float64) Level {
	switch {
	case ratio > HighComplexityThreshold:
		return LevelHigh
	case ratio > MediumComplexityThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Criticality rates a single system's degree.
func Criticality(connections int) Level {
	switch {
	case connections > HighCriticalityThreshold:
		return LevelHigh
	case connections > MediumCriticalityThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// RiskFactor is a stable per-name weight in [0.5, 1.0) derived from the
// UTF-16 code units of label.
func RiskFactor(label string) float64 {
	sum := 0
	for _, u := range utf16.Encode([]rune(label)) {
		sum += int(u)
	}
	return minRiskFactor + float64(sum%riskHashModulo)/riskScaleDivisor
}

// =============================================================================
// Recommendations
// =============================================================================

// Recommendation is one finding for the executive summary.
type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Recommendations derives findings from g. The monitoring recommendation
// is always last.
func Recommendations(g graph.Graph) []Recommendation {
	var out []Recommendation

	if maxDegree(degrees(g)) > HighConnectionThreshold {
		out = append(out, Recommendation{
			Title: "High System Coupling Detected",
			Description: "Several systems have a high number of connections, creating potential single points of failure. " +
				"Consider implementing redundancy or load balancing strategies for critical systems.",
		})
	}

	if g.EdgeCount() > 0 {
		v := Validate(g)
		quality := float64(v.Complete) / float64(g.EdgeCount()) * 100
		if quality < QualityThreshold {
			out = append(out, Recommendation{
				Title: "Improve Data Quality",
				Description: fmt.Sprintf("Only %d%% of interface data is complete. "+
					"Review and update missing integration patterns, frequencies, and data formats to improve monitoring and decision-making.",
					QualityScore(v)),
			})
		}

		batch := 0
		for _, e := range g.Edges {
			if e.IntegrationPattern == "Batch" {
				batch++
			}
		}
		if float64(batch)/float64(g.EdgeCount()) > BatchDominanceThreshold {
			out = append(out, Recommendation{
				Title: "Consider Real-time Integration",
				Description: "Over 60% of interfaces use batch processing. " +
					"Evaluate opportunities to implement real-time or API-based integrations for improved data freshness and responsiveness.",
			})
		}
	}

	return append(out, Recommendation{
		Title: "Implement Comprehensive Monitoring",
		Description: "Establish monitoring and alerting for all critical interface connections. " +
			"Track interface uptime, data quality, and performance metrics to proactively identify and resolve issues.",
	})
}
