package analysis

import (
	"math"
	"sort"

	"github.com/matzehuels/flowmap/pkg/graph"
)

// Bucket is one entry of a value distribution.
type Bucket struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Validation counts edges by metadata completeness.
type Validation struct {
	Complete         int `json:"complete"`
	Incomplete       int `json:"incomplete"`
	MissingPattern   int `json:"missing_pattern"`
	MissingFrequency int `json:"missing_frequency"`
	MissingDataForm  int `json:"missing_data_form"`
}

// DashboardMetrics is the operational overview of a graph.
type DashboardMetrics struct {
	TotalSystems     int     `json:"total_systems"`
	TotalConnections int     `json:"total_connections"`
	AvgConnections   float64 `json:"avg_connections"`
	QualityScore     int     `json:"quality_score"` // percent

	PatternDistribution   []Bucket       `json:"pattern_distribution"`
	FrequencyDistribution []Bucket       `json:"frequency_distribution"`
	TopSystems            []SystemDegree `json:"top_systems"`
	Validation            Validation     `json:"validation"`
}

// Dashboard computes KPIs for g. topN bounds the TopSystems list; values
// below 1 use DefaultTopN.
func Dashboard(g graph.Graph, topN int) DashboardMetrics {
	if topN < 1 {
		topN = DefaultTopN
	}

	v := Validate(g)
	m := DashboardMetrics{
		TotalSystems:          g.NodeCount(),
		TotalConnections:      g.EdgeCount(),
		QualityScore:          QualityScore(v),
		PatternDistribution:   distribution(g, func(e graph.Edge) string { return e.IntegrationPattern }),
		FrequencyDistribution: distribution(g, func(e graph.Edge) string { return e.Frequency }),
		TopSystems:            TopConnected(g, topN),
		Validation:            v,
	}
	if m.TotalSystems > 0 {
		m.AvgConnections = round1(float64(m.TotalConnections*2) / float64(m.TotalSystems))
	}
	return m
}

// IsComplete reports whether an edge has a known pattern, frequency, and
// label.
func IsComplete(e graph.Edge) bool {
	return known(e.IntegrationPattern) && known(e.Frequency) && known(e.Label)
}

func known(s string) bool { return s != "" && s != graph.Unknown }

// Validate tallies metadata completeness over all edges.
func Validate(g graph.Graph) Validation {
	var v Validation
	for _, e := range g.Edges {
		if IsComplete(e) {
			v.Complete++
		} else {
			v.Incomplete++
		}
		if !known(e.IntegrationPattern) {
			v.MissingPattern++
		}
		if !known(e.Frequency) {
			v.MissingFrequency++
		}
		if len(e.DataForms) == 0 {
			v.MissingDataForm++
		}
	}
	return v
}

// QualityScore is the rounded percentage of complete edges, 100 when there
// are none.
func QualityScore(v Validation) int {
	total := v.Complete + v.Incomplete
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(v.Complete) / float64(total) * 100))
}

// distribution counts edges per attribute value, largest first, ties by
// value. Empty values count as "Unknown".
func distribution(g graph.Graph, attr func(graph.Edge) string) []Bucket {
	counts := make(map[string]int)
	for _, e := range g.Edges {
		v := attr(e)
		if v == "" {
			v = graph.Unknown
		}
		counts[v]++
	}
	out := make([]Bucket, 0, len(counts))
	for v, c := range counts {
		out = append(out, Bucket{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
