package filter

import (
	"testing"

	"github.com/matzehuels/flowmap/pkg/graph"
)

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		pattern  string
		category string
		want     bool
	}{
		{"Batch", PatternBatch, true},
		{"Batch Job", PatternBatch, false},
		{"Web Service", PatternAPI, true},
		{"REST", PatternAPI, true},
		{"Real-Time", PatternStreaming, true},
		{"Event Stream", PatternStreaming, true},
		{"SFTP", PatternFile, true},
		{"Message Queue", PatternQueue, true},
		{"IBM MQ", PatternQueue, true},
		{"Mixed", PatternMixed, true},
		{"Hybrid", PatternMixed, true},
		{"Mixed Mode", PatternMixed, false},
		{"Direct DB Link", PatternDB, true},
		{"User Interaction", PatternUI, true},
		{"ETL", "etl", true},
		{"ETL", "ET", true},
		{"", PatternAPI, false},
		{"Batch", "BATCH", true},
	}
	for _, tt := range tests {
		if got := MatchesPattern(tt.pattern, tt.category); got != tt.want {
			t.Errorf("MatchesPattern(%q, %q) = %v, want %v", tt.pattern, tt.category, got, tt.want)
		}
	}
}

func TestMatchesFrequency(t *testing.T) {
	tests := []struct {
		frequency string
		category  string
		want      bool
	}{
		{"Daily", FrequencyDaily, true},
		{"Twice Daily", FrequencyDaily, false},
		{"Daily, Weekly", FrequencyWeekly, true},
		{"Month", FrequencyMonthly, true},
		{"Annually", FrequencyYearly, true},
		{"On-Demand", FrequencyDemand, true},
		{"Ad hoc", FrequencyDemand, true},
		{"Hourly", "hour", true},
		{"", FrequencyDaily, false},
		{"Unknown", FrequencyDaily, false},
	}
	for _, tt := range tests {
		if got := MatchesFrequency(tt.frequency, tt.category); got != tt.want {
			t.Errorf("MatchesFrequency(%q, %q) = %v, want %v", tt.frequency, tt.category, got, tt.want)
		}
	}
}

func sampleGraph() graph.Graph {
	return graph.Graph{
		Nodes: []graph.Node{{ID: "CRM", Label: "CRM"}, {ID: "ERP", Label: "ERP"}, {ID: "DWH", Label: "DWH"}, {ID: "WEB", Label: "WEB"}},
		Edges: []graph.Edge{
			{From: "CRM", To: "ERP", IntegrationPattern: "API", Frequency: "Daily", FlowCount: 1},
			{From: "ERP", To: "DWH", IntegrationPattern: "Batch", Frequency: "Weekly", FlowCount: 1},
			{From: "WEB", To: "CRM", IntegrationPattern: "Batch", Frequency: "Daily, Weekly", FlowCount: 2},
		},
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name      string
		criteria  Criteria
		wantNodes []string
		wantEdges int
	}{
		{"zero", Criteria{}, []string{"CRM", "ERP", "DWH", "WEB"}, 3},
		{"all", Criteria{Pattern: "all", Frequency: "ALL"}, []string{"CRM", "ERP", "DWH", "WEB"}, 3},
		{"batch", Criteria{Pattern: PatternBatch}, []string{"CRM", "ERP", "DWH", "WEB"}, 2},
		{"batch weekly", Criteria{Pattern: PatternBatch, Frequency: FrequencyWeekly}, []string{"CRM", "ERP", "DWH", "WEB"}, 2},
		{"daily", Criteria{Frequency: FrequencyDaily}, []string{"CRM", "ERP", "WEB"}, 2},
		{"api", Criteria{Pattern: PatternAPI}, []string{"CRM", "ERP"}, 1},
		{"none", Criteria{Pattern: PatternQueue}, []string{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(sampleGraph(), tt.criteria)
			if len(got.Edges) != tt.wantEdges {
				t.Errorf("len(Edges) = %d, want %d", len(got.Edges), tt.wantEdges)
			}
			ids := got.NodeIDs()
			if len(ids) != len(tt.wantNodes) {
				t.Fatalf("nodes = %v, want %v", ids, tt.wantNodes)
			}
			for i := range ids {
				if ids[i] != tt.wantNodes[i] {
					t.Errorf("nodes = %v, want %v", ids, tt.wantNodes)
					break
				}
			}
		})
	}
}

func TestApplyKeepsNodesOfKeptEdgesOnly(t *testing.T) {
	g := Apply(sampleGraph(), Criteria{Pattern: PatternBatch, Frequency: FrequencyDaily})
	if err := g.Validate(); err != nil {
		t.Errorf("filtered graph invalid: %v", err)
	}
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", g.NodeCount())
	}
}
