package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/analysis"
	"github.com/matzehuels/flowmap/pkg/graph"
)

// statsReport is the --json output of the stats command.
type statsReport struct {
	Network         analysis.NetworkStats      `json:"network"`
	Dashboard       analysis.DashboardMetrics  `json:"dashboard"`
	Executive       *analysis.ExecutiveMetrics `json:"executive,omitempty"`
	Recommendations []analysis.Recommendation  `json:"recommendations,omitempty"`
}

// statsCommand creates the stats command.
func (c *CLI) statsCommand() *cobra.Command {
	var (
		top       int
		executive bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "stats [records|graph.json]",
		Short: "Show dashboard and executive metrics for a flow map",
		Long: `Show network metrics for a flow map.

The dashboard lists headline counts, the pattern and frequency mix, the
most connected systems, and a data quality score (share of connections
with pattern, frequency, and data form all known).

--executive adds coupling risk, complexity, the critical path ranking,
and recommendations.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(args[0])
			if err != nil {
				return err
			}
			report := buildStatsReport(g, top, executive)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printStatsReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", analysis.DefaultTopN, "number of most connected systems to list")
	cmd.Flags().BoolVar(&executive, "executive", false, "include risk metrics and recommendations")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the metrics as JSON")

	return cmd
}

func buildStatsReport(g graph.Graph, top int, executive bool) statsReport {
	r := statsReport{
		Network:   analysis.Stats(g),
		Dashboard: analysis.Dashboard(g, top),
	}
	if executive {
		m := analysis.Executive(g)
		r.Executive = &m
		r.Recommendations = analysis.Recommendations(g)
	}
	return r
}

func printStatsReport(w io.Writer, r statsReport) {
	d := r.Dashboard

	printHeading(w, "Network")
	printKeyValue(w, "Systems", strconv.Itoa(r.Network.Systems))
	printKeyValue(w, "Connections", strconv.Itoa(r.Network.Connections))
	printKeyValue(w, "Flows", strconv.Itoa(r.Network.Flows))
	printKeyValue(w, "Patterns", strconv.Itoa(r.Network.Patterns))
	printKeyValue(w, "Avg connections", fmt.Sprintf("%.1f", d.AvgConnections))
	printKeyValue(w, "Data quality", qualityLabel(d.QualityScore))

	if len(d.TopSystems) > 0 {
		printHeading(w, "Most Connected")
		rows := make([][]string, len(d.TopSystems))
		for i, s := range d.TopSystems {
			rows[i] = []string{strconv.Itoa(i + 1), s.System, strconv.Itoa(s.Connections)}
		}
		printTable(w, []string{"#", "System", "Connections"}, rows)
	}

	if len(d.PatternDistribution) > 0 {
		printHeading(w, "Integration Patterns")
		printTable(w, []string{"Pattern", "Connections"}, bucketRows(d.PatternDistribution))
	}
	if len(d.FrequencyDistribution) > 0 {
		printHeading(w, "Frequencies")
		printTable(w, []string{"Frequency", "Connections"}, bucketRows(d.FrequencyDistribution))
	}

	v := d.Validation
	printHeading(w, "Validation")
	printKeyValue(w, "Complete", strconv.Itoa(v.Complete))
	printKeyValue(w, "Incomplete", strconv.Itoa(v.Incomplete))
	printKeyValue(w, "Missing pattern", strconv.Itoa(v.MissingPattern))
	printKeyValue(w, "Missing frequency", strconv.Itoa(v.MissingFrequency))
	printKeyValue(w, "Missing data form", strconv.Itoa(v.MissingDataForm))

	if r.Executive == nil {
		return
	}
	e := r.Executive

	printHeading(w, "Executive Summary")
	printKeyValue(w, "Critical systems", strconv.Itoa(e.CriticalSystems))
	printKeyValue(w, "Max connections", strconv.Itoa(e.MaxConnections))
	printKeyValue(w, "Risk level", levelLabel(e.RiskLevel))
	printKeyValue(w, "Complexity", fmt.Sprintf("%.2f (%s)", e.Complexity, levelLabel(e.ComplexityLevel)))

	if len(e.CriticalPath) > 0 {
		printHeading(w, "Critical Path")
		rows := make([][]string, len(e.CriticalPath))
		for i, s := range e.CriticalPath {
			rows[i] = []string{s.System, strconv.Itoa(s.Connections), levelLabel(s.Criticality)}
		}
		printTable(w, []string{"System", "Connections", "Criticality"}, rows)
	}

	if len(r.Recommendations) > 0 {
		printHeading(w, "Recommendations")
		for _, rec := range r.Recommendations {
			printInfo(w, "%s", StyleValue.Render(rec.Title))
			printDetail(w, "%s", rec.Description)
		}
	}
}

func bucketRows(buckets []analysis.Bucket) [][]string {
	rows := make([][]string, len(buckets))
	for i, b := range buckets {
		rows[i] = []string{b.Value, strconv.Itoa(b.Count)}
	}
	return rows
}

func qualityLabel(score int) string {
	s := fmt.Sprintf("%d%%", score)
	switch {
	case score >= analysis.QualityThreshold:
		return StyleSuccess.Render(s)
	case score >= analysis.QualityThreshold/2:
		return StyleWarning.Render(s)
	}
	return StyleDanger.Render(s)
}

func levelLabel(l analysis.Level) string {
	switch l {
	case analysis.LevelHigh:
		return StyleDanger.Render(string(l))
	case analysis.LevelMedium:
		return StyleWarning.Render(string(l))
	}
	return StyleSuccess.Render(string(l))
}
