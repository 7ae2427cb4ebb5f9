package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/graph"
	"github.com/matzehuels/flowmap/pkg/snapshot"
)

// diffCommand creates the diff command for comparing two flow maps.
func (c *CLI) diffCommand() *cobra.Command {
	var (
		output  string
		render  bool
		asJSON  bool
		noCache bool
		flags   layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "diff [base] [compare]",
		Short: "Compare two flow maps",
		Long: `Compare two flow maps and list added, removed, and modified systems and
connections.

Each argument is a records file, a graph.json, or a saved version (ID or
name). A connection is modified when its label, pattern, frequency, or
underlying flows differ.

-o writes the merged diff graph, with every node and edge carrying its
status. --render also lays the diff graph out and renders it; added edges
are drawn bold and removed ones dashed.`,
		Example: `  flowmap diff q1.csv q2.csv
  flowmap diff "baseline" flows.graph.json -o changes.graph.json --render -f svg`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completeVersions(2, true),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			base, err := c.resolveGraph(ctx, args[0])
			if err != nil {
				return err
			}
			compare, err := c.resolveGraph(ctx, args[1])
			if err != nil {
				return err
			}
			d := snapshot.Compute(base, compare)

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			printDiff(w, d)

			if output == "" && !render {
				return nil
			}
			if output == "" {
				output = "diff.graph.json"
			}
			merged := d.Graph()
			if err := graph.WriteGraphFile(merged, output); err != nil {
				return fmt.Errorf("write output %s: %w", output, err)
			}
			printNewline(w)
			printFile(w, output)

			if !render {
				return nil
			}
			opts, err := flags.resolve(cmd, c.Config)
			if err != nil {
				return err
			}
			return c.runRender(ctx, w, cmd.ErrOrStderr(), output, opts, "", noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the merged diff graph to this file")
	cmd.Flags().BoolVar(&render, "render", false, "lay out and render the diff graph")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the diff as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	flags.register(cmd, true)

	return cmd
}

// resolveGraph loads ref as a file when it exists and otherwise looks it
// up as a saved version.
func (c *CLI) resolveGraph(ctx context.Context, ref string) (graph.Graph, error) {
	if _, err := os.Stat(ref); err == nil {
		return loadGraph(ref)
	}
	var g graph.Graph
	err := c.withStore(ctx, func(s snapshot.Store) error {
		v, err := snapshot.Find(ctx, s, ref)
		if err != nil {
			return fmt.Errorf("%s is neither a file nor a saved version: %w", ref, err)
		}
		g = v.Graph
		return nil
	})
	return g, err
}

func printDiff(w io.Writer, d snapshot.Diff) {
	if !d.HasChanges() {
		printSuccess(w, "No changes")
		return
	}

	s := d.Stats()
	printTable(w, []string{"", "Added", "Removed", "Modified"}, [][]string{
		{"Systems", strconv.Itoa(s.AddedNodes), strconv.Itoa(s.RemovedNodes), "-"},
		{"Connections", strconv.Itoa(s.AddedEdges), strconv.Itoa(s.RemovedEdges), strconv.Itoa(s.ModifiedEdges)},
	})

	for _, n := range d.AddedNodes {
		fmt.Fprintln(w, StyleSuccess.Render("  + "+n.ID))
	}
	for _, n := range d.RemovedNodes {
		fmt.Fprintln(w, StyleDanger.Render("  - "+n.ID))
	}
	for _, e := range d.AddedEdges {
		fmt.Fprintln(w, StyleSuccess.Render(fmt.Sprintf("  + %s %s %s", e.From, iconArrow, e.To)))
	}
	for _, e := range d.RemovedEdges {
		fmt.Fprintln(w, StyleDanger.Render(fmt.Sprintf("  - %s %s %s", e.From, iconArrow, e.To)))
	}
	for _, m := range d.ModifiedEdges {
		fmt.Fprintln(w, StyleWarning.Render(fmt.Sprintf("  ~ %s %s %s", m.Base.From, iconArrow, m.Base.To)))
		if m.Base.IntegrationPattern != m.Compare.IntegrationPattern {
			printDetail(w, "pattern: %s %s %s", m.Base.IntegrationPattern, iconArrow, m.Compare.IntegrationPattern)
		}
		if m.Base.Frequency != m.Compare.Frequency {
			printDetail(w, "frequency: %s %s %s", m.Base.Frequency, iconArrow, m.Compare.Frequency)
		}
		if m.Base.FlowCount != m.Compare.FlowCount {
			printDetail(w, "flows: %d %s %d", m.Base.FlowCount, iconArrow, m.Compare.FlowCount)
		}
	}
}
