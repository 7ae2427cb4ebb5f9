package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/filter"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/graph"
	"github.com/matzehuels/flowmap/pkg/pipeline"
)

// consolidateCommand creates the consolidate command.
func (c *CLI) consolidateCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		crit    filter.Criteria
	)

	cmd := &cobra.Command{
		Use:   "consolidate [records]",
		Short: "Merge flow records into a graph",
		Long: `Merge flow records into a consolidated graph.

Records are read from CSV, JSON, or YAML. Rows sharing a source and target
system become one edge that keeps every underlying flow, a consolidated
integration pattern ("Mixed" when they disagree), and the distinct
frequencies. Rows missing either system are skipped.

The output is a graph.json that the layout, render, filter, stats, and
version commands accept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConsolidate(cmd.Context(), cmd.OutOrStdout(), args[0], output, crit, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.graph.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	registerFilterFlags(cmd, &crit)

	return cmd
}

func (c *CLI) runConsolidate(ctx context.Context, w io.Writer, path, output string, crit filter.Criteria, noCache bool) error {
	in, err := loadInput(path)
	if err != nil {
		return err
	}
	if in.Kind != inputRecords {
		return errors.New(errors.ErrCodeInvalidInput, "%s is already a %s; consolidate expects flow records", path, in.Kind)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	_, skipped := flow.FromRecords(in.Records)
	g, hit, err := runner.ConsolidateWithCacheInfo(ctx, in.Records, pipeline.Options{
		Pattern:   crit.Pattern,
		Frequency: crit.Frequency,
	})
	if err != nil {
		return err
	}
	prog.done("consolidated records", "records", len(in.Records), "skipped", skipped)

	out := outputPath(output, path, "graph.json")
	if err := graph.WriteGraphFile(g, out); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}

	printSuccess(w, "Consolidation complete")
	printFile(w, out)
	printStats(w, g.NodeCount(), g.EdgeCount(), g.FlowCount(), hit)
	if skipped > 0 {
		printWarning(w, "Skipped %d rows without a source or target system", skipped)
	}
	printNewline(w)
	printNextStep(w, "Render", appName+" render "+out)

	return nil
}
