package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/graph"
	"github.com/matzehuels/flowmap/pkg/pipeline"
)

// layoutCommand creates the layout command for computing node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		flags   layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json|records]",
		Short: "Compute force-directed node positions",
		Long: `Compute force-directed node positions for a graph.

Systems start on a jittered grid and settle under pairwise repulsion, edge
attraction, and damping. The number of steps and the repulsion strength grow
with the number of systems. Every position stays at least --margin pixels
from the canvas edge.

The output is a layout.json (same format as 'render -f json'). A layout cut
short by --timeout is still written, flagged as partial.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.resolve(cmd, c.Config)
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	flags.register(cmd, false)

	return cmd
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, w, status io.Writer, input string, opts pipeline.Options, output string, noCache bool) error {
	g, err := loadGraph(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, status, fmt.Sprintf("Laying out %d systems...", g.NodeCount()))
	spinner.Start()

	l, hit, err := runner.ComputeLayoutWithCacheInfo(ctx, g, opts)
	spinner.Stop()
	if err != nil && !errors.Is(err, errors.ErrCodeTimeout) {
		printError(w, "Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}

	// Interrupted by the user rather than by --timeout.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	out := outputPath(output, input, "layout.json")
	if err := graph.WriteLayoutFile(l, out); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}

	printSuccess(w, "Layout complete")
	printFile(w, out)
	printStats(w, g.NodeCount(), g.EdgeCount(), g.FlowCount(), hit)
	if l.Partial {
		printWarning(w, "Stopped after %d iterations; positions are not fully settled", l.Iterations)
	}
	printNewline(w)
	printNextStep(w, "Render", appName+" render "+out)

	return nil
}
