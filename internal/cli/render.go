package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/filter"
	"github.com/matzehuels/flowmap/pkg/graph"
	"github.com/matzehuels/flowmap/pkg/pipeline"
)

// renderCommand creates the render command, which runs whatever pipeline
// stages its input still needs.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		flags   layoutFlags
		crit    filter.Criteria
	)

	cmd := &cobra.Command{
		Use:   "render [records|graph.json|layout.json]",
		Short: "Render a flow map to SVG, PNG, DOT, or JSON",
		Long: `Render a flow map.

The input may be raw records (consolidated, laid out, then rendered), a
graph.json (laid out, then rendered), or a layout.json (rendered as is).
Nodes are drawn at their force-directed positions; Graphviz only routes
the edges.

With one format the output goes to -o (default <input>.<format>). With
several formats -o is a base name and each format gets its extension.`,
		Example: `  flowmap render flows.csv
  flowmap render flows.csv -f svg,png --pattern api
  flowmap render flows.layout.json -f dot -o map.dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.resolve(cmd, c.Config)
			if err != nil {
				return err
			}
			opts.Pattern, opts.Frequency = crit.Pattern, crit.Frequency
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	flags.register(cmd, true)
	registerFilterFlags(cmd, &crit)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, w, status io.Writer, input string, opts pipeline.Options, output string, noCache bool) error {
	in, err := loadInput(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, status, "Rendering...")
	spinner.Start()
	l, cached, err := c.layoutFor(ctx, runner, in, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}

	spinner.Update(fmt.Sprintf("Rendering %d systems...", len(l.Nodes)))
	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, l, opts)
	spinner.Stop()
	if err != nil {
		printError(w, "Render failed")
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	printSuccess(w, "Rendered %d format(s)", len(opts.Formats))
	for _, format := range opts.Formats {
		path := artifactPath(output, input, format, len(opts.Formats))
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(w, path)
	}
	g := l.Graph()
	printStats(w, g.NodeCount(), g.EdgeCount(), g.FlowCount(), cached && hit)
	if l.Partial {
		printWarning(w, "Layout stopped after %d iterations; positions are not fully settled", l.Iterations)
	}
	return nil
}

// layoutFor brings any input to a layout, reporting whether every stage
// that ran came from cache.
func (c *CLI) layoutFor(ctx context.Context, runner *pipeline.Runner, in input, opts pipeline.Options) (graph.Layout, bool, error) {
	if in.Kind == inputLayout {
		if !opts.Criteria().IsZero() {
			return graph.Layout{}, false, errors.New(errors.ErrCodeInvalidInput,
				"--pattern and --frequency cannot be applied to a finished layout; filter the graph first")
		}
		return in.Layout, true, nil
	}

	g, graphHit := in.Graph, true
	if in.Kind == inputRecords {
		var err error
		g, graphHit, err = runner.ConsolidateWithCacheInfo(ctx, in.Records, opts)
		if err != nil {
			return graph.Layout{}, false, err
		}
	} else if !opts.Criteria().IsZero() {
		g = filter.Apply(g, opts.Criteria())
	}

	l, layoutHit, err := runner.ComputeLayoutWithCacheInfo(ctx, g, opts)
	if err != nil && !errors.Is(err, errors.ErrCodeTimeout) {
		return graph.Layout{}, false, fmt.Errorf("compute layout: %w", err)
	}
	return l, graphHit && layoutHit, nil
}

// artifactPath picks the file for one rendered format.
func artifactPath(output, input, format string, formatCount int) string {
	if output != "" && formatCount == 1 {
		return output
	}
	if output != "" {
		return outputPath("", output, format)
	}
	if format == pipeline.FormatJSON {
		return outputPath("", input, "layout.json")
	}
	return outputPath("", input, format)
}
