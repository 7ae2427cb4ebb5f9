package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/filter"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/graph"
)

// registerFilterFlags adds --pattern and --frequency with shell completion
// of the named categories.
func registerFilterFlags(cmd *cobra.Command, crit *filter.Criteria) {
	cmd.Flags().StringVar(&crit.Pattern, "pattern", "",
		"keep edges whose integration pattern matches: "+strings.Join(filter.KnownPatterns(), ", "))
	cmd.Flags().StringVar(&crit.Frequency, "frequency", "",
		"keep edges whose frequency matches: "+strings.Join(filter.KnownFrequencies(), ", "))

	_ = cmd.RegisterFlagCompletionFunc("pattern", completeCategories(filter.KnownPatterns()))
	_ = cmd.RegisterFlagCompletionFunc("frequency", completeCategories(filter.KnownFrequencies()))
}

// filterCommand creates the filter command.
func (c *CLI) filterCommand() *cobra.Command {
	var (
		output string
		crit   filter.Criteria
	)

	cmd := &cobra.Command{
		Use:   "filter [graph.json|records]",
		Short: "Keep only edges matching a pattern or frequency",
		Long: `Keep only edges whose integration pattern and frequency match the given
categories, together with the systems they connect.

Named categories group free-text values: "api" matches REST, SOAP, and web
service patterns, "streaming" matches real-time feeds, "demand" matches ad hoc
frequencies, and so on. Any other value is matched as a substring.`,
		Example: `  flowmap filter flows.graph.json --pattern api
  flowmap filter flows.csv --pattern batch --frequency daily -o nightly.graph.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if crit.IsZero() {
				return errors.New(errors.ErrCodeInvalidInput, "set --pattern and/or --frequency")
			}

			g, err := loadGraph(args[0])
			if err != nil {
				return err
			}
			filtered := filter.Apply(g, crit)

			w := cmd.OutOrStdout()
			out := outputPath(output, args[0], "filtered.graph.json")
			if err := graph.WriteGraphFile(filtered, out); err != nil {
				return fmt.Errorf("write output %s: %w", out, err)
			}

			printSuccess(w, "Kept %d of %d connections", filtered.EdgeCount(), g.EdgeCount())
			printFile(w, out)
			if filtered.EdgeCount() == 0 {
				printWarning(w, "No connections match pattern=%q frequency=%q", crit.Pattern, crit.Frequency)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.filtered.graph.json)")
	registerFilterFlags(cmd, &crit)

	return cmd
}

// loadGraph loads a graph from a graph.json, layout.json, or records file.
// Records are consolidated on the fly.
func loadGraph(path string) (graph.Graph, error) {
	in, err := loadInput(path)
	if err != nil {
		return graph.Graph{}, err
	}
	if in.Kind != inputRecords {
		return in.Graph, nil
	}
	g := flow.ConsolidateRecords(in.Records)
	if g.IsEmpty() {
		return graph.Graph{}, errors.New(errors.ErrCodeNoValidData, "%s: no valid flows", path)
	}
	return g, nil
}
