package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/generate"
	fio "github.com/matzehuels/flowmap/pkg/io"
)

// generateCommand creates the generate command for synthetic inventories.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		output string
		opts   = generate.DefaultOptions()
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic flow inventory",
		Long: `Generate a synthetic flow inventory for demos and testing.

Records use the standard spreadsheet headers, so the output can be fed
straight into consolidate or render. --quality controls the share of rows
with every attribute filled; the rest leave some attributes blank. The
same --seed always produces the same inventory.`,
		Example: `  flowmap generate -o demo.csv
  flowmap generate --systems 40 --connections 120 --quality 60 -o big.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = "flows.csv"
			}
			if _, err := fio.DetectFormat(output); err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			res, err := generate.Generate(opts)
			if err != nil {
				return err
			}
			if err := fio.ExportRecords(res.Records, output, generate.Columns...); err != nil {
				return err
			}
			prog.done("generated inventory", "options", opts.String())

			w := cmd.OutOrStdout()
			printSuccess(w, "Generated %d flows", len(res.Records))
			printFile(w, output)
			if len(res.Records) < opts.Connections {
				printWarning(w, "Only %d distinct connections fit %d systems", len(res.Records), opts.Systems)
			}
			if len(res.CoreSystems) > 0 {
				printKeyValue(w, "Core systems", strings.Join(res.CoreSystems, ", "))
			}
			printNewline(w)
			printNextStep(w, "Render", fmt.Sprintf("%s render %s", appName, output))
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&output, "output", "o", "", "output file; the extension picks csv, json, or yaml (default: flows.csv)")
	fl.IntVar(&opts.Systems, "systems", opts.Systems, "number of systems")
	fl.IntVar(&opts.Connections, "connections", opts.Connections, "number of distinct connections")
	fl.IntVar(&opts.Connections, "flows", opts.Connections, "alias for --connections")
	_ = fl.MarkHidden("flows")
	fl.IntVar(&opts.CoreSystems, "core", opts.CoreSystems, "number of core systems to report")
	fl.IntVar(&opts.DataQuality, "quality", opts.DataQuality, "percent of rows with every attribute filled (0-100)")
	fl.BoolVar(&opts.NoDescriptions, "no-descriptions", false, "leave descriptions empty")
	fl.Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed")

	return cmd
}
