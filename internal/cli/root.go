package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "flowmap maps data flows between applications",
		Long: `flowmap consolidates tabular inventories of inter-application data flows
into a directed graph, lays the graph out with a force-directed simulation,
and renders, compares, and analyses the result.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/flowmap/config.toml)")

	// Register all subcommands
	root.AddCommand(c.consolidateCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.filterCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.diffCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}
