package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the pipeline cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached graphs, layouts, and artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			ch, err := c.newCache(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer ch.Close()

			if _, ok := ch.(cache.NullCache); ok {
				printInfo(w, "Caching is disabled")
				return nil
			}
			clearer, ok := ch.(cache.Clearer)
			if !ok {
				return fmt.Errorf("cache backend %q cannot be cleared", c.Config.Cache.Backend)
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess(w, "Cache cleared")
			if fc, ok := ch.(*cache.FileCache); ok {
				printDetail(w, "Directory: %s", fc.Dir())
			} else {
				printDetail(w, "Backend: %s", c.Config.Cache.Backend)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := c.Config.Cache.Dir
			if dir == "" {
				d, err := cacheDir()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				dir = d
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
