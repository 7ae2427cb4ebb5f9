package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/internal/server"
	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/observability"
	"github.com/matzehuels/flowmap/pkg/pipeline"
)

// apiKeyPrefix keeps API cache entries apart from CLI entries in a shared
// backend.
const apiKeyPrefix = "api:"

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the flowmap HTTP API.

The API accepts records or graphs as JSON and exposes consolidate, layout,
render, filter, stats, diff, and version endpoints under /v1, plus /healthz
and Prometheus metrics at /metrics. It shares the cache and version store
configured for the CLI. Interrupt to shut down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}

			ch, err := c.newCache(ctx, noCache)
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(ch, cache.NewScopedKeyer(nil, apiKeyPrefix), c.Logger)
			defer runner.Close()

			store, err := c.newStore(ctx)
			if err != nil {
				return fmt.Errorf("open version store: %w", err)
			}
			defer store.Close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics := observability.NewPrometheus(reg)
			observability.SetPipelineHooks(metrics)
			observability.SetCacheHooks(metrics)
			observability.SetHTTPHooks(metrics)
			defer observability.Reset()

			srv, err := server.New(server.Config{
				Runner:       runner,
				Store:        store,
				Logger:       c.Logger,
				Gatherer:     reg,
				Layout:       c.Config.layoutOptions(),
				ReadTimeout:  c.Config.Server.ReadTimeout.Duration,
				WriteTimeout: c.Config.Server.WriteTimeout.Duration,
			})
			if err != nil {
				return err
			}

			printInfo(cmd.OutOrStdout(), "Serving on %s", StyleHighlight.Render(addr))
			printDetail(cmd.OutOrStdout(), "cache: %s  store: %s", c.Config.Cache.Backend, c.Config.Store.Backend)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultServerAddr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
