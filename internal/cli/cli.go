package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/pipeline"
	"github.com/matzehuels/flowmap/pkg/snapshot"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "flowmap"

	// defaultServerAddr is the listen address for "flowmap serve".
	defaultServerAddr = ":8080"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config

	configPath string
}

// New creates a new CLI instance with a default logger and default config.
// The config file is read once flags are parsed, see RootCommand.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the config file named by --config or the default location.
func (c *CLI) loadConfig() error {
	path, err := c.resolvedConfigPath()
	if err != nil {
		c.Logger.Debug("no config directory", "error", err)
		return nil
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "path", path)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, nil, c.Logger), nil
}

// newCache opens the configured cache backend. An unusable file cache
// directory degrades to no caching instead of failing the command.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case backendNone:
		return cache.NewNullCache(), nil
	case backendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr: c.Config.Cache.RedisAddr,
			DB:   c.Config.Cache.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		return rc, nil
	}

	dir := c.Config.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("cache disabled", "dir", dir, "error", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// newStore opens the configured snapshot store.
func (c *CLI) newStore(ctx context.Context) (snapshot.Store, error) {
	sc := c.Config.Store
	switch sc.Backend {
	case backendRedis:
		return snapshot.NewRedisStore(ctx, sc.RedisAddr, "", sc.RedisDB)
	case backendMongo:
		return snapshot.NewMongoStore(ctx, sc.MongoURI, sc.MongoDatabase)
	}

	dir := sc.Dir
	if dir == "" {
		d, err := dataDir()
		if err != nil {
			return nil, fmt.Errorf("get data dir: %w", err)
		}
		dir = filepath.Join(d, "versions")
	}
	return snapshot.NewFileStore(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/flowmap/).
func cacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// configDir returns the config directory (~/.config/flowmap/).
func configDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// dataDir returns the data directory (~/.local/share/flowmap/).
func dataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags binds the layout flags shared by layout, render, and diff.
type layoutFlags struct {
	opts    pipeline.Options
	formats string
}

func (f *layoutFlags) register(cmd *cobra.Command, withRender bool) {
	d := DefaultConfig().layoutOptions()
	fl := cmd.Flags()
	fl.Float64Var(&f.opts.Width, "width", d.Width, "canvas width in pixels")
	fl.Float64Var(&f.opts.Height, "height", d.Height, "canvas height in pixels")
	fl.Float64Var(&f.opts.Margin, "margin", d.Margin, "clamp inset from each canvas edge")
	fl.Uint64Var(&f.opts.Seed, "seed", d.Seed, "random seed for the initial placement")
	fl.IntVar(&f.opts.Workers, "workers", d.Workers, "goroutines for the repulsion loop")
	fl.IntVar(&f.opts.MaxIterations, "max-iterations", 0, "cap on simulation steps (0 = scaled by node count)")
	fl.DurationVar(&f.opts.LayoutTimeout, "timeout", d.LayoutTimeout, "stop the layout after this long and keep partial positions")
	if withRender {
		fl.StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
		_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
		fl.BoolVar(&f.opts.FlowCounts, "flow-counts", false, "append flow counts to merged edge labels")
		fl.BoolVar(&f.opts.Tooltips, "tooltips", true, "attach flow details as edge tooltips")
	}
}

// resolve fills every flag the user did not set from the config file.
func (f *layoutFlags) resolve(cmd *cobra.Command, cfg Config) (pipeline.Options, error) {
	opts := f.opts
	d := cfg.layoutOptions()
	changed := cmd.Flags().Changed

	if !changed("width") {
		opts.Width = d.Width
	}
	if !changed("height") {
		opts.Height = d.Height
	}
	if !changed("margin") {
		opts.Margin = d.Margin
	}
	if !changed("seed") {
		opts.Seed = d.Seed
	}
	if !changed("workers") {
		opts.Workers = d.Workers
	}
	if !changed("max-iterations") {
		opts.MaxIterations = d.MaxIterations
	}
	if !changed("timeout") {
		opts.LayoutTimeout = d.LayoutTimeout
	}
	if cmd.Flags().Lookup("flow-counts") != nil && !changed("flow-counts") {
		opts.FlowCounts = d.FlowCounts
	}

	// Flag and config values are both explicit; an unset field already
	// carries its default from DefaultConfig.
	opts.Explicit = d.Explicit

	opts.Formats = d.Formats
	if f.formats != "" {
		formats, err := pipeline.ParseFormats(f.formats)
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.Formats = formats
	}

	if err := opts.ValidateForLayout(); err != nil {
		return pipeline.Options{}, err
	}
	return opts, opts.ValidateForRender()
}
