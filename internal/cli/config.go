package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowmap/pkg/pipeline"
)

// Backend names accepted in the config file.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendMongo = "mongo"
	backendNone  = "none"
)

// Config is the on-disk configuration, read from config.toml.
// Command-line flags take precedence over every value here.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// LayoutConfig holds force layout defaults.
type LayoutConfig struct {
	Width         float64  `toml:"width"`
	Height        float64  `toml:"height"`
	Margin        float64  `toml:"margin"`
	Seed          uint64   `toml:"seed"`
	Workers       int      `toml:"workers"`
	MaxIterations int      `toml:"max_iterations"`
	Timeout       duration `toml:"timeout"`
}

// RenderConfig holds artifact defaults.
type RenderConfig struct {
	Formats    []string `toml:"formats"`
	FlowCounts bool     `toml:"flow_counts"`
}

// CacheConfig selects the pipeline cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"` // file, redis, none
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
}

// StoreConfig selects the snapshot store backend.
type StoreConfig struct {
	Backend       string `toml:"backend"` // file, redis, mongo
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisDB       int    `toml:"redis_db"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  duration `toml:"read_timeout"`
	WriteTimeout duration `toml:"write_timeout"`
}

// duration decodes TOML strings such as "30s" into a time.Duration.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Layout: LayoutConfig{
			Width:   pipeline.DefaultWidth,
			Height:  pipeline.DefaultHeight,
			Margin:  pipeline.DefaultMargin,
			Seed:    pipeline.DefaultSeed,
			Workers: pipeline.DefaultWorkers,
			Timeout: duration{pipeline.DefaultLayoutTimeout},
		},
		Render: RenderConfig{
			Formats: []string{pipeline.FormatSVG},
		},
		Cache: CacheConfig{Backend: backendFile},
		Store: StoreConfig{
			Backend:       backendFile,
			MongoDatabase: appName,
		},
		Server: ServerConfig{
			Addr:         defaultServerAddr,
			ReadTimeout:  duration{15 * time.Second},
			WriteTimeout: duration{60 * time.Second},
		},
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config %s: unknown keys %v", path, undecoded)
	}
	return cfg, cfg.Validate()
}

// Validate checks backend names and format lists.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case backendFile, backendRedis, backendNone:
	default:
		return fmt.Errorf("cache.backend: unknown backend %q (use file, redis, or none)", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case backendFile, backendRedis, backendMongo:
	default:
		return fmt.Errorf("store.backend: unknown backend %q (use file, redis, or mongo)", c.Store.Backend)
	}
	if err := pipeline.ValidateFormats(c.Render.Formats); err != nil {
		return fmt.Errorf("render.formats: %w", err)
	}
	return nil
}

// WriteConfig writes cfg as TOML, creating parent directories.
func WriteConfig(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}

// layoutOptions builds pipeline options from the config.
func (c Config) layoutOptions() pipeline.Options {
	return pipeline.Options{
		Width:         c.Layout.Width,
		Height:        c.Layout.Height,
		Margin:        c.Layout.Margin,
		Seed:          c.Layout.Seed,
		Workers:       c.Layout.Workers,
		MaxIterations: c.Layout.MaxIterations,
		LayoutTimeout: c.Layout.Timeout.Duration,
		Formats:       append([]string(nil), c.Render.Formats...),
		FlowCounts:    c.Render.FlowCounts,
		Explicit:      pipeline.AllLayoutFields,
	}
}
