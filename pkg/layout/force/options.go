package force

import "math/rand/v2"

// Simulation constants.
const (
	// DefaultMargin insets the clamp rectangle from every canvas edge.
	DefaultMargin = 100.0

	// JitterSpan is the width of the uniform jitter applied to each initial
	// grid coordinate, centred on zero.
	JitterSpan = 20.0

	// ScalingDivisor controls how quickly iterations and repulsion grow
	// with node count.
	ScalingDivisor = 50

	BaseIterations = 100
	MaxIterations  = 300

	BaseRepulsion = 8000.0
	Attraction    = 0.01
	Damping       = 0.85
)

// Option configures a layout run.
type Option func(*config)

type config struct {
	rng           *rand.Rand
	margin        float64
	workers       int
	maxIterations int
}

func newConfig(opts []Option) config {
	cfg := config{margin: DefaultMargin, workers: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return cfg
}

// WithSeed makes the initial jitter reproducible.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.rng = rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	}
}

// WithRand supplies the random source used for initial jitter.
// A nil source is ignored.
func WithRand(r *rand.Rand) Option {
	return func(c *config) {
		if r != nil {
			c.rng = r
		}
	}
}

// WithMargin overrides DefaultMargin. Negative values are ignored.
func WithMargin(m float64) Option {
	return func(c *config) {
		if m >= 0 {
			c.margin = m
		}
	}
}

// WithWorkers sets how many goroutines share the repulsion loop.
// Values below 2 run sequentially.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = max(1, n)
	}
}

// WithMaxIterations caps the iteration count. Zero keeps the scaled count.
func WithMaxIterations(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxIterations = n
		}
	}
}
