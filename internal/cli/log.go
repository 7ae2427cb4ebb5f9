// Package cli implements the flowmap command-line interface.
//
// # Commands
//
// The main commands are:
//   - consolidate: Merge flow records (CSV, JSON, YAML) into graph.json
//   - layout: Compute force-directed positions for a graph
//   - render: Produce SVG, PNG, DOT, or JSON from records or a graph
//   - filter: Keep edges matching a pattern or frequency category
//   - stats: Print dashboard or executive metrics
//   - version: Save, list, show, delete, and pick graph snapshots
//   - diff: Compare two graphs or snapshots
//   - generate: Write synthetic flow records for testing
//   - serve: Run the HTTP API
//   - cache: Manage the pipeline cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Configuration
//
// Defaults are read from $XDG_CONFIG_HOME/flowmap/config.toml (or --config).
// Flags always win over the file.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Consolidated 412 records (12ms)"
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx == nil {
		return log.Default()
	}
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
