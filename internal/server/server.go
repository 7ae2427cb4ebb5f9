// Package server implements the flowmap HTTP API.
//
// The API exposes the same pipeline stages as the CLI over JSON:
//
//	GET    /healthz                 build info and uptime
//	GET    /metrics                 Prometheus exposition
//	POST   /v1/consolidate          records → graph
//	POST   /v1/layout               graph or records → layout
//	POST   /v1/render               graph or records → svg, png, dot, or json
//	POST   /v1/filter               graph → filtered graph
//	POST   /v1/stats                graph → dashboard and executive metrics
//	POST   /v1/diff                 two graphs or versions → diff
//	GET    /v1/versions             list saved versions
//	POST   /v1/versions             save a version
//	GET    /v1/versions/{ref}       fetch a version by ID or name
//	DELETE /v1/versions/{ref}       delete a version
//
// Errors are returned as {"error": {"code": "...", "message": "..."}} with
// the HTTP status derived from the error code.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/flowmap/pkg/pipeline"
	"github.com/matzehuels/flowmap/pkg/snapshot"
)

// Defaults for Config fields left zero.
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodyBytes    = 32 << 20
)

// Config holds the server's collaborators and limits.
type Config struct {
	Runner *pipeline.Runner
	Store  snapshot.Store
	Logger *log.Logger

	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// Layout holds the layout defaults applied to requests that leave
	// fields unset. LayoutTimeout bounds every layout computation.
	Layout pipeline.Options

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// Server serves the HTTP API.
type Server struct {
	cfg      Config
	router   chi.Router
	validate *validator.Validate
	started  time.Time
}

// New creates a server. Runner and Store are required.
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New("server: runner is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		cfg:      cfg,
		validate: newValidator(),
		started:  time.Now(),
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limitBody)

		r.Post("/consolidate", s.handleConsolidate)
		r.Post("/layout", s.handleLayout)
		r.Post("/render", s.handleRender)
		r.Post("/filter", s.handleFilter)
		r.Post("/stats", s.handleStats)
		r.Post("/diff", s.handleDiff)

		r.Route("/versions", func(r chi.Router) {
			r.Get("/", s.handleListVersions)
			r.Post("/", s.handleSaveVersion)
			r.Get("/{ref}", s.handleGetVersion)
			r.Delete("/{ref}", s.handleDeleteVersion)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errNotFound("no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("METHOD_NOT_ALLOWED", r.Method+" not allowed on "+r.URL.Path))
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests for up to ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       2 * s.cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errc := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.cfg.Logger.Info("shutting down", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
