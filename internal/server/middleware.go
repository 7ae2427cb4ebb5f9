package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowmap/pkg/observability"
)

// instrument logs each request and reports it to the HTTP hooks under its
// route pattern, so /v1/versions/{ref} is one series however many IDs are
// requested.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			elapsed := time.Since(start)
			hooks.OnResponse(r.Context(), r.Method, route, status, elapsed)

			logf := s.cfg.Logger.Debug
			if status >= http.StatusInternalServerError {
				logf = s.cfg.Logger.Warn
			}
			logf("request",
				"method", r.Method,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", elapsed.Round(time.Microsecond),
				"request_id", middleware.GetReqID(r.Context()))
		}()

		next.ServeHTTP(ww, r)
	})
}

// routePattern returns the matched chi pattern, or "unmatched" for 404s.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// limitBody caps request bodies at MaxBodyBytes.
func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}
