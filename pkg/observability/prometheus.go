package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus implements every hook interface by updating Prometheus
// collectors registered on a caller-supplied registry.
type Prometheus struct {
	StageDuration    *prometheus.HistogramVec
	StageErrors      *prometheus.CounterVec
	GraphNodes       prometheus.Histogram
	GraphEdges       prometheus.Histogram
	LayoutIterations prometheus.Histogram

	CacheRequests *prometheus.CounterVec
	CacheBytes    *prometheus.CounterVec

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// NewPrometheus creates and registers flowmap collectors on reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	sizeBuckets := prometheus.ExponentialBuckets(1, 4, 8)

	return &Prometheus{
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowmap_stage_duration_seconds",
				Help:    "Pipeline stage latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		StageErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowmap_stage_errors_total",
				Help: "Total number of failed pipeline stages",
			},
			[]string{"stage"},
		),
		GraphNodes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowmap_graph_nodes",
			Help:    "Systems per consolidated graph",
			Buckets: sizeBuckets,
		}),
		GraphEdges: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowmap_graph_edges",
			Help:    "Consolidated edges per graph",
			Buckets: sizeBuckets,
		}),
		LayoutIterations: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowmap_layout_iterations",
			Help:    "Simulation steps per layout run",
			Buckets: []float64{50, 100, 150, 200, 250, 300},
		}),
		CacheRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowmap_cache_requests_total",
				Help: "Cache lookups by entry kind and result",
			},
			[]string{"kind", "result"},
		),
		CacheBytes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowmap_cache_written_bytes_total",
				Help: "Bytes written to the cache by entry kind",
			},
			[]string{"kind"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowmap_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowmap_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "flowmap_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		}),
	}
}

func (p *Prometheus) stage(name string, d time.Duration, err error) {
	p.StageDuration.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		p.StageErrors.WithLabelValues(name).Inc()
	}
}

func (p *Prometheus) OnConsolidateStart(context.Context, int) {}

func (p *Prometheus) OnConsolidateComplete(_ context.Context, nodes, edges int, d time.Duration, err error) {
	p.stage("consolidate", d, err)
	if err == nil {
		p.GraphNodes.Observe(float64(nodes))
		p.GraphEdges.Observe(float64(edges))
	}
}

func (p *Prometheus) OnLayoutStart(context.Context, string, int) {}

func (p *Prometheus) OnLayoutComplete(_ context.Context, _ string, iterations int, d time.Duration, err error) {
	p.stage("layout", d, err)
	p.LayoutIterations.Observe(float64(iterations))
}

func (p *Prometheus) OnRenderStart(context.Context, []string) {}

func (p *Prometheus) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	p.stage("render", d, err)
}

func (p *Prometheus) OnCacheHit(_ context.Context, kind string) {
	p.CacheRequests.WithLabelValues(kind, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, kind string) {
	p.CacheRequests.WithLabelValues(kind, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, kind string, size int) {
	p.CacheBytes.WithLabelValues(kind).Add(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string) {
	p.HTTPRequestsInFlight.Inc()
}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	p.HTTPRequestsInFlight.Dec()
	p.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
