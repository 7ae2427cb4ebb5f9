package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusPipelineStages(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg)
	ctx := context.Background()

	m.OnConsolidateStart(ctx, 10)
	m.OnConsolidateComplete(ctx, 4, 6, 20*time.Millisecond, nil)
	m.OnLayoutStart(ctx, "force", 4)
	m.OnLayoutComplete(ctx, "force", 100, 50*time.Millisecond, nil)
	m.OnRenderStart(ctx, []string{"svg"})
	m.OnRenderComplete(ctx, []string{"svg"}, time.Millisecond, errors.New("boom"))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.StageErrors.WithLabelValues("layout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageErrors.WithLabelValues("render")))

	var metric dto.Metric
	require.NoError(t, m.GraphNodes.Write(&metric))
	assert.Equal(t, uint64(1), metric.GetHistogram().GetSampleCount())
	assert.Equal(t, 4.0, metric.GetHistogram().GetSampleSum())

	metric.Reset()
	require.NoError(t, m.LayoutIterations.Write(&metric))
	assert.Equal(t, 100.0, metric.GetHistogram().GetSampleSum())
}

func TestPrometheusFailedConsolidateSkipsSizes(t *testing.T) {
	m := NewPrometheus(prometheus.NewRegistry())
	m.OnConsolidateComplete(context.Background(), 0, 0, time.Millisecond, errors.New("bad input"))

	var metric dto.Metric
	require.NoError(t, m.GraphNodes.Write(&metric))
	assert.Zero(t, metric.GetHistogram().GetSampleCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageErrors.WithLabelValues("consolidate")))
}

func TestPrometheusCache(t *testing.T) {
	m := NewPrometheus(prometheus.NewRegistry())
	ctx := context.Background()

	m.OnCacheMiss(ctx, "layout")
	m.OnCacheSet(ctx, "layout", 512)
	m.OnCacheHit(ctx, "layout")
	m.OnCacheHit(ctx, "layout")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("layout", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("layout", "miss")))
	assert.Equal(t, 512.0, testutil.ToFloat64(m.CacheBytes.WithLabelValues("layout")))
}

func TestPrometheusHTTP(t *testing.T) {
	m := NewPrometheus(prometheus.NewRegistry())
	ctx := context.Background()

	m.OnRequest(ctx, "GET", "/v1/versions")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsInFlight))

	m.OnResponse(ctx, "GET", "/v1/versions", 200, 5*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/v1/versions", "200")))
}

func TestNewPrometheusRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg)
	m.OnCacheHit(context.Background(), "graph")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["flowmap_cache_requests_total"])
	assert.True(t, names["flowmap_http_requests_in_flight"])

	// A second registration on the same registry must conflict.
	assert.Panics(t, func() { NewPrometheus(reg) })
}
