package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/graph"
	"github.com/matzehuels/flowmap/pkg/observability"
	"github.com/matzehuels/flowmap/pkg/pipeline"
	"github.com/matzehuels/flowmap/pkg/snapshot"
)

var sampleRecords = []flow.Record{
	{"From App Key": "CRM", "To App Key": "ERP", "Integration Pattern": "REST API", "Frequency": "Daily", "Data Form": "JSON"},
	{"From App Key": "CRM", "To App Key": "ERP", "Integration Pattern": "Batch", "Frequency": "Weekly", "Data Form": "CSV"},
	{"From App Key": "ERP", "To App Key": "DWH", "Integration Pattern": "Batch", "Frequency": "Daily", "Data Form": "CSV"},
	{"From App Key": "", "To App Key": "DWH"},
}

type testServer struct {
	*Server
	store    *snapshot.FileStore
	registry *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := snapshot.NewFileStore(t.TempDir())
	require.NoError(t, err)
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(fc, cache.NewScopedKeyer(nil, "api:"), logger)

	reg := prometheus.NewRegistry()
	m := observability.NewPrometheus(reg)
	observability.SetHTTPHooks(m)
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	t.Cleanup(observability.Reset)

	s, err := New(Config{
		Runner:   runner,
		Store:    store,
		Logger:   logger,
		Gatherer: reg,
		Layout:   pipeline.Options{Width: 400, Height: 300, MaxIterations: 20},
	})
	require.NoError(t, err)
	return &testServer{Server: s, store: store, registry: reg}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Runner: pipeline.NewRunner(nil, nil, nil)})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Version)
	assert.True(t, strings.HasPrefix(resp.GoVersion, "go"), resp.GoVersion)
}

func TestConsolidate(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/consolidate", ConsolidateRequest{Records: sampleRecords})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[ConsolidateResponse](t, rec)
	assert.Equal(t, ConsolidateStats{Records: 4, Skipped: 1, Nodes: 3, Edges: 2, Flows: 3}, resp.Stats)
	assert.False(t, resp.Cached)
	require.Len(t, resp.Graph.Edges, 2)
	assert.Equal(t, graph.Mixed, resp.Graph.Edges[0].IntegrationPattern)
	assert.Equal(t, "Daily, Weekly", resp.Graph.Edges[0].Frequency)

	again := decodeBody[ConsolidateResponse](t, ts.do(t, http.MethodPost, "/v1/consolidate", ConsolidateRequest{Records: sampleRecords}))
	assert.True(t, again.Cached)
}

func TestConsolidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"empty body", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"malformed", "{", http.StatusBadRequest, "INVALID_INPUT"},
		{"no records", ConsolidateRequest{}, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown field", `{"records":[{"a":"b"}],"bogus":1}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"no valid rows", ConsolidateRequest{Records: []flow.Record{{"Source": "A"}}}, http.StatusUnprocessableEntity, "NO_VALID_DATA"},
	}

	ts := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/v1/consolidate", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decodeBody[errorResponse](t, rec)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestLayout(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/layout", LayoutRequest{
		GraphInput:   GraphInput{Records: sampleRecords},
		LayoutParams: LayoutParams{Width: 600, Height: 400},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[LayoutResponse](t, rec)
	l := resp.Layout
	assert.Equal(t, 600.0, l.Width)
	assert.Equal(t, 400.0, l.Height)
	assert.Equal(t, 20, l.Iterations)
	require.Len(t, l.Positions, 3)
	for id, p := range l.Positions {
		assert.True(t, p.X >= l.Margin && p.X <= l.Width-l.Margin, "%s x=%v", id, p.X)
		assert.True(t, p.Y >= l.Margin && p.Y <= l.Height-l.Margin, "%s y=%v", id, p.Y)
	}
}

func TestLayout_ZeroMarginAndSeed(t *testing.T) {
	ts := newTestServer(t)

	margin, seed := 0.0, uint64(0)
	rec := ts.do(t, http.MethodPost, "/v1/layout", LayoutRequest{
		GraphInput:   GraphInput{Records: sampleRecords},
		LayoutParams: LayoutParams{Margin: &margin, Seed: &seed},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	l := decodeBody[LayoutResponse](t, rec).Layout
	assert.Equal(t, 0.0, l.Margin)
	assert.Equal(t, uint64(0), l.Seed)

	// Omitted fields keep the server defaults.
	rec = ts.do(t, http.MethodPost, "/v1/layout", LayoutRequest{
		GraphInput: GraphInput{Records: sampleRecords},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	l = decodeBody[LayoutResponse](t, rec).Layout
	assert.Equal(t, pipeline.DefaultMargin, l.Margin)
	assert.Equal(t, pipeline.DefaultSeed, l.Seed)
}

func TestLayout_Validation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/layout", LayoutRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/layout", `{"records":[{"Source":"A","Target":"B"}],"width":-5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorResponse](t, rec).Error.Message, "width")

	bad := graph.Graph{Nodes: []graph.Node{{ID: "A"}, {ID: "A"}}}
	rec = ts.do(t, http.MethodPost, "/v1/layout", LayoutRequest{GraphInput: GraphInput{Graph: &bad}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorResponse](t, rec).Error.Message, "duplicate node")
}

func TestLayout_IgnoresEdgesToUnknownNodes(t *testing.T) {
	ts := newTestServer(t)
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "A", Label: "A"}, {ID: "B", Label: "B"}},
		Edges: []graph.Edge{{From: "A", To: "B", Label: "API"}, {From: "A", To: "Ghost", Label: "File"}},
	}

	rec := ts.do(t, http.MethodPost, "/v1/layout", LayoutRequest{GraphInput: GraphInput{Graph: &g}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	l := decodeBody[LayoutResponse](t, rec).Layout
	require.Len(t, l.Positions, 2)
	assert.NotContains(t, l.Positions, "Ghost")

	rec = ts.do(t, http.MethodPost, "/v1/render", RenderRequest{GraphInput: GraphInput{Graph: &g}, Format: "dot"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"A" -> "B"`)
	assert.NotContains(t, rec.Body.String(), "Ghost")

	rec = ts.do(t, http.MethodPost, "/v1/render", RenderRequest{Layout: &l, Format: "dot"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "Ghost")
}

func TestRender_DOT(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/render", RenderRequest{
		GraphInput: GraphInput{Records: sampleRecords},
		Format:     "dot",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "graphviz")
	assert.Equal(t, "miss", rec.Header().Get(headerCache))
	assert.Contains(t, rec.Body.String(), "digraph G {")
	assert.Contains(t, rec.Body.String(), `"CRM"`)

	rec = ts.do(t, http.MethodPost, "/v1/render", RenderRequest{
		GraphInput: GraphInput{Records: sampleRecords},
		Format:     "dot",
	})
	assert.Equal(t, "hit", rec.Header().Get(headerCache))
}

func TestRender_UnknownFormat(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/v1/render", RenderRequest{
		GraphInput: GraphInput{Records: sampleRecords},
		Format:     "gif",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorResponse](t, rec).Error.Message, "format")
}

func TestFilter(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/filter", FilterRequest{
		GraphInput: GraphInput{Records: sampleRecords},
		Pattern:    "batch",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[FilterResponse](t, rec)
	assert.Equal(t, 1, resp.KeptEdges)
	assert.Equal(t, 2, resp.TotalEdges)
	assert.ElementsMatch(t, []string{"ERP", "DWH"}, resp.Graph.NodeIDs())

	rec = ts.do(t, http.MethodPost, "/v1/filter", FilterRequest{GraphInput: GraphInput{Records: sampleRecords}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/stats", StatsRequest{
		GraphInput: GraphInput{Records: sampleRecords},
		Executive:  true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[StatsResponse](t, rec)
	assert.Equal(t, 3, resp.Network.Systems)
	assert.Equal(t, 2, resp.Dashboard.TotalConnections)
	require.NotNil(t, resp.Executive)
	require.NotEmpty(t, resp.Recommendations)
	assert.Equal(t, "Implement Comprehensive Monitoring", resp.Recommendations[len(resp.Recommendations)-1].Title)
}

func TestVersions_Lifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/v1/versions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[VersionListResponse](t, rec).Versions)

	rec = ts.do(t, http.MethodPost, "/v1/versions", SaveVersionRequest{
		GraphInput: GraphInput{Records: sampleRecords},
		Name:       "baseline",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decodeBody[snapshot.Summary](t, rec)
	assert.Equal(t, "/v1/versions/"+saved.ID, rec.Header().Get("Location"))
	assert.Equal(t, 3, saved.NodeCount)

	rec = ts.do(t, http.MethodGet, "/v1/versions/baseline", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeBody[snapshot.Version](t, rec)
	assert.Equal(t, saved.ID, v.ID)
	assert.Len(t, v.Graph.Edges, 2)

	list := decodeBody[VersionListResponse](t, ts.do(t, http.MethodGet, "/v1/versions", nil))
	require.Len(t, list.Versions, 1)

	rec = ts.do(t, http.MethodDelete, "/v1/versions/"+saved.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/v1/versions/"+saved.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "VERSION_NOT_FOUND", decodeBody[errorResponse](t, rec).Error.Code)
}

func TestVersions_InvalidName(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/v1/versions", SaveVersionRequest{
		GraphInput: GraphInput{Records: sampleRecords},
		Name:       "bad\x00name",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_VERSION_NAME", decodeBody[errorResponse](t, rec).Error.Code)
}

func TestDiff(t *testing.T) {
	ts := newTestServer(t)

	base := flow.ConsolidateRecords(sampleRecords)
	compare := flow.Consolidate([]flow.RawFlow{
		{From: "CRM", To: "ERP", IntegrationPattern: "REST API", Frequency: "Daily", DataForm: "JSON"},
		{From: "ERP", To: "BI", IntegrationPattern: "Batch"},
	})
	require.NoError(t, ts.store.Save(t.Context(), mustVersion(t, "q1", base)))

	rec := ts.do(t, http.MethodPost, "/v1/diff", DiffRequest{BaseVersion: "q1", Compare: &compare})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[DiffResponse](t, rec)
	assert.True(t, resp.HasChanges)
	assert.Equal(t, snapshot.DiffStats{AddedNodes: 1, RemovedNodes: 1, AddedEdges: 1, RemovedEdges: 1, ModifiedEdges: 1}, resp.Stats)

	statuses := map[string]string{}
	for _, n := range resp.Graph.Nodes {
		statuses[n.ID] = n.Status
	}
	assert.Equal(t, map[string]string{
		"CRM": graph.StatusUnchanged,
		"ERP": graph.StatusUnchanged,
		"DWH": graph.StatusRemoved,
		"BI":  graph.StatusAdded,
	}, statuses)

	rec = ts.do(t, http.MethodPost, "/v1/diff", DiffRequest{Compare: &compare})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/diff", DiffRequest{BaseVersion: "missing", Compare: &compare})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDiff_EdgesToUnknownNodes(t *testing.T) {
	ts := newTestServer(t)

	base := graph.Graph{
		Nodes: []graph.Node{{ID: "A", Label: "A"}, {ID: "B", Label: "B"}},
		Edges: []graph.Edge{{From: "A", To: "B"}, {From: "A", To: "Ghost"}},
	}
	compare := graph.Graph{
		Nodes: []graph.Node{{ID: "A", Label: "A"}, {ID: "B", Label: "B"}},
		Edges: []graph.Edge{{From: "A", To: "B"}},
	}

	rec := ts.do(t, http.MethodPost, "/v1/diff", DiffRequest{Base: &base, Compare: &compare})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, snapshot.DiffStats{RemovedEdges: 1}, decodeBody[DiffResponse](t, rec).Stats)

	dup := graph.Graph{Nodes: []graph.Node{{ID: "A"}, {ID: "A"}}}
	rec = ts.do(t, http.MethodPost, "/v1/diff", DiffRequest{Base: &dup, Compare: &compare})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func mustVersion(t *testing.T, name string, g graph.Graph) *snapshot.Version {
	t.Helper()
	v, err := snapshot.NewVersion(name, "", g)
	require.NoError(t, err)
	return v
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/v2/nothing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeBody[errorResponse](t, rec).Error.Code)

	rec = ts.do(t, http.MethodGet, "/v1/consolidate", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodGet, "/healthz", nil)
	ts.do(t, http.MethodPost, "/v1/consolidate", ConsolidateRequest{Records: sampleRecords})
	ts.do(t, http.MethodGet, "/v1/versions/abc", nil)
	ts.do(t, http.MethodGet, "/v1/versions/def", nil)

	count, err := testutil.GatherAndCount(ts.registry, "flowmap_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "one series per method, route, and status")

	rec := ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `flowmap_http_requests_total{method="GET",route="/v1/versions/{ref}",status="404"} 2`)
	assert.Contains(t, body, `flowmap_cache_requests_total{kind="graph",result="miss"} 1`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"INVALID_INPUT", http.StatusBadRequest},
		{"INVALID_DIMENSIONS", http.StatusBadRequest},
		{"NO_VALID_DATA", http.StatusUnprocessableEntity},
		{"VERSION_NOT_FOUND", http.StatusNotFound},
		{"TIMEOUT", http.StatusGatewayTimeout},
		{"STORAGE_ERROR", http.StatusServiceUnavailable},
		{"UNSUPPORTED", http.StatusNotImplemented},
		{"INTERNAL_ERROR", http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(errors.Code(tt.code)); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
