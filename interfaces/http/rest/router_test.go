package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dialograph/domain/core/aggregates"
	"dialograph/domain/services"
	"dialograph/infrastructure/config"
	"dialograph/infrastructure/export"
	"dialograph/infrastructure/render"
	"dialograph/interfaces/http/rest/handlers"
	"dialograph/pkg/observability"
)

type recordingNotifier struct {
	versions []int
}

func (n *recordingNotifier) NotifyGraphChanged(version int) {
	n.versions = append(n.versions, version)
}

func newTestServer(t *testing.T) (*httptest.Server, *aggregates.Graph, *recordingNotifier) {
	t.Helper()

	cfg := &config.Config{
		ServerAddress: ":0",
		Environment:   "development",
		LogLevel:      "info",
		EnableMetrics: true,
		EnableCORS:    false,
	}

	graph := aggregates.NewGraph()
	notifier := &recordingNotifier{}
	handler := handlers.NewGraphHandler(
		graph,
		services.NewRetrievalService(),
		render.NewRenderer(render.RenderConfig{}),
		export.NewExporter(),
		observability.NewCollector("dialograph_test"),
		notifier,
		zap.NewNop(),
	)

	router := NewRouter(cfg, handler, observability.NewCollector("dialograph_router_test"), zap.NewNop())
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv, graph, notifier
}

func postJSON(t *testing.T, url string, body map[string]interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNodeLifecycleOverHTTP(t *testing.T) {
	srv, _, notifier := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/nodes", map[string]interface{}{
		"node_id":   "stress",
		"node_type": "problem",
		"data":      map[string]interface{}{"value": "exam stress"},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]interface{}
	decodeBody(t, resp, &created)
	assert.Equal(t, "stress", created["node_id"])

	// Duplicate id conflicts
	resp = postJSON(t, srv.URL+"/api/v1/nodes", map[string]interface{}{
		"node_id":   "stress",
		"node_type": "problem",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	getResp, err := http.Get(srv.URL + "/api/v1/nodes/stress")
	require.NoError(t, err)
	getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	missing, err := http.Get(srv.URL + "/api/v1/nodes/ghost")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	assert.NotEmpty(t, notifier.versions)
}

func TestEdgeEndpointsAndErrorMapping(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for _, id := range []string{"a", "b"} {
		resp := postJSON(t, srv.URL+"/api/v1/nodes", map[string]interface{}{
			"node_id": id, "node_type": "turn",
		})
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := postJSON(t, srv.URL+"/api/v1/edges", map[string]interface{}{
		"edge_id":        "e1",
		"source_node_id": "a",
		"target_node_id": "b",
		"relation":       "elicits",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Unknown endpoint is unprocessable, not a plain 404
	resp = postJSON(t, srv.URL+"/api/v1/edges", map[string]interface{}{
		"source_node_id": "a",
		"target_node_id": "ghost",
		"relation":       "elicits",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Deleting a connected node without cascade conflicts
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/nodes/a", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusConflict, delResp.StatusCode)

	// With cascade it succeeds
	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/nodes/a?cascade=true", nil)
	require.NoError(t, err)
	delResp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)
}

func TestSnapshotStatsAndPaths(t *testing.T) {
	srv, graph, _ := newTestServer(t)

	for _, id := range []string{"a", "b", "c"} {
		resp := postJSON(t, srv.URL+"/api/v1/nodes", map[string]interface{}{
			"node_id": id, "node_type": "turn",
		})
		resp.Body.Close()
	}
	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}} {
		resp := postJSON(t, srv.URL+"/api/v1/edges", map[string]interface{}{
			"source_node_id": pair[0], "target_node_id": pair[1], "relation": "elicits",
		})
		resp.Body.Close()
	}

	var snap aggregates.Snapshot
	resp, err := http.Get(srv.URL + "/api/v1/graph")
	require.NoError(t, err)
	decodeBody(t, resp, &snap)
	assert.Equal(t, 3, snap.NodeCount())
	assert.Equal(t, 2, snap.EdgeCount())
	assert.Equal(t, graph.Version(), snap.Version)

	var stats aggregates.Statistics
	resp, err = http.Get(srv.URL + "/api/v1/graph/stats")
	require.NoError(t, err)
	decodeBody(t, resp, &stats)
	assert.Equal(t, 3, stats.NodeCount)

	var path struct {
		Exists bool     `json:"exists"`
		Edges  []string `json:"edges"`
	}
	resp, err = http.Get(srv.URL + "/api/v1/paths?source=a&target=c")
	require.NoError(t, err)
	decodeBody(t, resp, &path)
	assert.True(t, path.Exists)
	assert.Len(t, path.Edges, 2)

	// Bounded reachability question
	resp, err = http.Get(srv.URL + "/api/v1/paths?source=a&target=c&max_depth=1")
	require.NoError(t, err)
	decodeBody(t, resp, &path)
	assert.False(t, path.Exists)

	// Unreachable pair without a bound is a 404
	resp, err = http.Get(srv.URL + "/api/v1/paths?source=c&target=a")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVisualizationAndRecallEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/nodes", map[string]interface{}{
		"node_id": "a", "node_type": "subject",
		"data": map[string]interface{}{"value": "exam stress"},
	})
	resp.Body.Close()
	resp = postJSON(t, srv.URL+"/api/v1/nodes", map[string]interface{}{
		"node_id": "b", "node_type": "object",
	})
	resp.Body.Close()
	resp = postJSON(t, srv.URL+"/api/v1/edges", map[string]interface{}{
		"source_node_id": "a", "target_node_id": "b", "relation": "elicits",
	})
	resp.Body.Close()

	page, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer page.Body.Close()
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, page.Header.Get("Content-Type"), "text/html")

	var recall []struct {
		NodeID string  `json:"node_id"`
		Score  float64 `json:"score"`
	}
	resp, err = http.Get(srv.URL + "/api/v1/nodes/a/recall?limit=5")
	require.NoError(t, err)
	decodeBody(t, resp, &recall)
	require.Len(t, recall, 1)
	assert.Equal(t, "b", recall[0].NodeID)
	assert.Greater(t, recall[0].Score, 0.0)
}

func TestVisualizationGateReturns503WhenDisabled(t *testing.T) {
	cfg := &config.Config{
		ServerAddress: ":0",
		Environment:   "development",
		LogLevel:      "info",
	}
	handler := handlers.NewGraphHandler(
		aggregates.NewGraph(),
		services.NewRetrievalService(),
		render.NewRenderer(render.DefaultRenderConfig()),
		export.NewExporter(),
		observability.NewCollector("dialograph_gate_test"),
		nil,
		zap.NewNop(),
	)
	router := NewRouter(cfg, handler, observability.NewCollector("dialograph_gate_router_test"), zap.NewNop())
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)

	handler.SetRenderingEnabled(false)
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	handler.SetRenderingEnabled(true)
	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
