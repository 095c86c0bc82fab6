package extender

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	v1 "k8s.io/api/core/v1"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/inference"
)

// startInference serves a real inference service (heuristic variant, no
// artifact) over httptest.
func startInference(t *testing.T) *httptest.Server {
	t.Helper()
	config := inference.NewDefaultConfig()
	config.ModelPath = filepath.Join(t.TempDir(), "absent.json")
	server := inference.NewServer(config, nil)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestEndToEnd_FilterThenPrioritize(t *testing.T) {
	ts := startInference(t)

	config := NewDefaultConfig()
	client := NewInferenceClient(ts.URL, 2*time.Second)
	latency := &fakeLatency{latencies: map[string]float64{
		"node-1": 5.0,
		"node-2": 5.0,
		"node-3": 50.0,
	}}
	ext := New(config, client, latency, nil)

	pod := makePod("upf-0", "100m", "128Mi")
	nodes := []v1.Node{
		makeNode("node-1", "2", "4Gi"),
		makeNode("node-2", "50m", "4Gi"),
		makeNode("node-3", "2", "4Gi"),
	}

	feasible, failed := filterNodes(pod, nodes, noReservations())
	require.Len(t, feasible, 2)
	assert.Equal(t, ReasonInsufficientCPU, failed["node-2"])

	priorities := ext.prioritizeNodes(context.Background(), pod, feasible)
	require.Len(t, priorities, 2)
	assert.Equal(t, "node-1", priorities[0].Host)
	assert.Equal(t, "node-3", priorities[1].Host)
	assert.Greater(t, priorities[0].Score, priorities[1].Score,
		"equal resources, lower latency must rank higher")
}

func TestEndToEnd_InferenceDownStillRanks(t *testing.T) {
	config := NewDefaultConfig()
	client := NewInferenceClient("http://127.0.0.1:1", 200*time.Millisecond)
	ext := New(config, client, nil, nil)

	nodes := nodeList("node-1", "node-2")
	priorities := ext.prioritizeNodes(context.Background(), makePod("p", "100m", "128Mi"), nodes)

	require.Len(t, priorities, 2)
	for _, p := range priorities {
		assert.GreaterOrEqual(t, p.Score, int64(0))
	}
}

func TestEndToEnd_HealthSeesInference(t *testing.T) {
	ts := startInference(t)

	client := NewInferenceClient(ts.URL, 2*time.Second)
	ext := New(NewDefaultConfig(), client, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ext.handleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"inference_server_available":true`)
}
