package promquery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// promStub serves the Prometheus instant-query API with a fixed scalar
// value per query substring, empty results otherwise.
func promStub(t *testing.T, values map[string]float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/query", r.URL.Path)
		query := r.FormValue("query")

		for substr, value := range values {
			if strings.Contains(query, substr) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprintf(w, `{"status":"success","data":{"resultType":"vector","result":[{"metric":{},"value":[%d,"%g"]}]}}`,
					time.Now().Unix(), value)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"success","data":{"resultType":"vector","result":[]}}`)
	}))
}

func TestNodeNetworkLatency_ConvertsToMilliseconds(t *testing.T) {
	server := promStub(t, map[string]float64{"network_latency_rtt_seconds": 0.015})
	defer server.Close()

	client, err := NewClient(server.URL, time.Second)
	require.NoError(t, err)

	latency, ok := client.NodeNetworkLatency(context.Background(), "worker-1")
	require.True(t, ok)
	assert.InDelta(t, 15.0, latency, 0.001)
}

func TestNodeLoads(t *testing.T) {
	server := promStub(t, map[string]float64{
		"node_cpu_seconds_total":         0.42,
		"node_memory_MemAvailable_bytes": 0.63,
	})
	defer server.Close()

	client, err := NewClient(server.URL, time.Second)
	require.NoError(t, err)

	cpu, ok := client.NodeCPULoad(context.Background(), "worker-1")
	require.True(t, ok)
	assert.InDelta(t, 0.42, cpu, 0.001)

	mem, ok := client.NodeMemoryLoad(context.Background(), "worker-1")
	require.True(t, ok)
	assert.InDelta(t, 0.63, mem, 0.001)
}

func TestScalar_EmptyResultReportsNotOK(t *testing.T) {
	server := promStub(t, nil)
	defer server.Close()

	client, err := NewClient(server.URL, time.Second)
	require.NoError(t, err)

	_, ok := client.NodeNetworkLatency(context.Background(), "unknown-node")
	assert.False(t, ok)
}

func TestScalar_BackendDownReportsNotOK(t *testing.T) {
	client, err := NewClient("http://127.0.0.1:1", 100*time.Millisecond)
	require.NoError(t, err)

	_, ok := client.NodeCPULoad(context.Background(), "worker-1")
	assert.False(t, ok, "a dead backend degrades, never errors out")
}
