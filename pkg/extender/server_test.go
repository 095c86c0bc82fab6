package extender

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	v1 "k8s.io/api/core/v1"
	extenderv1 "k8s.io/kube-scheduler/extender/v1"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/api"
)

func postArgs(t *testing.T, handler http.HandlerFunc, args *extenderv1.ExtenderArgs) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(args)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleFilter(t *testing.T) {
	ext := New(NewDefaultConfig(), nil, nil, nil)

	pod := makePod("upf-0", "500m", "512Mi")
	args := &extenderv1.ExtenderArgs{
		Pod: pod,
		Nodes: &v1.NodeList{Items: []v1.Node{
			makeNode("roomy", "4", "8Gi"),
			makeNode("tiny", "100m", "8Gi"),
		}},
	}

	rec := postArgs(t, ext.handleFilter, args)
	require.Equal(t, http.StatusOK, rec.Code)

	var result extenderv1.ExtenderFilterResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotNil(t, result.Nodes)
	assert.Len(t, result.Nodes.Items, 1)
	assert.Equal(t, "roomy", result.Nodes.Items[0].Name)
	assert.Equal(t, ReasonInsufficientCPU, result.FailedNodes["tiny"])
}

func TestHandleFilter_NoFeasibleNodes(t *testing.T) {
	ext := New(NewDefaultConfig(), nil, nil, nil)

	args := &extenderv1.ExtenderArgs{
		Pod:   makePod("huge", "64", "512Gi"),
		Nodes: &v1.NodeList{Items: []v1.Node{makeNode("small", "2", "4Gi")}},
	}

	rec := postArgs(t, ext.handleFilter, args)
	require.Equal(t, http.StatusOK, rec.Code, "zero feasible nodes is a valid outcome, not an error")

	var result extenderv1.ExtenderFilterResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Empty(t, result.Nodes.Items)
	assert.Len(t, result.FailedNodes, 1)
}

func TestHandlePrioritize(t *testing.T) {
	inference := &fakeInference{response: &api.PredictResponse{
		NodeScores: map[string]float64{"worker-1": 1.0, "worker-2": 0.0},
	}}
	ext := New(NewDefaultConfig(), inference, nil, nil)

	args := &extenderv1.ExtenderArgs{
		Pod:   makePod("upf-0", "100m", "128Mi"),
		Nodes: &v1.NodeList{Items: nodeList("worker-1", "worker-2")},
	}

	rec := postArgs(t, ext.handlePrioritize, args)
	require.Equal(t, http.StatusOK, rec.Code)

	var priorities extenderv1.HostPriorityList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &priorities))
	require.Len(t, priorities, 2)
	assert.Equal(t, extenderv1.HostPriority{Host: "worker-1", Score: 10}, priorities[0])
	assert.Equal(t, extenderv1.HostPriority{Host: "worker-2", Score: 0}, priorities[1])
}

func TestHandlers_MalformedBody(t *testing.T) {
	ext := New(NewDefaultConfig(), nil, nil, nil)

	for _, handler := range []http.HandlerFunc{ext.handleFilter, ext.handlePrioritize} {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestHandlers_MissingPodRejected(t *testing.T) {
	ext := New(NewDefaultConfig(), nil, nil, nil)

	rec := postArgs(t, ext.handleFilter, &extenderv1.ExtenderArgs{
		Nodes: &v1.NodeList{Items: nodeList("worker-1")},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_NilNodesTreatedAsEmpty(t *testing.T) {
	ext := New(NewDefaultConfig(), nil, nil, nil)

	rec := postArgs(t, ext.handlePrioritize, &extenderv1.ExtenderArgs{
		Pod: makePod("upf-0", "100m", "128Mi"),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var priorities extenderv1.HostPriorityList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &priorities))
	assert.Empty(t, priorities)
}

func TestHandlers_MethodNotAllowed(t *testing.T) {
	ext := New(NewDefaultConfig(), nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	ext.handleFilter(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleBind_AcknowledgesDelegation(t *testing.T) {
	ext := New(NewDefaultConfig(), nil, nil, nil)

	args := extenderv1.ExtenderBindingArgs{
		PodName: "upf-0", PodNamespace: "workloads", Node: "worker-1",
	}
	body, err := json.Marshal(args)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	ext.handleBind(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result extenderv1.ExtenderBindingResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Empty(t, result.Error)
}

func TestHandleHealth_AlwaysOK(t *testing.T) {
	inference := &fakeInference{response: &api.PredictResponse{}}
	ext := New(NewDefaultConfig(), inference, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ext.handleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var health api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	require.NotNil(t, health.InferenceOnline)
	assert.True(t, *health.InferenceOnline)
}
