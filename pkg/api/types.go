// Package api defines the JSON wire types exchanged between the scheduler
// extender and the inference service.
package api

// PodDescriptor describes a pod for a single scheduling decision. CPU is
// expressed in cores, memory in bytes. The same type doubles as the
// existing-pod record, in which case NodeName carries the node the pod is
// already running on.
type PodDescriptor struct {
	Name          string            `json:"name"`
	Namespace     string            `json:"namespace"`
	CPURequest    float64           `json:"cpu_request"`
	MemoryRequest int64             `json:"memory_request"`
	Labels        map[string]string `json:"labels,omitempty"`
	Annotations   map[string]string `json:"annotations,omitempty"`
	PodType       string            `json:"pod_type,omitempty"`
	NodeName      string            `json:"node,omitempty"`
}

// Taint mirrors the node taint triple with exact-match semantics.
type Taint struct {
	Key    string `json:"key"`
	Value  string `json:"value,omitempty"`
	Effect string `json:"effect"`
}

// NodeDescriptor describes one candidate node. CPU figures are in cores,
// memory figures in bytes. NetworkLatency is in milliseconds and is nil when
// no latency sample is available for the node. CPULoad and MemoryLoad are
// utilization fractions in [0,1] observed by the metrics backend; when nil
// the feature extractor derives a conservative estimate from the
// available/capacity ratios.
type NodeDescriptor struct {
	Name            string            `json:"name"`
	CPUAvailable    float64           `json:"cpu_available"`
	MemoryAvailable float64           `json:"memory_available"`
	CPUCapacity     float64           `json:"cpu_capacity"`
	MemoryCapacity  float64           `json:"memory_capacity"`
	Labels          map[string]string `json:"labels,omitempty"`
	Taints          []Taint           `json:"taints,omitempty"`
	NetworkLatency  *float64          `json:"network_latency,omitempty"`
	CPULoad         *float64          `json:"cpu_load,omitempty"`
	MemoryLoad      *float64          `json:"memory_load,omitempty"`
}

// PredictRequest asks the inference service to score every candidate node
// for the given pod.
type PredictRequest struct {
	Pod            PodDescriptor    `json:"pod"`
	CandidateNodes []NodeDescriptor `json:"candidate_nodes"`
	ExistingPods   []PodDescriptor  `json:"existing_pods,omitempty"`
}

// PredictResponse carries one desirability score per candidate node, higher
// is better, together with the identity of the model that produced them.
type PredictResponse struct {
	NodeScores      map[string]float64 `json:"node_scores"`
	RecommendedNode string             `json:"recommended_node,omitempty"`
	ModelVersion    string             `json:"model_version"`
	FeaturesUsed    []string           `json:"features_used,omitempty"`
}

// HealthResponse is returned by the /health endpoints of both services.
type HealthResponse struct {
	Status          string `json:"status"`
	ModelLoaded     bool   `json:"model_loaded,omitempty"`
	InferenceOnline *bool  `json:"inference_server_available,omitempty"`
}
