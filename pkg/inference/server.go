// Package inference serves per-node desirability predictions over HTTP. It
// enriches candidate-node descriptors with metrics-backend observations,
// extracts feature vectors, and evaluates the configured scoring model with
// per-node failure isolation.
package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/api"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/features"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/model"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/promquery"
)

var (
	predictionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inference_predictions_total",
		Help: "Total number of prediction requests by outcome",
	}, []string{"status"})

	predictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inference_prediction_duration_seconds",
		Help:    "Duration of prediction requests",
		Buckets: prometheus.DefBuckets,
	})
)

// nodeMetrics supplies per-node utilization and latency observations.
type nodeMetrics interface {
	NodeCPULoad(ctx context.Context, nodeName string) (float64, bool)
	NodeMemoryLoad(ctx context.Context, nodeName string) (float64, bool)
	NodeNetworkLatency(ctx context.Context, nodeName string) (float64, bool)
}

// Server holds the loaded scorer and its collaborators. The scorer is
// immutable after construction; concurrent request handling shares it
// without locking.
type Server struct {
	config    *Config
	scorer    model.Scorer
	fallback  model.Scorer
	extractor *features.Extractor
	metrics   nodeMetrics
}

// NewServer selects the scoring variant by artifact presence: a valid
// artifact at ModelPath yields the trained ensemble, anything else the
// heuristic. metrics may be nil, in which case load/latency features fall
// back to descriptor-derived estimates.
func NewServer(config *Config, metrics nodeMetrics) *Server {
	return &Server{
		config:    config,
		scorer:    model.LoadScorer(config.ModelPath),
		fallback:  model.NewHeuristic(),
		extractor: features.NewExtractor(features.DefaultConfig()),
		metrics:   metrics,
	}
}

// NewServerFrom wires the concrete metrics client, treating a nil pointer
// as no backend at all.
func NewServerFrom(config *Config, metrics *promquery.Client) *Server {
	var iface nodeMetrics
	if metrics != nil {
		iface = metrics
	}
	return NewServer(config, iface)
}

// ModelLoaded reports whether the trained variant is active.
func (s *Server) ModelLoaded() bool {
	_, ok := s.scorer.(*model.Ensemble)
	return ok
}

// Handler returns the service's routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.ListenPort),
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		klog.Infof("Starting inference server on port %d with %s", s.config.ListenPort, s.scorer.Version())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(predictionDuration)
	defer timer.ObserveDuration()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req api.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		predictionRequests.WithLabelValues("error").Inc()
		http.Error(w, fmt.Sprintf("invalid predict request: %v", err), http.StatusBadRequest)
		return
	}

	resp := s.Predict(r.Context(), &req)
	predictionRequests.WithLabelValues("success").Inc()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		klog.Errorf("Failed to encode predict response: %v", err)
	}
}

// Predict scores every candidate node. A node whose extraction or scoring
// fails gets the neutral fallback score; the batch always completes.
func (s *Server) Predict(ctx context.Context, req *api.PredictRequest) *api.PredictResponse {
	scores := make(map[string]float64, len(req.CandidateNodes))

	best := ""
	bestScore := -1.0
	for _, node := range req.CandidateNodes {
		s.enrichNode(ctx, &node)
		score := s.scoreNode(req.Pod, node, req.ExistingPods)
		scores[node.Name] = score
		if score > bestScore {
			bestScore = score
			best = node.Name
		}
	}

	return &api.PredictResponse{
		NodeScores:      scores,
		RecommendedNode: best,
		ModelVersion:    s.scorer.Version(),
		FeaturesUsed:    features.FieldNames(),
	}
}

func (s *Server) scoreNode(pod api.PodDescriptor, node api.NodeDescriptor, existing []api.PodDescriptor) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("Scoring panicked for node %s: %v", node.Name, r)
			score = 0.5
		}
	}()
	vector := s.extractor.Extract(pod, node, existing)
	return s.scorer.Score(vector)
}

// enrichNode attaches metrics-backend observations the descriptor is
// missing. Failed queries leave the fields nil; the extractor then derives
// conservative estimates, so a metrics outage only degrades feature quality.
func (s *Server) enrichNode(ctx context.Context, node *api.NodeDescriptor) {
	if s.metrics == nil {
		return
	}
	if node.CPULoad == nil {
		if load, ok := s.metrics.NodeCPULoad(ctx, node.Name); ok {
			node.CPULoad = &load
		}
	}
	if node.MemoryLoad == nil {
		if load, ok := s.metrics.NodeMemoryLoad(ctx, node.Name); ok {
			node.MemoryLoad = &load
		}
	}
	if node.NetworkLatency == nil {
		if latency, ok := s.metrics.NodeNetworkLatency(ctx, node.Name); ok {
			node.NetworkLatency = &latency
		}
	}
}

// handleHealth reports ok whenever the process serves; the heuristic
// fallback means predictions are always available. model_loaded tells
// operators which variant is answering.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&api.HealthResponse{
		Status:      "ok",
		ModelLoaded: s.ModelLoaded(),
	})
}
