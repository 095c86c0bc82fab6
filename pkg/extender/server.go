package extender

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	v1 "k8s.io/api/core/v1"
	"k8s.io/klog/v2"
	extenderv1 "k8s.io/kube-scheduler/extender/v1"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/api"
)

var (
	extenderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extender_requests_total",
		Help: "Total number of extender requests by verb and outcome",
	}, []string{"verb", "status"})

	extenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "extender_request_duration_seconds",
		Help:    "Duration of extender requests by verb",
		Buckets: prometheus.DefBuckets,
	}, []string{"verb"})
)

// Run serves the extender endpoints until the context is cancelled.
func (e *Extender) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/filter", e.handleFilter)
	mux.HandleFunc("/prioritize", e.handlePrioritize)
	mux.HandleFunc("/bind", e.handleBind)
	mux.HandleFunc("/health", e.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", e.config.ListenPort),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		klog.Infof("Starting scheduler extender on port %d", e.config.ListenPort)
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

// handleFilter removes nodes that cannot host the pod. Zero surviving nodes
// is reported as an empty list, distinguishable from a transport error.
func (e *Extender) handleFilter(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(extenderDuration.WithLabelValues("filter"))
	defer timer.ObserveDuration()

	args, ok := decodeExtenderArgs(w, r)
	if !ok {
		extenderRequests.WithLabelValues("filter", "error").Inc()
		return
	}

	nodes := args.Nodes.Items
	klog.V(2).Infof("Filtering %d nodes for pod %s/%s", len(nodes), args.Pod.Namespace, args.Pod.Name)

	feasible, failed := filterNodes(args.Pod, nodes, e.reserved(r.Context()))

	result := &extenderv1.ExtenderFilterResult{
		Nodes:       &v1.NodeList{Items: feasible},
		FailedNodes: failed,
	}

	extenderRequests.WithLabelValues("filter", "success").Inc()
	writeJSON(w, result)
}

// handlePrioritize returns one weighted score per candidate node.
func (e *Extender) handlePrioritize(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(extenderDuration.WithLabelValues("prioritize"))
	defer timer.ObserveDuration()

	args, ok := decodeExtenderArgs(w, r)
	if !ok {
		extenderRequests.WithLabelValues("prioritize", "error").Inc()
		return
	}

	nodes := args.Nodes.Items
	klog.V(2).Infof("Prioritizing %d nodes for pod %s/%s", len(nodes), args.Pod.Namespace, args.Pod.Name)

	priorities := e.prioritizeNodes(r.Context(), args.Pod, nodes)

	extenderRequests.WithLabelValues("prioritize", "success").Inc()
	writeJSON(w, &priorities)
}

// handleBind acknowledges bind delegation; the default scheduler performs
// the actual binding.
func (e *Extender) handleBind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var args extenderv1.ExtenderBindingArgs
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		http.Error(w, fmt.Sprintf("invalid bind request: %v", err), http.StatusBadRequest)
		return
	}
	klog.V(2).Infof("Bind delegated for pod %s/%s on node %s", args.PodNamespace, args.PodName, args.Node)
	writeJSON(w, &extenderv1.ExtenderBindingResult{})
}

// handleHealth always reports ok while the process serves: the heuristic
// fallback means scoring is available regardless of model or inference
// state. Inference reachability is included as information only.
func (e *Extender) handleHealth(w http.ResponseWriter, r *http.Request) {
	online := false
	if e.inference != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		online = e.inference.Healthy(ctx)
	}
	writeJSON(w, &api.HealthResponse{Status: "ok", InferenceOnline: &online})
}

func decodeExtenderArgs(w http.ResponseWriter, r *http.Request) (*extenderv1.ExtenderArgs, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	var args extenderv1.ExtenderArgs
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		http.Error(w, fmt.Sprintf("invalid extender request: %v", err), http.StatusBadRequest)
		return nil, false
	}
	if args.Pod == nil {
		http.Error(w, "extender request has no pod", http.StatusBadRequest)
		return nil, false
	}
	if args.Nodes == nil {
		args.Nodes = &v1.NodeList{}
	}
	return &args, true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		klog.Errorf("Failed to encode response: %v", err)
	}
}
