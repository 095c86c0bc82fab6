package extender

import (
	"context"
	"math"

	v1 "k8s.io/api/core/v1"
	"k8s.io/klog/v2"
	extenderv1 "k8s.io/kube-scheduler/extender/v1"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/api"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/cluster"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/features"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/model"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/promquery"
)

// prioritizeNodes scores every candidate node and returns one HostPriority
// per input node, in input order; rank is conveyed by the score alone. The
// inference service supplies scores when reachable; otherwise every node is
// scored with the local heuristic using only resource figures, so a metrics
// or inference outage degrades quality but never blocks scheduling.
func (e *Extender) prioritizeNodes(ctx context.Context, pod *v1.Pod, nodes []v1.Node) extenderv1.HostPriorityList {
	priorities := make(extenderv1.HostPriorityList, 0, len(nodes))
	if len(nodes) == 0 {
		return priorities
	}

	podDesc := cluster.DescribePod(pod)
	nodeDescs := e.describeNodes(ctx, nodes)
	existing := e.existingPods(ctx)

	scores := e.modelScores(ctx, podDesc, nodeDescs, existing)

	for i := range nodes {
		score, ok := scores[nodes[i].Name]
		if !ok {
			score = NeutralScore
		}
		priorities = append(priorities, extenderv1.HostPriority{
			Host:  nodes[i].Name,
			Score: e.weightedPriority(score),
		})
	}
	return priorities
}

// modelScores obtains per-node scores from the inference service, falling
// back to the local heuristic over all nodes when the call fails.
func (e *Extender) modelScores(ctx context.Context, pod api.PodDescriptor, nodes []api.NodeDescriptor, existing []api.PodDescriptor) map[string]float64 {
	if e.inference != nil {
		req := &api.PredictRequest{Pod: pod, CandidateNodes: nodes, ExistingPods: existing}
		prediction, err := e.inference.Predict(ctx, req)
		if err == nil {
			klog.V(4).Infof("Scored %d nodes with %s for pod %s/%s",
				len(prediction.NodeScores), prediction.ModelVersion, pod.Namespace, pod.Name)
			return prediction.NodeScores
		}
		klog.Warningf("Inference call failed for pod %s/%s, scoring locally: %v",
			pod.Namespace, pod.Name, err)
	}

	scores := make(map[string]float64, len(nodes))
	for _, node := range nodes {
		scores[node.Name] = e.localScore(pod, node, existing)
	}
	return scores
}

// localScore runs the heuristic on locally available resource figures. The
// latency term stays neutral since the degraded path must not depend on the
// metrics backend.
func (e *Extender) localScore(pod api.PodDescriptor, node api.NodeDescriptor, existing []api.PodDescriptor) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("Heuristic scoring panicked for node %s: %v", node.Name, r)
			score = NeutralScore
		}
	}()
	node.NetworkLatency = nil
	vector := e.extractor.Extract(pod, node, existing)
	return e.fallback.Score(vector)
}

// describeNodes converts nodes to descriptors and attaches latency samples
// from the metrics backend when one is configured and answering.
func (e *Extender) describeNodes(ctx context.Context, nodes []v1.Node) []api.NodeDescriptor {
	descs := make([]api.NodeDescriptor, 0, len(nodes))
	for i := range nodes {
		desc := cluster.DescribeNode(&nodes[i])
		if e.metrics != nil {
			if latency, ok := e.metrics.NodeNetworkLatency(ctx, desc.Name); ok {
				desc.NetworkLatency = &latency
			}
		}
		descs = append(descs, desc)
	}
	return descs
}

// existingPods fetches the cluster pod snapshot, tolerating failure: without
// a snapshot density features default conservatively and filtering uses raw
// allocatable.
func (e *Extender) existingPods(ctx context.Context) []api.PodDescriptor {
	if e.snapshot == nil {
		return nil
	}
	snapCtx, cancel := context.WithTimeout(ctx, e.config.SnapshotTimeout)
	defer cancel()

	pods, err := e.snapshot.ExistingPods(snapCtx)
	if err != nil {
		klog.V(2).Infof("Pod snapshot unavailable, proceeding without it: %v", err)
		return nil
	}
	return pods
}

// weightedPriority applies the configured weight, clamps to [0,1], and maps
// the result onto the scheduler's extender priority range.
func (e *Extender) weightedPriority(score float64) int64 {
	weighted := score * e.config.PriorityWeight
	if weighted < 0 {
		weighted = 0
	}
	if weighted > 1 {
		weighted = 1
	}
	return int64(math.Round(weighted * float64(extenderv1.MaxExtenderPriority)))
}

// Interfaces over the external collaborators, narrow so tests can fake them.

type inferenceAPI interface {
	Predict(ctx context.Context, req *api.PredictRequest) (*api.PredictResponse, error)
	Healthy(ctx context.Context) bool
}

type latencySource interface {
	NodeNetworkLatency(ctx context.Context, nodeName string) (float64, bool)
}

type podSnapshot interface {
	ExistingPods(ctx context.Context) ([]api.PodDescriptor, error)
}

// Extender wires the filter and prioritize stages to their collaborators.
// All fields are set at construction and read-only afterwards, so concurrent
// requests need no locking.
type Extender struct {
	config    *Config
	inference inferenceAPI
	metrics   latencySource
	snapshot  podSnapshot
	extractor *features.Extractor
	fallback  model.Scorer
}

func New(config *Config, inference inferenceAPI, metrics latencySource, snapshot podSnapshot) *Extender {
	return &Extender{
		config:    config,
		inference: inference,
		metrics:   metrics,
		snapshot:  snapshot,
		extractor: features.NewExtractor(features.DefaultConfig()),
		fallback:  model.NewHeuristic(),
	}
}

// NewFrom wires the concrete collaborators, treating nil pointers as absent
// so the degraded paths engage instead of a nil dereference.
func NewFrom(config *Config, inference *InferenceClient, metrics *promquery.Client, snapshot *cluster.Snapshot) *Extender {
	var inferenceIface inferenceAPI
	if inference != nil {
		inferenceIface = inference
	}
	var metricsIface latencySource
	if metrics != nil {
		metricsIface = metrics
	}
	var snapshotIface podSnapshot
	if snapshot != nil {
		snapshotIface = snapshot
	}
	return New(config, inferenceIface, metricsIface, snapshotIface)
}

// reserved computes per-node reserved resources from the snapshot, empty
// maps when the snapshot is unavailable.
func (e *Extender) reserved(ctx context.Context) reservedResources {
	pods := e.existingPods(ctx)
	cpu, memory := cluster.ReservedByNode(pods)
	return reservedResources{cpu: cpu, memory: memory}
}
