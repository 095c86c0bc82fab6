package extender

import (
	v1 "k8s.io/api/core/v1"
	"k8s.io/klog/v2"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/cluster"
)

// Filter reasons reported back to the scheduler per excluded node.
const (
	ReasonInsufficientCPU    = "InsufficientCPU"
	ReasonInsufficientMemory = "InsufficientMemory"
	ReasonTaintNotTolerated  = "TaintNotTolerated"
)

// reservedResources is the per-node sum of requests already placed, used to
// compute true headroom instead of raw allocatable.
type reservedResources struct {
	cpu    map[string]float64
	memory map[string]int64
}

// filterNodes returns the subset of nodes able to host the pod, preserving
// input order, together with the per-node exclusion reasons. An empty result
// is a valid outcome meaning "no eligible node", not an error.
func filterNodes(pod *v1.Pod, nodes []v1.Node, reserved reservedResources) ([]v1.Node, map[string]string) {
	requestedCPU, requestedMemory := cluster.PodRequests(pod)

	feasible := make([]v1.Node, 0, len(nodes))
	failed := make(map[string]string)

	for i := range nodes {
		node := &nodes[i]

		cpuFree := float64(node.Status.Allocatable.Cpu().MilliValue())/1000.0 - reserved.cpu[node.Name]
		if cpuFree < requestedCPU {
			failed[node.Name] = ReasonInsufficientCPU
			continue
		}

		memFree := node.Status.Allocatable.Memory().Value() - reserved.memory[node.Name]
		if memFree < requestedMemory {
			failed[node.Name] = ReasonInsufficientMemory
			continue
		}

		if !toleratesNodeTaints(pod, node) {
			failed[node.Name] = ReasonTaintNotTolerated
			continue
		}

		feasible = append(feasible, nodes[i])
	}

	if klog.V(4).Enabled() {
		klog.V(4).Infof("Node filtering for pod %s/%s: %d candidates, %d feasible",
			pod.Namespace, pod.Name, len(nodes), len(feasible))
		for name, reason := range failed {
			klog.V(4).Infof("- Excluded %s: %s", name, reason)
		}
	}

	return feasible, failed
}

// toleratesNodeTaints checks repelling taints against the pod's tolerations
// with exact key/value/effect matching. Taints with effects other than
// NoSchedule and NoExecute do not repel scheduling.
func toleratesNodeTaints(pod *v1.Pod, node *v1.Node) bool {
	for i := range node.Spec.Taints {
		taint := &node.Spec.Taints[i]
		if taint.Effect != v1.TaintEffectNoSchedule && taint.Effect != v1.TaintEffectNoExecute {
			continue
		}
		if !tolerationsTolerateTaint(pod.Spec.Tolerations, taint) {
			return false
		}
	}
	return true
}

func tolerationsTolerateTaint(tolerations []v1.Toleration, taint *v1.Taint) bool {
	for i := range tolerations {
		if tolerations[i].ToleratesTaint(taint) {
			return true
		}
	}
	return false
}
