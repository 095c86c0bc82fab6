// Package cluster reads the state the scoring path needs from the
// Kubernetes API: the snapshot of pods already placed. The snapshot is
// read-only input; nothing here caches or mutates cluster state.
package cluster

import (
	"context"
	"fmt"

	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/klog/v2"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/api"
)

// PodTypeLabel is the pod label carrying the 5G network-function role.
const PodTypeLabel = "pod_type"

// Default container requests applied when a container declares none,
// matching the figures the extender assumes while filtering.
const (
	DefaultCPURequestMilli   = 100
	DefaultMemoryRequestByte = 200 * 1024 * 1024
)

// NewClientset builds a Kubernetes client, preferring in-cluster credentials
// and falling back to the given kubeconfig path.
func NewClientset(kubeconfig, master string) (kubernetes.Interface, error) {
	var cfg *rest.Config
	var err error
	if kubeconfig == "" {
		klog.Info("Using in-cluster configuration")
		cfg, err = rest.InClusterConfig()
	} else {
		klog.Infof("Using kubeconfig: %s", kubeconfig)
		cfg, err = clientcmd.BuildConfigFromFlags(master, kubeconfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build kubernetes config: %w", err)
	}
	cfg.QPS = 100
	cfg.Burst = 200
	return kubernetes.NewForConfig(cfg)
}

// Snapshot lists pods cluster state for scoring.
type Snapshot struct {
	clientset kubernetes.Interface
}

func NewSnapshot(clientset kubernetes.Interface) *Snapshot {
	return &Snapshot{clientset: clientset}
}

// ExistingPods returns descriptors for every running pod, with the node each
// one is bound to. An API failure returns the error so the caller can decide
// how to degrade; partial data is never fabricated.
func (s *Snapshot) ExistingPods(ctx context.Context) ([]api.PodDescriptor, error) {
	podList, err := s.clientset.CoreV1().Pods(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}

	pods := make([]api.PodDescriptor, 0, len(podList.Items))
	for i := range podList.Items {
		pods = append(pods, DescribePod(&podList.Items[i]))
	}
	return pods, nil
}

// ReservedByNode sums the CPU (cores) and memory (bytes) already requested
// by pods on each node.
func ReservedByNode(pods []api.PodDescriptor) (cpu map[string]float64, memory map[string]int64) {
	cpu = make(map[string]float64)
	memory = make(map[string]int64)
	for _, p := range pods {
		if p.NodeName == "" {
			continue
		}
		cpu[p.NodeName] += p.CPURequest
		memory[p.NodeName] += p.MemoryRequest
	}
	return cpu, memory
}

// DescribePod converts a Kubernetes pod into the wire descriptor, summing
// container requests and substituting defaults for containers that declare
// none.
func DescribePod(pod *v1.Pod) api.PodDescriptor {
	cpu, memory := PodRequests(pod)
	return api.PodDescriptor{
		Name:          pod.Name,
		Namespace:     pod.Namespace,
		CPURequest:    cpu,
		MemoryRequest: memory,
		Labels:        pod.Labels,
		Annotations:   pod.Annotations,
		PodType:       pod.Labels[PodTypeLabel],
		NodeName:      pod.Spec.NodeName,
	}
}

// PodRequests sums the declared container requests for a pod, in cores and
// bytes. resource.Quantity does the unit parsing ("100m", "128Mi") that the
// wire format would otherwise force by hand.
func PodRequests(pod *v1.Pod) (cpu float64, memory int64) {
	var cpuMilli int64
	for i := range pod.Spec.Containers {
		requests := pod.Spec.Containers[i].Resources.Requests
		if q, ok := requests[v1.ResourceCPU]; ok {
			cpuMilli += q.MilliValue()
		} else {
			cpuMilli += DefaultCPURequestMilli
		}
		if q, ok := requests[v1.ResourceMemory]; ok {
			memory += q.Value()
		} else {
			memory += DefaultMemoryRequestByte
		}
	}
	return float64(cpuMilli) / 1000.0, memory
}

// DescribeNode converts a Kubernetes node into the wire descriptor. Latency
// and load figures are attached by the caller when available.
func DescribeNode(node *v1.Node) api.NodeDescriptor {
	taints := make([]api.Taint, 0, len(node.Spec.Taints))
	for _, t := range node.Spec.Taints {
		taints = append(taints, api.Taint{
			Key:    t.Key,
			Value:  t.Value,
			Effect: string(t.Effect),
		})
	}

	return api.NodeDescriptor{
		Name:            node.Name,
		CPUAvailable:    float64(node.Status.Allocatable.Cpu().MilliValue()) / 1000.0,
		MemoryAvailable: float64(node.Status.Allocatable.Memory().Value()),
		CPUCapacity:     float64(node.Status.Capacity.Cpu().MilliValue()) / 1000.0,
		MemoryCapacity:  float64(node.Status.Capacity.Memory().Value()),
		Labels:          node.Labels,
		Taints:          taints,
	}
}
