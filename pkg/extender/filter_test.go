package extender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	v1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func makeNode(name, cpu, memory string) v1.Node {
	resources := v1.ResourceList{
		v1.ResourceCPU:    resource.MustParse(cpu),
		v1.ResourceMemory: resource.MustParse(memory),
	}
	return v1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Status: v1.NodeStatus{
			Allocatable: resources,
			Capacity:    resources,
		},
	}
}

func makePod(name, cpu, memory string) *v1.Pod {
	return &v1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "workloads"},
		Spec: v1.PodSpec{
			Containers: []v1.Container{{
				Name: "main",
				Resources: v1.ResourceRequirements{
					Requests: v1.ResourceList{
						v1.ResourceCPU:    resource.MustParse(cpu),
						v1.ResourceMemory: resource.MustParse(memory),
					},
				},
			}},
		},
	}
}

func noReservations() reservedResources {
	return reservedResources{cpu: map[string]float64{}, memory: map[string]int64{}}
}

func TestFilterNodes_ResourceFit(t *testing.T) {
	pod := makePod("upf-0", "500m", "512Mi")
	nodes := []v1.Node{
		makeNode("big", "4", "8Gi"),
		makeNode("tight-cpu", "250m", "8Gi"),
		makeNode("tight-memory", "4", "256Mi"),
	}

	feasible, failed := filterNodes(pod, nodes, noReservations())

	assert.Len(t, feasible, 1)
	assert.Equal(t, "big", feasible[0].Name)
	assert.Equal(t, ReasonInsufficientCPU, failed["tight-cpu"])
	assert.Equal(t, ReasonInsufficientMemory, failed["tight-memory"])
}

func TestFilterNodes_AccountsForReservedResources(t *testing.T) {
	pod := makePod("upf-0", "2", "1Gi")
	nodes := []v1.Node{makeNode("worker", "4", "8Gi")}

	reserved := reservedResources{
		cpu:    map[string]float64{"worker": 3.0},
		memory: map[string]int64{"worker": 0},
	}

	feasible, failed := filterNodes(pod, nodes, reserved)

	assert.Empty(t, feasible, "only 1 core left after reservations, pod wants 2")
	assert.Equal(t, ReasonInsufficientCPU, failed["worker"])
}

func TestFilterNodes_Taints(t *testing.T) {
	pod := makePod("upf-0", "100m", "128Mi")
	tainted := makeNode("tainted", "4", "8Gi")
	tainted.Spec.Taints = []v1.Taint{
		{Key: "dedicated", Value: "ran", Effect: v1.TaintEffectNoSchedule},
	}
	preferOnly := makeNode("prefer-only", "4", "8Gi")
	preferOnly.Spec.Taints = []v1.Taint{
		{Key: "dedicated", Value: "ran", Effect: v1.TaintEffectPreferNoSchedule},
	}

	feasible, failed := filterNodes(pod, []v1.Node{tainted, preferOnly}, noReservations())

	assert.Len(t, feasible, 1)
	assert.Equal(t, "prefer-only", feasible[0].Name, "PreferNoSchedule must not repel")
	assert.Equal(t, ReasonTaintNotTolerated, failed["tainted"])

	pod.Spec.Tolerations = []v1.Toleration{
		{Key: "dedicated", Operator: v1.TolerationOpEqual, Value: "ran", Effect: v1.TaintEffectNoSchedule},
	}
	feasible, _ = filterNodes(pod, []v1.Node{tainted}, noReservations())
	assert.Len(t, feasible, 1, "matching toleration admits the tainted node")
}

func TestFilterNodes_PreservesInputOrder(t *testing.T) {
	pod := makePod("upf-0", "100m", "128Mi")
	nodes := []v1.Node{
		makeNode("c", "4", "8Gi"),
		makeNode("a", "4", "8Gi"),
		makeNode("b", "4", "8Gi"),
	}

	feasible, _ := filterNodes(pod, nodes, noReservations())

	names := make([]string, len(feasible))
	for i, n := range feasible {
		names[i] = n.Name
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestFilterNodes_EmptyResultIsValid(t *testing.T) {
	pod := makePod("upf-0", "16", "64Gi")
	nodes := []v1.Node{makeNode("small", "2", "4Gi")}

	feasible, failed := filterNodes(pod, nodes, noReservations())

	assert.NotNil(t, feasible)
	assert.Empty(t, feasible)
	assert.Len(t, failed, 1)
}

func TestFilterNodes_DefaultRequestsForBareContainers(t *testing.T) {
	pod := &v1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "bare", Namespace: "workloads"},
		Spec:       v1.PodSpec{Containers: []v1.Container{{Name: "main"}}},
	}
	nodes := []v1.Node{
		makeNode("roomy", "1", "1Gi"),
		makeNode("sliver", "50m", "100Mi"),
	}

	feasible, failed := filterNodes(pod, nodes, noReservations())

	assert.Len(t, feasible, 1)
	assert.Equal(t, "roomy", feasible[0].Name)
	assert.Equal(t, ReasonInsufficientCPU, failed["sliver"],
		"defaulted requests still exclude nodes without headroom")
}
