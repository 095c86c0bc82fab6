// Package features derives the fixed-order numeric vector the scoring model
// consumes. The Vector type is the single schema shared by the training
// pipeline and the serving path; field order changes here change both sides
// at once.
package features

import "fmt"

// Dim is the number of features in a Vector.
const Dim = 9

// Vector is the ordered feature record for one (pod, candidate node,
// cluster snapshot) triple. Ratios and loads are fractions in [0,1],
// PodCPURequest is in cores, PodMemoryRequest in bytes.
type Vector struct {
	CPUAvailableRatio        float64
	MemoryAvailableRatio     float64
	CPULoadAvg               float64
	MemoryLoadAvg            float64
	NetworkLatencyNormalized float64
	PodDensity               float64
	PodCPURequest            float64
	PodMemoryRequest         float64
	PodTypeScore             float64
}

// fieldNames is the canonical column order for datasets and artifacts.
var fieldNames = [Dim]string{
	"cpu_available_ratio",
	"memory_available_ratio",
	"cpu_load_avg",
	"memory_load_avg",
	"network_latency_normalized",
	"pod_density",
	"pod_cpu_request",
	"pod_memory_request",
	"pod_type_score",
}

// FieldNames returns the feature column names in vector order.
func FieldNames() []string {
	names := make([]string, Dim)
	copy(names, fieldNames[:])
	return names
}

// Values flattens the vector in canonical field order.
func (v Vector) Values() []float64 {
	return []float64{
		v.CPUAvailableRatio,
		v.MemoryAvailableRatio,
		v.CPULoadAvg,
		v.MemoryLoadAvg,
		v.NetworkLatencyNormalized,
		v.PodDensity,
		v.PodCPURequest,
		v.PodMemoryRequest,
		v.PodTypeScore,
	}
}

// FromValues rebuilds a Vector from a canonical-order slice.
func FromValues(values []float64) (Vector, error) {
	if len(values) != Dim {
		return Vector{}, fmt.Errorf("feature vector has %d values, want %d", len(values), Dim)
	}
	return Vector{
		CPUAvailableRatio:        values[0],
		MemoryAvailableRatio:     values[1],
		CPULoadAvg:               values[2],
		MemoryLoadAvg:            values[3],
		NetworkLatencyNormalized: values[4],
		PodDensity:               values[5],
		PodCPURequest:            values[6],
		PodMemoryRequest:         values[7],
		PodTypeScore:             values[8],
	}, nil
}
