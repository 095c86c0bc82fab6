package features

import (
	"github.com/NassimEH/Scheduler-5G-IA/pkg/api"
)

// Extractor configuration defaults. Latency is normalized against
// MaxLatencyMs and capped at 1; an unknown latency maps to NeutralLatency
// rather than 0 so that missing data never reads as "best possible link".
const (
	DefaultMaxLatencyMs   = 100.0
	DefaultNeutralLatency = 0.5
	DefaultMaxPodsPerNode = 100.0
)

// Config holds the extractor's normalization bounds and the recognized
// pod-type encoding. All derivation is deterministic given a Config.
type Config struct {
	MaxLatencyMs   float64
	NeutralLatency float64
	MaxPodsPerNode float64

	// PodTypeScores encodes the closed set of 5G function roles into a
	// numeric feature. Unknown or absent types map to NeutralTypeScore.
	PodTypeScores    map[string]float64
	NeutralTypeScore float64
}

// DefaultConfig returns the encoding used across training and serving.
// UPF and DU score high because they sit closest to the radio path.
func DefaultConfig() Config {
	return Config{
		MaxLatencyMs:   DefaultMaxLatencyMs,
		NeutralLatency: DefaultNeutralLatency,
		MaxPodsPerNode: DefaultMaxPodsPerNode,
		PodTypeScores: map[string]float64{
			"UPF": 0.9,
			"DU":  0.8,
			"SMF": 0.7,
			"CU":  0.6,
		},
		NeutralTypeScore: 0.5,
	}
}

// Extractor turns a (pod, node, existing pods) triple into a Vector. It is a
// pure function of its inputs and configuration; anything that must be
// fetched (cluster state, metrics) is attached to the descriptors by the
// caller beforehand.
type Extractor struct {
	cfg Config
}

func NewExtractor(cfg Config) *Extractor {
	if cfg.MaxLatencyMs <= 0 {
		cfg.MaxLatencyMs = DefaultMaxLatencyMs
	}
	if cfg.MaxPodsPerNode <= 0 {
		cfg.MaxPodsPerNode = DefaultMaxPodsPerNode
	}
	return &Extractor{cfg: cfg}
}

// Extract builds the feature vector for one candidate node. Missing or
// malformed numeric fields degrade to conservative defaults (zero
// availability, neutral latency) so a single bad record cannot abort
// scoring for the rest of the batch.
func (e *Extractor) Extract(pod api.PodDescriptor, node api.NodeDescriptor, existing []api.PodDescriptor) Vector {
	cpuRatio := availableRatio(node.CPUAvailable, node.CPUCapacity)
	memRatio := availableRatio(node.MemoryAvailable, node.MemoryCapacity)

	cpuLoad := loadOrEstimate(node.CPULoad, cpuRatio)
	memLoad := loadOrEstimate(node.MemoryLoad, memRatio)

	latency := e.cfg.NeutralLatency
	if node.NetworkLatency != nil && *node.NetworkLatency >= 0 {
		latency = clamp01(*node.NetworkLatency / e.cfg.MaxLatencyMs)
	}

	density := clamp01(float64(countPodsOnNode(existing, node.Name)) / e.cfg.MaxPodsPerNode)

	cpuRequest := pod.CPURequest
	if cpuRequest < 0 {
		cpuRequest = 0
	}
	memRequest := float64(pod.MemoryRequest)
	if memRequest < 0 {
		memRequest = 0
	}

	return Vector{
		CPUAvailableRatio:        cpuRatio,
		MemoryAvailableRatio:     memRatio,
		CPULoadAvg:               cpuLoad,
		MemoryLoadAvg:            memLoad,
		NetworkLatencyNormalized: latency,
		PodDensity:               density,
		PodCPURequest:            cpuRequest,
		PodMemoryRequest:         memRequest,
		PodTypeScore:             e.PodTypeScore(pod.PodType),
	}
}

// PodTypeScore encodes a pod type label into its numeric feature value.
func (e *Extractor) PodTypeScore(podType string) float64 {
	if score, ok := e.cfg.PodTypeScores[podType]; ok {
		return score
	}
	return e.cfg.NeutralTypeScore
}

// SameTypePods counts pods of the given type already placed on the node.
func SameTypePods(existing []api.PodDescriptor, nodeName, podType string) int {
	if podType == "" {
		return 0
	}
	count := 0
	for _, p := range existing {
		if p.NodeName == nodeName && p.PodType == podType {
			count++
		}
	}
	return count
}

func countPodsOnNode(existing []api.PodDescriptor, nodeName string) int {
	count := 0
	for _, p := range existing {
		if p.NodeName == nodeName {
			count++
		}
	}
	return count
}

// availableRatio computes (available/capacity) clamped to [0,1]. A zero or
// negative capacity yields 0, the conservative reading for a node reporting
// nonsense figures.
func availableRatio(available, capacity float64) float64 {
	if capacity <= 0 {
		return 0
	}
	return clamp01(available / capacity)
}

// loadOrEstimate prefers the observed utilization fraction; without one it
// assumes everything not reported available is in use.
func loadOrEstimate(observed *float64, availRatio float64) float64 {
	if observed != nil && *observed >= 0 {
		return clamp01(*observed)
	}
	return clamp01(1 - availRatio)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
