package model

import "github.com/NassimEH/Scheduler-5G-IA/pkg/features"

// Heuristic scoring weights. The formula rewards CPU utilization inside the
// 40-70% band, resource headroom, low latency and low pod density, and
// penalizes nodes running near saturation. Weights sum to 1 so the raw score
// already lands in [0,1].
const (
	HeuristicCPUBandWeight  = 0.30
	HeuristicCPURatioWeight = 0.10
	HeuristicMemRatioWeight = 0.10
	HeuristicLatencyWeight  = 0.15
	HeuristicDensityWeight  = 0.25
	HeuristicOverloadWeight = 0.10

	// CPU utilization band considered optimal.
	optimalBandLow  = 0.4
	optimalBandHigh = 0.7

	// Utilization above which a node counts as overloaded.
	overloadThreshold = 0.7
)

const heuristicVersion = "heuristic-v3"

// Heuristic is the fixed-formula fallback scorer. It holds no state and
// needs no training data, which guarantees the service can always produce a
// ranking.
type Heuristic struct{}

func NewHeuristic() *Heuristic { return &Heuristic{} }

func (h *Heuristic) Version() string { return heuristicVersion }

// Score evaluates the weighted sum over the vector's fields. Identical
// vectors always yield identical scores.
func (h *Heuristic) Score(v features.Vector) float64 {
	score := cpuBandScore(v.CPULoadAvg) * HeuristicCPUBandWeight
	score += clamp01(v.CPUAvailableRatio) * HeuristicCPURatioWeight
	score += clamp01(v.MemoryAvailableRatio) * HeuristicMemRatioWeight
	score += (1 - clamp01(v.NetworkLatencyNormalized)) * HeuristicLatencyWeight
	score += (1 - clamp01(v.PodDensity)) * HeuristicDensityWeight
	if !overloaded(v.CPULoadAvg, v.MemoryLoadAvg) {
		score += HeuristicOverloadWeight
	}
	return clamp01(score)
}

// cpuBandScore is 1 inside the optimal utilization band and tapers linearly
// below it and steeply above it.
func cpuBandScore(cpuLoad float64) float64 {
	load := clamp01(cpuLoad)
	switch {
	case load >= optimalBandLow && load <= optimalBandHigh:
		return 1
	case load < optimalBandLow:
		return load / optimalBandLow
	default:
		over := (load - optimalBandHigh) / (1 - optimalBandHigh)
		return clamp01(1 - over)
	}
}

func overloaded(cpuLoad, memLoad float64) bool {
	return cpuLoad > overloadThreshold || memLoad > overloadThreshold
}
