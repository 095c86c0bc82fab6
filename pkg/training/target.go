package training

import (
	"math"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/features"
)

// TargetConfig weights the components of the derived target score used
// when the dataset carries no labels. The components reward balanced
// CPU/memory consumption, a moderate CPU load band, low latency, memory
// headroom and spare capacity.
type TargetConfig struct {
	BalanceWeight    float64 `yaml:"balanceWeight"`
	BalanceSharpness float64 `yaml:"balanceSharpness"`
	CPUBandWeight    float64 `yaml:"cpuBandWeight"`
	CPUBandLow       float64 `yaml:"cpuBandLow"`
	CPUBandHigh      float64 `yaml:"cpuBandHigh"`
	LatencyWeight    float64 `yaml:"latencyWeight"`
	LatencyExponent  float64 `yaml:"latencyExponent"`
	MemoryWeight     float64 `yaml:"memoryWeight"`
	HeadroomWeight   float64 `yaml:"headroomWeight"`
}

// DefaultTargetConfig returns the production weighting.
func DefaultTargetConfig() TargetConfig {
	return TargetConfig{
		BalanceWeight:    0.60,
		BalanceSharpness: 25.0,
		CPUBandWeight:    0.15,
		CPUBandLow:       0.30,
		CPUBandHigh:      0.60,
		LatencyWeight:    0.15,
		LatencyExponent:  1.5,
		MemoryWeight:     0.08,
		HeadroomWeight:   0.02,
	}
}

// Derive computes the target score for one feature row in canonical
// order. The result is clamped to [0, 1].
func (c TargetConfig) Derive(row []float64) float64 {
	v, err := features.FromValues(row)
	if err != nil {
		return 0
	}

	cpuLoad := v.CPULoadAvg
	memLoad := v.MemoryLoadAvg

	// Reward CPU and memory being consumed at similar rates.
	deviation := cpuLoad - memLoad
	balance := math.Exp(-c.BalanceSharpness * deviation * deviation)

	band := 0.0
	switch {
	case cpuLoad >= c.CPUBandLow && cpuLoad <= c.CPUBandHigh:
		band = 1.0
	case cpuLoad < c.CPUBandLow:
		if c.CPUBandLow > 0 {
			band = cpuLoad / c.CPUBandLow
		}
	default:
		band = math.Max(0, 1.0-(cpuLoad-c.CPUBandHigh)/(1.0-c.CPUBandHigh))
	}

	latency := math.Pow(1.0-clamp01(v.NetworkLatencyNormalized), c.LatencyExponent)
	memory := v.MemoryAvailableRatio
	headroom := v.CPUAvailableRatio

	score := c.BalanceWeight*balance +
		c.CPUBandWeight*band +
		c.LatencyWeight*latency +
		c.MemoryWeight*memory +
		c.HeadroomWeight*headroom
	return clamp01(score)
}

// DeriveTargets fills in the dataset targets from the feature rows.
func (c TargetConfig) DeriveTargets(d *Dataset) {
	for i, row := range d.X {
		d.Y[i] = c.Derive(row)
	}
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
