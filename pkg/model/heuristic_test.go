package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/features"
)

func TestHeuristic_Deterministic(t *testing.T) {
	h := NewHeuristic()
	v := features.Vector{
		CPUAvailableRatio:        0.6,
		MemoryAvailableRatio:     0.7,
		CPULoadAvg:               0.5,
		MemoryLoadAvg:            0.3,
		NetworkLatencyNormalized: 0.2,
		PodDensity:               0.1,
	}

	first := h.Score(v)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, h.Score(v))
	}
}

func TestHeuristic_ScoreComposition(t *testing.T) {
	h := NewHeuristic()

	// CPU load inside the optimal band, not overloaded.
	v := features.Vector{
		CPUAvailableRatio:        0.5,
		MemoryAvailableRatio:     0.5,
		CPULoadAvg:               0.5,
		MemoryLoadAvg:            0.5,
		NetworkLatencyNormalized: 0.0,
		PodDensity:               0.0,
	}
	expected := 1.0*HeuristicCPUBandWeight +
		0.5*HeuristicCPURatioWeight +
		0.5*HeuristicMemRatioWeight +
		1.0*HeuristicLatencyWeight +
		1.0*HeuristicDensityWeight +
		HeuristicOverloadWeight
	assert.InDelta(t, expected, h.Score(v), 0.0001)
}

func TestHeuristic_CPUBand(t *testing.T) {
	testCases := []struct {
		name     string
		cpuLoad  float64
		expected float64
	}{
		{"idle node ramps up", 0.2, 0.5},
		{"band lower edge", 0.4, 1.0},
		{"band upper edge", 0.7, 1.0},
		{"above band tapers", 0.85, 0.5},
		{"saturated", 1.0, 0.0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, cpuBandScore(tc.cpuLoad), 0.0001)
		})
	}
}

func TestHeuristic_OverloadPenalty(t *testing.T) {
	h := NewHeuristic()

	healthy := features.Vector{CPULoadAvg: 0.5, MemoryLoadAvg: 0.5}
	memOverloaded := features.Vector{CPULoadAvg: 0.5, MemoryLoadAvg: 0.9}

	// MemoryLoadAvg only enters the formula through the overload check, so
	// the score gap is exactly the overload bonus.
	assert.InDelta(t, HeuristicOverloadWeight, h.Score(healthy)-h.Score(memOverloaded), 0.0001)
}

func TestHeuristic_LowerLatencyScoresHigher(t *testing.T) {
	h := NewHeuristic()

	base := features.Vector{CPULoadAvg: 0.5, MemoryLoadAvg: 0.5}
	prev := 2.0
	for latency := 0.0; latency <= 1.0; latency += 0.1 {
		v := base
		v.NetworkLatencyNormalized = latency
		score := h.Score(v)
		assert.Less(t, score, prev, "score must strictly decrease as latency grows")
		prev = score
	}
}

func TestHeuristic_ScoreAlwaysInRange(t *testing.T) {
	h := NewHeuristic()

	extremes := []features.Vector{
		{},
		{CPUAvailableRatio: 1, MemoryAvailableRatio: 1, CPULoadAvg: 0.5, MemoryLoadAvg: 0.5},
		{CPUAvailableRatio: -3, MemoryAvailableRatio: 7, CPULoadAvg: 42, NetworkLatencyNormalized: -1},
	}
	for _, v := range extremes {
		score := h.Score(v)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}
