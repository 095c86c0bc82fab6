// Package model implements the node-desirability scoring backends: a fixed
// heuristic formula that is always available, and a trained tree-ensemble
// regressor loaded from a persisted artifact.
package model

import "github.com/NassimEH/Scheduler-5G-IA/pkg/features"

// Scorer maps a feature vector to a desirability score in [0,1], higher is a
// better placement. Implementations must be safe for concurrent use and
// deterministic for identical inputs.
type Scorer interface {
	Score(v features.Vector) float64

	// Version identifies the scoring variant in responses and logs.
	Version() string
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
