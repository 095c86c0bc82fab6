package extender

import "time"

const (
	// NeutralScore is assigned to a node whose feature extraction or model
	// call failed, so one bad node never suppresses the rest of the batch.
	NeutralScore = 0.5

	// DefaultPriorityWeight scales every model score identically before it
	// is mapped onto the extender priority range.
	DefaultPriorityWeight = 1.0

	DefaultInferenceTimeout  = 5 * time.Second
	DefaultPrometheusTimeout = 2 * time.Second
	DefaultSnapshotTimeout   = 3 * time.Second
)
