package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"k8s.io/klog/v2"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/features"
)

// Model type identifiers persisted in artifacts.
const (
	ModelRandomForest     = "random_forest"
	ModelGradientBoosting = "gradient_boosting"
)

// Artifact is the persisted output of one training run: the fitted ensemble
// together with the feature scaler and the feature schema it was fit
// against. Exactly one of Forest and Boosted is set, matching ModelType.
type Artifact struct {
	ModelType    string   `json:"model_type"`
	Version      string   `json:"version"`
	FeatureNames []string `json:"feature_names"`
	Scaler       Scaler   `json:"scaler"`
	Forest       *Forest  `json:"forest,omitempty"`
	Boosted      *Boosted `json:"gradient_boosting,omitempty"`
}

// Validate checks internal consistency and, critically, that the artifact
// was trained against the feature schema this binary serves with. A schema
// mismatch would silently feed the ensemble misordered inputs, so it is a
// hard load error instead.
func (a *Artifact) Validate() error {
	if !slices.Equal(a.FeatureNames, features.FieldNames()) {
		return fmt.Errorf("artifact feature schema %v does not match serving schema %v",
			a.FeatureNames, features.FieldNames())
	}
	if err := a.Scaler.validate(features.Dim); err != nil {
		return fmt.Errorf("invalid scaler: %w", err)
	}
	switch a.ModelType {
	case ModelRandomForest:
		if a.Forest == nil {
			return fmt.Errorf("model type %s but no forest present", a.ModelType)
		}
		return a.Forest.validate(features.Dim)
	case ModelGradientBoosting:
		if a.Boosted == nil {
			return fmt.Errorf("model type %s but no boosted ensemble present", a.ModelType)
		}
		return a.Boosted.validate(features.Dim)
	default:
		return fmt.Errorf("unknown model type %q", a.ModelType)
	}
}

// Save writes the artifact atomically (write temp, rename) so a reader never
// observes a half-written model.
func (a *Artifact) Save(path string) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("refusing to persist invalid artifact: %w", err)
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// LoadArtifact reads and validates a persisted artifact.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact: %w", err)
	}
	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact: %w", err)
	}
	return &artifact, nil
}

// Ensemble is the trained Scorer variant: scale the incoming vector with the
// persisted scaler, evaluate the ensemble, clamp to [0,1]. The artifact is
// read-only after load, so concurrent scoring needs no synchronization.
type Ensemble struct {
	artifact *Artifact
}

func NewEnsemble(artifact *Artifact) (*Ensemble, error) {
	if err := artifact.Validate(); err != nil {
		return nil, err
	}
	return &Ensemble{artifact: artifact}, nil
}

func (e *Ensemble) Version() string {
	return fmt.Sprintf("%s-%s", e.artifact.ModelType, e.artifact.Version)
}

func (e *Ensemble) Score(v features.Vector) float64 {
	x := e.artifact.Scaler.Transform(v.Values())
	switch e.artifact.ModelType {
	case ModelGradientBoosting:
		return clamp01(e.artifact.Boosted.Predict(x))
	default:
		return clamp01(e.artifact.Forest.Predict(x))
	}
}

// LoadScorer selects the scoring variant at startup: the trained ensemble
// when the artifact at path loads cleanly, the heuristic otherwise. An
// absent or malformed artifact is logged once and never fatal.
func LoadScorer(path string) Scorer {
	if path == "" {
		klog.Info("No model artifact configured, using heuristic scorer")
		return NewHeuristic()
	}
	artifact, err := LoadArtifact(path)
	if err != nil {
		klog.Warningf("Falling back to heuristic scorer: %v", err)
		return NewHeuristic()
	}
	ensemble, err := NewEnsemble(artifact)
	if err != nil {
		klog.Warningf("Falling back to heuristic scorer: %v", err)
		return NewHeuristic()
	}
	klog.Infof("Loaded %s model from %s", ensemble.Version(), path)
	return ensemble
}
