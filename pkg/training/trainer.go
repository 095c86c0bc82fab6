package training

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
	"k8s.io/klog/v2"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/features"
	"github.com/NassimEH/Scheduler-5G-IA/pkg/model"
)

// Options configure a training run. Zero values are replaced by
// DefaultOptions at the start of Train.
type Options struct {
	ModelType       string  `yaml:"modelType"`
	NumTrees        int     `yaml:"numTrees"`
	MaxDepth        int     `yaml:"maxDepth"`
	MinSamplesSplit int     `yaml:"minSamplesSplit"`
	MinSamplesLeaf  int     `yaml:"minSamplesLeaf"`
	LearningRate    float64 `yaml:"learningRate"`
	TestFraction    float64 `yaml:"testFraction"`
	CVFolds         int     `yaml:"cvFolds"`
	Seed            int64   `yaml:"seed"`
	Version         string  `yaml:"version"`
}

// DefaultOptions returns the production hyperparameters for the given
// model type.
func DefaultOptions(modelType string) Options {
	opts := Options{
		ModelType:       modelType,
		NumTrees:        100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		TestFraction:    0.2,
		CVFolds:         5,
		Seed:            42,
		Version:         "v1",
	}
	if modelType == model.ModelGradientBoosting {
		opts.MaxDepth = 5
		opts.LearningRate = 0.1
	}
	return opts
}

// Metrics summarise model quality on the held-out test fold plus the
// cross-validated fit on the training fold.
type Metrics struct {
	TrainRows int
	TestRows  int
	MSE       float64
	MAE       float64
	R2        float64
	CVMeanR2  float64
	CVStdR2   float64
}

func (m Metrics) String() string {
	return fmt.Sprintf("train=%d test=%d mse=%.4f mae=%.4f r2=%.4f cv_r2=%.4f±%.4f",
		m.TrainRows, m.TestRows, m.MSE, m.MAE, m.R2, m.CVMeanR2, m.CVStdR2)
}

// Train fits the configured ensemble on the dataset and returns the
// serialisable artifact together with its evaluation metrics. Degenerate
// inputs fail loudly rather than producing a silently useless model.
func Train(ds *Dataset, opts Options) (*model.Artifact, Metrics, error) {
	if opts.NumTrees == 0 {
		opts = DefaultOptions(opts.ModelType)
	}
	if opts.ModelType != model.ModelRandomForest && opts.ModelType != model.ModelGradientBoosting {
		return nil, Metrics{}, fmt.Errorf("unknown model type %q", opts.ModelType)
	}
	if ds.Len() < opts.CVFolds {
		return nil, Metrics{}, fmt.Errorf("dataset has %d rows, need at least %d for %d-fold cross-validation",
			ds.Len(), opts.CVFolds, opts.CVFolds)
	}
	if constantTarget(ds.Y) {
		return nil, Metrics{}, fmt.Errorf("target column is constant, nothing to learn")
	}

	train, test := ds.Split(opts.TestFraction, opts.Seed)
	klog.Infof("Training %s on %d rows, holding out %d", opts.ModelType, train.Len(), test.Len())

	scaler := fitScaler(train.X)
	scaledTrain := scaleRows(scaler, train.X)
	scaledTest := scaleRows(scaler, test.X)

	artifact := &model.Artifact{
		ModelType:    opts.ModelType,
		Version:      opts.Version,
		FeatureNames: features.FieldNames(),
		Scaler:       scaler,
	}
	predict := fitEnsemble(artifact, scaledTrain, train.Y, opts, opts.Seed)

	metrics := Metrics{TrainRows: train.Len(), TestRows: test.Len()}
	metrics.MSE, metrics.MAE, metrics.R2 = evaluate(predict, scaledTest, test.Y)
	metrics.CVMeanR2, metrics.CVStdR2 = crossValidate(scaledTrain, train.Y, opts)

	if err := artifact.Validate(); err != nil {
		return nil, Metrics{}, fmt.Errorf("trained artifact failed validation: %w", err)
	}
	klog.Infof("Training complete: %s", metrics)
	return artifact, metrics, nil
}

// fitEnsemble trains into the artifact and returns its prediction
// function over scaled rows.
func fitEnsemble(artifact *model.Artifact, x [][]float64, y []float64, opts Options, seed int64) func([]float64) float64 {
	if opts.ModelType == model.ModelGradientBoosting {
		boosted := fitBoosted(x, y, opts, seed)
		artifact.Boosted = boosted
		return boosted.Predict
	}
	forest := fitForest(x, y, opts, seed)
	artifact.Forest = forest
	return forest.Predict
}

// fitForest bags NumTrees trees over bootstrap resamples of the rows.
func fitForest(x [][]float64, y []float64, opts Options, seed int64) *model.Forest {
	rng := rand.New(rand.NewSource(seed))
	params := treeParams{
		maxDepth:        opts.MaxDepth,
		minSamplesSplit: opts.MinSamplesSplit,
		minSamplesLeaf:  opts.MinSamplesLeaf,
		featureFraction: 1.0 / 3.0,
	}

	n := len(x)
	forest := &model.Forest{Trees: make([]model.Tree, 0, opts.NumTrees)}
	for t := 0; t < opts.NumTrees; t++ {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		forest.Trees = append(forest.Trees, fitTree(x, y, sample, params, rng))
	}
	return forest
}

// fitBoosted fits shallow trees to the running residuals, shrunk by the
// learning rate.
func fitBoosted(x [][]float64, y []float64, opts Options, seed int64) *model.Boosted {
	rng := rand.New(rand.NewSource(seed))
	params := treeParams{
		maxDepth:        opts.MaxDepth,
		minSamplesSplit: opts.MinSamplesSplit,
		minSamplesLeaf:  opts.MinSamplesLeaf,
		featureFraction: 1.0,
	}

	n := len(x)
	init := stat.Mean(y, nil)
	boosted := &model.Boosted{
		Init:         init,
		LearningRate: opts.LearningRate,
		Trees:        make([]model.Tree, 0, opts.NumTrees),
	}

	all := make([]int, n)
	pred := make([]float64, n)
	residual := make([]float64, n)
	for i := range all {
		all[i] = i
		pred[i] = init
	}
	for t := 0; t < opts.NumTrees; t++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}
		tree := fitTree(x, residual, all, params, rng)
		for i := range pred {
			pred[i] += opts.LearningRate * tree.Predict(x[i])
		}
		boosted.Trees = append(boosted.Trees, tree)
	}
	return boosted
}

// crossValidate runs k-fold CV on the training rows, refitting the
// ensemble per fold, and reports mean and stddev of the fold R2 scores.
func crossValidate(x [][]float64, y []float64, opts Options) (float64, float64) {
	n := len(x)
	folds := opts.CVFolds
	perm := rand.New(rand.NewSource(opts.Seed + 1)).Perm(n)

	scores := make([]float64, 0, folds)
	for fold := 0; fold < folds; fold++ {
		var trainX, holdX [][]float64
		var trainY, holdY []float64
		for pos, idx := range perm {
			if pos%folds == fold {
				holdX = append(holdX, x[idx])
				holdY = append(holdY, y[idx])
			} else {
				trainX = append(trainX, x[idx])
				trainY = append(trainY, y[idx])
			}
		}
		if len(holdX) == 0 || len(trainX) == 0 {
			continue
		}
		foldArtifact := &model.Artifact{}
		predict := fitEnsemble(foldArtifact, trainX, trainY, opts, opts.Seed+int64(fold))
		_, _, r2 := evaluate(predict, holdX, holdY)
		scores = append(scores, r2)
	}
	if len(scores) == 0 {
		return 0, 0
	}
	return stat.Mean(scores, nil), stat.StdDev(scores, nil)
}

// evaluate computes MSE, MAE and R2 of the predictor on scaled rows.
func evaluate(predict func([]float64) float64, x [][]float64, y []float64) (mse, mae, r2 float64) {
	if len(x) == 0 {
		return 0, 0, 0
	}
	estimates := make([]float64, len(x))
	for i, row := range x {
		estimates[i] = predict(row)
		diff := estimates[i] - y[i]
		mse += diff * diff
		mae += math.Abs(diff)
	}
	n := float64(len(x))
	mse /= n
	mae /= n
	r2 = stat.RSquaredFrom(estimates, y, nil)
	return mse, mae, r2
}

// fitScaler computes the per-feature standardisation over the rows.
func fitScaler(x [][]float64) model.Scaler {
	dim := features.Dim
	scaler := model.Scaler{
		Mean: make([]float64, dim),
		Std:  make([]float64, dim),
	}
	column := make([]float64, len(x))
	for f := 0; f < dim; f++ {
		for i, row := range x {
			column[i] = row[f]
		}
		scaler.Mean[f] = stat.Mean(column, nil)
		scaler.Std[f] = stat.StdDev(column, nil)
		if math.IsNaN(scaler.Std[f]) {
			scaler.Std[f] = 0
		}
	}
	return scaler
}

func scaleRows(scaler model.Scaler, x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = scaler.Transform(row)
	}
	return out
}

func constantTarget(y []float64) bool {
	for _, v := range y[1:] {
		if v != y[0] {
			return false
		}
	}
	return true
}
