package training

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes/fake"
)

func TestCollector_SynthesizesWhenHistoryThin(t *testing.T) {
	collector := NewCollector(fake.NewSimpleClientset(), nil, 42)
	output := filepath.Join(t.TempDir(), "training_data.csv")

	rows, err := collector.Collect(context.Background(), 7*24*time.Hour, output)
	require.NoError(t, err)
	assert.Equal(t, MaxSyntheticSamples, rows, "an empty cluster still yields a usable dataset")

	ds, hasTarget, err := LoadCSV(output)
	require.NoError(t, err)
	assert.False(t, hasTarget)
	assert.Equal(t, MaxSyntheticSamples, ds.Len())

	for _, row := range ds.X {
		assert.GreaterOrEqual(t, row[0], 0.1, "cpu_available_ratio stays in its synthetic range")
		assert.LessOrEqual(t, row[0], 0.9)
	}
}

func TestCollector_SeededRunsMatch(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")

	_, err := NewCollector(fake.NewSimpleClientset(), nil, 7).Collect(context.Background(), time.Hour, first)
	require.NoError(t, err)
	_, err = NewCollector(fake.NewSimpleClientset(), nil, 7).Collect(context.Background(), time.Hour, second)
	require.NoError(t, err)

	a, _, err := LoadCSV(first)
	require.NoError(t, err)
	b, _, err := LoadCSV(second)
	require.NoError(t, err)
	assert.Equal(t, a.X, b.X)
}

func TestCollector_SyntheticRowsTrainCleanly(t *testing.T) {
	collector := NewCollector(fake.NewSimpleClientset(), nil, 42)
	output := filepath.Join(t.TempDir(), "training_data.csv")

	_, err := collector.Collect(context.Background(), time.Hour, output)
	require.NoError(t, err)

	ds, _, err := LoadCSV(output)
	require.NoError(t, err)
	DefaultTargetConfig().DeriveTargets(ds)

	_, metrics, err := Train(ds, smallOptions("random_forest"))
	require.NoError(t, err, "the collect-then-train pipeline must compose")
	assert.Greater(t, metrics.TrainRows, 0)
}
