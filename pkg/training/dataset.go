// Package training fits the node-scoring regressor from historical
// examples and persists it, together with its feature scaler, as one
// artifact the inference service loads at startup.
package training

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"k8s.io/klog/v2"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/features"
)

// TargetColumn is the optional CSV column holding a precomputed target
// score. Rows without it get their target derived from TargetConfig.
const TargetColumn = "target_score"

// Dataset is a feature matrix plus target vector. X rows are in the
// canonical feature order regardless of CSV column order.
type Dataset struct {
	X [][]float64
	Y []float64
}

func (d *Dataset) Len() int { return len(d.X) }

// LoadCSV reads a training table. The header must contain every feature
// column; unknown columns are ignored. Rows with unparseable numbers are
// skipped with a warning rather than aborting the load.
func LoadCSV(path string) (*Dataset, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse dataset: %w", err)
	}
	if len(records) < 2 {
		return nil, false, fmt.Errorf("dataset %s has no data rows", path)
	}

	header := records[0]
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	fieldIdx := make([]int, features.Dim)
	for i, name := range features.FieldNames() {
		idx, ok := columns[name]
		if !ok {
			return nil, false, fmt.Errorf("dataset %s is missing feature column %q", path, name)
		}
		fieldIdx[i] = idx
	}
	targetIdx, hasTarget := columns[TargetColumn]

	ds := &Dataset{}
	skipped := 0
	for rowNum, record := range records[1:] {
		row := make([]float64, features.Dim)
		ok := true
		for i, idx := range fieldIdx {
			v, err := strconv.ParseFloat(record[idx], 64)
			if err != nil {
				ok = false
				break
			}
			row[i] = v
		}
		target := 0.0
		if ok && hasTarget {
			target, err = strconv.ParseFloat(record[targetIdx], 64)
			ok = err == nil
		}
		if !ok {
			skipped++
			klog.V(4).Infof("Skipping malformed dataset row %d", rowNum+2)
			continue
		}
		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, target)
	}
	if skipped > 0 {
		klog.Warningf("Skipped %d malformed rows in %s", skipped, path)
	}
	if ds.Len() == 0 {
		return nil, false, fmt.Errorf("dataset %s has no usable rows", path)
	}
	return ds, hasTarget, nil
}

// Split partitions the dataset into train and test folds using a seeded
// shuffle, testFraction in (0,1).
func (d *Dataset) Split(testFraction float64, seed int64) (train, test *Dataset) {
	n := d.Len()
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	testSize := int(float64(n) * testFraction)
	if testSize < 1 {
		testSize = 1
	}
	if testSize >= n {
		testSize = n - 1
	}

	train = &Dataset{}
	test = &Dataset{}
	for i, idx := range perm {
		if i < testSize {
			test.X = append(test.X, d.X[idx])
			test.Y = append(test.Y, d.Y[idx])
		} else {
			train.X = append(train.X, d.X[idx])
			train.Y = append(train.Y, d.Y[idx])
		}
	}
	return train, test
}
