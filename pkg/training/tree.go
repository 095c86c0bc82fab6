package training

import (
	"math/rand"
	"sort"

	"github.com/NassimEH/Scheduler-5G-IA/pkg/model"
)

// treeParams bound the growth of a single regression tree.
type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	// featureFraction < 1 samples a random feature subset at every split,
	// which decorrelates bagged trees.
	featureFraction float64
}

type treeBuilder struct {
	x      [][]float64
	y      []float64
	params treeParams
	rng    *rand.Rand
	nodes  []model.TreeNode
}

// fitTree grows a CART regression tree over the rows selected by
// indices. Splits minimise the weighted child variance; leaves predict
// the mean target of their rows.
func fitTree(x [][]float64, y []float64, indices []int, params treeParams, rng *rand.Rand) model.Tree {
	b := &treeBuilder{x: x, y: y, params: params, rng: rng}
	b.grow(indices, 0)
	return model.Tree{Nodes: b.nodes}
}

// grow builds the subtree for the given rows and returns its node index.
// Children are always appended after their parent.
func (b *treeBuilder) grow(indices []int, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, model.TreeNode{Feature: -1, Value: mean(b.y, indices)})

	if depth >= b.params.maxDepth || len(indices) < b.params.minSamplesSplit {
		return idx
	}

	feature, threshold, ok := b.bestSplit(indices)
	if !ok {
		return idx
	}

	var left, right []int
	for _, i := range indices {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < b.params.minSamplesLeaf || len(right) < b.params.minSamplesLeaf {
		return idx
	}

	b.nodes[idx].Feature = feature
	b.nodes[idx].Threshold = threshold
	b.nodes[idx].Left = b.grow(left, depth+1)
	b.nodes[idx].Right = b.grow(right, depth+1)
	return idx
}

// bestSplit scans candidate features for the threshold that minimises
// the total squared error of the two children. It sorts each feature
// once and sweeps running sums, so a split costs O(n log n) per feature.
func (b *treeBuilder) bestSplit(indices []int) (int, float64, bool) {
	n := len(indices)
	dim := len(b.x[indices[0]])

	candidates := make([]int, dim)
	for f := range candidates {
		candidates[f] = f
	}
	if b.params.featureFraction > 0 && b.params.featureFraction < 1 {
		k := int(float64(dim) * b.params.featureFraction)
		if k < 1 {
			k = 1
		}
		b.rng.Shuffle(dim, func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		candidates = candidates[:k]
	}

	totalSum := 0.0
	totalSq := 0.0
	for _, i := range indices {
		totalSum += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}
	parentErr := totalSq - totalSum*totalSum/float64(n)

	bestErr := parentErr
	bestFeature := -1
	bestThreshold := 0.0

	order := make([]int, n)
	for _, f := range candidates {
		copy(order, indices)
		sort.Slice(order, func(a, c int) bool {
			return b.x[order[a]][f] < b.x[order[c]][f]
		})

		leftSum, leftSq := 0.0, 0.0
		for pos := 0; pos < n-1; pos++ {
			i := order[pos]
			leftSum += b.y[i]
			leftSq += b.y[i] * b.y[i]

			cur, next := b.x[i][f], b.x[order[pos+1]][f]
			if cur == next {
				continue
			}
			nl := float64(pos + 1)
			nr := float64(n - pos - 1)
			if pos+1 < b.params.minSamplesLeaf || n-pos-1 < b.params.minSamplesLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			err := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if err < bestErr-1e-12 {
				bestErr = err
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func mean(y []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range indices {
		sum += y[i]
	}
	return sum / float64(len(indices))
}
