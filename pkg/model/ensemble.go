package model

import "fmt"

// TreeNode is one node of a regression tree in array form. Interior nodes
// route on Feature <= Threshold; leaves have Feature == -1 and carry the
// predicted value.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

// Tree is a CART regression tree stored as a flat node array with the root
// at index 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// Predict walks the tree for one input row.
func (t *Tree) Predict(x []float64) float64 {
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.Feature < 0 {
			return node.Value
		}
		if x[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

func (t *Tree) validate(dim int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	for i, n := range t.Nodes {
		if n.Feature >= dim {
			return fmt.Errorf("node %d splits on feature %d, vector has %d", i, n.Feature, dim)
		}
		if n.Feature >= 0 {
			if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
				return fmt.Errorf("node %d has out-of-range children (%d, %d)", i, n.Left, n.Right)
			}
		}
	}
	return nil
}

// Forest is a bagged ensemble; its prediction is the mean over all trees.
type Forest struct {
	Trees []Tree `json:"trees"`
}

func (f *Forest) Predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for i := range f.Trees {
		sum += f.Trees[i].Predict(x)
	}
	return sum / float64(len(f.Trees))
}

func (f *Forest) validate(dim int) error {
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	for i := range f.Trees {
		if err := f.Trees[i].validate(dim); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// Boosted is a gradient-boosted ensemble: a base prediction plus
// LearningRate times the sum of the residual trees.
type Boosted struct {
	Init         float64 `json:"init"`
	LearningRate float64 `json:"learning_rate"`
	Trees        []Tree  `json:"trees"`
}

func (b *Boosted) Predict(x []float64) float64 {
	pred := b.Init
	for i := range b.Trees {
		pred += b.LearningRate * b.Trees[i].Predict(x)
	}
	return pred
}

func (b *Boosted) validate(dim int) error {
	if len(b.Trees) == 0 {
		return fmt.Errorf("boosted ensemble has no trees")
	}
	if b.LearningRate <= 0 {
		return fmt.Errorf("boosted ensemble has non-positive learning rate %g", b.LearningRate)
	}
	for i := range b.Trees {
		if err := b.Trees[i].validate(dim); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}
