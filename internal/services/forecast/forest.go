package forecast

import "math/rand"

// Forest is a bagged ensemble of regression trees. Each tree trains on
// a bootstrap resample of the data and predictions average the trees.
type Forest struct {
	Trees []*TreeNode
}

// ForestParams mirror the tuning the predictor was calibrated with.
type ForestParams struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
}

// DefaultForestParams returns the calibrated forest configuration.
func DefaultForestParams() ForestParams {
	return ForestParams{Trees: 100, MaxDepth: 10, MinSamplesSplit: 5}
}

// FitForest trains a forest. The rng drives bootstrap sampling, so the
// same seed reproduces the same model.
func FitForest(X [][]float64, y []float64, p ForestParams, rng *rand.Rand) *Forest {
	n := len(X)
	f := &Forest{Trees: make([]*TreeNode, 0, p.Trees)}
	tp := treeParams{maxDepth: p.MaxDepth, minSamplesSplit: p.MinSamplesSplit}

	for t := 0; t < p.Trees; t++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		f.Trees = append(f.Trees, buildTree(X, y, idx, 0, tp))
	}
	return f
}

// Predict averages all trees for one row.
func (f *Forest) Predict(row []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range f.Trees {
		sum += t.Predict(row)
	}
	return sum / float64(len(f.Trees))
}
