package forecast

// Boosting is a gradient-boosted ensemble for squared error: a constant
// base prediction plus shallow trees fit to successive residuals.
type Boosting struct {
	Init         float64
	LearningRate float64
	Trees        []*TreeNode
}

// BoostingParams mirror the tuning the predictor was calibrated with.
type BoostingParams struct {
	Trees        int
	MaxDepth     int
	LearningRate float64
}

// DefaultBoostingParams returns the calibrated boosting configuration.
func DefaultBoostingParams() BoostingParams {
	return BoostingParams{Trees: 100, MaxDepth: 5, LearningRate: 0.1}
}

// FitBoosting trains the boosted ensemble.
func FitBoosting(X [][]float64, y []float64, p BoostingParams) *Boosting {
	n := len(X)
	b := &Boosting{
		LearningRate: p.LearningRate,
		Trees:        make([]*TreeNode, 0, p.Trees),
	}

	sum := 0.0
	for _, v := range y {
		sum += v
	}
	if n > 0 {
		b.Init = sum / float64(n)
	}

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = b.Init
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	residual := make([]float64, n)
	tp := treeParams{maxDepth: p.MaxDepth, minSamplesSplit: 2}

	for t := 0; t < p.Trees; t++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}
		tree := buildTree(X, residual, idx, 0, tp)
		b.Trees = append(b.Trees, tree)
		for i, row := range X {
			pred[i] += p.LearningRate * tree.Predict(row)
		}
	}
	return b
}

// Predict evaluates the boosted ensemble for one row.
func (b *Boosting) Predict(row []float64) float64 {
	out := b.Init
	for _, t := range b.Trees {
		out += b.LearningRate * t.Predict(row)
	}
	return out
}
