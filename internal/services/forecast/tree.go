package forecast

import "sort"

// TreeNode is one node of a regression tree. Leaves predict the mean
// target of their training samples; internal nodes split on a single
// feature threshold chosen by squared-error reduction.
type TreeNode struct {
	Leaf      bool
	Value     float64
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
}

// Predict walks the tree for one feature row.
func (t *TreeNode) Predict(row []float64) float64 {
	n := t
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

type treeParams struct {
	maxDepth        int
	minSamplesSplit int
}

func buildTree(X [][]float64, y []float64, idx []int, depth int, p treeParams) *TreeNode {
	if depth >= p.maxDepth || len(idx) < p.minSamplesSplit {
		return &TreeNode{Leaf: true, Value: meanAt(y, idx)}
	}

	feature, threshold, ok := bestSplit(X, y, idx)
	if !ok {
		return &TreeNode{Leaf: true, Value: meanAt(y, idx)}
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &TreeNode{Leaf: true, Value: meanAt(y, idx)}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(X, y, left, depth+1, p),
		Right:     buildTree(X, y, right, depth+1, p),
	}
}

// bestSplit scans every feature in sorted order, tracking sums on both
// sides so each candidate threshold costs O(1).
func bestSplit(X [][]float64, y []float64, idx []int) (feature int, threshold float64, ok bool) {
	n := len(idx)
	if n < 2 {
		return 0, 0, false
	}
	features := len(X[idx[0]])

	var totalSum, totalSq float64
	for _, i := range idx {
		totalSum += y[i]
		totalSq += y[i] * y[i]
	}
	baseSSE := totalSq - totalSum*totalSum/float64(n)

	best := baseSSE
	order := make([]int, n)

	for f := 0; f < features; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return X[order[a]][f] < X[order[b]][f]
		})

		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			i := order[k]
			leftSum += y[i]
			leftSq += y[i] * y[i]

			// only split between distinct feature values
			if X[order[k]][f] == X[order[k+1]][f] {
				continue
			}

			nl := float64(k + 1)
			nr := float64(n - k - 1)
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if sse < best {
				best = sse
				feature = f
				threshold = (X[order[k]][f] + X[order[k+1]][f]) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}
