package drift

import (
	"math"
	"math/rand"
)

const anomalyScoreLimit = 0.6

// isolationForest is a one-dimensional isolation forest. Points that
// isolate in few random splits receive high anomaly scores.
type isolationForest struct {
	trees      []*isolationNode
	sampleSize int
	treeCount  int
	rng        *rand.Rand
}

type isolationNode struct {
	split float64
	left  *isolationNode
	right *isolationNode
	size  int
}

func newIsolationForest(trees, sampleSize int) *isolationForest {
	return &isolationForest{
		treeCount:  trees,
		sampleSize: sampleSize,
		// Fixed seed keeps repeated scoring of the same batch stable.
		rng: rand.New(rand.NewSource(1)),
	}
}

// Fit builds the ensemble from random subsamples of values.
func (f *isolationForest) Fit(values []float64) {
	sample := f.sampleSize
	if sample > len(values) {
		sample = len(values)
	}
	heightLimit := int(math.Ceil(math.Log2(float64(sample))))

	f.trees = make([]*isolationNode, 0, f.treeCount)
	for i := 0; i < f.treeCount; i++ {
		sub := f.subsample(values, sample)
		f.trees = append(f.trees, f.buildTree(sub, 0, heightLimit))
	}
}

// IsAnomaly reports whether the value's ensemble score exceeds the standard
// 0.6 cutoff.
func (f *isolationForest) IsAnomaly(value float64) bool {
	return f.Score(value) > anomalyScoreLimit
}

// Score returns the anomaly score in (0, 1); values near 1 isolate quickly.
func (f *isolationForest) Score(value float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}

	var total float64
	for _, tree := range f.trees {
		total += pathLength(tree, value, 0)
	}
	avg := total / float64(len(f.trees))

	sample := f.sampleSize
	if f.trees[0] != nil && f.trees[0].size < sample {
		sample = f.trees[0].size
	}
	c := averagePathLength(sample)
	if c == 0 {
		return 0
	}
	return math.Pow(2, -avg/c)
}

func (f *isolationForest) subsample(values []float64, n int) []float64 {
	if n >= len(values) {
		sub := make([]float64, len(values))
		copy(sub, values)
		return sub
	}
	sub := make([]float64, n)
	for i, idx := range f.rng.Perm(len(values))[:n] {
		sub[i] = values[idx]
	}
	return sub
}

func (f *isolationForest) buildTree(values []float64, depth, limit int) *isolationNode {
	node := &isolationNode{size: len(values)}
	if len(values) <= 1 || depth >= limit {
		return node
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return node
	}

	node.split = lo + f.rng.Float64()*(hi-lo)

	var left, right []float64
	for _, v := range values {
		if v < node.split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	node.left = f.buildTree(left, depth+1, limit)
	node.right = f.buildTree(right, depth+1, limit)
	return node
}

func pathLength(node *isolationNode, value float64, depth int) float64 {
	if node.left == nil && node.right == nil {
		return float64(depth) + averagePathLength(node.size)
	}
	if value < node.split {
		return pathLength(node.left, value, depth+1)
	}
	return pathLength(node.right, value, depth+1)
}

// averagePathLength is the expected path length of an unsuccessful BST
// search over n points, the normalization constant from Liu et al.
func averagePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	h := math.Log(float64(n-1)) + 0.5772156649
	return 2*h - 2*float64(n-1)/float64(n)
}
