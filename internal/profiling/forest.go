package profiling

import (
	"math"
	"math/rand"
	"sort"

	"datalens/domain/profile"
)

// Isolation-forest ensemble parameters. The seed is fixed so row scores are
// reproducible across runs on the same dataset.
const (
	forestTrees         = 100
	forestSubsample     = 256
	forestContamination = 0.01
	forestSeed          = 42
)

const eulerMascheroni = 0.5772156649015329

// RowAnomalyScores fits an isolation-forest ensemble over the numeric
// sub-table (missing values filled with 0) and returns each row's decision
// score: higher means more normal, negative means anomalous. Only the
// relative ranking is meaningful. Returns nil when the dataset has no
// numeric columns.
func RowAnomalyScores(ds *profile.Dataset) []float64 {
	cols := ds.NumericColumns()
	if len(cols) == 0 {
		return nil
	}
	rows := ds.Rows()
	if rows == 0 {
		return nil
	}

	// Numeric sub-table with zero fill for missing/non-coercible cells.
	matrix := make([][]float64, rows)
	for i := range matrix {
		matrix[i] = make([]float64, len(cols))
		for j, col := range cols {
			if i < col.Len() {
				if v, ok := col.Cells[i].Number(); ok {
					matrix[i][j] = v
				}
			}
		}
	}

	rng := rand.New(rand.NewSource(forestSeed))
	forest := fitForest(matrix, rng)

	scores := make([]float64, rows)
	for i, row := range matrix {
		scores[i] = -forest.anomalyScore(row)
	}

	// Shift so the contamination fraction of rows falls below zero,
	// matching the usual decision-function convention.
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	offset := quantile(sorted, forestContamination)

	for i := range scores {
		scores[i] -= offset
	}
	return scores
}

type isoForest struct {
	trees     []*isoNode
	subsample int
}

type isoNode struct {
	feature int
	split   float64
	left    *isoNode
	right   *isoNode
	size    int // leaf only
}

func fitForest(matrix [][]float64, rng *rand.Rand) *isoForest {
	subsample := forestSubsample
	if subsample > len(matrix) {
		subsample = len(matrix)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(subsample) + 1)))

	forest := &isoForest{
		trees:     make([]*isoNode, forestTrees),
		subsample: subsample,
	}
	for t := 0; t < forestTrees; t++ {
		idx := rng.Perm(len(matrix))[:subsample]
		forest.trees[t] = buildTree(matrix, idx, 0, maxDepth, rng)
	}
	return forest
}

func buildTree(matrix [][]float64, idx []int, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if depth >= maxDepth || len(idx) <= 1 {
		return &isoNode{feature: -1, size: len(idx)}
	}

	features := len(matrix[0])
	feature := rng.Intn(features)

	lo, hi := matrix[idx[0]][feature], matrix[idx[0]][feature]
	for _, i := range idx[1:] {
		v := matrix[i][feature]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		// No split possible on this feature; isolate as a leaf.
		return &isoNode{feature: -1, size: len(idx)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var leftIdx, rightIdx []int
	for _, i := range idx {
		if matrix[i][feature] < split {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	return &isoNode{
		feature: feature,
		split:   split,
		left:    buildTree(matrix, leftIdx, depth+1, maxDepth, rng),
		right:   buildTree(matrix, rightIdx, depth+1, maxDepth, rng),
	}
}

// anomalyScore returns s(x) in (0, 1]: close to 1 for anomalies, around 0.5
// or below for normal points.
func (f *isoForest) anomalyScore(row []float64) float64 {
	total := 0.0
	for _, tree := range f.trees {
		total += pathLength(row, tree, 0)
	}
	avgPath := total / float64(len(f.trees))
	return math.Pow(2, -avgPath/averagePathLength(f.subsample))
}

func pathLength(row []float64, node *isoNode, depth int) float64 {
	if node.feature < 0 {
		return float64(depth) + averagePathLength(node.size)
	}
	if row[node.feature] < node.split {
		return pathLength(row, node.left, depth+1)
	}
	return pathLength(row, node.right, depth+1)
}

// averagePathLength is c(n), the expected path length of an unsuccessful
// search in a binary search tree of n points.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		harmonic := math.Log(fn-1) + eulerMascheroni
		return 2*harmonic - 2*(fn-1)/fn
	}
}
