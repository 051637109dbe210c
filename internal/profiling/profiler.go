// Package profiling implements the column and dataset profiling engine:
// structural pattern detection, IQR outlier detection, an isolation-forest
// row anomaly ensemble and Pearson correlation across numeric columns.
//
// Every profiling call is a pure function of its input dataset and produces a
// fresh artifact; the engine keeps no state between calls and never mutates
// the dataset.
package profiling

import (
	"context"
	"log"
	"math"
	"math/rand"

	"datalens/domain/core"
	"datalens/domain/profile"

	"gonum.org/v1/gonum/stat"
)

// Engine profiles datasets. Sampling (pattern detection) is driven by a
// seeded RNG so repeated runs over the same dataset are reproducible.
type Engine struct {
	sampleSize int
	seed       int64
}

// DefaultSampleSize caps how many values the pattern detector inspects.
const DefaultSampleSize = 500

// NewEngine creates an engine with the default sample size and a fixed seed.
func NewEngine() *Engine {
	return NewEngineWithOptions(DefaultSampleSize, forestSeed)
}

// NewEngineWithOptions creates an engine with explicit sampling parameters.
func NewEngineWithOptions(sampleSize int, seed int64) *Engine {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Engine{sampleSize: sampleSize, seed: seed}
}

// ProfileDataset runs the column profiler across all columns in dataset
// order, then adds the cross-column correlation matrix and row anomaly
// scores. The returned artifact is immutable once returned.
func (e *Engine) ProfileDataset(ctx context.Context, ds *profile.Dataset) (*profile.DatasetProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(e.seed))

	result := &profile.DatasetProfile{
		ID:        core.ProfileID(core.NewID()),
		Columns:   make([]profile.ColumnProfile, 0, len(ds.Columns)),
		Insights:  []string{},
		CreatedAt: core.Now(),
	}

	totalNulls, totalDistinct := 0, 0
	for i := range ds.Columns {
		colProfile, insights := profileColumn(&ds.Columns[i], rng, e.sampleSize)
		result.Columns = append(result.Columns, colProfile)
		result.Insights = append(result.Insights, insights...)
		totalNulls += colProfile.NullCount
		totalDistinct += colProfile.DistinctCount
	}

	result.Shape = profile.Shape{
		Rows:          ds.Rows(),
		Columns:       len(ds.Columns),
		TotalNulls:    totalNulls,
		TotalDistinct: totalDistinct,
	}

	result.Correlations = correlationMatrix(ds)
	result.AnomalyScores = RowAnomalyScores(ds)

	log.Printf("[Profiler] Profiled dataset %q (%d columns, %d rows, %d insights)",
		ds.Name, result.Shape.Columns, result.Shape.Rows, len(result.Insights))
	return result, nil
}

// correlationMatrix computes the pairwise Pearson matrix over numeric
// columns, rounded to 3 decimals. Requires at least two numeric columns.
// Each pair is correlated over only the rows where both cells are numeric;
// pairs with fewer than two complete rows come back NaN, which serializes
// as null.
func correlationMatrix(ds *profile.Dataset) *profile.CorrelationMatrix {
	cols := ds.NumericColumns()
	if len(cols) < 2 {
		return nil
	}
	rows := ds.Rows()

	values := make([][]float64, len(cols))
	valid := make([][]bool, len(cols))
	for j, col := range cols {
		values[j] = make([]float64, rows)
		valid[j] = make([]bool, rows)
		for i := 0; i < rows && i < col.Len(); i++ {
			if v, ok := col.Cells[i].Number(); ok {
				values[j][i] = v
				valid[j][i] = true
			}
		}
	}

	matrix := &profile.CorrelationMatrix{
		Keys:   make([]string, len(cols)),
		Values: make([][]profile.JSONFloat, len(cols)),
	}
	for j, col := range cols {
		matrix.Keys[j] = col.Name
	}
	for a := range values {
		matrix.Values[a] = make([]profile.JSONFloat, len(cols))
		for b := range values {
			if a == b {
				matrix.Values[a][b] = 1
				continue
			}
			r := pairwiseCorrelation(values[a], valid[a], values[b], valid[b])
			matrix.Values[a][b] = profile.JSONFloat(round3(r))
		}
	}
	return matrix
}

// pairwiseCorrelation drops rows where either side is missing before
// computing Pearson correlation.
func pairwiseCorrelation(xs []float64, xok []bool, ys []float64, yok []bool) float64 {
	var px, py []float64
	for i := range xs {
		if xok[i] && yok[i] {
			px = append(px, xs[i])
			py = append(py, ys[i])
		}
	}
	if len(px) < 2 {
		return math.NaN()
	}
	return stat.Correlation(px, py, nil)
}

func round3(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*1000) / 1000
}
