package profile

import (
	"encoding/json"
	"math"

	"datalens/domain/core"
)

// JSONFloat is a float64 that serializes non-finite values as JSON null.
type JSONFloat float64

func (f JSONFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// OutlierMethod names the detection policy applied to a column.
type OutlierMethod string

const (
	MethodNone OutlierMethod = "none"
	MethodIQR  OutlierMethod = "IQR"
)

// OutlierSummary describes the per-column outlier result. Lower and Upper are
// present only for MethodIQR.
type OutlierSummary struct {
	Method OutlierMethod `json:"method"`
	Count  int           `json:"count"`
	Lower  *float64      `json:"lower,omitempty"`
	Upper  *float64      `json:"upper,omitempty"`
}

// ColumnProfile is the per-column profiling record. Numeric descriptive stats
// are nil for non-numeric columns and for numeric columns with zero coercible
// values. StdDev uses JSONFloat because a single-value column has a NaN
// sample standard deviation, which must serialize as an explicit null.
type ColumnProfile struct {
	Name          string          `json:"name"`
	DType         ValueType       `json:"dtype"`
	Count         int             `json:"count"`
	NullCount     int             `json:"nulls"`
	DistinctCount int             `json:"distinct"`
	SampleValues  []string        `json:"sample_values"`
	Pattern       string          `json:"pattern"`
	Min           *float64        `json:"min,omitempty"`
	Max           *float64        `json:"max,omitempty"`
	Mean          *float64        `json:"mean,omitempty"`
	Median        *float64        `json:"median,omitempty"`
	StdDev        *JSONFloat      `json:"std,omitempty"`
	Outliers      *OutlierSummary `json:"outliers,omitempty"`
}

// NonNullCount returns count minus nulls.
func (p *ColumnProfile) NonNullCount() int {
	return p.Count - p.NullCount
}

// Shape holds whole-dataset overview metrics.
type Shape struct {
	Rows          int `json:"rows"`
	Columns       int `json:"columns"`
	TotalNulls    int `json:"total_nulls"`
	TotalDistinct int `json:"total_distinct"`
}

// CorrelationMatrix is a square Pearson matrix over the numeric columns,
// values rounded to 3 decimals. Keys gives row/column order.
type CorrelationMatrix struct {
	Keys   []string      `json:"keys"`
	Values [][]JSONFloat `json:"values"`
}

// At returns the correlation between two named columns.
func (m *CorrelationMatrix) At(a, b string) (float64, bool) {
	ai, bi := -1, -1
	for i, k := range m.Keys {
		if k == a {
			ai = i
		}
		if k == b {
			bi = i
		}
	}
	if ai < 0 || bi < 0 {
		return 0, false
	}
	return float64(m.Values[ai][bi]), true
}

// DatasetProfile is the single profiling artifact consumed downstream. It is
// created fresh per profiling call and read-only afterward.
type DatasetProfile struct {
	ID            core.ProfileID     `json:"id"`
	Shape         Shape              `json:"shape"`
	Columns       []ColumnProfile    `json:"columns_overview"`
	Correlations  *CorrelationMatrix `json:"correlations,omitempty"`
	AnomalyScores []float64          `json:"anomaly_scores,omitempty"`
	Insights      []string           `json:"top_insights"`
	CreatedAt     core.Timestamp     `json:"created_at"`
}

// ColumnProfileByName returns the profile of the named column.
func (p *DatasetProfile) ColumnProfileByName(name string) (*ColumnProfile, bool) {
	for i := range p.Columns {
		if p.Columns[i].Name == name {
			return &p.Columns[i], true
		}
	}
	return nil, false
}

// ExportJSON serializes the columns overview as indented JSON for export.
func (p *DatasetProfile) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(p.Columns, "", "  ")
}

// Rule is one human-readable validation constraint. Rules are generated
// guidance for display, never executed as validators.
type Rule string

// RuleSet is the ordered rule list for one column. Order reflects detection
// priority: nullability first, then character class and format, then length,
// then cardinality.
type RuleSet struct {
	Column string `json:"column"`
	Rules  []Rule `json:"rules"`
}

// ReferenceMapping maps target column names to reference column names. An
// empty or absent value means the target column has no comparison.
type ReferenceMapping map[string]string
