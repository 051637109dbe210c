package profile

import (
	"strconv"

	"datalens/domain/core"
)

// ValueType is the closed set of logical column types, decided once when a
// dataset is loaded. The profiling engine never re-infers types per access.
type ValueType string

const (
	TypeNumeric  ValueType = "numeric"
	TypeText     ValueType = "text"
	TypeBoolean  ValueType = "boolean"
	TypeTemporal ValueType = "temporal"
	TypeUnknown  ValueType = "unknown"
)

// Cell is a single parsed value. Raw holds the stringified form; Null marks a
// missing cell (Raw is empty in that case).
type Cell struct {
	Raw  string `json:"raw"`
	Null bool   `json:"null,omitempty"`
}

// NullCell returns a missing cell.
func NullCell() Cell {
	return Cell{Null: true}
}

// TextCell returns a non-null cell holding s.
func TextCell(s string) Cell {
	return Cell{Raw: s}
}

// NumberCell returns a non-null cell holding the shortest string form of v.
func NumberCell(v float64) Cell {
	return Cell{Raw: strconv.FormatFloat(v, 'g', -1, 64)}
}

// Number coerces the cell to a float64. The second return is false for null
// cells and for values that do not parse as a number.
func (c Cell) Number() (float64, bool) {
	if c.Null {
		return 0, false
	}
	v, err := strconv.ParseFloat(c.Raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Column is an ordered sequence of cells sharing one logical type.
type Column struct {
	Name  string    `json:"name"`
	Type  ValueType `json:"type"`
	Cells []Cell    `json:"cells"`
}

// Len returns the total cell count, nulls included.
func (c *Column) Len() int {
	return len(c.Cells)
}

// NullCount returns the number of missing cells.
func (c *Column) NullCount() int {
	n := 0
	for _, cell := range c.Cells {
		if cell.Null {
			n++
		}
	}
	return n
}

// NonNull returns the stringified non-null values in column order.
func (c *Column) NonNull() []string {
	out := make([]string, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if !cell.Null {
			out = append(out, cell.Raw)
		}
	}
	return out
}

// Numbers returns the numeric-coercible values in column order. Non-coercible
// and missing cells are dropped, never reported as errors.
func (c *Column) Numbers() []float64 {
	out := make([]float64, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if v, ok := cell.Number(); ok {
			out = append(out, v)
		}
	}
	return out
}

// DistinctNonNull counts distinct stringified non-null values.
func (c *Column) DistinctNonNull() int {
	seen := make(map[string]struct{})
	for _, cell := range c.Cells {
		if !cell.Null {
			seen[cell.Raw] = struct{}{}
		}
	}
	return len(seen)
}

// SampleValues returns up to limit non-null stringified values, in order.
func (c *Column) SampleValues(limit int) []string {
	out := make([]string, 0, limit)
	for _, cell := range c.Cells {
		if cell.Null {
			continue
		}
		out = append(out, cell.Raw)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// IsNumeric reports whether the column carries the numeric type tag.
func (c *Column) IsNumeric() bool {
	return c.Type == TypeNumeric
}

// Dataset is an ordered sequence of named columns. The profiling engine only
// reads it; ownership stays with the caller.
type Dataset struct {
	ID      core.DatasetID `json:"id,omitempty"`
	Name    string         `json:"name,omitempty"`
	Columns []Column       `json:"columns"`
}

// Rows returns the row count (the length of the longest column).
func (d *Dataset) Rows() int {
	rows := 0
	for i := range d.Columns {
		if n := d.Columns[i].Len(); n > rows {
			rows = n
		}
	}
	return rows
}

// ColumnNames returns column names in dataset order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i := range d.Columns {
		names[i] = d.Columns[i].Name
	}
	return names
}

// Column returns the named column, or false when absent.
func (d *Dataset) Column(name string) (*Column, bool) {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i], true
		}
	}
	return nil, false
}

// NumericColumns returns the columns tagged numeric, in dataset order.
func (d *Dataset) NumericColumns() []*Column {
	var cols []*Column
	for i := range d.Columns {
		if d.Columns[i].IsNumeric() {
			cols = append(cols, &d.Columns[i])
		}
	}
	return cols
}
