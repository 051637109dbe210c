package profile

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestJSONFloatNonFiniteMarshalsAsNull(t *testing.T) {
	tests := []struct {
		name     string
		value    JSONFloat
		expected string
	}{
		{"finite", JSONFloat(0.5), "0.5"},
		{"nan", JSONFloat(math.NaN()), "null"},
		{"positive infinity", JSONFloat(math.Inf(1)), "null"},
		{"negative infinity", JSONFloat(math.Inf(-1)), "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(data) != tt.expected {
				t.Errorf("Marshal(%v) = %s, want %s", float64(tt.value), data, tt.expected)
			}
		})
	}
}

func TestCorrelationMatrixAt(t *testing.T) {
	m := &CorrelationMatrix{
		Keys: []string{"a", "b"},
		Values: [][]JSONFloat{
			{1, -0.5},
			{-0.5, 1},
		},
	}

	if v, ok := m.At("a", "b"); !ok || v != -0.5 {
		t.Errorf("At(a, b) = %v, %v; want -0.5, true", v, ok)
	}
	if _, ok := m.At("a", "missing"); ok {
		t.Error("At with unknown key should report false")
	}
}

func TestExportJSONContainsColumnsOnly(t *testing.T) {
	p := &DatasetProfile{
		Columns: []ColumnProfile{
			{Name: "age", DType: TypeNumeric, Count: 3},
		},
	}

	data, err := p.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"name": "age"`) {
		t.Errorf("export missing column record: %s", out)
	}
	if strings.Contains(out, "shape") {
		t.Errorf("export should not include dataset shape: %s", out)
	}
}

func TestColumnNumberCoercion(t *testing.T) {
	col := Column{
		Name: "x",
		Cells: []Cell{
			TextCell("1.5"),
			TextCell("oops"),
			NullCell(),
			NumberCell(2),
		},
	}

	nums := col.Numbers()
	if len(nums) != 2 || nums[0] != 1.5 || nums[1] != 2 {
		t.Errorf("Numbers() = %v, want [1.5 2]", nums)
	}
	if col.NullCount() != 1 {
		t.Errorf("NullCount() = %d, want 1", col.NullCount())
	}
	if col.DistinctNonNull() != 3 {
		t.Errorf("DistinctNonNull() = %d, want 3", col.DistinctNonNull())
	}
}
