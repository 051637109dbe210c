package profiling

import (
	"math/rand"
	"testing"

	"datalens/domain/profile"
)

func textColumn(name string, values ...string) *profile.Column {
	col := &profile.Column{Name: name, Type: profile.TypeText}
	for _, v := range values {
		if v == "" {
			col.Cells = append(col.Cells, profile.NullCell())
		} else {
			col.Cells = append(col.Cells, profile.TextCell(v))
		}
	}
	return col
}

func numericColumn(name string, values ...float64) *profile.Column {
	col := &profile.Column{Name: name, Type: profile.TypeNumeric}
	for _, v := range values {
		col.Cells = append(col.Cells, profile.NumberCell(v))
	}
	return col
}

func TestDetectPattern(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		expected string
	}{
		{"all digits", []string{"123", "456", "789"}, "numeric"},
		{"all alpha", []string{"hello", "world"}, "alpha"},
		{"emails", []string{"a@b.com", "x@y.org"}, "email-like"},
		{"dates", []string{"2024-01-02", "2023/12/31"}, "date-like"},
		{"digits and alpha", []string{"123", "abc"}, "alpha, numeric"},
		{"nothing matches", []string{"!!!", "###"}, "mixed"},
		{"all nulls", []string{"", ""}, "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			col := textColumn("col", tt.values...)
			got := DetectPattern(col, rng, DefaultSampleSize)
			if got != tt.expected {
				t.Errorf("DetectPattern(%v) = %q, want %q", tt.values, got, tt.expected)
			}
		})
	}
}

func TestDetectPatternSamplingIsSeeded(t *testing.T) {
	values := make([]string, 1000)
	for i := range values {
		if i%2 == 0 {
			values[i] = "123"
		} else {
			values[i] = "abc"
		}
	}
	col := textColumn("col", values...)

	first := DetectPattern(col, rand.New(rand.NewSource(7)), 10)
	second := DetectPattern(col, rand.New(rand.NewSource(7)), 10)
	if first != second {
		t.Errorf("same seed produced different patterns: %q vs %q", first, second)
	}
}
