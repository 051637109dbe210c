package profiling

import (
	"testing"

	"datalens/domain/profile"
)

func TestComputeOutliersFlagsExtremeValue(t *testing.T) {
	col := numericColumn("x", 10, 12, 11, 13, 12, 11, 10, 12, 100)

	summary := ComputeOutliers(col)
	if summary.Method != profile.MethodIQR {
		t.Fatalf("expected IQR method, got %q", summary.Method)
	}
	if summary.Count != 1 {
		t.Errorf("expected 1 outlier, got %d", summary.Count)
	}
	if summary.Lower == nil || summary.Upper == nil {
		t.Fatal("expected both bounds to be set")
	}
	if *summary.Upper >= 100 {
		t.Errorf("upper bound %v should exclude the planted value 100", *summary.Upper)
	}
}

func TestComputeOutliersInterpolatedQuartiles(t *testing.T) {
	// Quartiles interpolate at fractional index p*(n-1), so for five values
	// q1 is the second value and q3 the fourth. Bounds follow exactly.
	col := numericColumn("x", 1, 2, 3, 4, 100)

	summary := ComputeOutliers(col)
	if summary.Lower == nil || summary.Upper == nil {
		t.Fatal("expected both bounds to be set")
	}
	if *summary.Lower != -1 {
		t.Errorf("lower bound = %v, want -1", *summary.Lower)
	}
	if *summary.Upper != 7 {
		t.Errorf("upper bound = %v, want 7", *summary.Upper)
	}
	if summary.Count != 1 {
		t.Errorf("expected 1 outlier, got %d", summary.Count)
	}
}

func TestComputeOutliersNoExtremes(t *testing.T) {
	col := numericColumn("x", 5, 6, 7, 8, 9)

	summary := ComputeOutliers(col)
	if summary.Method != profile.MethodIQR {
		t.Fatalf("expected IQR method, got %q", summary.Method)
	}
	if summary.Count != 0 {
		t.Errorf("expected no outliers, got %d", summary.Count)
	}
}

func TestComputeOutliersNonCoercibleColumn(t *testing.T) {
	col := textColumn("x", "apple", "banana", "")

	summary := ComputeOutliers(col)
	if summary.Method != profile.MethodNone {
		t.Errorf("expected method none, got %q", summary.Method)
	}
	if summary.Count != 0 {
		t.Errorf("expected count 0, got %d", summary.Count)
	}
	if summary.Lower != nil || summary.Upper != nil {
		t.Error("expected no bounds for non-coercible column")
	}
}
