package profiling

import (
	"math"
	"sort"

	"datalens/domain/profile"
)

// ComputeOutliers applies the IQR policy to a column: coerce to numeric, drop
// everything non-coercible, then count values strictly outside
// [Q1 - 1.5*IQR, Q3 + 1.5*IQR] with linearly interpolated quartiles.
// A column with zero coercible values yields {method: "none", count: 0}.
func ComputeOutliers(col *profile.Column) profile.OutlierSummary {
	nums := col.Numbers()
	if len(nums) == 0 {
		return profile.OutlierSummary{Method: profile.MethodNone}
	}

	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	count := 0
	for _, v := range nums {
		if v < lower || v > upper {
			count++
		}
	}

	return profile.OutlierSummary{
		Method: profile.MethodIQR,
		Count:  count,
		Lower:  &lower,
		Upper:  &upper,
	}
}

// quantile computes the type-7 quantile of ascending-sorted values: the
// value at fractional index p*(n-1), linearly interpolated between the two
// surrounding samples.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
