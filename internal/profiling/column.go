package profiling

import (
	"fmt"
	"math"
	"math/rand"

	"datalens/domain/profile"

	"github.com/montanaflynn/stats"
)

const sampleValueLimit = 5

// lowCardinalityRatio flags columns whose distinct/count ratio suggests a
// categorical variable.
const lowCardinalityRatio = 0.02

// profileColumn aggregates dtype, counts, samples, pattern classification,
// numeric descriptive statistics and outlier results for one column, plus any
// natural-language insights the column produced.
func profileColumn(col *profile.Column, rng *rand.Rand, sampleSize int) (profile.ColumnProfile, []string) {
	prof := profile.ColumnProfile{
		Name:          col.Name,
		DType:         col.Type,
		Count:         col.Len(),
		NullCount:     col.NullCount(),
		DistinctCount: col.DistinctNonNull(),
		SampleValues:  col.SampleValues(sampleValueLimit),
		Pattern:       DetectPattern(col, rng, sampleSize),
	}

	var insights []string
	if col.IsNumeric() {
		nums := col.Numbers()
		if len(nums) > 0 {
			min, _ := stats.Min(nums)
			max, _ := stats.Max(nums)
			mean, _ := stats.Mean(nums)
			median, _ := stats.Median(nums)
			prof.Min = &min
			prof.Max = &max
			prof.Mean = &mean
			prof.Median = &median
			if len(nums) >= 2 {
				if std, err := stats.StandardDeviationSample(nums); err == nil {
					s := profile.JSONFloat(std)
					prof.StdDev = &s
				}
			} else {
				// Sample standard deviation of one value is undefined;
				// carried as NaN so it serializes as an explicit null.
				nan := profile.JSONFloat(math.NaN())
				prof.StdDev = &nan
			}
		}
		outliers := ComputeOutliers(col)
		prof.Outliers = &outliers
		if outliers.Count > 0 {
			insights = append(insights,
				fmt.Sprintf("Column '%s' has %d potential outliers (IQR).", col.Name, outliers.Count))
		}
	} else {
		if prof.NullCount > 0 {
			insights = append(insights,
				fmt.Sprintf("Column '%s' has %d nulls.", col.Name, prof.NullCount))
		}
		denom := prof.Count
		if denom == 0 {
			denom = 1
		}
		if float64(prof.DistinctCount)/float64(denom) < lowCardinalityRatio {
			insights = append(insights,
				fmt.Sprintf("Column '%s' appears low-cardinality (%d unique). may be categorical.", col.Name, prof.DistinctCount))
		}
	}

	return prof, insights
}
