package profiling

import (
	"math/rand"
	"regexp"
	"sort"
	"strings"

	"datalens/domain/profile"
)

// Structural categories assigned by the pattern detector. Categories are
// independent: one value can contribute to several of them.
const (
	PatternEmpty = "empty"
	PatternMixed = "mixed"
)

var (
	numericPattern  = regexp.MustCompile(`^\d+$`)
	alphaPattern    = regexp.MustCompile(`^[A-Za-z ]+$`)
	dateLikePattern = regexp.MustCompile(`\d{2,4}[-/]\d{1,2}[-/]\d{1,2}`)
)

// DetectPattern classifies a column's values into structural categories by
// scanning a random sample of up to sampleSize values. The result is the
// category set joined by ", " in lexicographic order, "empty" for a column
// with no non-null values, and "mixed" when nothing in the sample matched.
//
// Sampling makes repeated calls on the same data nondeterministic unless the
// caller supplies an rng with a fixed seed.
func DetectPattern(col *profile.Column, rng *rand.Rand, sampleSize int) string {
	values := col.NonNull()
	if len(values) == 0 {
		return PatternEmpty
	}

	sample := sampleStrings(values, sampleSize, rng)

	categories := make(map[string]struct{})
	for _, v := range sample {
		if numericPattern.MatchString(v) {
			categories["numeric"] = struct{}{}
		}
		if alphaPattern.MatchString(v) {
			categories["alpha"] = struct{}{}
		}
		if strings.Contains(v, "@") {
			categories["email-like"] = struct{}{}
		}
		if dateLikePattern.MatchString(v) {
			categories["date-like"] = struct{}{}
		}
	}

	if len(categories) == 0 {
		return PatternMixed
	}

	labels := make([]string, 0, len(categories))
	for c := range categories {
		labels = append(labels, c)
	}
	sort.Strings(labels)
	return strings.Join(labels, ", ")
}

// sampleStrings draws n values without replacement, or the whole slice when
// it is smaller than n.
func sampleStrings(values []string, n int, rng *rand.Rand) []string {
	if len(values) <= n {
		return values
	}
	sample := make([]string, 0, n)
	for _, idx := range rng.Perm(len(values))[:n] {
		sample = append(sample, values[idx])
	}
	return sample
}
