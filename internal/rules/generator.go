// Package rules derives human-readable "profile-based logic" validation
// rules from column statistics, either from a single dataset or by comparing
// a target column against a mapped reference column. Rules are advisory
// documentation for display; nothing ever executes them.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"datalens/domain/profile"
)

const (
	// charClassThreshold is the fraction of values that must fully match a
	// character class before the column is treated as that class.
	charClassThreshold = 0.98

	// lowCardinalityRatio mirrors the profiler's categorical heuristic.
	lowCardinalityRatio = 0.02

	// formatSampleLimit caps how many leading values the format hints
	// (email, phone) inspect.
	formatSampleLimit = 50
)

var (
	numericOnlyPattern = regexp.MustCompile(`^\d+$`)
	alphaOnlyPattern   = regexp.MustCompile(`^[A-Za-z ]+$`)
	phoneLikePattern   = regexp.MustCompile(`^\+?\d[\d\-\s]{6,}$`)
)

// Generator derives rules for one column from its own statistics alone.
type Generator struct{}

// NewGenerator creates a single-dataset rule generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateRules emits the ordered rule list for a column: nullability first,
// then character class and format hints, then length bounds, then
// cardinality and uniqueness.
func (g *Generator) GenerateRules(col *profile.Column) profile.RuleSet {
	var out []profile.Rule
	add := func(format string, args ...interface{}) {
		out = append(out, profile.Rule(fmt.Sprintf(format, args...)))
	}

	if col.NullCount() == 0 {
		add("Nulls are NOT allowed.")
	} else {
		add("Nulls are allowed.")
	}

	values := col.NonNull()
	switch {
	case matchFraction(values, numericOnlyPattern) >= charClassThreshold:
		add("Only numeric characters allowed.")
		if lengths := lengthStats(values); lengths != nil {
			add("Character length between %d and %d.", lengths.Min, lengths.Max)
		}
		add("No special characters or alphabets allowed.")

	case matchFraction(values, alphaOnlyPattern) >= charClassThreshold:
		add("Alphabetic characters allowed only.")

	default:
		sample := values
		if len(sample) > formatSampleLimit {
			sample = sample[:formatSampleLimit]
		}
		if anyContains(sample, "@") {
			add("Email format expected (contains '@').")
		}
		if anyMatches(sample, phoneLikePattern) {
			add("Phone number like pattern detected.")
		}
		if lengths := lengthStats(values); lengths != nil {
			add("Recommended character length between %d and %d.", lengths.Min, lengths.Max)
		}
		add("Avoid special characters unless required (/, -, : etc).")
	}

	distinct := col.DistinctNonNull()
	if distinct == len(values) {
		add("Values are unique — consider as candidate key.")
	} else {
		denom := col.Len()
		if denom == 0 {
			denom = 1
		}
		if float64(distinct)/float64(denom) < lowCardinalityRatio {
			add("Low cardinality — likely categorical; map to lookup table or enumerations.")
		}
	}

	return profile.RuleSet{Column: col.Name, Rules: out}
}

// matchFraction returns the fraction of values fully matching the pattern,
// or 0 for an empty slice so empty columns never claim a character class.
func matchFraction(values []string, pattern *regexp.Regexp) float64 {
	if len(values) == 0 {
		return 0
	}
	matched := 0
	for _, v := range values {
		if pattern.MatchString(v) {
			matched++
		}
	}
	return float64(matched) / float64(len(values))
}

func anyContains(values []string, substr string) bool {
	for _, v := range values {
		if strings.Contains(v, substr) {
			return true
		}
	}
	return false
}

func anyMatches(values []string, pattern *regexp.Regexp) bool {
	for _, v := range values {
		if pattern.MatchString(v) {
			return true
		}
	}
	return false
}
