package rules

import (
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"datalens/domain/profile"

	"github.com/montanaflynn/stats"
)

// Reference-derivation tuning. EnumThreshold is the overlap fraction above
// which the reference's distinct values are treated as the allowed-value
// enumeration for the target.
const (
	DefaultEnumThreshold = 0.95
	DefaultSampleSize    = 500

	enumListCap     = 200
	enumRuleMax     = 50
	enumSampleShown = 20
	regexSampleMax  = 100
)

var dateLikePattern = regexp.MustCompile(`\d{2,4}[-/]\d{1,2}[-/]\d{1,2}`)

// ReferenceGenerator derives rules for a target column by comparing it
// against a mapped column in a reference dataset. Each DeriveRules call
// builds its own seeded RNG, so a shared generator is safe for concurrent
// use and every derivation over the same inputs is reproducible.
type ReferenceGenerator struct {
	enumThreshold float64
	sampleSize    int
	seed          int64
}

// NewReferenceGenerator creates a generator with default thresholds and a
// fixed sampling seed.
func NewReferenceGenerator() *ReferenceGenerator {
	return NewReferenceGeneratorWithOptions(DefaultEnumThreshold, DefaultSampleSize, 42)
}

// NewReferenceGeneratorWithOptions creates a generator with explicit
// threshold, sample size and sampling seed.
func NewReferenceGeneratorWithOptions(enumThreshold float64, sampleSize int, seed int64) *ReferenceGenerator {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &ReferenceGenerator{enumThreshold: enumThreshold, sampleSize: sampleSize, seed: seed}
}

// DeriveRules compares target against reference and emits the ordered rule
// list: nullability cross-check, reference key check, enumeration inference,
// numeric ranges, induced pattern, distinct counts, target cardinality.
//
// Null counts are taken before dropping nulls. The system this derives from
// checked reference nulls on an already-dropped series, which made the
// "reference permits nulls" branch unreachable; checking pre-drop keeps all
// three nullability outcomes live.
func (g *ReferenceGenerator) DeriveRules(target, reference *profile.Column) profile.RuleSet {
	var out []profile.Rule
	add := func(format string, args ...interface{}) {
		out = append(out, profile.Rule(fmt.Sprintf(format, args...)))
	}

	if reference.NullCount() == 0 {
		if target.NullCount() == 0 {
			add("Nulls are NOT allowed (reference has no nulls).")
		} else {
			add("Nulls are present in this dataset but reference expects none.")
		}
	} else {
		add("Nulls allowed (reference permits nulls).")
	}

	t := target.NonNull()
	r := reference.NonNull()

	if reference.DistinctNonNull() == len(r) {
		add("Reference values are unique — consider as reference key.")
	}

	if len(r) > 0 && len(t) > 0 {
		tSet := distinctSet(t)
		rSet := distinctSet(r)

		overlap := 0
		for v := range tSet {
			if _, ok := rSet[v]; ok {
				overlap++
			}
		}
		denom := len(tSet)
		if denom == 0 {
			denom = 1
		}
		overlapFrac := float64(overlap) / float64(denom)

		switch {
		case overlapFrac >= g.enumThreshold:
			distinctRef := sortedValues(rSet)
			if len(distinctRef) > enumListCap {
				distinctRef = distinctRef[:enumListCap]
			}
			if len(distinctRef) <= enumRuleMax {
				add("Allowed values derived from reference (enumeration of %d values).", len(distinctRef))
				shown := distinctRef
				if len(shown) > enumSampleShown {
					shown = shown[:enumSampleShown]
				}
				add("Allowed values (sample): %s", strings.Join(shown, ", "))
			} else {
				add("Reference provides a large allowed list (%d values). Use lookup mapping.", len(distinctRef))
			}
			add("Fraction of target values present in reference: %.2f", overlapFrac)
		case overlapFrac > 0:
			add("%.2f fraction of target values match reference values (partial overlap).", overlapFrac)
		default:
			add("No meaningful overlap with reference values; reference may be different domain or mismatch.")
		}
	}

	if target.IsNumeric() && reference.IsNumeric() {
		if tn := target.Numbers(); len(tn) > 0 {
			min, _ := stats.Min(tn)
			max, _ := stats.Max(tn)
			add("Numeric range observed in target: min=%s, max=%s.", formatNumber(min), formatNumber(max))
		}
		if rn := reference.Numbers(); len(rn) > 0 {
			min, _ := stats.Min(rn)
			max, _ := stats.Max(rn)
			add("Reference numeric range: min=%s, max=%s.", formatNumber(min), formatNumber(max))
		}
	}

	// Pattern induction prefers the reference side; the target sample is the
	// fallback when the reference has nothing to sample.
	rng := rand.New(rand.NewSource(g.seed))
	sample := sampleValues(r, g.sampleSize, rng)
	if len(sample) == 0 {
		sample = sampleValues(t, g.sampleSize, rng)
	}
	if pattern := suggestRegex(sample); pattern != "" {
		add("Suggested pattern (regex): `%s`", pattern)
	}

	if len(r) > 0 {
		add("Reference distinct count: %d", reference.DistinctNonNull())
	}
	if len(t) > 0 {
		add("Target distinct count: %d", target.DistinctNonNull())
	}

	if target.DistinctNonNull() == len(t) {
		add("Values in this dataset are unique — candidate key.")
	} else {
		denom := target.Len()
		if denom == 0 {
			denom = 1
		}
		if float64(target.DistinctNonNull())/float64(denom) < lowCardinalityRatio {
			add("Low cardinality in target — likely categorical.")
		}
	}

	return profile.RuleSet{Column: target.Name, Rules: out}
}

// DeriveForMapping derives reference rules for every mapped target column,
// in target column order. Unmapped columns and mappings to columns missing
// on either side are skipped.
func (g *ReferenceGenerator) DeriveForMapping(target, reference *profile.Dataset, mapping profile.ReferenceMapping) []profile.RuleSet {
	var results []profile.RuleSet
	for i := range target.Columns {
		tgtCol := &target.Columns[i]
		refName, ok := mapping[tgtCol.Name]
		if !ok || refName == "" {
			continue
		}
		refCol, ok := reference.Column(refName)
		if !ok {
			continue
		}
		results = append(results, g.DeriveRules(tgtCol, refCol))
	}
	return results
}

// suggestRegex induces a simple regex from sample values: all-digits, then
// email-ish, then date-ish, then a length-bounded fallback. Returns "" when
// the sample is empty.
func suggestRegex(sample []string) string {
	if len(sample) > regexSampleMax {
		sample = sample[:regexSampleMax]
	}
	if len(sample) == 0 {
		return ""
	}

	allDigits, allEmail, allDate := true, true, true
	minLen, maxLen := len(sample[0]), len(sample[0])
	for _, s := range sample {
		if !numericOnlyPattern.MatchString(s) {
			allDigits = false
		}
		if !strings.Contains(s, "@") {
			allEmail = false
		}
		if !dateLikePattern.MatchString(s) {
			allDate = false
		}
		if len(s) < minLen {
			minLen = len(s)
		}
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}

	switch {
	case allDigits:
		return `^\d+$`
	case allEmail:
		return `^[\w\.-]+@[\w\.-]+\.\w{2,}$`
	case allDate:
		return `^\d{2,4}[-/]\d{1,2}[-/]\d{1,2}$`
	default:
		return fmt.Sprintf("^.{%d,%d}$", minLen, maxLen)
	}
}

func distinctSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func sortedValues(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func sampleValues(values []string, n int, rng *rand.Rand) []string {
	if len(values) <= n {
		return values
	}
	sample := make([]string, 0, n)
	for _, idx := range rng.Perm(len(values))[:n] {
		sample = append(sample, values[idx])
	}
	return sample
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
