package rules

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalens/domain/profile"
)

func TestDeriveRulesFullOverlapEnumeration(t *testing.T) {
	target := column("grade", profile.TypeText, "A", "B", "C")
	reference := column("grade", profile.TypeText, "A", "B", "C", "D", "E")

	rs := NewReferenceGenerator().DeriveRules(target, reference)

	assert.Equal(t, "grade", rs.Column)
	assert.Equal(t, []profile.Rule{
		"Nulls are NOT allowed (reference has no nulls).",
		"Reference values are unique — consider as reference key.",
		"Allowed values derived from reference (enumeration of 5 values).",
		"Allowed values (sample): A, B, C, D, E",
		"Fraction of target values present in reference: 1.00",
		"Suggested pattern (regex): `^.{1,1}$`",
		"Reference distinct count: 5",
		"Target distinct count: 3",
		"Values in this dataset are unique — candidate key.",
	}, rs.Rules)
}

func TestDeriveRulesConcurrentCallsMatchSequential(t *testing.T) {
	// Large enough that pattern induction has to sample, which is where
	// shared state would show up across goroutines.
	values := make([]string, 1200)
	for i := range values {
		values[i] = fmt.Sprintf("v%d", i)
	}
	target := column("code", profile.TypeText, values...)
	reference := column("code", profile.TypeText, values...)

	gen := NewReferenceGenerator()
	want := gen.DeriveRules(target, reference)

	const workers = 8
	results := make([]profile.RuleSet, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = gen.DeriveRules(target, reference)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, want, got, "concurrent call %d diverged", i)
	}
}

func TestDeriveRulesPartialOverlap(t *testing.T) {
	target := column("code", profile.TypeText, "A", "B", "X", "Y")
	reference := column("code", profile.TypeText, "A", "B")

	rs := NewReferenceGenerator().DeriveRules(target, reference)
	assert.Contains(t, rs.Rules,
		profile.Rule("0.50 fraction of target values match reference values (partial overlap)."))
}

func TestDeriveRulesNoOverlapNumericRanges(t *testing.T) {
	target := column("score", profile.TypeNumeric, "1", "5")
	reference := column("score", profile.TypeNumeric, "100", "200")

	rs := NewReferenceGenerator().DeriveRules(target, reference)

	assert.Contains(t, rs.Rules,
		profile.Rule("No meaningful overlap with reference values; reference may be different domain or mismatch."))
	assert.Contains(t, rs.Rules,
		profile.Rule("Numeric range observed in target: min=1, max=5."))
	assert.Contains(t, rs.Rules,
		profile.Rule("Reference numeric range: min=100, max=200."))
	assert.Contains(t, rs.Rules,
		profile.Rule("Suggested pattern (regex): `^\\d+$`"))
}

func TestDeriveRulesNullabilityCrossCheck(t *testing.T) {
	tests := []struct {
		name      string
		targetVal []string
		refVal    []string
		expected  profile.Rule
	}{
		{
			"target has nulls but reference forbids",
			[]string{"A", ""},
			[]string{"A", "B"},
			"Nulls are present in this dataset but reference expects none.",
		},
		{
			"reference permits nulls",
			[]string{"A"},
			[]string{"A", ""},
			"Nulls allowed (reference permits nulls).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := column("c", profile.TypeText, tt.targetVal...)
			reference := column("c", profile.TypeText, tt.refVal...)
			rs := NewReferenceGenerator().DeriveRules(target, reference)
			require.NotEmpty(t, rs.Rules)
			assert.Equal(t, tt.expected, rs.Rules[0])
		})
	}
}

func TestDeriveRulesLargeReferenceList(t *testing.T) {
	refValues := make([]string, 120)
	tgtValues := make([]string, 120)
	for i := range refValues {
		refValues[i] = "v" + string(rune('A'+i%26)) + string(rune('a'+i/26))
		tgtValues[i] = refValues[i]
	}
	target := column("c", profile.TypeText, tgtValues...)
	reference := column("c", profile.TypeText, refValues...)

	rs := NewReferenceGenerator().DeriveRules(target, reference)
	assert.Contains(t, rs.Rules,
		profile.Rule("Reference provides a large allowed list (120 values). Use lookup mapping."))
	assert.NotContains(t, rs.Rules,
		profile.Rule("Allowed values derived from reference (enumeration of 120 values)."))
}

func TestDeriveForMappingSkipsUnmapped(t *testing.T) {
	target := &profile.Dataset{Columns: []profile.Column{
		*column("id", profile.TypeText, "1", "2"),
		*column("grade", profile.TypeText, "A", "B"),
	}}
	reference := &profile.Dataset{Columns: []profile.Column{
		*column("ref_grade", profile.TypeText, "A", "B", "C"),
	}}

	mapping := profile.ReferenceMapping{
		"grade":   "ref_grade",
		"id":      "",
		"missing": "ref_grade",
	}

	results := NewReferenceGenerator().DeriveForMapping(target, reference, mapping)
	require.Len(t, results, 1)
	assert.Equal(t, "grade", results[0].Column)
}

func TestSuggestRegex(t *testing.T) {
	tests := []struct {
		name     string
		sample   []string
		expected string
	}{
		{"digits", []string{"123", "456"}, `^\d+$`},
		{"emails", []string{"a@b.com", "c@d.org"}, `^[\w\.-]+@[\w\.-]+\.\w{2,}$`},
		{"dates", []string{"2024-01-02", "2023/11/30"}, `^\d{2,4}[-/]\d{1,2}[-/]\d{1,2}$`},
		{"fallback lengths", []string{"ab", "cdef"}, "^.{2,4}$"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, suggestRegex(tt.sample))
		})
	}
}
