package tabular

import (
	"regexp"
	"strconv"
	"strings"

	"datalens/domain/profile"
)

var temporalPattern = regexp.MustCompile(`^\d{2,4}[-/]\d{1,2}[-/]\d{1,2}([ T].*)?$`)

var booleanTokens = map[string]struct{}{
	"true": {}, "false": {},
	"yes": {}, "no": {},
	"t": {}, "f": {},
}

// InferType assigns the logical type for a column from its non-null values.
// Every non-null value must fit the candidate type; a single mismatch
// demotes the column to text. Columns with no non-null values are unknown.
func InferType(col *profile.Column) profile.ValueType {
	values := col.NonNull()
	if len(values) == 0 {
		return profile.TypeUnknown
	}

	numeric, boolean, temporal := true, true, true
	for _, v := range values {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			numeric = false
		}
		if _, ok := booleanTokens[strings.ToLower(v)]; !ok {
			boolean = false
		}
		if !temporalPattern.MatchString(v) {
			temporal = false
		}
		if !numeric && !boolean && !temporal {
			return profile.TypeText
		}
	}

	switch {
	case boolean:
		return profile.TypeBoolean
	case numeric:
		return profile.TypeNumeric
	case temporal:
		return profile.TypeTemporal
	default:
		return profile.TypeText
	}
}
