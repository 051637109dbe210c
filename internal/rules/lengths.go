package rules

// LengthStats summarizes string lengths across a column's non-null values.
// Typical is the modal length; on ties the first mode in value order wins,
// which makes it implementation-defined rather than a stable contract.
type LengthStats struct {
	Min     int
	Max     int
	Typical int
}

// lengthStats returns nil when the column has no non-null values, in which
// case callers skip the length rule entirely.
func lengthStats(values []string) *LengthStats {
	if len(values) == 0 {
		return nil
	}

	counts := make(map[int]int)
	firstSeen := make(map[int]int)
	min, max := len(values[0]), len(values[0])
	for i, v := range values {
		n := len(v)
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
		counts[n]++
		if _, ok := firstSeen[n]; !ok {
			firstSeen[n] = i
		}
	}

	typical, bestCount := 0, -1
	for n, c := range counts {
		if c > bestCount || (c == bestCount && firstSeen[n] < firstSeen[typical]) {
			typical = n
			bestCount = c
		}
	}

	return &LengthStats{Min: min, Max: max, Typical: typical}
}
