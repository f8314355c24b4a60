package matching

import "strings"

// TierFunc reports whether a donor location counts as local to a request's
// hospital location. It is pluggable so the coarse string comparison can be
// replaced by geocoded distance without touching the matcher's contract.
type TierFunc func(donorLocation, hospitalLocation string) bool

// SameLocality is the default tiering policy: case-insensitive,
// whitespace-normalized equality or substring containment, so "Mumbai" and
// "mumbai central" land in the same tier.
func SameLocality(donorLocation, hospitalLocation string) bool {
	a := normalizeLocation(donorLocation)
	b := normalizeLocation(hospitalLocation)
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

func normalizeLocation(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
