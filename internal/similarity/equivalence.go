// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import "strings"

// IsEquivalent reports whether two diagnosis strings denote the same
// condition at the given strictness. It is true when the normalized forms
// are identical, when one contains the other with a length ratio above
// threshold, or when Jaccard overlap exceeds threshold. Empty input is
// never equivalent to anything.
//
// Callers use two regimes through this single predicate: a strict one
// (~0.85-0.95) to reject same-diagnosis pairs and a looser one
// (~0.70-0.80) to reject excessively overlapping content.
func IsEquivalent(a, b string, threshold float64) bool {
	if a == "" || b == "" {
		return false
	}

	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	if containsWithRatio(na, nb, threshold) {
		return true
	}

	return Jaccard(a, b) > threshold
}

// SameDiagnosis reports whether the primary predicted and ground-truth
// diagnoses of a case are effectively the same label: exact match after
// normalization, or substring containment with a length ratio above 0.8.
// This is the case-level distinctness check; pair-level filtering uses
// IsEquivalent with configurable thresholds.
func SameDiagnosis(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	da := strings.ToLower(strings.TrimSpace(a))
	db := strings.ToLower(strings.TrimSpace(b))
	if da == db {
		return true
	}

	na, nb := Normalize(a), Normalize(b)
	if na != "" && na == nb {
		return true
	}

	return containsWithRatio(da, db, 0.8)
}

// Overlaps reports whether two diagnoses share too much content to make a
// useful review pair: token overlap above threshold, or the smaller token
// set almost entirely covered by the larger one.
func Overlaps(a, b string, threshold float64) bool {
	if Jaccard(a, b) > threshold {
		return true
	}
	return ContainmentRatio(a, b) > threshold
}

// containsWithRatio reports substring containment where the shorter
// string is at least ratio times the length of the longer one.
func containsWithRatio(a, b string, ratio float64) bool {
	if !strings.Contains(a, b) && !strings.Contains(b, a) {
		return false
	}
	shorter, longer := len(a), len(b)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	if longer == 0 {
		return false
	}
	return float64(shorter)/float64(longer) > ratio
}
