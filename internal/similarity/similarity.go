// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity scores and classifies diagnosis strings. All
// comparisons go through Normalize, so callers never worry about case,
// punctuation, or whitespace variants of the same label.
package similarity

import (
	"strings"
	"unicode"

	"github.com/pdiddy/case-curator/pkg/types"
)

// Normalize lowercases s, strips every non-word, non-space character, and
// collapses whitespace runs to single spaces. Empty input yields "".
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens returns the set of normalized whitespace-separated tokens of s.
func Tokens(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range strings.Fields(Normalize(s)) {
		tokens[t] = true
	}
	return tokens
}

// Jaccard returns the token-overlap similarity of two diagnosis strings:
// |intersection| / |union| over their normalized token sets. Two empty
// token sets score 0.0, not NaN.
func Jaccard(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 0.0
	}

	intersection := 0
	for t := range ta {
		if tb[t] {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// ContainmentRatio returns the fraction of the smaller token set covered
// by the larger one. Unlike Jaccard it flags "dermatitis" inside
// "allergic contact dermatitis" as full containment.
func ContainmentRatio(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	small, large := ta, tb
	if len(tb) < len(ta) {
		small, large = tb, ta
	}
	covered := 0
	for t := range small {
		if large[t] {
			covered++
		}
	}
	return float64(covered) / float64(len(small))
}

// MatrixLookup returns matrix[i][j] when the matrix is present and both
// indices are in range. The second return value reports availability;
// a false means the caller should fall back to the lexical scorer.
// Ragged or undersized matrices are expected, never an error.
func MatrixLookup(matrix types.SimilarityMatrix, i, j int) (float64, bool) {
	if len(matrix) == 0 || i < 0 || j < 0 || i >= len(matrix) {
		return 0, false
	}
	row := matrix[i]
	if j >= len(row) {
		return 0, false
	}
	return row[j], true
}

// Score returns the similarity of predicted[i] and truth[j], preferring
// the model-supplied matrix entry over lexical overlap. Upstream model
// scores are treated as higher fidelity than Jaccard, so the ordering
// matters.
func Score(matrix types.SimilarityMatrix, i, j int, predicted, truth string) float64 {
	if s, ok := MatrixLookup(matrix, i, j); ok {
		return s
	}
	return Jaccard(predicted, truth)
}
