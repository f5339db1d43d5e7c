// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match joins evaluation records to reference records. Matching
// is content-based, by agreement between the ground-truth differential
// lists; callers fall back to index alignment when no candidate clears
// the score threshold.
package match

import (
	"github.com/pdiddy/case-curator/internal/similarity"
	"github.com/pdiddy/case-curator/pkg/types"
)

// Result reports the outcome of matching one evaluation record.
type Result struct {
	// Index is the position of the best reference in the candidate pool.
	// Meaningful only when Matched is true.
	Index int

	// Score is the best match score seen: equivalent-label votes divided
	// by the size of the larger label list.
	Score float64

	// Matched reports whether the best score cleared the threshold.
	// When false the caller should align by array index instead.
	Matched bool
}

// ByGroundTruth finds the reference whose ground-truth labels best agree
// with the evaluation record's ground-truth differential. A label counts
// as matched when at least one reference label is equivalent under the
// strict regime; the score divides matched labels by the larger list
// size. Ties keep the first candidate found. Linear scan over the pool
// is fine at the dataset sizes this tool sees (tens to low thousands).
func ByGroundTruth(eval types.EvalRecord, pool []types.ReferenceRecord, cfg types.MatchConfig) Result {
	if len(eval.GroundTruthDifferential) == 0 {
		return Result{}
	}

	evalLabels := normalizeAll(eval.GroundTruthDifferential)

	best := Result{Index: -1}
	for i, ref := range pool {
		refLabels := normalizeAll(ref.GroundTruthLabels())
		score := matchScore(evalLabels, refLabels, cfg.Equivalence)
		if score > best.Score || best.Index < 0 {
			best.Index = i
			best.Score = score
		}
	}

	minScore := cfg.MinScore
	if minScore <= 0 {
		minScore = 0.5
	}
	if best.Index >= 0 && best.Score >= minScore {
		best.Matched = true
		return best
	}
	return Result{Score: best.Score}
}

// matchScore counts eval labels with at least one equivalent reference
// label, normalized by the larger list size so padding a reference with
// extra labels cannot inflate its score.
func matchScore(evalLabels, refLabels []string, threshold float64) float64 {
	if len(evalLabels) == 0 || len(refLabels) == 0 {
		return 0.0
	}

	matched := 0
	for _, el := range evalLabels {
		for _, rl := range refLabels {
			if similarity.IsEquivalent(el, rl, threshold) {
				matched++
				break
			}
		}
	}

	denom := len(evalLabels)
	if len(refLabels) > denom {
		denom = len(refLabels)
	}
	return float64(matched) / float64(denom)
}

func normalizeAll(labels []string) []string {
	var out []string
	for _, l := range labels {
		if n := similarity.Normalize(l); n != "" {
			out = append(out, n)
		}
	}
	return out
}
