// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pairs derives the two-comparison review task from a case's
// differential lists. The selection is deliberately contrastive: one
// clearly similar pair and one clearly dissimilar pair make the human
// review discriminative, where a random pick often would not.
package pairs

import (
	"math"
	"math/rand"

	"github.com/pdiddy/case-curator/internal/similarity"
	"github.com/pdiddy/case-curator/pkg/types"
)

// epsilon guards the min-max division when all similarities coincide.
const epsilon = 1e-9

// candidate is one surviving (prediction, truth) pair during selection.
type candidate struct {
	predIdx  int
	truthIdx int
	sim      float64
	norm     float64
}

// Select returns exactly two DiagnosisPairs for the given differential
// lists. The main path enumerates the cross product, drops equivalent or
// overlapping pairs, min-max normalizes the survivors' similarities, and
// picks the index-disjoint combination with the largest normalized
// similarity difference. Lists with fewer than two entries, or cross
// products that filtering exhausts even at relaxed thresholds, fall back
// to positional default pairs. rng is only consulted on the shuffle
// fallback, so deterministic callers seed it and forget it.
func Select(pred, truth []string, matrix types.SimilarityMatrix, cfg types.PairConfig, rng *rand.Rand) []types.DiagnosisPair {
	if !cfg.UseMatrix {
		matrix = nil
	}

	if len(pred) < 2 || len(truth) < 2 {
		return defaultPairs(pred, truth, matrix)
	}

	cands := enumerate(pred, truth, matrix, cfg.SameThreshold, cfg.OverlapThreshold)
	if len(cands) < 2 {
		// Relaxed retry recovers usable candidates from heavily
		// overlapping differentials.
		cands = enumerate(pred, truth, matrix, cfg.RelaxedSameThreshold, cfg.RelaxedOverlapThreshold)
	}
	if len(cands) < 2 {
		return defaultPairs(pred, truth, matrix)
	}

	normalize(cands)

	first, second, ok := pickContrastive(cands)
	if !ok {
		// No index-disjoint combination exists. Shuffle and take the
		// first two; nondeterministic unless rng is seeded.
		rng.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })
		first, second = cands[0], cands[1]
	}

	return []types.DiagnosisPair{
		toPair("A", first, pred, truth),
		toPair("B", second, pred, truth),
	}
}

// enumerate builds the filtered cross product of prediction and truth
// indices. A pair is dropped when the two diagnoses are equivalent at
// sameThreshold or share too much content at overlapThreshold.
func enumerate(pred, truth []string, matrix types.SimilarityMatrix, sameThreshold, overlapThreshold float64) []candidate {
	var cands []candidate
	for i, p := range pred {
		for j, t := range truth {
			if similarity.IsEquivalent(p, t, sameThreshold) {
				continue
			}
			if similarity.Overlaps(p, t, overlapThreshold) {
				continue
			}
			cands = append(cands, candidate{
				predIdx:  i,
				truthIdx: j,
				sim:      similarity.Score(matrix, i, j, p, t),
			})
		}
	}
	return cands
}

// normalize rescales candidate similarities to [0,1] within the case.
// When every similarity coincides each candidate gets 0.5.
func normalize(cands []candidate) {
	minSim, maxSim := cands[0].sim, cands[0].sim
	for _, c := range cands[1:] {
		if c.sim < minSim {
			minSim = c.sim
		}
		if c.sim > maxSim {
			maxSim = c.sim
		}
	}

	if maxSim-minSim < epsilon {
		for i := range cands {
			cands[i].norm = 0.5
		}
		return
	}
	for i := range cands {
		cands[i].norm = (cands[i].sim - minSim) / (maxSim - minSim)
	}
}

// pickContrastive scans all candidate combinations in enumeration order
// and keeps the first one with disjoint prediction and truth indices
// maximizing the normalized similarity spread.
func pickContrastive(cands []candidate) (first, second candidate, ok bool) {
	bestSpread := -1.0
	for a := 0; a < len(cands); a++ {
		for b := a + 1; b < len(cands); b++ {
			if cands[a].predIdx == cands[b].predIdx || cands[a].truthIdx == cands[b].truthIdx {
				continue
			}
			spread := math.Abs(cands[a].norm - cands[b].norm)
			if spread > bestSpread {
				bestSpread = spread
				first, second = cands[a], cands[b]
				ok = true
			}
		}
	}
	return first, second, ok
}

// defaultPairs is the positional fallback: index i from each list for
// i = 0, 1, clamped to the available length. Similarities still come
// from the matrix when available, lexical overlap otherwise, and are
// min-max normalized across the two pairs.
func defaultPairs(pred, truth []string, matrix types.SimilarityMatrix) []types.DiagnosisPair {
	pairs := make([]types.DiagnosisPair, 0, 2)
	for i := 0; i < 2; i++ {
		pi, ti := clamp(i, len(pred)), clamp(i, len(truth))
		var p, t string
		if pi >= 0 {
			p = pred[pi]
		}
		if ti >= 0 {
			t = truth[ti]
		}

		sim := 0.0
		if p != "" || t != "" {
			sim = similarity.Score(matrix, pi, ti, p, t)
		}
		pairs = append(pairs, types.DiagnosisPair{
			PairID:      pairID(i),
			Predicted:   p,
			GroundTruth: t,
			Similarity:  sim,
		})
	}

	if math.Abs(pairs[0].Similarity-pairs[1].Similarity) < epsilon {
		pairs[0].NormalizedSimilarity = 0.5
		pairs[1].NormalizedSimilarity = 0.5
	} else if pairs[0].Similarity > pairs[1].Similarity {
		pairs[0].NormalizedSimilarity = 1.0
	} else {
		pairs[1].NormalizedSimilarity = 1.0
	}
	return pairs
}

func toPair(id string, c candidate, pred, truth []string) types.DiagnosisPair {
	return types.DiagnosisPair{
		PairID:               id,
		Predicted:            pred[c.predIdx],
		GroundTruth:          truth[c.truthIdx],
		Similarity:           c.sim,
		NormalizedSimilarity: c.norm,
	}
}

func clamp(i, length int) int {
	if length == 0 {
		return -1
	}
	if i >= length {
		return length - 1
	}
	return i
}

func pairID(i int) string {
	return string(rune('A' + i))
}
