// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sample bounds the validated case pool to a reviewable size.
// Cases are ranked or stratified by how far apart their two pair
// similarities sit; high-dispersion cases carry the most review signal.
package sample

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pdiddy/case-curator/internal/validate"
	"github.com/pdiddy/case-curator/pkg/types"
)

// dispersion weights. Standard deviation dominates; range breaks apart
// cases whose deviations coincide.
const (
	stdevWeight = 0.6
	rangeWeight = 0.4
)

// Metrics returns the population variance and range of the pair
// similarities, stored on the case at assembly time.
func Metrics(pairs []types.DiagnosisPair) (variance, spread float64) {
	if len(pairs) == 0 {
		return 0, 0
	}

	mean := 0.0
	for _, p := range pairs {
		mean += p.Similarity
	}
	mean /= float64(len(pairs))

	minSim, maxSim := pairs[0].Similarity, pairs[0].Similarity
	for _, p := range pairs {
		d := p.Similarity - mean
		variance += d * d
		if p.Similarity < minSim {
			minSim = p.Similarity
		}
		if p.Similarity > maxSim {
			maxSim = p.Similarity
		}
	}
	variance /= float64(len(pairs))
	return variance, maxSim - minSim
}

// Dispersion scores a case by 0.6·stdev + 0.4·range of its pair
// similarities.
func Dispersion(c types.Case) float64 {
	return stdevWeight*math.Sqrt(c.SimilarityVariance) + rangeWeight*c.SimilarityRange
}

// TopN is the deterministic policy: sort descending by dispersion score
// and keep the first n. The sort is stable, so ties keep original order.
// Pools of n or fewer come back unchanged.
func TopN(cases []types.Case, n int) []types.Case {
	if n <= 0 || len(cases) <= n {
		return cases
	}

	ranked := make([]types.Case, len(cases))
	copy(ranked, cases)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Dispersion(ranked[i]) > Dispersion(ranked[j])
	})
	return ranked[:n]
}

// Stratified is the randomized policy: partition the pool into high
// (>=75th percentile dispersion), medium (50th-75th), and low tiers,
// allocate 70%/25%/5% of n to them, sample without replacement inside
// each tier, and shuffle the combined pick so tier membership is not
// recoverable from output position. Same pool and same rng seed always
// reproduce the same selection.
func Stratified(cases []types.Case, n int, rng *rand.Rand) []types.Case {
	if n <= 0 || len(cases) <= n {
		return cases
	}

	scores := make([]float64, len(cases))
	for i, c := range cases {
		scores[i] = Dispersion(c)
	}
	p50, p75 := percentiles(scores)

	var high, medium, low []types.Case
	for i, c := range cases {
		switch {
		case scores[i] >= p75:
			high = append(high, c)
		case scores[i] >= p50:
			medium = append(medium, c)
		default:
			low = append(low, c)
		}
	}

	tiers := [][]types.Case{high, medium, low}
	targets := []int{
		int(0.70 * float64(n)),
		int(0.25 * float64(n)),
		0,
	}
	targets[2] = n - targets[0] - targets[1]

	// Shrink targets to tier availability, then hand the shortfall to
	// the remaining capacity in high, medium, low order.
	taken := make([]int, len(tiers))
	total := 0
	for i := range tiers {
		taken[i] = min(targets[i], len(tiers[i]))
		total += taken[i]
	}
	for i := range tiers {
		if total >= n {
			break
		}
		extra := min(n-total, len(tiers[i])-taken[i])
		taken[i] += extra
		total += extra
	}

	var selected []types.Case
	for i, tier := range tiers {
		selected = append(selected, sampleTier(tier, taken[i], rng)...)
	}

	rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	return selected
}

// sampleTier picks k cases from the tier without replacement.
func sampleTier(tier []types.Case, k int, rng *rand.Rand) []types.Case {
	if k >= len(tier) {
		return tier
	}
	shuffled := make([]types.Case, len(tier))
	copy(shuffled, tier)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:k]
}

// percentiles returns the 50th and 75th percentile of the scores using
// the nearest-rank method on the sorted slice.
func percentiles(scores []float64) (p50, p75 float64) {
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	return sorted[rankIndex(len(sorted), 0.50)], sorted[rankIndex(len(sorted), 0.75)]
}

func rankIndex(n int, q float64) int {
	i := int(math.Ceil(q*float64(n))) - 1
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return i
}

// DedupeByImages drops every case whose image signature repeats an
// earlier case's, regardless of dispersion. Cases without images keep
// their position; the validator already rejects them.
func DedupeByImages(cases []types.Case) (kept []types.Case, dropped int) {
	seen := make(map[string]bool)
	for _, c := range cases {
		sig := validate.ImageSignature(c)
		if sig != "" && seen[sig] {
			dropped++
			continue
		}
		if sig != "" {
			seen[sig] = true
		}
		kept = append(kept, c)
	}
	return kept, dropped
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
