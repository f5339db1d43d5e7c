package pairs

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pdiddy/case-curator/pkg/types"
)

func testCfg() types.PairConfig {
	return types.PairConfig{
		SameThreshold:           0.85,
		OverlapThreshold:        0.70,
		RelaxedSameThreshold:    0.95,
		RelaxedOverlapThreshold: 0.80,
		UseMatrix:               true,
	}
}

func testRng() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestSelectContrastive(t *testing.T) {
	pred := []string{"eczema", "psoriasis", "contact dermatitis"}
	truth := []string{"atopic dermatitis", "psoriasis vulgaris"}

	got := Select(pred, truth, nil, testCfg(), testRng())
	if len(got) != 2 {
		t.Fatalf("len(pairs) = %d, want 2", len(got))
	}
	if got[0].PairID != "A" || got[1].PairID != "B" {
		t.Errorf("pair ids = %q, %q; want A, B", got[0].PairID, got[1].PairID)
	}

	// The loose overlap check must drop (psoriasis, psoriasis vulgaris).
	for _, p := range got {
		if p.Predicted == "psoriasis" && p.GroundTruth == "psoriasis vulgaris" {
			t.Error("overlapping pair (psoriasis, psoriasis vulgaris) should be filtered")
		}
	}

	// Maximal spread across the surviving cross product: one pair with
	// zero lexical overlap, one with the highest Jaccard score.
	spread := math.Abs(got[0].NormalizedSimilarity - got[1].NormalizedSimilarity)
	if math.Abs(spread-1.0) > 1e-9 {
		t.Errorf("normalized spread = %f, want 1.0", spread)
	}
	for _, p := range got {
		if p.NormalizedSimilarity < 0 || p.NormalizedSimilarity > 1 {
			t.Errorf("normalized similarity %f out of [0,1]", p.NormalizedSimilarity)
		}
	}
}

func TestSelectDisjointIndices(t *testing.T) {
	pred := []string{"melanoma", "basal cell carcinoma", "nevus"}
	truth := []string{"seborrheic keratosis", "actinic keratosis", "dermatofibroma"}

	got := Select(pred, truth, nil, testCfg(), testRng())
	if len(got) != 2 {
		t.Fatalf("len(pairs) = %d, want 2", len(got))
	}
	if got[0].Predicted == got[1].Predicted {
		t.Errorf("pairs share prediction %q", got[0].Predicted)
	}
	if got[0].GroundTruth == got[1].GroundTruth {
		t.Errorf("pairs share ground truth %q", got[0].GroundTruth)
	}
}

func TestSelectAllEqualSimilarities(t *testing.T) {
	// Fully disjoint vocabularies: every surviving similarity is 0, so
	// every normalized similarity must be exactly 0.5.
	pred := []string{"melanoma", "nevus"}
	truth := []string{"eczema", "rosacea"}

	got := Select(pred, truth, nil, testCfg(), testRng())
	for _, p := range got {
		if p.NormalizedSimilarity != 0.5 {
			t.Errorf("normalized similarity = %f, want 0.5", p.NormalizedSimilarity)
		}
	}
}

func TestSelectPrefersMatrixScores(t *testing.T) {
	pred := []string{"melanoma", "nevus"}
	truth := []string{"eczema", "rosacea"}
	matrix := types.SimilarityMatrix{
		{0.9, 0.1},
		{0.2, 0.8},
	}

	got := Select(pred, truth, matrix, testCfg(), testRng())

	// Lexically every similarity is 0; matrix scores drive the pick.
	// The two disjoint combinations tie on spread, so enumeration order
	// keeps (0,0) at 0.9 with (1,1) at 0.8.
	sims := map[float64]bool{got[0].Similarity: true, got[1].Similarity: true}
	if !sims[0.9] || !sims[0.8] {
		t.Errorf("selected similarities %v, want matrix entries 0.9 and 0.8", sims)
	}
}

func TestSelectMatrixDisabled(t *testing.T) {
	pred := []string{"melanoma", "nevus"}
	truth := []string{"eczema", "rosacea"}
	matrix := types.SimilarityMatrix{
		{0.9, 0.1},
		{0.2, 0.8},
	}

	cfg := testCfg()
	cfg.UseMatrix = false
	got := Select(pred, truth, matrix, cfg, testRng())
	for _, p := range got {
		if p.Similarity != 0.0 {
			t.Errorf("with matrix disabled similarity should be lexical 0.0, got %f", p.Similarity)
		}
	}
}

func TestSelectShortListFallsBackPositional(t *testing.T) {
	got := Select([]string{"eczema"}, []string{"psoriasis", "rosacea"}, nil, testCfg(), testRng())
	if len(got) != 2 {
		t.Fatalf("len(pairs) = %d, want 2", len(got))
	}

	// Prediction index clamps to the single entry; truth advances.
	if got[0].Predicted != "eczema" || got[1].Predicted != "eczema" {
		t.Errorf("predictions = %q, %q; want eczema twice", got[0].Predicted, got[1].Predicted)
	}
	if got[0].GroundTruth != "psoriasis" || got[1].GroundTruth != "rosacea" {
		t.Errorf("truths = %q, %q; want psoriasis, rosacea", got[0].GroundTruth, got[1].GroundTruth)
	}
}

func TestSelectEmptyListsYieldEmptyPairs(t *testing.T) {
	got := Select(nil, nil, nil, testCfg(), testRng())
	if len(got) != 2 {
		t.Fatalf("len(pairs) = %d, want 2", len(got))
	}
	for _, p := range got {
		if p.Predicted != "" || p.GroundTruth != "" || p.Similarity != 0.0 {
			t.Errorf("empty input should produce empty pair, got %+v", p)
		}
	}
}

func TestSelectShuffleFallbackSeeded(t *testing.T) {
	// Only prediction "eczema" survives filtering: "melanoma" is exactly
	// equal to one truth entry and contained in the other. No disjoint
	// combination exists, so the seeded shuffle fallback runs.
	pred := []string{"eczema", "melanoma"}
	truth := []string{"melanoma", "malignant melanoma"}

	first := Select(pred, truth, nil, testCfg(), rand.New(rand.NewSource(7)))
	second := Select(pred, truth, nil, testCfg(), rand.New(rand.NewSource(7)))

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("same seed should reproduce the same pairs: %+v != %+v", first[i], second[i])
		}
	}
	if first[0].Predicted != "eczema" || first[1].Predicted != "eczema" {
		t.Errorf("only eczema pairs survive filtering, got %q, %q", first[0].Predicted, first[1].Predicted)
	}
}

func TestSelectRelaxedRetry(t *testing.T) {
	// Every cross pair shares four of five tokens, so smaller-set
	// containment is 0.8: above the 0.70 first-pass threshold (zero
	// survivors) but not above the relaxed 0.80, which recovers all
	// four candidates.
	pred := []string{
		"chronic severe atopic hand dermatitis",
		"chronic severe atopic hand eczema",
	}
	truth := []string{
		"chronic severe atopic hand rash",
		"chronic severe atopic hand lesion",
	}

	got := Select(pred, truth, nil, testCfg(), testRng())
	if len(got) != 2 {
		t.Fatalf("len(pairs) = %d, want 2", len(got))
	}
	if got[0].Predicted == got[1].Predicted || got[0].GroundTruth == got[1].GroundTruth {
		t.Errorf("recovered candidates should yield disjoint pairs, got %+v", got)
	}
	// All recovered similarities coincide, so normalization pins 0.5.
	for _, p := range got {
		if p.NormalizedSimilarity != 0.5 {
			t.Errorf("normalized similarity = %f, want 0.5", p.NormalizedSimilarity)
		}
	}
}

func TestSelectRelaxedStillShortFallsBack(t *testing.T) {
	// Total token containment drops these pairs even at the relaxed
	// thresholds; the selector must fall back to positional defaults
	// instead of returning fewer than two pairs.
	pred := []string{"dermatitis", "atopic dermatitis"}
	truth := []string{"chronic atopic dermatitis", "severe atopic dermatitis"}

	got := Select(pred, truth, nil, testCfg(), testRng())
	if len(got) != 2 {
		t.Fatalf("len(pairs) = %d, want 2", len(got))
	}
	if got[0].Predicted != "dermatitis" || got[1].Predicted != "atopic dermatitis" {
		t.Errorf("expected positional defaults, got %q, %q", got[0].Predicted, got[1].Predicted)
	}
	if got[0].GroundTruth != "chronic atopic dermatitis" || got[1].GroundTruth != "severe atopic dermatitis" {
		t.Errorf("expected positional truths, got %q, %q", got[0].GroundTruth, got[1].GroundTruth)
	}
}
