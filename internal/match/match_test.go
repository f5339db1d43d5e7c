package match

import (
	"math"
	"testing"

	"github.com/pdiddy/case-curator/pkg/types"
)

func cfg() types.MatchConfig {
	return types.MatchConfig{Equivalence: 0.9, MinScore: 0.5}
}

func ref(labels ...string) types.ReferenceRecord {
	m := make(map[string]string)
	for i, l := range labels {
		m[labelKey(i)] = l
	}
	return types.ReferenceRecord{Labels: m}
}

func labelKey(i int) string {
	return "label_" + string(rune('a'+i))
}

func TestByGroundTruthTwoOfThree(t *testing.T) {
	eval := types.EvalRecord{
		GroundTruthDifferential: []string{"atopic dermatitis", "psoriasis", "lichen planus"},
	}
	pool := []types.ReferenceRecord{
		ref("melanoma", "basal cell carcinoma", "nevus"),
		ref("Atopic Dermatitis", "psoriasis", "tinea corporis"),
		ref("psoriasis"),
	}

	r := ByGroundTruth(eval, pool, cfg())
	if !r.Matched {
		t.Fatalf("expected a content match, got fallback (score %f)", r.Score)
	}
	if r.Index != 1 {
		t.Errorf("Index = %d, want 1", r.Index)
	}
	if math.Abs(r.Score-2.0/3.0) > 1e-9 {
		t.Errorf("Score = %f, want %f", r.Score, 2.0/3.0)
	}
}

func TestByGroundTruthBelowThreshold(t *testing.T) {
	eval := types.EvalRecord{
		GroundTruthDifferential: []string{"eczema", "psoriasis", "rosacea"},
	}
	pool := []types.ReferenceRecord{
		ref("melanoma", "nevus", "rosacea"),
	}

	// One of three matched: 1/3 < 0.5, so the caller must fall back to
	// positional alignment.
	r := ByGroundTruth(eval, pool, cfg())
	if r.Matched {
		t.Errorf("score %f should not clear the 0.5 threshold", r.Score)
	}
}

func TestByGroundTruthEmptyDifferential(t *testing.T) {
	r := ByGroundTruth(types.EvalRecord{}, []types.ReferenceRecord{ref("eczema")}, cfg())
	if r.Matched {
		t.Error("record without ground-truth differential should not match")
	}
}

func TestByGroundTruthFirstWinsOnTie(t *testing.T) {
	eval := types.EvalRecord{
		GroundTruthDifferential: []string{"eczema", "psoriasis"},
	}
	pool := []types.ReferenceRecord{
		ref("eczema", "psoriasis"),
		ref("psoriasis", "eczema"),
	}

	r := ByGroundTruth(eval, pool, cfg())
	if !r.Matched || r.Index != 0 {
		t.Errorf("tie should keep first candidate, got index %d (matched %v)", r.Index, r.Matched)
	}
}

func TestByGroundTruthLargerPoolListPenalized(t *testing.T) {
	eval := types.EvalRecord{
		GroundTruthDifferential: []string{"eczema"},
	}
	pool := []types.ReferenceRecord{
		ref("eczema", "psoriasis", "rosacea", "melanoma"),
	}

	// 1 matched / max(1, 4) = 0.25.
	r := ByGroundTruth(eval, pool, cfg())
	if r.Matched {
		t.Errorf("padded reference should score 0.25, not clear threshold (got %f)", r.Score)
	}
	if math.Abs(r.Score-0.25) > 1e-9 {
		t.Errorf("Score = %f, want 0.25", r.Score)
	}
}

func TestGroundTruthLabelsPrefixFilter(t *testing.T) {
	r := types.ReferenceRecord{Labels: map[string]string{
		"label_primary":   "eczema",
		"label_secondary": "psoriasis",
		"source":          "clinic",
		"label_empty":     "",
	}}

	labels := r.GroundTruthLabels()
	if len(labels) != 2 {
		t.Fatalf("len(labels) = %d, want 2", len(labels))
	}
	// Deterministic key order.
	if labels[0] != "eczema" || labels[1] != "psoriasis" {
		t.Errorf("labels = %v, want [eczema psoriasis]", labels)
	}
}
