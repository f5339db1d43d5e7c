package validate

import (
	"strings"
	"testing"

	"github.com/pdiddy/case-curator/pkg/types"
)

func validCase() types.Case {
	return types.Case{
		ID:                   "0",
		ReferenceID:          "PMC123456",
		ImagePaths:           []string{"images/a.png", "images/b.png"},
		Prompt:               "Evaluate the presented skin lesion.",
		PredictedDiagnosis:   "eczema",
		GroundTruthDiagnosis: "psoriasis",
		Pairs: []types.DiagnosisPair{
			{PairID: "A", Predicted: "eczema", GroundTruth: "atopic dermatitis", Similarity: 0.1, NormalizedSimilarity: 0.0},
			{PairID: "B", Predicted: "contact dermatitis", GroundTruth: "psoriasis vulgaris", Similarity: 0.8, NormalizedSimilarity: 1.0},
		},
		PredictedDifferential:   []string{"eczema", "contact dermatitis"},
		GroundTruthDifferential: []string{"atopic dermatitis", "psoriasis vulgaris"},
		SimilarityVariance:      0.1225,
		SimilarityRange:         0.7,
	}
}

func testCfg() types.ValidateConfig {
	return types.ValidateConfig{SameThreshold: 0.9}
}

func TestCheckAcceptsValidCase(t *testing.T) {
	r := Check(validCase(), testCfg())
	if !r.OK {
		t.Fatalf("valid case rejected: %v", r.Reasons)
	}
	if len(r.Reasons) != 0 {
		t.Errorf("accepted case should carry no reasons, got %v", r.Reasons)
	}
}

func TestCheckAccumulatesAllReasons(t *testing.T) {
	c := validCase()
	c.Prompt = ""
	c.ImagePaths = []string{}
	c.PredictedDiagnosis = ""

	r := Check(c, testCfg())
	if r.OK {
		t.Fatal("broken case accepted")
	}
	// Not short-circuited: every violated rule reports.
	if len(r.Reasons) != 3 {
		t.Errorf("reasons = %v, want 3 entries", r.Reasons)
	}
}

func TestCheckRejectsNullAnywhere(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"top-level null field", `{"id":"0","image_paths":null}`},
		{"null inside pair", `{"id":"0","pairs":[{"pair_id":"A","predicted":"eczema","ground_truth":"psoriasis","similarity":null}]}`},
		{"null in nested list", `{"id":"0","image_paths":["a.png",null]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CheckRaw(validCase(), []byte(tt.raw), testCfg())
			if r.OK {
				t.Fatal("case with null accepted")
			}
			found := false
			for _, reason := range r.Reasons {
				if strings.Contains(reason, "null") {
					found = true
				}
			}
			if !found {
				t.Errorf("reasons %v should mention null values", r.Reasons)
			}
		})
	}
}

func TestCheckNilSlicesAreNulls(t *testing.T) {
	c := validCase()
	c.PredictedDifferential = nil

	r := Check(c, testCfg())
	if r.OK {
		t.Error("case with nil differential list should be rejected")
	}
}

func TestCheckPairRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.Case)
		reason string
	}{
		{
			"single pair",
			func(c *types.Case) { c.Pairs = c.Pairs[:1] },
			"exactly 2 pairs",
		},
		{
			"three pairs",
			func(c *types.Case) { c.Pairs = append(c.Pairs, c.Pairs[0]) },
			"exactly 2 pairs",
		},
		{
			"duplicate pair_id",
			func(c *types.Case) { c.Pairs[1].PairID = "A" },
			"same pair_id",
		},
		{
			"identical content",
			func(c *types.Case) {
				c.Pairs[1].Predicted = c.Pairs[0].Predicted
				c.Pairs[1].GroundTruth = c.Pairs[0].GroundTruth
			},
			"identical content",
		},
		{
			"missing pair field",
			func(c *types.Case) { c.Pairs[0].Predicted = "" },
			"missing predicted",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCase()
			tt.mutate(&c)
			r := Check(c, testCfg())
			if r.OK {
				t.Fatal("invalid pairs accepted")
			}
			found := false
			for _, reason := range r.Reasons {
				if strings.Contains(reason, tt.reason) {
					found = true
				}
			}
			if !found {
				t.Errorf("reasons %v should contain %q", r.Reasons, tt.reason)
			}
		})
	}
}

func TestCheckSamePrimaryDiagnosis(t *testing.T) {
	c := validCase()
	c.PredictedDiagnosis = "Psoriasis Vulgaris"
	c.GroundTruthDiagnosis = "psoriasis vulgaris."

	r := Check(c, testCfg())
	if r.OK {
		t.Error("case with matching primary diagnoses should be rejected")
	}
}

func TestCheckEmptyImagePathsAlwaysRejected(t *testing.T) {
	c := validCase()
	c.ImagePaths = []string{}

	r := Check(c, testCfg())
	if r.OK {
		t.Error("case without images accepted")
	}
}

func TestCheckMinDispersion(t *testing.T) {
	c := validCase()
	c.SimilarityVariance = 0.01

	// Disabled by default.
	if r := Check(c, testCfg()); !r.OK {
		t.Errorf("zero minimum should be a no-op filter, got %v", r.Reasons)
	}

	cfg := testCfg()
	cfg.MinDispersion = 0.05
	if r := Check(c, cfg); r.OK {
		t.Error("case below the dispersion minimum accepted")
	}
}

func TestImageSignature(t *testing.T) {
	a := validCase()
	b := validCase()
	b.ImagePaths = []string{"/other/prefix/b.png", "/other/prefix/a.png"}

	if ImageSignature(a) != ImageSignature(b) {
		t.Error("signature should ignore directories and ordering")
	}

	b.ImagePaths = []string{"images/c.png"}
	if ImageSignature(a) == ImageSignature(b) {
		t.Error("different image sets should differ")
	}

	if ImageSignature(types.Case{}) != "" {
		t.Error("empty image list should produce empty signature")
	}
}
