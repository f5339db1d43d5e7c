// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate decides whether an assembled case is usable for
// review. Every rule is checked on every case, so a reject carries the
// full list of violations rather than the first one found.
package validate

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/case-curator/internal/similarity"
	"github.com/pdiddy/case-curator/pkg/types"
)

// Result is the validation outcome for one case.
type Result struct {
	OK      bool
	Reasons []string
}

// Check validates an assembled case against the fixed rule set. The case
// itself is never modified.
func Check(c types.Case, cfg types.ValidateConfig) Result {
	raw, err := json.Marshal(c)
	if err != nil {
		// Marshaling a Case cannot fail in practice; treat it as a reject
		// rather than a crash if it somehow does.
		return Result{Reasons: []string{fmt.Sprintf("unserializable case: %v", err)}}
	}
	return CheckRaw(c, raw, cfg)
}

// CheckRaw validates a case together with its raw JSON form. Passing the
// original document bytes lets the null scan see nulls that a typed
// decode would have silently zeroed.
func CheckRaw(c types.Case, raw []byte, cfg types.ValidateConfig) Result {
	var reasons []string

	if hasNulls(raw) {
		reasons = append(reasons, "contains null values")
	}

	reasons = append(reasons, checkPairs(c.Pairs)...)

	switch {
	case c.PredictedDiagnosis == "" || c.GroundTruthDiagnosis == "":
		reasons = append(reasons, "empty primary diagnosis")
	case sameDiagnosis(c.PredictedDiagnosis, c.GroundTruthDiagnosis, cfg.SameThreshold):
		reasons = append(reasons, fmt.Sprintf("predicted and ground-truth diagnoses are the same: %q == %q",
			c.PredictedDiagnosis, c.GroundTruthDiagnosis))
	}

	if len(c.ImagePaths) == 0 {
		reasons = append(reasons, "no image paths")
	}

	for field, value := range map[string]string{
		"id":           c.ID,
		"reference_id": c.ReferenceID,
		"prompt":       c.Prompt,
	} {
		if value == "" {
			reasons = append(reasons, "missing required field: "+field)
		}
	}

	if cfg.MinDispersion > 0 && c.SimilarityVariance < cfg.MinDispersion {
		reasons = append(reasons, fmt.Sprintf("similarity variance %.4f below minimum %.4f",
			c.SimilarityVariance, cfg.MinDispersion))
	}

	sort.Strings(reasons)
	return Result{OK: len(reasons) == 0, Reasons: reasons}
}

// checkPairs applies the pair-list rules: exactly two entries, each
// well-formed, distinct pair ids, distinct content.
func checkPairs(pairs []types.DiagnosisPair) []string {
	if len(pairs) != 2 {
		return []string{fmt.Sprintf("expected exactly 2 pairs, got %d", len(pairs))}
	}

	var reasons []string
	for i, p := range pairs {
		if p.PairID == "" {
			reasons = append(reasons, fmt.Sprintf("pair %d missing pair_id", i))
		}
		if p.Predicted == "" {
			reasons = append(reasons, fmt.Sprintf("pair %d missing predicted diagnosis", i))
		}
		if p.GroundTruth == "" {
			reasons = append(reasons, fmt.Sprintf("pair %d missing ground-truth diagnosis", i))
		}
	}

	if pairs[0].PairID != "" && pairs[0].PairID == pairs[1].PairID {
		reasons = append(reasons, "pairs share the same pair_id")
	}
	if pairs[0].Predicted == pairs[1].Predicted && pairs[0].GroundTruth == pairs[1].GroundTruth {
		reasons = append(reasons, "pairs have identical content")
	}
	return reasons
}

// sameDiagnosis is the case-level distinctness rule: the fixed
// exact-or-containment check, tightened by the configurable strict
// equivalence regime when a threshold is set.
func sameDiagnosis(pred, truth string, threshold float64) bool {
	if similarity.SameDiagnosis(pred, truth) {
		return true
	}
	return threshold > 0 && similarity.IsEquivalent(pred, truth, threshold)
}

// hasNulls reports whether the JSON document contains a null anywhere,
// at any nesting depth.
func hasNulls(raw []byte) bool {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return true
	}
	return scanNulls(doc)
}

func scanNulls(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case map[string]any:
		for _, val := range t {
			if scanNulls(val) {
				return true
			}
		}
	case []any:
		for _, val := range t {
			if scanNulls(val) {
				return true
			}
		}
	}
	return false
}

// ImageSignature returns a stable fingerprint of a case's image set: the
// sorted base filenames joined with "|". Cases with the same signature
// show the reviewer the same images even when the paths differ.
func ImageSignature(c types.Case) string {
	if len(c.ImagePaths) == 0 {
		return ""
	}
	names := make([]string, 0, len(c.ImagePaths))
	for _, p := range c.ImagePaths {
		names = append(names, filepath.Base(p))
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}
