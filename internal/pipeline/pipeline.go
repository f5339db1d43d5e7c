// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates a full curation run: evaluation records
// are joined against the reference pool, contrastive diagnosis pairs are
// selected, cases are assembled and validated, and the survivors are
// sampled down to the configured pool size.
package pipeline

import (
	"fmt"
	"io"
	"math/rand"
	"strconv"

	"github.com/pdiddy/case-curator/internal/match"
	"github.com/pdiddy/case-curator/internal/pairs"
	"github.com/pdiddy/case-curator/internal/sample"
	"github.com/pdiddy/case-curator/internal/validate"
	"github.com/pdiddy/case-curator/pkg/types"
)

// Summary holds counts from a curation run.
type Summary struct {
	Matched   int
	Unmatched int
	Accepted  int
	Rejected  int
	Deduped   int
	Sampled   int

	// Reasons counts validation rejections per reason string.
	Reasons map[string]int
}

// Total returns the number of evaluation records processed.
func (s Summary) Total() int {
	return s.Matched + s.Unmatched
}

// HasFailures reports whether any record could not be joined to a
// reference. Validation rejections are expected output, not failures.
func (s Summary) HasFailures() bool {
	return s.Unmatched > 0
}

// Result is the full outcome of a curation run.
type Result struct {
	Cases    []types.Case
	Rejected []types.RejectedCase
	Summary  Summary
}

// Run executes the curation pipeline over one evaluation export and its
// reference pool. Per-record status lines go to w; the returned error is
// reserved for conditions that invalidate the whole run.
func Run(evals []types.EvalRecord, refs []types.ReferenceRecord, cfg types.PipelineConfig, rng *rand.Rand, w io.Writer) (Result, error) {
	refByID := make(map[string]int, len(refs))
	for i, r := range refs {
		if r.CaseID != "" {
			if _, seen := refByID[r.CaseID]; !seen {
				refByID[r.CaseID] = i
			}
		}
	}

	result := Result{Summary: Summary{Reasons: make(map[string]int)}}

	var accepted []types.Case
	for i, eval := range evals {
		refIdx, how := joinReference(eval, refs, refByID, i, cfg.Match)
		if refIdx < 0 {
			fmt.Fprintf(w, "unmatched %s\n", displayID(eval, i))
			result.Summary.Unmatched++
			result.Rejected = append(result.Rejected, types.RejectedCase{
				CaseID:               displayID(eval, i),
				Reasons:              []string{"no matching reference record"},
				PredictedDiagnosis:   eval.PredictedDiagnosis,
				GroundTruthDiagnosis: eval.GroundTruthDiagnosis,
			})
			continue
		}
		result.Summary.Matched++

		c := assemble(eval, refs[refIdx], len(accepted), cfg.Pairs, rng)

		check := validate.Check(c, cfg.Validate)
		if !check.OK {
			fmt.Fprintf(w, "rejected %s: %s\n", c.ReferenceID, check.Reasons[0])
			result.Summary.Rejected++
			for _, reason := range check.Reasons {
				result.Summary.Reasons[reason]++
			}
			result.Rejected = append(result.Rejected, types.RejectedCase{
				CaseID:               c.ReferenceID,
				Reasons:              check.Reasons,
				PredictedDiagnosis:   c.PredictedDiagnosis,
				GroundTruthDiagnosis: c.GroundTruthDiagnosis,
			})
			continue
		}

		fmt.Fprintf(w, "accepted %s (%s)\n", c.ReferenceID, how)
		result.Summary.Accepted++
		accepted = append(accepted, c)
	}

	if cfg.Select.DedupeImages {
		var dropped int
		accepted, dropped = sample.DedupeByImages(accepted)
		result.Summary.Deduped = dropped
	}

	if cfg.Select.MaxCases > 0 && len(accepted) > cfg.Select.MaxCases {
		if cfg.Select.Stratified {
			accepted = sample.Stratified(accepted, cfg.Select.MaxCases, rng)
		} else {
			accepted = sample.TopN(accepted, cfg.Select.MaxCases)
		}
	}
	result.Summary.Sampled = len(accepted)

	// Ids are reassigned after sampling so the artifact stays densely
	// numbered regardless of which cases survived.
	for i := range accepted {
		accepted[i].ID = strconv.Itoa(i)
	}
	result.Cases = accepted

	return result, nil
}

// joinReference resolves the reference record for one evaluation record:
// direct case-id join first, label voting second, position last.
func joinReference(eval types.EvalRecord, refs []types.ReferenceRecord, refByID map[string]int, pos int, cfg types.MatchConfig) (int, string) {
	if eval.CaseID != "" {
		if idx, ok := refByID[eval.CaseID]; ok {
			return idx, "id"
		}
	}
	if m := match.ByGroundTruth(eval, refs, cfg); m.Matched {
		return m.Index, "label"
	}
	if len(refByID) == 0 && pos < len(refs) {
		return pos, "position"
	}
	return -1, ""
}

// assemble builds one output case from a joined evaluation/reference
// record pair. Slices are never left nil; a null in the artifact is a
// validation failure, not a formatting choice.
func assemble(eval types.EvalRecord, ref types.ReferenceRecord, idx int, cfg types.PairConfig, rng *rand.Rand) types.Case {
	selected := pairs.Select(eval.PredictedDifferential, eval.GroundTruthDifferential, eval.Similarity, cfg, rng)
	variance, spread := sample.Metrics(selected)

	c := types.Case{
		ID:                      strconv.Itoa(idx),
		ReferenceID:             eval.CaseID,
		ImagePaths:              ref.ImagePaths,
		Prompt:                  ref.Prompt,
		PredictedDiagnosis:      eval.PredictedDiagnosis,
		GroundTruthDiagnosis:    eval.GroundTruthDiagnosis,
		Pairs:                   selected,
		PredictedDifferential:   eval.PredictedDifferential,
		GroundTruthDifferential: eval.GroundTruthDifferential,
		SimilarityVariance:      variance,
		SimilarityRange:         spread,
	}

	if c.ReferenceID == "" {
		c.ReferenceID = ref.CaseID
	}
	if c.GroundTruthDiagnosis == "" {
		if labels := ref.GroundTruthLabels(); len(labels) > 0 {
			c.GroundTruthDiagnosis = labels[0]
		}
	}

	if c.ImagePaths == nil {
		c.ImagePaths = []string{}
	}
	if c.Pairs == nil {
		c.Pairs = []types.DiagnosisPair{}
	}
	if c.PredictedDifferential == nil {
		c.PredictedDifferential = []string{}
	}
	if c.GroundTruthDifferential == nil {
		c.GroundTruthDifferential = []string{}
	}
	return c
}

// Relabel replaces the primary diagnoses of existing cases with the
// values from a newer evaluation export, joined by case id. It returns
// the number of cases updated.
func Relabel(cases []types.Case, evals []types.EvalRecord) int {
	mapping := make(map[string]types.EvalRecord, len(evals))
	for _, e := range evals {
		if e.CaseID != "" {
			mapping[e.CaseID] = e
		}
	}

	updated := 0
	for i := range cases {
		e, ok := mapping[cases[i].ReferenceID]
		if !ok {
			continue
		}
		cases[i].PredictedDiagnosis = e.PredictedDiagnosis
		cases[i].GroundTruthDiagnosis = e.GroundTruthDiagnosis
		updated++
	}
	return updated
}

func displayID(eval types.EvalRecord, pos int) string {
	if eval.CaseID != "" {
		return eval.CaseID
	}
	return fmt.Sprintf("sample-%d", pos)
}
