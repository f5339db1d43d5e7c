// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sort"
	"strings"
)

// SimilarityMatrix maps (predicted index, ground-truth index) to a score
// supplied by an upstream similarity model. It may be nil, shorter than
// the differential lists, or ragged; lookups must degrade to the lexical
// scorer rather than fail.
type SimilarityMatrix [][]float64

// EvalRecord is the canonical per-case evaluation record. Input
// adaptation (internal/dataset) resolves the many field-name variants of
// the upstream exports into this one shape before the pipeline runs.
type EvalRecord struct {
	// CaseID identifies the sample (pmc_id, pmid, case_id, or id upstream).
	CaseID string `json:"case_id" yaml:"case_id"`

	// PredictedDiagnosis is the primary model-predicted diagnosis.
	PredictedDiagnosis string `json:"predicted_diagnosis" yaml:"predicted_diagnosis"`

	// GroundTruthDiagnosis is the primary reference diagnosis.
	GroundTruthDiagnosis string `json:"ground_truth_diagnosis" yaml:"ground_truth_diagnosis"`

	// PredictedDifferential is the ordered predicted differential list.
	PredictedDifferential []string `json:"predicted_differential" yaml:"predicted_differential"`

	// GroundTruthDifferential is the ordered ground-truth differential list.
	GroundTruthDifferential []string `json:"ground_truth_differential" yaml:"ground_truth_differential"`

	// Similarity is the optional model-supplied pairwise score matrix,
	// indexed positionally against the two differential lists.
	Similarity SimilarityMatrix `json:"similarity_matrix,omitempty" yaml:"similarity_matrix,omitempty"`
}

// ReferenceRecord holds the image paths, prompt, and ground-truth labels
// for one case in the reference dataset. Read-only to the pipeline.
type ReferenceRecord struct {
	// CaseID is the reference identifier, when the dataset carries one.
	CaseID string `json:"case_id,omitempty" yaml:"case_id,omitempty"`

	// ImagePaths lists the case's clinical images.
	ImagePaths []string `json:"image_paths" yaml:"image_paths"`

	// Prompt is the clinical prompt text.
	Prompt string `json:"prompt" yaml:"prompt"`

	// Labels holds ground-truth annotations keyed by their upstream field
	// names. Keys prefixed "label_" contribute diagnosis labels for
	// content-based matching.
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// GroundTruthLabels returns the values of Labels whose keys follow the
// "label_" naming convention, in deterministic key order.
func (r ReferenceRecord) GroundTruthLabels() []string {
	if len(r.Labels) == 0 {
		return nil
	}
	keys := make([]string, 0, len(r.Labels))
	for k := range r.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var labels []string
	for _, k := range keys {
		if strings.HasPrefix(k, labelPrefix) && r.Labels[k] != "" {
			labels = append(labels, r.Labels[k])
		}
	}
	return labels
}

const labelPrefix = "label_"
