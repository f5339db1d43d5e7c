// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DiagnosisPair is one predicted/ground-truth diagnosis comparison
// presented to reviewers. A case carries exactly two, labeled A and B,
// chosen so their similarities are as far apart as possible.
type DiagnosisPair struct {
	// PairID is "A" or "B".
	PairID string `json:"pair_id" yaml:"pair_id"`

	// Predicted is the model-predicted diagnosis string.
	Predicted string `json:"predicted" yaml:"predicted"`

	// GroundTruth is the reference diagnosis string.
	GroundTruth string `json:"ground_truth" yaml:"ground_truth"`

	// Similarity is the raw score: the similarity-matrix entry when one
	// is available for the pair's indices, else Jaccard token overlap.
	Similarity float64 `json:"similarity" yaml:"similarity"`

	// NormalizedSimilarity is Similarity min-max rescaled to [0,1]
	// across the case's surviving candidate pairs.
	NormalizedSimilarity float64 `json:"normalized_similarity" yaml:"normalized_similarity"`
}

// Case is the assembled unit of output: one evaluation record joined with
// its reference record, plus the derived contrastive pair comparison.
// Cases are immutable once written; re-runs regenerate them from scratch.
type Case struct {
	// ID is the case identifier within the processed artifact.
	ID string `json:"id" yaml:"id"`

	// ReferenceID identifies the reference record the case was joined with
	// (a PMID or dataset-specific case id).
	ReferenceID string `json:"reference_id" yaml:"reference_id"`

	// ImagePaths lists the clinical images shown during review.
	ImagePaths []string `json:"image_paths" yaml:"image_paths"`

	// Prompt is the clinical prompt text presented with the images.
	Prompt string `json:"prompt" yaml:"prompt"`

	// PredictedDiagnosis is the primary model-predicted diagnosis.
	PredictedDiagnosis string `json:"predicted_diagnosis" yaml:"predicted_diagnosis"`

	// GroundTruthDiagnosis is the primary reference diagnosis.
	GroundTruthDiagnosis string `json:"ground_truth_diagnosis" yaml:"ground_truth_diagnosis"`

	// Pairs holds the two selected diagnosis comparisons.
	Pairs []DiagnosisPair `json:"pairs" yaml:"pairs"`

	// PredictedDifferential is the full predicted differential list,
	// kept for traceability.
	PredictedDifferential []string `json:"predicted_differential" yaml:"predicted_differential"`

	// GroundTruthDifferential is the full ground-truth differential list.
	GroundTruthDifferential []string `json:"ground_truth_differential" yaml:"ground_truth_differential"`

	// SimilarityVariance is the variance of the two pair similarities.
	SimilarityVariance float64 `json:"similarity_variance" yaml:"similarity_variance"`

	// SimilarityRange is |similarity(A) - similarity(B)|.
	SimilarityRange float64 `json:"similarity_range" yaml:"similarity_range"`
}

// RejectedCase records why a case failed validation. All rules are
// evaluated, so Reasons may name several violations at once.
type RejectedCase struct {
	CaseID               string   `json:"case_id" yaml:"case_id"`
	Reasons              []string `json:"reasons" yaml:"reasons"`
	PredictedDiagnosis   string   `json:"predicted_diagnosis,omitempty" yaml:"predicted_diagnosis,omitempty"`
	GroundTruthDiagnosis string   `json:"ground_truth_diagnosis,omitempty" yaml:"ground_truth_diagnosis,omitempty"`
}
