package types

// MatchConfig holds settings for content-based reference matching.
type MatchConfig struct {
	// Equivalence is the strict threshold used when voting label pairs
	// equivalent (default 0.9).
	Equivalence float64 `json:"equivalence" yaml:"equivalence"`

	// MinScore is the minimum match score required before a content match
	// is accepted; below it the caller falls back to positional matching
	// (default 0.5).
	MinScore float64 `json:"min_score" yaml:"min_score"`
}

// PairConfig holds settings for contrastive pair selection. The exact
// thresholds vary between upstream dataset revisions, so all four are
// configuration rather than constants.
type PairConfig struct {
	// SameThreshold rejects candidate pairs whose two diagnoses denote the
	// same condition (default 0.85).
	SameThreshold float64 `json:"same_threshold" yaml:"same_threshold"`

	// OverlapThreshold rejects candidate pairs with excessively overlapping
	// content, e.g. "dermatitis" vs "allergic dermatitis" (default 0.70).
	OverlapThreshold float64 `json:"overlap_threshold" yaml:"overlap_threshold"`

	// RelaxedSameThreshold is the retry value for SameThreshold when fewer
	// than two candidates survive the first filtering pass (default 0.95).
	RelaxedSameThreshold float64 `json:"relaxed_same_threshold" yaml:"relaxed_same_threshold"`

	// RelaxedOverlapThreshold is the retry value for OverlapThreshold
	// (default 0.80).
	RelaxedOverlapThreshold float64 `json:"relaxed_overlap_threshold" yaml:"relaxed_overlap_threshold"`

	// UseMatrix controls whether a model-supplied similarity matrix is
	// consulted before the lexical scorer (default true).
	UseMatrix bool `json:"use_matrix" yaml:"use_matrix"`
}

// ValidateConfig holds settings for case validation.
type ValidateConfig struct {
	// SameThreshold is the strict threshold for rejecting cases whose
	// primary predicted and ground-truth diagnoses denote the same
	// condition (default 0.9).
	SameThreshold float64 `json:"same_threshold" yaml:"same_threshold"`

	// MinDispersion is the minimum similarity variance a case must reach.
	// Zero disables the rule.
	MinDispersion float64 `json:"min_dispersion" yaml:"min_dispersion"`
}

// SelectConfig holds settings for the final bounded selection.
type SelectConfig struct {
	// MaxCases bounds the output set. Zero or negative keeps everything.
	MaxCases int `json:"max_cases" yaml:"max_cases"`

	// Stratified selects by dispersion-tier sampling instead of the
	// deterministic top-N sort.
	Stratified bool `json:"stratified" yaml:"stratified"`

	// Seed makes stratified sampling and shuffle fallbacks reproducible.
	Seed int64 `json:"seed" yaml:"seed"`

	// DedupeImages drops cases whose image sets repeat an earlier case's.
	DedupeImages bool `json:"dedupe_images" yaml:"dedupe_images"`
}

// StoreConfig holds settings for the review store.
type StoreConfig struct {
	// ReviewDir is the base directory for the review index
	// (contains index/).
	ReviewDir string `json:"review_dir" yaml:"review_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Match    MatchConfig    `json:"match" yaml:"match"`
	Pairs    PairConfig     `json:"pairs" yaml:"pairs"`
	Validate ValidateConfig `json:"validate" yaml:"validate"`
	Select   SelectConfig   `json:"select" yaml:"select"`
}

// DefaultPipelineConfig returns the threshold regime used by the curated
// dermatology releases.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Match: MatchConfig{
			Equivalence: 0.9,
			MinScore:    0.5,
		},
		Pairs: PairConfig{
			SameThreshold:           0.85,
			OverlapThreshold:        0.70,
			RelaxedSameThreshold:    0.95,
			RelaxedOverlapThreshold: 0.80,
			UseMatrix:               true,
		},
		Validate: ValidateConfig{
			SameThreshold: 0.9,
		},
		Select: SelectConfig{
			MaxCases: 200,
		},
	}
}
