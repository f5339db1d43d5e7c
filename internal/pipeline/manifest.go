// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/case-curator/pkg/types"
)

// Manifest is the on-disk record of one curation run, written beside the
// JSON artifact. It pins the run id, the configuration that produced the
// artifact, and the aggregate counts, so any artifact can be traced back
// to the settings that generated it.
type Manifest struct {
	RunID     string               `yaml:"run_id"`
	Timestamp time.Time            `yaml:"timestamp"`
	Config    types.PipelineConfig `yaml:"config"`
	Counts    ManifestCounts       `yaml:"counts"`
	Reasons   map[string]int       `yaml:"rejection_reasons,omitempty"`
}

// ManifestCounts stores the summary counts in a serializable form.
type ManifestCounts struct {
	Processed int `yaml:"processed"`
	Matched   int `yaml:"matched"`
	Unmatched int `yaml:"unmatched"`
	Accepted  int `yaml:"accepted"`
	Rejected  int `yaml:"rejected"`
	Deduped   int `yaml:"deduplicated"`
	Sampled   int `yaml:"sampled"`
}

// NewManifest builds a manifest for a completed run.
func NewManifest(cfg types.PipelineConfig, s Summary) Manifest {
	m := Manifest{
		RunID:     uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Config:    cfg,
		Counts: ManifestCounts{
			Processed: s.Total(),
			Matched:   s.Matched,
			Unmatched: s.Unmatched,
			Accepted:  s.Accepted,
			Rejected:  s.Rejected,
			Deduped:   s.Deduped,
			Sampled:   s.Sampled,
		},
	}
	if len(s.Reasons) > 0 {
		m.Reasons = s.Reasons
	}
	return m
}

// WriteManifest saves a run manifest as YAML.
func WriteManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshaling run manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run manifest %s: %w", path, err)
	}
	return nil
}

// ReadManifest loads a previously written run manifest.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("reading run manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing run manifest %s: %w", path, err)
	}
	return m, nil
}
