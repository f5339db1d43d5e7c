// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset adapts the upstream JSON exports into the one
// canonical record shape the pipeline operates on. Upstream files vary
// wildly in field naming across evaluation-report revisions, so every
// logical attribute resolves through an ordered candidate list here,
// once, instead of ad hoc lookups scattered through the core.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/case-curator/pkg/types"
)

// sampleListKeys are the container fields under which evaluation exports
// nest their per-case record list.
var sampleListKeys = []string{"per_sample_results", "results", "samples", "data", "cases"}

// Candidate field names per logical attribute, in resolution order.
var (
	caseIDFields = []string{"pmc_id", "pmid", "case_id", "id"}

	predictedDifferentialFields = []string{
		"predicted_differential_diagnosis",
		"pred_diff_diagnosis",
		"predicted_diagnoses",
	}
	groundTruthDifferentialFields = []string{
		"ground_truth_differential_diagnosis",
		"gt_diff_diagnosis",
		"ground_truth_diagnoses",
	}

	predictedDiagnosisFields   = []string{"predicted_diagnosis"}
	groundTruthDiagnosisFields = []string{"ground_truth_diagnosis"}

	// Matrix resolution paths: either directly on the sample or nested
	// in a metrics block from the scoring model.
	matrixPaths = [][]string{
		{"similarity_matrix"},
		{"differential_diagnosis_metrics_dermlip", "similarity_matrix"},
		{"differential_diagnosis_metrics", "similarity_matrix"},
	}
)

// differentialDelimiter splits delimiter-joined differential strings.
const differentialDelimiter = "|"

// LoadEvaluation reads an evaluation export and adapts every sample to
// the canonical EvalRecord shape. A missing file or malformed JSON is
// fatal; individual samples missing fields default to empty values and
// surface later through validation.
func LoadEvaluation(path string) ([]types.EvalRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading evaluation file %s: %w", path, err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing evaluation file %s: %w", path, err)
	}

	samples, err := sampleList(doc)
	if err != nil {
		return nil, fmt.Errorf("evaluation file %s: %w", path, err)
	}

	records := make([]types.EvalRecord, 0, len(samples))
	for _, s := range samples {
		m, ok := s.(map[string]any)
		if !ok {
			records = append(records, types.EvalRecord{})
			continue
		}
		records = append(records, adaptEvalRecord(m))
	}
	return records, nil
}

// sampleList locates the per-case record list inside an evaluation
// document: the document itself when it is a list, else the first
// recognized container key, else the first list-valued field at all.
func sampleList(doc any) ([]any, error) {
	switch t := doc.(type) {
	case []any:
		return t, nil
	case map[string]any:
		for _, key := range sampleListKeys {
			if list, ok := t[key].([]any); ok {
				return list, nil
			}
		}
		for _, v := range t {
			if list, ok := v.([]any); ok && len(list) > 0 {
				return list, nil
			}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		return nil, fmt.Errorf("no sample list found (top-level fields: %s)", strings.Join(keys, ", "))
	default:
		return nil, fmt.Errorf("unexpected top-level JSON type %T", doc)
	}
}

func adaptEvalRecord(m map[string]any) types.EvalRecord {
	rec := types.EvalRecord{
		CaseID:               resolveString(m, caseIDFields),
		PredictedDiagnosis:   resolveString(m, predictedDiagnosisFields),
		GroundTruthDiagnosis: resolveString(m, groundTruthDiagnosisFields),
		Similarity:           resolveMatrix(m),
	}

	rec.PredictedDifferential = resolveDifferential(m, predictedDifferentialFields, rec.PredictedDiagnosis)
	rec.GroundTruthDifferential = resolveDifferential(m, groundTruthDifferentialFields, rec.GroundTruthDiagnosis)
	return rec
}

// resolveString returns the first non-empty candidate field, stringified.
func resolveString(m map[string]any, candidates []string) string {
	for _, field := range candidates {
		if v, ok := m[field]; ok {
			if s := asString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// resolveDifferential resolves a differential list that may arrive as a
// JSON list or as a delimiter-joined string. When every candidate field
// is absent or empty, the primary diagnosis stands in as a one-entry
// list, matching the upstream convention.
func resolveDifferential(m map[string]any, candidates []string, primary string) []string {
	for _, field := range candidates {
		v, ok := m[field]
		if !ok {
			continue
		}
		if list := asStringList(v); len(list) > 0 {
			return list
		}
	}
	if primary != "" {
		return []string{primary}
	}
	return []string{}
}

// resolveMatrix walks the known matrix paths and converts the first hit.
func resolveMatrix(m map[string]any) types.SimilarityMatrix {
	for _, path := range matrixPaths {
		v := any(m)
		for _, key := range path {
			obj, ok := v.(map[string]any)
			if !ok {
				v = nil
				break
			}
			v = obj[key]
		}
		if matrix := asMatrix(v); matrix != nil {
			return matrix
		}
	}
	return nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		// Numeric ids appear in some exports.
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func asStringList(v any) []string {
	switch t := v.(type) {
	case string:
		var out []string
		for _, part := range strings.Split(t, differentialDelimiter) {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	case []any:
		var out []string
		for _, item := range t {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// asMatrix converts a decoded JSON value into a similarity matrix.
// Ragged rows are kept as-is; lookups handle them. Non-numeric cells
// invalidate only their row's tail, not the whole matrix.
func asMatrix(v any) types.SimilarityMatrix {
	rows, ok := v.([]any)
	if !ok || len(rows) == 0 {
		return nil
	}
	matrix := make(types.SimilarityMatrix, 0, len(rows))
	for _, r := range rows {
		cells, ok := r.([]any)
		if !ok {
			matrix = append(matrix, nil)
			continue
		}
		row := make([]float64, 0, len(cells))
		for _, c := range cells {
			f, ok := c.(float64)
			if !ok {
				break
			}
			row = append(row, f)
		}
		matrix = append(matrix, row)
	}
	return matrix
}

// LoadReferences reads the reference dataset: a JSON list of records
// with image paths, prompt text, and label_* ground-truth annotations.
func LoadReferences(path string) ([]types.ReferenceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reference file %s: %w", path, err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing reference file %s: %w", path, err)
	}

	records := make([]types.ReferenceRecord, 0, len(raw))
	for _, m := range raw {
		rec := types.ReferenceRecord{
			CaseID: resolveString(m, caseIDFields),
			Prompt: resolveString(m, []string{"prompt"}),
		}
		if list := asStringList(m["image_paths"]); list != nil {
			rec.ImagePaths = list
		}
		for k, v := range m {
			if !strings.HasPrefix(k, "label_") {
				continue
			}
			if s := asString(v); s != "" {
				if rec.Labels == nil {
					rec.Labels = make(map[string]string)
				}
				rec.Labels[k] = s
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadCases reads a previously written processed-case artifact. The raw
// per-case documents come back alongside the typed records so the
// validator's null scan can see nulls a typed decode would zero out.
func LoadCases(path string) ([]types.Case, []json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading case file %s: %w", path, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parsing case file %s: %w", path, err)
	}

	cases := make([]types.Case, len(raw))
	for i, doc := range raw {
		if err := json.Unmarshal(doc, &cases[i]); err != nil {
			return nil, nil, fmt.Errorf("parsing case %d in %s: %w", i, path, err)
		}
	}
	return cases, raw, nil
}

// WriteCases writes the processed case list as indented JSON. The write
// goes through a temp file in the target directory and renames into
// place, so a failed run never leaves a truncated artifact behind.
func WriteCases(path string, cases []types.Case) error {
	if cases == nil {
		cases = []types.Case{}
	}
	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cases: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".cases-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing cases: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
