// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/case-curator/internal/dataset"
	"github.com/pdiddy/case-curator/pkg/types"
)

// QueryOptions holds parameters for review index queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string, matched against the
	// prompt and both primary diagnoses.
	Query string

	// CaseID filters by the upstream reference id.
	CaseID string

	// MinDispersion keeps only cases at or above the given similarity
	// variance.
	MinDispersion float64

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.CaseID == "" && q.MinDispersion == 0
}

// Retrieve queries the review index with optional full-text search and
// structured filters. Full-text queries rank by relevance; structured
// queries sort by dispersion descending so the most contrastive cases
// surface first.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]types.Case, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT c.rowid, c.id, c.reference_id, c.prompt,
				c.predicted_diagnosis, c.ground_truth_diagnosis,
				c.image_paths, c.predicted_differential, c.ground_truth_differential,
				c.similarity_variance, c.similarity_range
			FROM cases_fts
			JOIN cases c ON c.rowid = cases_fts.rowid
			WHERE cases_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT c.rowid, c.id, c.reference_id, c.prompt,
				c.predicted_diagnosis, c.ground_truth_diagnosis,
				c.image_paths, c.predicted_differential, c.ground_truth_differential,
				c.similarity_variance, c.similarity_range
			FROM cases c
			WHERE 1=1`)
	}

	if opts.CaseID != "" {
		qb.WriteString(` AND c.reference_id = ?`)
		args = append(args, opts.CaseID)
	}

	if opts.MinDispersion > 0 {
		qb.WriteString(` AND c.similarity_variance >= ?`)
		args = append(args, opts.MinDispersion)
	}

	if useFTS {
		qb.WriteString(` ORDER BY cases_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY c.similarity_variance DESC, c.reference_id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying review index: %w", err)
	}
	defer rows.Close()

	var cases []types.Case
	var rowIDs []int64
	for rows.Next() {
		var (
			c          types.Case
			rowID      int64
			imagesJSON sql.NullString
			predJSON   sql.NullString
			truthJSON  sql.NullString
		)

		if err := rows.Scan(
			&rowID, &c.ID, &c.ReferenceID, &c.Prompt,
			&c.PredictedDiagnosis, &c.GroundTruthDiagnosis,
			&imagesJSON, &predJSON, &truthJSON,
			&c.SimilarityVariance, &c.SimilarityRange,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if imagesJSON.Valid {
			json.Unmarshal([]byte(imagesJSON.String), &c.ImagePaths)
		}
		if predJSON.Valid {
			json.Unmarshal([]byte(predJSON.String), &c.PredictedDifferential)
		}
		if truthJSON.Valid {
			json.Unmarshal([]byte(truthJSON.String), &c.GroundTruthDifferential)
		}

		cases = append(cases, c)
		rowIDs = append(rowIDs, rowID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, rowID := range rowIDs {
		pairs, err := s.casePairs(ctx, rowID)
		if err != nil {
			return nil, err
		}
		cases[i].Pairs = pairs
	}

	return cases, nil
}

func (s *Store) casePairs(ctx context.Context, caseRowID int64) ([]types.DiagnosisPair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pair_id, predicted, ground_truth, similarity, normalized_similarity
		 FROM pairs WHERE case_rowid = ? ORDER BY pair_id`, caseRowID)
	if err != nil {
		return nil, fmt.Errorf("querying pairs: %w", err)
	}
	defer rows.Close()

	var pairs []types.DiagnosisPair
	for rows.Next() {
		var p types.DiagnosisPair
		if err := rows.Scan(&p.PairID, &p.Predicted, &p.GroundTruth,
			&p.Similarity, &p.NormalizedSimilarity); err != nil {
			return nil, fmt.Errorf("scanning pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// ExportJSON writes the full indexed case set back out as a processed
// artifact, sorted the structured way.
func (s *Store) ExportJSON(ctx context.Context, path string) error {
	cases, err := s.Retrieve(ctx, QueryOptions{MaxResults: 1 << 20})
	if err != nil {
		return fmt.Errorf("exporting review index: %w", err)
	}
	return dataset.WriteCases(path, cases)
}
