// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists curated cases into a local review index.
// The index is derived entirely from the processed-case JSON artifact
// and can be rebuilt from it at any time; reviewers query it instead of
// grepping the artifact by hand.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/case-curator/internal/dataset"
	"github.com/pdiddy/case-curator/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "review.db"
)

// Store manages the review index SQLite database.
type Store struct {
	db         *sql.DB
	reviewDir  string
	maxResults int
}

// NewStore opens or creates the review index at reviewDir/index/review.db,
// creating the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.ReviewDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		reviewDir:  cfg.ReviewDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS cases (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			reference_id TEXT NOT NULL,
			prompt TEXT,
			predicted_diagnosis TEXT,
			ground_truth_diagnosis TEXT,
			image_paths TEXT,
			predicted_differential TEXT,
			ground_truth_differential TEXT,
			similarity_variance REAL,
			similarity_range REAL,
			UNIQUE(reference_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS pairs (
			case_rowid INTEGER NOT NULL REFERENCES cases(rowid) ON DELETE CASCADE,
			pair_id TEXT NOT NULL,
			predicted TEXT,
			ground_truth TEXT,
			similarity REAL,
			normalized_similarity REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pairs_case ON pairs(case_rowid)`,
		`CREATE INDEX IF NOT EXISTS idx_cases_variance ON cases(similarity_variance)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			artifact TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='cases_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE cases_fts USING fts5(
				prompt, predicted_diagnosis, ground_truth_diagnosis,
				content=cases, content_rowid=rowid)`,
			`CREATE TRIGGER cases_ai AFTER INSERT ON cases BEGIN
				INSERT INTO cases_fts(rowid, prompt, predicted_diagnosis, ground_truth_diagnosis)
				VALUES (new.rowid, new.prompt, new.predicted_diagnosis, new.ground_truth_diagnosis);
			END`,
			`CREATE TRIGGER cases_ad AFTER DELETE ON cases BEGIN
				INSERT INTO cases_fts(cases_fts, rowid, prompt, predicted_diagnosis, ground_truth_diagnosis)
				VALUES('delete', old.rowid, old.prompt, old.predicted_diagnosis, old.ground_truth_diagnosis);
			END`,
			`CREATE TRIGGER cases_au AFTER UPDATE ON cases BEGIN
				INSERT INTO cases_fts(cases_fts, rowid, prompt, predicted_diagnosis, ground_truth_diagnosis)
				VALUES('delete', old.rowid, old.prompt, old.predicted_diagnosis, old.ground_truth_diagnosis);
				INSERT INTO cases_fts(rowid, prompt, predicted_diagnosis, ground_truth_diagnosis)
				VALUES (new.rowid, new.prompt, new.predicted_diagnosis, new.ground_truth_diagnosis);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a review index build.
type IngestSummary struct {
	Indexed int
	Skipped int
	Failed  int
}

// Total returns the number of cases processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Skipped + s.Failed
}

// HasFailures reports whether any cases failed to index.
func (s IngestSummary) HasFailures() bool {
	return s.Failed > 0
}

// Ingest loads a processed-case artifact into the review index. The
// artifact's mod time is recorded so an unchanged file is skipped on
// re-ingest; a changed artifact replaces its previous cases wholesale.
func (s *Store) Ingest(ctx context.Context, artifactPath string, w io.Writer) (IngestSummary, error) {
	info, err := os.Stat(artifactPath)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading artifact %s: %w", artifactPath, err)
	}
	modTime := info.ModTime().UTC().Format(time.RFC3339Nano)
	artifact := filepath.Base(artifactPath)

	var storedModTime string
	err = s.db.QueryRowContext(ctx,
		`SELECT file_mod_time FROM ingest_status WHERE artifact = ?`, artifact,
	).Scan(&storedModTime)

	if err == nil && storedModTime == modTime {
		fmt.Fprintf(w, "skipped %s (unchanged)\n", artifact)
		return IngestSummary{}, nil
	}
	isUpdate := err == nil

	cases, _, err := dataset.LoadCases(artifactPath)
	if err != nil {
		return IngestSummary{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cases`); err != nil {
			return IngestSummary{}, fmt.Errorf("clearing previous index: %w", err)
		}
	}

	var summary IngestSummary
	for _, c := range cases {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		if err := insertCase(ctx, tx, c); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", c.ReferenceID, err)
			summary.Failed++
			continue
		}
		fmt.Fprintf(w, "indexed %s\n", c.ReferenceID)
		summary.Indexed++
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ingest_status (artifact, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(artifact) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		artifact, modTime,
	); err != nil {
		return summary, fmt.Errorf("updating ingest status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing ingest: %w", err)
	}

	fmt.Fprintf(w, "\nindexed: %d, failed: %d\n", summary.Indexed, summary.Failed)
	return summary, nil
}

func insertCase(ctx context.Context, tx *sql.Tx, c types.Case) error {
	imagesJSON, _ := json.Marshal(c.ImagePaths)
	predJSON, _ := json.Marshal(c.PredictedDifferential)
	truthJSON, _ := json.Marshal(c.GroundTruthDifferential)

	res, err := tx.ExecContext(ctx,
		`INSERT INTO cases (id, reference_id, prompt, predicted_diagnosis,
			ground_truth_diagnosis, image_paths, predicted_differential,
			ground_truth_differential, similarity_variance, similarity_range)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ReferenceID, c.Prompt, c.PredictedDiagnosis,
		c.GroundTruthDiagnosis, string(imagesJSON), string(predJSON),
		string(truthJSON), c.SimilarityVariance, c.SimilarityRange,
	)
	if err != nil {
		return fmt.Errorf("inserting case: %w", err)
	}

	caseRowID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("resolving case rowid: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pairs (case_rowid, pair_id, predicted, ground_truth, similarity, normalized_similarity)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing pair insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range c.Pairs {
		if _, err := stmt.ExecContext(ctx,
			caseRowID, p.PairID, p.Predicted, p.GroundTruth,
			p.Similarity, p.NormalizedSimilarity,
		); err != nil {
			return fmt.Errorf("inserting pair %s: %w", p.PairID, err)
		}
	}
	return nil
}
