// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/case-curator/internal/store"
	"github.com/pdiddy/case-curator/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the local review index (ingest, retrieve, export)",
	Long: `Store maintains a local SQLite review index built from a processed-case
artifact. Use subcommands to ingest an artifact, query the indexed
cases, or export them back out as JSON.`,
}

func storeConfig(cmd *cobra.Command) types.StoreConfig {
	reviewDir, _ := cmd.Flags().GetString("review-dir")
	if reviewDir == "" {
		reviewDir = "review"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return types.StoreConfig{
		ReviewDir:  reviewDir,
		MaxResults: maxResults,
	}
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a processed-case artifact into the review index",
	Long: `Ingest loads the artifact's cases into the SQLite review index with FTS5
indexing over prompts and diagnoses. An unchanged artifact is skipped on
subsequent runs; a changed one replaces the indexed cases.`,
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	artifact, _ := cmd.Flags().GetString("input")

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.Ingest(context.Background(), artifact, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d case(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var storeRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the review index with full-text search and filters",
	Long: `Retrieve searches the review index using FTS5 full-text search over
prompts and diagnoses, structured filters (case id, minimum dispersion),
or a combination of both.`,
	RunE: runStoreRetrieve,
}

func runStoreRetrieve(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	opts := store.QueryOptions{
		Query: strings.Join(args, " "),
	}
	opts.CaseID, _ = cmd.Flags().GetString("case")
	opts.MinDispersion, _ = cmd.Flags().GetFloat64("min-dispersion")
	opts.MaxResults, _ = cmd.Flags().GetInt("max-results")

	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --case, or --min-dispersion")
	}

	results, err := s.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []types.Case, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-12s  %-25s  %-25s  %-10s  %s\n",
		"Case", "Predicted", "Ground truth", "Variance", "Images")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))

	for _, c := range results {
		fmt.Fprintf(os.Stdout, "%-12s  %-25s  %-25s  %-10.4f  %d\n",
			c.ReferenceID, truncate(c.PredictedDiagnosis, 25),
			truncate(c.GroundTruthDiagnosis, 25),
			c.SimilarityVariance, len(c.ImagePaths))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the indexed cases back out as a JSON artifact",
	RunE:  runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	outPath, _ := cmd.Flags().GetString("output")

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.ExportJSON(context.Background(), outPath); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "exported to %s\n", outPath)
	return nil
}

func init() {
	storeCmd.PersistentFlags().String("review-dir", "review", "base directory for the review index (contains index/)")
	storeCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	storeIngestCmd.Flags().String("input", "data/cases.json", "processed-case artifact to ingest")

	storeRetrieveCmd.Flags().String("case", "", "filter by upstream case id")
	storeRetrieveCmd.Flags().Float64("min-dispersion", 0, "minimum similarity variance")
	storeRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	storeExportCmd.Flags().String("output", "data/cases-export.json", "artifact to write")

	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeRetrieveCmd)
	storeCmd.AddCommand(storeExportCmd)
	rootCmd.AddCommand(storeCmd)
}
