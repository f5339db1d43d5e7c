// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/case-curator/internal/dataset"
	"github.com/pdiddy/case-curator/internal/pipeline"
	"github.com/pdiddy/case-curator/pkg/types"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the full curation pipeline over an evaluation export",
	Long: `Process joins an evaluation export against its reference dataset,
selects two contrastive diagnosis pairs per case, validates every
assembled case, samples the survivors down to the configured pool size,
and writes the processed-case JSON artifact plus a YAML run manifest.`,
	RunE: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	evalPath, _ := cmd.Flags().GetString("eval")
	refPath, _ := cmd.Flags().GetString("reference")
	outPath, _ := cmd.Flags().GetString("output")
	manifestPath, _ := cmd.Flags().GetString("manifest")
	rejectsPath, _ := cmd.Flags().GetString("rejects")

	evals, err := dataset.LoadEvaluation(evalPath)
	if err != nil {
		return err
	}
	refs, err := dataset.LoadReferences(refPath)
	if err != nil {
		return err
	}

	cfg := pipelineConfig(cmd)
	rng := rand.New(rand.NewSource(cfg.Select.Seed))

	result, err := pipeline.Run(evals, refs, cfg, rng, os.Stdout)
	if err != nil {
		return err
	}

	if err := dataset.WriteCases(outPath, result.Cases); err != nil {
		return err
	}

	if manifestPath != "" {
		m := pipeline.NewManifest(cfg, result.Summary)
		if err := pipeline.WriteManifest(manifestPath, m); err != nil {
			return err
		}
	}

	if rejectsPath != "" {
		if err := writeRejects(rejectsPath, result.Rejected); err != nil {
			return err
		}
	}

	s := result.Summary
	fmt.Fprintf(os.Stdout, "\nprocessed: %d, matched: %d, unmatched: %d, accepted: %d, rejected: %d, sampled: %d\n",
		s.Total(), s.Matched, s.Unmatched, s.Accepted, s.Rejected, s.Sampled)
	return nil
}

func writeRejects(path string, rejected []types.RejectedCase) error {
	if rejected == nil {
		rejected = []types.RejectedCase{}
	}
	data, err := json.MarshalIndent(rejected, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling rejected cases: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing rejected cases %s: %w", path, err)
	}
	return nil
}

func init() {
	processCmd.Flags().String("eval", "data/evaluation.json", "evaluation export to process")
	processCmd.Flags().String("reference", "data/reference.json", "reference dataset with images, prompts, and labels")
	processCmd.Flags().String("output", "data/cases.json", "processed-case artifact to write")
	processCmd.Flags().String("manifest", "", "run manifest YAML to write alongside the artifact")
	processCmd.Flags().String("rejects", "", "rejected-case report JSON to write")

	processCmd.Flags().Float64("equivalence-threshold", 0.9, "token-overlap threshold for label equivalence voting")
	processCmd.Flags().Float64("min-match-score", 0.5, "minimum vote fraction for a content-based reference match")
	processCmd.Flags().Float64("same-threshold", 0.85, "strict same-condition threshold for pair filtering")
	processCmd.Flags().Float64("overlap-threshold", 0.70, "loose content-overlap threshold for pair filtering")
	processCmd.Flags().Float64("relaxed-same-threshold", 0.95, "same-condition threshold for the relaxed retry pass")
	processCmd.Flags().Float64("relaxed-overlap-threshold", 0.80, "content-overlap threshold for the relaxed retry pass")
	processCmd.Flags().Bool("use-matrix", true, "consult the model similarity matrix before the lexical scorer")
	processCmd.Flags().Float64("validate-same-threshold", 0.9, "same-condition threshold for primary-diagnosis validation")
	processCmd.Flags().Float64("min-dispersion", 0, "minimum similarity variance per case (0 disables)")
	addSelectionFlags(processCmd)

	rootCmd.AddCommand(processCmd)
}
