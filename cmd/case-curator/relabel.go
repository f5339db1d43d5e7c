// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/case-curator/internal/dataset"
	"github.com/pdiddy/case-curator/internal/pipeline"
)

var relabelCmd = &cobra.Command{
	Use:   "relabel",
	Short: "Refresh primary diagnoses from a newer evaluation export",
	Long: `Relabel joins an existing artifact against a newer evaluation export by
case id and replaces the predicted and ground-truth primary diagnoses of
every matched case. Unmatched cases pass through unchanged.`,
	RunE: runRelabel,
}

func runRelabel(cmd *cobra.Command, args []string) error {
	inPath, _ := cmd.Flags().GetString("input")
	evalPath, _ := cmd.Flags().GetString("eval")
	outPath, _ := cmd.Flags().GetString("output")

	cases, _, err := dataset.LoadCases(inPath)
	if err != nil {
		return err
	}
	evals, err := dataset.LoadEvaluation(evalPath)
	if err != nil {
		return err
	}

	updated := pipeline.Relabel(cases, evals)

	if err := dataset.WriteCases(outPath, cases); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "updated %d of %d cases\n", updated, len(cases))
	return nil
}

func init() {
	relabelCmd.Flags().String("input", "data/cases.json", "processed-case artifact to relabel")
	relabelCmd.Flags().String("eval", "data/evaluation.json", "newer evaluation export with refreshed diagnoses")
	relabelCmd.Flags().String("output", "data/cases-relabeled.json", "artifact to write")

	rootCmd.AddCommand(relabelCmd)
}
