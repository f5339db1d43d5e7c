// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/case-curator/internal/dataset"
	"github.com/pdiddy/case-curator/internal/validate"
	"github.com/pdiddy/case-curator/pkg/types"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Validate an existing processed-case artifact",
	Long: `Filter re-runs case validation over an existing artifact, writes the
cases that still pass, and reports every rejection reason with counts.
The raw JSON is scanned directly, so null values survive into the check
even where a typed load would erase them.`,
	RunE: runFilter,
}

func runFilter(cmd *cobra.Command, args []string) error {
	inPath, _ := cmd.Flags().GetString("input")
	outPath, _ := cmd.Flags().GetString("output")
	rejectsPath, _ := cmd.Flags().GetString("rejects")

	cases, raw, err := dataset.LoadCases(inPath)
	if err != nil {
		return err
	}

	cfg := pipelineConfig(cmd)

	var kept []types.Case
	var rejected []types.RejectedCase
	reasons := make(map[string]int)

	for i, c := range cases {
		check := validate.CheckRaw(c, raw[i], cfg.Validate)
		if check.OK {
			fmt.Fprintf(os.Stdout, "accepted %s\n", c.ReferenceID)
			kept = append(kept, c)
			continue
		}
		fmt.Fprintf(os.Stdout, "rejected %s: %s\n", c.ReferenceID, check.Reasons[0])
		for _, reason := range check.Reasons {
			reasons[reason]++
		}
		rejected = append(rejected, types.RejectedCase{
			CaseID:               c.ReferenceID,
			Reasons:              check.Reasons,
			PredictedDiagnosis:   c.PredictedDiagnosis,
			GroundTruthDiagnosis: c.GroundTruthDiagnosis,
		})
	}

	if err := dataset.WriteCases(outPath, kept); err != nil {
		return err
	}
	if rejectsPath != "" {
		if err := writeRejects(rejectsPath, rejected); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stdout, "\naccepted: %d, rejected: %d\n", len(kept), len(rejected))
	if len(reasons) > 0 {
		keys := make([]string, 0, len(reasons))
		for k := range reasons {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(os.Stdout, "  %4d  %s\n", reasons[k], k)
		}
	}
	return nil
}

func init() {
	filterCmd.Flags().String("input", "data/cases.json", "processed-case artifact to validate")
	filterCmd.Flags().String("output", "data/cases-filtered.json", "artifact to write with the passing cases")
	filterCmd.Flags().String("rejects", "", "rejected-case report JSON to write")
	filterCmd.Flags().Float64("validate-same-threshold", 0.9, "same-condition threshold for primary-diagnosis validation")
	filterCmd.Flags().Float64("min-dispersion", 0, "minimum similarity variance per case (0 disables)")

	rootCmd.AddCommand(filterCmd)
}
