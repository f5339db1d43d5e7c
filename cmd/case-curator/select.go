// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/case-curator/internal/dataset"
	"github.com/pdiddy/case-curator/internal/sample"
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Re-sample an existing artifact down to a bounded pool",
	Long: `Select applies the bounded selection stage to an existing artifact on
its own: optional image deduplication, then deterministic top-N by
dispersion or seeded stratified sampling across dispersion tiers.`,
	RunE: runSelect,
}

func runSelect(cmd *cobra.Command, args []string) error {
	inPath, _ := cmd.Flags().GetString("input")
	outPath, _ := cmd.Flags().GetString("output")

	cases, _, err := dataset.LoadCases(inPath)
	if err != nil {
		return err
	}
	total := len(cases)

	cfg := pipelineConfig(cmd)
	rng := rand.New(rand.NewSource(cfg.Select.Seed))

	deduped := 0
	if cfg.Select.DedupeImages {
		cases, deduped = sample.DedupeByImages(cases)
	}

	if cfg.Select.MaxCases > 0 && len(cases) > cfg.Select.MaxCases {
		if cfg.Select.Stratified {
			cases = sample.Stratified(cases, cfg.Select.MaxCases, rng)
		} else {
			cases = sample.TopN(cases, cfg.Select.MaxCases)
		}
	}

	for i := range cases {
		cases[i].ID = strconv.Itoa(i)
	}

	if err := dataset.WriteCases(outPath, cases); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "loaded: %d, deduplicated: %d, sampled: %d\n",
		total, deduped, len(cases))
	return nil
}

func init() {
	selectCmd.Flags().String("input", "data/cases.json", "processed-case artifact to sample")
	selectCmd.Flags().String("output", "data/cases-selected.json", "artifact to write with the sampled cases")
	addSelectionFlags(selectCmd)

	rootCmd.AddCommand(selectCmd)
}
