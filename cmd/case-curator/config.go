// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/case-curator/pkg/types"
)

// Setting resolution order: an explicitly set flag wins, then the config
// file / environment via viper, then the built-in default.

func floatSetting(cmd *cobra.Command, flag, key string, fallback float64) float64 {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetFloat64(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetFloat64(key)
	}
	return fallback
}

func intSetting(cmd *cobra.Command, flag, key string, fallback int) int {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetInt(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return fallback
}

func boolSetting(cmd *cobra.Command, flag, key string, fallback bool) bool {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetBool(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return fallback
}

// pipelineConfig assembles the full stage configuration from flags, the
// config file, and the defaults.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()

	cfg.Match.Equivalence = floatSetting(cmd, "equivalence-threshold", "match.equivalence", cfg.Match.Equivalence)
	cfg.Match.MinScore = floatSetting(cmd, "min-match-score", "match.min_score", cfg.Match.MinScore)

	cfg.Pairs.SameThreshold = floatSetting(cmd, "same-threshold", "pairs.same_threshold", cfg.Pairs.SameThreshold)
	cfg.Pairs.OverlapThreshold = floatSetting(cmd, "overlap-threshold", "pairs.overlap_threshold", cfg.Pairs.OverlapThreshold)
	cfg.Pairs.RelaxedSameThreshold = floatSetting(cmd, "relaxed-same-threshold", "pairs.relaxed_same_threshold", cfg.Pairs.RelaxedSameThreshold)
	cfg.Pairs.RelaxedOverlapThreshold = floatSetting(cmd, "relaxed-overlap-threshold", "pairs.relaxed_overlap_threshold", cfg.Pairs.RelaxedOverlapThreshold)
	cfg.Pairs.UseMatrix = boolSetting(cmd, "use-matrix", "pairs.use_matrix", cfg.Pairs.UseMatrix)

	cfg.Validate.SameThreshold = floatSetting(cmd, "validate-same-threshold", "validate.same_threshold", cfg.Validate.SameThreshold)
	cfg.Validate.MinDispersion = floatSetting(cmd, "min-dispersion", "validate.min_dispersion", cfg.Validate.MinDispersion)

	cfg.Select.MaxCases = intSetting(cmd, "max-cases", "select.max_cases", cfg.Select.MaxCases)
	cfg.Select.Stratified = boolSetting(cmd, "stratified", "select.stratified", cfg.Select.Stratified)
	cfg.Select.DedupeImages = boolSetting(cmd, "dedupe-images", "select.dedupe_images", cfg.Select.DedupeImages)
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetInt64("seed")
		cfg.Select.Seed = seed
	} else if viper.IsSet("select.seed") {
		cfg.Select.Seed = viper.GetInt64("select.seed")
	}

	return cfg
}

// addSelectionFlags registers the flags shared by process and select.
func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-cases", 200, "maximum number of cases in the output pool (0 keeps all)")
	cmd.Flags().Bool("stratified", false, "use dispersion-tier stratified sampling instead of deterministic top-N")
	cmd.Flags().Bool("dedupe-images", false, "drop cases whose image sets repeat an earlier case's")
	cmd.Flags().Int64("seed", 0, "random seed for stratified sampling and shuffle fallbacks")
}
