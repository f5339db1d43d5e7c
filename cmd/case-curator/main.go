// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the case-curator CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the case-curator CLI.
var rootCmd = &cobra.Command{
	Use:   "case-curator",
	Short: "Curate contrastive diagnosis cases from evaluation exports",
	Long: `case-curator reconciles medical-image evaluation exports against their
reference dataset and assembles a curated pool of diagnosis cases, each
carrying two contrastive predicted/ground-truth diagnosis pairs.

Each curation stage is a subcommand: process runs the full pipeline,
filter validates an existing artifact, select re-samples one, relabel
refreshes primary diagnoses, images manages the referenced files, and
store maintains a local review index.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./case-curator.yaml or ~/.config/case-curator/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("case-curator")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "case-curator"))
		}
	}

	viper.SetEnvPrefix("CASE_CURATOR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
