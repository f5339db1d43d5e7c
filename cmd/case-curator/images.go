// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/case-curator/internal/dataset"
	"github.com/pdiddy/case-curator/internal/images"
)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Manage the image files referenced by an artifact (collect, rewrite)",
	Long: `Images works with the files an artifact refers to. Use collect to copy
the referenced images into a distribution directory, or rewrite to
update the image paths stored in the artifact itself.`,
}

// --- collect subcommand ---

var imagesCollectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Copy referenced images into a target directory",
	Long: `Collect resolves every image referenced by the artifact by base filename
under the source directory and copies it into the target directory.
Missing images are counted and reported per case.`,
	RunE: runImagesCollect,
}

func runImagesCollect(cmd *cobra.Command, args []string) error {
	inPath, _ := cmd.Flags().GetString("input")
	sourceDir, _ := cmd.Flags().GetString("source")
	targetDir, _ := cmd.Flags().GetString("target")
	relocate, _ := cmd.Flags().GetBool("relocate")
	outPath, _ := cmd.Flags().GetString("output")

	cases, _, err := dataset.LoadCases(inPath)
	if err != nil {
		return err
	}

	summary, err := images.Collect(cases, sourceDir, targetDir, os.Stdout)
	if err != nil {
		return err
	}

	if relocate {
		if outPath == "" {
			outPath = inPath
		}
		images.RelocateToDir(cases, targetDir)
		if err := dataset.WriteCases(outPath, cases); err != nil {
			return err
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d image(s) failed to copy", summary.Failed)
	}
	return nil
}

// --- rewrite subcommand ---

var imagesRewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Rewrite the image path prefix stored in an artifact",
	RunE:  runImagesRewrite,
}

func runImagesRewrite(cmd *cobra.Command, args []string) error {
	inPath, _ := cmd.Flags().GetString("input")
	outPath, _ := cmd.Flags().GetString("output")
	oldPrefix, _ := cmd.Flags().GetString("old-prefix")
	newPrefix, _ := cmd.Flags().GetString("new-prefix")

	if oldPrefix == "" {
		return fmt.Errorf("--old-prefix is required")
	}

	cases, _, err := dataset.LoadCases(inPath)
	if err != nil {
		return err
	}

	n := images.RewritePrefix(cases, oldPrefix, newPrefix)

	if outPath == "" {
		outPath = inPath
	}
	if err := dataset.WriteCases(outPath, cases); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "rewrote %d path(s)\n", n)
	return nil
}

func init() {
	imagesCollectCmd.Flags().String("input", "data/cases.json", "processed-case artifact")
	imagesCollectCmd.Flags().String("source", "images", "directory holding the source image files")
	imagesCollectCmd.Flags().String("target", "data/images", "directory to copy images into")
	imagesCollectCmd.Flags().Bool("relocate", false, "rewrite artifact image paths to the target directory")
	imagesCollectCmd.Flags().String("output", "", "artifact to write when relocating (default: overwrite input)")

	imagesRewriteCmd.Flags().String("input", "data/cases.json", "processed-case artifact")
	imagesRewriteCmd.Flags().String("output", "", "artifact to write (default: overwrite input)")
	imagesRewriteCmd.Flags().String("old-prefix", "", "path prefix to replace")
	imagesRewriteCmd.Flags().String("new-prefix", "", "replacement prefix")

	imagesCmd.AddCommand(imagesCollectCmd)
	imagesCmd.AddCommand(imagesRewriteCmd)
	rootCmd.AddCommand(imagesCmd)
}
