// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package images gathers the image files referenced by curated cases and
// rewrites case image paths for relocated datasets. The artifact refers
// to images by path; after curation those files usually need to move
// next to the artifact for distribution.
package images

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/case-curator/pkg/types"
)

// CollectSummary holds counts from an image collection run.
type CollectSummary struct {
	Copied  int
	Skipped int
	Missing int
	Failed  int
}

// Total returns the number of image references processed.
func (s CollectSummary) Total() int {
	return s.Copied + s.Skipped + s.Missing + s.Failed
}

// HasFailures reports whether any images were missing or failed to copy.
func (s CollectSummary) HasFailures() bool {
	return s.Missing > 0 || s.Failed > 0
}

// Collect copies every image referenced by the cases into targetDir,
// resolving each reference by base filename under sourceDir. Images
// already present in targetDir are skipped; missing sources are counted
// and reported, not fatal.
func Collect(cases []types.Case, sourceDir, targetDir string, w io.Writer) (CollectSummary, error) {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return CollectSummary{}, fmt.Errorf("creating target directory: %w", err)
	}

	var summary CollectSummary
	seen := make(map[string]bool)

	for _, c := range cases {
		for _, p := range c.ImagePaths {
			name := filepath.Base(p)
			if name == "." || name == string(filepath.Separator) || seen[name] {
				continue
			}
			seen[name] = true

			dst := filepath.Join(targetDir, name)
			if _, err := os.Stat(dst); err == nil {
				fmt.Fprintf(w, "skipped %s\n", name)
				summary.Skipped++
				continue
			}

			src := filepath.Join(sourceDir, name)
			if _, err := os.Stat(src); err != nil {
				fmt.Fprintf(w, "missing %s (case %s)\n", name, c.ReferenceID)
				summary.Missing++
				continue
			}

			if err := copyFile(src, dst); err != nil {
				fmt.Fprintf(w, "failed  %s: %v\n", name, err)
				summary.Failed++
				continue
			}
			fmt.Fprintf(w, "copied  %s\n", name)
			summary.Copied++
		}
	}

	fmt.Fprintf(w, "\ncopied: %d, skipped: %d, missing: %d, failed: %d\n",
		summary.Copied, summary.Skipped, summary.Missing, summary.Failed)
	return summary, nil
}

// copyFile copies src to dst through a temp file in dst's directory so a
// failed copy never leaves a partial image behind.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".img-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, in)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("copying: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// RewritePrefix replaces oldPrefix with newPrefix on every image path
// that carries it. It returns the number of paths rewritten.
func RewritePrefix(cases []types.Case, oldPrefix, newPrefix string) int {
	if oldPrefix == "" {
		return 0
	}
	rewritten := 0
	for i := range cases {
		for j, p := range cases[i].ImagePaths {
			if strings.HasPrefix(p, oldPrefix) {
				cases[i].ImagePaths[j] = newPrefix + strings.TrimPrefix(p, oldPrefix)
				rewritten++
			}
		}
	}
	return rewritten
}

// RelocateToDir rewrites every image path to dir/basename, matching the
// layout Collect produces. It returns the number of paths rewritten.
func RelocateToDir(cases []types.Case, dir string) int {
	rewritten := 0
	for i := range cases {
		for j, p := range cases[i].ImagePaths {
			cases[i].ImagePaths[j] = filepath.Join(dir, filepath.Base(p))
			rewritten++
		}
	}
	return rewritten
}
