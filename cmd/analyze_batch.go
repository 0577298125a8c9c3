package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyloom/internal/pipeline"
	"github.com/KaramelBytes/surveyloom/internal/utils"
)

var (
	abExportDir string
	abQuiet     bool
	abContinue  bool
	abInput     inputFlags
	abFlags     analysisFlags
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple survey files with progress, exporting one package per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		exportRoot := abExportDir
		if exportRoot == "" {
			exportRoot = settings().OutputDir
		}

		log := newLogger()
		opt, cleanup, err := pipelineOptions(cmd.Context(), cmd, &abInput, &abFlags, log)
		if err != nil {
			return err
		}
		defer cleanup()

		w := cmd.OutOrStdout()
		total := len(files)
		failed := 0
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(w, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			dir := uniqueExportDir(exportRoot, utils.BaseName(path))
			if dir != filepath.Join(exportRoot, utils.BaseName(path)) && !abQuiet {
				fmt.Fprintf(w, "⚠ Detected existing export, writing to %s to avoid overwrite.\n", filepath.Base(dir))
			}
			fopt := opt
			fopt.OutputDir = dir
			res, err := pipeline.Run(cmd.Context(), path, fopt)
			if err != nil {
				if !abContinue {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ Error: %s: %v\n", filepath.Base(path), err)
				continue
			}
			if !abQuiet {
				dq := res.Data.Insights.DataQualityAssessment
				fmt.Fprintf(w, "✓ %s: %d columns, %.1f%% charts, exported to %s\n",
					filepath.Base(path), res.Data.Classification.TotalColumns, dq.AnalysisCompleteness, res.Export.Zip)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, total)
		}
		return nil
	},
}

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// uniqueExportDir returns root/base, or root/base__N when that is taken.
func uniqueExportDir(root, base string) string {
	dir := filepath.Join(root, base)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return dir
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(root, fmt.Sprintf("%s__%d", base, idx))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
	}
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abExportDir, "export", "", "root directory for per-file packages (default: config output_dir)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
	analyzeBatchCmd.Flags().BoolVar(&abContinue, "keep-going", false, "continue with the next file when one fails")
	abInput.register(analyzeBatchCmd)
	abFlags.register(analyzeBatchCmd)
}
