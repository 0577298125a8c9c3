package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyloom/internal/pipeline"
	"github.com/KaramelBytes/surveyloom/internal/report"
	"github.com/KaramelBytes/surveyloom/internal/utils"
)

var (
	anaOutputPath string
	anaFormat     string
	anaExportDir  string
	anaInput      inputFlags
	anaFlags      analysisFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a survey XLSX/CSV/TSV and produce an insight report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("input file: %w", err)
		}
		log := newLogger()
		opt, cleanup, err := pipelineOptions(cmd.Context(), cmd, &anaInput, &anaFlags, log)
		if err != nil {
			return err
		}
		defer cleanup()
		opt.OutputDir = anaExportDir

		res, err := pipeline.Run(cmd.Context(), path, opt)
		if err != nil {
			return err
		}
		out, err := formatReport(res.Data, anaFormat)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		errw := cmd.ErrOrStderr()
		for _, warn := range res.Data.Warnings {
			fmt.Fprintf(errw, "⚠ Warning: %s\n", warn)
		}
		if res.Export != nil {
			fmt.Fprintf(errw, "✓ Exported package to %s (%s)\n", res.Export.Dir, res.Export.Zip)
			for kind, url := range res.Uploads {
				fmt.Fprintf(errw, "✓ Uploaded %s: %s\n", kind, url)
			}
		}
		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(w, "✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprintln(w, string(out))
		return nil
	},
}

// formatReport renders d as md, json or html.
func formatReport(d *report.Data, format string) ([]byte, error) {
	switch format {
	case "", "md", "markdown":
		return []byte(report.Markdown(d)), nil
	case "json":
		return utils.PrettyJSON(d)
	case "html":
		return report.Dashboard(d)
	default:
		return nil, fmt.Errorf("unsupported --format: %s (use md|json|html)", format)
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "md", "report format: md|json|html")
	analyzeCmd.Flags().StringVar(&anaExportDir, "export", "", "write the full package (dashboard, report, JSON, README, zip) to this directory")
	anaInput.register(analyzeCmd)
	anaFlags.register(analyzeCmd)
}
