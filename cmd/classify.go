package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyloom/internal/ingest"
	"github.com/KaramelBytes/surveyloom/internal/survey"
	"github.com/KaramelBytes/surveyloom/internal/utils"
)

var (
	clsInput      inputFlags
	clsAllColumns bool
	clsWorkers    int
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file>",
	Short: "Classify the survey columns of a file and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := clsInput.options()
		if err != nil {
			return err
		}
		ds, _, err := ingest.Load(args[0], opt)
		if err != nil {
			return err
		}
		if !clsAllColumns {
			det, err := detector()
			if err != nil {
				return err
			}
			var matched bool
			if ds, matched = det.SurveyColumns(ds); !matched {
				fmt.Fprintln(cmd.ErrOrStderr(), "⚠ Warning: no survey columns detected; classifying all columns")
			}
		}
		agg := survey.Aggregator{Workers: clsWorkers, Logger: newLogger()}
		b, err := utils.PrettyJSON(agg.Aggregate(ds))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().BoolVar(&clsAllColumns, "all-columns", false, "classify every column instead of detected survey columns")
	classifyCmd.Flags().IntVar(&clsWorkers, "workers", 4, "columns classified concurrently")
	clsInput.register(classifyCmd)
}
