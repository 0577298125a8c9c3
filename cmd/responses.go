package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyloom/internal/ingest"
	"github.com/KaramelBytes/surveyloom/internal/responses"
	"github.com/KaramelBytes/surveyloom/internal/survey"
	"github.com/KaramelBytes/surveyloom/internal/utils"
)

var (
	respInput   inputFlags
	respColumns []string
	respNoAI    bool
)

var responsesCmd = &cobra.Command{
	Use:   "responses <file>",
	Short: "Classify open answers as affirmative, negative or other",
	Long: `Classifies each distinct answer of the selected columns. Without --column,
every problem/difficulty question is classified. An AI provider is used when
configured; keyword rules are the fallback.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := respInput.options()
		if err != nil {
			return err
		}
		ds, _, err := ingest.Load(args[0], opt)
		if err != nil {
			return err
		}
		cols, err := selectColumns(ds, respColumns)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			return fmt.Errorf("no problem/difficulty questions found; pass --column")
		}

		log := newLogger()
		var clf *responses.Classifier
		if respNoAI {
			clf = newClassifier(nil, log)
		} else {
			clf = newClassifier(newRuntime(), log)
		}
		var out []responses.Summary
		for _, c := range cols {
			out = append(out, clf.ClassifyQuestion(cmd.Context(), c.Name, c.Values))
		}
		b, err := utils.PrettyJSON(out)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

// selectColumns matches names exactly, then case-insensitively. An empty
// request selects the columns that need response classification.
func selectColumns(ds *survey.Dataset, names []string) ([]survey.Column, error) {
	if len(names) == 0 {
		var out []survey.Column
		for _, c := range ds.Columns() {
			if responses.NeedsClassification(c.Name) {
				out = append(out, c)
			}
		}
		return out, nil
	}
	var out []survey.Column
	for _, want := range names {
		found := false
		for _, c := range ds.Columns() {
			if c.Name == want || strings.EqualFold(c.Name, want) {
				out = append(out, c)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("column %q not found (have: %s)", want, strings.Join(ds.Names(), ", "))
		}
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(responsesCmd)
	responsesCmd.Flags().StringSliceVar(&respColumns, "column", nil, "column to classify (repeatable)")
	responsesCmd.Flags().BoolVar(&respNoAI, "no-ai", false, "use keyword rules only")
	respInput.register(responsesCmd)
}
