package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyloom/internal/store"
)

var (
	runsLimit int
	runsID    string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded analysis runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		if st == nil {
			return fmt.Errorf("run history is disabled (set store_driver and store_dsn)")
		}
		defer st.Close()

		w := cmd.OutOrStdout()
		if runsID != "" {
			r, err := st.GetRun(cmd.Context(), runsID)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("run %s not found", runsID)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "id: %s\nsource: %s\nstatus: %s\nmessage: %s\ncolumns: %d\ncompleteness: %.1f%%\ncreated: %s\n",
				r.ID, r.Source, r.Status, r.Message, r.TotalColumns, r.Completeness, r.CreatedAt.Format(time.RFC3339))
			if r.ResultJSON != "" {
				fmt.Fprintln(w, r.ResultJSON)
			}
			return nil
		}

		runs, err := st.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(w, "(no runs)")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tSOURCE\tCOLUMNS\tCHARTS\tCREATED")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.1f%%\t%s\n",
				r.ID, r.Status, r.Source, r.TotalColumns, r.Completeness, r.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	runsCmd.Flags().StringVar(&runsID, "id", "", "show one run with its stored result")
}
