package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	historyContract string
	historyLimit    int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent keeper runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		journal, err := provider.GetJournal()
		if err != nil {
			return err
		}
		runs, err := journal.Recent(cmd.Context(), historyContract, historyLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tHEIGHT\tRESULT\tFACTORS")
		for _, run := range runs {
			result := "success"
			if !run.OK() {
				result = run.ErrorKind
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				run.ID, run.StartedAt.Format(time.RFC3339), run.Duration.Round(time.Millisecond),
				run.Height, result, run.Factors)
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one keeper run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run id: %w", err)
		}
		journal, err := provider.GetJournal()
		if err != nil {
			return err
		}
		run, err := journal.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(cmd, run)
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyContract, "contract", "", "only runs against this contract")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to show")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
