package cli

import (
	"github.com/spf13/cobra"
)

var (
	outboxFrom  uint64
	outboxLimit int
)

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "List emitted instructions awaiting relay",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := provider.GetBackend()
		if err != nil {
			return err
		}
		entries, err := h.Outbox(cmd.Context(), outboxFrom, outboxLimit)
		if err != nil {
			return err
		}
		views := make([]outboxView, 0, len(entries))
		for _, e := range entries {
			views = append(views, outboxView{
				Sequence: e.Sequence,
				Height:   e.Height,
				Contract: e.Contract,
				Message:  viewMessage(e.Any()),
			})
		}
		return printJSON(cmd, views)
	},
}

type outboxView struct {
	Sequence uint64      `json:"sequence"`
	Height   uint64      `json:"height"`
	Contract string      `json:"contract"`
	Message  messageView `json:"message"`
}

func init() {
	outboxCmd.Flags().Uint64Var(&outboxFrom, "from", 0, "first sequence to list")
	outboxCmd.Flags().IntVar(&outboxLimit, "limit", 100, "maximum entries (0 for all)")
	rootCmd.AddCommand(outboxCmd)
}
