package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var keeperOnce bool

var keeperCmd = &cobra.Command{
	Use:   "keeper",
	Short: "Recalibrate the configured contract on a schedule",
	Long: `Start the keeper: every keeper.schedule tick it signs and submits
{"update_scaling_factor":{}} to keeper.contract, journals the run and exports
Prometheus metrics on keeper.metrics_addr. Stops on SIGINT or SIGTERM.

With --once a single run is performed and printed.`,
	Args: cobra.NoArgs,
	RunE: runKeeper,
}

func init() {
	keeperCmd.Flags().BoolVar(&keeperOnce, "once", false, "perform a single run and exit")
	rootCmd.AddCommand(keeperCmd)
}

func runKeeper(cmd *cobra.Command, args []string) error {
	if cfg.Keeper.Contract == "" {
		return errors.New("keeper.contract is not set")
	}
	k, err := provider.GetKeeper()
	if err != nil {
		return err
	}

	if keeperOnce {
		run, err := k.RunOnce(cmd.Context())
		if perr := printJSON(cmd, run); perr != nil {
			return perr
		}
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := k.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("keeper exited", zap.Error(err))
		return err
	}
	return nil
}
