package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goScalingd/internal/grpc"
	"github.com/LeJamon/goScalingd/internal/keeper"
	"github.com/LeJamon/goScalingd/internal/rpc"
)

var serveKeeper bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the contract host over gRPC",
	Long: `Open the store and serve the host API on grpc.address so other
scalingd invocations can reach it with --remote while this process holds the
store lock. Emitted instructions are streamed to relayers over WebSocket
at ws://<stream.address>/outbox. With --keeper the scheduled recalibration
runs in the same process. Stops on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveKeeper, "keeper", false, "also run the keeper")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if provider.IsRemote() {
		return errors.New("serve opens the local store; unset --remote and grpc.remote")
	}
	h, err := provider.GetHost()
	if err != nil {
		return err
	}
	srv, err := grpc.NewServer(cfg.GRPC.Server(), h, logger)
	if err != nil {
		return err
	}

	var k *keeper.Keeper
	if serveKeeper {
		if cfg.Keeper.Contract == "" {
			return errors.New("keeper.contract is not set")
		}
		if k, err = provider.GetKeeper(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return srv.Start(ctx) })
	if cfg.Stream.Address != "" {
		stream := rpc.NewWebSocketServer(h, cfg.Stream.PollInterval, logger)
		g.Go(func() error { return stream.Start(ctx, cfg.Stream.Address) })
	}
	if k != nil {
		g.Go(func() error { return k.Start(ctx) })
	}

	logger.Info("serving", zap.String("addr", cfg.GRPC.Address), zap.Bool("keeper", serveKeeper))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("serve exited", zap.Error(err))
		return err
	}
	return nil
}
