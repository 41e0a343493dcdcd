package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeJamon/goScalingd/internal/config"
	"github.com/LeJamon/goScalingd/internal/di"
	"github.com/LeJamon/goScalingd/internal/logging"
)

var (
	// Global flags
	configFile string
	homeDir    string
	keyFile    string
	remote     string
	debug      bool
)

// Set up by PersistentPreRunE for every command not marked standalone.
var (
	cfg      *config.Config
	logger   *zap.Logger
	provider *di.Provider
)

// standalone marks commands that run without config or services.
const standalone = "standalone"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scalingd",
	Short: "scalingd - stableswap scaling factor keeper",
	Long: `scalingd hosts the scaling factor contract of a liquid staking pool.

The contract reads the hub's exchange rate and emits the matching
MsgStableSwapAdjustScalingFactors instruction for the pool. Calls are signed
envelopes committed atomically to a local key-value store; emitted
instructions are kept in an outbox for relaying. The keeper command drives
the recalibration on a schedule.`,
	Version:           "0.1.0-dev",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_ = teardown()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path (default <home>/scalingd.toml)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "data directory (default $HOME/.scalingd)")
	rootCmd.PersistentFlags().StringVar(&keyFile, "key", "", "signing key file (overrides keeper.key_file)")
	rootCmd.PersistentFlags().StringVar(&remote, "remote", "", "host:port of a running scalingd serve (overrides grpc.remote)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
}

func resolveHome() (string, error) {
	if homeDir != "" {
		return homeDir, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(userHome, ".scalingd"), nil
}

func configPaths(home string) config.ConfigPaths {
	paths := config.ConfigPathsFromDir(home)
	if configFile != "" {
		paths.Main = configFile
	}
	return paths
}

// setup loads <home>/.env, the configuration and the logger, and registers
// the services. Nothing is opened until a command asks for it.
func setup(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[standalone] == "true" {
		return nil
	}

	home, err := resolveHome()
	if err != nil {
		return err
	}
	homeDir = home

	if err := godotenv.Load(filepath.Join(home, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
	}
	cfg, err = config.LoadConfig(configPaths(home))
	if err != nil {
		return err
	}
	if keyFile != "" {
		cfg.Keeper.KeyFile = keyFile
	}
	if remote != "" {
		cfg.GRPC.Remote = remote
	}

	logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format, debug)
	if err != nil {
		return err
	}
	logger.Debug("configuration loaded",
		zap.String("home", home),
		zap.String("file", cfg.GetConfigPath()),
		zap.String("backend", cfg.Storage.Backend),
		zap.String("remote", cfg.GRPC.Remote))

	provider = di.NewProvider(di.New(), cfg, home)
	return provider.RegisterAll(logger)
}

func teardown() error {
	var err error
	if provider != nil {
		err = provider.Close()
		provider = nil
	}
	if logger != nil {
		_ = logger.Sync()
		logger = nil
	}
	return err
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
