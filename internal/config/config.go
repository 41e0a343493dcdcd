package config

import (
	"path/filepath"
	"time"

	"github.com/LeJamon/goScalingd/internal/grpc"
	"github.com/LeJamon/goScalingd/internal/storage/relationaldb"
)

// Config represents the complete scalingd configuration
type Config struct {
	Storage StorageConfig       `toml:"storage" mapstructure:"storage"`
	Host    HostConfig          `toml:"host" mapstructure:"host"`
	Hub     HubConfig           `toml:"hub" mapstructure:"hub"`
	Keeper  KeeperConfig        `toml:"keeper" mapstructure:"keeper"`
	Journal relationaldb.Config `toml:"journal" mapstructure:"journal"`
	GRPC    GRPCConfig          `toml:"grpc" mapstructure:"grpc"`
	Stream  StreamConfig        `toml:"stream" mapstructure:"stream"`
	Logging LoggingConfig       `toml:"logging" mapstructure:"logging"`

	// Internal fields
	configPath string
}

// StorageConfig selects the key-value backend holding contract state
type StorageConfig struct {
	Backend string `toml:"backend" mapstructure:"backend"`
	Path    string `toml:"path" mapstructure:"path"`
	// Compression names the value compressor ("lz4" or "none")
	Compression string `toml:"compression" mapstructure:"compression"`
}

// HostConfig tunes the contract host
type HostConfig struct {
	ChainID          string `toml:"chain_id" mapstructure:"chain_id"`
	AddressCacheSize int    `toml:"address_cache_size" mapstructure:"address_cache_size"`
}

// HubConfig points at the LCD endpoint serving the hub's state. When
// StaticRate is set no request is made and every query answers with it.
type HubConfig struct {
	Endpoint   string        `toml:"endpoint" mapstructure:"endpoint"`
	Timeout    time.Duration `toml:"timeout" mapstructure:"timeout"`
	StaticRate string        `toml:"static_rate" mapstructure:"static_rate"`
}

// KeeperConfig drives the periodic recalibration
type KeeperConfig struct {
	Contract    string        `toml:"contract" mapstructure:"contract"`
	Schedule    string        `toml:"schedule" mapstructure:"schedule"`
	RunTimeout  time.Duration `toml:"run_timeout" mapstructure:"run_timeout"`
	MetricsAddr string        `toml:"metrics_addr" mapstructure:"metrics_addr"`
	// KeyFile holds the hex private key signing keeper calls
	KeyFile string `toml:"key_file" mapstructure:"key_file"`
}

// GRPCConfig configures the host API served by "scalingd serve". When
// Remote is set, commands dial it instead of opening the store.
type GRPCConfig struct {
	Address        string `toml:"address" mapstructure:"address"`
	MaxRecvMsgSize int    `toml:"max_recv_msg_size" mapstructure:"max_recv_msg_size"`
	MaxSendMsgSize int    `toml:"max_send_msg_size" mapstructure:"max_send_msg_size"`
	Remote         string `toml:"remote" mapstructure:"remote"`
}

// Server returns the listener settings in the form the grpc package takes.
func (g GRPCConfig) Server() *grpc.ServerConfig {
	return &grpc.ServerConfig{
		Address:        g.Address,
		MaxRecvMsgSize: g.MaxRecvMsgSize,
		MaxSendMsgSize: g.MaxSendMsgSize,
	}
}

// StreamConfig configures the WebSocket outbox stream run by "scalingd
// serve". An empty Address disables it.
type StreamConfig struct {
	Address      string        `toml:"address" mapstructure:"address"`
	PollInterval time.Duration `toml:"poll_interval" mapstructure:"poll_interval"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"`
}

// ConfigPaths holds the paths to configuration files
type ConfigPaths struct {
	Main string
	Home string
}

// DefaultConfigPaths returns the default configuration file paths
func DefaultConfigPaths() ConfigPaths {
	return ConfigPathsFromDir(".")
}

// ConfigPathsFromDir returns configuration paths for a specific directory
func ConfigPathsFromDir(configDir string) ConfigPaths {
	return ConfigPaths{
		Main: filepath.Join(configDir, "scalingd.toml"),
		Home: configDir,
	}
}

// GetConfigPath returns the path of the file the config was read from, if any
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// KeyPath resolves the keeper key file against home.
func (c *Config) KeyPath(home string) string {
	if c.Keeper.KeyFile == "" || filepath.IsAbs(c.Keeper.KeyFile) {
		return c.Keeper.KeyFile
	}
	return filepath.Join(home, c.Keeper.KeyFile)
}
