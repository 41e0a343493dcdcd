package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SCALINGD_HOST_CHAIN_ID.
const EnvPrefix = "SCALINGD"

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values
// 2. Configuration file, when paths.Main exists
// 3. Environment variables (SCALINGD_ prefix)
// Relative storage and journal paths are resolved against paths.Home.
func LoadConfig(paths ConfigPaths) (*Config, error) {
	v := viper.New()

	// 1. Set defaults first
	setDefaults(v)

	// 2. Load main configuration file
	found, err := loadMainConfig(v, paths.Main)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	// 3. Set up environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Unmarshal main config into struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if found {
		config.configPath = paths.Main
	}

	resolvePaths(&config, paths.Home)

	// 5. Validate the complete configuration
	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// loadMainConfig reads configPath. A missing file is not an error: the
// defaults and environment are enough to run.
func loadMainConfig(v *viper.Viper, configPath string) (bool, error) {
	if configPath == "" {
		return false, nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return false, nil
	}

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return false, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	return true, nil
}

func resolvePaths(config *Config, home string) {
	if home == "" {
		return
	}
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(home, config.Storage.Path)
	}
	if !strings.HasPrefix(config.Journal.Driver, "postgres") && config.Journal.ConnectionString == "" &&
		config.Journal.Database != "" && !filepath.IsAbs(config.Journal.Database) {
		config.Journal.Database = filepath.Join(home, config.Journal.Database)
	}
}

// LoadConfigFromDir loads configuration from a directory containing scalingd.toml
func LoadConfigFromDir(configDir string) (*Config, error) {
	return LoadConfig(ConfigPathsFromDir(configDir))
}

// ReloadConfig reloads configuration from the same paths
func ReloadConfig(existingConfig *Config, home string) (*Config, error) {
	return LoadConfig(ConfigPaths{Main: existingConfig.GetConfigPath(), Home: home})
}

// SaveExampleConfig saves an example configuration file
func SaveExampleConfig(configPath string) error {
	v := viper.New()
	for key, value := range generateExampleConfig() {
		v.Set(key, value)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	v.SetConfigFile(configPath)
	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write example config: %w", err)
	}
	return nil
}

// generateExampleConfig generates example configuration values
func generateExampleConfig() map[string]interface{} {
	return map[string]interface{}{
		"storage.backend":     "pebble",
		"storage.path":        "data/state",
		"storage.compression": "lz4",

		"host.chain_id":           "scalingd-1",
		"host.address_cache_size": 1024,

		"hub.endpoint": "https://lcd.osmosis.zone",
		"hub.timeout":  "10s",

		"keeper.contract":     "",
		"keeper.schedule":     "@every 10m",
		"keeper.run_timeout":  "30s",
		"keeper.metrics_addr": "127.0.0.1:9464",
		"keeper.key_file":     "keeper.key",

		"journal.driver":   "sqlite",
		"journal.database": "data/journal.sqlite",

		"grpc.address": "127.0.0.1:50051",
		"grpc.remote":  "",

		"stream.address":       "127.0.0.1:6006",
		"stream.poll_interval": "2s",

		"logging.level":  "info",
		"logging.format": "console",
	}
}
