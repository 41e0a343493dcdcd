package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/LeJamon/goScalingd/internal/core/decimal"
	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb"
	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb/compression"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := validateStorage(&config.Storage); err != nil {
		return fmt.Errorf("storage config validation failed: %w", err)
	}
	if err := validateHost(&config.Host); err != nil {
		return fmt.Errorf("host config validation failed: %w", err)
	}
	if err := validateHub(&config.Hub); err != nil {
		return fmt.Errorf("hub config validation failed: %w", err)
	}
	if err := validateKeeper(&config.Keeper); err != nil {
		return fmt.Errorf("keeper config validation failed: %w", err)
	}
	if err := config.Journal.Validate(); err != nil {
		return fmt.Errorf("journal validation failed: %w", err)
	}
	if err := config.GRPC.Server().Validate(); err != nil {
		return fmt.Errorf("grpc config validation failed: %w", err)
	}
	if strings.Contains(config.GRPC.Remote, "://") {
		return fmt.Errorf("grpc config validation failed: remote must be host:port, got %s", config.GRPC.Remote)
	}
	if err := validateStream(&config.Stream); err != nil {
		return fmt.Errorf("stream config validation failed: %w", err)
	}
	if err := validateLogging(&config.Logging); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}
	return nil
}

func validateStorage(s *StorageConfig) error {
	if _, err := compression.Get(s.Compression); err != nil {
		return fmt.Errorf("invalid compression: %w (valid: %s)", err, strings.Join(compression.Available(), ", "))
	}
	switch strings.ToLower(s.Backend) {
	case keyValueDb.BackendMemory:
		return nil
	case keyValueDb.BackendPebble, keyValueDb.BackendLevelDB:
		if s.Path == "" {
			return fmt.Errorf("path is required for backend %s", s.Backend)
		}
		return nil
	default:
		return fmt.Errorf("invalid backend: %s (valid: pebble, leveldb, memory)", s.Backend)
	}
}

func validateHost(h *HostConfig) error {
	if h.ChainID == "" {
		return fmt.Errorf("chain_id is required")
	}
	if h.AddressCacheSize <= 0 {
		return fmt.Errorf("address_cache_size must be positive, got %d", h.AddressCacheSize)
	}
	return nil
}

func validateHub(h *HubConfig) error {
	if h.StaticRate != "" {
		rate, err := decimal.FromString(h.StaticRate)
		if err != nil {
			return fmt.Errorf("invalid static_rate %q: %w", h.StaticRate, err)
		}
		if rate.IsZero() {
			return fmt.Errorf("static_rate must be positive")
		}
		return nil
	}
	if h.Endpoint == "" {
		return fmt.Errorf("endpoint is required when static_rate is unset")
	}
	if !strings.HasPrefix(h.Endpoint, "http://") && !strings.HasPrefix(h.Endpoint, "https://") {
		return fmt.Errorf("endpoint must be an http(s) URL, got %s", h.Endpoint)
	}
	if h.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// validateKeeper checks the schedule only. The contract address is required
// when the keeper actually runs, not to load the file.
func validateKeeper(k *KeeperConfig) error {
	if _, err := cron.ParseStandard(k.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", k.Schedule, err)
	}
	if k.RunTimeout <= 0 {
		return fmt.Errorf("run_timeout must be positive")
	}
	return nil
}

func validateStream(s *StreamConfig) error {
	if s.Address == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(s.Address); err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	if s.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	return nil
}

func validateLogging(l *LoggingConfig) error {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid level: %s (valid: debug, info, warn, error)", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid format: %s (valid: console, json)", l.Format)
	}
	return nil
}
