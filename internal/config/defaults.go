package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/LeJamon/goScalingd/internal/grpc"
	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb"
	"github.com/LeJamon/goScalingd/internal/storage/relationaldb"
)

// setDefaults sets all default values
func setDefaults(v *viper.Viper) {
	// Storage
	v.SetDefault("storage.backend", keyValueDb.BackendPebble)
	v.SetDefault("storage.path", "data/state")
	v.SetDefault("storage.compression", "lz4")

	// Host
	v.SetDefault("host.chain_id", "scalingd-1")
	v.SetDefault("host.address_cache_size", 1024)

	// Hub
	v.SetDefault("hub.endpoint", "https://lcd.osmosis.zone")
	v.SetDefault("hub.timeout", 10*time.Second)
	v.SetDefault("hub.static_rate", "")

	// Keeper
	v.SetDefault("keeper.contract", "")
	v.SetDefault("keeper.schedule", "@every 10m")
	v.SetDefault("keeper.run_timeout", 30*time.Second)
	v.SetDefault("keeper.metrics_addr", "127.0.0.1:9464")
	v.SetDefault("keeper.key_file", "keeper.key")

	// Journal
	journal := relationaldb.NewConfig()
	v.SetDefault("journal.driver", journal.Driver)
	v.SetDefault("journal.connection_string", "")
	v.SetDefault("journal.host", journal.Host)
	v.SetDefault("journal.port", journal.Port)
	v.SetDefault("journal.database", "data/journal.sqlite")
	v.SetDefault("journal.username", journal.Username)
	v.SetDefault("journal.password", "")
	v.SetDefault("journal.ssl_mode", journal.SSLMode)
	v.SetDefault("journal.max_open_conns", journal.MaxOpenConns)
	v.SetDefault("journal.max_idle_conns", journal.MaxIdleConns)
	v.SetDefault("journal.conn_max_lifetime", journal.ConnMaxLifetime)
	v.SetDefault("journal.default_timeout", journal.DefaultTimeout)
	v.SetDefault("journal.enable_wal_mode", journal.EnableWALMode)

	// gRPC
	grpcDefaults := grpc.DefaultServerConfig()
	v.SetDefault("grpc.address", grpcDefaults.Address)
	v.SetDefault("grpc.max_recv_msg_size", grpcDefaults.MaxRecvMsgSize)
	v.SetDefault("grpc.max_send_msg_size", grpcDefaults.MaxSendMsgSize)
	v.SetDefault("grpc.remote", "")

	// Outbox stream
	v.SetDefault("stream.address", "127.0.0.1:6006")
	v.SetDefault("stream.poll_interval", 2*time.Second)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}
