package di

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/LeJamon/goScalingd/internal/config"
	"github.com/LeJamon/goScalingd/internal/core/contract"
	"github.com/LeJamon/goScalingd/internal/core/decimal"
	"github.com/LeJamon/goScalingd/internal/core/hub"
	"github.com/LeJamon/goScalingd/internal/crypto/identity"
	"github.com/LeJamon/goScalingd/internal/grpc"
	"github.com/LeJamon/goScalingd/internal/host"
	"github.com/LeJamon/goScalingd/internal/keeper"
	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb"
	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb/compression"
	"github.com/LeJamon/goScalingd/internal/storage/relationaldb"

	// Backends register themselves with keyValueDb.Open.
	_ "github.com/LeJamon/goScalingd/internal/storage/keyValueDb/leveldb"
	_ "github.com/LeJamon/goScalingd/internal/storage/keyValueDb/memory"
	_ "github.com/LeJamon/goScalingd/internal/storage/keyValueDb/pebble"
)

// stateDBName is the database holding host and contract state.
const stateDBName = "state"

// dialTimeout bounds connecting to a remote host.
const dialTimeout = 10 * time.Second

// Provider configures and registers services in the container.
type Provider struct {
	container *Container
	config    *config.Config
	home      string
}

// NewProvider creates a new service provider. home resolves the keeper key
// file.
func NewProvider(container *Container, cfg *config.Config, home string) *Provider {
	return &Provider{
		container: container,
		config:    cfg,
		home:      home,
	}
}

// RegisterAll registers all services.
func (p *Provider) RegisterAll(log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	p.container.Register(ServiceConfig, p.config)
	p.container.Register(ServiceLogger, log)

	p.registerStorageBuilders()
	p.registerHostBuilders()
	p.registerKeeperBuilders()

	return nil
}

// registerStorageBuilders registers storage service builders.
func (p *Provider) registerStorageBuilders() {
	p.container.RegisterBuilder(ServiceStore, func(c *Container) (interface{}, error) {
		compressor, err := compression.Get(p.config.Storage.Compression)
		if err != nil {
			return nil, err
		}
		store, err := keyValueDb.Open(p.config.Storage.Backend, p.config.Storage.Path)
		if err != nil {
			return nil, err
		}
		return compression.WrapManager(store, compressor), nil
	})

	p.container.RegisterBuilder(ServiceStateDB, func(c *Container) (interface{}, error) {
		store, err := Resolve[keyValueDb.Manager](c, ServiceStore)
		if err != nil {
			return nil, err
		}
		return store.OpenDB(stateDBName)
	})

	p.container.RegisterBuilder(ServiceJournal, func(c *Container) (interface{}, error) {
		journal := p.config.Journal
		if journal.Driver == relationaldb.DriverSQLite && journal.ConnectionString == "" {
			if err := os.MkdirAll(filepath.Dir(journal.Database), 0o755); err != nil {
				return nil, fmt.Errorf("journal dir: %w", err)
			}
		}
		return relationaldb.Open(context.Background(), &journal)
	})
}

// registerHostBuilders registers the hub querier and the contract host.
func (p *Provider) registerHostBuilders() {
	p.container.RegisterBuilder(ServiceQuerier, func(c *Container) (interface{}, error) {
		if p.config.Hub.StaticRate != "" {
			rate, err := decimal.FromString(p.config.Hub.StaticRate)
			if err != nil {
				return nil, err
			}
			return hub.Static(rate), nil
		}
		return hub.NewHTTPQuerier(p.config.Hub.Endpoint, p.config.Hub.Timeout), nil
	})

	p.container.RegisterBuilder(ServiceHost, func(c *Container) (interface{}, error) {
		db, err := Resolve[keyValueDb.DB](c, ServiceStateDB)
		if err != nil {
			return nil, err
		}
		querier, err := Resolve[hub.Querier](c, ServiceQuerier)
		if err != nil {
			return nil, err
		}
		log, err := Resolve[*zap.Logger](c, ServiceLogger)
		if err != nil {
			return nil, err
		}
		return host.New(db, contract.Entrypoints{}, querier, host.Options{
			ChainID:          p.config.Host.ChainID,
			AddressCacheSize: p.config.Host.AddressCacheSize,
			Logger:           log,
		})
	})

	// The backend is the local host unless grpc.remote names a daemon.
	p.container.RegisterBuilder(ServiceBackend, func(c *Container) (interface{}, error) {
		if p.config.GRPC.Remote == "" {
			return p.GetHost()
		}
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()
		return grpc.Dial(ctx, p.config.GRPC.Remote)
	})
}

// registerKeeperBuilders registers the keeper and what it needs.
func (p *Provider) registerKeeperBuilders() {
	p.container.RegisterBuilder(ServiceMetrics, func(c *Container) (interface{}, error) {
		metrics := keeper.NewMetrics()
		if !p.IsRemote() {
			h, err := p.GetHost()
			if err != nil {
				return nil, err
			}
			metrics.WatchAddressCache(h.API())
		}
		return metrics, nil
	})

	p.container.RegisterBuilder(ServiceSigner, func(c *Container) (interface{}, error) {
		path := p.config.KeyPath(p.home)
		if path == "" {
			return nil, errors.New("keeper.key_file is not set")
		}
		return identity.LoadFile(path)
	})

	p.container.RegisterBuilder(ServiceKeeper, func(c *Container) (interface{}, error) {
		backend, err := p.GetBackend()
		if err != nil {
			return nil, err
		}
		signer, err := Resolve[*identity.Identity](c, ServiceSigner)
		if err != nil {
			return nil, err
		}
		journal, err := p.GetJournal()
		if err != nil {
			return nil, err
		}
		metrics, err := Resolve[*keeper.Metrics](c, ServiceMetrics)
		if err != nil {
			return nil, err
		}
		log, err := Resolve[*zap.Logger](c, ServiceLogger)
		if err != nil {
			return nil, err
		}
		kc := p.config.Keeper
		return keeper.New(keeper.Config{
			Contract:    kc.Contract,
			Schedule:    kc.Schedule,
			RunTimeout:  kc.RunTimeout,
			MetricsAddr: kc.MetricsAddr,
		}, backend, signer, journal, metrics, log)
	})
}

// GetHost returns the contract host from the container.
func (p *Provider) GetHost() (*host.Host, error) {
	return Resolve[*host.Host](p.container, ServiceHost)
}

// GetBackend returns the local host, or a client of the remote one when
// grpc.remote is set.
func (p *Provider) GetBackend() (grpc.Backend, error) {
	return Resolve[grpc.Backend](p.container, ServiceBackend)
}

// IsRemote reports whether commands go through a remote host.
func (p *Provider) IsRemote() bool {
	return p.config.GRPC.Remote != ""
}

// GetJournal returns the run journal from the container.
func (p *Provider) GetJournal() (*relationaldb.Journal, error) {
	return Resolve[*relationaldb.Journal](p.container, ServiceJournal)
}

// GetKeeper returns the keeper from the container.
func (p *Provider) GetKeeper() (*keeper.Keeper, error) {
	return Resolve[*keeper.Keeper](p.container, ServiceKeeper)
}

// GetConfig returns the configuration from the container.
func (p *Provider) GetConfig() *config.Config {
	return p.config
}

// Close releases whatever was built, newest first: the remote client or
// host before the journal and store.
func (p *Provider) Close() error {
	return p.container.Close()
}

// GetSigner returns the identity loaded from the keeper key file.
func (p *Provider) GetSigner() (*identity.Identity, error) {
	return Resolve[*identity.Identity](p.container, ServiceSigner)
}
