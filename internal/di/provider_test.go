package di

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/LeJamon/goScalingd/internal/config"
	"github.com/LeJamon/goScalingd/internal/crypto/identity"
	"github.com/LeJamon/goScalingd/internal/grpc"
	"github.com/LeJamon/goScalingd/internal/keeper"
	"github.com/LeJamon/goScalingd/internal/storage/relationaldb"
)

func testConfig(home string) *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Backend: "memory", Compression: "lz4"},
		Host:    config.HostConfig{ChainID: "test-1", AddressCacheSize: 8},
		Hub:     config.HubConfig{StaticRate: "1.1"},
		Keeper: config.KeeperConfig{
			Contract:   "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh",
			Schedule:   "@every 1m",
			RunTimeout: time.Second,
			KeyFile:    "keeper.key",
		},
		Journal: *relationaldb.SQLiteConfig(filepath.Join(home, "journal.sqlite")),
		Logging: config.LoggingConfig{Level: "info", Format: "console"},
	}
}

func TestProviderWiring(t *testing.T) {
	home := t.TempDir()
	p := NewProvider(New(), testConfig(home), home)
	require.NoError(t, p.RegisterAll(zaptest.NewLogger(t)))
	defer func() { assert.NoError(t, p.Close()) }()

	h, err := p.GetHost()
	require.NoError(t, err)
	assert.Equal(t, "test-1", h.ChainID())

	height, err := h.Height(context.Background())
	require.NoError(t, err)
	assert.Zero(t, height)

	again, err := p.GetHost()
	require.NoError(t, err)
	assert.Same(t, h, again)

	journal, err := p.GetJournal()
	require.NoError(t, err)
	runs, err := journal.Recent(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestProviderKeeperNeedsKey(t *testing.T) {
	home := t.TempDir()
	p := NewProvider(New(), testConfig(home), home)
	require.NoError(t, p.RegisterAll(nil))
	defer func() { assert.NoError(t, p.Close()) }()

	_, err := p.GetKeeper()
	require.Error(t, err)

	id, err := identity.New()
	require.NoError(t, err)
	require.NoError(t, id.SaveFile(filepath.Join(home, "keeper.key")))

	k, err := p.GetKeeper()
	require.NoError(t, err)
	assert.NotNil(t, k)

	metrics, err := Resolve[*keeper.Metrics](p.container, ServiceMetrics)
	require.NoError(t, err)
	count, err := testutil.GatherAndCount(metrics.Registry, "scalingd_host_address_cache_hits_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProviderBackendIsLocalHost(t *testing.T) {
	home := t.TempDir()
	p := NewProvider(New(), testConfig(home), home)
	require.NoError(t, p.RegisterAll(nil))
	defer func() { assert.NoError(t, p.Close()) }()

	assert.False(t, p.IsRemote())
	backend, err := p.GetBackend()
	require.NoError(t, err)
	h, err := p.GetHost()
	require.NoError(t, err)
	assert.Same(t, h, backend)
}

func TestProviderBackendDialsRemote(t *testing.T) {
	home := t.TempDir()
	local := NewProvider(New(), testConfig(home), home)
	require.NoError(t, local.RegisterAll(nil))
	defer func() { assert.NoError(t, local.Close()) }()
	h, err := local.GetHost()
	require.NoError(t, err)

	srv, err := grpc.NewServer(nil, h, nil)
	require.NoError(t, err)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, lis) }()
	defer func() {
		cancel()
		assert.NoError(t, <-served)
	}()

	remoteHome := t.TempDir()
	cfg := testConfig(remoteHome)
	cfg.GRPC.Remote = lis.Addr().String()
	remote := NewProvider(New(), cfg, remoteHome)
	require.NoError(t, remote.RegisterAll(nil))
	defer func() { assert.NoError(t, remote.Close()) }()

	assert.True(t, remote.IsRemote())
	backend, err := remote.GetBackend()
	require.NoError(t, err)
	require.IsType(t, &grpc.Client{}, backend)
	assert.Equal(t, "test-1", backend.ChainID())

	height, err := backend.Height(context.Background())
	require.NoError(t, err)
	assert.Zero(t, height)
}
