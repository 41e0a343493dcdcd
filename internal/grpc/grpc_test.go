package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/test/bufconn"

	"github.com/LeJamon/goScalingd/internal/core/contract"
	"github.com/LeJamon/goScalingd/internal/core/decimal"
	"github.com/LeJamon/goScalingd/internal/core/hub"
	"github.com/LeJamon/goScalingd/internal/crypto/identity"
	"github.com/LeJamon/goScalingd/internal/host"
	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb/memory"
)

const chainID = "scalingd-grpc"

type remote struct {
	client *Client
	host   *host.Host
	owner  *identity.Identity
	other  *identity.Identity
	hub    string
}

func newRemote(t *testing.T) *remote {
	t.Helper()
	owner, err := identity.New()
	require.NoError(t, err)
	other, err := identity.New()
	require.NoError(t, err)
	hubID, err := identity.New()
	require.NoError(t, err)

	rate := decimal.MustFromString("1.19234")
	querier := hub.QuerierFunc(func(_ context.Context, addr string) (hub.StateResponse, error) {
		if addr != hubID.Address() {
			return hub.StateResponse{}, hub.ErrQueryFailed
		}
		return hub.StateResponse{ExchangeRate: rate}, nil
	})
	h, err := host.New(memory.NewDB(), contract.Entrypoints{}, querier, host.Options{ChainID: chainID})
	require.NoError(t, err)

	srv, err := NewServer(DefaultServerConfig(), h, zap.NewNop())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, lis) }()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer dialCancel()
	client, err := Dial(dialCtx, "passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		cancel()
		assert.NoError(t, <-served)
		h.Close()
	})
	return &remote{client: client, host: h, owner: owner, other: other, hub: hubID.Address()}
}

func (r *remote) seal(t *testing.T, id *identity.Identity, e host.Envelope) host.Envelope {
	t.Helper()
	sealed, err := host.SealNext(context.Background(), r.client, id, e)
	require.NoError(t, err)
	return sealed
}

func (r *remote) instantiate(t *testing.T) string {
	t.Helper()
	msg, err := json.Marshal(contract.InstantiateMsg{
		PoolID:     1,
		ScaleFirst: true,
		Hub:        r.hub,
		Owner:      r.owner.Address(),
		Decimals:   9,
	})
	require.NoError(t, err)

	addr, res, err := r.client.Submit(context.Background(), r.seal(t, r.owner, host.Envelope{
		ChainID:  chainID,
		Action:   host.ActionInstantiate,
		Contract: "stATOM/ATOM",
		Msg:      msg,
	}))
	require.NoError(t, err)
	require.NotNil(t, res)
	return addr
}

func TestClientReportsChain(t *testing.T) {
	r := newRemote(t)
	assert.Equal(t, chainID, r.client.ChainID())

	height, err := r.client.Height(context.Background())
	require.NoError(t, err)
	assert.Zero(t, height)
}

func TestRemoteRoundTrip(t *testing.T) {
	r := newRemote(t)
	ctx := context.Background()
	addr := r.instantiate(t)

	meta, err := r.client.Contract(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, r.owner.Address(), meta.Admin)

	data, err := r.client.Query(ctx, addr, []byte(`{"config":{}}`))
	require.NoError(t, err)
	var cfg contract.Config
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Equal(t, uint64(1), cfg.PoolID)
	assert.Equal(t, r.hub, cfg.Hub)

	_, res, err := r.client.Submit(ctx, r.seal(t, r.other, host.Envelope{
		ChainID:  chainID,
		Action:   host.ActionExecute,
		Contract: addr,
		Msg:      json.RawMessage(`{"update_scaling_factor":{}}`),
	}))
	require.NoError(t, err)
	factors, ok := res.Attribute("factors")
	require.True(t, ok)
	assert.Equal(t, "1192340000,1000000000", factors)
	require.Len(t, res.Messages, 1)

	entries, err := r.client.Outbox(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, addr, entries[0].Contract)
	assert.Equal(t, res.Messages[0].TypeUrl, entries[0].TypeURL)

	height, err := r.client.Height(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), height)
}

func TestRemoteErrorsKeepTheirSentinel(t *testing.T) {
	r := newRemote(t)
	ctx := context.Background()

	_, err := r.client.Contract(ctx, "rMissing")
	require.Error(t, err)
	assert.ErrorIs(t, err, host.ErrContractNotFound)
	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, codes.NotFound, remoteErr.Code)

	addr := r.instantiate(t)
	_, _, err = r.client.Submit(ctx, r.seal(t, r.other, host.Envelope{
		ChainID:  chainID,
		Action:   host.ActionExecute,
		Contract: addr,
		Msg:      json.RawMessage(`{"update_config":{"pool_id":2}}`),
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrUnauthorized)
	assert.Equal(t, "unauthorized", contract.Kind(err))
}

func TestRemoteRejectsForeignChain(t *testing.T) {
	r := newRemote(t)
	_, _, err := r.client.Submit(context.Background(), r.seal(t, r.owner, host.Envelope{
		ChainID: "elsewhere",
		Action:  host.ActionInstantiate,
		Msg:     json.RawMessage(`{}`),
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, host.ErrInvalidEnvelope)
}

func TestRemoteSequence(t *testing.T) {
	r := newRemote(t)
	ctx := context.Background()

	seq, err := r.client.Sequence(ctx, r.owner.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	r.instantiate(t)
	seq, err = r.client.Sequence(ctx, r.owner.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)

	_, err = r.client.Sequence(ctx, "bogus")
	assert.ErrorIs(t, err, host.ErrInvalidSender)
}

func TestFromStatusPassesPlainErrors(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, fromStatus(plain, nil))
}

func TestServerConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServerConfig)
		ok     bool
	}{
		{"default", func(*ServerConfig) {}, true},
		{"empty address", func(c *ServerConfig) { c.Address = "" }, false},
		{"no port", func(c *ServerConfig) { c.Address = "localhost" }, false},
		{"empty port", func(c *ServerConfig) { c.Address = "localhost:" }, false},
		{"named port", func(c *ServerConfig) { c.Address = "localhost:grpc" }, false},
		{"ephemeral port", func(c *ServerConfig) { c.Address = "127.0.0.1:0" }, true},
		{"zero recv", func(c *ServerConfig) { c.MaxRecvMsgSize = 0 }, false},
		{"negative send", func(c *ServerConfig) { c.MaxSendMsgSize = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
