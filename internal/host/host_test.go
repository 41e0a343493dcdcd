package host

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	addresscodec "github.com/LeJamon/goScalingd/internal/codec/address-codec"
	"github.com/LeJamon/goScalingd/internal/core/contract"
	"github.com/LeJamon/goScalingd/internal/core/decimal"
	"github.com/LeJamon/goScalingd/internal/core/hub"
	"github.com/LeJamon/goScalingd/internal/core/scaling"
	"github.com/LeJamon/goScalingd/internal/core/stableswap"
	"github.com/LeJamon/goScalingd/internal/crypto/identity"
	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb/memory"
)

const chainID = "scalingd-test"

type fixture struct {
	host  *Host
	owner *identity.Identity
	other *identity.Identity
	hub   string
	rate  decimal.Decimal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	owner, err := identity.New()
	require.NoError(t, err)
	other, err := identity.New()
	require.NoError(t, err)
	hubID, err := identity.New()
	require.NoError(t, err)

	f := &fixture{owner: owner, other: other, hub: hubID.Address(), rate: decimal.MustFromString("1.19234")}
	querier := hub.QuerierFunc(func(_ context.Context, addr string) (hub.StateResponse, error) {
		if addr != f.hub {
			return hub.StateResponse{}, hub.ErrQueryFailed
		}
		return hub.StateResponse{ExchangeRate: f.rate}, nil
	})

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.host, err = New(memory.NewDB(), contract.Entrypoints{}, querier, Options{
		ChainID: chainID,
		Clock:   func() time.Time { return now },
	})
	require.NoError(t, err)
	return f
}

// seal signs e with id's next sequence.
func (f *fixture) seal(t *testing.T, id *identity.Identity, e Envelope) Envelope {
	t.Helper()
	sealed, err := SealNext(context.Background(), f.host, id, e)
	require.NoError(t, err)
	return sealed
}

func (f *fixture) instantiate(t *testing.T) string {
	t.Helper()
	msg, err := json.Marshal(contract.InstantiateMsg{
		PoolID:     1,
		ScaleFirst: true,
		Hub:        f.hub,
		Owner:      f.owner.Address(),
		Decimals:   9,
	})
	require.NoError(t, err)

	addr, _, err := f.host.Submit(context.Background(), f.seal(t, f.owner, Envelope{
		ChainID:  chainID,
		Action:   ActionInstantiate,
		Contract: "stATOM/ATOM",
		Msg:      msg,
	}))
	require.NoError(t, err)
	return addr
}

func TestInstantiateRegistersContract(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	addr := f.instantiate(t)

	creator, err := addresscodec.DecodeAccountID(f.owner.Address())
	require.NoError(t, err)
	assert.Equal(t, ContractAddress(creator, "stATOM/ATOM"), addr)
	assert.True(t, addresscodec.IsValidClassicAddress(addr))

	meta, err := f.host.Contract(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, f.owner.Address(), meta.Admin)
	assert.Equal(t, uint64(1), meta.Created)

	height, err := f.host.Height(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), height)

	// Same creator and label.
	_, _, err = f.host.Instantiate(ctx, f.owner.Address(), "stATOM/ATOM", []byte(`{}`))
	assert.ErrorIs(t, err, ErrContractExists)
}

func TestInstantiateFailureLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	msg := []byte(`{"pool_id":1,"scale_first":true,"hub":"` + f.hub + `","owner":"` + f.owner.Address() + `","decimals":18}`)
	_, _, err := f.host.Instantiate(ctx, f.owner.Address(), "x", msg)
	require.ErrorIs(t, err, contract.ErrValidation)

	creator, _ := addresscodec.DecodeAccountID(f.owner.Address())
	_, err = f.host.Contract(ctx, ContractAddress(creator, "x"))
	assert.ErrorIs(t, err, ErrContractNotFound)

	height, err := f.host.Height(ctx)
	require.NoError(t, err)
	assert.Zero(t, height)
}

func TestExecuteEmitsToOutbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	addr := f.instantiate(t)

	res, err := f.host.Execute(ctx, f.other.Address(), addr, []byte(`{"update_scaling_factor":{}}`))
	require.NoError(t, err)
	factors, _ := res.Attribute("factors")
	assert.Equal(t, "1192340000,1000000000", factors)

	f.rate = decimal.MustFromString("1.2")
	_, err = f.host.Execute(ctx, f.other.Address(), addr, []byte(`{"update_scaling_factor":{}}`))
	require.NoError(t, err)

	entries, err := f.host.Outbox(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(0), entries[0].Sequence)
	assert.Equal(t, uint64(2), entries[0].Height)
	assert.Equal(t, uint64(3), entries[1].Height)

	msg, err := stableswap.FromAny(entries[1].Any())
	require.NoError(t, err)
	assert.Equal(t, addr, msg.Sender)
	assert.Equal(t, []uint64{1200000000, 1000000000}, msg.ScalingFactors)

	tail, err := f.host.Outbox(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, uint64(1), tail[0].Sequence)
}

func TestExecuteFailureIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	addr := f.instantiate(t)

	f.rate = decimal.Max()
	_, err := f.host.Execute(ctx, f.other.Address(), addr, []byte(`{"update_scaling_factor":{}}`))
	require.ErrorIs(t, err, scaling.ErrOverflow)

	_, err = f.host.Execute(ctx, f.owner.Address(), addr, []byte(`{"update_config":{"pool_id":9,"decimals":18}}`))
	require.ErrorIs(t, err, contract.ErrValidation)

	entries, err := f.host.Outbox(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	height, err := f.host.Height(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), height)

	out, err := f.host.Query(ctx, addr, []byte(`{"config":{}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"pool_id":1,"hub":"`+f.hub+`","scale_first":true,"decimals":9}`, string(out))
}

func TestExecuteUnknownContract(t *testing.T) {
	f := newFixture(t)
	_, err := f.host.Execute(context.Background(), f.owner.Address(), f.other.Address(), []byte(`{"update_scaling_factor":{}}`))
	assert.ErrorIs(t, err, ErrContractNotFound)

	_, err = f.host.Execute(context.Background(), "nobody", f.other.Address(), []byte(`{}`))
	assert.ErrorIs(t, err, ErrInvalidSender)
}

func TestQueryIsReadOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	addr := f.instantiate(t)

	out, err := f.host.Query(ctx, addr, []byte(`{"ownership":{}}`))
	require.NoError(t, err)
	assert.Contains(t, string(out), f.owner.Address())

	height, err := f.host.Height(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), height)
}

func TestMigrateAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	addr := f.instantiate(t)

	_, err := f.host.Migrate(ctx, f.other.Address(), addr, []byte(`{}`))
	assert.ErrorIs(t, err, ErrNotAdmin)

	_, res, err := f.host.Submit(ctx, f.seal(t, f.owner, Envelope{ChainID: chainID, Action: ActionMigrate, Contract: addr, Msg: []byte(`{}`)}))
	require.NoError(t, err)
	name, _ := res.Attribute("new_contract_name")
	assert.Equal(t, contract.ContractName, name)
}

func TestSubmitRejectsBadEnvelopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	addr := f.instantiate(t)

	sealed := f.seal(t, f.other, Envelope{ChainID: chainID, Action: ActionExecute, Contract: addr, Msg: []byte(`{"update_scaling_factor":{}}`)})

	tampered := sealed
	tampered.Msg = []byte(`{"update_config":{}}`)
	_, _, err := f.host.Submit(ctx, tampered)
	assert.ErrorIs(t, err, ErrInvalidEnvelope)
	assert.ErrorIs(t, err, identity.ErrInvalidSignature)

	otherChain := sealed
	otherChain.ChainID = "mainnet"
	_, _, err = f.host.Submit(ctx, otherChain)
	assert.ErrorIs(t, err, ErrInvalidEnvelope)

	unknown := f.seal(t, f.other, Envelope{ChainID: chainID, Action: "query", Contract: addr})
	_, _, err = f.host.Submit(ctx, unknown)
	assert.ErrorIs(t, err, ErrInvalidEnvelope)

	_, res, err := f.host.Submit(ctx, sealed)
	require.NoError(t, err)
	assert.Len(t, res.Messages, 1)
}

func TestSubmitRejectsReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	addr := f.instantiate(t)

	update := func(poolID int) Envelope {
		return f.seal(t, f.owner, Envelope{
			ChainID:  chainID,
			Action:   ActionExecute,
			Contract: addr,
			Msg:      []byte(fmt.Sprintf(`{"update_config":{"pool_id":%d}}`, poolID)),
		})
	}
	first := update(2)
	_, _, err := f.host.Submit(ctx, first)
	require.NoError(t, err)
	_, _, err = f.host.Submit(ctx, update(5))
	require.NoError(t, err)

	height, err := f.host.Height(ctx)
	require.NoError(t, err)

	_, _, err = f.host.Submit(ctx, first)
	require.ErrorIs(t, err, ErrInvalidEnvelope)
	assert.ErrorContains(t, err, "sequence 2, expected 4")

	data, err := f.host.Query(ctx, addr, []byte(`{"config":{}}`))
	require.NoError(t, err)
	var cfg contract.Config
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Equal(t, uint64(5), cfg.PoolID)

	after, err := f.host.Height(ctx)
	require.NoError(t, err)
	assert.Equal(t, height, after, "a rejected envelope commits nothing")
}

func TestSequencePerAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seq, err := f.host.Sequence(ctx, f.owner.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	addr := f.instantiate(t)
	seq, err = f.host.Sequence(ctx, f.owner.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)
	seq, err = f.host.Sequence(ctx, f.other.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	// A skipped sequence is refused like a stale one.
	ahead := Seal(f.other, Envelope{
		ChainID:  chainID,
		Action:   ActionExecute,
		Contract: addr,
		Msg:      []byte(`{"update_scaling_factor":{}}`),
		Sequence: 3,
	})
	_, _, err = f.host.Submit(ctx, ahead)
	assert.ErrorIs(t, err, ErrInvalidEnvelope)

	// A failed call does not consume its sequence.
	denied := f.seal(t, f.other, Envelope{
		ChainID:  chainID,
		Action:   ActionExecute,
		Contract: addr,
		Msg:      []byte(`{"update_config":{"pool_id":9}}`),
	})
	_, _, err = f.host.Submit(ctx, denied)
	require.ErrorIs(t, err, contract.ErrUnauthorized)
	seq, err = f.host.Sequence(ctx, f.other.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	_, err = f.host.Sequence(ctx, "not-an-address")
	assert.ErrorIs(t, err, ErrInvalidSender)
}

func TestClosedHost(t *testing.T) {
	f := newFixture(t)
	f.host.Close()
	_, err := f.host.Query(context.Background(), f.hub, []byte(`{"config":{}}`))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestAddressAPICache(t *testing.T) {
	api, err := NewAddressAPI(2)
	require.NoError(t, err)

	genesis := "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
	for i := 0; i < 3; i++ {
		got, err := api.AddrValidate(genesis)
		require.NoError(t, err)
		assert.Equal(t, genesis, got)
	}
	_, err = api.AddrValidate("rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTi")
	assert.Error(t, err)
	_, err = api.AddrValidate("rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTi")
	assert.Error(t, err)

	hits, misses := api.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(3), misses)
}
