package keeper

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/LeJamon/goScalingd/internal/core/contract"
	"github.com/LeJamon/goScalingd/internal/core/decimal"
	"github.com/LeJamon/goScalingd/internal/core/hub"
	"github.com/LeJamon/goScalingd/internal/crypto/identity"
	"github.com/LeJamon/goScalingd/internal/host"
	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb/memory"
	"github.com/LeJamon/goScalingd/internal/storage/relationaldb"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memJournal struct {
	mu   sync.Mutex
	runs []relationaldb.Run
}

func (j *memJournal) Record(_ context.Context, run relationaldb.Run) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs = append(j.runs, run)
	return nil
}

func (j *memJournal) len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.runs)
}

type rig struct {
	keeper  *Keeper
	journal *memJournal
	metrics *Metrics
	rate    *decimal.Decimal
	mu      *sync.Mutex
}

func newRig(t *testing.T, schedule string) *rig {
	t.Helper()
	ctx := context.Background()

	owner, err := identity.New()
	require.NoError(t, err)
	bot, err := identity.New()
	require.NoError(t, err)
	hubID, err := identity.New()
	require.NoError(t, err)

	var mu sync.Mutex
	rate := decimal.MustFromString("1.19234")
	querier := hub.QuerierFunc(func(context.Context, string) (hub.StateResponse, error) {
		mu.Lock()
		defer mu.Unlock()
		return hub.StateResponse{ExchangeRate: rate}, nil
	})

	h, err := host.New(memory.NewDB(), contract.Entrypoints{}, querier, host.Options{ChainID: "keeper-test"})
	require.NoError(t, err)

	msg, err := json.Marshal(contract.InstantiateMsg{PoolID: 3, ScaleFirst: true, Hub: hubID.Address(), Owner: owner.Address(), Decimals: 9})
	require.NoError(t, err)
	addr, _, err := h.Instantiate(ctx, owner.Address(), "pool-3", msg)
	require.NoError(t, err)

	journal := &memJournal{}
	metrics := NewMetrics()
	k, err := New(Config{Contract: addr, Schedule: schedule}, h, bot, journal, metrics, zaptest.NewLogger(t))
	require.NoError(t, err)
	return &rig{keeper: k, journal: journal, metrics: metrics, rate: &rate, mu: &mu}
}

func (r *rig) setRate(d decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.rate = d
}

type cacheStats struct{ hits, misses uint64 }

func (c cacheStats) Stats() (uint64, uint64) { return c.hits, c.misses }

func TestAddressCacheMetrics(t *testing.T) {
	m := NewMetrics()
	m.WatchAddressCache(cacheStats{hits: 7, misses: 2})

	expected := `
# HELP scalingd_host_address_cache_hits_total Address validations answered from the cache.
# TYPE scalingd_host_address_cache_hits_total counter
scalingd_host_address_cache_hits_total 7
# HELP scalingd_host_address_cache_misses_total Address validations that had to decode the address.
# TYPE scalingd_host_address_cache_misses_total counter
scalingd_host_address_cache_misses_total 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected),
		"scalingd_host_address_cache_hits_total", "scalingd_host_address_cache_misses_total"))
}

func TestRunOnceSuccess(t *testing.T) {
	r := newRig(t, "@every 1h")

	run, err := r.keeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, run.OK())
	assert.Equal(t, "1192340000,1000000000", run.Factors)
	assert.Equal(t, uint64(2), run.Height)

	require.Equal(t, 1, r.journal.len())
	assert.Equal(t, run.ID, r.journal.runs[0].ID)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.runs.WithLabelValues("success")))
	assert.Equal(t, 1192340000.0, testutil.ToFloat64(r.metrics.scalingFactor.WithLabelValues("first")))
	assert.Equal(t, 1000000000.0, testutil.ToFloat64(r.metrics.scalingFactor.WithLabelValues("second")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.metrics.height))
}

func TestRunOnceFailureIsJournaled(t *testing.T) {
	r := newRig(t, "@every 1h")
	r.setRate(decimal.Max())

	run, err := r.keeper.RunOnce(context.Background())
	require.Error(t, err)
	assert.False(t, run.OK())
	assert.Equal(t, contract.KindOverflow, run.ErrorKind)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.runs.WithLabelValues(contract.KindOverflow)))

	// Next run recovers once the rate is sane again.
	r.setRate(decimal.MustFromString("1.5"))
	run, err = r.keeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1500000000,1000000000", run.Factors)
	assert.Equal(t, 2, r.journal.len())
}

func TestNewRejectsBadConfig(t *testing.T) {
	bot, err := identity.New()
	require.NoError(t, err)

	_, err = New(Config{Contract: "r", Schedule: "every now and then"}, nil, bot, nil, nil, nil)
	assert.Error(t, err)

	_, err = New(Config{Schedule: "@every 1m"}, nil, bot, nil, nil, nil)
	assert.Error(t, err)

	_, err = New(Config{Contract: "r", Schedule: "*/5 * * * *"}, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestStartRunsOnScheduleAndStops(t *testing.T) {
	r := newRig(t, "@every 1s")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.keeper.Start(ctx) }()

	require.Eventually(t, func() bool { return r.journal.len() >= 1 }, 5*time.Second, 50*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("keeper did not stop")
	}
}
