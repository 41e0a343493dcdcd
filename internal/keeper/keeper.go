// Package keeper calls update_scaling_factor on a schedule. Retry policy
// lives here: a failed run is journaled and the next tick tries again.
package keeper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goScalingd/internal/core/contract"
	"github.com/LeJamon/goScalingd/internal/core/vm"
	"github.com/LeJamon/goScalingd/internal/crypto/identity"
	"github.com/LeJamon/goScalingd/internal/host"
	"github.com/LeJamon/goScalingd/internal/storage/relationaldb"
)

var updateScalingFactorMsg = []byte(`{"update_scaling_factor":{}}`)

// Submitter is the part of the host the keeper drives.
type Submitter interface {
	ChainID() string
	Submit(ctx context.Context, env host.Envelope) (string, *vm.Response, error)
	Height(ctx context.Context) (uint64, error)
	Sequence(ctx context.Context, addr string) (uint64, error)
}

// Journal stores run records.
type Journal interface {
	Record(ctx context.Context, run relationaldb.Run) error
}

// Config configures a Keeper.
type Config struct {
	Contract    string
	Schedule    string
	RunTimeout  time.Duration
	MetricsAddr string
}

// Keeper periodically recalibrates one contract.
type Keeper struct {
	cfg      Config
	schedule cron.Schedule
	host     Submitter
	signer   *identity.Identity
	journal  Journal
	metrics  *Metrics
	log      *zap.Logger
	clock    func() time.Time

	mu sync.Mutex // one run at a time
}

// New validates cfg and parses the schedule. Standard five-field specs and
// descriptors such as "@every 10m" are accepted.
func New(cfg Config, h Submitter, signer *identity.Identity, journal Journal, metrics *Metrics, log *zap.Logger) (*Keeper, error) {
	if cfg.Contract == "" {
		return nil, errors.New("keeper: contract address is required")
	}
	if signer == nil {
		return nil, errors.New("keeper: signer is required")
	}
	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("keeper: invalid schedule %q: %w", cfg.Schedule, err)
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Second
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Keeper{
		cfg:      cfg,
		schedule: schedule,
		host:     h,
		signer:   signer,
		journal:  journal,
		metrics:  metrics,
		log:      log.Named("keeper"),
		clock:    time.Now,
	}, nil
}

// RunOnce performs a single recalibration and journals it. The returned
// error is the call's error, if any; journal failures are only logged.
func (k *Keeper) RunOnce(ctx context.Context) (relationaldb.Run, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	run := relationaldb.NewRun(k.cfg.Contract, k.clock().UTC())
	runCtx, cancel := context.WithTimeout(ctx, k.cfg.RunTimeout)
	defer cancel()

	env, err := host.SealNext(runCtx, k.host, k.signer, host.Envelope{
		ChainID:  k.host.ChainID(),
		Action:   host.ActionExecute,
		Contract: k.cfg.Contract,
		Msg:      updateScalingFactorMsg,
	})
	var res *vm.Response
	if err == nil {
		_, res, err = k.host.Submit(runCtx, env)
	}
	run.Duration = k.clock().Sub(run.StartedAt)
	k.metrics.runDuration.Observe(run.Duration.Seconds())

	if err != nil {
		run.ErrorKind = contract.Kind(err)
		run.Error = err.Error()
		k.metrics.runs.WithLabelValues(run.ErrorKind).Inc()
		k.log.Warn("recalibration failed",
			zap.String("run", run.ID.String()),
			zap.String("kind", run.ErrorKind),
			zap.Error(err))
	} else {
		run.Factors, _ = res.Attribute("factors")
		k.observeFactors(run.Factors)
		k.metrics.runs.WithLabelValues("success").Inc()
		k.metrics.lastSuccess.Set(float64(k.clock().Unix()))
		if height, herr := k.host.Height(ctx); herr == nil {
			run.Height = height
			k.metrics.height.Set(float64(height))
		}
		k.log.Info("recalibrated",
			zap.String("run", run.ID.String()),
			zap.String("factors", run.Factors),
			zap.Uint64("height", run.Height),
			zap.Duration("took", run.Duration))
	}

	if k.journal != nil {
		if jerr := k.journal.Record(ctx, run); jerr != nil {
			k.log.Error("failed to journal run", zap.String("run", run.ID.String()), zap.Error(jerr))
		}
	}
	return run, err
}

func (k *Keeper) observeFactors(factors string) {
	parts := strings.Split(factors, ",")
	for i, side := range []string{"first", "second"} {
		if i >= len(parts) {
			return
		}
		v, err := strconv.ParseUint(parts[i], 10, 64)
		if err != nil {
			return
		}
		k.metrics.scalingFactor.WithLabelValues(side).Set(float64(v))
	}
}

// Start runs the schedule, and the metrics endpoint when configured, until
// ctx is done.
func (k *Keeper) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	cronLog := cronLogger{k.log.Sugar()}
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	c.Schedule(k.schedule, cron.FuncJob(func() {
		_, _ = k.RunOnce(gctx)
	}))

	c.Start()
	k.log.Info("keeper started",
		zap.String("contract", k.cfg.Contract),
		zap.String("schedule", k.cfg.Schedule),
		zap.String("sender", k.signer.Address()))

	g.Go(func() error {
		<-gctx.Done()
		<-c.Stop().Done()
		k.log.Info("keeper stopped")
		return nil
	})

	if k.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", k.metrics.Handler())
		srv := &http.Server{Addr: k.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			k.log.Info("metrics listening", zap.String("addr", k.cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
