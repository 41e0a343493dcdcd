// Package host runs a contract as a deterministic function-call environment:
// each call sees a fresh staged view of its storage and either commits
// everything in one batch or nothing at all.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/anypb"

	addresscodec "github.com/LeJamon/goScalingd/internal/codec/address-codec"
	"github.com/LeJamon/goScalingd/internal/core/hub"
	"github.com/LeJamon/goScalingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goScalingd/internal/core/stableswap"
	"github.com/LeJamon/goScalingd/internal/core/state"
	"github.com/LeJamon/goScalingd/internal/core/vm"
	"github.com/LeJamon/goScalingd/internal/crypto"
	"github.com/LeJamon/goScalingd/internal/storage/keyValueDb"
)

var hostPrefix = []byte("host:")

// ContractMeta registers an instantiated contract.
type ContractMeta struct {
	Address string `codec:"address" json:"address"`
	Admin   string `codec:"admin" json:"admin"`
	Label   string `codec:"label" json:"label"`
	Creator string `codec:"creator" json:"creator"`
	Created uint64 `codec:"created" json:"created"`
}

// Options tunes a Host.
type Options struct {
	ChainID          string
	Clock            func() time.Time
	AddressCacheSize int
	Logger           *zap.Logger
}

// Host drives one contract implementation over a keyValueDb. Calls are
// serialised.
type Host struct {
	db       keyValueDb.DB
	contract vm.Contract
	querier  hub.Querier
	api      *AddressAPI
	chainID  string
	clock    func() time.Time
	log      *zap.Logger

	mu     sync.Mutex
	closed bool
}

// New creates a Host.
func New(db keyValueDb.DB, contract vm.Contract, querier hub.Querier, opts Options) (*Host, error) {
	api, err := NewAddressAPI(opts.AddressCacheSize)
	if err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Host{
		db:       db,
		contract: contract,
		querier:  querier,
		api:      api,
		chainID:  opts.ChainID,
		clock:    opts.Clock,
		log:      opts.Logger.Named("host"),
	}, nil
}

// ChainID returns the chain id envelopes must carry.
func (h *Host) ChainID() string { return h.chainID }

// API returns the address API handed to contracts.
func (h *Host) API() *AddressAPI { return h.api }

// Close stops accepting calls. The database is owned by the caller.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

// call is the staged state of one entry point invocation.
type call struct {
	hostView  *state.DBView
	hostTable *state.Table
	ctView    *state.DBView
	ctTable   *state.Table
	env       vm.Env
}

func (h *Host) hostView(ctx context.Context) *state.DBView {
	return state.NewDBView(ctx, h.db, hostPrefix)
}

func metaItem(id [crypto.AccountIDSize]byte) state.Item[ContractMeta] {
	return state.NewItem[ContractMeta](keylet.ContractMeta(id))
}

var (
	heightItem    = state.NewItem[uint64](keylet.Height())
	outboxSeqItem = state.NewItem[uint64](keylet.OutboxSequence())
)

func sequenceItem(id [crypto.AccountIDSize]byte) state.Item[uint64] {
	return state.NewItem[uint64](keylet.AccountSequence(id))
}

// signed carries the envelope fields the host checks before dispatch.
type signed struct {
	sender   string
	sequence uint64
}

// begin stages a new block for a call against contract id. A signed call
// also consumes the signer's next sequence in the same block.
func (h *Host) begin(ctx context.Context, id [crypto.AccountIDSize]byte, sig *signed) (*call, error) {
	c := &call{hostView: h.hostView(ctx)}
	c.hostTable = state.NewTable(c.hostView)
	c.ctView = state.NewDBView(ctx, h.db, id[:])
	c.ctTable = state.NewTable(c.ctView)

	height, err := heightItem.MayLoad(c.hostTable)
	if err != nil {
		return nil, err
	}
	next := uint64(1)
	if height != nil {
		next = *height + 1
	}
	if err := heightItem.Save(c.hostTable, next); err != nil {
		return nil, err
	}
	if sig != nil {
		if err := consumeSequence(c.hostTable, sig); err != nil {
			return nil, err
		}
	}

	c.env = vm.Env{
		Block:    vm.BlockInfo{Height: next, Time: h.clock().UTC(), ChainID: h.chainID},
		Contract: vm.ContractInfo{Address: addresscodec.EncodeAccountID(id)},
	}
	return c, nil
}

func consumeSequence(t *state.Table, sig *signed) error {
	account, err := decodeAddress(sig.sender, ErrInvalidSender)
	if err != nil {
		return err
	}
	item := sequenceItem(account)
	last, err := item.MayLoad(t)
	if err != nil {
		return err
	}
	want := uint64(1)
	if last != nil {
		want = *last + 1
	}
	if sig.sequence != want {
		return fmt.Errorf("%w: sequence %d, expected %d", ErrInvalidEnvelope, sig.sequence, want)
	}
	return item.Save(t, sig.sequence)
}

func (h *Host) deps(ctx context.Context, storage state.View) vm.Deps {
	return vm.Deps{Ctx: ctx, Storage: storage, API: h.api, Querier: h.querier}
}

// finish validates emitted messages, appends them to the outbox and commits
// host and contract changes in one batch.
func (h *Host) finish(ctx context.Context, c *call, res *vm.Response) error {
	if res == nil {
		res = vm.NewResponse()
	}
	for _, msg := range res.Messages {
		if err := validateMessage(msg); err != nil {
			return err
		}
	}
	if err := h.appendOutbox(c, res.Messages); err != nil {
		return err
	}

	ops := c.hostView.BatchOps(c.hostTable.Changes())
	ops = append(ops, c.ctView.BatchOps(c.ctTable.Changes())...)
	if err := h.db.Batch(ctx, ops); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func validateMessage(msg *anypb.Any) error {
	if msg.GetTypeUrl() != stableswap.TypeURL {
		return nil
	}
	m, err := stableswap.FromAny(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRejectedMessage, err)
	}
	if err := m.ValidateBasic(); err != nil {
		return fmt.Errorf("%w: %w", ErrRejectedMessage, err)
	}
	return nil
}

func (h *Host) lock() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	return nil
}

func decodeAddress(addr string, sentinel error) ([crypto.AccountIDSize]byte, error) {
	id, err := addresscodec.DecodeAccountID(addr)
	if err != nil {
		return id, fmt.Errorf("%w: %w", sentinel, err)
	}
	return id, nil
}

// ContractAddress derives the address a creator gets for label.
func ContractAddress(creator [crypto.AccountIDSize]byte, label string) string {
	return addresscodec.EncodeAccountID(crypto.ContractAccountID(creator, label))
}

// Instantiate creates a contract owned at host level by sender.
func (h *Host) Instantiate(ctx context.Context, sender, label string, msg []byte) (string, *vm.Response, error) {
	if err := h.lock(); err != nil {
		return "", nil, err
	}
	defer h.mu.Unlock()
	return h.instantiate(ctx, sender, label, msg, nil)
}

func (h *Host) instantiate(ctx context.Context, sender, label string, msg []byte, sig *signed) (string, *vm.Response, error) {
	creator, err := decodeAddress(sender, ErrInvalidSender)
	if err != nil {
		return "", nil, err
	}
	addr := ContractAddress(creator, label)
	id, _ := addresscodec.DecodeAccountID(addr)

	c, err := h.begin(ctx, id, sig)
	if err != nil {
		return "", nil, err
	}
	meta := metaItem(id)
	existing, err := meta.MayLoad(c.hostTable)
	if err != nil {
		return "", nil, err
	}
	if existing != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrContractExists, addr)
	}

	res, err := h.contract.Instantiate(h.deps(ctx, c.ctTable), c.env, vm.MessageInfo{Sender: sender}, msg)
	if err != nil {
		h.log.Debug("instantiate failed", zap.String("contract", addr), zap.Error(err))
		return "", nil, err
	}

	if err := meta.Save(c.hostTable, ContractMeta{
		Address: addr,
		Admin:   sender,
		Label:   label,
		Creator: sender,
		Created: c.env.Block.Height,
	}); err != nil {
		return "", nil, err
	}
	if err := h.finish(ctx, c, res); err != nil {
		return "", nil, err
	}

	h.log.Info("contract instantiated",
		zap.String("contract", addr),
		zap.String("label", label),
		zap.Uint64("height", c.env.Block.Height))
	return addr, res, nil
}

// loadMeta resolves a registered contract.
func (h *Host) loadMeta(base state.Base, contract string) ([crypto.AccountIDSize]byte, ContractMeta, error) {
	id, err := decodeAddress(contract, ErrContractNotFound)
	if err != nil {
		return id, ContractMeta{}, err
	}
	meta, err := metaItem(id).MayLoad(base)
	if err != nil {
		return id, ContractMeta{}, err
	}
	if meta == nil {
		return id, ContractMeta{}, fmt.Errorf("%w: %s", ErrContractNotFound, contract)
	}
	return id, *meta, nil
}

// Execute runs an action on contract as sender.
func (h *Host) Execute(ctx context.Context, sender, contract string, msg []byte) (*vm.Response, error) {
	if err := h.lock(); err != nil {
		return nil, err
	}
	defer h.mu.Unlock()
	return h.execute(ctx, sender, contract, msg, nil)
}

func (h *Host) execute(ctx context.Context, sender, contract string, msg []byte, sig *signed) (*vm.Response, error) {
	if _, err := decodeAddress(sender, ErrInvalidSender); err != nil {
		return nil, err
	}
	id, _, err := h.loadMeta(h.hostView(ctx), contract)
	if err != nil {
		return nil, err
	}
	c, err := h.begin(ctx, id, sig)
	if err != nil {
		return nil, err
	}

	res, err := h.contract.Execute(h.deps(ctx, c.ctTable), c.env, vm.MessageInfo{Sender: sender}, msg)
	if err != nil {
		h.log.Debug("execute failed", zap.String("contract", contract), zap.String("sender", sender), zap.Error(err))
		return nil, err
	}
	if err := h.finish(ctx, c, res); err != nil {
		return nil, err
	}

	h.log.Debug("execute",
		zap.String("contract", contract),
		zap.String("sender", sender),
		zap.Uint64("height", c.env.Block.Height),
		zap.Int("messages", len(res.Messages)))
	return res, nil
}

// Query runs a read-only query at the current height.
func (h *Host) Query(ctx context.Context, contract string, msg []byte) ([]byte, error) {
	if err := h.lock(); err != nil {
		return nil, err
	}
	defer h.mu.Unlock()

	hostView := h.hostView(ctx)
	id, _, err := h.loadMeta(hostView, contract)
	if err != nil {
		return nil, err
	}
	height, err := heightItem.MayLoad(hostView)
	if err != nil {
		return nil, err
	}
	env := vm.Env{
		Block:    vm.BlockInfo{Time: h.clock().UTC(), ChainID: h.chainID},
		Contract: vm.ContractInfo{Address: contract},
	}
	if height != nil {
		env.Block.Height = *height
	}

	storage := state.ReadOnly{Base: state.NewDBView(ctx, h.db, id[:])}
	return h.contract.Query(h.deps(ctx, storage), env, msg)
}

// Migrate re-runs the contract's migration. Only the admin may migrate.
func (h *Host) Migrate(ctx context.Context, sender, contract string, msg []byte) (*vm.Response, error) {
	if err := h.lock(); err != nil {
		return nil, err
	}
	defer h.mu.Unlock()
	return h.migrate(ctx, sender, contract, msg, nil)
}

func (h *Host) migrate(ctx context.Context, sender, contract string, msg []byte, sig *signed) (*vm.Response, error) {
	id, meta, err := h.loadMeta(h.hostView(ctx), contract)
	if err != nil {
		return nil, err
	}
	if meta.Admin != sender {
		return nil, ErrNotAdmin
	}
	c, err := h.begin(ctx, id, sig)
	if err != nil {
		return nil, err
	}

	res, err := h.contract.Migrate(h.deps(ctx, c.ctTable), c.env, msg)
	if err != nil {
		return nil, err
	}
	if err := h.finish(ctx, c, res); err != nil {
		return nil, err
	}
	h.log.Info("contract migrated", zap.String("contract", contract), zap.Uint64("height", c.env.Block.Height))
	return res, nil
}

// Submit verifies a signed envelope and dispatches it. For instantiate the
// returned address is the new contract; otherwise it is the target. The
// envelope's sequence is consumed only if the call commits.
func (h *Host) Submit(ctx context.Context, env Envelope) (string, *vm.Response, error) {
	sender, err := env.Open(h.chainID)
	if err != nil {
		return "", nil, err
	}
	if err := h.lock(); err != nil {
		return "", nil, err
	}
	defer h.mu.Unlock()

	sig := &signed{sender: sender, sequence: env.Sequence}
	switch env.Action {
	case ActionInstantiate:
		return h.instantiate(ctx, sender, env.Contract, env.Msg, sig)
	case ActionExecute:
		res, err := h.execute(ctx, sender, env.Contract, env.Msg, sig)
		return env.Contract, res, err
	case ActionMigrate:
		res, err := h.migrate(ctx, sender, env.Contract, env.Msg, sig)
		return env.Contract, res, err
	default:
		return "", nil, errors.New("unreachable")
	}
}

// Contract returns the registration of addr.
func (h *Host) Contract(ctx context.Context, addr string) (ContractMeta, error) {
	_, meta, err := h.loadMeta(h.hostView(ctx), addr)
	return meta, err
}

// Sequence returns the sequence addr must sign its next envelope with.
func (h *Host) Sequence(ctx context.Context, addr string) (uint64, error) {
	account, err := decodeAddress(addr, ErrInvalidSender)
	if err != nil {
		return 0, err
	}
	last, err := sequenceItem(account).MayLoad(h.hostView(ctx))
	if err != nil || last == nil {
		return 1, err
	}
	return *last + 1, nil
}

// Height returns the height of the last committed call.
func (h *Host) Height(ctx context.Context) (uint64, error) {
	height, err := heightItem.MayLoad(h.hostView(ctx))
	if err != nil || height == nil {
		return 0, err
	}
	return *height, nil
}
