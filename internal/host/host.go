package host

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/roach88/factory/internal/factory"
	"github.com/roach88/factory/internal/ir"
	"github.com/roach88/factory/internal/store"
)

// DefaultFactoryAddress is the factory's own address unless overridden.
const DefaultFactoryAddress = ir.Address("factory")

// Code is one entry of the code table.
type Code struct {
	ID      uint64
	Label   string
	Hash    string
	Program ChildProgram
}

// Ref returns the reference the factory stores for this code.
func (c Code) Ref() ir.CodeRef {
	return ir.CodeRef{CodeID: c.ID, CodeHash: c.Hash}
}

// UnitResult is the outcome of a committed unit of work.
type UnitResult struct {
	ID        string              `json:"id"`
	Height    uint64              `json:"height"`
	Caller    ir.Address          `json:"caller"`
	Responses []ir.Response       `json:"responses"`
	Created   []ir.InstanceRecord `json:"created,omitempty"`
}

// Host runs the factory inside simulated units of work.
//
// Units are serialized: Host holds a lock for the duration of Deploy,
// Execute and Query, matching the single-connection store underneath.
type Host struct {
	mu sync.Mutex

	store   *store.Store
	factory *factory.Factory
	self    ir.Address

	codesMu    sync.RWMutex
	codes      map[uint64]Code
	nextCodeID uint64

	addrs   AddressGenerator
	ids     IDGenerator
	heights HeightSource
	log     zerolog.Logger
}

// Option configures a Host.
type Option func(*Host)

// WithAddresses sets the child address generator. Default: DerivedAddresses.
func WithAddresses(g AddressGenerator) Option {
	return func(h *Host) {
		h.addrs = g
	}
}

// WithIDGenerator sets the unit id generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(h *Host) {
		h.ids = g
	}
}

// WithHeights sets the block height source. Default: a Clock starting at 1.
func WithHeights(src HeightSource) Option {
	return func(h *Host) {
		h.heights = src
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(log zerolog.Logger) Option {
	return func(h *Host) {
		h.log = log
	}
}

// WithFactoryAddress sets the address the factory runs under.
func WithFactoryAddress(addr ir.Address) Option {
	return func(h *Host) {
		h.self = addr
	}
}

// New creates a Host over st running f.
func New(st *store.Store, f *factory.Factory, opts ...Option) *Host {
	h := &Host{
		store:      st,
		factory:    f,
		self:       DefaultFactoryAddress,
		codes:      make(map[uint64]Code),
		nextCodeID: 1,
		addrs:      DerivedAddresses{},
		ids:        UUIDv7Generator{},
		heights:    NewClock(),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Address returns the factory's own address.
func (h *Host) Address() ir.Address {
	return h.self
}

// StoreCode adds program code to the code table and returns its reference.
// The hash is computed from code, so storing the same bytes twice yields
// two ids with the same hash.
func (h *Host) StoreCode(label string, code []byte, prog ChildProgram) ir.CodeRef {
	h.codesMu.Lock()
	defer h.codesMu.Unlock()

	c := Code{
		ID:      h.nextCodeID,
		Label:   label,
		Hash:    ir.CodeHash(code),
		Program: prog,
	}
	h.codes[c.ID] = c
	h.nextCodeID++

	h.log.Debug().
		Uint64("code_id", c.ID).
		Str("label", label).
		Str("code_hash", c.Hash).
		Msg("code stored")
	return c.Ref()
}

// Codes lists the code table ordered by id.
func (h *Host) Codes() []Code {
	h.codesMu.RLock()
	defer h.codesMu.RUnlock()

	out := make([]Code, 0, len(h.codes))
	for _, c := range h.codes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Deploy instantiates the factory in its own unit of work.
func (h *Host) Deploy(ctx context.Context, deployer ir.Address, msg ir.InstantiateMsg) (ir.FactoryConfig, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tx, err := h.store.Begin(ctx)
	if err != nil {
		return ir.FactoryConfig{}, fmt.Errorf("deploy: %w", err)
	}
	defer tx.Rollback()

	env := factory.Env{Caller: deployer, Height: h.heights.Next()}
	cfg, err := h.factory.Instantiate(ctx, tx, env, msg)
	if err != nil {
		return ir.FactoryConfig{}, err
	}
	if err := tx.Commit(); err != nil {
		return ir.FactoryConfig{}, fmt.Errorf("deploy: %w", err)
	}

	h.log.Info().
		Str("deployer", string(deployer)).
		Str("admin", string(cfg.Admin)).
		Str("auth_mode", string(cfg.AuthMode)).
		Uint64("code_id", cfg.CodeRef.CodeID).
		Msg("factory deployed")
	return cfg, nil
}

// Execute runs msgs from caller as one unit of work.
//
// Messages run in order. The sub-messages each one emits are executed
// FIFO and their outcomes delivered to the factory before the next
// message runs. The unit commits only if every step succeeds; on any
// error it is rolled back and a *UnitError is returned.
func (h *Host) Execute(ctx context.Context, caller ir.Address, msgs ...ir.ExecuteMsg) (*UnitResult, error) {
	if len(msgs) == 0 {
		return nil, ErrNoMessages
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	res := &UnitResult{
		ID:     h.ids.Generate(),
		Height: h.heights.Next(),
		Caller: caller,
	}
	env := factory.Env{Caller: caller, Height: res.Height}

	tx, err := h.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	defer tx.Rollback()

	for i, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return nil, h.abort(res, i, msg, err)
		}

		resp, err := h.factory.Execute(ctx, tx, env, msg)
		if err != nil {
			return nil, h.abort(res, i, msg, err)
		}
		res.Responses = append(res.Responses, resp)

		var q subMsgQueue
		q.push(resp.SubMsgs...)
		for sub, ok := q.pop(); ok; sub, ok = q.pop() {
			out := h.instantiate(ctx, sub, res.Height)
			rec, err := h.factory.OnOutcome(ctx, tx, sub.Token, out)
			if err != nil {
				return nil, h.abort(res, i, msg, err)
			}
			res.Created = append(res.Created, rec)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("execute: commit unit %s: %w", res.ID, err)
	}

	h.log.Info().
		Str("unit", res.ID).
		Uint64("height", res.Height).
		Str("caller", string(caller)).
		Int("messages", len(msgs)).
		Int("created", len(res.Created)).
		Msg("unit committed")
	return res, nil
}

// Query answers q from committed state.
func (h *Host) Query(ctx context.Context, q ir.QueryMsg) (factory.QueryResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.factory.Query(ctx, h.store, q)
}

// InstancesBy returns every committed instance requested by creator, in
// creation order.
func (h *Host) InstancesBy(ctx context.Context, creator ir.Address) ([]ir.InstanceRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.factory.GetConfig(ctx, h.store); err != nil {
		return nil, err
	}
	return h.store.ListInstancesByCreator(ctx, creator)
}

// Verify checks the committed registry for integrity violations.
func (h *Host) Verify(ctx context.Context) (store.IntegrityReport, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.CheckIntegrity(ctx)
}

// instantiate executes one child instantiation and reports its outcome.
// Environment-side failures are outcomes, not errors: the factory decides
// what a failed instantiation means.
func (h *Host) instantiate(ctx context.Context, sub ir.SubMsg, height uint64) ir.Outcome {
	code, ok := h.lookupCode(sub.CodeID)
	if !ok {
		return ir.Outcome{Err: fmt.Sprintf("no code stored under id %d", sub.CodeID)}
	}
	if code.Hash != sub.CodeHash {
		return ir.Outcome{Err: fmt.Sprintf("code hash mismatch for code id %d", sub.CodeID)}
	}

	addr, err := h.addrs.Next(AddressRequest{Creator: h.self, CodeID: sub.CodeID, Token: sub.Token})
	if err != nil {
		return ir.Outcome{Err: err.Error()}
	}

	data, err := code.Program.Instantiate(ctx, ChildEnv{
		Address: addr,
		Creator: h.self,
		Label:   sub.Label,
		Funds:   sub.Funds,
		Height:  height,
	}, sub.Msg)
	if err != nil {
		h.log.Debug().
			Uint64("token", sub.Token).
			Str("address", string(addr)).
			Err(err).
			Msg("child instantiation failed")
		return ir.Outcome{Err: err.Error()}
	}
	return ir.Outcome{Data: data}
}

func (h *Host) lookupCode(id uint64) (Code, bool) {
	h.codesMu.RLock()
	defer h.codesMu.RUnlock()
	c, ok := h.codes[id]
	return c, ok
}

func (h *Host) abort(res *UnitResult, i int, msg ir.ExecuteMsg, err error) error {
	uerr := &UnitError{UnitID: res.ID, Index: i, Kind: msg.Kind(), Err: err}
	ev := h.log.Warn()
	if factory.IsFatal(err) {
		ev = h.log.Error()
	}
	ev.Str("unit", res.ID).
		Str("caller", string(res.Caller)).
		Int("index", i).
		Str("kind", uerr.Kind).
		Str("code", string(factory.CodeOf(err))).
		Err(err).
		Msg("unit aborted")
	return uerr
}
