package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/factory/internal/factory"
	"github.com/roach88/factory/internal/host"
	"github.com/roach88/factory/internal/ir"
	"github.com/roach88/factory/internal/schema"
	"github.com/roach88/factory/internal/store"
	"github.com/roach88/factory/internal/testutil"
)

// Code bytes stored in every harness run.
var (
	echoCodeV1 = []byte("factory-harness-echo-v1")
	echoCodeV2 = []byte("factory-harness-echo-v2")
)

// Harness executes one scenario.
type Harness struct {
	store *store.Store
	host  *host.Host
}

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	log zerolog.Logger
}

// WithLogger logs host and factory activity during the run. Default: discard.
func WithLogger(log zerolog.Logger) Option {
	return func(c *runConfig) {
		c.log = log
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database. A returned error
// means the scenario could not be run at all; failed expectations and
// assertions are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	fopts := []factory.Option{factory.WithLogger(cfg.log.With().Str("component", "factory").Logger())}
	if scenario.Factory.ExtraSchema != "" {
		v, err := schema.Load(scenario.Factory.ExtraSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to load extra schema: %w", err)
		}
		fopts = append(fopts, factory.WithExtraValidator(v))
	}

	h := &Harness{
		store: st,
		host: host.New(st, factory.New(fopts...),
			host.WithAddresses(host.SequentialAddresses{}),
			host.WithIDGenerator(testutil.NewSequentialIDs("unit-")),
			host.WithHeights(testutil.NewDeterministicClock()),
			host.WithLogger(cfg.log.With().Str("component", "host").Logger()),
		),
	}
	code := h.host.StoreCode("echo", echoCodeV1, host.EchoChild{})
	h.host.StoreCode("echo-v2", echoCodeV2, host.EchoChild{})

	ctx := context.Background()
	if err := h.deploy(ctx, scenario.Factory, code); err != nil {
		return nil, fmt.Errorf("failed to deploy factory: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		var err error
		if step.Query != nil {
			err = h.runQuery(ctx, i, step, result)
		} else {
			err = h.runUnit(ctx, i, step, result)
		}
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	for _, msg := range EvaluateAssertions(ctx, st, scenario.Assertions) {
		result.AddError("%s", msg)
	}
	return result, nil
}

func (h *Harness) deploy(ctx context.Context, setup FactorySetup, code ir.CodeRef) error {
	msg := ir.InstantiateMsg{Code: code, AuthMode: ir.AuthMode(setup.AuthMode)}
	if setup.Admin != "" {
		admin := ir.Address(setup.Admin)
		msg.Admin = &admin
	}
	_, err := h.host.Deploy(ctx, ir.Address(setup.Deployer), msg)
	return err
}

// runUnit executes one unit of work and records it in the trace.
func (h *Harness) runUnit(ctx context.Context, i int, step Step, result *Result) error {
	msgs := make([]ir.ExecuteMsg, len(step.Execute))
	kinds := make([]string, len(step.Execute))
	for j, raw := range step.Execute {
		if err := decodeJSON(raw, &msgs[j]); err != nil {
			return fmt.Errorf("execute[%d]: %w", j, err)
		}
		h.fillCodeHash(&msgs[j])
		kinds[j] = msgs[j].Kind()
	}

	ev := TraceEvent{Type: EventUnit, Step: i, Caller: step.Caller, Kinds: kinds}
	res, err := h.host.Execute(ctx, ir.Address(step.Caller), msgs...)
	if err != nil {
		code := factory.CodeOf(err)
		if code == "" {
			return err
		}
		var uerr *host.UnitError
		if errors.As(err, &uerr) {
			ev.Unit = uerr.UnitID
		}
		ev.Error = string(code)
		result.add(ev)
		checkError(result, i, step.Expect, code)
		return nil
	}

	ev.Unit = res.ID
	result.add(ev)

	var tokens []uint64
	for _, resp := range res.Responses {
		for _, sub := range resp.SubMsgs {
			tokens = append(tokens, sub.Token)
			result.add(TraceEvent{Type: EventCreate, Step: i, Unit: res.ID, Token: sub.Token})
		}
	}
	created := make([]string, len(res.Created))
	for j, rec := range res.Created {
		seq := rec.Sequence
		ev := TraceEvent{Type: EventReply, Step: i, Address: string(rec.Address), Sequence: &seq}
		if j < len(tokens) {
			ev.Token = tokens[j]
		}
		result.add(ev)
		created[j] = string(rec.Address)
	}

	checkError(result, i, step.Expect, "")
	if step.Expect != nil && step.Expect.Addresses != nil {
		checkAddresses(result, i, step.Expect.Addresses, created)
	}
	return nil
}

// runQuery answers one query and records a summary in the trace.
func (h *Harness) runQuery(ctx context.Context, i int, step Step, result *Result) error {
	var q ir.QueryMsg
	if err := decodeJSON(step.Query, &q); err != nil {
		return fmt.Errorf("query: %w", err)
	}

	ev := TraceEvent{Type: EventQuery, Step: i, Kind: q.Kind()}
	got, err := h.host.Query(ctx, q)
	if err != nil {
		code := factory.CodeOf(err)
		if code == "" {
			return err
		}
		ev.Error = string(code)
		result.add(ev)
		checkError(result, i, step.Expect, code)
		return nil
	}

	var addrs []string
	switch {
	case got.Instance != nil:
		addrs = []string{string(got.Instance.Address)}
	case got.Page != nil:
		addrs = make([]string, len(got.Page.Instances))
		for j, rec := range got.Page.Instances {
			addrs[j] = string(rec.Address)
		}
		total := got.Page.Total
		ev.NextCursor = got.Page.NextCursor
		ev.Total = &total
	case got.Config != nil:
		ev.Status = string(got.Config.Status)
		ev.Admin = string(got.Config.Admin)
	}
	ev.Addresses = addrs
	result.add(ev)

	checkError(result, i, step.Expect, "")
	exp := step.Expect
	if exp == nil {
		return nil
	}
	if exp.Addresses != nil {
		checkAddresses(result, i, exp.Addresses, addrs)
	}
	if exp.NextCursor != nil && (ev.NextCursor == nil || *ev.NextCursor != *exp.NextCursor) {
		result.AddError("step %d: expected next_cursor %d, got %s", i, *exp.NextCursor, formatCursor(ev.NextCursor))
	}
	if exp.LastPage && ev.NextCursor != nil {
		result.AddError("step %d: expected last page, got next_cursor %d", i, *ev.NextCursor)
	}
	if exp.Total != nil && (ev.Total == nil || *ev.Total != *exp.Total) {
		result.AddError("step %d: expected total %d, got %s", i, *exp.Total, formatCursor(ev.Total))
	}
	if exp.Status != "" && exp.Status != ev.Status {
		result.AddError("step %d: expected status %q, got %q", i, exp.Status, ev.Status)
	}
	if exp.Admin != "" && exp.Admin != ev.Admin {
		result.AddError("step %d: expected admin %q, got %q", i, exp.Admin, ev.Admin)
	}
	return nil
}

// fillCodeHash completes an update_code reference that names only a code id.
func (h *Harness) fillCodeHash(msg *ir.ExecuteMsg) {
	if msg.UpdateCode == nil || msg.UpdateCode.Code.CodeHash != "" {
		return
	}
	for _, c := range h.host.Codes() {
		if c.ID == msg.UpdateCode.Code.CodeID {
			msg.UpdateCode.Code.CodeHash = c.Hash
			return
		}
	}
}

func checkError(result *Result, i int, exp *Expect, got factory.Code) {
	want := ""
	if exp != nil {
		want = exp.Error
	}
	if string(got) != want {
		if want == "" {
			result.AddError("step %d: unexpected error %s", i, got)
		} else if got == "" {
			result.AddError("step %d: expected error %s, step succeeded", i, want)
		} else {
			result.AddError("step %d: expected error %s, got %s", i, want, got)
		}
	}
}

func checkAddresses(result *Result, i int, want, got []string) {
	if len(want) != len(got) {
		result.AddError("step %d: expected addresses %v, got %v", i, want, got)
		return
	}
	for j := range want {
		if want[j] != got[j] {
			result.AddError("step %d: expected addresses %v, got %v", i, want, got)
			return
		}
	}
}

func formatCursor(c *uint64) string {
	if c == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *c)
}

// decodeJSON converts YAML-decoded data into a JSON-tagged message type.
func decodeJSON(in any, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
