package factory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/factory/internal/ir"
)

// Create handles a creation request.
//
// Authorization, the lifecycle gate and request validation all run before
// anything is written, so a rejected request leaves no pending entry. On
// success a fresh token is allocated, the pending entry persisted, and one
// SubMsg returned for the environment to execute. The environment must
// deliver the outcome to OnOutcome within the same unit of work.
func (f *Factory) Create(ctx context.Context, st State, env Env, req ir.CreateInstance) (ir.Response, error) {
	cfg, err := loadConfig(ctx, st)
	if err != nil {
		return ir.Response{}, err
	}
	if err := f.admit(cfg, env, OpCreateInstance); err != nil {
		return ir.Response{}, err
	}
	msg, err := validateCreate(req)
	if err != nil {
		return ir.Response{}, f.deny(OpCreateInstance, env, err)
	}

	token, err := st.NextToken(ctx)
	if err != nil {
		return ir.Response{}, fmt.Errorf("create instance: %w", err)
	}
	if err := st.PutPending(ctx, ir.PendingInstantiation{Token: token, RequestedBy: env.Caller}); err != nil {
		return ir.Response{}, fmt.Errorf("create instance: %w", err)
	}

	sub := ir.SubMsg{
		Token:    token,
		CodeID:   cfg.CodeRef.CodeID,
		CodeHash: cfg.CodeRef.CodeHash,
		Msg:      msg,
		Funds:    req.Funds,
		Label:    ChildLabel(env.Height),
	}

	f.metrics.CreationRequested()
	f.log.Info().
		Str("caller", string(env.Caller)).
		Uint64("token", token).
		Uint64("code_id", sub.CodeID).
		Msg("child instantiation issued")

	return ir.Response{
		SubMsgs: []ir.SubMsg{sub},
		Attributes: map[string]string{
			"action": string(OpCreateInstance),
			"token":  strconv.FormatUint(token, 10),
		},
	}, nil
}

// ChildLabel is the label attached to every child instantiation.
func ChildLabel(height uint64) string {
	return fmt.Sprintf("factory child instance created at height %d", height)
}

// validateCreate checks the request and returns the compacted child msg.
func validateCreate(req ir.CreateInstance) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(req.Msg)
	if len(trimmed) == 0 {
		return nil, newError(CodeInvalidArgument, "instantiate msg must not be empty")
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil || obj == nil {
		return nil, newError(CodeInvalidArgument, "instantiate msg must be a JSON object")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, newError(CodeInvalidArgument, "instantiate msg: %v", err)
	}

	seen := make(map[string]bool, len(req.Funds))
	for i, c := range req.Funds {
		if c.Denom == "" {
			return nil, newError(CodeInvalidArgument, "funds[%d]: denom must not be empty", i)
		}
		if c.Amount == 0 {
			return nil, newError(CodeInvalidArgument, "funds[%d]: amount must be positive", i)
		}
		if seen[c.Denom] {
			return nil, newError(CodeInvalidArgument, "funds[%d]: duplicate denom %q", i, c.Denom)
		}
		seen[c.Denom] = true
	}
	return json.RawMessage(buf.Bytes()), nil
}
