package factory

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/factory/internal/ir"
	"github.com/roach88/factory/internal/metrics"
	"github.com/roach88/factory/internal/store"
)

// OnOutcome consumes the outcome of the child instantiation issued under token.
//
// The pending entry is removed first, whatever happens next, so a token is
// consumed exactly once. A registry entry is written only when the child
// was instantiated and its registration payload is well formed. Every
// error is returned to the environment; a DuplicateAddress error is fatal
// and the environment must abort the whole unit of work.
func (f *Factory) OnOutcome(ctx context.Context, st State, token uint64, out ir.Outcome) (ir.InstanceRecord, error) {
	pending, err := st.TakePending(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		f.metrics.OutcomeProcessed(metrics.OutcomeUnknown)
		return ir.InstanceRecord{}, f.replyError(token, &Error{
			Code:    CodeUnknownCorrelation,
			Message: "no pending instantiation for token",
			Token:   token,
		})
	}
	if err != nil {
		return ir.InstanceRecord{}, fmt.Errorf("on outcome: %w", err)
	}

	if !out.Succeeded() {
		f.metrics.OutcomeProcessed(metrics.OutcomeFailed)
		return ir.InstanceRecord{}, f.replyError(token, &Error{
			Code:    CodeChildInstantiationFailed,
			Message: out.Err,
			Token:   token,
		})
	}

	addr, extra, err := ir.ParseReplyData(out.Data)
	if err == nil && f.validator != nil {
		if verr := f.validator.Validate(extra); verr != nil {
			err = fmt.Errorf("extra does not match schema: %w", verr)
		}
	}
	if err != nil {
		f.metrics.OutcomeProcessed(metrics.OutcomeMalformed)
		return ir.InstanceRecord{}, f.replyError(token, &Error{
			Code:    CodeMalformedChildReply,
			Message: err.Error(),
			Token:   token,
		})
	}

	cfg, err := loadConfig(ctx, st)
	if err != nil {
		return ir.InstanceRecord{}, err
	}

	seq, err := st.InsertInstance(ctx, addr, extra, cfg.CodeRef.CodeHash, pending.RequestedBy)
	if errors.Is(err, store.ErrDuplicateAddress) {
		f.metrics.OutcomeProcessed(metrics.OutcomeDuplicate)
		return ir.InstanceRecord{}, f.replyError(token, &Error{
			Code:    CodeDuplicateAddress,
			Message: fmt.Sprintf("child reported address %q which is already registered", addr),
			Token:   token,
			Fatal:   true,
		})
	}
	if err != nil {
		return ir.InstanceRecord{}, fmt.Errorf("on outcome: %w", err)
	}

	rec := ir.InstanceRecord{
		Address:   addr,
		Extra:     extra,
		Sequence:  seq,
		CodeHash:  cfg.CodeRef.CodeHash,
		CreatedBy: pending.RequestedBy,
	}

	f.metrics.OutcomeProcessed(metrics.OutcomeRegistered)
	if n, err := st.CountInstances(ctx); err == nil {
		f.metrics.RegistrySize(n)
	}
	ev := f.log.Info().
		Uint64("token", token).
		Str("address", string(addr)).
		Uint64("seq", seq).
		Str("created_by", string(pending.RequestedBy))
	if digest, err := ir.ExtraDigest(extra); err == nil {
		ev = ev.Str("extra_digest", digest)
	}
	ev.Msg("instance registered")
	return rec, nil
}

func (f *Factory) replyError(token uint64, err *Error) error {
	ev := f.log.Warn()
	if err.Fatal {
		ev = f.log.Error()
	}
	ev.Uint64("token", token).
		Str("code", string(err.Code)).
		Bool("fatal", err.Fatal).
		Msg(err.Message)
	return err
}
