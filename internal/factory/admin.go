package factory

import (
	"context"
	"fmt"

	"github.com/roach88/factory/internal/ir"
)

// UpdateCode replaces the child-code reference used by later creations.
// Existing registry entries keep the code hash they were created from.
func (f *Factory) UpdateCode(ctx context.Context, st State, env Env, ref ir.CodeRef) (ir.Response, error) {
	cfg, err := loadConfig(ctx, st)
	if err != nil {
		return ir.Response{}, err
	}
	if err := f.admit(cfg, env, OpUpdateCode); err != nil {
		return ir.Response{}, err
	}
	if err := ref.Validate(); err != nil {
		return ir.Response{}, f.deny(OpUpdateCode, env, newError(CodeInvalidArgument, "code: %v", err))
	}

	if err := st.SetCodeRef(ctx, ref); err != nil {
		return ir.Response{}, fmt.Errorf("update code: %w", err)
	}
	f.changed(OpUpdateCode, env, "code_id", fmt.Sprint(ref.CodeID))
	return adminResponse(OpUpdateCode), nil
}

// RotateAdmin hands administration to newAdmin. The old admin loses every
// admin right immediately.
func (f *Factory) RotateAdmin(ctx context.Context, st State, env Env, newAdmin ir.Address) (ir.Response, error) {
	cfg, err := loadConfig(ctx, st)
	if err != nil {
		return ir.Response{}, err
	}
	if err := f.admit(cfg, env, OpRotateAdmin); err != nil {
		return ir.Response{}, err
	}
	if newAdmin == "" {
		return ir.Response{}, f.deny(OpRotateAdmin, env, newError(CodeInvalidArgument, "new admin must not be empty"))
	}

	if err := st.SetAdmin(ctx, newAdmin); err != nil {
		return ir.Response{}, fmt.Errorf("rotate admin: %w", err)
	}
	f.changed(OpRotateAdmin, env, "new_admin", string(newAdmin))
	return adminResponse(OpRotateAdmin), nil
}

// SetStatus moves the factory to status.
//
// Re-setting the current status is allowed. Stopped is terminal: from
// there only stopped itself is accepted, anything else is InvalidTransition.
func (f *Factory) SetStatus(ctx context.Context, st State, env Env, status ir.Status) (ir.Response, error) {
	cfg, err := loadConfig(ctx, st)
	if err != nil {
		return ir.Response{}, err
	}
	if err := f.admit(cfg, env, OpSetStatus); err != nil {
		return ir.Response{}, err
	}
	if !status.Valid() {
		return ir.Response{}, f.deny(OpSetStatus, env, newError(CodeInvalidArgument, "unknown status %q", status))
	}
	if cfg.Status == ir.StatusStopped && status != ir.StatusStopped {
		return ir.Response{}, f.deny(OpSetStatus, env,
			newError(CodeInvalidTransition, "factory is stopped; cannot move to %s", status))
	}

	if err := st.SetStatus(ctx, status); err != nil {
		return ir.Response{}, fmt.Errorf("set status: %w", err)
	}
	f.changed(OpSetStatus, env, "status", string(status))
	return adminResponse(OpSetStatus), nil
}

func (f *Factory) changed(op Operation, env Env, key, value string) {
	f.metrics.AdminChanged(string(op))
	f.log.Info().
		Str("op", string(op)).
		Str("caller", string(env.Caller)).
		Str(key, value).
		Msg("config changed")
}

func adminResponse(op Operation) ir.Response {
	return ir.Response{Attributes: map[string]string{"action": string(op)}}
}
