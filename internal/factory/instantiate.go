package factory

import (
	"context"
	"errors"

	"github.com/roach88/factory/internal/ir"
	"github.com/roach88/factory/internal/store"
)

// Instantiate constructs the factory. It runs once per store.
//
// The admin defaults to the deployer and the auth mode to AuthAdminOnly.
// The auth mode is written here and nowhere else: no operation changes it.
func (f *Factory) Instantiate(ctx context.Context, st State, env Env, msg ir.InstantiateMsg) (ir.FactoryConfig, error) {
	admin := env.Caller
	if msg.Admin != nil {
		admin = *msg.Admin
	}
	if admin == "" {
		return ir.FactoryConfig{}, newError(CodeInvalidArgument, "admin must not be empty")
	}
	if err := msg.Code.Validate(); err != nil {
		return ir.FactoryConfig{}, newError(CodeInvalidArgument, "code: %v", err)
	}
	mode := msg.AuthMode
	if mode == "" {
		mode = ir.AuthAdminOnly
	}
	if !mode.Valid() {
		return ir.FactoryConfig{}, newError(CodeInvalidArgument, "unknown auth mode %q", mode)
	}

	cfg := ir.FactoryConfig{
		Admin:    admin,
		CodeRef:  msg.Code,
		AuthMode: mode,
		Status:   ir.StatusOperational,
	}
	if err := st.InitConfig(ctx, cfg); err != nil {
		if errors.Is(err, store.ErrAlreadyInitialized) {
			return ir.FactoryConfig{}, newError(CodeInvalidArgument, "factory is already instantiated")
		}
		return ir.FactoryConfig{}, err
	}

	f.log.Info().
		Str("admin", string(cfg.Admin)).
		Str("auth_mode", string(cfg.AuthMode)).
		Uint64("code_id", cfg.CodeRef.CodeID).
		Msg("factory instantiated")
	return cfg, nil
}
