package factory

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/roach88/factory/internal/ir"
	"github.com/roach88/factory/internal/metrics"
	"github.com/roach88/factory/internal/store"
)

// DefaultMaxPageLimit bounds ListInstances responses.
const DefaultMaxPageLimit = 30

// ExtraValidator checks a child's extra data against the factory's schema.
// Implemented by schema.Validator.
type ExtraValidator interface {
	Validate(extra ir.IRObject) error
}

// Factory is the factory state machine.
//
// A Factory holds no state of its own: every operation reads and writes
// through the Reader or State it is given, so one Factory can serve any
// number of units of work. The environment serializes operations against
// a given store; Factory methods do no locking.
type Factory struct {
	log          zerolog.Logger
	metrics      metrics.Sink
	validator    ExtraValidator
	maxPageLimit uint32
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the logger. Default: discard.
func WithLogger(log zerolog.Logger) Option {
	return func(f *Factory) {
		f.log = log
	}
}

// WithMetrics sets the metrics sink. Default: metrics.NopSink.
func WithMetrics(sink metrics.Sink) Option {
	return func(f *Factory) {
		if sink != nil {
			f.metrics = sink
		}
	}
}

// WithExtraValidator validates every child's extra data before registration.
// Without one, any JSON object is accepted.
func WithExtraValidator(v ExtraValidator) Option {
	return func(f *Factory) {
		f.validator = v
	}
}

// WithMaxPageLimit overrides DefaultMaxPageLimit. Zero is ignored.
func WithMaxPageLimit(n uint32) Option {
	return func(f *Factory) {
		if n > 0 {
			f.maxPageLimit = n
		}
	}
}

// New creates a Factory.
func New(opts ...Option) *Factory {
	f := &Factory{
		log:          zerolog.Nop(),
		metrics:      metrics.NopSink{},
		maxPageLimit: DefaultMaxPageLimit,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// MaxPageLimit returns the page size ListInstances clamps to.
func (f *Factory) MaxPageLimit() uint32 {
	return f.maxPageLimit
}

// loadConfig maps a missing config row to NotFound.
func loadConfig(ctx context.Context, r Reader) (ir.FactoryConfig, error) {
	cfg, err := r.LoadConfig(ctx)
	if errors.Is(err, store.ErrNotInitialized) {
		return cfg, newError(CodeNotFound, "factory has not been instantiated")
	}
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

// admit runs the authorization guard and then the lifecycle gate for op.
// The first denial wins and is recorded.
func (f *Factory) admit(cfg ir.FactoryConfig, env Env, op Operation) error {
	if err := Authorize(cfg, env.Caller, op.Class()); err != nil {
		return f.deny(op, env, err)
	}
	if err := Admit(cfg.Status, op); err != nil {
		return f.deny(op, env, err)
	}
	return nil
}

// deny records a rejected operation and returns err unchanged.
func (f *Factory) deny(op Operation, env Env, err error) error {
	code := CodeOf(err)
	f.metrics.Denied(string(op), string(code))
	f.log.Info().
		Str("op", string(op)).
		Str("caller", string(env.Caller)).
		Str("code", string(code)).
		Err(err).
		Msg("operation denied")
	return err
}
