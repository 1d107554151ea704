package cli

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/factory/internal/config"
	"github.com/roach88/factory/internal/factory"
	"github.com/roach88/factory/internal/host"
	"github.com/roach88/factory/internal/ir"
	"github.com/roach88/factory/internal/logging"
	"github.com/roach88/factory/internal/metrics"
	"github.com/roach88/factory/internal/schema"
	"github.com/roach88/factory/internal/store"
)

// Child code every session stores. Ids follow storage order, so "echo" is
// always code id 1 and "echo-v2" code id 2.
var (
	echoCode   = []byte("factoryctl-echo-v1")
	echoCodeV2 = []byte("factoryctl-echo-v2")
)

// session is the state one command runs against.
type session struct {
	cfg      *config.Config
	out      *OutputFormatter
	log      zerolog.Logger
	store    *store.Store
	host     *host.Host
	registry *prometheus.Registry
	echo     ir.CodeRef
}

// openSession loads configuration and wires store, factory and host.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.Caller != "" {
		cfg.Caller = opts.Caller
	}
	if opts.Verbose {
		cfg.Verbose()
	}

	logCfg := cfg.Logging()
	logCfg.Out = cmd.ErrOrStderr()
	log := logging.New(logCfg, "factoryctl")

	registry := prometheus.NewRegistry()
	sink, err := metrics.NewPromSink(registry)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "register metrics", err)
	}

	fopts := []factory.Option{
		factory.WithLogger(log.With().Str("component", "factory").Logger()),
		factory.WithMetrics(sink),
		factory.WithMaxPageLimit(cfg.PageLimitMax),
	}
	if cfg.ExtraSchema != "" {
		v, err := schema.Load(cfg.ExtraSchema)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "load extra schema", err)
		}
		fopts = append(fopts, factory.WithExtraValidator(v))
		out.VerboseLog("extra schema: %s", v.Source())
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}
	out.VerboseLog("database: %s", cfg.Database)

	hopts := []host.Option{
		host.WithLogger(log.With().Str("component", "host").Logger()),
		host.WithHeights(host.NewClockAt(uint64(time.Now().Unix()))),
	}
	if cfg.Addresses == config.AddressesUUID {
		hopts = append(hopts, host.WithAddresses(host.UUIDAddresses{}))
	}
	h := host.New(st, factory.New(fopts...), hopts...)
	echo := h.StoreCode("echo", echoCode, host.EchoChild{})
	h.StoreCode("echo-v2", echoCodeV2, host.EchoChild{})

	return &session{
		cfg:      cfg,
		out:      out,
		log:      log,
		store:    st,
		host:     h,
		registry: registry,
		echo:     echo,
	}, nil
}

// caller returns the configured caller address.
func (s *session) caller() (ir.Address, error) {
	if s.cfg.Caller == "" {
		return "", NewExitError(ExitCommandError, "caller is required: set --caller or caller in the config")
	}
	return ir.Address(s.cfg.Caller), nil
}

// codeRef resolves a code id against the code table. A non-empty hash is
// used as given so mismatches reach the factory.
func (s *session) codeRef(id uint64, hash string) (ir.CodeRef, error) {
	if hash != "" {
		return ir.CodeRef{CodeID: id, CodeHash: hash}, nil
	}
	for _, c := range s.host.Codes() {
		if c.ID == id {
			return c.Ref(), nil
		}
	}
	return ir.CodeRef{}, NewExitError(ExitCommandError, fmt.Sprintf("no code stored under id %d; pass --code-hash", id))
}

// Close flushes metrics and closes the store.
func (s *session) Close() {
	if path := s.cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path, s.registry); err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("metrics not written")
		}
	}
	if err := s.store.Close(); err != nil {
		s.log.Warn().Err(err).Msg("close database")
	}
}
