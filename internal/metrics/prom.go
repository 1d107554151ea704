package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records factory events in Prometheus metrics.
type PromSink struct {
	creations prometheus.Counter
	outcomes  *prometheus.CounterVec
	denials   *prometheus.CounterVec
	admin     *prometheus.CounterVec
	registry  prometheus.Gauge
}

// NewPromSink registers factory metrics on reg. A nil registerer defaults
// to the global Prometheus registerer. Collectors already registered by an
// earlier sink are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	creations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "factory_creations_requested_total",
		Help: "Creation requests admitted and issued as child instantiations",
	})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "factory_outcomes_total",
		Help: "Child instantiation outcomes processed, by result",
	}, []string{"result"})
	denials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "factory_denials_total",
		Help: "Operations rejected before any state change, by operation and error code",
	}, []string{"op", "code"})
	admin := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "factory_admin_changes_total",
		Help: "Successful administrative mutations, by operation",
	}, []string{"op"})
	registry := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "factory_registry_instances",
		Help: "Number of registered child instances",
	})

	var err error
	if creations, err = register(reg, creations); err != nil {
		return nil, err
	}
	if outcomes, err = register(reg, outcomes); err != nil {
		return nil, err
	}
	if denials, err = register(reg, denials); err != nil {
		return nil, err
	}
	if admin, err = register(reg, admin); err != nil {
		return nil, err
	}
	if registry, err = register(reg, registry); err != nil {
		return nil, err
	}

	return &PromSink{
		creations: creations,
		outcomes:  outcomes,
		denials:   denials,
		admin:     admin,
		registry:  registry,
	}, nil
}

// register registers c, or returns the collector that already occupies its
// descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return c, fmt.Errorf("register metric: %w", err)
		}
		existing, ok := are.ExistingCollector.(C)
		if !ok {
			return c, fmt.Errorf("register metric: existing collector has type %T", are.ExistingCollector)
		}
		return existing, nil
	}
	return c, nil
}

func (s *PromSink) CreationRequested() {
	s.creations.Inc()
}

func (s *PromSink) OutcomeProcessed(result string) {
	s.outcomes.WithLabelValues(result).Inc()
}

func (s *PromSink) Denied(op, code string) {
	s.denials.WithLabelValues(op, code).Inc()
}

func (s *PromSink) AdminChanged(op string) {
	s.admin.WithLabelValues(op).Inc()
}

func (s *PromSink) RegistrySize(n uint64) {
	s.registry.Set(float64(n))
}
