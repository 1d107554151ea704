package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/factory/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against committed state and
// returns one message per failure.
func EvaluateAssertions(ctx context.Context, st *store.Store, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(ctx, st, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(ctx context.Context, st *store.Store, a Assertion) error {
	switch a.Type {
	case AssertRegistryCount:
		return assertRegistryCount(ctx, st, a)
	case AssertRegistryOrder:
		return assertRegistryOrder(ctx, st, a)
	case AssertPendingEmpty:
		return assertPendingEmpty(ctx, st)
	case AssertRegistryConsistent:
		return assertRegistryConsistent(ctx, st)
	case AssertConfig:
		return assertConfig(ctx, st, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertRegistryCount(ctx context.Context, st *store.Store, a Assertion) error {
	n, err := st.CountInstances(ctx)
	if err != nil {
		return err
	}
	if n != uint64(a.Count) {
		return &AssertionError{
			Type:     AssertRegistryCount,
			Expected: fmt.Sprintf("%d registry entries", a.Count),
			Actual:   fmt.Sprintf("%d registry entries", n),
		}
	}
	return nil
}

// assertRegistryOrder reads the whole registry in sequence order.
func assertRegistryOrder(ctx context.Context, st *store.Store, a Assertion) error {
	n, err := st.CountInstances(ctx)
	if err != nil {
		return err
	}
	recs, err := st.ListInstances(ctx, nil, int(n))
	if err != nil {
		return err
	}

	got := make([]string, len(recs))
	for i, rec := range recs {
		got[i] = string(rec.Address)
	}
	if !slices.Equal(got, a.Addresses) {
		return &AssertionError{
			Type:     AssertRegistryOrder,
			Expected: fmt.Sprintf("%v", a.Addresses),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func assertPendingEmpty(ctx context.Context, st *store.Store) error {
	n, err := st.CountPending(ctx)
	if err != nil {
		return err
	}
	if n != 0 {
		return &AssertionError{
			Type:     AssertPendingEmpty,
			Expected: "no pending instantiations",
			Actual:   fmt.Sprintf("%d pending", n),
		}
	}
	return nil
}

func assertRegistryConsistent(ctx context.Context, st *store.Store) error {
	report, err := st.CheckIntegrity(ctx)
	if err != nil {
		return err
	}
	if !report.Consistent {
		return &AssertionError{
			Type:     AssertRegistryConsistent,
			Expected: "gap-free sequences matching the counters",
			Actual: fmt.Sprintf("%d entries, next_sequence %d, gaps %v",
				report.Instances, report.NextSequence, report.Gaps),
		}
	}
	return nil
}

func assertConfig(ctx context.Context, st *store.Store, a Assertion) error {
	cfg, err := st.LoadConfig(ctx)
	if err != nil {
		return err
	}

	check := func(field, want, got string) error {
		if want == "" || want == got {
			return nil
		}
		return &AssertionError{
			Type:     AssertConfig,
			Expected: fmt.Sprintf("%s = %q", field, want),
			Actual:   fmt.Sprintf("%s = %q", field, got),
		}
	}
	if err := check("status", a.Status, string(cfg.Status)); err != nil {
		return err
	}
	if err := check("admin", a.Admin, string(cfg.Admin)); err != nil {
		return err
	}
	return check("auth_mode", a.AuthMode, string(cfg.AuthMode))
}
