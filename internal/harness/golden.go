package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir is where golden traces live, relative to the test's package.
const GoldenDir = "testdata/golden"

// Trace runs a scenario and returns its canonical JSON trace.
func Trace(scenario *Scenario, opts ...Option) ([]byte, *Result, error) {
	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, nil, err
	}
	data, err := canonicalTrace(scenario.Name, result.Trace)
	if err != nil {
		return nil, nil, err
	}
	return data, result, nil
}

// RunWithGolden executes a scenario and compares the trace against the
// golden file GoldenDir/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass. Test failure (via
// goldie) occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...goldie.Option) (*Result, error) {
	t.Helper()

	data, result, err := Trace(scenario)
	if err != nil {
		return nil, err
	}
	newGoldie(t, opts...).Assert(t, scenario.Name, data)
	return result, nil
}

func newGoldie(t *testing.T, opts ...goldie.Option) *goldie.Goldie {
	base := []goldie.Option{
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	}
	return goldie.New(t, append(base, opts...)...)
}
