package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Factory configures the deployment every run starts from.
	Factory FactorySetup `yaml:"factory"`

	// Steps run in order; each is either a unit of work or a query.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final registry and config.
	Assertions []Assertion `yaml:"assertions"`
}

// FactorySetup describes the factory deployment.
type FactorySetup struct {
	// Deployer instantiates the factory and is admin unless Admin is set.
	Deployer string `yaml:"deployer"`
	Admin    string `yaml:"admin,omitempty"`

	// AuthMode is "admin_only" (default) or "open".
	AuthMode string `yaml:"auth_mode,omitempty"`

	// ExtraSchema is a CUE file validating child extra data, relative to
	// the scenario file.
	ExtraSchema string `yaml:"extra_schema,omitempty"`
}

// Step is one scenario step. Exactly one of Execute and Query is set.
type Step struct {
	// Caller is the attested identity for Execute.
	Caller string `yaml:"caller,omitempty"`

	// Execute holds the commands of one unit of work, in the JSON shape of
	// ir.ExecuteMsg.
	Execute []map[string]any `yaml:"execute,omitempty"`

	// Query is one query in the JSON shape of ir.QueryMsg.
	Query map[string]any `yaml:"query,omitempty"`

	// Expect checks the step's outcome. A step without Expect must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected step outcome.
type Expect struct {
	// Error is the expected error code (e.g. FACTORY_PAUSED). Empty means
	// the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Addresses are the created addresses (execute), the page's addresses
	// (list_instances) or the looked-up address (get_instance), in order.
	Addresses []string `yaml:"addresses,omitempty"`

	// NextCursor is the expected list_instances cursor.
	NextCursor *uint64 `yaml:"next_cursor,omitempty"`

	// LastPage requires list_instances to return no cursor.
	LastPage bool `yaml:"last_page,omitempty"`

	// Total is the expected list_instances total.
	Total *uint64 `yaml:"total,omitempty"`

	// Status and Admin check a get_config answer.
	Status string `yaml:"status,omitempty"`
	Admin  string `yaml:"admin,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "registry_count": the registry holds exactly Count entries
	// - "registry_order": the registry lists exactly Addresses, in order
	// - "pending_empty": no instantiation is left pending
	// - "registry_consistent": sequences are gap-free and counters agree
	// - "config": the config matches Status, Admin and AuthMode where set
	Type string `yaml:"type"`

	Count     int      `yaml:"count,omitempty"`
	Addresses []string `yaml:"addresses,omitempty"`
	Status    string   `yaml:"status,omitempty"`
	Admin     string   `yaml:"admin,omitempty"`
	AuthMode  string   `yaml:"auth_mode,omitempty"`
}

// Assertion type constants.
const (
	AssertRegistryCount      = "registry_count"
	AssertRegistryOrder      = "registry_order"
	AssertPendingEmpty       = "pending_empty"
	AssertRegistryConsistent = "registry_consistent"
	AssertConfig             = "config"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// The extra_schema path is resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if s := scenario.Factory.ExtraSchema; s != "" && !filepath.IsAbs(s) {
		scenario.Factory.ExtraSchema = filepath.Join(filepath.Dir(path), s)
	}
	if s := scenario.Factory.ExtraSchema; s != "" {
		if _, err := os.Stat(s); err != nil {
			return nil, fmt.Errorf("invalid scenario: extra_schema: %w", err)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios found in %s", dir)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Factory.Deployer == "" {
		return fmt.Errorf("factory.deployer is required")
	}
	switch s.Factory.AuthMode {
	case "", "admin_only", "open":
	default:
		return fmt.Errorf("factory.auth_mode: unknown mode %q", s.Factory.AuthMode)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch {
		case len(step.Execute) > 0 && step.Query != nil:
			return fmt.Errorf("steps[%d]: execute and query are mutually exclusive", i)
		case len(step.Execute) > 0:
			if step.Caller == "" {
				return fmt.Errorf("steps[%d]: caller is required for execute", i)
			}
		case step.Query != nil:
		default:
			return fmt.Errorf("steps[%d]: one of execute or query is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRegistryCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for registry_count", index)
		}
	case AssertRegistryOrder:
		if a.Addresses == nil {
			return fmt.Errorf("assertions[%d]: addresses list is required for registry_order", index)
		}
	case AssertPendingEmpty, AssertRegistryConsistent:
	case AssertConfig:
		if a.Status == "" && a.Admin == "" && a.AuthMode == "" {
			return fmt.Errorf("assertions[%d]: config needs at least one of status, admin, auth_mode", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
