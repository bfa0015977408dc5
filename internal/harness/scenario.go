package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mealdb/internal/lifecycle"
)

// Scenario is a scripted sequence of lifecycle operations plus the
// progress it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps run in order against one manager and one fresh data directory.
	Steps []Step `yaml:"steps"`

	// Expect is checked after the last step.
	Expect Expectation `yaml:"expect"`
}

// Step is one operation.
type Step struct {
	// Op is one of run, close, delete, corrupt.
	Op string `yaml:"op"`

	// ExpectError is the error kind the step must fail with (see ErrorKind).
	// Empty means the step must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Expectation describes the observable outcome of a scenario.
//
// Entry patterns match literally, except:
//   - a pattern ending in "*" matches any entry with that prefix
//   - the pattern "<meals>" matches one entry per seeded meal, in any order
type Expectation struct {
	// Emitted is every entry emitted across all steps, in order.
	Emitted []string `yaml:"emitted"`

	// Snapshot is the progress view after the last step. Optional.
	Snapshot []string `yaml:"snapshot,omitempty"`

	// State is the final lifecycle state name (e.g. CLOSED, ERROR).
	State string `yaml:"state"`

	// NeverState lists states that no transition may enter.
	NeverState []string `yaml:"never_state,omitempty"`
}

// Step operations.
const (
	OpRun     = "run"
	OpClose   = "close"
	OpDelete  = "delete"
	OpCorrupt = "corrupt"
)

// MealsPattern expands to the seeded meals.
const MealsPattern = "<meals>"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		switch step.Op {
		case OpRun, OpClose, OpDelete, OpCorrupt:
		case "":
			return fmt.Errorf("steps[%d]: op is required", i)
		default:
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.ExpectError != "" && !lifecycle.IsErrorKind(step.ExpectError) {
			return fmt.Errorf("steps[%d]: unknown expect_error %q", i, step.ExpectError)
		}
	}
	if s.Expect.State == "" {
		return fmt.Errorf("expect.state is required")
	}
	states := append([]string{s.Expect.State}, s.Expect.NeverState...)
	for _, name := range states {
		if _, ok := parseState(name); !ok {
			return fmt.Errorf("expect: unknown state %q", name)
		}
	}
	return nil
}

var allStates = []lifecycle.State{
	lifecycle.Closed,
	lifecycle.Opening,
	lifecycle.Checking,
	lifecycle.Migrating,
	lifecycle.Querying,
	lifecycle.Closing,
	lifecycle.Errored,
}

func parseState(name string) (lifecycle.State, bool) {
	for _, s := range allStates {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}
