package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bookshelf/internal/books"
	"github.com/roach88/bookshelf/internal/ir"
	"github.com/roach88/bookshelf/internal/runtime"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// MaxLength is the registry bound. Zero means ir.DefaultMaxLength.
	MaxLength int `yaml:"max_length,omitempty"`

	// Backend selects the in-memory backend: "sqlite" (default) or "badger".
	Backend string `yaml:"backend,omitempty"`

	// Steps are dispatched in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the committed events and final records.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one dispatched call with its expected outcome.
type Step struct {
	// Call is "create_book" or "remove_book".
	Call string `yaml:"call"`

	// Caller is the signing account. Required for signed origins.
	Caller string `yaml:"caller,omitempty"`

	// Origin is "signed" (default), "root", or "none".
	Origin string `yaml:"origin,omitempty"`

	// Args are the raw call arguments.
	Args StepArgs `yaml:"args"`

	// Expect is the expected outcome, e.g. "Ok" or "BookNotFound".
	// Empty means "Ok".
	Expect string `yaml:"expect,omitempty"`
}

// StepArgs holds call arguments. Title and Description are ignored by
// remove_book.
type StepArgs struct {
	BookID      string `yaml:"book_id"`
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Assertion validates the event log or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Kind is the event kind (event_contains, event_count).
	Kind string `yaml:"kind,omitempty"`

	// Caller filters event_contains by caller.
	Caller string `yaml:"caller,omitempty"`

	// BookID filters event_contains by book id. A pointer so the empty id
	// can be asserted on.
	BookID *string `yaml:"book_id,omitempty"`

	// Count is the expected number of matching events (event_count).
	Count int `yaml:"count,omitempty"`

	// Kinds is the expected relative order (event_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// Books is the exact expected record set (final_state).
	Books map[string]BookState `yaml:"books,omitempty"`
}

// BookState is an expected stored record.
type BookState struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Assertion type constants.
const (
	AssertEventContains = "event_contains"
	AssertEventCount    = "event_count"
	AssertEventOrder    = "event_order"
	AssertFinalState    = "final_state"
)

var validOutcomes = map[string]bool{
	string(runtime.OutcomeOK):             true,
	string(runtime.OutcomeBadOrigin):      true,
	string(books.CodeTooLong):             true,
	string(books.CodeBookIDAlreadyExists): true,
	string(books.CodeBookNotFound):        true,
}

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

// LoadScenarioDir loads every *.yaml file in dir, sorted by file name.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
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

	if s.MaxLength < 0 {
		return fmt.Errorf("max_length must not be negative")
	}

	switch s.Backend {
	case "", runtime.BackendSQLite, runtime.BackendBadger:
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", runtime.BackendSQLite, runtime.BackendBadger, s.Backend)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("step[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion[%d]: %w", i, err)
		}
	}

	return nil
}

func validateStep(step Step) error {
	switch step.Call {
	case runtime.CallCreateBook, runtime.CallRemoveBook:
	default:
		return fmt.Errorf("unknown call %q", step.Call)
	}

	switch step.Origin {
	case "", string(runtime.OriginSigned):
		if step.Caller == "" {
			return fmt.Errorf("caller is required for a signed origin")
		}
	case string(runtime.OriginRoot), string(runtime.OriginNone):
	default:
		return fmt.Errorf("unknown origin %q", step.Origin)
	}

	if step.Expect != "" && !validOutcomes[step.Expect] {
		return fmt.Errorf("unknown expected outcome %q", step.Expect)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertEventContains:
		if a.Kind == "" {
			return fmt.Errorf("event_contains requires kind")
		}
	case AssertEventCount:
		if a.Count < 0 {
			return fmt.Errorf("event_count requires a non-negative count")
		}
	case AssertEventOrder:
		if len(a.Kinds) < 2 {
			return fmt.Errorf("event_order requires at least two kinds")
		}
	case AssertFinalState:
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}

	for _, k := range append([]string{a.Kind}, a.Kinds...) {
		if k != "" && !ir.ValidEventKinds[ir.EventKind(k)] {
			return fmt.Errorf("unknown event kind %q", k)
		}
	}
	return nil
}

// origin resolves the step's origin.
func (s Step) origin() runtime.Origin {
	switch s.Origin {
	case string(runtime.OriginRoot):
		return runtime.Root()
	case string(runtime.OriginNone):
		return runtime.None()
	default:
		return runtime.Signed(ir.AccountID(s.Caller))
	}
}

// call builds the runtime call for the step.
func (s Step) call() runtime.Call {
	if s.Call == runtime.CallRemoveBook {
		return runtime.RemoveBook{BookID: []byte(s.Args.BookID)}
	}
	return runtime.CreateBook{
		BookID:      []byte(s.Args.BookID),
		Title:       []byte(s.Args.Title),
		Description: []byte(s.Args.Description),
	}
}

// expected returns the expected outcome, defaulting to Ok.
func (s Step) expected() string {
	if s.Expect == "" {
		return string(runtime.OutcomeOK)
	}
	return s.Expect
}
