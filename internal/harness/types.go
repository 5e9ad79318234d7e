package harness

import "github.com/roach88/bookshelf/internal/ir"

// StepTrace records one dispatched step.
type StepTrace struct {
	Step    int        `json:"step"`
	Call    string     `json:"call"`
	Origin  string     `json:"origin"`
	BookID  string     `json:"book_id"`
	Outcome string     `json:"outcome"`
	Weight  int64      `json:"weight"`
	Events  []ir.Event `json:"events"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step outcome matched, every assertion held,
	// and the backend verified cleanly.
	Pass bool `json:"pass"`

	// Steps is the per-step trace.
	Steps []StepTrace `json:"steps"`

	// Events is the full committed event log.
	Events []ir.Event `json:"events"`

	// Books is the final stored record set, ordered by id.
	Books []ir.Book `json:"books"`

	// StateRoot is the content hash of Books.
	StateRoot string `json:"state_root"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepTrace{},
		Events: []ir.Event{},
		Books:  []ir.Book{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
