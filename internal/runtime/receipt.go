package runtime

import "github.com/roach88/bookshelf/internal/ir"

// Outcome is the result class of a dispatch.
// Rejections use the books error code verbatim.
type Outcome string

const (
	OutcomeOK        Outcome = "Ok"
	OutcomeBadOrigin Outcome = "BadOrigin"
	OutcomeFailed    Outcome = "Failed"
)

// Receipt records what happened to one dispatched call.
type Receipt struct {
	// DispatchID correlates the receipt with log lines. Not persisted.
	DispatchID string `json:"dispatch_id"`

	Call   string       `json:"call"`
	Caller ir.AccountID `json:"caller,omitempty"`
	Weight Weight       `json:"weight"`

	Outcome Outcome `json:"outcome"`

	// Events holds the committed events, empty unless Outcome is OutcomeOK.
	Events []ir.Event `json:"events"`
}

// OK reports whether the call committed.
func (r *Receipt) OK() bool {
	return r != nil && r.Outcome == OutcomeOK
}
