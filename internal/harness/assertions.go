package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/bookshelf/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string     // Assertion type for categorization
	Expected string     // Human-readable expected outcome
	Actual   string     // Human-readable actual outcome
	Events   []ir.Event // Full event log for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Events) > 0 {
		fmt.Fprintf(&buf, "\nEvent log:\n")
		for _, ev := range e.Events {
			fmt.Fprintf(&buf, "  [%d] %s caller=%s book_id=%q\n", ev.Seq, ev.Kind, ev.Caller, ev.BookID.String())
		}
	}

	return buf.String()
}

func eventMatches(ev ir.Event, a Assertion) bool {
	if a.Kind != "" && string(ev.Kind) != a.Kind {
		return false
	}
	if a.Caller != "" && string(ev.Caller) != a.Caller {
		return false
	}
	if a.BookID != nil && ev.BookID.String() != *a.BookID {
		return false
	}
	return true
}

func describe(a Assertion) string {
	parts := []string{}
	if a.Kind != "" {
		parts = append(parts, a.Kind)
	} else {
		parts = append(parts, "any event")
	}
	if a.Caller != "" {
		parts = append(parts, "caller="+a.Caller)
	}
	if a.BookID != nil {
		parts = append(parts, fmt.Sprintf("book_id=%q", *a.BookID))
	}
	return strings.Join(parts, " ")
}

// assertEventContains checks that at least one committed event matches.
func assertEventContains(events []ir.Event, a Assertion) error {
	for _, ev := range events {
		if eventMatches(ev, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertEventContains,
		Expected: describe(a),
		Actual:   "not found in event log",
		Events:   events,
	}
}

// assertEventCount checks the exact number of matching events.
func assertEventCount(events []ir.Event, a Assertion) error {
	count := 0
	for _, ev := range events {
		if eventMatches(ev, a) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, describe(a)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Events:   events,
		}
	}
	return nil
}

// assertEventOrder checks that the kinds occur as a subsequence of the log.
// Intervening events are allowed.
func assertEventOrder(events []ir.Event, a Assertion) error {
	next := 0
	for _, ev := range events {
		if next < len(a.Kinds) && string(ev.Kind) == a.Kinds[next] {
			next++
		}
	}
	if next < len(a.Kinds) {
		return &AssertionError{
			Type:     AssertEventOrder,
			Expected: fmt.Sprintf("kinds in order: %v", a.Kinds),
			Actual:   fmt.Sprintf("matched only the first %d", next),
			Events:   events,
		}
	}
	return nil
}

// assertFinalState checks that the stored records are exactly a.Books.
func assertFinalState(stored []ir.Book, a Assertion) error {
	actual := make(map[string]BookState, len(stored))
	for _, b := range stored {
		actual[b.ID.String()] = BookState{
			Title:       b.Metadata.Title.String(),
			Description: b.Metadata.Description.String(),
		}
	}

	var problems []string
	for id, want := range a.Books {
		got, ok := actual[id]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("missing %q", id))
		case got != want:
			problems = append(problems, fmt.Sprintf("%q = %+v, want %+v", id, got, want))
		}
	}
	for id := range actual {
		if _, ok := a.Books[id]; !ok {
			problems = append(problems, fmt.Sprintf("unexpected %q", id))
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%d books", len(a.Books)),
			Actual:   strings.Join(problems, ", "),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertEventContains:
			err = assertEventContains(result.Events, a)
		case AssertEventCount:
			err = assertEventCount(result.Events, a)
		case AssertEventOrder:
			err = assertEventOrder(result.Events, a)
		case AssertFinalState:
			err = assertFinalState(result.Books, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
