package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/bookshelf/internal/ir"
)

// TraceSnapshot captures the deterministic part of a scenario execution.
// Dispatch ids are left out; event ids and the state root are content
// hashes and stay in.
type TraceSnapshot struct {
	ScenarioName string
	Result       *Result
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization, since ir.MarshalCanonical only handles IR types and
// primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	steps := make([]any, len(s.Result.Steps))
	for i, st := range s.Result.Steps {
		steps[i] = map[string]any{
			"book_id": st.BookID,
			"call":    st.Call,
			"events":  eventList(st.Events),
			"origin":  st.Origin,
			"outcome": st.Outcome,
			"step":    st.Step,
			"weight":  st.Weight,
		}
	}

	bookList := make([]any, len(s.Result.Books))
	for i, b := range s.Result.Books {
		bookList[i] = map[string]any{
			"book_id":     b.ID.String(),
			"description": b.Metadata.Description.String(),
			"title":       b.Metadata.Title.String(),
		}
	}

	return map[string]any{
		"books":      bookList,
		"scenario":   s.ScenarioName,
		"state_root": s.Result.StateRoot,
		"steps":      steps,
	}
}

func eventList(events []ir.Event) []any {
	out := make([]any, len(events))
	for i, ev := range events {
		out[i] = map[string]any{
			"book_id": ev.BookID.String(),
			"caller":  ev.Caller,
			"id":      ev.ID,
			"kind":    ev.Kind,
			"seq":     ev.Seq,
		}
	}
	return out
}

// MarshalTrace renders a result as canonical JSON.
func MarshalTrace(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{ScenarioName: scenarioName, Result: result}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
