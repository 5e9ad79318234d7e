package harness

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/bookshelf/internal/books"
	"github.com/roach88/bookshelf/internal/ir"
	"github.com/roach88/bookshelf/internal/runtime"
	"github.com/roach88/bookshelf/internal/testutil"
)

// Option configures a scenario run.
type Option func(*options)

type options struct {
	log zerolog.Logger
}

// WithLogger routes the runtime's logs for the run. Default: discarded.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory backend for isolation.
//
// Execution flow:
//  1. Open the backend with the scenario's bound
//  2. Dispatch every step, comparing its outcome with the expectation
//  3. Read the committed events and final records
//  4. Verify the backend and evaluate assertions
//
// A returned error means the run itself broke (a backend failure); a
// scenario whose expectations do not hold returns a failing Result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	maxLength := scenario.MaxLength
	if maxLength == 0 {
		maxLength = ir.DefaultMaxLength
	}

	backend, err := runtime.OpenBackend(runtime.BackendConfig{
		Kind:      scenario.Backend,
		MaxLength: maxLength,
		Logger:    o.log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory backend: %w", err)
	}

	ctx := context.Background()
	rt, err := runtime.New(ctx, backend,
		runtime.WithLogger(o.log),
		runtime.WithIDGenerator(testutil.NewSequentialIDGenerator("dispatch")),
		runtime.WithCacheSize(0),
	)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to create runtime: %w", err)
	}
	defer rt.Close()

	result := NewResult()
	if err := executeSteps(ctx, rt, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	if result.Events, err = rt.Events(ctx, 0, 0); err != nil {
		return nil, err
	}
	if result.Books, err = backend.ListBooks(ctx); err != nil {
		return nil, fmt.Errorf("read final state: %w", err)
	}

	rep, err := runtime.Verify(ctx, backend)
	if err != nil {
		return nil, err
	}
	result.StateRoot = rep.StateRoot
	for _, p := range rep.Problems {
		result.AddError("verify: " + p)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// executeSteps dispatches each step and records its trace.
func executeSteps(ctx context.Context, rt *runtime.Runtime, steps []Step, result *Result) error {
	for i, step := range steps {
		origin := step.origin()
		call := step.call()

		rc, err := rt.Dispatch(ctx, origin, call)
		if err != nil && !books.IsRejection(err) && !runtime.IsBadOrigin(err) {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Call, err)
		}

		result.Steps = append(result.Steps, StepTrace{
			Step:    i + 1,
			Call:    rc.Call,
			Origin:  origin.String(),
			BookID:  step.Args.BookID,
			Outcome: string(rc.Outcome),
			Weight:  int64(rc.Weight),
			Events:  rc.Events,
		})

		if want := step.expected(); string(rc.Outcome) != want {
			result.AddError(fmt.Sprintf("step %d (%s %q): expected outcome %s, got %s",
				i+1, step.Call, step.Args.BookID, want, rc.Outcome))
		}
	}
	return nil
}
