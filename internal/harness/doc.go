// Package harness provides conformance testing for the book registry.
//
// The harness runs YAML scenarios through a real runtime over a fresh
// in-memory backend, checks each step's outcome, evaluates assertions on
// the committed event log and final record set, and verifies the backend.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	max_length: 10          # optional, default 128
//	backend: sqlite         # optional: sqlite (default) or badger
//	steps:
//	  - call: create_book
//	    caller: alice
//	    args: { book_id: b1, title: Dune, description: SciFi }
//	    expect: Ok          # optional, default Ok
//	  - call: remove_book
//	    origin: root        # optional: signed (default), root, none
//	    args: { book_id: b1 }
//	    expect: BadOrigin
//	assertions:
//	  - type: event_contains
//	    kind: BookCreated
//	    caller: alice
//	    book_id: b1
//	  - type: event_count
//	    kind: BookRemoved
//	    count: 0
//	  - type: event_order
//	    kinds: [BookCreated, BookRemoved]
//	  - type: final_state
//	    books:
//	      b1: { title: Dune, description: SciFi }
//
// # Assertion Types
//
//   - event_contains: an event with the given kind (and caller, book_id if set) was committed
//   - event_count: exactly count events of kind (all kinds if unset) were committed
//   - event_order: the kinds appear in the log in this relative order
//   - final_state: the stored record set is exactly books
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory backend, a logical clock starting at 0,
// and sequential dispatch ids, so the trace of a scenario is byte-identical
// across runs and backends. Traces are compared against golden files with
// goldie; regenerate them with:
//
//	go test ./internal/harness -update
package harness
