// Package runtime hosts the book registry: it resolves caller origins,
// serializes dispatched calls, makes every call atomic against a persistent
// backend, and stamps emitted events with a logical clock.
//
// ARCHITECTURE:
//
// Single-Writer Dispatch:
// Every call runs under one mutex, inside one backend transaction:
//  1. Origin resolved to a signed caller (others fail with BAD_ORIGIN)
//  2. Backend transaction opened
//  3. books.Module runs the transition against the transaction
//  4. Each deposited event is stamped (seq, content-addressed id) and appended
//  5. Commit on success; rollback and clock rewind on any error
//
// A rejected call (TooLong, BookIdAlreadyExists, BookNotFound) is a normal
// outcome: it returns a *books.Error and a receipt, and leaves the backend
// and the clock exactly as they were.
//
// Calls may also be submitted to a FIFO queue and drained by Run, which
// processes one call at a time from a single goroutine.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Events are stamped with a monotonic seq from Clock.Next(). Committed seqs
// are contiguous from 1. Wall-clock time is never used for ordering.
//
// Content-Addressed Events:
// Event ids are ir.EventID(kind, caller, book_id, seq), so Verify can
// recompute and check every stored id.
package runtime
