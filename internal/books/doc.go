// Package books implements the bounded book registry: the validation,
// uniqueness enforcement, and transition logic for create_book and remove_book.
//
// The package owns no storage and delivers no notifications itself. A Module
// is built over two injected collaborators:
//
//   - RecordStore: a primitive keyed map (Get, unconditional Insert and Remove)
//   - Notifier: an append-only sink for BookCreated / BookRemoved events
//
// All business rules live in Module. Each transition validates every input,
// then checks the store, then mutates and notifies. A rejected transition
// returns a *Error and leaves both collaborators untouched.
//
// Module does no locking. The host serializes transitions and makes each one
// atomic (see internal/runtime, which runs every call inside one backend
// transaction).
//
// # Ownership
//
// Records do not remember their creator. Any signed caller may remove any
// record whose id it knows; the caller only tags the emitted event.
package books
