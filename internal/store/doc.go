// Package store provides SQLite-backed durable storage for the book registry.
//
// The store holds two tables:
//   - books: the keyed record collection (book_id → title, description)
//   - events: the append-only notification log, one row per committed transition
//
// # Critical Patterns
//
// Logical Identity and Time
//   - Events are ordered by seq INTEGER (logical clock), never timestamps
//   - Event ids are content-addressed via ir.EventID
//
// Deterministic Query Results
//   - Event queries use ORDER BY seq ASC
//   - Book listings use ORDER BY book_id ASC (BLOB compares bytewise)
//
// Bounded Rows
//   - Every row is re-validated against the configured max length when read
//   - An over-long stored value is reported as ErrCorrupt, never truncated
//
// # Transactions
//
// All mutation goes through Tx. The runtime opens one Tx per dispatched call,
// so a rejected or failed call leaves both tables untouched.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
