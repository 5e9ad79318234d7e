// Package kvstore is the embedded key-value backend for the book registry,
// built on BadgerDB.
//
// It offers the same contract as the SQLite store (internal/store) over a
// read-write badger.Txn:
//
//	b/<book_id>          → record (title, description)
//	e/<seq, 8 bytes BE>  → event (id, kind, caller, book_id)
//
// Big-endian seq keys make Badger's lexicographic iteration order equal to
// seq order. Book keys iterate in id byte order.
package kvstore
