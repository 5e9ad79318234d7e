package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/bookshelf/internal/ir"
)

const testMaxLength = 10

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithMaxLength(testMaxLength))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func bb(s string) ir.BoundedBytes {
	return ir.MustBound(s, testMaxLength)
}

// createTestEvent builds a stamped event with a real content-addressed id.
func createTestEvent(kind ir.EventKind, caller, bookID string, seq int64) ir.Event {
	id := bb(bookID)
	return ir.Event{
		ID:     ir.MustEventID(kind, ir.AccountID(caller), id, seq),
		Seq:    seq,
		Kind:   kind,
		Caller: ir.AccountID(caller),
		BookID: id,
	}
}

// mustCommit runs fn inside a transaction and commits it.
func mustCommit(t *testing.T, s *Store, fn func(tx *Tx) error) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		t.Fatalf("tx body failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
}
