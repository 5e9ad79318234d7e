package kvstore

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v3"

	"github.com/roach88/bookshelf/internal/ir"
)

// Tx is one read-write Badger transaction. It satisfies books.RecordStore.
// Rollback after Commit is a no-op.
type Tx struct {
	txn       *badger.Txn
	maxLength int
}

// Begin starts a read-write transaction.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{txn: s.db.NewTransaction(true), maxLength: s.maxLength}, nil
}

// Get returns the record stored under id.
func (t *Tx) Get(_ context.Context, id ir.BoundedBytes) (ir.BookMetadata, bool, error) {
	return getRecord(t.txn, id, t.maxLength)
}

// Insert writes book under id, overwriting any existing value.
func (t *Tx) Insert(_ context.Context, id ir.BoundedBytes, book ir.BookMetadata) error {
	if err := t.txn.Set(bookKey(id), encodeRecord(book)); err != nil {
		return fmt.Errorf("write book: %w", err)
	}
	return nil
}

// Remove deletes the value under id. Removing a missing key is not an error.
func (t *Tx) Remove(_ context.Context, id ir.BoundedBytes) error {
	if err := t.txn.Delete(bookKey(id)); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

// AppendEvent appends a stamped event. A seq that is already present is an error.
func (t *Tx) AppendEvent(_ context.Context, ev ir.Event) error {
	if ev.ID == "" || ev.Seq <= 0 {
		return fmt.Errorf("write event: unstamped event (seq=%d)", ev.Seq)
	}
	if !ir.ValidEventKinds[ev.Kind] {
		return fmt.Errorf("write event: unknown kind %q", ev.Kind)
	}
	key := eventKey(ev.Seq)
	if _, err := t.txn.Get(key); err == nil {
		return fmt.Errorf("write event: seq %d already exists", ev.Seq)
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("write event: %w", err)
	}
	val, err := encodeEvent(ev)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	if err := t.txn.Set(key, val); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Commit makes the transaction's writes durable.
func (t *Tx) Commit() error {
	if err := t.txn.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Rollback discards the transaction.
func (t *Tx) Rollback() error {
	t.txn.Discard()
	return nil
}

func getRecord(txn *badger.Txn, id ir.BoundedBytes, max int) (ir.BookMetadata, bool, error) {
	item, err := txn.Get(bookKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ir.BookMetadata{}, false, nil
	}
	if err != nil {
		return ir.BookMetadata{}, false, fmt.Errorf("read book: %w", err)
	}
	// Values are only valid inside the transaction, so copy them out.
	val, err := item.ValueCopy(nil)
	if err != nil {
		return ir.BookMetadata{}, false, fmt.Errorf("read book: %w", err)
	}
	md, err := decodeRecord(val, max)
	if err != nil {
		return ir.BookMetadata{}, false, err
	}
	return md, true, nil
}
