package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/bookshelf/internal/ir"
)

// Tx is one read-write transaction. It satisfies books.RecordStore, so the
// transition handler runs directly against it.
//
// A Tx must end with Commit or Rollback. Rollback after Commit is a no-op,
// which allows the usual defer tx.Rollback() pattern.
type Tx struct {
	tx        *sql.Tx
	maxLength int
}

// Begin starts a read-write transaction.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{tx: tx, maxLength: s.maxLength}, nil
}

// Get returns the record stored under id.
func (t *Tx) Get(ctx context.Context, id ir.BoundedBytes) (ir.BookMetadata, bool, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT title, description FROM books WHERE book_id = ?
	`, id.Bytes())
	return scanMetadata(row, t.maxLength)
}

// Insert writes book under id. An existing row is overwritten; uniqueness is
// enforced by the caller.
func (t *Tx) Insert(ctx context.Context, id ir.BoundedBytes, book ir.BookMetadata) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO books (book_id, title, description)
		VALUES (?, ?, ?)
		ON CONFLICT(book_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description
	`,
		id.Bytes(),
		book.Title.Bytes(),
		book.Description.Bytes(),
	)
	if err != nil {
		return fmt.Errorf("write book: %w", err)
	}
	return nil
}

// Remove deletes the row under id. Removing a missing row is not an error.
func (t *Tx) Remove(ctx context.Context, id ir.BoundedBytes) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM books WHERE book_id = ?`, id.Bytes()); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

// AppendEvent appends ev to the event log. The event must already carry its
// Seq and ID; a duplicate seq or id is a constraint error.
func (t *Tx) AppendEvent(ctx context.Context, ev ir.Event) error {
	if ev.ID == "" || ev.Seq <= 0 {
		return fmt.Errorf("write event: unstamped event (seq=%d)", ev.Seq)
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO events (seq, id, kind, caller, book_id)
		VALUES (?, ?, ?, ?, ?)
	`,
		ev.Seq,
		ev.ID,
		string(ev.Kind),
		string(ev.Caller),
		ev.BookID.Bytes(),
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Commit makes the transaction's writes durable.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Rollback discards the transaction's writes.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback tx: %w", err)
	}
	return nil
}
