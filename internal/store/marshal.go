package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/bookshelf/internal/ir"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// rebound converts a stored column back into BoundedBytes.
func rebound(column string, raw []byte, max int) (ir.BoundedBytes, error) {
	b, err := ir.Bound(raw, max)
	if err != nil {
		return ir.BoundedBytes{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, column, err)
	}
	return b, nil
}

// scanMetadata reads a (title, description) row. sql.ErrNoRows is absence.
func scanMetadata(row rowScanner, max int) (ir.BookMetadata, bool, error) {
	var title, description []byte
	if err := row.Scan(&title, &description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.BookMetadata{}, false, nil
		}
		return ir.BookMetadata{}, false, fmt.Errorf("read book: %w", err)
	}
	md, err := toMetadata(title, description, max)
	if err != nil {
		return ir.BookMetadata{}, false, err
	}
	return md, true, nil
}

func toMetadata(title, description []byte, max int) (ir.BookMetadata, error) {
	t, err := rebound("title", title, max)
	if err != nil {
		return ir.BookMetadata{}, err
	}
	d, err := rebound("description", description, max)
	if err != nil {
		return ir.BookMetadata{}, err
	}
	return ir.BookMetadata{Title: t, Description: d}, nil
}

// scanBook reads a (book_id, title, description) row.
func scanBook(row rowScanner, max int) (ir.Book, error) {
	var id, title, description []byte
	if err := row.Scan(&id, &title, &description); err != nil {
		return ir.Book{}, fmt.Errorf("scan book: %w", err)
	}
	bid, err := rebound("book_id", id, max)
	if err != nil {
		return ir.Book{}, err
	}
	md, err := toMetadata(title, description, max)
	if err != nil {
		return ir.Book{}, err
	}
	return ir.Book{ID: bid, Metadata: md}, nil
}

// scanEvent reads a (seq, id, kind, caller, book_id) row.
func scanEvent(row rowScanner, max int) (ir.Event, error) {
	var (
		ev     ir.Event
		kind   string
		caller string
		bookID []byte
	)
	if err := row.Scan(&ev.Seq, &ev.ID, &kind, &caller, &bookID); err != nil {
		return ir.Event{}, fmt.Errorf("scan event: %w", err)
	}
	ev.Kind = ir.EventKind(kind)
	if !ir.ValidEventKinds[ev.Kind] {
		return ir.Event{}, fmt.Errorf("%w: event %d: unknown kind %q", ErrCorrupt, ev.Seq, kind)
	}
	ev.Caller = ir.AccountID(caller)
	bid, err := rebound("event book_id", bookID, max)
	if err != nil {
		return ir.Event{}, err
	}
	ev.BookID = bid
	return ev, nil
}
