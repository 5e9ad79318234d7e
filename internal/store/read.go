package store

import (
	"context"
	"fmt"

	"github.com/roach88/bookshelf/internal/ir"
)

// ReadBook returns the committed record under id.
func (s *Store) ReadBook(ctx context.Context, id ir.BoundedBytes) (ir.BookMetadata, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT title, description FROM books WHERE book_id = ?
	`, id.Bytes())
	return scanMetadata(row, s.maxLength)
}

// ListBooks returns every committed record ordered by book_id bytes.
// Used by verification, not exposed as a query surface.
//
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListBooks(ctx context.Context) ([]ir.Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT book_id, title, description
		FROM books
		ORDER BY book_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	books := []ir.Book{}
	for rows.Next() {
		b, err := scanBook(rows, s.maxLength)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return books, nil
}

// CountBooks returns the number of committed records.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// ReadEvents returns up to limit events with seq > afterSeq, ordered by seq.
// A limit <= 0 means no limit.
//
// Returns an empty slice (not nil) if no events match.
func (s *Store) ReadEvents(ctx context.Context, afterSeq int64, limit int) ([]ir.Event, error) {
	if limit <= 0 {
		limit = -1 // SQLite: negative LIMIT is unbounded
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, kind, caller, book_id
		FROM events
		WHERE seq > ?
		ORDER BY seq ASC
		LIMIT ?
	`, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return s.collectEvents(rows)
}

// ReadBookEvents returns the full event history of one book id, ordered by seq.
func (s *Store) ReadBookEvents(ctx context.Context, id ir.BoundedBytes) ([]ir.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, kind, caller, book_id
		FROM events
		WHERE book_id = ?
		ORDER BY seq ASC
	`, id.Bytes())
	if err != nil {
		return nil, fmt.Errorf("query book events: %w", err)
	}
	defer rows.Close()

	return s.collectEvents(rows)
}

type eventRows interface {
	rowScanner
	Next() bool
	Err() error
}

func (s *Store) collectEvents(rows eventRows) ([]ir.Event, error) {
	events := []ir.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows, s.maxLength)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// LastSeq returns the highest committed event seq, or 0 for an empty log.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return seq, nil
}
