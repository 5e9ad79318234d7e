package books

import (
	"context"
	"fmt"

	"github.com/roach88/bookshelf/internal/ir"
)

// RecordStore is the keyed storage behind the registry.
//
// Insert and Remove are unconditional: they perform no uniqueness or
// existence check. Module checks with Get first.
type RecordStore interface {
	// Get returns the record stored under id. Absence is (zero, false, nil).
	Get(ctx context.Context, id ir.BoundedBytes) (ir.BookMetadata, bool, error)

	// Insert writes book under id, replacing nothing the caller has not checked.
	Insert(ctx context.Context, id ir.BoundedBytes, book ir.BookMetadata) error

	// Remove deletes the entry under id.
	Remove(ctx context.Context, id ir.BoundedBytes) error
}

// Notifier receives exactly one event per successful transition.
// The registry never reads events back.
type Notifier interface {
	Deposit(ctx context.Context, ev ir.Event) error
}

// Config holds the module's single recognized option.
type Config struct {
	// MaxLength bounds book ids, titles, and descriptions alike.
	MaxLength int `yaml:"max_length" json:"max_length"`
}

// Module is the transition handler. It composes the validator, the record
// store, and the notifier into all-or-nothing create and remove transitions.
type Module struct {
	maxLength int
	books     RecordStore
	events    Notifier
}

// New creates a Module over the given collaborators.
// Returns an error if cfg.MaxLength is not positive or a collaborator is nil.
func New(cfg Config, books RecordStore, events Notifier) (*Module, error) {
	if cfg.MaxLength <= 0 {
		return nil, fmt.Errorf("books: max length must be positive, got %d", cfg.MaxLength)
	}
	if books == nil || events == nil {
		return nil, fmt.Errorf("books: record store and notifier are required")
	}
	return &Module{
		maxLength: cfg.MaxLength,
		books:     books,
		events:    events,
	}, nil
}

// MaxLength returns the configured bound.
func (m *Module) MaxLength() int {
	return m.maxLength
}

// CreateBook registers a new record under bookID.
//
// Steps:
//  1. Bound bookID, title, and description. Any failure → ErrTooLong.
//  2. Look up bookID. Present → ErrBookIDAlreadyExists.
//  3. Deposit BookCreated(caller, bookID).
//  4. Insert {title, description} under bookID.
//
// Rejections happen before any side effect. A non-*Error return is a
// collaborator failure; the host must discard the transition.
func (m *Module) CreateBook(ctx context.Context, caller ir.AccountID, bookID, title, description []byte) error {
	id, err := m.bound("book_id", bookID)
	if err != nil {
		return err
	}
	boundedTitle, err := m.bound("title", title)
	if err != nil {
		return err
	}
	boundedDescription, err := m.bound("description", description)
	if err != nil {
		return err
	}

	_, exists, err := m.books.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("create book: lookup: %w", err)
	}
	if exists {
		return &Error{Code: CodeBookIDAlreadyExists, Message: fmt.Sprintf("book id %s", id.Hex())}
	}

	ev := ir.Event{Kind: ir.EventBookCreated, Caller: caller, BookID: id}
	if err := m.events.Deposit(ctx, ev); err != nil {
		return fmt.Errorf("create book: deposit event: %w", err)
	}

	book := ir.BookMetadata{Title: boundedTitle, Description: boundedDescription}
	if err := m.books.Insert(ctx, id, book); err != nil {
		return fmt.Errorf("create book: insert: %w", err)
	}

	return nil
}

// RemoveBook deletes the record under bookID.
//
// Steps:
//  1. Bound bookID. Failure → ErrTooLong.
//  2. Look up bookID. Absent → ErrBookNotFound.
//  3. Remove the entry and deposit BookRemoved(caller, bookID).
//
// The caller is not compared with the record's creator.
func (m *Module) RemoveBook(ctx context.Context, caller ir.AccountID, bookID []byte) error {
	id, err := m.bound("book_id", bookID)
	if err != nil {
		return err
	}

	_, exists, err := m.books.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("remove book: lookup: %w", err)
	}
	if !exists {
		return &Error{Code: CodeBookNotFound, Message: fmt.Sprintf("book id %s", id.Hex())}
	}

	if err := m.books.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove book: %w", err)
	}

	ev := ir.Event{Kind: ir.EventBookRemoved, Caller: caller, BookID: id}
	if err := m.events.Deposit(ctx, ev); err != nil {
		return fmt.Errorf("remove book: deposit event: %w", err)
	}

	return nil
}

// Book looks up the record under bookID. It has no side effects.
// An over-long bookID cannot be stored, so it is rejected with ErrTooLong.
func (m *Module) Book(ctx context.Context, bookID []byte) (ir.BookMetadata, bool, error) {
	id, err := m.bound("book_id", bookID)
	if err != nil {
		return ir.BookMetadata{}, false, err
	}
	book, ok, err := m.books.Get(ctx, id)
	if err != nil {
		return ir.BookMetadata{}, false, fmt.Errorf("get book: %w", err)
	}
	return book, ok, nil
}

func (m *Module) bound(field string, raw []byte) (ir.BoundedBytes, error) {
	b, err := ir.Bound(raw, m.maxLength)
	if err != nil {
		return ir.BoundedBytes{}, newTooLong(field, err)
	}
	return b, nil
}
