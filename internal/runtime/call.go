package runtime

import (
	"context"

	"github.com/roach88/bookshelf/internal/books"
	"github.com/roach88/bookshelf/internal/ir"
)

// Weight is the fixed execution cost of a call.
type Weight uint64

const (
	// CreateBookWeight is charged for every create_book dispatch.
	CreateBookWeight Weight = 50_000_000

	// RemoveBookWeight is charged for every remove_book dispatch.
	RemoveBookWeight Weight = 10_000_000
)

// Call names are stable identifiers used in receipts, logs, and scenarios.
const (
	CallCreateBook = "create_book"
	CallRemoveBook = "remove_book"
)

// Call is a dispatchable registry operation.
// The set of calls is closed: only this package implements it.
type Call interface {
	// Name returns the stable call name.
	Name() string

	// Weight returns the fixed cost charged for the call.
	Weight() Weight

	apply(ctx context.Context, m *books.Module, caller ir.AccountID) error
}

// CreateBook registers a new book.
type CreateBook struct {
	BookID      []byte
	Title       []byte
	Description []byte
}

// Name implements Call.
func (CreateBook) Name() string { return CallCreateBook }

// Weight implements Call.
func (CreateBook) Weight() Weight { return CreateBookWeight }

func (c CreateBook) apply(ctx context.Context, m *books.Module, caller ir.AccountID) error {
	return m.CreateBook(ctx, caller, c.BookID, c.Title, c.Description)
}

// RemoveBook deletes an existing book.
type RemoveBook struct {
	BookID []byte
}

// Name implements Call.
func (RemoveBook) Name() string { return CallRemoveBook }

// Weight implements Call.
func (RemoveBook) Weight() Weight { return RemoveBookWeight }

func (c RemoveBook) apply(ctx context.Context, m *books.Module, caller ir.AccountID) error {
	return m.RemoveBook(ctx, caller, c.BookID)
}
