package books

import (
	"context"
	"slices"
	"strings"

	"github.com/roach88/bookshelf/internal/ir"
)

// MemoryStore is an in-memory RecordStore.
// It is not safe for concurrent use; the host serializes access.
type MemoryStore struct {
	books map[ir.BoundedBytes]ir.BookMetadata
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{books: make(map[ir.BoundedBytes]ir.BookMetadata)}
}

// Get implements RecordStore.
func (s *MemoryStore) Get(_ context.Context, id ir.BoundedBytes) (ir.BookMetadata, bool, error) {
	book, ok := s.books[id]
	return book, ok, nil
}

// Insert implements RecordStore.
func (s *MemoryStore) Insert(_ context.Context, id ir.BoundedBytes, book ir.BookMetadata) error {
	s.books[id] = book
	return nil
}

// Remove implements RecordStore.
func (s *MemoryStore) Remove(_ context.Context, id ir.BoundedBytes) error {
	delete(s.books, id)
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	return len(s.books)
}

// Books returns every record ordered by id bytes.
func (s *MemoryStore) Books() []ir.Book {
	out := make([]ir.Book, 0, len(s.books))
	for id, md := range s.books {
		out = append(out, ir.Book{ID: id, Metadata: md})
	}
	slices.SortFunc(out, func(a, b ir.Book) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

// EventLog is an in-memory append-only Notifier.
type EventLog struct {
	events []ir.Event
}

// Deposit implements Notifier.
func (l *EventLog) Deposit(_ context.Context, ev ir.Event) error {
	l.events = append(l.events, ev)
	return nil
}

// Events returns a copy of the deposited events in order.
func (l *EventLog) Events() []ir.Event {
	return slices.Clone(l.events)
}

// Len returns the number of deposited events.
func (l *EventLog) Len() int {
	return len(l.events)
}
