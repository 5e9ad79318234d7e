package kvstore

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v3"

	"github.com/roach88/bookshelf/internal/ir"
)

// ReadBook returns the committed record under id.
func (s *Store) ReadBook(_ context.Context, id ir.BoundedBytes) (md ir.BookMetadata, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		md, ok, err = getRecord(txn, id, s.maxLength)
		return err
	})
	return md, ok, err
}

// ListBooks returns every committed record ordered by id bytes.
func (s *Store) ListBooks(_ context.Context) ([]ir.Book, error) {
	books := []ir.Book{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = bookPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(bookPrefix); it.ValidForPrefix(bookPrefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			id, err := ir.Bound(key[len(bookPrefix):], s.maxLength)
			if err != nil {
				return fmt.Errorf("%w: book_id: %v", ErrCorrupt, err)
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read book: %w", err)
			}
			md, err := decodeRecord(val, s.maxLength)
			if err != nil {
				return err
			}
			books = append(books, ir.Book{ID: id, Metadata: md})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

// CountBooks returns the number of committed records.
func (s *Store) CountBooks(_ context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = bookPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(bookPrefix); it.ValidForPrefix(bookPrefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// ReadEvents returns up to limit events with seq > afterSeq, ordered by seq.
// A limit <= 0 means no limit.
func (s *Store) ReadEvents(_ context.Context, afterSeq int64, limit int) ([]ir.Event, error) {
	events := []ir.Event{}
	if afterSeq < 0 {
		afterSeq = 0
	}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = eventPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(eventKey(afterSeq + 1)); it.ValidForPrefix(eventPrefix); it.Next() {
			if limit > 0 && len(events) >= limit {
				break
			}
			item := it.Item()
			seq, err := seqFromKey(item.KeyCopy(nil))
			if err != nil {
				return err
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read event: %w", err)
			}
			ev, err := decodeEvent(seq, val, s.maxLength)
			if err != nil {
				return err
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ReadBookEvents returns the full event history of one book id, ordered by
// seq. The log has no secondary index, so this scans every event.
func (s *Store) ReadBookEvents(ctx context.Context, id ir.BoundedBytes) ([]ir.Event, error) {
	all, err := s.ReadEvents(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	events := []ir.Event{}
	for _, ev := range all {
		if ev.BookID.Equal(id) {
			events = append(events, ev)
		}
	}
	return events, nil
}

// LastSeq returns the highest committed event seq, or 0 for an empty log.
func (s *Store) LastSeq(_ context.Context) (int64, error) {
	var seq int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = eventPrefix
		opts.PrefetchValues = false
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// In reverse mode Seek lands on the largest key <= the target.
		it.Seek(eventKey(-1))
		if !it.ValidForPrefix(eventPrefix) {
			return nil
		}
		var err error
		seq, err = seqFromKey(it.Item().KeyCopy(nil))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return seq, nil
}
