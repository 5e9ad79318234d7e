package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/bookshelf/internal/books"
	"github.com/roach88/bookshelf/internal/ir"
	"github.com/roach88/bookshelf/internal/kvstore"
	"github.com/roach88/bookshelf/internal/store"
)

// Backend is the persistent state the runtime drives: the record collection
// plus the event log, written through transactions.
type Backend interface {
	// Begin opens a read-write transaction.
	Begin(ctx context.Context) (Tx, error)

	// ReadBook returns the committed record under id.
	ReadBook(ctx context.Context, id ir.BoundedBytes) (ir.BookMetadata, bool, error)

	// ListBooks returns every committed record ordered by id bytes.
	ListBooks(ctx context.Context) ([]ir.Book, error)

	// CountBooks returns the number of committed records.
	CountBooks(ctx context.Context) (int, error)

	// ReadEvents returns up to limit events after afterSeq (limit <= 0: all).
	ReadEvents(ctx context.Context, afterSeq int64, limit int) ([]ir.Event, error)

	// ReadBookEvents returns the full event history of one id, ordered by seq.
	ReadBookEvents(ctx context.Context, id ir.BoundedBytes) ([]ir.Event, error)

	// LastSeq returns the highest committed seq, 0 when empty.
	LastSeq(ctx context.Context) (int64, error)

	// MaxLength returns the bound stored rows are validated against.
	MaxLength() int

	Close() error
}

// Tx is one backend transaction. It is the record store the transition
// handler runs against, plus the event log append.
type Tx interface {
	books.RecordStore

	AppendEvent(ctx context.Context, ev ir.Event) error
	Commit() error
	Rollback() error
}

// Backend kinds accepted by OpenBackend.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// BackendConfig selects and configures a backend.
type BackendConfig struct {
	// Kind is BackendSQLite or BackendBadger.
	Kind string

	// Path is the SQLite file or Badger directory. Empty means in-memory.
	Path string

	// MaxLength is the registry bound.
	MaxLength int

	// Logger receives backend diagnostics.
	Logger zerolog.Logger
}

// OpenBackend opens the backend described by cfg.
func OpenBackend(cfg BackendConfig) (Backend, error) {
	switch cfg.Kind {
	case BackendSQLite, "":
		path := cfg.Path
		if path == "" {
			path = store.MemoryPath
		}
		s, err := store.Open(path, store.WithMaxLength(cfg.MaxLength))
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		return FromSQLite(s), nil

	case BackendBadger:
		s, err := kvstore.Open(cfg.Path,
			kvstore.WithMaxLength(cfg.MaxLength),
			kvstore.WithLogger(cfg.Logger),
		)
		if err != nil {
			return nil, fmt.Errorf("open badger backend: %w", err)
		}
		return FromBadger(s), nil

	default:
		return nil, fmt.Errorf("unknown backend %q (want %q or %q)", cfg.Kind, BackendSQLite, BackendBadger)
	}
}

// FromSQLite adapts a SQLite store to Backend.
func FromSQLite(s *store.Store) Backend {
	return sqliteBackend{s}
}

// FromBadger adapts a Badger store to Backend.
func FromBadger(s *kvstore.Store) Backend {
	return badgerBackend{s}
}

type sqliteBackend struct {
	*store.Store
}

func (b sqliteBackend) Begin(ctx context.Context) (Tx, error) {
	tx, err := b.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

type badgerBackend struct {
	*kvstore.Store
}

// Close reclaims value log space before closing the store.
func (b badgerBackend) Close() error {
	gcErr := b.Store.Cleanup()
	return errors.Join(gcErr, b.Store.Close())
}

func (b badgerBackend) Begin(ctx context.Context) (Tx, error) {
	tx, err := b.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// sequencer is the Notifier handed to the transition handler for one
// dispatch. It stamps each event and appends it inside the transaction.
type sequencer struct {
	tx     Tx
	clock  *Clock
	events []ir.Event
}

// Deposit implements books.Notifier.
func (s *sequencer) Deposit(ctx context.Context, ev ir.Event) error {
	ev.Seq = s.clock.Next()
	id, err := ir.EventID(ev.Kind, ev.Caller, ev.BookID, ev.Seq)
	if err != nil {
		return fmt.Errorf("compute event id: %w", err)
	}
	ev.ID = id
	if err := s.tx.AppendEvent(ctx, ev); err != nil {
		return err
	}
	s.events = append(s.events, ev)
	return nil
}
