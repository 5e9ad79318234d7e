package kvstore

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/rs/zerolog"

	"github.com/roach88/bookshelf/internal/ir"
)

// ErrCorrupt is returned when a stored value cannot be decoded or violates
// the configured bound.
var ErrCorrupt = errors.New("kvstore: corrupt value")

// Store is a BadgerDB-backed book registry backend.
type Store struct {
	db        *badger.DB
	maxLength int
	log       zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithMaxLength sets the bound values are re-validated against on read.
func WithMaxLength(n int) Option {
	return func(s *Store) {
		s.maxLength = n
	}
}

// WithLogger routes Badger's internal logging through log.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// Open opens (or creates) a Badger database in dir. An empty dir opens a
// private in-memory database. It is up to the caller to Close the store.
func Open(dir string, opts ...Option) (*Store, error) {
	s := &Store{maxLength: ir.DefaultMaxLength, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxLength <= 0 {
		return nil, fmt.Errorf("open kvstore: max length must be positive, got %d", s.maxLength)
	}

	// See: https://dgraph.io/docs/badger/get-started/#opening-a-database
	bopts := badger.DefaultOptions(dir).WithLogger(badgerLogger{log: s.log})
	if dir == "" {
		bopts = bopts.WithInMemory(true)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("can't open the db connection: %w", err)
	}
	s.db = db
	return s, nil
}

// Close tears down the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close kvstore: %w", err)
	}
	return nil
}

// MaxLength returns the bound values are validated against.
func (s *Store) MaxLength() int {
	return s.maxLength
}

// Cleanup runs Badger's value log garbage collection with the recommended
// discard ratio. A pass with nothing to rewrite is not an error.
func (s *Store) Cleanup() error {
	err := s.db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrGCInMemoryMode) {
		return fmt.Errorf("value log gc: %w", err)
	}
	return nil
}

// badgerLogger adapts zerolog to badger.Logger. Badger is chatty at info,
// so its info and debug output are demoted to debug and trace.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error().Str("component", "badger").Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn().Str("component", "badger").Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.Debug().Str("component", "badger").Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.Trace().Str("component", "badger").Msgf(format, args...)
}
