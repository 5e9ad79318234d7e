package runtime

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"github.com/roach88/bookshelf/internal/books"
	"github.com/roach88/bookshelf/internal/ir"
)

// DefaultCacheSize is the default number of committed lookups kept by Book.
const DefaultCacheSize = 1024

// Runtime is the single-writer host for the book registry.
//
// Thread-safety model:
//   - Dispatch(): safe from any goroutine; calls are serialized
//   - Submit(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Book(), Events(): safe from any goroutine; see committed state only
type Runtime struct {
	mu        sync.Mutex
	backend   Backend
	maxLength int
	clock     *Clock
	ids       IDGenerator
	cache     *lru.Cache // ir.BoundedBytes → cachedBook; nil when disabled
	log       zerolog.Logger
	queue     *callQueue
	closed    bool

	cacheSize int
}

type cachedBook struct {
	md ir.BookMetadata
	ok bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the structured logger. Default: zerolog.Nop().
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runtime) {
		r.log = log
	}
}

// WithIDGenerator sets the dispatch id generator. Default: UUIDv7Generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(r *Runtime) {
		r.ids = gen
	}
}

// WithCacheSize sets the read cache capacity. Zero disables the cache.
func WithCacheSize(n int) Option {
	return func(r *Runtime) {
		r.cacheSize = n
	}
}

// New creates a Runtime over backend. The logical clock resumes after the
// backend's last committed event. The registry bound is the backend's.
func New(ctx context.Context, backend Backend, opts ...Option) (*Runtime, error) {
	if backend == nil {
		return nil, fmt.Errorf("runtime: backend is required")
	}

	r := &Runtime{
		backend:   backend,
		maxLength: backend.MaxLength(),
		ids:       UUIDv7Generator{},
		log:       zerolog.Nop(),
		queue:     newCallQueue(),
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.cacheSize > 0 {
		cache, err := lru.New(r.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("runtime: create cache: %w", err)
		}
		r.cache = cache
	}

	last, err := backend.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("runtime: resume clock: %w", err)
	}
	r.clock = NewClockAt(last)

	if ev := r.log.Debug(); ev.Enabled() {
		n, err := backend.CountBooks(ctx)
		if err != nil {
			return nil, fmt.Errorf("runtime: count books: %w", err)
		}
		ev.Int("max_length", r.maxLength).
			Int64("last_seq", last).
			Int("books", n).
			Int("cache_size", r.cacheSize).
			Msg("runtime opened")
	}

	return r, nil
}

// MaxLength returns the registry bound.
func (r *Runtime) MaxLength() int {
	return r.maxLength
}

// LastSeq returns the seq of the most recently committed event.
func (r *Runtime) LastSeq() int64 {
	return r.clock.Current()
}

// Backend returns the underlying backend.
func (r *Runtime) Backend() Backend {
	return r.backend
}

// Dispatch executes one call atomically and returns its receipt.
//
// The receipt is non-nil unless call is nil. The error is:
//   - nil when the call committed
//   - a *books.Error when the registry rejected the call
//   - a *RuntimeError for a bad origin, a backend failure, or a closed runtime
//
// In every error case the backend and the clock are unchanged.
func (r *Runtime) Dispatch(ctx context.Context, origin Origin, call Call) (*Receipt, error) {
	if call == nil {
		return nil, fmt.Errorf("dispatch: nil call")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rc := &Receipt{
		DispatchID: r.ids.Generate(),
		Call:       call.Name(),
		Weight:     call.Weight(),
		Events:     []ir.Event{},
	}
	log := r.log.With().
		Str("dispatch_id", rc.DispatchID).
		Str("call", rc.Call).
		Str("origin", origin.String()).
		Logger()

	if r.closed {
		rc.Outcome = OutcomeFailed
		return rc, errStopped
	}

	caller, err := origin.EnsureSigned()
	if err != nil {
		rc.Outcome = OutcomeBadOrigin
		log.Info().Str("outcome", string(rc.Outcome)).Msg("dispatch rejected")
		return rc, err
	}
	rc.Caller = caller

	events, err := r.transact(ctx, call, caller)
	if err != nil {
		if code, ok := books.CodeOf(err); ok {
			rc.Outcome = Outcome(code)
			log.Info().
				Str("outcome", string(rc.Outcome)).
				Uint64("weight", uint64(rc.Weight)).
				Msg("dispatch rejected")
			return rc, err
		}
		rc.Outcome = OutcomeFailed
		log.Error().Err(err).Msg("dispatch failed")
		return rc, newBackendError(rc.DispatchID, "transaction discarded", err)
	}

	rc.Outcome = OutcomeOK
	rc.Events = events
	r.invalidate(events)

	ev := log.Info().
		Str("outcome", string(rc.Outcome)).
		Uint64("weight", uint64(rc.Weight))
	if len(events) > 0 {
		ev = ev.Int64("seq", events[len(events)-1].Seq)
	}
	ev.Msg("dispatch committed")

	return rc, nil
}

// transact runs call inside one backend transaction.
// Must be called with r.mu held.
func (r *Runtime) transact(ctx context.Context, call Call, caller ir.AccountID) ([]ir.Event, error) {
	tx, err := r.backend.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	mark := r.clock.Current()
	seq := &sequencer{tx: tx, clock: r.clock}

	m, err := books.New(books.Config{MaxLength: r.maxLength}, tx, seq)
	if err != nil {
		return nil, err
	}

	if err := call.apply(ctx, m, caller); err != nil {
		r.clock.Rewind(mark)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		r.clock.Rewind(mark)
		return nil, err
	}

	return seq.events, nil
}

func (r *Runtime) invalidate(events []ir.Event) {
	if r.cache == nil {
		return
	}
	for _, ev := range events {
		r.cache.Remove(ev.BookID)
	}
}

// Book returns the committed record under rawID.
// An over-long id is rejected with books.ErrTooLong.
func (r *Runtime) Book(ctx context.Context, rawID []byte) (ir.BookMetadata, bool, error) {
	id, err := ir.Bound(rawID, r.maxLength)
	if err != nil {
		return ir.BookMetadata{}, false, &books.Error{Code: books.CodeTooLong, Message: "book_id " + err.Error()}
	}

	if r.cache != nil {
		if v, ok := r.cache.Get(id); ok {
			c := v.(cachedBook)
			return c.md, c.ok, nil
		}
	}

	// Holding the lock keeps a concurrent commit from being overwritten
	// in the cache by this stale read.
	r.mu.Lock()
	defer r.mu.Unlock()

	md, ok, err := r.backend.ReadBook(ctx, id)
	if err != nil {
		return ir.BookMetadata{}, false, fmt.Errorf("get book: %w", err)
	}
	if r.cache != nil {
		r.cache.Add(id, cachedBook{md: md, ok: ok})
	}
	return md, ok, nil
}

// Events returns up to limit committed events after afterSeq.
func (r *Runtime) Events(ctx context.Context, afterSeq int64, limit int) ([]ir.Event, error) {
	events, err := r.backend.ReadEvents(ctx, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

// Close stops the queue and closes the backend. Further dispatches fail
// with a STOPPED RuntimeError.
func (r *Runtime) Close() error {
	r.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.cache != nil {
		r.cache.Purge()
	}
	if err := r.backend.Close(); err != nil {
		return fmt.Errorf("close backend: %w", err)
	}
	return nil
}
