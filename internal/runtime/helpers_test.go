package runtime

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/bookshelf/internal/ir"
)

const testMaxLength = 10

var backendKinds = []string{BackendSQLite, BackendBadger}

func openTestBackend(t *testing.T, kind string) Backend {
	t.Helper()
	path := ""
	if kind == BackendSQLite {
		path = filepath.Join(t.TempDir(), "test.db")
	}
	b, err := OpenBackend(BackendConfig{Kind: kind, Path: path, MaxLength: testMaxLength})
	require.NoError(t, err)
	return b
}

func newTestRuntime(t *testing.T, kind string, opts ...Option) *Runtime {
	t.Helper()
	r, err := New(context.Background(), openTestBackend(t, kind), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func bb(s string) ir.BoundedBytes {
	return ir.MustBound(s, testMaxLength)
}

func create(id, title, description string) CreateBook {
	return CreateBook{BookID: []byte(id), Title: []byte(title), Description: []byte(description)}
}

func remove(id string) RemoveBook {
	return RemoveBook{BookID: []byte(id)}
}

var errInjected = errors.New("injected failure")

// faultyBackend wraps a real backend and fails selected Tx operations.
type faultyBackend struct {
	Backend
	failInsert bool
	failAppend bool
	failCommit bool
	failBegin  bool
}

func (b *faultyBackend) Begin(ctx context.Context) (Tx, error) {
	if b.failBegin {
		return nil, errInjected
	}
	tx, err := b.Backend.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyTx{Tx: tx, b: b}, nil
}

type faultyTx struct {
	Tx
	b *faultyBackend
}

func (t *faultyTx) Insert(ctx context.Context, id ir.BoundedBytes, md ir.BookMetadata) error {
	if t.b.failInsert {
		return fmt.Errorf("insert: %w", errInjected)
	}
	return t.Tx.Insert(ctx, id, md)
}

func (t *faultyTx) AppendEvent(ctx context.Context, ev ir.Event) error {
	if t.b.failAppend {
		return fmt.Errorf("append: %w", errInjected)
	}
	return t.Tx.AppendEvent(ctx, ev)
}

func (t *faultyTx) Commit() error {
	if t.b.failCommit {
		t.Tx.Rollback()
		return errInjected
	}
	return t.Tx.Commit()
}
