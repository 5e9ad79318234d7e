package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bookshelf/internal/ir"
)

func bookMD(title, description string) ir.BookMetadata {
	return ir.BookMetadata{Title: bb(title), Description: bb(description)}
}

func TestTx_InsertGetRemove(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	_, ok, err := tx.Get(ctx, bb("b1"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tx.Insert(ctx, bb("b1"), bookMD("Dune", "SciFi")))

	md, ok, err := tx.Get(ctx, bb("b1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, bookMD("Dune", "SciFi"), md)

	require.NoError(t, tx.Remove(ctx, bb("b1")))
	_, ok, err = tx.Get(ctx, bb("b1"))
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing a missing row is a no-op.
	require.NoError(t, tx.Remove(ctx, bb("missing")))
	require.NoError(t, tx.Commit())
}

func TestTx_InsertOverwrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustCommit(t, s, func(tx *Tx) error {
		if err := tx.Insert(ctx, bb("b1"), bookMD("A", "B")); err != nil {
			return err
		}
		return tx.Insert(ctx, bb("b1"), bookMD("C", "D"))
	})

	md, ok, err := s.ReadBook(ctx, bb("b1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, bookMD("C", "D"), md)

	n, err := s.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTx_EmptyValuesRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustCommit(t, s, func(tx *Tx) error {
		return tx.Insert(ctx, bb("b2"), ir.BookMetadata{})
	})

	md, ok, err := s.ReadBook(ctx, bb("b2"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, md.Title.Len())
	assert.Equal(t, 0, md.Description.Len())

	// Empty key is a valid key too.
	mustCommit(t, s, func(tx *Tx) error {
		return tx.Insert(ctx, bb(""), bookMD("t", "d"))
	})
	_, ok, err = s.ReadBook(ctx, bb(""))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTx_BinaryKeys(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	k1 := ir.MustBound("\x00\x01", testMaxLength)
	k2 := ir.MustBound("\x00\x02", testMaxLength)

	mustCommit(t, s, func(tx *Tx) error {
		if err := tx.Insert(ctx, k2, bookMD("two", "")); err != nil {
			return err
		}
		return tx.Insert(ctx, k1, bookMD("one", ""))
	})

	books, err := s.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.True(t, books[0].ID.Equal(k1))
	assert.True(t, books[1].ID.Equal(k2))
}

func TestTx_RollbackDiscardsWrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Insert(ctx, bb("b1"), bookMD("Dune", "SciFi")))
	require.NoError(t, tx.AppendEvent(ctx, createTestEvent(ir.EventBookCreated, "alice", "b1", 1)))
	require.NoError(t, tx.Rollback())

	n, err := s.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)
}

func TestTx_RollbackAfterCommitIsNoop(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, tx.Rollback())
}

func TestTx_AppendEvent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustCommit(t, s, func(tx *Tx) error {
		if err := tx.AppendEvent(ctx, createTestEvent(ir.EventBookCreated, "alice", "b1", 1)); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, createTestEvent(ir.EventBookRemoved, "bob", "b1", 2))
	})

	events, err := s.ReadEvents(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, createTestEvent(ir.EventBookCreated, "alice", "b1", 1), events[0])
	assert.Equal(t, createTestEvent(ir.EventBookRemoved, "bob", "b1", 2), events[1])
}

func TestTx_AppendEventRejectsDuplicatesAndUnstamped(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	ev := createTestEvent(ir.EventBookCreated, "alice", "b1", 1)
	require.NoError(t, tx.AppendEvent(ctx, ev))
	assert.Error(t, tx.AppendEvent(ctx, ev), "duplicate seq must fail")

	unstamped := ir.Event{Kind: ir.EventBookCreated, Caller: "alice", BookID: bb("b2")}
	assert.Error(t, tx.AppendEvent(ctx, unstamped))

	bad := createTestEvent(ir.EventBookCreated, "alice", "b3", 3)
	bad.Kind = "BookBurned"
	assert.Error(t, tx.AppendEvent(ctx, bad), "kind CHECK constraint")
}
