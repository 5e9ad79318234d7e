package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bookshelf/internal/ir"
)

func seedEvents(t *testing.T, s *Store, n int) {
	t.Helper()
	ctx := context.Background()
	mustCommit(t, s, func(tx *Tx) error {
		for i := 1; i <= n; i++ {
			kind := ir.EventBookCreated
			if i%2 == 0 {
				kind = ir.EventBookRemoved
			}
			if err := tx.AppendEvent(ctx, createTestEvent(kind, "alice", "b1", int64(i))); err != nil {
				return err
			}
		}
		return nil
	})
}

func TestReadEvents_Paging(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedEvents(t, s, 5)

	tests := []struct {
		name     string
		after    int64
		limit    int
		wantSeqs []int64
	}{
		{"all", 0, 0, []int64{1, 2, 3, 4, 5}},
		{"limit", 0, 2, []int64{1, 2}},
		{"after", 3, 0, []int64{4, 5}},
		{"after and limit", 1, 2, []int64{2, 3}},
		{"past end", 5, 10, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := s.ReadEvents(ctx, tt.after, tt.limit)
			require.NoError(t, err)
			seqs := make([]int64, 0, len(events))
			for _, ev := range events {
				seqs = append(seqs, ev.Seq)
			}
			assert.Equal(t, tt.wantSeqs, seqs)
		})
	}
}

func TestReadEvents_EmptyIsNotNil(t *testing.T) {
	s := createTestStore(t)
	events, err := s.ReadEvents(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)

	books, err := s.ListBooks(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, books)
}

func TestReadBookEvents(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustCommit(t, s, func(tx *Tx) error {
		for i, id := range []string{"b1", "b2", "b1"} {
			kind := ir.EventBookCreated
			if i == 2 {
				kind = ir.EventBookRemoved
			}
			if err := tx.AppendEvent(ctx, createTestEvent(kind, "alice", id, int64(i+1))); err != nil {
				return err
			}
		}
		return nil
	})

	events, err := s.ReadBookEvents(ctx, bb("b1"))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].Seq)
	assert.Equal(t, ir.EventBookRemoved, events[1].Kind)
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	seedEvents(t, s, 3)
	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), seq)
}

func TestRead_OverlongRowIsCorrupt(t *testing.T) {
	path := t.TempDir() + "/wide.db"
	ctx := context.Background()

	// Written under a wide bound, then reopened under a narrow one.
	wide, err := Open(path, WithMaxLength(64))
	require.NoError(t, err)
	long := strings.Repeat("x", 20)
	mustCommit(t, wide, func(tx *Tx) error {
		md := ir.BookMetadata{Title: ir.MustBound(long, 64)}
		return tx.Insert(ctx, ir.MustBound("b1", 64), md)
	})
	require.NoError(t, wide.Close())

	narrow, err := Open(path, WithMaxLength(testMaxLength))
	require.NoError(t, err)
	defer narrow.Close()

	_, _, err = narrow.ReadBook(ctx, bb("b1"))
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = narrow.ListBooks(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}
