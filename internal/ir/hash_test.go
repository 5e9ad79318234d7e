package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventIDDeterminism(t *testing.T) {
	id := MustBound("b1", 10)

	id1, err := EventID(EventBookCreated, "alice", id, 1)
	require.NoError(t, err)

	id2, err := EventID(EventBookCreated, "alice", id, 1)
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "EventID must be deterministic")
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestEventIDChangesWithInput(t *testing.T) {
	b1 := MustBound("b1", 10)
	b2 := MustBound("b2", 10)

	base := MustEventID(EventBookCreated, "alice", b1, 1)

	assert.NotEqual(t, base, MustEventID(EventBookRemoved, "alice", b1, 1), "kind")
	assert.NotEqual(t, base, MustEventID(EventBookCreated, "bob", b1, 1), "caller")
	assert.NotEqual(t, base, MustEventID(EventBookCreated, "alice", b2, 1), "book id")
	assert.NotEqual(t, base, MustEventID(EventBookCreated, "alice", b1, 2), "seq")
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte(`{"a":1}`)

	assert.NotEqual(t, hashWithDomain(DomainEvent, data), hashWithDomain(DomainState, data))
	assert.Equal(t, hashWithDomain(DomainEvent, data), hashWithDomain(DomainEvent, data))
}

func TestStateRootOrderIndependent(t *testing.T) {
	a := Book{ID: MustBound("a", 10), Metadata: BookMetadata{Title: MustBound("A", 10)}}
	b := Book{ID: MustBound("b", 10), Metadata: BookMetadata{Title: MustBound("B", 10)}}

	r1, err := StateRoot([]Book{a, b})
	require.NoError(t, err)
	r2, err := StateRoot([]Book{b, a})
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
}

func TestStateRootChangesWithContent(t *testing.T) {
	a := Book{ID: MustBound("a", 10), Metadata: BookMetadata{Title: MustBound("A", 10)}}
	changed := a
	changed.Metadata.Description = MustBound("d", 10)

	r1, err := StateRoot([]Book{a})
	require.NoError(t, err)
	r2, err := StateRoot([]Book{changed})
	require.NoError(t, err)
	empty, err := StateRoot(nil)
	require.NoError(t, err)

	assert.NotEqual(t, r1, r2)
	assert.NotEqual(t, r1, empty)
}

func TestStateRootRejectsDuplicateIDs(t *testing.T) {
	a := Book{ID: MustBound("a", 10)}

	_, err := StateRoot([]Book{a, a})
	assert.Error(t, err)
}
