package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainEvent = "bookshelf/event/v1"
	DomainState = "bookshelf/state/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed ID for an event.
// The ID is stable across restarts and replays given the same inputs, so a
// verifier can recompute it from the stored columns.
func EventID(kind EventKind, caller AccountID, bookID BoundedBytes, seq int64) (string, error) {
	obj := map[string]any{
		"book_id": bookID,
		"caller":  caller,
		"kind":    kind,
		"seq":     seq,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainEvent, canonical), nil
}

// MustEventID is like EventID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEventID(kind EventKind, caller AccountID, bookID BoundedBytes, seq int64) string {
	id, err := EventID(kind, caller, bookID, seq)
	if err != nil {
		panic(err)
	}
	return id
}

// StateRoot computes a digest of a whole record set. The result does not
// depend on the order of books, so two stores holding the same records
// always agree on it.
func StateRoot(books []Book) (string, error) {
	entries := make(map[string]any, len(books))
	for _, b := range books {
		key := b.ID.Hex()
		if _, dup := entries[key]; dup {
			return "", fmt.Errorf("StateRoot: duplicate book id %s", key)
		}
		entries[key] = map[string]any{
			"description": b.Metadata.Description,
			"title":       b.Metadata.Title,
		}
	}

	canonical, err := MarshalCanonical(entries)
	if err != nil {
		return "", fmt.Errorf("StateRoot: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainState, canonical), nil
}

// MustStateRoot is like StateRoot but panics on error.
// Use only in tests or when ids are known to be unique.
func MustStateRoot(books []Book) string {
	root, err := StateRoot(books)
	if err != nil {
		panic(err)
	}
	return root
}
