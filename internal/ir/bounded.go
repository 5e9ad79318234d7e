package ir

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DefaultMaxLength is the bound applied to book ids, titles, and descriptions
// when a deployment does not configure one.
const DefaultMaxLength = 128

// BoundedBytes is an immutable byte sequence whose length never exceeds the
// bound it was constructed with.
//
// The zero value is the empty sequence, which satisfies every bound.
// BoundedBytes is comparable: two values are == iff their bytes are equal,
// so it can be used directly as a map key.
type BoundedBytes struct {
	data string
}

// BoundError reports a byte string that does not fit its bound.
type BoundError struct {
	Len int
	Max int
}

func (e *BoundError) Error() string {
	if e.Max <= 0 {
		return fmt.Sprintf("invalid bound %d: must be positive", e.Max)
	}
	return fmt.Sprintf("length %d exceeds bound %d", e.Len, e.Max)
}

// Bound converts raw into a BoundedBytes holding an owned copy of it.
// It fails with *BoundError when len(raw) > max or when max is not positive.
// Bound has no side effects; on failure no partial value is returned.
func Bound(raw []byte, max int) (BoundedBytes, error) {
	if max <= 0 || len(raw) > max {
		return BoundedBytes{}, &BoundError{Len: len(raw), Max: max}
	}
	return BoundedBytes{data: string(raw)}, nil
}

// MustBound is like Bound but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustBound(raw string, max int) BoundedBytes {
	b, err := Bound([]byte(raw), max)
	if err != nil {
		panic(err)
	}
	return b
}

// Bytes returns a copy of the underlying bytes. The result is never nil.
func (b BoundedBytes) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Len returns the number of bytes.
func (b BoundedBytes) Len() int {
	return len(b.data)
}

// String returns the bytes as a Go string (no encoding applied).
func (b BoundedBytes) String() string {
	return b.data
}

// Hex returns the 0x-prefixed lowercase hex encoding of the bytes.
func (b BoundedBytes) Hex() string {
	return "0x" + hex.EncodeToString([]byte(b.data))
}

// Equal reports whether b and other hold the same bytes.
func (b BoundedBytes) Equal(other BoundedBytes) bool {
	return b.data == other.data
}

// MarshalJSON encodes the bytes as a 0x-prefixed hex string, since ids and
// titles are arbitrary bytes and not necessarily valid UTF-8.
func (b BoundedBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Hex())
}
