package kvstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/roach88/bookshelf/internal/ir"
)

var (
	bookPrefix  = []byte("b/")
	eventPrefix = []byte("e/")
)

func bookKey(id ir.BoundedBytes) []byte {
	return append(append([]byte{}, bookPrefix...), id.String()...)
}

func eventKey(seq int64) []byte {
	k := make([]byte, len(eventPrefix)+8)
	copy(k, eventPrefix)
	binary.BigEndian.PutUint64(k[len(eventPrefix):], uint64(seq))
	return k
}

func seqFromKey(key []byte) (int64, error) {
	if len(key) != len(eventPrefix)+8 {
		return 0, fmt.Errorf("%w: event key length %d", ErrCorrupt, len(key))
	}
	return int64(binary.BigEndian.Uint64(key[len(eventPrefix):])), nil
}

// encodeRecord frames title and description as uvarint(len(title)) || title || description.
func encodeRecord(md ir.BookMetadata) []byte {
	title := md.Title.String()
	buf := make([]byte, 0, binary.MaxVarintLen64+len(title)+md.Description.Len())
	buf = binary.AppendUvarint(buf, uint64(len(title)))
	buf = append(buf, title...)
	buf = append(buf, md.Description.String()...)
	return buf
}

func decodeRecord(val []byte, max int) (ir.BookMetadata, error) {
	n, w := binary.Uvarint(val)
	if w <= 0 || uint64(len(val)-w) < n {
		return ir.BookMetadata{}, fmt.Errorf("%w: bad record framing", ErrCorrupt)
	}
	rest := val[w:]
	title, err := ir.Bound(rest[:n], max)
	if err != nil {
		return ir.BookMetadata{}, fmt.Errorf("%w: title: %v", ErrCorrupt, err)
	}
	description, err := ir.Bound(rest[n:], max)
	if err != nil {
		return ir.BookMetadata{}, fmt.Errorf("%w: description: %v", ErrCorrupt, err)
	}
	return ir.BookMetadata{Title: title, Description: description}, nil
}

// eventRecord is the stored form of an event. Seq lives in the key.
type eventRecord struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Caller string `json:"caller"`
	BookID []byte `json:"book_id"`
}

func encodeEvent(ev ir.Event) ([]byte, error) {
	data, err := json.Marshal(eventRecord{
		ID:     ev.ID,
		Kind:   string(ev.Kind),
		Caller: string(ev.Caller),
		BookID: ev.BookID.Bytes(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

func decodeEvent(seq int64, val []byte, max int) (ir.Event, error) {
	var rec eventRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return ir.Event{}, fmt.Errorf("%w: event %d: %v", ErrCorrupt, seq, err)
	}
	kind := ir.EventKind(rec.Kind)
	if !ir.ValidEventKinds[kind] {
		return ir.Event{}, fmt.Errorf("%w: event %d: unknown kind %q", ErrCorrupt, seq, rec.Kind)
	}
	id, err := ir.Bound(rec.BookID, max)
	if err != nil {
		return ir.Event{}, fmt.Errorf("%w: event %d book_id: %v", ErrCorrupt, seq, err)
	}
	return ir.Event{
		ID:     rec.ID,
		Seq:    seq,
		Kind:   kind,
		Caller: ir.AccountID(rec.Caller),
		BookID: id,
	}, nil
}
