package runtime

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/bookshelf/internal/ir"
)

// Report is the result of verifying a backend.
type Report struct {
	// Events is the number of events replayed.
	Events int `json:"events"`

	// Books is the number of stored records.
	Books int `json:"books"`

	// LastSeq is the seq of the final event, 0 for an empty log.
	LastSeq int64 `json:"last_seq"`

	// StateRoot is the content hash of the stored record set.
	StateRoot string `json:"state_root"`

	// Problems lists every inconsistency found, in discovery order.
	Problems []string `json:"problems"`
}

// OK reports whether verification found no problems.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

// Verify replays the backend's event log and checks it against the stored
// records. Replay is structural: the log alone determines which keys must
// exist, so the check needs no record of titles or descriptions.
//
// Checks:
//   - seqs are contiguous from 1
//   - every event id equals ir.EventID of its content
//   - BookCreated only for an absent key, BookRemoved only for a present key
//   - the keys live at the end of the log are exactly the stored keys
//
// A returned error means the backend could not be read; inconsistencies are
// reported in Report.Problems.
func Verify(ctx context.Context, backend Backend) (*Report, error) {
	events, err := backend.ReadEvents(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	stored, err := backend.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	rep := &Report{Events: len(events), Books: len(stored), Problems: []string{}}
	problem := func(format string, args ...any) {
		rep.Problems = append(rep.Problems, fmt.Sprintf(format, args...))
	}

	live := make(map[ir.BoundedBytes]bool)
	var prev int64
	for _, ev := range events {
		if ev.Seq != prev+1 {
			problem("seq %d follows %d", ev.Seq, prev)
		}
		prev = ev.Seq

		want, err := ir.EventID(ev.Kind, ev.Caller, ev.BookID, ev.Seq)
		if err != nil {
			return nil, fmt.Errorf("verify: event %d: %w", ev.Seq, err)
		}
		if ev.ID != want {
			problem("event %d: id %s, want %s", ev.Seq, ev.ID, want)
		}

		switch ev.Kind {
		case ir.EventBookCreated:
			if live[ev.BookID] {
				problem("event %d: %s created twice", ev.Seq, ev.BookID.Hex())
			}
			live[ev.BookID] = true
		case ir.EventBookRemoved:
			if !live[ev.BookID] {
				problem("event %d: %s removed while absent", ev.Seq, ev.BookID.Hex())
			}
			delete(live, ev.BookID)
		default:
			problem("event %d: unknown kind %q", ev.Seq, ev.Kind)
		}
	}
	rep.LastSeq = prev

	for _, b := range stored {
		if !live[b.ID] {
			problem("book %s stored but not created by the log", b.ID.Hex())
		}
		delete(live, b.ID)
	}
	missing := make([]string, 0, len(live))
	for id := range live {
		missing = append(missing, id.Hex())
	}
	slices.Sort(missing)
	for _, h := range missing {
		problem("book %s created by the log but not stored", h)
	}

	root, err := ir.StateRoot(stored)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	rep.StateRoot = root

	return rep, nil
}
