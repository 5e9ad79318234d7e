package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bookshelf/internal/ir"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	After int64
	Limit int
	Book  string
}

// EventList is the events command's result.
type EventList struct {
	Events  []EventView `json:"events"`
	LastSeq int64       `json:"last_seq"`
}

// Text implements textRenderer.
func (l EventList) Text() string {
	var buf strings.Builder
	for _, ev := range l.Events {
		fmt.Fprintf(&buf, "[%d] %s caller=%s book_id=%q id=%s\n", ev.Seq, ev.Kind, ev.Caller, ev.BookID, ev.ID)
	}
	fmt.Fprintf(&buf, "%d event(s), last seq %d\n", len(l.Events), l.LastSeq)
	return buf.String()
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the committed event log",
		Long: `Print committed BookCreated and BookRemoved events in seq order.

Examples:
  bookshelf events
  bookshelf events --after 100 --limit 50
  bookshelf events --book b1 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listEvents(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "only events with seq greater than this")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of events (0: no limit)")
	cmd.Flags().StringVar(&opts.Book, "book", "", "only the history of this book id")

	return cmd
}

func listEvents(opts *EventsOptions, cmd *cobra.Command) error {
	if opts.Book != "" && (opts.After != 0 || opts.Limit != 0) {
		return NewExitError(ExitCommandError, "--book cannot be combined with --after or --limit")
	}

	rt, err := opts.openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	var events []ir.Event
	if opts.Book != "" {
		id, berr := ir.Bound([]byte(opts.Book), rt.MaxLength())
		if berr != nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("--book: %v", berr))
		}
		events, err = rt.Backend().ReadBookEvents(ctx, id)
	} else {
		events, err = rt.Events(ctx, opts.After, opts.Limit)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	return opts.formatter(cmd).Success(EventList{
		Events:  newEventViews(events),
		LastSeq: rt.LastSeq(),
	})
}
