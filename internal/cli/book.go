package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bookshelf/internal/books"
	"github.com/roach88/bookshelf/internal/ir"
	"github.com/roach88/bookshelf/internal/runtime"
)

// BookView is the printable form of a stored record.
type BookView struct {
	BookID      string `json:"book_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Text implements textRenderer.
func (b BookView) Text() string {
	return fmt.Sprintf("book_id:     %s\ntitle:       %s\ndescription: %s\n", b.BookID, b.Title, b.Description)
}

func newBookView(id ir.BoundedBytes, md ir.BookMetadata) BookView {
	return BookView{
		BookID:      id.String(),
		Title:       md.Title.String(),
		Description: md.Description.String(),
	}
}

// EventView is the printable form of a committed event.
type EventView struct {
	Seq    int64  `json:"seq"`
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Caller string `json:"caller"`
	BookID string `json:"book_id"`
}

func newEventViews(events []ir.Event) []EventView {
	out := make([]EventView, len(events))
	for i, ev := range events {
		out[i] = EventView{
			Seq:    ev.Seq,
			ID:     ev.ID,
			Kind:   string(ev.Kind),
			Caller: string(ev.Caller),
			BookID: ev.BookID.String(),
		}
	}
	return out
}

// ReceiptView is the printable form of a committed dispatch.
type ReceiptView struct {
	DispatchID string      `json:"dispatch_id"`
	Call       string      `json:"call"`
	Caller     string      `json:"caller"`
	Outcome    string      `json:"outcome"`
	Weight     uint64      `json:"weight"`
	Events     []EventView `json:"events"`
}

// Text implements textRenderer.
func (r ReceiptView) Text() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s %s (weight %d)\n", r.Call, r.Outcome, r.Weight)
	for _, ev := range r.Events {
		fmt.Fprintf(&buf, "  [%d] %s caller=%s book_id=%q\n", ev.Seq, ev.Kind, ev.Caller, ev.BookID)
	}
	return buf.String()
}

// DispatchOptions holds flags shared by create and remove.
type DispatchOptions struct {
	*RootOptions
	Caller string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DispatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <book-id> <title> <description>",
		Short: "Register a new book",
		Long: `Register a new book under an unused id.

Fails with TooLong if any argument exceeds the configured bound, and with
BookIdAlreadyExists if the id is taken.

Examples:
  bookshelf create b1 Dune SciFi --as alice
  bookshelf create b2 "" "" --as alice --db ./shelf.db`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(opts, cmd, runtime.CreateBook{
				BookID:      []byte(args[0]),
				Title:       []byte(args[1]),
				Description: []byte(args[2]),
			})
		},
	}

	cmd.Flags().StringVar(&opts.Caller, "as", "", "signing account (required)")
	_ = cmd.MarkFlagRequired("as")

	return cmd
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DispatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "remove <book-id>",
		Short: "Remove a registered book",
		Long: `Remove the book stored under an id.

Any signed account may remove any book. Fails with BookNotFound if the id
is not registered.

Example:
  bookshelf remove b1 --as bob`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(opts, cmd, runtime.RemoveBook{BookID: []byte(args[0])})
		},
	}

	cmd.Flags().StringVar(&opts.Caller, "as", "", "signing account (required)")
	_ = cmd.MarkFlagRequired("as")

	return cmd
}

func dispatch(opts *DispatchOptions, cmd *cobra.Command, call runtime.Call) error {
	rt, err := opts.openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := opts.formatter(cmd)
	rc, err := rt.Dispatch(cmd.Context(), runtime.Signed(ir.AccountID(opts.Caller)), call)
	if err != nil {
		return reportDispatchError(out, rc, err)
	}

	return out.Success(ReceiptView{
		DispatchID: rc.DispatchID,
		Call:       rc.Call,
		Caller:     string(rc.Caller),
		Outcome:    string(rc.Outcome),
		Weight:     uint64(rc.Weight),
		Events:     newEventViews(rc.Events),
	})
}

// reportDispatchError prints a rejected or failed dispatch and maps it to
// an exit code.
func reportDispatchError(out *OutputFormatter, rc *runtime.Receipt, err error) error {
	var details interface{}
	if rc != nil {
		details = map[string]string{"dispatch_id": rc.DispatchID, "call": rc.Call}
	}

	var berr *books.Error
	var rerr *runtime.RuntimeError
	switch {
	case errors.As(err, &berr):
		if perr := out.Error(string(berr.Code), berr.Message, details); perr != nil {
			return perr
		}
		return WrapExitError(ExitFailure, "call rejected", err)
	case runtime.IsBadOrigin(err) && errors.As(err, &rerr):
		if perr := out.Error(string(runtime.OutcomeBadOrigin), rerr.Message, details); perr != nil {
			return perr
		}
		return WrapExitError(ExitFailure, "call rejected", err)
	default:
		if perr := out.Error("E_BACKEND", err.Error(), details); perr != nil {
			return perr
		}
		return WrapExitError(ExitCommandError, "dispatch failed", err)
	}
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <book-id>",
		Short: "Show a registered book",
		Long: `Show the record stored under an id.

Exits 1 with BookNotFound if the id is not registered.

Example:
  bookshelf get b1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return getBook(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func getBook(opts *RootOptions, cmd *cobra.Command, bookID string) error {
	rt, err := opts.openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := opts.formatter(cmd)
	md, ok, err := rt.Book(cmd.Context(), []byte(bookID))
	if err != nil {
		return reportDispatchError(out, nil, err)
	}
	if !ok {
		msg := fmt.Sprintf("no book with id %q", bookID)
		if perr := out.Error(string(books.CodeBookNotFound), msg, nil); perr != nil {
			return perr
		}
		return NewExitError(ExitFailure, msg)
	}

	id := ir.MustBound(bookID, rt.MaxLength())
	return out.Success(newBookView(id, md))
}
