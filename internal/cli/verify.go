package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bookshelf/internal/runtime"
)

// VerifyResult wraps a verification report for output.
type VerifyResult struct {
	*runtime.Report
}

// Text implements textRenderer.
func (r VerifyResult) Text() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "events:     %d (last seq %d)\n", r.Events, r.LastSeq)
	fmt.Fprintf(&buf, "books:      %d\n", r.Books)
	fmt.Fprintf(&buf, "state root: %s\n", r.StateRoot)
	if r.OK() {
		fmt.Fprintln(&buf, "✓ log and records agree")
		return buf.String()
	}
	for _, p := range r.Problems {
		fmt.Fprintf(&buf, "✗ %s\n", p)
	}
	return buf.String()
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the event log against the stored records",
		Long: `Replay the event log and check it against the stored records.

Reports gaps in seq numbering, event ids that do not match their content,
and keys whose presence disagrees with the log. Prints the state root, a
content hash of the record set that is equal across backends.

Exit codes:
  0 - Log and records agree
  1 - Inconsistencies found
  2 - Command error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := rootOpts.openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			rep, err := runtime.Verify(cmd.Context(), rt.Backend())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read backend", err)
			}

			if err := rootOpts.formatter(cmd).Success(VerifyResult{rep}); err != nil {
				return err
			}
			if !rep.OK() {
				return NewExitError(ExitFailure, fmt.Sprintf("%d problem(s) found", len(rep.Problems)))
			}
			return nil
		},
	}
	return cmd
}
