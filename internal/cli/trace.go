package cli

import (
	"github.com/spf13/cobra"

	"github.com/hearthbox/rulehub/internal/tracelog"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Kind     string // optional - filter to one event kind
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Entries []tracelog.Entry `json:"entries"`
	Total   int              `json:"total"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Dump the recorded event trace for a run",
		Long: `Read back every event recorded to a trace log database by a prior
"rulehub run" invocation, in sequence order.

Examples:
  rulehub trace --db ./rulehub.db
  rulehub trace --db ./rulehub.db --kind sent
  rulehub trace --db ./rulehub.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "rulehub.db", "path to the trace log database")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one event kind (starting|updated|sent|channel_error|stopped)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	log, err := tracelog.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace log", err)
	}
	defer log.Close()

	entries, err := log.All()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace log", err)
	}

	if opts.Kind != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Kind == opts.Kind {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	return f.Success(TraceResult{Entries: entries, Total: len(entries)})
}
