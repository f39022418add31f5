package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/hearthbox/rulehub/internal/compiler"
	"github.com/hearthbox/rulehub/internal/ruleset"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidateResult is the JSON/text payload of a successful validation.
type ValidateResult struct {
	Rules int `json:"rules"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <ruleset.json>",
		Short: "Parse and compile a rule document without running it",
		Long: `Load a rule source document, validate it against the document schema,
and compile it into a checked script. Reports the first schema, source, or
type error encountered; if the document is valid, prints the number of
compiled rules.

Example:
  rulehub validate ./rules.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read ruleset", err)
	}

	f.VerboseLog("parsing and schema-checking %s", path)
	script, err := ruleset.Load(data)
	if err != nil {
		_ = f.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "ruleset invalid", err)
	}

	f.VerboseLog("compiling %d rule(s)", len(script.Rules))
	compiledScript, err := compiler.Compile(script)
	if err != nil {
		_ = f.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "compile failed", err)
	}

	return f.Success(ValidateResult{Rules: len(compiledScript.Rules)})
}

// errorCode extracts the structured error code carried by a
// ruleset.DocumentError, compiler.SourceError, or compiler.TypeError, for
// E001-style display. Falls back to a generic code for anything else.
func errorCode(err error) string {
	var docErr *ruleset.DocumentError
	if errors.As(err, &docErr) {
		return docErr.Code
	}
	var srcErr *compiler.SourceError
	if errors.As(err, &srcErr) {
		return srcErr.Code
	}
	var typeErr *compiler.TypeError
	if errors.As(err, &typeErr) {
		return typeErr.Code
	}
	return "E000"
}
