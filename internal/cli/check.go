package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	CompileFlags
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <file.yaml>",
		Short: "Report diagnostics for a syntax document",
		Long: `Compile a syntax document and report its diagnostics. Exits with
status 1 when any error was reported or any node is invalid.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	opts.CompileFlags.register(cmd)
	return cmd
}

func runCheck(opts *CheckOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	res, err := compileDocument(cmd, opts.RootOptions, &opts.CompileFlags, path, false)
	if err != nil {
		return err
	}
	data := newDiagnosticsData(res)

	if formatter.Format == "json" {
		if res.OK() {
			return formatter.Success(data)
		}
		_ = formatter.Error(ErrCodeInvalid, fmt.Sprintf("%d error(s), %d invalid node(s)", data.Errors, data.InvalidNodes), data)
		return NewExitError(ExitFailure, "check failed")
	}

	if _, err := res.Diagnostics.WriteTo(formatter.Writer); err != nil {
		return err
	}
	if !res.OK() {
		fmt.Fprintf(formatter.Writer, "✗ %s: %d invalid node(s)\n", path, data.InvalidNodes)
		return NewExitError(ExitFailure, "check failed")
	}
	fmt.Fprintf(formatter.Writer, "✓ %s: %d routine(s) bound\n", path, len(res.Routines))
	return nil
}
