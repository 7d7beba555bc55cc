package cli

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/boundc/internal/interp"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	CompileFlags
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	Output string `json:"output"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <file.yaml>",
		Short: "Evaluate the main routine and print what it echoes",
		Long: `Compile a syntax document and evaluate its main routine. Echoed
output goes to stdout; runtime errors go to stderr and exit with status 1.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args[0], cmd)
		},
	}

	opts.CompileFlags.register(cmd)
	return cmd
}

func runRun(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	res, err := compileDocument(cmd, opts.RootOptions, &opts.CompileFlags, path, false)
	if err != nil {
		return err
	}
	if !res.OK() {
		_, _ = res.Diagnostics.WriteTo(formatter.GetErrWriter())
		return formatter.Fail(ExitFailure, ErrCodeInvalid, fmt.Sprintf("%s does not compile", path), nil)
	}

	var out bytes.Buffer
	in := interp.New(res.Unit.Table, res.Unit.AllRoutines(),
		interp.WithOutput(&out),
		interp.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())),
	)
	_, runErr := in.Run(res.Unit.Main)

	if formatter.Format == "json" {
		if runErr != nil {
			_ = formatter.Error(ErrCodeRuntime, runErr.Error(), RunOutput{Output: out.String()})
			return NewExitError(ExitFailure, "runtime error")
		}
		return formatter.Success(RunOutput{Output: out.String()})
	}

	if _, err := formatter.Writer.Write(out.Bytes()); err != nil {
		return err
	}
	if runErr != nil {
		var rte *interp.RuntimeError
		if errors.As(runErr, &rte) {
			fmt.Fprintf(formatter.GetErrWriter(), "Fatal error: %v\n", rte)
		} else {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, runErr.Error(), nil)
		}
		return NewExitError(ExitFailure, "runtime error")
	}
	return nil
}
