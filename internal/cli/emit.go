package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// EmitOptions holds flags for the emit command.
type EmitOptions struct {
	*RootOptions
	CompileFlags
}

// EmittedRoutine is the JSON shape of one routine's IL.
type EmittedRoutine struct {
	Name    string   `json:"name"`
	Locals  []string `json:"locals"`
	Listing []string `json:"listing,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// NewEmitCommand creates the emit command.
func NewEmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "emit <file.yaml>",
		Short: "Print the stack IL of every routine",
		Long: `Compile a syntax document and print the stack IL listing of every
routine. Routines holding invalid nodes are refused and the command exits
with status 1.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(opts, args[0], cmd)
		},
	}

	opts.CompileFlags.register(cmd)
	return cmd
}

func runEmit(opts *EmitOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	res, err := compileDocument(cmd, opts.RootOptions, &opts.CompileFlags, path, true)
	if err != nil {
		return err
	}

	routines := make([]EmittedRoutine, 0, len(res.Routines))
	refused := 0
	for _, rr := range res.Routines {
		er := EmittedRoutine{Name: rr.Routine.Name, Locals: []string{}}
		if rr.EmitErr != nil {
			refused++
			er.Error = rr.EmitErr.Error()
		} else {
			er.Locals = rr.Program.Locals
			er.Listing = strings.Split(strings.TrimSuffix(rr.Program.Listing(), "\n"), "\n")
		}
		routines = append(routines, er)
	}

	if formatter.Format == "json" {
		if refused == 0 {
			return formatter.Success(routines)
		}
		_ = formatter.Error(ErrCodeInvalid, fmt.Sprintf("%d routine(s) refused", refused), routines)
		return NewExitError(ExitFailure, "emit failed")
	}

	for i, rr := range res.Routines {
		if i > 0 {
			fmt.Fprintln(formatter.Writer)
		}
		if rr.EmitErr != nil {
			fmt.Fprintf(formatter.Writer, "routine %s refused: %v\n", rr.Routine.Name, rr.EmitErr)
			continue
		}
		if err := rr.Program.WriteListing(formatter.Writer); err != nil {
			return err
		}
	}
	if refused > 0 {
		_, _ = res.Diagnostics.WriteTo(formatter.GetErrWriter())
		return NewExitError(ExitFailure, fmt.Sprintf("%d routine(s) refused", refused))
	}
	return nil
}
