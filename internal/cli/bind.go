package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/boundc/internal/dump"
)

// BindOptions holds flags for the bind command.
type BindOptions struct {
	*RootOptions
	CompileFlags
	Output string // CBOR snapshot path
}

// BindOutput is the JSON payload of the bind command.
type BindOutput struct {
	Hash        string          `json:"hash"`
	Tree        json.RawMessage `json:"tree"`
	Diagnostics diagnosticsData `json:"diagnostics"`
	Snapshot    string          `json:"snapshot,omitempty"`
}

// NewBindCommand creates the bind command.
func NewBindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bind <file.yaml>",
		Short: "Bind and resolve a syntax document and print the bound tree",
		Long: `Bind a syntax document, resolve every call and variable, infer types
and fold constants, then print the bound tree.

Text format prints an indented tree; JSON format prints the canonical
snapshot together with its content hash. With -o the snapshot is also
written as canonical CBOR.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBind(opts, args[0], cmd)
		},
	}

	opts.CompileFlags.register(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write a CBOR snapshot to this file")

	return cmd
}

func runBind(opts *BindOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	res, err := compileDocument(cmd, opts.RootOptions, &opts.CompileFlags, path, false)
	if err != nil {
		return err
	}

	tree, err := dump.Unit(res.Unit)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	hash, err := dump.Hash(dump.DomainTree, tree)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	if opts.Output != "" {
		data, err := dump.MarshalCBOR(tree)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing snapshot: %v", err), nil)
		}
		formatter.VerboseLog("Wrote %d byte snapshot to %s", len(data), opts.Output)
	}

	if formatter.Format == "json" {
		canonical, err := dump.MarshalCanonical(tree)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		return formatter.Success(BindOutput{
			Hash:        hash,
			Tree:        canonical,
			Diagnostics: newDiagnosticsData(res),
			Snapshot:    opts.Output,
		})
	}

	if err := dump.WriteText(formatter.Writer, res.Unit); err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "\ntree %s\n", hash)
	if _, err := res.Diagnostics.WriteTo(formatter.GetErrWriter()); err != nil {
		return err
	}
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "Wrote snapshot to %s\n", opts.Output)
	}
	return nil
}
