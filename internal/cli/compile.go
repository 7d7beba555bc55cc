package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/boundc/internal/diag"
	"github.com/roach88/boundc/internal/driver"
	"github.com/roach88/boundc/internal/symbols"
	"github.com/roach88/boundc/internal/syntax"
)

// CompileFlags are the flags shared by every command that compiles a
// syntax document.
type CompileFlags struct {
	Libraries []string // extra CUE library directories
	Jobs      int
}

func (c *CompileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&c.Libraries, "lib", nil, "directory of CUE library declarations (repeatable)")
	cmd.Flags().IntVarP(&c.Jobs, "jobs", "j", 0, "routines compiled concurrently (0 = one per CPU)")
}

// compileDocument runs the pipeline over path and maps load failures to
// command errors.
func compileDocument(cmd *cobra.Command, opts *RootOptions, flags *CompileFlags, path string, emit bool) (*driver.Result, error) {
	formatter := newFormatter(opts, cmd)

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("file not found: %s", path), nil)
	}
	f, err := syntax.LoadFile(path)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeSyntax, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded %s: %d function(s), %d class(es)", path, len(f.Functions), len(f.Classes))

	dopts := []driver.Option{
		driver.WithJobs(flags.Jobs),
		driver.WithEmit(emit),
		driver.WithLogger(newLogger(opts, cmd.ErrOrStderr())),
	}
	for _, dir := range flags.Libraries {
		dopts = append(dopts, driver.WithLibraryDir(dir))
	}
	res, err := driver.New(dopts...).Compile(cmd.Context(), f)
	if err != nil {
		var loadErr *symbols.LoadError
		if errors.Is(err, driver.ErrLibrary) || errors.As(err, &loadErr) {
			return nil, formatter.Fail(ExitCommandError, ErrCodeLibrary, err.Error(), nil)
		}
		return nil, formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	return res, nil
}

// diagnosticsData is the JSON shape of a compilation's diagnostics.
type diagnosticsData struct {
	Diagnostics  []*diag.Diagnostic `json:"diagnostics"`
	Errors       int                `json:"errors"`
	Warnings     int                `json:"warnings"`
	InvalidNodes int                `json:"invalid_nodes"`
}

func newDiagnosticsData(res *driver.Result) diagnosticsData {
	return diagnosticsData{
		Diagnostics:  res.Diagnostics.Diagnostics(),
		Errors:       res.Diagnostics.ErrorCount(),
		Warnings:     res.Diagnostics.WarningCount(),
		InvalidNodes: res.InvalidNodes(),
	}
}
