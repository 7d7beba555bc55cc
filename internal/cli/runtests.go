package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/boundc/internal/driver"
	"github.com/roach88/boundc/internal/dump"
	"github.com/roach88/boundc/internal/harness"
	"github.com/roach88/boundc/internal/store"
)

const defaultConfigFile = "runtests.toml"

// RuntestsOptions holds flags for the runtests command.
type RuntestsOptions struct {
	*RootOptions
	Config   string
	Database string
	Jobs     int
}

// TestResultOutput is the JSON shape of one test result.
type TestResultOutput struct {
	Test       string `json:"test"`
	Outcome    string `json:"outcome"`
	Expected   string `json:"expected,omitempty"`
	Actual     string `json:"actual,omitempty"`
	Detail     string `json:"detail,omitempty"`
	TreeHash   string `json:"tree_hash,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// RuntestsOutput is the JSON payload of the runtests command.
type RuntestsOutput struct {
	RunID     string             `json:"run_id"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Crashed   int                `json:"crashed"`
	Unknown   int                `json:"unknown"`
	Results   []TestResultOutput `json:"results"`
}

// NewRuntestsCommand creates the runtests command.
func NewRuntestsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RuntestsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runtests [reference-runtime] [test-dir...]",
		Short: "Compare candidate output against a reference runtime",
		Long: `Run every test file under the test directories through the reference
runtime and the candidate pipeline, and classify each as Succeeded, Failed,
Crashed or Unknown.

An argument whose base name is the reference runtime name (php or php.exe
by default) selects the reference executable; every other argument is a
test directory. Without a reference runtime, expected output is read from
.expect files next to each test.

Settings come from runtests.toml in the current directory when present,
or from --config.`,
		Example: `  # Using a reference runtime
  boundc runtests /usr/bin/php tests/

  # Recording results for later comparison
  boundc runtests --db results.db tests/`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuntests(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "harness config file (default runtests.toml if present)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database to record the run in")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "tests run concurrently (overrides run.jobs)")

	return cmd
}

func runRuntests(opts *RuntestsOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadHarnessConfig(opts.Config)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	cfg.ApplyArgs(cwd, args)
	if opts.Jobs > 0 {
		cfg.Run.Jobs = opts.Jobs
	}
	if len(cfg.Tests.Dirs) == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "no test directories given", nil)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	runner, err := harness.NewRunner(cfg,
		harness.WithLogger(logger),
		harness.WithTreeHasher(treeHasher(logger)),
	)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}

	rep, err := runner.RunDirs(cmd.Context())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeTests, err.Error(), nil)
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		defer st.Close()
		if err := harness.Persist(cmd.Context(), st, cfg, rep); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		formatter.VerboseLog("Recorded run %s in %s", rep.RunID, opts.Database)
	}

	out := newRuntestsOutput(rep)
	if formatter.Format == "json" {
		if rep.OK() {
			return formatter.Success(out)
		}
		_ = formatter.Error(ErrCodeTests, fmt.Sprintf("%d of %d test(s) did not succeed", len(rep.Results)-out.Succeeded, len(rep.Results)), out)
		return NewExitError(ExitFailure, "tests failed")
	}

	if _, err := rep.WriteTo(formatter.Writer); err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "\nrun %s: %d succeeded, %d failed, %d crashed, %d unknown\n",
		rep.RunID, out.Succeeded, out.Failed, out.Crashed, out.Unknown)
	if !rep.OK() {
		return NewExitError(ExitFailure, "tests failed")
	}
	return nil
}

// loadHarnessConfig reads path, or runtests.toml when path is empty and
// the file exists, or falls back to the defaults.
func loadHarnessConfig(path string) (*harness.Config, error) {
	if path != "" {
		return harness.LoadConfig(path)
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return harness.LoadConfig(defaultConfigFile)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return harness.DefaultConfig(), nil
}

// treeHasher hashes the bound tree of a syntax document with the
// in-process pipeline.
func treeHasher(logger *slog.Logger) harness.TreeHasher {
	d := driver.New()
	return func(ctx context.Context, path string) (string, error) {
		res, err := d.CompileFile(ctx, path)
		if err != nil {
			return "", err
		}
		hash, err := dump.TreeHash(res.Unit)
		if err != nil {
			return "", err
		}
		logger.Debug("tree hashed", "path", path, "hash", hash)
		return hash, nil
	}
}

func newRuntestsOutput(rep *harness.Report) RuntestsOutput {
	out := RuntestsOutput{
		RunID:     rep.RunID,
		Succeeded: rep.Count(harness.Succeeded),
		Failed:    rep.Count(harness.Failed),
		Crashed:   rep.Count(harness.Crashed),
		Unknown:   rep.Count(harness.Unknown),
		Results:   make([]TestResultOutput, len(rep.Results)),
	}
	for i, r := range rep.Results {
		out.Results[i] = TestResultOutput{
			Test:       r.Test,
			Outcome:    r.Outcome.String(),
			Expected:   r.Expected,
			Actual:     r.Actual,
			Detail:     r.Detail,
			TreeHash:   r.TreeHash,
			DurationMs: r.Duration.Milliseconds(),
		}
	}
	return out
}
