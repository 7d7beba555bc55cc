package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/boundc/internal/store"
)

// ResultsOptions holds flags for the results commands.
type ResultsOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// RunSummaryOutput is the JSON shape of one stored run.
type RunSummaryOutput struct {
	ID        string            `json:"id"`
	Seq       int64             `json:"seq"`
	StartedAt string            `json:"started_at"`
	Settings  map[string]string `json:"settings"`
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Crashed   int               `json:"crashed"`
	Unknown   int               `json:"unknown"`
}

// ChangeOutput is the JSON shape of one changed test.
type ChangeOutput struct {
	Test        string `json:"test"`
	Before      string `json:"before"`
	After       string `json:"after"`
	TreeChanged bool   `json:"tree_changed"`
	Regression  bool   `json:"regression"`
}

// NewResultsCommand creates the results command and its compare
// subcommand.
func NewResultsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResultsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List recorded test runs",
		Long: `List the most recent runs recorded with runtests --db, newest first,
with their outcome counts.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResults(opts, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "results.db", "SQLite database of recorded runs")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "number of runs to list")

	cmd.AddCommand(newCompareCommand(opts))
	return cmd
}

func newCompareCommand(opts *ResultsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <base-run> <head-run>",
		Short: "Show tests whose outcome changed between two runs",
		Long: `Compare two recorded runs test by test. Exits with status 1 when a
test that succeeded in the base run no longer does.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, args[0], args[1], cmd)
		},
	}
}

func openStore(formatter *OutputFormatter, path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	return st, nil
}

func runResults(opts *ResultsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Limit < 1 {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "--limit must be positive", nil)
	}

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	runs, err := st.LatestRuns(ctx, opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	summaries := make([]RunSummaryOutput, 0, len(runs))
	for _, run := range runs {
		sum, err := st.Summarize(ctx, run.ID)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		summaries = append(summaries, RunSummaryOutput{
			ID:        run.ID,
			Seq:       run.Seq,
			StartedAt: run.StartedAt.UTC().Format(time.RFC3339),
			Settings:  run.Settings,
			Total:     sum.Total,
			Succeeded: sum.Succeeded,
			Failed:    sum.Failed,
			Crashed:   sum.Crashed,
			Unknown:   sum.Unknown,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(formatter.Writer, "#%d %s %s  %d/%d succeeded (%d failed, %d crashed, %d unknown)\n",
			s.Seq, s.ID, s.StartedAt, s.Succeeded, s.Total, s.Failed, s.Crashed, s.Unknown)
	}
	return nil
}

func runCompare(opts *ResultsOptions, base, head string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	changes, err := st.Compare(cmd.Context(), base, head)
	if err != nil {
		code := ErrCodeStore
		if errors.Is(err, store.ErrRunNotFound) {
			code = ErrCodeNotFound
		}
		return formatter.Fail(ExitCommandError, code, err.Error(), nil)
	}

	out := make([]ChangeOutput, len(changes))
	regressions := 0
	for i, c := range changes {
		out[i] = ChangeOutput{
			Test:        c.Test,
			Before:      c.Before,
			After:       c.After,
			TreeChanged: c.TreeChanged,
			Regression:  c.IsRegression(),
		}
		if out[i].Regression {
			regressions++
		}
	}

	if formatter.Format == "json" {
		if regressions == 0 {
			return formatter.Success(out)
		}
		_ = formatter.Error(ErrCodeTests, fmt.Sprintf("%d regression(s)", regressions), out)
		return NewExitError(ExitFailure, "regressions found")
	}

	if len(out) == 0 {
		fmt.Fprintln(formatter.Writer, "No changes.")
		return nil
	}
	for _, c := range out {
		marker := " "
		if c.Regression {
			marker = "!"
		}
		tree := ""
		if c.TreeChanged {
			tree = " (tree changed)"
		}
		fmt.Fprintf(formatter.Writer, "%s %s: %s -> %s%s\n", marker, c.Test, c.Before, c.After, tree)
	}
	if regressions > 0 {
		fmt.Fprintf(formatter.Writer, "\n%d regression(s)\n", regressions)
		return NewExitError(ExitFailure, "regressions found")
	}
	return nil
}
