package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// Outcome classifies one test.
type Outcome int

const (
	Unknown Outcome = iota
	Succeeded
	Failed
	Crashed
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "Succeeded"
	case Failed:
		return "Failed"
	case Crashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// Result is the outcome of one test.
type Result struct {
	Test     string
	Outcome  Outcome
	Expected string
	Actual   string
	// Detail explains Crashed and Unknown outcomes.
	Detail string
	// TreeHash is the content hash of the test's bound tree, when a tree
	// hasher is configured and the tree compiled.
	TreeHash string
	Duration time.Duration
}

// TreeHasher computes the content hash of the syntax document at path.
type TreeHasher func(ctx context.Context, path string) (string, error)

// Runner executes tests.
type Runner struct {
	cfg     *Config
	logger  *slog.Logger
	ids     IDGenerator
	hasher  TreeHasher
	now     func() time.Time
	timeout time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.logger = l } }

// WithIDGenerator sets the run ID source.
func WithIDGenerator(g IDGenerator) Option { return func(r *Runner) { r.ids = g } }

// WithTreeHasher records the bound tree hash of every test.
func WithTreeHasher(h TreeHasher) Option { return func(r *Runner) { r.hasher = h } }

// WithClock sets the clock used for run start times.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// NewRunner validates cfg and creates a runner.
func NewRunner(cfg *Config, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:     cfg,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:     UUIDv7Generator{},
		now:     time.Now,
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Report is the outcome of one run.
type Report struct {
	RunID     string
	StartedAt time.Time
	Results   []Result
}

// Count returns how many results have outcome o.
func (rep *Report) Count(o Outcome) int {
	n := 0
	for _, r := range rep.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// OK reports whether every test succeeded.
func (rep *Report) OK() bool {
	return rep.Count(Succeeded) == len(rep.Results)
}

// WriteTo prints one "path ... Outcome" line per test.
func (rep *Report) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, r := range rep.Results {
		n, err := fmt.Fprintf(w, "%s ... %s\n", r.Test, r.Outcome)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// RunDirs discovers tests in the configured directories and runs them.
func (r *Runner) RunDirs(ctx context.Context) (*Report, error) {
	tests, err := ExpandTestDirs(r.cfg.TestDirPaths(), r.cfg.Tests.Extension)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, tests)
}

// Run executes tests concurrently and returns their results in input
// order.
func (r *Runner) Run(ctx context.Context, tests []string) (*Report, error) {
	id, err := r.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	rep := &Report{RunID: id, StartedAt: r.now(), Results: make([]Result, len(tests))}

	workdir := r.cfg.Run.WorkDir
	if workdir == "" {
		workdir, err = os.MkdirTemp("", "boundc-runtests-")
		if err != nil {
			return nil, fmt.Errorf("create work dir: %w", err)
		}
		defer os.RemoveAll(workdir)
	} else if err := os.MkdirAll(workdir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	jobs := r.cfg.Run.Jobs
	if jobs < 1 {
		jobs = runtime.GOMAXPROCS(0)
	}
	r.logger.Info("run started", "run_id", id, "tests", len(tests), "jobs", jobs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, test := range tests {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep.Results[i] = r.testCore(gctx, workdir, test)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Info("run finished",
		"run_id", id,
		"succeeded", rep.Count(Succeeded),
		"failed", rep.Count(Failed),
		"crashed", rep.Count(Crashed),
		"unknown", rep.Count(Unknown),
	)
	return rep, nil
}

func (r *Runner) testCore(ctx context.Context, workdir, test string) Result {
	start := time.Now()
	res := Result{Test: test}
	defer func() {
		res.Duration = time.Since(start)
		r.logger.Debug("test finished", "test", test, "outcome", res.Outcome, "duration", res.Duration)
	}()

	tree := swapExt(test, r.cfg.Tests.TreeExtension)
	vars := map[string]string{
		"test":    test,
		"tree":    tree,
		"out":     filepath.Join(workdir, filepath.Base(test)+".out"),
		"workdir": workdir,
	}

	if r.hasher != nil {
		if _, err := os.Stat(tree); err == nil {
			h, err := r.hasher(ctx, tree)
			if err != nil {
				r.logger.Warn("tree hash failed", "test", test, "error", err)
			}
			res.TreeHash = h
		}
	}

	expected, ok, detail := r.expected(ctx, workdir, test)
	if !ok {
		res.Outcome = Unknown
		res.Detail = detail
		return res
	}
	res.Expected = expected

	if len(r.cfg.Candidate.Compile) > 0 {
		argv := expandTemplate(r.cfg.Candidate.Compile, vars)
		out, err := runProcess(ctx, r.timeout, workdir, argv)
		switch {
		case err != nil:
			res.Outcome, res.Detail = Crashed, "compile: "+err.Error()
			return res
		case out.ExitCode != 0:
			res.Outcome = Crashed
			res.Detail = fmt.Sprintf("compile: exit status %d: %s", out.ExitCode, out.Output())
			return res
		}
	}

	out, err := runProcess(ctx, r.timeout, workdir, expandTemplate(r.cfg.Candidate.Run, vars))
	if err != nil {
		res.Outcome, res.Detail = Crashed, err.Error()
		return res
	}
	res.Actual = out.Output()
	if res.Actual == res.Expected {
		res.Outcome = Succeeded
	} else {
		res.Outcome = Failed
	}
	return res
}

// expected obtains the reference output: from the reference runtime when
// one is configured, else from the test's expect file.
func (r *Runner) expected(ctx context.Context, workdir, test string) (string, bool, string) {
	if r.cfg.Reference.Runtime != "" {
		out, err := runProcess(ctx, r.timeout, workdir, []string{r.cfg.Reference.Runtime, test})
		if err != nil {
			return "", false, "reference: " + err.Error()
		}
		return out.Output(), true, ""
	}
	data, err := os.ReadFile(swapExt(test, r.cfg.Tests.ExpectExtension))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, "no reference runtime and no expect file"
	}
	if err != nil {
		return "", false, err.Error()
	}
	return string(data), true, ""
}
