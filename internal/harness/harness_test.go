package harness

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundc/internal/store"
	"github.com/roach88/boundc/internal/testutil"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// testConfig uses cat as both the reference runtime and the candidate, so
// a test succeeds exactly when its source and tree files are identical.
func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Reference.Runtime = "cat"
	cfg.Candidate.Run = []string{"cat", "{tree}"}
	cfg.Run.Timeout = "5s"
	cfg.Run.Jobs = 2
	return cfg
}

func newRunner(t *testing.T, cfg *Config, opts ...Option) *Runner {
	t.Helper()
	opts = append([]Option{
		WithIDGenerator(testutil.NewSequentialIDs("run")),
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }),
	}, opts...)
	r, err := NewRunner(cfg, opts...)
	require.NoError(t, err)
	return r
}

func TestRunClassifiesOutcomes(t *testing.T) {
	dir := t.TempDir()
	pass := filepath.Join(dir, "pass.php")
	fail := filepath.Join(dir, "sub", "fail.php")
	writeFile(t, pass, "hello\n")
	writeFile(t, swapExt(pass, ".yaml"), "hello\n")
	writeFile(t, fail, "one\n")
	writeFile(t, swapExt(fail, ".yaml"), "two\n")

	cfg := testConfig(t)
	cfg.Tests.Dirs = []string{dir}
	rep, err := newRunner(t, cfg).RunDirs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-0001", rep.RunID)
	require.Len(t, rep.Results, 2)
	assert.Equal(t, pass, rep.Results[0].Test)
	assert.Equal(t, Succeeded, rep.Results[0].Outcome)
	assert.Equal(t, fail, rep.Results[1].Test)
	assert.Equal(t, Failed, rep.Results[1].Outcome)
	assert.Equal(t, "one\n", rep.Results[1].Expected)
	assert.Equal(t, "two\n", rep.Results[1].Actual)
	assert.False(t, rep.OK())

	var buf bytes.Buffer
	_, err = rep.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, pass+" ... Succeeded\n"+fail+" ... Failed\n", buf.String())
}

func TestRunSubstitutesStderr(t *testing.T) {
	dir := t.TempDir()
	test := filepath.Join(dir, "warn.php")
	writeFile(t, test, "err\n")

	cfg := testConfig(t)
	cfg.Candidate.Run = []string{"sh", "-c", "echo out; echo err >&2; exit 3"}
	rep, err := newRunner(t, cfg).Run(context.Background(), []string{test})
	require.NoError(t, err)
	assert.Equal(t, Succeeded, rep.Results[0].Outcome, "stderr replaces stdout and exit status is ignored")
	assert.Equal(t, "err\n", rep.Results[0].Actual)
}

func TestRunCrashes(t *testing.T) {
	dir := t.TempDir()
	test := filepath.Join(dir, "a.php")
	writeFile(t, test, "x")
	writeFile(t, swapExt(test, ".yaml"), "x")

	tests := []struct {
		name    string
		setup   func(*Config)
		wantMsg string
	}{
		{"missing executable", func(c *Config) { c.Candidate.Run = []string{filepath.Join(dir, "no-such-binary")} }, "no-such-binary"},
		{"compile step fails", func(c *Config) { c.Candidate.Compile = []string{"sh", "-c", "echo broken >&2; exit 1"} }, "compile: exit status 1: broken"},
		{"timeout", func(c *Config) {
			c.Run.Timeout = "100ms"
			c.Candidate.Run = []string{"sleep", "5"}
		}, "timed out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.setup(cfg)
			rep, err := newRunner(t, cfg).Run(context.Background(), []string{test})
			require.NoError(t, err)
			assert.Equal(t, Crashed, rep.Results[0].Outcome)
			assert.Contains(t, rep.Results[0].Detail, tt.wantMsg)
		})
	}
}

func TestRunUsesExpectFilesWithoutReference(t *testing.T) {
	dir := t.TempDir()
	withExpect := filepath.Join(dir, "a.php")
	writeFile(t, withExpect, "ignored")
	writeFile(t, swapExt(withExpect, ".yaml"), "42")
	writeFile(t, swapExt(withExpect, ".expect"), "42")
	without := filepath.Join(dir, "b.php")
	writeFile(t, without, "x")

	cfg := testConfig(t)
	cfg.Reference.Runtime = ""
	rep, err := newRunner(t, cfg).Run(context.Background(), []string{withExpect, without})
	require.NoError(t, err)
	assert.Equal(t, Succeeded, rep.Results[0].Outcome)
	assert.Equal(t, Unknown, rep.Results[1].Outcome)
	assert.Contains(t, rep.Results[1].Detail, "no reference runtime")
}

func TestRunSubstitutesPlaceholders(t *testing.T) {
	dir := t.TempDir()
	work := filepath.Join(dir, "work")
	test := filepath.Join(dir, "p.php")
	writeFile(t, test, "p.php.out\n")

	cfg := testConfig(t)
	cfg.Run.WorkDir = work
	cfg.Candidate.Compile = []string{"sh", "-c", "basename {out} > {out}"}
	cfg.Candidate.Run = []string{"cat", "{out}"}
	rep, err := newRunner(t, cfg).Run(context.Background(), []string{test})
	require.NoError(t, err)
	assert.Equal(t, Succeeded, rep.Results[0].Outcome, rep.Results[0].Detail)
	assert.FileExists(t, filepath.Join(work, "p.php.out"))
}

func TestRunRecordsTreeHashes(t *testing.T) {
	dir := t.TempDir()
	test := filepath.Join(dir, "h.php")
	writeFile(t, test, "same")
	writeFile(t, swapExt(test, ".yaml"), "same")

	hasher := func(_ context.Context, path string) (string, error) {
		return "hash-of-" + filepath.Base(path), nil
	}
	rep, err := newRunner(t, testConfig(t), WithTreeHasher(hasher)).Run(context.Background(), []string{test})
	require.NoError(t, err)
	assert.Equal(t, "hash-of-h.yaml", rep.Results[0].TreeHash)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRunner(t, testConfig(t)).Run(ctx, []string{"a.php"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestExpandTestDirs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.php", "a.PHP", "nested/deep/c.php", "skip.txt", "x.yaml"} {
		writeFile(t, filepath.Join(dir, name), "")
	}
	tests, err := ExpandTestDirs([]string{dir, dir}, ".php")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.PHP"),
		filepath.Join(dir, "b.php"),
		filepath.Join(dir, "nested/deep/c.php"),
	}, tests)

	_, err = ExpandTestDirs([]string{filepath.Join(dir, "missing")}, ".php")
	require.Error(t, err)
}

func TestPersistStoresRun(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	defer st.Close()

	cfg := testConfig(t)
	rep := &Report{
		RunID:     "run-0001",
		StartedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Results: []Result{
			{Test: "a.php", Outcome: Succeeded, Expected: "1", Actual: "1", TreeHash: "abc"},
			{Test: "b.php", Outcome: Crashed, Detail: "boom"},
		},
	}
	require.NoError(t, Persist(ctx, st, cfg, rep))

	run, err := st.ReadRun(ctx, "run-0001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), run.Seq)
	assert.Equal(t, "cat", run.Settings["reference"])
	assert.Equal(t, "cat {tree}", run.Settings["run"])

	results, err := st.ReadResults(ctx, "run-0001")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, store.OutcomeSucceeded, results[0].Outcome)
	assert.Equal(t, "abc", results[0].TreeHash)
	assert.Equal(t, store.OutcomeCrashed, results[1].Outcome)
	assert.Equal(t, "boom", results[1].Detail)
}

func TestOutcomeNamesMatchStore(t *testing.T) {
	assert.Equal(t, store.OutcomeUnknown, Unknown.String())
	assert.Equal(t, store.OutcomeSucceeded, Succeeded.String())
	assert.Equal(t, store.OutcomeFailed, Failed.String())
	assert.Equal(t, store.OutcomeCrashed, Crashed.String())
}

func TestUUIDv7Generator(t *testing.T) {
	a, err := UUIDv7Generator{}.NewID()
	require.NoError(t, err)
	b, err := UUIDv7Generator{}.NewID()
	require.NoError(t, err)
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a[14:], "7"), "version nibble is 7")
}
