package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundc/internal/codegen"
	"github.com/roach88/boundc/internal/diag"
	"github.com/roach88/boundc/internal/dump"
	"github.com/roach88/boundc/internal/syntax"
)

const sample = `
functions:
  - name: square
    params: [{name: n}]
    body:
      - return: {binary: {op: "*", left: {var: n}, right: {var: n}}}
  - name: greet
    params: [{name: who, default: {lit: world}}]
    body:
      - return: {binary: {op: ".", left: {lit: "hello "}, right: {var: who}}}
main:
  - expr: {assign: {target: {var: a}, value: {call: {name: square, args: [{lit: 7}]}}}}
  - expr: {assign: {target: {var: k}, value: {binary: {op: "*", left: {lit: 6}, right: {lit: 7}}}}}
  - echo: [{var: a}, {call: {name: greet}}]
`

func compile(t *testing.T, src string, opts ...Option) *Result {
	t.Helper()
	f, err := syntax.DecodeString(src)
	require.NoError(t, err)
	f.Path = "sample.yaml"
	res, err := New(opts...).Compile(context.Background(), f)
	require.NoError(t, err)
	return res
}

func TestCompileRoutinesInDeclarationOrder(t *testing.T) {
	res := compile(t, sample, WithEmit(true))

	require.Len(t, res.Routines, 3)
	assert.Equal(t, "main", res.Routines[0].Routine.Name)
	assert.Equal(t, "square", res.Routines[1].Routine.Name)
	assert.Equal(t, "greet", res.Routines[2].Routine.Name)
	assert.Same(t, res.Routines[0].Routine, res.Unit.Main)
	assert.Len(t, res.Unit.Routines, 2)

	assert.True(t, res.OK())
	assert.Zero(t, res.InvalidNodes())
	for _, rr := range res.Routines {
		require.NoError(t, rr.EmitErr, rr.Routine.Name)
		require.NotNil(t, rr.Program, rr.Routine.Name)
	}

	main, ok := res.Lookup("main")
	require.True(t, ok)
	assert.GreaterOrEqual(t, main.Folded.Folded, 1, "6*7 folds")
	assert.Contains(t, main.Program.Listing(), "push    int(42)")
}

func TestCompileWithoutEmit(t *testing.T) {
	res := compile(t, sample)
	for _, rr := range res.Routines {
		assert.Nil(t, rr.Program)
		assert.NoError(t, rr.EmitErr)
	}
}

func TestCompileReportsInvalidNodes(t *testing.T) {
	res := compile(t, `
main:
  - expr: {assign: {target: {var: a}, value: {lit: 1}}}
  - expr: {call: {name: nowhere, args: [{var: a}]}}
`, WithEmit(true))

	assert.False(t, res.OK())
	assert.Equal(t, 1, res.InvalidNodes())
	require.True(t, res.Diagnostics.HasErrors())
	d := res.Diagnostics.Diagnostics()[0]
	assert.Equal(t, diag.ErrUndefinedFunction, d.Code)
	assert.Equal(t, "sample.yaml", d.Path)

	main := res.Routines[0]
	assert.Nil(t, main.Program)
	require.Error(t, main.EmitErr)
	assert.True(t, codegen.HasInvalidNodes(main.EmitErr))
}

func TestCompileIsDeterministicAcrossWorkerCounts(t *testing.T) {
	var hashes []string
	for _, jobs := range []int{1, 2, 8} {
		res := compile(t, sample, WithJobs(jobs))
		h, err := dump.TreeHash(res.Unit)
		require.NoError(t, err)
		hashes = append(hashes, h)
	}
	assert.Equal(t, hashes[0], hashes[1])
	assert.Equal(t, hashes[0], hashes[2])
}

func TestCompileLoadsExtraLibraries(t *testing.T) {
	src := `
main:
  - expr: {assign: {target: {var: r}, value: {call: {name: tick}}}}
`
	without := compile(t, src)
	assert.False(t, without.OK())

	with := compile(t, src, WithLibrarySource("extra.cue", `function: tick: returns: "int"`))
	assert.True(t, with.OK())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.cue"), []byte(`function: tick: returns: "int"`), 0o644))
	fromDir := compile(t, src, WithLibraryDir(dir))
	assert.True(t, fromDir.OK())
}

func TestCompileFailsOnBrokenLibrary(t *testing.T) {
	f, err := syntax.DecodeString("main: []\n")
	require.NoError(t, err)
	_, err = New(WithLibrarySource("bad.cue", `function: {`)).Compile(context.Background(), f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.cue")
	assert.ErrorIs(t, err, ErrLibrary)
}

func TestCompileHonoursCancellation(t *testing.T) {
	f, err := syntax.DecodeString(sample)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New().Compile(ctx, f)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	res, err := New().CompileFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, res.Unit.Path)

	_, err = New().CompileFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
