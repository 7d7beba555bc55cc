package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/boundc/internal/binder"
	"github.com/roach88/boundc/internal/bound"
	"github.com/roach88/boundc/internal/diag"
	"github.com/roach88/boundc/internal/resolve"
	"github.com/roach88/boundc/internal/symbols"
	"github.com/roach88/boundc/internal/syntax"
)

// Bound is a source document taken through declaration, binding and
// resolution, for tests of the later passes.
type Bound struct {
	Table    *symbols.Table
	Bag      *diag.Bag
	Main     *bound.Routine
	Routines map[string]*bound.Routine
}

// All returns Main followed by the function routines.
func (b *Bound) All() []*bound.Routine {
	out := []*bound.Routine{b.Main}
	for _, r := range b.Routines {
		out = append(out, r)
	}
	return out
}

// Bind decodes src, declares it together with the standard library, binds
// every routine and resolves it. Any decode or contract failure fails the
// test; user diagnostics are left in Bag.
func Bind(t testing.TB, src string) *Bound {
	t.Helper()
	return BindWithLibrary(t, "", src)
}

// BindWithLibrary is Bind with extra CUE library declarations loaded after
// the standard library.
func BindWithLibrary(t testing.TB, lib, src string) *Bound {
	t.Helper()

	f, err := syntax.DecodeString(src)
	require.NoError(t, err)

	table := symbols.NewTable()
	require.NoError(t, symbols.LoadStdlib(table))
	if lib != "" {
		require.NoError(t, symbols.LoadLibraryString(table, "test.cue", lib))
	}
	bag := diag.NewBag()
	require.NoError(t, binder.Declare(table, f, bag.Reporter("test", "")))
	table.Freeze()

	out := &Bound{Table: table, Bag: bag, Routines: map[string]*bound.Routine{}}

	main, err := binder.New(table, bag.Reporter("test", "main"), f.Namespace).BindMain(f.Main)
	require.NoError(t, err)
	require.NoError(t, resolve.Routine(table, bag.Reporter("test", "main"), main))
	out.Main = main

	for _, fn := range f.Functions {
		r, err := binder.New(table, bag.Reporter("test", fn.Name), f.Namespace).BindFunction(fn)
		require.NoError(t, err)
		require.NoError(t, resolve.Routine(table, bag.Reporter("test", fn.Name), r))
		out.Routines[r.Name] = r
	}
	return out
}
