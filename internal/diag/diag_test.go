package diag

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBagCounts(t *testing.T) {
	b := NewBag()
	assert.False(t, b.HasErrors())

	r := b.Reporter("prog.yaml", "main")
	r.Warnf(3, WarnUndefinedVariable, "undefined variable $%s", "x")
	assert.False(t, b.HasErrors())
	assert.Equal(t, 1, b.WarningCount())

	r.Errorf(2, ErrUndefinedFunction, "call to undefined function %s()", "foo")
	assert.True(t, b.HasErrors())
	assert.Equal(t, 1, b.ErrorCount())

	ds := b.Diagnostics()
	require.Len(t, ds, 2)
	assert.Equal(t, 2, ds[0].Line, "sorted by line")
	assert.Equal(t, "main", ds[0].Routine)
	assert.Equal(t, "prog.yaml:2: error[B0001]: call to undefined function foo()", ds[0].String())
}

func TestBagConcurrentAdds(t *testing.T) {
	b := NewBag()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Reporter("f", fmt.Sprintf("r%d", i)).Errorf(i, ErrMalformedSyntax, "bad %d", i)
		}()
	}
	wg.Wait()

	ds := b.Diagnostics()
	require.Len(t, ds, 50)
	for i, d := range ds {
		assert.Equal(t, i, d.Line)
	}
}

func TestWriteTo(t *testing.T) {
	b := NewBag()
	var buf bytes.Buffer
	_, err := b.WriteTo(&buf)
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	b.Reporter("", "f").Warnf(0, WarnTooManyArguments, "too many")
	buf.Reset()
	_, err = b.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "warning[B0004]: too many\ncompilation succeeded with 1 warning(s)\n", buf.String())

	b.Reporter("p", "f").Errorf(1, ErrNotAssignable, "nope")
	buf.Reset()
	_, err = b.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "compilation failed with 1 error(s) and 1 warning(s)")
}
