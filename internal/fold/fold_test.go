package fold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundc/internal/bound"
	"github.com/roach88/boundc/internal/constant"
	"github.com/roach88/boundc/internal/testutil"
)

func valueOf(r *bound.Routine, i int) bound.Expr {
	e := r.Body[i].Expr
	if a, ok := e.(*bound.Assign); ok {
		return a.Value()
	}
	return e
}

func TestFoldArithmetic(t *testing.T) {
	b := testutil.Bind(t, `
main:
  - expr: {assign: {target: {var: x}, value: {binary: {op: "+", left: {lit: 1}, right: {binary: {op: "*", left: {lit: 2}, right: {lit: 3}}}}}}}
  - expr: {assign: {target: {var: y}, value: {binary: {op: "+", left: {var: x}, right: {lit: 1}}}}}
  - expr: {assign: {target: {var: z}, value: {unary: {op: "-", operand: {lit: "4"}}}}}
`)
	st, err := Routine(b.Main)
	require.NoError(t, err)
	assert.Equal(t, Stats{Folded: 3}, st)

	v, ok := valueOf(b.Main, 0).ConstantValue()
	require.True(t, ok)
	assert.Equal(t, constant.Int(7), v)

	_, ok = valueOf(b.Main, 1).ConstantValue()
	assert.False(t, ok, "variables are not constant")
	_, ok = b.Main.Body[0].Expr.ConstantValue()
	assert.False(t, ok, "assignments are never folded")

	v, _ = valueOf(b.Main, 2).ConstantValue()
	assert.Equal(t, constant.Int(-4), v)
}

func TestFoldConcatenation(t *testing.T) {
	b := testutil.Bind(t, `
main:
  - echo: [{binary: {op: ".", left: {binary: {op: ".", left: {lit: a}, right: {lit: 1}}}, right: {lit: 2.5}}}]
  - echo: [{binary: {op: ".", left: {lit: a}, right: {var: x}}}]
`)
	_, err := Routine(b.Main)
	require.NoError(t, err)

	echo := b.Main.Body[0].Expr.(*bound.Call)
	concat := echo.Arguments()[0].Value().(*bound.Call)
	v, ok := concat.ConstantValue()
	require.True(t, ok)
	assert.Equal(t, constant.String("a12.5"), v)
	_, ok = echo.ConstantValue()
	assert.False(t, ok, "echo has an effect")

	partial := b.Main.Body[1].Expr.(*bound.Call).Arguments()[0].Value()
	_, ok = partial.ConstantValue()
	assert.False(t, ok)
}

func TestFoldSkipsFailingOperations(t *testing.T) {
	b := testutil.Bind(t, `
main:
  - expr: {binary: {op: "/", left: {lit: 1}, right: {lit: 0}}}
  - expr: {binary: {op: "<<", left: {lit: 1}, right: {lit: -1}}}
`)
	st, err := Routine(b.Main)
	require.NoError(t, err)
	assert.Equal(t, Stats{Skipped: 2}, st)
	_, ok := b.Main.Body[0].Expr.ConstantValue()
	assert.False(t, ok)
}

func TestFoldShortCircuit(t *testing.T) {
	b := testutil.Bind(t, `
main:
  - expr: {binary: {op: "&&", left: {lit: false}, right: {var: x}}}
  - expr: {binary: {op: "||", left: {lit: 0}, right: {var: x}}}
  - expr: {binary: {op: "??", left: {lit: 5}, right: {var: x}}}
  - expr: {binary: {op: "??", left: {lit: null}, right: {lit: d}}}
`)
	_, err := Routine(b.Main)
	require.NoError(t, err)

	want := []constant.Value{constant.Bool(false), nil, constant.Int(5), constant.String("d")}
	for i, w := range want {
		got, ok := b.Main.Body[i].Expr.ConstantValue()
		if w == nil {
			assert.False(t, ok, "statement %d", i)
			continue
		}
		require.True(t, ok, "statement %d", i)
		assert.True(t, constant.Equal(w, got), "statement %d: %v", i, got)
	}
}

func TestFoldConditional(t *testing.T) {
	b := testutil.Bind(t, `
main:
  - expr: {ternary: {cond: {lit: true}, then: {lit: 1}, else: {var: x}}}
  - expr: {ternary: {cond: {lit: 0}, else: {lit: d}}}
  - expr: {ternary: {cond: {lit: v}, else: {var: x}}}
  - expr: {ternary: {cond: {var: x}, then: {lit: 1}, else: {lit: 2}}}
`)
	_, err := Routine(b.Main)
	require.NoError(t, err)

	want := []constant.Value{constant.Int(1), constant.String("d"), constant.String("v"), nil}
	for i, w := range want {
		got, ok := b.Main.Body[i].Expr.ConstantValue()
		if w == nil {
			assert.False(t, ok, "statement %d", i)
			continue
		}
		require.True(t, ok, "statement %d", i)
		assert.Equal(t, w, got, "statement %d", i)
	}
}

func TestFoldIsIdempotent(t *testing.T) {
	b := testutil.Bind(t, `
main:
  - expr: {assign: {target: {var: x}, value: {binary: {op: "**", left: {lit: 2}, right: {lit: 8}}}}}
`)
	first, err := Routine(b.Main)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Folded)

	second, err := Routine(b.Main)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Folded, "already folded")

	v, err := Expr(valueOf(b.Main, 0))
	require.NoError(t, err)
	assert.Equal(t, constant.Int(256), v)
}

func TestOperatorTables(t *testing.T) {
	v, err := Binary(bound.OpLess, constant.String("abc"), constant.String("abd"))
	require.NoError(t, err)
	assert.Equal(t, constant.Bool(true), v)

	v, err = Binary(bound.OpXor, constant.Int(1), constant.Bool(true))
	require.NoError(t, err)
	assert.Equal(t, constant.Bool(false), v)

	v, err = Unary(bound.OpCastString, constant.Float(2.5))
	require.NoError(t, err)
	assert.Equal(t, constant.String("2.5"), v)

	v, err = Unary(bound.OpBitNot, constant.Int(0))
	require.NoError(t, err)
	assert.Equal(t, constant.Int(-1), v)

	_, err = Binary(bound.BinaryOp(200), constant.Int(1), constant.Int(1))
	assert.Error(t, err)
}
