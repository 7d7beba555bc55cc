package binder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundc/internal/bound"
	"github.com/roach88/boundc/internal/constant"
	"github.com/roach88/boundc/internal/diag"
	"github.com/roach88/boundc/internal/symbols"
	"github.com/roach88/boundc/internal/syntax"
)

func bindMain(t *testing.T, src string) (*bound.Routine, *diag.Bag) {
	t.Helper()
	f, err := syntax.DecodeString(src)
	require.NoError(t, err)

	table := symbols.NewTable()
	bag := diag.NewBag()
	require.NoError(t, Declare(table, f, bag.Reporter("test", "")))
	table.Freeze()

	r, err := New(table, bag.Reporter("test", "main"), f.Namespace).BindMain(f.Main)
	require.NoError(t, err)
	return r, bag
}

func TestBindAssignmentsEndToEnd(t *testing.T) {
	r, bag := bindMain(t, `
main:
  - expr: {assign: {target: {var: a}, value: {lit: 1}}}
  - expr: {assign: {target: {var: b}, value: {binary: {op: "+", left: {var: a}, right: {lit: 2}}}}}
`)
	assert.False(t, bag.HasErrors())
	require.Len(t, r.Body, 2)

	first, ok := r.Body[0].Expr.(*bound.Assign)
	require.True(t, ok)
	assert.Equal(t, bound.KindAssignment, first.Kind())
	assert.Equal(t, bound.AccessNone, first.Access())
	assert.Equal(t, bound.AccessWrite, first.Target().Access())

	one, ok := first.Value().(*bound.Literal)
	require.True(t, ok)
	assert.Equal(t, bound.AccessRead, one.Access())
	v, ok := one.ConstantValue()
	require.True(t, ok)
	assert.Equal(t, constant.Int(1), v)

	second, ok := r.Body[1].Expr.(*bound.Assign)
	require.True(t, ok)
	assert.Equal(t, bound.KindAssignment, second.Kind())
	sum, ok := second.Value().(*bound.Binary)
	require.True(t, ok)
	assert.Equal(t, bound.OpAdd, sum.Op())

	left, ok := sum.Left().(*bound.LocalRef)
	require.True(t, ok)
	assert.Equal(t, "a", left.Name())
	assert.Equal(t, bound.AccessRead, left.Access())

	right, ok := sum.Right().(*bound.Literal)
	require.True(t, ok)
	assert.Equal(t, constant.Int(2), right.Value())

	assert.Equal(t, 3, r.LineOf(first))
	assert.Equal(t, 4, r.LineOf(second))
}

func TestExpressionsWithoutLineInheritEnclosingLine(t *testing.T) {
	f, err := syntax.DecodeString(`
main:
  - expr: {assign: {target: {var: a}, value: {lit: 1}}}
  - expr:
      assign:
        target: {var: b}
        value:
          binary: {op: "+", left: {var: a}, right: {lit: 2}}
`)
	require.NoError(t, err)
	second := f.Main[1].Expr.Assign
	second.Target.Line = 0
	second.Value.Line = 0
	second.Value.Binary.Left.Line = 0

	table := symbols.NewTable()
	bag := diag.NewBag()
	require.NoError(t, Declare(table, f, bag.Reporter("test", "")))
	table.Freeze()
	r, err := New(table, bag.Reporter("test", "main"), "").BindMain(f.Main)
	require.NoError(t, err)

	assign := r.Body[1].Expr.(*bound.Assign)
	sum := assign.Value().(*bound.Binary)
	assert.Equal(t, 5, r.LineOf(assign))
	assert.Equal(t, 5, r.LineOf(assign.Target()))
	assert.Equal(t, 5, r.LineOf(sum), "a later child line does not leak upward")
	assert.Equal(t, 5, r.LineOf(sum.Left()))
	assert.Equal(t, 8, r.LineOf(sum.Right()), "lines present in the document are kept")
}

func TestArgumentAccess(t *testing.T) {
	r, _ := bindMain(t, `
main:
  - expr:
      call:
        name: f
        args:
          - {var: a}
          - {assign: {target: {var: b}, value: {lit: 1}}}
          - {compound: {op: "+", target: {var: c}, value: {lit: 1}}}
          - {new: {class: C}}
          - {lit: 5}
          - {binary: {op: "*", left: {var: d}, right: {lit: 2}}}
`)
	call, ok := r.Body[0].Expr.(*bound.Call)
	require.True(t, ok)
	assert.Equal(t, bound.AccessNone, call.Access())
	args := call.Arguments()
	require.Len(t, args, 6)

	assert.Equal(t, bound.AccessReadUnknown, args[0].Value().Access())

	assign := args[1].Value().(*bound.Assign)
	assert.Equal(t, bound.AccessRead, assign.Access())
	assert.Equal(t, bound.AccessWriteAndReadUnknown, assign.Target().Access())

	compound := args[2].Value().(*bound.Assign)
	assert.Equal(t, bound.KindCompoundAssignment, compound.Kind())
	assert.Equal(t, bound.AccessReadAndWriteAndReadUnknown, compound.Target().Access())

	assert.Equal(t, bound.AccessReadUnknown, args[3].Value().Access())
	assert.Equal(t, bound.AccessRead, args[4].Value().Access())

	mul := args[5].Value().(*bound.Binary)
	assert.Equal(t, bound.AccessRead, mul.Left().Access(), "operands stay by value")
}

func TestConcatChainsFlatten(t *testing.T) {
	r, _ := bindMain(t, `
main:
  - echo:
      - binary:
          op: "."
          left: {binary: {op: ".", left: {lit: a}, right: {var: x}}}
          right: {lit: c}
`)
	echo := r.Body[0].Expr.(*bound.Call)
	assert.Equal(t, bound.CallEcho, echo.Form())
	require.Len(t, echo.Arguments(), 1)

	concat := echo.Arguments()[0].Value().(*bound.Call)
	assert.Equal(t, bound.CallConcat, concat.Form())
	require.Len(t, concat.Arguments(), 3)
	assert.Equal(t, bound.AccessRead, concat.Arguments()[1].Value().Access())
}

func TestIncrementAndCompound(t *testing.T) {
	r, bag := bindMain(t, `
main:
  - expr: {inc: {kind: "x++", target: {var: i}}}
  - expr: {compound: {op: ".", target: {var: s}, value: {lit: "!"}}}
`)
	require.False(t, bag.HasErrors())

	inc := r.Body[0].Expr.(*bound.Assign)
	k, ok := inc.IncrementKind()
	require.True(t, ok)
	assert.Equal(t, bound.PostfixIncrement, k)
	assert.Equal(t, bound.AccessReadAndWrite, inc.Target().Access())

	cat := r.Body[1].Expr.(*bound.Assign)
	op, _ := cat.Op()
	assert.Equal(t, bound.OpConcat, op)
}

func TestNamespaceFallback(t *testing.T) {
	r, _ := bindMain(t, `
namespace: App
main:
  - expr: {call: {name: strlen, args: [{lit: x}]}}
  - expr: {call: {name: '\strlen', args: [{lit: x}]}}
`)
	c := r.Body[0].Expr.(*bound.Call)
	assert.Equal(t, `App\strlen`, c.Name().String())
	fb, ok := c.FallbackName()
	require.True(t, ok)
	assert.Equal(t, "strlen", fb.String())

	c = r.Body[1].Expr.(*bound.Call)
	assert.Equal(t, "strlen", c.Name().String())
	_, ok = c.FallbackName()
	assert.False(t, ok)
}

func TestShortTernary(t *testing.T) {
	r, _ := bindMain(t, `
main:
  - expr: {ternary: {cond: {var: a}, else: {lit: 0}}}
`)
	c := r.Body[0].Expr.(*bound.Conditional)
	assert.True(t, c.IsShort())
	assert.Equal(t, bound.AccessNone, c.Access())
}

func TestMalformedSyntaxBecomesInvalidPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"unknown operator", `main: [{expr: {binary: {op: "<=>", left: {lit: 1}, right: {lit: 2}}}}]`, diag.ErrUnknownOperator},
		{"missing operand", `main: [{expr: {binary: {op: "+", left: {lit: 1}}}}]`, diag.ErrMalformedSyntax},
		{"assign to literal", `main: [{expr: {assign: {target: {lit: 1}, value: {lit: 2}}}}]`, diag.ErrNotAssignable},
		{"bad increment", `main: [{expr: {inc: {kind: "x+=", target: {var: i}}}}]`, diag.ErrMalformedSyntax},
		{"comparison compound", `main: [{expr: {compound: {op: "==", target: {var: i}, value: {lit: 1}}}}]`, diag.ErrUnknownOperator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, bag := bindMain(t, tt.src)
			require.True(t, bag.HasErrors())
			assert.Equal(t, tt.code, bag.Diagnostics()[0].Code)

			invalid := 0
			require.NoError(t, bound.Walker{Pre: func(n bound.Node) error {
				if e, ok := n.(bound.Expr); ok && e.IsInvalid() {
					invalid++
				}
				return nil
			}}.WalkRoutine(r))
			assert.Equal(t, 1, invalid)
		})
	}
}

func TestDeclareAndBindFunction(t *testing.T) {
	f, err := syntax.DecodeString(`
namespace: App
functions:
  - name: twice
    params: [{name: n, type: int}, {name: out, byref: true, default: {lit: null}}]
    body:
      - return: {binary: {op: "*", left: {var: n}, right: {lit: 2}}}
  - name: TWICE
    body: []
classes:
  - name: Box
    params: [{name: v}]
main: []
`)
	require.NoError(t, err)

	table := symbols.NewTable()
	bag := diag.NewBag()
	require.NoError(t, Declare(table, f, bag.Reporter("test", "")))
	table.Freeze()

	require.Equal(t, 1, bag.ErrorCount(), "case-insensitive duplicate")
	assert.Equal(t, diag.ErrDuplicateDecl, bag.Diagnostics()[0].Code)

	m, ok := table.LookupFunction(symbols.ParseQualifiedName(`app\twice`))
	require.True(t, ok)
	require.Len(t, m.Params, 2)
	assert.True(t, m.Params[1].ByRef)
	assert.True(t, m.Params[1].Optional)
	assert.Equal(t, 1, m.RequiredParams())

	box, ok := table.LookupClass(symbols.ParseQualifiedName("box"))
	require.True(t, ok)
	require.Len(t, box.Ctor.Params, 1)

	r, err := New(table, bag.Reporter("test", "twice"), f.Namespace).BindFunction(f.Functions[0])
	require.NoError(t, err)
	assert.Same(t, m, r.Method)
	assert.False(t, r.IsGlobal())
	require.Len(t, r.Body, 1)
	assert.Equal(t, bound.StmtReturn, r.Body[0].Kind)
}
