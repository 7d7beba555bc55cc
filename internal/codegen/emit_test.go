package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundc/internal/binder"
	"github.com/roach88/boundc/internal/bound"
	"github.com/roach88/boundc/internal/constant"
	"github.com/roach88/boundc/internal/diag"
	"github.com/roach88/boundc/internal/flow"
	"github.com/roach88/boundc/internal/symbols"
	"github.com/roach88/boundc/internal/syntax"
	"github.com/roach88/boundc/internal/testutil"
)

func compile(t *testing.T, src string) *bound.Routine {
	t.Helper()
	b := testutil.Bind(t, src)
	require.NoError(t, flow.Infer(b.Table, b.Main))
	return b.Main
}

func ops(p *Program) []Opcode {
	out := make([]Opcode, len(p.Code))
	for i, in := range p.Code {
		out[i] = in.Op
	}
	return out
}

func TestEmitAssignments(t *testing.T) {
	r := compile(t, `
main:
  - expr: {assign: {target: {var: a}, value: {lit: 1}}}
  - expr: {assign: {target: {var: b}, value: {binary: {op: "+", left: {var: a}, right: {lit: 2}}}}}
`)
	p, err := Emit(r)
	require.NoError(t, err)

	want := `routine main (locals: $a, $b)
  0000  push    int(1)
  0001  store   $a
  0002  pop
  0003  load    $a
  0004  push    int(2)
  0005  binary  +
  0006  store   $b
  0007  pop
  0008  push    null()
  0009  ret
`
	assert.Equal(t, want, p.Listing())
	assert.Equal(t, 4, p.Code[3].Line)
}

func TestEmitSingleCallPath(t *testing.T) {
	r := compile(t, `
main:
  - expr: {assign: {target: {var: e}, value: {new: {class: Exception, args: [{lit: boom}]}}}}
  - echo: [{var: e}, {lit: "!"}]
  - expr: {call: {name: strlen, args: [{lit: abc}]}}
`)
	p, err := Emit(r)
	require.NoError(t, err)

	var calls []Instr
	for _, in := range p.Code {
		if in.Op == OpCall {
			calls = append(calls, in)
		}
	}
	require.Len(t, calls, 3)
	assert.Equal(t, "Exception::__construct", calls[0].Method.String())
	assert.Equal(t, 1, calls[0].Argc)
	assert.True(t, calls[1].Method.Intrinsic)
	assert.Equal(t, 2, calls[1].Argc)
	assert.Equal(t, "strlen", calls[2].Method.Name)
	for _, c := range calls {
		assert.False(t, c.HasInstance)
	}
}

func TestEmitReferenceArguments(t *testing.T) {
	r := compile(t, `
main:
  - expr: {assign: {target: {var: x}, value: {lit: "5"}}}
  - expr: {call: {name: settype, args: [{var: x}, {lit: int}]}}
  - expr: {call: {name: settype, args: [{assign: {target: {var: y}, value: {lit: 1}}}, {lit: int}]}}
`)
	p, err := Emit(r)
	require.NoError(t, err)

	assert.Equal(t, []Opcode{
		OpPush, OpStore, OpPop,
		OpLoadRef, OpPush, OpCall, OpPop,
		OpPush, OpStore, OpPop, OpLoadRef, OpPush, OpCall, OpPop,
		OpPush, OpReturn,
	}, ops(p))
	assert.Equal(t, "y", p.Code[10].Name)
}

func TestEmitShortTernaryEvaluatesConditionOnce(t *testing.T) {
	r := compile(t, `
main:
  - expr: {assign: {target: {var: r}, value: {ternary: {cond: {call: {name: strlen, args: [{lit: ""}]}}, else: {lit: none}}}}}
`)
	p, err := Emit(r)
	require.NoError(t, err)

	calls := 0
	for _, in := range p.Code {
		if in.Op == OpCall {
			calls++
		}
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, []Opcode{
		OpPush, OpCall, OpDup, OpJumpIfTrue, OpPop, OpPush, OpStore, OpPop,
		OpPush, OpReturn,
	}, ops(p))
	assert.Equal(t, 6, p.Code[3].Target, "jump lands on the store")
}

func TestEmitControlFlow(t *testing.T) {
	r := compile(t, `
main:
  - expr: {assign: {target: {var: a}, value: {lit: 1}}}
  - expr: {binary: {op: "&&", left: {var: a}, right: {var: b}}}
  - expr: {ternary: {cond: {var: a}, then: {lit: 1}, else: {lit: 2}}}
  - expr: {binary: {op: "??", left: {var: a}, right: {lit: 0}}}
`)
	p, err := Emit(r)
	require.NoError(t, err)

	and := p.Code[3:11]
	assert.Equal(t, []Opcode{OpLoad, OpJumpIfFalse, OpLoad, OpToBool, OpJump, OpPush, OpPop, OpLoad}, opsOf(and))
	assert.Equal(t, 8, p.Code[4].Target)
	assert.Equal(t, 9, p.Code[7].Target)

	for i, in := range p.Code {
		if in.Op.IsJump() {
			assert.True(t, in.Target > i && in.Target <= len(p.Code), "jump %d forward and in range", i)
		}
	}
}

func opsOf(code []Instr) []Opcode {
	out := make([]Opcode, len(code))
	for i, in := range code {
		out[i] = in.Op
	}
	return out
}

func TestEmitIncrements(t *testing.T) {
	r := compile(t, `
main:
  - expr: {assign: {target: {var: i}, value: {lit: 1}}}
  - expr: {inc: {kind: "x++", target: {var: i}}}
  - expr: {inc: {kind: "--x", target: {var: i}}}
  - expr: {compound: {op: ".", target: {var: i}, value: {lit: s}}}
`)
	p, err := Emit(r)
	require.NoError(t, err)
	assert.Equal(t, []Opcode{
		OpPush, OpStore, OpPop,
		OpLoad, OpDup, OpInc, OpStore, OpPop, OpPop,
		OpLoad, OpInc, OpStore, OpPop,
		OpLoad, OpPush, OpBinary, OpStore, OpPop,
		OpPush, OpReturn,
	}, ops(p))
	assert.False(t, p.Code[5].Decrement)
	assert.True(t, p.Code[10].Decrement)
}

func TestEmitUsesFoldedConstants(t *testing.T) {
	b := testutil.Bind(t, `
main:
  - echo: [{binary: {op: "*", left: {lit: 6}, right: {lit: 7}}}]
`)
	echo := b.Main.Body[0].Expr.(*bound.Call)
	require.NoError(t, echo.Arguments()[0].Value().SetConstantValue(constant.Int(42)))
	require.NoError(t, flow.Infer(b.Table, b.Main))

	p, err := Emit(b.Main)
	require.NoError(t, err)
	assert.Equal(t, "push    int(42)", p.Code[0].String())
}

func TestVerifyRejectsIncompleteTrees(t *testing.T) {
	t.Run("invalid node", func(t *testing.T) {
		r := compile(t, `
main:
  - expr: {call: {name: nowhere}}
`)
		_, err := Emit(r)
		require.Error(t, err)
		assert.True(t, IsPreconditionError(err))
		assert.True(t, HasInvalidNodes(err))
	})

	t.Run("missing type masks", func(t *testing.T) {
		b := testutil.Bind(t, `
main:
  - expr: {assign: {target: {var: a}, value: {lit: 1}}}
`)
		err := Verify(b.Main)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "type mask")
		assert.False(t, HasInvalidNodes(err))
	})

	t.Run("unresolved handles", func(t *testing.T) {
		f, err := syntax.DecodeString(`
main:
  - expr: {call: {name: strlen, args: [{var: a}]}}
`)
		require.NoError(t, err)
		table := symbols.NewTable()
		require.NoError(t, symbols.LoadStdlib(table))
		table.Freeze()
		r, err := binder.New(table, diag.NewBag().Reporter("t", "main"), "").BindMain(f.Main)
		require.NoError(t, err)

		err = Verify(r)
		var pe *PreconditionError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, bound.KindInvocation, pe.Kind, "reported in evaluation order")
		assert.Equal(t, 3, pe.Line)
	})
}
