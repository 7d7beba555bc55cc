package bound

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundc/internal/constant"
	"github.com/roach88/boundc/internal/symbols"
)

// countingVisitor recurses through Accept and counts nodes by kind.
type countingVisitor struct {
	counts map[Kind]int
}

func (v *countingVisitor) visit(n Node) error {
	v.counts[n.Kind()]++
	for _, c := range Children(n) {
		if err := Accept(c, v); err != nil {
			return err
		}
	}
	return nil
}

func (v *countingVisitor) VisitLiteral(n *Literal) error         { return v.visit(n) }
func (v *countingVisitor) VisitUnary(n *Unary) error             { return v.visit(n) }
func (v *countingVisitor) VisitBinary(n *Binary) error           { return v.visit(n) }
func (v *countingVisitor) VisitLocalRef(n *LocalRef) error       { return v.visit(n) }
func (v *countingVisitor) VisitCall(n *Call) error               { return v.visit(n) }
func (v *countingVisitor) VisitAssign(n *Assign) error           { return v.visit(n) }
func (v *countingVisitor) VisitConditional(n *Conditional) error { return v.visit(n) }
func (v *countingVisitor) VisitArgument(n *Argument) error       { return v.visit(n) }

// printer renders a tree as a prefix string, threading the depth through
// Dispatch.
type printer struct{}

func (p printer) children(n Node, depth int) (string, error) {
	parts := []string{}
	for _, c := range Children(n) {
		s, err := Dispatch[int, string](c, p, depth+1)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " "), nil
}

func (p printer) wrap(head string, n Node, depth int) (string, error) {
	body, err := p.children(n, depth)
	if err != nil {
		return "", err
	}
	if body == "" {
		return head, nil
	}
	return fmt.Sprintf("(%s %s)", head, body), nil
}

func (p printer) VisitLiteral(n *Literal, d int) (string, error) { return n.Spelling(), nil }
func (p printer) VisitUnary(n *Unary, d int) (string, error)     { return p.wrap(n.Op().String(), n, d) }
func (p printer) VisitBinary(n *Binary, d int) (string, error)   { return p.wrap(n.Op().String(), n, d) }
func (p printer) VisitLocalRef(n *LocalRef, d int) (string, error) {
	return "$" + n.Name(), nil
}
func (p printer) VisitCall(n *Call, d int) (string, error) { return p.wrap(n.Form().String(), n, d) }
func (p printer) VisitAssign(n *Assign, d int) (string, error) {
	return p.wrap(n.Kind().String(), n, d)
}
func (p printer) VisitConditional(n *Conditional, d int) (string, error) {
	return p.wrap("?:", n, d)
}
func (p printer) VisitArgument(n *Argument, d int) (string, error) {
	return Dispatch[int, string](n.Value(), p, d)
}

type strayNode struct{}

func (strayNode) Kind() Kind { return Kind(99) }
func (strayNode) boundNode() {}

// buildSample constructs echo(-$x, $y = 1 + 2, $c ?: 3); $i++ style tree
// and returns it with the number of constructor calls per kind.
func buildSample(t *testing.T) (Node, map[Kind]int) {
	t.Helper()
	x := refWith(t, "x", AccessRead)
	neg, err := NewUnary(OpMinus, x, AccessRead)
	require.NoError(t, err)

	sum, err := NewBinary(OpAdd, read(t, 1), read(t, 2), AccessRead)
	require.NoError(t, err)
	assign, err := NewAssign(refWith(t, "y", AccessWrite), sum, AccessRead)
	require.NoError(t, err)

	cond, err := NewConditional(refWith(t, "c", AccessRead), nil, read(t, 3), AccessRead)
	require.NoError(t, err)

	inc, err := NewIncrement(refWith(t, "i", AccessReadAndWrite), PostfixIncrement, AccessRead)
	require.NoError(t, err)

	echo, err := NewEcho([]*Argument{arg(t, neg), arg(t, assign), arg(t, cond), arg(t, inc)}, AccessNone)
	require.NoError(t, err)

	return echo, map[Kind]int{
		KindLiteral:           4, // 1, 2, 3 and the increment's implicit 1
		KindUnary:             1,
		KindBinary:            1,
		KindLocalReference:    4,
		KindInvocation:        1,
		KindAssignment:        1,
		KindIncrement:         1,
		KindConditionalChoice: 1,
		KindArgument:          4,
	}
}

func TestCountingVisitorMatchesConstruction(t *testing.T) {
	root, want := buildSample(t)

	v := &countingVisitor{counts: map[Kind]int{}}
	require.NoError(t, Accept(root, v))
	assert.Equal(t, want, v.counts)

	assert.Equal(t, want, Count(root))
}

func TestDispatchThreadsArgument(t *testing.T) {
	root, _ := buildSample(t)
	got, err := Dispatch[int, string](root, printer{}, 0)
	require.NoError(t, err)
	assert.Equal(t, "(echo (- $x) (Assignment $y (+ 1 2)) (?: $c 3) (Increment $i 1))", got)
}

func TestUnknownNodesFailLoudly(t *testing.T) {
	err := Accept(strayNode{}, &countingVisitor{counts: map[Kind]int{}})
	var unsupported *UnsupportedNodeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, strayNode{}, unsupported.Node)

	_, err = Dispatch[int, string](nil, printer{}, 0)
	require.ErrorAs(t, err, &unsupported)
	assert.Contains(t, err.Error(), "<nil>")
}

func TestWalkerOrderAndSkip(t *testing.T) {
	root, _ := buildSample(t)

	var pre, post []Kind
	w := Walker{
		Pre: func(n Node) error {
			pre = append(pre, n.Kind())
			if n.Kind() == KindConditionalChoice {
				return SkipChildren
			}
			return nil
		},
		Post: func(n Node) error {
			post = append(post, n.Kind())
			return nil
		},
	}
	require.NoError(t, w.Walk(root))
	assert.Equal(t, KindInvocation, pre[0])
	assert.Equal(t, KindInvocation, post[len(post)-1])
	assert.NotContains(t, post, KindConditionalChoice, "skipped nodes get no post visit")

	stop := errors.New("stop")
	err := Walker{Pre: func(n Node) error {
		if n.Kind() == KindBinary {
			return stop
		}
		return nil
	}}.Walk(root)
	assert.ErrorIs(t, err, stop)
}

func TestWalkRoutine(t *testing.T) {
	lit, err := NewLiteral(constant.Int(1), AccessRead)
	require.NoError(t, err)
	assign, err := NewAssign(refWith(t, "a", AccessWrite), lit, AccessNone)
	require.NoError(t, err)

	r := &Routine{Name: "main", Body: []Statement{
		{Kind: StmtExpr, Expr: assign, Line: 1},
		{Kind: StmtReturn},
	}}
	assert.True(t, r.IsGlobal())

	n := 0
	require.NoError(t, Walker{Pre: func(Node) error { n++; return nil }}.WalkRoutine(r))
	assert.Equal(t, 3, n)

	r.Locals = append(r.Locals, &symbols.Variable{Name: "a"})
	v, ok := r.Local("a")
	require.True(t, ok)
	assert.Equal(t, "a", v.Name)
}
