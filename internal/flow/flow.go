// Package flow infers type-ref masks for a bound routine.
//
// Inference walks the routine in evaluation order, tracking the possible
// types of every variable at each point. Each expression receives its
// mask, and a matching static result type, exactly once per run. The
// source language has no loops at this level, so one forward pass is
// exact; conditional branches and short-circuited operands are merged by
// union.
package flow

import (
	"fmt"
	"maps"

	"github.com/roach88/boundc/internal/bound"
	"github.com/roach88/boundc/internal/fold"
	"github.com/roach88/boundc/internal/symbols"
	"github.com/roach88/boundc/internal/typemask"
)

// state maps variable names to the types they may hold.
type state map[string]typemask.Mask

// merge unions other into s. A variable missing from either side may be
// undefined there, which reads as null.
func (s state) merge(other state) {
	for name := range s {
		s[name] = s[name].Union(current(other, name))
	}
	for name, m := range other {
		s[name] = current(s, name).Union(m)
	}
}

// Infer annotates every expression of r. Running it twice over an
// unchanged routine stores the same masks again; after error recovery,
// call Reset first.
func Infer(table *symbols.Table, r *bound.Routine) error {
	in := &inferrer{table: table}
	st := state{}
	if r.Method != nil {
		for _, p := range r.Method.Params {
			st[p.Name] = p.Mask
		}
	}
	for _, s := range r.Body {
		if s.Expr == nil {
			continue
		}
		if _, err := bound.Dispatch[state, typemask.Mask](s.Expr, in, st); err != nil {
			return fmt.Errorf("infer %s: %w", r.Name, err)
		}
	}
	return nil
}

// Reset clears the inferred annotations of every node of r. Constructor
// result types are cleared too, so resolve the routine again before the
// next Infer.
func Reset(r *bound.Routine) {
	_ = bound.Walker{Pre: func(n bound.Node) error {
		if e, ok := n.(bound.Expr); ok {
			e.ResetAnnotations()
		}
		return nil
	}}.WalkRoutine(r)
}

type inferrer struct {
	table *symbols.Table
}

func (in *inferrer) eval(e bound.Expr, st state) (typemask.Mask, error) {
	return bound.Dispatch[state, typemask.Mask](e, in, st)
}

// annotate stores m on e, along with the static type it implies unless a
// resolution pass already chose one.
func (in *inferrer) annotate(e bound.Expr, m typemask.Mask) (typemask.Mask, error) {
	if err := e.SetTypeMask(m); err != nil {
		return 0, err
	}
	if _, ok := e.ResultType(); !ok {
		if t := in.table.Primitive(m); t != nil {
			if err := e.SetResultType(t); err != nil {
				return 0, err
			}
		}
	}
	return m, nil
}

func (in *inferrer) VisitLiteral(n *bound.Literal, st state) (typemask.Mask, error) {
	return in.annotate(n, typemask.Of(n.Value()))
}

func (in *inferrer) VisitUnary(n *bound.Unary, st state) (typemask.Mask, error) {
	operand, err := in.eval(n.Operand(), st)
	if err != nil {
		return 0, err
	}
	if lit, ok := n.Operand().(*bound.Literal); ok && builtinOperator(n.Operator()) {
		if v, err := fold.Unary(n.Op(), lit.Value()); err == nil {
			return in.annotate(n, typemask.Of(v))
		}
	}
	return in.annotate(n, UnaryResult(n.Op(), operand))
}

func (in *inferrer) VisitBinary(n *bound.Binary, st state) (typemask.Mask, error) {
	left, err := in.eval(n.Left(), st)
	if err != nil {
		return 0, err
	}
	builtin := builtinOperator(n.Operator())

	var right typemask.Mask
	if builtin && shortCircuits(n.Op()) {
		// The right operand may not run.
		rightState := maps.Clone(st)
		if right, err = in.eval(n.Right(), rightState); err != nil {
			return 0, err
		}
		st.merge(rightState)
	} else if right, err = in.eval(n.Right(), st); err != nil {
		return 0, err
	}

	if builtin {
		l, lok := n.Left().(*bound.Literal)
		r, rok := n.Right().(*bound.Literal)
		if lok && rok {
			if v, err := fold.Binary(n.Op(), l.Value(), r.Value()); err == nil {
				return in.annotate(n, typemask.Of(v))
			}
		}
	}
	return in.annotate(n, BinaryResult(n.Op(), left, right))
}

// builtinOperator reports whether an operator slot selects built-in
// semantics.
func builtinOperator(m *symbols.Method, resolved bool) bool {
	return !resolved || m == nil
}

func shortCircuits(op bound.BinaryOp) bool {
	return op == bound.OpAnd || op == bound.OpOr || op == bound.OpCoalesce
}

func (in *inferrer) VisitLocalRef(n *bound.LocalRef, st state) (typemask.Mask, error) {
	m, ok := st[n.Name()]
	if !ok {
		m = typemask.Null
	}
	return in.annotate(n, m)
}

func (in *inferrer) VisitCall(n *bound.Call, st state) (typemask.Mask, error) {
	if inst := n.Instance(); inst != nil {
		if _, err := in.eval(inst, st); err != nil {
			return 0, err
		}
	}
	for _, a := range n.Arguments() {
		if _, err := bound.Dispatch[state, typemask.Mask](a, in, st); err != nil {
			return 0, err
		}
	}

	target, resolved := n.Target()
	// A by-reference argument may be changed by the callee.
	for _, a := range n.Arguments() {
		ref, ok := referencedName(a.Value())
		if !ok {
			continue
		}
		if p, matched := a.Parameter(); matched && p.ByRef {
			st[ref] = p.Mask
		}
	}

	switch {
	case n.Form() == bound.CallNew:
		return in.annotate(n, typemask.Object)
	case resolved && target != nil:
		return in.annotate(n, target.Returns)
	default:
		return in.annotate(n, typemask.Any)
	}
}

// referencedName returns the variable an argument aliases, looking
// through an assignment passed as an argument.
func referencedName(v bound.Expr) (string, bool) {
	switch x := v.(type) {
	case *bound.LocalRef:
		return x.Name(), x.Access().IsReadRef()
	case *bound.Assign:
		t := x.Target()
		return t.Name(), t.Access().IsReadRef()
	}
	return "", false
}

func (in *inferrer) VisitAssign(n *bound.Assign, st state) (typemask.Mask, error) {
	target := n.Target()
	var result, stored typemask.Mask
	switch n.Kind() {
	case bound.KindAssignment:
		v, err := in.eval(n.Value(), st)
		if err != nil {
			return 0, err
		}
		result, stored = v, v
	case bound.KindCompoundAssignment:
		old := current(st, target.Name())
		v, err := in.eval(n.Value(), st)
		if err != nil {
			return 0, err
		}
		op, _ := n.Op()
		stored = BinaryResult(op, old, v)
		result = stored
	case bound.KindIncrement:
		old := current(st, target.Name())
		if _, err := in.eval(n.Value(), st); err != nil {
			return 0, err
		}
		stored = IncrementResult(old)
		result = stored
		if k, _ := n.IncrementKind(); !k.IsPrefix() {
			result = old
		}
	}

	st[target.Name()] = stored
	if _, err := in.annotate(target, stored); err != nil {
		return 0, err
	}
	return in.annotate(n, result)
}

func current(st state, name string) typemask.Mask {
	if m, ok := st[name]; ok {
		return m
	}
	return typemask.Null
}

func (in *inferrer) VisitConditional(n *bound.Conditional, st state) (typemask.Mask, error) {
	cond, err := in.eval(n.Condition(), st)
	if err != nil {
		return 0, err
	}

	trueState := maps.Clone(st)
	trueMask := cond
	if n.IfTrue() != nil {
		if trueMask, err = in.eval(n.IfTrue(), trueState); err != nil {
			return 0, err
		}
	}
	falseState := maps.Clone(st)
	falseMask, err := in.eval(n.IfFalse(), falseState)
	if err != nil {
		return 0, err
	}

	clear(st)
	maps.Copy(st, trueState)
	st.merge(falseState)
	return in.annotate(n, trueMask.Union(falseMask))
}

func (in *inferrer) VisitArgument(n *bound.Argument, st state) (typemask.Mask, error) {
	return in.eval(n.Value(), st)
}

// UnaryResult is the mask produced by applying op to an operand of the
// given mask.
func UnaryResult(op bound.UnaryOp, operand typemask.Mask) typemask.Mask {
	switch op {
	case bound.OpMinus:
		if operand.IsNumber() {
			if operand.Has(typemask.Long) {
				return operand.Union(typemask.Double)
			}
			return operand
		}
		return typemask.Number
	case bound.OpPlus:
		if operand.IsNumber() {
			return operand
		}
		return typemask.Number
	case bound.OpLogicNot, bound.OpCastBool:
		return typemask.Bool
	case bound.OpBitNot, bound.OpCastInt:
		return typemask.Long
	case bound.OpCastFloat:
		return typemask.Double
	case bound.OpCastString:
		return typemask.String
	}
	return typemask.Any
}

// BinaryResult is the mask produced by op over operands of the given
// masks.
func BinaryResult(op bound.BinaryOp, left, right typemask.Mask) typemask.Mask {
	switch {
	case op.IsComparison(), op.IsLogical():
		return typemask.Bool
	}
	switch op {
	case bound.OpAdd, bound.OpSub, bound.OpMul:
		switch {
		case left == typemask.Long && right == typemask.Long:
			// Integer overflow yields a float.
			return typemask.Number
		case left.Has(typemask.Double) && left.IsSingle(), right.Has(typemask.Double) && right.IsSingle():
			return typemask.Double
		}
		return typemask.Number
	case bound.OpDiv, bound.OpPow:
		if left == typemask.Double || right == typemask.Double {
			return typemask.Double
		}
		return typemask.Number
	case bound.OpMod, bound.OpBitAnd, bound.OpBitOr, bound.OpBitXor, bound.OpShiftLeft, bound.OpShiftRight:
		return typemask.Long
	case bound.OpConcat:
		return typemask.String
	case bound.OpCoalesce:
		nonNull := left &^ typemask.Null
		if left.Has(typemask.Null) || nonNull == 0 {
			return nonNull.Union(right)
		}
		return nonNull
	}
	return typemask.Any
}

// IncrementResult is the mask a variable holds after ++ or --.
func IncrementResult(old typemask.Mask) typemask.Mask {
	switch {
	case old == typemask.Null:
		return typemask.Long
	case old.IsNumber():
		// Stepping past the integer range yields a float.
		return old.Union(typemask.Double)
	}
	return typemask.Number.Union(old &^ typemask.Bool &^ typemask.Null)
}
