// Package fold records constant values on bound expressions whose result
// is known at compile time.
//
// Folding never removes nodes. It only fills the constant-value slot, which
// later passes may use in place of evaluating the subtree. Expressions with
// effects (assignments, calls other than concatenation, echo) are never
// folded, though their operands may be.
package fold

import (
	"fmt"

	"github.com/roach88/boundc/internal/bound"
	"github.com/roach88/boundc/internal/constant"
)

// Stats summarises one folding run.
type Stats struct {
	// Folded counts non-literal expressions given a constant value.
	Folded int
	// Skipped counts constant operations left unfolded because evaluating
	// them fails, such as division by zero.
	Skipped int
}

// Routine folds every statement of r.
func Routine(r *bound.Routine) (Stats, error) {
	var st Stats
	f := folder{}
	for _, s := range r.Body {
		if s.Expr == nil {
			continue
		}
		if _, err := bound.Dispatch[*Stats, constant.Value](s.Expr, f, &st); err != nil {
			return st, fmt.Errorf("fold %s: %w", r.Name, err)
		}
	}
	return st, nil
}

// Expr folds a single expression tree and returns its constant value, or
// nil when it has none.
func Expr(e bound.Expr) (constant.Value, error) {
	return bound.Dispatch[*Stats, constant.Value](e, folder{}, &Stats{})
}

type folder struct{}

func (f folder) eval(e bound.Expr, st *Stats) (constant.Value, error) {
	return bound.Dispatch[*Stats, constant.Value](e, f, st)
}

// record stores v on e unless e is invalid. A nil v means not constant.
func record(e bound.Expr, v constant.Value, st *Stats) (constant.Value, error) {
	if v == nil || e.IsInvalid() {
		return nil, nil
	}
	if _, had := e.ConstantValue(); !had {
		st.Folded++
	}
	if err := e.SetConstantValue(v); err != nil {
		return nil, err
	}
	return v, nil
}

func (folder) VisitLiteral(n *bound.Literal, st *Stats) (constant.Value, error) {
	return n.Value(), nil
}

func (f folder) VisitUnary(n *bound.Unary, st *Stats) (constant.Value, error) {
	v, err := f.eval(n.Operand(), st)
	if err != nil || v == nil || n.UsesOperatorMethod() {
		return nil, err
	}
	out, err := Unary(n.Op(), v)
	if err != nil {
		st.Skipped++
		return nil, nil
	}
	return record(n, out, st)
}

func (f folder) VisitBinary(n *bound.Binary, st *Stats) (constant.Value, error) {
	left, err := f.eval(n.Left(), st)
	if err != nil {
		return nil, err
	}
	right, err := f.eval(n.Right(), st)
	if err != nil {
		return nil, err
	}
	if n.UsesOperatorMethod() || left == nil {
		return nil, nil
	}
	// The right operand is not evaluated once the left decides.
	if v, ok := ShortCircuit(n.Op(), left); ok {
		return record(n, v, st)
	}
	if right == nil {
		return nil, nil
	}
	out, err := Binary(n.Op(), left, right)
	if err != nil {
		st.Skipped++
		return nil, nil
	}
	return record(n, out, st)
}

func (folder) VisitLocalRef(*bound.LocalRef, *Stats) (constant.Value, error) {
	return nil, nil
}

func (f folder) VisitCall(n *bound.Call, st *Stats) (constant.Value, error) {
	if inst := n.Instance(); inst != nil {
		if _, err := f.eval(inst, st); err != nil {
			return nil, err
		}
	}
	values := make([]constant.Value, 0, len(n.Arguments()))
	complete := true
	for _, a := range n.Arguments() {
		v, err := bound.Dispatch[*Stats, constant.Value](a, f, st)
		if err != nil {
			return nil, err
		}
		if v == nil {
			complete = false
		}
		values = append(values, v)
	}
	if n.Form() != bound.CallConcat || !complete {
		return nil, nil
	}
	out := constant.Value(constant.String(""))
	for _, v := range values {
		out = constant.Concat(out, v)
	}
	return record(n, out, st)
}

func (f folder) VisitAssign(n *bound.Assign, st *Stats) (constant.Value, error) {
	if _, err := f.eval(n.Value(), st); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f folder) VisitConditional(n *bound.Conditional, st *Stats) (constant.Value, error) {
	cond, err := f.eval(n.Condition(), st)
	if err != nil {
		return nil, err
	}
	var ifTrue constant.Value
	if n.IfTrue() != nil {
		if ifTrue, err = f.eval(n.IfTrue(), st); err != nil {
			return nil, err
		}
	}
	ifFalse, err := f.eval(n.IfFalse(), st)
	if err != nil {
		return nil, err
	}
	if cond == nil {
		return nil, nil
	}
	switch {
	case !constant.ToBool(cond):
		return record(n, ifFalse, st)
	case n.IsShort():
		return record(n, cond, st)
	default:
		return record(n, ifTrue, st)
	}
}

func (f folder) VisitArgument(n *bound.Argument, st *Stats) (constant.Value, error) {
	v, err := f.eval(n.Value(), st)
	if err != nil {
		return nil, err
	}
	// A by-reference argument yields a location, not a value.
	if p, ok := n.Parameter(); ok && p.ByRef {
		return nil, nil
	}
	return v, nil
}

// Unary applies a built-in unary operator to a constant.
func Unary(op bound.UnaryOp, v constant.Value) (constant.Value, error) {
	switch op {
	case bound.OpMinus:
		return constant.Negate(v), nil
	case bound.OpPlus:
		return constant.ToNumber(v), nil
	case bound.OpLogicNot:
		return constant.Bool(!constant.ToBool(v)), nil
	case bound.OpBitNot:
		return constant.Int(^constant.ToInt(v)), nil
	case bound.OpCastInt:
		return constant.Int(constant.ToInt(v)), nil
	case bound.OpCastFloat:
		return constant.Float(constant.ToFloat(v)), nil
	case bound.OpCastString:
		return constant.String(v.String()), nil
	case bound.OpCastBool:
		return constant.Bool(constant.ToBool(v)), nil
	}
	return nil, fmt.Errorf("unknown unary operator %v", op)
}

// ShortCircuit reports the result of op when the left operand alone
// decides it.
func ShortCircuit(op bound.BinaryOp, left constant.Value) (constant.Value, bool) {
	switch op {
	case bound.OpAnd:
		if !constant.ToBool(left) {
			return constant.Bool(false), true
		}
	case bound.OpOr:
		if constant.ToBool(left) {
			return constant.Bool(true), true
		}
	case bound.OpCoalesce:
		if left.Kind() != constant.KindNull {
			return left, true
		}
	}
	return nil, false
}

// Binary applies a built-in binary operator to two constants.
func Binary(op bound.BinaryOp, a, b constant.Value) (constant.Value, error) {
	switch op {
	case bound.OpAdd:
		return constant.Add(a, b), nil
	case bound.OpSub:
		return constant.Sub(a, b), nil
	case bound.OpMul:
		return constant.Mul(a, b), nil
	case bound.OpDiv:
		return constant.Div(a, b)
	case bound.OpMod:
		return constant.Mod(a, b)
	case bound.OpPow:
		return constant.Pow(a, b), nil
	case bound.OpConcat:
		return constant.Concat(a, b), nil
	case bound.OpBitAnd:
		return constant.BitAnd(a, b), nil
	case bound.OpBitOr:
		return constant.BitOr(a, b), nil
	case bound.OpBitXor:
		return constant.BitXor(a, b), nil
	case bound.OpShiftLeft:
		return constant.ShiftLeft(a, b)
	case bound.OpShiftRight:
		return constant.ShiftRight(a, b)
	case bound.OpAnd:
		return constant.Bool(constant.ToBool(a) && constant.ToBool(b)), nil
	case bound.OpOr:
		return constant.Bool(constant.ToBool(a) || constant.ToBool(b)), nil
	case bound.OpXor:
		return constant.Bool(constant.ToBool(a) != constant.ToBool(b)), nil
	case bound.OpEqual:
		return constant.Bool(constant.LooseEqual(a, b)), nil
	case bound.OpNotEqual:
		return constant.Bool(!constant.LooseEqual(a, b)), nil
	case bound.OpIdentical:
		return constant.Bool(constant.Identical(a, b)), nil
	case bound.OpNotIdentical:
		return constant.Bool(!constant.Identical(a, b)), nil
	case bound.OpLess:
		return constant.Bool(constant.Compare(a, b) < 0), nil
	case bound.OpLessEqual:
		return constant.Bool(constant.Compare(a, b) <= 0), nil
	case bound.OpGreater:
		return constant.Bool(constant.Compare(a, b) > 0), nil
	case bound.OpGreaterEqual:
		return constant.Bool(constant.Compare(a, b) >= 0), nil
	case bound.OpCoalesce:
		if a.Kind() == constant.KindNull {
			return b, nil
		}
		return a, nil
	}
	return nil, fmt.Errorf("unknown binary operator %v", op)
}
