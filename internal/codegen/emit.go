package codegen

import (
	"fmt"

	"github.com/roach88/boundc/internal/bound"
	"github.com/roach88/boundc/internal/constant"
)

// Emit verifies r and lowers it to a Program. Every call form goes through
// one path: receiver, arguments left to right, invoke.
func Emit(r *bound.Routine) (*Program, error) {
	if err := Verify(r); err != nil {
		return nil, err
	}
	em := &emitter{routine: r, prog: &Program{Name: r.Name, Method: r.Method}}
	for _, v := range r.Locals {
		em.prog.Locals = append(em.prog.Locals, v.Name)
	}
	for _, s := range r.Body {
		em.line = s.Line
		if err := em.statement(s); err != nil {
			return nil, fmt.Errorf("codegen %s: %w", r.Name, err)
		}
	}
	em.emit(Instr{Op: OpPush, Value: constant.Null{}})
	em.emit(Instr{Op: OpReturn})
	return em.prog, nil
}

type emitter struct {
	routine *bound.Routine
	prog    *Program
	line    int
}

func (em *emitter) emit(in Instr) int {
	in.Line = em.line
	em.prog.Code = append(em.prog.Code, in)
	return len(em.prog.Code) - 1
}

// jump emits a jump with an unset target and returns its index for patch.
func (em *emitter) jump(op Opcode) int {
	return em.emit(Instr{Op: op, Target: -1})
}

func (em *emitter) patch(at int) {
	em.prog.Code[at].Target = len(em.prog.Code)
}

func (em *emitter) statement(s bound.Statement) error {
	switch s.Kind {
	case bound.StmtReturn:
		if s.Expr == nil {
			em.emit(Instr{Op: OpPush, Value: constant.Null{}})
		} else if err := em.expr(s.Expr); err != nil {
			return err
		}
		em.emit(Instr{Op: OpReturn})
	default:
		if err := em.expr(s.Expr); err != nil {
			return err
		}
		em.emit(Instr{Op: OpPop})
	}
	return nil
}

// expr emits code leaving exactly one value on the stack.
func (em *emitter) expr(e bound.Expr) error {
	if v, ok := e.ConstantValue(); ok {
		em.emit(Instr{Op: OpPush, Value: v})
		return nil
	}
	switch n := e.(type) {
	case *bound.LocalRef:
		op := OpLoad
		if n.Access().IsReadRef() {
			op = OpLoadRef
		}
		return em.local(op, n)
	case *bound.Unary:
		return em.unary(n)
	case *bound.Binary:
		return em.binary(n)
	case *bound.Call:
		return em.call(n)
	case *bound.Assign:
		return em.assign(n)
	case *bound.Conditional:
		return em.conditional(n)
	}
	return &bound.UnsupportedNodeError{Node: e}
}

func (em *emitter) local(op Opcode, r bound.Reference) error {
	ref, ok := r.(*bound.LocalRef)
	if !ok {
		return &bound.UnsupportedNodeError{Node: r}
	}
	v, _ := ref.Variable()
	em.emit(Instr{Op: op, Slot: v.Index, Name: v.Name})
	return nil
}

func (em *emitter) unary(n *bound.Unary) error {
	if err := em.expr(n.Operand()); err != nil {
		return err
	}
	if m, _ := n.Operator(); m != nil {
		em.emit(Instr{Op: OpCall, Method: m, Argc: 1})
		return nil
	}
	em.emit(Instr{Op: OpUnary, Unary: n.Op()})
	return nil
}

func (em *emitter) binary(n *bound.Binary) error {
	if m, _ := n.Operator(); m != nil {
		if err := em.operands(n.Left(), n.Right()); err != nil {
			return err
		}
		em.emit(Instr{Op: OpCall, Method: m, Argc: 2})
		return nil
	}

	switch n.Op() {
	case bound.OpAnd, bound.OpOr:
		if err := em.expr(n.Left()); err != nil {
			return err
		}
		op, decided := OpJumpIfFalse, constant.Bool(false)
		if n.Op() == bound.OpOr {
			op, decided = OpJumpIfTrue, constant.Bool(true)
		}
		short := em.jump(op)
		if err := em.expr(n.Right()); err != nil {
			return err
		}
		em.emit(Instr{Op: OpToBool})
		end := em.jump(OpJump)
		em.patch(short)
		em.emit(Instr{Op: OpPush, Value: decided})
		em.patch(end)
		return nil
	case bound.OpCoalesce:
		if err := em.expr(n.Left()); err != nil {
			return err
		}
		end := em.jump(OpJumpIfNotNull)
		em.emit(Instr{Op: OpPop})
		if err := em.expr(n.Right()); err != nil {
			return err
		}
		em.patch(end)
		return nil
	}

	if err := em.operands(n.Left(), n.Right()); err != nil {
		return err
	}
	em.emit(Instr{Op: OpBinary, Binary: n.Op()})
	return nil
}

func (em *emitter) operands(exprs ...bound.Expr) error {
	for _, e := range exprs {
		if err := em.expr(e); err != nil {
			return err
		}
	}
	return nil
}

func (em *emitter) call(n *bound.Call) error {
	inst := n.Instance()
	if inst != nil {
		if err := em.expr(inst); err != nil {
			return err
		}
	}
	for _, a := range n.Arguments() {
		if err := em.argument(a); err != nil {
			return err
		}
	}
	m, _ := n.Target()
	em.emit(Instr{Op: OpCall, Method: m, Argc: len(n.Arguments()), HasInstance: inst != nil})
	return nil
}

// argument pushes a value, or a reference when the parameter takes one.
func (em *emitter) argument(a *bound.Argument) error {
	v := a.Value()
	if x, ok := v.(*bound.Assign); ok && x.Target().Access().IsReadRef() {
		if err := em.assign(x); err != nil {
			return err
		}
		em.emit(Instr{Op: OpPop})
		return em.local(OpLoadRef, x.Target())
	}
	// A non-variable passed by reference is a temporary; expr pushes it
	// by value.
	return em.expr(v)
}

func (em *emitter) assign(n *bound.Assign) error {
	target := n.Target()
	switch n.Kind() {
	case bound.KindAssignment:
		if err := em.expr(n.Value()); err != nil {
			return err
		}
	case bound.KindCompoundAssignment:
		if err := em.local(OpLoad, target); err != nil {
			return err
		}
		if err := em.expr(n.Value()); err != nil {
			return err
		}
		if m, _ := n.Operator(); m != nil {
			em.emit(Instr{Op: OpCall, Method: m, Argc: 2})
		} else {
			op, _ := n.Op()
			em.emit(Instr{Op: OpBinary, Binary: op})
		}
	case bound.KindIncrement:
		kind, _ := n.IncrementKind()
		if err := em.local(OpLoad, target); err != nil {
			return err
		}
		if !kind.IsPrefix() {
			em.emit(Instr{Op: OpDup})
		}
		if m, _ := n.Operator(); m != nil {
			if err := em.expr(n.Value()); err != nil {
				return err
			}
			em.emit(Instr{Op: OpCall, Method: m, Argc: 2})
		} else {
			em.emit(Instr{Op: OpInc, Decrement: !kind.IsIncrement()})
		}
		if err := em.local(OpStore, target); err != nil {
			return err
		}
		if !kind.IsPrefix() {
			em.emit(Instr{Op: OpPop})
		}
		return nil
	}
	return em.local(OpStore, target)
}

func (em *emitter) conditional(n *bound.Conditional) error {
	if err := em.expr(n.Condition()); err != nil {
		return err
	}
	if n.IsShort() {
		// The condition's value doubles as the result.
		em.emit(Instr{Op: OpDup})
		end := em.jump(OpJumpIfTrue)
		em.emit(Instr{Op: OpPop})
		if err := em.expr(n.IfFalse()); err != nil {
			return err
		}
		em.patch(end)
		return nil
	}

	elseAt := em.jump(OpJumpIfFalse)
	if err := em.expr(n.IfTrue()); err != nil {
		return err
	}
	end := em.jump(OpJump)
	em.patch(elseAt)
	if err := em.expr(n.IfFalse()); err != nil {
		return err
	}
	em.patch(end)
	return nil
}
