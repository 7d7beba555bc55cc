package bound

import (
	"github.com/roach88/boundc/internal/constant"
	"github.com/roach88/boundc/internal/symbols"
)

// Assign is the shape shared by plain assignment, compound assignment and
// increment/decrement. Kind tells them apart:
//
//	KindAssignment          target = value
//	KindCompoundAssignment  target op= value
//	KindIncrement           ++target, target--, ...  (value is literal 1)
type Assign struct {
	exprBase
	target   Reference
	value    Expr
	op       BinaryOp
	inc      IncKind
	operator Slot[*symbols.Method]
}

// NewAssign creates target = value. The target must carry a write access
// (Write, WriteRef, WriteAndReadRef or WriteAndReadUnknown); the value must
// be read.
func NewAssign(target Reference, value Expr, access Access) (*Assign, error) {
	a := &Assign{target: target, value: value}
	if err := a.init(KindAssignment, 0, access); err != nil {
		return nil, err
	}
	if target == nil {
		return nil, contractf(KindAssignment, "target is required")
	}
	if !target.Access().IsAssignTarget() {
		return nil, contractf(KindAssignment, "target access %s is not a write access", target.Access())
	}
	if err := requireRead(KindAssignment, "value", value); err != nil {
		return nil, err
	}
	if err := adopt(KindAssignment, target, value); err != nil {
		return nil, err
	}
	return a, nil
}

// NewCompoundAssign creates target op= value. The target must carry a
// read-and-write access.
func NewCompoundAssign(target Reference, op BinaryOp, value Expr, access Access) (*Assign, error) {
	a := &Assign{target: target, value: value, op: op}
	if err := a.init(KindCompoundAssignment, 0, access); err != nil {
		return nil, err
	}
	if err := a.checkCompoundTarget(KindCompoundAssignment); err != nil {
		return nil, err
	}
	if !op.IsCompoundable() {
		return nil, contractf(KindCompoundAssignment, "operator %v cannot be compound-assigned", op)
	}
	if err := requireRead(KindCompoundAssignment, "value", value); err != nil {
		return nil, err
	}
	if err := adopt(KindCompoundAssignment, target, value); err != nil {
		return nil, err
	}
	return a, nil
}

// NewIncrement creates a prefix or postfix increment or decrement of
// target. Only the four IncKind values are accepted.
func NewIncrement(target Reference, kind IncKind, access Access) (*Assign, error) {
	if !kind.IsValid() {
		return nil, contractf(KindIncrement, "invalid increment kind %v", kind)
	}
	op := OpSub
	if kind.IsIncrement() {
		op = OpAdd
	}
	a := &Assign{target: target, op: op, inc: kind}
	if err := a.init(KindIncrement, 0, access); err != nil {
		return nil, err
	}
	if err := a.checkCompoundTarget(KindIncrement); err != nil {
		return nil, err
	}
	one, err := NewLiteral(constant.Int(1), AccessRead)
	if err != nil {
		return nil, err
	}
	a.value = one
	if err := adopt(KindIncrement, target, one); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Assign) checkCompoundTarget(k Kind) error {
	if a.target == nil {
		return contractf(k, "target is required")
	}
	if !a.target.Access().IsCompound() {
		return contractf(k, "target access %s is not a read-and-write access", a.target.Access())
	}
	return nil
}

// Target returns the assigned reference.
func (a *Assign) Target() Reference { return a.target }

// Value returns the assigned (or combined) value. For increments it is the
// literal 1.
func (a *Assign) Value() Expr { return a.value }

// Op returns the combining operator; false for plain assignment.
func (a *Assign) Op() (BinaryOp, bool) { return a.op, a.kind != KindAssignment }

// IncrementKind returns the increment flavour; false unless Kind is
// KindIncrement.
func (a *Assign) IncrementKind() (IncKind, bool) { return a.inc, a.kind == KindIncrement }

// Operator returns the resolved user operator of a compound assignment.
func (a *Assign) Operator() (*symbols.Method, bool) { return a.operator.Get() }

// ResolveOperator records the operator method of a compound assignment or
// increment; nil selects built-in semantics.
func (a *Assign) ResolveOperator(m *symbols.Method) error {
	if a.kind == KindAssignment {
		return contractf(a.kind, "plain assignment has no operator")
	}
	return a.operator.Set(a.kind, "operator", m)
}

// UsesOperatorMethod reports whether a user operator was resolved.
func (a *Assign) UsesOperatorMethod() bool {
	m, ok := a.operator.Get()
	return ok && m != nil
}
