package bound

import (
	"github.com/roach88/boundc/internal/constant"
	"github.com/roach88/boundc/internal/symbols"
)

// Literal is a constant written in source. Its constant value is present
// from construction.
type Literal struct {
	exprBase
	value constant.Value
}

// NewLiteral creates a literal node.
func NewLiteral(v constant.Value, access Access) (*Literal, error) {
	l := &Literal{value: v}
	if err := l.init(KindLiteral, 0, access); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, contractf(KindLiteral, "value is required")
	}
	l.constant = v
	return l, nil
}

// Value returns the literal's constant.
func (l *Literal) Value() constant.Value { return l.value }

// Spelling returns the textual form of the constant.
func (l *Literal) Spelling() string { return l.value.String() }

// Unary applies a prefix operator to one operand.
type Unary struct {
	exprBase
	op       UnaryOp
	operand  Expr
	operator Slot[*symbols.Method]
}

// NewUnary creates a unary node. The operand must be read by value.
func NewUnary(op UnaryOp, operand Expr, access Access) (*Unary, error) {
	u := &Unary{op: op, operand: operand}
	if err := u.init(KindUnary, 0, access); err != nil {
		return nil, err
	}
	if !op.IsValid() {
		return nil, contractf(KindUnary, "unknown operator %v", op)
	}
	if err := requireRead(KindUnary, "operand", operand); err != nil {
		return nil, err
	}
	if err := adopt(KindUnary, operand); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *Unary) Op() UnaryOp   { return u.op }
func (u *Unary) Operand() Expr { return u.operand }

// Operator returns the resolved user operator. A resolved nil method
// means built-in semantics apply.
func (u *Unary) Operator() (*symbols.Method, bool) { return u.operator.Get() }

// ResolveOperator records the operator method; nil selects built-in
// semantics.
func (u *Unary) ResolveOperator(m *symbols.Method) error {
	return u.operator.Set(KindUnary, "operator", m)
}

// UsesOperatorMethod reports whether a user operator was resolved.
func (u *Unary) UsesOperatorMethod() bool {
	m, ok := u.operator.Get()
	return ok && m != nil
}

// Binary applies an infix operator to two operands.
type Binary struct {
	exprBase
	op          BinaryOp
	left, right Expr
	operator    Slot[*symbols.Method]
}

// NewBinary creates a binary node. Both operands must be read by value.
func NewBinary(op BinaryOp, left, right Expr, access Access) (*Binary, error) {
	b := &Binary{op: op, left: left, right: right}
	if err := b.init(KindBinary, 0, access); err != nil {
		return nil, err
	}
	if !op.IsValid() {
		return nil, contractf(KindBinary, "unknown operator %v", op)
	}
	if err := requireRead(KindBinary, "left operand", left); err != nil {
		return nil, err
	}
	if err := requireRead(KindBinary, "right operand", right); err != nil {
		return nil, err
	}
	if left == right {
		return nil, contractf(KindBinary, "operands must be distinct nodes")
	}
	if err := adopt(KindBinary, left, right); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Binary) Op() BinaryOp { return b.op }
func (b *Binary) Left() Expr   { return b.left }
func (b *Binary) Right() Expr  { return b.right }

// Operator returns the resolved user operator; see Unary.Operator.
func (b *Binary) Operator() (*symbols.Method, bool) { return b.operator.Get() }

// ResolveOperator records the operator method; nil selects built-in
// semantics.
func (b *Binary) ResolveOperator(m *symbols.Method) error {
	return b.operator.Set(KindBinary, "operator", m)
}

// UsesOperatorMethod reports whether a user operator was resolved.
func (b *Binary) UsesOperatorMethod() bool {
	m, ok := b.operator.Get()
	return ok && m != nil
}

// Reference is an expression denoting a storage location that can be
// written or aliased.
type Reference interface {
	Expr
	Name() string
	reference()
}

// LocalRef is a reference to a routine-local variable by name. The
// variable it denotes is resolved later.
type LocalRef struct {
	exprBase
	name     string
	variable Slot[*symbols.Variable]
}

// NewLocalRef creates an unresolved variable reference.
func NewLocalRef(name string, access Access) (*LocalRef, error) {
	r := &LocalRef{name: name}
	if err := r.init(KindLocalReference, 0, access); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, contractf(KindLocalReference, "name is required")
	}
	return r, nil
}

func (r *LocalRef) reference()   {}
func (r *LocalRef) Name() string { return r.name }

// Variable returns the resolved variable, if any.
func (r *LocalRef) Variable() (*symbols.Variable, bool) { return r.variable.Get() }

// Resolve binds the reference to its variable. Resolving again to the same
// variable is a no-op; resolving to a different one fails.
func (r *LocalRef) Resolve(v *symbols.Variable) error {
	if v == nil {
		return contractf(KindLocalReference, "variable must not be nil")
	}
	return r.variable.Set(KindLocalReference, "variable", v)
}

// Rebind replaces the resolved variable during error recovery.
func (r *LocalRef) Rebind(v *symbols.Variable) { r.variable.Rebind(v) }

// IsParameter reports whether the resolved variable is a formal parameter.
func (r *LocalRef) IsParameter() bool {
	v, ok := r.variable.Get()
	return ok && v.Kind == symbols.VarParameter
}
