package bound

import (
	"github.com/roach88/boundc/internal/constant"
	"github.com/roach88/boundc/internal/symbols"
	"github.com/roach88/boundc/internal/typemask"
)

// Node is a sealed interface implemented by every bound node, including
// call arguments.
type Node interface {
	Kind() Kind
	boundNode() // Sealed - only types in this package implement it
}

// Expr is a bound expression: a Node carrying an access mode and the
// annotation slots written by later passes.
type Expr interface {
	Node

	// Access returns how the expression is used at its site.
	Access() Access
	// NarrowAccess moves an unknown-arity access to its known variant once
	// the consuming parameter's by-ref-ness is known.
	NarrowAccess(byRef bool) error

	TypeMask() (typemask.Mask, bool)
	SetTypeMask(m typemask.Mask) error
	ResultType() (*symbols.Type, bool)
	SetResultType(t *symbols.Type) error
	ConstantValue() (constant.Value, bool)
	SetConstantValue(v constant.Value) error

	IsInvalid() bool
	InvalidReason() string
	MarkInvalid(reason string)

	// ResetAnnotations clears the type mask, result type and invalid flag
	// ahead of re-resolving a routine after error recovery. Constant
	// values are never cleared.
	ResetAnnotations()

	base() *exprBase
}

// exprBase holds the state shared by all expressions.
type exprBase struct {
	kind       Kind
	access     Access
	typeMask   Slot[typemask.Mask]
	resultType Slot[*symbols.Type]
	constant   constant.Value
	invalid    string
	owned      bool
}

func (e *exprBase) Kind() Kind     { return e.kind }
func (e *exprBase) boundNode()     {}
func (e *exprBase) Access() Access { return e.access }
func (e *exprBase) base() *exprBase {
	return e
}

func (e *exprBase) NarrowAccess(byRef bool) error {
	narrowed, err := e.access.Narrow(byRef)
	if err != nil {
		return contractf(e.kind, "%v", err)
	}
	e.access = narrowed
	return nil
}

func (e *exprBase) TypeMask() (typemask.Mask, bool) { return e.typeMask.Get() }

func (e *exprBase) SetTypeMask(m typemask.Mask) error {
	return e.typeMask.Set(e.kind, "type mask", m)
}

func (e *exprBase) ResultType() (*symbols.Type, bool) { return e.resultType.Get() }

func (e *exprBase) SetResultType(t *symbols.Type) error {
	if t == nil {
		return contractf(e.kind, "result type must not be nil")
	}
	return e.resultType.Set(e.kind, "result type", t)
}

func (e *exprBase) ConstantValue() (constant.Value, bool) {
	return e.constant, e.constant != nil
}

func (e *exprBase) SetConstantValue(v constant.Value) error {
	if v == nil {
		return contractf(e.kind, "constant value must not be nil")
	}
	if e.constant != nil {
		if constant.Equal(e.constant, v) {
			return nil
		}
		return &ConflictError{Kind: e.kind, Slot: "constant value", Existing: e.constant, Proposed: v}
	}
	e.constant = v
	return nil
}

func (e *exprBase) IsInvalid() bool       { return e.invalid != "" }
func (e *exprBase) InvalidReason() string { return e.invalid }

func (e *exprBase) MarkInvalid(reason string) {
	if reason == "" {
		reason = "invalid"
	}
	if e.invalid == "" {
		e.invalid = reason
	}
}

func (e *exprBase) ResetAnnotations() {
	e.typeMask.Reset()
	e.resultType.Reset()
	e.invalid = ""
}

// init validates and records the access mode for a new node.
func (e *exprBase) init(k Kind, form CallForm, access Access) error {
	if !legalAccess(k, form).has(access) {
		if k == KindInvocation {
			return contractf(k, "access %s is illegal on %s calls", access, form)
		}
		return contractf(k, "access %s is illegal on this kind", access)
	}
	e.kind = k
	e.access = access
	return nil
}

// adopt marks children as owned by a new parent. Every child is checked
// before any is marked so a failed construction leaves them reusable.
func adopt(parent Kind, children ...Node) error {
	for i, c := range children {
		if isOwned(c) {
			return contractf(parent, "%s child already belongs to another node", c.Kind())
		}
		for _, prev := range children[:i] {
			if prev == c {
				return contractf(parent, "%s child appears twice", c.Kind())
			}
		}
	}
	for _, c := range children {
		setOwned(c)
	}
	return nil
}

func isOwned(n Node) bool {
	switch c := n.(type) {
	case Expr:
		return c.base().owned
	case *Argument:
		return c.owned
	}
	return false
}

func setOwned(n Node) {
	switch c := n.(type) {
	case Expr:
		c.base().owned = true
	case *Argument:
		c.owned = true
	}
}

// requireRead checks that a child consumed by value was built with Read
// access.
func requireRead(parent Kind, role string, e Expr) error {
	if e == nil {
		return contractf(parent, "%s is required", role)
	}
	if e.Access() != AccessRead {
		return contractf(parent, "%s must have Read access, got %s", role, e.Access())
	}
	return nil
}
