// Package codegen lowers resolved bound routines to a small stack IL.
//
// Lowering requires a fully resolved tree. Verify checks this before any
// instruction is emitted, and Emit refuses routines that fail it: an
// unresolved handle at this stage is a pipeline bug, and an invalid node
// means the user's program has errors.
package codegen

import (
	"errors"
	"fmt"

	"github.com/roach88/boundc/internal/bound"
)

// PreconditionError reports a node that is not ready for code generation.
type PreconditionError struct {
	Routine string
	Kind    bound.Kind
	Line    int
	Reason  string
	// Invalid is set when the node was marked invalid by resolution, as
	// opposed to a missing handle.
	Invalid bool
}

func (e *PreconditionError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("codegen %s: line %d: %s: %s", e.Routine, e.Line, e.Kind, e.Reason)
	}
	return fmt.Sprintf("codegen %s: %s: %s", e.Routine, e.Kind, e.Reason)
}

// IsPreconditionError returns true if err is or wraps a *PreconditionError.
func IsPreconditionError(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// HasInvalidNodes reports whether err carries a precondition failure
// caused by an invalid node.
func HasInvalidNodes(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe) && pe.Invalid
}

// Verify checks that every node of r is valid, has every deferred handle
// resolved, carries a type mask and no longer has an unknown access.
func Verify(r *bound.Routine) error {
	return bound.Walker{Pre: func(n bound.Node) error {
		reason, invalid := check(n)
		if reason == "" {
			return nil
		}
		return &PreconditionError{
			Routine: r.Name,
			Kind:    n.Kind(),
			Line:    r.LineOf(n),
			Reason:  reason,
			Invalid: invalid,
		}
	}}.WalkRoutine(r)
}

func check(n bound.Node) (string, bool) {
	if e, ok := n.(bound.Expr); ok {
		if e.IsInvalid() {
			return "invalid node: " + e.InvalidReason(), true
		}
		if e.Access().IsUnknown() {
			return fmt.Sprintf("access %s was never narrowed", e.Access()), false
		}
		if _, ok := e.TypeMask(); !ok {
			return "type mask not inferred", false
		}
	}

	switch x := n.(type) {
	case *bound.LocalRef:
		if _, ok := x.Variable(); !ok {
			return fmt.Sprintf("variable $%s unresolved", x.Name()), false
		}
	case *bound.Call:
		if _, ok := x.Target(); !ok {
			return fmt.Sprintf("%s call target unresolved", x.Form()), false
		}
	case *bound.Unary:
		if _, ok := x.Operator(); !ok {
			return "operator unresolved", false
		}
	case *bound.Binary:
		if _, ok := x.Operator(); !ok {
			return "operator unresolved", false
		}
	case *bound.Assign:
		if x.Kind() != bound.KindAssignment {
			if _, ok := x.Operator(); !ok {
				return "operator unresolved", false
			}
		}
	}
	return "", false
}
