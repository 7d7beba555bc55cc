// Package resolve fills the deferred slots of a bound routine: variables,
// call targets, constructor handles, argument-to-parameter matches and
// operator methods. It also narrows unknown argument accesses once the
// callee's parameters are known.
//
// Names that cannot be resolved are user errors: they are reported and the
// node is marked invalid. Slot conflicts are resolver bugs and abort.
//
// Resolving a routine twice is a no-op: every handle is looked up again and
// stored through the idempotent slot update.
package resolve

import (
	"fmt"

	"github.com/roach88/boundc/internal/bound"
	"github.com/roach88/boundc/internal/diag"
	"github.com/roach88/boundc/internal/symbols"
)

// Routine resolves every node of r against table. The table must be
// frozen.
func Routine(table *symbols.Table, rep *diag.Reporter, r *bound.Routine) error {
	if !table.Frozen() {
		return fmt.Errorf("resolve %s: symbol table is not frozen", r.Name)
	}
	res := &resolver{
		table:   table,
		rep:     rep,
		routine: r,
		written: writtenNames(r),
	}
	res.declareParameters()
	for _, s := range r.Body {
		if s.Expr == nil {
			continue
		}
		if err := bound.Accept(s.Expr, res); err != nil {
			return fmt.Errorf("resolve %s: %w", r.Name, err)
		}
	}
	return nil
}

type resolver struct {
	table   *symbols.Table
	rep     *diag.Reporter
	routine *bound.Routine
	written map[string]bool
}

// writtenNames collects the variables any node of r writes, so reads of
// never-written locals can be reported.
func writtenNames(r *bound.Routine) map[string]bool {
	written := make(map[string]bool)
	_ = bound.Walker{Pre: func(n bound.Node) error {
		if ref, ok := n.(*bound.LocalRef); ok {
			if a := ref.Access(); a.IsWrite() || a.IsUnknown() || a.IsReadRef() {
				written[ref.Name()] = true
			}
		}
		return nil
	}}.WalkRoutine(r)
	return written
}

func (r *resolver) declareParameters() {
	if r.routine.Method == nil {
		return
	}
	for _, p := range r.routine.Method.Params {
		if _, ok := r.routine.Local(p.Name); ok {
			continue
		}
		r.routine.Locals = append(r.routine.Locals, &symbols.Variable{
			Name:      p.Name,
			Kind:      symbols.VarParameter,
			Index:     len(r.routine.Locals),
			Parameter: p,
		})
	}
}

// variable returns the routine's variable for name, creating it on first
// use. Variables of the script body are globals.
func (r *resolver) variable(name string) *symbols.Variable {
	if v, ok := r.routine.Local(name); ok {
		return v
	}
	kind := symbols.VarLocal
	if r.routine.IsGlobal() {
		kind = symbols.VarGlobal
	}
	v := &symbols.Variable{Name: name, Kind: kind, Index: len(r.routine.Locals)}
	r.routine.Locals = append(r.routine.Locals, v)
	return v
}

func (r *resolver) line(n bound.Node) int { return r.routine.LineOf(n) }

func (r *resolver) children(n bound.Node) error {
	for _, c := range bound.Children(n) {
		if err := bound.Accept(c, r); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) VisitLiteral(*bound.Literal) error { return nil }

func (r *resolver) VisitUnary(n *bound.Unary) error {
	if err := r.children(n); err != nil {
		return err
	}
	return n.ResolveOperator(nil)
}

func (r *resolver) VisitBinary(n *bound.Binary) error {
	if err := r.children(n); err != nil {
		return err
	}
	return n.ResolveOperator(nil)
}

func (r *resolver) VisitLocalRef(n *bound.LocalRef) error {
	v := r.variable(n.Name())
	if err := n.Resolve(v); err != nil {
		return err
	}
	if n.Access().IsRead() && !n.Access().IsWrite() && v.Kind != symbols.VarParameter && !r.written[n.Name()] {
		r.rep.Warnf(r.line(n), diag.WarnUndefinedVariable, "undefined variable $%s", n.Name())
	}
	return nil
}

func (r *resolver) VisitAssign(n *bound.Assign) error {
	if err := r.children(n); err != nil {
		return err
	}
	if n.Kind() == bound.KindAssignment {
		return nil
	}
	return n.ResolveOperator(nil)
}

func (r *resolver) VisitConditional(n *bound.Conditional) error {
	return r.children(n)
}

func (r *resolver) VisitArgument(n *bound.Argument) error {
	return r.children(n)
}

func (r *resolver) VisitCall(n *bound.Call) error {
	if err := r.children(n); err != nil {
		return err
	}

	target, err := r.target(n)
	if err != nil || target == nil {
		return err
	}
	if err := n.ResolveTarget(target); err != nil {
		return err
	}
	return r.matchArguments(n, target)
}

// target finds the method a call invokes, or nil after reporting an
// unresolvable name. The primary name wins whenever it resolves; the
// fallback name is consulted only when it does not.
func (r *resolver) target(n *bound.Call) (*symbols.Method, error) {
	switch n.Form() {
	case bound.CallEcho:
		return r.table.Intrinsic(symbols.IntrinsicEcho), nil
	case bound.CallConcat:
		return r.table.Intrinsic(symbols.IntrinsicConcat), nil
	case bound.CallNew:
		class, ok := r.table.LookupClass(n.TypeName())
		if !ok {
			r.rep.Errorf(r.line(n), diag.ErrUndefinedClass, "class %q not found", n.TypeName().String())
			n.MarkInvalid("undefined class")
			return nil, nil
		}
		if err := n.SetResultType(class); err != nil {
			return nil, err
		}
		return class.Ctor, nil
	default:
		if m, ok := r.table.LookupFunction(n.Name()); ok {
			return m, nil
		}
		if fb, has := n.FallbackName(); has {
			if m, ok := r.table.LookupFunction(fb); ok {
				return m, nil
			}
		}
		r.rep.Errorf(r.line(n), diag.ErrUndefinedFunction, "call to undefined function %s()", n.Name())
		n.MarkInvalid("undefined function")
		return nil, nil
	}
}

// matchArguments binds positional arguments to formal parameters and
// narrows unknown accesses. Arguments beyond the formal list stay unbound
// and are narrowed as by-value.
func (r *resolver) matchArguments(n *bound.Call, m *symbols.Method) error {
	args := n.Arguments()
	if m.Intrinsic {
		return nil
	}

	if len(args) < m.RequiredParams() {
		r.rep.Errorf(r.line(n), diag.ErrTooFewArguments,
			"too few arguments to %s(): %d passed, at least %d expected", m, len(args), m.RequiredParams())
		n.MarkInvalid("too few arguments")
	}
	if len(args) > len(m.Params) && !m.Variadic {
		r.rep.Warnf(r.line(n), diag.WarnTooManyArguments,
			"%s() takes %d argument(s), %d passed", m, len(m.Params), len(args))
	}

	for i, a := range args {
		p := m.Param(i)
		if p == nil && m.Variadic && len(m.Params) > 0 {
			p = m.Params[len(m.Params)-1]
		}
		byRef := false
		if p != nil {
			byRef = p.ByRef
			if i < len(m.Params) {
				if err := a.BindParameter(p); err != nil {
					return err
				}
			}
		}
		if err := r.narrow(a, byRef); err != nil {
			return err
		}
	}
	return nil
}

// narrow settles the access of an argument's value, or of the target of
// an assignment passed as an argument.
func (r *resolver) narrow(a *bound.Argument, byRef bool) error {
	switch v := a.Value().(type) {
	case *bound.Assign:
		if t := v.Target(); t.Access().IsUnknown() {
			return t.NarrowAccess(byRef)
		}
		return nil
	case bound.Reference:
		if v.Access().IsUnknown() {
			return v.NarrowAccess(byRef)
		}
		return nil
	default:
		if byRef {
			r.refNotVariable(a)
		}
		if v.Access().IsUnknown() {
			return v.NarrowAccess(byRef)
		}
		return nil
	}
}

func (r *resolver) refNotVariable(a *bound.Argument) {
	r.rep.Warnf(r.line(a), diag.WarnRefArgNotVariable, "only variables should be passed by reference")
}
