// Package interp evaluates resolved bound routines directly.
//
// The evaluator follows the same order codegen emits: receiver, arguments
// left to right, invoke; the short ternary evaluates its condition once.
// It refuses routines that codegen would refuse, so a program that runs
// here is one that lowers.
package interp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/boundc/internal/bound"
	"github.com/roach88/boundc/internal/codegen"
	"github.com/roach88/boundc/internal/constant"
	"github.com/roach88/boundc/internal/fold"
	"github.com/roach88/boundc/internal/symbols"
)

// MaxDepth bounds nested user routine calls.
const MaxDepth = 512

// Value is a runtime value: a constant.Value scalar or an *Object.
type Value interface {
	String() string
}

// Object is an instance created by a new-expression. Constructor
// arguments become properties named after their parameters.
type Object struct {
	Class *symbols.Type
	Props map[string]Value
	ID    int
}

func (o *Object) String() string {
	return fmt.Sprintf("object(%s)#%d", o.Class.Name, o.ID)
}

// Ref is a variable cell. By-reference arguments share the caller's cell.
type Ref struct {
	V Value
}

func (r *Ref) get() Value {
	if r.V == nil {
		return constant.Null{}
	}
	return r.V
}

// RuntimeError is an error raised while evaluating a program.
type RuntimeError struct {
	Routine string
	Line    int
	Msg     string
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s on line %d", e.Msg, e.Line)
	}
	return e.Msg
}

// ErrUnresolved is wrapped by errors reporting a deferred handle that
// was never resolved.
var ErrUnresolved = errors.New("unresolved handle")

// Builtin implements a library function. Arguments arrive as cells so
// by-reference parameters can be written.
type Builtin func(args []*Ref) (Value, error)

// Interpreter runs the routines of one compilation unit.
type Interpreter struct {
	table    *symbols.Table
	out      io.Writer
	logger   *slog.Logger
	routines map[*symbols.Method]*bound.Routine
	builtins map[string]Builtin
	verified map[*bound.Routine]bool
	depth    int
	objects  int
	globals  map[string]Value
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput sets the writer echo writes to. The default discards output.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) { in.out = w }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(in *Interpreter) { in.logger = l }
}

// WithBuiltin registers or replaces a library function implementation.
func WithBuiltin(name string, fn Builtin) Option {
	return func(in *Interpreter) { in.builtins[strings.ToLower(name)] = fn }
}

// New creates an interpreter for the given routines.
func New(table *symbols.Table, routines []*bound.Routine, opts ...Option) *Interpreter {
	in := &Interpreter{
		table:    table,
		out:      io.Discard,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		routines: make(map[*symbols.Method]*bound.Routine),
		verified: make(map[*bound.Routine]bool),
	}
	for _, r := range routines {
		if r.Method != nil {
			in.routines[r.Method] = r
		}
	}
	in.builtins = stdlib(table)
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Run evaluates r as the script body and returns the value of its return
// statement, or null.
func (in *Interpreter) Run(r *bound.Routine) (Value, error) {
	fr, err := in.enter(r)
	if err != nil {
		return nil, err
	}
	v, err := in.exec(fr)
	in.globals = fr.snapshot()
	in.logger.Debug("routine finished", "routine", r.Name, "error", err)
	return v, err
}

// Globals returns the variables of the last routine passed to Run.
func (in *Interpreter) Globals() map[string]Value { return in.globals }

type frame struct {
	routine *bound.Routine
	slots   []*Ref
}

func (fr *frame) cell(v *symbols.Variable) *Ref {
	if fr.slots[v.Index] == nil {
		fr.slots[v.Index] = &Ref{}
	}
	return fr.slots[v.Index]
}

func (fr *frame) snapshot() map[string]Value {
	out := make(map[string]Value, len(fr.slots))
	for _, v := range fr.routine.Locals {
		if c := fr.slots[v.Index]; c != nil && c.V != nil {
			out[v.Name] = c.V
		}
	}
	return out
}

func (in *Interpreter) enter(r *bound.Routine) (*frame, error) {
	if !in.verified[r] {
		if err := codegen.Verify(r); err != nil {
			return nil, err
		}
		in.verified[r] = true
	}
	return &frame{routine: r, slots: make([]*Ref, len(r.Locals))}, nil
}

func (in *Interpreter) exec(fr *frame) (Value, error) {
	for _, s := range fr.routine.Body {
		var v Value = constant.Null{}
		if s.Expr != nil {
			var err error
			if v, err = in.eval(s.Expr, fr); err != nil {
				return nil, err
			}
		}
		if s.Kind == bound.StmtReturn {
			return v, nil
		}
	}
	return constant.Null{}, nil
}

func (in *Interpreter) eval(e bound.Expr, fr *frame) (Value, error) {
	if c, ok := e.ConstantValue(); ok {
		return c, nil
	}
	return bound.Dispatch[*frame, Value](e, in, fr)
}

func (in *Interpreter) fail(fr *frame, n bound.Node, format string, args ...any) error {
	return &RuntimeError{Routine: fr.routine.Name, Line: fr.routine.LineOf(n), Msg: fmt.Sprintf(format, args...)}
}

func (in *Interpreter) VisitLiteral(n *bound.Literal, fr *frame) (Value, error) {
	return n.Value(), nil
}

func (in *Interpreter) VisitLocalRef(n *bound.LocalRef, fr *frame) (Value, error) {
	ref, err := in.ref(n, fr)
	if err != nil {
		return nil, err
	}
	return ref.get(), nil
}

func (in *Interpreter) ref(r bound.Reference, fr *frame) (*Ref, error) {
	local, ok := r.(*bound.LocalRef)
	if !ok {
		return nil, &bound.UnsupportedNodeError{Node: r}
	}
	v, ok := local.Variable()
	if !ok {
		return nil, fmt.Errorf("$%s: %w", local.Name(), ErrUnresolved)
	}
	return fr.cell(v), nil
}

func (in *Interpreter) VisitUnary(n *bound.Unary, fr *frame) (Value, error) {
	v, err := in.eval(n.Operand(), fr)
	if err != nil {
		return nil, err
	}
	m, ok := n.Operator()
	if !ok {
		return nil, fmt.Errorf("operator %s: %w", n.Op(), ErrUnresolved)
	}
	if m != nil {
		return in.invoke(fr, n, m, []*Ref{{V: v}})
	}
	if _, isObj := v.(*Object); isObj {
		switch n.Op() {
		case bound.OpLogicNot:
			return constant.Bool(false), nil
		case bound.OpCastBool:
			return constant.Bool(true), nil
		}
		return nil, in.fail(fr, n, "Unsupported operand types: object %s", n.Op())
	}
	out, err := fold.Unary(n.Op(), v.(constant.Value))
	if err != nil {
		return nil, in.fail(fr, n, "%v", err)
	}
	return out, nil
}

func (in *Interpreter) VisitBinary(n *bound.Binary, fr *frame) (Value, error) {
	m, ok := n.Operator()
	if !ok {
		return nil, fmt.Errorf("operator %s: %w", n.Op(), ErrUnresolved)
	}
	left, err := in.eval(n.Left(), fr)
	if err != nil {
		return nil, err
	}
	if m == nil {
		switch n.Op() {
		case bound.OpAnd:
			if !truthy(left) {
				return constant.Bool(false), nil
			}
		case bound.OpOr:
			if truthy(left) {
				return constant.Bool(true), nil
			}
		case bound.OpCoalesce:
			if !isNull(left) {
				return left, nil
			}
		}
	}
	right, err := in.eval(n.Right(), fr)
	if err != nil {
		return nil, err
	}
	if m != nil {
		return in.invoke(fr, n, m, []*Ref{{V: left}, {V: right}})
	}
	return in.binary(fr, n, n.Op(), left, right)
}

func (in *Interpreter) binary(fr *frame, n bound.Node, op bound.BinaryOp, left, right Value) (Value, error) {
	lo, lobj := left.(*Object)
	ro, robj := right.(*Object)
	if lobj || robj {
		switch op {
		case bound.OpIdentical, bound.OpEqual:
			return constant.Bool(lobj && robj && lo == ro), nil
		case bound.OpNotIdentical, bound.OpNotEqual:
			return constant.Bool(!(lobj && robj && lo == ro)), nil
		case bound.OpAnd:
			return constant.Bool(truthy(left) && truthy(right)), nil
		case bound.OpOr:
			return constant.Bool(truthy(left) || truthy(right)), nil
		case bound.OpXor:
			return constant.Bool(truthy(left) != truthy(right)), nil
		case bound.OpCoalesce:
			if isNull(left) {
				return right, nil
			}
			return left, nil
		}
		return nil, in.fail(fr, n, "Unsupported operand types for %s", op)
	}
	out, err := fold.Binary(op, left.(constant.Value), right.(constant.Value))
	if err != nil {
		return nil, in.fail(fr, n, "%s", capitalize(err.Error()))
	}
	return out, nil
}

func (in *Interpreter) VisitAssign(n *bound.Assign, fr *frame) (Value, error) {
	cell, err := in.ref(n.Target(), fr)
	if err != nil {
		return nil, err
	}
	switch n.Kind() {
	case bound.KindAssignment:
		v, err := in.eval(n.Value(), fr)
		if err != nil {
			return nil, err
		}
		cell.V = v
		return v, nil
	case bound.KindCompoundAssignment:
		old := cell.get()
		v, err := in.eval(n.Value(), fr)
		if err != nil {
			return nil, err
		}
		op, _ := n.Op()
		next, err := in.operate(fr, n, op, old, v)
		if err != nil {
			return nil, err
		}
		cell.V = next
		return next, nil
	default:
		kind, _ := n.IncrementKind()
		old := cell.get()
		next, err := in.step(fr, n, kind, old)
		if err != nil {
			return nil, err
		}
		cell.V = next
		if kind.IsPrefix() {
			return next, nil
		}
		return old, nil
	}
}

// operate applies the compound operator of n, through its operator method
// when one was resolved.
func (in *Interpreter) operate(fr *frame, n *bound.Assign, op bound.BinaryOp, old, v Value) (Value, error) {
	m, ok := n.Operator()
	if !ok {
		return nil, fmt.Errorf("operator %s=: %w", op, ErrUnresolved)
	}
	if m != nil {
		return in.invoke(fr, n, m, []*Ref{{V: old}, {V: v}})
	}
	return in.binary(fr, n, op, old, v)
}

func (in *Interpreter) step(fr *frame, n *bound.Assign, kind bound.IncKind, old Value) (Value, error) {
	m, ok := n.Operator()
	if !ok {
		return nil, fmt.Errorf("operator %s: %w", kind, ErrUnresolved)
	}
	if m != nil {
		one, err := in.eval(n.Value(), fr)
		if err != nil {
			return nil, err
		}
		return in.invoke(fr, n, m, []*Ref{{V: old}, {V: one}})
	}
	scalar, ok := old.(constant.Value)
	if !ok {
		return nil, in.fail(fr, n, "Cannot increment %s", old)
	}
	if kind.IsIncrement() {
		return constant.Increment(scalar), nil
	}
	return constant.Decrement(scalar), nil
}

func (in *Interpreter) VisitConditional(n *bound.Conditional, fr *frame) (Value, error) {
	cond, err := in.eval(n.Condition(), fr)
	if err != nil {
		return nil, err
	}
	switch {
	case !truthy(cond):
		return in.eval(n.IfFalse(), fr)
	case n.IsShort():
		return cond, nil
	default:
		return in.eval(n.IfTrue(), fr)
	}
}

func (in *Interpreter) VisitArgument(n *bound.Argument, fr *frame) (Value, error) {
	return in.eval(n.Value(), fr)
}

func (in *Interpreter) VisitCall(n *bound.Call, fr *frame) (Value, error) {
	m, ok := n.Target()
	if !ok {
		return nil, fmt.Errorf("%s call: %w", n.Form(), ErrUnresolved)
	}
	if inst := n.Instance(); inst != nil {
		if _, err := in.eval(inst, fr); err != nil {
			return nil, err
		}
	}
	args := make([]*Ref, 0, len(n.Arguments()))
	for _, a := range n.Arguments() {
		ref, err := in.argument(a, fr)
		if err != nil {
			return nil, err
		}
		args = append(args, ref)
	}

	switch n.Form() {
	case bound.CallEcho:
		for _, a := range args {
			s, err := in.stringOf(fr, n, a.get())
			if err != nil {
				return nil, err
			}
			if _, err := io.WriteString(in.out, s); err != nil {
				return nil, err
			}
		}
		return constant.Null{}, nil
	case bound.CallConcat:
		var b strings.Builder
		for _, a := range args {
			s, err := in.stringOf(fr, n, a.get())
			if err != nil {
				return nil, err
			}
			b.WriteString(s)
		}
		return constant.String(b.String()), nil
	case bound.CallNew:
		return in.construct(m, args), nil
	}
	return in.invoke(fr, n, m, args)
}

// argument evaluates a to a cell: the variable's own cell when passed by
// reference, a fresh one otherwise.
func (in *Interpreter) argument(a *bound.Argument, fr *frame) (*Ref, error) {
	byRef := false
	if p, ok := a.Parameter(); ok {
		byRef = p.ByRef
	}
	switch v := a.Value().(type) {
	case *bound.LocalRef:
		if byRef || v.Access().IsReadRef() {
			return in.ref(v, fr)
		}
	case *bound.Assign:
		if byRef || v.Target().Access().IsReadRef() {
			if _, err := in.eval(v, fr); err != nil {
				return nil, err
			}
			return in.ref(v.Target(), fr)
		}
	}
	val, err := in.eval(a.Value(), fr)
	if err != nil {
		return nil, err
	}
	return &Ref{V: val}, nil
}

func (in *Interpreter) stringOf(fr *frame, n bound.Node, v Value) (string, error) {
	if o, ok := v.(*Object); ok {
		return "", in.fail(fr, n, "Object of class %s could not be converted to string", o.Class.Name)
	}
	return v.String(), nil
}

func (in *Interpreter) construct(ctor *symbols.Method, args []*Ref) *Object {
	in.objects++
	obj := &Object{Class: ctor.Owner, Props: make(map[string]Value), ID: in.objects}
	for i, p := range ctor.Params {
		switch {
		case i < len(args):
			obj.Props[p.Name] = args[i].get()
		case p.Default != nil:
			obj.Props[p.Name] = p.Default
		default:
			obj.Props[p.Name] = constant.Null{}
		}
	}
	return obj
}

// invoke calls a user routine or a library function.
func (in *Interpreter) invoke(fr *frame, n bound.Node, m *symbols.Method, args []*Ref) (Value, error) {
	if r, ok := in.routines[m]; ok {
		return in.call(fr, n, r, args)
	}
	fn, ok := in.builtins[strings.ToLower(m.Name)]
	if !ok {
		return nil, in.fail(fr, n, "Call to undefined function %s()", m)
	}
	v, err := fn(args)
	if err != nil {
		return nil, in.fail(fr, n, "%s(): %v", m.Name, err)
	}
	return v, nil
}

func (in *Interpreter) call(caller *frame, n bound.Node, r *bound.Routine, args []*Ref) (Value, error) {
	if in.depth >= MaxDepth {
		return nil, in.fail(caller, n, "Maximum function nesting level of %d reached", MaxDepth)
	}
	fr, err := in.enter(r)
	if err != nil {
		return nil, err
	}
	for _, v := range r.Locals {
		if v.Kind != symbols.VarParameter {
			continue
		}
		p := v.Parameter
		switch {
		case p.Index < len(args) && p.ByRef:
			fr.slots[v.Index] = args[p.Index]
		case p.Index < len(args):
			fr.slots[v.Index] = &Ref{V: args[p.Index].get()}
		case p.Default != nil:
			fr.slots[v.Index] = &Ref{V: p.Default}
		default:
			fr.slots[v.Index] = &Ref{V: constant.Null{}}
		}
	}
	in.depth++
	defer func() { in.depth-- }()
	return in.exec(fr)
}

func truthy(v Value) bool {
	if c, ok := v.(constant.Value); ok {
		return constant.ToBool(c)
	}
	return v != nil
}

func isNull(v Value) bool {
	c, ok := v.(constant.Value)
	return v == nil || ok && c.Kind() == constant.KindNull
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
