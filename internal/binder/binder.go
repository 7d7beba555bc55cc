// Package binder turns syntax trees into bound trees.
//
// The binder decides every node's access mode from its syntactic context:
// the left side of "=" is written, the operand of "+=" is read and
// written, a variable passed to a call whose target is not resolved yet is
// ReadUnknown, and so on. It does not resolve names; calls and variable
// references leave the binder unresolved.
//
// Malformed syntax is a user error, not a binder bug: it is reported
// through the diagnostic reporter and bound as an invalid placeholder so
// the rest of the routine can still be checked. Contract errors from node
// constructors, on the other hand, indicate a binder bug and abort.
package binder

import (
	"fmt"

	"github.com/roach88/boundc/internal/bound"
	"github.com/roach88/boundc/internal/constant"
	"github.com/roach88/boundc/internal/diag"
	"github.com/roach88/boundc/internal/symbols"
	"github.com/roach88/boundc/internal/syntax"
)

// Binder binds the statements of one routine. A Binder is not safe for
// concurrent use; bind independent routines with independent Binders.
type Binder struct {
	table     *symbols.Table
	rep       *diag.Reporter
	namespace string
	lines     map[bound.Node]int
	line      int
}

// New creates a binder resolving declaration handles against table and
// reporting malformed syntax to rep.
func New(table *symbols.Table, rep *diag.Reporter, namespace string) *Binder {
	return &Binder{
		table:     table,
		rep:       rep,
		namespace: namespace,
		lines:     make(map[bound.Node]int),
	}
}

// BindMain binds the global script body.
func (b *Binder) BindMain(stmts []*syntax.Stmt) (*bound.Routine, error) {
	return b.bindRoutine("main", nil, stmts)
}

// BindFunction binds a declared function body. The function must have
// been declared into the table by Declare.
func (b *Binder) BindFunction(fn *syntax.Function) (*bound.Routine, error) {
	name := qualify(b.namespace, fn.Name)
	m, ok := b.table.LookupFunction(symbols.ParseQualifiedName(name))
	if !ok {
		return nil, fmt.Errorf("bind %s: function was not declared", name)
	}
	return b.bindRoutine(name, m, fn.Body)
}

func (b *Binder) bindRoutine(name string, m *symbols.Method, stmts []*syntax.Stmt) (*bound.Routine, error) {
	r := &bound.Routine{Name: name, Method: m, Lines: b.lines}
	for i, s := range stmts {
		stmt, err := b.bindStmt(s)
		if err != nil {
			return nil, fmt.Errorf("bind %s: statement %d: %w", name, i, err)
		}
		r.Body = append(r.Body, stmt)
	}
	return r, nil
}

func (b *Binder) bindStmt(s *syntax.Stmt) (bound.Statement, error) {
	b.line = s.Line
	switch {
	case s.IsReturn:
		if s.Return == nil {
			return bound.Statement{Kind: bound.StmtReturn, Line: s.Line}, nil
		}
		e, err := b.BindExpr(s.Return, bound.AccessRead)
		return bound.Statement{Kind: bound.StmtReturn, Expr: e, Line: s.Line}, err
	case s.Echo != nil:
		args, err := b.bindOperands(s.Echo)
		if err != nil {
			return bound.Statement{}, err
		}
		echo, err := bound.NewEcho(args, bound.AccessNone)
		if err != nil {
			return bound.Statement{}, err
		}
		b.mark(echo)
		return bound.Statement{Kind: bound.StmtExpr, Expr: echo, Line: s.Line}, nil
	default:
		e, err := b.BindExpr(s.Expr, bound.AccessNone)
		return bound.Statement{Kind: bound.StmtExpr, Expr: e, Line: s.Line}, err
	}
}

// BindExpr binds e for a use site with the given access. Only None and
// Read are meaningful for expressions in general; the write and unknown
// variants are chosen by the binder itself for assignment targets and
// call arguments.
func (b *Binder) BindExpr(e *syntax.Expr, access bound.Access) (bound.Expr, error) {
	if e == nil {
		b.rep.Errorf(b.line, diag.ErrMalformedSyntax, "missing expression")
		return b.placeholder(access, "missing expression")
	}
	if e.Line > 0 {
		b.line = e.Line
	}
	// Children may move b.line; e keeps the line it was reached at.
	line := b.line

	var (
		node bound.Expr
		err  error
	)
	switch e.Shape() {
	case syntax.ShapeLiteral:
		node, err = bound.NewLiteral(e.Value, valueAccess(access))
	case syntax.ShapeVar:
		node, err = bound.NewLocalRef(e.Var, access)
	case syntax.ShapeUnary:
		node, err = b.bindUnary(e.Unary, access)
	case syntax.ShapeBinary:
		node, err = b.bindBinary(e.Binary, access)
	case syntax.ShapeAssign:
		node, err = b.bindAssign(e.Assign, access)
	case syntax.ShapeCompound:
		node, err = b.bindCompound(e.Compound, access)
	case syntax.ShapeInc:
		node, err = b.bindInc(e.Inc, access)
	case syntax.ShapeCall:
		node, err = b.bindCall(e.Call, access)
	case syntax.ShapeNew:
		node, err = b.bindNew(e.New, access)
	case syntax.ShapeTernary:
		node, err = b.bindTernary(e.Ternary, access)
	default:
		return b.placeholder(access, "unsupported expression")
	}
	if err != nil {
		return nil, err
	}
	b.lines[node] = line
	return node, nil
}

func (b *Binder) bindUnary(u *syntax.UnaryExpr, access bound.Access) (bound.Expr, error) {
	op, ok := bound.ParseUnaryOp(u.Op)
	if !ok {
		b.rep.Errorf(b.line, diag.ErrUnknownOperator, "unknown unary operator %q", u.Op)
		return b.placeholder(access, "unknown operator")
	}
	operand, err := b.BindExpr(u.Operand, bound.AccessRead)
	if err != nil {
		return nil, err
	}
	return bound.NewUnary(op, operand, valueAccess(access))
}

func (b *Binder) bindBinary(x *syntax.BinaryExpr, access bound.Access) (bound.Expr, error) {
	op, ok := bound.ParseBinaryOp(x.Op)
	if !ok {
		b.rep.Errorf(b.line, diag.ErrUnknownOperator, "unknown binary operator %q", x.Op)
		return b.placeholder(access, "unknown operator")
	}
	if op == bound.OpConcat {
		return b.bindConcat(x, access)
	}
	left, err := b.BindExpr(x.Left, bound.AccessRead)
	if err != nil {
		return nil, err
	}
	right, err := b.BindExpr(x.Right, bound.AccessRead)
	if err != nil {
		return nil, err
	}
	return bound.NewBinary(op, left, right, valueAccess(access))
}

// bindConcat flattens a chain of "." operators into one concat call with
// the chain's operands as arguments, left to right.
func (b *Binder) bindConcat(x *syntax.BinaryExpr, access bound.Access) (bound.Expr, error) {
	var operands []*syntax.Expr
	var collect func(e *syntax.Expr)
	collect = func(e *syntax.Expr) {
		if e != nil && e.Shape() == syntax.ShapeBinary && e.Binary.Op == "." {
			collect(e.Binary.Left)
			collect(e.Binary.Right)
			return
		}
		operands = append(operands, e)
	}
	collect(x.Left)
	collect(x.Right)

	args, err := b.bindOperands(operands)
	if err != nil {
		return nil, err
	}
	return bound.NewConcat(args, valueAccess(access))
}

// bindOperands binds intrinsic operands, which are always read by value.
func (b *Binder) bindOperands(exprs []*syntax.Expr) ([]*bound.Argument, error) {
	args := make([]*bound.Argument, 0, len(exprs))
	for _, e := range exprs {
		v, err := b.BindExpr(e, bound.AccessRead)
		if err != nil {
			return nil, err
		}
		a, err := bound.NewArgument(v)
		if err != nil {
			return nil, err
		}
		b.mark(a)
		args = append(args, a)
	}
	return args, nil
}

func (b *Binder) bindAssign(x *syntax.AssignExpr, access bound.Access) (bound.Expr, error) {
	targetAccess := bound.AccessWrite
	if access == bound.AccessReadUnknown {
		targetAccess = bound.AccessWriteAndReadUnknown
	}
	target, ok, err := b.bindTarget(x.Target, targetAccess)
	if err != nil || !ok {
		return b.orPlaceholder(err, access, "assignment to a non-variable")
	}
	value, err := b.BindExpr(x.Value, bound.AccessRead)
	if err != nil {
		return nil, err
	}
	return bound.NewAssign(target, value, valueAccess(access))
}

func (b *Binder) bindCompound(x *syntax.CompoundExpr, access bound.Access) (bound.Expr, error) {
	op, ok := bound.ParseBinaryOp(x.Op)
	if !ok || !op.IsCompoundable() {
		b.rep.Errorf(b.line, diag.ErrUnknownOperator, "unknown compound assignment operator %q", x.Op+"=")
		return b.placeholder(access, "unknown operator")
	}
	target, ok, err := b.bindTarget(x.Target, compoundAccess(access))
	if err != nil || !ok {
		return b.orPlaceholder(err, access, "compound assignment to a non-variable")
	}
	value, err := b.BindExpr(x.Value, bound.AccessRead)
	if err != nil {
		return nil, err
	}
	return bound.NewCompoundAssign(target, op, value, valueAccess(access))
}

func (b *Binder) bindInc(x *syntax.IncExpr, access bound.Access) (bound.Expr, error) {
	kind, ok := bound.ParseIncKind(x.Kind)
	if !ok {
		b.rep.Errorf(b.line, diag.ErrMalformedSyntax, "unknown increment kind %q", x.Kind)
		return b.placeholder(access, "malformed increment")
	}
	target, ok, err := b.bindTarget(x.Target, compoundAccess(access))
	if err != nil || !ok {
		return b.orPlaceholder(err, access, "increment of a non-variable")
	}
	return bound.NewIncrement(target, kind, valueAccess(access))
}

// bindTarget binds an assignment target. Only variables are assignable;
// anything else is reported and ok is false.
func (b *Binder) bindTarget(e *syntax.Expr, access bound.Access) (bound.Reference, bool, error) {
	if e == nil || e.Shape() != syntax.ShapeVar {
		b.rep.Errorf(b.line, diag.ErrNotAssignable, "cannot assign to this expression")
		return nil, false, nil
	}
	ref, err := bound.NewLocalRef(e.Var, access)
	if err != nil {
		return nil, false, err
	}
	line := e.Line
	if line == 0 {
		line = b.line
	}
	b.lines[ref] = line
	return ref, true, nil
}

func (b *Binder) bindCall(x *syntax.CallExpr, access bound.Access) (bound.Expr, error) {
	if x.Name == "" {
		b.rep.Errorf(b.line, diag.ErrMalformedSyntax, "call without a function name")
		return b.placeholder(access, "malformed call")
	}
	args, err := b.bindArguments(x.Args)
	if err != nil {
		return nil, err
	}
	name, fallback := b.callNames(x.Name)
	var opts []bound.CallOption
	if !fallback.IsEmpty() {
		opts = append(opts, bound.WithFallback(fallback))
	}
	return bound.NewFunctionCall(name, args, callAccess(access), opts...)
}

// callNames returns the primary and fallback names for a call. An
// unqualified call inside a namespace tries the namespaced function first
// and the global one second. A fully qualified name has no fallback.
func (b *Binder) callNames(raw string) (symbols.QualifiedName, symbols.QualifiedName) {
	q := symbols.ParseQualifiedName(raw)
	if b.namespace == "" || q.IsQualified() || (len(raw) > 0 && raw[0] == '\\') {
		return q, symbols.QualifiedName{}
	}
	return symbols.ParseQualifiedName(b.namespace + `\` + q.Name), q
}

func (b *Binder) bindNew(x *syntax.NewExpr, access bound.Access) (bound.Expr, error) {
	if x.Class == "" {
		b.rep.Errorf(b.line, diag.ErrMalformedSyntax, "new without a class name")
		return b.placeholder(access, "malformed new")
	}
	args, err := b.bindArguments(x.Args)
	if err != nil {
		return nil, err
	}
	if access == bound.AccessReadRef {
		access = bound.AccessRead
	}
	return bound.NewNew(symbols.ParseQualifiedName(x.Class), args, access)
}

// bindArguments binds user call arguments. Variables, new-expressions and
// assignment targets whose formal parameter is not known yet carry the
// unknown access variants until resolution narrows them.
func (b *Binder) bindArguments(exprs []*syntax.Expr) ([]*bound.Argument, error) {
	args := make([]*bound.Argument, 0, len(exprs))
	for _, e := range exprs {
		v, err := b.BindExpr(e, argumentAccess(e))
		if err != nil {
			return nil, err
		}
		a, err := bound.NewArgument(v)
		if err != nil {
			return nil, err
		}
		b.mark(a)
		args = append(args, a)
	}
	return args, nil
}

func (b *Binder) bindTernary(x *syntax.TernaryExpr, access bound.Access) (bound.Expr, error) {
	cond, err := b.BindExpr(x.Cond, bound.AccessRead)
	if err != nil {
		return nil, err
	}
	var ifTrue bound.Expr
	if x.Then != nil {
		if ifTrue, err = b.BindExpr(x.Then, bound.AccessRead); err != nil {
			return nil, err
		}
	}
	ifFalse, err := b.BindExpr(x.Else, bound.AccessRead)
	if err != nil {
		return nil, err
	}
	return bound.NewConditional(cond, ifTrue, ifFalse, valueAccess(access))
}

// placeholder stands in for malformed syntax: a null literal marked
// invalid.
func (b *Binder) placeholder(access bound.Access, reason string) (bound.Expr, error) {
	lit, err := bound.NewLiteral(constant.Null{}, valueAccess(access))
	if err != nil {
		return nil, err
	}
	lit.MarkInvalid(reason)
	b.lines[lit] = b.line
	return lit, nil
}

func (b *Binder) orPlaceholder(err error, access bound.Access, reason string) (bound.Expr, error) {
	if err != nil {
		return nil, err
	}
	return b.placeholder(access, reason)
}

func (b *Binder) mark(n bound.Node) {
	b.lines[n] = b.line
}

// argumentAccess is the access a call argument is bound with before the
// callee is known. The node returned for an assignment or compound
// assignment is itself read; the unknown variant goes to its target.
func argumentAccess(e *syntax.Expr) bound.Access {
	if e == nil {
		return bound.AccessRead
	}
	switch e.Shape() {
	case syntax.ShapeVar, syntax.ShapeNew, syntax.ShapeAssign, syntax.ShapeCompound:
		return bound.AccessReadUnknown
	}
	return bound.AccessRead
}

// valueAccess collapses the access of a non-reference expression to None
// or Read.
func valueAccess(access bound.Access) bound.Access {
	if access == bound.AccessNone {
		return bound.AccessNone
	}
	return bound.AccessRead
}

func callAccess(access bound.Access) bound.Access {
	if access == bound.AccessNone || access == bound.AccessReadRef {
		return access
	}
	return bound.AccessRead
}

func compoundAccess(access bound.Access) bound.Access {
	if access == bound.AccessReadUnknown {
		return bound.AccessReadAndWriteAndReadUnknown
	}
	return bound.AccessReadAndWrite
}
