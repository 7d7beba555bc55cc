package bound

// Visitor receives one callback per node shape. The callback for *Assign
// covers assignment, compound assignment and increment; the callback for
// *Call covers every call form.
type Visitor interface {
	VisitLiteral(n *Literal) error
	VisitUnary(n *Unary) error
	VisitBinary(n *Binary) error
	VisitLocalRef(n *LocalRef) error
	VisitCall(n *Call) error
	VisitAssign(n *Assign) error
	VisitConditional(n *Conditional) error
	VisitArgument(n *Argument) error
}

// Accept dispatches n to the matching Visitor method. Nodes of a shape the
// visitor does not know fail with *UnsupportedNodeError.
func Accept(n Node, v Visitor) error {
	switch node := n.(type) {
	case *Literal:
		return v.VisitLiteral(node)
	case *Unary:
		return v.VisitUnary(node)
	case *Binary:
		return v.VisitBinary(node)
	case *LocalRef:
		return v.VisitLocalRef(node)
	case *Call:
		return v.VisitCall(node)
	case *Assign:
		return v.VisitAssign(node)
	case *Conditional:
		return v.VisitConditional(node)
	case *Argument:
		return v.VisitArgument(node)
	default:
		return &UnsupportedNodeError{Node: n}
	}
}

// ResultVisitor is a Visitor that threads an argument of type A into each
// callback and returns a result of type R.
type ResultVisitor[A, R any] interface {
	VisitLiteral(n *Literal, arg A) (R, error)
	VisitUnary(n *Unary, arg A) (R, error)
	VisitBinary(n *Binary, arg A) (R, error)
	VisitLocalRef(n *LocalRef, arg A) (R, error)
	VisitCall(n *Call, arg A) (R, error)
	VisitAssign(n *Assign, arg A) (R, error)
	VisitConditional(n *Conditional, arg A) (R, error)
	VisitArgument(n *Argument, arg A) (R, error)
}

// Dispatch is the result-returning form of Accept.
func Dispatch[A, R any](n Node, v ResultVisitor[A, R], arg A) (R, error) {
	switch node := n.(type) {
	case *Literal:
		return v.VisitLiteral(node, arg)
	case *Unary:
		return v.VisitUnary(node, arg)
	case *Binary:
		return v.VisitBinary(node, arg)
	case *LocalRef:
		return v.VisitLocalRef(node, arg)
	case *Call:
		return v.VisitCall(node, arg)
	case *Assign:
		return v.VisitAssign(node, arg)
	case *Conditional:
		return v.VisitConditional(node, arg)
	case *Argument:
		return v.VisitArgument(node, arg)
	default:
		var zero R
		return zero, &UnsupportedNodeError{Node: n}
	}
}

// Children returns the direct children of n in evaluation order. For a
// call that is the instance, then the arguments; for an argument, its
// value; for a conditional, condition, true branch (when present), false
// branch.
func Children(n Node) []Node {
	switch node := n.(type) {
	case *Unary:
		return []Node{node.operand}
	case *Binary:
		return []Node{node.left, node.right}
	case *Call:
		out := make([]Node, 0, len(node.args)+1)
		if node.instance != nil {
			out = append(out, node.instance)
		}
		for _, a := range node.args {
			out = append(out, a)
		}
		return out
	case *Assign:
		return []Node{node.target, node.value}
	case *Conditional:
		if node.ifTrue == nil {
			return []Node{node.cond, node.ifFalse}
		}
		return []Node{node.cond, node.ifTrue, node.ifFalse}
	case *Argument:
		return []Node{node.value}
	}
	return nil
}
