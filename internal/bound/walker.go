package bound

import "errors"

// SkipChildren may be returned from a Walker's Pre hook to skip the
// node's subtree without stopping the walk.
var SkipChildren = errors.New("skip children")

// Walker visits a tree depth-first in evaluation order. Pre runs before a
// node's children, Post after. Either hook may be nil.
type Walker struct {
	Pre  func(n Node) error
	Post func(n Node) error
}

// Walk traverses the tree rooted at n. A nil n is a no-op.
func (w Walker) Walk(n Node) error {
	if n == nil {
		return nil
	}
	if w.Pre != nil {
		if err := w.Pre(n); err != nil {
			if errors.Is(err, SkipChildren) {
				return nil
			}
			return err
		}
	}
	for _, c := range Children(n) {
		if err := w.Walk(c); err != nil {
			return err
		}
	}
	if w.Post != nil {
		return w.Post(n)
	}
	return nil
}

// WalkRoutine walks every statement expression of r in order.
func (w Walker) WalkRoutine(r *Routine) error {
	for _, s := range r.Body {
		if err := w.Walk(s.Expr); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of nodes of each kind in the tree rooted at n.
func Count(n Node) map[Kind]int {
	counts := make(map[Kind]int)
	_ = Walker{Pre: func(n Node) error {
		counts[n.Kind()]++
		return nil
	}}.Walk(n)
	return counts
}
