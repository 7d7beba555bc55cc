// Package bound provides the bound (semantic) expression tree produced by
// binding a routine's syntax tree.
//
// Every node carries:
//   - a Kind discriminator for dispatch
//   - an Access mode describing how the expression is used at its site
//   - annotation slots written by later passes: type-ref mask, result
//     type, constant value and the invalid flag
//
// Reference and call nodes additionally carry two-phase handle slots
// (resolved variable, resolved target method, resolved operator,
// matched formal parameter). They are built unresolved and filled in
// exactly once by a resolution pass.
//
// TREE SHAPE:
//
// Node kinds and children are fixed at construction. A parent exclusively
// owns its children: a node handed to a second parent is rejected, so the
// tree has no sharing and no cycles. Constructors validate their contract
// (legal access mode for the kind, required children present, increment
// kind) and return a *ContractError instead of building a bad node.
//
// SEALED INTERFACES:
//
// Node and Expr are sealed with marker methods. Consumers dispatch with
// Accept (side-effecting traversal) or Dispatch (argument in, typed result
// out), both of which switch exhaustively over the node types and fail
// with *UnsupportedNodeError for anything else:
//
//	switch n := node.(type) {
//	case *Literal:
//	case *Unary:
//	case *Binary:
//	case *LocalRef:
//	case *Call:
//	case *Argument:
//	case *Assign:
//	case *Conditional:
//	}
//
// Assignment, compound assignment and increment share the *Assign shape;
// consumers tell them apart by Kind. Function calls, constructor calls,
// echo and string concatenation share the *Call shape; consumers tell them
// apart by Form, but evaluate all of them the same way: instance, then
// arguments left to right, then invoke the target.
//
// CONCURRENCY:
//
// A tree is owned by the routine it was bound from. Trees of different
// routines may be processed concurrently; writes to one node's slots must
// be serialized by the pass that owns them.
package bound
