package bound

import "github.com/roach88/boundc/internal/symbols"

// StmtKind distinguishes the statement shapes a routine body holds.
type StmtKind uint8

const (
	// StmtExpr evaluates an expression for its effects.
	StmtExpr StmtKind = iota
	// StmtReturn evaluates an optional expression and leaves the routine.
	StmtReturn
)

func (k StmtKind) String() string {
	if k == StmtReturn {
		return "return"
	}
	return "expr"
}

// Statement is one top-level statement of a routine body.
type Statement struct {
	Kind StmtKind
	// Expr is nil only for a bare return.
	Expr Expr
	// Line is the 1-based source line, or 0 when unknown.
	Line int
}

// Routine is a bound function body or the global script body.
type Routine struct {
	Name string
	// Method is the routine's signature; nil for the global script.
	Method *symbols.Method
	Body   []Statement
	// Locals lists the variables resolved in this routine, parameters
	// first, in order of first appearance.
	Locals []*symbols.Variable
	// Lines maps nodes to their 1-based source line where known.
	Lines map[Node]int
}

// LineOf returns the source line recorded for n, or 0.
func (r *Routine) LineOf(n Node) int {
	return r.Lines[n]
}

// IsGlobal reports whether r is the script body.
func (r *Routine) IsGlobal() bool { return r.Method == nil }

// Local returns the variable named name, if it has been declared.
func (r *Routine) Local(name string) (*symbols.Variable, bool) {
	for _, v := range r.Locals {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// Unit is the bound form of one source file: its routines and the symbol
// table they were resolved against.
type Unit struct {
	Path     string
	Table    *symbols.Table
	Main     *Routine
	Routines []*Routine
}

// AllRoutines returns Main followed by the declared routines.
func (u *Unit) AllRoutines() []*Routine {
	out := make([]*Routine, 0, len(u.Routines)+1)
	if u.Main != nil {
		out = append(out, u.Main)
	}
	return append(out, u.Routines...)
}
