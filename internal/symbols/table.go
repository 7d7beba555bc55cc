package symbols

import (
	"errors"
	"fmt"

	"golang.org/x/text/cases"

	"github.com/roach88/boundc/internal/typemask"
)

// ErrFrozen is returned when a declaration is added after Freeze.
var ErrFrozen = errors.New("symbol table is frozen")

// DuplicateError reports a second declaration of the same name.
type DuplicateError struct {
	Kind string // "function" or "class"
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already declared", e.Kind, e.Name)
}

// Intrinsic names the built-in operations modelled as calls.
type Intrinsic uint8

const (
	IntrinsicEcho Intrinsic = iota
	IntrinsicConcat
)

// Table holds declared functions and classes of a compilation unit.
//
// The table is populated during declaration collection and then frozen.
// After Freeze it is read-only and safe for concurrent lookups without
// locking; Declare calls fail with ErrFrozen.
type Table struct {
	functions  map[string]*Method
	classes    map[string]*Type
	primitives map[typemask.Mask]*Type
	intrinsics [2]*Method
	frozen     bool
}

// NewTable creates an empty table with primitive types and intrinsics
// registered.
func NewTable() *Table {
	t := &Table{
		functions:  make(map[string]*Method),
		classes:    make(map[string]*Type),
		primitives: make(map[typemask.Mask]*Type),
	}

	for _, name := range []string{"null", "bool", "int", "float", "string", "array", "object", "resource", "mixed"} {
		mask := typemask.Parse(name)
		t.primitives[mask] = &Type{Name: name, Mask: mask, Builtin: true}
	}

	echo := &Method{Name: "echo", Variadic: true, Intrinsic: true, Returns: 0}
	concat := &Method{Name: "concat", Variadic: true, Intrinsic: true, Returns: typemask.String}
	t.intrinsics[IntrinsicEcho] = echo
	t.intrinsics[IntrinsicConcat] = concat

	return t
}

// key normalises a name for case-insensitive lookup. A Caser is stateful,
// so each call gets its own.
func (t *Table) key(name string) string {
	return cases.Fold().String(ParseQualifiedName(name).String())
}

// DeclareFunction adds a global function.
func (t *Table) DeclareFunction(m *Method) error {
	if t.frozen {
		return ErrFrozen
	}
	k := t.key(m.Name)
	if _, exists := t.functions[k]; exists {
		return &DuplicateError{Kind: "function", Name: m.Name}
	}
	t.functions[k] = m
	return nil
}

// DeclareClass adds a class. A class without a constructor receives an
// implicit parameterless one.
func (t *Table) DeclareClass(c *Type) error {
	if t.frozen {
		return ErrFrozen
	}
	k := t.key(c.Name)
	if _, exists := t.classes[k]; exists {
		return &DuplicateError{Kind: "class", Name: c.Name}
	}
	if c.Mask == 0 {
		c.Mask = typemask.Object
	}
	if c.Ctor == nil {
		c.Ctor = &Method{Name: "__construct"}
	}
	c.Ctor.Owner = c
	c.Ctor.Returns = 0
	t.classes[k] = c
	return nil
}

// Freeze ends declaration collection.
func (t *Table) Freeze() { t.frozen = true }

// Frozen reports whether Freeze has been called.
func (t *Table) Frozen() bool { return t.frozen }

// LookupFunction finds a function by (case-insensitive) name.
func (t *Table) LookupFunction(name QualifiedName) (*Method, bool) {
	m, ok := t.functions[t.key(name.String())]
	return m, ok
}

// LookupClass finds a class by (case-insensitive) name.
func (t *Table) LookupClass(name QualifiedName) (*Type, bool) {
	c, ok := t.classes[t.key(name.String())]
	return c, ok
}

// Intrinsic returns the method handle for a built-in operation.
func (t *Table) Intrinsic(i Intrinsic) *Method {
	return t.intrinsics[i]
}

// Primitive returns the static type for a mask. Masks with more than one
// type map to "mixed"; the empty mask maps to nil.
func (t *Table) Primitive(mask typemask.Mask) *Type {
	if mask == 0 {
		return nil
	}
	if p, ok := t.primitives[mask]; ok {
		return p
	}
	return t.primitives[typemask.Any]
}

// FunctionCount returns the number of declared functions.
func (t *Table) FunctionCount() int { return len(t.functions) }

// ClassCount returns the number of declared classes.
func (t *Table) ClassCount() int { return len(t.classes) }
