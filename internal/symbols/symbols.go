// Package symbols provides the resolved handles written into bound trees by
// resolution passes, and the cross-routine symbol table they come from.
//
// Handles are compared by identity. A pass that resolves two nodes to the
// same declaration stores the same pointer in both.
package symbols

import (
	"fmt"
	"strings"

	"github.com/roach88/boundc/internal/constant"
	"github.com/roach88/boundc/internal/typemask"
)

// Type is a resolved static type: a primitive or a declared class.
type Type struct {
	Name    string
	Mask    typemask.Mask
	Builtin bool

	// Ctor is the constructor used by new-expressions. Classes declared
	// without one get an implicit parameterless constructor.
	Ctor *Method
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// Parameter is a formal parameter of a routine.
type Parameter struct {
	Name     string
	Index    int
	ByRef    bool
	Optional bool
	Default  constant.Value
	Mask     typemask.Mask
}

func (p *Parameter) String() string {
	if p.ByRef {
		return "&$" + p.Name
	}
	return "$" + p.Name
}

// Method is a resolved routine: a global function, a constructor, a user
// operator or an intrinsic.
type Method struct {
	Name      string
	Params    []*Parameter
	Returns   typemask.Mask
	Variadic  bool
	Intrinsic bool

	// Owner is set for constructors.
	Owner *Type
}

func (m *Method) String() string {
	if m == nil {
		return "<nil>"
	}
	if m.Owner != nil {
		return m.Owner.Name + "::" + m.Name
	}
	return m.Name
}

// Param returns the formal parameter at position i, or nil.
func (m *Method) Param(i int) *Parameter {
	if i < 0 || i >= len(m.Params) {
		return nil
	}
	return m.Params[i]
}

// RequiredParams counts leading parameters without defaults.
func (m *Method) RequiredParams() int {
	n := 0
	for _, p := range m.Params {
		if p.Optional {
			break
		}
		n++
	}
	return n
}

// NewMethod builds a method and numbers its parameters.
func NewMethod(name string, params ...*Parameter) *Method {
	for i, p := range params {
		p.Index = i
		if p.Mask == 0 {
			p.Mask = typemask.Any
		}
	}
	return &Method{Name: name, Params: params, Returns: typemask.Any}
}

// VariableKind tells where a variable lives.
type VariableKind uint8

const (
	VarLocal VariableKind = iota
	VarParameter
	VarGlobal
)

func (k VariableKind) String() string {
	switch k {
	case VarLocal:
		return "local"
	case VarParameter:
		return "parameter"
	case VarGlobal:
		return "global"
	default:
		return fmt.Sprintf("VariableKind(%d)", uint8(k))
	}
}

// Variable is a resolved variable slot within one routine.
type Variable struct {
	Name  string
	Kind  VariableKind
	Index int

	// Parameter is set when Kind is VarParameter.
	Parameter *Parameter
}

func (v *Variable) String() string {
	return fmt.Sprintf("$%s#%d(%s)", v.Name, v.Index, v.Kind)
}

// QualifiedName is a namespace-qualified function or class name.
type QualifiedName struct {
	Namespace []string
	Name      string
}

// ParseQualifiedName splits "A\B\name" into its namespace and name parts.
// A leading separator is ignored.
func ParseQualifiedName(s string) QualifiedName {
	s = strings.TrimPrefix(s, `\`)
	parts := strings.Split(s, `\`)
	if len(parts) == 1 {
		return QualifiedName{Name: parts[0]}
	}
	return QualifiedName{Namespace: parts[:len(parts)-1], Name: parts[len(parts)-1]}
}

// IsEmpty reports whether the name has no text.
func (q QualifiedName) IsEmpty() bool { return q.Name == "" && len(q.Namespace) == 0 }

// IsQualified reports whether the name carries a namespace.
func (q QualifiedName) IsQualified() bool { return len(q.Namespace) > 0 }

// Unqualified returns the name without its namespace.
func (q QualifiedName) Unqualified() QualifiedName { return QualifiedName{Name: q.Name} }

func (q QualifiedName) String() string {
	if len(q.Namespace) == 0 {
		return q.Name
	}
	return strings.Join(q.Namespace, `\`) + `\` + q.Name
}

// Equal compares two names by spelling.
func (q QualifiedName) Equal(other QualifiedName) bool {
	return q.String() == other.String()
}
