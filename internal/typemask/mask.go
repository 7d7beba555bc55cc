// Package typemask provides the type-ref mask: a compact summary of the set
// of runtime types an expression may produce at a program point.
package typemask

import (
	"strings"

	"github.com/roach88/boundc/internal/constant"
)

// Mask is a bit set over runtime types. The zero Mask is the empty set.
type Mask uint16

// Type bits.
const (
	Null Mask = 1 << iota
	Bool
	Long
	Double
	String
	Array
	Object
	Resource

	// Number is either integer or floating point.
	Number = Long | Double
	// Any is every runtime type.
	Any = Null | Bool | Long | Double | String | Array | Object | Resource
)

var names = []struct {
	bit  Mask
	name string
}{
	{Null, "null"},
	{Bool, "bool"},
	{Long, "int"},
	{Double, "float"},
	{String, "string"},
	{Array, "array"},
	{Object, "object"},
	{Resource, "resource"},
}

// Union returns the set union of m and other.
func (m Mask) Union(other Mask) Mask { return m | other }

// Has reports whether every bit of t is present in m.
func (m Mask) Has(t Mask) bool { return t != 0 && m&t == t }

// IsEmpty reports whether no type is possible.
func (m Mask) IsEmpty() bool { return m == 0 }

// IsAny reports whether every type is possible.
func (m Mask) IsAny() bool { return m&Any == Any }

// IsSingle reports whether exactly one type is possible.
func (m Mask) IsSingle() bool { return m != 0 && m&(m-1) == 0 }

// IsNumber reports whether m is a non-empty subset of int|float.
func (m Mask) IsNumber() bool { return m != 0 && m&^Number == 0 }

func (m Mask) String() string {
	if m == 0 {
		return "void"
	}
	if m.IsAny() {
		return "mixed"
	}
	var parts []string
	for _, n := range names {
		if m&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Names returns the individual type names contained in m.
func (m Mask) Names() []string {
	var out []string
	for _, n := range names {
		if m&n.bit != 0 {
			out = append(out, n.name)
		}
	}
	return out
}

// Parse returns the single-type mask for a type name such as "int" or
// "string". Unknown names and "mixed" yield Any.
func Parse(name string) Mask {
	switch strings.ToLower(name) {
	case "void":
		return 0
	case "integer", "long":
		return Long
	case "double":
		return Double
	case "boolean":
		return Bool
	case "number":
		return Number
	}
	for _, n := range names {
		if n.name == strings.ToLower(name) {
			return n.bit
		}
	}
	return Any
}

// Of returns the mask of a constant value.
func Of(v constant.Value) Mask {
	switch v.(type) {
	case constant.Null:
		return Null
	case constant.Bool:
		return Bool
	case constant.Int:
		return Long
	case constant.Float:
		return Double
	case constant.String:
		return String
	default:
		return Any
	}
}
