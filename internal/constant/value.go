// Package constant provides compile-time constant values carried by bound
// expressions.
//
// Value is a sealed interface: only Null, Bool, Int, Float and String
// implement it. Consumers switch exhaustively over these five types.
package constant

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a sealed interface representing a statically known value.
type Value interface {
	constValue() // Sealed - only the types below implement it
	Kind() Kind
	String() string
}

// Kind identifies the dynamic type of a constant.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Null is the null constant.
type Null struct{}

func (Null) constValue()    {}
func (Null) Kind() Kind     { return KindNull }
func (Null) String() string { return "" }

// Bool is a boolean constant.
type Bool bool

func (Bool) constValue() {}
func (Bool) Kind() Kind  { return KindBool }

// String spells true as "1" and false as "", the way the runtime echoes them.
func (b Bool) String() string {
	if b {
		return "1"
	}
	return ""
}

// Int is a 64-bit integer constant.
type Int int64

func (Int) constValue()      {}
func (Int) Kind() Kind       { return KindInt }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Float is a double precision constant.
type Float float64

func (Float) constValue() {}
func (Float) Kind() Kind  { return KindFloat }

func (f Float) String() string {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return "NAN"
	case math.IsInf(v, 1):
		return "INF"
	case math.IsInf(v, -1):
		return "-INF"
	}
	return strconv.FormatFloat(v, 'G', 14, 64)
}

// String is a string constant.
type String string

func (String) constValue()      {}
func (String) Kind() Kind       { return KindString }
func (s String) String() string { return string(s) }

// Equal reports whether two constants are identical in kind and value.
// Floats compare by bit pattern so that NaN equals itself.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	if fa, ok := a.(Float); ok {
		return math.Float64bits(float64(fa)) == math.Float64bits(float64(b.(Float)))
	}
	return a == b
}

// FromGo converts a decoded Go value (as produced by YAML or JSON decoders)
// into a constant.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return Float(float64(val)), nil
		}
		return Int(int64(val)), nil
	case float64:
		return Float(val), nil
	case string:
		return String(val), nil
	case Value:
		return val, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", v)
	}
}

// ToBool converts a constant to its boolean interpretation.
func ToBool(v Value) bool {
	switch val := v.(type) {
	case Null:
		return false
	case Bool:
		return bool(val)
	case Int:
		return val != 0
	case Float:
		return val != 0
	case String:
		return val != "" && val != "0"
	default:
		return false
	}
}

// ToNumber converts a constant to Int or Float using numeric-prefix semantics
// for strings. Leading whitespace is skipped; a non-numeric string yields 0.
func ToNumber(v Value) Value {
	switch val := v.(type) {
	case Null:
		return Int(0)
	case Bool:
		if val {
			return Int(1)
		}
		return Int(0)
	case Int, Float:
		return val
	case String:
		return parseNumericPrefix(string(val))
	default:
		return Int(0)
	}
}

func parseNumericPrefix(s string) Value {
	num := numericPrefix(strings.TrimLeft(s, " \t\n\r\v\f"))
	if num == "" {
		return Int(0)
	}
	if !strings.ContainsAny(num, ".eE") {
		if n, err := strconv.ParseInt(num, 10, 64); err == nil {
			return Int(n)
		}
	}
	f, _ := strconv.ParseFloat(num, 64)
	return Float(f)
}

// ToFloat converts a constant to a float64.
func ToFloat(v Value) float64 {
	switch n := ToNumber(v).(type) {
	case Int:
		return float64(n)
	case Float:
		return float64(n)
	}
	return 0
}
