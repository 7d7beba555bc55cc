package constant

import (
	"errors"
	"math"
	"math/bits"
	"strings"
)

// ErrDivisionByZero is returned by Div and Mod for a zero divisor.
var ErrDivisionByZero = errors.New("division by zero")

// ErrNegativeShift is returned by the shift operators for a negative
// shift count.
var ErrNegativeShift = errors.New("bit shift by negative number")

// ToInt converts a constant to an integer. Floats truncate toward zero;
// NaN and infinities become 0.
func ToInt(v Value) int64 {
	switch n := ToNumber(v).(type) {
	case Int:
		return int64(n)
	case Float:
		f := float64(n)
		if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
			return 0
		}
		return int64(f)
	}
	return 0
}

// IsNumericString reports whether s, ignoring surrounding whitespace, is a
// complete integer or float literal.
func IsNumericString(s string) bool {
	t := strings.Trim(s, " \t\n\r\v\f")
	if t == "" {
		return false
	}
	return len(numericPrefix(t)) == len(t)
}

// numericPrefix returns the longest numeric prefix of s.
func numericPrefix(s string) string {
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		j := end + 1
		frac := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
			frac++
		}
		if digits+frac > 0 {
			end = j
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		j := end + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			end = k
		}
	}
	return s[:end]
}

func arith(a, b Value, ints func(x, y int64) (int64, bool), floats func(x, y float64) float64) Value {
	x, y := ToNumber(a), ToNumber(b)
	xi, xok := x.(Int)
	yi, yok := y.(Int)
	if xok && yok {
		if r, ok := ints(int64(xi), int64(yi)); ok {
			return Int(r)
		}
	}
	return Float(floats(ToFloat(x), ToFloat(y)))
}

// Add returns a + b with integer overflow promoting to float.
func Add(a, b Value) Value {
	return arith(a, b, func(x, y int64) (int64, bool) {
		r := x + y
		return r, (x >= 0) != (y >= 0) || (r >= 0) == (x >= 0)
	}, func(x, y float64) float64 { return x + y })
}

// Sub returns a - b with integer overflow promoting to float.
func Sub(a, b Value) Value {
	return arith(a, b, func(x, y int64) (int64, bool) {
		r := x - y
		return r, (x >= 0) == (y >= 0) || (r >= 0) == (x >= 0)
	}, func(x, y float64) float64 { return x - y })
}

// Mul returns a * b with integer overflow promoting to float.
func Mul(a, b Value) Value {
	return arith(a, b, func(x, y int64) (int64, bool) {
		if x == 0 || y == 0 {
			return 0, true
		}
		hi, lo := bits.Mul64(uint64(abs64(x)), uint64(abs64(y)))
		if hi != 0 || lo > math.MaxInt64 || x == math.MinInt64 || y == math.MinInt64 {
			return 0, false
		}
		r := int64(lo)
		if (x < 0) != (y < 0) {
			r = -r
		}
		return r, true
	}, func(x, y float64) float64 { return x * y })
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// Div returns a / b. Exact integer quotients stay integers.
func Div(a, b Value) (Value, error) {
	if ToFloat(b) == 0 {
		return nil, ErrDivisionByZero
	}
	return arith(a, b, func(x, y int64) (int64, bool) {
		if x%y != 0 || (x == math.MinInt64 && y == -1) {
			return 0, false
		}
		return x / y, true
	}, func(x, y float64) float64 { return x / y }), nil
}

// Mod returns the integer remainder of a / b, with the sign of a.
func Mod(a, b Value) (Value, error) {
	x, y := ToInt(a), ToInt(b)
	if y == 0 {
		return nil, ErrDivisionByZero
	}
	if y == -1 {
		return Int(0), nil
	}
	return Int(x % y), nil
}

// Pow returns a ** b. Integer powers with a non-negative exponent stay
// integers until they overflow.
func Pow(a, b Value) Value {
	return arith(a, b, func(x, y int64) (int64, bool) {
		if y < 0 {
			return 0, false
		}
		r := int64(1)
		for i := int64(0); i < y; i++ {
			next := Mul(Int(r), Int(x))
			n, ok := next.(Int)
			if !ok {
				return 0, false
			}
			r = int64(n)
			if r == 0 || r == 1 && x == 1 {
				break
			}
		}
		return r, true
	}, math.Pow)
}

// Concat joins the string forms of a and b.
func Concat(a, b Value) Value {
	return String(a.String() + b.String())
}

// BitAnd, BitOr and BitXor operate on integer conversions.
func BitAnd(a, b Value) Value { return Int(ToInt(a) & ToInt(b)) }
func BitOr(a, b Value) Value  { return Int(ToInt(a) | ToInt(b)) }
func BitXor(a, b Value) Value { return Int(ToInt(a) ^ ToInt(b)) }

// ShiftLeft returns a << b; shifts of 64 or more yield 0.
func ShiftLeft(a, b Value) (Value, error) {
	n := ToInt(b)
	if n < 0 {
		return nil, ErrNegativeShift
	}
	if n >= 64 {
		return Int(0), nil
	}
	return Int(ToInt(a) << uint(n)), nil
}

// ShiftRight returns the arithmetic shift a >> b.
func ShiftRight(a, b Value) (Value, error) {
	n := ToInt(b)
	if n < 0 {
		return nil, ErrNegativeShift
	}
	if n >= 64 {
		n = 63
	}
	return Int(ToInt(a) >> uint(n)), nil
}

// Negate returns -a.
func Negate(a Value) Value {
	switch n := ToNumber(a).(type) {
	case Int:
		if n == math.MinInt64 {
			return Float(-float64(n))
		}
		return -n
	case Float:
		return -n
	}
	return Int(0)
}

// Identical reports a === b: same kind and same value. Unlike Equal,
// NaN is not identical to itself.
func Identical(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	if fa, ok := a.(Float); ok {
		return float64(fa) == float64(b.(Float))
	}
	return a == b
}

// LooseEqual reports a == b under type-juggling comparison.
func LooseEqual(a, b Value) bool {
	if fa, ok := a.(Float); ok && math.IsNaN(float64(fa)) {
		return false
	}
	if fb, ok := b.(Float); ok && math.IsNaN(float64(fb)) {
		return false
	}
	return Compare(a, b) == 0
}

// Compare orders a and b the way the spaceship operator does, returning
// -1, 0 or 1.
func Compare(a, b Value) int {
	ak, bk := a.Kind(), b.Kind()
	switch {
	case ak == KindString && bk == KindString:
		sa, sb := string(a.(String)), string(b.(String))
		if IsNumericString(sa) && IsNumericString(sb) {
			return compareNumbers(ToNumber(a), ToNumber(b))
		}
		return strings.Compare(sa, sb)
	case ak == KindBool || bk == KindBool:
		return compareBools(ToBool(a), ToBool(b))
	case ak == KindNull && bk == KindString:
		return strings.Compare("", string(b.(String)))
	case ak == KindString && bk == KindNull:
		return strings.Compare(string(a.(String)), "")
	case ak == KindNull || bk == KindNull:
		return compareBools(ToBool(a), ToBool(b))
	case ak == KindString:
		if IsNumericString(string(a.(String))) {
			return compareNumbers(ToNumber(a), b)
		}
		return strings.Compare(string(a.(String)), b.String())
	case bk == KindString:
		if IsNumericString(string(b.(String))) {
			return compareNumbers(a, ToNumber(b))
		}
		return strings.Compare(a.String(), string(b.(String)))
	default:
		return compareNumbers(a, b)
	}
}

func compareBools(x, y bool) int {
	switch {
	case x == y:
		return 0
	case !x:
		return -1
	default:
		return 1
	}
}

func compareNumbers(a, b Value) int {
	ai, aok := a.(Int)
	bi, bok := b.(Int)
	if aok && bok {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	x, y := ToFloat(a), ToFloat(b)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// Increment returns the value following v: numbers and numeric strings
// grow by one, null becomes 1, other strings advance alphanumerically
// ("a" to "b", "Az" to "Ba", "zz" to "aaa"), booleans are unchanged.
func Increment(v Value) Value {
	switch x := v.(type) {
	case Null:
		return Int(1)
	case Bool:
		return x
	case Int, Float:
		return Add(x, Int(1))
	case String:
		s := string(x)
		if s == "" {
			return String("1")
		}
		if IsNumericString(s) {
			return Add(ToNumber(x), Int(1))
		}
		return String(incrementString(s))
	}
	return v
}

// Decrement returns the value preceding v. Null and non-numeric strings
// are unchanged; the empty string becomes -1.
func Decrement(v Value) Value {
	switch x := v.(type) {
	case Int, Float:
		return Sub(x, Int(1))
	case String:
		s := string(x)
		if s == "" {
			return Int(-1)
		}
		if IsNumericString(s) {
			return Sub(ToNumber(x), Int(1))
		}
	}
	return v
}

func incrementString(s string) string {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		c := b[i]
		switch {
		case c >= 'a' && c < 'z', c >= 'A' && c < 'Z', c >= '0' && c < '9':
			b[i]++
			return string(b)
		case c == 'z':
			b[i] = 'a'
		case c == 'Z':
			b[i] = 'A'
		case c == '9':
			b[i] = '0'
		default:
			return string(b)
		}
	}
	var first byte
	switch c := s[0]; {
	case c >= 'a' && c <= 'z':
		first = 'a'
	case c >= 'A' && c <= 'Z':
		first = 'A'
	default:
		first = '1'
	}
	return string(first) + string(b)
}
