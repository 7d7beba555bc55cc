package interp

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/roach88/boundc/internal/constant"
	"github.com/roach88/boundc/internal/symbols"
)

// stdlib returns the implementations of the functions declared by the
// standard library.
func stdlib(table *symbols.Table) map[string]Builtin {
	return map[string]Builtin{
		"strlen": func(args []*Ref) (Value, error) {
			s, err := stringArg(args, 0, "string")
			if err != nil {
				return nil, err
			}
			return constant.Int(len(s)), nil
		},
		"strtoupper": func(args []*Ref) (Value, error) {
			s, err := stringArg(args, 0, "string")
			if err != nil {
				return nil, err
			}
			return constant.String(mapASCII(s, 'a', 'z', 'A'-'a')), nil
		},
		"strtolower": func(args []*Ref) (Value, error) {
			s, err := stringArg(args, 0, "string")
			if err != nil {
				return nil, err
			}
			return constant.String(mapASCII(s, 'A', 'Z', 'a'-'A')), nil
		},
		"str_repeat": func(args []*Ref) (Value, error) {
			s, err := stringArg(args, 0, "string")
			if err != nil {
				return nil, err
			}
			n, err := scalarArg(args, 1, "times")
			if err != nil {
				return nil, err
			}
			times := constant.ToInt(n)
			if times < 0 {
				return nil, errors.New("Argument #2 ($times) must be greater than or equal to 0")
			}
			return constant.String(strings.Repeat(s, int(times))), nil
		},
		"abs": func(args []*Ref) (Value, error) {
			v, err := scalarArg(args, 0, "num")
			if err != nil {
				return nil, err
			}
			switch n := constant.ToNumber(v).(type) {
			case constant.Int:
				if n < 0 {
					return constant.Negate(n), nil
				}
				return n, nil
			case constant.Float:
				return constant.Float(math.Abs(float64(n))), nil
			}
			return constant.Int(0), nil
		},
		"intdiv": func(args []*Ref) (Value, error) {
			a, err := scalarArg(args, 0, "num1")
			if err != nil {
				return nil, err
			}
			b, err := scalarArg(args, 1, "num2")
			if err != nil {
				return nil, err
			}
			x, y := constant.ToInt(a), constant.ToInt(b)
			switch {
			case y == 0:
				return nil, errors.New("Division by zero")
			case x == math.MinInt64 && y == -1:
				return nil, errors.New("Division of PHP_INT_MIN by -1 is not an integer")
			}
			return constant.Int(x / y), nil
		},
		"max": func(args []*Ref) (Value, error) { return extreme(args, 1) },
		"min": func(args []*Ref) (Value, error) { return extreme(args, -1) },
		"settype": func(args []*Ref) (Value, error) {
			if len(args) < 2 {
				return nil, errors.New("expects exactly 2 arguments")
			}
			v, err := scalarArg(args, 0, "var")
			if err != nil {
				return nil, err
			}
			t, err := stringArg(args, 1, "type")
			if err != nil {
				return nil, err
			}
			converted, err := convert(v, t)
			if err != nil {
				return nil, err
			}
			args[0].V = converted
			return constant.Bool(true), nil
		},
		"gettype": func(args []*Ref) (Value, error) {
			if len(args) == 0 {
				return nil, errors.New("expects exactly 1 argument, 0 given")
			}
			return constant.String(typeName(args[0].get())), nil
		},
		"is_null": func(args []*Ref) (Value, error) {
			if len(args) == 0 {
				return nil, errors.New("expects exactly 1 argument, 0 given")
			}
			return constant.Bool(isNull(args[0].get())), nil
		},
		"function_exists": func(args []*Ref) (Value, error) {
			name, err := stringArg(args, 0, "function")
			if err != nil {
				return nil, err
			}
			_, ok := table.LookupFunction(symbols.ParseQualifiedName(name))
			return constant.Bool(ok), nil
		},
	}
}

func scalarArg(args []*Ref, i int, name string) (constant.Value, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("Argument #%d ($%s) not passed", i+1, name)
	}
	v, ok := args[i].get().(constant.Value)
	if !ok {
		return nil, fmt.Errorf("Argument #%d ($%s) must be a scalar, object given", i+1, name)
	}
	return v, nil
}

func stringArg(args []*Ref, i int, name string) (string, error) {
	v, err := scalarArg(args, i, name)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func mapASCII(s string, lo, hi byte, delta int) string {
	b := []byte(s)
	for i, c := range b {
		if c >= lo && c <= hi {
			b[i] = byte(int(c) + delta)
		}
	}
	return string(b)
}

func extreme(args []*Ref, sign int) (Value, error) {
	if len(args) == 0 {
		return nil, errors.New("expects at least 1 argument, 0 given")
	}
	best, err := scalarArg(args, 0, "value")
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(args); i++ {
		v, err := scalarArg(args, i, "values")
		if err != nil {
			return nil, err
		}
		if constant.Compare(v, best)*sign > 0 {
			best = v
		}
	}
	return best, nil
}

func convert(v constant.Value, t string) (constant.Value, error) {
	switch strings.ToLower(t) {
	case "int", "integer":
		return constant.Int(constant.ToInt(v)), nil
	case "float", "double":
		return constant.Float(constant.ToFloat(v)), nil
	case "string":
		return constant.String(v.String()), nil
	case "bool", "boolean":
		return constant.Bool(constant.ToBool(v)), nil
	case "null":
		return constant.Null{}, nil
	}
	return nil, errors.New("Argument #2 ($type) must be a valid type")
}

func typeName(v Value) string {
	switch x := v.(type) {
	case *Object:
		return "object"
	case constant.Value:
		switch x.Kind() {
		case constant.KindNull:
			return "NULL"
		case constant.KindBool:
			return "boolean"
		case constant.KindInt:
			return "integer"
		case constant.KindFloat:
			return "double"
		case constant.KindString:
			return "string"
		}
	}
	return "unknown type"
}
