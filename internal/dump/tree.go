package dump

import (
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/boundc/internal/bound"
	"github.com/roach88/boundc/internal/constant"
)

// Unit converts a bound unit into its snapshot value.
func Unit(u *bound.Unit) (Object, error) {
	routines := Array{}
	for _, r := range u.AllRoutines() {
		rv, err := Routine(r)
		if err != nil {
			return nil, fmt.Errorf("routine %s: %w", r.Name, err)
		}
		routines = append(routines, rv)
	}
	return Object{
		"path":     String(u.Path),
		"routines": routines,
	}, nil
}

// Routine converts one routine, its locals and its statements.
func Routine(r *bound.Routine) (Object, error) {
	locals := Array{}
	for _, v := range r.Locals {
		locals = append(locals, Object{
			"name":  String(v.Name),
			"kind":  String(v.Kind.String()),
			"index": Int(v.Index),
		})
	}
	body := Array{}
	for i, st := range r.Body {
		stmt := Object{
			"kind": String(st.Kind.String()),
			"line": Int(st.Line),
		}
		if st.Expr != nil {
			expr, err := node(r, st.Expr)
			if err != nil {
				return nil, fmt.Errorf("statement %d: %w", i, err)
			}
			stmt["expr"] = expr
		}
		body = append(body, stmt)
	}
	return Object{
		"name":   String(r.Name),
		"global": Bool(r.IsGlobal()),
		"locals": locals,
		"body":   body,
	}, nil
}

// Node converts a single expression tree. Lines are omitted since they
// belong to the enclosing routine.
func Node(n bound.Node) (Object, error) {
	return node(nil, n)
}

func node(r *bound.Routine, n bound.Node) (Object, error) {
	if n == nil {
		return nil, fmt.Errorf("nil node")
	}
	obj := describe(n)
	if r != nil {
		if line := r.LineOf(n); line > 0 {
			obj["line"] = Int(line)
		}
	}
	children := bound.Children(n)
	if len(children) > 0 {
		arr := make(Array, 0, len(children))
		for _, c := range children {
			cv, err := node(r, c)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", n.Kind(), err)
			}
			arr = append(arr, cv)
		}
		obj["children"] = arr
	}
	return obj, nil
}

// describe returns the fields of n itself, without line or children.
func describe(n bound.Node) Object {
	obj := Object{"kind": String(n.Kind().String())}
	if e, ok := n.(bound.Expr); ok {
		annotate(obj, e)
	}
	switch x := n.(type) {
	case *bound.Unary:
		obj["op"] = String(x.Op().String())
		if m, ok := x.Operator(); ok && m != nil {
			obj["operator"] = String(m.String())
		}
	case *bound.Binary:
		obj["op"] = String(x.Op().String())
		if m, ok := x.Operator(); ok && m != nil {
			obj["operator"] = String(m.String())
		}
	case *bound.LocalRef:
		obj["name"] = String(x.Name())
		if v, ok := x.Variable(); ok && v != nil {
			obj["variable"] = String(v.String())
		}
	case *bound.Call:
		obj["form"] = String(x.Form().String())
		switch x.Form() {
		case bound.CallNew:
			obj["name"] = String(x.TypeName().String())
		case bound.CallFunction:
			obj["name"] = String(x.Name().String())
		}
		if fb, ok := x.FallbackName(); ok {
			obj["fallback"] = String(fb.String())
		}
		if m, ok := x.Target(); ok && m != nil {
			obj["target"] = String(m.String())
		}
	case *bound.Assign:
		if op, ok := x.Op(); ok {
			obj["op"] = String(op.String())
		}
		if inc, ok := x.IncrementKind(); ok {
			obj["inc"] = String(inc.String())
		}
		if m, ok := x.Operator(); ok && m != nil {
			obj["operator"] = String(m.String())
		}
	case *bound.Conditional:
		obj["short"] = Bool(x.IsShort())
	case *bound.Argument:
		if p, ok := x.Parameter(); ok && p != nil {
			obj["parameter"] = String(p.String())
		}
	}
	return obj
}

func annotate(obj Object, e bound.Expr) {
	obj["access"] = String(e.Access().String())
	if m, ok := e.TypeMask(); ok {
		obj["mask"] = String(m.String())
	}
	if t, ok := e.ResultType(); ok && t != nil {
		obj["type"] = String(t.Name)
	}
	if v, ok := e.ConstantValue(); ok {
		obj["constant"] = Constant(v)
	}
	if e.IsInvalid() {
		obj["invalid"] = String(e.InvalidReason())
	}
}

// Constant converts a constant to {kind, value}. Floats are spelled in
// their shortest round-trip form so snapshots never lose precision.
func Constant(v constant.Value) Object {
	var spelling string
	switch c := v.(type) {
	case constant.Null:
		spelling = "null"
	case constant.Bool:
		spelling = strconv.FormatBool(bool(c))
	case constant.Float:
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			spelling = c.String()
		} else {
			spelling = strconv.FormatFloat(f, 'g', -1, 64)
		}
	default:
		spelling = v.String()
	}
	return Object{
		"kind":  String(v.Kind().String()),
		"value": String(spelling),
	}
}
