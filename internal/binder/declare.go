package binder

import (
	"errors"

	"github.com/roach88/boundc/internal/diag"
	"github.com/roach88/boundc/internal/symbols"
	"github.com/roach88/boundc/internal/syntax"
	"github.com/roach88/boundc/internal/typemask"
)

// Declare collects the functions and classes of f into t. It must run
// before t is frozen and before any routine body is bound. Duplicate
// declarations are reported and skipped.
func Declare(t *symbols.Table, f *syntax.File, rep *diag.Reporter) error {
	for _, fn := range f.Functions {
		m := symbols.NewMethod(qualify(f.Namespace, fn.Name), declareParams(fn.Params)...)
		if fn.Returns != "" {
			m.Returns = typemask.Parse(fn.Returns)
		}
		if err := t.DeclareFunction(m); err != nil {
			if reportDuplicate(rep, err) {
				continue
			}
			return err
		}
	}
	for _, c := range f.Classes {
		ctor := symbols.NewMethod("__construct", declareParams(c.Params)...)
		if err := t.DeclareClass(&symbols.Type{Name: c.Name, Ctor: ctor}); err != nil {
			if reportDuplicate(rep, err) {
				continue
			}
			return err
		}
	}
	return nil
}

func reportDuplicate(rep *diag.Reporter, err error) bool {
	var dup *symbols.DuplicateError
	if !errors.As(err, &dup) {
		return false
	}
	rep.Errorf(0, diag.ErrDuplicateDecl, "cannot redeclare %s %s()", dup.Kind, dup.Name)
	return true
}

func declareParams(params []*syntax.Param) []*symbols.Parameter {
	out := make([]*symbols.Parameter, 0, len(params))
	for _, p := range params {
		sp := &symbols.Parameter{Name: p.Name, ByRef: p.ByRef}
		if p.Type != "" {
			sp.Mask = typemask.Parse(p.Type)
		}
		if p.Default != nil {
			sp.Optional = true
			sp.Default = p.Default.Value
		}
		out = append(out, sp)
	}
	return out
}

// qualify prefixes an unqualified declaration name with the file
// namespace.
func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	q := symbols.ParseQualifiedName(name)
	if q.IsQualified() {
		return q.String()
	}
	return namespace + `\` + q.Name
}
