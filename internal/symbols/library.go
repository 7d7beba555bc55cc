package symbols

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/boundc/internal/constant"
	"github.com/roach88/boundc/internal/typemask"
)

//go:embed stdlib.cue
var stdlibCUE string

// LoadError represents a library declaration error with source position.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadStdlib declares the built-in library shipped with the compiler.
func LoadStdlib(t *Table) error {
	return LoadLibraryString(t, "stdlib.cue", stdlibCUE)
}

// LoadLibraryString compiles CUE source and declares its functions and
// classes into t.
func LoadLibraryString(t *Table, filename, src string) error {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	return DeclareLibrary(t, v)
}

// LoadLibraryDir loads every .cue file in dir as one CUE instance and
// declares its contents into t.
func LoadLibraryDir(t *Table, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("library directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("library directory: not a directory: %s", dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	if err := instances[0].Err; err != nil {
		return formatCUEError(err)
	}
	return DeclareLibrary(t, ctx.BuildInstance(instances[0]))
}

// DeclareLibrary walks a CUE value of the form
//
//	function: <name>: {params: [...], returns: "<type>"}
//	class: <name>: {ctor: params: [...]}
//
// and declares each entry into t.
func DeclareLibrary(t *Table, v cue.Value) error {
	if err := v.Err(); err != nil {
		return formatCUEError(err)
	}

	fnVal := v.LookupPath(cue.ParsePath("function"))
	if fnVal.Exists() {
		iter, err := fnVal.Fields()
		if err != nil {
			return formatCUEError(err)
		}
		for iter.Next() {
			m, err := compileMethod(iter.Label(), iter.Value())
			if err != nil {
				return err
			}
			if err := t.DeclareFunction(m); err != nil {
				return &LoadError{Field: "function." + m.Name, Message: err.Error(), Pos: iter.Value().Pos()}
			}
		}
	}

	classVal := v.LookupPath(cue.ParsePath("class"))
	if classVal.Exists() {
		iter, err := classVal.Fields()
		if err != nil {
			return formatCUEError(err)
		}
		for iter.Next() {
			name := iter.Label()
			class := &Type{Name: name, Mask: typemask.Object}
			ctorVal := iter.Value().LookupPath(cue.ParsePath("ctor"))
			if ctorVal.Exists() {
				ctor, err := compileMethod("__construct", ctorVal)
				if err != nil {
					return err
				}
				class.Ctor = ctor
			}
			if err := t.DeclareClass(class); err != nil {
				return &LoadError{Field: "class." + name, Message: err.Error(), Pos: iter.Value().Pos()}
			}
		}
	}

	return nil
}

// compileMethod parses a routine signature.
func compileMethod(name string, v cue.Value) (*Method, error) {
	var params []*Parameter

	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if paramsVal.Exists() {
		iter, err := paramsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			p, err := compileParameter(iter.Value())
			if err != nil {
				return nil, err
			}
			params = append(params, p)
		}
	}

	m := NewMethod(name, params...)

	if retVal := v.LookupPath(cue.ParsePath("returns")); retVal.Exists() {
		ret, err := retVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		m.Returns = typemask.Parse(ret)
	}

	if varVal := v.LookupPath(cue.ParsePath("variadic")); varVal.Exists() {
		variadic, err := varVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		m.Variadic = variadic
	}

	seenOptional := false
	for _, p := range m.Params {
		if p.Optional {
			seenOptional = true
		} else if seenOptional {
			return nil, &LoadError{
				Field:   name + ".params",
				Message: fmt.Sprintf("required parameter $%s follows an optional one", p.Name),
				Pos:     v.Pos(),
			}
		}
	}

	return m, nil
}

func compileParameter(v cue.Value) (*Parameter, error) {
	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &LoadError{Field: "param", Message: "parameter name is required", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}

	p := &Parameter{Name: name, Mask: typemask.Any}

	if typeVal := v.LookupPath(cue.ParsePath("type")); typeVal.Exists() {
		typeName, err := typeVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		p.Mask = typemask.Parse(typeName)
	}

	if refVal := v.LookupPath(cue.ParsePath("byref")); refVal.Exists() {
		if p.ByRef, err = refVal.Bool(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	if optVal := v.LookupPath(cue.ParsePath("optional")); optVal.Exists() {
		if p.Optional, err = optVal.Bool(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	if defVal := v.LookupPath(cue.ParsePath("default")); defVal.Exists() {
		def, err := decodeDefault(defVal)
		if err != nil {
			return nil, err
		}
		p.Default = def
		p.Optional = true
	}

	return p, nil
}

func decodeDefault(v cue.Value) (constant.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return constant.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return constant.Bool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return constant.Int(n), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return constant.Float(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return constant.String(s), nil
	default:
		return nil, &LoadError{
			Field:   "default",
			Message: fmt.Sprintf("unsupported default kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &LoadError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
