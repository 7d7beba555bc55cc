package syntax

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/boundc/internal/constant"
)

// LoadFile reads and decodes a syntax document from disk.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read syntax file: %w", err)
	}
	f, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// DecodeString decodes a syntax document held in memory.
func DecodeString(src string) (*File, error) {
	return Decode(strings.NewReader(src))
}

// Decode reads one syntax document. Unknown keys, expressions with zero or
// several shapes and missing declaration names are errors.
func Decode(r io.Reader) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty syntax document")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateFile(&f); err != nil {
		return nil, fmt.Errorf("invalid syntax document: %w", err)
	}
	return &f, nil
}

func validateFile(f *File) error {
	for i, fn := range f.Functions {
		if fn == nil || fn.Name == "" {
			return fmt.Errorf("functions[%d]: name is required", i)
		}
		if err := validateParams(fmt.Sprintf("function %s", fn.Name), fn.Params); err != nil {
			return err
		}
	}
	for i, c := range f.Classes {
		if c == nil || c.Name == "" {
			return fmt.Errorf("classes[%d]: name is required", i)
		}
		if err := validateParams(fmt.Sprintf("class %s", c.Name), c.Params); err != nil {
			return err
		}
	}
	return nil
}

func validateParams(owner string, params []*Param) error {
	for i, p := range params {
		if p == nil || p.Name == "" {
			return fmt.Errorf("%s: params[%d]: name is required", owner, i)
		}
		if p.Default != nil && p.Default.Shape() != ShapeLiteral {
			return fmt.Errorf("%s: parameter $%s: default must be a literal", owner, p.Name)
		}
	}
	return nil
}

var shapeFields = map[Shape][]string{
	ShapeUnary:    {"op", "operand"},
	ShapeBinary:   {"op", "left", "right"},
	ShapeAssign:   {"target", "value"},
	ShapeCompound: {"op", "target", "value"},
	ShapeInc:      {"kind", "target"},
	ShapeCall:     {"name", "args"},
	ShapeNew:      {"class", "args"},
	ShapeTernary:  {"cond", "then", "else"},
}

// UnmarshalYAML decodes an expression mapping, recording its source line
// and shape.
func (e *Expr) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expression must be a mapping", node.Line)
	}

	var shape Shape
	var lit *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		s, ok := shapeKeys[key.Value]
		if !ok {
			return fmt.Errorf("line %d: unknown expression shape %q", key.Line, key.Value)
		}
		if shape != 0 {
			return fmt.Errorf("line %d: expression has both %s and %s", key.Line, shape, s)
		}
		shape = s
		if s == ShapeLiteral {
			lit = val
			continue
		}
		if allowed := shapeFields[s]; allowed != nil {
			if err := checkKeys(val, s.String(), allowed); err != nil {
				return err
			}
		}
	}
	if shape == 0 {
		return fmt.Errorf("line %d: expression has no shape", node.Line)
	}

	type plain Expr
	if err := node.Decode((*plain)(e)); err != nil {
		return err
	}
	e.Line = node.Line
	e.shape = shape

	if lit != nil {
		v, err := decodeConstant(lit)
		if err != nil {
			return err
		}
		e.Value = v
	}
	if shape == ShapeVar && e.Var == "" {
		return fmt.Errorf("line %d: variable name is required", node.Line)
	}
	return nil
}

// UnmarshalYAML decodes a statement mapping, recording its source line.
func (s *Stmt) UnmarshalYAML(node *yaml.Node) error {
	if err := checkKeys(node, "statement", []string{"expr", "echo", "return"}); err != nil {
		return err
	}
	if len(node.Content) != 2 {
		return fmt.Errorf("line %d: statement must have exactly one of expr, echo, return", node.Line)
	}

	type plain Stmt
	if err := node.Decode((*plain)(s)); err != nil {
		return err
	}
	s.Line = node.Line
	s.IsReturn = node.Content[0].Value == "return"
	if node.Content[0].Value == "expr" && s.Expr == nil {
		return fmt.Errorf("line %d: expr statement is empty", node.Line)
	}
	return nil
}

func checkKeys(node *yaml.Node, what string, allowed []string) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: %s must be a mapping", node.Line, what)
	}
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		known := false
		for _, a := range allowed {
			if key.Value == a {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("line %d: field %s not found in %s", key.Line, key.Value, what)
		}
	}
	return nil
}

// decodeConstant maps a YAML scalar to a constant by its resolved tag.
func decodeConstant(n *yaml.Node) (constant.Value, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: literal must be a scalar", n.Line)
	}
	switch n.ShortTag() {
	case "!!null":
		return constant.Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return constant.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, fmt.Errorf("line %d: integer literal: %w", n.Line, err)
		}
		return constant.Int(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return constant.Float(f), nil
	case "!!str":
		return constant.String(n.Value), nil
	default:
		return nil, fmt.Errorf("line %d: unsupported literal tag %s", n.Line, n.ShortTag())
	}
}
