// Package syntax holds the parser output consumed by the binder.
//
// Parsing itself happens outside this module. Syntax trees arrive as YAML
// documents with one mapping per expression; the single key of the mapping
// names its shape:
//
//	main:
//	  - expr:
//	      assign:
//	        target: {var: a}
//	        value: {lit: 1}
//	  - echo: [{var: a}]
//
// Decoding is strict about keys, the way scenario files are: a misspelt key
// is a decode error, not a silently empty field. Structural gaps inside a
// well-formed document (a binary without a right operand, an unknown
// operator symbol) are left for the binder to diagnose.
package syntax

import (
	"fmt"

	"github.com/roach88/boundc/internal/constant"
)

// Shape names the syntactic form of an expression.
type Shape uint8

const (
	ShapeLiteral Shape = iota + 1
	ShapeVar
	ShapeUnary
	ShapeBinary
	ShapeAssign
	ShapeCompound
	ShapeInc
	ShapeCall
	ShapeNew
	ShapeTernary
)

var shapeKeys = map[string]Shape{
	"lit":      ShapeLiteral,
	"var":      ShapeVar,
	"unary":    ShapeUnary,
	"binary":   ShapeBinary,
	"assign":   ShapeAssign,
	"compound": ShapeCompound,
	"inc":      ShapeInc,
	"call":     ShapeCall,
	"new":      ShapeNew,
	"ternary":  ShapeTernary,
}

func (s Shape) String() string {
	for k, v := range shapeKeys {
		if v == s {
			return k
		}
	}
	return fmt.Sprintf("Shape(%d)", uint8(s))
}

// File is one decoded source file.
type File struct {
	// Path is the file the document was read from (set at load time).
	Path string `yaml:"-"`

	// Namespace qualifies unqualified function calls; calls fall back to
	// the global name when the qualified one is not declared.
	Namespace string `yaml:"namespace,omitempty"`

	Functions []*Function `yaml:"functions,omitempty"`
	Classes   []*Class    `yaml:"classes,omitempty"`
	Main      []*Stmt     `yaml:"main"`
}

// Function is a user function declaration.
type Function struct {
	Name    string   `yaml:"name"`
	Params  []*Param `yaml:"params,omitempty"`
	Returns string   `yaml:"returns,omitempty"`
	Body    []*Stmt  `yaml:"body"`
}

// Class is a user class declaration. Only its constructor signature is
// modelled.
type Class struct {
	Name   string   `yaml:"name"`
	Params []*Param `yaml:"params,omitempty"`
}

// Param is a formal parameter. Default must be a literal expression.
type Param struct {
	Name    string `yaml:"name"`
	ByRef   bool   `yaml:"byref,omitempty"`
	Type    string `yaml:"type,omitempty"`
	Default *Expr  `yaml:"default,omitempty"`
}

// Stmt is a statement: exactly one of Expr, Echo or Return.
type Stmt struct {
	Line   int     `yaml:"-"`
	Expr   *Expr   `yaml:"expr,omitempty"`
	Echo   []*Expr `yaml:"echo,omitempty"`
	Return *Expr   `yaml:"return,omitempty"`

	// IsReturn distinguishes a bare "return:" from an absent key.
	IsReturn bool `yaml:"-"`
}

// Expr is one expression. Exactly one shape field is set; Shape reports
// which.
type Expr struct {
	Line int `yaml:"-"`

	// Value is the literal's constant when Shape is ShapeLiteral.
	Value constant.Value `yaml:"-"`

	Var      string        `yaml:"var,omitempty"`
	Unary    *UnaryExpr    `yaml:"unary,omitempty"`
	Binary   *BinaryExpr   `yaml:"binary,omitempty"`
	Assign   *AssignExpr   `yaml:"assign,omitempty"`
	Compound *CompoundExpr `yaml:"compound,omitempty"`
	Inc      *IncExpr      `yaml:"inc,omitempty"`
	Call     *CallExpr     `yaml:"call,omitempty"`
	New      *NewExpr      `yaml:"new,omitempty"`
	Ternary  *TernaryExpr  `yaml:"ternary,omitempty"`

	shape Shape
}

// Shape reports the expression's form.
func (e *Expr) Shape() Shape { return e.shape }

// UnaryExpr is "op operand", including casts such as "(int)".
type UnaryExpr struct {
	Op      string `yaml:"op"`
	Operand *Expr  `yaml:"operand"`
}

// BinaryExpr is "left op right".
type BinaryExpr struct {
	Op    string `yaml:"op"`
	Left  *Expr  `yaml:"left"`
	Right *Expr  `yaml:"right"`
}

// AssignExpr is "target = value".
type AssignExpr struct {
	Target *Expr `yaml:"target"`
	Value  *Expr `yaml:"value"`
}

// CompoundExpr is "target op= value"; Op is the operator without "=".
type CompoundExpr struct {
	Op     string `yaml:"op"`
	Target *Expr  `yaml:"target"`
	Value  *Expr  `yaml:"value"`
}

// IncExpr is an increment or decrement; Kind is one of "++x", "--x",
// "x++", "x--".
type IncExpr struct {
	Kind   string `yaml:"kind"`
	Target *Expr  `yaml:"target"`
}

// CallExpr is a function call by name.
type CallExpr struct {
	Name string  `yaml:"name"`
	Args []*Expr `yaml:"args,omitempty"`
}

// NewExpr is a constructor call.
type NewExpr struct {
	Class string  `yaml:"class"`
	Args  []*Expr `yaml:"args,omitempty"`
}

// TernaryExpr is "cond ? then : else"; a nil Then is the short form.
type TernaryExpr struct {
	Cond *Expr `yaml:"cond"`
	Then *Expr `yaml:"then,omitempty"`
	Else *Expr `yaml:"else"`
}
