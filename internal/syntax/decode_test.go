package syntax

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundc/internal/constant"
)

const sample = `
namespace: App
functions:
  - name: add
    params:
      - {name: a}
      - {name: b, default: {lit: 0}}
    body:
      - return: {binary: {op: "+", left: {var: a}, right: {var: b}}}
classes:
  - name: Point
    params: [{name: x}]
main:
  - expr:
      assign:
        target: {var: a}
        value: {lit: 1}
  - echo: [{var: a}, {lit: "\n"}]
  - expr: {ternary: {cond: {var: a}, else: {lit: 2.5}}}
  - return:
`

func TestDecodeSample(t *testing.T) {
	f, err := DecodeString(sample)
	require.NoError(t, err)

	assert.Equal(t, "App", f.Namespace)
	require.Len(t, f.Functions, 1)
	fn := f.Functions[0]
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, constant.Int(0), fn.Params[1].Default.Value)
	require.Len(t, fn.Body, 1)
	assert.True(t, fn.Body[0].IsReturn)
	assert.Equal(t, ShapeBinary, fn.Body[0].Return.Shape())

	require.Len(t, f.Classes, 1)
	assert.Equal(t, "Point", f.Classes[0].Name)

	require.Len(t, f.Main, 4)
	assign := f.Main[0].Expr
	require.NotNil(t, assign)
	assert.Equal(t, ShapeAssign, assign.Shape())
	assert.Equal(t, "a", assign.Assign.Target.Var)
	assert.Equal(t, constant.Int(1), assign.Assign.Value.Value)
	assert.Equal(t, 14, f.Main[0].Line)

	require.Len(t, f.Main[1].Echo, 2)
	assert.Equal(t, constant.String("\n"), f.Main[1].Echo[1].Value)

	tern := f.Main[2].Expr.Ternary
	require.NotNil(t, tern)
	assert.Nil(t, tern.Then)
	assert.Equal(t, constant.Float(2.5), tern.Else.Value)

	assert.True(t, f.Main[3].IsReturn)
	assert.Nil(t, f.Main[3].Return)
}

func TestDecodeLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want constant.Value
	}{
		{"1", constant.Int(1)},
		{"-42", constant.Int(-42)},
		{"0x10", constant.Int(16)},
		{"1.5", constant.Float(1.5)},
		{`"1"`, constant.String("1")},
		{"abc", constant.String("abc")},
		{"true", constant.Bool(true)},
		{"false", constant.Bool(false)},
		{"null", constant.Null{}},
		{"~", constant.Null{}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			f, err := DecodeString("main:\n  - expr: {lit: " + tt.src + "}\n")
			require.NoError(t, err)
			assert.Equal(t, ShapeLiteral, f.Main[0].Expr.Shape())
			assert.Equal(t, tt.want, f.Main[0].Expr.Value)
		})
	}

	f, err := DecodeString("main:\n  - expr: {lit: .inf}\n")
	require.NoError(t, err)
	assert.True(t, math.IsInf(float64(f.Main[0].Expr.Value.(constant.Float)), 1))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown top-level field", "mian: []\n", "mian"},
		{"unknown shape", "main:\n  - expr: {variable: a}\n", `unknown expression shape "variable"`},
		{"two shapes", "main:\n  - expr: {var: a, lit: 1}\n", "expression has both"},
		{"no shape", "main:\n  - expr: {}\n", "expression has no shape"},
		{"misspelt field", "main:\n  - expr: {binary: {op: '+', lhs: {lit: 1}}}\n", "field lhs not found in binary"},
		{"two statement kinds", "main:\n  - {echo: [], return: {lit: 1}}\n", "exactly one"},
		{"function without name", "functions:\n  - body: []\nmain: []\n", "name is required"},
		{"non-literal default", "functions:\n  - name: f\n    params: [{name: a, default: {var: b}}]\n    body: []\nmain: []\n", "default must be a literal"},
		{"empty variable", "main:\n  - expr: {var: ''}\n", "variable name is required"},
		{"empty document", "", "empty syntax document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeString(tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMissingOperandsAreNotDecodeErrors(t *testing.T) {
	f, err := DecodeString("main:\n  - expr: {binary: {op: '+', left: {lit: 1}}}\n")
	require.NoError(t, err)
	assert.Nil(t, f.Main[0].Expr.Binary.Right)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
