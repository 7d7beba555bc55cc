package dump

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/boundc/internal/bound"
	"github.com/roach88/boundc/internal/constant"
	"github.com/roach88/boundc/internal/testutil"
	"github.com/roach88/boundc/internal/typemask"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"sorted keys", Object{"b": Int(2), "a": Int(1)}, `{"a":1,"b":2}`},
		{"nested", Object{"x": Array{Bool(true), String("y")}}, `{"x":[true,"y"]}`},
		{"no html escaping", String("<a&b>"), `"<a&b>"`},
		{"nfc", String("e\u0301"), "\"\u00e9\""},
		{"line separator", String("a\u2028b"), "\"a\u2028b\""},
		{"escaped backslash kept", String(`\u2028`), `"\\u2028"`},
		{"control characters", String("a\nb"), `"a\nb"`},
		{"negative", Int(-7), `-7`},
		{"empty object", Object{}, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonicalRejectsNull(t *testing.T) {
	_, err := MarshalCanonical(Object{"a": Array{nil}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `value for key "a"`)
	assert.Contains(t, err.Error(), "array[0]")
}

func TestSortedKeysUseUTF16Order(t *testing.T) {
	// U+1F600 encodes as a surrogate pair (0xD83D...) which sorts before
	// U+FB01 in UTF-16 but after it in UTF-8.
	obj := Object{"\uFB01": Int(1), "\U0001F600": Int(2), "a": Int(3)}
	assert.Equal(t, []string{"a", "\U0001F600", "\uFB01"}, obj.SortedKeys())
}

func TestHashDomainSeparation(t *testing.T) {
	v := Object{"k": String("v")}
	tree, err := Hash(DomainTree, v)
	require.NoError(t, err)
	again, err := Hash(DomainTree, Object{"k": String("v")})
	require.NoError(t, err)
	routine, err := Hash(DomainRoutine, v)
	require.NoError(t, err)

	assert.Len(t, tree, 64)
	assert.Equal(t, tree, again)
	assert.NotEqual(t, tree, routine)
}

func TestCBORRoundTrip(t *testing.T) {
	v := Object{
		"name":  String("main"),
		"count": Int(-3),
		"big":   Int(1 << 40),
		"flag":  Bool(false),
		"list":  Array{Int(1), Object{"z": String("")}},
	}
	data, err := MarshalCBOR(v)
	require.NoError(t, err)

	got, err := UnmarshalCBOR(data)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	// Canonical encoding does not depend on map construction order.
	other := Object{}
	for _, k := range []string{"list", "flag", "big", "count", "name"} {
		other[k] = v[k]
	}
	data2, err := MarshalCBOR(other)
	require.NoError(t, err)
	assert.Equal(t, data, data2)
}

func TestUnmarshalCBORRejectsGarbage(t *testing.T) {
	_, err := UnmarshalCBOR([]byte{0xff, 0x00})
	require.Error(t, err)
}

func TestConstantSpelling(t *testing.T) {
	tests := []struct {
		in   constant.Value
		kind string
		want string
	}{
		{constant.Null{}, "null", "null"},
		{constant.Bool(false), "bool", "false"},
		{constant.Int(42), "int", "42"},
		{constant.Float(0.1), "float", "0.1"},
		{constant.Float(1.0000000000000002), "float", "1.0000000000000002"},
		{constant.String("hi"), "string", "hi"},
	}
	for _, tt := range tests {
		got := Constant(tt.in)
		assert.Equal(t, String(tt.kind), got["kind"])
		assert.Equal(t, String(tt.want), got["value"])
	}
}

func sampleBinary(t *testing.T) *bound.Binary {
	t.Helper()
	one, err := bound.NewLiteral(constant.Int(1), bound.AccessRead)
	require.NoError(t, err)
	require.NoError(t, one.SetTypeMask(typemask.Long))
	two, err := bound.NewLiteral(constant.String("2"), bound.AccessRead)
	require.NoError(t, err)
	require.NoError(t, two.SetTypeMask(typemask.String))
	sum, err := bound.NewBinary(bound.OpAdd, one, two, bound.AccessRead)
	require.NoError(t, err)
	require.NoError(t, sum.SetTypeMask(typemask.Number))
	return sum
}

func TestNodeGolden(t *testing.T) {
	obj, err := Node(sampleBinary(t))
	require.NoError(t, err)
	data, err := MarshalCanonical(obj)
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "binary_node", append(data, '\n'))
}

func TestUnitSnapshot(t *testing.T) {
	src := `
functions:
  - name: twice
    params: [{name: x}]
    body:
      - return: {binary: {op: "*", left: {var: x}, right: {lit: 2}}}
main:
  - expr: {assign: {target: {var: a}, value: {call: {name: twice, args: [{lit: 4}]}}}}
  - echo: [{var: a}]
`
	unit := func() *bound.Unit {
		b := testutil.Bind(t, src)
		u := &bound.Unit{Path: "sample.yaml", Table: b.Table, Main: b.Main}
		for _, r := range b.Routines {
			u.Routines = append(u.Routines, r)
		}
		return u
	}

	first, err := TreeHash(unit())
	require.NoError(t, err)
	second, err := TreeHash(unit())
	require.NoError(t, err)
	assert.Equal(t, first, second, "binding is deterministic")

	u := unit()
	obj, err := Unit(u)
	require.NoError(t, err)
	routines, ok := obj["routines"].(Array)
	require.True(t, ok)
	require.Len(t, routines, 2)

	data, err := MarshalCBOR(obj)
	require.NoError(t, err)
	decoded, err := UnmarshalCBOR(data)
	require.NoError(t, err)
	assert.Equal(t, Value(obj), decoded)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, u))
	text := buf.String()
	assert.Contains(t, text, "routine twice")
	assert.Contains(t, text, "locals: $x#0(parameter)")
	assert.Contains(t, text, "Invocation form=function name=twice")
	assert.Contains(t, text, "target=twice")
	assert.Contains(t, text, "Binary op=*")
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		assert.NotContains(t, line, "INVALID", line)
	}
}

func TestWriteTextMarksInvalidNodes(t *testing.T) {
	sum := sampleBinary(t)
	sum.MarkInvalid("bad operands")
	r := &bound.Routine{
		Name: "main",
		Body: []bound.Statement{{Kind: bound.StmtExpr, Expr: sum, Line: 3}},
		Lines: map[bound.Node]int{sum: 3},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteRoutineText(&buf, r))
	assert.Equal(t, strings.Join([]string{
		"routine main",
		"  expr @3",
		"    Binary op=+ access=Read mask=int|float @3 INVALID(bad operands)",
		"      Literal access=Read mask=int const=int(1)",
		"      Literal access=Read mask=string const=string(2)",
		"",
	}, "\n"), buf.String())
}
