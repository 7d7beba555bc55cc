package constant

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_ImplementsSealedInterface(t *testing.T) {
	values := []Value{Null{}, Bool(true), Int(1), Float(1.5), String("x")}
	kinds := []Kind{KindNull, KindBool, KindInt, KindFloat, KindString}

	for i, v := range values {
		assert.Equal(t, kinds[i], v.Kind())
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{Null{}, ""},
		{Bool(true), "1"},
		{Bool(false), ""},
		{Int(-42), "-42"},
		{Float(1.5), "1.5"},
		{Float(math.Inf(1)), "INF"},
		{String("hello"), "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Int(1), Int(1)))
	assert.False(t, Equal(Int(1), Float(1)), "different kinds never equal")
	assert.False(t, Equal(String("1"), Int(1)))
	assert.True(t, Equal(Float(math.NaN()), Float(math.NaN())), "NaN compares by bits")
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(Null{}, nil))
}

func TestFromGo(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  Value
	}{
		{"nil", nil, Null{}},
		{"bool", true, Bool(true)},
		{"int", 7, Int(7)},
		{"int64", int64(-3), Int(-3)},
		{"float", 2.25, Float(2.25)},
		{"string", "abc", String("abc")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := FromGo([]int{1})
	assert.Error(t, err)
}

func TestToBool(t *testing.T) {
	assert.False(t, ToBool(Null{}))
	assert.False(t, ToBool(String("0")))
	assert.False(t, ToBool(String("")))
	assert.True(t, ToBool(String("0.0")))
	assert.True(t, ToBool(Int(-1)))
	assert.False(t, ToBool(Float(0)))
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		in   Value
		want Value
	}{
		{String("12abc"), Int(12)},
		{String("  3.5"), Float(3.5)},
		{String("1e3"), Float(1000)},
		{String("abc"), Int(0)},
		{String("-7"), Int(-7)},
		{String("."), Int(0)},
		{Bool(true), Int(1)},
		{Null{}, Int(0)},
		{Float(2.5), Float(2.5)},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ToNumber(tt.in))
		})
	}
}
