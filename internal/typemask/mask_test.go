package typemask

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/boundc/internal/constant"
)

func TestMask_String(t *testing.T) {
	assert.Equal(t, "void", Mask(0).String())
	assert.Equal(t, "mixed", Any.String())
	assert.Equal(t, "int|float", Number.String())
	assert.Equal(t, "null|string", (Null | String).String())
}

func TestMask_Predicates(t *testing.T) {
	assert.True(t, Long.IsSingle())
	assert.False(t, Number.IsSingle())
	assert.True(t, Number.IsNumber())
	assert.True(t, Long.IsNumber())
	assert.False(t, (Long | String).IsNumber())
	assert.True(t, Number.Has(Long))
	assert.False(t, Long.Has(Number))
	assert.False(t, Long.Has(0), "empty set is never contained")
	assert.Equal(t, Long|String, Long.Union(String))
}

func TestParse(t *testing.T) {
	assert.Equal(t, Long, Parse("int"))
	assert.Equal(t, Long, Parse("Integer"))
	assert.Equal(t, Double, Parse("float"))
	assert.Equal(t, Object, Parse("object"))
	assert.Equal(t, Any, Parse("mixed"))
	assert.Equal(t, Mask(0), Parse("void"))
}

func TestOf(t *testing.T) {
	assert.Equal(t, Long, Of(constant.Int(1)))
	assert.Equal(t, Double, Of(constant.Float(1)))
	assert.Equal(t, String, Of(constant.String("")))
	assert.Equal(t, Bool, Of(constant.Bool(false)))
	assert.Equal(t, Null, Of(constant.Null{}))
}
