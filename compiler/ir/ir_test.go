package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScalarCached(t *testing.T) {
	p := &Package{}

	a := p.Scalar(F32)
	b := p.Scalar(F32)
	c := p.Scalar(I32)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestScalarKindBits(t *testing.T) {
	assert.Equal(t, 1, I1.Bits())
	assert.Equal(t, 8, I8.Bits())
	assert.Equal(t, 16, BF16.Bits())
	assert.Equal(t, 32, F32.Bits())
	assert.Equal(t, 64, Index.Bits())
	assert.Equal(t, 128, I128.Bits())
	assert.Equal(t, 0, Unit.Bits())
}

func TestTypeQueries(t *testing.T) {
	p := &Package{}

	s := p.Scalar(F64)
	v := p.Vec(F64, true, 2, 2)
	m := p.AddType(Mem{Elem: s, Strides: []int64{2, 1}})

	k, ok := p.ScalarKindOf(s)
	assert.True(t, ok)
	assert.Equal(t, F64, k)

	vv, ok := p.VecOf(v)
	assert.True(t, ok)
	assert.Equal(t, []int{2, 2}, vv.Shape)
	assert.True(t, vv.Scalable)

	mm, ok := p.MemOf(m)
	assert.True(t, ok)
	assert.Equal(t, []int64{2, 1}, mm.Strides)

	_, ok = p.VecOf(s)
	assert.False(t, ok)

	_, ok = p.ScalarKindOf(Type(Nil))
	assert.False(t, ok)
}

func TestRemapExprsUnchanged(t *testing.T) {
	idn := func(x Expr) Expr { return x }

	for _, x := range []interface {
		RemapExprs(func(Expr) Expr) (any, bool)
	}{
		Add{L: 1, R: 2},
		Mul{L: 1, R: 2},
		Splat{V: 3},
		Cast{V: 3},
		PtrAdd{Ptr: 1, Off: 2},
		UnrealizedCast{V: 3},
	} {
		y, changed := x.RemapExprs(idn)
		assert.False(t, changed)
		assert.Equal(t, any(x), y)
	}
}
