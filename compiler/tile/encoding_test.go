package tile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smeltcc/smelt/compiler/ir"
)

func TestBaseMask(t *testing.T) {
	assert.Equal(t, uint8(0b1111_1111), BaseMask(EW8))
	assert.Equal(t, uint8(0b0101_0101), BaseMask(EW16))
	assert.Equal(t, uint8(0b0001_0001), BaseMask(EW32))
	assert.Equal(t, uint8(0b0000_0001), BaseMask(EW64))
}

func TestBaseMaskNoQVariant(t *testing.T) {
	assert.Panics(t, func() { BaseMask(EW128) })
}

func TestZeroMask(t *testing.T) {
	assert.Equal(t, uint8(255), ZeroMask(EW8, 0))
	assert.Equal(t, uint8(0b0100_0100), ZeroMask(EW32, 2))

	// 0x55<<3 = 0x2a8, truncated to 8 bits
	assert.Equal(t, uint8(0b1010_1000), ZeroMask(EW16, 3))

	for id := ID(0); id < 8; id++ {
		assert.Equal(t, uint8(1)<<uint8(id), ZeroMask(EW64, id))
	}
}

func TestZeroMaskPure(t *testing.T) {
	assert.Equal(t, ZeroMask(EW32, 2), ZeroMask(EW32, 2))
}

func TestZeroMaskUnallocated(t *testing.T) {
	assert.Panics(t, func() { ZeroMask(EW32, NoID) })
}

func TestWidthOfType(t *testing.T) {
	p := &ir.Package{Path: "test"}

	for _, tc := range []struct {
		elem ir.ScalarKind
		n    int
		w    ElemWidth
	}{
		{ir.I8, 16, EW8},
		{ir.F16, 8, EW16},
		{ir.BF16, 8, EW16},
		{ir.F32, 4, EW32},
		{ir.I32, 4, EW32},
		{ir.F64, 2, EW64},
		{ir.I128, 1, EW128},
	} {
		tp := p.Vec(tc.elem, true, tc.n, tc.n)

		w, ok := WidthOfType(p, tp)
		assert.True(t, ok, "elem %v", tc.elem)
		assert.Equal(t, tc.w, w, "elem %v", tc.elem)
	}
}

func TestWidthOfTypeRejects(t *testing.T) {
	p := &ir.Package{Path: "test"}

	// fixed-length
	_, ok := WidthOfType(p, p.Vec(ir.F32, false, 4, 4))
	assert.False(t, ok)

	// 1-D
	_, ok = WidthOfType(p, p.Vec(ir.F32, true, 4))
	assert.False(t, ok)

	// wrong extent for the element width
	_, ok = WidthOfType(p, p.Vec(ir.F32, true, 8, 8))
	assert.False(t, ok)

	// not a vector
	_, ok = WidthOfType(p, p.Scalar(ir.F32))
	assert.False(t, ok)
}

func TestIDFromInt(t *testing.T) {
	id, err := IDFromInt(3)
	assert.NoError(t, err)
	assert.Equal(t, ID(3), id)

	_, err = IDFromInt(-1)
	assert.Error(t, err)

	_, err = IDFromInt(8)
	assert.Error(t, err)

	_, err = IDFromInt(1 << 20)
	assert.Error(t, err)
}
