package tile

import (
	"fmt"

	"fortio.org/safecast"
	"tlog.app/go/errors"

	"github.com/smeltcc/smelt/compiler/ir"
)

// MinVecBits is the minimum streaming vector length. A tile holds
// MinVecBits/elemBits rows of MinVecBits/elemBits elements each.
const MinVecBits = 128

// BaseMask returns the 8-bit mask selecting the underlying 64-bit
// sub-registers touched by zeroing tile 0 of the given element width.
// Masks follow the hardware register layout: an 8-bit tile overlays all
// eight 64-bit sub-registers, a 16-bit tile every second one, and so on.
// There is no zero variant at 128-bit width.
func BaseMask(w ElemWidth) uint8 {
	switch w {
	case EW8:
		return 0b1111_1111
	case EW16:
		return 0b0101_0101
	case EW32:
		return 0b0001_0001
	case EW64:
		return 0b0000_0001
	}

	panic(fmt.Sprintf("no zero mask for element width %v", w))
}

// ZeroMask is BaseMask shifted by the tile id, truncated to 8 bits.
// The id is the index of the tile among tiles of its width, so the shift
// moves the base pattern onto the sub-registers that tile occupies.
func ZeroMask(w ElemWidth, id ID) uint8 {
	if id < 0 {
		panic("tile id not allocated")
	}

	return BaseMask(w) << uint8(id)
}

func WidthOfBits(bits int) (ElemWidth, bool) {
	switch bits {
	case 8:
		return EW8, true
	case 16:
		return EW16, true
	case 32:
		return EW32, true
	case 64:
		return EW64, true
	case 128:
		return EW128, true
	}

	return 0, false
}

// IsTileType reports whether tp is a 2-D all-scalable vector spanning
// exactly one tile register: both dims equal MinVecBits / elemBits.
func IsTileType(p *ir.Package, tp ir.Type) bool {
	_, ok := WidthOfType(p, tp)
	return ok
}

// WidthOfType returns the element width of a tile register type.
func WidthOfType(p *ir.Package, tp ir.Type) (ElemWidth, bool) {
	v, ok := p.VecOf(tp)
	if !ok || !v.Scalable || len(v.Shape) != 2 {
		return 0, false
	}

	k, ok := p.ScalarKindOf(v.Elem)
	if !ok {
		return 0, false
	}

	w, ok := WidthOfBits(k.Bits())
	if !ok {
		return 0, false
	}

	n := MinVecBits / k.Bits()
	if v.Shape[0] != n || v.Shape[1] != n {
		return 0, false
	}

	return w, true
}

// IDFromInt narrows an externally supplied tile identifier.
func IDFromInt(v int64) (ID, error) {
	id, err := safecast.Conv[int8](v)
	if err != nil {
		return NoID, errors.Wrap(err, "tile id")
	}

	if id < 0 || id > 7 {
		return NoID, errors.New("tile id out of range: %v", v)
	}

	return ID(id), nil
}
