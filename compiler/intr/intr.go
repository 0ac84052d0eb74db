package intr

import (
	"fmt"

	"github.com/smeltcc/smelt/compiler/ir"
	"github.com/smeltcc/smelt/compiler/tile"
)

type (
	ID uint8

	// Zero resets the 64-bit sub-registers selected by Mask.
	Zero struct {
		Mask uint8
	}

	// SliceLS loads or stores one tile slice; ID picks the width and
	// layout variant. No result either way: a load fills the register.
	SliceLS struct {
		ID ID

		Mask  ir.Expr
		Ptr   ir.Expr
		Tile  tile.ID
		Slice ir.Expr
	}

	Read struct {
		ID ID

		Fallback ir.Expr
		Mask     ir.Expr
		Tile     tile.ID
		Slice    ir.Expr
	}

	Write struct {
		ID ID

		Tile  tile.ID
		Slice ir.Expr
		Mask  ir.Expr
		Vec   ir.Expr
	}

	Mopa struct {
		Tile tile.ID

		LhsMask, RhsMask ir.Expr
		Lhs, Rhs         ir.Expr
	}

	Cnts struct {
		ID ID
	}
)

const (
	Invalid ID = iota

	Ld1BHoriz
	Ld1HHoriz
	Ld1WHoriz
	Ld1DHoriz
	Ld1QHoriz
	Ld1BVert
	Ld1HVert
	Ld1WVert
	Ld1DVert
	Ld1QVert

	St1BHoriz
	St1HHoriz
	St1WHoriz
	St1DHoriz
	St1QHoriz
	St1BVert
	St1HVert
	St1WVert
	St1DVert
	St1QVert

	ReadHoriz
	ReadVert
	WriteHoriz
	WriteVert

	CntsB
	CntsH
	CntsW
	CntsD
)

// tables indexed by element width, then layout
var (
	ld1 = [5][2]ID{
		{Ld1BHoriz, Ld1BVert},
		{Ld1HHoriz, Ld1HVert},
		{Ld1WHoriz, Ld1WVert},
		{Ld1DHoriz, Ld1DVert},
		{Ld1QHoriz, Ld1QVert},
	}

	st1 = [5][2]ID{
		{St1BHoriz, St1BVert},
		{St1HHoriz, St1HVert},
		{St1WHoriz, St1WVert},
		{St1DHoriz, St1DVert},
		{St1QHoriz, St1QVert},
	}
)

// ForSlice selects the slice load or store variant. It is total over the
// five element widths and two layouts; anything else is a caller bug.
func ForSlice(w tile.ElemWidth, l tile.Layout, load bool) ID {
	if w > tile.EW128 || l > tile.Vertical {
		panic(fmt.Sprintf("no slice intrinsic for width %v layout %v", w, l))
	}

	if load {
		return ld1[w][l]
	}

	return st1[w][l]
}

func (id ID) String() string {
	switch id {
	case ReadHoriz:
		return "read.horiz"
	case ReadVert:
		return "read.vert"
	case WriteHoriz:
		return "write.horiz"
	case WriteVert:
		return "write.vert"
	case CntsB:
		return "cntsb"
	case CntsH:
		return "cntsh"
	case CntsW:
		return "cntsw"
	case CntsD:
		return "cntsd"
	}

	if id >= Ld1BHoriz && id <= St1QVert {
		op, v := "ld1", id-Ld1BHoriz
		if id >= St1BHoriz {
			op, v = "st1", id-St1BHoriz
		}

		return op + tile.ElemWidth(v%5).String() + "." + tile.Layout(v/5).String()
	}

	return "?"
}

func (x SliceLS) RemapExprs(ren func(ir.Expr) ir.Expr) (any, bool) {
	y := SliceLS{ID: x.ID, Mask: ren(x.Mask), Ptr: ren(x.Ptr), Tile: x.Tile, Slice: ren(x.Slice)}
	return y, y != x
}

func (x Read) RemapExprs(ren func(ir.Expr) ir.Expr) (any, bool) {
	y := Read{ID: x.ID, Fallback: ren(x.Fallback), Mask: ren(x.Mask), Tile: x.Tile, Slice: ren(x.Slice)}
	return y, y != x
}

func (x Write) RemapExprs(ren func(ir.Expr) ir.Expr) (any, bool) {
	y := Write{ID: x.ID, Tile: x.Tile, Slice: ren(x.Slice), Mask: ren(x.Mask), Vec: ren(x.Vec)}
	return y, y != x
}

func (x Mopa) RemapExprs(ren func(ir.Expr) ir.Expr) (any, bool) {
	y := Mopa{Tile: x.Tile, LhsMask: ren(x.LhsMask), RhsMask: ren(x.RhsMask), Lhs: ren(x.Lhs), Rhs: ren(x.Rhs)}
	return y, y != x
}
