package tile

import (
	"github.com/smeltcc/smelt/compiler/ir"
)

type (
	// ID names a physical tile register at 64-bit granularity.
	// It must be allocated before lowering; NoID means it was not.
	ID int8

	ElemWidth uint8
	Layout    uint8
	TypeSize  uint8
	Kind      uint8

	// Get produces a fresh tile value for later operations to chain off of.
	Get struct{}

	// Materialize is a dataflow-only placeholder standing in for the
	// result of a side-effecting intrinsic. It folds away as dead code
	// once nothing consumes it.
	Materialize struct{}

	Zero struct {
		ID ID
	}

	LoadSlice struct {
		Tile   ir.Expr
		Base   ir.Expr
		Index  []ir.Expr
		Mask   ir.Expr
		Slice  ir.Expr
		Layout Layout
		ID     ID
	}

	StoreSlice struct {
		Tile   ir.Expr
		Base   ir.Expr
		Index  []ir.Expr
		Mask   ir.Expr
		Slice  ir.Expr
		Layout Layout
		ID     ID
	}

	MoveToSlice struct {
		Tile   ir.Expr
		Vec    ir.Expr
		Slice  ir.Expr
		Layout Layout
		ID     ID
	}

	MoveFromSlice struct {
		Tile   ir.Expr
		Slice  ir.Expr
		Layout Layout
		ID     ID
	}

	OuterProduct struct {
		Kind Kind

		Lhs, Rhs ir.Expr

		// Acc, LhsMask and RhsMask are ir.Nil when absent.
		Acc              ir.Expr
		LhsMask, RhsMask ir.Expr

		ID ID
	}

	StreamingVL struct {
		Size TypeSize
	}
)

const (
	NoID ID = -1
)

const (
	EW8 ElemWidth = iota
	EW16
	EW32
	EW64
	EW128
)

const (
	Horizontal Layout = iota
	Vertical
)

const (
	Byte TypeSize = iota
	Half
	Word
	Double
)

const (
	Add Kind = iota
	Sub
)

func (w ElemWidth) Bits() int {
	switch w {
	case EW8:
		return 8
	case EW16:
		return 16
	case EW32:
		return 32
	case EW64:
		return 64
	case EW128:
		return 128
	}

	return 0
}

func (w ElemWidth) String() string {
	switch w {
	case EW8:
		return "b"
	case EW16:
		return "h"
	case EW32:
		return "w"
	case EW64:
		return "d"
	case EW128:
		return "q"
	}

	return "?"
}

func (l Layout) String() string {
	switch l {
	case Horizontal:
		return "horiz"
	case Vertical:
		return "vert"
	}

	return "?"
}

func (s TypeSize) String() string {
	switch s {
	case Byte:
		return "byte"
	case Half:
		return "half"
	case Word:
		return "word"
	case Double:
		return "double"
	}

	return "?"
}

func (k Kind) String() string {
	switch k {
	case Add:
		return "add"
	case Sub:
		return "sub"
	}

	return "?"
}

func (x LoadSlice) RemapExprs(ren func(ir.Expr) ir.Expr) (any, bool) {
	y := x
	y.Tile = ren(x.Tile)
	y.Base = ren(x.Base)
	y.Mask = ren(x.Mask)
	y.Slice = ren(x.Slice)

	ichanged := false
	y.Index, ichanged = remapSlice(x.Index, ren)

	changed := ichanged || y.Tile != x.Tile || y.Base != x.Base || y.Mask != x.Mask || y.Slice != x.Slice

	return y, changed
}

func (x StoreSlice) RemapExprs(ren func(ir.Expr) ir.Expr) (any, bool) {
	y := x
	y.Tile = ren(x.Tile)
	y.Base = ren(x.Base)
	y.Mask = ren(x.Mask)
	y.Slice = ren(x.Slice)

	ichanged := false
	y.Index, ichanged = remapSlice(x.Index, ren)

	changed := ichanged || y.Tile != x.Tile || y.Base != x.Base || y.Mask != x.Mask || y.Slice != x.Slice

	return y, changed
}

func (x MoveToSlice) RemapExprs(ren func(ir.Expr) ir.Expr) (any, bool) {
	y := MoveToSlice{Tile: ren(x.Tile), Vec: ren(x.Vec), Slice: ren(x.Slice), Layout: x.Layout, ID: x.ID}
	return y, y != x
}

func (x MoveFromSlice) RemapExprs(ren func(ir.Expr) ir.Expr) (any, bool) {
	y := MoveFromSlice{Tile: ren(x.Tile), Slice: ren(x.Slice), Layout: x.Layout, ID: x.ID}
	return y, y != x
}

func (x OuterProduct) RemapExprs(ren func(ir.Expr) ir.Expr) (any, bool) {
	y := x
	y.Lhs = ren(x.Lhs)
	y.Rhs = ren(x.Rhs)
	y.Acc = renOpt(x.Acc, ren)
	y.LhsMask = renOpt(x.LhsMask, ren)
	y.RhsMask = renOpt(x.RhsMask, ren)

	return y, y != x
}

func remapSlice(s []ir.Expr, ren func(ir.Expr) ir.Expr) ([]ir.Expr, bool) {
	changed := false

	for _, x := range s {
		if ren(x) != x {
			changed = true
			break
		}
	}

	if !changed {
		return s, false
	}

	r := make([]ir.Expr, len(s))

	for i, x := range s {
		r[i] = ren(x)
	}

	return r, true
}

func renOpt(x ir.Expr, ren func(ir.Expr) ir.Expr) ir.Expr {
	if x == ir.Nil {
		return x
	}

	return ren(x)
}
