package lower

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/smeltcc/smelt/compiler/convert"
	"github.com/smeltcc/smelt/compiler/intr"
	"github.com/smeltcc/smelt/compiler/ir"
	"github.com/smeltcc/smelt/compiler/tile"
)

type (
	target struct{}
)

// Package lowers every high-level tile op in pkg to intrinsics.
// Either all of them lower or the whole package fails.
func Package(ctx context.Context, p *ir.Package) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "lower: tile ops", "name", p.Path)
	defer tr.Finish("err", &err)

	for _, fid := range p.Funcs {
		f, ok := p.Exprs[fid].(*ir.Func)
		if !ok {
			return errors.New("not a func: %T (id %d)", p.Exprs[fid], fid)
		}

		err = convert.Apply(ctx, p, f, target{})
		if err != nil {
			return errors.Wrap(err, "func %v", f.Name)
		}
	}

	return nil
}

// Legal declares the whole high-level tile op set illegal and the
// placeholder, the emitted intrinsics, plain arithmetic and casts legal.
// Unknown ops are left alone.
func (target) Legal(x any) bool {
	switch x.(type) {
	case tile.Get, tile.Zero,
		tile.LoadSlice, tile.StoreSlice,
		tile.MoveToSlice, tile.MoveFromSlice,
		tile.OuterProduct, tile.StreamingVL:
		return false
	case tile.Materialize,
		intr.Zero, intr.SliceLS, intr.Read, intr.Write, intr.Mopa, intr.Cnts:
		return true
	case ir.Arg, ir.Imm, ir.Add, ir.Mul, ir.Splat, ir.Cast, ir.PtrAdd,
		ir.UnrealizedCast:
		return true
	}

	return true
}

// LegalType passes tile register types through unchanged: mid-conversion
// they are still in flight as operands of unconverted ops, and the
// placeholders holding them die as dead code afterwards. Other 2-D
// vectors have no lowered form.
func (target) LegalType(p *ir.Package, tp ir.Type) bool {
	v, ok := p.VecOf(tp)
	if !ok || len(v.Shape) != 2 {
		return true
	}

	return tile.IsTileType(p, tp)
}

func (target) Rewrite(ctx context.Context, w *convert.Rewriter, id ir.Expr, x any) error {
	switch x := x.(type) {
	case tile.Get:
		return lowerGet(w, id)
	case tile.Zero:
		return lowerZero(w, id, x)
	case tile.LoadSlice:
		return lowerLoadSlice(w, id, x)
	case tile.StoreSlice:
		return lowerStoreSlice(w, id, x)
	case tile.MoveToSlice:
		return lowerMoveToSlice(w, id, x)
	case tile.MoveFromSlice:
		return lowerMoveFromSlice(w, id, x)
	case tile.OuterProduct:
		return lowerOuterProduct(w, id, x)
	case tile.StreamingVL:
		return lowerStreamingVL(w, id, x)
	}

	return errors.New("no lowering rule")
}

// lowerGet replaces the tile producer with a fresh placeholder of the
// same type. No side effects.
func lowerGet(w *convert.Rewriter, id ir.Expr) error {
	ph := w.Emit(tile.Materialize{}, w.Pkg.EType[id])
	w.Replace(id, ph)

	return nil
}

// lowerZero emits the zero intrinsic with the mask for this tile's
// width and id. The intrinsic returns nothing; downstream consumers get
// a placeholder instead.
func lowerZero(w *convert.Rewriter, id ir.Expr, x tile.Zero) error {
	p := w.Pkg

	err := requireID(x.ID)
	if err != nil {
		return err
	}

	tp := p.EType[id]

	wd, ok := tile.WidthOfType(p, tp)
	if !ok {
		return errors.New("not a tile register type")
	}

	w.Emit(intr.Zero{Mask: tile.ZeroMask(wd, x.ID)}, p.Scalar(ir.Unit))

	ph := w.Emit(tile.Materialize{}, tp)
	w.Replace(id, ph)

	return nil
}

func lowerLoadSlice(w *convert.Rewriter, id ir.Expr, x tile.LoadSlice) error {
	p := w.Pkg

	err := requireID(x.ID)
	if err != nil {
		return err
	}

	wd, ok := tile.WidthOfType(p, p.EType[id])
	if !ok {
		return errors.New("not a tile register type")
	}

	ptr, err := stridedAddr(w, x.Base, x.Index)
	if err != nil {
		return errors.Wrap(err, "address")
	}

	s32 := narrowSlice(w, x.Slice)

	w.Emit(intr.SliceLS{
		ID:    intr.ForSlice(wd, x.Layout, true),
		Mask:  w.Operand(x.Mask),
		Ptr:   ptr,
		Tile:  x.ID,
		Slice: s32,
	}, p.Scalar(ir.Unit))

	// The intrinsic fills the register as a side effect. The tile value
	// flows through unchanged.
	w.Replace(id, w.Operand(x.Tile))

	return nil
}

func lowerStoreSlice(w *convert.Rewriter, id ir.Expr, x tile.StoreSlice) error {
	p := w.Pkg

	err := requireID(x.ID)
	if err != nil {
		return err
	}

	wd, ok := tile.WidthOfType(p, p.EType[x.Tile])
	if !ok {
		return errors.New("not a tile register type")
	}

	ptr, err := stridedAddr(w, x.Base, x.Index)
	if err != nil {
		return errors.Wrap(err, "address")
	}

	s32 := narrowSlice(w, x.Slice)

	st := w.Emit(intr.SliceLS{
		ID:    intr.ForSlice(wd, x.Layout, false),
		Mask:  w.Operand(x.Mask),
		Ptr:   ptr,
		Tile:  x.ID,
		Slice: s32,
	}, p.Scalar(ir.Unit))

	w.Replace(id, st)

	return nil
}

func lowerMoveToSlice(w *convert.Rewriter, id ir.Expr, x tile.MoveToSlice) error {
	p := w.Pkg

	err := requireID(x.ID)
	if err != nil {
		return err
	}

	v, ok := p.VecOf(p.EType[id])
	if !ok || len(v.Shape) != 2 {
		return errors.New("not a tile register type")
	}

	s32 := narrowSlice(w, x.Slice)
	mask := allTrue(w, v.Shape[0])

	var iid intr.ID

	switch x.Layout {
	case tile.Horizontal:
		iid = intr.WriteHoriz
	case tile.Vertical:
		iid = intr.WriteVert
	default:
		panic("bad layout")
	}

	w.Emit(intr.Write{
		ID:    iid,
		Tile:  x.ID,
		Slice: s32,
		Mask:  mask,
		Vec:   w.Operand(x.Vec),
	}, p.Scalar(ir.Unit))

	w.Replace(id, w.Operand(x.Tile))

	return nil
}

func lowerMoveFromSlice(w *convert.Rewriter, id ir.Expr, x tile.MoveFromSlice) error {
	p := w.Pkg

	err := requireID(x.ID)
	if err != nil {
		return err
	}

	sliceTp := p.EType[id]

	v, ok := p.VecOf(sliceTp)
	if !ok || len(v.Shape) != 1 {
		return errors.New("not a tile slice type")
	}

	elem, _ := p.ScalarKindOf(v.Elem)

	mask := allTrue(w, v.Shape[0])
	fb := splatImm(w, 0, elem, v.Shape[0])
	s32 := narrowSlice(w, x.Slice)

	var iid intr.ID

	switch x.Layout {
	case tile.Horizontal:
		iid = intr.ReadHoriz
	case tile.Vertical:
		iid = intr.ReadVert
	default:
		panic("bad layout")
	}

	// The read intrinsic is the one path with a genuine result.
	res := w.Emit(intr.Read{
		ID:       iid,
		Fallback: fb,
		Mask:     mask,
		Tile:     x.ID,
		Slice:    s32,
	}, sliceTp)

	w.Replace(id, res)

	return nil
}

func lowerOuterProduct(w *convert.Rewriter, id ir.Expr, x tile.OuterProduct) error {
	p := w.Pkg

	err := requireID(x.ID)
	if err != nil {
		return err
	}

	if x.Kind != tile.Add {
		return errors.New("unsupported kind")
	}

	resTp := p.EType[id]
	if !supportedOuterProductType(p, resTp) {
		return errors.New("unsupported type")
	}

	acc := x.Acc
	if acc == ir.Nil {
		// No accumulator supplied; seed one by zeroing the tile.
		// The zero op lowers on the next round.
		acc = w.Emit(tile.Zero{ID: x.ID}, resTp)
	} else {
		acc = w.Operand(acc)
	}

	lhsMask, rhsMask := x.LhsMask, x.RhsMask

	if lhsMask == ir.Nil || rhsMask == ir.Nil {
		lv, ok := p.VecOf(p.EType[x.Lhs])
		if !ok || len(lv.Shape) != 1 {
			return errors.New("unsupported type")
		}

		m := allTrue(w, lv.Shape[0])
		lhsMask, rhsMask = m, m
	} else {
		lhsMask = w.Operand(lhsMask)
		rhsMask = w.Operand(rhsMask)
	}

	w.Emit(intr.Mopa{
		Tile:    x.ID,
		LhsMask: lhsMask,
		RhsMask: rhsMask,
		Lhs:     w.Operand(x.Lhs),
		Rhs:     w.Operand(x.Rhs),
	}, p.Scalar(ir.Unit))

	// The intrinsic accumulates in place; consumers observe the
	// accumulator value, zeroed or caller-supplied.
	w.Replace(id, acc)

	return nil
}

func lowerStreamingVL(w *convert.Rewriter, id ir.Expr, x tile.StreamingVL) error {
	p := w.Pkg

	var iid intr.ID

	switch x.Size {
	case tile.Byte:
		iid = intr.CntsB
	case tile.Half:
		iid = intr.CntsH
	case tile.Word:
		iid = intr.CntsW
	case tile.Double:
		iid = intr.CntsD
	default:
		panic("bad type size")
	}

	cnt := w.Emit(intr.Cnts{ID: iid}, p.Scalar(ir.I64))
	ix := w.Emit(ir.Cast{V: cnt}, p.Scalar(ir.Index))

	w.Replace(id, ix)

	return nil
}

// supportedOuterProductType: 2-D, fully scalable, floating element, both
// dims the natural square extent for the element width.
func supportedOuterProductType(p *ir.Package, tp ir.Type) bool {
	v, ok := p.VecOf(tp)
	if !ok {
		return false
	}

	k, ok := p.ScalarKindOf(v.Elem)
	if !ok || !k.Float() {
		return false
	}

	return tile.IsTileType(p, tp)
}

func requireID(id tile.ID) error {
	if id == tile.NoID {
		return errors.New("expected tile id to be allocated before lowering")
	}

	return nil
}

// stridedAddr computes base + sum(index_i * stride_i) in elements.
func stridedAddr(w *convert.Rewriter, base ir.Expr, index []ir.Expr) (ir.Expr, error) {
	p := w.Pkg

	m, ok := p.MemOf(p.EType[base])
	if !ok {
		return ir.Nil, errors.New("not a memory base: %T", p.Exprs[p.EType[base]])
	}

	if len(index) != len(m.Strides) {
		return ir.Nil, errors.New("want %d indices, got %d", len(m.Strides), len(index))
	}

	ptr := w.Operand(base)
	off := ir.Nil

	for i, ix := range index {
		st := w.Emit(ir.Imm{Word: uint64(m.Strides[i])}, p.Scalar(ir.Index))
		mul := w.Emit(ir.Mul{L: w.Operand(ix), R: st}, p.Scalar(ir.Index))

		if off == ir.Nil {
			off = mul
			continue
		}

		off = w.Emit(ir.Add{L: off, R: mul}, p.Scalar(ir.Index))
	}

	if off == ir.Nil {
		return ptr, nil
	}

	return w.Emit(ir.PtrAdd{Ptr: ptr, Off: off}, p.EType[base]), nil
}

// narrowSlice casts the slice index to the i32 form intrinsics take.
func narrowSlice(w *convert.Rewriter, slice ir.Expr) ir.Expr {
	return w.Emit(ir.Cast{V: w.Operand(slice)}, w.Pkg.Scalar(ir.I32))
}

// allTrue builds an all-active predicate of n scalable lanes.
func allTrue(w *convert.Rewriter, n int) ir.Expr {
	return splatImm(w, 1, ir.I1, n)
}

func splatImm(w *convert.Rewriter, word uint64, elem ir.ScalarKind, n int) ir.Expr {
	p := w.Pkg

	c := w.Emit(ir.Imm{Word: word}, p.Scalar(elem))

	return w.Emit(ir.Splat{V: c}, p.Vec(elem, true, n))
}

// Pure reports ops safe to drop when unused. Intrinsics are kept
// unconditionally: they model register and memory effects.
func Pure(x any) bool {
	switch x.(type) {
	case tile.Materialize, tile.Get,
		ir.Arg, ir.Imm, ir.Add, ir.Mul, ir.Splat, ir.Cast, ir.PtrAdd,
		ir.UnrealizedCast:
		return true
	}

	return false
}
