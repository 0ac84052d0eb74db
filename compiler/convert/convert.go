package convert

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/smeltcc/smelt/compiler/ir"
	"github.com/smeltcc/smelt/compiler/set"
)

type (
	// Target declares which ops and types may remain after conversion
	// and supplies the rewrite rules for everything else.
	Target interface {
		Legal(x any) bool
		LegalType(p *ir.Package, tp ir.Type) bool
		Rewrite(ctx context.Context, w *Rewriter, id ir.Expr, x any) error
	}

	// Remappable is implemented by ops that reference other exprs.
	// RemapExprs returns a copy with operands passed through ren;
	// ops are never edited in place.
	Remappable interface {
		RemapExprs(ren func(ir.Expr) ir.Expr) (any, bool)
	}

	Rewriter struct {
		Pkg *ir.Package

		code   []ir.Expr
		rename map[ir.Expr]ir.Expr
	}
)

// Rules may emit ops that themselves need rewriting, so conversion runs
// in rounds. A rule set that keeps emitting illegal ops never converges;
// cap the rounds instead of spinning.
const maxRounds = 8

// Apply rewrites f until no illegal op remains. Any rule failure fails
// the whole function; there is no partial success.
func Apply(ctx context.Context, p *ir.Package, f *ir.Func, tgt Target) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "convert func", "name", f.Name, "ops", len(f.Code))
	defer tr.Finish("err", &err)

	w := &Rewriter{
		Pkg:    p,
		rename: map[ir.Expr]ir.Expr{},
	}

	for round := 0; ; round++ {
		if round >= maxRounds {
			return errors.New("no fixpoint after %d rounds", round)
		}

		code := make([]ir.Expr, 0, len(f.Code))

		for _, id := range f.Code {
			x := p.Exprs[id]

			if tgt.Legal(x) {
				code = append(code, id)
				continue
			}

			w.code = code

			err = tgt.Rewrite(ctx, w, id, x)
			if err != nil {
				return errors.Wrap(err, "%T (id %d)", x, id)
			}

			code = w.code
		}

		f.Code = code

		pending := 0

		for _, id := range f.Code {
			if !tgt.Legal(p.Exprs[id]) {
				pending++
			}
		}

		tr.V("round").Printw("convert round", "round", round, "ops", len(f.Code), "pending", pending)

		if pending == 0 {
			break
		}
	}

	return w.finish(f, tgt)
}

// finish resolves renamed operands and checks remaining types.
// Operands always precede their consumers, so one ordered pass settles
// every reference.
func (w *Rewriter) finish(f *ir.Func, tgt Target) error {
	p := w.Pkg

	for i, id := range f.Code {
		x := p.Exprs[id]

		if r, ok := x.(Remappable); ok {
			if y, changed := r.RemapExprs(w.ren); changed {
				nid := p.Alloc(y, p.EType[id])
				w.rename[id] = nid
				f.Code[i] = nid
				id = nid
			}
		}

		tp := p.EType[id]
		if tp != ir.Type(ir.Nil) && !tgt.LegalType(p, tp) {
			return errors.New("no type conversion for %T (id %d)", p.Exprs[id], id)
		}
	}

	for i, id := range f.Out {
		f.Out[i] = w.ren(id)
	}

	return nil
}

// Emit allocates a new op and schedules it in place of the op being
// rewritten.
func (w *Rewriter) Emit(x any, tp ir.Type) ir.Expr {
	id := w.Pkg.Alloc(x, tp)
	w.code = append(w.code, id)

	tlog.V("emit").Printw("emit", "id", id, "typ", tlog.NextAsType, x, "val", x, "from", loc.Caller(1))

	return id
}

// Replace records that consumers of old now observe new instead.
func (w *Rewriter) Replace(old, new ir.Expr) {
	w.rename[old] = new
}

// Operand resolves a source operand through earlier replacements.
func (w *Rewriter) Operand(x ir.Expr) ir.Expr {
	return w.ren(x)
}

func (w *Rewriter) ren(x ir.Expr) ir.Expr {
	for {
		y, ok := w.rename[x]
		if !ok {
			return x
		}

		x = y
	}
}

// EliminateDead drops unused pure ops, placeholders included. It is not
// part of conversion itself; callers run it once converted code settles.
func EliminateDead(ctx context.Context, p *ir.Package, f *ir.Func, pure func(any) bool) {
	tr := tlog.SpanFromContext(ctx)

	used := set.MakeBitmap(len(p.Exprs))

	for _, id := range f.Out {
		used.Set(int(id))
	}

	keep := make([]ir.Expr, 0, len(f.Code))

	for i := len(f.Code) - 1; i >= 0; i-- {
		id := f.Code[i]
		x := p.Exprs[id]

		if pure(x) && !used.IsSet(int(id)) {
			tr.V("dce").Printw("drop dead op", "id", id, "typ", tlog.NextAsType, x, "val", x)
			continue
		}

		if r, ok := x.(Remappable); ok {
			_, _ = r.RemapExprs(func(e ir.Expr) ir.Expr {
				if e != ir.Nil {
					used.Set(int(e))
				}

				return e
			})
		}

		keep = append(keep, id)
	}

	for l, r := 0, len(keep)-1; l < r; l, r = l+1, r-1 {
		keep[l], keep[r] = keep[r], keep[l]
	}

	f.Code = keep
}
