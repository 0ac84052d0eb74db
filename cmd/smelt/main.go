package main

import (
	"context"
	"os"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/smeltcc/smelt/compiler/convert"
	"github.com/smeltcc/smelt/compiler/ir"
	"github.com/smeltcc/smelt/compiler/lower"
	"github.com/smeltcc/smelt/compiler/tile"
	"github.com/smeltcc/smelt/perf"
)

type benchConfig struct {
	Events []string
	Rounds int
}

func main() {
	lowerCmd := &cli.Command{
		Name:   "lower",
		Action: lowerAct,
		Args:   cli.Args{},
	}

	benchCmd := &cli.Command{
		Name:   "bench",
		Action: benchAct,
		Args:   cli.Args{},
	}

	app := &cli.Command{
		Name:        "smelt",
		Description: "smelt lowers tile programs to hardware intrinsics",
		Commands: []*cli.Command{
			lowerCmd,
			benchCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func lowerAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	p := demoPackage()

	err = lower.Package(ctx, p)
	if err != nil {
		return errors.Wrap(err, "lower")
	}

	for _, fid := range p.Funcs {
		f := p.Exprs[fid].(*ir.Func)

		convert.EliminateDead(ctx, p, f, lower.Pure)

		for i, id := range f.Code {
			x := p.Exprs[id]

			tlog.Printw("op", "func", f.Name, "i", i, "id", id, "typ", tlog.NextAsType, x, "val", x)
		}
	}

	return nil
}

func benchAct(c *cli.Command) (err error) {
	cfg := benchConfig{
		Events: []string{"cycles", perf.DummyEventName},
		Rounds: 100,
	}

	for _, a := range c.Args {
		_, err = toml.DecodeFile(a, &cfg)
		if err != nil {
			return errors.Wrap(err, "config %v", a)
		}
	}

	rounds, err := safecast.Conv[uint32](cfg.Rounds)
	if err != nil || rounds == 0 {
		return errors.New("bad rounds: %v", cfg.Rounds)
	}

	err = perf.Initialize()
	if err != nil {
		return errors.Wrap(err, "init counters")
	}
	defer perf.Terminate()

	for _, name := range cfg.Events {
		err = benchEvent(name, int(rounds))
		if err != nil {
			return errors.Wrap(err, "event %v", name)
		}
	}

	return nil
}

func benchEvent(name string, rounds int) (err error) {
	ev := perf.NewEvent(name)
	if !ev.Valid() {
		// proceed without real measurement
		ev = perf.NewEvent(perf.DummyEventName)
	}

	ctr, err := perf.NewCounter(ev, 0)
	if err != nil {
		return errors.Wrap(err, "open counter")
	}

	defer func() {
		e := ctr.Close()
		if err == nil {
			err = e
		}
	}()

	err = ctr.Start()
	if err != nil {
		return errors.Wrap(err, "start")
	}

	// no span in the context: rounds should measure the pass, not the logger
	ctx := context.Background()

	for i := 0; i < rounds; i++ {
		p := demoPackage()

		err = lower.Package(ctx, p)
		if err != nil {
			return errors.Wrap(err, "lower")
		}
	}

	err = ctr.Stop()
	if err != nil {
		return errors.Wrap(err, "stop")
	}

	vals, err := ctr.Read()
	if err != nil {
		return errors.Wrap(err, "read")
	}

	tlog.Printw("counter", "event", ev.Name, "rounds", rounds, "values", vals)

	return nil
}

// demoPackage builds one function exercising the whole tile op set.
func demoPackage() *ir.Package {
	p := &ir.Package{Path: "demo"}

	f := &ir.Func{Name: "kernel"}
	p.AddFunc(f)

	tileTp := p.Vec(ir.F32, true, 4, 4)
	sliceTp := p.Vec(ir.F32, true, 4)
	predTp := p.Vec(ir.I1, true, 4)
	memTp := p.AddType(ir.Mem{Elem: p.Scalar(ir.F32), Strides: []int64{4, 1}})

	base := p.Alloc(ir.Arg{N: 0}, memTp)
	lhs := p.Alloc(ir.Arg{N: 1}, sliceTp)
	rhs := p.Alloc(ir.Arg{N: 2}, sliceTp)
	f.In = []ir.Expr{base, lhs, rhs}

	emit := func(x any, tp ir.Type) ir.Expr {
		id := p.Alloc(x, tp)
		f.Code = append(f.Code, id)

		return id
	}

	vl := emit(tile.StreamingVL{Size: tile.Word}, p.Scalar(ir.Index))
	row := emit(ir.Imm{}, p.Scalar(ir.Index))
	col := emit(ir.Imm{}, p.Scalar(ir.Index))

	one := emit(ir.Imm{Word: 1}, p.Scalar(ir.I1))
	mask := emit(ir.Splat{V: one}, predTp)

	t0 := emit(tile.Get{}, tileTp)
	t1 := emit(tile.LoadSlice{
		Tile: t0, Base: base, Index: []ir.Expr{row, col},
		Mask: mask, Slice: row, Layout: tile.Horizontal, ID: 0,
	}, tileTp)

	acc := emit(tile.OuterProduct{
		Kind: tile.Add, Lhs: lhs, Rhs: rhs,
		Acc: t1, LhsMask: ir.Nil, RhsMask: ir.Nil, ID: 0,
	}, tileTp)

	z := emit(tile.Zero{ID: 1}, tileTp)
	emit(tile.MoveToSlice{
		Tile: z, Vec: lhs, Slice: row, Layout: tile.Horizontal, ID: 1,
	}, tileTp)

	out := emit(tile.MoveFromSlice{
		Tile: acc, Slice: row, Layout: tile.Vertical, ID: 0,
	}, sliceTp)

	emit(tile.StoreSlice{
		Tile: acc, Base: base, Index: []ir.Expr{row, col},
		Mask: mask, Slice: row, Layout: tile.Horizontal, ID: 0,
	}, p.Scalar(ir.Unit))

	f.Out = []ir.Expr{out, vl}

	return p
}
