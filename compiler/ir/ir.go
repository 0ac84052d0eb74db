package ir

type (
	Expr int
	Type Expr

	Package struct {
		Path string

		Funcs []Expr

		Exprs []any
		EType []Type

		scalars map[ScalarKind]Type
	}

	Func struct {
		Name string

		In  []Expr
		Out []Expr

		Code []Expr
	}

	Arg struct {
		N int
	}

	Imm struct {
		Word uint64
	}

	Add struct {
		L, R Expr
	}

	Mul struct {
		L, R Expr
	}

	Splat struct {
		V Expr
	}

	Cast struct {
		V Expr
	}

	PtrAdd struct {
		Ptr Expr
		Off Expr
	}

	// UnrealizedCast bridges a value into a structurally identical type
	// when no conversion rule would otherwise connect the two.
	UnrealizedCast struct {
		V Expr
	}
)

const (
	Nil Expr = -1
)

func (p *Package) Alloc(x any, tp Type) Expr {
	id := Expr(len(p.Exprs))
	p.Exprs = append(p.Exprs, x)
	p.EType = append(p.EType, tp)

	return id
}

func (p *Package) AddType(x any) Type {
	return Type(p.Alloc(x, Type(Nil)))
}

func (p *Package) AddFunc(f *Func) Expr {
	id := p.Alloc(f, Type(Nil))
	p.Funcs = append(p.Funcs, id)

	return id
}

func (x Add) RemapExprs(ren func(Expr) Expr) (any, bool) {
	y := Add{L: ren(x.L), R: ren(x.R)}
	return y, y != x
}

func (x Mul) RemapExprs(ren func(Expr) Expr) (any, bool) {
	y := Mul{L: ren(x.L), R: ren(x.R)}
	return y, y != x
}

func (x Splat) RemapExprs(ren func(Expr) Expr) (any, bool) {
	y := Splat{V: ren(x.V)}
	return y, y != x
}

func (x Cast) RemapExprs(ren func(Expr) Expr) (any, bool) {
	y := Cast{V: ren(x.V)}
	return y, y != x
}

func (x PtrAdd) RemapExprs(ren func(Expr) Expr) (any, bool) {
	y := PtrAdd{Ptr: ren(x.Ptr), Off: ren(x.Off)}
	return y, y != x
}

func (x UnrealizedCast) RemapExprs(ren func(Expr) Expr) (any, bool) {
	y := UnrealizedCast{V: ren(x.V)}
	return y, y != x
}
