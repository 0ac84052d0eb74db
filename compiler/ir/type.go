package ir

type (
	ScalarKind uint8

	Scalar struct {
		Kind ScalarKind
	}

	Vec struct {
		Elem     Type
		Shape    []int
		Scalable bool
	}

	Mem struct {
		Elem    Type
		Strides []int64
	}
)

const (
	Unit ScalarKind = iota
	I1
	I8
	I16
	I32
	I64
	I128
	Index
	F16
	BF16
	F32
	F64
	Ptr
)

func (k ScalarKind) Bits() int {
	switch k {
	case I1:
		return 1
	case I8:
		return 8
	case I16, F16, BF16:
		return 16
	case I32, F32:
		return 32
	case I64, F64, Index, Ptr:
		return 64
	case I128:
		return 128
	}

	return 0
}

func (k ScalarKind) Float() bool {
	switch k {
	case F16, BF16, F32, F64:
		return true
	}

	return false
}

func (k ScalarKind) String() string {
	switch k {
	case Unit:
		return "unit"
	case I1:
		return "i1"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case I128:
		return "i128"
	case Index:
		return "index"
	case F16:
		return "f16"
	case BF16:
		return "bf16"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case Ptr:
		return "ptr"
	}

	return "?"
}

func (p *Package) Scalar(k ScalarKind) Type {
	if tp, ok := p.scalars[k]; ok {
		return tp
	}

	if p.scalars == nil {
		p.scalars = map[ScalarKind]Type{}
	}

	tp := p.AddType(Scalar{Kind: k})
	p.scalars[k] = tp

	return tp
}

func (p *Package) Vec(elem ScalarKind, scalable bool, shape ...int) Type {
	return p.AddType(Vec{Elem: p.Scalar(elem), Shape: shape, Scalable: scalable})
}

func (p *Package) ScalarKindOf(tp Type) (ScalarKind, bool) {
	if tp == Type(Nil) || int(tp) >= len(p.Exprs) {
		return Unit, false
	}

	s, ok := p.Exprs[tp].(Scalar)

	return s.Kind, ok
}

func (p *Package) VecOf(tp Type) (Vec, bool) {
	if tp == Type(Nil) || int(tp) >= len(p.Exprs) {
		return Vec{}, false
	}

	v, ok := p.Exprs[tp].(Vec)

	return v, ok
}

func (p *Package) MemOf(tp Type) (Mem, bool) {
	if tp == Type(Nil) || int(tp) >= len(p.Exprs) {
		return Mem{}, false
	}

	m, ok := p.Exprs[tp].(Mem)

	return m, ok
}
