package dispatch

// faketypes_test.go implements a tiny, self-contained type lattice used
// only by this package's own tests, standing in for the real
// internal/typesystem.Ops adapter the evaluator wires up in production
// (see internal/typesystem/dispatchops.go). Keeping dispatch's tests
// independent of typesystem mirrors how the engine consumes intersection,
// subtype, and specificity as opaque primitives — the dispatch package
// must work against any conforming TypeOps, not just Funxy's own.
//
// Lattice: Int <: Real <: Number <: Any, String <: Any, Function <: Any.
// ftTypeOf wraps a concrete leaf the way Type{X} wraps a runtime type.
// ftVar is a free type variable; an unbound variable on the right of
// Subtype accepts anything.

type ftKind int

const (
	ftLeaf ftKind = iota
	ftVar
	ftUnion
	ftTypeOf
)

type ft struct {
	kind    ftKind
	name    string // leaf name, or tvar name
	members []ft   // union members
	of      *ft    // Type{X} wrapped type
}

var (
	ftInt      = ft{kind: ftLeaf, name: "Int"}
	ftReal     = ft{kind: ftLeaf, name: "Real"}
	ftNumber   = ft{kind: ftLeaf, name: "Number"}
	ftAny      = ft{kind: ftLeaf, name: "Any"}
	ftString   = ft{kind: ftLeaf, name: "String"}
	ftFunction = ft{kind: ftLeaf, name: "Function"}
	ftDataType = ft{kind: ftLeaf, name: "DataType"} // kind-level ANY-marker
)

// leafRank orders the Int<Real<Number<Any chain; String and Function only
// ever compare equal to themselves or Any.
var leafRank = map[string]int{"Int": 0, "Real": 1, "Number": 2, "Any": 3}

func ftUnionOf(members ...ft) ft { return ft{kind: ftUnion, members: members} }
func ftVarOf(name string) ft     { return ft{kind: ftVar, name: name} }
func ftTypeOfOf(of ft) ft        { return ft{kind: ftTypeOf, of: &of} }

// ftOps implements dispatch.TypeOps over ft.
type ftOps struct{}

func (ftOps) IsConcrete(t Type) bool {
	f := t.(ft)
	switch f.kind {
	case ftLeaf:
		return true
	default:
		return false
	}
}

func (ftOps) IsParametric(t Type) bool {
	f := t.(ft)
	switch f.kind {
	case ftVar:
		return true
	case ftUnion:
		for _, m := range f.members {
			if (ftOps{}).IsParametric(m) {
				return true
			}
		}
		return false
	case ftTypeOf:
		return (ftOps{}).IsParametric(*f.of)
	default:
		return false
	}
}

func (ftOps) IsVararg(t Type) bool { return false }

func (ftOps) IsUnion(t Type) bool {
	return t.(ft).kind == ftUnion
}

func (ftOps) IsTypeOfType(t Type) bool {
	return t.(ft).kind == ftTypeOf
}

func (ftOps) IsKind(t Type) bool {
	f := t.(ft)
	return f.kind == ftLeaf && f.name == "DataType"
}

func (ftOps) TypeOf(v Value) Type {
	fv := v.(ftValue)
	return fv.typ
}

func ftRank(name string) (int, bool) {
	r, ok := leafRank[name]
	return r, ok
}

func (o ftOps) Subtype(a, b Type) bool {
	af, bf := a.(ft), b.(ft)
	if bf.kind == ftVar {
		return true
	}
	if bf.kind == ftUnion {
		if af.kind == ftUnion {
			for _, m := range af.members {
				if !o.Subtype(m, bf) {
					return false
				}
			}
			return true
		}
		for _, m := range bf.members {
			if o.Subtype(af, m) {
				return true
			}
		}
		return false
	}
	if af.kind == ftUnion {
		for _, m := range af.members {
			if !o.Subtype(m, bf) {
				return false
			}
		}
		return true
	}
	if af.kind == ftVar {
		// a free variable on the left only matches an equally-free Any.
		return bf.kind == ftLeaf && bf.name == "Any"
	}
	if af.kind == ftTypeOf && bf.kind == ftTypeOf {
		return o.Subtype(*af.of, *bf.of)
	}
	if af.kind == ftTypeOf || bf.kind == ftTypeOf {
		return false
	}
	// both leaves
	if af.name == bf.name {
		return true
	}
	ar, aok := ftRank(af.name)
	br, bok := ftRank(bf.name)
	if aok && bok {
		return ar <= br
	}
	// String/Function only ever widen up to Any.
	return bf.name == "Any"
}

func (o ftOps) MoreSpecific(a, b Type) bool {
	return o.Subtype(a, b) && !o.EqualGeneric(a, b) && !o.Subtype(b, a)
}

func (o ftOps) EqualGeneric(a, b Type) bool {
	af, bf := a.(ft), b.(ft)
	if af.kind != bf.kind {
		return false
	}
	switch af.kind {
	case ftLeaf:
		return af.name == bf.name
	case ftVar:
		return true // bound type variables are interchangeable up to renaming
	case ftTypeOf:
		return o.EqualGeneric(*af.of, *bf.of)
	case ftUnion:
		if len(af.members) != len(bf.members) {
			return false
		}
		for i := range af.members {
			if !o.EqualGeneric(af.members[i], bf.members[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (o ftOps) Intersect(a, b Type) (Type, bool) {
	af, bf := a.(ft), b.(ft)
	if o.EqualGeneric(a, b) {
		return a, true
	}
	if af.kind == ftUnion {
		var kept []ft
		for _, m := range af.members {
			if inter, ok := o.Intersect(m, b); ok {
				kept = append(kept, inter.(ft))
			}
		}
		if len(kept) == 0 {
			return nil, false
		}
		if len(kept) == 1 {
			return kept[0], true
		}
		return ftUnionOf(kept...), true
	}
	if bf.kind == ftUnion {
		return o.Intersect(b, a)
	}
	if o.Subtype(a, b) {
		return a, true
	}
	if o.Subtype(b, a) {
		return b, true
	}
	if af.kind == ftVar {
		return b, true
	}
	if bf.kind == ftVar {
		return a, true
	}
	if af.kind == ftTypeOf && bf.kind == ftTypeOf {
		inner, ok := o.Intersect(*af.of, *bf.of)
		if !ok {
			return nil, false
		}
		it := inner.(ft)
		return ftTypeOfOf(it), true
	}
	return nil, false
}

func (o ftOps) Instantiate(t Type, env Env) Type {
	f := t.(ft)
	if f.kind == ftVar {
		if bound, ok := env.Get(f.name); ok {
			return bound
		}
	}
	return f
}

func (o ftOps) WrapAsTypeOf(v Value) Type {
	fv := v.(ftValue)
	return ftTypeOfOf(fv.typ.(ft))
}

func (o ftOps) String(t Type) string {
	f := t.(ft)
	switch f.kind {
	case ftLeaf:
		return f.name
	case ftVar:
		return f.name
	case ftTypeOf:
		return "Type{" + o.String(*f.of) + "}"
	case ftUnion:
		s := "("
		for i, m := range f.members {
			if i > 0 {
				s += "|"
			}
			s += o.String(m)
		}
		return s + ")"
	}
	return "?"
}

// ftValue is a runtime value tagged with its ft type, standing in for a
// Funxy evaluator.Object's RuntimeType() in production.
type ftValue struct {
	typ ft
}

func fv(t ft) ftValue { return ftValue{typ: t} }

func sig(ts ...ft) Signature {
	slots := make([]Type, len(ts))
	for i, t := range ts {
		slots[i] = t
	}
	return Signature{Slots: slots}
}

func varargSig(ts ...ft) Signature {
	s := sig(ts...)
	s.Vararg = true
	return s
}

func argTypes(ts ...ft) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}
