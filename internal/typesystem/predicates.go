package typesystem

// This file adds the subtype/intersection/specificity predicates the
// dispatch package's TypeOps collaborator needs. Before this, the only
// relation between two Types was strict, invariant Unify: two types either
// unified (possibly binding free variables) or they didn't, with no notion
// of one being "more general" than the other. Multiple dispatch needs that
// ordering, so these functions add it on top of the existing Type sum type,
// reusing Unify/UnifyAllowExtra and the Union/TCon helpers already in
// types.go and unify.go rather than inventing a parallel representation.

// Subtype reports whether a is at least as specific as b: every value of
// type a is also a legal value of type b. Used by dispatch to decide
// whether a concrete argument type satisfies a declared parameter type.
func Subtype(a, b Type) bool {
	return subtype(a, b, make(map[string]bool))
}

func subtype(a, b Type, seen map[string]bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	key := a.String() + " <: " + b.String()
	if seen[key] {
		return true // co-inductive: already assuming this holds up the stack
	}
	seen[key] = true

	a = ExpandTypeAlias(UnwrapUnderlying(a))
	b = ExpandTypeAlias(UnwrapUnderlying(b))

	// An unbound type variable on the right accepts anything: it is the
	// declared parameter's own generic placeholder, the least specific
	// slot a signature can have.
	if _, ok := b.(TVar); ok {
		return true
	}

	if bu, ok := b.(TUnion); ok {
		if au, ok := a.(TUnion); ok {
			for _, am := range au.Types {
				if !subtypeAny(am, bu.Types, seen) {
					return false
				}
			}
			return true
		}
		return subtypeAny(a, bu.Types, seen)
	}

	if au, ok := a.(TUnion); ok {
		// a union is a subtype of a non-union b only if every member is.
		for _, am := range au.Types {
			if !subtype(am, b, seen) {
				return false
			}
		}
		return true
	}

	if EqualGeneric(a, b) {
		return true
	}

	if ar, ok := a.(TRecord); ok {
		if br, ok := b.(TRecord); ok {
			return recordSubtype(ar, br)
		}
	}

	// Structural fallback: a is a subtype of b if b can be obtained from a
	// by binding a's own free variables (i.e. b is at least as general).
	if _, err := Unify(b, a); err == nil {
		return true
	}
	return false
}

func subtypeAny(a Type, candidates []Type, seen map[string]bool) bool {
	for _, c := range candidates {
		if subtype(a, c, seen) {
			return true
		}
	}
	return false
}

func recordSubtype(a, b TRecord) bool {
	for name, bt := range b.Fields {
		at, ok := a.Fields[name]
		if !ok {
			return false
		}
		if !Subtype(at, bt) {
			return false
		}
	}
	return true
}

// MoreSpecific reports whether a is strictly more specific than b: a is a
// subtype of b, but b is not also a subtype of a (which would make them
// equivalent rather than ordered).
func MoreSpecific(a, b Type) bool {
	return Subtype(a, b) && !Subtype(b, a)
}

// Intersect returns a type describing exactly the values that satisfy both
// a and b, and whether that set is non-empty. Used by the ambiguity
// analyzer to find the overlap between two method signatures.
func Intersect(a, b Type) (Type, bool) {
	if a == nil || b == nil {
		return nil, false
	}
	a = ExpandTypeAlias(UnwrapUnderlying(a))
	b = ExpandTypeAlias(UnwrapUnderlying(b))

	if EqualGeneric(a, b) {
		return a, true
	}
	if _, ok := a.(TVar); ok {
		return b, true
	}
	if _, ok := b.(TVar); ok {
		return a, true
	}
	if au, ok := a.(TUnion); ok {
		var members []Type
		for _, am := range au.Types {
			if inter, ok := Intersect(am, b); ok {
				members = append(members, inter)
			}
		}
		if len(members) == 0 {
			return nil, false
		}
		return NormalizeUnion(members), true
	}
	if bu, ok := b.(TUnion); ok {
		var members []Type
		for _, bm := range bu.Types {
			if inter, ok := Intersect(a, bm); ok {
				members = append(members, inter)
			}
		}
		if len(members) == 0 {
			return nil, false
		}
		return NormalizeUnion(members), true
	}
	if at, ok := a.(TTuple); ok {
		if bt, ok := b.(TTuple); ok {
			if len(at.Elements) != len(bt.Elements) {
				return nil, false
			}
			elems := make([]Type, len(at.Elements))
			for i := range at.Elements {
				inter, ok := Intersect(at.Elements[i], bt.Elements[i])
				if !ok {
					return nil, false
				}
				elems[i] = inter
			}
			return TTuple{Elements: elems}, true
		}
	}
	if s, err := Unify(a, b); err == nil {
		return a.Apply(s), true
	}
	return nil, false
}

// EqualGeneric reports whether a and b describe the same type up to
// consistent renaming of their free type variables (alpha-equivalence).
func EqualGeneric(a, b Type) bool {
	return equalGeneric(a, b, make(map[string]string), make(map[string]string))
}

func equalGeneric(a, b Type, fwd, bwd map[string]string) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch at := a.(type) {
	case TVar:
		bt, ok := b.(TVar)
		if !ok {
			return false
		}
		if mapped, ok := fwd[at.Name]; ok {
			return mapped == bt.Name
		}
		if _, taken := bwd[bt.Name]; taken {
			return false
		}
		fwd[at.Name] = bt.Name
		bwd[bt.Name] = at.Name
		return true
	case TCon:
		bt, ok := b.(TCon)
		return ok && at.Name == bt.Name && at.Module == bt.Module
	case TApp:
		bt, ok := b.(TApp)
		if !ok || len(at.Args) != len(bt.Args) {
			return false
		}
		if !equalGeneric(at.Constructor, bt.Constructor, fwd, bwd) {
			return false
		}
		for i := range at.Args {
			if !equalGeneric(at.Args[i], bt.Args[i], fwd, bwd) {
				return false
			}
		}
		return true
	case TTuple:
		bt, ok := b.(TTuple)
		if !ok || len(at.Elements) != len(bt.Elements) {
			return false
		}
		for i := range at.Elements {
			if !equalGeneric(at.Elements[i], bt.Elements[i], fwd, bwd) {
				return false
			}
		}
		return true
	case TUnion:
		bt, ok := b.(TUnion)
		if !ok || len(at.Types) != len(bt.Types) {
			return false
		}
		// Both sides are already normalized/sorted by NormalizeUnion when
		// constructed through it; compare positionally.
		for i := range at.Types {
			if !equalGeneric(at.Types[i], bt.Types[i], fwd, bwd) {
				return false
			}
		}
		return true
	case TRecord:
		bt, ok := b.(TRecord)
		if !ok || len(at.Fields) != len(bt.Fields) || at.IsOpen != bt.IsOpen {
			return false
		}
		for name, ft := range at.Fields {
			bft, ok := bt.Fields[name]
			if !ok || !equalGeneric(ft, bft, fwd, bwd) {
				return false
			}
		}
		return true
	case TFunc:
		bt, ok := b.(TFunc)
		if !ok || len(at.Params) != len(bt.Params) || at.IsVariadic != bt.IsVariadic {
			return false
		}
		for i := range at.Params {
			if !equalGeneric(at.Params[i], bt.Params[i], fwd, bwd) {
				return false
			}
		}
		return equalGeneric(at.ReturnType, bt.ReturnType, fwd, bwd)
	case TType:
		bt, ok := b.(TType)
		return ok && equalGeneric(at.Type, bt.Type, fwd, bwd)
	case TForall:
		bt, ok := b.(TForall)
		return ok && equalGeneric(at.Type, bt.Type, fwd, bwd)
	default:
		return a.String() == b.String()
	}
}

// IsConcreteType reports whether t has no free type variables and is not
// itself a union or meta-level (Type-of-Type) wrapper — the "fully settled,
// dispatchable as a single leaf" notion the TypeMap's fast path relies on.
func IsConcreteType(t Type) bool {
	if t == nil {
		return false
	}
	if len(t.FreeTypeVariables()) > 0 {
		return false
	}
	if _, ok := t.(TUnion); ok {
		return false
	}
	return true
}
