// Package dispatch implements the multiple-dispatch method table and call
// engine for Funxy generic functions: per-function method tables, the
// specialization/instantiation cache, definition-time ambiguity and
// shadowing analysis, and the call-site inline cache used by the
// generic-apply entry point.
//
// The package never constructs or inspects a concrete type representation
// itself; everything it knows about types comes through TypeOps, the
// collaborator a type system implements (see internal/typesystem for the
// Funxy adapter). This mirrors the "opaque values supplied by the type
// system" data model: Type and Value below are deliberately empty
// interfaces.
package dispatch

// Type is an opaque handle onto a value of the collaborating type system.
// dispatch never type-switches on it directly; all inspection goes through
// TypeOps.
type Type = interface{}

// Value is an opaque runtime value (a Funxy Object, in practice).
type Value = interface{}

// Env is an ordered mapping from a type variable name to the Type it was
// bound to during intersection. Kept as an ordered slice (not a map) so two
// Envs can be compared and printed deterministically.
type Env struct {
	pairs []envPair
}

type envPair struct {
	TVar    string
	Binding Type
}

// Bind appends (or overwrites, if tvar is already bound) a binding.
func (e *Env) Bind(tvar string, t Type) {
	for i := range e.pairs {
		if e.pairs[i].TVar == tvar {
			e.pairs[i].Binding = t
			return
		}
	}
	e.pairs = append(e.pairs, envPair{TVar: tvar, Binding: t})
}

// Get returns the binding for tvar, if any.
func (e Env) Get(tvar string) (Type, bool) {
	for _, p := range e.pairs {
		if p.TVar == tvar {
			return p.Binding, true
		}
	}
	return nil, false
}

// Len returns the number of bound type variables.
func (e Env) Len() int { return len(e.pairs) }

// Pairs returns the (tvar, binding) sequence in binding order.
func (e Env) Pairs() []struct {
	TVar    string
	Binding Type
} {
	out := make([]struct {
		TVar    string
		Binding Type
	}, len(e.pairs))
	for i, p := range e.pairs {
		out[i] = struct {
			TVar    string
			Binding Type
		}{p.TVar, p.Binding}
	}
	return out
}

// Merge returns a new Env containing the receiver's bindings overridden by
// other's.
func (e Env) Merge(other Env) Env {
	result := Env{pairs: append([]envPair{}, e.pairs...)}
	for _, p := range other.pairs {
		result.Bind(p.TVar, p.Binding)
	}
	return result
}

// Signature is an ordered tuple of Types, possibly ending with a vararg
// slot, plus the type variables bound in it. Immutable once published: all
// mutating helpers return a new Signature.
type Signature struct {
	Slots  []Type
	Vararg bool
	TVars  []string
}

// NParams returns the number of declared parameter slots (the vararg slot,
// if present, counts as one slot here; callers that need "minimum required
// arguments" should use MinArgs).
func (s Signature) NParams() int { return len(s.Slots) }

// MinArgs returns the minimum number of concrete arguments this signature
// can match: every slot except a trailing vararg slot is required.
func (s Signature) MinArgs() int {
	if s.Vararg && len(s.Slots) > 0 {
		return len(s.Slots) - 1
	}
	return len(s.Slots)
}

// WithSlots returns a copy of s with Slots replaced.
func (s Signature) WithSlots(slots []Type) Signature {
	return Signature{Slots: slots, Vararg: s.Vararg, TVars: s.TVars}
}

// TypeOps is the single seam through which dispatch consumes
// subtype/intersection/specificity predicates from the collaborating type
// system. Every method must be pure with respect to dispatch state.
type TypeOps interface {
	// IsConcrete reports whether t has no free type variables, unions,
	// varargs, or Type{} wrapping below it.
	IsConcrete(t Type) bool
	// IsParametric reports whether t contains a free type variable.
	IsParametric(t Type) bool
	// IsVararg reports whether t is itself a vararg element marker
	// (Vararg{X}).
	IsVararg(t Type) bool
	// IsUnion reports whether t is a union type.
	IsUnion(t Type) bool
	// IsTypeOfType reports whether t is literally Type{X} for some X.
	IsTypeOfType(t Type) bool
	// IsKind reports whether t is a kind-level type (DataType or similar
	// meta-level type).
	IsKind(t Type) bool
	// TypeOf returns the runtime type of a value.
	TypeOf(v Value) Type
	// Intersect returns the intersection of a and b, and whether it is
	// non-empty.
	Intersect(a, b Type) (Type, bool)
	// Subtype reports whether a is a subtype of (or equal to) b.
	Subtype(a, b Type) bool
	// MoreSpecific reports whether a is strictly more specific than b.
	MoreSpecific(a, b Type) bool
	// EqualGeneric reports whether a and b are the same type up to
	// renaming of bound type variables.
	EqualGeneric(a, b Type) bool
	// Instantiate substitutes the bindings in env into t.
	Instantiate(t Type, env Env) Type
	// WrapAsTypeOf returns Type{v's type}, used to widen Type{X} arguments.
	WrapAsTypeOf(v Value) Type
	// String renders t for diagnostics and cache keys.
	String(t Type) string
}

// SignaturesEqual reports whether two signatures are type-equal: same
// arity/varargness and pairwise EqualGeneric slots.
func SignaturesEqual(ops TypeOps, a, b Signature) bool {
	if a.Vararg != b.Vararg || len(a.Slots) != len(b.Slots) {
		return false
	}
	for i := range a.Slots {
		if !ops.EqualGeneric(a.Slots[i], b.Slots[i]) {
			return false
		}
	}
	return true
}
