package dispatch

// MethodTable holds every Method defined for one generic function: an
// ordered TypeMap of definitions (most specific first) plus the
// specialization cache derived from them.
type MethodTable struct {
	ops     TypeOps
	Name    string
	defs    *TypeMap
	cache   *specCache
	maxArgs int
}

// NewMethodTable constructs an empty MethodTable for a generic function
// named name.
func NewMethodTable(ops TypeOps, name string) *MethodTable {
	return &MethodTable{
		ops:  ops,
		Name: name,
		defs: NewTypeMap(ops, 0),
		// the definitions table participates in head-type discrimination on
		// slot 0, same offset used by the cache.
		cache: newSpecCache(ops),
	}
}

// Exists reports whether any Method is registered.
func (mt *MethodTable) Exists() bool { return mt.defs.Len() > 0 }

// MaxArgs returns the greatest MinArgs() across all registered methods plus
// one for any vararg method, used by the generic-apply entry to early-reject
// calls with too few or too many arguments.
func (mt *MethodTable) MaxArgs() int { return mt.maxArgs }

// Definitions returns the registered Method definitions, most specific
// first.
func (mt *MethodTable) Definitions() []*Method {
	entries := mt.defs.Entries()
	out := make([]*Method, len(entries))
	for i, e := range entries {
		out[i] = e.Payload.(*Method)
	}
	return out
}

// rawInsert adds m to the definitions TypeMap and returns any Method it
// overwrote (type-equal signature). Does not run ambiguity analysis; callers
// needing that should use Generic.Define instead (see ambiguity.go).
func (mt *MethodTable) rawInsert(m *Method) *Method {
	overwritten := mt.defs.Insert(m.Sig, m)
	if m.Sig.MinArgs()+boolToInt(m.Sig.Vararg) > mt.maxArgs {
		mt.maxArgs = m.Sig.MinArgs() + boolToInt(m.Sig.Vararg)
	}
	if overwritten == nil {
		return nil
	}
	return overwritten.(*Method)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// LookupByArgs finds the most specific Method matching a concrete argument
// type tuple, or nil if none match.
func (mt *MethodTable) LookupByArgs(argTypes []Type) *Method {
	for _, e := range mt.defs.Entries() {
		if signatureMatchesTypes(mt.ops, e.Sig, argTypes) {
			return e.Payload.(*Method)
		}
	}
	return nil
}

// LookupByType finds a Method whose signature matches the query signature t
// per AssocByType's exact/subtype semantics. An inexact hit whose Ambig
// list contains another Method whose signature also intersects t is
// rejected (returns nil): the query is ambiguous, which this mode treats as
// no-method-matches for this mode.
func (mt *MethodTable) LookupByType(t Signature, exact, subtype bool) (*Method, Env) {
	e, env := mt.defs.AssocByType(t, exact, subtype)
	if e == nil {
		return nil, Env{}
	}
	m := e.Payload.(*Method)
	if !exact {
		for _, other := range m.Ambig {
			if _, _, ok := intersectSignatures(mt.ops, other.Sig, t); ok {
				return nil, Env{}
			}
		}
	}
	return m, env
}

// Cache exposes the specialization cache for the generic-apply entry
// (generic.go) and the precompile sweep (precompile.go).
func (mt *MethodTable) Cache() *specCache { return mt.cache }

// Defs exposes the raw definitions TypeMap for the ambiguity analyzer.
func (mt *MethodTable) Defs() *TypeMap { return mt.defs }
