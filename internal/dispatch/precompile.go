package dispatch

// CompileHint tries to build (and, when a compiler hook is installed,
// compile) a Specialization covering sig ahead of any real call, reporting
// whether one was produced. Idempotent: a second
// call with the same signature finds the cached Specialization and builds
// nothing new.
func (g *Generic) CompileHint(sig Signature) bool {
	if sig.Vararg {
		return false
	}
	for _, s := range sig.Slots {
		if !g.ops.IsConcrete(s) {
			return false
		}
	}
	spec, err := g.ResolveByType(sig, true, true)
	return err == nil && spec != nil
}

// Precompile sweeps every inferred-but-uncompiled Specialization in the
// dispatch cache through the compiler hook. When all is true, it
// additionally enumerates, per Method, the cartesian product of its
// union-typed slots' members and builds a representative Specialization for
// each fully-concrete combination — the ahead-of-time "warm every union
// leg" sweep, useful behind a CLI --precompile flag but never run
// implicitly. Inference failures during the sweep are swallowed: the
// affected Specialization stays uncompiled and the sweep continues.
func (g *Generic) Precompile(all bool) int {
	built := 0

	if g.compile != nil {
		cache := g.table.Cache()
		cache.codegen.Lock()
		for _, e := range cache.Entries() {
			spec := e.Payload.(*Specialization)
			if spec.Inferred && spec.Code == nil {
				spec.Code = g.compile(spec)
				g.tracers.onLocationInfo(spec, g.Name)
				built++
			}
		}
		cache.codegen.Unlock()
	}

	for _, m := range g.table.Definitions() {
		for _, sig := range g.candidateSignatures(m, all) {
			if g.table.Cache().Lookup(m, sig) != nil {
				continue
			}
			if g.CompileHint(sig) {
				built++
			}
		}
	}
	return built
}

// candidateSignatures enumerates the concrete signatures worth
// precompiling for m. Without all, this is just m's own signature if it is
// already concrete. With all, any union-typed slot is expanded into one
// candidate per member, taking the cross product across slots; callers
// should expect this to be combinatorial in the number of union-typed
// parameters and use it only for small, deliberately-bounded generics.
func (g *Generic) candidateSignatures(m *Method, all bool) []Signature {
	if m.Sig.Vararg {
		return nil
	}
	if !all {
		if g.concreteSig(m.Sig) {
			return []Signature{m.Sig}
		}
		return nil
	}

	options := make([][]Type, len(m.Sig.Slots))
	for i, s := range m.Sig.Slots {
		if members, ok := g.unionMembers(s); ok {
			options[i] = members
		} else if g.ops.IsConcrete(s) {
			options[i] = []Type{s}
		} else {
			// not enumerable (a bare type variable, say): skip this
			// definition for the all=true sweep entirely.
			return nil
		}
	}
	return cartesianSignatures(options, m.Sig.TVars)
}

func (g *Generic) concreteSig(sig Signature) bool {
	for _, s := range sig.Slots {
		if !g.ops.IsConcrete(s) {
			return false
		}
	}
	return true
}

// unionMembers decomposes a union type into its members. TypeOps has no
// union-enumeration primitive, so adapters that can decompose (the Funxy
// one can — TUnion carries its members structurally) expose an optional
// UnionMembers method this probes for; absent that capability the slot is
// treated as non-enumerable.
func (g *Generic) unionMembers(t Type) ([]Type, bool) {
	if !g.ops.IsUnion(t) {
		return nil, false
	}
	if um, ok := g.ops.(interface{ UnionMembers(Type) []Type }); ok {
		members := um.UnionMembers(t)
		if len(members) > 0 {
			return members, true
		}
	}
	return nil, false
}

func cartesianSignatures(options [][]Type, tvars []string) []Signature {
	results := [][]Type{nil}
	for _, opts := range options {
		var next [][]Type
		for _, prefix := range results {
			for _, o := range opts {
				slot := append(append([]Type{}, prefix...), o)
				next = append(next, slot)
			}
		}
		results = next
	}
	out := make([]Signature, len(results))
	for i, slots := range results {
		out[i] = Signature{Slots: slots, TVars: tvars}
	}
	return out
}
