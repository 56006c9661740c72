package dispatch

// Entry is a single (signature, payload) record stored inside a TypeMap.
// Payload is either a *Method (when the map is a definition list) or a
// *Specialization (when the map is a dispatch cache).
type Entry struct {
	Sig       Signature
	SimpleSig *Signature // coarser rejection filter, or nil
	GuardSigs []Signature
	TVars     []string
	Payload   interface{}
	IsLeafSig bool

	// exactOnly restricts a cache entry to type-equal reuse when its
	// conflicts with sibling definitions could not be expressed as
	// GuardSigs (see Builder.Build).
	exactOnly bool

	next *Entry // singly-linked, for lock-free traversal by racing readers
}

// TypeMap stores a set of (signature, payload) pairs ordered so that
// more-specific signatures precede less-specific ones. It supports
// exact-argument lookup, subtype/exact lookup by a query signature, and
// intersection traversal.
//
// Discrimination is a head-type bucket index layered over an authoritative
// ordered list: byHead buckets only ever contain leaf-signature entries
// (safe to fast-reject on the head type's identity), while order is always
// consulted for anything that doesn't qualify for the fast bucket (unions,
// varargs, Type{} arguments, type variables). The ordering invariant stays
// trivially correct while the common concrete-leaf case gets a short
// candidate list.
type TypeMap struct {
	ops   TypeOps
	offs  int // 0 or 1: whether slot 0 participates in head-type discrimination
	order []*Entry

	dirty  bool
	byHead map[string][]*Entry
}

// NewTypeMap constructs an empty TypeMap. offs selects whether the
// function's own argument at index 0 participates in the head-type split.
func NewTypeMap(ops TypeOps, offs int) *TypeMap {
	return &TypeMap{ops: ops, offs: offs}
}

func isLeafSig(ops TypeOps, sig Signature) bool {
	if sig.Vararg {
		return false
	}
	for _, s := range sig.Slots {
		if !ops.IsConcrete(s) || ops.IsUnion(s) || ops.IsTypeOfType(s) {
			return false
		}
	}
	return true
}

// insertIndex returns the position at which sig should be inserted to
// preserve the more-specific-first invariant, and whether an existing
// type-equal entry was found at that exact position (in which case the
// caller should overwrite, not insert).
func (tm *TypeMap) insertIndex(sig Signature) (idx int, overwrite bool) {
	for i, e := range tm.order {
		if SignaturesEqual(tm.ops, e.Sig, sig) {
			return i, true
		}
		if a, b := sig.Slots0(), e.Sig.Slots0(); a != nil && b != nil && tm.ops.MoreSpecific(a, b) {
			return i, false
		}
		if moreSpecificSig(tm.ops, sig, e.Sig) {
			return i, false
		}
	}
	return len(tm.order), false
}

// Slots0 is a tiny helper so insertIndex's defensive "do we even have a
// slot to compare" path never panics on a 0-arity signature.
func (s Signature) Slots0() Type {
	if len(s.Slots) == 0 {
		return nil
	}
	return s.Slots[0]
}

// moreSpecificSig compares two whole signatures slot-wise: a is more
// specific than b if every slot of a is a subtype of the corresponding slot
// of b, at least one is strictly more specific, and arities are compatible.
func moreSpecificSig(ops TypeOps, a, b Signature) bool {
	if len(a.Slots) != len(b.Slots) {
		// Different arity: not comparable via this helper; a vararg
		// signature is considered less specific than any fixed-arity one
		// it could also match.
		if a.Vararg && !b.Vararg {
			return false
		}
		if b.Vararg && !a.Vararg {
			return true
		}
		return false
	}
	strictlyMore := false
	for i := range a.Slots {
		if ops.EqualGeneric(a.Slots[i], b.Slots[i]) {
			continue
		}
		if !ops.Subtype(a.Slots[i], b.Slots[i]) {
			return false
		}
		strictlyMore = true
	}
	return strictlyMore
}

// Insert adds (sig, payload) to the map, maintaining the ordering
// invariant. If an existing entry has a type-equal signature it is replaced
// and its old payload returned (the "overwritten" case callers use for
// warnings/ambiguity propagation).
func (tm *TypeMap) Insert(sig Signature, payload interface{}) (overwritten interface{}) {
	entry := &Entry{
		Sig:       sig,
		TVars:     sig.TVars,
		Payload:   payload,
		IsLeafSig: isLeafSig(tm.ops, sig),
	}
	idx, overwrite := tm.insertIndex(sig)
	tm.dirty = true
	if overwrite {
		overwritten = tm.order[idx].Payload
		entry.next = tm.order[idx].next
		tm.order[idx] = entry
		return overwritten
	}
	tm.order = append(tm.order, nil)
	copy(tm.order[idx+1:], tm.order[idx:])
	tm.order[idx] = entry
	return nil
}

// Remove unlinks the given entry from the map (used by shadowing
// invalidation). It is a no-op if the entry isn't present.
func (tm *TypeMap) Remove(target *Entry) {
	for i, e := range tm.order {
		if e == target {
			tm.order = append(tm.order[:i], tm.order[i+1:]...)
			tm.dirty = true
			return
		}
	}
}

// Entries returns the map's entries in order. Callers must not mutate the
// returned slice.
func (tm *TypeMap) Entries() []*Entry { return tm.order }

// Len reports the number of entries.
func (tm *TypeMap) Len() int { return len(tm.order) }

func (tm *TypeMap) ensureBuckets() {
	if !tm.dirty && tm.byHead != nil {
		return
	}
	tm.byHead = make(map[string][]*Entry)
	for _, e := range tm.order {
		if !e.IsLeafSig || len(e.Sig.Slots) <= tm.offs {
			continue
		}
		key := tm.ops.String(e.Sig.Slots[tm.offs])
		tm.byHead[key] = append(tm.byHead[key], e)
	}
	tm.dirty = false
}

// matchGuards reports whether args match an entry's guard signatures, in
// which case the entry must be skipped.
func (tm *TypeMap) guardRejects(e *Entry, argTypes []Type) bool {
	for _, g := range e.GuardSigs {
		if signatureMatchesTypes(tm.ops, g, argTypes) {
			return true
		}
	}
	return false
}

func signatureMatchesTypes(ops TypeOps, sig Signature, argTypes []Type) bool {
	if sig.Vararg {
		if len(argTypes) < sig.MinArgs() {
			return false
		}
	} else if len(argTypes) != len(sig.Slots) {
		return false
	}
	for i, t := range argTypes {
		var slot Type
		if sig.Vararg && i >= len(sig.Slots)-1 {
			slot = sig.Slots[len(sig.Slots)-1]
		} else if i < len(sig.Slots) {
			slot = sig.Slots[i]
		} else {
			return false
		}
		if slot == nil {
			continue // SimpleSig "accept anything" slot
		}
		if !ops.Subtype(t, slot) {
			return false
		}
	}
	return true
}

// AssocExact: given a flat argument-type array, return the
// first entry whose signature type-equals the tuple, skipping entries
// rejected by SimpleSig or any GuardSigs.
func (tm *TypeMap) AssocExact(argTypes []Type) *Entry {
	tm.ensureBuckets()
	if len(argTypes) > tm.offs {
		key := tm.ops.String(argTypes[tm.offs])
		for _, e := range tm.byHead[key] {
			if tm.entryMatchesExact(e, argTypes) {
				return e
			}
		}
	}
	for _, e := range tm.order {
		if e.IsLeafSig {
			continue // already covered by the bucket scan above
		}
		if tm.entryMatchesExact(e, argTypes) {
			return e
		}
	}
	return nil
}

func (tm *TypeMap) entryMatchesExact(e *Entry, argTypes []Type) bool {
	if e.SimpleSig != nil && !signatureMatchesTypes(tm.ops, *e.SimpleSig, argTypes) {
		return false
	}
	if !exactTypeMatch(tm.ops, e.Sig, argTypes) {
		return false
	}
	if tm.guardRejects(e, argTypes) {
		return false
	}
	return true
}

func exactTypeMatch(ops TypeOps, sig Signature, argTypes []Type) bool {
	if sig.Vararg {
		if len(argTypes) < len(sig.Slots)-1 {
			return false
		}
		for i := 0; i < len(sig.Slots)-1; i++ {
			if !ops.EqualGeneric(argTypes[i], sig.Slots[i]) {
				return false
			}
		}
		elem := sig.Slots[len(sig.Slots)-1]
		for i := len(sig.Slots) - 1; i < len(argTypes); i++ {
			if !ops.EqualGeneric(argTypes[i], elem) {
				return false
			}
		}
		return true
	}
	if len(argTypes) != len(sig.Slots) {
		return false
	}
	for i := range sig.Slots {
		if !ops.EqualGeneric(argTypes[i], sig.Slots[i]) {
			return false
		}
	}
	return true
}

// AssocByType: given a query signature T, return the first
// entry whose signature either type-equals T (exact), is matched by T up to
// type-variable substitution (filling env), or is a supertype of T
// (subtype).
func (tm *TypeMap) AssocByType(t Signature, exact, subtype bool) (*Entry, Env) {
	for _, e := range tm.order {
		if exact {
			if SignaturesEqual(tm.ops, e.Sig, t) {
				return e, Env{}
			}
			continue
		}
		if env, ok := tm.matchWithEnv(e.Sig, t); ok {
			return e, env
		}
		if subtype && signatureIsSubtype(tm.ops, t, e.Sig) {
			return e, Env{}
		}
	}
	return nil, Env{}
}

// matchWithEnv attempts to match the query signature t against an entry's
// signature candidate, binding the candidate's type variables into env when
// its slots are themselves type variables.
func (tm *TypeMap) matchWithEnv(candidate, t Signature) (Env, bool) {
	if len(candidate.Slots) != len(t.Slots) || candidate.Vararg != t.Vararg {
		return Env{}, false
	}
	var env Env
	for i := range candidate.Slots {
		if !tm.ops.Subtype(t.Slots[i], candidate.Slots[i]) && !tm.ops.EqualGeneric(t.Slots[i], candidate.Slots[i]) {
			return Env{}, false
		}
	}
	return env, true
}

// signatureIsSubtype reports whether every tuple matching a also matches b.
// A fixed-arity a is covered by a vararg b whose trailing element type
// absorbs a's extra slots; a vararg a needs b to be vararg as well.
func signatureIsSubtype(ops TypeOps, a, b Signature) bool {
	if a.Vararg {
		if !b.Vararg {
			return false
		}
		for i := range a.Slots {
			sb, ok := slotAt(b, i)
			if !ok {
				return false
			}
			if !ops.Subtype(a.Slots[i], sb) {
				return false
			}
		}
		return true
	}
	return signatureMatchesTypes(ops, b, a.Slots)
}

// IntersectionVisit: iterate every entry whose signature has
// non-empty intersection with t, in insertion order, passing the
// intersection and a binding Env to fn.
func (tm *TypeMap) IntersectionVisit(t Signature, fn func(e *Entry, intersection Signature, env Env)) {
	for _, e := range tm.order {
		inter, env, ok := intersectSignatures(tm.ops, e.Sig, t)
		if !ok {
			continue
		}
		fn(e, inter, env)
	}
}

// intersectSignatures computes the pairwise intersection of two signatures
// of equal (or vararg-compatible) arity. Returns false if any slot pair is
// empty or the arities are fundamentally incompatible.
func intersectSignatures(ops TypeOps, a, b Signature) (Signature, Env, bool) {
	n := len(a.Slots)
	if len(b.Slots) > n {
		n = len(b.Slots)
	}
	if !a.Vararg && !b.Vararg && len(a.Slots) != len(b.Slots) {
		return Signature{}, Env{}, false
	}
	var env Env
	slots := make([]Type, 0, n)
	for i := 0; i < n; i++ {
		sa, ok1 := slotAt(a, i)
		sb, ok2 := slotAt(b, i)
		if !ok1 || !ok2 {
			break
		}
		inter, nonEmpty := ops.Intersect(sa, sb)
		if !nonEmpty {
			return Signature{}, Env{}, false
		}
		slots = append(slots, inter)
	}
	vararg := a.Vararg && b.Vararg
	return Signature{Slots: slots, Vararg: vararg}, env, true
}

func slotAt(s Signature, i int) (Type, bool) {
	if i < len(s.Slots) {
		if s.Vararg && i == len(s.Slots)-1 {
			return s.Slots[i], true
		}
		return s.Slots[i], true
	}
	if s.Vararg && len(s.Slots) > 0 {
		return s.Slots[len(s.Slots)-1], true
	}
	return nil, false
}
