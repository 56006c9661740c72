package dispatch

import "sync"

// specCache is the dispatch cache of a MethodTable: one TypeMap of
// *Specialization entries spanning every Method of the generic function,
// keyed by the concrete (possibly widened) signature a call site actually
// saw, plus the codegen serialization lock that guarantees a given
// concrete signature is built at most once even under concurrent callers.
type specCache struct {
	ops TypeOps

	// codegen serializes the "build a new Specialization" path: two
	// goroutines racing to specialize the same (or different) signatures
	// never build the same Specialization twice, and never observe a
	// half-built one.
	codegen sync.Mutex

	// mu guards the entries TypeMap against concurrent slow-path probes
	// racing an insertion. The fast path (the process-wide inline cache)
	// never takes it; only cache misses pay for the read lock. A slow-path
	// dispatch may suspend, a fast-path one may not.
	mu sync.RWMutex

	entries *TypeMap
}

func newSpecCache(ops TypeOps) *specCache {
	return &specCache{ops: ops, entries: NewTypeMap(ops, 0)}
}

// AssocExact probes the cache for an entry whose signature type-equals the
// argument tuple, honoring SimpleSig rejection and GuardSigs skipping. Safe
// to call without holding codegen: entries are unlinked rather than mutated
// in place, so a racing reader observes either a fully-built entry or none.
func (c *specCache) AssocExact(argTypes []Type) *Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries.AssocExact(argTypes)
}

// AssocByType finds an entry whose (possibly widened) signature covers sig,
// skipping entries a guard signature excludes. This is the path that makes
// widened specializations reusable: a widened entry's signature is a strict
// supertype of the call-site tuple, so the exact probe misses it but this
// one doesn't.
func (c *specCache) AssocByType(sig Signature) *Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, _ := c.entries.AssocByType(sig, false, true)
	if e == nil {
		return nil
	}
	if e.exactOnly && !SignaturesEqual(c.ops, e.Sig, sig) {
		return nil
	}
	if c.entries.guardRejects(e, sig.Slots) {
		return nil
	}
	return e
}

// Lookup returns an existing Specialization covering sig for m, or nil.
func (c *specCache) Lookup(m *Method, sig Signature) *Specialization {
	if e := c.AssocExact(sig.Slots); e != nil {
		if spec := e.Payload.(*Specialization); spec.Method == m {
			return spec
		}
	}
	if e := c.AssocByType(sig); e != nil {
		if spec := e.Payload.(*Specialization); spec.Method == m {
			return spec
		}
	}
	return nil
}

// GetOrCreateEntry returns the cache entry covering (m, sig), building and
// inserting a fresh one via build under the codegen lock if none exists.
// build runs at most once per signature even if multiple goroutines race
// here.
func (c *specCache) GetOrCreateEntry(m *Method, sig Signature, build func() *BuildResult) *Entry {
	if e := c.probe(m, sig); e != nil {
		return e
	}
	c.codegen.Lock()
	defer c.codegen.Unlock()
	// Re-check: another goroutine may have built it while we waited.
	if e := c.probe(m, sig); e != nil {
		return e
	}
	res := build()
	c.mu.Lock()
	c.entries.Insert(res.Spec.Sig, res.Spec)
	e := c.findEntry(res.Spec)
	if e != nil {
		e.SimpleSig = res.SimpleSig
		e.GuardSigs = res.GuardSigs
		e.exactOnly = res.ExactOnly
	}
	c.mu.Unlock()
	return e
}

func (c *specCache) probe(m *Method, sig Signature) *Entry {
	if e := c.AssocExact(sig.Slots); e != nil {
		if e.Payload.(*Specialization).Method == m {
			return e
		}
	}
	if e := c.AssocByType(sig); e != nil {
		if e.Payload.(*Specialization).Method == m {
			return e
		}
	}
	return nil
}

func (c *specCache) findEntry(spec *Specialization) *Entry {
	for _, e := range c.entries.Entries() {
		if e.Payload == spec {
			return e
		}
	}
	return nil
}

// Entries returns every cached entry, for the inference sweep and tests.
func (c *specCache) Entries() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries.Entries()
}

// Invalidate removes every specialization derived from the given Method
// (used when a redefinition replaces it outright).
func (c *specCache) Invalidate(m *Method) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var toRemove []*Entry
	for _, e := range c.entries.Entries() {
		if e.Payload.(*Specialization).Method == m {
			toRemove = append(toRemove, e)
		}
	}
	for _, e := range toRemove {
		c.entries.Remove(e)
	}
}

// InvalidateMatching removes specializations whose Method is src and whose
// cached signature intersects sig — the narrower form used when only the
// shadowed subset of a method's specializations is affected.
func (c *specCache) InvalidateMatching(src *Method, sig Signature) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var toRemove []*Entry
	c.entries.IntersectionVisit(sig, func(e *Entry, _ Signature, _ Env) {
		if e.Payload.(*Specialization).Method == src {
			toRemove = append(toRemove, e)
		}
	})
	for _, e := range toRemove {
		c.entries.Remove(e)
	}
}
