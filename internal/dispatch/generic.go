package dispatch

import (
	"runtime"
	"sync/atomic"
)

const (
	// callCacheSize is the process-wide inline cache's slot count; a power
	// of two so index derivation is a mask.
	callCacheSize = 4096
	callCacheMask = callCacheSize - 1
	cacheWays     = 4
)

// callCache is the process-wide call-site inline cache: an open-addressed
// array of atomically-swapped pointers to immutable snapshots. Readers never
// lock; a writer publishes a brand new *siteEntry, so a concurrent reader
// either sees the old snapshot or the new one, never a torn mix.
// pickWhich holds per-slot round-robin counters (2 bits used) selecting
// which of a site's four candidate indices the next install evicts.
var (
	callCache [callCacheSize]atomic.Pointer[siteEntry]
	pickWhich [callCacheSize]atomic.Uint32
)

// siteEntry is one published inline-cache snapshot. epoch pins it to the
// state of g's definitions at publish time: any later Define bumps g.epoch
// and silently retires every snapshot published before it.
type siteEntry struct {
	g        *Generic
	epoch    uint64
	argTypes []Type
	spec     *Specialization
}

// siteIndices derives the four candidate cache indices for a call site, by
// shifting the 32-bit site value by {0, 8, 16, 24-rotated} and masking.
func siteIndices(callsite uint32) [cacheWays]uint32 {
	rot := callsite>>24 | callsite<<8
	return [cacheWays]uint32{
		callsite & callCacheMask,
		(callsite >> 8) & callCacheMask,
		(callsite >> 16) & callCacheMask,
		rot & callCacheMask,
	}
}

// ResetCallCache clears every inline-cache slot. Only tests and the
// embedder's full-teardown path need this; running programs rely on epoch
// validation instead.
func ResetCallCache() {
	for i := range callCache {
		callCache[i].Store(nil)
		pickWhich[i].Store(0)
	}
}

// CompileHook materializes native (or bytecode) code for a Specialization
// through an external code generator. It runs under the codegen lock.
type CompileHook func(spec *Specialization) Value

// Generic is the generic-apply entry point: a MethodTable
// plus the tracer set, inference and compile hooks, and the epoch counter
// that retires stale inline-cache snapshots.
type Generic struct {
	Name    string
	ops     TypeOps
	table   *MethodTable
	builder *Builder
	tracers *Tracers
	infer   InferenceHook
	compile CompileHook

	// epoch counts definitions: every Define bumps it, so a fast-path
	// snapshot published before the most recent redefinition is recognized
	// as stale and treated as a miss rather than returned straight from the
	// inline cache. Methods are never removed, only shadowed, so this only
	// needs to track "anything changed since", not which Method changed.
	epoch atomic.Uint64
}

// NewGeneric constructs an empty Generic named name over the given
// type-system adapter.
func NewGeneric(ops TypeOps, name string) *Generic {
	tracers := NewTracers()
	g := &Generic{
		Name:    name,
		ops:     ops,
		table:   NewMethodTable(ops, name),
		tracers: tracers,
	}
	g.builder = NewBuilder(ops, nil, tracers)
	return g
}

// Exists reports whether g has at least one registered Method.
func (g *Generic) Exists() bool { return g.table.Exists() }

// Table exposes the underlying MethodTable for precompile sweeps and tests.
func (g *Generic) Table() *MethodTable { return g.table }

// Define registers a new Method, running the ambiguity/shadowing analysis
// and firing the new-method tracer.
func (g *Generic) Define(m *Method) []Warning {
	warnings := g.table.Define(m)
	g.epoch.Add(1)
	g.tracers.onNewMethod(m)
	return warnings
}

// OnMethodCall, OnNewMethod, OnLocationInfo expose the Generic's tracer set
// for installation by callers (e.g. the evaluator's --trace-methods flag).
func (g *Generic) OnMethodCall(fn func(m *Method, spec *Specialization)) { g.tracers.OnMethodCall(fn) }
func (g *Generic) OnNewMethod(fn func(m *Method))                       { g.tracers.OnNewMethod(fn) }
func (g *Generic) OnLocationInfo(fn func(spec *Specialization, info string)) {
	g.tracers.OnLocationInfo(fn)
}

// InstallCompiler installs the code-generator hook invoked on every freshly
// built Specialization (and by Precompile's sweep over already-built,
// uncompiled ones).
func (g *Generic) InstallCompiler(fn CompileHook) { g.compile = fn }

// Apply resolves a call from its concrete argument types, deriving the
// inline-cache site from the caller's return address — any stable per-site
// identifier works. Callers that already have a cheaper stable site id
// (the evaluator uses the AST call node) should use ApplyAt directly.
func (g *Generic) Apply(argTypes []Type) (*Specialization, error) {
	var pc [1]uintptr
	runtime.Callers(2, pc[:])
	return g.ApplyAt(uint32(pc[0]>>4), argTypes)
}

// ApplyAt is the generic-apply entry: given a stable call-site
// identifier and concrete argument types, returns the Specialization to
// run. The fast path probes the process-wide inline cache's four candidate
// slots without locking; a miss falls to the MethodTable's dispatch cache
// (still lock-free for readers); a full miss matches the definition list
// and builds a new Specialization under the codegen lock, publishing it
// into both the dispatch cache and — when eligible — one of this site's
// inline slots.
func (g *Generic) ApplyAt(callsite uint32, argTypes []Type) (*Specialization, error) {
	idx := siteIndices(callsite)
	epoch := g.epoch.Load()

	for _, i := range idx {
		e := callCache[i].Load()
		if e == nil || e.g != g || e.epoch != epoch {
			continue
		}
		if len(e.argTypes) != len(argTypes) {
			continue
		}
		if argTypesEqual(g.ops, e.argTypes, argTypes) {
			g.tracers.onMethodCall(e.spec.Method, e.spec)
			return e.spec, nil
		}
	}

	spec, entry, err := g.dispatchSlow(argTypes)
	if err != nil {
		return nil, err
	}
	if entry != nil && entry.IsLeafSig && entry.SimpleSig == nil && len(entry.GuardSigs) == 0 {
		way := pickWhich[idx[0]].Add(1) % cacheWays
		callCache[idx[way]].Store(&siteEntry{g: g, epoch: epoch, argTypes: argTypes, spec: spec})
	}
	g.tracers.onMethodCall(spec.Method, spec)
	return spec, nil
}

// dispatchSlow is the shared miss path behind ApplyAt: dispatch-cache
// probes, then the definition list, then the specialization builder.
func (g *Generic) dispatchSlow(argTypes []Type) (*Specialization, *Entry, error) {
	cache := g.table.Cache()
	if e := cache.AssocExact(argTypes); e != nil {
		return e.Payload.(*Specialization), e, nil
	}
	querySig := Signature{Slots: argTypes}
	if e := cache.AssocByType(querySig); e != nil {
		return e.Payload.(*Specialization), e, nil
	}

	if m, other, ambiguous := g.table.IsAmbiguousFor(argTypes); ambiguous {
		return nil, nil, &AmbiguousCallError{Generic: g.Name, Args: g.renderTypes(argTypes), First: m, Second: other}
	}

	m := g.table.LookupByArgs(argTypes)
	if m == nil {
		return nil, nil, &NoMethodError{Generic: g.Name, Args: g.renderTypes(argTypes)}
	}

	callSig := Signature{Slots: argTypes, Vararg: m.Sig.Vararg && len(argTypes) >= m.Sig.MinArgs() && len(argTypes) != len(m.Sig.Slots)}
	entry := cache.GetOrCreateEntry(m, callSig, func() *BuildResult {
		res := g.builder.Build(g.table, m, callSig)
		if g.compile != nil && res.Spec.Code == nil {
			res.Spec.Code = g.compile(res.Spec)
			g.tracers.onLocationInfo(res.Spec, g.Name)
		}
		return res
	})
	return entry.Payload.(*Specialization), entry, nil
}

func argTypesEqual(ops TypeOps, a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ops.EqualGeneric(a[i], b[i]) {
			return false
		}
	}
	return true
}

func (g *Generic) renderTypes(argTypes []Type) []string {
	out := make([]string, len(argTypes))
	for i, t := range argTypes {
		out[i] = g.ops.String(t)
	}
	return out
}

// Invoke forces dispatch to a specific, possibly less-specific Method than
// the one Apply would have chosen, used by explicit
// "call the Foo(Real) method even though a more specific Foo(Int) exists"
// call syntax. Specializations built this way are cached on the Method's
// own private Invokes TypeMap rather than the shared dispatch cache, so
// forcing a coarser dispatch at one call site never makes a later ordinary
// call elsewhere in the program see the wrong (forced) specialization.
func (g *Generic) Invoke(m *Method, argTypes []Type) (*Specialization, error) {
	if !signatureMatchesTypes(g.ops, m.Sig, argTypes) {
		return nil, &NoMethodError{Generic: g.Name, Args: g.renderTypes(argTypes)}
	}

	// invoke() is always a slow path; serialize under codegen so the
	// private Invokes map needs no locking of its own.
	cache := g.table.Cache()
	cache.codegen.Lock()
	defer cache.codegen.Unlock()
	if e := g.lookupInvoke(m, argTypes); e != nil {
		spec := e.Payload.(*Specialization)
		g.tracers.onMethodCall(m, spec)
		return spec, nil
	}
	if m.Invokes == nil {
		m.Invokes = NewTypeMap(g.ops, 0)
	}
	callSig := Signature{Slots: argTypes, Vararg: m.Sig.Vararg && len(argTypes) != len(m.Sig.Slots)}
	res := g.builder.Build(g.table, m, callSig)
	if g.compile != nil && res.Spec.Code == nil {
		res.Spec.Code = g.compile(res.Spec)
		g.tracers.onLocationInfo(res.Spec, g.Name)
	}
	m.Invokes.Insert(res.Spec.Sig, res.Spec)
	g.tracers.onMethodCall(m, res.Spec)
	return res.Spec, nil
}

func (g *Generic) lookupInvoke(m *Method, argTypes []Type) *Entry {
	if m.Invokes == nil {
		return nil
	}
	if e := m.Invokes.AssocExact(argTypes); e != nil {
		return e
	}
	e, _ := m.Invokes.AssocByType(Signature{Slots: argTypes}, false, true)
	return e
}

// ResolveByType resolves a Specialization from a query signature rather
// than live argument values. useCache selects whether the dispatch cache
// is consulted first and whether a freshly built Specialization is
// recorded in it; inexact accepts subtype-correct (not just type-equal)
// definition matches, with ambiguous inexact hits rejected as
// no-method-matches.
func (g *Generic) ResolveByType(t Signature, useCache, inexact bool) (*Specialization, error) {
	cache := g.table.Cache()
	if useCache {
		if e := cache.AssocExact(t.Slots); e != nil {
			return e.Payload.(*Specialization), nil
		}
		if e := cache.AssocByType(t); e != nil {
			return e.Payload.(*Specialization), nil
		}
	}

	m, _ := g.table.LookupByType(t, !inexact, inexact)
	if m == nil {
		names := make([]string, len(t.Slots))
		for i, s := range t.Slots {
			names[i] = g.ops.String(s)
		}
		return nil, &NoMethodError{Generic: g.Name, Args: names}
	}

	build := func() *BuildResult {
		res := g.builder.Build(g.table, m, t)
		if g.compile != nil && res.Spec.Code == nil {
			res.Spec.Code = g.compile(res.Spec)
			g.tracers.onLocationInfo(res.Spec, g.Name)
		}
		return res
	}
	if useCache {
		entry := cache.GetOrCreateEntry(m, t, build)
		return entry.Payload.(*Specialization), nil
	}
	cache.codegen.Lock()
	defer cache.codegen.Unlock()
	return build().Spec, nil
}

// InvokeByType resolves the invoke() target from an explicit lookup
// signature rather than a *Method the caller already holds: the single
// definition matching lookupSig (inexact, subtype-correct) is selected from
// the definition list and then specialized for argTypes via Invoke.
func (g *Generic) InvokeByType(lookupSig Signature, argTypes []Type) (*Specialization, error) {
	m, _ := g.table.LookupByType(lookupSig, false, true)
	if m == nil {
		names := make([]string, len(lookupSig.Slots))
		for i, s := range lookupSig.Slots {
			names[i] = g.ops.String(s)
		}
		return nil, &NoMethodError{Generic: g.Name, Args: names}
	}
	return g.Invoke(m, argTypes)
}
