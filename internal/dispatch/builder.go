package dispatch

import "strings"

// GuardThreshold bounds how many competing definitions a widened cache
// entry may carry as guard signatures before the builder gives up on
// widening and caches under the original concrete signature instead.
var GuardThreshold = 32

// InferenceEnabled gates the automatic inference trigger after a build;
// exposed as a package var the way internal/config exposes its tunables.
var InferenceEnabled = true

// macroSigil marks generic functions whose specializations are never
// inferred automatically (their bodies run at expansion time, not call
// time).
const macroSigil = "@"

// BuildResult is what the specialization builder hands back to the cache:
// the Specialization itself plus the entry metadata (rejection filter,
// guard signatures) the cache entry must carry alongside it. ExactOnly
// marks an entry whose conflicts could not be expressed as guards (a
// type-variable competitor, or more than GuardThreshold of them): such an
// entry may only ever be reused for argument tuples type-equal to its
// signature, never through subtype coverage.
type BuildResult struct {
	Spec      *Specialization
	SimpleSig *Signature
	GuardSigs []Signature
	ExactOnly bool
}

// Builder constructs Specializations from a matched Method and a concrete
// call-site signature. It holds the inference and
// tracing hooks a Generic installs so the builder can notify them as it
// goes, without the builder needing to know about Generic itself.
type Builder struct {
	ops   TypeOps
	infer InferenceHook
	trace *Tracers
}

// NewBuilder constructs a Builder over ops, with the given (possibly nil)
// inference hook and tracer set.
func NewBuilder(ops TypeOps, infer InferenceHook, trace *Tracers) *Builder {
	return &Builder{ops: ops, infer: infer, trace: trace}
}

// Build constructs a new Specialization of m for the concrete call-site
// signature callSig: applies the slot-widening rules, truncates
// oversized vararg tuples against mt's max_args, collects guard signatures
// from competing definitions (falling back to the original concrete
// signature past GuardThreshold), then fires the traced-method hook and the
// inference trigger.
//
// Build never itself decides whether a Specialization for this signature
// already exists — callers go through specCache.GetOrCreateEntry so the
// at-most-one-build invariant is enforced by the cache, not the builder.
func (b *Builder) Build(mt *MethodTable, m *Method, callSig Signature) *BuildResult {
	cacheSig, simple, loosened := b.widen(mt, m, callSig)
	// Repair any slot the widening rules loosened past soundness (a
	// Type{X} argument in a slot the definition matched on the kind), so
	// the cache key always covers the tuple that produced it.
	cacheSig = b.JoinSignature(cacheSig, callSig)

	// Guards are collected for every entry, widened or not: a cached
	// signature can cover argument tuples a more specific sibling
	// definition claims (f(Real) cached while f(Int) exists), and every
	// such conflict must be excluded by a guard signature.
	guards, abandon := b.collectGuards(mt, m, cacheSig)
	exactOnly := false
	if abandon {
		if loosened {
			// Too many (or type-variable-laden) competitors against the
			// widened signature: retry under the original concrete one.
			cacheSig = callSig
			simple = nil
			guards, abandon = b.collectGuards(mt, m, cacheSig)
		}
		if abandon {
			// Conflicts aren't expressible as guards even for the original
			// signature; restrict the entry to type-equal reuse only.
			guards = nil
			exactOnly = true
		}
	}

	spec := &Specialization{
		ID:     newID(),
		Sig:    cacheSig,
		Method: m,
	}
	if len(m.Sig.TVars) > 0 {
		spec.Fallback = m.fallbackSpec()
	}

	if m.IsTraced {
		b.trace.onTracedSpecialization(m, spec)
	}
	b.runInference(mt, spec)

	return &BuildResult{Spec: spec, SimpleSig: simple, GuardSigs: guards, ExactOnly: exactOnly}
}

// runInference fires the inference hook on a freshly built Specialization,
// unless inference is off, the specialization is already inferred or
// in-flight, or the generic is a macro. A panicking inferencer is caught
// and the Specialization simply stays uninferred: dispatch proceeds with
// the uncompiled template.
func (b *Builder) runInference(mt *MethodTable, spec *Specialization) {
	if b.infer == nil || !InferenceEnabled {
		return
	}
	if spec.Inferred || spec.InInference {
		return
	}
	if strings.HasPrefix(mt.Name, macroSigil) {
		return
	}
	spec.InInference = true
	defer func() {
		spec.InInference = false
		if r := recover(); r != nil {
			// Inference failed; leave spec uncompiled.
			_ = r
		}
	}()
	b.infer(spec, false)
}

// widen applies the specialization builder's slot-widening rules to the
// call-site signature, producing the signature a Specialization is actually
// cached and guarded under:
//
//   - a slot the method declared as the ANY-marker type is widened to the
//     declared marker itself, since the method body cannot distinguish
//     narrower instances of it;
//   - a slot whose declared type accepts callables (Function, or a
//     Function∪DataType union) and which the method body never calls, is
//     widened to the declared type rather than the call-site argument's
//     exact closure type, since specializing per-closure would never be
//     reused; a SimpleSig with that slot relaxed further to the declared
//     type is published for the fast-path's coarse rejection test;
//   - a Type{X} argument is widened per widenTypeOfType unless the declared
//     slot is itself a bare type variable (which IS the dispatch target and
//     must stay exact);
//   - staged methods (IsStaged) are never widened: they must specialize
//     exactly on the call-site signature because their body is generated
//     per concrete type.
//
// A call-site tuple longer than mt's max_args against a vararg method is
// truncated to max_args+2 slots, the trailing slot becoming a vararg of the
// common element type when one exists, or the declared vararg element type
// otherwise.
//
// loosened reports whether the result differs from callSig at all, which is
// what forces guard collection on the caller.
func (b *Builder) widen(mt *MethodTable, m *Method, callSig Signature) (widened Signature, simple *Signature, loosened bool) {
	if m.IsStaged {
		return callSig, nil, false
	}
	slots := make([]Type, len(callSig.Slots))
	copy(slots, callSig.Slots)

	var funcWidened []int
	for i := range slots {
		declared, ok := declaredSlot(m.Sig, i)
		if !ok {
			break
		}
		w, viaFunc := b.widenSlot(declared, slots[i], i < len(m.CalledMask), calledAt(m, i))
		if !b.ops.EqualGeneric(w, slots[i]) {
			loosened = true
		}
		if viaFunc {
			funcWidened = append(funcWidened, i)
		}
		slots[i] = w
	}

	vararg := callSig.Vararg
	if m.Sig.Vararg && !m.IsStaged && mt.maxArgs > 0 && len(slots) > mt.maxArgs {
		slots, vararg = b.truncateVararg(m, slots, mt.maxArgs)
		loosened = true
	}

	widened = Signature{Slots: slots, Vararg: vararg, TVars: m.Sig.TVars}
	if len(funcWidened) > 0 {
		// SimpleSig relaxes each Function-widened slot to "accept anything"
		// (a nil slot), so the coarse filter only retains rejection power on
		// the slots that still discriminate.
		s := widened.WithSlots(append([]Type{}, widened.Slots...))
		for _, i := range funcWidened {
			s.Slots[i] = nil
		}
		simple = &s
	}
	return widened, simple, loosened
}

// truncateVararg shortens an oversized concrete argument tuple to
// maxArgs+2 slots so one vararg entry serves every longer tuple.
func (b *Builder) truncateVararg(m *Method, slots []Type, maxArgs int) ([]Type, bool) {
	nkeep := maxArgs + 2
	if nkeep >= len(slots) {
		return slots, true
	}
	last := slots[nkeep-1]
	allSub := true
	for _, s := range slots[nkeep-1:] {
		if !b.ops.Subtype(s, last) {
			allSub = false
			break
		}
	}
	elem := last
	if !allSub {
		// fall back to the declared vararg element type
		elem = m.Sig.Slots[len(m.Sig.Slots)-1]
	}
	out := append(append([]Type{}, slots[:nkeep-1]...), elem)
	return out, true
}

// collectGuards gathers the signatures of every other definition that
// intersects the cache signature and that m does not strictly beat — the
// calls that must NOT reuse this entry because a more specific (or
// ambiguous) definition claims them. Definitions m is strictly more
// specific than are exempt: any tuple matching both resolves to m anyway.
// Reports abandon=true when a qualifying competitor needs type-variable
// matching or the count exceeds GuardThreshold, in which case the caller
// retries under the original concrete signature or restricts the entry to
// exact reuse.
func (b *Builder) collectGuards(mt *MethodTable, m *Method, cacheSig Signature) (guards []Signature, abandon bool) {
	mt.defs.IntersectionVisit(cacheSig, func(e *Entry, _ Signature, _ Env) {
		if abandon {
			return
		}
		other, ok := e.Payload.(*Method)
		if !ok || other == m {
			return
		}
		if moreSpecificSig(b.ops, m.Sig, other.Sig) {
			return
		}
		if len(other.Sig.TVars) > 0 || signatureIsParametric(b.ops, other.Sig) {
			abandon = true
			return
		}
		guards = append(guards, other.Sig)
		if len(guards) > GuardThreshold {
			abandon = true
		}
	})
	if abandon {
		return nil, true
	}
	return guards, false
}

func signatureIsParametric(ops TypeOps, sig Signature) bool {
	for _, s := range sig.Slots {
		if ops.IsParametric(s) {
			return true
		}
	}
	return false
}

func declaredSlot(sig Signature, i int) (Type, bool) {
	if i < len(sig.Slots) {
		return sig.Slots[i], true
	}
	if sig.Vararg && len(sig.Slots) > 0 {
		return sig.Slots[len(sig.Slots)-1], true
	}
	return nil, false
}

func calledAt(m *Method, i int) bool {
	if i < len(m.CalledMask) {
		return m.CalledMask[i]
	}
	return false
}

// widenSlot applies the per-slot rules described on Builder.widen to a
// single (declared, actual) pair. viaFunc reports that the slot was widened
// by the not-called-as-callable rule, which is what triggers SimpleSig
// publication. That rule only fires when the frontend supplied called-mask
// data for the slot — without it, nothing proves the body ignores the
// argument's identity.
func (b *Builder) widenSlot(declared, actual Type, maskKnown, calledAsFunction bool) (Type, bool) {
	if b.ops.IsKind(declared) && !b.ops.IsParametric(declared) {
		// ANY-marker: declared type carries no useful dispatch information
		// beyond what's already encoded structurally.
		return declared, false
	}
	if maskKnown && !calledAsFunction && looksCallable(b.ops, declared) && b.ops.Subtype(actual, declared) {
		return declared, true
	}
	if b.ops.IsTypeOfType(actual) {
		return b.widenTypeOfType(declared, actual), false
	}
	return actual, false
}

// looksCallable reports whether a declared slot type accepts callables
// without itself being a free type variable the dispatch must specialize
// on (Function, or a Function∪DataType-shaped union).
func looksCallable(ops TypeOps, declared Type) bool {
	return ops.IsUnion(declared) && !ops.IsParametric(declared)
}

// widenTypeOfType implements the Type{Tuple{...}}/Type{Type{X}}/"very
// general Type{X}" rules: only actually widen when the declared slot isn't
// itself a bare type variable (which IS the dispatch target and must stay
// exact).
func (b *Builder) widenTypeOfType(declared, actual Type) Type {
	if b.ops.IsParametric(declared) {
		return actual
	}
	return b.ops.WrapAsTypeOf(actual)
}

// JoinSignature repairs a signature produced by widening so that it is
// still guaranteed to be a supertype of the original call-site signature:
// if widening ever produced a slot that is no longer a supertype of the
// call-site slot — a Type{X} argument in a slot the definition actually
// matched on the kind — the call-site slot is substituted back in so the
// cache key reflects what truly matched.
func (b *Builder) JoinSignature(widened, callSig Signature) Signature {
	if len(widened.Slots) != len(callSig.Slots) {
		return widened
	}
	repaired := make([]Type, len(widened.Slots))
	for i, s := range widened.Slots {
		if b.ops.Subtype(callSig.Slots[i], s) {
			repaired[i] = s
			continue
		}
		repaired[i] = callSig.Slots[i]
	}
	return widened.WithSlots(repaired)
}
