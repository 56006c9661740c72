package dispatch

// AmbiguityDiagnostics controls whether Define eagerly computes and returns
// human-readable ambiguity warnings at definition time, or only records the
// ambiguous pairs on the Methods themselves for lazy reporting at a failing
// call site. Resolves the eager_ambiguity_printing open question: off by
// default, since walking every existing definition on each new one is only
// worth the cost when a caller has opted in (e.g. a linter or the LSP).
var AmbiguityDiagnostics = false

// Warning describes a potential definition-time problem surfaced by Define:
// either two methods whose signatures intersect without one strictly
// covering the other (ambiguous), or a newly-added method that fully covers
// an existing one, which invalidates any specializations already cached
// under it (shadowed).
type Warning struct {
	Kind      WarningKind
	New       *Method
	Other     *Method
	Signature Signature // the offending intersection, for ambiguous warnings
}

type WarningKind int

const (
	WarnAmbiguous WarningKind = iota
	WarnShadowed
)

// Define adds m to mt, running the definition-time ambiguity and shadowing
// analysis: overwrite detection (type-equal signature replaces
// in-place and invalidates its old specializations), pairwise ambiguity
// detection against every existing definition via intersection_visit, and
// shadowing detection (m's signature is a strict supertype of an existing
// method's, so that method's cached specializations, built under the
// now-stale assumption that nothing more specific existed narrower than it,
// must be invalidated).
func (mt *MethodTable) Define(m *Method) []Warning {
	if overwritten := mt.rawInsert(m); overwritten != nil {
		mt.cache.Invalidate(overwritten)
		// The replaced definition's ambiguity relation carries over: the
		// new body has the same signature, so every prior conflict still
		// applies. Peers are repointed from the old Method to the new one.
		for _, other := range overwritten.Ambig {
			removeAmbig(other, overwritten)
			if !hasAmbig(other, m) {
				other.Ambig = append(other.Ambig, m)
			}
			if !hasAmbig(m, other) {
				m.Ambig = append(m.Ambig, other)
			}
		}
	}

	var warnings []Warning
	mt.defs.IntersectionVisit(m.Sig, func(e *Entry, inter Signature, _ Env) {
		other, ok := e.Payload.(*Method)
		if !ok || other == m {
			return
		}
		switch {
		case moreSpecificSig(mt.ops, m.Sig, other.Sig):
			// m strictly refines other: other's existing specializations
			// covering the overlap are no longer safe to reuse, since a
			// more specific method now applies to that subset of inputs.
			mt.cache.InvalidateMatching(other, inter)
			if AmbiguityDiagnostics {
				warnings = append(warnings, Warning{Kind: WarnShadowed, New: m, Other: other, Signature: inter})
			}
		case moreSpecificSig(mt.ops, other.Sig, m.Sig):
			// other already strictly refines m: nothing to invalidate, m
			// simply never wins on that overlap.
		default:
			// Neither refines the other but they intersect: genuinely
			// ambiguous unless some third, already-registered definition
			// exactly covers the intersection (the "coverage by a third
			// definition" exemption).
			if mt.intersectionCovered(inter, m, other) {
				return
			}
			if !hasAmbig(m, other) {
				m.Ambig = append(m.Ambig, other)
			}
			if !hasAmbig(other, m) {
				other.Ambig = append(other.Ambig, m)
			}
			if AmbiguityDiagnostics {
				warnings = append(warnings, Warning{Kind: WarnAmbiguous, New: m, Other: other, Signature: inter})
			}
		}
	})
	return warnings
}

// intersectionCovered reports whether some definition other than a and b
// already has a signature that is itself more specific than (or type-equal
// to) the intersection of a and b — in which case a call landing in that
// intersection is unambiguously resolved by the covering definition, and a
// and b are not considered ambiguous with each other.
func (mt *MethodTable) intersectionCovered(inter Signature, a, b *Method) bool {
	covered := false
	mt.defs.IntersectionVisit(inter, func(e *Entry, _ Signature, _ Env) {
		if covered {
			return
		}
		cand, ok := e.Payload.(*Method)
		if !ok || cand == a || cand == b {
			return
		}
		if moreSpecificSig(mt.ops, cand.Sig, inter) || SignaturesEqual(mt.ops, cand.Sig, inter) {
			covered = true
		}
	})
	return covered
}

func hasAmbig(m *Method, target *Method) bool {
	for _, a := range m.Ambig {
		if a == target {
			return true
		}
	}
	return false
}

func removeAmbig(m *Method, target *Method) {
	out := m.Ambig[:0]
	for _, a := range m.Ambig {
		if a != target {
			out = append(out, a)
		}
	}
	m.Ambig = out
}

// IsAmbiguousFor reports whether argTypes matches more than one
// pairwise-ambiguous definition equally well, i.e. the call itself is
// ambiguous rather than merely two definitions existing that are ambiguous
// with each other in the abstract.
func (mt *MethodTable) IsAmbiguousFor(argTypes []Type) (*Method, *Method, bool) {
	m := mt.LookupByArgs(argTypes)
	if m == nil {
		return nil, nil, false
	}
	for _, other := range m.Ambig {
		if signatureMatchesTypes(mt.ops, other.Sig, argTypes) {
			return m, other, true
		}
	}
	return nil, nil, false
}
