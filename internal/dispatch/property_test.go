package dispatch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Property 1: a ground instance of exactly one most-specific definition
// always dispatches to that definition.
func TestPropertyGroundInstanceDispatch(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	mNum := defineMethod(g, sig(ftNumber), "num")
	mInt := defineMethod(g, sig(ftInt), "int")
	mStr := defineMethod(g, sig(ftString), "str")

	cases := []struct {
		arg  ft
		want *Method
	}{
		{ftInt, mInt},
		{ftReal, mNum},
		{ftNumber, mNum},
		{ftString, mStr},
	}
	for i, tc := range cases {
		spec := mustApply(t, g, uint32(1000+i), tc.arg)
		if spec.Method != tc.want {
			t.Errorf("%s dispatched to %v, want %v", (ftOps{}).String(tc.arg),
				spec.Method.Template, tc.want.Template)
		}
	}
}

// Property 2: a tuple matched by two mutually-ambiguous methods makes the
// inexact type lookup return none.
func TestPropertyAmbiguousLookupReturnsNone(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "g")
	defineMethod(g, sig(ftInt, ftAny), "X")
	defineMethod(g, sig(ftAny, ftInt), "Y")

	if m, _ := g.Table().LookupByType(sig(ftInt, ftInt), false, true); m != nil {
		t.Errorf("inexact lookup over an ambiguous tuple returned %v, want none", m.Template)
	}
	// An unambiguous tuple still resolves.
	if m, _ := g.Table().LookupByType(sig(ftInt, ftString), false, true); m == nil {
		t.Error("g(Int, String) matches only g(Int, Any) and must resolve")
	}
}

// Property 3: a new strictly-covering definition invalidates prior
// specializations in the overlap.
func TestPropertyShadowingInvalidates(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	mAny := defineMethod(g, sig(ftAny), "any")

	before := mustApply(t, g, 1100, ftInt)
	if before.Method != mAny {
		t.Fatalf("warmup dispatched to %v", before.Method.Template)
	}

	mInt := defineMethod(g, sig(ftInt), "int")
	after := mustApply(t, g, 1100, ftInt)
	if after.Method != mInt {
		t.Errorf("post-shadow dispatch chose %v, want the new int method", after.Method.Template)
	}
	for _, e := range g.Table().Cache().Entries() {
		if e.Payload.(*Specialization) == before {
			t.Error("shadowed specialization survived invalidation")
		}
	}
	// The Real domain of f(Any) is untouched.
	if spec := mustApply(t, g, 1101, ftReal); spec.Method != mAny {
		t.Errorf("f(Real) dispatched to %v, want the Any method", spec.Method.Template)
	}
}

// Property 4: compile_hint is idempotent.
func TestPropertyCompileHintIdempotent(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	defineMethod(g, sig(ftInt), "int")

	if !g.CompileHint(sig(ftInt)) {
		t.Fatal("compile hint for a registered concrete signature must succeed")
	}
	if !g.CompileHint(sig(ftInt)) {
		t.Fatal("second compile hint must also report success")
	}

	covering := 0
	for _, e := range g.Table().Cache().Entries() {
		if signatureMatchesTypes(g.ops, e.Sig, argTypes(ftInt)) {
			covering++
		}
	}
	if covering != 1 {
		t.Errorf("cache holds %d specializations covering (Int), want exactly 1", covering)
	}
}

// Property 5: round-trip — every definition signature resolves exactly to
// its own entry.
func TestPropertyDefsRoundTrip(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	sigs := []Signature{sig(ftInt), sig(ftReal, ftString), varargSig(ftNumber)}
	for i, s := range sigs {
		defineMethod(g, s, string(rune('a'+i)))
	}

	for _, s := range sigs {
		e, _ := g.Table().Defs().AssocByType(s, true, false)
		if e == nil {
			t.Fatalf("definition %v not found by exact lookup", renderSig(s))
		}
		if diff := cmp.Diff(renderSig(s), renderSig(e.Sig)); diff != "" {
			t.Errorf("round-trip signature mismatch (-want +got):\n%s", diff)
		}
	}
}

// Property 6: the inline-cache fast path returns the same specialization
// the slow path would.
func TestPropertyFastPathEquivalence(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	defineMethod(g, sig(ftInt, ftInt), "ii")
	defineMethod(g, sig(ftReal, ftReal), "rr")

	const site = 1200
	slow := mustApply(t, g, site, ftInt, ftInt) // cold: slow path, installs the entry
	fast := mustApply(t, g, site, ftInt, ftInt) // warm: fast path
	if slow != fast {
		t.Error("fast path returned a different specialization than the slow path")
	}

	// A different call site misses the inline cache but resolves through
	// the dispatch cache to the same specialization.
	other := mustApply(t, g, site+7, ftInt, ftInt)
	if other != slow {
		t.Error("per-site cache state changed the dispatch result")
	}

	// Errors are identical on both paths.
	if _, err := g.ApplyAt(site, argTypes(ftString, ftString)); err == nil {
		t.Error("fast-path site must still report no-method for unmatched tuples")
	}
}

// The unspecialized fallback is shared across specializations of a method
// with static parameters.
func TestStaticParamFallbackShared(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "id")
	generic := Signature{Slots: []Type{ftVarOf("a")}, TVars: []string{"a"}}
	defineMethod(g, generic, "generic")

	s1 := mustApply(t, g, 1300, ftInt)
	s2 := mustApply(t, g, 1301, ftString)
	if s1 == s2 {
		t.Fatal("distinct concrete signatures built the same specialization")
	}
	if s1.Fallback == nil || s2.Fallback == nil {
		t.Fatal("specializations of a static-parameter method need a fallback")
	}
	if s1.Fallback != s2.Fallback {
		t.Error("fallback must be the single shared unspecialized specialization")
	}
}

func renderSig(s Signature) []string {
	ops := ftOps{}
	out := make([]string, 0, len(s.Slots)+1)
	for _, slot := range s.Slots {
		out = append(out, ops.String(slot))
	}
	if s.Vararg {
		out = append(out, "...")
	}
	return out
}
