package dispatch

import (
	"testing"
)

// defineMethod registers a fresh Method with the given signature and body
// tag, returning it for identity assertions.
func defineMethod(g *Generic, s Signature, body string) *Method {
	m := NewMethod(s, "main", "scenario_test.fx", body)
	g.Define(m)
	return m
}

func mustApply(t *testing.T, g *Generic, site uint32, args ...ft) *Specialization {
	t.Helper()
	spec, err := g.ApplyAt(site, argTypes(args...))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	return spec
}

// S1 — exact leaf dispatch.
func TestScenarioExactLeafDispatch(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	m1 := defineMethod(g, sig(ftInt, ftInt), "1")
	defineMethod(g, sig(ftInt, ftReal), "2")

	spec := mustApply(t, g, 100, ftInt, ftInt)
	if spec.Method != m1 {
		t.Fatalf("dispatched to %v, want f(Int, Int)", spec.Method.Template)
	}
	if n := len(g.Table().Cache().Entries()); n != 1 {
		t.Errorf("cache size after one call: %d, want 1", n)
	}
}

// S2 — specificity.
func TestScenarioSpecificity(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	mA := defineMethod(g, sig(ftReal, ftReal), "A")
	mB := defineMethod(g, sig(ftInt, ftInt), "B")

	if spec := mustApply(t, g, 200, ftInt, ftInt); spec.Method != mB {
		t.Errorf("f(2, 3) dispatched to %v, want B", spec.Method.Template)
	}
	if spec := mustApply(t, g, 201, ftReal, ftReal); spec.Method != mA {
		t.Errorf("f(2.0, 3.0) dispatched to %v, want A", spec.Method.Template)
	}
	if n := len(g.Table().Cache().Entries()); n != 2 {
		t.Errorf("cache size: %d, want 2", n)
	}
}

// S3 — ambiguity, then resolution by a covering definition.
func TestScenarioAmbiguity(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "g")
	mX := defineMethod(g, sig(ftInt, ftAny), "X")
	mY := defineMethod(g, sig(ftAny, ftInt), "Y")

	if !containsMethod(mX.Ambig, mY) || !containsMethod(mY.Ambig, mX) {
		t.Fatal("pairwise ambiguity was not recorded on both methods")
	}

	if _, err := g.ApplyAt(300, argTypes(ftInt, ftInt)); err == nil {
		t.Fatal("g(1, 2) should be ambiguous")
	} else if _, ok := err.(*AmbiguousCallError); !ok {
		t.Fatalf("expected AmbiguousCallError, got %T: %v", err, err)
	}

	mZ := defineMethod(g, sig(ftInt, ftInt), "Z")
	spec := mustApply(t, g, 300, ftInt, ftInt)
	if spec.Method != mZ {
		t.Errorf("after covering definition, dispatched to %v, want Z", spec.Method.Template)
	}
	// The recorded ambiguity relation between X and Y is not cleared.
	if !containsMethod(mX.Ambig, mY) || !containsMethod(mY.Ambig, mX) {
		t.Error("covering definition must not clear the recorded ambiguity")
	}
}

// S4 — overwrite invalidates cached specializations.
func TestScenarioOverwriteInvalidates(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "h")
	defineMethod(g, sig(ftInt), "1")

	first := mustApply(t, g, 400, ftInt)
	if first.Method.Template != "1" {
		t.Fatalf("first call dispatched to %v", first.Method.Template)
	}

	m2 := defineMethod(g, sig(ftInt), "2")
	second := mustApply(t, g, 400, ftInt)
	if second.Method != m2 {
		t.Fatalf("redefined call dispatched to %v, want 2", second.Method.Template)
	}
	for _, e := range g.Table().Cache().Entries() {
		if e.Payload.(*Specialization) == first {
			t.Error("stale specialization still present after overwrite")
		}
	}
}

// S5 — vararg truncation.
func TestScenarioVarargTruncation(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "k")
	defineMethod(g, varargSig(ftAny), "k")

	spec := mustApply(t, g, 500, ftInt, ftString, ftInt, ftInt)
	if len(spec.Sig.Slots) > 4 {
		t.Errorf("cache signature has %d slots, want at most 4", len(spec.Sig.Slots))
	}
	if !spec.Sig.Vararg {
		t.Error("truncated cache signature must end in a vararg slot")
	}

	again := mustApply(t, g, 500, ftInt, ftString, ftInt, ftInt)
	if again != spec {
		t.Error("identical call should reuse the truncated entry")
	}
	longer := mustApply(t, g, 501, ftInt, ftString, ftInt, ftInt, ftInt)
	if longer != spec {
		t.Error("a longer tuple whose tail shares the element type should hit the same entry")
	}
}

// S6 — invoke() to a less specific method without polluting the cache.
func TestScenarioInvoke(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "p")
	mR := defineMethod(g, sig(ftReal), "R")
	mI := defineMethod(g, sig(ftInt), "I")

	if spec := mustApply(t, g, 600, ftInt); spec.Method != mI {
		t.Fatalf("normal dispatch chose %v, want I", spec.Method.Template)
	}
	cacheBefore := len(g.Table().Cache().Entries())

	spec, err := g.Invoke(mR, argTypes(ftInt))
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if spec.Method != mR {
		t.Errorf("invoke dispatched to %v, want R", spec.Method.Template)
	}
	if n := len(g.Table().Cache().Entries()); n != cacheBefore {
		t.Errorf("shared cache grew from %d to %d during invoke", cacheBefore, n)
	}
	if mR.Invokes == nil || mR.Invokes.Len() != 1 {
		t.Error("invoke specialization was not recorded on the method's private map")
	}

	// Repeat invoke reuses the private entry.
	again, err := g.Invoke(mR, argTypes(ftInt))
	if err != nil {
		t.Fatalf("second invoke failed: %v", err)
	}
	if again != spec {
		t.Error("second invoke rebuilt instead of reusing")
	}

	// The signature-directed form selects the same method.
	byType, err := g.InvokeByType(sig(ftReal), argTypes(ftInt))
	if err != nil {
		t.Fatalf("InvokeByType failed: %v", err)
	}
	if byType.Method != mR {
		t.Errorf("InvokeByType chose %v, want R", byType.Method.Template)
	}
}

func TestNoMethodError(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	defineMethod(g, sig(ftInt), "only")

	_, err := g.ApplyAt(700, argTypes(ftString))
	if err == nil {
		t.Fatal("expected no-method-matches error")
	}
	if _, ok := err.(*NoMethodError); !ok {
		t.Fatalf("expected NoMethodError, got %T", err)
	}
}

func containsMethod(list []*Method, m *Method) bool {
	for _, x := range list {
		if x == m {
			return true
		}
	}
	return false
}
