package dispatch

import "testing"

func newTestBuilder() *Builder {
	return NewBuilder(ftOps{}, nil, NewTracers())
}

func TestWidenStagedMethodKeepsExactSignature(t *testing.T) {
	g := NewGeneric(ftOps{}, "staged")
	m := NewMethod(varargSig(ftAny), "main", "", nil)
	m.IsStaged = true
	g.Define(m)

	res := newTestBuilder().Build(g.Table(), m, Signature{Slots: argTypes(ftInt, ftInt, ftInt, ftInt), Vararg: true})
	if len(res.Spec.Sig.Slots) != 4 {
		t.Errorf("staged method was truncated to %d slots", len(res.Spec.Sig.Slots))
	}
	if res.SimpleSig != nil || len(res.GuardSigs) != 0 {
		t.Error("staged specializations carry no widening metadata")
	}
}

func TestWidenFunctionSlotPublishesSimpleSig(t *testing.T) {
	g := NewGeneric(ftOps{}, "callback")
	declared := ftUnionOf(ftFunction, ftDataType)
	m := NewMethod(sig(declared, ftInt), "main", "", nil)
	m.CalledMask = []bool{false, false} // slot 0 never called inside the body
	g.Define(m)

	res := newTestBuilder().Build(g.Table(), m, sig(ftFunction, ftInt))
	ops := ftOps{}
	if !ops.EqualGeneric(res.Spec.Sig.Slots[0], declared) {
		t.Errorf("slot 0 should widen to the declared callable union, got %s", ops.String(res.Spec.Sig.Slots[0]))
	}
	if res.SimpleSig == nil {
		t.Fatal("function-widening must publish a simplesig")
	}
	if res.SimpleSig.Slots[0] != nil {
		t.Error("the widened slot of the simplesig must accept anything")
	}
	if !ops.EqualGeneric(res.SimpleSig.Slots[1], ftInt) {
		t.Error("untouched slots of the simplesig keep their types")
	}
}

func TestWidenFunctionSlotRespectsCalledMask(t *testing.T) {
	g := NewGeneric(ftOps{}, "callback")
	declared := ftUnionOf(ftFunction, ftDataType)
	m := NewMethod(sig(declared), "main", "", nil)
	m.CalledMask = []bool{true} // the body calls the argument
	g.Define(m)

	res := newTestBuilder().Build(g.Table(), m, sig(ftFunction))
	if !(ftOps{}).EqualGeneric(res.Spec.Sig.Slots[0], ftFunction) {
		t.Error("a slot the body calls must stay at the call-site type")
	}
	if res.SimpleSig != nil {
		t.Error("no simplesig without function widening")
	}
}

func TestVarargTruncationCommonElement(t *testing.T) {
	g := NewGeneric(ftOps{}, "k")
	m := NewMethod(varargSig(ftAny), "main", "", nil)
	g.Define(m)

	// maxArgs is 1, so the truncated signature keeps maxArgs+2 = 3 slots.
	call := Signature{Slots: argTypes(ftString, ftInt, ftInt, ftInt, ftInt), Vararg: true}
	res := newTestBuilder().Build(g.Table(), m, call)
	if len(res.Spec.Sig.Slots) != 3 {
		t.Fatalf("truncated to %d slots, want 3", len(res.Spec.Sig.Slots))
	}
	if !res.Spec.Sig.Vararg {
		t.Error("truncated signature must stay vararg")
	}
	last := res.Spec.Sig.Slots[2]
	if !(ftOps{}).EqualGeneric(last, ftInt) {
		t.Errorf("trailing element should be the common Int, got %s", (ftOps{}).String(last))
	}
}

func TestVarargTruncationFallsBackToDeclaredElement(t *testing.T) {
	g := NewGeneric(ftOps{}, "k")
	m := NewMethod(varargSig(ftAny), "main", "", nil)
	g.Define(m)

	// The truncated tail mixes Int and String, so no common subtype of the
	// cut point exists; the declared Any element takes over.
	call := Signature{Slots: argTypes(ftString, ftString, ftInt, ftString), Vararg: true}
	res := newTestBuilder().Build(g.Table(), m, call)
	last := res.Spec.Sig.Slots[len(res.Spec.Sig.Slots)-1]
	if !(ftOps{}).EqualGeneric(last, ftAny) {
		t.Errorf("mixed tail should fall back to the declared element, got %s", (ftOps{}).String(last))
	}
}

func TestGuardCollectionExemptsBeatenDefinitions(t *testing.T) {
	g := NewGeneric(ftOps{}, "f")
	mInt := defineMethod(g, sig(ftInt), "int")
	mReal := defineMethod(g, sig(ftReal), "real")

	// The Int entry beats Real everywhere they overlap: no guard needed.
	resInt := newTestBuilder().Build(g.Table(), mInt, sig(ftInt))
	if len(resInt.GuardSigs) != 0 {
		t.Errorf("f(Int) entry carries %d guards, want none", len(resInt.GuardSigs))
	}

	// The Real entry overlaps the more specific Int definition and must
	// guard against it.
	resReal := newTestBuilder().Build(g.Table(), mReal, sig(ftReal))
	if len(resReal.GuardSigs) != 1 {
		t.Fatalf("f(Real) entry carries %d guards, want 1", len(resReal.GuardSigs))
	}
	if !(ftOps{}).EqualGeneric(resReal.GuardSigs[0].Slots[0], ftInt) {
		t.Error("the guard must be the competing (Int) signature")
	}
}

func TestGuardCollectionAbandonsOnParametricCompetitor(t *testing.T) {
	g := NewGeneric(ftOps{}, "f")
	// Two definitions that overlap without either beating the other: each
	// is more specific in one slot and parametric in the other.
	m := NewMethod(Signature{Slots: []Type{ftReal, ftVarOf("a")}, TVars: []string{"a"}}, "main", "", nil)
	g.Define(m)
	other := NewMethod(Signature{Slots: []Type{ftVarOf("b"), ftInt}, TVars: []string{"b"}}, "main", "", nil)
	g.Define(other)

	res := newTestBuilder().Build(g.Table(), m, sig(ftReal, ftInt))
	if len(res.GuardSigs) != 0 {
		t.Error("type-variable competitors cannot be expressed as guards")
	}
	if !res.ExactOnly {
		t.Error("without guards the entry must be restricted to exact reuse")
	}
}

func TestGuardThresholdAbandonsWidening(t *testing.T) {
	prev := GuardThreshold
	GuardThreshold = 0
	defer func() { GuardThreshold = prev }()

	g := NewGeneric(ftOps{}, "f")
	defineMethod(g, sig(ftInt), "int")
	mReal := defineMethod(g, sig(ftReal), "real")

	res := newTestBuilder().Build(g.Table(), mReal, sig(ftReal))
	if len(res.GuardSigs) != 0 || !res.ExactOnly {
		t.Error("past the guard threshold the entry must fall back to exact-only caching")
	}
}

func TestJoinSignatureRepairsUnsoundSlots(t *testing.T) {
	b := newTestBuilder()
	widened := sig(ftInt, ftString)
	call := sig(ftInt, ftInt)
	repaired := b.JoinSignature(widened, call)
	if !(ftOps{}).EqualGeneric(repaired.Slots[1], ftInt) {
		t.Error("a widened slot that stopped covering the call site must be repaired back")
	}
	if !(ftOps{}).EqualGeneric(repaired.Slots[0], ftInt) {
		t.Error("sound slots keep the widened type")
	}
}
