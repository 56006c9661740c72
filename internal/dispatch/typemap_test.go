package dispatch

import "testing"

func TestInsertOrdersMoreSpecificFirst(t *testing.T) {
	tm := NewTypeMap(ftOps{}, 0)
	tm.Insert(sig(ftReal, ftReal), "real")
	tm.Insert(sig(ftInt, ftInt), "int")
	tm.Insert(sig(ftNumber, ftNumber), "number")

	entries := tm.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	order := []string{
		entries[0].Payload.(string),
		entries[1].Payload.(string),
		entries[2].Payload.(string),
	}
	if order[0] != "int" || order[1] != "real" || order[2] != "number" {
		t.Errorf("wrong specificity order: %v", order)
	}
}

func TestInsertReplacesTypeEqualSignature(t *testing.T) {
	tm := NewTypeMap(ftOps{}, 0)
	if old := tm.Insert(sig(ftInt), "first"); old != nil {
		t.Fatalf("unexpected overwrite on fresh insert: %v", old)
	}
	old := tm.Insert(sig(ftInt), "second")
	if old != "first" {
		t.Fatalf("expected overwrite to return old payload, got %v", old)
	}
	if tm.Len() != 1 {
		t.Errorf("expected 1 entry after overwrite, got %d", tm.Len())
	}
	if got := tm.Entries()[0].Payload; got != "second" {
		t.Errorf("expected new payload to win, got %v", got)
	}
}

func TestAssocExactMatchesConcreteTuple(t *testing.T) {
	tm := NewTypeMap(ftOps{}, 0)
	tm.Insert(sig(ftInt, ftString), "a")
	tm.Insert(sig(ftInt, ftInt), "b")

	e := tm.AssocExact(argTypes(ftInt, ftString))
	if e == nil || e.Payload != "a" {
		t.Fatalf("wrong entry for (Int, String): %+v", e)
	}
	if tm.AssocExact(argTypes(ftString, ftString)) != nil {
		t.Error("expected miss for unregistered tuple")
	}
	// Exact means type-equal, not subtype: (Int) must not hit a (Real) entry.
	tm2 := NewTypeMap(ftOps{}, 0)
	tm2.Insert(sig(ftReal), "real")
	if tm2.AssocExact(argTypes(ftInt)) != nil {
		t.Error("assoc_exact must not fall back to subtype matching")
	}
}

func TestGuardSigsSkipEntry(t *testing.T) {
	// A truncated vararg entry guarded by a fixed-arity sibling: tuples the
	// sibling claims must skip the entry and fall through.
	tm := NewTypeMap(ftOps{}, 0)
	tm.Insert(varargSig(ftInt), "varargs")
	e := tm.Entries()[0]
	e.GuardSigs = []Signature{sig(ftInt, ftInt)}

	if hit := tm.AssocExact(argTypes(ftInt)); hit == nil {
		t.Fatal("expected single-Int tuple to match (guard is 2-ary)")
	}
	if hit := tm.AssocExact(argTypes(ftInt, ftInt, ftInt)); hit == nil {
		t.Fatal("expected 3-Int tuple to match (guard is 2-ary)")
	}
	if hit := tm.AssocExact(argTypes(ftInt, ftInt)); hit != nil {
		t.Error("guard signature should have excluded the 2-Int tuple")
	}
}

func TestSimpleSigRejectsFast(t *testing.T) {
	tm := NewTypeMap(ftOps{}, 0)
	tm.Insert(sig(ftInt, ftInt), "x")
	e := tm.Entries()[0]
	reject := sig(ftString, ftString)
	e.SimpleSig = &reject

	if tm.AssocExact(argTypes(ftInt, ftInt)) != nil {
		t.Error("simplesig mismatch must reject before the exact test")
	}
	e.SimpleSig = nil
	if tm.AssocExact(argTypes(ftInt, ftInt)) == nil {
		t.Error("entry should match once the rejection filter is removed")
	}
}

func TestAssocByTypeModes(t *testing.T) {
	tm := NewTypeMap(ftOps{}, 0)
	tm.Insert(sig(ftInt), "int")
	tm.Insert(sig(ftReal), "real")

	// Exact mode.
	if e, _ := tm.AssocByType(sig(ftReal), true, false); e == nil || e.Payload != "real" {
		t.Errorf("exact lookup failed: %+v", e)
	}
	if e, _ := tm.AssocByType(sig(ftNumber), true, false); e != nil {
		t.Errorf("exact lookup must not widen: %+v", e)
	}

	// Subtype mode: (Int) is covered by the (Int) entry first.
	if e, _ := tm.AssocByType(sig(ftInt), false, true); e == nil || e.Payload != "int" {
		t.Errorf("subtype lookup picked wrong entry: %+v", e)
	}
}

func TestIntersectionVisitOrderAndFilter(t *testing.T) {
	tm := NewTypeMap(ftOps{}, 0)
	tm.Insert(sig(ftInt), "int")
	tm.Insert(sig(ftReal), "real")
	tm.Insert(sig(ftString), "string")

	var seen []string
	tm.IntersectionVisit(sig(ftReal), func(e *Entry, inter Signature, _ Env) {
		seen = append(seen, e.Payload.(string))
		if len(inter.Slots) != 1 {
			t.Errorf("intersection arity mismatch: %d", len(inter.Slots))
		}
	})
	if len(seen) != 2 || seen[0] != "int" || seen[1] != "real" {
		t.Errorf("expected [int real] (String does not intersect Real), got %v", seen)
	}
}

func TestRemoveUnlinksEntry(t *testing.T) {
	tm := NewTypeMap(ftOps{}, 0)
	tm.Insert(sig(ftInt), "int")
	tm.Insert(sig(ftReal), "real")

	target := tm.AssocExact(argTypes(ftInt))
	tm.Remove(target)
	if tm.Len() != 1 {
		t.Fatalf("expected 1 entry after removal, got %d", tm.Len())
	}
	if tm.AssocExact(argTypes(ftInt)) != nil {
		t.Error("removed entry still reachable")
	}
	tm.Remove(target) // second removal is a no-op
	if tm.Len() != 1 {
		t.Error("double-remove corrupted the map")
	}
}

func TestVarargSignatureMatching(t *testing.T) {
	tm := NewTypeMap(ftOps{}, 0)
	tm.Insert(varargSig(ftInt), "ints")

	if tm.AssocExact(argTypes(ftInt, ftInt, ftInt)) == nil {
		t.Error("vararg entry should absorb extra Int arguments")
	}
	if tm.AssocExact(argTypes(ftInt, ftString)) != nil {
		t.Error("vararg element type must still be enforced")
	}
}
