package dispatch

import "testing"

// ftOpsU extends the test lattice with union decomposition, which the
// all=true precompile sweep probes for.
type ftOpsU struct{ ftOps }

func (ftOpsU) UnionMembers(t Type) []Type {
	f := t.(ft)
	if f.kind != ftUnion {
		return nil
	}
	out := make([]Type, len(f.members))
	for i, m := range f.members {
		out[i] = m
	}
	return out
}

func TestPrecompileBuildsConcreteDefinitions(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	defineMethod(g, sig(ftInt, ftString), "concrete")
	defineMethod(g, Signature{Slots: []Type{ftVarOf("a")}, TVars: []string{"a"}}, "generic")

	built := g.Precompile(false)
	if built != 1 {
		t.Errorf("precompile built %d specializations, want 1 (the concrete definition)", built)
	}
	if g.Table().Cache().Lookup(g.Table().Definitions()[0], sig(ftInt, ftString)) == nil &&
		g.Table().Cache().AssocExact(argTypes(ftInt, ftString)) == nil {
		t.Error("precompiled specialization not found in the cache")
	}
}

func TestPrecompileAllEnumeratesUnionLegs(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOpsU{}, "f")
	m := NewMethod(sig(ftUnionOf(ftInt, ftString), ftInt), "main", "", nil)
	g.Define(m)

	built := g.Precompile(true)
	if built != 2 {
		t.Fatalf("union sweep built %d specializations, want 2 (Int×Int, String×Int)", built)
	}
	if g.Table().Cache().AssocExact(argTypes(ftInt, ftInt)) == nil {
		t.Error("missing the (Int, Int) leg")
	}
	if g.Table().Cache().AssocExact(argTypes(ftString, ftInt)) == nil {
		t.Error("missing the (String, Int) leg")
	}
}

func TestPrecompileSweepCompilesInferredSpecializations(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	defineMethod(g, sig(ftInt), "int")

	compiled := 0
	g.InstallCompiler(func(spec *Specialization) Value {
		compiled++
		return "code"
	})

	spec := mustApply(t, g, 3000, ftInt)
	if spec.Code != "code" {
		t.Fatalf("compiler hook did not run at build time: %v", spec.Code)
	}
	first := compiled

	// Simulate a specialization left inferred-but-uncompiled.
	spec.Code = nil
	spec.Inferred = true
	if n := g.Precompile(false); n < 1 {
		t.Errorf("sweep compiled %d specializations, want at least 1", n)
	}
	if spec.Code != "code" {
		t.Error("sweep did not restore the code object")
	}
	if compiled <= first {
		t.Error("compiler hook was not invoked by the sweep")
	}
}

func TestInstallInferenceSweepsExistingSpecializations(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	defineMethod(g, sig(ftInt), "int")
	defineMethod(g, sig(ftString), "str")

	mustApply(t, g, 3100, ftInt)
	mustApply(t, g, 3101, ftString)

	var seen int
	var forced bool
	g.InstallInference(func(spec *Specialization, force bool) {
		seen++
		forced = forced || force
		spec.Inferred = true
	})
	if seen != 2 {
		t.Errorf("install sweep visited %d specializations, want 2", seen)
	}
	if !forced {
		t.Error("the install-time sweep runs with force=true")
	}

	// Cache hits never re-enter the hook.
	before := seen
	mustApply(t, g, 3102, ftInt)
	if seen != before {
		t.Errorf("hook re-ran %d times on a cache hit, want 0", seen-before)
	}
}

func TestInferenceFailureLeavesSpecializationUsable(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	defineMethod(g, sig(ftInt), "int")
	g.InstallInference(func(spec *Specialization, force bool) {
		panic("inference exploded")
	})

	spec, err := g.ApplyAt(3200, argTypes(ftInt))
	if err != nil {
		t.Fatalf("dispatch must survive a panicking inferencer: %v", err)
	}
	if spec.Inferred {
		t.Error("failed inference must leave the specialization uninferred")
	}
	if spec.InInference {
		t.Error("the in-inference flag must be cleared on failure")
	}
}
