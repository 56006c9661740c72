package dispatch

import (
	"strings"
	"testing"
)

func TestNewMethodTracerFires(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")

	var defined []*Method
	g.OnNewMethod(func(m *Method) { defined = append(defined, m) })

	m := defineMethod(g, sig(ftInt), "int")
	if len(defined) != 1 || defined[0] != m {
		t.Errorf("new-method tracer saw %d methods", len(defined))
	}
}

func TestMethodCallTracerFiresOnBothPaths(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	defineMethod(g, sig(ftInt), "int")

	calls := 0
	g.OnMethodCall(func(m *Method, spec *Specialization) { calls++ })

	mustApply(t, g, 4000, ftInt) // slow path
	mustApply(t, g, 4000, ftInt) // fast path
	if calls != 2 {
		t.Errorf("method tracer fired %d times, want 2", calls)
	}
}

func TestTracedMethodFiresOnSpecialization(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	m := NewMethod(sig(ftInt), "main", "", "traced")
	m.IsTraced = true
	g.Define(m)

	seen := 0
	g.OnMethodCall(func(mm *Method, spec *Specialization) {
		if mm == m {
			seen++
		}
	})
	mustApply(t, g, 4100, ftInt)
	// Once for the specialization of a traced method, once for the call.
	if seen < 2 {
		t.Errorf("traced method fired the tracer %d times, want at least 2", seen)
	}
}

func TestPanickingTracerIsSuppressed(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	defineMethod(g, sig(ftInt), "int")
	g.OnMethodCall(func(m *Method, spec *Specialization) {
		panic("tracer bug")
	})

	spec, err := g.ApplyAt(4200, argTypes(ftInt))
	if err != nil || spec == nil {
		t.Fatalf("a panicking tracer must not affect dispatch: %v", err)
	}
}

func TestPureContextFlagDuringTracer(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	defineMethod(g, sig(ftInt), "int")

	var inside, outside bool
	g.OnMethodCall(func(m *Method, spec *Specialization) {
		inside = IsInPureContext()
	})
	mustApply(t, g, 4300, ftInt)
	outside = IsInPureContext()

	if !inside {
		t.Error("IsInPureContext must report true inside a tracer callback")
	}
	if outside {
		t.Error("IsInPureContext must report false outside callbacks")
	}
}

func TestLocationInfoTracerFiresAfterCompile(t *testing.T) {
	ResetCallCache()
	g := NewGeneric(ftOps{}, "f")
	defineMethod(g, sig(ftInt), "int")
	g.InstallCompiler(func(spec *Specialization) Value { return "code" })

	var infos []string
	g.OnLocationInfo(func(spec *Specialization, info string) {
		infos = append(infos, info)
	})

	mustApply(t, g, 4400, ftInt)
	if len(infos) != 1 {
		t.Fatalf("linfo tracer fired %d times, want 1", len(infos))
	}
}

func TestErrorRendering(t *testing.T) {
	noMethod := &NoMethodError{Generic: "f", Args: []string{"Int", "String"}}
	if got := noMethod.Error(); !strings.Contains(got, "f(Int, String)") {
		t.Errorf("unexpected no-method message: %s", got)
	}

	m1 := NewMethod(sig(ftInt, ftAny), "main", "a.fx:1", nil)
	m2 := NewMethod(sig(ftAny, ftInt), "main", "a.fx:2", nil)
	amb := &AmbiguousCallError{Generic: "g", Args: []string{"Int", "Int"}, First: m1, Second: m2}
	got := amb.Error()
	if !strings.Contains(got, "a.fx:1") || !strings.Contains(got, "a.fx:2") {
		t.Errorf("ambiguity message must cite both definition sites: %s", got)
	}
}

func TestMethodAndSpecializationIDs(t *testing.T) {
	g := NewGeneric(ftOps{}, "f")
	m := defineMethod(g, sig(ftInt), "int")
	if m.ID == "" {
		t.Error("methods carry a correlation id")
	}
	ResetCallCache()
	spec := mustApply(t, g, 4500, ftInt)
	if spec.ID == "" {
		t.Error("specializations carry a correlation id")
	}
	if spec.ID == m.ID {
		t.Error("method and specialization ids must be distinct")
	}
}
