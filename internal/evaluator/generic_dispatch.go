package evaluator

import (
	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/dispatch"
	"github.com/funvibe/funxy/internal/typesystem"
)

// genericKey forms the registry key a trait method is filed under in
// Evaluator.GenericDispatch.
func genericKey(className, methodName string) string {
	return className + "." + methodName
}

// genericFor returns (creating if necessary) the dispatch.Generic backing
// className.methodName.
func (e *Evaluator) genericFor(className, methodName string) *dispatch.Generic {
	key := genericKey(className, methodName)
	if g, ok := e.GenericDispatch[key]; ok {
		return g
	}
	g := dispatch.NewGeneric(typesystem.DispatchOps, key)
	e.GenericDispatch[key] = g
	return g
}

// mentionsTypeName reports whether t contains a TCon named name anywhere.
// Trait type parameters come out of ASTTypeToTypesystem as TCons (the
// parser doesn't distinguish a lowercase type name from a type variable),
// so this is a ReplaceTCon probe rather than a FreeTypeVariables check.
func mentionsTypeName(t typesystem.Type, name string) bool {
	if t == nil {
		return false
	}
	probe := typesystem.ReplaceTCon(t, name, typesystem.TCon{Name: "\x00probe"})
	return probe.String() != t.String()
}

// instanceDispatchSignature builds the dispatch.Signature a trait method
// implementation should be registered under for a particular instance:
// the trait's declared parameter types with every trait type parameter
// substituted by the instance's concrete argument type. ok=false means the
// method can't be dispatched from argument types alone — it has no
// parameters, or some trait type parameter never appears in them (e.g.
// return-type-only parameters like Converter<A, B>'s B) — and must stay on
// the legacy context-driven strategies.
func (e *Evaluator) instanceDispatchSignature(className, methodName string, instArgs []typesystem.Type) (dispatch.Signature, bool) {
	traitSig, found := e.TraitSignatures[genericKey(className, methodName)]
	if !found || len(traitSig.Parameters) == 0 {
		return dispatch.Signature{}, false
	}
	tparams := e.TraitTypeParamNames[className]
	if len(tparams) == 0 || len(tparams) > len(instArgs) {
		return dispatch.Signature{}, false
	}

	declared := make([]typesystem.Type, 0, len(traitSig.Parameters))
	vararg := false
	for i, p := range traitSig.Parameters {
		t := ASTTypeToTypesystem(p.Type)
		if p.IsVariadic && i == len(traitSig.Parameters)-1 {
			vararg = true
		}
		declared = append(declared, t)
	}

	// Every trait type parameter must be recoverable from the argument
	// types, or two instances would collapse onto one signature and
	// silently overwrite each other in the method table.
	for _, name := range tparams {
		seen := false
		for _, d := range declared {
			if mentionsTypeName(d, name) {
				seen = true
				break
			}
		}
		if !seen {
			return dispatch.Signature{}, false
		}
	}

	slots := make([]dispatch.Type, 0, len(declared))
	for _, d := range declared {
		for i, name := range tparams {
			d = typesystem.ReplaceTCon(d, name, instArgs[i])
		}
		slots = append(slots, d)
	}
	return dispatch.Signature{Slots: slots, Vararg: vararg}, true
}

// RegisterInstanceMethod registers template as className's implementation
// of methodName under sig, wiring it into the TypeMap-based dispatch engine
// in addition to the legacy string-keyed ClassImplementations population
// evalInstanceDeclaration already does. origin/source are carried onto the
// Method for diagnostics.
func (e *Evaluator) RegisterInstanceMethod(className, methodName string, sig dispatch.Signature, origin, source string, template Object) []dispatch.Warning {
	if e.GenericDispatch == nil {
		e.GenericDispatch = make(map[string]*dispatch.Generic)
	}
	g := e.genericFor(className, methodName)
	m := dispatch.NewMethod(sig, origin, source, template)
	return g.Define(m)
}

// argRuntimeTypes computes the concrete runtime type of every argument, for
// use as a dispatch.Generic.ApplyAt query. Returns ok=false if any
// argument's runtime type can't be determined (e.g. a Dictionary witness
// slipped through), in which case callers should fall back to the legacy
// heuristics rather than ask the new engine with incomplete information.
func argRuntimeTypes(args []Object) ([]dispatch.Type, bool) {
	out := make([]dispatch.Type, len(args))
	for i, a := range args {
		if _, isDict := a.(*Dictionary); isDict {
			return nil, false
		}
		rt := typesystem.DispatchOps.TypeOf(a)
		if rt == nil {
			return nil, false
		}
		out[i] = rt
	}
	return out, true
}

// callSiteID derives a stable inline-cache site identifier from the AST
// call node currently being evaluated; zero (a shared cold site) when no
// node is tracked.
func (e *Evaluator) callSiteID() uint32 {
	provider, ok := e.CurrentCallNode.(ast.TokenProvider)
	if !ok {
		return 0
	}
	// Token positions are stable for the lifetime of the program, which is
	// all the inline cache asks of a site identifier.
	tok := provider.GetToken()
	return uint32(tok.Line)<<10 ^ uint32(tok.Column)
}

// dispatchClassMethod asks the TypeMap-based engine to resolve fn against
// args, returning (result, true) on a definite answer (a successful call or
// a genuine dispatch error worth surfacing, e.g. ambiguity) and (nil,
// false) when the new engine has nothing registered for this trait method
// or can't form a query from args, so the caller should fall through to the
// legacy heuristics in apply.go's *ClassMethod case.
func (e *Evaluator) dispatchClassMethod(fn *ClassMethod, args []Object) (Object, bool) {
	key := genericKey(fn.ClassName, fn.Name)
	g, ok := e.GenericDispatch[key]
	if !ok || !g.Exists() {
		return nil, false
	}
	argTypes, ok := argRuntimeTypes(args)
	if !ok {
		return nil, false
	}
	spec, err := g.ApplyAt(e.callSiteID(), argTypes)
	if err != nil {
		if _, isNoMethod := err.(*dispatch.NoMethodError); isNoMethod {
			// Registered generic exists but nothing matches these args:
			// let the legacy heuristics have a shot (trait defaults,
			// witness-stack fallback) before giving up entirely.
			return nil, false
		}
		return newError("%s", err.Error()), true
	}
	template, ok := spec.Method.Template.(Object)
	if !ok {
		return nil, false
	}
	return e.ApplyFunction(template, args), true
}
