package typesystem

import "github.com/funvibe/funxy/internal/dispatch"

// Ops implements dispatch.TypeOps over this package's Type representation.
// It is the one seam through which internal/dispatch, which never imports
// typesystem and knows nothing about TCon/TApp/TUnion, asks questions about
// concrete Funxy types. Stateless: a single package-level instance is
// shared by every Generic the evaluator constructs.
type Ops struct{}

// DispatchOps is the shared Ops instance evaluator wiring should pass to
// dispatch.NewGeneric/NewMethodTable.
var DispatchOps dispatch.TypeOps = Ops{}

func asType(t dispatch.Type) Type {
	if t == nil {
		return nil
	}
	ty, _ := t.(Type)
	return ty
}

func (Ops) IsConcrete(t dispatch.Type) bool {
	return IsConcreteType(asType(t))
}

func (Ops) IsParametric(t dispatch.Type) bool {
	ty := asType(t)
	if ty == nil {
		return false
	}
	return len(ty.FreeTypeVariables()) > 0
}

// IsVararg always reports false: this type system represents a variadic
// parameter at the signature level (TFunc.IsVariadic / dispatch.Signature's
// own Vararg flag), not as a dedicated wrapper Type the way a value's
// static type might be tagged. There is nothing for dispatch to ask a
// single Type about varargness.
func (Ops) IsVararg(t dispatch.Type) bool { return false }

func (Ops) IsUnion(t dispatch.Type) bool {
	_, ok := asType(t).(TUnion)
	return ok
}

func (Ops) IsTypeOfType(t dispatch.Type) bool {
	_, ok := asType(t).(TType)
	return ok
}

// IsKind reports whether t is a bare, unapplied higher-kinded type
// constructor (Kind() is an arrow rather than Star) used directly as a
// declared parameter type — e.g. a method parameter declared as `Functor`
// rather than `Functor<Int>`. Such a slot carries no further dispatch
// information beyond "implements this shape", the same role Julia's bare
// `Any`/`DataType` markers play for the specialization builder's
// ANY-marker widening rule.
func (Ops) IsKind(t dispatch.Type) bool {
	ty := asType(t)
	if ty == nil {
		return false
	}
	if _, ok := ty.Kind().(KArrow); ok {
		return true
	}
	return false
}

// TypeOf returns v's runtime type. v is expected to satisfy a RuntimeType()
// Type method, the shape every evaluator.Object already has; no import of
// internal/evaluator is needed since this only requires structural typing.
func (Ops) TypeOf(v dispatch.Value) dispatch.Type {
	rt, ok := v.(interface{ RuntimeType() Type })
	if !ok {
		return nil
	}
	return rt.RuntimeType()
}

func (Ops) Intersect(a, b dispatch.Type) (dispatch.Type, bool) {
	t, ok := Intersect(asType(a), asType(b))
	return t, ok
}

func (Ops) Subtype(a, b dispatch.Type) bool {
	return Subtype(asType(a), asType(b))
}

func (Ops) MoreSpecific(a, b dispatch.Type) bool {
	return MoreSpecific(asType(a), asType(b))
}

func (Ops) EqualGeneric(a, b dispatch.Type) bool {
	return EqualGeneric(asType(a), asType(b))
}

func (Ops) Instantiate(t dispatch.Type, env dispatch.Env) dispatch.Type {
	ty := asType(t)
	if ty == nil {
		return nil
	}
	subst := Subst{}
	for _, p := range env.Pairs() {
		if bt := asType(p.Binding); bt != nil {
			subst[p.TVar] = bt
		}
	}
	if len(subst) == 0 {
		return ty
	}
	return ty.Apply(subst)
}

func (Ops) WrapAsTypeOf(v dispatch.Value) dispatch.Type {
	rt, ok := v.(interface{ RuntimeType() Type })
	if !ok {
		return nil
	}
	return TType{Type: rt.RuntimeType()}
}

func (Ops) String(t dispatch.Type) string {
	ty := asType(t)
	if ty == nil {
		return "<nil>"
	}
	return ty.String()
}
