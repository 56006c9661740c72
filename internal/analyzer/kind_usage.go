package analyzer

import (
	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/symbols"
	"github.com/funvibe/funxy/internal/typesystem"
)

// findMaxTypeArgs returns the largest number of type arguments the named
// type parameter is applied to anywhere inside t — how its kind arity is
// observed from usage (`f<Int, Int>` reports 2 for f).
func findMaxTypeArgs(tpName string, t ast.Type) int {
	max := 0
	switch tt := t.(type) {
	case *ast.NamedType:
		if tt.Name != nil && tt.Name.Value == tpName && len(tt.Args) > max {
			max = len(tt.Args)
		}
		for _, arg := range tt.Args {
			if c := findMaxTypeArgs(tpName, arg); c > max {
				max = c
			}
		}
	case *ast.TupleType:
		for _, el := range tt.Types {
			if c := findMaxTypeArgs(tpName, el); c > max {
				max = c
			}
		}
	case *ast.FunctionType:
		for _, pt := range tt.Parameters {
			if c := findMaxTypeArgs(tpName, pt); c > max {
				max = c
			}
		}
		if tt.ReturnType != nil {
			if c := findMaxTypeArgs(tpName, tt.ReturnType); c > max {
				max = c
			}
		}
	case *ast.RecordType:
		for _, ft := range tt.Fields {
			if c := findMaxTypeArgs(tpName, ft); c > max {
				max = c
			}
		}
	case *ast.UnionType:
		for _, m := range tt.Types {
			if c := findMaxTypeArgs(tpName, m); c > max {
				max = c
			}
		}
	}
	return max
}

// typeHasConstraint reports whether t (when it is a type variable) carries
// an active constraint for trait — directly or through a trait that
// implies it.
func typeHasConstraint(ctx *InferenceContext, t typesystem.Type, trait string, table *symbols.SymbolTable) bool {
	tv, ok := t.(typesystem.TVar)
	if !ok {
		return false
	}
	for _, c := range ctx.ActiveConstraints[tv.Name] {
		if c.Kind != ConstraintImplements {
			continue
		}
		if c.Trait == trait || isTraitSubclass(c.Trait, trait, table) {
			return true
		}
	}
	return false
}
