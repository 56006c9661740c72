package analyzer

import (
	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/config"
	"github.com/funvibe/funxy/internal/symbols"
	"github.com/funvibe/funxy/internal/typesystem"
	"github.com/funvibe/funxy/internal/utils"
)

// inferMemberExpression types `left.member`: qualified module access when
// left names a module, record field access, or an extension-method
// reference on any other type.
func inferMemberExpression(ctx *InferenceContext, n *ast.MemberExpression, table *symbols.SymbolTable, inferFn func(ast.Node, *symbols.SymbolTable) (typesystem.Type, typesystem.Subst, error)) (typesystem.Type, typesystem.Subst, error) {
	member := n.Member.Value

	// Module access: mod.symbol
	if ident, ok := n.Left.(*ast.Identifier); ok {
		if sym, found := table.Find(ident.Value); found && sym.Kind == symbols.ModuleSymbol {
			if qualified, found := table.Find(ident.Value + "." + member); found && qualified.Type != nil {
				return InstantiateGenerics(ctx, qualified.Type), typesystem.Subst{}, nil
			}
			if fallback := utils.ModuleMemberFallbackName(ident.Value, member); fallback != "" {
				if sym, found := table.Find(fallback); found && sym.Type != nil {
					return InstantiateGenerics(ctx, sym.Type), typesystem.Subst{}, nil
				}
			}
			return nil, nil, undefinedSymbol(n.Member, ident.Value+"."+member)
		}
	}

	leftType, s1, err := inferFn(n.Left, table)
	if err != nil {
		return nil, nil, err
	}
	resolved := table.ResolveTypeAlias(leftType.Apply(ctx.GlobalSubst))

	switch t := resolved.(type) {
	case typesystem.TRecord:
		if fieldType, ok := t.Fields[member]; ok {
			return fieldType, s1, nil
		}
		if n.IsOptional {
			return optionOf(ctx.FreshVar()), s1, nil
		}
		return nil, nil, inferErrorf(n.Member, "record has no field '%s'", member)

	case typesystem.TVar:
		// The receiver's shape isn't known yet; defer to a fresh variable
		// and let later unification pin it down.
		return ctx.FreshVar(), s1, nil
	}

	// Extension method on a nominal type: the member access denotes the
	// method with its receiver slot already satisfied.
	if name := typeHeadName(resolved); name != "" {
		if methodType, ok := table.GetExtensionMethod(name, member); ok {
			inst := InstantiateGenerics(ctx, methodType)
			if fn, ok := inst.(typesystem.TFunc); ok && len(fn.Params) > 0 {
				if s2, err := typesystem.UnifyWithResolver(fn.Params[0], resolved, table); err == nil {
					rest := typesystem.TFunc{
						Params:     fn.Params[1:],
						ReturnType: fn.ReturnType,
						IsVariadic: fn.IsVariadic,
					}
					return rest.Apply(s2), s2.Compose(s1), nil
				}
			}
			return inst, s1, nil
		}
	}

	if n.IsOptional {
		return optionOf(ctx.FreshVar()), s1, nil
	}
	return ctx.FreshVar(), s1, nil
}

// inferIndexExpression types `left[index]`: lists yield their element type,
// maps and bytes yield Option-wrapped values, tuples need a literal index.
func inferIndexExpression(ctx *InferenceContext, n *ast.IndexExpression, table *symbols.SymbolTable, inferFn func(ast.Node, *symbols.SymbolTable) (typesystem.Type, typesystem.Subst, error)) (typesystem.Type, typesystem.Subst, error) {
	leftType, s1, err := inferFn(n.Left, table)
	if err != nil {
		return nil, nil, err
	}
	indexType, s2, err := inferFn(n.Index, table)
	if err != nil {
		return nil, nil, err
	}
	total := s2.Compose(s1)
	resolved := table.ResolveTypeAlias(leftType.Apply(ctx.GlobalSubst).Apply(total))

	intType := typesystem.TCon{Name: "Int"}

	if app, ok := resolved.(typesystem.TApp); ok {
		if head, ok := app.Constructor.(typesystem.TCon); ok {
			switch head.Name {
			case config.ListTypeName:
				if s3, err := typesystem.Unify(indexType.Apply(total), intType); err == nil {
					total = s3.Compose(total)
					return app.Args[0].Apply(total), total, nil
				}
				return nil, nil, inferError(n.Index, "list index must be Int")
			case config.MapTypeName:
				if len(app.Args) == 2 {
					if s3, err := typesystem.Unify(indexType.Apply(total), app.Args[0].Apply(total)); err == nil {
						total = s3.Compose(total)
						return optionOf(app.Args[1].Apply(total)), total, nil
					}
					return nil, nil, typeMismatch(n.Index, app.Args[0].String(), indexType.String())
				}
			}
		}
	}

	if tup, ok := resolved.(typesystem.TTuple); ok {
		if lit, ok := n.Index.(*ast.IntegerLiteral); ok {
			idx := int(lit.Value)
			if idx < 0 {
				idx += len(tup.Elements)
			}
			if idx < 0 || idx >= len(tup.Elements) {
				return nil, nil, inferErrorf(n.Index, "tuple index out of bounds: %d (tuple has %d elements)", lit.Value, len(tup.Elements))
			}
			return tup.Elements[idx].Apply(total), total, nil
		}
		return nil, nil, inferError(n.Index, "tuple index must be an integer literal")
	}

	if head, ok := resolved.(typesystem.TCon); ok && head.Name == config.BytesTypeName {
		if s3, err := typesystem.Unify(indexType.Apply(total), intType); err == nil {
			total = s3.Compose(total)
			return optionOf(intType), total, nil
		}
		return nil, nil, inferError(n.Index, "bytes index must be Int")
	}

	// Unknown receiver shape: constrain index to Int (the common case) only
	// when the receiver is still a type variable, and defer the element.
	if _, ok := resolved.(typesystem.TVar); ok {
		elem := ctx.FreshVar()
		listType := typesystem.TApp{Constructor: typesystem.TCon{Name: config.ListTypeName}, Args: []typesystem.Type{elem}}
		if s3, err := typesystem.Unify(resolved, listType); err == nil {
			total = s3.Compose(total)
			return elem.Apply(total), total, nil
		}
		return ctx.FreshVar(), total, nil
	}

	return nil, nil, inferErrorf(n, "index operator not supported for %s", resolved.String())
}

func optionOf(t typesystem.Type) typesystem.Type {
	return typesystem.TApp{
		Constructor: typesystem.TCon{Name: config.OptionTypeName},
		Args:        []typesystem.Type{t},
	}
}

func typeHeadName(t typesystem.Type) string {
	switch tt := t.(type) {
	case typesystem.TCon:
		return tt.Name
	case typesystem.TApp:
		return typeHeadName(tt.Constructor)
	}
	return ""
}
