package analyzer

import (
	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/config"
	"github.com/funvibe/funxy/internal/diagnostics"
	"github.com/funvibe/funxy/internal/symbols"
	"github.com/funvibe/funxy/internal/typesystem"
)

// inferPattern checks pattern against the scrutinee type, defines every
// variable the pattern binds into table, and returns the substitution the
// match refines the scrutinee with.
func inferPattern(ctx *InferenceContext, pattern ast.Pattern, scrutinee typesystem.Type, table *symbols.SymbolTable) (typesystem.Subst, error) {
	scrutinee = table.ResolveTypeAlias(scrutinee.Apply(ctx.GlobalSubst))

	switch p := pattern.(type) {
	case *ast.WildcardPattern:
		return typesystem.Subst{}, nil

	case *ast.IdentifierPattern:
		if p.Value != "_" {
			table.Define(p.Value, scrutinee, "")
		}
		return typesystem.Subst{}, nil

	case *ast.PinPattern:
		sym, ok := table.Find(p.Name)
		if !ok {
			return nil, undefinedSymbol(p, p.Name)
		}
		if sym.Type != nil {
			if s, err := typesystem.UnifyWithResolver(scrutinee, sym.Type, table); err == nil {
				return s, nil
			}
			return nil, typeMismatch(p, sym.Type.String(), scrutinee.String())
		}
		return typesystem.Subst{}, nil

	case *ast.LiteralPattern:
		litType := literalPatternType(p.Value)
		if litType == nil {
			return typesystem.Subst{}, nil
		}
		if s, err := typesystem.UnifyWithResolver(scrutinee, litType, table); err == nil {
			return s, nil
		}
		return nil, typeMismatch(p, scrutinee.String(), litType.String())

	case *ast.StringPattern:
		stringType := typesystem.TApp{
			Constructor: typesystem.TCon{Name: config.ListTypeName},
			Args:        []typesystem.Type{typesystem.TCon{Name: "Char"}},
		}
		s, err := typesystem.UnifyWithResolver(scrutinee, stringType, table)
		if err != nil {
			return nil, typeMismatch(p, "String", scrutinee.String())
		}
		for _, part := range p.Parts {
			if part.IsCapture && part.Value != "_" {
				table.Define(part.Value, stringType, "")
			}
		}
		return s, nil

	case *ast.TypePattern:
		var errs []*diagnostics.DiagnosticError
		t := BuildType(p.Type, table, &errs)
		if err := wrapBuildTypeError(errs); err != nil {
			return nil, err
		}
		if p.Name != "" && p.Name != "_" {
			table.Define(p.Name, t, "")
		}
		return typesystem.Subst{}, nil

	case *ast.ConstructorPattern:
		return inferConstructorPattern(ctx, p, scrutinee, table)

	case *ast.TuplePattern:
		elems := make([]typesystem.Type, len(p.Elements))
		for i := range p.Elements {
			elems[i] = ctx.FreshVar()
		}
		tuple := typesystem.TTuple{Elements: elems}
		total, err := typesystem.UnifyWithResolver(scrutinee, tuple, table)
		if err != nil {
			return nil, typeMismatch(p, tuple.String(), scrutinee.String())
		}
		for i, elem := range p.Elements {
			s, err := inferPattern(ctx, elem, elems[i].Apply(total), table)
			if err != nil {
				return nil, err
			}
			total = s.Compose(total)
		}
		return total, nil

	case *ast.ListPattern:
		elem := typesystem.Type(ctx.FreshVar())
		listType := typesystem.TApp{
			Constructor: typesystem.TCon{Name: config.ListTypeName},
			Args:        []typesystem.Type{elem},
		}
		total, err := typesystem.UnifyWithResolver(scrutinee, listType, table)
		if err != nil {
			return nil, typeMismatch(p, listType.String(), scrutinee.String())
		}
		for _, sub := range p.Elements {
			if spread, ok := sub.(*ast.SpreadPattern); ok {
				s, err := inferPattern(ctx, spread.Pattern, listType.Apply(total), table)
				if err != nil {
					return nil, err
				}
				total = s.Compose(total)
				continue
			}
			s, err := inferPattern(ctx, sub, elem.Apply(total), table)
			if err != nil {
				return nil, err
			}
			total = s.Compose(total)
		}
		return total, nil

	case *ast.SpreadPattern:
		return inferPattern(ctx, p.Pattern, scrutinee, table)

	case *ast.RecordPattern:
		total := typesystem.Subst{}
		if rec, ok := scrutinee.(typesystem.TRecord); ok {
			for name, sub := range p.Fields {
				fieldType, ok := rec.Fields[name]
				if !ok {
					return nil, inferErrorf(p, "record has no field '%s'", name)
				}
				s, err := inferPattern(ctx, sub, fieldType.Apply(total), table)
				if err != nil {
					return nil, err
				}
				total = s.Compose(total)
			}
			return total, nil
		}
		// Scrutinee shape unknown: bind every field loosely.
		for _, sub := range p.Fields {
			s, err := inferPattern(ctx, sub, ctx.FreshVar(), table)
			if err != nil {
				return nil, err
			}
			total = s.Compose(total)
		}
		return total, nil
	}

	return typesystem.Subst{}, nil
}

func inferConstructorPattern(ctx *InferenceContext, p *ast.ConstructorPattern, scrutinee typesystem.Type, table *symbols.SymbolTable) (typesystem.Subst, error) {
	sym, ok := table.Find(p.Name.Value)
	if !ok {
		return nil, inferErrorf(p, "undefined symbol: %s", p.Name.Value)
	}

	ctorType := InstantiateGenerics(ctx, sym.GetTypeForUnification())

	var params []typesystem.Type
	result := ctorType
	if fn, ok := ctorType.(typesystem.TFunc); ok {
		params = fn.Params
		result = fn.ReturnType
	}

	if len(params) != len(p.Elements) {
		return nil, inferErrorf(p, "constructor %s expects %d arguments, got %d", p.Name.Value, len(params), len(p.Elements))
	}

	total, err := typesystem.UnifyWithResolver(scrutinee, result, table)
	if err != nil {
		return nil, typeMismatch(p, scrutinee.String(), result.String())
	}
	for i, elem := range p.Elements {
		s, err := inferPattern(ctx, elem, params[i].Apply(total), table)
		if err != nil {
			return nil, err
		}
		total = s.Compose(total)
	}
	return total, nil
}

func literalPatternType(v interface{}) typesystem.Type {
	switch v.(type) {
	case int64:
		return typesystem.TCon{Name: "Int"}
	case float64:
		return typesystem.TCon{Name: "Float"}
	case bool:
		return typesystem.TCon{Name: "Bool"}
	case rune:
		return typesystem.TCon{Name: "Char"}
	case string:
		return typesystem.TApp{
			Constructor: typesystem.TCon{Name: config.ListTypeName},
			Args:        []typesystem.Type{typesystem.TCon{Name: "Char"}},
		}
	}
	return nil
}
