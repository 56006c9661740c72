package analyzer

import (
	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/config"
	"github.com/funvibe/funxy/internal/symbols"
	"github.com/funvibe/funxy/internal/typesystem"
)

var boolCon = typesystem.TCon{Name: "Bool"}

// inferPrefixExpression types !x, -x, ~x.
func inferPrefixExpression(ctx *InferenceContext, n *ast.PrefixExpression, table *symbols.SymbolTable, inferFn func(ast.Node, *symbols.SymbolTable) (typesystem.Type, typesystem.Subst, error)) (typesystem.Type, typesystem.Subst, error) {
	rightType, s1, err := inferFn(n.Right, table)
	if err != nil {
		return nil, nil, err
	}
	switch n.Operator {
	case "!":
		if s2, err := typesystem.UnifyWithResolver(rightType, boolCon, table); err == nil {
			return boolCon, s2.Compose(s1), nil
		}
		return nil, nil, typeMismatch(n.Right, "Bool", rightType.String())
	case "-":
		// Negation stays within the operand's numeric type.
		return rightType, s1, nil
	case "~":
		intType := typesystem.TCon{Name: "Int"}
		if s2, err := typesystem.UnifyWithResolver(rightType, intType, table); err == nil {
			return intType, s2.Compose(s1), nil
		}
		return nil, nil, typeMismatch(n.Right, "Int", rightType.String())
	}
	return nil, nil, inferErrorf(n, "unknown prefix operator %s", n.Operator)
}

// inferInfixExpression types binary operators. Pipe forms delegate to the
// dedicated pipe inference; everything else resolves through the operator's
// registered trait-method type, so user-defined operator instances
// participate the same way builtins do.
func inferInfixExpression(ctx *InferenceContext, n *ast.InfixExpression, table *symbols.SymbolTable, inferFn func(ast.Node, *symbols.SymbolTable) (typesystem.Type, typesystem.Subst, error)) (typesystem.Type, typesystem.Subst, error) {
	switch n.Operator {
	case "|>":
		return inferPipeExpression(ctx, n, table, inferFn)
	case "|>>":
		return inferPipeUnwrapExpression(ctx, n, table, inferFn)
	}

	leftType, s1, err := inferFn(n.Left, table)
	if err != nil {
		return nil, nil, err
	}
	rightType, s2, err := inferFn(n.Right, table)
	if err != nil {
		return nil, nil, err
	}
	total := s2.Compose(s1)
	lt := leftType.Apply(total)
	rt := rightType.Apply(total)

	switch n.Operator {
	case "&&", "||":
		if s3, err := typesystem.UnifyWithResolver(lt, boolCon, table); err == nil {
			total = s3.Compose(total)
		} else {
			return nil, nil, typeMismatch(n.Left, "Bool", lt.String())
		}
		if s3, err := typesystem.UnifyWithResolver(rt.Apply(total), boolCon, table); err == nil {
			total = s3.Compose(total)
		} else {
			return nil, nil, typeMismatch(n.Right, "Bool", rt.String())
		}
		return boolCon, total, nil

	case "??":
		// fallback ?? yields the unwrapped Option element or the left type
		// itself when it isn't an Option.
		if app, ok := table.ResolveTypeAlias(lt).(typesystem.TApp); ok {
			if head, ok := app.Constructor.(typesystem.TCon); ok && head.Name == config.OptionTypeName && len(app.Args) == 1 {
				if s3, err := typesystem.UnifyWithResolver(app.Args[0], rt.Apply(total), table); err == nil {
					total = s3.Compose(total)
					return app.Args[0].Apply(total), total, nil
				}
			}
		}
		if s3, err := typesystem.UnifyWithResolver(lt, rt, table); err == nil {
			total = s3.Compose(total)
			return lt.Apply(total), total, nil
		}
		return nil, nil, typeMismatch(n.Right, lt.String(), rt.String())

	case "::", "<:>":
		elemList := typesystem.TApp{
			Constructor: typesystem.TCon{Name: config.ListTypeName},
			Args:        []typesystem.Type{lt},
		}
		if s3, err := typesystem.UnifyWithResolver(rt.Apply(total), elemList, table); err == nil {
			total = s3.Compose(total)
			return elemList.Apply(total), total, nil
		}
		return nil, nil, typeMismatch(n.Right, elemList.String(), rt.String())

	case "$":
		// Low-precedence application: f $ x is f(x).
		result := ctx.FreshVar()
		want := typesystem.TFunc{Params: []typesystem.Type{rt.Apply(total)}, ReturnType: result}
		if s3, err := typesystem.UnifyWithResolver(lt, want, table); err == nil {
			total = s3.Compose(total)
			return result.Apply(total), total, nil
		}
		return nil, nil, inferErrorf(n, "cannot apply %s to %s", lt.String(), rt.String())

	case ">->":
		// Function composition: (a -> b) >-> (b -> c) : a -> c
		a, b, c := ctx.FreshVar(), ctx.FreshVar(), ctx.FreshVar()
		lfn := typesystem.TFunc{Params: []typesystem.Type{a}, ReturnType: b}
		rfn := typesystem.TFunc{Params: []typesystem.Type{b}, ReturnType: c}
		if s3, err := typesystem.UnifyWithResolver(lt, lfn, table); err == nil {
			total = s3.Compose(total)
		} else {
			return nil, nil, typeMismatch(n.Left, "function", lt.String())
		}
		if s3, err := typesystem.UnifyWithResolver(rt.Apply(total), rfn.Apply(total), table); err == nil {
			total = s3.Compose(total)
		} else {
			return nil, nil, typeMismatch(n.Right, "function", rt.String())
		}
		return typesystem.TFunc{Params: []typesystem.Type{a.Apply(total)}, ReturnType: c.Apply(total)}, total, nil
	}

	// Everything else goes through the operator's trait method type.
	return inferOperatorCall(ctx, n, n.Operator, []typesystem.Type{lt, rt.Apply(total)}, total, table)
}

// inferOperatorCall unifies the operand types against the registered
// `(op)` trait-method signature.
func inferOperatorCall(ctx *InferenceContext, node ast.Node, op string, args []typesystem.Type, total typesystem.Subst, table *symbols.SymbolTable) (typesystem.Type, typesystem.Subst, error) {
	methodType, ok := table.GetTraitMethodType("(" + op + ")")
	if !ok {
		// Not trait-backed: require both operands to agree and echo the type.
		if len(args) == 2 {
			if s, err := typesystem.UnifyWithResolver(args[0], args[1], table); err == nil {
				total = s.Compose(total)
				return args[0].Apply(total), total, nil
			}
			return nil, nil, typeMismatch(node, args[0].String(), args[1].String())
		}
		return nil, nil, inferErrorf(node, "unknown operator %s", op)
	}

	inst := InstantiateGenerics(ctx, methodType)
	fn, ok := inst.(typesystem.TFunc)
	if !ok || len(fn.Params) != len(args) {
		return nil, nil, inferErrorf(node, "operator %s is not a %d-argument function", op, len(args))
	}
	for i, arg := range args {
		s, err := typesystem.UnifyWithResolver(fn.Params[i].Apply(total), arg.Apply(total), table)
		if err != nil {
			return nil, nil, typeMismatch(node, fn.Params[i].Apply(total).String(), arg.Apply(total).String())
		}
		total = s.Compose(total)
	}

	result := fn.ReturnType.Apply(total)
	// Record trait constraints for still-free operand variables so witness
	// solving sees them.
	if trait, ok := tableOperatorTrait(table, op); ok {
		for _, tv := range result.FreeTypeVariables() {
			ctx.AddConstraint(tv.Name, trait)
		}
	}
	return result, total, nil
}

func tableOperatorTrait(table *symbols.SymbolTable, op string) (string, bool) {
	traits := table.GetAllOperatorTraits()
	t, ok := traits[op]
	return t, ok
}

// inferOperatorAsFunction types the section form `(+)` as the operator's
// trait-method function type.
func inferOperatorAsFunction(ctx *InferenceContext, n *ast.OperatorAsFunction, table *symbols.SymbolTable) (typesystem.Type, typesystem.Subst, error) {
	if methodType, ok := table.GetTraitMethodType("(" + n.Operator + ")"); ok {
		return InstantiateGenerics(ctx, methodType), typesystem.Subst{}, nil
	}
	// Comparison and boolean sections have fixed shapes even without an
	// operator trait.
	switch n.Operator {
	case "==", "!=", "<", ">", "<=", ">=":
		a := ctx.FreshVar()
		return typesystem.TFunc{Params: []typesystem.Type{a, a}, ReturnType: boolCon}, typesystem.Subst{}, nil
	case "&&", "||":
		return typesystem.TFunc{Params: []typesystem.Type{boolCon, boolCon}, ReturnType: boolCon}, typesystem.Subst{}, nil
	}
	a := ctx.FreshVar()
	return typesystem.TFunc{Params: []typesystem.Type{a, a}, ReturnType: a}, typesystem.Subst{}, nil
}

// inferPostfixExpression types the error-propagation postfix `expr?`:
// unwraps Result/Option, leaving the wrapper to the enclosing function's
// return type.
func inferPostfixExpression(ctx *InferenceContext, n *ast.PostfixExpression, table *symbols.SymbolTable, inferFn func(ast.Node, *symbols.SymbolTable) (typesystem.Type, typesystem.Subst, error)) (typesystem.Type, typesystem.Subst, error) {
	leftType, s1, err := inferFn(n.Left, table)
	if err != nil {
		return nil, nil, err
	}
	if n.Operator != "?" {
		return nil, nil, inferErrorf(n, "unknown postfix operator %s", n.Operator)
	}

	resolved := table.ResolveTypeAlias(leftType.Apply(ctx.GlobalSubst))
	if app, ok := resolved.(typesystem.TApp); ok {
		if head, ok := app.Constructor.(typesystem.TCon); ok {
			switch head.Name {
			case config.ResultTypeName:
				if len(app.Args) >= 1 {
					return app.Args[0], s1, nil
				}
			case config.OptionTypeName:
				if len(app.Args) == 1 {
					return app.Args[0], s1, nil
				}
			}
		}
	}
	if _, ok := resolved.(typesystem.TVar); ok {
		elem := ctx.FreshVar()
		res := typesystem.TApp{
			Constructor: typesystem.TCon{Name: config.ResultTypeName},
			Args:        []typesystem.Type{elem, ctx.FreshVar()},
		}
		if s2, err := typesystem.Unify(resolved, res); err == nil {
			return elem.Apply(s2), s2.Compose(s1), nil
		}
		return ctx.FreshVar(), s1, nil
	}
	return nil, nil, inferErrorf(n, "operator ? requires Result or Option, got %s", resolved.String())
}
