package analyzer

import (
	"strings"

	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/diagnostics"
	"github.com/funvibe/funxy/internal/symbols"
	"github.com/funvibe/funxy/internal/typesystem"
)

// CheckExhaustiveness reports an A007 diagnostic when a match over a Bool
// or ADT scrutinee covers neither every constructor nor a catch-all arm.
// Types whose value space this pass cannot enumerate (numbers, strings,
// records, type variables) are only required to have arms at all — richer
// coverage reasoning for them is out of reach without range analysis.
func CheckExhaustiveness(n *ast.MatchExpression, scrutinee typesystem.Type, table *symbols.SymbolTable) error {
	if n == nil || len(n.Arms) == 0 {
		return diagnostics.NewError(diagnostics.ErrA007, getNodeToken(n), "match has no arms")
	}

	for _, arm := range n.Arms {
		if arm.Guard != nil {
			continue // a guarded arm never guarantees coverage
		}
		switch arm.Pattern.(type) {
		case *ast.WildcardPattern, *ast.IdentifierPattern, *ast.TypePattern:
			return nil // catch-all
		}
	}

	resolved := table.ResolveTypeAlias(scrutinee)

	if con, ok := resolved.(typesystem.TCon); ok && con.Name == "Bool" {
		var hasTrue, hasFalse bool
		for _, arm := range n.Arms {
			if arm.Guard != nil {
				continue
			}
			if lit, ok := arm.Pattern.(*ast.LiteralPattern); ok {
				if b, ok := lit.Value.(bool); ok {
					if b {
						hasTrue = true
					} else {
						hasFalse = true
					}
				}
			}
		}
		if hasTrue && hasFalse {
			return nil
		}
		missing := "false"
		if !hasTrue {
			missing = "true"
		}
		return diagnostics.NewError(diagnostics.ErrA007, getNodeToken(n), "missing case: "+missing)
	}

	typeName := typeHeadName(resolved)
	if typeName == "" {
		return nil
	}
	variants, ok := table.GetVariants(typeName)
	if !ok || len(variants) == 0 {
		return nil // not an enumerable ADT
	}

	covered := map[string]bool{}
	for _, arm := range n.Arms {
		if arm.Guard != nil {
			continue
		}
		if ctor, ok := arm.Pattern.(*ast.ConstructorPattern); ok {
			covered[ctor.Name.Value] = true
		}
	}

	var missing []string
	for _, v := range variants {
		if !covered[v] {
			missing = append(missing, v)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return diagnostics.NewError(diagnostics.ErrA007, getNodeToken(n),
		"missing cases: "+strings.Join(missing, ", "))
}
