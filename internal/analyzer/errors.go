package analyzer

import (
	"fmt"
	"strings"

	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/diagnostics"
	"github.com/funvibe/funxy/internal/symbols"
)

// combinedError carries several independent inference failures out of a
// single Infer call; appendError unpacks it so each surfaces separately.
type combinedError struct {
	errors []error
}

func (c *combinedError) Error() string {
	parts := make([]string, len(c.errors))
	for i, e := range c.errors {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// inferError builds a type error (A003) anchored at node.
func inferError(node ast.Node, msg string) error {
	return diagnostics.NewError(diagnostics.ErrA003, getNodeToken(node), msg)
}

// inferErrorf is inferError with fmt formatting.
func inferErrorf(node ast.Node, format string, args ...interface{}) error {
	return inferError(node, fmt.Sprintf(format, args...))
}

// typeMismatch reports an expected/actual type conflict.
func typeMismatch(node ast.Node, expected, actual string) error {
	return inferErrorf(node, "type mismatch: expected %s, got %s", expected, actual)
}

// undefinedSymbol reports a reference to a name with no binding in scope
// (A006, distinct from the type-level A003 family so the LSP can offer
// import quick-fixes only here).
func undefinedSymbol(node ast.Node, name string) error {
	return diagnostics.NewError(diagnostics.ErrA006, getNodeToken(node), name)
}

// undefinedWithHint is undefinedSymbol plus a "did you mean" suggestion.
func undefinedWithHint(node ast.Node, name, hint string) error {
	return diagnostics.NewError(diagnostics.ErrA006, getNodeToken(node), fmt.Sprintf("%s (%s)", name, hint))
}

// wrapBuildTypeError collapses the diagnostics BuildType accumulated into a
// single error for the inference path, or nil when there were none. A002
// (undeclared type) and friends keep their codes through appendError.
func wrapBuildTypeError(errs []*diagnostics.DiagnosticError) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		all := make([]error, len(errs))
		for i, e := range errs {
			all[i] = e
		}
		return &combinedError{errors: all}
	}
}

// findSimilarNames returns in-scope symbol names within maxDist edits of
// name, closest first, for "did you mean" hints.
func findSimilarNames(name string, table *symbols.SymbolTable, maxDist int) []string {
	type candidate struct {
		name string
		dist int
	}
	var found []candidate
	for t := table; t != nil; t = t.Parent() {
		for _, sym := range t.All() {
			if sym.Name == name || sym.Name == "" {
				continue
			}
			if d := editDistance(name, sym.Name); d <= maxDist {
				found = append(found, candidate{sym.Name, d})
			}
		}
	}
	// Closest first, stable enough for a hint list.
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && found[j].dist < found[j-1].dist; j-- {
			found[j], found[j-1] = found[j-1], found[j]
		}
	}
	out := make([]string, 0, len(found))
	seen := map[string]bool{}
	for _, c := range found {
		if !seen[c.name] {
			seen[c.name] = true
			out = append(out, c.name)
		}
	}
	return out
}

func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
