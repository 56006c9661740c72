package vm

import (
	"fmt"

	"github.com/funvibe/funxy/internal/ast"
)

// CompileTraitDefault compiles a trait method's default implementation to
// bytecode ahead of bundling, so bundles don't have to carry the AST. The
// default is compiled as a standalone function: trait defaults are declared
// at module level and capture nothing.
func CompileTraitDefault(fn *ast.FunctionStatement) (*CompiledFunction, error) {
	if fn == nil || fn.Body == nil {
		return nil, fmt.Errorf("trait default has no body")
	}

	root := NewCompiler()

	arity := len(fn.Parameters)
	isVariadic := false
	if arity > 0 && fn.Parameters[arity-1].IsVariadic {
		isVariadic = true
		arity--
	}
	requiredArity := 0
	for _, param := range fn.Parameters {
		if param.Default == nil && !param.IsVariadic {
			requiredArity++
		}
	}

	name := "<default>"
	if fn.Name != nil {
		name = fn.Name.Value
	}

	funcCompiler := newFunctionCompiler(root, name, arity)
	funcCompiler.function.RequiredArity = requiredArity
	funcCompiler.function.IsVariadic = isVariadic

	for i, param := range fn.Parameters {
		funcCompiler.addLocal(param.Name.Value, i)
	}
	funcCompiler.slotCount = len(fn.Parameters)

	if err := funcCompiler.compileFunctionBody(fn.Body); err != nil {
		return nil, err
	}

	compiled := funcCompiler.function
	compiled.LocalCount = funcCompiler.localCount
	compiled.UpvalueCount = funcCompiler.upvalueCount
	if compiled.UpvalueCount != 0 {
		return nil, fmt.Errorf("trait default %s captures %d upvalues", name, compiled.UpvalueCount)
	}
	compiled.TypeInfo = buildFunctionTypeFromStatement(fn)
	return compiled, nil
}
