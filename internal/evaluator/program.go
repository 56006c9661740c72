package evaluator

import (
	"fmt"

	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/modules"
)

// evalProgram runs a parsed compilation unit: imports first, then
// statements in order. Evaluation stops at the first runtime error; an
// explicit top-level return unwraps to its value.
func (e *Evaluator) evalProgram(program *ast.Program, env *Environment) Object {
	var result Object = &Nil{}

	for _, imp := range program.Imports {
		if res := e.evalImportStatement(imp, env); isError(res) {
			return res
		}
	}

	for _, stmt := range program.Statements {
		result = e.Eval(stmt, env)
		switch r := result.(type) {
		case *Error:
			return r
		case *ReturnValue:
			return r.Value
		}
	}
	return result
}

// EvaluateModule evaluates every file of an analyzed multi-file module in
// one shared environment, wiring the module's symbol table and trait
// defaults into the evaluator the same way the single-file path does.
func (e *Evaluator) EvaluateModule(mod *modules.Module) (Object, error) {
	if mod == nil {
		return nil, fmt.Errorf("no module to evaluate")
	}

	env := NewEnvironment()
	env.SymbolTable = mod.SymbolTable
	RegisterBuiltins(env)
	RegisterBasicTraits(e, env)
	RegisterStandardTraits(e, env)
	RegisterFPTraits(e, env)
	RegisterDictionaryGlobals(e, env)
	e.RegisterExtensionMethods()
	e.GlobalEnv = env

	if mod.TraitDefaults != nil {
		if e.TraitDefaults == nil {
			e.TraitDefaults = make(map[string]*ast.FunctionStatement)
		}
		for key, fn := range mod.TraitDefaults {
			if _, exists := e.TraitDefaults[key]; !exists {
				e.TraitDefaults[key] = fn
			}
		}
	}
	if mod.TypeMap != nil && e.TypeMap == nil {
		e.TypeMap = mod.TypeMap
	}

	var result Object = &Nil{}
	for _, file := range mod.Files {
		e.CurrentFile = file.File
		result = e.Eval(file, env)
		if isError(result) {
			return result, nil
		}
	}
	return result, nil
}
