package evaluator

import (
	"strings"

	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/modules"
	"github.com/funvibe/funxy/internal/typesystem"
)

// virtualBuiltinGroups maps a virtual package path to the runtime
// implementations of its symbols. Packages whose symbols are part of the
// always-loaded prelude (option, result) appear here too so selective
// imports behave uniformly.
func virtualBuiltinGroups(path string) map[string]*Builtin {
	switch path {
	case "lib/list":
		return ListBuiltins()
	case "lib/map":
		return MapBuiltins()
	case "lib/math":
		return MathBuiltins()
	case "lib/bignum":
		return BignumBuiltins()
	case "lib/string":
		return StringBuiltins()
	case "lib/char":
		return CharBuiltins()
	case "lib/option":
		return OptionBuiltins()
	case "lib/result":
		return ResultBuiltins()
	case "lib/bytes", "lib/bits":
		return BytesBuiltins()
	case "lib/io", "lib/time", "lib/sys":
		return IOBuiltins()
	case "lib/json":
		return JsonBuiltins()
	case "lib/yaml":
		return YamlBuiltins()
	case "lib/csv":
		return CsvBuiltins()
	case "lib/http":
		return HttpBuiltins()
	case "lib/flag":
		return FlagBuiltins()
	case "lib/grpc":
		return GrpcBuiltins()
	case "lib/proto":
		return ProtoBuiltins()
	case "lib/term":
		return TermBuiltins()
	}
	return nil
}

// evalImportStatement brings a package's symbols into env. Virtual (lib/*)
// packages bind builtin implementations and ADT constructors; source
// modules are loaded, evaluated once, cached, and their exports bound.
func (e *Evaluator) evalImportStatement(node *ast.ImportStatement, env *Environment) Object {
	if node == nil || node.Path == nil {
		return newError("malformed import statement")
	}
	path := node.Path.Value

	include := func(name string) bool {
		for _, ex := range node.Exclude {
			if ex.Value == name {
				return false
			}
		}
		if len(node.Symbols) == 0 {
			return true
		}
		for _, sym := range node.Symbols {
			if sym.Value == name {
				return true
			}
		}
		return false
	}

	if modules.IsVirtualPackage(path) || strings.HasPrefix(path, "lib/") || path == "lib" {
		modules.InitVirtualPackages()
		paths := []string{path}
		if path == "lib" {
			paths = nil
			for _, sub := range modules.GetLibSubPackages() {
				paths = append(paths, "lib/"+sub)
			}
		}
		for _, p := range paths {
			e.bindVirtualPackage(p, env, include)
		}
		return &Nil{}
	}

	return e.evalSourceImport(path, env, include)
}

func (e *Evaluator) bindVirtualPackage(path string, env *Environment, include func(string) bool) {
	for name, builtin := range virtualBuiltinGroups(path) {
		if include(name) {
			env.Set(name, builtin)
		}
	}
	pkg := modules.GetVirtualPackage(path)
	if pkg == nil {
		return
	}
	for name, typ := range pkg.Types {
		if include(name) {
			env.Set(name, &TypeObject{TypeVal: typ})
		}
	}
	for name, ctorType := range pkg.Constructors {
		if !include(name) {
			continue
		}
		typeName := ""
		for tn, variants := range pkg.Variants {
			for _, v := range variants {
				if v == name {
					typeName = tn
				}
			}
		}
		arity := constructorArity(ctorType)
		if arity == 0 {
			env.Set(name, &DataInstance{Name: name, Fields: []Object{}, TypeName: typeName})
		} else {
			env.Set(name, &Constructor{Name: name, TypeName: typeName, Arity: arity})
		}
	}
}

func constructorArity(t typesystem.Type) int {
	if fn, ok := t.(typesystem.TFunc); ok {
		return len(fn.Params)
	}
	return 0
}

// moduleExports is the cached result of evaluating a source module once.
type moduleExports struct {
	Nil
	values map[string]Object
}

// evalSourceImport loads and evaluates a source module, caching the result
// so diamond imports evaluate once, then binds its exported symbols.
func (e *Evaluator) evalSourceImport(path string, env *Environment, include func(string) bool) Object {
	if e.Loader == nil {
		return newError("cannot import %q: no module loader configured", path)
	}

	var exports *moduleExports
	if cached, ok := e.ModuleCache[path]; ok {
		exports, _ = cached.(*moduleExports)
	}

	if exports == nil {
		raw, err := e.Loader.GetModule(path)
		if err != nil {
			return newError("cannot import %q: %s", path, err.Error())
		}
		type evalModule interface {
			GetFiles() []*ast.Program
			GetName() string
		}
		mod, ok := raw.(evalModule)
		if !ok {
			return newError("cannot import %q: loader returned %T", path, raw)
		}

		moduleEnv := NewEnclosedEnvironment(e.GlobalEnv)
		if moduleEnv == nil {
			moduleEnv = NewEnvironment()
		}
		for _, file := range mod.GetFiles() {
			if result := e.Eval(file, moduleEnv); isError(result) {
				return result
			}
		}
		exports = &moduleExports{values: moduleEnv.GetStore()}
		e.ModuleCache[path] = exports
	}

	for name, val := range exports.values {
		if include(name) {
			env.Set(name, val)
		}
	}
	return &Nil{}
}
