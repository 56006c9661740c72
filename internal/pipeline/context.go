package pipeline

import (
	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/diagnostics"
	"github.com/funvibe/funxy/internal/symbols"
	"github.com/funvibe/funxy/internal/typesystem"
)

// Processor is one stage of the pipeline: lexer, parser, analyzer,
// compiler, or an execution backend.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries everything one compilation unit accumulates as it
// flows through the stages. Loader, Module, and BytecodeChunk are untyped
// because the packages that own them (internal/modules, internal/vm) sit
// above this one in the import graph; consumers type-assert.
type PipelineContext struct {
	SourceCode string
	FilePath   string

	// StdinData, when non-nil, is bound to `stdin` by eval-mode backends.
	StdinData  *string
	IsEvalMode bool
	IsTestMode bool

	TokenStream *TokenStream
	AstRoot     ast.Node
	Errors      []*diagnostics.DiagnosticError

	SymbolTable          *symbols.SymbolTable
	TypeMap              map[ast.Node]typesystem.Type
	ResolutionMap        map[ast.Node]symbols.Symbol
	TraitDefaults        map[string]*ast.FunctionStatement
	OperatorTraits       map[string]string
	TraitImplementations map[string][]symbols.InstanceDef

	Loader        interface{} // *modules.Loader
	Module        interface{} // *modules.Module
	BytecodeChunk interface{} // *vm.Chunk
}

// NewPipelineContext builds a context for source with a fresh, builtin-
// initialized symbol table, ready for the lexer stage.
func NewPipelineContext(source string) *PipelineContext {
	st := symbols.NewSymbolTable()
	st.InitBuiltins()
	return &PipelineContext{
		SourceCode:  source,
		SymbolTable: st,
	}
}
