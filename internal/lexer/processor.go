package lexer

import "github.com/funvibe/funxy/internal/pipeline"

// LexerProcessor is the first pipeline stage: it wraps the source code in a
// token stream for the parser. Lexical errors surface as ILLEGAL tokens,
// which the parser reports with position information; nothing fails here.
type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	l := New(ctx.SourceCode)
	ctx.TokenStream = NewTokenStream(l)
	return ctx
}
