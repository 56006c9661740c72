package lexer

import "github.com/funvibe/funxy/internal/pipeline"

// TokenStream is the buffered lookahead stream the parser consumes. The
// type itself lives in internal/pipeline (the context carries one); this
// alias and constructor keep the call sites reading naturally as
// lexer.NewTokenStream(l).
type TokenStream = pipeline.TokenStream

// NewTokenStream wraps l in a lookahead stream.
func NewTokenStream(l *Lexer) *TokenStream {
	return pipeline.NewTokenStream(l)
}
