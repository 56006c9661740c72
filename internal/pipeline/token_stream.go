package pipeline

import "github.com/funvibe/funxy/internal/token"

// TokenSource is anything that yields tokens — in practice the lexer.
// Declared here (not in internal/lexer) so the context can hold a typed
// stream without importing the lexer package, whose LexerProcessor imports
// this one.
type TokenSource interface {
	NextToken() token.Token
}

// TokenStream decouples the parser from the token source: tokens are
// pulled lazily and buffered, so the parser can look arbitrarily far ahead
// with Peek without consuming anything.
type TokenStream struct {
	src  TokenSource
	buf  []token.Token
	pos  int
	done bool
}

// NewTokenStream wraps src in a stream positioned before the first token.
func NewTokenStream(src TokenSource) *TokenStream {
	return &TokenStream{src: src}
}

func (ts *TokenStream) fill(upto int) {
	for !ts.done && len(ts.buf) < upto {
		tok := ts.src.NextToken()
		ts.buf = append(ts.buf, tok)
		if tok.Type == token.EOF {
			ts.done = true
		}
	}
}

// Next consumes and returns the next token. Once the source is exhausted,
// Next keeps returning the EOF token.
func (ts *TokenStream) Next() token.Token {
	ts.fill(ts.pos + 1)
	if ts.pos >= len(ts.buf) {
		if n := len(ts.buf); n > 0 {
			return ts.buf[n-1]
		}
		return token.Token{Type: token.EOF}
	}
	tok := ts.buf[ts.pos]
	ts.pos++
	return tok
}

// Peek returns up to n upcoming tokens without consuming them. Fewer than n
// are returned when the input ends first; the final token is always EOF.
func (ts *TokenStream) Peek(n int) []token.Token {
	ts.fill(ts.pos + n)
	end := ts.pos + n
	if end > len(ts.buf) {
		end = len(ts.buf)
	}
	out := make([]token.Token, end-ts.pos)
	copy(out, ts.buf[ts.pos:end])
	return out
}
