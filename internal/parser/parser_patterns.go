package parser

import (
	"strings"

	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/diagnostics"
	"github.com/funvibe/funxy/internal/token"
)

// parseMatchArm parses one `pattern [if guard] -> expression` arm; curToken
// is positioned on the first token of the pattern.
func (p *Parser) parseMatchArm() *ast.MatchArm {
	arm := &ast.MatchArm{}

	arm.Pattern = p.parsePattern()
	if arm.Pattern == nil {
		p.ctx.Errors = append(p.ctx.Errors, diagnostics.NewError(
			diagnostics.ErrP004,
			p.curToken,
			"cannot parse match pattern",
		))
		p.skipToStatementBoundary()
		return nil
	}

	if p.peekTokenIs(token.IF) {
		p.nextToken() // move to if
		p.nextToken() // start of guard expression
		prev := p.disallowTrailingLambda
		p.disallowTrailingLambda = true
		arm.Guard = p.parseExpression(LOWEST)
		p.disallowTrailingLambda = prev
		if arm.Guard == nil {
			return nil
		}
	}

	if !p.expectPeek(token.ARROW) {
		p.skipToStatementBoundary()
		return nil
	}
	p.nextToken() // move past ->

	// Allow the arm body on the following line.
	for p.curTokenIs(token.NEWLINE) {
		p.nextToken()
	}

	arm.Expression = p.parseExpression(LOWEST)
	if arm.Expression == nil {
		return nil
	}
	return arm
}

// parsePattern parses a single pattern; curToken is its first token. On
// return, curToken is the pattern's last token. A nil return means
// curToken does not start a pattern — callers decide whether that's an
// error or a cue to re-parse as a filter expression.
func (p *Parser) parsePattern() ast.Pattern {
	switch p.curToken.Type {
	case token.UNDERSCORE:
		return &ast.WildcardPattern{Token: p.curToken}

	case token.INT:
		return &ast.LiteralPattern{Token: p.curToken, Value: p.curToken.Literal.(int64)}

	case token.FLOAT:
		return &ast.LiteralPattern{Token: p.curToken, Value: p.curToken.Literal.(float64)}

	case token.MINUS:
		// Negative numeric literal pattern.
		tok := p.curToken
		if p.peekTokenIs(token.INT) {
			p.nextToken()
			return &ast.LiteralPattern{Token: tok, Value: -p.curToken.Literal.(int64)}
		}
		if p.peekTokenIs(token.FLOAT) {
			p.nextToken()
			return &ast.LiteralPattern{Token: tok, Value: -p.curToken.Literal.(float64)}
		}
		return nil

	case token.TRUE:
		return &ast.LiteralPattern{Token: p.curToken, Value: true}

	case token.FALSE:
		return &ast.LiteralPattern{Token: p.curToken, Value: false}

	case token.CHAR:
		return &ast.LiteralPattern{Token: p.curToken, Value: rune(p.curToken.Literal.(int64))}

	case token.STRING, token.INTERP_STRING:
		return p.parseStringOrLiteralPattern()

	case token.CARET:
		// Pin pattern: ^x matches when the value equals x's current value.
		tok := p.curToken
		if !p.peekTokenIs(token.IDENT_LOWER) {
			return nil
		}
		p.nextToken()
		return &ast.PinPattern{Token: tok, Name: p.curToken.Literal.(string)}

	case token.IDENT_LOWER:
		// `name: Type` is a type pattern; bare `name` binds.
		if p.peekTokenIs(token.COLON) {
			tok := p.curToken
			name := p.curToken.Literal.(string)
			p.nextToken() // :
			p.nextToken() // start of type
			typ := p.parseType()
			if typ == nil {
				return nil
			}
			return &ast.TypePattern{Token: tok, Name: name, Type: typ}
		}
		return &ast.IdentifierPattern{Token: p.curToken, Value: p.curToken.Literal.(string)}

	case token.IDENT_UPPER:
		return p.parseConstructorPattern()

	case token.LPAREN:
		return p.parseTuplePattern()

	case token.LBRACKET:
		return p.parseListPattern()

	case token.LBRACE:
		return p.parseRecordPattern("")

	case token.ELLIPSIS:
		// Spread inside list patterns: ...rest
		tok := p.curToken
		if p.peekTokenIs(token.IDENT_LOWER) || p.peekTokenIs(token.UNDERSCORE) {
			p.nextToken()
			var inner ast.Pattern
			if p.curTokenIs(token.UNDERSCORE) {
				inner = &ast.WildcardPattern{Token: p.curToken}
			} else {
				inner = &ast.IdentifierPattern{Token: p.curToken, Value: p.curToken.Literal.(string)}
			}
			return &ast.SpreadPattern{Token: tok, Pattern: inner}
		}
		return &ast.SpreadPattern{Token: tok, Pattern: &ast.WildcardPattern{Token: tok}}
	}
	return nil
}

// parseConstructorPattern parses `Name`, `Name(p1, p2)` and the typed
// record form `Name { field: p }`.
func (p *Parser) parseConstructorPattern() ast.Pattern {
	tok := p.curToken
	name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal.(string)}

	if p.peekTokenIs(token.LBRACE) {
		p.nextToken() // move to {
		return p.parseRecordPattern(name.Value)
	}

	pat := &ast.ConstructorPattern{Token: tok, Name: name}
	if !p.peekTokenIs(token.LPAREN) {
		return pat
	}

	p.nextToken() // move to (
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return pat
	}
	for {
		p.nextToken() // first token of element pattern
		elem := p.parsePattern()
		if elem == nil {
			return nil
		}
		pat.Elements = append(pat.Elements, elem)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return pat
}

func (p *Parser) parseTuplePattern() ast.Pattern {
	tok := p.curToken
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return &ast.TuplePattern{Token: tok}
	}

	var elements []ast.Pattern
	for {
		p.nextToken()
		elem := p.parsePattern()
		if elem == nil {
			return nil
		}
		elements = append(elements, elem)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if len(elements) == 1 {
		// Parenthesized pattern, not a tuple.
		return elements[0]
	}
	return &ast.TuplePattern{Token: tok, Elements: elements}
}

func (p *Parser) parseListPattern() ast.Pattern {
	pat := &ast.ListPattern{Token: p.curToken}
	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return pat
	}
	for {
		p.nextToken()
		elem := p.parsePattern()
		if elem == nil {
			return nil
		}
		pat.Elements = append(pat.Elements, elem)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return pat
}

// parseRecordPattern parses `{ field: pat, other }`; curToken is `{`.
// typeName is the optional constructor prefix (`Point { x: a }`).
func (p *Parser) parseRecordPattern(typeName string) ast.Pattern {
	pat := &ast.RecordPattern{Token: p.curToken, TypeName: typeName, Fields: map[string]ast.Pattern{}}

	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		if p.peekTokenIs(token.NEWLINE) || p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		if !p.peekTokenIs(token.IDENT_LOWER) && !p.peekTokenIs(token.IDENT_UPPER) {
			return nil
		}
		p.nextToken()
		key := p.curToken.Literal.(string)
		keyTok := p.curToken

		if p.peekTokenIs(token.COLON) {
			p.nextToken() // :
			p.nextToken() // field pattern start
			fieldPat := p.parsePattern()
			if fieldPat == nil {
				return nil
			}
			pat.Fields[key] = fieldPat
		} else {
			// Shorthand `{ x }` binds the field to a same-named variable.
			pat.Fields[key] = &ast.IdentifierPattern{Token: keyTok, Value: key}
		}
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return pat
}

// parseStringOrLiteralPattern turns a string token into a plain literal
// pattern, or a StringPattern when it contains `{capture}` segments
// ("/hello/{name}", "{path...}").
func (p *Parser) parseStringOrLiteralPattern() ast.Pattern {
	raw := p.curToken.Literal.(string)
	parts := segmentStringPattern(raw)
	capture := false
	for _, part := range parts {
		if part.IsCapture {
			capture = true
			break
		}
	}
	if !capture {
		return &ast.LiteralPattern{Token: p.curToken, Value: raw}
	}
	return &ast.StringPattern{Token: p.curToken, Parts: parts}
}

func segmentStringPattern(raw string) []ast.StringPatternPart {
	var parts []ast.StringPatternPart
	start := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' {
			continue
		}
		end := strings.IndexByte(raw[i:], '}')
		if end < 0 {
			break
		}
		name := raw[i+1 : i+end]
		greedy := strings.HasSuffix(name, "...")
		if greedy {
			name = strings.TrimSuffix(name, "...")
		}
		if !isCaptureName(name) {
			continue
		}
		if i > start {
			parts = append(parts, ast.StringPatternPart{Value: raw[start:i]})
		}
		parts = append(parts, ast.StringPatternPart{IsCapture: true, Value: name, Greedy: greedy})
		i += end
		start = i + 1
	}
	if start < len(raw) {
		parts = append(parts, ast.StringPatternPart{Value: raw[start:]})
	}
	return parts
}

func isCaptureName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' || ('a' <= r && r <= 'z') {
			continue
		}
		if i > 0 && (('0' <= r && r <= '9') || ('A' <= r && r <= 'Z')) {
			continue
		}
		return false
	}
	return name[0] == '_' || ('a' <= name[0] && name[0] <= 'z')
}

// tupleExprToPattern converts a parsed tuple literal back into a pattern
// for destructuring assignment `(a, b) = expr`.
func (p *Parser) tupleExprToPattern(tup *ast.TupleLiteral) ast.Pattern {
	pat := &ast.TuplePattern{Token: tup.Token}
	for _, el := range tup.Elements {
		elemPat := p.exprToPattern(el)
		if elemPat == nil {
			return nil
		}
		pat.Elements = append(pat.Elements, elemPat)
	}
	return pat
}

// listExprToPattern converts a parsed list literal back into a pattern for
// `[x, ...rest] = expr`.
func (p *Parser) listExprToPattern(list *ast.ListLiteral) ast.Pattern {
	pat := &ast.ListPattern{Token: list.Token}
	for _, el := range list.Elements {
		elemPat := p.exprToPattern(el)
		if elemPat == nil {
			return nil
		}
		pat.Elements = append(pat.Elements, elemPat)
	}
	return pat
}

// recordExprToPattern converts a parsed record literal back into a pattern
// for `{ x: a, y: b } = expr`.
func (p *Parser) recordExprToPattern(rec *ast.RecordLiteral) ast.Pattern {
	pat := &ast.RecordPattern{Token: rec.Token, Fields: map[string]ast.Pattern{}}
	for key, val := range rec.Fields {
		fieldPat := p.exprToPattern(val)
		if fieldPat == nil {
			return nil
		}
		pat.Fields[key] = fieldPat
	}
	return pat
}

// exprToPattern maps the expression forms valid on the left of a
// destructuring `=` onto their pattern equivalents.
func (p *Parser) exprToPattern(expr ast.Expression) ast.Pattern {
	switch e := expr.(type) {
	case *ast.Identifier:
		if e.Value == "_" {
			return &ast.WildcardPattern{Token: e.Token}
		}
		if e.Token.Type == token.IDENT_UPPER {
			p.ctx.Errors = append(p.ctx.Errors, diagnostics.NewError(
				diagnostics.ErrP006,
				e.Token,
				"Variable name must start with a lowercase letter",
			))
			return nil
		}
		return &ast.IdentifierPattern{Token: e.Token, Value: e.Value}
	case *ast.IntegerLiteral:
		return &ast.LiteralPattern{Token: e.Token, Value: e.Value}
	case *ast.BooleanLiteral:
		return &ast.LiteralPattern{Token: e.Token, Value: e.Value}
	case *ast.StringLiteral:
		return &ast.LiteralPattern{Token: e.Token, Value: e.Value}
	case *ast.TupleLiteral:
		return p.tupleExprToPattern(e)
	case *ast.ListLiteral:
		return p.listExprToPattern(e)
	case *ast.RecordLiteral:
		return p.recordExprToPattern(e)
	case *ast.SpreadExpression:
		inner := p.exprToPattern(e.Expression)
		if inner == nil {
			return nil
		}
		return &ast.SpreadPattern{Token: e.Token, Pattern: inner}
	case *ast.CallExpression:
		// Constructor destructuring: Some(x) = expr
		fn, ok := e.Function.(*ast.Identifier)
		if !ok || fn.Token.Type != token.IDENT_UPPER {
			return nil
		}
		pat := &ast.ConstructorPattern{Token: fn.Token, Name: fn}
		for _, arg := range e.Arguments {
			argPat := p.exprToPattern(arg)
			if argPat == nil {
				return nil
			}
			pat.Elements = append(pat.Elements, argPat)
		}
		return pat
	}
	return nil
}
