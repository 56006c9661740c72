package parser

import (
	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/diagnostics"
	"github.com/funvibe/funxy/internal/pipeline"
	"github.com/funvibe/funxy/internal/token"
)

// MaxRecursionDepth bounds parseExpression nesting so pathological input
// (600 open parens) degrades into a P006 diagnostic instead of a Go stack
// overflow.
const MaxRecursionDepth = 512

// Operator precedence levels, lowest binds loosest.
const (
	_ int = iota
	LOWEST
	ASSIGN_PREC  // = += -= *= /= %= **=
	ANNOTATE     // x: Type
	PIPE_PREC    // |> |>> >>= $ => <| <|>
	RANGE_PREC   // ..
	LOGIC_OR     // || ??
	LOGIC_AND    // &&
	EQUALS       // == !=
	LESSGREATER  // < > <= >=
	BITWISE_OR   // | ^
	BITWISE_AND  // &
	SHIFT        // << >>
	CONCAT_PREC  // ++ <> :: <:> <$> <*> <~>
	SUM          // + -
	PRODUCT      // * / %
	POWER_PREC   // **
	COMPOSE_PREC // >->
	PREFIX       // -x !x ~x ...x
	CALL         // f(x) x.y x?.y x[i] x?
)

var precedences = map[token.TokenType]int{
	token.ASSIGN:            ASSIGN_PREC,
	token.PLUS_ASSIGN:       ASSIGN_PREC,
	token.MINUS_ASSIGN:      ASSIGN_PREC,
	token.ASTERISK_ASSIGN:   ASSIGN_PREC,
	token.SLASH_ASSIGN:      ASSIGN_PREC,
	token.PERCENT_ASSIGN:    ASSIGN_PREC,
	token.POWER_ASSIGN:      ASSIGN_PREC,
	token.COLON:             ANNOTATE,
	token.PIPE_GT:           PIPE_PREC,
	token.PIPE_GT_UNWRAP:    PIPE_PREC,
	token.USER_OP_BIND:      PIPE_PREC,
	token.USER_OP_APP:       PIPE_PREC,
	token.USER_OP_IMPLY:     PIPE_PREC,
	token.USER_OP_PIPE_LEFT: PIPE_PREC,
	token.USER_OP_CHOOSE:    PIPE_PREC,
	token.DOT_DOT:           RANGE_PREC,
	token.OR:                LOGIC_OR,
	token.NULL_COALESCE:     LOGIC_OR,
	token.AND:               LOGIC_AND,
	token.EQ:                EQUALS,
	token.NOT_EQ:            EQUALS,
	token.LT:                LESSGREATER,
	token.GT:                LESSGREATER,
	token.LTE:               LESSGREATER,
	token.GTE:               LESSGREATER,
	token.PIPE:              BITWISE_OR,
	token.CARET:             BITWISE_OR,
	token.AMPERSAND:         BITWISE_AND,
	token.LSHIFT:            SHIFT,
	token.RSHIFT:            SHIFT,
	token.CONCAT:            CONCAT_PREC,
	token.USER_OP_COMBINE:   CONCAT_PREC,
	token.USER_OP_MAP:       CONCAT_PREC,
	token.USER_OP_APPLY:     CONCAT_PREC,
	token.USER_OP_SWAP:      CONCAT_PREC,
	token.CONS:              CONCAT_PREC,
	token.USER_OP_CONS:      CONCAT_PREC,
	token.PLUS:              SUM,
	token.MINUS:             SUM,
	token.ASTERISK:          PRODUCT,
	token.SLASH:             PRODUCT,
	token.PERCENT:           PRODUCT,
	token.POWER:             POWER_PREC,
	token.COMPOSE:           COMPOSE_PREC,
	token.DOT:               CALL,
	token.OPTIONAL_CHAIN:    CALL,
	token.LPAREN:            CALL,
	token.LBRACKET:          CALL,
	token.QUESTION:          CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser is a Pratt parser over the buffered token stream. Diagnostic
// errors accumulate on the pipeline context rather than the parser itself,
// so every stage reports through the same channel.
type Parser struct {
	stream *pipeline.TokenStream
	ctx    *pipeline.PipelineContext

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn

	depth               int
	inRecursionRecovery bool

	// disallowTrailingLambda suppresses the `f { ... }` trailing-block sugar
	// while parsing headers of if/for/match, where `{` opens the body.
	disallowTrailingLambda bool

	// splitRshift marks a pending synthetic '>' after a '>>' token was split
	// to close two nested generics; the next nextToken yields it.
	splitRshift bool
}

// New builds a Parser over stream, reporting into ctx.
func New(stream *pipeline.TokenStream, ctx *pipeline.PipelineContext) *Parser {
	p := &Parser{stream: stream, ctx: ctx}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.IDENT_LOWER:   p.parseIdentifier,
		token.IDENT_UPPER:   p.parseIdentifier,
		token.UNDERSCORE:    p.parseUnderscore,
		token.INT:           p.parseIntegerLiteral,
		token.BIG_INT:       p.parseBigIntLiteral,
		token.RATIONAL:      p.parseRationalLiteral,
		token.FLOAT:         p.parseFloatLiteral,
		token.TRUE:          p.parseBoolean,
		token.FALSE:         p.parseBoolean,
		token.NIL:           p.parseNil,
		token.CHAR:          p.parseCharLiteral,
		token.STRING:        p.parseStringLiteral,
		token.INTERP_STRING: p.parseStringLiteral,
		token.FORMAT_STRING: p.parseFormatStringLiteral,
		token.BYTES_STRING:  p.parseBytesLiteral,
		token.BYTES_HEX:     p.parseBytesLiteral,
		token.BYTES_BIN:     p.parseBytesLiteral,
		token.BITS_BIN:      p.parseBitsLiteral,
		token.BITS_HEX:      p.parseBitsLiteral,
		token.BITS_OCT:      p.parseBitsLiteral,
		token.BANG:          p.parsePrefixExpression,
		token.MINUS:         p.parsePrefixExpression,
		token.TILDE:         p.parsePrefixExpression,
		token.ELLIPSIS:      p.parsePrefixSpreadExpression,
		token.LPAREN:        p.parseGroupedExpression,
		token.LBRACKET:      p.parseListLiteral,
		token.LBRACE:        p.parseRecordLiteralOrBlock,
		token.PERCENT_LBRACE: func() ast.Expression {
			return p.parseMapLiteral()
		},
		token.BACKSLASH: p.parseLambdaExpression,
		token.FUN:       p.parseFunctionLiteral,
		token.IF:        p.parseIfExpression,
		token.FOR:       p.parseForExpression,
		token.MATCH:     p.parseMatchExpression,
		token.DO:        p.parseDoExpression,
	}

	p.infixParseFns = map[token.TokenType]infixParseFn{
		token.ASSIGN:            p.parseAssignOrReportIndex,
		token.PLUS_ASSIGN:       p.parseCompoundAssignExpression,
		token.MINUS_ASSIGN:      p.parseCompoundAssignExpression,
		token.ASTERISK_ASSIGN:   p.parseCompoundAssignExpression,
		token.SLASH_ASSIGN:      p.parseCompoundAssignExpression,
		token.PERCENT_ASSIGN:    p.parseCompoundAssignExpression,
		token.POWER_ASSIGN:      p.parseCompoundAssignExpression,
		token.COLON:             p.parseAnnotatedExpression,
		token.PIPE_GT:           p.parseInfixExpression,
		token.PIPE_GT_UNWRAP:    p.parseInfixExpression,
		token.USER_OP_BIND:      p.parseInfixExpression,
		token.USER_OP_APP:       p.parseRightAssocInfixExpression,
		token.USER_OP_IMPLY:     p.parseInfixExpression,
		token.USER_OP_PIPE_LEFT: p.parseInfixExpression,
		token.USER_OP_CHOOSE:    p.parseInfixExpression,
		token.USER_OP_COMBINE:   p.parseInfixExpression,
		token.USER_OP_MAP:       p.parseInfixExpression,
		token.USER_OP_APPLY:     p.parseInfixExpression,
		token.USER_OP_SWAP:      p.parseInfixExpression,
		token.DOT_DOT:           p.parseRangeExpression,
		token.OR:                p.parseInfixExpression,
		token.AND:               p.parseInfixExpression,
		token.NULL_COALESCE:     p.parseInfixExpression,
		token.EQ:                p.parseInfixExpression,
		token.NOT_EQ:            p.parseInfixExpression,
		token.LT:                p.parseLessThanOrTypeApp,
		token.GT:                p.parseInfixExpression,
		token.LTE:               p.parseInfixExpression,
		token.GTE:               p.parseInfixExpression,
		token.PIPE:              p.parseInfixExpression,
		token.CARET:             p.parseInfixExpression,
		token.AMPERSAND:         p.parseInfixExpression,
		token.LSHIFT:            p.parseInfixExpression,
		token.RSHIFT:            p.parseInfixExpression,
		token.CONCAT:            p.parseInfixExpression,
		token.CONS:              p.parseRightAssocInfixExpression,
		token.USER_OP_CONS:      p.parseRightAssocInfixExpression,
		token.PLUS:              p.parseInfixExpression,
		token.MINUS:             p.parseInfixExpression,
		token.ASTERISK:          p.parseInfixExpression,
		token.SLASH:             p.parseInfixExpression,
		token.PERCENT:           p.parseInfixExpression,
		token.POWER:             p.parseInfixExpression,
		token.COMPOSE:           p.parseInfixExpression,
		token.DOT:               p.parseMemberExpression,
		token.OPTIONAL_CHAIN:    p.parseOptionalChainExpression,
		token.LPAREN:            p.parseCallExpression,
		token.LBRACKET:          p.parseIndexExpression,
		token.QUESTION:          p.parsePostfixExpression,
	}

	// Prime curToken and peekToken.
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	if p.splitRshift {
		// Second half of a split '>>': synthesize the '>' in place.
		p.curToken = token.Token{
			Type: token.GT, Lexeme: ">", Literal: ">",
			Line: p.curToken.Line, Column: p.curToken.Column + 1,
		}
		p.splitRshift = false
		return
	}
	p.curToken = p.peekToken
	p.peekToken = p.stream.Next()
}

// splitRshiftToken rewrites the current '>>' token as '>' and leaves the
// second '>' pending for the next nextToken. Needed because the lexer
// cannot know whether `>>` closes two generics or shifts bits.
func (p *Parser) splitRshiftToken() {
	p.curToken = token.Token{
		Type: token.GT, Lexeme: ">", Literal: ">",
		Line: p.curToken.Line, Column: p.curToken.Column,
	}
	p.splitRshift = true
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

// expectPeek advances when the next token has the expected type; otherwise
// records a P005 and stays put.
func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.ctx.Errors = append(p.ctx.Errors, diagnostics.NewError(
		diagnostics.ErrP005,
		p.peekToken,
		t, p.peekToken.Type,
	))
	return false
}

func (p *Parser) noPrefixParseFnError(t token.TokenType) {
	p.ctx.Errors = append(p.ctx.Errors, diagnostics.NewError(
		diagnostics.ErrP004,
		p.curToken,
		t,
	))
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// skipToStatementBoundary advances to the next newline (or EOF), balancing
// nothing: it's a coarse recovery used after unrecoverable expression
// errors.
func (p *Parser) skipToStatementBoundary() {
	for !p.curTokenIs(token.NEWLINE) && !p.curTokenIs(token.EOF) {
		p.nextToken()
	}
}

// isOperatorToken reports whether curToken is an operator usable in the
// operator-as-function form `(+)`.
func (p *Parser) isOperatorToken() bool {
	switch p.curToken.Type {
	case token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.PERCENT,
		token.POWER, token.EQ, token.NOT_EQ, token.LT, token.GT, token.LTE,
		token.GTE, token.AND, token.OR, token.CONCAT, token.CONS,
		token.AMPERSAND, token.PIPE, token.CARET, token.LSHIFT, token.RSHIFT,
		token.COMPOSE, token.PIPE_GT, token.USER_OP_COMBINE,
		token.USER_OP_CHOOSE, token.USER_OP_PIPE_LEFT, token.USER_OP_APPLY,
		token.USER_OP_MAP, token.USER_OP_CONS, token.USER_OP_SWAP,
		token.USER_OP_BIND, token.USER_OP_APP, token.USER_OP_IMPLY:
		return true
	}
	return false
}

func isNilStatement(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case nil:
		return true
	case *ast.ExpressionStatement:
		return s == nil || s.Expression == nil
	case *ast.ConstantDeclaration:
		return s == nil
	case *ast.FunctionStatement:
		return s == nil
	}
	return false
}

// ParseProgram parses the whole compilation unit: optional package header,
// imports, then statements. Misplaced package/import declarations are
// reported and skipped; parsing continues so a single mistake doesn't
// suppress later diagnostics.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}

	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) {
			p.nextToken()
			continue
		}

		switch p.curToken.Type {
		case token.PACKAGE:
			if program.Package == nil && len(program.Imports) == 0 && len(program.Statements) == 0 {
				program.Package = p.parsePackageDeclaration()
				if program.Package == nil {
					p.skipToStatementBoundary()
				}
			} else {
				p.ctx.Errors = append(p.ctx.Errors, diagnostics.NewError(
					diagnostics.ErrP006,
					p.curToken,
					"package declaration must be at the top of the file",
				))
				p.skipToStatementBoundary()
			}
			p.nextToken()

		case token.IMPORT:
			if len(program.Statements) == 0 {
				imp := p.parseImportStatement()
				if imp != nil {
					program.Imports = append(program.Imports, imp)
				} else {
					p.skipToStatementBoundary()
				}
			} else {
				p.ctx.Errors = append(p.ctx.Errors, diagnostics.NewError(
					diagnostics.ErrP006,
					p.curToken,
					"import declarations must be at the top of the file",
				))
				p.skipToStatementBoundary()
			}
			p.nextToken()

		default:
			stmt := p.parseTopLevelStatement()
			if stmt != nil && !isNilStatement(stmt) {
				program.Statements = append(program.Statements, stmt)
			}
			p.nextToken()
		}
	}

	return program
}

// parseTopLevelStatement dispatches one module-level statement, mirroring
// the in-block logic of parseStatement but allowing type declarations.
func (p *Parser) parseTopLevelStatement() ast.Statement {
	switch p.curToken.Type {
	case token.TYPE:
		stmt := p.parseTypeDeclarationStatement()
		if stmt == nil {
			p.skipToStatementBoundary()
			return nil
		}
		return stmt
	case token.CONST:
		stmt := p.parseConstKeywordDeclaration()
		if stmt == nil {
			p.skipToStatementBoundary()
		}
		return stmt
	case token.TRAIT:
		stmt := p.parseTraitDeclaration()
		if stmt == nil {
			p.skipToStatementBoundary()
			return nil
		}
		return stmt
	case token.INSTANCE:
		stmt := p.parseInstanceDeclaration()
		if stmt == nil {
			p.skipToStatementBoundary()
			return nil
		}
		return stmt
	case token.BREAK:
		return p.parseBreakStatement()
	case token.CONTINUE:
		return p.parseContinueStatement()
	case token.FUN:
		if p.peekTokenIs(token.IDENT_LOWER) || p.peekTokenIs(token.LT) || p.isExtensionFun() {
			stmt := p.parseFunctionStatement()
			if stmt == nil {
				p.skipToStatementBoundary()
				return nil
			}
			return stmt
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatementOrConstDecl()
	}
}

// isExtensionFun looks past a `fun (` parameter list for a lowercase method
// name, the extension-method form `fun (self: List<a>) name(...)`.
func (p *Parser) isExtensionFun() bool {
	if !p.peekTokenIs(token.LPAREN) {
		return false
	}
	tokens := p.stream.Peek(50)
	balance := 1
	for i, t := range tokens {
		if t.Type == token.LPAREN {
			balance++
		} else if t.Type == token.RPAREN {
			balance--
			if balance == 0 {
				return i+1 < len(tokens) && tokens[i+1].Type == token.IDENT_LOWER
			}
		}
	}
	return false
}

// parseExpressionStatementOrConstDecl handles the statement forms that
// start with an arbitrary expression: plain expression statements,
// `x = ...` assignments (parsed as expressions), and `name :- value`
// constant declarations, optionally with a `name : Type :- value`
// annotation.
func (p *Parser) parseExpressionStatementOrConstDecl() ast.Statement {
	if (p.curTokenIs(token.IDENT_LOWER) || p.curTokenIs(token.IDENT_UPPER)) && p.constDeclAhead() {
		name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal.(string)}
		return p.parseConstantDeclaration(name)
	}

	startTok := p.curToken
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		p.skipToStatementBoundary()
		return nil
	}

	if p.peekTokenIs(token.COLON_MINUS) {
		// `<expr> :- value` where expr was not a plain identifier.
		p.ctx.Errors = append(p.ctx.Errors, diagnostics.NewError(
			diagnostics.ErrP001,
			expr.GetToken(),
			"identifier", expr.GetToken().Type,
		))
		p.skipToStatementBoundary()
		return nil
	}

	return &ast.ExpressionStatement{Token: startTok, Expression: expr}
}

// constDeclAhead reports whether the tokens from curToken form a constant
// declaration head: `name :-` or `name : Type :-`. The type annotation may
// contain generics, so `>>` inside <...> is tolerated while scanning.
func (p *Parser) constDeclAhead() bool {
	if p.peekTokenIs(token.COLON_MINUS) {
		return true
	}
	if !p.peekTokenIs(token.COLON) {
		return false
	}
	angle := 0
	for _, t := range p.stream.Peek(50) {
		switch t.Type {
		case token.LT:
			angle++
		case token.GT:
			if angle > 0 {
				angle--
			}
		case token.RSHIFT:
			angle -= 2
			if angle < 0 {
				angle = 0
			}
		case token.COLON_MINUS:
			return true
		case token.ASSIGN, token.NEWLINE, token.EOF, token.LBRACE:
			return false
		}
	}
	return false
}

// parseAssignOrReportIndex wraps parseAssignExpression to reject index
// assignment (`xs[0] = v`) with a dedicated diagnostic — lists are
// immutable, and the generic "invalid assignment target" path would
// otherwise swallow the statement silently.
func (p *Parser) parseAssignOrReportIndex(left ast.Expression) ast.Expression {
	target := left
	if anno, ok := left.(*ast.AnnotatedExpression); ok {
		target = anno.Expression
	}
	if _, ok := target.(*ast.IndexExpression); ok {
		p.ctx.Errors = append(p.ctx.Errors, diagnostics.NewError(
			diagnostics.ErrP007,
			p.curToken,
		))
		p.skipToStatementBoundary()
		return nil
	}
	return p.parseAssignExpression(left)
}

// parseRangeExpression parses `start..end` and the stepped form
// `(first, second)..end`, which arrives here as a two-element tuple on the
// left of `..`.
func (p *Parser) parseRangeExpression(left ast.Expression) ast.Expression {
	expr := &ast.RangeExpression{Token: p.curToken}

	if tup, ok := left.(*ast.TupleLiteral); ok && len(tup.Elements) == 2 {
		expr.Start = tup.Elements[0]
		expr.Next = tup.Elements[1]
	} else {
		expr.Start = left
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expr.End = p.parseExpression(precedence)
	return expr
}
