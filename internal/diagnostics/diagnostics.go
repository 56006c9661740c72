package diagnostics

import (
	"fmt"

	"github.com/funvibe/funxy/internal/token"
)

// ErrorCode identifies a diagnostic category. P-codes come from the parser,
// A-codes from the analyzer, C-codes from the compiler, R-codes from the
// runtime.
type ErrorCode string

const (
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // expected identifier on left side of assignment
	ErrP003 ErrorCode = "P003" // could not parse as integer
	ErrP004 ErrorCode = "P004" // cannot parse expression
	ErrP005 ErrorCode = "P005" // expected token
	ErrP006 ErrorCode = "P006" // syntax error with custom message
	ErrP007 ErrorCode = "P007" // index assignment not supported

	ErrA001 ErrorCode = "A001" // undeclared variable / unresolved module symbol
	ErrA002 ErrorCode = "A002" // undeclared type
	ErrA003 ErrorCode = "A003" // type error
	ErrA004 ErrorCode = "A004" // redefinition of symbol
	ErrA005 ErrorCode = "A005" // type mismatch in assignment
	ErrA006 ErrorCode = "A006" // undefined symbol
	ErrA007 ErrorCode = "A007" // match not exhaustive
	ErrA008 ErrorCode = "A008" // naming convention violation

	ErrC001 ErrorCode = "C001" // compilation error

	ErrR001 ErrorCode = "R001" // runtime error
)

// prefixes maps codes to the fixed part of their message. Codes whose
// message is supplied entirely by the caller (P006's "%s template") have an
// empty prefix.
var prefixes = map[ErrorCode]string{
	ErrP001: "unexpected token: expected",
	ErrP002: "expected identifier on left side of assignment",
	ErrP003: "could not parse as integer",
	ErrP004: "cannot parse expression",
	ErrP005: "expected",
	ErrP006: "",
	ErrP007: "index assignment is not supported",
	ErrA001: "undeclared variable",
	ErrA002: "undeclared type",
	ErrA003: "type error",
	ErrA004: "redefinition of symbol",
	ErrA005: "type mismatch in assignment",
	ErrA006: "undefined symbol",
	ErrA007: "match is not exhaustive",
	ErrA008: "",
	ErrC001: "compilation error",
	ErrR001: "runtime error",
}

// DiagnosticError is the single error value every pipeline stage produces:
// a code, a formatted message, and the source token it anchors to. File is
// filled in by the pipeline processors once the owning file is known.
type DiagnosticError struct {
	Code    ErrorCode
	Message string
	Token   token.Token
	File    string
}

func (e *DiagnosticError) Error() string {
	if e.Token.Line > 0 {
		return fmt.Sprintf("[%s] %s (line %d, column %d)", e.Code, e.Message, e.Token.Line, e.Token.Column)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewError builds a DiagnosticError for code at tok. The variadic args
// extend the code's fixed prefix: one arg is appended as-is (callers pass
// complete sentences for P006-style codes), two args render as
// "<what>, got <actual>" — the shape every expectPeek-style caller uses.
func NewError(code ErrorCode, tok token.Token, args ...interface{}) *DiagnosticError {
	msg := prefixes[code]
	var detail string
	switch len(args) {
	case 0:
	case 1:
		detail = fmt.Sprint(args[0])
	case 2:
		detail = fmt.Sprintf("%v, got %v", args[0], args[1])
	default:
		detail = fmt.Sprintln(args...)
	}
	if detail != "" {
		if msg != "" {
			msg += " " + detail
		} else {
			msg = detail
		}
	}
	return &DiagnosticError{Code: code, Message: msg, Token: tok}
}

// NewAnalyzerError is NewError under the name the analyzer's naming pass
// uses; kept separate so grep distinguishes definition-site diagnostics
// from parse-time ones.
func NewAnalyzerError(code ErrorCode, tok token.Token, args ...interface{}) *DiagnosticError {
	return NewError(code, tok, args...)
}
