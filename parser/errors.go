// Package parser implements the grammar-directed GML parser, AST builder,
// trivia collector, identifier metadata subsystem, structured syntax
// errors, and the parser facade (spec §4.3-§4.9).
package parser

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/opal-lang/gmlparse/token"
)

// SyntaxError is the structured parse failure described in spec §4.8:
// message, 1-based line, 0-based column, the quoted offending symbol, the
// innermost grammar rule active at the error site, and the raw offending
// text. Source is the name label given to ParseFile, empty for the
// string-based entry points.
type SyntaxError struct {
	Message       string
	Line          int
	Column        int
	WrongSymbol   string
	Rule          string
	OffendingText string
	Source        string
	cause         error
}

func (e *SyntaxError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: Syntax Error (line %d, column %d): %s", e.Source, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("Syntax Error (line %d, column %d): %s", e.Line, e.Column, e.Message)
}

func (e *SyntaxError) Unwrap() error { return e.cause }

// LexerError is a token-recognition failure: the same shape as SyntaxError
// without a Rule, since it is raised before any grammar rule is active
// (spec §7).
type LexerError struct {
	Message       string
	Line          int
	Column        int
	OffendingText string
	Source        string
	cause         error
}

func (e *LexerError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: Lexer Error (line %d, column %d): %s", e.Source, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("Lexer Error (line %d, column %d): %s", e.Line, e.Column, e.Message)
}

func (e *LexerError) Unwrap() error { return e.cause }

// newLexerError builds the structured diagnostic for an ILLEGAL token, the
// "token recognition error at: '...'" case of spec §4.8's lexer-only
// listener: the embedded token text is quoted and reported as
// "unexpected <symbol>", the same phrasing the grammar-level reporter uses,
// but without a Rule field since no grammar rule is active yet.
func newLexerError(tok token.Token) *LexerError {
	return &LexerError{
		Message:       fmt.Sprintf("unexpected %s", wrongSymbolText(tok)),
		Line:          tok.Start.Line,
		Column:        tok.Start.Column,
		OffendingText: tok.Value,
	}
}

// InvalidArgument is raised for host contract violations on the parse
// entry point itself (source text that is not valid UTF-8), never for
// anything found inside the source text's syntax.
type InvalidArgument struct {
	Message string
	cause   error
}

func (e *InvalidArgument) Error() string { return e.Message }
func (e *InvalidArgument) Unwrap() error { return e.cause }

func newInvalidArgument(format string, args ...any) error {
	return errors.WithStack(&InvalidArgument{Message: fmt.Sprintf(format, args...)})
}

// labelError stamps the ParseFile source name onto a structured diagnostic;
// a no-op for an empty name or for error kinds that carry no position (the
// name would add nothing to an InvalidArgument about the call itself).
func labelError(err error, name string) error {
	if name == "" {
		return err
	}
	switch e := err.(type) {
	case *SyntaxError:
		e.Source = name
	case *LexerError:
		e.Source = name
	}
	return err
}

// wrongSymbolText renders a token for the WrongSymbol field per spec §4.8:
// the quoted offending text, "end of file" for EOF, or "unknown symbol"
// when the token carries no usable text.
func wrongSymbolText(tok token.Token) string {
	if tok.Kind == token.EOF {
		return "end of file"
	}
	if tok.Value == "" {
		return "unknown symbol"
	}
	return fmt.Sprintf("%q", tok.Value)
}

// ruleMessage implements the context-sensitive message table of spec §4.8,
// keyed on the innermost active grammar rule (and, for closeBlock, its
// caller).
func ruleMessage(rule string, callerRule string, tok token.Token, openBlockStart *token.Position) (string, int, int) {
	symbol := wrongSymbolText(tok)

	switch {
	case rule == "closeBlock" && callerRule == "block":
		line, col := tok.Start.Line, tok.Start.Column
		if openBlockStart != nil {
			line, col = openBlockStart.Line, openBlockStart.Column
		}
		return "missing associated closing brace for this block", line, col
	case rule == "lValueExpression" && callerRule == "incDecStatement":
		return "++, -- can only be used on a variable-addressing expression", tok.Start.Line, tok.Start.Column
	case rule == "expression":
		return fmt.Sprintf("unexpected %s in expression", symbol), tok.Start.Line, tok.Start.Column
	case rule == "statement" || rule == "program":
		return fmt.Sprintf("unexpected %s", symbol), tok.Start.Line, tok.Start.Column
	case rule == "parameterList":
		return fmt.Sprintf("unexpected %s in function parameters, expected an identifier", symbol), tok.Start.Line, tok.Start.Column
	default:
		return fmt.Sprintf("unexpected %s while matching rule %s", symbol, kebabLower(rule)), tok.Start.Line, tok.Start.Column
	}
}

func kebabLower(rule string) string {
	out := make([]byte, 0, len(rule)+4)
	for i := 0; i < len(rule); i++ {
		ch := rule[i]
		if ch >= 'A' && ch <= 'Z' {
			if i > 0 {
				out = append(out, '-')
			}
			out = append(out, ch-'A'+'a')
			continue
		}
		out = append(out, ch)
	}
	return string(out)
}
