package lexer

import (
	"testing"

	"github.com/opal-lang/gmlparse/token"
)

func significant(src string) []token.Token {
	l := New(src)
	var out []token.Token
	for {
		tok := l.Next()
		if tok.Kind == token.EOF {
			out = append(out, tok)
			break
		}
		if IsHidden(tok.Kind) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func kinds(toks []token.Token) []token.Kind {
	var ks []token.Kind
	for _, t := range toks {
		ks = append(ks, t.Kind)
	}
	return ks
}

func assertKinds(t *testing.T, got []token.Kind, want ...token.Kind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("at %d: got %v want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestLexBasicAssignment(t *testing.T) {
	toks := significant("var x = 1;")
	assertKinds(t, kinds(toks),
		token.KwVAR, token.IDENT, token.ASSIGN, token.INT, token.SEMICOLON, token.EOF)
}

func TestLexHexAndBinaryLiterals(t *testing.T) {
	toks := significant("0x1F + 0b101")
	assertKinds(t, kinds(toks), token.HEX, token.PLUS, token.BINARY, token.EOF)
	if toks[0].Value != "0x1F" {
		t.Fatalf("got %q", toks[0].Value)
	}
}

func TestLexFloatLiteral(t *testing.T) {
	toks := significant("1.5 + .0")
	if toks[0].Kind != token.FLOAT || toks[0].Value != "1.5" {
		t.Fatalf("got %v %q", toks[0].Kind, toks[0].Value)
	}
}

func TestLexOperatorMaximalMunch(t *testing.T) {
	toks := significant("a <<= b")
	assertKinds(t, kinds(toks), token.IDENT, token.SHL_ASSIGN, token.IDENT, token.EOF)
}

func TestLexStringWithEscape(t *testing.T) {
	toks := significant(`"a\"b"`)
	assertKinds(t, kinds(toks), token.STRING, token.EOF)
	if toks[0].Value != `"a\"b"` {
		t.Fatalf("got %q", toks[0].Value)
	}
}

func TestLexLineAndBlockComments(t *testing.T) {
	l := New("// hi\n/* block */ x")
	var ks []token.Kind
	for {
		tok := l.Next()
		ks = append(ks, tok.Kind)
		if tok.Kind == token.EOF {
			break
		}
	}
	assertKinds(t, ks,
		token.LINE_COMMENT, token.LINE_TERMINATOR, token.BLOCK_COMMENT,
		token.WHITESPACE, token.IDENT, token.EOF)
}

func TestLexTemplateStringSimple(t *testing.T) {
	toks := significant(`$"hello {name}!"`)
	assertKinds(t, kinds(toks),
		token.TEMPLATE_STRING_START, token.TEMPLATE_STRING_TEXT, token.TEMPLATE_EXPR_START,
		token.IDENT, token.TEMPLATE_EXPR_END, token.TEMPLATE_STRING_TEXT,
		token.TEMPLATE_STRING_END, token.EOF)
}

func TestLexTemplateStringNestedBraces(t *testing.T) {
	toks := significant(`$"{foo({a: 1})}"`)
	assertKinds(t, kinds(toks),
		token.TEMPLATE_STRING_START, token.TEMPLATE_EXPR_START,
		token.IDENT, token.LPAREN, token.LBRACE, token.IDENT, token.COLON, token.INT, token.RBRACE,
		token.RPAREN, token.TEMPLATE_EXPR_END, token.TEMPLATE_STRING_END, token.EOF)
}

func TestLexTemplateStringNestedTemplate(t *testing.T) {
	toks := significant(`$"outer {$"inner"} end"`)
	assertKinds(t, kinds(toks),
		token.TEMPLATE_STRING_START, token.TEMPLATE_STRING_TEXT, token.TEMPLATE_EXPR_START,
		token.TEMPLATE_STRING_START, token.TEMPLATE_STRING_TEXT, token.TEMPLATE_STRING_END,
		token.TEMPLATE_EXPR_END, token.TEMPLATE_STRING_TEXT, token.TEMPLATE_STRING_END, token.EOF)
}

func TestLexDirectiveConsumesLine(t *testing.T) {
	toks := significant("#macro PI 3.14\nvar x;")
	if toks[0].Kind != token.DIRECTIVE {
		t.Fatalf("expected DIRECTIVE, got %v", toks[0].Kind)
	}
	if toks[0].Value != "macro PI 3.14" {
		t.Fatalf("got %q", toks[0].Value)
	}
	assertKinds(t, kinds(toks[1:]), token.KwVAR, token.IDENT, token.SEMICOLON, token.EOF)
}

func TestLexHashAccessorIsNotADirectiveMidLine(t *testing.T) {
	toks := significant("a[# 0, 0]")
	assertKinds(t, kinds(toks),
		token.IDENT, token.LBRACKET, token.HASH, token.INT, token.COMMA, token.INT, token.RBRACKET, token.EOF)
}

func TestLexKeywordsCaseSensitive(t *testing.T) {
	toks := significant("If")
	if toks[0].Kind != token.IDENT {
		t.Fatalf("expected 'If' (capitalized) to lex as IDENT, got %v", toks[0].Kind)
	}
}

func TestLexResetReplaysIdenticalStream(t *testing.T) {
	l := New("var x = 1; // trailing\n")
	var first []token.Kind
	for {
		tok := l.Next()
		first = append(first, tok.Kind)
		if tok.Kind == token.EOF {
			break
		}
	}
	l.Reset()
	var second []token.Kind
	for {
		tok := l.Next()
		second = append(second, tok.Kind)
		if tok.Kind == token.EOF {
			break
		}
	}
	assertKinds(t, second, first...)
}

func TestLexIllegalByteDoesNotDesyncScanner(t *testing.T) {
	toks := significant("a \x01 b")
	assertKinds(t, kinds(toks), token.IDENT, token.ILLEGAL, token.IDENT, token.EOF)
}

// TestLexTokenEndIsInclusive locks in spec §3.1/§8's convention: End is the
// index of the token's own last byte (so source[Start.Index:End.Index+1]
// recovers its text), not one past it as go/ast's End() would report.
func TestLexTokenEndIsInclusive(t *testing.T) {
	src := "var xy = 1;"
	toks := significant(src)

	varTok := toks[0] // "var", a 3-byte token starting at index 0
	if varTok.Start.Index != 0 || varTok.End.Index != 2 {
		t.Fatalf("var token: got start=%d end=%d, want start=0 end=2", varTok.Start.Index, varTok.End.Index)
	}
	if got := src[varTok.Start.Index : varTok.End.Index+1]; got != "var" {
		t.Fatalf("var token slice = %q, want %q", got, "var")
	}

	idTok := toks[1] // "xy" at index 4..5
	if idTok.Start.Index != 4 || idTok.End.Index != 5 {
		t.Fatalf("ident token: got start=%d end=%d, want start=4 end=5", idTok.Start.Index, idTok.End.Index)
	}

	semi := toks[len(toks)-2] // ";" - a single-byte token: Start == End
	if semi.Start != semi.End {
		t.Fatalf("single-byte token must have Start == End, got start=%+v end=%+v", semi.Start, semi.End)
	}
}

// TestLexTokenEndLineAcrossNewline verifies a multi-line token's End.Line
// reflects the line its own last character sits on, not the line after it.
func TestLexTokenEndLineAcrossNewline(t *testing.T) {
	l := New("/* a\nb */")
	tok := l.Next()
	if tok.Kind != token.BLOCK_COMMENT {
		t.Fatalf("expected BLOCK_COMMENT, got %v", tok.Kind)
	}
	if tok.Start.Line != 1 {
		t.Fatalf("expected start line 1, got %d", tok.Start.Line)
	}
	if tok.End.Line != 2 {
		t.Fatalf("expected end line 2 (comment's closing */ is on line 2), got %d", tok.End.Line)
	}
}
