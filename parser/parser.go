package parser

import (
	"regexp"
	"strings"

	"github.com/opal-lang/gmlparse/ast"
	"github.com/opal-lang/gmlparse/lexer"
	"github.com/opal-lang/gmlparse/parser/invariant"
	"github.com/opal-lang/gmlparse/token"
)

// parser is a recursive-descent grammar/AST builder combined into a single
// pass: each grammar production's function both recognizes its production
// and directly returns the ast.Node it denotes (spec §4.3's parse tree and
// §4.5's AST Builder are collapsed into one walk, the way go/parser builds
// *ast.File directly instead of an intermediate CST - idiomatic for a
// single-consumer Go parser where no second consumer needs the raw parse
// tree).
//
// ruleStack names the grammar rule currently being matched, consulted by
// the Syntax-Error Reporter (errors.go) for its rule-sensitive messages
// (spec §4.8); openBlocks records each unmatched block's opening-brace
// location for the closeBlock/block message.
type parser struct {
	toks      []token.Token
	pos       int
	meta      *identifierMetadata
	ruleStack []string
	openBlocks []*token.Position

	// incDecStatementDepth is nonzero while parsing a statement-position
	// expression (an expression statement or a for-loop clause, where an
	// IncDecStatement may result per spec §4.5's re-tagging), so the prefix
	// and postfix ++/-- parses can apply §4.8's "++, -- can only be used on
	// a variable-addressing expression" message instead of the generic one.
	incDecStatementDepth int
}

// parseSource runs the grammar/parser + AST builder over already-sanitized
// source text, producing a Program whose locations refer to positions in
// that (sanitized) text. The facade (parse.go) is responsible for
// remapping those positions back to the caller's original source when the
// sanitizer rewrote it.
func parseSource(src string, meta *identifierMetadata) (prog *ast.Program, err error) {
	p := &parser{toks: tokenize(src), meta: meta}

	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case *SyntaxError:
				err = e
			case *LexerError:
				err = e
			default:
				panic(r)
			}
		}
	}()

	if illegal, ok := firstIllegal(p.toks); ok {
		panic(newLexerError(illegal))
	}

	var body []ast.Stmt
	p.pushRule("program")
	for !p.atEnd() {
		stmt := p.parseStatement()
		if stmt != nil {
			body = append(body, stmt)
		}
	}
	p.popRule()

	start := &ast.Position{Line: 1, Index: 0}
	end := &ast.Position{Line: 1, Index: 0}
	switch {
	case len(body) > 0:
		// Inherit the last statement's own (inclusive) end, keeping
		// end.index < len(source) per spec §8 property 1 - the EOF token's
		// Start sits one past the last real character and must never be
		// used as a content-bearing node's end.
		end = body[len(body)-1].End()
	case len(src) > 0:
		last := p.toks[len(p.toks)-1] // EOF token
		end = &ast.Position{Line: last.Start.Line, Index: last.Start.Index - 1}
		if end.Index < 0 {
			end.Index = 0
		}
	}
	return &ast.Program{Span: ast.Span{StartPos: start, EndPos: end}, Body: body}, nil
}

// tokenize runs the Lexer to completion and keeps only significant tokens;
// hidden-channel trivia is re-derived independently by the Trivia
// Collector (trivia.go) from a second, fresh Lexer pass (spec §4.4).
func tokenize(src string) []token.Token {
	l := lexer.New(src)
	var out []token.Token
	for {
		tok := l.Next()
		if tok.Kind == token.EOF {
			out = append(out, tok)
			break
		}
		if lexer.IsHidden(tok.Kind) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// firstIllegal reports the first ILLEGAL token in toks, if any: an ILLEGAL
// token is a lexer-only failure (spec §4.8's "lexer-only errors") and must
// surface as a LexerError before the grammar ever gets a chance to produce
// its own, less precise "unexpected symbol" SyntaxError for the same byte.
func firstIllegal(toks []token.Token) (token.Token, bool) {
	for _, t := range toks {
		if t.Kind == token.ILLEGAL {
			return t, true
		}
	}
	return token.Token{}, false
}

func (p *parser) pushRule(name string) { p.ruleStack = append(p.ruleStack, name) }
func (p *parser) popRule() {
	invariant.Invariant(len(p.ruleStack) > 0, "rule stack underflow")
	p.ruleStack = p.ruleStack[:len(p.ruleStack)-1]
}
func (p *parser) currentRule() string {
	if len(p.ruleStack) == 0 {
		return "program"
	}
	return p.ruleStack[len(p.ruleStack)-1]
}
func (p *parser) callerRule() string {
	if len(p.ruleStack) < 2 {
		return ""
	}
	return p.ruleStack[len(p.ruleStack)-2]
}

func (p *parser) cur() token.Token  { return p.toks[p.pos] }
func (p *parser) atEnd() bool       { return p.cur().Kind == token.EOF }
func (p *parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) advance() token.Token {
	tok := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) check(k token.Kind) bool { return p.cur().Kind == k }

func (p *parser) match(k token.Kind) (token.Token, bool) {
	if p.check(k) {
		return p.advance(), true
	}
	return token.Token{}, false
}

// expect consumes a token of kind k or raises a SyntaxError.
func (p *parser) expect(k token.Kind) token.Token {
	if p.check(k) {
		return p.advance()
	}
	p.fail()
	return token.Token{}
}

// failLValueExpression raises the lValueExpression-inside-incDecStatement
// SyntaxError (spec §4.8) directly, bypassing the generic rule-stack lookup
// in ruleMessage: by the time this fires, "expression" (pushed by
// parseExpression) is still the topmost rule, so the generic dispatch on
// p.currentRule()/p.callerRule() cannot see the incDecStatement context.
func (p *parser) failLValueExpression(tok token.Token) {
	msg, line, col := ruleMessage("lValueExpression", "incDecStatement", tok, nil)
	panic(&SyntaxError{
		Message:       msg,
		Line:          line,
		Column:        col,
		WrongSymbol:   wrongSymbolText(tok),
		Rule:          "lValueExpression",
		OffendingText: tok.Value,
	})
}

// fail raises a SyntaxError for the current token using the rule message
// table (errors.go).
func (p *parser) fail() {
	var openStart *token.Position
	if len(p.openBlocks) > 0 {
		openStart = p.openBlocks[len(p.openBlocks)-1]
	}
	msg, line, col := ruleMessage(p.currentRule(), p.callerRule(), p.cur(), openStart)
	panic(&SyntaxError{
		Message:       msg,
		Line:          line,
		Column:        col,
		WrongSymbol:   wrongSymbolText(p.cur()),
		Rule:          p.currentRule(),
		OffendingText: p.cur().Value,
	})
}

func startPos(tok token.Token) *ast.Position { return &ast.Position{Line: tok.Start.Line, Index: tok.Start.Index} }
func endPos(tok token.Token) *ast.Position   { return &ast.Position{Line: tok.End.Line, Index: tok.End.Index} }

// -------------------------------------------------------------------------
// Statements
// -------------------------------------------------------------------------

func (p *parser) parseStatement() ast.Stmt {
	p.pushRule("statement")
	defer p.popRule()

	switch p.cur().Kind {
	case token.LBRACE, token.KwBEGIN:
		return p.parseBlock()
	case token.KwIF:
		return p.parseIf()
	case token.KwDO:
		return p.parseDoUntil()
	case token.KwWHILE:
		return p.parseWhile()
	case token.KwFOR:
		return p.parseFor()
	case token.KwREPEAT:
		return p.parseRepeat()
	case token.KwWITH:
		return p.parseWith()
	case token.KwSWITCH:
		return p.parseSwitch()
	case token.KwCONTINUE:
		tok := p.advance()
		p.optionalSemicolon()
		return &ast.ContinueStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}}
	case token.KwBREAK:
		tok := p.advance()
		p.optionalSemicolon()
		return &ast.BreakStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}}
	case token.KwEXIT:
		tok := p.advance()
		p.optionalSemicolon()
		return &ast.ExitStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}}
	case token.KwRETURN:
		return p.parseReturn()
	case token.KwTHROW:
		return p.parseThrow()
	case token.KwTRY:
		return p.parseTry()
	case token.KwDELETE:
		return p.parseDelete()
	case token.KwGLOBALVAR:
		return p.parseGlobalVar()
	case token.KwENUM:
		return p.parseEnum()
	case token.KwVAR, token.KwSTATIC:
		return p.parseVariableDeclaration()
	case token.KwFUNCTION:
		// Function and constructor declarations are valid in both positions;
		// the concrete types implement Stmt as well as Expr.
		return p.parseFunctionOrConstructor(false).(ast.Stmt)
	case token.DIRECTIVE:
		return p.parseDirective()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *parser) optionalSemicolon() {
	p.match(token.SEMICOLON)
}

func (p *parser) parseBlock() *ast.BlockStatement {
	p.pushRule("block")
	defer p.popRule()

	open := p.advance() // LBRACE or KwBEGIN
	closeKind := token.RBRACE
	if open.Kind == token.KwBEGIN {
		closeKind = token.KwEND
	}

	openPos := startPos(open)
	openStart := open.Start
	p.openBlocks = append(p.openBlocks, &openStart)
	defer func() { p.openBlocks = p.openBlocks[:len(p.openBlocks)-1] }()

	var body []ast.Stmt
	for !p.check(closeKind) && !p.atEnd() {
		stmt := p.parseStatement()
		if stmt != nil {
			body = append(body, stmt)
		}
	}

	p.pushRule("closeBlock")
	closeTok := p.expect(closeKind)
	p.popRule()

	return &ast.BlockStatement{Span: ast.Span{StartPos: openPos, EndPos: endPos(closeTok)}, Body: body}
}

func (p *parser) parseIf() ast.Stmt {
	tok := p.advance()
	p.expect(token.LPAREN)
	test := p.parseExpression()
	p.expect(token.RPAREN)
	consequent := p.parseStatement()
	var alternate ast.Stmt
	end := consequent.End()
	if _, ok := p.match(token.KwELSE); ok {
		alternate = p.parseStatement()
		end = alternate.End()
	}
	return &ast.IfStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: end}, Test: test, Consequent: consequent, Alternate: alternate}
}

func (p *parser) parseDoUntil() ast.Stmt {
	tok := p.advance()
	body := p.parseStatement()
	p.expect(token.KwUNTIL)
	p.expect(token.LPAREN)
	test := p.parseExpression()
	end := p.expect(token.RPAREN)
	p.optionalSemicolon()
	return &ast.DoUntilStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(end)}, Body: body, Test: test}
}

func (p *parser) parseWhile() ast.Stmt {
	tok := p.advance()
	p.expect(token.LPAREN)
	test := p.parseExpression()
	p.expect(token.RPAREN)
	body := p.parseStatement()
	return &ast.WhileStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: body.End()}, Test: test, Body: body}
}

func (p *parser) parseFor() ast.Stmt {
	tok := p.advance()
	p.expect(token.LPAREN)

	var init ast.Stmt
	if !p.check(token.SEMICOLON) {
		init = p.parseSimpleStatementNoSemi()
	}
	p.expect(token.SEMICOLON)

	var test ast.Expr
	if !p.check(token.SEMICOLON) {
		test = p.parseExpression()
	}
	p.expect(token.SEMICOLON)

	var update ast.Stmt
	if !p.check(token.RPAREN) {
		update = p.parseSimpleStatementNoSemi()
	}
	p.expect(token.RPAREN)

	body := p.parseStatement()
	return &ast.ForStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: body.End()}, Init: init, Test: test, Update: update, Body: body}
}

// parseSimpleStatementNoSemi parses the for-loop init/update clause: either
// a var declaration or an expression statement, without consuming a
// trailing semicolon (the for-loop's own SEMICOLON tokens delimit it).
func (p *parser) parseSimpleStatementNoSemi() ast.Stmt {
	if p.check(token.KwVAR) || p.check(token.KwSTATIC) {
		return p.parseVariableDeclarationNoSemi()
	}
	p.incDecStatementDepth++
	expr := p.parseExpression()
	p.incDecStatementDepth--
	return exprToStatement(expr)
}

func (p *parser) parseRepeat() ast.Stmt {
	tok := p.advance()
	p.expect(token.LPAREN)
	count := p.parseExpression()
	p.expect(token.RPAREN)
	body := p.parseStatement()
	return &ast.RepeatStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: body.End()}, Count: count, Body: body}
}

func (p *parser) parseWith() ast.Stmt {
	tok := p.advance()
	p.expect(token.LPAREN)
	object := p.parseExpression()
	p.expect(token.RPAREN)
	var body ast.Stmt
	p.meta.withScope("with", func() {
		body = p.parseStatement()
	})
	return &ast.WithStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: body.End()}, Object: object, Body: body}
}

func (p *parser) parseSwitch() ast.Stmt {
	tok := p.advance()
	p.expect(token.LPAREN)
	disc := p.parseExpression()
	p.expect(token.RPAREN)
	open := p.expect(token.LBRACE)
	openStart := open.Start
	p.openBlocks = append(p.openBlocks, &openStart)

	var cases []*ast.SwitchCase
	for !p.check(token.RBRACE) && !p.atEnd() {
		cases = append(cases, p.parseSwitchCase())
	}
	p.openBlocks = p.openBlocks[:len(p.openBlocks)-1]
	closeTok := p.expect(token.RBRACE)

	return &ast.SwitchStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(closeTok)}, Discriminant: disc, Cases: cases}
}

func (p *parser) parseSwitchCase() *ast.SwitchCase {
	var test ast.Expr
	var start token.Token
	if p.check(token.KwCASE) {
		start = p.advance()
		test = p.parseExpression()
	} else {
		start = p.expect(token.KwDEFAULT)
	}
	colonTok := p.expect(token.COLON)

	var consequent []ast.Stmt
	for !p.check(token.KwCASE) && !p.check(token.KwDEFAULT) && !p.check(token.RBRACE) && !p.atEnd() {
		stmt := p.parseStatement()
		if stmt != nil {
			consequent = append(consequent, stmt)
		}
	}
	end := endPos(colonTok)
	if len(consequent) > 0 {
		end = consequent[len(consequent)-1].End()
	}
	return &ast.SwitchCase{Span: ast.Span{StartPos: startPos(start), EndPos: end}, Test: test, Consequent: consequent}
}

func (p *parser) parseReturn() ast.Stmt {
	tok := p.advance()
	end := endPos(tok)
	var arg ast.Expr
	if !p.check(token.SEMICOLON) && !p.check(token.RBRACE) && !p.check(token.KwEND) && !p.atEnd() {
		arg = p.parseExpression()
		end = arg.End()
	}
	p.optionalSemicolon()
	return &ast.ReturnStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: end}, Argument: arg}
}

func (p *parser) parseThrow() ast.Stmt {
	tok := p.advance()
	arg := p.parseExpression()
	p.optionalSemicolon()
	return &ast.ThrowStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: arg.End()}, Argument: arg}
}

func (p *parser) parseTry() ast.Stmt {
	tok := p.advance()
	block := p.parseBlock()
	end := block.End()

	var handler *ast.CatchClause
	if catchTok, ok := p.match(token.KwCATCH); ok {
		var param *ast.Identifier
		var body *ast.BlockStatement
		p.meta.withScope("catch", func() {
			if _, ok := p.match(token.LPAREN); ok {
				param = p.parseIdentifierWithRole(identifierRole{Type: "declaration", Kind: "catchParameter"})
				p.expect(token.RPAREN)
			}
			body = p.parseBlock()
		})
		handler = &ast.CatchClause{Span: ast.Span{StartPos: startPos(catchTok), EndPos: body.End()}, Param: param, Body: body}
		end = handler.End()
	}

	var finalizer *ast.Finalizer
	if finTok, ok := p.match(token.KwFINALLY); ok {
		body := p.parseBlock()
		finalizer = &ast.Finalizer{Span: ast.Span{StartPos: startPos(finTok), EndPos: body.End()}, Body: body}
		end = finalizer.End()
	}

	return &ast.TryStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: end}, Block: block, Handler: handler, Finalizer: finalizer}
}

func (p *parser) parseDelete() ast.Stmt {
	tok := p.advance()
	arg := p.parseExpression()
	p.optionalSemicolon()
	return &ast.DeleteStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: arg.End()}, Argument: arg}
}

func (p *parser) parseGlobalVar() ast.Stmt {
	tok := p.advance()
	var names []*ast.Identifier
	for {
		id := p.parseIdentifierWithRole(identifierRole{Type: "declaration", Kind: "globalvar", ScopeOverride: "global"})
		p.meta.apply(id, true)
		names = append(names, id)
		if _, ok := p.match(token.COMMA); !ok {
			break
		}
	}
	end := endPos(tok)
	if len(names) > 0 {
		end = names[len(names)-1].End()
	}
	semi, ok := p.match(token.SEMICOLON)
	if ok {
		end = endPos(semi)
	}
	return &ast.GlobalVarStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: end}, Kind_: "globalvar", Names: names}
}

func (p *parser) parseEnum() ast.Stmt {
	tok := p.advance()
	name := p.parseIdentifierWithRole(identifierRole{Type: "declaration", Kind: "enum"})
	p.expect(token.LBRACE)

	var members []*ast.EnumMember
	for !p.check(token.RBRACE) && !p.atEnd() {
		memberName := p.parseIdentifierWithRole(identifierRole{Type: "declaration", Kind: "enumMember", Tags: []string{"enumMember"}})
		p.meta.setRole(memberName, ast.RoleEnumMember)
		var value ast.Expr
		if _, ok := p.match(token.ASSIGN); ok {
			value = p.parseExpression()
		}
		end := memberName.End()
		if value != nil {
			end = value.End()
		}
		members = append(members, &ast.EnumMember{Span: ast.Span{StartPos: memberName.Pos(), EndPos: end}, Name: memberName, Value: value})
		if _, ok := p.match(token.COMMA); !ok {
			break
		}
	}
	closeTok := p.expect(token.RBRACE)
	return &ast.EnumDeclaration{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(closeTok)}, Name: name, Members: members}
}

func (p *parser) parseVariableDeclaration() ast.Stmt {
	decl := p.parseVariableDeclarationNoSemi()
	p.optionalSemicolon()
	return decl
}

func (p *parser) parseVariableDeclarationNoSemi() ast.Stmt {
	kwTok := p.advance()
	kind := kwTok.Value // "var" or "static"

	var decls []*ast.VariableDeclarator
	for {
		id := p.parseIdentifierWithRole(identifierRole{Type: "declaration", Kind: "variable"})
		var init ast.Expr
		if _, ok := p.match(token.ASSIGN); ok {
			init = p.parseExpression()
		}
		end := id.End()
		if init != nil {
			end = init.End()
		}
		decls = append(decls, &ast.VariableDeclarator{Span: ast.Span{StartPos: id.Pos(), EndPos: end}, Name: id, Init: init})
		if _, ok := p.match(token.COMMA); !ok {
			break
		}
	}
	end := endPos(kwTok)
	if len(decls) > 0 {
		end = decls[len(decls)-1].End()
	}
	return &ast.VariableDeclaration{Span: ast.Span{StartPos: startPos(kwTok), EndPos: end}, Kind_: kind, Declarations: decls}
}

// directivePattern regexes pinned per spec §9.
var (
	reRegion    = regexp.MustCompile(`(?i)^\s*region\b(.*)$`)
	reEndRegion = regexp.MustCompile(`(?i)^\s*(?:end\s*region|endregion)\b(.*)$`)
	reMacroName = regexp.MustCompile(`^\s*[A-Za-z_][A-Za-z0-9_]*\b`)
)

func (p *parser) parseDirective() ast.Stmt {
	tok := p.advance()
	raw := tok.Value
	trimmed := strings.TrimSpace(raw)
	keyword, rest := splitFirstWord(trimmed)

	switch strings.ToLower(keyword) {
	case "macro":
		return p.parseMacro(tok, raw)
	case "region":
		return &ast.RegionStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}, Name: strings.TrimSpace(rest)}
	case "endregion":
		return &ast.EndRegionStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}}
	case "define":
		return p.classifyDefinePayload(tok, rest)
	default:
		if trimmed == "" {
			return nil
		}
		return &ast.DefineStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}, Name: trimmed}
	}
}

// classifyDefinePayload implements spec §4.5/§9's #define payload
// reclassification: region/endregion-shaped payloads and identifier-shaped
// payloads are tagged with a ReplacementDirective; an empty or unparsable
// payload elides the statement entirely.
func (p *parser) classifyDefinePayload(tok token.Token, payload string) ast.Stmt {
	if strings.TrimSpace(payload) == "" {
		return nil
	}
	if m := reRegion.FindStringSubmatch(payload); m != nil {
		return &ast.DefineStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}, Name: strings.TrimSpace(m[1]), ReplacementDirective: "#region"}
	}
	if m := reEndRegion.FindStringSubmatch(payload); m != nil {
		return &ast.DefineStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}, Name: strings.TrimSpace(m[1]), ReplacementDirective: "#endregion"}
	}
	if reMacroName.MatchString(payload) {
		return &ast.DefineStatement{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}, Name: strings.TrimSpace(payload), ReplacementDirective: "#macro"}
	}
	return nil
}

// parseMacro builds a MacroDeclaration from a `#macro NAME tokens...`
// directive token. raw is the directive text after '#', so raw[i] sits at
// source index tok.Start.Index+1+i; the name gets its own Identifier node
// with exact offsets (rename tooling anchors on it), stamped global since
// macros are visible anywhere.
func (p *parser) parseMacro(tok token.Token, raw string) ast.Stmt {
	kwEnd := wordEnd(raw, skipSpace(raw, 0))
	nameStart := skipSpace(raw, kwEnd)
	nameEnd := wordEnd(raw, nameStart)
	if nameStart == nameEnd {
		return nil
	}
	name := raw[nameStart:nameEnd]

	base := tok.Start.Index + 1
	id := &ast.Identifier{
		Span: ast.Span{
			StartPos: &ast.Position{Line: tok.Start.Line + strings.Count(raw[:nameStart], "\n"), Index: base + nameStart},
			EndPos:   &ast.Position{Line: tok.Start.Line + strings.Count(raw[:nameEnd-1], "\n"), Index: base + nameEnd - 1},
		},
		Name: name,
	}
	p.meta.withRole(identifierRole{Type: "declaration", Kind: "macro", ScopeOverride: "global"}, func() {
		p.meta.apply(id, true)
	})
	p.meta.setRole(id, ast.RoleMacro)

	return &ast.MacroDeclaration{
		Span:   ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)},
		Name:   id,
		Tokens: strings.TrimSpace(raw[nameEnd:]),
	}
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpaceByte(s[i]) {
		i++
	}
	return i
}

func wordEnd(s string, i int) int {
	for i < len(s) && !isSpaceByte(s[i]) {
		i++
	}
	return i
}

func splitFirstWord(s string) (word, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := 0
	for i < len(s) && !isSpaceByte(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func (p *parser) parseFunctionOrConstructor(anonymous bool) ast.Expr {
	tok := p.advance() // KwFUNCTION

	var name *ast.Identifier
	if p.check(token.IDENT) {
		name = p.parseIdentifierWithRole(identifierRole{Type: "declaration", Kind: "function"})
	}

	var params []ast.Expr
	var hasTrailingComma bool
	var parentClause *ast.ConstructorParentClause
	isConstructor := false
	var body *ast.BlockStatement

	// Parameters and the body share one "function" scope (spec §4.7): a
	// parameter declared here must resolve from inside the body but never
	// leak to the enclosing scope.
	p.meta.withScope("function", func() {
		params, hasTrailingComma = p.parseParamList()

		if _, ok := p.match(token.COLON); ok {
			parentName := p.parseIdentifierWithRole(identifierRole{Type: "reference", Kind: "constructorParent"})
			args, parentTrailing := p.parseArgumentList(token.LPAREN, token.RPAREN)
			parentClause = &ast.ConstructorParentClause{
				Span:             ast.Span{StartPos: parentName.Pos(), EndPos: parentName.End()},
				Name:             parentName,
				Arguments:        args,
				HasTrailingComma: parentTrailing,
			}
			isConstructor = true
		}
		if _, ok := p.match(token.KwCONSTRUCTOR); ok {
			isConstructor = true
		}

		body = p.parseBlock()
	})

	if isConstructor {
		return &ast.ConstructorDeclaration{
			Span:   ast.Span{StartPos: startPos(tok), EndPos: body.End()},
			Name:   name,
			Params: params,
			Parent: parentClause,
			Body:   body,
		}
	}

	var idLoc *ast.Position
	if name != nil {
		idLoc = name.Pos()
	}
	return &ast.FunctionDeclaration{
		Span:             ast.Span{StartPos: startPos(tok), EndPos: body.End()},
		Name:             name,
		IDLocation:       idLoc,
		Params:           params,
		HasTrailingComma: hasTrailingComma,
		Body:             body,
		IsAnonymous:      name == nil || anonymous,
	}
}

// parseParamList shares the argument list's elided-slot semantics: a
// leading, doubled, or trailing comma materializes a MissingOptionalArgument
// at that comma, keeping the parameter list index-aligned with call sites
// that skip the same positions.
func (p *parser) parseParamList() ([]ast.Expr, bool) {
	p.pushRule("parameterList")
	defer p.popRule()

	p.expect(token.LPAREN)
	var params []ast.Expr
	trailing := false

	if p.check(token.COMMA) {
		comma := p.advance()
		params = append(params, &ast.MissingOptionalArgument{Span: ast.Span{StartPos: startPos(comma), EndPos: endPos(comma)}})
	}

	for !p.check(token.RPAREN) && !p.atEnd() {
		if p.check(token.COMMA) {
			comma := p.advance()
			params = append(params, &ast.MissingOptionalArgument{Span: ast.Span{StartPos: startPos(comma), EndPos: endPos(comma)}})
			if p.check(token.RPAREN) {
				trailing = true
				break
			}
			continue
		}
		if !p.check(token.IDENT) {
			p.fail()
		}
		id := p.parseIdentifierWithRole(identifierRole{Type: "declaration", Kind: "parameter"})
		var param ast.Expr = id
		if _, ok := p.match(token.ASSIGN); ok {
			def := p.parseExpression()
			param = &ast.DefaultParameter{Span: ast.Span{StartPos: id.Pos(), EndPos: def.End()}, Left: id, Right: def}
		}
		params = append(params, param)
		if _, ok := p.match(token.COMMA); ok {
			if p.check(token.RPAREN) {
				trailing = true
				comma := p.toks[p.pos-1]
				params = append(params, &ast.MissingOptionalArgument{Span: ast.Span{StartPos: startPos(comma), EndPos: endPos(comma)}})
				break
			}
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	return params, trailing
}

// -------------------------------------------------------------------------
// Expression statements
// -------------------------------------------------------------------------

func (p *parser) parseExpressionStatement() ast.Stmt {
	// Any ++/-- encountered while parsing a top-level expression statement
	// falls under the grammar's incDecStatement production (spec
	// §4.5/§4.8), whether written prefix (`++x;`) or postfix (`x++;`):
	// track it with a direct flag rather than the generic rule stack,
	// since "expression" is always pushed between "statement" and the
	// unary/postfix parse that needs to see it.
	p.incDecStatementDepth++
	expr := p.parseExpression()
	p.incDecStatementDepth--
	stmt := exprToStatement(expr)
	p.optionalSemicolon()
	return stmt
}

// exprToStatement applies spec §4.5's statement-position re-tagging: a bare
// identifier becomes IdentifierStatement, an IncDecExpression becomes
// IncDecStatement, anything else is wrapped in ExpressionStatement.
func exprToStatement(expr ast.Expr) ast.Stmt {
	switch e := expr.(type) {
	case *ast.Identifier:
		return &ast.IdentifierStatement{Span: ast.Span{StartPos: e.Pos(), EndPos: e.End()}, Name: e}
	case *ast.IncDecExpression:
		return &ast.IncDecStatement{Span: ast.Span{StartPos: e.Pos(), EndPos: e.End()}, Operator: e.Operator, Argument: e.Argument, Prefix: e.Prefix}
	default:
		return &ast.ExpressionStatement{Span: ast.Span{StartPos: expr.Pos(), EndPos: expr.End()}, Expression: expr}
	}
}

// -------------------------------------------------------------------------
// Expressions
// -------------------------------------------------------------------------

func (p *parser) parseExpression() ast.Expr {
	p.pushRule("expression")
	defer p.popRule()
	return p.parseAssignment()
}

func (p *parser) parseAssignment() ast.Expr {
	left := p.parseTernary(nil)
	if isAssignOpKind(p.cur().Kind) {
		opTok := p.advance()
		right := p.parseAssignment()
		operator := token.NormalizeAssignOperator(opTok.Value)
		markAssignmentTarget(left)
		return &ast.AssignmentExpression{
			Span:     ast.Span{StartPos: left.Pos(), EndPos: right.End()},
			Operator: operator,
			Left:     left,
			Right:    right,
		}
	}
	return left
}

// markAssignmentTarget relabels a plain identifier written as an
// AssignmentExpression's left side from "reference" to "assignment" (spec
// §4.7). By the time the parser recognizes an assignment, the left operand
// has already been built as an ordinary expression (precedence climbing
// parses left-to-right before the operator is known), so the correction
// happens here instead of threading an extra parameter through every
// expression-parsing function.
func markAssignmentTarget(left ast.Expr) {
	id, ok := left.(*ast.Identifier)
	if !ok || id.Role != ast.RoleReference {
		return
	}
	id.Role = ast.RoleAssignment
	for i, c := range id.Classifications {
		if c == "reference" {
			id.Classifications[i] = "assignment"
		}
	}
}

func (p *parser) parseTernary(parent *parentBinary) ast.Expr {
	test := p.parseBinary(2, parent)
	if _, ok := p.match(token.QUESTION); ok {
		consequent := p.parseAssignment()
		p.expect(token.COLON)
		alternate := p.parseAssignment()
		return &ast.TernaryExpression{
			Span:       ast.Span{StartPos: test.Pos(), EndPos: alternate.End()},
			Test:       test,
			Consequent: consequent,
			Alternate:  alternate,
		}
	}
	return test
}

// parseBinary implements precedence climbing over the operator table
// (token/precedence.go), applying the Binary-Expression Delegate's
// synthetic-parenthesization rule (precedence.go's wrapIfNeeded) to the
// node it finally returns, per spec §4.6.
func (p *parser) parseBinary(minPrec int, parent *parentBinary) ast.Expr {
	current := p.parseUnary()
	var lastOp string

	for {
		opTok := p.cur()
		binding, ok := token.BinaryOperators[opTok.Value]
		if !ok || isAssignOpKind(opTok.Kind) || binding.Prec < minPrec {
			break
		}
		p.advance()

		nextMin := binding.Prec + 1
		if binding.RightAssoc {
			nextMin = binding.Prec
		}
		right := p.parseBinary(nextMin, &parentBinary{operator: opTok.Value, position: "right"})

		current = &ast.BinaryExpression{
			Span:     ast.Span{StartPos: current.Pos(), EndPos: right.End()},
			Operator: opTok.Value,
			Left:     current,
			Right:    right,
		}
		lastOp = opTok.Value
	}

	if lastOp != "" {
		current = wrapIfNeeded(current, lastOp, parent)
	}
	return current
}

func isAssignOpKind(k token.Kind) bool {
	switch k {
	case token.ASSIGN, token.ASSIGN_COLON, token.STAR_ASSIGN, token.SLASH_ASSIGN, token.PERCENT_ASSIGN,
		token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.SHL_ASSIGN, token.SHR_ASSIGN,
		token.AMP_ASSIGN, token.CARET_ASSIGN, token.PIPE_ASSIGN, token.QUESTIONQUESTION_ASSIGN:
		return true
	}
	return false
}

func (p *parser) parseUnary() ast.Expr {
	switch p.cur().Kind {
	case token.INC, token.DEC:
		opTok := p.advance()
		argStart := p.cur()
		arg := p.parseUnary()
		if p.incDecStatementDepth > 0 && !isLValue(arg) {
			p.failLValueExpression(argStart)
		}
		return &ast.IncDecExpression{Span: ast.Span{StartPos: startPos(opTok), EndPos: arg.End()}, Operator: opTok.Value, Argument: arg, Prefix: true}
	case token.BANG, token.TILDE, token.MINUS, token.PLUS:
		opTok := p.advance()
		arg := p.parseUnary()
		return &ast.UnaryExpression{Span: ast.Span{StartPos: startPos(opTok), EndPos: arg.End()}, Operator: opTok.Value, Prefix: true, Argument: arg}
	case token.KwNOT:
		opTok := p.advance()
		arg := p.parseUnary()
		return &ast.UnaryExpression{Span: ast.Span{StartPos: startPos(opTok), EndPos: arg.End()}, Operator: "!", Prefix: true, Argument: arg}
	default:
		return p.parsePostfix(p.parsePrimary())
	}
}

func isLValue(expr ast.Expr) bool {
	switch expr.(type) {
	case *ast.Identifier, *ast.MemberDotExpression, *ast.MemberIndexExpression:
		return true
	}
	return false
}

func (p *parser) parsePostfix(expr ast.Expr) ast.Expr {
	for {
		switch p.cur().Kind {
		case token.DOT:
			p.advance()
			prop := p.parseIdentifierWithRole(identifierRole{Type: "reference", Kind: "property"})
			if id, ok := expr.(*ast.Identifier); ok && id.Name == "global" {
				p.meta.globals.markIdentifier(prop.Name)
				prop.IsGlobalIdentifier = true
			}
			expr = &ast.MemberDotExpression{Span: ast.Span{StartPos: expr.Pos(), EndPos: prop.End()}, Object: expr, Property: prop}

		case token.LBRACKET:
			expr = p.parseMemberIndex(expr)

		case token.LPAREN:
			args, _ := p.parseArgumentList(token.LPAREN, token.RPAREN)
			endTok := p.toks[p.pos-1]
			expr = &ast.CallExpression{Span: ast.Span{StartPos: expr.Pos(), EndPos: endPos(endTok)}, Callee: expr, Arguments: args}

		case token.INC, token.DEC:
			opTok := p.advance()
			if p.incDecStatementDepth > 0 && !isLValue(expr) {
				p.failLValueExpression(opTok)
			}
			expr = &ast.IncDecExpression{Span: ast.Span{StartPos: expr.Pos(), EndPos: endPos(opTok)}, Operator: opTok.Value, Argument: expr, Prefix: false}

		default:
			return expr
		}
	}
}

func (p *parser) parseMemberIndex(object ast.Expr) ast.Expr {
	open := p.advance() // '['
	accessor := "["
	switch p.cur().Kind {
	case token.HASH, token.PIPE, token.QUESTION, token.DOLLARSIGN, token.AT:
		if p.cur().Start.Index == open.End.Index+1 {
			accessor += p.advance().Value
		}
	}

	var props []ast.Expr
	for !p.check(token.RBRACKET) && !p.atEnd() {
		props = append(props, p.parseExpression())
		if _, ok := p.match(token.COMMA); !ok {
			break
		}
	}
	closeTok := p.expect(token.RBRACKET)
	return &ast.MemberIndexExpression{Span: ast.Span{StartPos: object.Pos(), EndPos: endPos(closeTok)}, Object: object, Property: props, Accessor: accessor}
}

// parseArgumentList implements spec §4.5's missing-optional-argument
// semantics: a leading comma, an embedded run of commas, or a trailing
// comma each materialize a MissingOptionalArgument located at that comma.
func (p *parser) parseArgumentList(open, close token.Kind) ([]ast.Expr, bool) {
	p.expect(open)
	var args []ast.Expr
	trailing := false

	if p.check(token.COMMA) {
		comma := p.advance()
		args = append(args, &ast.MissingOptionalArgument{Span: ast.Span{StartPos: startPos(comma), EndPos: endPos(comma)}})
	}

	for !p.check(close) && !p.atEnd() {
		if p.check(token.COMMA) {
			comma := p.advance()
			args = append(args, &ast.MissingOptionalArgument{Span: ast.Span{StartPos: startPos(comma), EndPos: endPos(comma)}})
			if p.check(close) {
				trailing = true
				break
			}
			continue
		}
		args = append(args, p.parseExpression())
		if _, ok := p.match(token.COMMA); ok {
			if p.check(close) {
				trailing = true
				comma := p.toks[p.pos-1]
				args = append(args, &ast.MissingOptionalArgument{Span: ast.Span{StartPos: startPos(comma), EndPos: endPos(comma)}})
				break
			}
			continue
		}
		break
	}
	p.expect(close)
	return args, trailing
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Kind {
	case token.INT:
		p.advance()
		return &ast.Literal{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}, LiteralKind: ast.LiteralInt, Raw: tok.Value}
	case token.HEX:
		p.advance()
		return &ast.Literal{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}, LiteralKind: ast.LiteralHex, Raw: tok.Value}
	case token.BINARY:
		p.advance()
		return &ast.Literal{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}, LiteralKind: ast.LiteralBinary, Raw: tok.Value}
	case token.FLOAT:
		p.advance()
		return &ast.Literal{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}, LiteralKind: ast.LiteralFloat, Raw: tok.Value}
	case token.STRING:
		p.advance()
		return &ast.Literal{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}, LiteralKind: ast.LiteralString, Raw: tok.Value}
	case token.KwTRUE, token.KwFALSE:
		p.advance()
		return &ast.Literal{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}, LiteralKind: ast.LiteralBool, Raw: tok.Value}
	case token.KwUNDEFINED:
		p.advance()
		return &ast.Literal{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}, LiteralKind: ast.LiteralUndefined, Raw: tok.Value}
	case token.KwNOONE:
		p.advance()
		return &ast.Literal{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}, LiteralKind: ast.LiteralNoone, Raw: tok.Value}
	case token.TEMPLATE_STRING_START:
		return p.parseTemplateString()
	case token.IDENT, token.KwSELF, token.KwOTHER, token.KwALL, token.KwGLOBAL:
		return p.parseIdentifierWithRole(identifierRole{Type: "reference", Kind: "identifier"})
	case token.LPAREN:
		p.advance()
		inner := p.parseExpression()
		closeTok := p.expect(token.RPAREN)
		return &ast.ParenthesizedExpression{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(closeTok)}, Expression: inner}
	case token.LBRACKET:
		return p.parseArrayExpression()
	case token.LBRACE:
		return p.parseStructExpression()
	case token.KwFUNCTION:
		return p.parseFunctionOrConstructor(true)
	case token.KwNEW:
		return p.parseNewExpression()
	default:
		p.fail()
		return nil
	}
}

func (p *parser) parseIdentifierWithRole(role identifierRole) *ast.Identifier {
	tok := p.advance()
	id := &ast.Identifier{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}, Name: tok.Value}
	p.meta.withRole(role, func() {
		p.meta.apply(id, false)
	})
	return id
}

func (p *parser) parseTemplateString() ast.Expr {
	startTok := p.advance() // TEMPLATE_STRING_START
	var parts []ast.Node
	for {
		switch p.cur().Kind {
		case token.TEMPLATE_STRING_TEXT:
			tok := p.advance()
			parts = append(parts, &ast.TemplateStringText{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(tok)}, Raw: tok.Value})
		case token.TEMPLATE_EXPR_START:
			p.advance()
			expr := p.parseExpression()
			parts = append(parts, expr)
			p.expect(token.TEMPLATE_EXPR_END)
		case token.TEMPLATE_STRING_END:
			endTok := p.advance()
			return &ast.TemplateStringExpression{Span: ast.Span{StartPos: startPos(startTok), EndPos: endPos(endTok)}, Parts: parts}
		default:
			p.fail()
			return nil
		}
	}
}

func (p *parser) parseArrayExpression() ast.Expr {
	tok := p.advance() // '['
	var elements []ast.Expr
	trailing := false
	for !p.check(token.RBRACKET) && !p.atEnd() {
		elements = append(elements, p.parseExpression())
		if _, ok := p.match(token.COMMA); ok {
			if p.check(token.RBRACKET) {
				trailing = true
				break
			}
			continue
		}
		break
	}
	closeTok := p.expect(token.RBRACKET)
	return &ast.ArrayExpression{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(closeTok)}, Elements: elements, HasTrailingComma: trailing}
}

func (p *parser) parseStructExpression() ast.Expr {
	tok := p.advance() // '{'
	var props []*ast.Property
	trailing := false
	for !p.check(token.RBRACE) && !p.atEnd() {
		name := p.parseIdentifierWithRole(identifierRole{Type: "declaration", Kind: "structProperty"})
		p.expect(token.COLON)
		value := p.parseExpression()
		props = append(props, &ast.Property{Span: ast.Span{StartPos: name.Pos(), EndPos: value.End()}, Name: name, Value: value})
		if _, ok := p.match(token.COMMA); ok {
			if p.check(token.RBRACE) {
				trailing = true
				break
			}
			continue
		}
		break
	}
	closeTok := p.expect(token.RBRACE)
	return &ast.StructExpression{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(closeTok)}, Properties: props, HasTrailingComma: trailing}
}

func (p *parser) parseNewExpression() ast.Expr {
	tok := p.advance() // 'new'
	callee := p.parsePostfixCalleeOnly()
	args, _ := p.parseArgumentList(token.LPAREN, token.RPAREN)
	endTok := p.toks[p.pos-1]
	return &ast.NewExpression{Span: ast.Span{StartPos: startPos(tok), EndPos: endPos(endTok)}, Callee: callee, Arguments: args}
}

// parsePostfixCalleeOnly parses the callee of a `new` expression: an
// identifier optionally followed by member-dot chains, but never by a call
// (the call's own argument list belongs to `new` itself, not the callee).
func (p *parser) parsePostfixCalleeOnly() ast.Expr {
	expr := p.parseIdentifierWithRole(identifierRole{Type: "reference", Kind: "constructor"})
	var result ast.Expr = expr
	for p.check(token.DOT) {
		p.advance()
		prop := p.parseIdentifierWithRole(identifierRole{Type: "reference", Kind: "property"})
		result = &ast.MemberDotExpression{Span: ast.Span{StartPos: result.Pos(), EndPos: prop.End()}, Object: result, Property: prop}
	}
	return result
}
