package parser

import (
	"strings"

	"github.com/opal-lang/gmlparse/ast"
	"github.com/opal-lang/gmlparse/lexer"
	"github.com/opal-lang/gmlparse/token"
)

// collectTrivia implements the Trivia Collector (spec §4.4): it resets a
// fresh Lexer over src and walks the unified token stream a second time
// (the Grammar/Parser consumed the same stream once already, skipping
// hidden tokens), classifying every hidden-channel token and building the
// sequenced comments list with leading/trailing whitespace and adjacency
// metadata.
func collectTrivia(src string) []ast.Node {
	l := lexer.New(src)

	var comments []ast.Node
	var lastComment ast.Node // most recent comment whose trailing fields are still unset

	var pendingWS strings.Builder
	prevSignificantChar := ""
	foundFirstSignificant := false
	topAssigned := false

	closeLastComment := func(trailingWS, trailingChar string) {
		if lastComment == nil {
			return
		}
		switch c := lastComment.(type) {
		case *ast.CommentLine:
			c.TrailingWS = trailingWS
			c.TrailingChar = trailingChar
		case *ast.CommentBlock:
			c.TrailingWS = trailingWS
			c.TrailingChar = trailingChar
		}
		lastComment = nil
	}

	for {
		tok := l.Next()
		if tok.Kind == token.EOF {
			closeLastComment(pendingWS.String(), "")
			break
		}

		switch tok.Kind {
		case token.WHITESPACE, token.LINE_TERMINATOR:
			pendingWS.WriteString(tok.Value)
			continue

		case token.LINE_COMMENT:
			text := strings.TrimPrefix(tok.Value, "//")
			node := &ast.CommentLine{
				Span:        ast.Span{StartPos: posOf(tok.Start), EndPos: posOf(tok.End)},
				Text:        text,
				LeadingWS:   pendingWS.String(),
				LeadingChar: prevSignificantChar,
			}
			if !foundFirstSignificant && !topAssigned {
				node.IsTopComment = true
				topAssigned = true
			}
			comments = append(comments, node)
			lastComment = node
			pendingWS.Reset()
			continue

		case token.BLOCK_COMMENT:
			text := strings.TrimSuffix(strings.TrimPrefix(tok.Value, "/*"), "*/")
			node := &ast.CommentBlock{
				Span:        ast.Span{StartPos: posOf(tok.Start), EndPos: posOf(tok.End)},
				Text:        text,
				LineCount:   strings.Count(tok.Value, "\n") + 1,
				LeadingWS:   pendingWS.String(),
				LeadingChar: prevSignificantChar,
			}
			if !foundFirstSignificant && !topAssigned {
				node.IsTopComment = true
				topAssigned = true
			}
			comments = append(comments, node)
			lastComment = node
			pendingWS.Reset()
			continue
		}

		// A significant token: close any pending comment with the
		// whitespace and first character observed since it.
		firstChar := ""
		if tok.Value != "" {
			firstChar = string(tok.Value[0])
		}
		closeLastComment(pendingWS.String(), firstChar)
		pendingWS.Reset()

		if tok.Value != "" {
			prevSignificantChar = string(tok.Value[len(tok.Value)-1])
		}
		foundFirstSignificant = true
	}

	if len(comments) > 0 {
		switch c := comments[len(comments)-1].(type) {
		case *ast.CommentLine:
			c.IsBottomComment = true
		case *ast.CommentBlock:
			c.IsBottomComment = true
		}
	}

	return comments
}

func posOf(p token.Position) *ast.Position {
	return &ast.Position{Line: p.Line, Index: p.Index}
}

// collectWhitespace re-lexes src and returns one Whitespace node per
// hidden-channel whitespace/line-terminator token, in source order, for the
// ParseWithTrivia facade entry (spec §4.4/§6's parse_with_trivia triple).
// Unlike collectTrivia's comment list, it does not merge adjacent runs; it
// is only consulted by callers that explicitly asked for raw trivia.
func collectWhitespace(src string) []ast.Node {
	l := lexer.New(src)

	var out []ast.Node
	for {
		tok := l.Next()
		if tok.Kind == token.EOF {
			break
		}
		if tok.Kind != token.WHITESPACE && tok.Kind != token.LINE_TERMINATOR {
			continue
		}
		out = append(out, &ast.Whitespace{
			Span:      ast.Span{StartPos: posOf(tok.Start), EndPos: posOf(tok.End)},
			Text:      tok.Value,
			IsNewline: tok.Kind == token.LINE_TERMINATOR,
		})
	}
	return out
}
