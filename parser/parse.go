package parser

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/opal-lang/gmlparse/ast"
	"github.com/opal-lang/gmlparse/sanitize"
)

// escapeReplacer implements spec §4.2's source-level escape normalization:
// the facade rewrites the uppercase escape spellings GML tolerates (\B \N
// \R \T \F \V) to their lowercase form before anything else runs. A bare backslash
// has no meaning in GML outside a string literal, so this is safe to apply
// across the whole source rather than scoped to string contents.
var escapeReplacer = strings.NewReplacer(
	`\B`, `\b`, `\N`, `\n`, `\R`, `\r`, `\T`, `\t`, `\F`, `\f`, `\V`, `\v`,
)

func normalizeEscapes(src string) string {
	return escapeReplacer.Replace(src)
}

// Result is ParseWithTrivia's return value: the program plus its comment
// and raw whitespace trivia (spec §6's parse_with_trivia triple), and, when
// WithStats is set, a structural summary.
type Result struct {
	Program     *ast.Program
	Comments    []ast.Node
	Whitespaces []ast.Node
	Stats       *Stats
}

// Parse is the primary entry point (spec §6's parse): normalize escapes,
// sanitize conditional assignments, run the grammar/AST builder, then
// project every location and literal back onto the caller's original src
// and apply the requested option set.
func Parse(src string, opts ...Option) (*ast.Program, error) {
	res, err := parse("", src, opts...)
	if err != nil {
		return nil, err
	}
	return res.Program, nil
}

// ParseWithTrivia is the secondary entry point (spec §6's parse_with_trivia):
// identical to Parse, but the comment and whitespace lists are always
// populated regardless of WithComments, since a caller reaching for this
// entry point is explicitly asking for trivia.
func ParseWithTrivia(src string, opts ...Option) (*Result, error) {
	return parse("", src, append(opts, WithComments(true))...)
}

// ParseFile is the supplemented file-shaped entry point (SPEC_FULL §12): the
// same pipeline as Parse, accepting a source name carried onto any
// SyntaxError/LexerError the parse raises, and raw bytes in place of a
// string - matching go/parser.ParseFile's shape without performing any
// file I/O (the caller reads the bytes).
func ParseFile(name string, src []byte, opts ...Option) (*ast.Program, error) {
	res, err := parse(name, string(src), opts...)
	if err != nil {
		return nil, err
	}
	return res.Program, nil
}

func parse(name, src string, opts ...Option) (*Result, error) {
	if !utf8.ValidString(src) {
		return nil, newInvalidArgument("source text is not valid UTF-8")
	}
	cfg := resolveConfig(opts)

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	normalized := normalizeEscapes(src)
	sanRes := sanitize.Sanitize(normalized)
	if sanRes.InsertPositions != nil {
		logger.Debug("rewrote conditional assignments", "insertions", len(sanRes.InsertPositions))
	}

	meta := newIdentifierMetadata(cfg.getIdentifierMetadata)
	meta.logger = logger
	if cfg.createScopeTracker != nil {
		meta.external = cfg.createScopeTracker()
	}

	prog, err := parseSource(sanRes.Text, meta)
	if err != nil {
		return nil, labelError(err, name)
	}

	if sanRes.InsertPositions != nil {
		remapLocations(prog, sanRes.InsertPositions)
	}
	restoreLiterals(prog, src)

	var comments, whitespaces []ast.Node
	if cfg.getComments {
		comments = collectTrivia(sanRes.Text)
		remapTrivia(comments, sanRes.InsertPositions)
	}
	whitespaces = collectWhitespace(sanRes.Text)
	remapTrivia(whitespaces, sanRes.InsertPositions)
	prog.Comments = comments

	switch {
	case !cfg.getLocations:
		stripLocations(prog)
		stripLocationsList(comments)
		stripLocationsList(whitespaces)
	case cfg.simplifyLocations:
		simplifyLocations(prog)
		simplifyLocationsList(comments)
		simplifyLocationsList(whitespaces)
	}

	var stats *Stats
	if cfg.computeStats {
		stats = computeStats(prog, comments)
	}

	return &Result{Program: prog, Comments: comments, Whitespaces: whitespaces, Stats: stats}, nil
}

// remapNode projects n's start/end indices from sanitized-text space back
// to the original source, per spec §4.1's f(i) = i - insertions-at-or-before-i.
// Positions are held by pointer on every node (Span.StartPos/EndPos), so
// mutating the pointee here is visible to every reference to the node.
func remapNode(n ast.Node, inserts []int) {
	if p := n.Pos(); p != nil {
		p.Index = sanitize.MapIndex(inserts, p.Index)
	}
	if p := n.End(); p != nil {
		p.Index = sanitize.MapIndex(inserts, p.Index)
	}
}

func remapTrivia(list []ast.Node, inserts []int) {
	if inserts == nil {
		return
	}
	for _, n := range list {
		remapNode(n, inserts)
	}
}

// remapLocations walks the whole tree, moving every node's locations from
// sanitized-text space back to original-source space (spec §4.1's index
// remap). Only needed when the sanitizer actually inserted characters.
// A parent often shares its first/last child's Position pointer, so each
// distinct pointer is remapped exactly once.
func remapLocations(prog *ast.Program, inserts []int) {
	seen := map[*ast.Position]bool{}
	remap := func(p *ast.Position) {
		if p != nil && !seen[p] {
			seen[p] = true
			p.Index = sanitize.MapIndex(inserts, p.Index)
		}
	}
	ast.Inspect(prog, func(n ast.Node) bool {
		if n == nil {
			return false
		}
		remap(n.Pos())
		remap(n.End())
		return true
	})
}

// restoreLiterals re-slices every string literal's and template-text
// segment's raw value from the caller's ORIGINAL source. This must run on
// every parse, not only when the sanitizer fired: escape normalization
// (normalizeEscapes) lowercases `\N`-style escapes before lexing, so the
// parsed token text has lost the original casing even when no conditional
// assignment was rewritten. Safe because neither normalization nor the
// sanitizer changes the characters a string literal spans - normalization
// is length-preserving and the sanitizer never edits inside strings - so
// after the remap the node's indices address exactly the original bytes.
func restoreLiterals(prog *ast.Program, original string) {
	ast.Inspect(prog, func(n ast.Node) bool {
		if n == nil {
			return false
		}
		switch lit := n.(type) {
		case *ast.Literal:
			if lit.LiteralKind == ast.LiteralString && lit.Pos() != nil && lit.End() != nil {
				lit.Raw = sliceOriginal(original, lit.Pos(), lit.End())
			}
		case *ast.TemplateStringText:
			if lit.Pos() != nil && lit.End() != nil {
				lit.Raw = sliceOriginal(original, lit.Pos(), lit.End())
			}
		}
		return true
	})
}

func sliceOriginal(src string, start, end *ast.Position) string {
	if start == nil || end == nil {
		return ""
	}
	s, e := start.Index, end.Index+1
	if s < 0 {
		s = 0
	}
	if e > len(src) {
		e = len(src)
	}
	if e < s {
		return ""
	}
	return src[s:e]
}

func stripLocations(prog *ast.Program) {
	ast.Inspect(prog, func(n ast.Node) bool {
		if n == nil {
			return false
		}
		if ps, ok := n.(ast.PositionSetter); ok {
			ps.SetPos(nil)
			ps.SetEnd(nil)
		}
		return true
	})
}

func stripLocationsList(list []ast.Node) {
	for _, n := range list {
		if ps, ok := n.(ast.PositionSetter); ok {
			ps.SetPos(nil)
			ps.SetEnd(nil)
		}
	}
}

func simplifyLocations(prog *ast.Program) {
	ast.Inspect(prog, func(n ast.Node) bool {
		if n == nil {
			return false
		}
		if p := n.Pos(); p != nil {
			p.Simplified = true
		}
		if p := n.End(); p != nil {
			p.Simplified = true
		}
		if id, ok := n.(*ast.Identifier); ok && id.Declaration != nil {
			id.Declaration.Start.Simplified = true
			id.Declaration.End.Simplified = true
		}
		return true
	})
}

func simplifyLocationsList(list []ast.Node) {
	for _, n := range list {
		if p := n.Pos(); p != nil {
			p.Simplified = true
		}
		if p := n.End(); p != nil {
			p.Simplified = true
		}
	}
}
