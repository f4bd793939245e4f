package parser

import (
	"strings"

	"github.com/opal-lang/gmlparse/ast"
)

// RefactorSuggestion is one naming-convention nudge produced by Refactor
// (spec §6): it never mutates the tree, only reports what a renamer could
// do and where.
type RefactorSuggestion struct {
	Type       string // naming category: "MacroDeclaration", "FunctionDeclaration", "VariableExpression" or "StructLiteral"
	Original   string
	Suggestion string
	Start      *ast.Position
	End        *ast.Position
}

// Refactor walks prog and returns one suggestion per declaration whose name
// doesn't already match the convention spec §6 assigns its kind:
// SCREAMING_SNAKE_CASE for macros, snake_case for functions and plain
// variable declarators, PascalCase for struct declaration and constructor
// function names. A name already in its target convention produces no
// suggestion.
func Refactor(prog *ast.Program) []RefactorSuggestion {
	var out []RefactorSuggestion

	ast.Inspect(prog, func(n ast.Node) bool {
		if n == nil {
			return false
		}
		switch node := n.(type) {
		case *ast.MacroDeclaration:
			if node.Name != nil {
				if s := screamingSnake(node.Name.Name); s != node.Name.Name {
					out = append(out, RefactorSuggestion{
						Type: "MacroDeclaration", Original: node.Name.Name, Suggestion: s,
						Start: node.Name.Pos(), End: node.Name.End(),
					})
				}
			}
		case *ast.FunctionDeclaration:
			if node.Name != nil {
				if s := snakeCase(node.Name.Name); s != node.Name.Name {
					out = append(out, RefactorSuggestion{
						Type: "FunctionDeclaration", Original: node.Name.Name, Suggestion: s,
						Start: node.Name.Pos(), End: node.Name.End(),
					})
				}
			}
		case *ast.VariableDeclarator:
			if node.Name != nil {
				if s := snakeCase(node.Name.Name); s != node.Name.Name {
					out = append(out, RefactorSuggestion{
						Type: "VariableExpression", Original: node.Name.Name, Suggestion: s,
						Start: node.Name.Pos(), End: node.Name.End(),
					})
				}
			}
		case *ast.StructDeclaration:
			if node.Name != nil {
				if s := pascalCase(node.Name.Name); s != node.Name.Name {
					out = append(out, RefactorSuggestion{
						Type: "StructLiteral", Original: node.Name.Name, Suggestion: s,
						Start: node.Name.Pos(), End: node.Name.End(),
					})
				}
			}
		case *ast.ConstructorDeclaration:
			// GML has no bare `struct Name { ... }` production (see
			// ast.StructDeclaration's doc comment), so a named
			// `function Name() constructor {}` is the form a GML author
			// actually writes for a struct-literal-style type, and is
			// conventionally PascalCase just like StructDeclaration above.
			if node.Name != nil {
				if s := pascalCase(node.Name.Name); s != node.Name.Name {
					out = append(out, RefactorSuggestion{
						Type: "StructLiteral", Original: node.Name.Name, Suggestion: s,
						Start: node.Name.Pos(), End: node.Name.End(),
					})
				}
			}
		}
		return true
	})

	return out
}

func words(name string) []string {
	var w []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			w = append(w, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-':
			flush()
		case r >= 'A' && r <= 'Z':
			if i > 0 && !(runes[i-1] >= 'A' && runes[i-1] <= 'Z') {
				flush()
			}
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return w
}

func screamingSnake(name string) string {
	ws := words(name)
	for i, w := range ws {
		ws[i] = strings.ToUpper(w)
	}
	return strings.Join(ws, "_")
}

func snakeCase(name string) string {
	ws := words(name)
	for i, w := range ws {
		ws[i] = strings.ToLower(w)
	}
	return strings.Join(ws, "_")
}

func pascalCase(name string) string {
	ws := words(name)
	var b strings.Builder
	for _, w := range ws {
		if w == "" {
			continue
		}
		lower := strings.ToLower(w)
		b.WriteString(strings.ToUpper(lower[:1]) + lower[1:])
	}
	return b.String()
}
