package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/gmlparse/ast"
)

func TestParseSimpleAssignment(t *testing.T) {
	prog, err := Parse("x = 1;")
	require.NoError(t, err)
	require.Len(t, prog.Body, 1)

	stmt, ok := prog.Body[0].(*ast.ExpressionStatement)
	require.True(t, ok, "expected an ExpressionStatement, got %T", prog.Body[0])

	assign, ok := stmt.Expression.(*ast.AssignmentExpression)
	require.True(t, ok, "expected an AssignmentExpression, got %T", stmt.Expression)
	require.Equal(t, "=", assign.Operator)
}

// TestParseSanitizesConditionalAssignment exercises the sanitizer +
// index-remap path end to end: the facade must rewrite `if (x = y)` into an
// equality test, but report locations and raw text as if the caller's
// original (unsanitized) source had been parsed directly.
func TestParseSanitizesConditionalAssignment(t *testing.T) {
	src := `if (x = 1) { y = "literal"; }`
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Body, 1)

	ifStmt, ok := prog.Body[0].(*ast.IfStatement)
	require.True(t, ok, "expected an IfStatement, got %T", prog.Body[0])

	bin, ok := ifStmt.Test.(*ast.BinaryExpression)
	require.True(t, ok, "expected the rewritten condition to be a BinaryExpression, got %T", ifStmt.Test)
	require.Equal(t, "==", bin.Operator)

	// The condition's reported span must still index into the ORIGINAL
	// source (length 29), never the sanitized text (length 30, one
	// inserted '=' longer).
	require.NotNil(t, bin.End())
	require.LessOrEqual(t, bin.End().Index, len(src))

	block, ok := ifStmt.Consequent.(*ast.BlockStatement)
	require.True(t, ok)
	require.Len(t, block.Body, 1)
	lit := block.Body[0].(*ast.ExpressionStatement).Expression.(*ast.AssignmentExpression).Right.(*ast.Literal)
	require.Equal(t, `"literal"`, lit.Raw)
}

// TestParseRestoresUppercaseEscapeCasing covers literal restoration on a
// source the sanitizer never touches: escape normalization lowercases \N
// before lexing, and the facade must undo that by re-slicing the literal
// from the caller's original text.
func TestParseRestoresUppercaseEscapeCasing(t *testing.T) {
	prog, err := Parse(`var s = "\N";`)
	require.NoError(t, err)
	require.Len(t, prog.Body, 1)

	decl := prog.Body[0].(*ast.VariableDeclaration)
	lit, ok := decl.Declarations[0].Init.(*ast.Literal)
	require.True(t, ok, "expected a string Literal initializer, got %T", decl.Declarations[0].Init)
	require.Equal(t, `"\N"`, lit.Raw)
}

func TestParseRestoresTemplateTextCasing(t *testing.T) {
	prog, err := Parse(`x = $"a\Tb {y} c";`)
	require.NoError(t, err)

	var texts []string
	ast.Inspect(prog, func(n ast.Node) bool {
		if txt, ok := n.(*ast.TemplateStringText); ok {
			texts = append(texts, txt.Raw)
		}
		return n != nil
	})
	require.Equal(t, []string{`a\Tb `, ` c`}, texts)
}

func TestParseWithTriviaCollectsCommentsAndWhitespace(t *testing.T) {
	src := "// leading\nx = 1; // trailing\n"
	res, err := ParseWithTrivia(src)
	require.NoError(t, err)
	require.NotEmpty(t, res.Comments)
	require.NotEmpty(t, res.Whitespaces)

	first, ok := res.Comments[0].(*ast.CommentLine)
	require.True(t, ok)
	require.True(t, first.IsTopComment)
}

func TestParseWithoutLocationsClearsEveryPosition(t *testing.T) {
	prog, err := Parse("x = 1;", WithLocations(false))
	require.NoError(t, err)
	require.Nil(t, prog.Pos())
	require.Nil(t, prog.Body[0].Pos())
}

func TestParseSimplifiedLocationsCollapseToIndex(t *testing.T) {
	progSimplified, err := Parse("x = 1;", WithSimplifiedLocations(true))
	require.NoError(t, err)
	progFull, err := Parse("x = 1;", WithSimplifiedLocations(false))
	require.NoError(t, err)

	require.True(t, progSimplified.Pos().Simplified)
	require.False(t, progFull.Pos().Simplified)
}

func TestParseWithStatsCountsNodesAndComments(t *testing.T) {
	res, err := ParseWithTrivia("x = 1; // note\ny = 2;", WithStats(true))
	require.NoError(t, err)
	require.NotNil(t, res.Stats)
	require.Equal(t, 1, res.Stats.CommentCount)
	require.Greater(t, res.Stats.NodeCount, 0)
	require.Greater(t, res.Stats.MaxDepth, 0)
}

func TestParseIdentifierMetadataRoundTrip(t *testing.T) {
	prog, err := Parse("var x = 1; x += 2;", WithIdentifierMetadata(true))
	require.NoError(t, err)

	var roles []string
	ast.Inspect(prog, func(n ast.Node) bool {
		if id, ok := n.(*ast.Identifier); ok {
			roles = append(roles, string(id.Role))
		}
		return n != nil
	})

	want := []string{"declaration", "assignment"}
	if diff := cmp.Diff(want, roles); diff != "" {
		t.Fatalf("unexpected identifier roles (-want +got):\n%s", diff)
	}
}

// TestParseFileLabelsDiagnostics pins ParseFile's one behavioral addition
// over Parse: the source name rides on the structured error and prefixes
// its rendered message.
func TestParseFileLabelsDiagnostics(t *testing.T) {
	_, err := ParseFile("bad.gml", []byte("if (x"))
	require.Error(t, err)

	var synErr *SyntaxError
	require.ErrorAs(t, err, &synErr)
	require.Equal(t, "bad.gml", synErr.Source)
	require.True(t, strings.HasPrefix(synErr.Error(), "bad.gml: Syntax Error (line 1, column "), "got %q", synErr.Error())
}

func TestParseFileMatchesParse(t *testing.T) {
	src := "x = 1;"
	fromFile, err := ParseFile("scratch.gml", []byte(src))
	require.NoError(t, err)
	fromString, err := Parse(src)
	require.NoError(t, err)

	if diff := cmp.Diff(fromString, fromFile); diff != "" {
		t.Fatalf("ParseFile diverged from Parse (-want +got):\n%s", diff)
	}
}

// TestParseMacroDeclaration pins the #macro shape: the name is a full
// Identifier node covering exactly the name's own source bytes, stamped
// global, with the replacement text carried verbatim.
func TestParseMacroDeclaration(t *testing.T) {
	src := "#macro PI 3.14"
	prog, err := Parse(src, WithSimplifiedLocations(false))
	require.NoError(t, err)
	require.Len(t, prog.Body, 1)

	macro, ok := prog.Body[0].(*ast.MacroDeclaration)
	require.True(t, ok, "expected a MacroDeclaration, got %T", prog.Body[0])
	require.Equal(t, "PI", macro.Name.Name)
	require.Equal(t, "3.14", macro.Tokens)
	require.True(t, macro.Name.IsGlobalIdentifier)
	require.Equal(t, "PI", src[macro.Name.Pos().Index:macro.Name.End().Index+1])
}

// TestParseGlobalVarMarksLaterReferences covers the global registry under
// the DEFAULT option set (identifier metadata off): a name declared via
// globalvar must stamp isGlobalIdentifier on every later reference.
func TestParseGlobalVarMarksLaterReferences(t *testing.T) {
	prog, err := Parse("globalvar g1, g2; function f() { return g1; }")
	require.NoError(t, err)
	require.Len(t, prog.Body, 2)

	gv, ok := prog.Body[0].(*ast.GlobalVarStatement)
	require.True(t, ok)
	require.Equal(t, "globalvar", gv.Kind_)
	require.Len(t, gv.Names, 2)
	for _, name := range gv.Names {
		require.True(t, name.IsGlobalIdentifier, "declarator %s must be marked global", name.Name)
	}

	var ref *ast.Identifier
	ast.Inspect(prog.Body[1], func(n ast.Node) bool {
		if id, ok := n.(*ast.Identifier); ok && id.Name == "g1" {
			ref = id
		}
		return n != nil
	})
	require.NotNil(t, ref, "expected a g1 reference inside f")
	require.True(t, ref.IsGlobalIdentifier)
}

// TestParseParamListMissingOptionalArguments covers leading, embedded, and
// trailing comma elision in a parameter list: each skipped slot becomes a
// MissingOptionalArgument at the comma that implied it.
func TestParseParamListMissingOptionalArguments(t *testing.T) {
	prog, err := Parse("function M(,a,,b,){}")
	require.NoError(t, err)
	require.Len(t, prog.Body, 1)

	fn, ok := prog.Body[0].(*ast.FunctionDeclaration)
	require.True(t, ok, "expected a FunctionDeclaration, got %T", prog.Body[0])
	require.True(t, fn.HasTrailingComma)
	require.Len(t, fn.Params, 5)

	for _, i := range []int{0, 2, 4} {
		_, ok := fn.Params[i].(*ast.MissingOptionalArgument)
		require.True(t, ok, "param %d: expected MissingOptionalArgument, got %T", i, fn.Params[i])
	}
	for i, name := range map[int]string{1: "a", 3: "b"} {
		id, ok := fn.Params[i].(*ast.Identifier)
		require.True(t, ok, "param %d: expected Identifier, got %T", i, fn.Params[i])
		require.Equal(t, name, id.Name)
	}
}

// TestParseMemberIndexAccessors pins the accessor field to the literal
// source text, bracket included, for plain indexing and every ds accessor
// prefix.
func TestParseMemberIndexAccessors(t *testing.T) {
	prog, err := Parse("a[0]; g[# 1, 2]; l[| 0]; m[? k]; s[$ k]; arr[@ 0];")
	require.NoError(t, err)

	want := []string{"[", "[#", "[|", "[?", "[$", "[@"}
	require.Len(t, prog.Body, len(want))
	for i, stmt := range prog.Body {
		es, ok := stmt.(*ast.ExpressionStatement)
		require.True(t, ok, "statement %d: got %T", i, stmt)
		idx, ok := es.Expression.(*ast.MemberIndexExpression)
		require.True(t, ok, "statement %d: got %T", i, es.Expression)
		require.Equal(t, want[i], idx.Accessor, "statement %d", i)
	}
}

func TestParseRejectsInvalidUTF8(t *testing.T) {
	_, err := Parse("x = \xff\xfe;")
	require.Error(t, err)
	var invalid *InvalidArgument
	require.ErrorAs(t, err, &invalid)
}

func TestParseSurfacesLexerErrorForIllegalToken(t *testing.T) {
	_, err := Parse("x = 1 § y;")
	require.Error(t, err)
	var lexErr *LexerError
	require.ErrorAs(t, err, &lexErr)
}

// TestParseRejectsIncDecOnNonLValue exercises spec §4.8's
// lValueExpression-inside-incDecStatement message: ++/-- at statement
// position must target a variable-addressing expression.
func TestParseRejectsIncDecOnNonLValue(t *testing.T) {
	_, err := Parse("++1;")
	require.Error(t, err)
	var synErr *SyntaxError
	require.ErrorAs(t, err, &synErr)
	require.Equal(t, "++, -- can only be used on a variable-addressing expression", synErr.Message)
	require.Equal(t, "lValueExpression", synErr.Rule)
}

// TestParseAllowsIncDecOnLValue is the positive counterpart: ++/-- on an
// identifier or member expression at statement position is ordinary and
// must not raise.
func TestParseAllowsIncDecOnLValue(t *testing.T) {
	prog, err := Parse("x++; y.z--; a[0]++;")
	require.NoError(t, err)
	require.Len(t, prog.Body, 3)
	for _, stmt := range prog.Body {
		_, ok := stmt.(*ast.IncDecStatement)
		require.True(t, ok, "expected IncDecStatement, got %T", stmt)
	}
}
