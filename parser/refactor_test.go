package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRefactorFlagsNonConformingNames(t *testing.T) {
	prog, err := Parse(`
#macro myMacro 1
function DoThing() {
	var MyVar = 1;
}
`)
	require.NoError(t, err)

	suggestions := Refactor(prog)
	require.NotEmpty(t, suggestions)

	byType := map[string]RefactorSuggestion{}
	for _, s := range suggestions {
		byType[s.Type] = s
	}

	macro, ok := byType["MacroDeclaration"]
	require.True(t, ok, "expected a macro naming suggestion")
	require.Equal(t, "MY_MACRO", macro.Suggestion)

	fn, ok := byType["FunctionDeclaration"]
	require.True(t, ok, "expected a function naming suggestion")
	require.Equal(t, "do_thing", fn.Suggestion)

	v, ok := byType["VariableExpression"]
	require.True(t, ok, "expected a variable naming suggestion")
	require.Equal(t, "my_var", v.Suggestion)
}

func TestRefactorLeavesConformingNamesAlone(t *testing.T) {
	prog, err := Parse(`
#macro MY_MACRO 1
function do_thing() {
	var my_var = 1;
}
`)
	require.NoError(t, err)
	require.Empty(t, Refactor(prog))
}

func TestRefactorFlagsConstructorAsStructLiteral(t *testing.T) {
	prog, err := Parse(`function player_state() constructor {
	hp = 100;
}`)
	require.NoError(t, err)

	suggestions := Refactor(prog)
	require.Len(t, suggestions, 1)
	require.Equal(t, "StructLiteral", suggestions[0].Type)
	require.Equal(t, "player_state", suggestions[0].Original)
	require.Equal(t, "PlayerState", suggestions[0].Suggestion)
}
