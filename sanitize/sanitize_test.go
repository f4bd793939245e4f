package sanitize

import (
	"slices"
	"strings"
	"testing"
)

func TestSanitizeRewritesAssignmentInCondition(t *testing.T) {
	res := Sanitize("if (x = y) { z = 1; }")
	want := "if (x == y) { z = 1; }"
	if res.Text != want {
		t.Fatalf("got %q want %q", res.Text, want)
	}
	if len(res.InsertPositions) != 1 {
		t.Fatalf("expected exactly one insertion, got %v", res.InsertPositions)
	}
}

func TestSanitizeLeavesEqualityAlone(t *testing.T) {
	res := Sanitize("if (x == y) { z = 1; }")
	if res.Text != "if (x == y) { z = 1; }" {
		t.Fatalf("unexpected rewrite: %q", res.Text)
	}
	if res.InsertPositions != nil {
		t.Fatalf("expected no insertions, got %v", res.InsertPositions)
	}
}

func TestSanitizeIgnoresStringsAndComments(t *testing.T) {
	src := `if (x = y) { s = "a = b"; /* if (p = q) */ t = 1; }`
	res := Sanitize(src)
	if res.Text == src {
		t.Fatalf("expected the bare condition to be rewritten")
	}
	if want := `"a = b"`; !strings.Contains(res.Text, want) {
		t.Fatalf("string literal content must be preserved verbatim, got %q", res.Text)
	}
	if want := `/* if (p = q) */`; !strings.Contains(res.Text, want) {
		t.Fatalf("comment content must be preserved verbatim, got %q", res.Text)
	}
}

func TestSanitizeDoesNotTouchWalrusStyleColonAssign(t *testing.T) {
	res := Sanitize("if (x := y) {}")
	if res.Text != "if (x := y) {}" {
		t.Fatalf(": = must never be rewritten to :==, got %q", res.Text)
	}
}

func TestSanitizeEmptyInput(t *testing.T) {
	res := Sanitize("")
	if res.Text != "" || res.InsertPositions != nil {
		t.Fatalf("expected a no-op result for empty input, got %+v", res)
	}
}

func TestSanitizeNestedParens(t *testing.T) {
	res := Sanitize("if (foo(a, b) = 1) {}")
	want := "if (foo(a, b) == 1) {}"
	if res.Text != want {
		t.Fatalf("got %q want %q", res.Text, want)
	}
}

func TestMapIndexBijection(t *testing.T) {
	src := "if (x = y) { z = 1; }"
	res := Sanitize(src)
	for i, r := range res.Text {
		if slices.Contains(res.InsertPositions, i) {
			continue
		}
		orig := MapIndex(res.InsertPositions, i)
		if rune(src[orig]) != r {
			t.Fatalf("index %d: sanitized char %q does not match original char %q at mapped index %d",
				i, r, src[orig], orig)
		}
	}
}
