package parser

import (
	"github.com/opal-lang/gmlparse/ast"
	"github.com/opal-lang/gmlparse/token"
)

// parentBinary is threaded down into each side of a binary expression while
// it is being built, carrying the parent operator and which side (left or
// right) the child occupies - spec §4.6's "parentBinary = {operator,
// position}" token.
type parentBinary struct {
	operator string
	position string // "left" | "right"
}

// needsParentheses implements spec §4.6's algorithm: an unknown operator on
// either side never forces parens; strictly lower child precedence always
// does; strictly higher never does; equal precedence forces parens only on
// the left child of a right-associative parent.
func needsParentheses(currentOperator string, parent parentBinary) bool {
	current, curOK := token.BinaryOperators[currentOperator]
	par, parOK := token.BinaryOperators[parent.operator]
	if !curOK || !parOK {
		return false
	}

	if current.Prec < par.Prec {
		return true
	}
	if current.Prec > par.Prec {
		return false
	}

	// Equal precedence: the parent's own associativity decides which side
	// is the "natural" one. A left-assoc parent's left child and a
	// right-assoc parent's right child are exactly what precedence
	// climbing already produces unparenthesized, so only the opposite
	// side - the left child of a right-assoc parent - ever needs parens.
	if parent.position != "left" {
		return false
	}
	return par.RightAssoc
}

// wrapIfNeeded applies the Binary-Expression Delegate's parenthesization
// rule (spec §4.6): if parent is non-nil and needsParentheses holds for the
// just-built binary's own operator, current is wrapped in a synthetic
// ParenthesizedExpression located at the node's own span.
func wrapIfNeeded(current ast.Expr, operator string, parent *parentBinary) ast.Expr {
	if parent == nil {
		return current
	}
	if !needsParentheses(operator, *parent) {
		return current
	}
	return &ast.ParenthesizedExpression{
		Span:       spanOf(current),
		Expression: current,
		Synthetic:  true,
		Position:   parent.position,
	}
}

func spanOf(n ast.Node) ast.Span {
	return ast.Span{StartPos: n.Pos(), EndPos: n.End()}
}
