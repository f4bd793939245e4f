package ast

// Kind is the stable `type` wire tag of spec §3.3/§6: "The type tags ...
// are the stable wire format; downstream tools (formatters, linters) key
// off them. Addition of new fields is a minor change; removal or rename of
// a type is breaking."
type Kind string

const (
	KindProgram                  Kind = "Program"
	KindBlockStatement            Kind = "BlockStatement"
	KindIfStatement               Kind = "IfStatement"
	KindDoUntilStatement          Kind = "DoUntilStatement"
	KindWhileStatement            Kind = "WhileStatement"
	KindForStatement              Kind = "ForStatement"
	KindRepeatStatement           Kind = "RepeatStatement"
	KindWithStatement             Kind = "WithStatement"
	KindSwitchStatement           Kind = "SwitchStatement"
	KindSwitchCase                Kind = "SwitchCase"
	KindContinueStatement         Kind = "ContinueStatement"
	KindBreakStatement            Kind = "BreakStatement"
	KindExitStatement             Kind = "ExitStatement"
	KindReturnStatement           Kind = "ReturnStatement"
	KindThrowStatement            Kind = "ThrowStatement"
	KindTryStatement               Kind = "TryStatement"
	KindCatchClause                Kind = "CatchClause"
	KindFinalizer                  Kind = "Finalizer"
	KindDeleteStatement            Kind = "DeleteStatement"
	KindExpressionStatement        Kind = "ExpressionStatement"
	KindIdentifierStatement        Kind = "IdentifierStatement"
	KindMacroDeclaration           Kind = "MacroDeclaration"
	KindDefineStatement            Kind = "DefineStatement"
	KindRegionStatement            Kind = "RegionStatement"
	KindEndRegionStatement         Kind = "EndRegionStatement"
	KindGlobalVarStatement         Kind = "GlobalVarStatement"
	KindEnumDeclaration            Kind = "EnumDeclaration"
	KindEnumMember                 Kind = "EnumMember"
	KindVariableDeclaration        Kind = "VariableDeclaration"
	KindVariableDeclarator         Kind = "VariableDeclarator"
	KindIncDecStatement            Kind = "IncDecStatement"

	KindAssignmentExpression       Kind = "AssignmentExpression"
	KindBinaryExpression           Kind = "BinaryExpression"
	KindUnaryExpression            Kind = "UnaryExpression"
	KindIncDecExpression           Kind = "IncDecExpression"
	KindTernaryExpression          Kind = "TernaryExpression"
	KindCallExpression             Kind = "CallExpression"
	KindNewExpression              Kind = "NewExpression"
	KindMemberDotExpression        Kind = "MemberDotExpression"
	KindMemberIndexExpression      Kind = "MemberIndexExpression"
	KindParenthesizedExpression    Kind = "ParenthesizedExpression"
	KindIdentifier                 Kind = "Identifier"
	KindLiteral                    Kind = "Literal"
	KindTemplateStringExpression   Kind = "TemplateStringExpression"
	KindTemplateStringText         Kind = "TemplateStringText"
	KindArrayExpression            Kind = "ArrayExpression"
	KindStructExpression           Kind = "StructExpression"
	KindProperty                   Kind = "Property"
	KindFunctionDeclaration        Kind = "FunctionDeclaration"
	KindConstructorDeclaration     Kind = "ConstructorDeclaration"
	KindConstructorParentClause    Kind = "ConstructorParentClause"
	KindInheritanceClause          Kind = "InheritanceClause"
	KindStructDeclaration          Kind = "StructDeclaration"
	KindDefaultParameter           Kind = "DefaultParameter"
	KindMissingOptionalArgument    Kind = "MissingOptionalArgument"

	KindCommentLine  Kind = "CommentLine"
	KindCommentBlock Kind = "CommentBlock"
	KindWhitespace   Kind = "Whitespace"
)

// Node is implemented by every AST and trivia type. Pos/End return nil when
// the parse ran with locations disabled (spec §4.9 getLocations=false).
type Node interface {
	Kind() Kind
	Pos() *Position
	End() *Position
}

// Expr is a marker for nodes valid in expression position. It adds nothing
// over Node; it documents intent at call sites (parameter/field types that
// only accept expressions) the way the spec's grammar distinguishes
// expression from statement productions.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a marker for nodes valid in statement position.
type Stmt interface {
	Node
	stmtNode()
}
