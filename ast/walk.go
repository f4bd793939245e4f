package ast

// Visitor's Visit method is invoked for each node encountered by Walk. If
// the result visitor w is not nil, Walk visits each of the children of node
// with the visitor w, followed by a call of w.Visit(nil). This mirrors
// go/ast's Visitor/Walk pair exactly; GML's closed node set (spec §3.3)
// plays the role go/ast.Node's does there.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order: it starts by calling
// v.Visit(node); node must not be nil. If the visitor w returned by
// v.Visit(node) is not nil, Walk is invoked recursively with visitor w for
// each of the non-nil children of node, followed by a call of w.Visit(nil).
func Walk(v Visitor, node Node) {
	if node == nil {
		return
	}
	v = v.Visit(node)
	if v == nil {
		return
	}

	switch n := node.(type) {
	case *Program:
		walkStmts(v, n.Body)

	case *BlockStatement:
		walkStmts(v, n.Body)

	case *IfStatement:
		Walk(v, n.Test)
		Walk(v, n.Consequent)
		if n.Alternate != nil {
			Walk(v, n.Alternate)
		}

	case *DoUntilStatement:
		Walk(v, n.Body)
		Walk(v, n.Test)

	case *WhileStatement:
		Walk(v, n.Test)
		Walk(v, n.Body)

	case *ForStatement:
		if n.Init != nil {
			Walk(v, n.Init)
		}
		if n.Test != nil {
			Walk(v, n.Test)
		}
		if n.Update != nil {
			Walk(v, n.Update)
		}
		Walk(v, n.Body)

	case *RepeatStatement:
		Walk(v, n.Count)
		Walk(v, n.Body)

	case *WithStatement:
		Walk(v, n.Object)
		Walk(v, n.Body)

	case *SwitchStatement:
		Walk(v, n.Discriminant)
		for _, c := range n.Cases {
			Walk(v, c)
		}

	case *SwitchCase:
		if n.Test != nil {
			Walk(v, n.Test)
		}
		walkStmts(v, n.Consequent)

	case *ContinueStatement, *BreakStatement, *ExitStatement,
		*EndRegionStatement, *DefineStatement,
		*RegionStatement, *MissingOptionalArgument, *Literal,
		*TemplateStringText, *CommentLine, *CommentBlock, *Whitespace:
		// leaf nodes

	case *MacroDeclaration:
		if n.Name != nil {
			Walk(v, n.Name)
		}

	case *ReturnStatement:
		if n.Argument != nil {
			Walk(v, n.Argument)
		}

	case *ThrowStatement:
		Walk(v, n.Argument)

	case *TryStatement:
		Walk(v, n.Block)
		if n.Handler != nil {
			Walk(v, n.Handler)
		}
		if n.Finalizer != nil {
			Walk(v, n.Finalizer)
		}

	case *CatchClause:
		if n.Param != nil {
			Walk(v, n.Param)
		}
		Walk(v, n.Body)

	case *Finalizer:
		Walk(v, n.Body)

	case *DeleteStatement:
		Walk(v, n.Argument)

	case *ExpressionStatement:
		Walk(v, n.Expression)

	case *IdentifierStatement:
		Walk(v, n.Name)

	case *GlobalVarStatement:
		for _, id := range n.Names {
			Walk(v, id)
		}

	case *EnumDeclaration:
		Walk(v, n.Name)
		for _, m := range n.Members {
			Walk(v, m)
		}

	case *EnumMember:
		Walk(v, n.Name)
		if n.Value != nil {
			Walk(v, n.Value)
		}

	case *VariableDeclaration:
		for _, d := range n.Declarations {
			Walk(v, d)
		}

	case *VariableDeclarator:
		Walk(v, n.Name)
		if n.Init != nil {
			Walk(v, n.Init)
		}

	case *IncDecStatement:
		Walk(v, n.Argument)

	case *AssignmentExpression:
		Walk(v, n.Left)
		Walk(v, n.Right)

	case *BinaryExpression:
		Walk(v, n.Left)
		Walk(v, n.Right)

	case *UnaryExpression:
		Walk(v, n.Argument)

	case *IncDecExpression:
		Walk(v, n.Argument)

	case *TernaryExpression:
		Walk(v, n.Test)
		Walk(v, n.Consequent)
		Walk(v, n.Alternate)

	case *CallExpression:
		Walk(v, n.Callee)
		walkExprs(v, n.Arguments)

	case *NewExpression:
		Walk(v, n.Callee)
		walkExprs(v, n.Arguments)

	case *MemberDotExpression:
		Walk(v, n.Object)
		Walk(v, n.Property)

	case *MemberIndexExpression:
		Walk(v, n.Object)
		for _, p := range n.Property {
			Walk(v, p)
		}

	case *ParenthesizedExpression:
		Walk(v, n.Expression)

	case *Identifier:
		// leaf: Declaration is a value copy, not a child node.

	case *TemplateStringExpression:
		for _, p := range n.Parts {
			Walk(v, p)
		}

	case *ArrayExpression:
		walkExprs(v, n.Elements)

	case *StructExpression:
		for _, p := range n.Properties {
			Walk(v, p)
		}

	case *Property:
		Walk(v, n.Name)
		Walk(v, n.Value)

	case *DefaultParameter:
		Walk(v, n.Left)
		Walk(v, n.Right)

	case *FunctionDeclaration:
		if n.Name != nil {
			Walk(v, n.Name)
		}
		walkExprs(v, n.Params)
		Walk(v, n.Body)

	case *ConstructorParentClause:
		Walk(v, n.Name)
		walkExprs(v, n.Arguments)

	case *ConstructorDeclaration:
		if n.Name != nil {
			Walk(v, n.Name)
		}
		walkExprs(v, n.Params)
		if n.Parent != nil {
			Walk(v, n.Parent)
		}
		Walk(v, n.Body)

	case *InheritanceClause:
		Walk(v, n.Name)
		walkExprs(v, n.Arguments)

	case *StructDeclaration:
		if n.Name != nil {
			Walk(v, n.Name)
		}
		walkExprs(v, n.Params)
		if n.Parent != nil {
			Walk(v, n.Parent)
		}
		Walk(v, n.Body)

	default:
		panic("ast.Walk: unexpected node type")
	}

	v.Visit(nil)
}

func walkStmts(v Visitor, list []Stmt) {
	for _, s := range list {
		Walk(v, s)
	}
}

func walkExprs(v Visitor, list []Expr) {
	for _, e := range list {
		Walk(v, e)
	}
}

// inspector adapts a plain func(Node) bool into a Visitor, the same trick
// go/ast.Inspect uses internally.
type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses an AST in depth-first order: it starts by calling
// fn(node); node must not be nil. If fn returns true, Inspect invokes fn
// recursively for each of the non-nil children of node, followed by a call
// of fn(nil).
func Inspect(node Node, fn func(Node) bool) {
	Walk(inspector(fn), node)
}
