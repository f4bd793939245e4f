package token

// Binding describes an operator's precedence and associativity, per spec
// §4.6's operator table. Higher Prec binds tighter.
type Binding struct {
	Prec       int
	RightAssoc bool
}

// BinaryOperators is the precedence table of spec §4.6, restricted to the
// 37 spellings that may appear as BinaryExpression.operator (the table's
// two unary rows - "++ --" and "~ !" - are prefix/postfix operators and are
// never a BinaryExpression's operator; see UnaryOperators below).
var BinaryOperators = map[string]Binding{
	// 13, left
	"*": {13, false}, "/": {13, false}, "div": {13, false}, "%": {13, false}, "mod": {13, false},

	// 12, left
	"+": {12, false}, "-": {12, false}, "<<": {12, false}, ">>": {12, false},

	// 11, left
	"&": {11, false},

	// 10, left
	"^": {10, false},

	// 9, left
	"|": {9, false},

	// 8, left
	"<": {8, false}, "<=": {8, false}, ">": {8, false}, ">=": {8, false},

	// 7, left
	"==": {7, false}, "!=": {7, false}, "<>": {7, false},

	// 6, left
	"&&": {6, false}, "and": {6, false},

	// 5, left
	"||": {5, false}, "or": {5, false},

	// 4, right
	"??": {4, true},

	// 1, right (assignment operators; the parser recognizes assignments by
	// token kind, not through this table)
	"=": {1, true}, ":=": {1, true}, "*=": {1, true}, "/=": {1, true}, "%=": {1, true},
	"+=": {1, true}, "-=": {1, true}, "<<=": {1, true}, ">>=": {1, true},
	"&=": {1, true}, "^=": {1, true}, "|=": {1, true}, "??=": {1, true},
}

// UnaryOperators is the precedence table's prefix-operator rows. ++/-- also
// appear postfix (IncDecExpression/IncDecStatement); !/~ are prefix-only.
var UnaryOperators = map[string]Binding{
	"++": {15, true}, "--": {15, true},
	"~": {14, true}, "!": {14, true},
}

// IsAssignmentOperator reports whether op is one of the precedence-1
// assignment spellings.
func IsAssignmentOperator(op string) bool {
	b, ok := BinaryOperators[op]
	return ok && b.Prec == 1
}
