package parser

import "github.com/opal-lang/gmlparse/ast"

// Stats is a production-safe parse summary (SPEC_FULL §12), grounded on the
// teacher's ParseTelemetry (runtime/parser/options.go's TelemetryBasic mode:
// "parse counts only", zero overhead unless requested). GML's telemetry
// needs no phase timing since a single Parse call has nothing to phase
// apart, so Stats trades LexTime/ParseTime for the structural counts a
// formatter or linter actually wants: how big the tree is, how deep it
// nests, and how much trivia it carries.
type Stats struct {
	NodeCount       int
	NodeCountByKind map[ast.Kind]int
	CommentCount    int
	MaxDepth        int
}

// computeStats walks prog once, counting every node by kind and tracking
// the deepest point ast.Walk ever reaches.
func computeStats(prog *ast.Program, comments []ast.Node) *Stats {
	st := &Stats{NodeCountByKind: map[ast.Kind]int{}}
	depth := 0
	ast.Inspect(prog, func(n ast.Node) bool {
		if n == nil {
			depth--
			return false
		}
		depth++
		st.NodeCount++
		st.NodeCountByKind[n.Kind()]++
		if depth > st.MaxDepth {
			st.MaxDepth = depth
		}
		return true
	})
	st.CommentCount = len(comments)
	return st
}
