// Package ast defines the closed set of GML AST node types (spec §3.3),
// their source-location bookkeeping (spec §3.1), and a shared Walk
// primitive used by every consumer that needs to traverse the tree
// (the sanitizer's index-remap pass, literal restoration, location
// stripping/simplification, the refactor-suggestion listener, and stats).
//
// The "one Go struct per grammar production, each carrying its own
// position fields and a Kind()/Pos()/End() trio" shape is adapted from the
// teacher's core/ast.Node pattern (every production - Program,
// VariableDecl, VarGroup, ... - is its own struct implementing a shared
// Node interface with Position()/TokenRange()); GML's node set replaces the
// command-DSL's.
package ast

import "encoding/json"

// Position is a single point in (possibly sanitized) source text: Line is
// 1-indexed, Index is a 0-indexed absolute character offset, per spec §3.1.
//
// Simplified controls its own JSON rendering: when true, a Position
// marshals to a bare integer (its Index) instead of a {line,index} object,
// implementing the "simplifyLocations" facade option (spec §4.9) without
// requiring every node to carry two representations of the same value.
type Position struct {
	Line       int
	Index      int
	Simplified bool
}

// MarshalJSON implements the simplifyLocations collapse described in spec
// §3.1: "When the caller requests simplified locations, start/end collapse
// to their integer index."
func (p Position) MarshalJSON() ([]byte, error) {
	if p.Simplified {
		return json.Marshal(p.Index)
	}
	return json.Marshal(struct {
		Line  int `json:"line"`
		Index int `json:"index"`
	}{p.Line, p.Index})
}

// SetSimplified returns a copy of p with Simplified set, used when the
// facade walks a finished tree to apply the simplifyLocations option.
func (p Position) SetSimplified(v bool) Position {
	p.Simplified = v
	return p
}
