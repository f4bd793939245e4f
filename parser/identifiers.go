package parser

import (
	"fmt"
	"log/slog"

	"github.com/opal-lang/gmlparse/ast"
	"github.com/opal-lang/gmlparse/parser/invariant"
)

// identifierRole is the builder's internal form of spec §4.7's role shape
// ({type, kind, tags, scopeOverride}); roleTracker pushes/pops these around
// the visit of the subtree a role applies to.
type identifierRole struct {
	Type          string // "declaration" | "reference"
	Kind          string
	Tags          []string
	ScopeOverride string
}

// roleTracker is a stack of identifierRole. withRole pushes a role for the
// duration of a thunk and guarantees the pop runs even if the thunk panics
// (spec §5: "scoped acquisition... guarantee release on all exit paths").
type roleTracker struct {
	stack []identifierRole
}

func (rt *roleTracker) withRole(role identifierRole, thunk func()) {
	rt.stack = append(rt.stack, role)
	depth := len(rt.stack)
	defer func() {
		invariant.Invariant(len(rt.stack) == depth, "role stack must be popped exactly once per withRole")
		rt.stack = rt.stack[:depth-1]
	}()
	thunk()
}

func (rt *roleTracker) current() (identifierRole, bool) {
	if len(rt.stack) == 0 {
		return identifierRole{}, false
	}
	return rt.stack[len(rt.stack)-1], true
}

// cloneRole returns a value copy of the active role, or the zero role if
// none is active; used when a single grammar rule needs to apply the same
// role to more than one identifier (e.g. a multi-name globalvar statement).
func (rt *roleTracker) cloneRole() (identifierRole, bool) {
	return rt.current()
}

// scope is one node in the scope coordinator's tree (spec §4.7): its kind
// ("program", "function", "struct", "catch", "with"), a stable id, and the
// declarations recorded directly on it.
type scope struct {
	id           string
	kind         string
	declarations map[string]*ast.DeclarationRef
}

// scopeCoordinator owns the scope tree and the explicit stack of active
// scopes. The root ("program") scope is created once and never popped; it
// is where scopeOverride="global" declarations land.
type scopeCoordinator struct {
	root    *scope
	stack   []*scope
	nextID  int
}

func newScopeCoordinator() *scopeCoordinator {
	root := &scope{id: "scope-0", kind: "program", declarations: map[string]*ast.DeclarationRef{}}
	return &scopeCoordinator{root: root, stack: []*scope{root}, nextID: 1}
}

func (sc *scopeCoordinator) current() *scope {
	return sc.stack[len(sc.stack)-1]
}

// withScope pushes a new scope of the given kind for the duration of thunk,
// guaranteeing the pop on every exit path.
func (sc *scopeCoordinator) withScope(kind string, thunk func()) {
	s := &scope{id: fmt.Sprintf("scope-%d", sc.nextID), kind: kind, declarations: map[string]*ast.DeclarationRef{}}
	sc.nextID++
	sc.stack = append(sc.stack, s)
	depth := len(sc.stack)
	defer func() {
		invariant.Invariant(len(sc.stack) == depth, "scope stack must be popped exactly once per withScope")
		sc.stack = sc.stack[:depth-1]
	}()
	thunk()
}

// resolveDeclaration finds the scope chain's nearest declaration of name,
// searching from the current scope outward to root.
func (sc *scopeCoordinator) resolveDeclaration(name string) (*ast.DeclarationRef, bool) {
	for i := len(sc.stack) - 1; i >= 0; i-- {
		if d, ok := sc.stack[i].declarations[name]; ok {
			return d, true
		}
	}
	return nil, false
}

// declarationScope resolves which scope a declaration with the given
// scopeOverride should land on, per spec §4.7: "global" hoists to root; a
// literal scope id present on the stack uses that scope; otherwise the
// current scope is used.
func (sc *scopeCoordinator) declarationScope(scopeOverride string) *scope {
	if scopeOverride == "global" {
		return sc.root
	}
	if scopeOverride != "" {
		for _, s := range sc.stack {
			if s.id == scopeOverride {
				return s
			}
		}
	}
	return sc.current()
}

// globalRegistry is the set of names known to be global (spec §4.7): every
// globalvar, global.x member, and macro name is added as it's declared;
// identifierMetadata.apply stamps every subsequent reference to the same name.
type globalRegistry struct {
	names map[string]bool
}

func newGlobalRegistry() *globalRegistry {
	return &globalRegistry{names: map[string]bool{}}
}

func (g *globalRegistry) markIdentifier(name string) {
	g.names[name] = true
}

func (g *globalRegistry) isGlobal(name string) bool {
	return g.names[name]
}

// identifierMetadata bundles the three cooperating pieces of spec §4.7.
// The role tracker and scope coordinator sit behind the enabled flag
// (getIdentifierMetadata); the global registry is always active, since a
// globalvar/macro/global.x name must stamp isGlobalIdentifier on later
// references under the default option set, not only when the caller also
// asked for scope metadata.
type identifierMetadata struct {
	enabled  bool
	roles    *roleTracker
	scopes   *scopeCoordinator
	globals  *globalRegistry
	external ScopeTracker // optional caller-supplied tracker (spec §4.9 createScopeTracker); mirrors the built-in events, never replaces them
	logger   *slog.Logger
}

func newIdentifierMetadata(enabled bool) *identifierMetadata {
	m := &identifierMetadata{enabled: enabled, globals: newGlobalRegistry()}
	if enabled {
		m.roles = &roleTracker{}
		m.scopes = newScopeCoordinator()
	}
	return m
}

func (m *identifierMetadata) withRole(role identifierRole, thunk func()) {
	if !m.enabled {
		thunk()
		return
	}
	m.roles.withRole(role, thunk)
}

func (m *identifierMetadata) withScope(kind string, thunk func()) {
	if !m.enabled {
		thunk()
		return
	}
	if m.logger != nil {
		m.logger.Debug("enter scope", "kind", kind)
		defer m.logger.Debug("exit scope", "kind", kind)
	}
	if m.external != nil {
		m.external.EnterScope(kind)
		defer m.external.ExitScope()
	}
	m.scopes.withScope(kind, thunk)
}

// setRole stamps an explicit role on id, gated the same way apply's role
// assignment is: with metadata disabled the node carries no Role at all.
func (m *identifierMetadata) setRole(id *ast.Identifier, role ast.IdentifierRole) {
	if !m.enabled {
		return
	}
	id.Role = role
}

// classifications computes the union of tags spec §4.7 specifies:
// "identifier", one of "declaration"/"reference", the role's kind, and any
// role tags.
func classifications(role identifierRole) []string {
	tags := []string{"identifier", role.Type}
	if role.Kind != "" {
		tags = append(tags, role.Kind)
	}
	tags = append(tags, role.Tags...)
	return tags
}

// apply stamps id with role/scope/declaration/global metadata, invoked from
// the builder every time it constructs an *ast.Identifier. With metadata
// disabled only the global-registry stamp happens; role, scope, and
// declaration fields stay absent.
func (m *identifierMetadata) apply(id *ast.Identifier, markGlobal bool) {
	if markGlobal {
		m.globals.markIdentifier(id.Name)
	}
	if m.globals.isGlobal(id.Name) {
		id.IsGlobalIdentifier = true
	}

	if !m.enabled {
		return
	}

	role, ok := m.roles.current()
	if !ok {
		return
	}

	if m.external != nil {
		hint := IdentifierRoleHint{Type: role.Type, Kind: role.Kind, Tags: role.Tags, ScopeOverride: role.ScopeOverride}
		if role.Type == "declaration" {
			m.external.Declare(id.Name, hint)
		} else {
			m.external.Reference(id.Name)
		}
	}

	target := m.scopes.declarationScope(role.ScopeOverride)
	id.ScopeID = target.id
	id.Classifications = classifications(role)

	if role.Type == "declaration" {
		var ref ast.DeclarationRef
		if id.StartPos != nil {
			ref.Start = *id.StartPos
		}
		if id.EndPos != nil {
			ref.End = *id.EndPos
		}
		ref.ScopeID = target.id
		target.declarations[id.Name] = &ref

		if id.Role == "" {
			id.Role = ast.RoleDeclaration
		}
	} else {
		if decl, found := m.scopes.resolveDeclaration(id.Name); found {
			declCopy := *decl
			id.Declaration = &declCopy
		}
		if id.Role == "" {
			id.Role = ast.RoleReference
		}
	}
}
