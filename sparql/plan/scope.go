package plan

import "github.com/rdfkit/sparqlengine/sparql"

// ScopeKind tags a Scope's role (spec.md §4.5).
type ScopeKind int

const (
	ScopeRoot ScopeKind = iota
	ScopeGroup
	ScopeSubselect
	ScopeExists
)

// Scope is the compile-time scope tree used only by preparation to
// reject an invalid BIND (SELECT * expansion does not consult it) (spec.md §9 redesign:
// "Separate into two distinct structures" -- this is structure (a); the
// runtime evaluation context chain, structure (b), is a plain row/local-
// index lookup inside expression.Context and carries no Scope pointer).
type Scope struct {
	Kind      ScopeKind
	Parent    *Scope
	LocalVars map[string]*sparql.Variable
	Children  []*Scope
}

// NewScope creates a child scope of parent.
func NewScope(kind ScopeKind, parent *Scope) *Scope {
	s := &Scope{Kind: kind, Parent: parent, LocalVars: map[string]*sparql.Variable{}}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Declare registers a variable as locally bound in this scope.
func (s *Scope) Declare(v *sparql.Variable) { s.LocalVars[v.Name] = v }

// InScope reports whether name is visible at this scope, walking
// upward through parents (spec.md §4.5 "binding uses the scope nearest
// to the evaluation point"). Every parent link is followed, including
// a Subselect scope's; Scope itself doesn't know about projections, so
// no filtering by a sub-select's Projection happens here.
func (s *Scope) InScope(name string) bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if _, ok := cur.LocalVars[name]; ok {
			return true
		}
	}
	return false
}

// Get resolves name by walking upward through parents.
func (s *Scope) Get(name string) *sparql.Variable {
	for cur := s; cur != nil; cur = cur.Parent {
		if v, ok := cur.LocalVars[name]; ok {
			return v
		}
	}
	return nil
}
