package sparql

// Triple is {subject, predicate, object, origin?} (spec.md §3). Origin
// identifies a named graph; a nil Origin means the default graph.
// Positions may hold Variables, URIs, blanks, or (object-position-only)
// Literals; the parser enforces the position restriction upstream, so
// the engine does not re-validate it.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
	Origin    Term // nil => default graph; shared (not owned) across every triple loaded from one graph (spec.md §3 lifecycle)
}

// TriplePattern is a Triple whose positions may additionally hold
// VariableRef terms, used both as the source-iterator request shape and
// as the TriplesMatch rowsource's pattern.
type TriplePattern = Triple

// MatchesBoundPositions reports whether t's bound (non-variable)
// positions are compatible with pattern's bound positions -- the
// contract a TriplesSource iterator must honour (spec.md §4.9).
func (pattern TriplePattern) MatchesBoundPositions(t Triple) bool {
	match := func(pat, val Term) bool {
		if _, isVar := pat.(VariableRef); isVar {
			return true
		}
		return SameTerm(pat, val)
	}
	return match(pattern.Subject, t.Subject) &&
		match(pattern.Predicate, t.Predicate) &&
		match(pattern.Object, t.Object)
}
