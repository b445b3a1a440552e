package rowexec

import (
	"github.com/rdfkit/sparqlengine/sparql"
)

// TripleIter streams candidate triples for one TriplesMatch pattern.
// Implemented by sparql/dataset's in-memory store.
type TripleIter interface {
	Next(ctx *sparql.Context) (sparql.Triple, error)
	Close(ctx *sparql.Context) error
}

// TriplesSource is the dataset-facing half of the TriplesMatch
// contract (spec.md §4.9): given a pattern and an origin (nil for the
// default graph), return every triple whose bound positions match.
type TriplesSource interface {
	Match(ctx *sparql.Context, pattern sparql.TriplePattern, origin sparql.Term) (TripleIter, error)
}

// TriplesMatch is the leaf rowsource: it asks a TriplesSource for every
// triple compatible with Pattern's bound positions, then, for each one,
// builds a row binding Pattern's variable positions -- rejecting the
// triple if a variable repeated across positions (e.g. ?s :p ?s) would
// bind to two different values (spec.md §4.4.1).
type TriplesMatch struct {
	Pattern sparql.TriplePattern
	Vars    *sparql.VariablesTable
	Source  TriplesSource

	origin sparql.Term // set via SetOrigin by an enclosing Graph operator
	vl     *varList
	iter   TripleIter
}

func NewTriplesMatch(pattern sparql.TriplePattern, vars *sparql.VariablesTable, source TriplesSource) *TriplesMatch {
	return &TriplesMatch{Pattern: pattern, Vars: vars, Source: source}
}

func (m *TriplesMatch) EnsureVariables() error {
	if m.vl != nil {
		return nil
	}
	var vars []*sparql.Variable
	seen := map[int]bool{}
	add := func(t sparql.Term) {
		vr, ok := t.(sparql.VariableRef)
		if !ok || seen[vr.Offset] {
			return
		}
		seen[vr.Offset] = true
		if v := m.Vars.Get(vr.Offset); v != nil {
			vars = append(vars, v)
		}
	}
	add(m.Pattern.Subject)
	add(m.Pattern.Predicate)
	add(m.Pattern.Object)
	m.vl = newVarList(vars)
	return nil
}

func (m *TriplesMatch) Variables() []*sparql.Variable { return m.vl.vars }

func (m *TriplesMatch) effectiveOrigin() sparql.Term {
	if m.origin != nil {
		return m.origin
	}
	return m.Pattern.Origin
}

func (m *TriplesMatch) Init(ctx *sparql.Context) error {
	it, err := m.Source.Match(ctx, m.Pattern, m.effectiveOrigin())
	if err != nil {
		return err
	}
	m.iter = it
	return nil
}

func (m *TriplesMatch) Reset(ctx *sparql.Context) error {
	if m.iter != nil {
		m.iter.Close(ctx)
	}
	return m.Init(ctx)
}

func (m *TriplesMatch) Next(ctx *sparql.Context) (sparql.Row, error) {
	for {
		if ctx.Cancelled() {
			return sparql.Row{}, sparql.ErrTimeout.New()
		}
		t, err := m.iter.Next(ctx)
		if err != nil {
			return sparql.Row{}, err
		}
		row := sparql.NewRow(m.vl.width())
		if ok := m.bind(row, m.Pattern.Subject, t.Subject) &&
			m.bind(row, m.Pattern.Predicate, t.Predicate) &&
			m.bind(row, m.Pattern.Object, t.Object); ok {
			return row, nil
		}
		// A repeated variable bound to conflicting values: skip silently
		// and keep scanning, same as a failed join compatibility check.
	}
}

// bind assigns val into row at pat's variable column, returning false if
// pat is a variable already bound (by an earlier position in the same
// triple) to a different value.
func (m *TriplesMatch) bind(row sparql.Row, pat, val sparql.Term) bool {
	vr, ok := pat.(sparql.VariableRef)
	if !ok {
		return true
	}
	i, ok := m.vl.localIndex(vr.Offset)
	if !ok {
		return true
	}
	if existing := row.Values[i]; existing != nil {
		return sparql.SameTerm(existing, val)
	}
	row.Values[i] = val
	return true
}

func (m *TriplesMatch) SetOrigin(origin sparql.Term) { m.origin = origin }
func (m *TriplesMatch) Inner(i int) RowSource         { return nil }
func (m *TriplesMatch) Close(ctx *sparql.Context) error {
	if m.iter == nil {
		return nil
	}
	return m.iter.Close(ctx)
}
