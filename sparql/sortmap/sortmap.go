// Package sortmap implements the generic key-indexed container behind
// DISTINCT and ORDER BY (spec.md §4.7): for DISTINCT it rejects a row
// equal to one already seen; for ORDER BY it orders rows by a sequence
// of keys then by insertion offset. Distinct applies first, then order,
// when both are requested on the same stream.
package sortmap

import (
	"sort"

	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/xsd"
)

// Comparator compares two rows for ordering purposes; 0 means equal
// order-key-wise (not necessarily row-equal).
type Comparator func(a, b sparql.Row) int

// Map accumulates rows, optionally de-duplicating and/or sorting them,
// then exposes them as an ordered sequence via Rows.
type Map struct {
	distinct bool
	cmp      Comparator

	rows []sparql.Row
}

// New builds a Map. If distinct is true, Add rejects a row exactly
// equal (by RDF literal equality per column, sparql.RowsEqual) to one
// already held. If cmp is non-nil, Rows returns a stably-sorted view;
// nil means insertion order.
func New(distinct bool, cmp Comparator) *Map {
	return &Map{distinct: distinct, cmp: cmp}
}

// Add inserts row, returning false if it was rejected as a duplicate.
func (m *Map) Add(row sparql.Row) bool {
	if m.distinct {
		for _, existing := range m.rows {
			if sparql.RowsEqual(existing, row) {
				return false
			}
		}
	}
	m.rows = append(m.rows, row)
	return true
}

// Len reports how many rows are currently held.
func (m *Map) Len() int { return len(m.rows) }

// Rows returns every held row, sorted by the comparator if one was
// given (stable: sort.SliceStable keeps rows with equal keys in the
// order Add received them, satisfying spec.md §8's OrderBy stability
// invariant; Row.Offset is not assigned here -- OrderBy sets it before
// adding), else in insertion order.
func (m *Map) Rows() []sparql.Row {
	if m.cmp == nil {
		out := make([]sparql.Row, len(m.rows))
		copy(out, m.rows)
		return out
	}
	out := make([]sparql.Row, len(m.rows))
	copy(out, m.rows)
	sort.SliceStable(out, func(i, j int) bool { return m.cmp(out[i], out[j]) < 0 })
	return out
}

// OrderByComparator builds a Comparator from a sequence of per-column
// ascending/descending order keys already evaluated into each row's
// OrderValues, with the row's original Offset as the final tie-breaker
// (spec.md §4.4.10, §4.7). A nil order-value (the evaluator's "errors
// yield null, sorted first" rule) sorts before any bound value under an
// ascending key and after every bound value under a descending one.
func OrderByComparator(descending []bool) Comparator {
	return func(a, b sparql.Row) int {
		for i := range a.OrderValues {
			av, bv := a.OrderValues[i], b.OrderValues[i]
			c := compareOrderValues(av, bv)
			if i < len(descending) && descending[i] {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		default:
			return 0
		}
	}
}

func compareOrderValues(a, b sparql.Term) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	la, lok := a.(sparql.Literal)
	lb, bok := b.(sparql.Literal)
	if lok && bok {
		av, anum := la.Native()
		bv, bnum := lb.Native()
		if anum && bnum && av.Kind.IsNumeric() && bv.Kind.IsNumeric() {
			if c, err := xsd.Compare(av, bv); err == nil {
				return c
			}
		}
		if anum && bnum && (av.Kind == xsd.KindDateTime || av.Kind == xsd.KindDate) && av.Kind == bv.Kind {
			switch {
			case av.Time.Before(bv.Time):
				return -1
			case av.Time.After(bv.Time):
				return 1
			default:
				return 0
			}
		}
	}
	return stringCompare(a.String(), b.String())
}

func stringCompare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
