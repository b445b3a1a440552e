package sparql

// offsetPair records, for one shared variable, its local column index in
// rowsource A and in rowsource B. Both >= 0 means the variable is
// declared by both sides.
type offsetPair struct {
	a, b int
}

// RowCompatibilityMap precomputes, for a pair of rowsources, the shared
// variables' per-side column offsets (spec.md §4.3). Built once when a
// Join/LeftJoin is constructed, then consulted per candidate row pair.
type RowCompatibilityMap struct {
	shared []offsetPair
}

// NewRowCompatibilityMap builds the map from two declared variable
// lists. A variable present in both lists (matched by Variable pointer
// identity, since both lists are drawn from the same query-wide
// VariablesTable) becomes a shared entry.
func NewRowCompatibilityMap(left, right []*Variable) *RowCompatibilityMap {
	m := &RowCompatibilityMap{}
	rightIndex := make(map[*Variable]int, len(right))
	for i, v := range right {
		rightIndex[v] = i
	}
	for li, v := range left {
		if ri, ok := rightIndex[v]; ok {
			m.shared = append(m.shared, offsetPair{a: li, b: ri})
		}
	}
	return m
}

// Shared reports how many variables the two rowsources have in common.
func (m *RowCompatibilityMap) Shared() int { return len(m.shared) }

// Check reports whether rowA and rowB are compatible solution mappings:
// for every shared variable, either both are unbound, exactly one side
// is bound, or both are bound to sameTerm-equal values (spec.md §4.3).
// Symmetric by construction: Check(A,B,a,b) == Check(B,A,b,a) for the
// compatibility map built from swapped inputs (spec.md §8 invariant).
func (m *RowCompatibilityMap) Check(rowA, rowB Row) bool {
	for _, p := range m.shared {
		va, vb := rowA.Values[p.a], rowB.Values[p.b]
		if va == nil || vb == nil {
			continue
		}
		if !SameTerm(va, vb) {
			return false
		}
	}
	return true
}

// Merge produces the joined row: left's columns unchanged, right's
// columns placed at the global offsets given by rightGlobal (a mapping
// from right's local column index to the merged row's column index),
// widened to width columns.
func Merge(rowA, rowB Row, rightGlobal []int, width int) Row {
	out := NewRow(width)
	copy(out.Values, rowA.Values)
	for i, v := range rowB.Values {
		if v == nil {
			continue
		}
		gi := rightGlobal[i]
		if gi >= 0 && gi < width && out.Values[gi] == nil {
			out.Values[gi] = v
		}
	}
	return out
}
