// Package rowexec implements the rowsource execution pipeline (spec.md
// §4.4): one Go type per operator, all sharing the RowSource pull
// contract. Grounded on the teacher's sql/rowexec package, which gives
// exactly this treatment to sql.Node -> sql.RowIter lowering; here the
// unit is plan.GraphPattern -> RowSource instead, but the "handler
// struct with function pointers" redesign note (spec.md §9) is honored
// the same way: an interface with one implementation per operator
// family, not a hierarchy.
package rowexec

import (
	"io"

	"github.com/rdfkit/sparqlengine/sparql"
)

// RowSource is the uniform streaming operator contract of spec.md §4.4.
type RowSource interface {
	// EnsureVariables populates the rowsource's declared variable list
	// and column count. Idempotent; callable any number of times before
	// the first Next.
	EnsureVariables() error
	// Variables returns the declared variable list in column order;
	// only valid after EnsureVariables.
	Variables() []*sparql.Variable
	// Init prepares the rowsource to stream rows; callable once before
	// the first Next (or after Reset).
	Init(ctx *sparql.Context) error
	// Next returns the next row, or io.EOF at end of stream.
	Next(ctx *sparql.Context) (sparql.Row, error)
	// Reset rewinds the rowsource to just after Init.
	Reset(ctx *sparql.Context) error
	// SetOrigin propagates a named-graph binding down the tree; a
	// no-op on operators that don't query triples directly.
	SetOrigin(origin sparql.Term)
	// Inner returns the i'th child rowsource, or nil if out of range.
	Inner(i int) RowSource
	// Close releases resources; safe to call multiple times.
	Close(ctx *sparql.Context) error
}

// varList is the small bookkeeping helper every operator uses to
// resolve a global variable offset to a local row column.
type varList struct {
	vars  []*sparql.Variable
	index map[int]int // global offset -> local column index
}

func newVarList(vars []*sparql.Variable) *varList {
	vl := &varList{vars: vars, index: make(map[int]int, len(vars))}
	for i, v := range vars {
		vl.index[v.Offset] = i
	}
	return vl
}

func (vl *varList) localIndex(offset int) (int, bool) {
	i, ok := vl.index[offset]
	return i, ok
}

func (vl *varList) width() int { return len(vl.vars) }

// mergeVars builds the union variable list for a Join/LeftJoin/Union
// (left vars first, then right-only vars appended), plus the mapping
// from right's local column index to the merged index.
func mergeVars(left, right []*sparql.Variable) (merged []*sparql.Variable, rightToMerged []int) {
	merged = append(merged, left...)
	leftIdx := make(map[*sparql.Variable]int, len(left))
	for i, v := range left {
		leftIdx[v] = i
	}
	rightToMerged = make([]int, len(right))
	for i, v := range right {
		if mi, ok := leftIdx[v]; ok {
			rightToMerged[i] = mi
			continue
		}
		rightToMerged[i] = len(merged)
		merged = append(merged, v)
	}
	return merged, rightToMerged
}

// errEOF is io.EOF, re-exported under a package-local name so every
// operator file doesn't need its own "io" import just for this one
// sentinel.
var errEOF = io.EOF
