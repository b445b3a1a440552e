// Package results implements the query-results surface and the
// SPARQL Query Results XML Format serializer (spec.md §6). Grounded on
// the teacher's sql.RowIter pull contract one more time: QueryResults
// is a thin pull-style wrapper a caller drains exactly like a rowsource,
// just without the rowsource tree's internal plumbing.
package results

import (
	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/rowexec"
)

// Kind tags which of the three SPARQL result forms a query produced
// (spec.md §6): SELECT yields Rows, ASK yields Boolean, CONSTRUCT/
// DESCRIBE yield Triples.
type Kind int

const (
	KindRows Kind = iota
	KindBoolean
	KindTriples
)

// QueryResults is the caller-facing results surface returned by query
// execution (spec.md §6): exactly one of Rows/Boolean/Triples is valid,
// selected by Kind.
type QueryResults struct {
	Kind Kind

	Vars    []*sparql.Variable // SELECT's exposed variable list, in order
	Rows    rowexec.RowSource  // valid when Kind == KindRows; already Init'd

	Boolean bool // valid when Kind == KindBoolean

	Triples []sparql.Triple // valid when Kind == KindTriples
}

// NewRowResults wraps an initialized rowsource as a SELECT result set.
func NewRowResults(vars []*sparql.Variable, rs rowexec.RowSource) *QueryResults {
	return &QueryResults{Kind: KindRows, Vars: vars, Rows: rs}
}

// NewBooleanResults wraps an ASK outcome.
func NewBooleanResults(b bool) *QueryResults {
	return &QueryResults{Kind: KindBoolean, Boolean: b}
}

// NewTripleResults wraps a CONSTRUCT/DESCRIBE triple set.
func NewTripleResults(triples []sparql.Triple) *QueryResults {
	return &QueryResults{Kind: KindTriples, Triples: triples}
}

// DrainRows reads every remaining row from a KindRows result set,
// closing the underlying rowsource once exhausted. Returns ErrFatal if
// called on a non-KindRows result.
func (r *QueryResults) DrainRows(ctx *sparql.Context) ([]sparql.Row, error) {
	if r.Kind != KindRows {
		return nil, sparql.ErrFatal.New("DrainRows called on a non-row result")
	}
	rows, err := sparql.DrainRows(ctx, rowSourceIter{r.Rows})
	closeErr := r.Rows.Close(ctx)
	if err != nil {
		return rows, err
	}
	return rows, closeErr
}

type rowSourceIter struct{ rs rowexec.RowSource }

func (it rowSourceIter) Next(ctx *sparql.Context) (sparql.Row, error) { return it.rs.Next(ctx) }
func (it rowSourceIter) Close(ctx *sparql.Context) error              { return nil }
