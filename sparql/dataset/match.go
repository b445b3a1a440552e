package dataset

import (
	"io"

	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/rowexec"
)

// Match implements rowexec.TriplesSource: a linear scan over the
// requested graph (or every graph, for an origin that is a variable
// reference -- the engine passes one to match the union of all graphs
// when UnionDefaultGraph is set) filtering by MatchesBoundPositions
// (spec.md §4.9).
func (d *Dataset) Match(ctx *sparql.Context, pattern sparql.TriplePattern, origin sparql.Term) (rowexec.TripleIter, error) {
	var source []sparql.Triple
	switch o := origin.(type) {
	case nil:
		source = d.graphTriples("")
	case sparql.VariableRef:
		source = d.Triples()
	default:
		source = d.graphTriples(o.String())
	}
	return &sliceTripleIter{pattern: pattern, triples: source}, nil
}

func (d *Dataset) graphTriples(key string) []sparql.Triple {
	rec, ok := d.byName[key]
	if !ok {
		return nil
	}
	return rec.triples
}

type sliceTripleIter struct {
	pattern sparql.TriplePattern
	triples []sparql.Triple
	pos     int
}

func (it *sliceTripleIter) Next(ctx *sparql.Context) (sparql.Triple, error) {
	for {
		if ctx.Cancelled() {
			return sparql.Triple{}, sparql.ErrTimeout.New()
		}
		if it.pos >= len(it.triples) {
			return sparql.Triple{}, io.EOF
		}
		t := it.triples[it.pos]
		it.pos++
		if it.pattern.MatchesBoundPositions(t) {
			return t, nil
		}
	}
}

func (it *sliceTripleIter) Close(ctx *sparql.Context) error { return nil }
