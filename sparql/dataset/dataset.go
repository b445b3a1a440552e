// Package dataset implements the in-memory RDF triple store the engine
// queries against (spec.md §3 "dataset", §4.9): a default graph plus
// zero or more named graphs, each loaded as one shared-origin batch of
// triples (spec.md §3 lifecycle: "Origin... shared (not owned) across
// every triple loaded from one graph").
//
// Grounded on the teacher's in-memory table shape (mem/table.go's
// slice-of-rows-plus-linear-scan design, visible through sql/row_test.go
// and sql/core_test.go): no index structures, Match is a linear scan
// filtering on the pattern's bound positions. github.com/google/uuid
// mints each loaded graph an internal document id for diagnostics and
// future cache-invalidation hooks, mirroring how the teacher's driver
// package (driver/driver.go) identifies opened connections.
package dataset

import (
	"github.com/google/uuid"
	"github.com/rdfkit/sparqlengine/sparql"
)

// graphRecord holds every triple loaded into one graph across all Load
// calls, tagged with an internal id purely for diagnostics (spec.md
// never surfaces it).
type graphRecord struct {
	id      uuid.UUID
	origin  sparql.Term // nil for the default graph
	triples []sparql.Triple
}

// Dataset is the in-memory default-graph-plus-named-graphs store
// (spec.md §3). Not safe for concurrent Load while a query is reading;
// queries themselves read concurrently without locking since Match
// never mutates store state.
type Dataset struct {
	graphs []*graphRecord
	byName map[string]*graphRecord // keyed by origin.String(); the default graph is keyed by ""
}

// New returns an empty Dataset.
func New() *Dataset {
	return &Dataset{byName: make(map[string]*graphRecord)}
}

// Load adds triples as one graph batch. origin nil loads into the
// default graph (merged with any triples already loaded there); a non-
// nil origin adds to that named graph the same way, appending to any
// triples already loaded under it (nothing is replaced). Every triple in
// triples has its Origin field overwritten to origin, the shared,
// not-owned sentinel spec.md's lifecycle section describes.
func (d *Dataset) Load(origin sparql.Term, triples []sparql.Triple) {
	key := ""
	if origin != nil {
		key = origin.String()
	}
	rec, ok := d.byName[key]
	if !ok {
		rec = &graphRecord{id: uuid.New(), origin: origin}
		d.byName[key] = rec
		d.graphs = append(d.graphs, rec)
	}
	for _, t := range triples {
		t.Origin = origin
		rec.triples = append(rec.triples, t)
	}
}

// NamedGraphs returns every distinct non-default graph's origin term,
// the enumeration the variable form of GRAPH ?g { ... } needs (spec.md
// §4.4.7).
func (d *Dataset) NamedGraphs(ctx *sparql.Context) ([]sparql.Term, error) {
	var out []sparql.Term
	for _, g := range d.graphs {
		if g.origin != nil {
			out = append(out, g.origin)
		}
	}
	return out, nil
}

// Triples returns every triple in the store regardless of graph, used
// by diagnostics and by tests seeding a dataset from a fixed fixture.
func (d *Dataset) Triples() []sparql.Triple {
	var out []sparql.Triple
	for _, g := range d.graphs {
		out = append(out, g.triples...)
	}
	return out
}
