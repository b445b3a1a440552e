package rowexec

import (
	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/sortmap"
)

// Distinct implements DISTINCT (spec.md §4.4.9), rejecting any row
// equal (by sparql.RowsEqual, RDF literal equality per column) to one
// already emitted. Buffers lazily on first Next via sortmap.Map, the
// same container ORDER BY builds on (spec.md §4.7).
type Distinct struct {
	Source RowSource

	filled bool
	m      *sortmap.Map
	rows   []sparql.Row
	pos    int
}

func NewDistinct(source RowSource) *Distinct { return &Distinct{Source: source} }

func (d *Distinct) EnsureVariables() error        { return d.Source.EnsureVariables() }
func (d *Distinct) Variables() []*sparql.Variable { return d.Source.Variables() }
func (d *Distinct) Init(ctx *sparql.Context) error { return d.Source.Init(ctx) }

func (d *Distinct) Reset(ctx *sparql.Context) error {
	d.filled = false
	d.m = nil
	d.rows = nil
	d.pos = 0
	return d.Source.Reset(ctx)
}

func (d *Distinct) fill(ctx *sparql.Context) error {
	d.m = sortmap.New(true, nil)
	for {
		row, err := d.Source.Next(ctx)
		if err == errEOF {
			break
		}
		if err != nil {
			return err
		}
		d.m.Add(row)
	}
	d.rows = d.m.Rows()
	d.filled = true
	return nil
}

func (d *Distinct) Next(ctx *sparql.Context) (sparql.Row, error) {
	if !d.filled {
		if err := d.fill(ctx); err != nil {
			return sparql.Row{}, err
		}
	}
	if d.pos >= len(d.rows) {
		return sparql.Row{}, errEOF
	}
	r := d.rows[d.pos]
	d.pos++
	return r, nil
}

func (d *Distinct) SetOrigin(origin sparql.Term) { d.Source.SetOrigin(origin) }
func (d *Distinct) Inner(i int) RowSource {
	if i == 0 {
		return d.Source
	}
	return nil
}
func (d *Distinct) Close(ctx *sparql.Context) error { return d.Source.Close(ctx) }
