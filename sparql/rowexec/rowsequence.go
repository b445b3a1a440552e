package rowexec

import "github.com/rdfkit/sparqlengine/sparql"

// RowSequence is the primitive fixed-rows rowsource (spec.md §4.4.16):
// replays an owned, pre-built slice of rows over a fixed variable list.
// Used by Build for the single empty row that seeds a join chain and
// as the VALUES operator's backing store.
type RowSequence struct {
	vars []*sparql.Variable
	rows []sparql.Row
	pos  int
}

func NewRowSequence(vars []*sparql.Variable, rows []sparql.Row) *RowSequence {
	return &RowSequence{vars: vars, rows: rows}
}

func (r *RowSequence) EnsureVariables() error        { return nil }
func (r *RowSequence) Variables() []*sparql.Variable { return r.vars }
func (r *RowSequence) Init(ctx *sparql.Context) error { r.pos = 0; return nil }
func (r *RowSequence) Reset(ctx *sparql.Context) error { r.pos = 0; return nil }

func (r *RowSequence) Next(ctx *sparql.Context) (sparql.Row, error) {
	if ctx.Cancelled() {
		return sparql.Row{}, sparql.ErrTimeout.New()
	}
	if r.pos >= len(r.rows) {
		return sparql.Row{}, errEOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *RowSequence) SetOrigin(origin sparql.Term)    {}
func (r *RowSequence) Inner(i int) RowSource            { return nil }
func (r *RowSequence) Close(ctx *sparql.Context) error { return nil }

// Values implements VALUES (spec.md §4.4.13): a thin RowSequence wrapper
// over a plan.ValuesTable's fixed rows, so query preparation can build
// one without a type assertion on RowSequence.
type Values struct {
	*RowSequence
}

func NewValues(vars []*sparql.Variable, rows []sparql.Row) *Values {
	return &Values{RowSequence: NewRowSequence(vars, rows)}
}

// Empty implements the zero-row, zero-column rowsource (spec.md
// §4.4.15): used for an empty pattern node and SERVICE's SILENT fallback --
// the annihilator a Join against it yields zero rows, distinct from the
// single empty-width row a triple-less Basic pattern produces.
type Empty struct{}

func NewEmpty() *Empty { return &Empty{} }

func (e *Empty) EnsureVariables() error         { return nil }
func (e *Empty) Variables() []*sparql.Variable  { return nil }
func (e *Empty) Init(ctx *sparql.Context) error  { return nil }
func (e *Empty) Reset(ctx *sparql.Context) error { return nil }
func (e *Empty) Next(ctx *sparql.Context) (sparql.Row, error) {
	return sparql.Row{}, errEOF
}
func (e *Empty) SetOrigin(origin sparql.Term)    {}
func (e *Empty) Inner(i int) RowSource            { return nil }
func (e *Empty) Close(ctx *sparql.Context) error { return nil }
