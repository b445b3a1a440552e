package rowexec

import (
	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/expression"
	"github.com/rdfkit/sparqlengine/sparql/sortmap"
)

// OrderBy implements ORDER BY (spec.md §4.4.10, §4.7): buffers the
// entire inner stream, evaluates each ordering key per row (an
// evaluation error sorts that row's key as lowest, spec.md §4.2), then
// serves a stable sort by key sequence with original stream offset as
// the final tie-breaker.
type OrderBy struct {
	Source     RowSource
	Conditions []Expr
	Descending []bool
	EvalCtx    *expression.Context

	rows []sparql.Row
	pos  int
}

// Expr is a local alias to avoid a direct expression.Expression spelling
// in every field declaration.
type Expr = expression.Expression

func NewOrderBy(source RowSource, conditions []Expr, descending []bool, ectx *expression.Context) *OrderBy {
	return &OrderBy{Source: source, Conditions: conditions, Descending: descending, EvalCtx: ectx}
}

func (o *OrderBy) EnsureVariables() error        { return o.Source.EnsureVariables() }
func (o *OrderBy) Variables() []*sparql.Variable { return o.Source.Variables() }

func (o *OrderBy) Init(ctx *sparql.Context) error {
	if err := o.Source.Init(ctx); err != nil {
		return err
	}
	return o.fill(ctx)
}

func (o *OrderBy) fill(ctx *sparql.Context) error {
	rows, err := sparql.DrainRows(ctx, asIter{o.Source})
	if err != nil {
		return err
	}
	vars := o.Source.Variables()
	for i := range rows {
		rows[i].Offset = int64(i)
		rows[i].OrderValues = make([]sparql.Term, len(o.Conditions))
		rows[i].BindVariables(vars)
		for k, cond := range o.Conditions {
			v, err := cond.Eval(o.EvalCtx, rows[i])
			if err != nil {
				rows[i].OrderValues[k] = nil
				continue
			}
			rows[i].OrderValues[k] = v
		}
	}
	cmp := sortmap.OrderByComparator(o.Descending)
	m := sortmap.New(false, cmp)
	for _, r := range rows {
		m.Add(r)
	}
	o.rows = m.Rows()
	o.pos = 0
	return nil
}

func (o *OrderBy) Reset(ctx *sparql.Context) error {
	if err := o.Source.Reset(ctx); err != nil {
		return err
	}
	return o.fill(ctx)
}

func (o *OrderBy) Next(ctx *sparql.Context) (sparql.Row, error) {
	if ctx.Cancelled() {
		return sparql.Row{}, sparql.ErrTimeout.New()
	}
	if o.pos >= len(o.rows) {
		return sparql.Row{}, errEOF
	}
	r := o.rows[o.pos]
	o.pos++
	return r, nil
}

func (o *OrderBy) SetOrigin(origin sparql.Term) { o.Source.SetOrigin(origin) }
func (o *OrderBy) Inner(i int) RowSource {
	if i == 0 {
		return o.Source
	}
	return nil
}
func (o *OrderBy) Close(ctx *sparql.Context) error { return o.Source.Close(ctx) }
