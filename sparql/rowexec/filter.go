package rowexec

import (
	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/expression"
	"github.com/rdfkit/sparqlengine/sparql/xsd"
)

// evalRowBool evaluates e against row and coerces the result to the
// effective boolean value (spec.md §4.2): a TypeError (non-boolean
// literal, unbound operand, evaluation error) is reported via err, and
// callers treat it as "drop the row" per the FILTER/OPTIONAL-trailing-
// filter rule.
func evalRowBool(ectx *expression.Context, e expression.Expression, row sparql.Row, vars []*sparql.Variable) (bool, error) {
	row.BindVariables(vars)
	t, err := e.Eval(ectx, row)
	if err != nil {
		return false, err
	}
	if t == nil {
		return false, sparql.ErrType.New("unbound filter expression")
	}
	lit, ok := t.(sparql.Literal)
	if !ok {
		return false, sparql.ErrType.New("non-literal filter expression")
	}
	v, ok := lit.Native()
	if !ok || v.Kind != xsd.KindBoolean {
		return false, sparql.ErrType.New("non-boolean filter expression")
	}
	return v.Bool, nil
}

// Filter implements the FILTER operator (spec.md §4.4.5): rows whose
// predicate errors or evaluates false are dropped; no other column
// transformation happens.
type Filter struct {
	Source  RowSource
	Expr    expression.Expression
	EvalCtx *expression.Context
}

func NewFilter(source RowSource, expr expression.Expression, ectx *expression.Context) *Filter {
	return &Filter{Source: source, Expr: expr, EvalCtx: ectx}
}

func (f *Filter) EnsureVariables() error        { return f.Source.EnsureVariables() }
func (f *Filter) Variables() []*sparql.Variable { return f.Source.Variables() }
func (f *Filter) Init(ctx *sparql.Context) error  { return f.Source.Init(ctx) }
func (f *Filter) Reset(ctx *sparql.Context) error { return f.Source.Reset(ctx) }

func (f *Filter) Next(ctx *sparql.Context) (sparql.Row, error) {
	for {
		if ctx.Cancelled() {
			return sparql.Row{}, sparql.ErrTimeout.New()
		}
		row, err := f.Source.Next(ctx)
		if err != nil {
			return sparql.Row{}, err
		}
		ok, err := evalRowBool(f.EvalCtx, f.Expr, row, f.Source.Variables())
		if err != nil || !ok {
			continue
		}
		return row, nil
	}
}

func (f *Filter) SetOrigin(origin sparql.Term) { f.Source.SetOrigin(origin) }
func (f *Filter) Inner(i int) RowSource {
	if i == 0 {
		return f.Source
	}
	return nil
}
func (f *Filter) Close(ctx *sparql.Context) error { return f.Source.Close(ctx) }
