package rowexec

import "github.com/rdfkit/sparqlengine/sparql"
import "github.com/rdfkit/sparqlengine/sparql/expression"

// Bind implements BIND (spec.md §4.4.6): every row is passed through
// widened by one column; a bind expression error or unbound result
// leaves that column unbound rather than dropping the row.
type Bind struct {
	Source  RowSource
	Var     *sparql.Variable
	Expr    expression.Expression
	EvalCtx *expression.Context

	vars []*sparql.Variable
}

func NewBind(source RowSource, v *sparql.Variable, expr expression.Expression, ectx *expression.Context) *Bind {
	return &Bind{Source: source, Var: v, Expr: expr, EvalCtx: ectx}
}

func (b *Bind) EnsureVariables() error {
	if b.vars != nil {
		return nil
	}
	if err := b.Source.EnsureVariables(); err != nil {
		return err
	}
	b.vars = append(append([]*sparql.Variable{}, b.Source.Variables()...), b.Var)
	return nil
}

func (b *Bind) Variables() []*sparql.Variable  { return b.vars }
func (b *Bind) Init(ctx *sparql.Context) error  { return b.Source.Init(ctx) }
func (b *Bind) Reset(ctx *sparql.Context) error { return b.Source.Reset(ctx) }

func (b *Bind) Next(ctx *sparql.Context) (sparql.Row, error) {
	row, err := b.Source.Next(ctx)
	if err != nil {
		return sparql.Row{}, err
	}
	out := sparql.NewRow(len(b.vars))
	copy(out.Values, row.Values)
	row.BindVariables(b.Source.Variables())
	v, err := b.Expr.Eval(b.EvalCtx, row)
	if err == nil {
		out.Values[len(b.vars)-1] = v
	}
	return out, nil
}

func (b *Bind) SetOrigin(origin sparql.Term) { b.Source.SetOrigin(origin) }
func (b *Bind) Inner(i int) RowSource {
	if i == 0 {
		return b.Source
	}
	return nil
}
func (b *Bind) Close(ctx *sparql.Context) error { return b.Source.Close(ctx) }
