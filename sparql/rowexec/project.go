package rowexec

import "github.com/rdfkit/sparqlengine/sparql"

// Project implements the SELECT projection boundary (spec.md §4.4.8):
// narrows and reorders the inner rowsource's columns to the declared
// projection list. A projected variable the inner rowsource never
// declares is emitted unbound throughout (already pruned by
// plan.PruneUnboundProjections in the common case).
type Project struct {
	Source     RowSource
	Projection []*sparql.Variable

	fromIndex []int // per projected column, the inner column index, or -1
}

func NewProject(source RowSource, projection []*sparql.Variable) *Project {
	return &Project{Source: source, Projection: projection}
}

func (p *Project) EnsureVariables() error {
	if p.fromIndex != nil {
		return nil
	}
	if err := p.Source.EnsureVariables(); err != nil {
		return err
	}
	inner := newVarList(p.Source.Variables())
	p.fromIndex = make([]int, len(p.Projection))
	for i, v := range p.Projection {
		if idx, ok := inner.localIndex(v.Offset); ok {
			p.fromIndex[i] = idx
		} else {
			p.fromIndex[i] = -1
		}
	}
	return nil
}

func (p *Project) Variables() []*sparql.Variable  { return p.Projection }
func (p *Project) Init(ctx *sparql.Context) error  { return p.Source.Init(ctx) }
func (p *Project) Reset(ctx *sparql.Context) error { return p.Source.Reset(ctx) }

func (p *Project) Next(ctx *sparql.Context) (sparql.Row, error) {
	row, err := p.Source.Next(ctx)
	if err != nil {
		return sparql.Row{}, err
	}
	out := sparql.NewRow(len(p.Projection))
	for i, idx := range p.fromIndex {
		if idx >= 0 && idx < len(row.Values) {
			out.Values[i] = row.Values[idx]
		}
	}
	return out, nil
}

func (p *Project) SetOrigin(origin sparql.Term) { p.Source.SetOrigin(origin) }
func (p *Project) Inner(i int) RowSource {
	if i == 0 {
		return p.Source
	}
	return nil
}
func (p *Project) Close(ctx *sparql.Context) error { return p.Source.Close(ctx) }
