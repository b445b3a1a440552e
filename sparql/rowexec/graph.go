package rowexec

import "github.com/rdfkit/sparqlengine/sparql"

// NamedGraphsSource is implemented by the dataset for the variable form
// of GRAPH ?g { ... } (spec.md §4.4.7), which must enumerate every named
// graph present.
type NamedGraphsSource interface {
	NamedGraphs(ctx *sparql.Context) ([]sparql.Term, error)
}

// Graph implements GRAPH (spec.md §4.4.7). With a literal Origin, it
// simply pushes that origin down to Source via SetOrigin and passes
// rows through unchanged. With a variable Origin (Var != nil), it
// iterates every named graph in turn, running Source once per graph and
// appending the graph IRI as Var's column.
type Graph struct {
	Source  RowSource
	Origin  sparql.Term // literal form; nil when Var is used instead
	Var     *sparql.Variable
	Dataset NamedGraphsSource

	vars []*sparql.Variable

	// variable-form buffering
	rows []sparql.Row
	pos  int
}

func NewGraph(source RowSource, origin sparql.Term, v *sparql.Variable, dataset NamedGraphsSource) *Graph {
	return &Graph{Source: source, Origin: origin, Var: v, Dataset: dataset}
}

func (g *Graph) EnsureVariables() error {
	if g.vars != nil {
		return nil
	}
	if err := g.Source.EnsureVariables(); err != nil {
		return err
	}
	if g.Var == nil {
		g.vars = g.Source.Variables()
		return nil
	}
	g.vars = append(append([]*sparql.Variable{}, g.Source.Variables()...), g.Var)
	return nil
}

func (g *Graph) Variables() []*sparql.Variable { return g.vars }

func (g *Graph) Init(ctx *sparql.Context) error {
	if g.Var == nil {
		g.Source.SetOrigin(g.Origin)
		return g.Source.Init(ctx)
	}
	if err := g.Source.Init(ctx); err != nil {
		return err
	}
	return g.fill(ctx)
}

func (g *Graph) fill(ctx *sparql.Context) error {
	g.rows = nil
	g.pos = 0
	graphs, err := g.Dataset.NamedGraphs(ctx)
	if err != nil {
		return err
	}
	width := len(g.vars)
	for _, origin := range graphs {
		g.Source.SetOrigin(origin)
		if err := g.Source.Reset(ctx); err != nil {
			return err
		}
		rows, err := sparql.DrainRows(ctx, asIter{g.Source})
		if err != nil {
			return err
		}
		for _, r := range rows {
			out := sparql.NewRow(width)
			copy(out.Values, r.Values)
			out.Values[width-1] = origin
			g.rows = append(g.rows, out)
		}
	}
	return nil
}

func (g *Graph) Reset(ctx *sparql.Context) error {
	if g.Var == nil {
		return g.Source.Reset(ctx)
	}
	return g.fill(ctx)
}

func (g *Graph) Next(ctx *sparql.Context) (sparql.Row, error) {
	if ctx.Cancelled() {
		return sparql.Row{}, sparql.ErrTimeout.New()
	}
	if g.Var == nil {
		return g.Source.Next(ctx)
	}
	if g.pos >= len(g.rows) {
		return sparql.Row{}, errEOF
	}
	r := g.rows[g.pos]
	g.pos++
	return r, nil
}

func (g *Graph) SetOrigin(origin sparql.Term) {
	// A Graph node establishes its OWN origin context; an enclosing
	// Graph's SetOrigin does not reach through it.
}

func (g *Graph) Inner(i int) RowSource {
	if i == 0 {
		return g.Source
	}
	return nil
}

func (g *Graph) Close(ctx *sparql.Context) error { return g.Source.Close(ctx) }
