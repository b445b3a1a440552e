package expression

import "github.com/rdfkit/sparqlengine/sparql"

// If implements IF(cond, then, else): if cond errors, the whole
// expression errors; otherwise only the taken branch is evaluated
// (spec.md §4.2).
type If struct {
	Cond, Then, Else Expression
}

func NewIf(cond, then, els Expression) *If { return &If{Cond: cond, Then: then, Else: els} }

func (f *If) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	cond, err := evalBool(ctx, row, f.Cond)
	if err != nil {
		return nil, err
	}
	if cond {
		return f.Then.Eval(ctx, row)
	}
	return f.Else.Eval(ctx, row)
}
func (f *If) Children() []Expression { return []Expression{f.Cond, f.Then, f.Else} }
func (f *If) WithChildren(children ...Expression) Expression {
	return &If{Cond: children[0], Then: children[1], Else: children[2]}
}
func (f *If) String() string {
	return "IF(" + f.Cond.String() + ", " + f.Then.String() + ", " + f.Else.String() + ")"
}
func (f *If) OpTag() string { return "If" }

// Coalesce implements COALESCE(a1...an): returns the first operand that
// evaluates without error; errors only if every operand does (spec.md
// §4.2).
type Coalesce struct {
	Args []Expression
}

func NewCoalesce(args ...Expression) *Coalesce { return &Coalesce{Args: args} }

func (c *Coalesce) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	var lastErr error = sparql.ErrType.New("COALESCE with no arguments")
	for _, a := range c.Args {
		v, err := a.Eval(ctx, row)
		if err == nil && v != nil {
			return v, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = sparql.ErrType.New("unbound operand in COALESCE")
		}
	}
	return nil, lastErr
}
func (c *Coalesce) Children() []Expression { return c.Args }
func (c *Coalesce) WithChildren(children ...Expression) Expression {
	return &Coalesce{Args: children}
}
func (c *Coalesce) String() string { return "COALESCE(...)" }
func (c *Coalesce) OpTag() string  { return "Coalesce" }
