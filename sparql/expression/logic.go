package expression

import (
	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/xsd"
)

// evalBool evaluates e and coerces the result to a Go bool via the
// effective boolean value rules (xsd:boolean literal directly; any
// other literal is a TypeError; unbound is a TypeError). The returned
// error, when non-nil, IS the TypeError for Kleene-logic purposes.
func evalBool(ctx *Context, row sparql.Row, e Expression) (bool, error) {
	t, err := e.Eval(ctx, row)
	if err != nil {
		return false, err
	}
	if t == nil {
		return false, sparql.ErrType.New("unbound operand in boolean expression")
	}
	lit, ok := t.(sparql.Literal)
	if !ok {
		return false, sparql.ErrType.New("non-literal operand in boolean expression")
	}
	v, ok := lit.Native()
	if !ok || v.Kind != xsd.KindBoolean {
		return false, sparql.ErrType.New("non-boolean operand in boolean expression")
	}
	return v.Bool, nil
}

func boolLiteral(ctx *Context, b bool) sparql.Term {
	return sparql.NewTypedLiteral(boolLexical(b), ctx.World.XSD(sparql.XSDBoolean))
}

// And implements && with Kleene three-valued logic: false && error =
// false; otherwise an error on either side propagates (spec.md §4.2).
type And struct{ Left, Right Expression }

func NewAnd(left, right Expression) *And { return &And{Left: left, Right: right} }

func (a *And) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	lv, lerr := evalBool(ctx, row, a.Left)
	rv, rerr := evalBool(ctx, row, a.Right)
	if lerr == nil && !lv {
		return boolLiteral(ctx, false), nil
	}
	if rerr == nil && !rv {
		return boolLiteral(ctx, false), nil
	}
	if lerr != nil {
		return nil, lerr
	}
	if rerr != nil {
		return nil, rerr
	}
	return boolLiteral(ctx, true), nil
}
func (a *And) Children() []Expression { return []Expression{a.Left, a.Right} }
func (a *And) WithChildren(children ...Expression) Expression {
	return &And{Left: children[0], Right: children[1]}
}
func (a *And) String() string { return "(" + a.Left.String() + " && " + a.Right.String() + ")" }
func (a *And) OpTag() string  { return "And" }

// Or implements || with Kleene three-valued logic: true || error = true;
// otherwise an error on either side propagates (spec.md §4.2).
type Or struct{ Left, Right Expression }

func NewOr(left, right Expression) *Or { return &Or{Left: left, Right: right} }

func (o *Or) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	lv, lerr := evalBool(ctx, row, o.Left)
	rv, rerr := evalBool(ctx, row, o.Right)
	if lerr == nil && lv {
		return boolLiteral(ctx, true), nil
	}
	if rerr == nil && rv {
		return boolLiteral(ctx, true), nil
	}
	if lerr != nil {
		return nil, lerr
	}
	if rerr != nil {
		return nil, rerr
	}
	return boolLiteral(ctx, false), nil
}
func (o *Or) Children() []Expression { return []Expression{o.Left, o.Right} }
func (o *Or) WithChildren(children ...Expression) Expression {
	return &Or{Left: children[0], Right: children[1]}
}
func (o *Or) String() string { return "(" + o.Left.String() + " || " + o.Right.String() + ")" }
func (o *Or) OpTag() string  { return "Or" }

// Not implements unary !.
type Not struct{ Operand Expression }

func NewNot(operand Expression) *Not { return &Not{Operand: operand} }

func (n *Not) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	v, err := evalBool(ctx, row, n.Operand)
	if err != nil {
		return nil, err
	}
	return boolLiteral(ctx, !v), nil
}
func (n *Not) Children() []Expression { return []Expression{n.Operand} }
func (n *Not) WithChildren(children ...Expression) Expression { return &Not{Operand: children[0]} }
func (n *Not) String() string { return "!" + n.Operand.String() }
func (n *Not) OpTag() string  { return "Not" }

// Bound implements BOUND(?v), the only operator that treats an unbound
// variable as a defined "false" rather than a TypeError (spec.md §4.2,
// §8 invariant).
type Bound struct{ Var *VariableRef }

func NewBound(v *VariableRef) *Bound { return &Bound{Var: v} }

func (b *Bound) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	v, _ := b.Var.Eval(ctx, row)
	return boolLiteral(ctx, v != nil), nil
}
func (b *Bound) Children() []Expression { return []Expression{b.Var} }
func (b *Bound) WithChildren(children ...Expression) Expression {
	return &Bound{Var: children[0].(*VariableRef)}
}
func (b *Bound) String() string { return "BOUND(" + b.Var.String() + ")" }
func (b *Bound) OpTag() string  { return "Bound" }
