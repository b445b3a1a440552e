package expression

import (
	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/xsd"
)

// Arithmetic implements the binary +, -, *, / operators: promotes via
// the numeric tower, fails with a TypeError-wrapped NumericError on
// division by zero, and returns a decimal for integer / integer
// (spec.md §4.2).
type Arithmetic struct {
	Op          string // "+", "-", "*", "/"
	Left, Right Expression
}

// NewArithmetic constructs a binary arithmetic node. op must be one of
// "+", "-", "*", "/".
func NewArithmetic(op string, left, right Expression) *Arithmetic {
	return &Arithmetic{Op: op, Left: left, Right: right}
}

func (a *Arithmetic) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	lv, err := numericOperand(ctx, row, a.Left)
	if err != nil {
		return nil, err
	}
	rv, err := numericOperand(ctx, row, a.Right)
	if err != nil {
		return nil, err
	}
	result, err := xsd.Arith(a.Op, lv, rv)
	if err != nil {
		return nil, sparql.ErrType.New(sparql.ErrNumeric.New(err.Error()).Error())
	}
	return literalFromNumeric(ctx, result), nil
}

func (a *Arithmetic) Children() []Expression { return []Expression{a.Left, a.Right} }
func (a *Arithmetic) WithChildren(children ...Expression) Expression {
	return &Arithmetic{Op: a.Op, Left: children[0], Right: children[1]}
}
func (a *Arithmetic) String() string { return "(" + a.Left.String() + " " + a.Op + " " + a.Right.String() + ")" }
func (a *Arithmetic) OpTag() string  { return "Arithmetic:" + a.Op }

// UnaryMinus implements unary negation.
type UnaryMinus struct {
	Operand Expression
}

func NewUnaryMinus(operand Expression) *UnaryMinus { return &UnaryMinus{Operand: operand} }

func (u *UnaryMinus) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	v, err := numericOperand(ctx, row, u.Operand)
	if err != nil {
		return nil, err
	}
	result, err := xsd.Negate(v)
	if err != nil {
		return nil, sparql.ErrType.New(sparql.ErrNumeric.New(err.Error()).Error())
	}
	return literalFromNumeric(ctx, result), nil
}
func (u *UnaryMinus) Children() []Expression { return []Expression{u.Operand} }
func (u *UnaryMinus) WithChildren(children ...Expression) Expression {
	return &UnaryMinus{Operand: children[0]}
}
func (u *UnaryMinus) String() string { return "-" + u.Operand.String() }
func (u *UnaryMinus) OpTag() string  { return "UnaryMinus" }

// numericOperand evaluates e and requires the result to be a numeric
// typed literal; an unbound value or a non-numeric term is a TypeError.
func numericOperand(ctx *Context, row sparql.Row, e Expression) (xsd.Value, error) {
	t, err := e.Eval(ctx, row)
	if err != nil {
		return xsd.Value{}, err
	}
	if t == nil {
		return xsd.Value{}, sparql.ErrType.New("unbound operand in arithmetic expression")
	}
	lit, ok := t.(sparql.Literal)
	if !ok {
		return xsd.Value{}, sparql.ErrType.New("non-literal operand in arithmetic expression")
	}
	v, ok := lit.Native()
	if !ok || !v.Kind.IsNumeric() {
		return xsd.Value{}, sparql.ErrType.New("non-numeric operand in arithmetic expression")
	}
	return v, nil
}

// literalFromNumeric renders an xsd.Value back into a typed sparql.Literal.
func literalFromNumeric(ctx *Context, v xsd.Value) sparql.Term {
	return sparql.NewTypedLiteral(xsd.Lexical(v), ctx.World.XSD(v.Kind.String()))
}
