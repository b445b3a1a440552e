package expression

import (
	"github.com/rdfkit/sparqlengine/sparql"
)

// TypeTest implements ISURI/ISBLANK/ISLITERAL/ISNUMERIC: inspects the
// term tag without dereferencing variables beyond one level (spec.md
// §4.2). An unbound operand is a TypeError like any other operator
// except BOUND.
type TypeTest struct {
	Kind     string // "uri", "blank", "literal", "numeric"
	Operand  Expression
}

func NewTypeTest(kind string, operand Expression) *TypeTest {
	return &TypeTest{Kind: kind, Operand: operand}
}

func (t *TypeTest) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	v, err := t.Operand.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, sparql.ErrType.New("unbound operand in type test")
	}
	var result bool
	switch t.Kind {
	case "uri":
		_, result = v.(sparql.URI)
	case "blank":
		_, result = v.(sparql.BlankNode)
	case "literal":
		_, result = v.(sparql.Literal)
	case "numeric":
		if lit, ok := v.(sparql.Literal); ok {
			nv, ok := lit.Native()
			result = ok && nv.Kind.IsNumeric()
		}
	default:
		return nil, sparql.ErrFatal.New("unknown type test " + t.Kind)
	}
	return boolLiteral(ctx, result), nil
}
func (t *TypeTest) Children() []Expression { return []Expression{t.Operand} }
func (t *TypeTest) WithChildren(children ...Expression) Expression {
	return &TypeTest{Kind: t.Kind, Operand: children[0]}
}
func (t *TypeTest) String() string { return "IS" + t.Kind + "(" + t.Operand.String() + ")" }
func (t *TypeTest) OpTag() string  { return "TypeTest:" + t.Kind }
