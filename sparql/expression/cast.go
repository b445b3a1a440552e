package expression

import (
	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/xsd"
)

// castKindFor maps an XSD datatype IRI local name onto the xsd.Kind
// Cast understands.
func castKindFor(datatype string) (xsd.Kind, bool) {
	switch datatype {
	case sparql.XSDBoolean:
		return xsd.KindBoolean, true
	case sparql.XSDInteger:
		return xsd.KindInteger, true
	case sparql.XSDDecimal:
		return xsd.KindDecimal, true
	case sparql.XSDFloat:
		return xsd.KindFloat, true
	case sparql.XSDDouble:
		return xsd.KindDouble, true
	case sparql.XSDDateTime:
		return xsd.KindDateTime, true
	case sparql.XSDString:
		return xsd.KindNone, true // string cast is just re-lexicalisation, handled separately
	default:
		return xsd.KindNone, false
	}
}

// Cast implements the CAST(expr AS datatype) family. Failure yields a
// TypeError rather than a thrown exception (spec.md §4.2, §7); it never
// aborts the query.
type Cast struct {
	Operand      Expression
	TargetLocal  string // XSD local name, e.g. "integer"
}

func NewCast(operand Expression, targetLocal string) *Cast {
	return &Cast{Operand: operand, TargetLocal: targetLocal}
}

func (c *Cast) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	v, err := c.Operand.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, sparql.ErrType.New("unbound operand in CAST")
	}
	lexical, err := effectiveLexical(v)
	if err != nil {
		return nil, err
	}
	kind, ok := castKindFor(c.TargetLocal)
	if !ok {
		return nil, sparql.ErrType.New("unsupported CAST target " + c.TargetLocal)
	}
	if kind == xsd.KindNone {
		return sparql.NewTypedLiteral(lexical, ctx.World.XSD(sparql.XSDString)), nil
	}
	cv, ok := xsd.Cast(lexical, kind)
	if !ok {
		return nil, sparql.ErrType.New("CAST failed for target " + c.TargetLocal)
	}
	return sparql.NewTypedLiteral(xsd.Lexical(cv), ctx.World.XSD(c.TargetLocal)), nil
}

func effectiveLexical(t sparql.Term) (string, error) {
	switch v := t.(type) {
	case sparql.Literal:
		return v.Lexical, nil
	case sparql.URI:
		return string(v), nil
	default:
		return "", sparql.ErrType.New("CAST operand must be a literal or URI")
	}
}

func (c *Cast) Children() []Expression { return []Expression{c.Operand} }
func (c *Cast) WithChildren(children ...Expression) Expression {
	return &Cast{Operand: children[0], TargetLocal: c.TargetLocal}
}
func (c *Cast) String() string { return "CAST(" + c.Operand.String() + " AS " + c.TargetLocal + ")" }
func (c *Cast) OpTag() string  { return "Cast:" + c.TargetLocal }
