package expression

import (
	"strings"

	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/xsd"
)

// Comparison implements =, !=, <, <=, >, >= (spec.md §4.2). An unbound
// operand on either side is a TypeError regardless of operator. Numeric
// operands compare via the promoted tower; string operands compare by
// codepoint order; temporal operands compare chronologically; mixed
// incomparable kinds are a TypeError. = and != additionally fall back to
// general RDF term equality (URIs, blank nodes) when neither side is a
// literal pair the above rules cover.
type Comparison struct {
	Op          string // "=", "!=", "<", "<=", ">", ">="
	Left, Right Expression
}

func NewComparison(op string, left, right Expression) *Comparison {
	return &Comparison{Op: op, Left: left, Right: right}
}

func (c *Comparison) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	lt, err := c.Left.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	rt, err := c.Right.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if lt == nil || rt == nil {
		return nil, sparql.ErrType.New("unbound operand in comparison")
	}

	cmp, ordered, err := compareTerms(lt, rt)
	if err != nil {
		return nil, err
	}
	if !ordered {
		switch c.Op {
		case "=":
			return sparql.NewTypedLiteral(boolLexical(sparql.SameTerm(lt, rt)), ctx.World.XSD(sparql.XSDBoolean)), nil
		case "!=":
			return sparql.NewTypedLiteral(boolLexical(!sparql.SameTerm(lt, rt)), ctx.World.XSD(sparql.XSDBoolean)), nil
		default:
			return nil, sparql.ErrType.New("operands are not orderable")
		}
	}

	var result bool
	switch c.Op {
	case "=":
		result = cmp == 0
	case "!=":
		result = cmp != 0
	case "<":
		result = cmp < 0
	case "<=":
		result = cmp <= 0
	case ">":
		result = cmp > 0
	case ">=":
		result = cmp >= 0
	default:
		return nil, sparql.ErrFatal.New("unknown comparison operator " + c.Op)
	}
	return sparql.NewTypedLiteral(boolLexical(result), ctx.World.XSD(sparql.XSDBoolean)), nil
}

func boolLexical(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// compareTerms returns (cmp, true, nil) when lt and rt are ordered
// comparably; (0, false, nil) when they are comparable only for
// equality (e.g. two URIs); and (0, false, err) when they cannot be
// compared at all (TypeError).
func compareTerms(lt, rt sparql.Term) (int, bool, error) {
	ll, lok := lt.(sparql.Literal)
	rl, rok := rt.(sparql.Literal)
	if !lok || !rok {
		return 0, false, nil
	}
	lv, lnum := ll.Native()
	rv, rnum := rl.Native()
	if lnum && rnum && lv.Kind.IsNumeric() && rv.Kind.IsNumeric() {
		cmp, err := xsd.Compare(lv, rv)
		if err != nil {
			return 0, false, sparql.ErrType.New(err.Error())
		}
		return cmp, true, nil
	}
	if lnum && rnum && (lv.Kind == xsd.KindDateTime || lv.Kind == xsd.KindDate) && lv.Kind == rv.Kind {
		switch {
		case lv.Time.Before(rv.Time):
			return -1, true, nil
		case lv.Time.After(rv.Time):
			return 1, true, nil
		default:
			return 0, true, nil
		}
	}
	if (lnum && !rnum) || (!lnum && rnum) {
		return 0, false, sparql.ErrType.New("incomparable literal kinds")
	}
	if !lnum && !rnum && ll.Datatype == "" && rl.Datatype == "" {
		// Plain/simple strings (and language-tagged literals sharing the
		// same language) compare by codepoint order.
		if ll.Lang != rl.Lang {
			return 0, false, nil
		}
		return strings.Compare(ll.Lexical, rl.Lexical), true, nil
	}
	return 0, false, nil
}

func (c *Comparison) Children() []Expression { return []Expression{c.Left, c.Right} }
func (c *Comparison) WithChildren(children ...Expression) Expression {
	return &Comparison{Op: c.Op, Left: children[0], Right: children[1]}
}
func (c *Comparison) String() string {
	return "(" + c.Left.String() + " " + c.Op + " " + c.Right.String() + ")"
}
func (c *Comparison) OpTag() string { return "Comparison:" + c.Op }
