package expression

import (
	"time"

	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/xsd"
)

// DateTimeAccessor implements YEAR/MONTH/DAY/HOURS/MINUTES/SECONDS/
// TIMEZONE/TZ (spec.md §4.2). SECONDS returns a decimal carrying
// fractional microseconds; the others return integers. TIMEZONE returns
// an xsd:dayTimeDuration lexical; TZ returns the textual zone.
type DateTimeAccessor struct {
	Name    string // "YEAR", "MONTH", "DAY", "HOURS", "MINUTES", "SECONDS", "TIMEZONE", "TZ"
	Operand Expression
}

func NewDateTimeAccessor(name string, operand Expression) *DateTimeAccessor {
	return &DateTimeAccessor{Name: name, Operand: operand}
}

func (d *DateTimeAccessor) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	t, err := d.Operand.Eval(ctx, row)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, sparql.ErrType.New("unbound operand in date/time accessor")
	}
	lit, ok := t.(sparql.Literal)
	if !ok {
		return nil, sparql.ErrType.New("non-literal operand in date/time accessor")
	}
	v, ok := lit.Native()
	if !ok || (v.Kind != xsd.KindDateTime && v.Kind != xsd.KindDate) {
		return nil, sparql.ErrType.New("non-temporal operand in date/time accessor")
	}
	parts, err := xsd.Accessors(v)
	if err != nil {
		return nil, sparql.ErrType.New(err.Error())
	}
	switch d.Name {
	case "YEAR":
		return intLiteral(ctx, parts.Year), nil
	case "MONTH":
		return intLiteral(ctx, parts.Month), nil
	case "DAY":
		return intLiteral(ctx, parts.Day), nil
	case "HOURS":
		return intLiteral(ctx, parts.Hours), nil
	case "MINUTES":
		return intLiteral(ctx, parts.Minutes), nil
	case "SECONDS":
		return sparql.NewTypedLiteral(xsd.CanonicalDecimal(parts.Seconds.String()), ctx.World.XSD(sparql.XSDDecimal)), nil
	case "TIMEZONE":
		if !parts.HasTimezone {
			return nil, sparql.ErrType.New("operand has no timezone")
		}
		dur := "PT0S"
		if tz := parts.TZ; len(tz) == 6 && tz[1:] != "00:00" {
			h, m := int(tz[1]-'0')*10+int(tz[2]-'0'), int(tz[4]-'0')*10+int(tz[5]-'0')
			dur = "PT"
			if tz[0] == '-' {
				dur = "-PT"
			}
			if h > 0 {
				dur += itoa(h) + "H"
			}
			if m > 0 {
				dur += itoa(m) + "M"
			}
		}
		return sparql.NewTypedLiteral(dur, ctx.World.XSD("dayTimeDuration")), nil
	case "TZ":
		if !parts.HasTimezone {
			return sparql.NewLiteral(""), nil
		}
		return sparql.NewLiteral(parts.TZ), nil
	default:
		return nil, sparql.ErrFatal.New("unknown date/time accessor " + d.Name)
	}
}

func intLiteral(ctx *Context, n int) sparql.Term {
	return sparql.NewTypedLiteral(itoa(n), ctx.World.XSD(sparql.XSDInteger))
}

func itoa(n int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func (d *DateTimeAccessor) Children() []Expression { return []Expression{d.Operand} }
func (d *DateTimeAccessor) WithChildren(children ...Expression) Expression {
	return &DateTimeAccessor{Name: d.Name, Operand: children[0]}
}
func (d *DateTimeAccessor) String() string { return d.Name + "(" + d.Operand.String() + ")" }
func (d *DateTimeAccessor) OpTag() string  { return "DateTimeAccessor:" + d.Name }

// Now implements NOW(): a value fixed for one execution and re-fixed
// per execute-init (spec.md §4.2). The fixed instant lives on Context,
// set once per execution by the engine's Query.Execute via FixNow.
type Now struct{}

func NewNow() *Now { return &Now{} }

func (n *Now) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	t := ctx.fixedNow()
	return sparql.NewTypedLiteral(t.Format(time.RFC3339Nano), ctx.World.XSD(sparql.XSDDateTime)), nil
}
func (n *Now) Children() []Expression                                 { return nil }
func (n *Now) WithChildren(children ...Expression) Expression         { return n }
func (n *Now) String() string                                         { return "NOW()" }
func (n *Now) OpTag() string                                          { return "Now" }

// Rand implements RAND(): a pseudo-random xsd:double in [0, 1).
type Rand struct{}

func NewRand() *Rand { return &Rand{} }

func (r *Rand) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	f := ctx.Rand.Float64()
	return sparql.NewTypedLiteral(xsd.Lexical(xsd.Value{Kind: xsd.KindDouble, Float64: f}), ctx.World.XSD(sparql.XSDDouble)), nil
}
func (r *Rand) Children() []Expression                         { return nil }
func (r *Rand) WithChildren(children ...Expression) Expression { return r }
func (r *Rand) String() string                                 { return "RAND()" }
func (r *Rand) OpTag() string                                  { return "Rand" }
