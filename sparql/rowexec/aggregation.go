package rowexec

import (
	"strings"

	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/expression"
	"github.com/rdfkit/sparqlengine/sparql/xsd"
)

// Aggregation implements GROUP BY and the implicit single-group
// aggregation a bare aggregate projection implies (spec.md §4.4.12,
// §4.6): buffers the inner stream, partitions it by GroupBy key tuple
// (insertion order, an empty GroupBy meaning exactly one group, even
// over zero rows), folds each AggregateCall incrementally per group,
// then evaluates Having against the group's key-plus-aggregate row. The
// output Projection is applied by the Project rowsource above it.
type Aggregation struct {
	Source     RowSource
	GroupBy    []expression.Expression
	Aggregates []*expression.AggregateCall
	Having     expression.Expression
	EvalCtx    *expression.Context

	// outVars is one variable per GroupBy key (the key's own variable for
	// a plain variable key, an anonymous "_group_key" variable otherwise)
	// followed by each Aggregates entry's BIND target variable;
	// buildAggregation in build.go fills it so whatever Projection/Bind
	// sits above can read these columns.
	outVars []*sparql.Variable

	rows []sparql.Row
	pos  int
}

func NewAggregation(source RowSource, groupBy []expression.Expression, aggregates []*expression.AggregateCall, having expression.Expression, ectx *expression.Context, outVars []*sparql.Variable) *Aggregation {
	return &Aggregation{Source: source, GroupBy: groupBy, Aggregates: aggregates, Having: having, EvalCtx: ectx, outVars: outVars}
}

func (a *Aggregation) EnsureVariables() error { return a.Source.EnsureVariables() }
func (a *Aggregation) Variables() []*sparql.Variable { return a.outVars }

func (a *Aggregation) Init(ctx *sparql.Context) error {
	if err := a.Source.Init(ctx); err != nil {
		return err
	}
	return a.fill(ctx)
}

type aggGroup struct {
	key   []sparql.Term
	folds []*aggFold
}

func (a *Aggregation) fill(ctx *sparql.Context) error {
	rows, err := sparql.DrainRows(ctx, asIter{a.Source})
	if err != nil {
		return err
	}

	var groups []*aggGroup
	index := map[string]int{}

	srcVars := a.Source.Variables()
	keyOf := func(row sparql.Row) ([]sparql.Term, string) {
		row.BindVariables(srcVars)
		key := make([]sparql.Term, len(a.GroupBy))
		var sb strings.Builder
		for i, ge := range a.GroupBy {
			v, err := ge.Eval(a.EvalCtx, row)
			if err != nil {
				v = nil
			}
			key[i] = v
			if v == nil {
				sb.WriteString("\x00")
			} else {
				sb.WriteString(v.String())
			}
			sb.WriteByte('\x1f')
		}
		return key, sb.String()
	}

	ensureGroup := func(row sparql.Row) *aggGroup {
		key, sig := keyOf(row)
		if gi, ok := index[sig]; ok {
			return groups[gi]
		}
		g := &aggGroup{key: key, folds: newFolds(a.Aggregates)}
		index[sig] = len(groups)
		groups = append(groups, g)
		return g
	}

	if len(rows) == 0 && len(a.GroupBy) == 0 {
		// spec.md §4.6: an empty source still yields one group (count=0)
		// when there is no explicit GROUP BY.
		groups = append(groups, &aggGroup{folds: newFolds(a.Aggregates)})
	}
	for _, row := range rows {
		g := ensureGroup(row)
		for i, agg := range a.Aggregates {
			g.folds[i].add(a.EvalCtx, agg, row)
		}
	}

	width := len(a.GroupBy) + len(a.Aggregates)
	for _, g := range groups {
		out := sparql.NewRow(width)
		copy(out.Values, g.key)
		for i, f := range g.folds {
			out.Values[len(a.GroupBy)+i] = f.result(a.EvalCtx, a.Aggregates[i])
		}
		if a.Having != nil {
			ok, err := evalRowBool(a.EvalCtx, a.Having, out, a.outVars)
			if err != nil || !ok {
				continue
			}
		}
		a.rows = append(a.rows, out)
	}
	a.pos = 0
	return nil
}

func (a *Aggregation) Reset(ctx *sparql.Context) error {
	a.rows = nil
	if err := a.Source.Reset(ctx); err != nil {
		return err
	}
	return a.fill(ctx)
}

func (a *Aggregation) Next(ctx *sparql.Context) (sparql.Row, error) {
	if ctx.Cancelled() {
		return sparql.Row{}, sparql.ErrTimeout.New()
	}
	if a.pos >= len(a.rows) {
		return sparql.Row{}, errEOF
	}
	r := a.rows[a.pos]
	a.pos++
	return r, nil
}

func (a *Aggregation) SetOrigin(origin sparql.Term) { a.Source.SetOrigin(origin) }
func (a *Aggregation) Inner(i int) RowSource {
	if i == 0 {
		return a.Source
	}
	return nil
}
func (a *Aggregation) Close(ctx *sparql.Context) error { return a.Source.Close(ctx) }

// aggFold holds one group's in-progress fold for one AggregateCall.
type aggFold struct {
	count    int64
	sum      xsd.Value
	haveSum  bool
	min, max sparql.Term
	sample   sparql.Term
	concat   []string
	seen     map[string]bool // DISTINCT dedup by argument's SameTerm representation
}

func newFolds(aggs []*expression.AggregateCall) []*aggFold {
	out := make([]*aggFold, len(aggs))
	for i, agg := range aggs {
		f := &aggFold{}
		if agg.Distinct {
			f.seen = map[string]bool{}
		}
		out[i] = f
	}
	return out
}

func (f *aggFold) add(ectx *expression.Context, agg *expression.AggregateCall, row sparql.Row) {
	var v sparql.Term
	if agg.Arg != nil {
		var err error
		v, err = agg.Arg.Eval(ectx, row)
		if err != nil {
			v = nil
		}
	}
	if agg.Name != "COUNT" && v == nil {
		return
	}
	if f.seen != nil {
		key := "\x00unbound"
		if v != nil {
			key = v.String()
		}
		if f.seen[key] {
			return
		}
		f.seen[key] = true
	}
	f.count++
	switch agg.Name {
	case "COUNT":
		// count handled via f.count above
	case "SUM", "AVG":
		lit, ok := v.(sparql.Literal)
		if !ok {
			return
		}
		nv, ok := lit.Native()
		if !ok || !nv.Kind.IsNumeric() {
			return
		}
		if !f.haveSum {
			f.sum = nv
			f.haveSum = true
			return
		}
		sum, err := xsd.Arith("+", f.sum, nv)
		if err == nil {
			f.sum = sum
		}
	case "MIN", "MAX":
		if f.min == nil && f.max == nil {
			f.min, f.max = v, v
			return
		}
		if c, ordered, err := compareForAgg(f.min, v); err == nil && ordered && c > 0 {
			f.min = v
		}
		if c, ordered, err := compareForAgg(f.max, v); err == nil && ordered && c < 0 {
			f.max = v
		}
	case "SAMPLE":
		if f.sample == nil {
			f.sample = v
		}
	case "GROUP_CONCAT":
		if v != nil {
			f.concat = append(f.concat, v.String())
		}
	}
}

// compareForAgg is the ORDER-style comparator MIN/MAX folds over,
// comparing numerically when both are numeric literals and by lexical
// form otherwise (its own rules, not sortmap's), rather than the
// stricter TypeError-raising expression comparator (spec.md §4.6: MIN/
// MAX never error mid-fold, they just skip an incomparable candidate).
func compareForAgg(a, b sparql.Term) (int, bool, error) {
	la, lok := a.(sparql.Literal)
	lb, bok := b.(sparql.Literal)
	if !lok || !bok {
		return 0, false, nil
	}
	av, anum := la.Native()
	bv, bnum := lb.Native()
	if anum && bnum && av.Kind.IsNumeric() && bv.Kind.IsNumeric() {
		c, err := xsd.Compare(av, bv)
		if err != nil {
			return 0, false, err
		}
		return c, true, nil
	}
	return strings.Compare(la.Lexical, lb.Lexical), true, nil
}

func (f *aggFold) result(ectx *expression.Context, agg *expression.AggregateCall) sparql.Term {
	switch agg.Name {
	case "COUNT":
		return sparql.NewTypedLiteral(itoaInt64(f.count), ectx.World.XSD(sparql.XSDInteger))
	case "SUM":
		if !f.haveSum {
			return sparql.NewTypedLiteral("0", ectx.World.XSD(sparql.XSDInteger))
		}
		return sumResultTerm(ectx, f.sum)
	case "AVG":
		if !f.haveSum || f.count == 0 {
			return sparql.NewTypedLiteral("0", ectx.World.XSD(sparql.XSDInteger))
		}
		avg, err := xsd.Arith("/", f.sum, xsd.Value{Kind: xsd.KindInteger, Int: f.count})
		if err != nil {
			return sparql.NewTypedLiteral("0", ectx.World.XSD(sparql.XSDInteger))
		}
		return sumResultTerm(ectx, avg)
	case "MIN":
		return f.min
	case "MAX":
		return f.max
	case "SAMPLE":
		return f.sample
	case "GROUP_CONCAT":
		sep := agg.Separator
		if sep == "" {
			sep = " "
		}
		return sparql.NewLiteral(strings.Join(f.concat, sep))
	default:
		return nil
	}
}

func sumResultTerm(ectx *expression.Context, v xsd.Value) sparql.Term {
	switch v.Kind {
	case xsd.KindInteger:
		return sparql.NewTypedLiteral(itoaInt64(v.Int), ectx.World.XSD(sparql.XSDInteger))
	case xsd.KindDecimal:
		return sparql.NewTypedLiteral(xsd.CanonicalDecimal(v.Dec.String()), ectx.World.XSD(sparql.XSDDecimal))
	case xsd.KindFloat:
		return sparql.NewTypedLiteral(xsd.Lexical(v), ectx.World.XSD(sparql.XSDFloat))
	case xsd.KindDouble:
		return sparql.NewTypedLiteral(xsd.Lexical(v), ectx.World.XSD(sparql.XSDDouble))
	default:
		return sparql.NewTypedLiteral("0", ectx.World.XSD(sparql.XSDInteger))
	}
}

func itoaInt64(n int64) string {
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
