package expression

import "github.com/rdfkit/sparqlengine/sparql"

// AggregateCall represents MIN/MAX/SUM/AVG/COUNT/SAMPLE/GROUP_CONCAT at
// expression-tree level (spec.md §4.2, §4.6). It is recognised by
// DetectAggregates and folded incrementally by the Aggregation
// rowsource, which never calls Eval on it directly -- Eval here exists
// only so AggregateCall satisfies Expression and can sit inside a
// projection list; calling it outside an Aggregation context is a
// programming error, not a TypeError.
type AggregateCall struct {
	Name      string // "MIN", "MAX", "SUM", "AVG", "COUNT", "SAMPLE", "GROUP_CONCAT"
	Arg       Expression // nil for COUNT(*)
	Distinct  bool
	Separator string // GROUP_CONCAT only; defaults to " "
}

func NewAggregateCall(name string, arg Expression, distinct bool, separator string) *AggregateCall {
	return &AggregateCall{Name: name, Arg: arg, Distinct: distinct, Separator: separator}
}

func (a *AggregateCall) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	return nil, sparql.ErrFatal.New("aggregate expression evaluated outside an Aggregation rowsource")
}
func (a *AggregateCall) Children() []Expression {
	if a.Arg == nil {
		return nil
	}
	return []Expression{a.Arg}
}
func (a *AggregateCall) WithChildren(children ...Expression) Expression {
	na := *a
	if len(children) > 0 {
		na.Arg = children[0]
	}
	return &na
}
func (a *AggregateCall) String() string { return a.Name + "(...)" }
func (a *AggregateCall) OpTag() string  { return "AggregateCall:" + a.Name }
func (a *AggregateCall) isAggregate()   {}

// DetectAggregates reports whether e's tree contains any AggregateCall,
// used by rowexec.Build to decide whether a projection requires an
// Aggregation rowsource even absent an explicit GROUP BY (spec.md §4.6
// "source implies one group yielding (count=0)").
func DetectAggregates(e Expression) bool {
	found := false
	Walk(e, func(n Expression) bool {
		if _, ok := n.(*AggregateCall); ok {
			found = true
		}
		return !found
	})
	return found
}

// CollectAggregates returns every AggregateCall node in e's tree, in
// visit order.
func CollectAggregates(e Expression) []*AggregateCall {
	var out []*AggregateCall
	Walk(e, func(n Expression) bool {
		if a, ok := n.(*AggregateCall); ok {
			out = append(out, a)
		}
		return true
	})
	return out
}
