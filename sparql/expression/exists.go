package expression

import "github.com/rdfkit/sparqlengine/sparql"

// Exists implements EXISTS / NOT EXISTS (spec.md §4.2): it builds a
// rowsource for the sub-pattern identified by SubPatternID, pre-binds
// the current row's variables into the sub-pattern's free variables,
// and reads at most one row. Because sparql.Context is an immutable
// value threaded by pointer-to-copy (WithCurrentGraph never mutates its
// receiver), the "preserve and restore the current GRAPH ?g context"
// requirement holds automatically: the callback never mutates the
// context it is handed, so this node's caller keeps using the original
// ctx.SCtx.
//
// The actual sub-rowsource construction lives in sparql/plan and
// sparql/rowexec (this package cannot import them without a cycle,
// since rowexec evaluates expressions); ctx.ExistsEvaluator is wired in
// by the query-preparation pipeline before execution.
type Exists struct {
	SubPatternID int
	Negate       bool // true for NOT EXISTS
}

func NewExists(subPatternID int, negate bool) *Exists {
	return &Exists{SubPatternID: subPatternID, Negate: negate}
}

func (e *Exists) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	if ctx.ExistsEvaluator == nil {
		return nil, sparql.ErrFatal.New("EXISTS evaluator not wired")
	}
	found, err := ctx.ExistsEvaluator(ctx.SCtx, e.SubPatternID, row)
	if err != nil {
		return nil, err
	}
	if e.Negate {
		found = !found
	}
	return boolLiteral(ctx, found), nil
}
func (e *Exists) Children() []Expression                         { return nil }
func (e *Exists) WithChildren(children ...Expression) Expression { return e }
func (e *Exists) String() string {
	if e.Negate {
		return "NOT EXISTS{...}"
	}
	return "EXISTS{...}"
}
func (e *Exists) OpTag() string { return "Exists" }
