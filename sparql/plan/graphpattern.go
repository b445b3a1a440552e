// Package plan implements the graph-pattern/algebra tree and its
// preparation (lowering) pipeline (spec.md §4.8). Grounded on the
// teacher's sql/plan package: one Go type describing the structured,
// user-facing pattern tree that Prepare rewrites in place into the
// executable algebra the rowexec package builds operators from --
// mirroring how the teacher's analyzer rewrites a parsed sql.Node tree
// before planbuilder/rowexec ever sees it.
//
// A single GraphPattern type models BOTH the pre-algebra structured
// pattern tree and the post-lowering algebra tree (spec.md §2 notes they
// share "the same operator set"): Prepare progressively rewrites the
// tree in place rather than translating between two parallel node
// hierarchies.
package plan

import (
	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/expression"
)

// Op tags a GraphPattern node's operator.
type Op int

const (
	OpBasic Op = iota
	OpGroup
	OpOptional
	OpUnion
	OpFilter
	OpGraph
	OpMinus
	OpService
	OpValues
	OpBind
	OpSelect // sub-SELECT, introduces a projection boundary
	OpExists
	OpNotExists
	OpEmpty
)

func (op Op) String() string {
	names := [...]string{"Basic", "Group", "Optional", "Union", "Filter", "Graph", "Minus", "Service", "Values", "Bind", "Select", "Exists", "NotExists", "Empty"}
	if int(op) < len(names) {
		return names[op]
	}
	return "Unknown"
}

// OrderCondition is one ORDER BY key: an expression plus its direction.
type OrderCondition struct {
	Expr Expr
	Desc bool
}

// Expr is a thin alias so plan.go doesn't need to repeat the expression
// package's full Expression name everywhere.
type Expr = expression.Expression

// Modifier holds the solution-sequence modifiers attached to a Select
// (spec.md §4.4.8-§4.4.11): DISTINCT, GROUP BY/HAVING, ORDER BY,
// LIMIT/OFFSET.
type Modifier struct {
	Distinct bool
	GroupBy  []Expr
	Having   Expr
	OrderBy  []OrderCondition
	Limit    *int64
	Offset   *int64
}

// ValuesTable is the in-memory bindings table a VALUES clause supplies
// (spec.md §4.4.13): the table's variable order defines the emitted
// rowsource's width.
type ValuesTable struct {
	Vars []*sparql.Variable
	Rows []sparql.Row
}

// GraphPattern is the structured pattern tree, lowered in place into the
// algebra tree consumed by rowexec.Build (spec.md §3, §4.8).
type GraphPattern struct {
	Op Op

	// OpBasic
	Triples []sparql.TriplePattern

	SubPatterns []*GraphPattern

	// OpFilter, and the trailing filter an OPTIONAL may carry
	FilterExpr Expr

	// OpGraph: Origin is either a literal sparql.URI or a sparql.VariableRef
	Origin Term

	// OpGraph (variable form) / OpBind: the variable this node introduces
	BoundVar *sparql.Variable
	BindExpr Expr

	// OpSelect: the projection boundary's exposed variable list
	Projection []*sparql.Variable
	Modifier   *Modifier

	// OpValues
	Bindings *ValuesTable

	// OpService
	ServiceEndpoint string
	Silent          bool

	StartColumn, EndColumn int
	GPIndex                int
	IsExistsPattern         bool
	ExecutionScope          *Scope
}

// Term is a narrow alias avoiding an import cycle concern spelled out:
// plan may hold either a concrete sparql.Term or a variable reference
// pre-lowering.
type Term = sparql.Term

// Walk visits every node of the tree rooted at gp, pre-order.
func Walk(gp *GraphPattern, fn func(*GraphPattern)) {
	if gp == nil {
		return
	}
	fn(gp)
	for _, c := range gp.SubPatterns {
		Walk(c, fn)
	}
}

// DeclaredVariables returns the set of variables gp's subtree binds,
// used by the algebra invariant "each node's declared variable set
// equals the union of its inputs' declared sets plus any it introduces"
// (spec.md §3). vars resolves a VariableRef's global offset back to its
// *sparql.Variable.
func DeclaredVariables(gp *GraphPattern, vars *sparql.VariablesTable) []*sparql.Variable {
	seen := map[*sparql.Variable]bool{}
	var out []*sparql.Variable
	add := func(v *sparql.Variable) {
		if v != nil && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	Walk(gp, func(n *GraphPattern) {
		for _, t := range n.Triples {
			for _, pos := range []sparql.Term{t.Subject, t.Predicate, t.Object} {
				if vr, ok := pos.(sparql.VariableRef); ok {
					add(vars.Get(vr.Offset))
				}
			}
		}
		if n.BoundVar != nil {
			add(n.BoundVar)
		}
		for _, v := range n.Projection {
			add(v)
		}
		if n.Bindings != nil {
			for _, v := range n.Bindings.Vars {
				add(v)
			}
		}
	})
	return out
}
