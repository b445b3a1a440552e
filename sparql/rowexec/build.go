package rowexec

import (
	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/expression"
	"github.com/rdfkit/sparqlengine/sparql/plan"
)

// Env bundles the external collaborators Build needs to turn a
// plan.GraphPattern into a RowSource tree: the dataset's triple
// iterator and named-graph enumerator, an optional federation client,
// the query-wide variables table, and the expression evaluator context
// (which in turn carries the World and the EXISTS callback).
type Env struct {
	Source        TriplesSource
	NamedGraphs   NamedGraphsSource
	ServiceClient ServiceClient
	Vars          *sparql.VariablesTable
	EvalCtx       *expression.Context
}

// Build lowers a prepared plan.GraphPattern (post plan.Prepare) into its
// executable RowSource tree (spec.md §4.8 step 10, the final step of
// preparation).
func Build(gp *plan.GraphPattern, env *Env) (RowSource, error) {
	switch gp.Op {
	case plan.OpBasic:
		return buildBasic(gp, env)
	case plan.OpGroup:
		return buildGroup(gp, env)
	case plan.OpFilter:
		inner, err := Build(gp.SubPatterns[0], env)
		if err != nil {
			return nil, err
		}
		return NewFilter(inner, rebindExpr(gp.FilterExpr, inner), env.EvalCtx), nil
	case plan.OpUnion:
		return buildUnion(gp, env)
	case plan.OpGraph:
		return buildGraph(gp, env)
	case plan.OpBind:
		inner, err := Build(gp.SubPatterns[0], env)
		if err != nil {
			return nil, err
		}
		expr := rebindExpr(gp.BindExpr, inner)
		return NewBind(inner, gp.BoundVar, expr, env.EvalCtx), nil
	case plan.OpValues:
		vars := gp.Bindings.Vars
		return NewValues(vars, gp.Bindings.Rows), nil
	case plan.OpSelect:
		return buildSelect(gp, env)
	case plan.OpOptional:
		return buildUnaryAsLeftJoin(gp, env)
	case plan.OpMinus:
		return buildUnaryAsMinus(gp, env)
	case plan.OpService:
		return NewService(gp.ServiceEndpoint, gp.Silent, env.ServiceClient, plan.DeclaredVariables(gp, env.Vars)), nil
	case plan.OpEmpty:
		return NewEmpty(), nil
	case plan.OpExists, plan.OpNotExists:
		return Build(gp.SubPatterns[0], env)
	default:
		return nil, sparql.ErrFatal.New("unknown graph pattern operator")
	}
}

func buildBasic(gp *plan.GraphPattern, env *Env) (RowSource, error) {
	if len(gp.Triples) == 0 {
		return NewRowSequence(nil, []sparql.Row{sparql.NewRow(0)}), nil
	}
	var rs RowSource = NewTriplesMatch(gp.Triples[0], env.Vars, env.Source)
	for _, t := range gp.Triples[1:] {
		rs = NewJoin(rs, NewTriplesMatch(t, env.Vars, env.Source))
	}
	return rs, nil
}

// buildGroup folds a Group's children left-to-right: plain children
// join onto the running accumulator, while an OPTIONAL or MINUS child
// attaches itself to whatever was accumulated so far, per spec.md
// §4.4.3's set-difference/left-outer-join semantics being defined
// relative to "everything joined before it in the group".
func buildGroup(gp *plan.GraphPattern, env *Env) (RowSource, error) {
	var left RowSource
	for _, child := range gp.SubPatterns {
		switch child.Op {
		case plan.OpOptional:
			right, err := Build(child.SubPatterns[0], env)
			if err != nil {
				return nil, err
			}
			if left == nil {
				left = NewRowSequence(nil, []sparql.Row{sparql.NewRow(0)})
			}
			filter := rebindLeftJoinFilter(child, left, right)
			left = NewLeftJoin(left, right, filter, env.EvalCtx)
		case plan.OpMinus:
			right, err := Build(child.SubPatterns[0], env)
			if err != nil {
				return nil, err
			}
			if left == nil {
				left = NewRowSequence(nil, []sparql.Row{sparql.NewRow(0)})
			}
			left = NewMinus(left, right)
		default:
			right, err := Build(child, env)
			if err != nil {
				return nil, err
			}
			if left == nil {
				left = right
			} else {
				left = NewJoin(left, right)
			}
		}
	}
	if left == nil {
		return NewRowSequence(nil, []sparql.Row{sparql.NewRow(0)}), nil
	}
	return left, nil
}

func buildUnaryAsLeftJoin(gp *plan.GraphPattern, env *Env) (RowSource, error) {
	right, err := Build(gp.SubPatterns[0], env)
	if err != nil {
		return nil, err
	}
	left := NewRowSequence(nil, []sparql.Row{sparql.NewRow(0)})
	filter := rebindLeftJoinFilter(gp, left, right)
	return NewLeftJoin(left, right, filter, env.EvalCtx), nil
}

func buildUnaryAsMinus(gp *plan.GraphPattern, env *Env) (RowSource, error) {
	right, err := Build(gp.SubPatterns[0], env)
	if err != nil {
		return nil, err
	}
	left := NewRowSequence(nil, []sparql.Row{sparql.NewRow(0)})
	return NewMinus(left, right), nil
}

// rebindLeftJoinFilter rebinds an OPTIONAL's trailing FilterExpr (if
// any) against the merged left+right column layout.
func rebindLeftJoinFilter(gp *plan.GraphPattern, left, right RowSource) expression.Expression {
	if gp.FilterExpr == nil {
		return nil
	}
	if err := left.EnsureVariables(); err != nil {
		return gp.FilterExpr
	}
	if err := right.EnsureVariables(); err != nil {
		return gp.FilterExpr
	}
	merged, _ := mergeVars(left.Variables(), right.Variables())
	return rebindVariables(gp.FilterExpr, newVarList(merged))
}

func buildUnion(gp *plan.GraphPattern, env *Env) (RowSource, error) {
	if len(gp.SubPatterns) == 0 {
		return NewEmpty(), nil
	}
	rs, err := Build(gp.SubPatterns[0], env)
	if err != nil {
		return nil, err
	}
	for _, c := range gp.SubPatterns[1:] {
		right, err := Build(c, env)
		if err != nil {
			return nil, err
		}
		rs = NewUnion(rs, right)
	}
	return rs, nil
}

func buildGraph(gp *plan.GraphPattern, env *Env) (RowSource, error) {
	inner, err := Build(gp.SubPatterns[0], env)
	if err != nil {
		return nil, err
	}
	if _, ok := gp.Origin.(sparql.VariableRef); ok {
		return NewGraph(inner, nil, gp.BoundVar, env.NamedGraphs), nil
	}
	return NewGraph(inner, gp.Origin, nil, env.NamedGraphs), nil
}

func buildSelect(gp *plan.GraphPattern, env *Env) (RowSource, error) {
	child := gp.SubPatterns[0]
	hasGroupBy := gp.Modifier != nil && len(gp.Modifier.GroupBy) > 0

	var rs RowSource
	var err error
	if aggSource, aggBinds := peelAggregateBinds(child); hasGroupBy || len(aggBinds) > 0 {
		rs, err = buildAggregation(gp, aggSource, aggBinds, env)
	} else {
		rs, err = Build(child, env)
	}
	if err != nil {
		return nil, err
	}

	if gp.Modifier != nil {
		if err := rs.EnsureVariables(); err != nil {
			return nil, err
		}
		vl := newVarList(rs.Variables())
		if len(gp.Modifier.OrderBy) > 0 {
			conds := make([]Expr, len(gp.Modifier.OrderBy))
			desc := make([]bool, len(gp.Modifier.OrderBy))
			for i, oc := range gp.Modifier.OrderBy {
				conds[i] = rebindVariables(oc.Expr, vl)
				desc[i] = oc.Desc
			}
			rs = NewOrderBy(rs, conds, desc, env.EvalCtx)
		}
	}

	if gp.Projection != nil {
		rs = NewProject(rs, gp.Projection)
	}

	if gp.Modifier != nil {
		if gp.Modifier.Distinct {
			rs = NewDistinct(rs)
		}
		if gp.Modifier.Offset != nil || gp.Modifier.Limit != nil {
			var offset int64
			if gp.Modifier.Offset != nil {
				offset = *gp.Modifier.Offset
			}
			rs = NewSlice(rs, offset, gp.Modifier.Limit)
		}
	}
	return rs, nil
}

// peelAggregateBinds walks a leading chain of OpBind nodes whose
// expression contains an aggregate call, returning the first non-
// aggregate-bind ancestor plus the peeled nodes in outermost-first
// order. This is how an aggregate projected as "(COUNT(*) AS ?c)" is
// recognised: the bind introducing ?c sits directly above the grouped
// pattern (spec.md §4.6).
func peelAggregateBinds(gp *plan.GraphPattern) (*plan.GraphPattern, []*plan.GraphPattern) {
	var binds []*plan.GraphPattern
	cur := gp
	for cur.Op == plan.OpBind && expression.DetectAggregates(cur.BindExpr) {
		binds = append(binds, cur)
		cur = cur.SubPatterns[0]
	}
	return cur, binds
}

func buildAggregation(selectNode, source *plan.GraphPattern, aggBinds []*plan.GraphPattern, env *Env) (RowSource, error) {
	inner, err := Build(source, env)
	if err != nil {
		return nil, err
	}
	if err := inner.EnsureVariables(); err != nil {
		return nil, err
	}
	vl := newVarList(inner.Variables())

	groupBy := make([]expression.Expression, 0)
	outVars := make([]*sparql.Variable, 0)
	if selectNode.Modifier != nil {
		for _, e := range selectNode.Modifier.GroupBy {
			groupBy = append(groupBy, rebindVariables(e, vl))
			if vr, ok := e.(*expression.VariableRef); ok {
				if v := env.Vars.Get(vr.Offset); v != nil {
					outVars = append(outVars, v)
					continue
				}
			}
			outVars = append(outVars, env.Vars.Add(sparql.Anonymous, "_group_key", nil))
		}
	}

	aggregates := make([]*expression.AggregateCall, 0, len(aggBinds))
	for i := len(aggBinds) - 1; i >= 0; i-- {
		b := aggBinds[i]
		call, ok := rebindVariables(b.BindExpr, vl).(*expression.AggregateCall)
		if !ok {
			return nil, sparql.ErrFatal.New("aggregate bind did not resolve to an AggregateCall")
		}
		aggregates = append(aggregates, call)
		outVars = append(outVars, b.BoundVar)
	}

	var having expression.Expression
	if selectNode.Modifier != nil && selectNode.Modifier.Having != nil {
		outVL := newVarList(outVars)
		having = rebindVariables(selectNode.Modifier.Having, outVL)
	}

	return NewAggregation(inner, groupBy, aggregates, having, env.EvalCtx, outVars), nil
}

func rebindExpr(e expression.Expression, inner RowSource) expression.Expression {
	if e == nil {
		return nil
	}
	if err := inner.EnsureVariables(); err != nil {
		return e
	}
	return rebindVariables(e, newVarList(inner.Variables()))
}

// rebindVariables rewrites every VariableRef leaf in e's tree to carry
// the local column index vl assigns its global offset (spec.md §4.2):
// the expression tree is built once against global offsets and rebound
// per rowsource at Build time, since the same expression may evaluate
// against rows of different shapes (e.g. an OPTIONAL's trailing filter
// against the merged row, vs. the same FILTER text reused nowhere else
// in practice but handled uniformly regardless).
func rebindVariables(e expression.Expression, vl *varList) expression.Expression {
	if e == nil {
		return nil
	}
	if vr, ok := e.(*expression.VariableRef); ok {
		idx, ok := vl.localIndex(vr.Offset)
		if !ok {
			idx = -1
		}
		return vr.WithLocalIndex(idx)
	}
	children := e.Children()
	if len(children) == 0 {
		return e
	}
	newChildren := make([]expression.Expression, len(children))
	for i, c := range children {
		newChildren[i] = rebindVariables(c, vl)
	}
	return e.WithChildren(newChildren...)
}
