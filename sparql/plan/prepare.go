package plan

import (
	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/expression"
)

// Prepare runs the full query-preparation/lowering pipeline of spec.md
// §4.8 over root in order. Each step is idempotent relative to its own
// goal, so re-running Prepare on an already-prepared tree is safe (it
// simply finds nothing left to do).
func Prepare(root *GraphPattern, vars *sparql.VariablesTable, namespaces map[string]string, ectx *expression.Context) error {
	if err := ExpandQNames(root, namespaces, vars); err != nil {
		return err
	}
	AnonymizeBlankNodes(root, vars)
	ExpandSelectStar(root, vars)
	DedupeProjections(root)
	FoldExpressions(root, ectx)
	RewriteToFixedPoint(root)
	EnumerateGraphPatterns(root)
	scope, err := BuildScopes(root, nil)
	if err != nil {
		return err
	}
	root.ExecutionScope = scope
	PruneUnboundProjections(root, vars)
	return nil
}

// ExpandQNames resolves every QName term (in triples and, where a
// front end embeds one, expression literals) against the namespace
// stack, replacing it with a sparql.URI (spec.md §4.8 step 1).
func ExpandQNames(gp *GraphPattern, namespaces map[string]string, vars *sparql.VariablesTable) error {
	var walkErr error
	expandTerm := func(t sparql.Term) (sparql.Term, error) {
		q, ok := t.(sparql.QName)
		if !ok {
			return t, nil
		}
		ns, ok := namespaces[q.Prefix]
		if !ok {
			return nil, sparql.ErrUnresolvedQName.New(q.Prefix)
		}
		return sparql.URI(ns + q.Local), nil
	}
	Walk(gp, func(n *GraphPattern) {
		if walkErr != nil {
			return
		}
		for i, t := range n.Triples {
			s, err := expandTerm(t.Subject)
			if err != nil {
				walkErr = err
				return
			}
			p, err := expandTerm(t.Predicate)
			if err != nil {
				walkErr = err
				return
			}
			o, err := expandTerm(t.Object)
			if err != nil {
				walkErr = err
				return
			}
			n.Triples[i].Subject, n.Triples[i].Predicate, n.Triples[i].Object = s, p, o
		}
		if q, ok := n.Origin.(sparql.QName); ok {
			u, err := expandTerm(q)
			if err != nil {
				walkErr = err
				return
			}
			n.Origin = u
		}
	})
	return walkErr
}

// AnonymizeBlankNodes turns blank-node triple positions into anonymous
// variables so the algebra handles them uniformly (spec.md §4.8 step
// 2): a BlankNode with label L becomes the same anonymous Variable
// every time L recurs anywhere in the pattern tree rooted at gp.
func AnonymizeBlankNodes(gp *GraphPattern, vars *sparql.VariablesTable) {
	byLabel := map[string]*sparql.Variable{}
	asVar := func(t sparql.Term) sparql.Term {
		b, ok := t.(sparql.BlankNode)
		if !ok {
			return t
		}
		v, ok := byLabel[b.Label]
		if !ok {
			v = vars.Add(sparql.Anonymous, "_anon_"+b.Label, nil)
			byLabel[b.Label] = v
		}
		return sparql.VariableRef{Offset: v.Offset, Name: v.Name}
	}
	Walk(gp, func(n *GraphPattern) {
		for i, t := range n.Triples {
			n.Triples[i].Subject = asVar(t.Subject)
			n.Triples[i].Predicate = asVar(t.Predicate)
			n.Triples[i].Object = asVar(t.Object)
		}
	})
}

// ExpandSelectStar expands a SELECT * into the explicit list of every
// named variable mentioned anywhere in the query (spec.md §4.8 step 3).
// Applies to every OpSelect node whose Projection is nil (the sentinel
// for "*").
func ExpandSelectStar(gp *GraphPattern, vars *sparql.VariablesTable) {
	Walk(gp, func(n *GraphPattern) {
		if n.Op != OpSelect || n.Projection != nil {
			return
		}
		declared := DeclaredVariables(n, vars)
		var named []*sparql.Variable
		for _, v := range declared {
			if v.Type == sparql.Normal {
				named = append(named, v)
			}
		}
		n.Projection = named
	})
}

// DedupeProjections silently removes repeated variables in a
// projection, preserving first occurrence (spec.md §4.8 step 4); no
// warning is logged for the dropped repeats.
func DedupeProjections(gp *GraphPattern) {
	Walk(gp, func(n *GraphPattern) {
		if n.Op != OpSelect || n.Projection == nil {
			return
		}
		seen := map[*sparql.Variable]bool{}
		out := n.Projection[:0:0]
		for _, v := range n.Projection {
			if seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
		n.Projection = out
	})
}

// FoldExpressions constant-folds every FILTER expression, BIND
// expression, and ORDER BY condition in the tree (spec.md §4.8 step 5).
func FoldExpressions(gp *GraphPattern, ectx *expression.Context) {
	Walk(gp, func(n *GraphPattern) {
		if n.FilterExpr != nil {
			n.FilterExpr = expression.FoldConstants(ectx, n.FilterExpr)
		}
		if n.BindExpr != nil {
			n.BindExpr = expression.FoldConstants(ectx, n.BindExpr)
		}
		if n.Modifier != nil {
			for i, oc := range n.Modifier.OrderBy {
				n.Modifier.OrderBy[i].Expr = expression.FoldConstants(ectx, oc.Expr)
			}
			for i, e := range n.Modifier.GroupBy {
				n.Modifier.GroupBy[i] = expression.FoldConstants(ectx, e)
			}
			if n.Modifier.Having != nil {
				n.Modifier.Having = expression.FoldConstants(ectx, n.Modifier.Having)
			}
		}
	})
}

// RewriteToFixedPoint applies the graph-pattern rewrites of spec.md
// §4.8 step 6 until none further apply: merging adjacent Basic children
// of a Group into one, dropping empty Group children (hoisting their
// filter to the parent), and collapsing a singleton non-Filter Group
// into its child.
func RewriteToFixedPoint(gp *GraphPattern) {
	for rewriteOnce(gp) {
	}
}

func rewriteOnce(gp *GraphPattern) bool {
	changed := false
	for _, c := range gp.SubPatterns {
		if rewriteOnce(c) {
			changed = true
		}
	}
	if gp.Op != OpGroup {
		return changed
	}
	// Drop empty Group children, hoisting their filter up.
	var kept []*GraphPattern
	for _, c := range gp.SubPatterns {
		if c.Op == OpGroup && len(c.SubPatterns) == 0 && len(c.Triples) == 0 {
			if c.FilterExpr != nil {
				gp.FilterExpr = andExpr(gp.FilterExpr, c.FilterExpr)
			}
			changed = true
			continue
		}
		kept = append(kept, c)
	}
	gp.SubPatterns = kept

	// Merge adjacent Basic children into one.
	merged := gp.SubPatterns[:0:0]
	for _, c := range gp.SubPatterns {
		if c.Op == OpBasic && len(merged) > 0 && merged[len(merged)-1].Op == OpBasic {
			last := merged[len(merged)-1]
			last.Triples = append(last.Triples, c.Triples...)
			if last.EndColumn < c.EndColumn {
				last.EndColumn = c.EndColumn
			}
			changed = true
			continue
		}
		merged = append(merged, c)
	}
	gp.SubPatterns = merged

	// Collapse a singleton non-Filter Group into its child.
	if len(gp.SubPatterns) == 1 && gp.FilterExpr == nil {
		only := gp.SubPatterns[0]
		*gp = *only
		changed = true
	}
	return changed
}

func andExpr(a, b Expr) Expr {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return expression.NewAnd(a, b)
}

// EnumerateGraphPatterns assigns GPIndex to every node by an in-order
// walk (spec.md §4.8 step 7).
func EnumerateGraphPatterns(gp *GraphPattern) {
	i := 0
	Walk(gp, func(n *GraphPattern) {
		n.GPIndex = i
		i++
	})
}

// BuildScopes builds the compile-time scope tree (spec.md §4.5, §4.8
// step 8), detecting BIND-over-already-scoped-variable violations
// (spec.md §3 invariant, §8 scenario 1) as it goes.
func BuildScopes(gp *GraphPattern, parent *Scope) (*Scope, error) {
	kind := ScopeGroup
	switch gp.Op {
	case OpSelect:
		kind = ScopeSubselect
	case OpExists, OpNotExists:
		kind = ScopeExists
	}
	if parent == nil {
		kind = ScopeRoot
	}
	scope := NewScope(kind, parent)

	for _, t := range gp.Triples {
		declareTermVars(scope, t.Subject)
		declareTermVars(scope, t.Predicate)
		declareTermVars(scope, t.Object)
	}

	if gp.Op == OpBind {
		if gp.BoundVar != nil && scope.InScope(gp.BoundVar.Name) {
			return nil, sparql.ErrScopeViolation.New("?" + gp.BoundVar.Name)
		}
		if gp.BoundVar != nil {
			scope.Declare(gp.BoundVar)
		}
	}
	if gp.Op == OpGraph && gp.BoundVar != nil {
		scope.Declare(gp.BoundVar)
	}

	for _, c := range gp.SubPatterns {
		childScope, err := BuildScopes(c, scope)
		if err != nil {
			return nil, err
		}
		c.ExecutionScope = childScope
	}
	gp.ExecutionScope = scope
	return scope, nil
}

func declareTermVars(scope *Scope, t sparql.Term) {
	if vr, ok := t.(sparql.VariableRef); ok {
		if _, exists := scope.LocalVars[vr.Name]; !exists {
			scope.LocalVars[vr.Name] = &sparql.Variable{Name: vr.Name, Offset: vr.Offset}
		}
	}
}

// PruneUnboundProjections removes from a SELECT * projection any
// variable that ended up unbound (never mentioned by a triple/BIND/
// VALUES/GRAPH anywhere in the pattern), and is a placeholder for the
// "warn for any remaining unused projected variable" half of spec.md
// §4.8 step 9 (the warning itself is the caller's responsibility via
// its logger; this function only performs the removal).
func PruneUnboundProjections(gp *GraphPattern, vars *sparql.VariablesTable) {
	Walk(gp, func(n *GraphPattern) {
		if n.Op != OpSelect || n.Projection == nil {
			return
		}
		bound := map[*sparql.Variable]bool{}
		for _, v := range DeclaredVariables(n, vars) {
			bound[v] = true
		}
		out := n.Projection[:0:0]
		for _, v := range n.Projection {
			if bound[v] {
				out = append(out, v)
			}
		}
		n.Projection = out
	})
}
