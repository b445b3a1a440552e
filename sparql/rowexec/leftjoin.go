package rowexec

import (
	"io"

	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/expression"
)

// LeftJoin implements OPTIONAL (spec.md §4.4.3): every left row is
// emitted at least once. If no right row is both join-compatible and
// (when FilterExpr is set) satisfies the trailing filter on the merged
// row, the left row is emitted padded with unbound right-only columns
// instead.
type LeftJoin struct {
	Left, Right RowSource
	FilterExpr  expression.Expression
	EvalCtx     *expression.Context

	merged        []*sparql.Variable
	rightToMerged []int
	compat        *sparql.RowCompatibilityMap

	curLeft  sparql.Row
	haveLeft bool
	anyMatch bool
}

func NewLeftJoin(left, right RowSource, filter expression.Expression, ectx *expression.Context) *LeftJoin {
	return &LeftJoin{Left: left, Right: right, FilterExpr: filter, EvalCtx: ectx}
}

func (j *LeftJoin) EnsureVariables() error {
	if j.merged != nil {
		return nil
	}
	if err := j.Left.EnsureVariables(); err != nil {
		return err
	}
	if err := j.Right.EnsureVariables(); err != nil {
		return err
	}
	j.merged, j.rightToMerged = mergeVars(j.Left.Variables(), j.Right.Variables())
	j.compat = sparql.NewRowCompatibilityMap(j.Left.Variables(), j.Right.Variables())
	return nil
}

func (j *LeftJoin) Variables() []*sparql.Variable { return j.merged }

func (j *LeftJoin) Init(ctx *sparql.Context) error {
	if err := j.Left.Init(ctx); err != nil {
		return err
	}
	return j.Right.Init(ctx)
}

func (j *LeftJoin) Reset(ctx *sparql.Context) error {
	j.haveLeft = false
	j.anyMatch = false
	if err := j.Left.Reset(ctx); err != nil {
		return err
	}
	return j.Right.Reset(ctx)
}

func (j *LeftJoin) Next(ctx *sparql.Context) (sparql.Row, error) {
	for {
		if ctx.Cancelled() {
			return sparql.Row{}, sparql.ErrTimeout.New()
		}
		if !j.haveLeft {
			lr, err := j.Left.Next(ctx)
			if err != nil {
				return sparql.Row{}, err
			}
			j.curLeft = lr
			j.haveLeft = true
			j.anyMatch = false
			if err := j.Right.Reset(ctx); err != nil {
				return sparql.Row{}, err
			}
		}
		rr, err := j.Right.Next(ctx)
		if err == io.EOF {
			j.haveLeft = false
			if !j.anyMatch {
				return sparql.Merge(j.curLeft, sparql.NewRow(len(j.Right.Variables())), j.rightToMerged, len(j.merged)), nil
			}
			continue
		}
		if err != nil {
			return sparql.Row{}, err
		}
		if !j.compat.Check(j.curLeft, rr) {
			continue
		}
		merged := sparql.Merge(j.curLeft, rr, j.rightToMerged, len(j.merged))
		if j.FilterExpr != nil {
			ok, err := evalRowBool(j.EvalCtx, j.FilterExpr, merged, j.merged)
			if err != nil || !ok {
				continue
			}
		}
		j.anyMatch = true
		return merged, nil
	}
}

func (j *LeftJoin) SetOrigin(origin sparql.Term) {
	j.Left.SetOrigin(origin)
	j.Right.SetOrigin(origin)
}

func (j *LeftJoin) Inner(i int) RowSource {
	switch i {
	case 0:
		return j.Left
	case 1:
		return j.Right
	default:
		return nil
	}
}

func (j *LeftJoin) Close(ctx *sparql.Context) error {
	err1 := j.Left.Close(ctx)
	err2 := j.Right.Close(ctx)
	if err1 != nil {
		return err1
	}
	return err2
}
