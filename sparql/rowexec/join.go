package rowexec

import (
	"io"

	"github.com/rdfkit/sparqlengine/sparql"
)

// Join implements the SPARQL Join operator via nested-loop evaluation
// (spec.md §4.4.2, §4.3): for each left row, scan right for every
// compatible row, merging shared variables per spec.md's join-
// compatibility rule.
type Join struct {
	Left, Right RowSource

	merged        []*sparql.Variable
	rightToMerged []int
	compat        *sparql.RowCompatibilityMap

	curLeft  sparql.Row
	haveLeft bool
}

func NewJoin(left, right RowSource) *Join { return &Join{Left: left, Right: right} }

func (j *Join) EnsureVariables() error {
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

func (j *Join) Variables() []*sparql.Variable { return j.merged }

func (j *Join) Init(ctx *sparql.Context) error {
	if err := j.Left.Init(ctx); err != nil {
		return err
	}
	return j.Right.Init(ctx)
}

func (j *Join) Reset(ctx *sparql.Context) error {
	j.haveLeft = false
	if err := j.Left.Reset(ctx); err != nil {
		return err
	}
	return j.Right.Reset(ctx)
}

func (j *Join) Next(ctx *sparql.Context) (sparql.Row, error) {
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
			if err := j.Right.Reset(ctx); err != nil {
				return sparql.Row{}, err
			}
		}
		rr, err := j.Right.Next(ctx)
		if err == io.EOF {
			j.haveLeft = false
			continue
		}
		if err != nil {
			return sparql.Row{}, err
		}
		if j.compat.Check(j.curLeft, rr) {
			return sparql.Merge(j.curLeft, rr, j.rightToMerged, len(j.merged)), nil
		}
	}
}

func (j *Join) SetOrigin(origin sparql.Term) {
	j.Left.SetOrigin(origin)
	j.Right.SetOrigin(origin)
}

func (j *Join) Inner(i int) RowSource {
	switch i {
	case 0:
		return j.Left
	case 1:
		return j.Right
	default:
		return nil
	}
}

func (j *Join) Close(ctx *sparql.Context) error {
	err1 := j.Left.Close(ctx)
	err2 := j.Right.Close(ctx)
	if err1 != nil {
		return err1
	}
	return err2
}
