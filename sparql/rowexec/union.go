package rowexec

import (
	"github.com/rdfkit/sparqlengine/sparql"
)

// Union implements UNION (spec.md §4.4.4): left's rows fully, then
// right's, each widened into the combined variable list. Unlike Join,
// there is no compatibility check -- every row from either side is kept.
type Union struct {
	Left, Right RowSource

	merged         []*sparql.Variable
	leftToMerged   []int
	rightToMerged  []int

	rows []sparql.Row
	pos  int
}

func NewUnion(left, right RowSource) *Union { return &Union{Left: left, Right: right} }

func (u *Union) EnsureVariables() error {
	if u.merged != nil {
		return nil
	}
	if err := u.Left.EnsureVariables(); err != nil {
		return err
	}
	if err := u.Right.EnsureVariables(); err != nil {
		return err
	}
	// leftToMerged is always identity: left vars occupy the first
	// len(left) merged columns by construction of mergeVars.
	left := u.Left.Variables()
	u.leftToMerged = make([]int, len(left))
	for i := range left {
		u.leftToMerged[i] = i
	}
	u.merged, u.rightToMerged = mergeVars(left, u.Right.Variables())
	return nil
}

func (u *Union) Variables() []*sparql.Variable { return u.merged }

func (u *Union) Init(ctx *sparql.Context) error {
	if err := u.Left.Init(ctx); err != nil {
		return err
	}
	if err := u.Right.Init(ctx); err != nil {
		return err
	}
	return u.fill(ctx)
}

func (u *Union) fill(ctx *sparql.Context) error {
	width := len(u.merged)
	empty := sparql.NewRow(0)

	leftRows, err := sparql.DrainRows(ctx, asIter{u.Left})
	if err != nil {
		return err
	}
	for _, r := range leftRows {
		u.rows = append(u.rows, sparql.Merge(r, empty, nil, width))
	}

	rightRows, err := sparql.DrainRows(ctx, asIter{u.Right})
	if err != nil {
		return err
	}
	for _, r := range rightRows {
		u.rows = append(u.rows, sparql.Merge(empty, r, u.rightToMerged, width))
	}
	return nil
}

// asIter adapts a RowSource (already Init'd) to sparql.RowIter so
// DrainRows can pull it dry.
type asIter struct{ rs RowSource }

func (a asIter) Next(ctx *sparql.Context) (sparql.Row, error) { return a.rs.Next(ctx) }
func (a asIter) Close(ctx *sparql.Context) error              { return nil }

func (u *Union) Reset(ctx *sparql.Context) error {
	u.rows = nil
	u.pos = 0
	if err := u.Left.Reset(ctx); err != nil {
		return err
	}
	if err := u.Right.Reset(ctx); err != nil {
		return err
	}
	return u.fill(ctx)
}

func (u *Union) Next(ctx *sparql.Context) (sparql.Row, error) {
	if ctx.Cancelled() {
		return sparql.Row{}, sparql.ErrTimeout.New()
	}
	if u.pos >= len(u.rows) {
		return sparql.Row{}, errEOF
	}
	r := u.rows[u.pos]
	u.pos++
	return r, nil
}

func (u *Union) SetOrigin(origin sparql.Term) {
	u.Left.SetOrigin(origin)
	u.Right.SetOrigin(origin)
}

func (u *Union) Inner(i int) RowSource {
	switch i {
	case 0:
		return u.Left
	case 1:
		return u.Right
	default:
		return nil
	}
}

func (u *Union) Close(ctx *sparql.Context) error {
	err1 := u.Left.Close(ctx)
	err2 := u.Right.Close(ctx)
	if err1 != nil {
		return err1
	}
	return err2
}
