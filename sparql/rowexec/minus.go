package rowexec

import (
	"io"

	"github.com/rdfkit/sparqlengine/sparql"
)

// Minus implements MINUS (spec.md §4.4's set-difference operator): a
// left row is excluded only if Right shares at least one variable with
// Left AND some right row is join-compatible with it; if the two sides
// share no variables, MINUS has no effect and every left row passes
// through unchanged (per the SPARQL algebra's definition of solution
// compatibility over an empty shared-variable set being vacuously true
// only when there is something to be compatible WITH -- spec.md pins
// this as "no shared variables => MINUS is a no-op").
type Minus struct {
	Left, Right RowSource

	compat *sparql.RowCompatibilityMap
	noop   bool
}

func NewMinus(left, right RowSource) *Minus { return &Minus{Left: left, Right: right} }

func (m *Minus) EnsureVariables() error {
	if m.compat != nil || m.noop {
		return nil
	}
	if err := m.Left.EnsureVariables(); err != nil {
		return err
	}
	if err := m.Right.EnsureVariables(); err != nil {
		return err
	}
	m.compat = sparql.NewRowCompatibilityMap(m.Left.Variables(), m.Right.Variables())
	m.noop = m.compat.Shared() == 0
	return nil
}

func (m *Minus) Variables() []*sparql.Variable { return m.Left.Variables() }

func (m *Minus) Init(ctx *sparql.Context) error {
	if err := m.Left.Init(ctx); err != nil {
		return err
	}
	return m.Right.Init(ctx)
}

func (m *Minus) Reset(ctx *sparql.Context) error {
	if err := m.Left.Reset(ctx); err != nil {
		return err
	}
	return m.Right.Reset(ctx)
}

func (m *Minus) Next(ctx *sparql.Context) (sparql.Row, error) {
	for {
		if ctx.Cancelled() {
			return sparql.Row{}, sparql.ErrTimeout.New()
		}
		lr, err := m.Left.Next(ctx)
		if err != nil {
			return sparql.Row{}, err
		}
		if m.noop {
			return lr, nil
		}
		excluded, err := m.anyCompatible(ctx, lr)
		if err != nil {
			return sparql.Row{}, err
		}
		if !excluded {
			return lr, nil
		}
	}
}

func (m *Minus) anyCompatible(ctx *sparql.Context, lr sparql.Row) (bool, error) {
	if err := m.Right.Reset(ctx); err != nil {
		return false, err
	}
	for {
		rr, err := m.Right.Next(ctx)
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if m.compat.Check(lr, rr) {
			return true, nil
		}
	}
}

func (m *Minus) SetOrigin(origin sparql.Term) {
	m.Left.SetOrigin(origin)
	m.Right.SetOrigin(origin)
}

func (m *Minus) Inner(i int) RowSource {
	switch i {
	case 0:
		return m.Left
	case 1:
		return m.Right
	default:
		return nil
	}
}

func (m *Minus) Close(ctx *sparql.Context) error {
	err1 := m.Left.Close(ctx)
	err2 := m.Right.Close(ctx)
	if err1 != nil {
		return err1
	}
	return err2
}
