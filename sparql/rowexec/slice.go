package rowexec

import "github.com/rdfkit/sparqlengine/sparql"

// Slice implements OFFSET/LIMIT (spec.md §4.4.11): skips Offset rows,
// then yields at most Limit rows, streaming without buffering. A nil
// Limit means unbounded.
type Slice struct {
	Source RowSource
	Offset int64
	Limit  *int64

	skipped bool
	emitted int64
}

func NewSlice(source RowSource, offset int64, limit *int64) *Slice {
	return &Slice{Source: source, Offset: offset, Limit: limit}
}

func (s *Slice) EnsureVariables() error        { return s.Source.EnsureVariables() }
func (s *Slice) Variables() []*sparql.Variable { return s.Source.Variables() }
func (s *Slice) Init(ctx *sparql.Context) error { return s.Source.Init(ctx) }

func (s *Slice) Reset(ctx *sparql.Context) error {
	s.skipped = false
	s.emitted = 0
	return s.Source.Reset(ctx)
}

func (s *Slice) Next(ctx *sparql.Context) (sparql.Row, error) {
	if !s.skipped {
		for i := int64(0); i < s.Offset; i++ {
			if _, err := s.Source.Next(ctx); err != nil {
				return sparql.Row{}, err
			}
		}
		s.skipped = true
	}
	if s.Limit != nil && s.emitted >= *s.Limit {
		return sparql.Row{}, errEOF
	}
	row, err := s.Source.Next(ctx)
	if err != nil {
		return sparql.Row{}, err
	}
	s.emitted++
	return row, nil
}

func (s *Slice) SetOrigin(origin sparql.Term) { s.Source.SetOrigin(origin) }
func (s *Slice) Inner(i int) RowSource {
	if i == 0 {
		return s.Source
	}
	return nil
}
func (s *Slice) Close(ctx *sparql.Context) error { return s.Source.Close(ctx) }
