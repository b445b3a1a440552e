package rowexec

import "github.com/rdfkit/sparqlengine/sparql"

// ServiceClient executes a federated SPARQL query against a remote
// endpoint (spec.md §4.4.14). Wired in by the engine; no default
// implementation ships since reaching a network endpoint is a concern
// of the caller's transport configuration, not the rowexec layer.
type ServiceClient interface {
	Query(ctx *sparql.Context, endpoint string, vars []*sparql.Variable) (RowSource, error)
}

// Service implements SERVICE (spec.md §4.4.14): asks Client for the rows
// of Endpoint over Vars. A dispatch or remote-execution error is
// swallowed into a zero-row result when Silent is set; otherwise it
// propagates as ErrIO.
type Service struct {
	Endpoint string
	Silent   bool
	Client   ServiceClient
	Vars     []*sparql.Variable

	resolved RowSource
}

func NewService(endpoint string, silent bool, client ServiceClient, vars []*sparql.Variable) *Service {
	return &Service{Endpoint: endpoint, Silent: silent, Client: client, Vars: vars}
}

func (s *Service) EnsureVariables() error { return nil }
func (s *Service) Variables() []*sparql.Variable { return s.Vars }

func (s *Service) Init(ctx *sparql.Context) error {
	if s.Client == nil {
		if s.Silent {
			s.resolved = NewEmpty()
			return s.resolved.Init(ctx)
		}
		return sparql.ErrIO.New("no SERVICE client configured for " + s.Endpoint)
	}
	rs, err := s.Client.Query(ctx, s.Endpoint, s.Vars)
	if err != nil {
		if s.Silent {
			s.resolved = NewEmpty()
			return s.resolved.Init(ctx)
		}
		return sparql.ErrIO.New(err.Error())
	}
	s.resolved = rs
	return s.resolved.Init(ctx)
}

func (s *Service) Reset(ctx *sparql.Context) error {
	if s.resolved == nil {
		return s.Init(ctx)
	}
	return s.resolved.Reset(ctx)
}

func (s *Service) Next(ctx *sparql.Context) (sparql.Row, error) {
	if s.resolved == nil {
		if err := s.Init(ctx); err != nil {
			return sparql.Row{}, err
		}
	}
	row, err := s.resolved.Next(ctx)
	if err != nil && err != errEOF && s.Silent {
		return sparql.Row{}, errEOF
	}
	return row, err
}

func (s *Service) SetOrigin(origin sparql.Term) {}
func (s *Service) Inner(i int) RowSource         { return nil }
func (s *Service) Close(ctx *sparql.Context) error {
	if s.resolved == nil {
		return nil
	}
	return s.resolved.Close(ctx)
}
