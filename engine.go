// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sparqlengine is the engine's root package: it wires the
// World, in-memory Dataset, and query-preparation pipeline of
// sparql/plan and sparql/rowexec into the Go-idiomatic Engine/Query/
// Execute surface spec.md §6 and §8 describe (mirroring this teacher's
// own Engine.Query(ctx, query string) shape one layer up).
package sparqlengine

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/pkg/errors"

	"github.com/rdfkit/sparqlengine/sparql"
	"github.com/rdfkit/sparqlengine/sparql/dataset"
	"github.com/rdfkit/sparqlengine/sparql/expression"
	"github.com/rdfkit/sparqlengine/sparql/plan"
	"github.com/rdfkit/sparqlengine/sparql/results"
	"github.com/rdfkit/sparqlengine/sparql/rowexec"
)

// Config mirrors sqle.Config's role in the teacher (a small struct
// passed to the engine constructor) with the knobs this domain actually
// needs (spec.md §3 ambient stack): whether the default graph reads as
// the union of every named graph, whether an unresolved QName prefix
// aborts preparation or is tolerated, a per-query deadline, and the
// external collaborators spec.md §1/§4.9 name by contract only.
type Config struct {
	// UnionDefaultGraph makes a triple pattern with no GRAPH clause
	// match every named graph's triples in addition to the default
	// graph's, rather than only the latter.
	UnionDefaultGraph bool

	// StrictQNames makes an unresolved QName prefix a fatal PrepareError.
	// When false (the zero value), Prepare synthesizes a placeholder
	// namespace for any prefix missing from the caller's namespace map
	// instead of failing, logging a warning.
	StrictQNames bool

	// QueryTimeout bounds one Execute call's cooperative-cancellation
	// deadline; zero means no deadline.
	QueryTimeout time.Duration

	// Parser is the textual-grammar front end (spec.md §1, §4.9): out of
	// scope for this engine to implement, named here only by contract.
	// Prepare returns ErrPrepare if a caller reaches it with Parser nil.
	Parser Parser

	// ServiceClient dispatches SPARQL SERVICE clauses to a remote
	// endpoint (spec.md §4.4.14): another external collaborator, wired
	// in whole by the caller. Nil means every SERVICE clause behaves as
	// if the endpoint were unreachable (ErrIO, or Empty under SILENT).
	ServiceClient rowexec.ServiceClient

	// Logger receives per-query diagnostics (prepare warnings,
	// cooperative-cancellation notices). Defaults to an entry on logrus's
	// standard logger when nil.
	Logger *logrus.Entry
}

// EnvOverride loosely coerces process-environment strings onto a copy of
// cfg using github.com/spf13/cast, the teacher's own loose CLI-flag/
// env-var coercion dependency (spec.md §3). getenv is injected rather
// than os.Getenv so tests can supply a fake environment.
func (cfg Config) EnvOverride(getenv func(string) string) (Config, error) {
	out := cfg
	if v := getenv("SPARQL_UNION_DEFAULT_GRAPH"); v != "" {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return cfg, errors.Wrap(err, "SPARQL_UNION_DEFAULT_GRAPH")
		}
		out.UnionDefaultGraph = b
	}
	if v := getenv("SPARQL_STRICT_QNAMES"); v != "" {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return cfg, errors.Wrap(err, "SPARQL_STRICT_QNAMES")
		}
		out.StrictQNames = b
	}
	if v := getenv("SPARQL_QUERY_TIMEOUT"); v != "" {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return cfg, errors.Wrap(err, "SPARQL_QUERY_TIMEOUT")
		}
		out.QueryTimeout = d
	}
	return out, nil
}

// QueryForm tags which of the three SPARQL result shapes a prepared
// query produces (spec.md §1, §6): the front end (Parser) determines
// this while parsing and records it on ParsedQuery.
type QueryForm int

const (
	FormSelect QueryForm = iota
	FormAsk
	FormConstruct
	FormDescribe
)

// Parser is the textual-grammar front end's contract (spec.md §1: "the
// textual-grammar front end (parses a query string into the initial
// graph-pattern tree and the data-model objects defined here)"). This
// engine never bundles an implementation of its own, the same boundary
// the teacher draws around sqlparser.ParseOneWithOptions except here
// there genuinely is no in-repo grammar to fall back to.
type Parser interface {
	Parse(source, baseURI string) (*ParsedQuery, error)
}

// ParsedQuery is everything a front end must hand back for Prepare to
// take over (spec.md §4.8's lowering pipeline starts from exactly these
// four things): the pre-algebra pattern tree, the variables it
// registered while parsing, the namespace-prefix bindings in scope, and
// (CONSTRUCT/DESCRIBE only) the triple template to instantiate per row.
type ParsedQuery struct {
	Form              QueryForm
	Pattern           *plan.GraphPattern
	Vars              *sparql.VariablesTable
	Namespaces        map[string]string
	ConstructTemplate []sparql.TriplePattern
}

// Engine is the SPARQL query engine: one World, one in-memory Dataset,
// and the Config collaborators, shared across every Query it prepares.
// Mirrors the teacher's Engine struct one layer down in scope (no
// catalog/analyzer/process list -- this domain has no persistent schema
// to track between queries, only the loaded dataset).
type Engine struct {
	cfg    Config
	world  *sparql.World
	data   *dataset.Dataset
	logger *logrus.Entry
	mu     *sync.Mutex
}

// NewEngine opens a new Engine with an empty Dataset and a fresh World.
func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{
		cfg:    cfg,
		world:  sparql.NewWorld(),
		data:   dataset.New(),
		logger: logger,
		mu:     &sync.Mutex{},
	}
}

// World returns the engine's shared World.
func (e *Engine) World() *sparql.World { return e.world }

// Dataset returns the engine's in-memory triple store.
func (e *Engine) Dataset() *dataset.Dataset { return e.data }

// Load adds triples to the dataset (nil origin for the default graph),
// serialized against concurrent loads the same way the teacher guards
// its PreparedDataCache with a mutex. Queries read the dataset without
// taking that lock, so a Load that runs while a query is executing is
// not synchronised with it (see dataset.Dataset).
func (e *Engine) Load(origin sparql.Term, triples []sparql.Triple) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data.Load(origin, triples)
}

// Prepare parses source via the configured front end and lowers it into
// an executable Query (spec.md §6 query_prepare). Returns ErrPrepare if
// no Parser is configured.
func (e *Engine) Prepare(ctx *sparql.Context, source, baseURI string) (*Query, error) {
	if e.cfg.Parser == nil {
		return nil, sparql.ErrPrepare.New("no front-end parser configured")
	}
	pq, err := e.cfg.Parser.Parse(source, baseURI)
	if err != nil {
		return nil, err
	}
	return e.PrepareParsed(ctx, pq)
}

// PrepareParsed runs spec.md §4.8's lowering pipeline over a front
// end's already-parsed ParsedQuery and returns the executable Query.
// Exposed directly (alongside Prepare) so a caller that builds its
// graph-pattern tree programmatically, rather than through a textual
// front end, can still drive the full preparation/execution pipeline.
func (e *Engine) PrepareParsed(ctx *sparql.Context, pq *ParsedQuery) (*Query, error) {
	namespaces := pq.Namespaces
	if namespaces == nil {
		namespaces = map[string]string{}
	}
	if !e.cfg.StrictQNames {
		fillLenientNamespaces(pq.Pattern, namespaces, e.logger)
	}

	ectx := &expression.Context{
		World: e.world,
		Rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := plan.Prepare(pq.Pattern, pq.Vars, namespaces, ectx); err != nil {
		return nil, err
	}

	index := make(map[int]*plan.GraphPattern)
	plan.Walk(pq.Pattern, func(n *plan.GraphPattern) { index[n.GPIndex] = n })

	q := &Query{
		engine:            e,
		form:              pq.Form,
		pattern:           pq.Pattern,
		vars:              pq.Vars,
		ectx:              ectx,
		index:             index,
		constructTemplate: pq.ConstructTemplate,
	}
	ectx.ExistsEvaluator = q.evalExists
	return q, nil
}

// fillLenientNamespaces synthesizes a placeholder namespace for any
// QName prefix referenced in gp but absent from namespaces, the
// non-strict half of Config.StrictQNames: rather than touching
// plan.ExpandQNames itself (which always treats an unresolved prefix as
// fatal, spec.md §4.8 step 1), the engine pre-seeds the namespace map
// before handing it to plan.Prepare.
func fillLenientNamespaces(gp *plan.GraphPattern, namespaces map[string]string, logger *logrus.Entry) {
	seen := map[string]bool{}
	note := func(prefix string) {
		if _, ok := namespaces[prefix]; ok || seen[prefix] {
			return
		}
		seen[prefix] = true
		namespaces[prefix] = "urn:sparqlengine:unresolved-prefix:" + prefix + "#"
		if logger != nil {
			logger.Warnf("unresolved qname prefix %q tolerated under non-strict config", prefix)
		}
	}
	visitTerm := func(t sparql.Term) {
		if q, ok := t.(sparql.QName); ok {
			note(q.Prefix)
		}
	}
	plan.Walk(gp, func(n *plan.GraphPattern) {
		for _, t := range n.Triples {
			visitTerm(t.Subject)
			visitTerm(t.Predicate)
			visitTerm(t.Object)
		}
		visitTerm(n.Origin)
	})
}

// Query is a prepared, executable query (spec.md §6's query object):
// one per Prepare/PrepareParsed call, holding the lowered algebra tree,
// the variables table it was lowered against, and the evaluator context
// EXISTS sub-evaluation closes over.
type Query struct {
	engine  *Engine
	form    QueryForm
	pattern *plan.GraphPattern
	vars    *sparql.VariablesTable
	ectx    *expression.Context

	// index maps a GraphPattern.GPIndex (spec.md §4.8 step 7) back to
	// its node, the registry EXISTS sub-evaluation looks sub-patterns up
	// in: expression.Exists carries only the integer ID, never a
	// pointer, to keep the expression tree free of a plan.GraphPattern
	// import (spec.md §9's package-cycle avoidance carried one layer
	// further here).
	index map[int]*plan.GraphPattern

	constructTemplate []sparql.TriplePattern
}

// env builds the rowexec.Env a Build call against this query's pattern
// tree needs, honoring Config.UnionDefaultGraph by wrapping the
// dataset's TriplesSource so an unscoped pattern (no GRAPH clause,
// origin nil) reads every graph instead of only the default one.
func (q *Query) env() *rowexec.Env {
	var source rowexec.TriplesSource = q.engine.data
	if q.engine.cfg.UnionDefaultGraph {
		source = unionDefaultGraphSource{q.engine.data}
	}
	return &rowexec.Env{
		Source:        source,
		NamedGraphs:   q.engine.data,
		ServiceClient: q.engine.cfg.ServiceClient,
		Vars:          q.vars,
		EvalCtx:       q.ectx,
	}
}

// unionDefaultGraphSource adapts a *dataset.Dataset so a default-graph
// match (origin nil) is answered from every triple in the store, the
// "default graph as union of named graphs" mode some SPARQL engines
// offer as a configuration toggle (spec.md never names this option
// explicitly, but §4.9's TriplesSource contract is exactly this
// pluggable, so Config.UnionDefaultGraph composes with it rather than
// needing any change to dataset or rowexec). It reuses Dataset.Match's
// own "unbound origin variable reads every graph" branch instead of
// adding a second method to Dataset.
type unionDefaultGraphSource struct {
	data *dataset.Dataset
}

func (u unionDefaultGraphSource) Match(ctx *sparql.Context, pattern sparql.TriplePattern, origin sparql.Term) (rowexec.TripleIter, error) {
	if origin == nil {
		return u.data.Match(ctx, pattern, sparql.VariableRef{})
	}
	return u.data.Match(ctx, pattern, origin)
}

// withDeadline derives a Context bound by Config.QueryTimeout, or
// returns ctx unchanged (with a no-op cancel) when no timeout is set.
func (e *Engine) withDeadline(ctx *sparql.Context) (*sparql.Context, func()) {
	if e.cfg.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	child, cancel := ctx.WithTimeout(e.cfg.QueryTimeout)
	return child, cancel
}

// Execute runs the query's algebra tree to completion and returns its
// results in the shape its form implies (spec.md §6 query_execute):
// SELECT yields rows, ASK a boolean (whether the pattern has at least
// one solution), CONSTRUCT/DESCRIBE a set of instantiated triples.
func (q *Query) Execute(ctx *sparql.Context) (*results.QueryResults, error) {
	ctx, cancel := q.engine.withDeadline(ctx)
	defer cancel()

	q.ectx.SCtx = ctx
	q.ectx.FixNow(time.Now())

	rs, err := rowexec.Build(q.pattern, q.env())
	if err != nil {
		return nil, errors.Wrap(err, "building rowsource tree")
	}
	if err := rs.EnsureVariables(); err != nil {
		return nil, err
	}
	if err := rs.Init(ctx); err != nil {
		return nil, err
	}

	switch q.form {
	case FormAsk:
		_, nextErr := rs.Next(ctx)
		closeErr := rs.Close(ctx)
		if nextErr != nil && nextErr != io.EOF {
			return nil, nextErr
		}
		if closeErr != nil {
			return nil, closeErr
		}
		return results.NewBooleanResults(nextErr == nil), nil

	case FormConstruct, FormDescribe:
		triples, instErr := q.instantiateConstruct(ctx, rs)
		closeErr := rs.Close(ctx)
		if instErr != nil {
			return nil, instErr
		}
		if closeErr != nil {
			return nil, closeErr
		}
		return results.NewTripleResults(triples), nil

	default: // FormSelect
		return results.NewRowResults(rs.Variables(), rs), nil
	}
}

// instantiateConstruct substitutes each output row's bindings into the
// CONSTRUCT template, dropping any instantiated triple that still has
// an unbound position (an unbound template variable), and minting a
// fresh blank node per (row, template blank-node label) pair -- CONSTRUCT
// blank nodes are fresh per solution, never shared across rows, per
// standard SPARQL CONSTRUCT semantics. github.com/satori/go.uuid mints
// the fresh label, the same role it plays anonymizing a parser's
// unlabeled blank nodes (spec.md §3 ambient stack).
func (q *Query) instantiateConstruct(ctx *sparql.Context, rs rowexec.RowSource) ([]sparql.Triple, error) {
	offsetToIndex := make(map[int]int, len(rs.Variables()))
	for i, v := range rs.Variables() {
		offsetToIndex[v.Offset] = i
	}

	seen := map[string]bool{}
	var out []sparql.Triple
	for {
		if ctx.Cancelled() {
			return out, sparql.ErrTimeout.New()
		}
		row, err := rs.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}
		blanks := map[string]sparql.BlankNode{}
		for _, tp := range q.constructTemplate {
			s, ok1 := instantiateTerm(tp.Subject, row, offsetToIndex, blanks)
			p, ok2 := instantiateTerm(tp.Predicate, row, offsetToIndex, blanks)
			o, ok3 := instantiateTerm(tp.Object, row, offsetToIndex, blanks)
			if !ok1 || !ok2 || !ok3 {
				continue
			}
			t := sparql.Triple{Subject: s, Predicate: p, Object: o}
			key := fmt.Sprintf("%s\x1f%s\x1f%s", t.Subject, t.Predicate, t.Object)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, t)
		}
	}
	return out, nil
}

func instantiateTerm(t sparql.Term, row sparql.Row, offsetToIndex map[int]int, blanks map[string]sparql.BlankNode) (sparql.Term, bool) {
	switch v := t.(type) {
	case sparql.VariableRef:
		idx, ok := offsetToIndex[v.Offset]
		if !ok {
			return nil, false
		}
		val := row.Values[idx]
		if val == nil {
			return nil, false
		}
		return val, true
	case sparql.BlankNode:
		if bn, ok := blanks[v.Label]; ok {
			return bn, true
		}
		bn := sparql.BlankNode{Label: uuid.NewV4().String()}
		blanks[v.Label] = bn
		return bn, true
	default:
		return t, true
	}
}

// evalExists is the Query's expression.Context.ExistsEvaluator: it
// builds the sub-pattern's own rowsource tree, restricts it to rows
// consistent with every free variable's current binding (spec.md §4.2's
// "pre-bind the current row's variables into the sub-pattern"), pushes
// down the caller's current GRAPH origin (scenario 6: EXISTS inside a
// GRAPH block evaluates against that graph, not the default one), and
// reports whether at least one row survives.
//
// Pre-binding works off Row.BindVariables rather than a local-column
// remap: every evalRowBool/expression-evaluation call site in rowexec
// already writes the evaluating row's columns back into the enclosing
// rowsource's Variable.Value fields before calling Expression.Eval (see
// sparql/rowexec's Filter/Bind/LeftJoin/OrderBy/Aggregation), so by the
// time this closure runs, every variable in lexical scope at the EXISTS
// site already carries its current-row value on the shared
// *sparql.Variable object in q.vars -- the same sharing Row.BindVariables'
// doc comment calls out ("read by evaluators that resolve by name
// outside a row context").
func (q *Query) evalExists(sctx *sparql.Context, subPatternID int, row sparql.Row) (bool, error) {
	sub, ok := q.index[subPatternID]
	if !ok {
		return false, sparql.ErrFatal.New("unknown EXISTS sub-pattern")
	}

	rs, err := rowexec.Build(sub, q.env())
	if err != nil {
		return false, err
	}
	if err := rs.EnsureVariables(); err != nil {
		return false, err
	}
	rs.SetOrigin(sctx.CurrentGraph())

	var constraint expression.Expression
	for i, v := range rs.Variables() {
		if v.Value == nil {
			continue
		}
		eq := expression.NewComparison("=", expression.NewVariableRef(v.Offset, v.Name, i), expression.NewLiteral(v.Value))
		if constraint == nil {
			constraint = eq
		} else {
			constraint = expression.NewAnd(constraint, eq)
		}
	}
	if constraint != nil {
		rs = rowexec.NewFilter(rs, constraint, q.ectx)
	}

	if err := rs.Init(sctx); err != nil {
		return false, err
	}
	defer rs.Close(sctx)

	_, err = rs.Next(sctx)
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
