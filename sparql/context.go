package sparql

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Context carries per-query state through the rowsource pipeline: a
// standard context.Context for I/O deadlines, a cooperative-cancellation
// flag checked before row emission, and a logger. It plays the same role
// the teacher's sql.Context plays for its engine: a single value threaded
// through every Next/Init/Close call instead of a package-global.
type Context struct {
	context.Context

	stopped int32
	logger  *logrus.Entry

	// currentGraph is the origin term most recently pushed by a GRAPH
	// clause; nil means the default graph. EXISTS evaluation saves and
	// restores this around its sub-evaluation (spec.md §4.2).
	currentGraph Term
}

// NewContext wraps a standard context.Context for use by the engine.
func NewContext(ctx context.Context, logger *logrus.Entry) *Context {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Context{Context: ctx, logger: logger}
}

// NewEmptyContext returns a Context suitable for tests: background
// context, discard logger.
func NewEmptyContext() *Context {
	l := logrus.New()
	l.Out = io.Discard
	return NewContext(context.Background(), logrus.NewEntry(l))
}

// WithTimeout returns a derived Context whose deadline fires ErrTimeout
// cooperative cancellation after d.
func (c *Context) WithTimeout(d time.Duration) (*Context, context.CancelFunc) {
	inner, cancel := context.WithTimeout(c.Context, d)
	nc := &Context{Context: inner, logger: c.logger, currentGraph: c.currentGraph}
	return nc, cancel
}

// Stop requests cooperative cancellation. Safe to call concurrently.
func (c *Context) Stop() { atomic.StoreInt32(&c.stopped, 1) }

// Cancelled reports whether Stop was called or the deadline has passed.
func (c *Context) Cancelled() bool {
	if atomic.LoadInt32(&c.stopped) != 0 {
		return true
	}
	select {
	case <-c.Context.Done():
		return true
	default:
		return false
	}
}

// Logger returns the per-query structured logger.
func (c *Context) Logger() *logrus.Entry { return c.logger }

// CurrentGraph returns the origin term bound by the nearest enclosing
// GRAPH clause, or nil for the default graph.
func (c *Context) CurrentGraph() Term { return c.currentGraph }

// WithCurrentGraph returns a shallow copy of c with the current graph
// origin replaced. Used by the Graph rowsource and by EXISTS evaluation,
// which must restore the prior origin after the sub-evaluation completes.
func (c *Context) WithCurrentGraph(origin Term) *Context {
	nc := *c
	nc.currentGraph = origin
	return &nc
}
