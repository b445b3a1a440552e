package sparql

import "io"

// Row is a fixed-width array of optional terms plus optional ordering
// terms (spec.md §3). A nil entry in Values means unbound in this
// solution. Offset is the row's position in its producing stream, used
// as the final ORDER BY tie-breaker and by stable-sort bookkeeping; it
// is NOT a variable offset.
type Row struct {
	Values      []Term
	OrderValues []Term
	Offset      int64
}

// NewRow allocates a row of the given width with all values unbound.
func NewRow(size int) Row { return Row{Values: make([]Term, size)} }

// NewRowFrom builds a row directly from values, a convenience used
// heavily by tests (mirrors the teacher's sql.NewRow variadic helper).
func NewRowFrom(values ...Term) Row { return Row{Values: values} }

// SetValue assigns the term at column i.
func (r *Row) SetValue(i int, t Term) { r.Values[i] = t }

// ExpandSize pads the row with unbound (nil) columns up to newSize,
// a no-op if the row is already at least that wide.
func (r *Row) ExpandSize(newSize int) {
	if newSize <= len(r.Values) {
		return
	}
	expanded := make([]Term, newSize)
	copy(expanded, r.Values)
	r.Values = expanded
}

// BindVariables writes each column back into the matching Variable's
// Value field in vars, by position: vars[i] must be the Variable
// declared at local column i by the producing rowsource.
func (r Row) BindVariables(vars []*Variable) {
	for i, v := range vars {
		if i >= len(r.Values) {
			break
		}
		v.Value = r.Values[i]
	}
}

// Copy returns an independent copy of r.
func (r Row) Copy() Row {
	values := make([]Term, len(r.Values))
	copy(values, r.Values)
	var order []Term
	if r.OrderValues != nil {
		order = make([]Term, len(r.OrderValues))
		copy(order, r.OrderValues)
	}
	return Row{Values: values, OrderValues: order, Offset: r.Offset}
}

// RowsEqual compares two rows column-by-column using SameTerm, the
// comparison DISTINCT relies on (spec.md §4.7 "full row equality by RDF
// literal equality per column").
func RowsEqual(a, b Row) bool {
	if len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if !SameTerm(a.Values[i], b.Values[i]) {
			return false
		}
	}
	return true
}

// RowIter is the uniform pull interface every rowsource operator
// exposes to its consumer (spec.md §4.4's "read_row"). Next returns
// io.EOF once exhausted, mirroring the teacher's sql.RowIter contract
// (sql/row_test.go) exactly -- callers treat io.EOF, not a nil error
// with a nil row, as end-of-stream.
type RowIter interface {
	Next(ctx *Context) (Row, error)
	Close(ctx *Context) error
}

// sliceRowIter adapts a fixed slice of rows to RowIter; used by
// RowsToRowIter.
type sliceRowIter struct {
	rows []Row
	pos  int
}

func (s *sliceRowIter) Next(ctx *Context) (Row, error) {
	if s.pos >= len(s.rows) {
		return Row{}, io.EOF
	}
	r := s.rows[s.pos]
	s.pos++
	return r, nil
}

func (s *sliceRowIter) Close(ctx *Context) error { return nil }

// RowsToRowIter wraps a fixed sequence of rows as a RowIter, mirroring
// the teacher's sql.RowsToRowIter test helper. The rowexec RowSequence
// operator (spec.md §4.4.16) keeps its own row slice and does not use it.
func RowsToRowIter(rows ...Row) RowIter { return &sliceRowIter{rows: rows} }

// DrainRows reads every row from it until io.EOF, for operators that
// must buffer their whole inner stream (OrderBy, Aggregation, the
// variable form of Graph, Union's "consume left fully" rule).
func DrainRows(ctx *Context, it RowIter) ([]Row, error) {
	var rows []Row
	for {
		if ctx.Cancelled() {
			return rows, ErrTimeout.New()
		}
		r, err := it.Next(ctx)
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, r)
	}
}
