package expression

import "github.com/rdfkit/sparqlengine/sparql"

// Literal wraps a constant sparql.Term as a leaf expression node. It is
// also the node constant folding replaces a closed subtree with.
type Literal struct {
	Value sparql.Term
}

// NewLiteral constructs a literal expression node from a term.
func NewLiteral(v sparql.Term) *Literal { return &Literal{Value: v} }

func (l *Literal) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) { return l.Value, nil }
func (l *Literal) Children() []Expression                                { return nil }
func (l *Literal) WithChildren(children ...Expression) Expression        { return l }
func (l *Literal) String() string                                        { return l.Value.String() }
func (l *Literal) OpTag() string                                         { return "Literal" }

// VariableRef resolves a variable by its local column index within the
// evaluating row. The local index is assigned by rowexec.Build when it
// rebinds each expression to its rowsource's columns (spec.md §4.1's
// global Offset is preserved on
// the node for diagnostics and for EXISTS pre-binding, but evaluation
// reads row.Values[LocalIndex]).
type VariableRef struct {
	Offset     int    // global offset into the query's VariablesTable
	Name       string
	LocalIndex int // column index within the row this node is evaluated against
}

// NewVariableRef constructs a variable-reference expression node.
func NewVariableRef(offset int, name string, localIndex int) *VariableRef {
	return &VariableRef{Offset: offset, Name: name, LocalIndex: localIndex}
}

func (v *VariableRef) Eval(ctx *Context, row sparql.Row) (sparql.Term, error) {
	if v.LocalIndex < 0 || v.LocalIndex >= len(row.Values) {
		return nil, nil
	}
	return row.Values[v.LocalIndex], nil
}
func (v *VariableRef) Children() []Expression { return nil }
func (v *VariableRef) WithChildren(children ...Expression) Expression { return v }
func (v *VariableRef) String() string { return "?" + v.Name }
func (v *VariableRef) OpTag() string  { return "VariableRef" }

// WithLocalIndex returns a copy of v rebound to a different row column,
// used when the same global variable is evaluated against rows produced
// by different rowsources (rowexec.Build's rebinding of each operator's
// expressions).
func (v *VariableRef) WithLocalIndex(i int) *VariableRef {
	nv := *v
	nv.LocalIndex = i
	return &nv
}
