package sparql

import (
	"fmt"
	"strings"

	"github.com/rdfkit/sparqlengine/sparql/xsd"
)

// Term is the tagged union of RDF terms plus two non-RDF kinds: QName,
// which qname expansion eliminates during preparation, and VariableRef,
// which names a variable in a triple-pattern position (blank-node
// anonymisation turns blank nodes into VariableRefs) (spec.md §4.8).
//
// Modeled as an interface with a private marker method rather than a
// struct carrying a discriminant tag: see spec.md §9 "tagged-union terms"
// redesign note.
type Term interface {
	fmt.Stringer
	isTerm()
}

// URI is an absolute IRI term.
type URI string

func (URI) isTerm()         {}
func (u URI) String() string { return string(u) }

// BlankNode is a label unique within a parse/query.
type BlankNode struct {
	Label string
}

func (BlankNode) isTerm()          {}
func (b BlankNode) String() string { return "_:" + b.Label }

// Literal is a lexical form plus one of {language tag, datatype IRI,
// neither}. Typed literals whose datatype is numeric or temporal cache a
// native xsd.Value computed once at construction; Native returns it.
type Literal struct {
	Lexical  string
	Lang     string // language tag; mutually exclusive with Datatype
	Datatype URI    // empty URI means "simple literal" (xsd:string-like, untyped)

	native *xsd.Value // cached; nil if not a recognised numeric/temporal/boolean type
}

func (Literal) isTerm() {}

func (l Literal) String() string {
	switch {
	case l.Lang != "":
		return fmt.Sprintf("%q@%s", l.Lexical, l.Lang)
	case l.Datatype != "":
		return fmt.Sprintf("%q^^<%s>", l.Lexical, string(l.Datatype))
	default:
		return fmt.Sprintf("%q", l.Lexical)
	}
}

// NewLiteral builds a plain literal with no language tag or datatype.
func NewLiteral(lexical string) Literal {
	return Literal{Lexical: lexical}
}

// NewLangLiteral builds a language-tagged literal.
func NewLangLiteral(lexical, lang string) Literal {
	return Literal{Lexical: lexical, Lang: lang}
}

// NewTypedLiteral builds a datatype-tagged literal, eagerly computing and
// caching its native value for numeric/boolean/temporal datatypes known
// to xsd.Parse. A datatype xsd.Parse doesn't recognise (e.g. a custom
// user datatype) is stored with native == nil: it still round-trips as a
// term, it simply never participates in numeric promotion.
func NewTypedLiteral(lexical string, datatype URI) Literal {
	l := Literal{Lexical: lexical, Datatype: datatype}
	if v, ok := xsd.Parse(string(datatype), lexical); ok {
		l.native = &v
	}
	return l
}

// Native returns the cached numeric/boolean/temporal value and whether
// one exists for this literal's datatype.
func (l Literal) Native() (xsd.Value, bool) {
	if l.native == nil {
		return xsd.Value{}, false
	}
	return *l.native, true
}

// IsSimple reports whether l has neither a language tag nor a datatype
// (a "simple literal" in SPARQL terms, treated as xsd:string for most
// string functions).
func (l Literal) IsSimple() bool { return l.Lang == "" && l.Datatype == "" }

// VariableRef is a reference to a registered Variable, carrying its
// stable offset into the owning VariablesTable. It only ever appears
// inside expression trees and triple-pattern positions; it can never be
// a value bound into a Row.
type VariableRef struct {
	Offset int
	Name   string
}

func (VariableRef) isTerm()          {}
func (v VariableRef) String() string { return "?" + v.Name }

// QName is a transient, pre-preparation term: a prefix:local pair the
// textual front end hands the engine before namespace expansion. Qname
// expansion (spec.md §4.8 step 1) eliminates every QName before the
// algebra tree is built; none should reach a rowsource.
type QName struct {
	Prefix string
	Local  string
}

func (QName) isTerm() {}
func (q QName) String() string {
	if q.Prefix == "" {
		return ":" + q.Local
	}
	return q.Prefix + ":" + q.Local
}

// SameTerm implements SPARQL sameTerm semantics: lexical form plus
// datatype/language equality, with NO value-level numeric/temporal
// promotion. Two differently-spelled but value-equal typed literals
// (e.g. "1"^^xsd:integer vs "01"^^xsd:integer) are NOT sameTerm.
func SameTerm(a, b Term) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case URI:
		bv, ok := b.(URI)
		return ok && av == bv
	case BlankNode:
		bv, ok := b.(BlankNode)
		return ok && av.Label == bv.Label
	case Literal:
		bv, ok := b.(Literal)
		if !ok {
			return false
		}
		return av.Lexical == bv.Lexical && av.Lang == bv.Lang && av.Datatype == bv.Datatype
	case VariableRef:
		bv, ok := b.(VariableRef)
		return ok && av.Offset == bv.Offset
	case QName:
		bv, ok := b.(QName)
		return ok && av.Prefix == bv.Prefix && av.Local == bv.Local
	default:
		return false
	}
}

// IsBound reports whether t represents an actual bound value (as opposed
// to a nil Go interface value, the engine's "unbound" sentinel).
func IsBound(t Term) bool { return t != nil }

// EscapeXMLText XML-escapes '<', '&', '>', '"' for the result-set XML
// serializer (spec.md §6). Escaping then unescaping must be the identity
// on those four characters (spec.md §8 round-trip law).
func EscapeXMLText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
