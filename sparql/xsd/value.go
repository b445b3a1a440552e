// Package xsd implements the RDF numeric/boolean/temporal value tower:
// parsing XSD lexical forms into native Go values, the promotion order
// used by arithmetic and comparison, and the decimal canonicalisation
// rule used when re-printing an xsd:decimal (spec.md §8 round-trip law).
//
// Grounded on the teacher's sql/types number/decimal handling
// (sql/numbertype_test.go, sql/decimal_test.go): shopspring/decimal backs
// arbitrary-precision decimal exactly as the teacher's Decimal type does.
package xsd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags the native representation a parsed literal carries.
type Kind int

const (
	// KindNone is not a recognised numeric/boolean/temporal datatype.
	KindNone Kind = iota
	KindBoolean
	KindInteger // covers xsd:integer and all its restricted subtypes
	KindDecimal
	KindFloat
	KindDouble
	KindDateTime
	KindDate
)

// Value is the cached native value of a typed Literal.
type Value struct {
	Kind    Kind
	Bool    bool
	Int     int64
	Dec     decimal.Decimal
	Float32 float32
	Float64 float64
	Time    time.Time
}

// integerDatatypes lists every XSD integer-family datatype this engine
// recognises by local name (the namespace prefix is stripped by callers
// before consulting this table; see Parse).
var integerDatatypes = map[string]bool{
	"integer": true, "int": true, "long": true, "short": true, "byte": true,
	"nonNegativeInteger": true, "nonPositiveInteger": true,
	"negativeInteger": true, "positiveInteger": true,
	"unsignedLong": true, "unsignedInt": true, "unsignedShort": true, "unsignedByte": true,
}

// localName strips a namespace IRI down to its final fragment or path
// segment, e.g. "http://www.w3.org/2001/XMLSchema#integer" -> "integer".
func localName(datatypeIRI string) string {
	if i := strings.LastIndexAny(datatypeIRI, "#/"); i >= 0 {
		return datatypeIRI[i+1:]
	}
	return datatypeIRI
}

// Parse converts a lexical form under a given XSD datatype IRI into its
// native Value. ok is false for datatypes this tower doesn't model
// (including plain user datatypes), in which case the literal is still a
// valid term -- it just never participates in numeric promotion.
func Parse(datatypeIRI, lexical string) (Value, bool) {
	name := localName(datatypeIRI)
	switch {
	case name == "boolean":
		b, err := strconv.ParseBool(strings.TrimSpace(lexical))
		if err != nil {
			return Value{}, false
		}
		return Value{Kind: KindBoolean, Bool: b}, true
	case integerDatatypes[name]:
		n, err := strconv.ParseInt(strings.TrimSpace(lexical), 10, 64)
		if err != nil {
			return Value{}, false
		}
		return Value{Kind: KindInteger, Int: n}, true
	case name == "decimal":
		d, err := decimal.NewFromString(strings.TrimSpace(lexical))
		if err != nil {
			return Value{}, false
		}
		return Value{Kind: KindDecimal, Dec: d}, true
	case name == "float":
		f, err := strconv.ParseFloat(strings.TrimSpace(lexical), 32)
		if err != nil {
			return Value{}, false
		}
		return Value{Kind: KindFloat, Float32: float32(f)}, true
	case name == "double":
		f, err := strconv.ParseFloat(strings.TrimSpace(lexical), 64)
		if err != nil {
			return Value{}, false
		}
		return Value{Kind: KindDouble, Float64: f}, true
	case name == "dateTime":
		t, err := parseDateTime(lexical)
		if err != nil {
			return Value{}, false
		}
		return Value{Kind: KindDateTime, Time: t}, true
	case name == "date":
		t, err := time.Parse("2006-01-02", strings.SplitN(lexical, "Z", 2)[0])
		if err != nil {
			t, err = time.Parse("2006-01-02Z07:00", lexical)
			if err != nil {
				return Value{}, false
			}
		}
		return Value{Kind: KindDate, Time: t}, true
	default:
		return Value{}, false
	}
}

func parseDateTime(lexical string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, lexical); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("xsd: invalid dateTime lexical %q", lexical)
}

// CanonicalDecimal strips trailing zeros from a decimal lexical form
// after the decimal point, keeping at least one digit after the point
// (spec.md §8 round-trip law).
func CanonicalDecimal(lexical string) string {
	dot := strings.IndexByte(lexical, '.')
	if dot < 0 {
		return lexical + ".0"
	}
	i := len(lexical) - 1
	for i > dot+1 && lexical[i] == '0' {
		i--
	}
	return lexical[:i+1]
}

// IsNumeric reports whether k participates in the arithmetic/comparison
// numeric tower.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindInteger, KindDecimal, KindFloat, KindDouble:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindDateTime:
		return "dateTime"
	case KindDate:
		return "date"
	default:
		return "none"
	}
}
