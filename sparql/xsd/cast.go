package xsd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Cast converts a lexical form to a target datatype's native value,
// following XSD cast rules. Failure is reported via the bool return
// (never a thrown exception): the caller maps a failed cast to a
// TypeError that drops the enclosing filter row (spec.md §4.2, §7).
func Cast(lexical string, target Kind) (Value, bool) {
	lexical = strings.TrimSpace(lexical)
	switch target {
	case KindBoolean:
		switch lexical {
		case "true", "1":
			return Value{Kind: KindBoolean, Bool: true}, true
		case "false", "0":
			return Value{Kind: KindBoolean, Bool: false}, true
		default:
			return Value{}, false
		}
	case KindInteger:
		n, err := strconv.ParseInt(lexical, 10, 64)
		if err != nil {
			// xsd:integer("3.0") truncates a decimal-looking lexical.
			if d, derr := decimal.NewFromString(lexical); derr == nil {
				return Value{Kind: KindInteger, Int: d.IntPart()}, true
			}
			return Value{}, false
		}
		return Value{Kind: KindInteger, Int: n}, true
	case KindDecimal:
		d, err := decimal.NewFromString(lexical)
		if err != nil {
			return Value{}, false
		}
		return Value{Kind: KindDecimal, Dec: d}, true
	case KindFloat:
		f, err := strconv.ParseFloat(lexical, 32)
		if err != nil {
			return Value{}, false
		}
		return Value{Kind: KindFloat, Float32: float32(f)}, true
	case KindDouble:
		f, err := strconv.ParseFloat(lexical, 64)
		if err != nil {
			return Value{}, false
		}
		return Value{Kind: KindDouble, Float64: f}, true
	case KindDateTime:
		t, err := parseDateTime(lexical)
		if err != nil {
			return Value{}, false
		}
		return Value{Kind: KindDateTime, Time: t}, true
	default:
		return Value{}, false
	}
}

// Lexical re-renders v's canonical lexical form, used for the results
// of non-string CASTs, arithmetic, aggregates and RAND().
func Lexical(v Value) string {
	switch v.Kind {
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindDecimal:
		return CanonicalDecimal(v.Dec.String())
	case KindFloat:
		return strconv.FormatFloat(float64(v.Float32), 'g', -1, 32)
	case KindDouble:
		return strconv.FormatFloat(v.Float64, 'g', -1, 64)
	case KindDateTime:
		return v.Time.Format("2006-01-02T15:04:05.999999999Z07:00")
	case KindDate:
		return v.Time.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", v)
	}
}
