package xsd

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Promote returns the wider of two numeric kinds per the promotion
// tower integer -> decimal -> float -> double (spec.md §3).
func Promote(a, b Kind) Kind {
	rank := func(k Kind) int {
		switch k {
		case KindInteger:
			return 0
		case KindDecimal:
			return 1
		case KindFloat:
			return 2
		case KindDouble:
			return 3
		default:
			return -1
		}
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

// AsDecimal widens v to a decimal.Decimal for promotion purposes.
func (v Value) AsDecimal() decimal.Decimal {
	switch v.Kind {
	case KindInteger:
		return decimal.NewFromInt(v.Int)
	case KindDecimal:
		return v.Dec
	case KindFloat:
		return decimal.NewFromFloat32(v.Float32)
	case KindDouble:
		return decimal.NewFromFloat(v.Float64)
	default:
		return decimal.Zero
	}
}

// AsFloat64 widens v to a float64.
func (v Value) AsFloat64() float64 {
	switch v.Kind {
	case KindInteger:
		return float64(v.Int)
	case KindDecimal:
		f, _ := v.Dec.Float64()
		return f
	case KindFloat:
		return float64(v.Float32)
	case KindDouble:
		return v.Float64
	default:
		return 0
	}
}

// Arith applies a binary arithmetic operator ("+", "-", "*", "/") to two
// numeric values, promoting to their common kind first. Division by
// zero returns a "division by zero" error. Integer / integer returns a decimal per
// spec.md §4.2.
func Arith(op string, a, b Value) (Value, error) {
	if !a.Kind.IsNumeric() || !b.Kind.IsNumeric() {
		return Value{}, fmt.Errorf("xsd: arith on non-numeric kind")
	}
	kind := Promote(a.Kind, b.Kind)
	if op == "/" {
		if kind == KindInteger {
			kind = KindDecimal
		}
	}
	switch kind {
	case KindInteger:
		x, y := a.Int, b.Int
		switch op {
		case "+":
			return Value{Kind: KindInteger, Int: x + y}, nil
		case "-":
			return Value{Kind: KindInteger, Int: x - y}, nil
		case "*":
			return Value{Kind: KindInteger, Int: x * y}, nil
		}
	case KindDecimal:
		x, y := a.AsDecimal(), b.AsDecimal()
		switch op {
		case "+":
			return Value{Kind: KindDecimal, Dec: x.Add(y)}, nil
		case "-":
			return Value{Kind: KindDecimal, Dec: x.Sub(y)}, nil
		case "*":
			return Value{Kind: KindDecimal, Dec: x.Mul(y)}, nil
		case "/":
			if y.IsZero() {
				return Value{}, fmt.Errorf("xsd: division by zero")
			}
			return Value{Kind: KindDecimal, Dec: x.DivRound(y, 34)}, nil
		}
	case KindFloat:
		x, y := a.AsFloat64(), b.AsFloat64()
		r, err := floatArith(op, x, y)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindFloat, Float32: float32(r)}, nil
	case KindDouble:
		x, y := a.AsFloat64(), b.AsFloat64()
		r, err := floatArith(op, x, y)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindDouble, Float64: r}, nil
	}
	return Value{}, fmt.Errorf("xsd: unknown arithmetic operator %q", op)
}

func floatArith(op string, x, y float64) (float64, error) {
	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		if y == 0 {
			return 0, fmt.Errorf("xsd: division by zero")
		}
		return x / y, nil
	}
	return 0, fmt.Errorf("xsd: unknown arithmetic operator %q", op)
}

// Negate returns the unary negation of v.
func Negate(v Value) (Value, error) {
	switch v.Kind {
	case KindInteger:
		return Value{Kind: KindInteger, Int: -v.Int}, nil
	case KindDecimal:
		return Value{Kind: KindDecimal, Dec: v.Dec.Neg()}, nil
	case KindFloat:
		return Value{Kind: KindFloat, Float32: -v.Float32}, nil
	case KindDouble:
		return Value{Kind: KindDouble, Float64: -v.Float64}, nil
	default:
		return Value{}, fmt.Errorf("xsd: negate on non-numeric kind")
	}
}

// Compare compares two numeric values after promotion. Returns an
// error if either operand's promoted kind is double/float and
// holds NaN (spec.md §9 open question, pinned down: any NaN participant
// is a TypeError, never a silent ordering).
func Compare(a, b Value) (int, error) {
	if !a.Kind.IsNumeric() || !b.Kind.IsNumeric() {
		return 0, fmt.Errorf("xsd: compare on non-numeric kind")
	}
	kind := Promote(a.Kind, b.Kind)
	switch kind {
	case KindInteger:
		switch {
		case a.Int < b.Int:
			return -1, nil
		case a.Int > b.Int:
			return 1, nil
		default:
			return 0, nil
		}
	case KindDecimal:
		return a.AsDecimal().Cmp(b.AsDecimal()), nil
	case KindFloat, KindDouble:
		x, y := a.AsFloat64(), b.AsFloat64()
		if math.IsNaN(x) || math.IsNaN(y) {
			return 0, fmt.Errorf("xsd: NaN is not comparable")
		}
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, fmt.Errorf("xsd: incomparable numeric kinds")
}

// Zero returns the additive identity for SUM/AVG over an empty group,
// an integer 0 per spec.md §4.6.
func Zero() Value { return Value{Kind: KindInteger, Int: 0} }
