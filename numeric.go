package ldcore

import (
	"math/big"
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// decimalContext is shared by every Decimal operation in this package.
// Precision is generous since Decimal is meant to preserve exact lexical
// scale (e.g. "3.1400"), not to support heavy arithmetic.
var decimalContext = apd.BaseContext.WithPrecision(100)

// decimalSign returns -1, 0, or 1 the way big.Int.Cmp does, comparing a
// and b by numeric value regardless of scale (per the §3 Decimal equality
// invariant).
func decimalSign(a, b apd.Decimal) int {
	var diff apd.Decimal
	if _, err := decimalContext.Sub(&diff, &a, &b); err != nil {
		return 0
	}
	return diff.Sign()
}

// ParseDecimal parses a decimal literal using the shared context. Canonical
// encoding requires scale >= 1; parsing accepts any valid decimal lexical
// form (see encode.go's canonicalDecimalString for the scale-normalizing
// encoder).
func ParseDecimal(s string) (apd.Decimal, error) {
	var d apd.Decimal
	if _, _, err := decimalContext.SetString(&d, s); err != nil {
		return apd.Decimal{}, malformed("Decimal", s)
	}
	return d, nil
}

// Number builds the best precise Value for a Go numeric x, dispatching by
// x's runtime shape: integers narrow enough for int64 become Integral,
// wider integers become Integer, decimal.Decimal-shaped inputs become
// Decimal, and floats become Floating. This is the one place in the
// algebra that inspects a foreign Go type, since its entire job is mapping
// "whatever numeric shape the caller handed us" onto the variant that
// represents it without loss.
func Number(x any) (Value, error) {
	switch t := x.(type) {
	case int:
		return NewIntegral(int64(t)), nil
	case int8:
		return NewIntegral(int64(t)), nil
	case int16:
		return NewIntegral(int64(t)), nil
	case int32:
		return NewIntegral(int64(t)), nil
	case int64:
		return NewIntegral(t), nil
	case uint, uint8, uint16, uint32:
		return NewIntegral(toInt64(t)), nil
	case uint64:
		if t <= 1<<63-1 {
			return NewIntegral(int64(t)), nil
		}
		return NewInteger(new(big.Int).SetUint64(t))
	case *big.Int:
		if t.IsInt64() {
			return NewIntegral(t.Int64()), nil
		}
		return NewInteger(t)
	case big.Int:
		return Number(&t)
	case apd.Decimal:
		return NewDecimal(t), nil
	case *apd.Decimal:
		return NewDecimal(*t), nil
	case float32:
		return NewFloating(float64(t))
	case float64:
		return NewFloating(t)
	case string:
		return decodeNumberString(t)
	default:
		return Nil, argumentError("unsupported-number", "cannot dispatch Number() for unsupported type")
	}
}

func toInt64(x any) int64 {
	switch t := x.(type) {
	case uint:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	default:
		return 0
	}
}

// decodeNumberString dispatches decode to Floating (an 'e' or 'E' is
// present), Decimal (a '.' is present), or otherwise Integral when the
// value fits in int64 and Integer when it does not, per §4.1
// "Encode/decode".
func decodeNumberString(s string) (Value, error) {
	hasDot, hasExp := false, false
	for _, r := range s {
		switch r {
		case '.':
			hasDot = true
		case 'e', 'E':
			hasExp = true
		}
	}
	switch {
	case hasExp:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Nil, malformed("Floating", s)
		}
		return NewFloating(f)
	case hasDot:
		d, err := ParseDecimal(s)
		if err != nil {
			return Nil, err
		}
		return NewDecimal(d), nil
	default:
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return NewIntegral(i), nil
		}
		bi, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return Nil, malformed("Integer", s)
		}
		return NewInteger(bi)
	}
}
