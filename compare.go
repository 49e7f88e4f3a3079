package ldcore

import (
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// rank buckets the value algebra into the total-ordering classes from
// spec.md §4.2: Nil < Bit < Number < Temporal < String/Text < URI. Cases
// with no defined precedence (Object, Array, Data, Generic, TemporalAmount)
// report rankIncomparable.
type rank int

const (
	rankNil rank = iota
	rankBit
	rankNumber
	rankTemporal
	rankStringy
	rankURI
	rankIncomparable rank = -1
)

func valueRank(v Value) rank {
	switch v.kase {
	case CaseNil:
		return rankNil
	case CaseBit:
		return rankBit
	case CaseIntegral, CaseFloating, CaseInteger, CaseDecimal:
		return rankNumber
	case CaseTemporal:
		return rankTemporal
	case CaseString, CaseText:
		return rankStringy
	case CaseURI:
		return rankURI
	default:
		return rankIncomparable
	}
}

// Unwrap collapses a single-element Array down to its one element, the
// shape a Selector result takes when a property is declared optional-
// cardinality-one. Comparator callers that read query results through an
// optional property should Unwrap before Compare.
func Unwrap(v Value) Value {
	if v.kase == CaseArray && len(v.items) == 1 {
		return v.items[0]
	}
	return v
}

// Compare orders a against b per the §4.2 Comparator rules. ok is false
// when a and b are not comparable: either case has no defined precedence,
// or both are Temporal values of different kinds (same-family-only).
// When ok is true, cmp is negative/zero/positive the way bytes.Compare is.
func Compare(a, b Value) (cmp int, ok bool) {
	a, b = Unwrap(a), Unwrap(b)
	ra, rb := valueRank(a), valueRank(b)
	if ra == rankIncomparable || rb == rankIncomparable {
		return 0, false
	}
	if ra != rb {
		return compareInts(int(ra), int(rb)), true
	}
	switch ra {
	case rankNil:
		return 0, true
	case rankBit:
		return compareBool(a.b, b.b), true
	case rankNumber:
		return numericCompare(a, b)
	case rankTemporal:
		if a.temporal.kind != b.temporal.kind {
			return 0, false
		}
		return compareInts(compareTime(a.temporal.t, b.temporal.t), 0), true
	case rankStringy:
		return compareStringy(a, b), true
	case rankURI:
		return strings.Compare(a.str, b.str), true
	default:
		return 0, false
	}
}

// Comparable reports whether a and b can be ordered at all, without
// computing the order.
func Comparable(a, b Value) bool {
	_, ok := Compare(a, b)
	return ok
}

// compareStringy orders a Text by locale first and lexeme second (§4.2
// "Text compares locale then lexeme"), so Text values in different
// locales never compare equal just because their lexemes match. A String
// carries the root locale for this purpose.
func compareStringy(a, b Value) int {
	la, ta := stringyParts(a)
	lb, tb := stringyParts(b)
	if c := strings.Compare(string(la), string(lb)); c != 0 {
		return c
	}
	return strings.Compare(ta, tb)
}

func stringyParts(v Value) (Locale, string) {
	if v.kase == CaseText {
		return v.locale, v.text
	}
	return LocaleRoot, v.str
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// numericCompare compares across Integral/Floating/Integer/Decimal by
// lifting every operand to apd.Decimal, so no precision is lost comparing
// e.g. an Integer against a Decimal.
func numericCompare(a, b Value) (int, bool) {
	da, err := toDecimal(a)
	if err != nil {
		return 0, false
	}
	db, err := toDecimal(b)
	if err != nil {
		return 0, false
	}
	return decimalSign(da, db), true
}

func toDecimal(v Value) (apd.Decimal, error) {
	switch v.kase {
	case CaseIntegral:
		return *apd.New(v.i64, 0), nil
	case CaseFloating:
		var d apd.Decimal
		_, err := d.SetFloat64(v.f64)
		return d, err
	case CaseInteger:
		var d apd.Decimal
		_, _, err := decimalContext.SetString(&d, v.bigInt.String())
		return d, err
	case CaseDecimal:
		return v.dec, nil
	default:
		return apd.Decimal{}, UnsupportedError("not a numeric value")
	}
}
