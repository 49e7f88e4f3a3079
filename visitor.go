package ldcore

// Visitor is the double-dispatch extension point for the value algebra
// (§4.1 "Visitor dispatch"). It is a dispatch table, not an interface: a
// caller fills in only the cases it cares about, and Accept walks the
// documented fallback chain for every case the caller left nil.
//
// Fallback chains:
//   - numeric family: Integral -> Number -> Object
//                      Floating -> Number -> Object
//                      Integer  -> Number -> Object
//                      Decimal  -> Number -> Object
//   - temporal family: every concrete temporal kind -> Temporal -> Object
//   - temporal-amount family: Period/Duration -> TemporalAmount -> Object
//
// R is the visitor's result type; every method also returns an error so a
// visitor can signal failure without panicking (the "throwable channel").
type Visitor[R any] struct {
	Nil      func() (R, error)
	Bit      func(bool) (R, error)
	Integral func(int64) (R, error)
	Floating func(float64) (R, error)
	Integer  func(v Value) (R, error)
	Decimal  func(v Value) (R, error)
	Number   func(v Value) (R, error) // fallback for Integral/Floating/Integer/Decimal

	String func(string) (R, error)
	URI    func(string) (R, error)

	Year           func(v Value) (R, error)
	YearMonth      func(v Value) (R, error)
	LocalDate      func(v Value) (R, error)
	LocalTime      func(v Value) (R, error)
	OffsetTime     func(v Value) (R, error)
	LocalDateTime  func(v Value) (R, error)
	OffsetDateTime func(v Value) (R, error)
	ZonedDateTime  func(v Value) (R, error)
	Instant        func(v Value) (R, error)
	Temporal       func(v Value) (R, error) // fallback for all nine kinds above

	Period         func(v Value) (R, error)
	Duration       func(v Value) (R, error)
	TemporalAmount func(v Value) (R, error) // fallback for Period/Duration

	Text func(locale Locale, text string) (R, error)
	Data func(datatype, lexical string) (R, error)

	Object func(v Value) (R, error) // also the final catch-all
	Array  func(v Value) (R, error)

	Generic func(payload any) (R, error)
}

// Accept dispatches v to the most specific function the visitor provides,
// falling back along the documented chain, terminating at Object (the
// universal fallback) if nothing more specific was supplied.
func (v Value) Accept(vis Visitor[any]) (any, error) {
	return acceptAny(v, vis)
}

func acceptAny(v Value, vis Visitor[any]) (any, error) {
	switch v.kase {
	case CaseNil:
		if vis.Nil != nil {
			return vis.Nil()
		}
		return fallbackObject(v, vis)
	case CaseBit:
		if vis.Bit != nil {
			return vis.Bit(v.b)
		}
		return fallbackObject(v, vis)
	case CaseIntegral:
		if vis.Integral != nil {
			return vis.Integral(v.i64)
		}
		return fallbackNumber(v, vis)
	case CaseFloating:
		if vis.Floating != nil {
			return vis.Floating(v.f64)
		}
		return fallbackNumber(v, vis)
	case CaseInteger:
		if vis.Integer != nil {
			return vis.Integer(v)
		}
		return fallbackNumber(v, vis)
	case CaseDecimal:
		if vis.Decimal != nil {
			return vis.Decimal(v)
		}
		return fallbackNumber(v, vis)
	case CaseString:
		if vis.String != nil {
			return vis.String(v.str)
		}
		return fallbackObject(v, vis)
	case CaseURI:
		if vis.URI != nil {
			return vis.URI(v.str)
		}
		return fallbackObject(v, vis)
	case CaseTemporal:
		return acceptTemporal(v, vis)
	case CaseTemporalAmount:
		return acceptTemporalAmount(v, vis)
	case CaseText:
		if vis.Text != nil {
			return vis.Text(v.locale, v.text)
		}
		return fallbackObject(v, vis)
	case CaseData:
		if vis.Data != nil {
			return vis.Data(v.datatype, v.lexical)
		}
		return fallbackObject(v, vis)
	case CaseObject:
		if vis.Object != nil {
			return vis.Object(v)
		}
		return nil, UnsupportedError("visitor has no Object handler")
	case CaseArray:
		if vis.Array != nil {
			return vis.Array(v)
		}
		return fallbackObject(v, vis)
	case CaseGeneric:
		if vis.Generic != nil {
			return vis.Generic(v.generic)
		}
		return fallbackObject(v, vis)
	default:
		return nil, UnsupportedError("unknown value case")
	}
}

func fallbackNumber(v Value, vis Visitor[any]) (any, error) {
	if vis.Number != nil {
		return vis.Number(v)
	}
	return fallbackObject(v, vis)
}

func fallbackObject(v Value, vis Visitor[any]) (any, error) {
	if vis.Object != nil {
		return vis.Object(v)
	}
	return nil, UnsupportedError("unsupported value of case " + v.kase.String())
}

func acceptTemporal(v Value, vis Visitor[any]) (any, error) {
	switch v.temporal.kind {
	case TemporalYear:
		if vis.Year != nil {
			return vis.Year(v)
		}
	case TemporalYearMonth:
		if vis.YearMonth != nil {
			return vis.YearMonth(v)
		}
	case TemporalLocalDate:
		if vis.LocalDate != nil {
			return vis.LocalDate(v)
		}
	case TemporalLocalTime:
		if vis.LocalTime != nil {
			return vis.LocalTime(v)
		}
	case TemporalOffsetTime:
		if vis.OffsetTime != nil {
			return vis.OffsetTime(v)
		}
	case TemporalLocalDateTime:
		if vis.LocalDateTime != nil {
			return vis.LocalDateTime(v)
		}
	case TemporalOffsetDateTime:
		if vis.OffsetDateTime != nil {
			return vis.OffsetDateTime(v)
		}
	case TemporalZonedDateTime:
		if vis.ZonedDateTime != nil {
			return vis.ZonedDateTime(v)
		}
	case TemporalInstant:
		if vis.Instant != nil {
			return vis.Instant(v)
		}
	}
	if vis.Temporal != nil {
		return vis.Temporal(v)
	}
	return fallbackObject(v, vis)
}

func acceptTemporalAmount(v Value, vis Visitor[any]) (any, error) {
	switch v.amountKind {
	case AmountPeriod:
		if vis.Period != nil {
			return vis.Period(v)
		}
	case AmountDuration:
		if vis.Duration != nil {
			return vis.Duration(v)
		}
	}
	if vis.TemporalAmount != nil {
		return vis.TemporalAmount(v)
	}
	return fallbackObject(v, vis)
}
