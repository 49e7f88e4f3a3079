package ldcore

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Base is the URI a relative URI (or a relative Object "@id") is resolved
// against, and the URI relative encodings are rendered against. An empty
// Base means "no relativization" — encode emits absolute forms and decode
// treats input as already absolute.
//
// Relative/absolute URI resolution is implemented directly on net/url:
// nothing in the example pack ships an RFC 3986 resolver as a standalone
// library, so this one concern is carried on the standard library rather
// than left unimplemented (see DESIGN.md).
type Base string

// Resolve resolves ref against b, the way a browser resolves an <a href>.
func (b Base) Resolve(ref string) string {
	if b == "" {
		return ref
	}
	baseURL, err := url.Parse(string(b))
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

// Relativize renders abs relative to b when b is a prefix of abs and
// either b ends in "/" or abs also ends with b; an abs equal to such a b
// renders as ".". Otherwise (including an empty b) it returns abs
// unchanged.
func (b Base) Relativize(abs string) string {
	if b == "" {
		return abs
	}
	prefix := string(b)
	if strings.HasSuffix(prefix, "/") || strings.HasSuffix(abs, prefix) {
		if strings.HasPrefix(abs, prefix) {
			rel := strings.TrimPrefix(abs, prefix)
			if rel == "" {
				return "."
			}
			return rel
		}
	}
	return abs
}

// Encode renders v in its canonical string form (§3). base scopes URI
// and Object "@id" relativization; it is ignored by every other case.
func (v Value) Encode(base Base) (string, error) {
	switch v.kase {
	case CaseNil:
		return "null", nil
	case CaseBit:
		if v.b {
			return "true", nil
		}
		return "false", nil
	case CaseIntegral:
		return strconv.FormatInt(v.i64, 10), nil
	case CaseFloating:
		return strconv.FormatFloat(v.f64, 'e', -1, 64), nil
	case CaseInteger:
		return v.bigInt.String(), nil
	case CaseDecimal:
		return canonicalDecimalString(v.dec), nil
	case CaseString:
		return v.str, nil
	case CaseURI:
		return string(base.Relativize(v.str)), nil
	case CaseTemporal:
		return encodeTemporal(v.temporal)
	case CaseTemporalAmount:
		return encodeTemporalAmount(v), nil
	case CaseText:
		if v.locale == LocaleRoot {
			return v.text, nil
		}
		return v.text + "@" + string(v.locale), nil
	case CaseData:
		return v.lexical + "^^<" + v.datatype + ">", nil
	case CaseObject:
		id, ok := v.fields.get("@id")
		if !ok {
			return "", nil
		}
		idURI, ok := id.AsURI()
		if !ok {
			return "", nil
		}
		return base.Relativize(idURI), nil
	case CaseArray, CaseGeneric:
		return "", UnsupportedError("case " + v.kase.String() + " has no canonical container encoding; callers encode containers themselves")
	default:
		return "", UnsupportedError("unknown value case")
	}
}

func canonicalDecimalString(d apd.Decimal) string {
	s := d.Text('f')
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func encodeTemporal(t temporalData) (string, error) {
	switch t.kind {
	case TemporalYear:
		return fmt.Sprintf("%04d", t.t.Year()), nil
	case TemporalYearMonth:
		return fmt.Sprintf("%04d-%02d", t.t.Year(), int(t.t.Month())), nil
	case TemporalLocalDate:
		return t.t.Format("2006-01-02"), nil
	case TemporalLocalTime:
		return formatTimeOfDay(t.t), nil
	case TemporalOffsetTime:
		return formatTimeOfDay(t.t) + formatOffset(*t.offset), nil
	case TemporalLocalDateTime:
		return t.t.Format("2006-01-02T15:04:05") + fractional(t.t), nil
	case TemporalOffsetDateTime:
		return t.t.Format("2006-01-02T15:04:05") + fractional(t.t) + formatOffset(*t.offset), nil
	case TemporalZonedDateTime:
		s := t.t.Format("2006-01-02T15:04:05") + fractional(t.t) + formatOffset(*t.offset)
		if t.zone != "" {
			s += "[" + t.zone + "]"
		}
		return s, nil
	case TemporalInstant:
		return t.t.UTC().Format("2006-01-02T15:04:05") + fractional(t.t.UTC()) + "Z", nil
	default:
		return "", UnsupportedError("unknown temporal kind")
	}
}

func formatTimeOfDay(t time.Time) string {
	return t.Format("15:04:05") + fractional(t)
}

func fractional(t time.Time) string {
	if t.Nanosecond() == 0 {
		return ""
	}
	s := fmt.Sprintf(".%09d", t.Nanosecond())
	return strings.TrimRight(s, "0")
}

func formatOffset(d time.Duration) string {
	if d == 0 {
		return "+00:00"
	}
	sign := "+"
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%s%02d:%02d", sign, h, m)
}

func encodeTemporalAmount(v Value) string {
	if v.amountKind == AmountPeriod {
		p := v.period
		if p.years == 0 && p.months == 0 && p.days == 0 {
			return "P0D"
		}
		var b strings.Builder
		b.WriteByte('P')
		if p.years != 0 {
			fmt.Fprintf(&b, "%dY", p.years)
		}
		if p.months != 0 {
			fmt.Fprintf(&b, "%dM", p.months)
		}
		if p.days != 0 {
			fmt.Fprintf(&b, "%dD", p.days)
		}
		return b.String()
	}
	return encodeDuration(v.duration)
}

func encodeDuration(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	secs := d.Seconds()

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString("PT")
	if h > 0 {
		fmt.Fprintf(&b, "%dH", h)
	}
	if m > 0 {
		fmt.Fprintf(&b, "%dM", m)
	}
	if secs > 0 || (h == 0 && m == 0) {
		if secs == float64(int64(secs)) {
			fmt.Fprintf(&b, "%dS", int64(secs))
		} else {
			fmt.Fprintf(&b, "%gS", secs)
		}
	}
	return b.String()
}

// --- decode --------------------------------------------------------------

var (
	reYear          = regexp.MustCompile(`^\d{4}$`)
	reYearMonth     = regexp.MustCompile(`^\d{4}-\d{2}$`)
	reLocalDate     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reLocalTime     = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}(\.\d+)?$`)
	reOffsetTime    = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2}(?:\.\d+)?)(Z|[+-]\d{2}:\d{2})$`)
	reLocalDateTime = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?$`)
	reZonedDateTime = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?)(Z|[+-]\d{2}:\d{2})\[([^\]]+)\]$`)
	reOffsetOrInstant = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?)(Z|[+-]\d{2}:\d{2})$`)

	rePeriod   = regexp.MustCompile(`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)D)?$`)
	reDuration = regexp.MustCompile(`^(-)?PT(?:(\d+)H)?(?:(\d+)M)?(?:([\d.]+)S)?$`)
)

// DecodeTemporal selects the narrowest temporal shape matching s, per
// §4.1 "Temporal decode selects the narrowest matching shape by regex".
func DecodeTemporal(s string) (Value, error) {
	switch {
	case reYear.MatchString(s):
		y, _ := strconv.Atoi(s)
		return NewYear(y), nil
	case reYearMonth.MatchString(s):
		parts := strings.SplitN(s, "-", 2)
		y, _ := strconv.Atoi(parts[0])
		m, _ := strconv.Atoi(parts[1])
		return NewYearMonth(y, m), nil
	case reLocalDate.MatchString(s):
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return Nil, malformed("LocalDate", s)
		}
		return NewLocalDate(t.Year(), int(t.Month()), t.Day()), nil
	case reZonedDateTime.MatchString(s):
		m := reZonedDateTime.FindStringSubmatch(s)
		t, off, err := parseOffsetDateTime(m[1], m[2])
		if err != nil {
			return Nil, err
		}
		return NewZonedDateTime(t.In(fixedZone(off)), m[3]), nil
	case reOffsetOrInstant.MatchString(s):
		m := reOffsetOrInstant.FindStringSubmatch(s)
		t, off, err := parseOffsetDateTime(m[1], m[2])
		if err != nil {
			return Nil, err
		}
		if m[2] == "Z" {
			return NewInstant(t), nil
		}
		return NewOffsetDateTime(t, off), nil
	case reLocalDateTime.MatchString(s):
		t, err := time.Parse("2006-01-02T15:04:05", trimFractional(s))
		if err != nil {
			return Nil, malformed("LocalDateTime", s)
		}
		ns := fractionalNanos(s)
		return NewLocalDateTime(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), ns), nil
	case reOffsetTime.MatchString(s):
		m := reOffsetTime.FindStringSubmatch(s)
		hms, ns := trimFractional(m[1]), fractionalNanos(m[1])
		t, err := time.Parse("15:04:05", hms)
		if err != nil {
			return Nil, malformed("OffsetTime", s)
		}
		off, err := parseOffset(m[2])
		if err != nil {
			return Nil, err
		}
		return NewOffsetTime(t.Hour(), t.Minute(), t.Second(), ns, off), nil
	case reLocalTime.MatchString(s):
		hms, ns := trimFractional(s), fractionalNanos(s)
		t, err := time.Parse("15:04:05", hms)
		if err != nil {
			return Nil, malformed("LocalTime", s)
		}
		return NewLocalTime(t.Hour(), t.Minute(), t.Second(), ns), nil
	default:
		return Nil, malformed("Temporal", s)
	}
}

func trimFractional(s string) string {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}

func fractionalNanos(s string) int {
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	frac := s[i+1:]
	for len(frac) < 9 {
		frac += "0"
	}
	frac = frac[:9]
	n, _ := strconv.Atoi(frac)
	return n
}

func parseOffset(s string) (time.Duration, error) {
	if s == "Z" {
		return 0, nil
	}
	sign := time.Duration(1)
	if s[0] == '-' {
		sign = -1
	}
	hh, _ := strconv.Atoi(s[1:3])
	mm, _ := strconv.Atoi(s[4:6])
	return sign * (time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute), nil
}

func parseOffsetDateTime(dateTimePart, offsetPart string) (time.Time, time.Duration, error) {
	hms, ns := trimFractional(dateTimePart), fractionalNanos(dateTimePart)
	t, err := time.Parse("2006-01-02T15:04:05", hms)
	if err != nil {
		return time.Time{}, 0, malformed("OffsetDateTime", dateTimePart)
	}
	t = t.Add(time.Duration(ns))
	off, err := parseOffset(offsetPart)
	if err != nil {
		return time.Time{}, 0, err
	}
	return t, off, nil
}

func fixedZone(off time.Duration) *time.Location {
	return time.FixedZone("", int(off.Seconds()))
}

// DecodeTemporalAmount parses an ISO-8601 Period or Duration lexical form.
func DecodeTemporalAmount(s string) (Value, error) {
	if m := rePeriod.FindStringSubmatch(s); m != nil && s != "P" {
		y := atoiOr(m[1], 0)
		mo := atoiOr(m[2], 0)
		d := atoiOr(m[3], 0)
		return NewPeriod(y, mo, d), nil
	}
	if m := reDuration.FindStringSubmatch(s); m != nil {
		neg := m[1] == "-"
		h := atoiOr(m[2], 0)
		mi := atoiOr(m[3], 0)
		secStr := m[4]
		var dur time.Duration
		dur += time.Duration(h) * time.Hour
		dur += time.Duration(mi) * time.Minute
		if secStr != "" {
			secF, err := strconv.ParseFloat(secStr, 64)
			if err != nil {
				return Nil, malformed("Duration", s)
			}
			dur += time.Duration(secF * float64(time.Second))
		}
		if neg {
			dur = -dur
		}
		return NewDuration(dur), nil
	}
	return Nil, malformed("TemporalAmount", s)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// DecodeURI resolves s against base and returns a URI value.
func DecodeURI(s string, base Base) Value {
	return NewURI(base.Resolve(s))
}

// DecodeData parses a "lexical^^<datatype>" or bare lexical (defaulting to
// xsd:string) canonical form.
func DecodeData(s string) (Value, error) {
	if i := strings.LastIndex(s, "^^<"); i >= 0 && strings.HasSuffix(s, ">") {
		lexical := s[:i]
		datatype := s[i+3 : len(s)-1]
		return NewData(datatype, lexical)
	}
	return NewData(XSDString, s)
}

// DecodeText parses a "text@lang" or bare "text" (root locale) canonical
// form.
func DecodeText(s string) Value {
	if i := strings.LastIndex(s, "@"); i > 0 {
		return NewText(Locale(s[i+1:]), s[:i])
	}
	return NewText(LocaleRoot, s)
}
