package ldcore

import (
	"math/big"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Case identifies which variant of the value algebra a Value carries.
type Case int

const (
	CaseNil Case = iota
	CaseBit
	CaseIntegral
	CaseFloating
	CaseInteger
	CaseDecimal
	CaseString
	CaseURI
	CaseTemporal
	CaseTemporalAmount
	CaseText
	CaseData
	CaseObject
	CaseArray
	CaseGeneric
)

func (c Case) String() string {
	switch c {
	case CaseNil:
		return "Nil"
	case CaseBit:
		return "Bit"
	case CaseIntegral:
		return "Integral"
	case CaseFloating:
		return "Floating"
	case CaseInteger:
		return "Integer"
	case CaseDecimal:
		return "Decimal"
	case CaseString:
		return "String"
	case CaseURI:
		return "URI"
	case CaseTemporal:
		return "Temporal"
	case CaseTemporalAmount:
		return "TemporalAmount"
	case CaseText:
		return "Text"
	case CaseData:
		return "Data"
	case CaseObject:
		return "Object"
	case CaseArray:
		return "Array"
	case CaseGeneric:
		return "Generic"
	default:
		return "Unknown"
	}
}

// Locale is a BCP-47-ish language tag. The zero value is the root locale
// (no language), rendered without an "@lang" suffix by Text.encode.
type Locale string

// LocaleRoot is the root (language-less) locale.
const LocaleRoot Locale = ""

// TemporalKind distinguishes the nine temporal shapes from §3.
type TemporalKind int

const (
	TemporalYear TemporalKind = iota
	TemporalYearMonth
	TemporalLocalDate
	TemporalLocalTime
	TemporalOffsetTime
	TemporalLocalDateTime
	TemporalOffsetDateTime
	TemporalZonedDateTime
	TemporalInstant
)

func (k TemporalKind) String() string {
	switch k {
	case TemporalYear:
		return "Year"
	case TemporalYearMonth:
		return "YearMonth"
	case TemporalLocalDate:
		return "LocalDate"
	case TemporalLocalTime:
		return "LocalTime"
	case TemporalOffsetTime:
		return "OffsetTime"
	case TemporalLocalDateTime:
		return "LocalDateTime"
	case TemporalOffsetDateTime:
		return "OffsetDateTime"
	case TemporalZonedDateTime:
		return "ZonedDateTime"
	case TemporalInstant:
		return "Instant"
	default:
		return "Unknown"
	}
}

// temporalData is the shared payload for all nine temporal kinds. Which
// fields are meaningful depends on Kind; unused fields are zero.
type temporalData struct {
	kind   TemporalKind
	t      time.Time // wall-clock components, always in the value's own offset
	offset *time.Duration
	zone   string // IANA zone id, ZonedDateTime only
}

// TemporalAmountKind distinguishes Period (date-based) from Duration
// (time-based) amounts.
type TemporalAmountKind int

const (
	AmountPeriod TemporalAmountKind = iota
	AmountDuration
)

func (k TemporalAmountKind) String() string {
	if k == AmountPeriod {
		return "Period"
	}
	return "Duration"
}

// periodData holds a calendar Period (years/months/days); durationData
// holds an exact Duration in nanoseconds.
type periodData struct {
	years, months, days int
}

// Value is the closed polymorphic datum described in spec.md §3. It is an
// immutable tagged union: exactly one group of fields is meaningful,
// selected by kase. Values are always passed and returned by value; the
// only shared mutable-looking state (Object fields, Array items) is never
// mutated after construction, only replaced wholesale by factories that
// build a new Value.
type Value struct {
	kase Case

	b   bool
	i64 int64
	f64 float64

	bigInt *big.Int
	dec    apd.Decimal

	str string // String and URI lexical form

	temporal temporalData

	amountKind TemporalAmountKind
	period     periodData
	duration   time.Duration

	locale Locale
	text   string

	datatype string // absolute datatype URI, Data case only
	lexical  string // Data case only

	fields *orderedFields // Object case only
	items  []Value        // Array case only

	generic any // Generic case only
}

// Nil is the zero value and the canonical "null" literal.
var Nil = Value{kase: CaseNil}

// Case reports which variant v holds.
func (v Value) Case() Case { return v.kase }

// IsNil reports whether v is the Nil case.
func (v Value) IsNil() bool { return v.kase == CaseNil }

// --- factories -------------------------------------------------------

// NewBit constructs a boolean literal.
func NewBit(b bool) Value { return Value{kase: CaseBit, b: b} }

// NewIntegral constructs a 64-bit signed integer literal.
func NewIntegral(i int64) Value { return Value{kase: CaseIntegral, i64: i} }

// NewFloating constructs a finite IEEE-754 double literal. It rejects NaN
// and infinities per the §3 invariant.
func NewFloating(f float64) (Value, error) {
	if isNaNOrInf(f) {
		return Nil, argumentError("non-finite-float", "Floating cannot hold NaN or infinity")
	}
	return Value{kase: CaseFloating, f64: f}, nil
}

func isNaNOrInf(f float64) bool {
	return f != f || f > maxFinite || f < -maxFinite
}

const maxFinite = 1.7976931348623157e+308

// NewInteger constructs an arbitrary-precision integer literal. A nil i is
// rejected as a malformed argument.
func NewInteger(i *big.Int) (Value, error) {
	if i == nil {
		return Nil, argumentError("nil-argument", "Integer requires a non-nil *big.Int")
	}
	return Value{kase: CaseInteger, bigInt: new(big.Int).Set(i)}, nil
}

// NewDecimal constructs an arbitrary-precision decimal literal.
func NewDecimal(d apd.Decimal) Value {
	return Value{kase: CaseDecimal, dec: d}
}

// NewString constructs a UTF-8 string literal.
func NewString(s string) Value { return Value{kase: CaseString, str: s} }

// NewURI constructs a URI literal. The URI may be relative or absolute;
// absoluteness is only enforced where the spec requires it (Data
// datatypes, Object "@id").
func NewURI(u string) Value { return Value{kase: CaseURI, str: u} }

// NewYear, NewYearMonth, ... construct the nine temporal shapes.

func NewYear(year int) Value {
	return Value{kase: CaseTemporal, temporal: temporalData{kind: TemporalYear, t: time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)}}
}

func NewYearMonth(year, month int) Value {
	return Value{kase: CaseTemporal, temporal: temporalData{kind: TemporalYearMonth, t: time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)}}
}

func NewLocalDate(year, month, day int) Value {
	return Value{kase: CaseTemporal, temporal: temporalData{kind: TemporalLocalDate, t: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}}
}

func NewLocalTime(hour, min, sec, nsec int) Value {
	return Value{kase: CaseTemporal, temporal: temporalData{kind: TemporalLocalTime, t: time.Date(0, 1, 1, hour, min, sec, nsec, time.UTC)}}
}

func NewOffsetTime(hour, min, sec, nsec int, offset time.Duration) Value {
	return Value{kase: CaseTemporal, temporal: temporalData{kind: TemporalOffsetTime, t: time.Date(0, 1, 1, hour, min, sec, nsec, time.UTC), offset: &offset}}
}

func NewLocalDateTime(year, month, day, hour, min, sec, nsec int) Value {
	return Value{kase: CaseTemporal, temporal: temporalData{kind: TemporalLocalDateTime, t: time.Date(year, time.Month(month), day, hour, min, sec, nsec, time.UTC)}}
}

func NewOffsetDateTime(t time.Time, offset time.Duration) Value {
	return Value{kase: CaseTemporal, temporal: temporalData{kind: TemporalOffsetDateTime, t: t, offset: &offset}}
}

func NewZonedDateTime(t time.Time, zone string) Value {
	loc := t.Location()
	_, offsetSeconds := t.Zone()
	offset := time.Duration(offsetSeconds) * time.Second
	_ = loc
	return Value{kase: CaseTemporal, temporal: temporalData{kind: TemporalZonedDateTime, t: t, offset: &offset, zone: zone}}
}

func NewInstant(t time.Time) Value {
	return Value{kase: CaseTemporal, temporal: temporalData{kind: TemporalInstant, t: t.UTC()}}
}

// NewPeriod constructs a calendar Period amount (years/months/days).
func NewPeriod(years, months, days int) Value {
	return Value{kase: CaseTemporalAmount, amountKind: AmountPeriod, period: periodData{years, months, days}}
}

// NewDuration constructs an exact Duration amount.
func NewDuration(d time.Duration) Value {
	return Value{kase: CaseTemporalAmount, amountKind: AmountDuration, duration: d}
}

// NewText constructs a language-tagged string. locale == LocaleRoot means
// "no language".
func NewText(locale Locale, text string) Value {
	return Value{kase: CaseText, locale: locale, text: text}
}

// NewData constructs a typed-datum literal. datatype must be an absolute
// URI; lexical is the literal's textual form.
func NewData(datatype, lexical string) (Value, error) {
	if !isAbsoluteURI(datatype) {
		return Nil, argumentError("relative-datatype", "Data datatype must be an absolute URI: "+datatype)
	}
	return Value{kase: CaseData, datatype: datatype, lexical: lexical}, nil
}

// NewObject constructs an identified or anonymous Object from an ordered
// list of (name, value) fields. Field names must be unique; reserved names
// (@id, @type, @value, @language, @context) are permitted but validated by
// callers that care (the Validator, the Writer).
func NewObject(fields ...Field) (Value, error) {
	of := newOrderedFields()
	for _, f := range fields {
		if of.has(f.Name) {
			return Nil, argumentError("duplicate-field", "duplicate Object field: "+f.Name)
		}
		of.set(f.Name, f.Value)
	}
	return Value{kase: CaseObject, fields: of}, nil
}

// Field is a single (name, value) pair used to build an Object.
type Field struct {
	Name  string
	Value Value
}

// F is a convenience constructor for Field.
func F(name string, value Value) Field { return Field{Name: name, Value: value} }

// NewArray constructs an ordered sequence of values.
func NewArray(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kase: CaseArray, items: cp}
}

// NewGeneric wraps an opaque host-world payload (e.g. a Table or Query)
// that the value algebra carries but does not interpret structurally.
func NewGeneric(payload any) Value {
	if payload == nil {
		return Nil
	}
	return Value{kase: CaseGeneric, generic: payload}
}

func isAbsoluteURI(u string) bool {
	for i := 0; i < len(u); i++ {
		c := u[i]
		if c == ':' {
			return i > 0
		}
		if !(c == '+' || c == '-' || c == '.' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return false
}

// --- typed accessors ---------------------------------------------------
//
// Each accessor returns (payload, true) when v holds the matching case, or
// the zero payload and false otherwise. None of them throw.

func (v Value) AsBit() (bool, bool) {
	if v.kase != CaseBit {
		return false, false
	}
	return v.b, true
}

func (v Value) AsIntegral() (int64, bool) {
	if v.kase != CaseIntegral {
		return 0, false
	}
	return v.i64, true
}

func (v Value) AsFloating() (float64, bool) {
	if v.kase != CaseFloating {
		return 0, false
	}
	return v.f64, true
}

func (v Value) AsInteger() (*big.Int, bool) {
	if v.kase != CaseInteger {
		return nil, false
	}
	return new(big.Int).Set(v.bigInt), true
}

func (v Value) AsDecimal() (apd.Decimal, bool) {
	if v.kase != CaseDecimal {
		return apd.Decimal{}, false
	}
	return v.dec, true
}

func (v Value) AsString() (string, bool) {
	if v.kase != CaseString {
		return "", false
	}
	return v.str, true
}

func (v Value) AsURI() (string, bool) {
	if v.kase != CaseURI {
		return "", false
	}
	return v.str, true
}

func (v Value) AsTemporal() (TemporalKind, time.Time, bool) {
	if v.kase != CaseTemporal {
		return 0, time.Time{}, false
	}
	return v.temporal.kind, v.temporal.t, true
}

func (v Value) AsTemporalAmount() (TemporalAmountKind, bool) {
	if v.kase != CaseTemporalAmount {
		return 0, false
	}
	return v.amountKind, true
}

func (v Value) AsText() (Locale, string, bool) {
	if v.kase != CaseText {
		return LocaleRoot, "", false
	}
	return v.locale, v.text, true
}

func (v Value) AsData() (datatype, lexical string, ok bool) {
	if v.kase != CaseData {
		return "", "", false
	}
	return v.datatype, v.lexical, true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kase != CaseArray {
		return nil, false
	}
	return v.items, true
}

func (v Value) AsGeneric() (any, bool) {
	if v.kase != CaseGeneric {
		return nil, false
	}
	return v.generic, true
}

// Fields returns the Object's fields in insertion order, or nil if v is
// not an Object.
func (v Value) Fields() []Field {
	if v.kase != CaseObject {
		return nil
	}
	return v.fields.ordered()
}

// --- containers (§4.1 "Containers") ------------------------------------

// Get returns: Array -> itself; Object -> an Array of its field values;
// otherwise Nil.
func (v Value) Get() Value {
	switch v.kase {
	case CaseArray:
		return v
	case CaseObject:
		vals := make([]Value, 0, v.fields.len())
		for _, f := range v.fields.ordered() {
			vals = append(vals, f.Value)
		}
		return NewArray(vals...)
	default:
		return Nil
	}
}

// GetIndex supports negative indices (-1 is last); out of range yields Nil.
// Only meaningful on Array; other cases also yield Nil.
func (v Value) GetIndex(i int) Value {
	if v.kase != CaseArray {
		return Nil
	}
	n := len(v.items)
	if i < 0 {
		i = n + i
	}
	if i < 0 || i >= n {
		return Nil
	}
	return v.items[i]
}

// GetField rejects reserved field names with an Argument error; a missing
// non-reserved field yields Nil.
func (v Value) GetField(name string) (Value, error) {
	if isReservedField(name) {
		return Nil, argumentError("reserved-field", "reserved field access via GetField: "+name)
	}
	if v.kase != CaseObject {
		return Nil, nil
	}
	val, ok := v.fields.get(name)
	if !ok {
		return Nil, nil
	}
	return val, nil
}

// RawField accesses any field, including reserved ones, without error.
// Used internally by the Validator and Writer, which need to read @id,
// @type, and @context.
func (v Value) RawField(name string) (Value, bool) {
	if v.kase != CaseObject {
		return Nil, false
	}
	return v.fields.get(name)
}

func isReservedField(name string) bool {
	switch name {
	case "@id", "@type", "@value", "@language", "@context":
		return true
	default:
		return len(name) > 0 && name[0] == '@'
	}
}

// --- merge (§4.1 "Merge") ------------------------------------------------

// Merge combines a and b: if both are Objects, the field-name union with b
// overriding on conflict; if both are Arrays, concatenation; otherwise a
// wins (including when either side is empty per property 4 in spec.md §8,
// since an empty Object/Array still merges by its own rule, and a
// non-container a simply dominates a non-matching b).
func Merge(a, b Value) Value {
	if a.kase == CaseObject && b.kase == CaseObject {
		of := newOrderedFields()
		for _, f := range a.fields.ordered() {
			of.set(f.Name, f.Value)
		}
		for _, f := range b.fields.ordered() {
			of.set(f.Name, f.Value)
		}
		return Value{kase: CaseObject, fields: of}
	}
	if a.kase == CaseArray && b.kase == CaseArray {
		out := make([]Value, 0, len(a.items)+len(b.items))
		out = append(out, a.items...)
		out = append(out, b.items...)
		return NewArray(out...)
	}
	return a
}

// --- emptiness (§4.1 "Emptiness") ---------------------------------------

// IsEmpty reports whether v is Nil, an empty Array, or an Object whose
// only fields are ignored (@context).
func (v Value) IsEmpty() bool {
	switch v.kase {
	case CaseNil:
		return true
	case CaseArray:
		return len(v.items) == 0
	case CaseObject:
		for _, f := range v.fields.ordered() {
			if f.Name != "@context" {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// --- equality ------------------------------------------------------------

// Equal reports literal-by-value equality; Decimal equality is
// scale-insensitive (numeric), Floating uses bit compare of the stored
// double, and containers compare structurally in order.
func Equal(a, b Value) bool {
	if a.kase != b.kase {
		return false
	}
	switch a.kase {
	case CaseNil:
		return true
	case CaseBit:
		return a.b == b.b
	case CaseIntegral:
		return a.i64 == b.i64
	case CaseFloating:
		return a.f64 == b.f64
	case CaseInteger:
		return a.bigInt.Cmp(b.bigInt) == 0
	case CaseDecimal:
		return decimalSign(a.dec, b.dec) == 0
	case CaseString, CaseURI:
		return a.str == b.str
	case CaseTemporal:
		return equalTemporal(a.temporal, b.temporal)
	case CaseTemporalAmount:
		return equalTemporalAmount(a, b)
	case CaseText:
		return a.locale == b.locale && a.text == b.text
	case CaseData:
		return a.datatype == b.datatype && a.lexical == b.lexical
	case CaseObject:
		return equalObject(a, b)
	case CaseArray:
		return equalArray(a, b)
	case CaseGeneric:
		return a.generic == b.generic
	default:
		return false
	}
}

func equalTemporal(a, b temporalData) bool {
	if a.kind != b.kind {
		return false
	}
	if !a.t.Equal(b.t) {
		return false
	}
	if (a.offset == nil) != (b.offset == nil) {
		return false
	}
	if a.offset != nil && *a.offset != *b.offset {
		return false
	}
	return a.zone == b.zone
}

func equalTemporalAmount(a, b Value) bool {
	if a.amountKind != b.amountKind {
		return false
	}
	if a.amountKind == AmountPeriod {
		return a.period == b.period
	}
	return a.duration == b.duration
}

func equalObject(a, b Value) bool {
	af, bf := a.fields.ordered(), b.fields.ordered()
	if len(af) != len(bf) {
		return false
	}
	bm := make(map[string]Value, len(bf))
	for _, f := range bf {
		bm[f.Name] = f.Value
	}
	for _, f := range af {
		other, ok := bm[f.Name]
		if !ok || !Equal(f.Value, other) {
			return false
		}
	}
	return true
}

func equalArray(a, b Value) bool {
	if len(a.items) != len(b.items) {
		return false
	}
	for i := range a.items {
		if !Equal(a.items[i], b.items[i]) {
			return false
		}
	}
	return true
}
