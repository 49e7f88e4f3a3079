package ldcore

import (
	"fmt"
	"unicode/utf8"
)

// Validator checks a Value against a Shape and reports violations as a
// Trace: a Value that mirrors the input's own structure, where every leaf
// that failed a rule is replaced by a String describing the violation and
// every leaf that passed is pruned away. A Trace IsEmpty() iff v is valid
// (§4.3).
type Validator struct{}

// NewValidator returns a stateless Validator. Validators carry no
// configuration of their own; every rule they apply comes from the Shape
// passed to Validate.
func NewValidator() Validator { return Validator{} }

// Validate checks v (expected to be an Object) against shape and returns
// its Trace. A non-Object v produces a single-string trace rather than a
// per-field breakdown, since there is no structure to mirror. delta
// selects delta validation (§4.3, §4.12): when true, a property absent or
// bound to an empty container is never a minCount violation, the mode a
// partial update (Mutate) is checked under.
func (Validator) Validate(v Value, shape *Shape, delta bool) Value {
	if shape == nil {
		return Nil
	}
	if v.Case() != CaseObject {
		return NewString(fmt.Sprintf("expected an Object conforming to <%s>, got %s", shape.TargetClass(), v.Case()))
	}

	var entries []Field
	if sub := validateClass(v, shape); !sub.IsEmpty() {
		entries = append(entries, F("@type", sub))
	}
	if shape.Closed() {
		if sub := validateClosed(v, shape); !sub.IsEmpty() {
			entries = append(entries, F("@closed", sub))
		}
	}
	for _, p := range shape.Properties() {
		if sub := validateProperty(v, p, delta); !sub.IsEmpty() {
			entries = append(entries, F(p.Name, sub))
		}
	}
	if len(entries) == 0 {
		return Nil
	}
	trace, _ := NewObject(entries...)
	return trace
}

// Valid reports whether v conforms to shape with no violations, under
// strict (non-delta) validation.
func (val Validator) Valid(v Value, shape *Shape) bool {
	return val.Validate(v, shape, false).IsEmpty()
}

// validateClass checks the resource's class field (shape.TypeProperty,
// "@type" by default) carries shape's TargetClass and every one of its
// ImplicitClasses (§3 "implicit classes").
func validateClass(v Value, shape *Shape) Value {
	want := append([]string{shape.TargetClass()}, shape.ImplicitClasses()...)
	raw, ok := v.RawField(shape.TypeProperty())
	if !ok {
		raw = Nil
	}
	have, _ := normalizeCardinality(raw)

	var missing []string
	for _, class := range want {
		found := false
		for _, h := range have {
			if uri, uriOK := h.AsURI(); uriOK && uri == class {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, class)
		}
	}
	if len(missing) == 0 {
		return Nil
	}
	return NewString(fmt.Sprintf("clazz / resource does not carry required class(es): %v", missing))
}

// validateClosed rejects any field not named by one of shape's
// Properties, aside from reserved "@"-prefixed fields, per §4.3 "closed".
func validateClosed(v Value, shape *Shape) Value {
	var extra []string
	for _, f := range v.Fields() {
		if len(f.Name) > 0 && f.Name[0] == '@' {
			continue
		}
		if _, ok := shape.Property(f.Name); !ok {
			extra = append(extra, f.Name)
		}
	}
	if len(extra) == 0 {
		return Nil
	}
	return NewString(fmt.Sprintf("closed / shape <%s> does not allow field(s): %v", shape.TargetClass(), extra))
}

func validateProperty(parent Value, p Property, delta bool) Value {
	raw, ok := parent.RawField(p.Name)
	if !ok {
		raw = Nil
	}

	values, _ := normalizeCardinality(raw)
	count := len(values)

	var entries []Value

	min := p.Cardinality.Min
	if delta && count == 0 {
		// Delta validation: a partial update that omits a container
		// entirely does not violate that container's minCount (§4.3, §4.12).
		min = 0
	}
	if count < min {
		if min == 1 && count == 0 {
			entries = append(entries, NewString("required property is missing: "+p.Name))
		} else {
			entries = append(entries, NewString(fmt.Sprintf("minCount(%d) / property %s requires at least %d value(s), got %d", min, p.Name, min, count)))
		}
	}
	if !p.Cardinality.Unbounded() && count > p.Cardinality.Max {
		entries = append(entries, NewString(fmt.Sprintf("maxCount(%d) / property %s allows at most %d value(s), got %d", p.Cardinality.Max, p.Name, p.Cardinality.Max, count)))
	}

	if !p.HasValue.IsNil() && !containsValue(values, p.HasValue) {
		entries = append(entries, NewString(fmt.Sprintf("hasValue / property %s must include value %s", p.Name, describeValue(p.HasValue))))
	}
	if p.UniqueLang {
		if dup, dupOK := duplicateLocale(values); dupOK {
			entries = append(entries, NewString(fmt.Sprintf("uniqueLang / property %s has more than one value in locale %q", p.Name, dup)))
		}
	}

	for _, item := range values {
		if sub := validateValue(item, p); !sub.IsEmpty() {
			entries = append(entries, sub)
		}
	}

	switch len(entries) {
	case 0:
		return Nil
	case 1:
		return entries[0]
	default:
		return NewArray(entries...)
	}
}

// normalizeCardinality turns a raw field value into its per-instance
// slice: Nil has zero instances, an Array contributes its elements (and
// is "many"), anything else is exactly one instance.
func normalizeCardinality(raw Value) (values []Value, isMany bool) {
	switch raw.Case() {
	case CaseNil:
		return nil, true
	case CaseArray:
		items, _ := raw.AsArray()
		return items, true
	default:
		return []Value{raw}, false
	}
}

// validateValue checks one bound value against every per-value constraint
// p declares: datatype/nested-shape (Type), numeric/lexical range, length,
// pattern, in, languageIn, and user Constraints.
func validateValue(v Value, p Property) Value {
	var entries []Value

	if sub := validateType(v, p.Type); !sub.IsEmpty() {
		entries = append(entries, sub)
	}

	if !p.MinExclusive.IsNil() {
		if cmp, cmpOK := Compare(v, p.MinExclusive); !cmpOK || cmp <= 0 {
			entries = append(entries, NewString(fmt.Sprintf("minExclusive(%s) / property %s value %s is not greater than the bound", describeValue(p.MinExclusive), p.Name, describeValue(v))))
		}
	}
	if !p.MaxExclusive.IsNil() {
		if cmp, cmpOK := Compare(v, p.MaxExclusive); !cmpOK || cmp >= 0 {
			entries = append(entries, NewString(fmt.Sprintf("maxExclusive(%s) / property %s value %s is not less than the bound", describeValue(p.MaxExclusive), p.Name, describeValue(v))))
		}
	}
	if !p.MinInclusive.IsNil() {
		if cmp, cmpOK := Compare(v, p.MinInclusive); !cmpOK || cmp < 0 {
			entries = append(entries, NewString(fmt.Sprintf("minInclusive(%s) / property %s value %s is less than the bound", describeValue(p.MinInclusive), p.Name, describeValue(v))))
		}
	}
	if !p.MaxInclusive.IsNil() {
		if cmp, cmpOK := Compare(v, p.MaxInclusive); !cmpOK || cmp > 0 {
			entries = append(entries, NewString(fmt.Sprintf("maxInclusive(%s) / property %s value %s is greater than the bound", describeValue(p.MaxInclusive), p.Name, describeValue(v))))
		}
	}

	if p.MinLength > 0 || p.MaxLength >= 0 {
		s := describeValue(v)
		n := utf8.RuneCountInString(s)
		if n < p.MinLength {
			entries = append(entries, NewString(fmt.Sprintf("minLength(%d) / property %s value %q is shorter than required", p.MinLength, p.Name, s)))
		}
		if p.MaxLength >= 0 && n > p.MaxLength {
			entries = append(entries, NewString(fmt.Sprintf("maxLength(%d) / property %s value %q is longer than allowed", p.MaxLength, p.Name, s)))
		}
	}

	if p.Pattern != nil {
		s := describeValue(v)
		if !p.Pattern.MatchString(s) {
			entries = append(entries, NewString(fmt.Sprintf("pattern(%s) / property %s value %q does not match", p.Pattern.String(), p.Name, s)))
		}
	}

	if len(p.In) > 0 && !containsValue(p.In, v) {
		entries = append(entries, NewString(fmt.Sprintf("in / property %s value %s is not one of the allowed values", p.Name, describeValue(v))))
	}

	if len(p.LanguageIn) > 0 && v.Case() == CaseText {
		locale, _, _ := v.AsText()
		if !containsLocale(p.LanguageIn, locale) {
			entries = append(entries, NewString(fmt.Sprintf("languageIn / property %s locale %q is not permitted", p.Name, locale)))
		}
	}

	for _, c := range p.Constraints {
		if !c.Check(v) {
			msg := c.Message
			if msg == "" {
				msg = "constraint " + c.Name + " failed"
			}
			entries = append(entries, NewString(msg))
		}
	}

	switch len(entries) {
	case 0:
		return Nil
	case 1:
		return entries[0]
	default:
		return NewArray(entries...)
	}
}

func validateType(v Value, typ Type) Value {
	switch typ.Kind() {
	case TypeAny:
		return Nil
	case TypeLiteral:
		if !conformsDatatype(v, typ.Datatype()) {
			return NewString(fmt.Sprintf("datatype(<%s>) / expected datatype <%s>, got %s", typ.Datatype(), typ.Datatype(), v.Case()))
		}
		return Nil
	case TypeShape:
		nested := typ.Shape()
		if nested == nil {
			return NewString("nested shape is not available")
		}
		if v.Case() == CaseURI {
			// A foreign reference by id; nothing further to check
			// without dereferencing it, which Validate does not do.
			return Nil
		}
		return Validator{}.Validate(v, nested, false)
	default:
		return NewString("unknown type constraint")
	}
}

// containsValue reports whether target is present in values, using Equal
// for structural equality and Compare's zero-difference case for ranked
// types (e.g. an Integer 1 matching a Decimal 1).
func containsValue(values []Value, target Value) bool {
	for _, v := range values {
		if Equal(v, target) {
			return true
		}
		if cmp, ok := Compare(v, target); ok && cmp == 0 {
			return true
		}
	}
	return false
}

// duplicateLocale reports the first locale shared by two or more Text
// values in values, if any.
func duplicateLocale(values []Value) (Locale, bool) {
	seen := make(map[Locale]bool, len(values))
	for _, v := range values {
		if v.Case() != CaseText {
			continue
		}
		locale, _, _ := v.AsText()
		if seen[locale] {
			return locale, true
		}
		seen[locale] = true
	}
	return LocaleRoot, false
}

func containsLocale(locales []Locale, target Locale) bool {
	for _, l := range locales {
		if l == target {
			return true
		}
	}
	return false
}

// describeValue renders v in its canonical string form for use inside a
// Trace message, falling back to its Case name when it has none.
func describeValue(v Value) string {
	s, err := v.Encode(Base(""))
	if err != nil {
		return v.Case().String()
	}
	return s
}

// conformsDatatype reports whether v's Value case is the one the §3
// encoding table associates with datatype.
func conformsDatatype(v Value, datatype string) bool {
	switch datatype {
	case XSDString:
		return v.Case() == CaseString
	case RDFLangString:
		return v.Case() == CaseText
	case XSDBoolean:
		return v.Case() == CaseBit
	case XSDInteger:
		return v.Case() == CaseIntegral || v.Case() == CaseInteger
	case XSDDecimal:
		return v.Case() == CaseDecimal
	case XSDDouble, XSDFloat:
		return v.Case() == CaseFloating
	case XSDDate:
		return temporalKindIs(v, TemporalLocalDate)
	case XSDTime:
		return temporalKindIs(v, TemporalLocalTime, TemporalOffsetTime)
	case XSDDateTime:
		return temporalKindIs(v, TemporalLocalDateTime, TemporalOffsetDateTime, TemporalZonedDateTime, TemporalInstant)
	case XSDYear:
		return temporalKindIs(v, TemporalYear)
	case XSDYearMonth:
		return temporalKindIs(v, TemporalYearMonth)
	case XSDDuration, XSDYearMonthDuration, XSDDayTimeDuration:
		return v.Case() == CaseTemporalAmount
	default:
		dt, _, ok := v.AsData()
		return ok && dt == datatype
	}
}

func temporalKindIs(v Value, kinds ...TemporalKind) bool {
	kind, _, ok := v.AsTemporal()
	if !ok {
		return false
	}
	for _, k := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}
