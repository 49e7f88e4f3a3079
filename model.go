package ldcore

// A model value is a Value whose structure names what the Retriever/
// Writer should fetch or cascade into (§4.11/§4.12): an Object carrying a
// "@context" field that wraps the Shape to validate/traverse against, and
// optionally a "@query" field wrapping a Query payload to dispatch to the
// Selector. Both ride inside Generic values since neither a Shape nor a
// Query is itself part of the value algebra's own closed case set.

// WithContext returns a copy of obj (which must be an Object) with its
// "@context" field set to shape.
func WithContext(obj Value, shape *Shape) (Value, error) {
	return setReservedField(obj, "@context", NewGeneric(shape))
}

// ContextShape reads v's "@context" field back out as a *Shape.
func ContextShape(v Value) (*Shape, bool) {
	raw, ok := v.RawField("@context")
	if !ok {
		return nil, false
	}
	payload, ok := raw.AsGeneric()
	if !ok {
		return nil, false
	}
	shape, ok := payload.(*Shape)
	return shape, ok
}

// WithQuery returns a copy of obj with its "@query" field set to q.
func WithQuery(obj Value, q Query) (Value, error) {
	return setReservedField(obj, "@query", NewGeneric(q))
}

// ModelQuery reads v's "@query" field back out as a Query.
func ModelQuery(v Value) (Query, bool) {
	raw, ok := v.RawField("@query")
	if !ok {
		return Query{}, false
	}
	payload, ok := raw.AsGeneric()
	if !ok {
		return Query{}, false
	}
	q, ok := payload.(Query)
	return q, ok
}

// ID reads v's "@id" field as a URI string.
func ID(v Value) (string, bool) {
	raw, ok := v.RawField("@id")
	if !ok {
		return "", false
	}
	return raw.AsURI()
}

// WithID returns a copy of obj with its "@id" field set to a URI Value
// for id.
func WithID(obj Value, id string) (Value, error) {
	return setReservedField(obj, "@id", NewURI(id))
}

func setReservedField(obj Value, name string, val Value) (Value, error) {
	if obj.Case() != CaseObject {
		return Nil, argumentError("not-an-object", "cannot set "+name+" on a non-Object value")
	}
	of := newOrderedFields()
	for _, f := range obj.Fields() {
		of.set(f.Name, f.Value)
	}
	of.set(name, val)
	return Value{kase: CaseObject, fields: of}, nil
}

// Prune recursively drops falsy literal leaves (§4.11 "prune"): zero
// numbers, empty strings, false booleans, empty URIs, root-locale-default
// empty Text, and empty Objects/Arrays. Temporal, TemporalAmount, Data and
// Generic leaves are never treated as falsy and are always kept.
// It is how a virtual shape's default literals become synthetic retrieval
// output without ever touching a store.
func Prune(v Value) Value {
	switch v.Case() {
	case CaseObject:
		var fields []Field
		for _, f := range v.Fields() {
			if f.Name == "@context" || f.Name == "@query" {
				continue
			}
			pruned := Prune(f.Value)
			if isFalsy(pruned) {
				continue
			}
			fields = append(fields, F(f.Name, pruned))
		}
		if len(fields) == 0 {
			return Nil
		}
		out, _ := NewObject(fields...)
		return out
	case CaseArray:
		items, _ := v.AsArray()
		var out []Value
		for _, item := range items {
			pruned := Prune(item)
			if !isFalsy(pruned) {
				out = append(out, pruned)
			}
		}
		if len(out) == 0 {
			return Nil
		}
		return NewArray(out...)
	default:
		if isFalsy(v) {
			return Nil
		}
		return v
	}
}

func isFalsy(v Value) bool {
	switch v.Case() {
	case CaseNil:
		return true
	case CaseBit:
		b, _ := v.AsBit()
		return !b
	case CaseIntegral:
		i, _ := v.AsIntegral()
		return i == 0
	case CaseFloating:
		f, _ := v.AsFloating()
		return f == 0
	case CaseInteger:
		i, _ := v.AsInteger()
		return i.Sign() == 0
	case CaseDecimal:
		d, _ := v.AsDecimal()
		return d.Sign() == 0
	case CaseString:
		s, _ := v.AsString()
		return s == ""
	case CaseURI:
		u, _ := v.AsURI()
		return u == ""
	case CaseText:
		loc, text, _ := v.AsText()
		return loc == LocaleRoot && text == ""
	case CaseArray:
		items, _ := v.AsArray()
		return len(items) == 0
	case CaseObject:
		return v.IsEmpty()
	default:
		return false
	}
}
