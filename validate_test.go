package ldcore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func personTestShape() *Shape {
	shape, err := NewShape("http://example.org/ns#Person",
		NewProperty("name", LiteralType(XSDString), Cardinality{Min: 1, Max: 2}).WithPattern("^x"),
	)
	if err != nil {
		panic(err)
	}
	return shape
}

// TestValidateS2PatternAndMaxCount reproduces spec.md §8 scenario S2: a
// {minCount:1,maxCount:2,pattern:"^x"} Shape validated against three
// "name" values must trace both the maxCount violation and the one
// pattern-failing value.
func TestValidateS2PatternAndMaxCount(t *testing.T) {
	shape := personTestShape()
	obj, err := NewObject(F("name", NewArray(NewString("xa"), NewString("yb"), NewString("xc"))))
	require.NoError(t, err)

	trace := NewValidator().Validate(obj, shape, false)
	require.False(t, trace.IsEmpty())

	nameTrace, ok := trace.RawField("name")
	require.True(t, ok)

	items, ok := nameTrace.AsArray()
	require.True(t, ok)

	var joined []string
	for _, item := range items {
		s, ok := item.AsString()
		require.True(t, ok)
		joined = append(joined, s)
	}
	all := strings.Join(joined, " | ")
	assert.Contains(t, all, "maxCount(2)")
	assert.Contains(t, all, "yb")
}

func TestValidateRequiredMissing(t *testing.T) {
	shape := personTestShape()
	obj, err := NewObject()
	require.NoError(t, err)

	trace := NewValidator().Validate(obj, shape, false)
	nameTrace, ok := trace.RawField("name")
	require.True(t, ok)
	s, ok := nameTrace.AsString()
	require.True(t, ok)
	assert.Contains(t, s, "required property is missing")
}

func TestValidateDeltaRelaxesMinCountOnEmptyContainer(t *testing.T) {
	shape := personTestShape()
	obj, err := NewObject()
	require.NoError(t, err)

	trace := NewValidator().Validate(obj, shape, true)
	assert.True(t, trace.IsEmpty(), "delta validation must not flag an omitted required field")
}

func TestValidateRangeBounds(t *testing.T) {
	shape, err := NewShape("http://example.org/ns#Thing",
		NewProperty("age", LiteralType(XSDInteger), Cardinality{Min: 1, Max: 1}).
			WithRange(Nil, Nil, NewIntegral(0), NewIntegral(130)),
	)
	require.NoError(t, err)

	tooOld, err := NewObject(F("age", NewIntegral(200)))
	require.NoError(t, err)
	trace := NewValidator().Validate(tooOld, shape, false)
	require.False(t, trace.IsEmpty())
	ageTrace, _ := trace.RawField("age")
	s, ok := ageTrace.AsString()
	require.True(t, ok)
	assert.Contains(t, s, "maxInclusive")

	ok2 := NewValidator().Valid(mustObject(t, F("age", NewIntegral(40))), shape)
	assert.True(t, ok2)
}

func TestValidateLengthBounds(t *testing.T) {
	shape, err := NewShape("http://example.org/ns#Thing",
		NewProperty("code", LiteralType(XSDString), Cardinality{Min: 1, Max: 1}).WithLength(2, 4),
	)
	require.NoError(t, err)

	trace := NewValidator().Validate(mustObject(t, F("code", NewString("a"))), shape, false)
	s, ok := trace.RawField("code")
	require.True(t, ok)
	str, ok := s.AsString()
	require.True(t, ok)
	assert.Contains(t, str, "minLength")

	trace2 := NewValidator().Validate(mustObject(t, F("code", NewString("abcdef"))), shape, false)
	s2, ok := trace2.RawField("code")
	require.True(t, ok)
	str2, ok := s2.AsString()
	require.True(t, ok)
	assert.Contains(t, str2, "maxLength")
}

func TestValidateInEnumeration(t *testing.T) {
	shape, err := NewShape("http://example.org/ns#Thing",
		NewProperty("status", LiteralType(XSDString), Cardinality{Min: 1, Max: 1}).
			WithIn(NewString("open"), NewString("closed")),
	)
	require.NoError(t, err)

	assert.False(t, NewValidator().Valid(mustObject(t, F("status", NewString("pending"))), shape))
	assert.True(t, NewValidator().Valid(mustObject(t, F("status", NewString("open"))), shape))
}

func TestValidateLanguageInAndUniqueLang(t *testing.T) {
	shape, err := NewShape("http://example.org/ns#Thing",
		NewProperty("label", LiteralType(RDFLangString), Cardinality{Min: 1, Max: -1}).
			WithLanguageIn("en", "fr").
			WithUniqueLang(),
	)
	require.NoError(t, err)

	bad := mustObject(t, F("label", NewArray(NewText("en", "hi"), NewText("de", "hallo"))))
	trace := NewValidator().Validate(bad, shape, false)
	require.False(t, trace.IsEmpty())

	dup := mustObject(t, F("label", NewArray(NewText("en", "hi"), NewText("en", "hey"))))
	trace2 := NewValidator().Validate(dup, shape, false)
	require.False(t, trace2.IsEmpty())

	good := mustObject(t, F("label", NewArray(NewText("en", "hi"), NewText("fr", "salut"))))
	assert.True(t, NewValidator().Valid(good, shape))
}

func TestValidateHasValue(t *testing.T) {
	shape, err := NewShape("http://example.org/ns#Thing",
		NewProperty("role", LiteralType(XSDString), Cardinality{Min: 1, Max: -1}).
			WithHasValue(NewString("admin")),
	)
	require.NoError(t, err)

	assert.False(t, NewValidator().Valid(mustObject(t, F("role", NewArray(NewString("user")))), shape))
	assert.True(t, NewValidator().Valid(mustObject(t, F("role", NewArray(NewString("user"), NewString("admin")))), shape))
}

func TestValidateUserConstraint(t *testing.T) {
	shape, err := NewShape("http://example.org/ns#Thing",
		NewProperty("email", LiteralType(XSDString), Cardinality{Min: 1, Max: 1}).
			WithConstraints(Constraint{
				Name:    "has-at-sign",
				Message: "email must contain @",
				Check: func(v Value) bool {
					s, _ := v.AsString()
					return strings.Contains(s, "@")
				},
			}),
	)
	require.NoError(t, err)

	trace := NewValidator().Validate(mustObject(t, F("email", NewString("bad"))), shape, false)
	s, ok := trace.RawField("email")
	require.True(t, ok)
	str, ok := s.AsString()
	require.True(t, ok)
	assert.Equal(t, "email must contain @", str)
}

func TestValidateClosedShapeRejectsUnknownField(t *testing.T) {
	shape, err := NewShape("http://example.org/ns#Thing",
		NewProperty("name", LiteralType(XSDString), Cardinality{Min: 1, Max: 1}),
	)
	require.NoError(t, err)
	shape.WithClosed()

	obj := mustObject(t, F("name", NewString("ok")), F("extra", NewString("nope")))
	trace := NewValidator().Validate(obj, shape, false)
	require.False(t, trace.IsEmpty())
	s, ok := trace.RawField("@closed")
	require.True(t, ok)
	str, ok := s.AsString()
	require.True(t, ok)
	assert.Contains(t, str, "extra")
}

func TestValidateClassCoverage(t *testing.T) {
	shape, err := NewShape("http://example.org/ns#Thing")
	require.NoError(t, err)
	shape.WithImplicitClasses("http://example.org/ns#Agent")

	obj := mustObject(t, F("@type", NewArray(NewURI("http://example.org/ns#Thing"))))
	trace := NewValidator().Validate(obj, shape, false)
	require.False(t, trace.IsEmpty())
	s, ok := trace.RawField("@type")
	require.True(t, ok)
	str, ok := s.AsString()
	require.True(t, ok)
	assert.Contains(t, str, "Agent")

	obj2 := mustObject(t, F("@type", NewArray(NewURI("http://example.org/ns#Thing"), NewURI("http://example.org/ns#Agent"))))
	assert.True(t, NewValidator().Valid(obj2, shape))
}

func mustObject(t *testing.T, fields ...Field) Value {
	t.Helper()
	v, err := NewObject(fields...)
	require.NoError(t, err)
	return v
}
