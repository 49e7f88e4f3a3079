package ldcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPropertyDefaultsMaxLengthUnbounded(t *testing.T) {
	p := NewProperty("name", LiteralType(XSDString), Cardinality{Min: 0, Max: -1})
	assert.Equal(t, -1, p.MaxLength)
	assert.Nil(t, p.Pattern)
	assert.True(t, p.HasValue.IsNil())
}

func TestPropertyWithPatternCompilesRegex(t *testing.T) {
	p := NewProperty("name", LiteralType(XSDString), Cardinality{Min: 1, Max: 2}).WithPattern("^x")
	require.NotNil(t, p.Pattern)
	assert.True(t, p.Pattern.MatchString("xa"))
	assert.False(t, p.Pattern.MatchString("yb"))
}

func TestPropertyWithRangeAndLengthAndEnumeration(t *testing.T) {
	p := NewProperty("age", LiteralType(XSDInteger), Cardinality{Min: 0, Max: 1}).
		WithRange(Nil, Nil, NewIntegral(0), NewIntegral(130)).
		WithLength(1, 3).
		WithIn(NewIntegral(1), NewIntegral(2))

	assert.Equal(t, int64(0), mustIntegral(t, p.MinInclusive))
	assert.Equal(t, int64(130), mustIntegral(t, p.MaxInclusive))
	assert.Equal(t, 1, p.MinLength)
	assert.Equal(t, 3, p.MaxLength)
	assert.Len(t, p.In, 2)
}

func TestPropertyWithHasValueAndUniqueLangAndConstraints(t *testing.T) {
	called := false
	p := NewProperty("name", LiteralType(XSDString), Cardinality{Min: 0, Max: -1}).
		WithHasValue(NewString("alice")).
		WithUniqueLang().
		WithConstraints(Constraint{Name: "nonempty", Check: func(v Value) bool {
			called = true
			s, _ := v.AsString()
			return s != ""
		}})

	assert.True(t, p.UniqueLang)
	assert.False(t, p.HasValue.IsNil())
	require.Len(t, p.Constraints, 1)
	assert.True(t, p.Constraints[0].Check(NewString("x")))
	assert.True(t, called)
}

func TestShapeBuildersSetVirtualClosedAndPropertyNames(t *testing.T) {
	shape, err := NewShape("http://example.org/ns#Person",
		NewProperty("name", LiteralType(XSDString), Cardinality{Min: 1, Max: 1}),
	)
	require.NoError(t, err)

	shape.WithVirtual().WithClosed().
		WithIDProperty("identifier").
		WithTypeProperty("kind").
		WithImplicitClasses("http://example.org/ns#Agent")

	assert.True(t, shape.Virtual())
	assert.True(t, shape.Closed())
	assert.Equal(t, "identifier", shape.IDProperty())
	assert.Equal(t, "kind", shape.TypeProperty())
	assert.Equal(t, []string{"http://example.org/ns#Agent"}, shape.ImplicitClasses())
}

func TestShapeDefaultIDAndTypePropertyNames(t *testing.T) {
	shape, err := NewShape("http://example.org/ns#Person")
	require.NoError(t, err)
	assert.Equal(t, "@id", shape.IDProperty())
	assert.Equal(t, "@type", shape.TypeProperty())
	assert.False(t, shape.Virtual())
	assert.False(t, shape.Closed())
}

func mustIntegral(t *testing.T, v Value) int64 {
	t.Helper()
	i, ok := v.AsIntegral()
	require.True(t, ok)
	return i
}
