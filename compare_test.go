package ldcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCompareTextLocaleBeforeLexeme guards §4.2's "Text compares locale
// then lexeme" rule: two Text values with the same lexeme but different
// locales must never compare equal.
func TestCompareTextLocaleBeforeLexeme(t *testing.T) {
	en := NewText("en", "a")
	fr := NewText("fr", "a")

	cmp, ok := Compare(en, fr)
	assert.True(t, ok)
	assert.NotEqual(t, 0, cmp, "Text values in different locales must not compare equal on lexeme alone")

	cmpSame, okSame := Compare(en, NewText("en", "a"))
	assert.True(t, okSame)
	assert.Equal(t, 0, cmpSame)
}

func TestCompareTextOrdersByLocaleThenLexeme(t *testing.T) {
	a := NewText("en", "b")
	b := NewText("fr", "a")

	cmp, ok := Compare(a, b)
	assert.True(t, ok)
	assert.Negative(t, cmp, "en sorts before fr regardless of lexeme")
}

func TestCompareStringTreatedAsRootLocale(t *testing.T) {
	str := NewString("a")
	rootText := NewText(LocaleRoot, "a")

	cmp, ok := Compare(str, rootText)
	assert.True(t, ok)
	assert.Equal(t, 0, cmp)
}
