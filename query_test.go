package ldcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathOrderBuildsExplicitTerm(t *testing.T) {
	o := PathOrder(MustParsePath("name"), true)
	assert.Equal(t, MustParsePath("name"), o.Path)
	assert.True(t, o.Desc)
	assert.Nil(t, o.Focus)
}

func TestFocusOrderBuildsPullToFrontTerm(t *testing.T) {
	set := FocusSet{IDs: []string{"urn:a", "urn:b"}}
	o := FocusOrder(set, -1)
	assert.NotNil(t, o.Focus)
	assert.Equal(t, []string{"urn:a", "urn:b"}, o.Focus.IDs)
	assert.Equal(t, -1, o.Priority)
}

func TestQueryOrderByAcceptsMixedFocusAndPathTerms(t *testing.T) {
	q := NewQuery()
	q.OrderBy = []Order{
		FocusOrder(FocusSet{IDs: []string{"urn:pinned"}}, 0),
		PathOrder(MustParsePath("name"), false),
	}
	assert.Len(t, q.OrderBy, 2)
	assert.NotNil(t, q.OrderBy[0].Focus)
	assert.Nil(t, q.OrderBy[1].Focus)
}
