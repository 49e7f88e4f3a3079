package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTopLevel(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"?v0", []string{"?v0"}},
		{"?v0 ?v1", []string{"?v0", "?v1"}},
		{"(COUNT(DISTINCT ?v0) AS ?c) ?v1", []string{"(COUNT(DISTINCT ?v0) AS ?c)", "?v1"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, splitTopLevel(tc.in))
	}
}

func TestSplitOutside(t *testing.T) {
	assert.Equal(t, []string{"?v0 = 1", "?v1 = 2"}, splitOutside("?v0 = 1 || ?v1 = 2", " || "))
	assert.Equal(t, []string{"(?v0 = 1 || ?v1 = 2)"}, splitOutside("(?v0 = 1 || ?v1 = 2)", " && "))
}

func TestSplitQuery(t *testing.T) {
	query := "SELECT DISTINCT ?v0 WHERE {\n  <urn:a> :name ?v0 .\n}\nORDER BY ASC(?v0)\nLIMIT 10\nOFFSET 0\n"
	selectClause, whereLines, footer, err := splitQuery(query)
	require.NoError(t, err)
	assert.Equal(t, "SELECT DISTINCT ?v0", selectClause)
	assert.Equal(t, []string{"  <urn:a> :name ?v0 ."}, whereLines)
	assert.Equal(t, []string{"ORDER BY ASC(?v0)", "LIMIT 10", "OFFSET 0"}, footer)
}

func TestSplitQueryWithNestedOptional(t *testing.T) {
	query := "SELECT DISTINCT ?root WHERE {\n" +
		"  ?root a <urn:Class> .\n" +
		"  OPTIONAL {\n" +
		"    ?root :name ?v0 .\n" +
		"  }\n" +
		"}\n" +
		"ORDER BY ASC(?root)\n" +
		"LIMIT 10\n" +
		"OFFSET 0\n"
	_, whereLines, footer, err := splitQuery(query)
	require.NoError(t, err)
	assert.Len(t, whereLines, 4)
	assert.Equal(t, []string{"ORDER BY ASC(?root)", "LIMIT 10", "OFFSET 0"}, footer)

	pos := 0
	ops, err := parseBlock(whereLines, &pos)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, opTriple, ops[0].kind)
	assert.Equal(t, opOptional, ops[1].kind)
	require.Len(t, ops[1].children, 1)
}

func TestSplitQueryRejectsMalformedHeader(t *testing.T) {
	_, _, _, err := splitQuery("not a valid header\n")
	require.Error(t, err)
}
