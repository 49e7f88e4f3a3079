package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/ldstore"
)

func TestCompileOrderDefaultsToAscRoot(t *testing.T) {
	vscope := NewVariableScope()
	q := ldcore.NewQuery()

	plan, err := Compile(vscope, nil, false, ldcore.Nil, nil, q, 50)
	require.NoError(t, err)
	assert.Contains(t, plan.Query, "ORDER BY ASC(?root)")
}

func TestCompileOrderEmitsFocusPullAheadOfExplicitOrder(t *testing.T) {
	vscope := NewVariableScope()
	q := ldcore.NewQuery()
	q.OrderBy = []ldcore.Order{
		ldcore.FocusOrder(ldcore.FocusSet{IDs: []string{"urn:a", "urn:b"}}, 0),
		ldcore.PathOrder(ldcore.MustParsePath("name"), false),
	}

	plan, err := Compile(vscope, nil, false, ldcore.Nil, nil, q, 50)
	require.NoError(t, err)

	focusIdx := indexOf(t, plan.Query, "DESC((?root = <urn:a> || ?root = <urn:b>))")
	ascIdx := indexOf(t, plan.Query, "ASC(?v")
	assert.Less(t, focusIdx, ascIdx, "focus pull must sort ahead of the explicit criterion")
}

func TestCompileOrderRespectsFocusPriority(t *testing.T) {
	vscope := NewVariableScope()
	q := ldcore.NewQuery()
	q.OrderBy = []ldcore.Order{
		ldcore.FocusOrder(ldcore.FocusSet{IDs: []string{"urn:low"}}, 1),
		ldcore.FocusOrder(ldcore.FocusSet{IDs: []string{"urn:high"}}, -1),
	}

	plan, err := Compile(vscope, nil, false, ldcore.Nil, nil, q, 50)
	require.NoError(t, err)

	highIdx := indexOf(t, plan.Query, "urn:high")
	lowIdx := indexOf(t, plan.Query, "urn:low")
	assert.Less(t, highIdx, lowIdx, "lower Priority must sort ahead of higher Priority")
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	i := strings.Index(haystack, needle)
	require.GreaterOrEqual(t, i, 0, "expected to find %q in %q", needle, haystack)
	return i
}
