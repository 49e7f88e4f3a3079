package rdf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/ldstore"
	"github.com/lychee-technology/ldstore/internal/engine"
)

// These tests compile a query through the real planner (engine.Compile)
// rather than hand-authoring a query string, so they exercise the exact
// grammar the interpreter has to parse in production instead of a
// hand-maintained approximation of it.

func TestSelectPlannedPropertyEdge(t *testing.T) {
	vscope := engine.NewVariableScope()
	q := ldcore.NewQuery()
	q.Limit = 10

	edge := &engine.PropertyEdge{Anchor: ldcore.NewURI("urn:a"), Name: "name"}
	plan, err := engine.Compile(vscope, nil, false, ldcore.Nil, edge, q, 50)
	require.NoError(t, err)

	backend := &fakeBackend{rows: []Row{
		{Subject: "urn:a", Predicate: "name", ObjectKind: "string", ObjectText: "bob"},
		{Subject: "urn:a", Predicate: "name", ObjectKind: "string", ObjectText: "alice"},
		{Subject: "urn:other", Predicate: "name", ObjectKind: "string", ObjectText: "carol"},
	}}

	rows, aliases, err := Select(context.Background(), backend, plan.Query)
	require.NoError(t, err)
	assert.Nil(t, aliases)
	require.Len(t, rows, 2)

	first, _ := rows[0][0].AsString()
	second, _ := rows[1][0].AsString()
	assert.Equal(t, "alice", first, "ORDER BY ASC(root) sorts lexically")
	assert.Equal(t, "bob", second)
}

func TestSelectPlannedClassMembership(t *testing.T) {
	vscope := engine.NewVariableScope()
	q := ldcore.NewQuery()
	q.Class = "http://example.org/ns#Person"
	q.Limit = 10

	plan, err := engine.Compile(vscope, nil, false, ldcore.Nil, nil, q, 50)
	require.NoError(t, err)

	backend := &fakeBackend{rows: []Row{
		{Subject: "urn:a", Predicate: "@type", ObjectKind: "uri", ObjectText: "http://example.org/ns#Person"},
		{Subject: "urn:b", Predicate: "@type", ObjectKind: "uri", ObjectText: "http://example.org/ns#Document"},
	}}

	rows, _, err := Select(context.Background(), backend, plan.Query)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	uri, _ := rows[0][0].AsURI()
	assert.Equal(t, "urn:a", uri)
}

func TestSelectPlannedClassMembershipWithFilter(t *testing.T) {
	// A schema-less top-level query (no Shape in the model's @context, so
	// Selector passes Shape=nil) still needs something to bind root before
	// emitFlatFilters's property triples can run — the class constraint is
	// what does it here, same as resolveObjectModel's real ContextShape-
	// less @query path.
	vscope := engine.NewVariableScope()
	q := ldcore.NewQuery()
	q.Class = "http://example.org/ns#Person"
	q.Limit = 10
	q.Filters = []ldcore.Filter{
		{Path: ldcore.MustParsePath("age"), Criterion: ldcore.Criterion{Op: ldcore.OpGT, Operand: ldcore.NewIntegral(30)}},
	}

	plan, err := engine.Compile(vscope, nil, false, ldcore.Nil, nil, q, 50)
	require.NoError(t, err)

	backend := &fakeBackend{rows: []Row{
		{Subject: "urn:a", Predicate: "@type", ObjectKind: "uri", ObjectText: "http://example.org/ns#Person"},
		{Subject: "urn:a", Predicate: "age", ObjectKind: "integral", ObjectText: "40"},
		{Subject: "urn:b", Predicate: "@type", ObjectKind: "uri", ObjectText: "http://example.org/ns#Person"},
		{Subject: "urn:b", Predicate: "age", ObjectKind: "integral", ObjectText: "20"},
	}}

	rows, _, err := Select(context.Background(), backend, plan.Query)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	uri, _ := rows[0][0].AsURI()
	assert.Equal(t, "urn:a", uri)
}

func TestUpdateInsertAndDelete(t *testing.T) {
	backend := &fakeBackend{rows: []Row{
		{Subject: "urn:a", Predicate: "name", ObjectKind: "string", ObjectText: "old"},
	}}

	update := "DELETE WHERE {\n" +
		"  <urn:a> <name> ?do0 .\n" +
		"}\n" +
		"INSERT DATA {\n" +
		"  <urn:a> <name> \"new\" .\n" +
		"}\n"

	require.NoError(t, Update(context.Background(), backend, update))
	require.Len(t, backend.rows, 1)
	assert.Equal(t, "new", backend.rows[0].ObjectText)
}

func TestUpdateInsertOnly(t *testing.T) {
	backend := &fakeBackend{}
	update := "INSERT DATA {\n  <urn:a> <name> \"alice\" .\n}\n"
	require.NoError(t, Update(context.Background(), backend, update))
	require.Len(t, backend.rows, 1)
	assert.Equal(t, "urn:a", backend.rows[0].Subject)
	assert.Equal(t, "name", backend.rows[0].Predicate)
	assert.Equal(t, "alice", backend.rows[0].ObjectText)
}

func TestUpdateDeleteOnly(t *testing.T) {
	backend := &fakeBackend{rows: []Row{
		{Subject: "urn:a", Predicate: "name", ObjectKind: "string", ObjectText: "old"},
		{Subject: "urn:a", Predicate: "email", ObjectKind: "string", ObjectText: "a@example.org"},
	}}
	update := "DELETE WHERE {\n  <urn:a> ?dp0 ?do0 .\n}\n"
	require.NoError(t, Update(context.Background(), backend, update))
	assert.Empty(t, backend.rows)
}
