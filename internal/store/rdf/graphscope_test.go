package rdf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphBackendInsertTagsGraph(t *testing.T) {
	inner := &fakeBackend{}
	g := &GraphBackend{Backend: inner, Graph: "urn:graph:a"}

	require.NoError(t, g.Insert(context.Background(), []Row{
		{Subject: "urn:s", Predicate: "name", ObjectKind: "string", ObjectText: "x"},
	}))

	require.Len(t, inner.rows, 1)
	assert.Equal(t, "urn:graph:a", inner.rows[0].Graph)
}

func TestGraphBackendMatchFiltersByGraph(t *testing.T) {
	inner := &fakeBackend{rows: []Row{
		{Subject: "urn:s", Predicate: "name", Graph: "urn:graph:a", ObjectKind: "string", ObjectText: "in"},
		{Subject: "urn:s", Predicate: "name", Graph: "urn:graph:b", ObjectKind: "string", ObjectText: "out"},
	}}
	g := &GraphBackend{Backend: inner, Graph: "urn:graph:a"}

	rows, err := g.Match(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "in", rows[0].ObjectText)
}

func TestGraphBackendNoGraphPassesEverythingThrough(t *testing.T) {
	inner := &fakeBackend{rows: []Row{
		{Subject: "urn:s", Predicate: "name", Graph: "urn:graph:a", ObjectKind: "string", ObjectText: "in"},
		{Subject: "urn:s", Predicate: "name", Graph: "urn:graph:b", ObjectKind: "string", ObjectText: "out"},
	}}
	g := &GraphBackend{Backend: inner, Graph: ""}

	rows, err := g.Match(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
