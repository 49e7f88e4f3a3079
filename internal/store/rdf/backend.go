package rdf

import (
	"context"

	"github.com/lychee-technology/ldstore"
)

// Backend is the narrow relational surface Interpreter drives. subject
// and predicate are each either a concrete pointer or nil ("unconstrained
// for that slot"); object, when non-nil, constrains by encoded value.
type Backend interface {
	Match(ctx context.Context, subject, predicate *string, object *ldcore.Value) ([]Row, error)
	Insert(ctx context.Context, rows []Row) error
	Delete(ctx context.Context, subject, predicate *string, object *ldcore.Value) error
}
