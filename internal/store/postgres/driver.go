// Package ldpgx is the primary reference triple-store driver: a
// Postgres-backed ldcore.StoreDriver storing every statement as one row
// in a triples table, grounded on the teacher's
// internal/postgres_persistent_repository.go transaction lifecycle
// (pool.BeginTx/defer Rollback/Exec/Commit) and its EAV table's batched
// multi-row VALUES insert shape (buildAttributeValuesClause).
package ldpgx

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lychee-technology/ldstore"
	"github.com/lychee-technology/ldstore/internal/store/rdf"
)

// Driver wraps a pgxpool.Pool as an ldcore.StoreDriver, storing every
// statement in a single triples table.
type Driver struct {
	pool  *pgxpool.Pool
	table string
	graph string
}

// New returns a Driver writing through pool into table (created ahead of
// time by the operator's own migration, per the teacher's own
// StorageTables convention of naming tables outside this package). graph,
// when non-empty, scopes every read and write through this driver to one
// named graph (§6 "a URI-valued default graph scopes every read and
// write"); pass "" for the default (ungraphed) behavior.
func New(pool *pgxpool.Pool, table, graph string) *Driver {
	return &Driver{pool: pool, table: table, graph: graph}
}

func (d *Driver) Begin(ctx context.Context) (ldcore.Transaction, error) {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, ldcore.DriverError("begin transaction failed", err)
	}
	var be rdf.Backend = &backend{tx: tx, table: d.table}
	if d.graph != "" {
		be = &rdf.GraphBackend{Backend: be, Graph: d.graph}
	}
	return &Transaction{tx: tx, backend: be}, nil
}

// Transaction wraps a pgx.Tx. Commit/Rollback are called only by the code
// that began it; see spec §5.
type Transaction struct {
	tx      pgx.Tx
	backend rdf.Backend
}

func (t *Transaction) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return ldcore.DriverError("commit failed", err)
	}
	return nil
}

func (t *Transaction) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
		return ldcore.DriverError("rollback failed", err)
	}
	return nil
}

func (t *Transaction) AddStatements(ctx context.Context, stmts []ldcore.Statement) error {
	rows := make([]rdf.Row, 0, len(stmts))
	for _, s := range stmts {
		kind, text, lang, datatype, err := rdf.EncodeObject(s.Object)
		if err != nil {
			return err
		}
		rows = append(rows, rdf.Row{
			Subject: s.Subject, Predicate: s.Predicate, Graph: s.Graph,
			ObjectKind: kind, ObjectText: text, ObjectLanguage: lang, ObjectDatatype: datatype,
		})
	}
	return t.backend.Insert(ctx, rows)
}

func (t *Transaction) RemoveStatements(ctx context.Context, stmts []ldcore.Statement) error {
	for _, s := range stmts {
		subject := s.Subject
		predicate := s.Predicate
		var objPtr *ldcore.Value
		if !s.Object.IsNil() {
			objPtr = &s.Object
		}
		if err := t.backend.Delete(ctx, &subject, &predicate, objPtr); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transaction) TupleQuery(ctx context.Context, query string) (ldcore.TupleResult, error) {
	data, aliases, err := rdf.Select(ctx, t.backend, query)
	if err != nil {
		return nil, ldcore.DriverError("tuple query failed", err)
	}
	return rdf.NewRows(aliases, data), nil
}

func (t *Transaction) UpdateQuery(ctx context.Context, query string) error {
	if err := rdf.Update(ctx, t.backend, query); err != nil {
		return ldcore.DriverError("update query failed", err)
	}
	return nil
}
