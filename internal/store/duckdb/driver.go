// Package ldduckdb is the Selector's aggregate-side reference driver: a
// DuckDB-resident triples table reached through database/sql, grounded
// on the teacher's internal/duckdb_conn.go connection setup (sql.Open
// with the registered "duckdb" driver, a single pooled connection,
// PingContext on open).
package ldduckdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/lychee-technology/ldstore"
	"github.com/lychee-technology/ldstore/internal/store/rdf"
)

// Driver wraps a database/sql DB opened against the duckdb driver,
// storing every statement in a single triples table. Used as the
// Selector's Aggregate StoreDriver (§4.8): queries that need DuckDB's
// columnar aggregation engine route here instead of through ldpgx.
type Driver struct {
	db    *sql.DB
	table string
	graph string
}

// Open opens dsn (":memory:" or a file path) against the duckdb driver
// and ensures the triples table exists. graph, when non-empty, scopes
// every read and write through this driver to one named graph (§6 "a
// URI-valued default graph scopes every read and write").
func Open(ctx context.Context, dsn, table, graph string) (*Driver, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, ldcore.DriverError("open duckdb failed", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, ldcore.DriverError("ping duckdb failed", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		subject VARCHAR, predicate VARCHAR, graph VARCHAR,
		object_kind VARCHAR, object_text VARCHAR, object_language VARCHAR, object_datatype VARCHAR
	)`, table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, ldcore.DriverError("create triples table failed", err)
	}
	return &Driver{db: db, table: table, graph: graph}, nil
}

func (d *Driver) Close() error { return d.db.Close() }

func (d *Driver) Begin(ctx context.Context) (ldcore.Transaction, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, ldcore.DriverError("begin transaction failed", err)
	}
	var be rdf.Backend = &backend{tx: tx, table: d.table}
	if d.graph != "" {
		be = &rdf.GraphBackend{Backend: be, Graph: d.graph}
	}
	return &Transaction{tx: tx, backend: be}, nil
}

// Transaction wraps a database/sql.Tx.
type Transaction struct {
	tx      *sql.Tx
	backend rdf.Backend
}

func (t *Transaction) Commit(ctx context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return ldcore.DriverError("commit failed", err)
	}
	return nil
}

func (t *Transaction) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
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
