package ldduckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lychee-technology/ldstore"
	"github.com/lychee-technology/ldstore/internal/store/rdf"
)

// backend implements rdf.Backend against one DuckDB triples table over
// database/sql's positional "?" placeholders (duckdb-go's driver does
// not speak pgx-style "$N" parameters).
type backend struct {
	tx    *sql.Tx
	table string
}

func (b *backend) Match(ctx context.Context, subject, predicate *string, object *ldcore.Value) ([]rdf.Row, error) {
	var where []string
	var args []any
	if subject != nil {
		where = append(where, "subject = ?")
		args = append(args, *subject)
	}
	if predicate != nil {
		where = append(where, "predicate = ?")
		args = append(args, *predicate)
	}
	if object != nil {
		kind, text, lang, datatype, err := rdf.EncodeObject(*object)
		if err != nil {
			return nil, err
		}
		where = append(where, "object_kind = ? AND object_text = ? AND object_language = ? AND object_datatype = ?")
		args = append(args, kind, text, lang, datatype)
	}

	query := fmt.Sprintf(
		"SELECT subject, predicate, graph, object_kind, object_text, object_language, object_datatype FROM %s",
		b.table,
	)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := b.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rdf.Row
	for rows.Next() {
		var r rdf.Row
		if err := rows.Scan(&r.Subject, &r.Predicate, &r.Graph, &r.ObjectKind, &r.ObjectText, &r.ObjectLanguage, &r.ObjectDatatype); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (b *backend) Insert(ctx context.Context, rows []rdf.Row) error {
	if len(rows) == 0 {
		return nil
	}
	var values []string
	var args []any
	for _, r := range rows {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, r.Subject, r.Predicate, r.Graph, r.ObjectKind, r.ObjectText, r.ObjectLanguage, r.ObjectDatatype)
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (subject, predicate, graph, object_kind, object_text, object_language, object_datatype) VALUES %s",
		b.table, strings.Join(values, ", "),
	)
	_, err := b.tx.ExecContext(ctx, query, args...)
	return err
}

func (b *backend) Delete(ctx context.Context, subject, predicate *string, object *ldcore.Value) error {
	var where []string
	var args []any
	if subject != nil {
		where = append(where, "subject = ?")
		args = append(args, *subject)
	}
	if predicate != nil {
		where = append(where, "predicate = ?")
		args = append(args, *predicate)
	}
	if object != nil {
		kind, text, lang, datatype, err := rdf.EncodeObject(*object)
		if err != nil {
			return err
		}
		where = append(where, "object_kind = ? AND object_text = ? AND object_language = ? AND object_datatype = ?")
		args = append(args, kind, text, lang, datatype)
	}
	query := fmt.Sprintf("DELETE FROM %s", b.table)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	_, err := b.tx.ExecContext(ctx, query, args...)
	return err
}
