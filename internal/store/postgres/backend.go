package ldpgx

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/lychee-technology/ldstore"
	"github.com/lychee-technology/ldstore/internal/store/rdf"
)

// backend implements rdf.Backend against one Postgres triples table,
// columns (subject, predicate, graph, object_kind, object_text,
// object_language, object_datatype) per rdf.Row. Grounded on the
// teacher's sanitizeIdentifier/parameterized-placeholder conventions in
// postgres_persistent_repository.go.
type backend struct {
	tx    pgx.Tx
	table string
}

func (b *backend) Match(ctx context.Context, subject, predicate *string, object *ldcore.Value) ([]rdf.Row, error) {
	var where []string
	var args []any
	if subject != nil {
		args = append(args, *subject)
		where = append(where, fmt.Sprintf("subject = $%d", len(args)))
	}
	if predicate != nil {
		args = append(args, *predicate)
		where = append(where, fmt.Sprintf("predicate = $%d", len(args)))
	}
	if object != nil {
		kind, text, lang, datatype, err := rdf.EncodeObject(*object)
		if err != nil {
			return nil, err
		}
		args = append(args, kind)
		where = append(where, fmt.Sprintf("object_kind = $%d", len(args)))
		args = append(args, text)
		where = append(where, fmt.Sprintf("object_text = $%d", len(args)))
		args = append(args, lang)
		where = append(where, fmt.Sprintf("object_language = $%d", len(args)))
		args = append(args, datatype)
		where = append(where, fmt.Sprintf("object_datatype = $%d", len(args)))
	}

	query := fmt.Sprintf(
		"SELECT subject, predicate, graph, object_kind, object_text, object_language, object_datatype FROM %s",
		b.table,
	)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := b.tx.Query(ctx, query, args...)
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

// Insert batches every row into a single multi-row INSERT, the same
// VALUES ($1,$2,...),($...) shape buildAttributeValuesClause renders for
// the teacher's EAV table.
func (b *backend) Insert(ctx context.Context, rows []rdf.Row) error {
	if len(rows) == 0 {
		return nil
	}
	const width = 7
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*width)
	for i, r := range rows {
		base := i * width
		placeholders := make([]string, width)
		for j := 0; j < width; j++ {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")
		args = append(args, r.Subject, r.Predicate, r.Graph, r.ObjectKind, r.ObjectText, r.ObjectLanguage, r.ObjectDatatype)
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (subject, predicate, graph, object_kind, object_text, object_language, object_datatype) VALUES %s",
		b.table, strings.Join(values, ", "),
	)
	_, err := b.tx.Exec(ctx, query, args...)
	return err
}

func (b *backend) Delete(ctx context.Context, subject, predicate *string, object *ldcore.Value) error {
	var where []string
	var args []any
	if subject != nil {
		args = append(args, *subject)
		where = append(where, fmt.Sprintf("subject = $%d", len(args)))
	}
	if predicate != nil {
		args = append(args, *predicate)
		where = append(where, fmt.Sprintf("predicate = $%d", len(args)))
	}
	if object != nil {
		kind, text, lang, datatype, err := rdf.EncodeObject(*object)
		if err != nil {
			return err
		}
		args = append(args, kind)
		where = append(where, fmt.Sprintf("object_kind = $%d", len(args)))
		args = append(args, text)
		where = append(where, fmt.Sprintf("object_text = $%d", len(args)))
		args = append(args, lang)
		where = append(where, fmt.Sprintf("object_language = $%d", len(args)))
		args = append(args, datatype)
		where = append(where, fmt.Sprintf("object_datatype = $%d", len(args)))
	}
	query := fmt.Sprintf("DELETE FROM %s", b.table)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	_, err := b.tx.Exec(ctx, query, args...)
	return err
}
