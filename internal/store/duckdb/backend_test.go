package ldduckdb

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/ldstore"
	"github.com/lychee-technology/ldstore/internal/store/rdf"
)

// beginMockTx opens a transaction against a sqlmock.Sqlmock-backed *sql.DB
// the same way Driver.Begin does, so backend runs against a real *sql.Tx.
func beginMockTx(t *testing.T) (*sql.Tx, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectBegin()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	return tx, mock
}

func TestBackendMatchBuildsPositionalWhere(t *testing.T) {
	tx, mock := beginMockTx(t)
	b := &backend{tx: tx, table: "ld_triples"}

	subject := "urn:a"
	rows := sqlmock.NewRows([]string{"subject", "predicate", "graph", "object_kind", "object_text", "object_language", "object_datatype"}).
		AddRow("urn:a", "name", "", "string", "alice", "", "")

	mock.ExpectQuery(`SELECT subject, predicate, graph, object_kind, object_text, object_language, object_datatype FROM ld_triples WHERE subject = \?`).
		WithArgs(subject).
		WillReturnRows(rows)

	got, err := b.Match(context.Background(), &subject, nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "alice", got[0].ObjectText)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBackendInsertUsesPositionalPlaceholders(t *testing.T) {
	tx, mock := beginMockTx(t)
	b := &backend{tx: tx, table: "ld_triples"}

	mock.ExpectExec(`INSERT INTO ld_triples`).
		WithArgs("urn:a", "name", "", "string", "alice", "", "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := b.Insert(context.Background(), []rdf.Row{
		{Subject: "urn:a", Predicate: "name", ObjectKind: "string", ObjectText: "alice"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBackendDeleteBuildsPositionalWhere(t *testing.T) {
	tx, mock := beginMockTx(t)
	b := &backend{tx: tx, table: "ld_triples"}

	subject := "urn:a"
	predicate := "name"
	mock.ExpectExec(`DELETE FROM ld_triples WHERE subject = \? AND predicate = \?`).
		WithArgs(subject, predicate).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := b.Delete(context.Background(), &subject, &predicate, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBackendMatchEncodesObjectConstraint(t *testing.T) {
	tx, mock := beginMockTx(t)
	b := &backend{tx: tx, table: "ld_triples"}

	obj := ldcore.NewString("alice")
	rows := sqlmock.NewRows([]string{"subject", "predicate", "graph", "object_kind", "object_text", "object_language", "object_datatype"})

	mock.ExpectQuery(`SELECT subject, predicate, graph, object_kind, object_text, object_language, object_datatype FROM ld_triples WHERE object_kind = \? AND object_text = \? AND object_language = \? AND object_datatype = \?`).
		WithArgs("string", "alice", "", "").
		WillReturnRows(rows)

	got, err := b.Match(context.Background(), nil, nil, &obj)
	require.NoError(t, err)
	require.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
