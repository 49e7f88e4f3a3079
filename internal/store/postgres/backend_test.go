package ldpgx

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/ldstore"
	"github.com/lychee-technology/ldstore/internal/store/rdf"
)

// beginMockTx opens a transaction against mock the same way Driver.Begin
// does, so backend is exercised through the pgx.Tx pgxmock hands back
// rather than a hand-rolled stand-in — matching the teacher's own
// TestInsertPersistentRecordWithMockPool pattern.
func beginMockTx(t *testing.T, mock pgxmock.PgxPoolIface) pgx.Tx {
	t.Helper()
	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)
	return tx
}

func TestBackendMatchBuildsParameterizedWhere(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tx := beginMockTx(t, mock)
	b := &backend{tx: tx, table: "ld_triples"}

	subject := "urn:a"
	predicate := "name"
	rows := pgxmock.NewRows([]string{"subject", "predicate", "graph", "object_kind", "object_text", "object_language", "object_datatype"}).
		AddRow("urn:a", "name", "", "string", "alice", "", "")

	mock.ExpectQuery(`SELECT subject, predicate, graph, object_kind, object_text, object_language, object_datatype FROM ld_triples WHERE subject = \$1 AND predicate = \$2`).
		WithArgs(subject, predicate).
		WillReturnRows(rows)

	got, err := b.Match(context.Background(), &subject, &predicate, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "alice", got[0].ObjectText)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBackendInsertBatchesMultiRowValues(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tx := beginMockTx(t, mock)
	b := &backend{tx: tx, table: "ld_triples"}

	rows := []rdf.Row{
		{Subject: "urn:a", Predicate: "name", ObjectKind: "string", ObjectText: "alice"},
		{Subject: "urn:b", Predicate: "name", ObjectKind: "string", ObjectText: "bob"},
	}

	mock.ExpectExec(`INSERT INTO ld_triples \(subject, predicate, graph, object_kind, object_text, object_language, object_datatype\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7\), \(\$8, \$9, \$10, \$11, \$12, \$13, \$14\)`).
		WithArgs(
			"urn:a", "name", "", "string", "alice", "", "",
			"urn:b", "name", "", "string", "bob", "", "",
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	require.NoError(t, b.Insert(context.Background(), rows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBackendInsertNoopOnEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tx := beginMockTx(t, mock)
	b := &backend{tx: tx, table: "ld_triples"}

	require.NoError(t, b.Insert(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBackendDeleteBuildsParameterizedWhere(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tx := beginMockTx(t, mock)
	b := &backend{tx: tx, table: "ld_triples"}

	subject := "urn:a"
	mock.ExpectExec(`DELETE FROM ld_triples WHERE subject = \$1`).
		WithArgs(subject).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, b.Delete(context.Background(), &subject, nil, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBackendMatchEncodesObjectConstraint(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tx := beginMockTx(t, mock)
	b := &backend{tx: tx, table: "ld_triples"}

	obj := ldcore.NewString("alice")
	rows := pgxmock.NewRows([]string{"subject", "predicate", "graph", "object_kind", "object_text", "object_language", "object_datatype"})

	mock.ExpectQuery(`SELECT subject, predicate, graph, object_kind, object_text, object_language, object_datatype FROM ld_triples WHERE object_kind = \$1 AND object_text = \$2 AND object_language = \$3 AND object_datatype = \$4`).
		WithArgs("string", "alice", "", "").
		WillReturnRows(rows)

	got, err := b.Match(context.Background(), nil, nil, &obj)
	require.NoError(t, err)
	require.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
