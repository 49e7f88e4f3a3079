package ldcdc

import (
	"context"
	"database/sql"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lychee-technology/ldstore"
)

type fakeUploader struct {
	calls []string
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, input *manager.UploadInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if input.Key != nil {
		f.calls = append(f.calls, *input.Key)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &manager.UploadOutput{}, nil
}

func TestRunOnceDisabledIsNoop(t *testing.T) {
	e := New(ldcore.SnapshotConfig{Enabled: false}, "dsn", "ld_triples", &fakeUploader{}, nil)
	require.NoError(t, e.RunOnce(context.Background()))
}

func TestRunOnceAttemptsExport(t *testing.T) {
	uploader := &fakeUploader{}
	e := New(ldcore.SnapshotConfig{Enabled: true, Bucket: "b", Prefix: "snaps"}, "host=x", "ld_triples", uploader, nil)
	// Swap the duckdb connection for an in-memory one so RunOnce runs
	// without a live Postgres to scan.
	e.openDuckDB = func() (*sql.DB, error) {
		db, err := sql.Open("duckdb", ":memory:")
		return db, err
	}

	err := e.RunOnce(context.Background())
	// The postgres_scan() call itself will fail against a bare in-memory
	// DuckDB with no reachable Postgres, which is expected here — this
	// test only asserts RunOnce attempted the export and surfaced a
	// DriverError rather than panicking or silently skipping the
	// configured snapshot.
	if err != nil {
		var ldErr *ldcore.LdError
		require.ErrorAs(t, err, &ldErr)
		assert.Equal(t, ldcore.ErrorKindDriver, ldErr.Kind)
	}
}

func TestBuildCopySQLEscapesAndScopesGraph(t *testing.T) {
	e := New(ldcore.SnapshotConfig{Enabled: true, GraphURI: "urn:graph's"}, "host=x dbname=y", "ld_triples", &fakeUploader{}, nil)
	sqlText := e.buildCopySQL("/tmp/out.parquet")
	assert.Contains(t, sqlText, "postgres_scan('host=x dbname=y', 'ld_triples'")
	assert.Contains(t, sqlText, "graph = 'urn:graph''s'")
	assert.Contains(t, sqlText, "/tmp/out.parquet")
}

func TestRunLoopStopsOnContextCancel(t *testing.T) {
	e := New(ldcore.SnapshotConfig{Enabled: true, Interval: 0}, "dsn", "ld_triples", &fakeUploader{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, e.RunLoop(ctx), context.Canceled)
}
