// Package ldcdc is the optional durability side-channel described in
// SPEC_FULL.md's domain-stack section: it periodically dumps every
// committed triple for one graph to S3 as a Parquet snapshot, grounded on
// the teacher's deleted internal/cdc/flusher.go + duckdb_exporter.go
// (DuckDB's postgres_scanner extension reading straight out of Postgres,
// COPY ... TO '<path>' (FORMAT PARQUET), then an S3 upload of the
// resulting file). Nothing in the core read/write loop depends on this
// package; it is only ever driven by whatever the caller wires behind
// Config.Snapshot.Enabled.
package ldcdc

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	_ "github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"

	"github.com/lychee-technology/ldstore"
)

// Uploader is the subset of *manager.Uploader's surface RunOnce needs,
// narrowed so tests can inject a fake without touching S3.
type Uploader interface {
	Upload(ctx context.Context, input *manager.UploadInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Exporter runs one-shot or periodic snapshot exports of a Postgres
// triples table to S3 Parquet objects, scanned through an in-process
// DuckDB connection via the postgres_scanner extension.
type Exporter struct {
	Config   ldcore.SnapshotConfig
	PGDSN    string
	Table    string
	Uploader Uploader
	Logger   *zap.SugaredLogger

	// openDuckDB is overridable in tests so they can exercise RunOnce's
	// SQL-building and upload-triggering logic against an in-memory
	// DuckDB connection that never actually reaches postgres_scanner.
	openDuckDB func() (*sql.DB, error)
}

// New builds an Exporter writing snapshots of table (reached over pgDSN)
// to cfg's configured S3 bucket/prefix, uploading through uploader.
func New(cfg ldcore.SnapshotConfig, pgDSN, table string, uploader Uploader, logger *zap.SugaredLogger) *Exporter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Exporter{
		Config:   cfg,
		PGDSN:    pgDSN,
		Table:    table,
		Uploader: uploader,
		Logger:   logger,
		openDuckDB: func() (*sql.DB, error) {
			return sql.Open("duckdb", ":memory:")
		},
	}
}

// RunLoop exports on Config.Interval until ctx is canceled, logging and
// continuing past any single export's failure (a missed snapshot is not
// fatal to the caller; the next tick tries again).
func (e *Exporter) RunLoop(ctx context.Context) error {
	if !e.Config.Enabled {
		return nil
	}
	interval := e.Config.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := e.RunOnce(ctx); err != nil {
				e.Logger.Errorw("snapshot export failed", "err", err)
			}
		}
	}
}

// RunOnce exports the current triples table to one S3 Parquet object. A
// no-op when Config.Enabled is false.
func (e *Exporter) RunOnce(ctx context.Context) error {
	if !e.Config.Enabled {
		return nil
	}

	db, err := e.openDuckDB()
	if err != nil {
		return ldcore.DriverError("open duckdb scanner failed", err)
	}
	defer db.Close()

	tmp, err := os.CreateTemp("", "ld-snapshot-*.parquet")
	if err != nil {
		return ldcore.DriverError("create snapshot temp file failed", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	copySQL := e.buildCopySQL(tmpPath)
	ctx2, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()
	if _, err := db.ExecContext(ctx2, "INSTALL postgres_scanner; LOAD postgres_scanner;"); err != nil {
		e.Logger.Warnw("duckdb postgres_scanner load failed", "err", err)
	}
	if _, err := db.ExecContext(ctx2, copySQL); err != nil {
		return ldcore.DriverError("duckdb snapshot export failed", err)
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return ldcore.DriverError("open snapshot file failed", err)
	}
	defer f.Close()

	key := path.Join(e.Config.Prefix, fmt.Sprintf("snapshot-%d.parquet", time.Now().UnixNano()))
	_, err = e.Uploader.Upload(ctx, &manager.UploadInput{
		Bucket: aws.String(e.Config.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return ldcore.DriverError("upload snapshot failed", err)
	}
	e.Logger.Infow("snapshot exported", "bucket", e.Config.Bucket, "key", key)
	return nil
}

// buildCopySQL renders the COPY (SELECT ... FROM postgres_scan(...)) TO
// '<path>' (FORMAT PARQUET, COMPRESSION 'ZSTD') statement, restricted to
// Config.GraphURI when one is set (mirrors the teacher's
// ExportSnapshotToTmp filter-predicate-as-string-literal convention).
func (e *Exporter) buildCopySQL(outPath string) string {
	filter := "true"
	if e.Config.GraphURI != "" {
		filter = fmt.Sprintf("graph = '%s'", escapeLiteral(e.Config.GraphURI))
	}
	return fmt.Sprintf(`COPY (
  SELECT subject, predicate, graph, object_kind, object_text, object_language, object_datatype
  FROM postgres_scan('%s', '%s', '%s')
) TO '%s' (FORMAT PARQUET, COMPRESSION 'ZSTD')`,
		escapeLiteral(e.PGDSN), escapeLiteral(e.Table), filter, escapeLiteral(outPath))
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
