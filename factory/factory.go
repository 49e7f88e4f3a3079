// Package factory is the primary way external callers construct an
// ldcore.Store: it wires the Postgres primary driver, the optional DuckDB
// aggregate driver, and the internal/engine worker set (Fetcher/Selector/
// Updater/Loader/Retriever/Writer) from one ldcore.Config, grounded on
// the teacher's own factory.NewEntityManagerWithConfig /
// cmd/server/factory.go createDatabasePool connection-pool setup.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lychee-technology/ldstore"
	"github.com/lychee-technology/ldstore/internal/engine"
	duckdb "github.com/lychee-technology/ldstore/internal/store/duckdb"
	postgres "github.com/lychee-technology/ldstore/internal/store/postgres"
)

// Store bundles the ldcore.Store callers drive their application through
// with the pooled resources backing it, so callers have one place to
// release everything on shutdown.
type Store struct {
	ldcore.Store

	pool   *pgxpool.Pool
	duckdb *duckdb.Driver
}

// Close releases the Postgres pool and, if one was opened, the DuckDB
// connection. Safe to call once after the caller is done with the Store.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.duckdb != nil {
		return s.duckdb.Close()
	}
	return nil
}

// New builds a Store from cfg: a pgxpool.Pool per cfg.Store's connection
// settings backs the primary ldpgx driver; when cfg.Store.DuckDBPath is
// non-empty, a second ldduckdb driver backs aggregate/grouped Selector
// queries. Both drivers are scoped to cfg.Store.GraphURI when set.
func New(ctx context.Context, cfg *ldcore.Config) (*Store, error) {
	pool, err := createPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	table := cfg.Store.TripleTable
	if table == "" {
		table = "ld_triples"
	}
	primary := postgres.New(pool, table, cfg.Store.GraphURI)

	var aggregate *duckdb.Driver
	var aggDriver ldcore.StoreDriver
	if cfg.Store.DuckDBPath != "" {
		aggregate, err = duckdb.Open(ctx, cfg.Store.DuckDBPath, table, cfg.Store.GraphURI)
		if err != nil {
			pool.Close()
			return nil, err
		}
		aggDriver = aggregate
	}

	adapter := newOps(primary, aggDriver, cfg)
	return &Store{Store: ldcore.NewStore(adapter), pool: pool, duckdb: aggregate}, nil
}

func createPool(ctx context.Context, cfg *ldcore.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse store dsn: %w", err)
	}

	if cfg.Store.MaxConnections > 0 {
		poolConfig.MaxConns = int32(cfg.Store.MaxConnections)
	}
	if cfg.Store.MinConnections > 0 {
		poolConfig.MinConns = int32(cfg.Store.MinConnections)
	}
	if cfg.Store.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.Store.ConnMaxLifetime
	}
	if cfg.Store.ConnMaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.Store.ConnMaxIdleTime
	}
	if cfg.Store.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.Store.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}
	return pool, nil
}

// ops is the engine-backed adapter satisfying ldcore's unexported
// storeOps interface: every operation opens (or reuses, per §5) exactly
// one Loader.Execute call.
type ops struct {
	driver    ldcore.StoreDriver
	loader    *engine.Loader
	retriever *engine.Retriever
	writer    *engine.Writer
}

func newOps(primary ldcore.StoreDriver, aggregate ldcore.StoreDriver, cfg *ldcore.Config) *ops {
	vscope := engine.NewVariableScope()
	fetcher := engine.NewFetcher()
	selector := engine.NewSelector(vscope, cfg.Query.DefaultPageSize, primary, aggregate)
	updater := engine.NewUpdater()
	loader := engine.NewLoader(primary, fetcher, selector, updater, cfg.Loader.MaxRounds)

	return &ops{
		driver:    primary,
		loader:    loader,
		retriever: engine.NewRetriever(loader),
		writer:    engine.NewWriter(loader),
	}
}

func (o *ops) Retrieve(ctx context.Context, model ldcore.Value, locales []ldcore.Locale) (ldcore.Value, error) {
	return o.retriever.Retrieve(ctx, model, locales)
}

func (o *ops) Create(ctx context.Context, v ldcore.Value) (int, error) { return o.writer.Create(ctx, v) }
func (o *ops) Update(ctx context.Context, v ldcore.Value) (int, error) { return o.writer.Update(ctx, v) }
func (o *ops) Mutate(ctx context.Context, v ldcore.Value) (int, error) { return o.writer.Mutate(ctx, v) }
func (o *ops) Delete(ctx context.Context, v ldcore.Value) (int, error) { return o.writer.Delete(ctx, v) }
func (o *ops) Insert(ctx context.Context, v ldcore.Value) (int, error) { return o.writer.Insert(ctx, v) }
func (o *ops) Remove(ctx context.Context, v ldcore.Value) (int, error) { return o.writer.Remove(ctx, v) }

func (o *ops) Modify(ctx context.Context, insert, remove ldcore.Value) (int, error) {
	return o.writer.Modify(ctx, insert, remove)
}

// RunTransaction opens the outermost transaction via the same driver the
// Loader holds, threads it through ctx, and commits/rolls back around
// fn. Everything fn does routes back through o's Retrieve/Create/... and
// engine.Loader.Execute, which detects the ctx-carried transaction and
// reuses it instead of opening a second one (§5 "Shared resources").
func (o *ops) RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := o.driver.Begin(ctx)
	if err != nil {
		return ldcore.DriverError("could not begin outer transaction", err)
	}
	ctx = ldcore.WithTransaction(ctx, tx)
	if err := fn(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return ldcore.DriverError("outer transaction commit failed", err)
	}
	return nil
}
