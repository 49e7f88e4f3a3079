package ldcore

import "context"

// Store is the public API the engine (Retriever/Writer/Loader) is driven
// through, and the one interface application code calls directly (§6
// "Store API"). A concrete Store wires a StoreDriver, a Config, and the
// engine workers together; this package only declares the contract.
type Store interface {
	// Retrieve runs a retrieval over model (a value whose structure names
	// what to fetch) and returns the assembled value, or Nil if nothing
	// matched. locales, when non-empty, narrows which Text values a
	// language-tagged projection prefers.
	Retrieve(ctx context.Context, model Value, locales []Locale) (Value, error)

	Create(ctx context.Context, v Value) (int, error)
	Update(ctx context.Context, v Value) (int, error)
	Mutate(ctx context.Context, v Value) (int, error)
	Delete(ctx context.Context, v Value) (int, error)
	Insert(ctx context.Context, v Value) (int, error)
	Remove(ctx context.Context, v Value) (int, error)
	Modify(ctx context.Context, insert, remove Value) (int, error)

	// Execute runs task within a single transaction: the outermost
	// Execute call on the current logical thread begins the transaction
	// and commits on success (or rolls back on error); a nested Execute
	// reuses the already-active transaction and never commits or rolls
	// back itself (§5 "Shared resources").
	Execute(ctx context.Context, task func(Store) error) error
}

// ExecuteT is declared in store.go, alongside the Store implementation
// that backs it.

// Statement is one (subject, predicate, object, graph) triple/quad, the
// unit the StoreDriver adds and removes.
type Statement struct {
	Subject   string
	Predicate string
	Object    Value
	Graph     string // "" means the default graph
}

// StoreDriver is the external triple-store driver interface (§6): it
// opens transactions; everything else (planning, batching, cascading)
// happens above it in this package and internal/engine.
type StoreDriver interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Transaction is a single triple-store transaction: statement add/remove,
// and SPARQL-like tuple/update query execution. A transaction is
// committed or rolled back only by the code that began it; see §5.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	AddStatements(ctx context.Context, stmts []Statement) error
	RemoveStatements(ctx context.Context, stmts []Statement) error

	// TupleQuery executes a SPARQL 1.1 SELECT-shaped query string
	// compiled by the planner and returns a row cursor.
	TupleQuery(ctx context.Context, query string) (TupleResult, error)

	// UpdateQuery executes a SPARQL 1.1 UPDATE-shaped query string
	// (DELETE WHERE / INSERT DATA) compiled by the Updater.
	UpdateQuery(ctx context.Context, query string) error
}

// TupleResult is a row cursor over a tuple query's results, modeled on
// database/sql.Rows (and pgx.Rows, which the reference driver speaks
// directly).
type TupleResult interface {
	Next() bool
	Columns() []string
	Scan(dest ...any) error
	Err() error
	Close() error
}

// ResponseSink is the optional surface a Store-fronting HTTP handler
// writes through (§6 "Response sink"). Nothing in this module implements
// it; it exists so callers exposing an HTTP surface have a narrow,
// store-agnostic target to adapt their framework's response writer to.
type ResponseSink interface {
	SetStatus(code int)
	SetHeader(name, value string)
	Write(p []byte) (int, error)
}
