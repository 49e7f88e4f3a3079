package ldcore

import "context"

// txContextKey is the unexported key a context.Context carries its active
// Transaction under. Only this package constructs it, but the accessor
// pair below is exported so internal/engine's Loader can detect and reuse
// an already-open transaction without ldcore importing engine (§5
// "nested txn calls reuse the active connection" expressed as a
// context-carried value instead of a true thread-local).
type txContextKey struct{}

// WithTransaction returns a copy of ctx carrying tx as the active
// transaction for the current logical call chain.
func WithTransaction(ctx context.Context, tx Transaction) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TransactionFrom reports the transaction ctx carries, if any.
func TransactionFrom(ctx context.Context) (Transaction, bool) {
	tx, ok := ctx.Value(txContextKey{}).(Transaction)
	return tx, ok
}

// storeOps is the subset of internal/engine's Retriever/Writer surface a
// Store needs, expressed without importing that package (engine already
// imports ldcore, so the dependency can only run this direction). A
// concrete *store is handed one by factory.New.
type storeOps interface {
	Retrieve(ctx context.Context, model Value, locales []Locale) (Value, error)
	Create(ctx context.Context, v Value) (int, error)
	Update(ctx context.Context, v Value) (int, error)
	Mutate(ctx context.Context, v Value) (int, error)
	Delete(ctx context.Context, v Value) (int, error)
	Insert(ctx context.Context, v Value) (int, error)
	Remove(ctx context.Context, v Value) (int, error)
	Modify(ctx context.Context, insert, remove Value) (int, error)

	// RunTransaction opens the outermost transaction, runs fn with a
	// context carrying it, and commits on success or rolls back on
	// error. Never called when a transaction is already active.
	RunTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// store is the concrete Store every exported method ultimately returns a
// value satisfying; it does no work of its own beyond transaction-scope
// bookkeeping and delegates everything else to ops.
type store struct {
	ops storeOps

	// txCtx is non-nil only on the nested Store instance handed to an
	// Execute task's closure; every method pins its call to this context
	// instead of whatever ctx the caller happens to pass, so a nested
	// txn call reuses the active transaction even when the caller just
	// closed over the pre-Execute ctx variable (the common case, since
	// Execute's task signature has no ctx parameter of its own).
	txCtx context.Context
}

// NewStore wraps ops (built by factory.New) as a Store.
func NewStore(ops storeOps) Store {
	return &store{ops: ops}
}

func (s *store) resolve(ctx context.Context) context.Context {
	if s.txCtx != nil {
		return s.txCtx
	}
	return ctx
}

func (s *store) Retrieve(ctx context.Context, model Value, locales []Locale) (Value, error) {
	return s.ops.Retrieve(s.resolve(ctx), model, locales)
}

func (s *store) Create(ctx context.Context, v Value) (int, error) {
	return s.ops.Create(s.resolve(ctx), v)
}

func (s *store) Update(ctx context.Context, v Value) (int, error) {
	return s.ops.Update(s.resolve(ctx), v)
}

func (s *store) Mutate(ctx context.Context, v Value) (int, error) {
	return s.ops.Mutate(s.resolve(ctx), v)
}

func (s *store) Delete(ctx context.Context, v Value) (int, error) {
	return s.ops.Delete(s.resolve(ctx), v)
}

func (s *store) Insert(ctx context.Context, v Value) (int, error) {
	return s.ops.Insert(s.resolve(ctx), v)
}

func (s *store) Remove(ctx context.Context, v Value) (int, error) {
	return s.ops.Remove(s.resolve(ctx), v)
}

func (s *store) Modify(ctx context.Context, insert, remove Value) (int, error) {
	return s.ops.Modify(s.resolve(ctx), insert, remove)
}

// Execute runs task within a single transaction (§6 "Execute"). The
// outermost call opens the transaction and commits/rolls back on
// task's return; a call already running inside one (its ctx carries a
// Transaction) just invokes task directly over the same Store.
func (s *store) Execute(ctx context.Context, task func(Store) error) error {
	ctx = s.resolve(ctx)
	if _, ok := TransactionFrom(ctx); ok {
		return task(s)
	}
	return s.ops.RunTransaction(ctx, func(txCtx context.Context) error {
		return task(&store{ops: s.ops, txCtx: txCtx})
	})
}

// ExecuteT runs task within s's transaction and returns task's typed
// result. Go methods cannot carry their own type parameter, so the
// generic "execute(task) -> T" operation from §6 is exposed as this free
// function layered over Store.Execute instead of a generic method.
func ExecuteT[T any](ctx context.Context, s Store, task func(Store) (T, error)) (T, error) {
	var result T
	err := s.Execute(ctx, func(tx Store) error {
		r, err := task(tx)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}
