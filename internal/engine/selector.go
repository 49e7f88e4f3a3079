package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/lychee-technology/ldstore"
)

// SelectorTask is one scheduled selection query (§4.8): a query scoped
// either to a specific anchor+property edge, to a whole class (Edge ==
// nil), or virtually (no store round-trip; Virtual callers still go
// through Compile so filters/ordering stay uniform, but the Loader never
// dispatches a virtual task's query to a driver).
type SelectorTask struct {
	Virtual bool
	ID      ldcore.Value
	Edge    *PropertyEdge
	Shape   *ldcore.Shape
	Query   ldcore.Query

	future *Future
}

// Selector batches independent selection queries: each run phase compiles
// and executes one query per still-pending task, all concurrently, and
// completes each task's own future as soon as its query returns.
type Selector struct {
	mu           sync.Mutex
	tasks        []*SelectorTask
	vscope       *VariableScope
	defaultLimit int

	// Primary answers ordinary (non-aggregate) selections; Aggregate, if
	// non-nil, answers queries whose Specs apply an aggregate function —
	// the dual-path split mirroring the teacher's postgres+duckdb
	// routing, here routing grouped/aggregate reads to the secondary
	// analytical driver while point reads stay on the primary.
	Primary   ldcore.StoreDriver
	Aggregate ldcore.StoreDriver
}

// NewSelector builds a Selector against primary (required) and an
// optional aggregate driver.
func NewSelector(vscope *VariableScope, defaultLimit int, primary, aggregate ldcore.StoreDriver) *Selector {
	return &Selector{vscope: vscope, defaultLimit: defaultLimit, Primary: primary, Aggregate: aggregate}
}

// Schedule queues task and returns its Future, resolving to an Array of
// values (task.Query has no Specs) or an Array of tuple Objects keyed by
// each Spec's alias (task.Query has Specs).
func (s *Selector) Schedule(task SelectorTask) *Future {
	fut := newFuture()
	task.future = fut
	s.mu.Lock()
	s.tasks = append(s.tasks, &task)
	s.mu.Unlock()
	return fut
}

// HasWork reports whether any selections are queued for the next run.
func (s *Selector) HasWork() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks) > 0
}

// Run snapshots pending tasks and executes each one's compiled query
// concurrently, completing futures independently as they finish.
func (s *Selector) Run(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if len(s.tasks) == 0 {
		s.mu.Unlock()
		return false, nil
	}
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	zap.S().Debugw("selector run", "tasks", len(tasks))

	var wg sync.WaitGroup
	var firstErr error
	var errMu sync.Mutex
	wg.Add(len(tasks))
	for _, t := range tasks {
		go func(t *SelectorTask) {
			defer wg.Done()
			v, err := s.execute(ctx, t)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
			}
			t.future.complete(v, err)
		}(t)
	}
	wg.Wait()
	return true, firstErr
}

func (s *Selector) execute(ctx context.Context, t *SelectorTask) (ldcore.Value, error) {
	var shape *ldcore.Shape
	if t.Shape != nil {
		shape = t.Shape
	}
	plan, err := Compile(s.vscope, shape, t.Virtual, t.ID, t.Edge, t.Query, s.defaultLimit)
	if err != nil {
		return ldcore.Nil, err
	}
	if t.Virtual {
		return ldcore.NewArray(), nil
	}

	driver := s.Primary
	if t.Query.IsAggregate() && s.Aggregate != nil {
		driver = s.Aggregate
	}
	txn, err := driver.Begin(ctx)
	if err != nil {
		return ldcore.Nil, ldcore.DriverError("selector could not open a read transaction", err)
	}
	defer txn.Rollback(ctx)

	rows, err := txn.TupleQuery(ctx, plan.Query)
	if err != nil {
		return ldcore.Nil, ldcore.DriverError("selector query failed", err)
	}
	defer rows.Close()

	if len(plan.Aliases) == 0 {
		var out []ldcore.Value
		for rows.Next() {
			var v ldcore.Value
			if err := rows.Scan(&v); err != nil {
				return ldcore.Nil, err
			}
			out = append(out, v)
		}
		return ldcore.NewArray(out...), rows.Err()
	}

	var out []ldcore.Value
	for rows.Next() {
		vals := make([]ldcore.Value, len(plan.Aliases))
		ptrs := make([]any, len(plan.Aliases))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return ldcore.Nil, err
		}
		fields := make([]ldcore.Field, len(plan.Aliases))
		for i, alias := range plan.Aliases {
			fields[i] = ldcore.F(alias, vals[i])
		}
		obj, err := ldcore.NewObject(fields...)
		if err != nil {
			return ldcore.Nil, err
		}
		out = append(out, obj)
	}
	return ldcore.NewArray(out...), rows.Err()
}
