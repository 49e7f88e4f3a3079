package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lychee-technology/ldstore"
)

// fetchKey identifies one batched triple-pattern read: an empty Predicate
// means an existence check rather than an edge read.
type fetchKey struct {
	Resource  string
	Predicate string
	Reverse   bool
}

// Future is a one-shot result slot completed exactly once by a worker's
// run phase and read by any number of waiters (§5 "suspension points").
type Future struct {
	done  chan struct{}
	value ldcore.Value
	err   error
	once  sync.Once
}

func newFuture() *Future { return &Future{done: make(chan struct{})} }

func (f *Future) complete(v ldcore.Value, err error) {
	f.once.Do(func() {
		f.value, f.err = v, err
		close(f.done)
	})
}

// Wait blocks until f is completed or ctx is done.
func (f *Future) Wait(ctx context.Context) (ldcore.Value, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return ldcore.Nil, ctx.Err()
	}
}

// Fetcher batches triple-pattern reads — both existence checks and
// forward/reverse property-edge reads — across everything scheduled
// before a run phase starts (§4.7).
type Fetcher struct {
	mu      sync.Mutex
	pending map[fetchKey]*Future
}

// NewFetcher returns an empty Fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{pending: make(map[fetchKey]*Future)}
}

// Exists schedules a subject-existence check for id (object-existence
// when reverse is true) and returns its Future, resolving to NewBit(true)
// when a matching statement exists and to Nil when none does.
func (f *Fetcher) Exists(id string, reverse bool) *Future {
	return f.getOrCreate(fetchKey{Resource: id, Reverse: reverse})
}

// Fetch schedules a read of every value reachable from id along
// property's forward edge (reverse edge when reverse is true), returning
// a Future of an Array of the matched values, or of Nil when nothing
// matched.
func (f *Fetcher) Fetch(id, property string, reverse bool) *Future {
	return f.getOrCreate(fetchKey{Resource: id, Predicate: property, Reverse: reverse})
}

func (f *Fetcher) getOrCreate(key fetchKey) *Future {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fut, ok := f.pending[key]; ok {
		return fut
	}
	fut := newFuture()
	f.pending[key] = fut
	return fut
}

// HasWork reports whether any reads are queued for the next run.
func (f *Fetcher) HasWork() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending) > 0
}

// Run snapshots every key pending at call time (keys scheduled after the
// snapshot run in the next round, per §5 "Ordering"), compiles one UNION
// tuple query, executes it, and completes every snapshotted future. It
// reports whether it did any work.
func (f *Fetcher) Run(ctx context.Context, tx ldcore.Transaction) (bool, error) {
	f.mu.Lock()
	if len(f.pending) == 0 {
		f.mu.Unlock()
		return false, nil
	}
	keys := make([]fetchKey, 0, len(f.pending))
	futures := make([]*Future, 0, len(f.pending))
	for k, fut := range f.pending {
		keys = append(keys, k)
		futures = append(futures, fut)
	}
	f.pending = make(map[fetchKey]*Future)
	f.mu.Unlock()

	query := compileFetchQuery(keys)
	zap.S().Debugw("fetcher run", "keys", len(keys))

	rows, err := tx.TupleQuery(ctx, query)
	if err != nil {
		for _, fut := range futures {
			fut.complete(ldcore.Nil, err)
		}
		return true, err
	}
	defer rows.Close()

	matched := make(map[int][]ldcore.Value, len(keys))
	for rows.Next() {
		var i int
		var p, r string
		var v ldcore.Value
		if err := rows.Scan(&i, &p, &v, &r); err != nil {
			for _, fut := range futures {
				fut.complete(ldcore.Nil, err)
			}
			return true, err
		}
		matched[i] = append(matched[i], v)
	}
	if err := rows.Err(); err != nil {
		for _, fut := range futures {
			fut.complete(ldcore.Nil, err)
		}
		return true, err
	}

	for i, fut := range futures {
		vals, ok := matched[i]
		if !ok {
			fut.complete(ldcore.Nil, nil)
			continue
		}
		if keys[i].Predicate == "" {
			fut.complete(ldcore.NewBit(len(vals) > 0), nil)
			continue
		}
		fut.complete(ldcore.NewArray(vals...), nil)
	}
	return true, nil
}

// compileFetchQuery emits the UNION tuple query described in §4.7: one
// branch per key, each binding (i, p, v, r) where i is the key's index in
// the snapshot, p is the predicate read (empty for existence), v is the
// matched value, and r mirrors the key's own reverse flag.
func compileFetchQuery(keys []fetchKey) string {
	var b strings.Builder
	b.WriteString("SELECT ?i ?p ?v ?r WHERE {\n")
	for i, k := range keys {
		if i > 0 {
			b.WriteString("  UNION\n")
		}
		switch {
		case k.Predicate == "" && !k.Reverse:
			fmt.Fprintf(&b, "  { BIND(%d AS ?i) BIND(\"\" AS ?p) BIND(%s AS ?r) <%s> ?p2 ?v . }\n", i, boolLit(false), k.Resource)
		case k.Predicate == "" && k.Reverse:
			fmt.Fprintf(&b, "  { BIND(%d AS ?i) BIND(\"\" AS ?p) BIND(%s AS ?r) ?v ?p2 <%s> . }\n", i, boolLit(true), k.Resource)
		case !k.Reverse:
			fmt.Fprintf(&b, "  { BIND(%d AS ?i) BIND(\"%s\" AS ?p) BIND(%s AS ?r) <%s> :%s ?v . }\n", i, k.Predicate, boolLit(false), k.Resource, k.Predicate)
		default:
			fmt.Fprintf(&b, "  { BIND(%d AS ?i) BIND(\"%s\" AS ?p) BIND(%s AS ?r) ?v :%s <%s> . }\n", i, k.Predicate, boolLit(true), k.Predicate, k.Resource)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func boolLit(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
