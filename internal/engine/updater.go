package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lychee-technology/ldstore"
)

// Task is one scheduled statement mutation (§4.9): Resource/Predicate/
// Object each hold a concrete URI/literal Value, or Nil to mean
// "wildcard" — valid only for a deletion task, where a wildcard slot
// becomes a fresh SPARQL variable in the compiled DELETE WHERE pattern.
type Task struct {
	Resource  ldcore.Value
	Predicate ldcore.Value
	Object    ldcore.Value

	future *Future
}

// Updater accumulates insertions and deletions into two queues and
// compiles them into a single SPARQL-style UPDATE per run phase.
type Updater struct {
	mu      sync.Mutex
	inserts []*Task
	deletes []*Task
}

// NewUpdater returns an empty Updater.
func NewUpdater() *Updater { return &Updater{} }

// Insert schedules a concrete triple for insertion. All three fields must
// be non-Nil; a wildcard insert is a caller error.
func (u *Updater) Insert(t Task) *Future {
	fut := newFuture()
	if t.Resource.IsNil() || t.Predicate.IsNil() || t.Object.IsNil() {
		fut.complete(ldcore.Nil, ldcore.UnsupportedError("insert task cannot contain a wildcard slot"))
		return fut
	}
	t.future = fut
	u.mu.Lock()
	u.inserts = append(u.inserts, &t)
	u.mu.Unlock()
	return fut
}

// Delete schedules a deletion pattern; any field may be Nil (wildcard).
func (u *Updater) Delete(t Task) *Future {
	fut := newFuture()
	t.future = fut
	u.mu.Lock()
	u.deletes = append(u.deletes, &t)
	u.mu.Unlock()
	return fut
}

// HasWork reports whether any mutation is queued for the next run.
func (u *Updater) HasWork() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.inserts) > 0 || len(u.deletes) > 0
}

// Run snapshots both queues, compiles one UPDATE, executes it, and
// completes every task future (all succeed or all fail together, since
// they share a single UPDATE statement).
func (u *Updater) Run(ctx context.Context, tx ldcore.Transaction) (bool, error) {
	u.mu.Lock()
	if len(u.inserts) == 0 && len(u.deletes) == 0 {
		u.mu.Unlock()
		return false, nil
	}
	inserts, deletes := u.inserts, u.deletes
	u.inserts, u.deletes = nil, nil
	u.mu.Unlock()

	zap.S().Debugw("updater run", "inserts", len(inserts), "deletes", len(deletes))

	query, err := compileUpdate(inserts, deletes)
	if err != nil {
		completeAll(inserts, ldcore.Nil, err)
		completeAll(deletes, ldcore.Nil, err)
		return true, err
	}

	if err := tx.UpdateQuery(ctx, query); err != nil {
		wrapped := ldcore.DriverError("update query failed", err)
		completeAll(inserts, ldcore.Nil, wrapped)
		completeAll(deletes, ldcore.Nil, wrapped)
		return true, wrapped
	}

	completeAll(inserts, ldcore.NewBit(true), nil)
	completeAll(deletes, ldcore.NewBit(true), nil)
	return true, nil
}

func completeAll(tasks []*Task, v ldcore.Value, err error) {
	for _, t := range tasks {
		t.future.complete(v, err)
	}
}

// compileUpdate renders deletes as a single DELETE WHERE block (each
// wildcard slot becomes its own fresh variable per pattern, per §4.9)
// followed by inserts as a single INSERT DATA block.
func compileUpdate(inserts, deletes []*Task) (string, error) {
	var b strings.Builder
	if len(deletes) > 0 {
		b.WriteString("DELETE WHERE {\n")
		for i, t := range deletes {
			s, err := wildcardTerm(t.Resource, fmt.Sprintf("?ds%d", i))
			if err != nil {
				return "", err
			}
			p, err := wildcardTerm(t.Predicate, fmt.Sprintf("?dp%d", i))
			if err != nil {
				return "", err
			}
			o, err := wildcardTerm(t.Object, fmt.Sprintf("?do%d", i))
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "  %s %s %s .\n", s, p, o)
		}
		b.WriteString("}\n")
	}
	if len(inserts) > 0 {
		b.WriteString("INSERT DATA {\n")
		for _, t := range inserts {
			s, err := compileLiteral(t.Resource)
			if err != nil {
				return "", err
			}
			p, err := compileLiteral(t.Predicate)
			if err != nil {
				return "", err
			}
			o, err := compileLiteral(t.Object)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "  %s %s %s .\n", s, p, o)
		}
		b.WriteString("}\n")
	}
	return b.String(), nil
}

func wildcardTerm(v ldcore.Value, freshVar string) (string, error) {
	if v.IsNil() {
		return freshVar, nil
	}
	return compileLiteral(v)
}
