package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/lychee-technology/ldstore"
)

// Loader is the cooperative driver described in §4.10/§5: it holds one
// transaction for the duration of an Execute call, and alternates
// read-phase/write-phase rounds — reading workers (Fetcher, Selector) run
// concurrently and are joined before writing workers (Updater) run, so
// that a round's reads always observe the prior round's writes but never
// the current round's (the ordering cascade-delete depends on). Commit/
// Rollback on the held transaction are called only by whoever began it:
// the Loader itself, or factory's RunTransaction for a Store.Execute
// scope. The Selector instead reads through short-lived transactions of
// its own, which it always rolls back, and the Writer runs its existence
// and embedded-child lookups directly on the held transaction. The held
// transaction stands in for the pinned thread-local
// connection slot spec.md §5 describes — this engine runs one Loader per
// logical Execute call rather than per OS thread, which gives the same
// "one active transaction per nested txn scope" guarantee without
// needing real thread-locals.
type Loader struct {
	Driver    ldcore.StoreDriver
	Fetcher   *Fetcher
	Selector  *Selector
	Updater   *Updater
	MaxRounds int
}

// NewLoader wires a Loader around the three workers and a bound on how
// many read/write rounds it will run before concluding the workload
// cannot quiesce.
func NewLoader(driver ldcore.StoreDriver, fetcher *Fetcher, selector *Selector, updater *Updater, maxRounds int) *Loader {
	if maxRounds <= 0 {
		maxRounds = 64
	}
	return &Loader{Driver: driver, Fetcher: fetcher, Selector: selector, Updater: updater, MaxRounds: maxRounds}
}

// Execute begins a transaction, invokes seed to schedule the initial
// batch of work, then rounds read/write phases until both produce no
// work, committing on success and rolling back on the first failure from
// any worker (§5 "The Loader's join surfaces the first failure").
//
// If ctx already carries an active transaction (because this call is
// nested inside an outer Store.Execute call, §5 "nested txn calls reuse
// the active connection"), Execute drives the same read/write rounds
// against that transaction but never commits or rolls it back itself —
// only the outermost call that actually opened the transaction does.
func (l *Loader) Execute(ctx context.Context, seed func(tx ldcore.Transaction) error) error {
	if tx, ok := ldcore.TransactionFrom(ctx); ok {
		return l.runRounds(ctx, tx, seed)
	}

	tx, err := l.Driver.Begin(ctx)
	if err != nil {
		return ldcore.DriverError("loader could not begin a transaction", err)
	}
	ctx = ldcore.WithTransaction(ctx, tx)

	if err := l.runRounds(ctx, tx, seed); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return ldcore.DriverError("loader commit failed", err)
	}
	return nil
}

func (l *Loader) runRounds(ctx context.Context, tx ldcore.Transaction, seed func(tx ldcore.Transaction) error) error {
	if err := seed(tx); err != nil {
		return err
	}

	for round := 0; round < l.MaxRounds; round++ {
		readWork, err := l.runReadPhase(ctx, tx)
		if err != nil {
			return err
		}

		writeWork, err := l.Updater.Run(ctx, tx)
		if err != nil {
			return err
		}

		zap.S().Infow("loader round complete", "round", round, "read_work", readWork, "write_work", writeWork)

		if !readWork && !writeWork {
			return nil
		}
	}

	return ldcore.StoreError("round-limit-exceeded", "loader did not quiesce within the configured round limit")
}

func (l *Loader) runReadPhase(ctx context.Context, tx ldcore.Transaction) (bool, error) {
	var wg sync.WaitGroup
	var fetcherWork, selectorWork bool
	var fetcherErr, selectorErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		fetcherWork, fetcherErr = l.Fetcher.Run(ctx, tx)
	}()
	go func() {
		defer wg.Done()
		selectorWork, selectorErr = l.Selector.Run(ctx)
	}()
	wg.Wait()

	if fetcherErr != nil {
		return fetcherWork || selectorWork, fetcherErr
	}
	if selectorErr != nil {
		return fetcherWork || selectorWork, selectorErr
	}
	return fetcherWork || selectorWork, nil
}
